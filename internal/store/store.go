// Package store implements the content-addressed cache (spec 4.6): the
// Store interface, the save algorithm over a channel of records, and the
// default local filesystem implementation. Grounded on
// original_source/crates/xlake-core/src/lib.rs's PipeStoreExt::save and
// crates/xlake/src/stores/local.rs's LocalStore.
package store

import (
	"context"

	"github.com/xlake-project/xlake/internal/value"
)

// Store is a content-addressed persistence layer. Implementations must
// tolerate concurrent readers; exclusive-writer-per-key is acceptable.
type Store interface {
	Contains(ctx context.Context, hash string) (bool, error)
	Read(ctx context.Context, hash string) (*value.Object, error)
	Write(ctx context.Context, hash string, obj *value.Object) error
}
