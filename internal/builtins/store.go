package builtins

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xlake-project/xlake/internal/node"
	"github.com/xlake-project/xlake/internal/plan"
	"github.com/xlake-project/xlake/internal/store"
	"github.com/xlake-project/xlake/internal/value"
	"github.com/xlake-project/xlake/internal/xchannel"
)

// localStoreFactory wraps store.LocalStore as a Store node, grounded on
// stores/local.rs: init ensures the base directory exists at build time,
// keyed by the "path" argument (defaultDir when omitted).
type localStoreFactory struct {
	defaultDir string
	logger     *zap.Logger
}

// NewLocalStoreFactory builds the factory for the "localstore" node kind.
// defaultDir is used when a plan omits the "path" argument (the
// xconfig-resolved store.dir). logger defaults to a no-op logger if nil.
func NewLocalStoreFactory(defaultDir string, logger *zap.Logger) node.Factory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return localStoreFactory{defaultDir: defaultDir, logger: logger}
}

func (localStoreFactory) Kind() plan.Kind  { return plan.Store("local") }
func (localStoreFactory) Input() plan.Edge { return plan.Edge{Models: []string{"hash"}} }
func (localStoreFactory) Output() plan.Edge { return plan.Edge{} }

func (f localStoreFactory) Build(_ context.Context, args *value.Object) (node.Impl, error) {
	dir := f.defaultDir
	if v, ok := args.Get("path"); ok {
		if s, ok := v.AsString(); ok {
			dir = s
		}
	}
	if dir == "" {
		return node.Impl{}, fmt.Errorf("localstore: no store directory configured")
	}

	st, err := store.NewLocalStore(dir)
	if err != nil {
		return node.Impl{}, fmt.Errorf("localstore: %w", err)
	}

	return node.NewStore(st, func(ctx context.Context, st store.Store, in *xchannel.Channel) (*xchannel.Channel, error) {
		return store.Save(ctx, st, in, f.logger)
	}), nil
}
