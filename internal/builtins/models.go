// Package builtins implements the concrete node factories and model
// definitions shipped by default: stdin/file/csv sources, the stdout sink,
// the local filesystem store, and the hash/binary/file/doc models with
// their conversion functions. Grounded on
// original_source/crates/xlake/src/{srcs,sinks,stores,models}/*.rs.
package builtins

import (
	"github.com/xlake-project/xlake/internal/model"
	"github.com/xlake-project/xlake/internal/value"
)

// HashModel matches models/hash.rs's HashModelObject: a single string
// "hash" field, asserted on every record the content-addressed cache can
// act on.
var HashModel = model.New("hash", model.Field{Name: "hash", Kind: value.KindString})

// BinaryModel matches models/binary.rs's BinaryModelObject.
var BinaryModel = model.New("binary", model.Field{Name: "content", Kind: value.KindBinary})

// FileModel matches models/file.rs's FileModelObject.
var FileModel = model.New("file", model.Field{Name: "extension", Kind: value.KindString})

// DocModel matches models/doc.rs's DocModelObject.
var DocModel = model.New("doc", model.Field{Name: "document", Kind: value.KindString})

// RegisterModels adds the built-in model set to r.
func RegisterModels(r *model.Registry) {
	r.Register(HashModel)
	r.Register(BinaryModel)
	r.Register(FileModel)
	r.Register(DocModel)
}
