package builtins

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xlake-project/xlake/internal/node"
	"github.com/xlake-project/xlake/internal/object"
	"github.com/xlake-project/xlake/internal/plan"
	"github.com/xlake-project/xlake/internal/value"
	"github.com/xlake-project/xlake/internal/xchannel"
	"github.com/xlake-project/xlake/internal/xhash"
)

// hashAndWrap computes hash over hashable, inserts it into content, and
// wraps the whole thing as a single ready layer declaring models plus
// "hash" — the Go analogue of HashModelView::try_new merging the hash
// field into the same object the caller is building.
func hashAndWrap(content *value.Object, hashable xhash.Hashable, models ...string) (*object.LazyObject, error) {
	h, err := xhash.Digest(hashable)
	if err != nil {
		return nil, fmt.Errorf("builtins: hash content: %w", err)
	}
	content.Insert("hash", value.String(string(h)))
	all := append(append([]string{}, models...), "hash")
	return object.NewLazyObject(content, object.NewModelSet(all...)), nil
}

// stdinSrcFactory reads the entirety of stdin into a single doc-model
// record, grounded on srcs/stdin.rs.
type stdinSrcFactory struct{}

func NewStdinSrcFactory() node.Factory { return stdinSrcFactory{} }

func (stdinSrcFactory) Kind() plan.Kind   { return plan.Src("stdin") }
func (stdinSrcFactory) Input() plan.Edge  { return plan.Edge{} }
func (stdinSrcFactory) Output() plan.Edge { return plan.Edge{Models: []string{"doc", "hash"}} }

func (stdinSrcFactory) Build(_ context.Context, _ *value.Object) (node.Impl, error) {
	return node.NewSrc(func(ctx context.Context) (*xchannel.Channel, error) {
		buf, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("stdinsrc: read stdin: %w", err)
		}
		document := string(buf)

		content := value.NewObject()
		content.Insert("document", value.String(document))
		record, err := hashAndWrap(content, xhash.StringHashable(document), "doc")
		if err != nil {
			return nil, err
		}
		return xchannel.Unit(record), nil
	}), nil
}

// fileSrcFactory reads a file's bytes into a binary+file-model record,
// grounded on srcs/file.rs's content-cache variant (the path-cache variant
// is not carried: this engine has no lazy-future filesystem read path
// wired into a Src today).
type fileSrcFactory struct{}

func NewFileSrcFactory() node.Factory { return fileSrcFactory{} }

func (fileSrcFactory) Kind() plan.Kind  { return plan.Src("file") }
func (fileSrcFactory) Input() plan.Edge { return plan.Edge{} }
func (fileSrcFactory) Output() plan.Edge {
	return plan.Edge{Models: []string{"binary", "file", "hash"}}
}

func (fileSrcFactory) Build(_ context.Context, args *value.Object) (node.Impl, error) {
	pathVal, ok := args.Get("path")
	if !ok {
		return node.Impl{}, fmt.Errorf("filesrc: missing required argument %q", "path")
	}
	path, ok := pathVal.AsString()
	if !ok {
		return node.Impl{}, fmt.Errorf("filesrc: argument %q must be a string", "path")
	}

	return node.NewSrc(func(ctx context.Context) (*xchannel.Channel, error) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("filesrc: resolve %q: %w", path, err)
		}
		raw, err := os.ReadFile(abs)
		if err != nil {
			return nil, fmt.Errorf("filesrc: read %q: %w", abs, err)
		}
		ext := filepath.Ext(abs)
		if len(ext) > 0 && ext[0] == '.' {
			ext = ext[1:]
		}

		content := value.NewObject()
		content.Insert("content", value.Binary(raw))
		content.Insert("extension", value.String(ext))
		record, err := hashAndWrap(content, xhash.BytesHashable(raw), "binary", "file")
		if err != nil {
			return nil, err
		}
		return xchannel.Unit(record), nil
	}), nil
}

// csvSrcFactory registers a CSV file as the batch form's default table,
// inferring integer vs. string columns by attempting to parse every row's
// value in a column as an integer, grounded on srcs/local/csv.rs (minus the
// DataFusion CsvReadOptions reader, since the batch engine here is
// modernc.org/sqlite rather than DataFusion).
type csvSrcFactory struct {
	memoryLimitMB int
}

// NewCsvSrcFactory builds the factory for the "csvsrc" node kind.
// memoryLimitMB caps the batch form's accumulated row content size
// (xconfig's batch.memory_limit_mb); 0 means unlimited.
func NewCsvSrcFactory(memoryLimitMB int) node.Factory {
	return csvSrcFactory{memoryLimitMB: memoryLimitMB}
}

func (csvSrcFactory) Kind() plan.Kind   { return plan.Src("csv") }
func (csvSrcFactory) Input() plan.Edge  { return plan.Edge{} }
func (csvSrcFactory) Output() plan.Edge { return plan.Edge{Batch: "memory"} }

func (f csvSrcFactory) Build(_ context.Context, args *value.Object) (node.Impl, error) {
	pathVal, ok := args.Get("path")
	if !ok {
		return node.Impl{}, fmt.Errorf("csvsrc: missing required argument %q", "path")
	}
	path, ok := pathVal.AsString()
	if !ok {
		return node.Impl{}, fmt.Errorf("csvsrc: argument %q must be a string", "path")
	}

	return node.NewSrc(func(ctx context.Context) (*xchannel.Channel, error) {
		header, rows, err := readCSV(path)
		if err != nil {
			return nil, err
		}

		batch, err := xchannel.NewBatchForm(false, f.memoryLimitMB)
		if err != nil {
			return nil, err
		}
		isInt := inferIntegerColumns(header, rows)

		for _, row := range rows {
			content := value.NewObject()
			for i, col := range header {
				if i >= len(row) {
					continue
				}
				if isInt[i] {
					content.Insert(col, parseIntCell(row[i]))
				} else {
					content.Insert(col, value.String(row[i]))
				}
			}
			if err := batch.ExtendOne(ctx, object.NewLazyObject(content, nil)); err != nil {
				return nil, fmt.Errorf("csvsrc: load row: %w", err)
			}
		}

		return xchannel.FromBatch(batch), nil
	}), nil
}
