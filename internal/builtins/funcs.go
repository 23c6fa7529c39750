package builtins

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/xlake-project/xlake/internal/model"
	"github.com/xlake-project/xlake/internal/node"
	"github.com/xlake-project/xlake/internal/object"
	"github.com/xlake-project/xlake/internal/plan"
	"github.com/xlake-project/xlake/internal/value"
	"github.com/xlake-project/xlake/internal/xchannel"
	"github.com/xlake-project/xlake/internal/xhash"
)

// docSplitFactory splits a doc record's document field into paragraphs on
// blank lines, emitting one fresh doc record per paragraph. The original's
// models/builtins/doc/split.rs function body was an unimplemented todo!();
// this behavior is a from-scratch but conservative fill-in grounded on the
// surrounding doc-model convention, not a translation of an absent
// implementation.
type docSplitFactory struct{}

func NewDocSplitFactory() node.Factory { return docSplitFactory{} }

func (docSplitFactory) Kind() plan.Kind   { return plan.Func("doc", "split") }
func (docSplitFactory) Input() plan.Edge  { return plan.Edge{Models: []string{"doc"}} }
func (docSplitFactory) Output() plan.Edge { return plan.Edge{Models: []string{"doc"}} }

func (docSplitFactory) Build(_ context.Context, _ *value.Object) (node.Impl, error) {
	return node.NewFunc(func(ctx context.Context, in *xchannel.Channel) (*xchannel.Channel, error) {
		stream, err := in.Stream(ctx)
		if err != nil {
			return nil, err
		}

		out := xchannel.NewStreamForm()
		for {
			item, ok, err := stream.Next(ctx)
			if err != nil {
				return nil, fmt.Errorf("doc:split: %w", err)
			}
			if !ok {
				break
			}

			flat, err := item.Flatten(ctx)
			if err != nil {
				return nil, fmt.Errorf("doc:split: flatten record: %w", err)
			}
			view, rejected := model.Cast(flat, DocModel)
			if rejected != nil {
				out.ExtendOne(rejected)
				continue
			}
			document, _ := view.GetString("document")

			for _, paragraph := range strings.Split(document, "\n\n") {
				if strings.TrimSpace(paragraph) == "" {
					continue
				}
				content := value.NewObject()
				content.Insert("document", value.String(paragraph))
				record, err := hashAndWrap(content, xhash.StringHashable(paragraph), "doc")
				if err != nil {
					return nil, fmt.Errorf("doc:split: %w", err)
				}
				out.ExtendOne(record)
			}
		}

		return xchannel.FromStream(out), nil
	}), nil
}

// pdfFactory shells out to a LibreOffice-compatible converter to turn a
// binary record into a PDF, grounded on models/builtins/binary/pdf.rs. The
// hash field is left untouched across the conversion (the original never
// recomputes it here either): identity is keyed off the source bytes, so a
// cache layer downstream of this function dedupes by the pre-conversion
// content, not the rendered PDF bytes.
type pdfFactory struct{}

func NewPdfFactory() node.Factory { return pdfFactory{} }

func (pdfFactory) Kind() plan.Kind  { return plan.Func("binary", "pdf") }
func (pdfFactory) Input() plan.Edge { return plan.Edge{Models: []string{"binary"}} }
func (pdfFactory) Output() plan.Edge {
	return plan.Edge{Models: []string{"binary", "file", "hash"}}
}

func (pdfFactory) Build(_ context.Context, args *value.Object) (node.Impl, error) {
	prog := "libreoffice"
	if v, ok := args.Get("prog"); ok {
		if s, ok := v.AsString(); ok {
			prog = s
		}
	}
	resolved, err := exec.LookPath(prog)
	if err != nil {
		return node.Impl{}, fmt.Errorf("pdf: locate converter %q: %w", prog, err)
	}

	return node.NewFunc(func(ctx context.Context, in *xchannel.Channel) (*xchannel.Channel, error) {
		stream, err := in.Stream(ctx)
		if err != nil {
			return nil, err
		}

		out := xchannel.NewStreamForm()
		for {
			item, ok, err := stream.Next(ctx)
			if err != nil {
				return nil, fmt.Errorf("pdf: %w", err)
			}
			if !ok {
				break
			}
			converted, err := convertToPDF(ctx, resolved, item)
			if err != nil {
				return nil, err
			}
			out.ExtendOne(converted)
		}

		return xchannel.FromStream(out), nil
	}), nil
}

func convertToPDF(ctx context.Context, prog string, item *object.LazyObject) (*object.LazyObject, error) {
	flat, err := item.Flatten(ctx)
	if err != nil {
		return nil, fmt.Errorf("pdf: flatten record: %w", err)
	}
	view, rejected := model.Cast(flat, BinaryModel)
	if rejected != nil {
		return rejected, nil
	}
	content, ok := view.GetBinary("content")
	if !ok {
		return flat, nil
	}

	srcFile, err := os.CreateTemp("", "xlake-pdf-src-*")
	if err != nil {
		return nil, fmt.Errorf("pdf: create temp source file: %w", err)
	}
	defer os.Remove(srcFile.Name())
	if _, err := srcFile.Write(content); err != nil {
		srcFile.Close()
		return nil, fmt.Errorf("pdf: write temp source file: %w", err)
	}
	srcFile.Close()

	parent := filepath.Dir(srcFile.Name())
	cmd := exec.CommandContext(ctx, prog,
		"--headless", "--invisible", "--convert-to", "pdf", srcFile.Name())
	cmd.Dir = parent
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("pdf: convert: %w: %s", err, strings.TrimSpace(string(output)))
	}

	stem := strings.TrimSuffix(filepath.Base(srcFile.Name()), filepath.Ext(srcFile.Name()))
	dst := filepath.Join(parent, stem+".pdf")
	converted, err := os.ReadFile(dst)
	if err != nil {
		return nil, fmt.Errorf("pdf: read converted output: %w", err)
	}
	os.Remove(dst)

	flat.Insert("content", value.Binary(converted))
	if _, rejected := model.Cast(flat, FileModel); rejected == nil {
		flat.Insert("extension", value.String("pdf"))
	}
	return flat, nil
}
