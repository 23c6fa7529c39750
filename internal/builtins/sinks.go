package builtins

import (
	"context"
	"fmt"

	"github.com/xlake-project/xlake/internal/model"
	"github.com/xlake-project/xlake/internal/node"
	"github.com/xlake-project/xlake/internal/plan"
	"github.com/xlake-project/xlake/internal/value"
	"github.com/xlake-project/xlake/internal/xchannel"
)

// stdoutSinkFactory prints each record to standard output, in order: a doc
// model prints its document text verbatim; a binary model (with no doc
// fallthrough available) prints a byte-count summary rather than raw
// content; anything else falls through to the record's pretty-printed JSON,
// grounded on sinks/local/stdout.rs's three-branch fallthrough.
type stdoutSinkFactory struct{}

func NewStdoutSinkFactory() node.Factory { return stdoutSinkFactory{} }

func (stdoutSinkFactory) Kind() plan.Kind   { return plan.Sink("stdout") }
func (stdoutSinkFactory) Input() plan.Edge  { return plan.Edge{} }
func (stdoutSinkFactory) Output() plan.Edge { return plan.Edge{} }

func (stdoutSinkFactory) Build(_ context.Context, _ *value.Object) (node.Impl, error) {
	return node.NewSink(func(ctx context.Context, in *xchannel.Channel) error {
		stream, err := in.Stream(ctx)
		if err != nil {
			return err
		}
		for {
			item, ok, err := stream.Next(ctx)
			if err != nil {
				return fmt.Errorf("stdoutsink: %w", err)
			}
			if !ok {
				return nil
			}

			flat, err := item.Flatten(ctx)
			if err != nil {
				return fmt.Errorf("stdoutsink: flatten record: %w", err)
			}

			if view, _ := model.Cast(flat, DocModel); view != nil {
				document, _ := view.GetString("document")
				fmt.Println(document)
				continue
			}
			if view, _ := model.Cast(flat, BinaryModel); view != nil {
				content, _ := view.GetBinary("content")
				fmt.Printf("<binary: %d bytes>\n", len(content))
				continue
			}
			fmt.Println(flat.ToStringPretty())
		}
	}), nil
}
