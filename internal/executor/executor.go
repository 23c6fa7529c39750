// Package executor runs a compiled node sequence to completion (spec 4.5):
// a single channel register threaded through Src, Func/Format, Store and
// Sink steps in order, aborting on the first error with its original
// context intact.
package executor

import (
	"context"
	"fmt"

	"github.com/xlake-project/xlake/internal/invariant"
	"github.com/xlake-project/xlake/internal/node"
	"github.com/xlake-project/xlake/internal/plan"
	"github.com/xlake-project/xlake/internal/xchannel"
)

// Run dispatches each Impl in sequence order, threading a single channel
// register from the Src step's output through to the Sink step's input.
// sequence must already be compiler-validated: exactly one Src first,
// exactly one Sink last, everything else Func/Format/Store in between.
func Run(ctx context.Context, sequence []node.Impl) error {
	invariant.ContextNotBackground(ctx, "executor.Run")

	var ch *xchannel.Channel

	for i, impl := range sequence {
		var err error
		switch impl.TypeName() {
		case plan.TypeSrc:
			ch, err = impl.CallSrc(ctx)
		case plan.TypeFunc, plan.TypeFormat:
			ch, err = impl.CallFunc(ctx, ch)
		case plan.TypeStore:
			ch, err = impl.CallStore(ctx, ch)
		case plan.TypeSink:
			err = impl.CallSink(ctx, ch)
		default:
			err = fmt.Errorf("executor: node at position %d has unrunnable type %s", i, impl.TypeName())
		}
		if err != nil {
			return fmt.Errorf("executor: step %d (%s): %w", i, impl.TypeName(), err)
		}
	}

	return nil
}
