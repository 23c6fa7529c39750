package invariant_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xlake-project/xlake/internal/invariant"
)

func TestPreconditionPassesOnTrueCondition(t *testing.T) {
	require.NotPanics(t, func() {
		invariant.Precondition(true, "duplicate factory registration for %s", "csvsrc")
	})
}

func TestPreconditionPanicsOnFalseCondition(t *testing.T) {
	defer func() {
		r := recover()
		require.NotNil(t, r)
		msg, ok := r.(string)
		require.True(t, ok)
		require.Contains(t, msg, "PRECONDITION VIOLATION: CallSrc invoked on non-Src node impl")
	}()
	invariant.Precondition(false, "CallSrc invoked on non-Src node impl")
}

func TestPostconditionPanicsWithStepCounts(t *testing.T) {
	defer func() {
		r := recover()
		require.NotNil(t, r)
		msg, ok := r.(string)
		require.True(t, ok)
		require.Contains(t, msg, "POSTCONDITION VIOLATION")
		require.Contains(t, msg, "compiled sequence length 1 must match plan length 2")
	}()
	invariant.Postcondition(false, "compiled sequence length %d must match plan length %d", 1, 2)
}

func TestInvariantPanicsOnBrokenHashConsistency(t *testing.T) {
	defer func() {
		r := recover()
		require.NotNil(t, r)
		msg, ok := r.(string)
		require.True(t, ok)
		require.Contains(t, msg, "INVARIANT VIOLATION")
		require.Contains(t, msg, "content hash must be stable across re-flatten")
	}()
	invariant.Invariant(false, "content hash must be stable across re-flatten")
}

func TestNotNilAcceptsRegisteredFactory(t *testing.T) {
	require.NotPanics(t, func() {
		var f any = struct{}{}
		invariant.NotNil(f, "factory")
	})
}

func TestNotNilPanicsOnNilFactory(t *testing.T) {
	defer func() {
		r := recover()
		require.NotNil(t, r)
		msg, ok := r.(string)
		require.True(t, ok)
		require.Contains(t, msg, "factory must not be nil")
	}()

	var f any
	invariant.NotNil(f, "factory")
}

func TestInRangeAcceptsBoundaryValues(t *testing.T) {
	require.NotPanics(t, func() {
		invariant.InRange(0, 0, 1<<20, "batch.memory_limit_mb")
		invariant.InRange(1<<20, 0, 1<<20, "batch.memory_limit_mb")
	})
}

func TestInRangePanicsOnNegativeMemoryLimit(t *testing.T) {
	defer func() {
		r := recover()
		require.NotNil(t, r)
		msg, ok := r.(string)
		require.True(t, ok)
		require.Contains(t, msg, "batch.memory_limit_mb must be in range [0, 1048576], got -1")
	}()
	invariant.InRange(-1, 0, 1<<20, "batch.memory_limit_mb")
}

func TestPositiveAcceptsConfiguredDefault(t *testing.T) {
	require.NotPanics(t, func() {
		invariant.Positive(512, "defaultBatchMemoryLimitMB")
	})
}

func TestPositivePanicsOnZero(t *testing.T) {
	defer func() {
		r := recover()
		require.NotNil(t, r)
		msg, ok := r.(string)
		require.True(t, ok)
		require.Contains(t, msg, "defaultBatchMemoryLimitMB must be positive, got 0")
	}()
	invariant.Positive(0, "defaultBatchMemoryLimitMB")
}

func TestExpectNoErrorPassesOnNil(t *testing.T) {
	require.NotPanics(t, func() {
		invariant.ExpectNoError(nil, `model "doc": compile schema`)
	})
}

func TestExpectNoErrorPanicsOnError(t *testing.T) {
	defer func() {
		r := recover()
		require.NotNil(t, r)
		msg, ok := r.(string)
		require.True(t, ok)
		require.Contains(t, msg, `model "doc": compile schema must not fail`)
	}()
	invariant.ExpectNoError(context.DeadlineExceeded, `model "doc": compile schema`)
}

func TestContextNotBackgroundAcceptsDerivedContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NotPanics(t, func() {
		invariant.ContextNotBackground(ctx, "executor.Run")
	})
}

func TestContextNotBackgroundPanicsOnBareBackground(t *testing.T) {
	defer func() {
		r := recover()
		require.NotNil(t, r)
		msg, ok := r.(string)
		require.True(t, ok)
		require.Contains(t, msg, "executor.Run: context must not be Background()")
	}()
	invariant.ContextNotBackground(context.Background(), "executor.Run")
}

func TestContextNotBackgroundPanicsOnNil(t *testing.T) {
	defer func() {
		r := recover()
		require.NotNil(t, r)
		msg, ok := r.(string)
		require.True(t, ok)
		require.Contains(t, msg, "executor.Run: context must not be nil")
	}()
	invariant.ContextNotBackground(nil, "executor.Run")
}

func TestFailIncludesCallerFileAndLine(t *testing.T) {
	defer func() {
		r := recover()
		require.NotNil(t, r)
		msg, ok := r.(string)
		require.True(t, ok)
		require.Contains(t, msg, "invariant_test.go:")
	}()
	invariant.Precondition(false, "stack frame check")
}
