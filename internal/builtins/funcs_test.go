package builtins

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xlake-project/xlake/internal/value"
)

func TestPdfFactoryBuildFailsWhenConverterMissing(t *testing.T) {
	factory := NewPdfFactory()
	args := value.NewObject()
	args.Insert("prog", value.String("definitely-not-a-real-converter-binary"))

	_, err := factory.Build(context.Background(), args)
	require.Error(t, err)
}

func TestPdfFactoryDeclaresBinaryInputAndOutputModels(t *testing.T) {
	factory := NewPdfFactory()
	require.Equal(t, []string{"binary"}, factory.Input().Models)
	require.Equal(t, []string{"binary", "file", "hash"}, factory.Output().Models)
}
