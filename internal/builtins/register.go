package builtins

import (
	"go.uber.org/zap"

	"github.com/xlake-project/xlake/internal/model"
	"github.com/xlake-project/xlake/internal/node"
)

// RegisterAll populates nodes with every built-in factory and models with
// every built-in model. defaultStoreDir is the fallback "localstore"
// directory when a plan omits its "path" argument. batchMemoryLimitMB caps
// the csvsrc batch form's accumulated row content size (xconfig's
// batch.memory_limit_mb); 0 means unlimited.
func RegisterAll(nodes *node.Registry, models *model.Registry, defaultStoreDir string, batchMemoryLimitMB int, logger *zap.Logger) {
	RegisterModels(models)

	nodes.Register(NewStdinSrcFactory())
	nodes.Register(NewFileSrcFactory())
	nodes.Register(NewCsvSrcFactory(batchMemoryLimitMB))
	nodes.Register(NewStdoutSinkFactory())
	nodes.Register(NewDocSplitFactory())
	nodes.Register(NewPdfFactory())
	nodes.Register(NewLocalStoreFactory(defaultStoreDir, logger))
}
