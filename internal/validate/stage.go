package validate

import (
	"log/slog"

	"github.com/alnah/go-qrda2qpp/internal/node"
	"github.com/alnah/go-qrda2qpp/internal/registry"
	"github.com/alnah/go-qrda2qpp/internal/report"
)

// Stage runs every registered validator over a tree.
type Stage struct {
	reg    *registry.Registry
	logger *slog.Logger
}

// NewStage returns a validation stage backed by reg. A nil logger
// discards output.
func NewStage(reg *registry.Registry, logger *slog.Logger) *Stage {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Stage{reg: reg, logger: logger}
}

// Validate checks every node against the validators of its kind, then runs
// the cross-node validators for every kind that has them. One failing
// validator never stops the others. The result is nil when the tree is
// valid.
func (s *Stage) Validate(tree *node.Tree) []report.ValidationError {
	var errs []report.ValidationError

	tree.Walk(func(n node.Node) bool {
		for _, v := range s.reg.Validators(n.Kind()) {
			v.ValidateNode(n, &errs)
		}
		return true
	})

	for _, k := range s.reg.CrossKinds() {
		nodes := tree.FindAll(k)
		for _, v := range s.reg.CrossValidators(k) {
			v.ValidateNodes(nodes, &errs)
		}
	}

	s.logger.Debug("validation finished", "nodes", tree.Len(), "errors", len(errs))
	return errs
}
