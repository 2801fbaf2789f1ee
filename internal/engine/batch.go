package engine

import "context"

// RunBatch executes op against every spec in order and returns one Outcome
// per spec, index-aligned with the input. A failed spec never stops the
// batch; cancellation fills the remaining outcomes with the context error.
func (e *Engine) RunBatch(ctx context.Context, op Op, specs []Spec) []Outcome {
	outcomes := make([]Outcome, len(specs))
	for i, spec := range specs {
		if err := ctx.Err(); err != nil {
			outcomes[i] = Outcome{Err: err}
			continue
		}
		switch op {
		case OpFileCopyMeta:
			spec.PreserveMetadata = true
			outcomes[i] = e.CopyFile(ctx, spec)
		case OpTreeCopy:
			outcomes[i] = e.CopyTree(ctx, spec)
		default:
			outcomes[i] = e.CopyFile(ctx, spec)
		}
	}
	return outcomes
}
