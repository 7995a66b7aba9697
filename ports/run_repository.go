package ports

import (
	"context"

	"biotriage/domain/pair"
)

// RunRepository persists completed triage runs. Persistence is optional;
// a nil repository simply skips the step.
type RunRepository interface {
	SaveRun(ctx context.Context, summary pair.RunSummary, results []pair.RowResult) error
	GetSummary(ctx context.Context, runID string) (*pair.RunSummary, error)
}
