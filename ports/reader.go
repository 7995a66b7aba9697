package ports

import (
	"context"

	"biotriage/domain/pair"
)

// RecordSource supplies gene-pair records for one run, already coerced to
// the canonical field set. Structural problems (missing or unexpected
// columns) fail the read; per-value coercion problems are recorded on the
// record for the validator to report.
type RecordSource interface {
	Read(ctx context.Context) ([]pair.GenePairRecord, error)
}
