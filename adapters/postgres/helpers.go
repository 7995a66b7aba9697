package postgres

import (
	"database/sql"
	"strings"

	"biotriage/domain/core"
)

func joinReasons(reasons []string) string {
	return strings.Join(reasons, ";")
}

// nullable maps an absent JSON payload to SQL NULL
func nullable(data []byte) interface{} {
	if len(data) == 0 {
		return nil
	}
	return data
}

func timestampOf(t sql.NullTime) core.Timestamp {
	return core.NewTimestamp(t.Time)
}
