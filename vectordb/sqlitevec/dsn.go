package sqlitevec

import (
	"fmt"
	"strings"
)

const defaultBusyTimeoutMS = 5000

// withPragmas appends journal and busy-timeout pragmas the DSN does not already set.
// In-memory databases are returned unchanged.
func withPragmas(dsn string, wal bool, busyTimeoutMS int) string {
	lower := strings.ToLower(dsn)
	if dsn == "" || dsn == ":memory:" || strings.HasPrefix(lower, "file::memory:") {
		return dsn
	}
	if wal && !strings.Contains(lower, "_pragma=journal_mode") {
		dsn = addPragma(dsn, "journal_mode(WAL)")
	}
	if busyTimeoutMS > 0 && !strings.Contains(lower, "_pragma=busy_timeout") {
		dsn = addPragma(dsn, fmt.Sprintf("busy_timeout(%d)", busyTimeoutMS))
	}
	return dsn
}

func addPragma(dsn, pragma string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=" + pragma
}
