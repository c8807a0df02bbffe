// Package sqlsource reads a table from a live database connection for
// join_from_file's DSN form and the `merge --method join` CLI path, when the
// secondary input is a database rather than a file.
package sqlsource

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"dsq/internal/value"
)

// DSN is a "scheme://..." connection string; the scheme selects the driver.
// Prefixes: sqlite/file (pure-Go modernc.org/sqlite), sqlite3 (cgo
// mattn/go-sqlite3), postgres/postgresql, mysql, sqlserver/mssql.
type DSN string

// IsDSN reports whether s names a supported database DSN rather than a
// filesystem path, so callers can route join_from_file/merge inputs to
// either this package or internal/format.
func IsDSN(s string) bool {
	scheme, _, ok := strings.Cut(s, "://")
	if !ok {
		return false
	}
	_, known := driverFor(scheme)
	return known
}

func driverFor(scheme string) (name string, ok bool) {
	switch scheme {
	case "sqlite", "file":
		return "sqlite", true
	case "sqlite3":
		return "sqlite3", true
	case "postgres", "postgresql":
		return "postgres", true
	case "mysql":
		return "mysql", true
	case "sqlserver", "mssql":
		return "sqlserver", true
	default:
		return "", false
	}
}

// Query opens dsn, runs query, and returns the result rows as a
// value.Array of value.Object, closing the connection before returning.
func Query(dsn DSN, query string) (value.Value, error) {
	scheme, rest, ok := strings.Cut(string(dsn), "://")
	if !ok {
		return value.Null(), fmt.Errorf("sqlsource: %q is not a scheme://... DSN", dsn)
	}
	driverName, known := driverFor(scheme)
	if !known {
		return value.Null(), fmt.Errorf("sqlsource: unsupported scheme %q", scheme)
	}

	db, err := sql.Open(driverName, connString(driverName, rest))
	if err != nil {
		return value.Null(), fmt.Errorf("sqlsource: opening %q: %w", scheme, err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return value.Null(), fmt.Errorf("sqlsource: connecting to %q: %w", scheme, err)
	}

	rows, err := db.Query(query)
	if err != nil {
		return value.Null(), fmt.Errorf("sqlsource: query failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return value.Null(), err
	}

	var out []value.Value
	scanned := make([]interface{}, len(columns))
	ptrs := make([]interface{}, len(columns))
	for i := range scanned {
		ptrs[i] = &scanned[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return value.Null(), err
		}
		b := value.NewObjectBuilder()
		for i, col := range columns {
			b.Set(col, cellValue(scanned[i]))
		}
		out = append(out, b.Build())
	}
	return value.Array(out), rows.Err()
}

// connString rebuilds the scheme://... URL for postgres and sqlserver, whose
// drivers parse the full URL form, and passes the bare path/DSN after the
// scheme through unchanged for sqlite and mysql.
func connString(driverName, rest string) string {
	switch driverName {
	case "postgres", "sqlserver":
		return driverName + "://" + rest
	default:
		return rest
	}
}

func cellValue(v interface{}) value.Value {
	switch t := v.(type) {
	case nil:
		return value.Null()
	case []byte:
		return value.String(string(t))
	case int64:
		return value.Int(t)
	case float64:
		return value.Float(t)
	case bool:
		return value.Bool(t)
	case string:
		return value.String(t)
	default:
		return value.String(fmt.Sprintf("%v", t))
	}
}
