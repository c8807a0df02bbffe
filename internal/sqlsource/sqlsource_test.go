package sqlsource

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsDSNRecognizesSupportedSchemes(t *testing.T) {
	cases := map[string]bool{
		"sqlite://./data.db":                  true,
		"sqlite3://./data.db":                 true,
		"postgres://u:p@host/db":              true,
		"mysql://u:p@host/db":                 true,
		"sqlserver://u:p@host/db":             true,
		"/plain/path/to/file.json":            false,
		"relative/data.csv":                   false,
		"ftp://unsupported.example.com/thing": false,
	}
	for dsn, want := range cases {
		require.Equal(t, want, IsDSN(dsn), dsn)
	}
}

func TestQueryRejectsUnknownScheme(t *testing.T) {
	_, err := Query("ftp://host/db", "SELECT 1")
	require.Error(t, err)
}

func TestQueryRejectsMalformedDSN(t *testing.T) {
	_, err := Query("not-a-dsn", "SELECT 1")
	require.Error(t, err)
}
