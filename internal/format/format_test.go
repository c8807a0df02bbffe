package format

import (
	"testing"

	"github.com/stretchr/testify/require"

	"dsq/internal/value"
)

func TestDetectPrefersExplicitFlag(t *testing.T) {
	require.Equal(t, JSON, Detect(JSON, "data.csv", []byte("a,b\n1,2\n")))
}

func TestDetectByExtension(t *testing.T) {
	require.Equal(t, CSV, Detect("", "data.csv", nil))
	require.Equal(t, TSV, Detect("", "data.tsv", nil))
	require.Equal(t, JSONL, Detect("", "data.ndjson", nil))
	require.Equal(t, Parquet, Detect("", "data.parquet", nil))
}

func TestDetectByMagicBytes(t *testing.T) {
	require.Equal(t, Parquet, Detect("", "unknown", []byte("PAR1...")))
	require.Equal(t, Avro, Detect("", "unknown", []byte("Obj\x01...")))
}

func TestDetectByStructureFallsBackToCSV(t *testing.T) {
	require.Equal(t, CSV, Detect("", "unknown", []byte("a,b,c\n1,2,3\n")))
	require.Equal(t, JSON, Detect("", "unknown", []byte(`{"a":1}`)))
	require.Equal(t, TSV, Detect("", "unknown", []byte("a\tb\tc\n1\t2\t3\n")))
}

func TestCSVReadInfersCellTypes(t *testing.T) {
	f, ok := Get(CSV)
	require.True(t, ok)
	v, err := f.Read([]byte("name,age,active\nAlice,30,true\nBob,25,false\n"))
	require.NoError(t, err)
	rows := v.AsArray()
	require.Len(t, rows, 2)
	age, _ := rows[0].Get("age")
	require.Equal(t, value.KindInt, age.Kind())
	require.Equal(t, int64(30), age.AsInt())
	active, _ := rows[0].Get("active")
	require.Equal(t, value.KindBool, active.Kind())
}

func TestCSVWriteReadRoundTrip(t *testing.T) {
	f, ok := Get(CSV)
	require.True(t, ok)
	rows := value.Array([]value.Value{
		value.NewObjectBuilder().Set("a", value.Int(1)).Set("b", value.String("x")).Build(),
		value.NewObjectBuilder().Set("a", value.Int(2)).Set("b", value.String("y")).Build(),
	})
	data, err := f.Write(rows)
	require.NoError(t, err)
	back, err := f.Read(data)
	require.NoError(t, err)
	require.Len(t, back.AsArray(), 2)
}

func TestTSVUsesTabSeparator(t *testing.T) {
	f, ok := Get(TSV)
	require.True(t, ok)
	v, err := f.Read([]byte("a\tb\n1\t2\n"))
	require.NoError(t, err)
	row := v.AsArray()[0]
	a, _ := row.Get("a")
	require.Equal(t, int64(1), a.AsInt())
}

func TestJSONReadWriteRoundTrip(t *testing.T) {
	f, ok := Get(JSON)
	require.True(t, ok)
	in := value.NewObjectBuilder().
		Set("name", value.String("Alice")).
		Set("age", value.Int(30)).
		Set("tags", value.Array([]value.Value{value.String("a"), value.String("b")})).
		Build()
	data, err := f.Write(in)
	require.NoError(t, err)
	out, err := f.Read(data)
	require.NoError(t, err)
	require.True(t, value.Equal(in, out))
}

func TestJSONLRoundTripsOneObjectPerLine(t *testing.T) {
	f, ok := Get(JSONL)
	require.True(t, ok)
	rows := value.Array([]value.Value{
		value.NewObjectBuilder().Set("n", value.Int(1)).Build(),
		value.NewObjectBuilder().Set("n", value.Int(2)).Build(),
	})
	data, err := f.Write(rows)
	require.NoError(t, err)

	back, err := f.Read(data)
	require.NoError(t, err)
	require.Len(t, back.AsArray(), 2)
}

func TestJSONLSkipsBlankLines(t *testing.T) {
	f, ok := Get(JSONL)
	require.True(t, ok)
	back, err := f.Read([]byte("{\"n\":1}\n\n{\"n\":2}\n"))
	require.NoError(t, err)
	require.Len(t, back.AsArray(), 2)
}
