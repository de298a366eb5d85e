package migrations

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList_Embedded(t *testing.T) {
	pg, err := List(Postgres)
	require.NoError(t, err)
	require.NotEmpty(t, pg)
	assert.Equal(t, 1, pg[0].Version)
	assert.Equal(t, "001_share_links.sql", pg[0].Name)
	assert.Contains(t, pg[0].SQL, "CREATE TABLE IF NOT EXISTS share_links")

	ch, err := List(Clickhouse)
	require.NoError(t, err)
	require.NotEmpty(t, ch)
	assert.Equal(t, "001_render_events.sql", ch[0].Name)
}

func TestList_OrdersByVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"pg/010_c.sql":  {Data: []byte("SELECT 3;")},
		"pg/002_b.sql":  {Data: []byte("SELECT 2;")},
		"pg/001_a.sql":  {Data: []byte("SELECT 1;")},
		"pg/README.txt": {Data: []byte("ignored")},
	}

	got, err := list(fsys, "pg")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []int{1, 2, 10}, []int{got[0].Version, got[1].Version, got[2].Version})
}

func TestList_Errors(t *testing.T) {
	tests := []struct {
		name string
		fsys fstest.MapFS
	}{
		{"duplicate version", fstest.MapFS{
			"pg/001_a.sql": {Data: []byte("SELECT 1;")},
			"pg/1_b.sql":   {Data: []byte("SELECT 2;")},
		}},
		{"missing prefix", fstest.MapFS{"pg/init.sql": {Data: []byte("SELECT 1;")}}},
		{"non-numeric prefix", fstest.MapFS{"pg/abc_init.sql": {Data: []byte("SELECT 1;")}}},
		{"zero version", fstest.MapFS{"pg/000_init.sql": {Data: []byte("SELECT 1;")}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := list(tt.fsys, "pg")
			assert.Error(t, err)
		})
	}
}

func TestSplitStatements_Embedded(t *testing.T) {
	ch, err := List(Clickhouse)
	require.NoError(t, err)

	stmts, err := splitStatements(ch[0].SQL)
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	assert.Contains(t, stmts[0], "CREATE TABLE IF NOT EXISTS render_events")
}

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "two statements",
			input: "CREATE TABLE a (x Int8);\n\nCREATE TABLE b (y Int8);\n",
			want:  []string{"CREATE TABLE a (x Int8)", "CREATE TABLE b (y Int8)"},
		},
		{
			name:  "semicolon in string",
			input: "INSERT INTO t VALUES ('a;b');SELECT 1",
			want:  []string{"INSERT INTO t VALUES ('a;b')", "SELECT 1"},
		},
		{
			name:  "escaped quote",
			input: `SELECT 'it\'s; fine';`,
			want:  []string{`SELECT 'it\'s; fine'`},
		},
		{
			name:  "comment only chunks dropped",
			input: "-- header; with semicolon\n;\n/* block; */\nSELECT 1;\n-- trailer\n",
			want:  []string{"/* block; */\nSELECT 1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := splitStatements(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitStatements_Unterminated(t *testing.T) {
	_, err := splitStatements("SELECT 'oops;")
	assert.Error(t, err)

	_, err = splitStatements("SELECT 1 /* never closed")
	assert.Error(t, err)
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://localhost:9000/analytics")
	require.NoError(t, err)
	assert.Equal(t, "analytics", db)

	_, err = databaseFromDSN("clickhouse://localhost:9000")
	assert.Error(t, err)

	_, err = databaseFromDSN("clickhouse://localhost:9000/x;DROP")
	assert.Error(t, err)
}
