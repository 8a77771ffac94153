package csvio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_UTF8WithBOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Name,Email\nJosé,j@x.com\n")...)

	tbl, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, "utf-8", tbl.Encoding)
	assert.Equal(t, []string{"Name", "Email"}, tbl.Header)
	assert.Equal(t, [][]string{{"José", "j@x.com"}}, tbl.Rows)
}

func TestParse_FallsBackToWindows1252(t *testing.T) {
	// 0xE9 is 'é' in cp1252 and invalid as a lone utf-8 byte; 0x93/0x94 are curly quotes.
	data := []byte("Name,Note\nJos\xe9,\x93hi\x94\n")

	tbl, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, "windows-1252", tbl.Encoding)
	assert.Equal(t, "José", tbl.Rows[0][0])
	assert.Equal(t, "“hi”", tbl.Rows[0][1])
}

func TestParse_AnyHighByteDecodes(t *testing.T) {
	// 0x81, 0x8D, 0x8F, 0x90 and 0x9D are unassigned in cp1252 and still decode.
	high := make([]byte, 0, 128)
	for b := 0x80; b <= 0xFF; b++ {
		high = append(high, byte(b))
	}
	data := append([]byte("Name\n"), high...)

	tbl, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, "windows-1252", tbl.Encoding)
	require.Len(t, tbl.Rows, 1)
}

func TestParse_RaggedRows(t *testing.T) {
	tbl, err := Parse([]byte("a,b,c\n1,2\n1,2,3,4\n"))
	require.NoError(t, err)
	assert.Len(t, tbl.Rows[0], 2)
	assert.Len(t, tbl.Rows[1], 4)
}

func TestParse_HeaderOnly(t *testing.T) {
	tbl, err := Parse([]byte("Name,Email\n"))
	require.NoError(t, err)
	assert.Empty(t, tbl.Rows)
}

func TestParse_Empty(t *testing.T) {
	_, err := Parse(nil)
	assert.Error(t, err)
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestWriteFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "leads.csv")

	require.NoError(t, WriteFile(path, []string{"name", "email"}, [][]string{
		{"Jane Doe", "jane@x.com"},
		{"O'Brien, Pat", ""},
	}))

	tbl, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "email"}, tbl.Header)
	assert.Equal(t, "O'Brien, Pat", tbl.Rows[1][0])

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestWriteFile_ReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.csv")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0600))

	require.NoError(t, WriteFile(path, []string{"new"}, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new\n", string(data))
}
