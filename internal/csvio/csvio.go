// Package csvio reads lead CSV files of unknown encoding and writes the
// combined lead table.
package csvio

import (
	"bytes"
	"crypto/rand"
	"encoding/csv"
	"encoding/hex"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Table is a parsed CSV file. Header is the first row as read; whether it
// is really a header is for the caller to decide.
type Table struct {
	Header   []string
	Rows     [][]string
	Encoding string
}

type codec struct {
	name string
	enc  encoding.Encoding // nil for utf-8
}

// codecs are tried in order until one decodes and parses. Windows-1252
// decodes every byte, so it is the last resort and also covers Latin-1 files.
var codecs = []codec{
	{"utf-8", nil},
	{"windows-1252", charmap.Windows1252},
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadFile reads and parses the CSV file at path.
func ReadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "csvio: open csv")
	}
	t, err := Parse(data)
	if err != nil {
		return nil, eris.Wrapf(err, "csvio: read %s", filepath.Base(path))
	}
	return t, nil
}

// Parse decodes data with the first encoding that yields valid text and a
// parseable table.
func Parse(data []byte) (*Table, error) {
	var lastErr error
	for _, c := range codecs {
		text, err := decode(data, c)
		if err != nil {
			lastErr = err
			continue
		}
		records, err := parseRecords(text)
		if err != nil {
			lastErr = eris.Wrapf(err, "csvio: parse as %s", c.name)
			continue
		}
		if len(records) == 0 {
			return nil, eris.New("csvio: file is empty")
		}
		return &Table{Header: records[0], Rows: records[1:], Encoding: c.name}, nil
	}
	return nil, eris.Wrap(lastErr, "csvio: no encoding could parse the file")
}

func decode(data []byte, c codec) ([]byte, error) {
	if c.enc == nil {
		if !utf8.Valid(data) {
			return nil, eris.New("csvio: not valid utf-8")
		}
		return bytes.TrimPrefix(data, utf8BOM), nil
	}
	out, err := c.enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, eris.Wrapf(err, "csvio: decode as %s", c.name)
	}
	return out, nil
}

func parseRecords(text []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(text))
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

// WriteFile writes header and rows to path as UTF-8 CSV. The file is
// written to a temporary sibling and renamed into place, so an existing
// file survives a failed write.
func WriteFile(path string, header []string, rows [][]string) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return eris.Wrap(err, "csvio: create directory")
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return eris.Wrap(err, "csvio: temp file name")
	}
	tempPath := path + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0600)
	if err != nil {
		return eris.Wrap(err, "csvio: create temp file")
	}
	defer func() {
		if file != nil {
			file.Close()
		}
		if err != nil {
			os.Remove(tempPath)
		}
	}()

	w := csv.NewWriter(file)
	if err := w.Write(header); err != nil {
		return eris.Wrap(err, "csvio: write header")
	}
	if err := w.WriteAll(rows); err != nil {
		return eris.Wrap(err, "csvio: write rows")
	}
	if err := file.Sync(); err != nil {
		return eris.Wrap(err, "csvio: sync")
	}
	if err := file.Close(); err != nil {
		return eris.Wrap(err, "csvio: close")
	}
	file = nil

	if info, statErr := os.Lstat(path); statErr == nil && info.Mode()&os.ModeSymlink != 0 {
		return eris.New("csvio: destination is a symlink")
	}
	if err := os.Rename(tempPath, path); err != nil {
		return eris.Wrap(err, "csvio: finalize")
	}
	return nil
}
