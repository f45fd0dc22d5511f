package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Encoding names the character set of a CSV file.
type Encoding string

// Supported encodings. The zero value reads UTF-8.
const (
	EncodingUTF8        Encoding = "utf-8"
	EncodingLatin1      Encoding = "latin1"
	EncodingWindows1252 Encoding = "windows-1252"
)

// ErrUnknownEncoding is returned for an encoding name that is not supported.
var ErrUnknownEncoding = errors.New("unknown encoding")

// ParseEncoding accepts the common spellings of the supported encodings.
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "utf-8", "utf8":
		return EncodingUTF8, nil
	case "latin1", "latin-1", "iso-8859-1", "iso8859-1":
		return EncodingLatin1, nil
	case "windows-1252", "cp1252":
		return EncodingWindows1252, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEncoding, s)
}

func (e Encoding) decoder() (transform.Transformer, error) {
	var enc encoding.Encoding
	switch e {
	case "", EncodingUTF8:
		// Strips a leading BOM; invalid bytes become U+FFFD.
		return unicode.BOMOverride(unicode.UTF8.NewDecoder()), nil
	case EncodingLatin1:
		enc = charmap.ISO8859_1
	case EncodingWindows1252:
		enc = charmap.Windows1252
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, string(e))
	}
	return enc.NewDecoder(), nil
}

// Row is one data record of a CSV file keyed by column name.
type Row struct {
	Line   int
	Values map[string]string
}

// Get returns the value of column, or "" when the file has no such column.
func (r Row) Get(column string) string {
	return r.Values[column]
}

// Reader reads a comma separated file with a header line. Quoting is
// lenient and rows with a wrong number of fields are padded or truncated to
// the header.
type Reader struct {
	csv    *csv.Reader
	header []string
}

// NewReader returns a Reader decoding src with enc.
func NewReader(src io.Reader, enc Encoding) (*Reader, error) {
	dec, err := enc.decoder()
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(transform.NewReader(src, dec))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	return &Reader{csv: cr}, nil
}

// Header returns the column names, reading the header line on first use.
// It returns io.EOF for an empty file.
func (r *Reader) Header() ([]string, error) {
	if r.header != nil {
		return r.header, nil
	}

	header, err := r.csv.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	r.header = header
	return header, nil
}

// Rows iterates over the data rows. A malformed record is yielded as a
// *csv.ParseError and reading continues with the next record; any other
// error ends the sequence. An empty file yields nothing.
func (r *Reader) Rows() iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		header, err := r.Header()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				yield(Row{}, err)
			}
			return
		}

		for {
			record, err := r.csv.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				var pe *csv.ParseError
				if errors.As(err, &pe) {
					if !yield(Row{Line: pe.StartLine}, err) {
						return
					}
					continue
				}
				yield(Row{}, fmt.Errorf("read record: %w", err))
				return
			}

			line, _ := r.csv.FieldPos(0)
			if !yield(newRow(line, header, record), nil) {
				return
			}
		}
	}
}

func newRow(line int, header, record []string) Row {
	values := make(map[string]string, len(header))
	for i, column := range header {
		if i < len(record) {
			values[column] = record[i]
		} else {
			values[column] = ""
		}
	}
	return Row{Line: line, Values: values}
}
