// Package csvfile reads broker CSV exports into raw rows.
package csvfile

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/iho/tradebook/internal/domain"
)

const utf8BOM = "\ufeff"

// SchemaError reports header columns a provider requires but the file lacks.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: missing columns %s", domain.ErrSchemaMismatch, strings.Join(e.Missing, ", "))
}

func (e *SchemaError) Unwrap() error { return domain.ErrSchemaMismatch }

// RowError reports one line that could not be read as a record.
type RowError = domain.RowError

// Reader yields data rows one at a time. It is single pass.
type Reader struct {
	csv    *csv.Reader
	src    *lineDecoder
	schema domain.CSVSchema
	header []string
	offset int64
	// lineBase is the number of physical lines before the current csv.Reader.
	lineBase int
}

// Decoder opens Readers.
type Decoder struct{}

// Open validates the header of r against schema.
func (Decoder) Open(r io.Reader, schema domain.CSVSchema) (domain.RowReader, error) {
	rd, err := NewReader(r, schema)
	if err != nil {
		return nil, err
	}
	return rd, nil
}

// NewReader locates and validates the header. A header missing required
// columns fails with a *SchemaError.
func NewReader(r io.Reader, schema domain.CSVSchema) (*Reader, error) {
	rd := &Reader{src: newLineDecoder(r), schema: schema}
	rd.restart()
	if err := rd.readHeader(); err != nil {
		return nil, err
	}

	return rd, nil
}

// restart begins a fresh csv.Reader at the decoder's current position.
func (r *Reader) restart() {
	cr := csv.NewReader(r.src)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	r.csv = cr
	r.offset = 0
}

func (r *Reader) readHeader() error {
	for {
		record, err := r.csv.Read()
		r.advance()
		if errors.Is(err, io.EOF) {
			return &SchemaError{Missing: r.schema.Required}
		}
		if err != nil && !isRecoverable(err) {
			return fmt.Errorf("reading header: %w", err)
		}
		if err != nil {
			continue
		}

		columns := make([]string, len(record))
		for i, c := range record {
			columns[i] = strings.TrimSpace(strings.TrimPrefix(c, utf8BOM))
		}

		if r.schema.HeaderMarker != "" && !contains(columns, r.schema.HeaderMarker) {
			continue
		}

		var missing []string
		for _, req := range r.schema.Required {
			if !contains(columns, req) {
				missing = append(missing, req)
			}
		}
		if len(missing) > 0 {
			return &SchemaError{Missing: missing}
		}

		r.header = columns
		return nil
	}
}

// Next returns the next data row. Rows whose field count differs from the
// header come back as *RowError; io.EOF ends the stream.
func (r *Reader) Next() (domain.RawRow, error) {
	for {
		record, err := r.csv.Read()
		text := r.advance()
		raw := trimEOL(text)

		if errors.Is(err, io.EOF) {
			return domain.RawRow{}, io.EOF
		}

		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) && isRecoverable(err) {
				return domain.RawRow{}, &RowError{Line: r.lineBase + perr.StartLine, Raw: raw, Err: fmt.Errorf("%w: %v", domain.ErrMalformedRow, perr.Err)}
			}
			return domain.RawRow{}, err
		}

		line, _ := r.csv.FieldPos(0)
		line += r.lineBase

		// An unclosed quote pulls every following line into this record.
		// Keep only its first line as malformed and read the rest again.
		if runaway(record, text, len(r.header)) {
			first, rest, _ := strings.Cut(trimEOL(text), "\n")
			r.src.replay([]byte(rest + "\n"))
			r.lineBase = line
			r.restart()
			raw = trimEOL(first)
			if len(record) == len(r.header) {
				return domain.RawRow{}, &RowError{
					Line: line,
					Raw:  raw,
					Err:  fmt.Errorf("%w: unterminated quoted field", domain.ErrMalformedRow),
				}
			}
		}

		if r.schema.MinFields > 0 && len(record) < r.schema.MinFields {
			continue
		}

		if len(record) != len(r.header) {
			return domain.RawRow{}, &RowError{
				Line: line,
				Raw:  raw,
				Err:  fmt.Errorf("%w: expected %d fields, got %d", domain.ErrMalformedRow, len(r.header), len(record)),
			}
		}

		fields := make(map[string]string, len(record))
		for i, col := range r.header {
			fields[col] = record[i]
		}

		return domain.RawRow{Line: line, Raw: raw, Fields: fields}, nil
	}
}

// advance returns the text consumed since the previous record.
func (r *Reader) advance() string {
	end := r.csv.InputOffset()
	raw := r.src.take(r.offset, end)
	r.offset = end
	return raw
}

// trimEOL drops the line ends around a record, including blank lines the
// csv.Reader skipped before it.
func trimEOL(s string) string {
	return strings.Trim(s, "\r\n")
}

// runaway reports a record that spans lines and either has the wrong field
// count or an odd number of quotes. Well formed multi-line fields pass.
func runaway(record []string, text string, want int) bool {
	if !strings.Contains(trimEOL(text), "\n") {
		return false
	}
	return len(record) != want || strings.Count(text, `"`)%2 == 1
}

func isRecoverable(err error) bool {
	var perr *csv.ParseError
	if !errors.As(err, &perr) {
		return false
	}
	return errors.Is(perr.Err, csv.ErrQuote) || errors.Is(perr.Err, csv.ErrBareQuote) || errors.Is(perr.Err, csv.ErrFieldCount)
}

func contains(columns []string, name string) bool {
	for _, c := range columns {
		if c == name {
			return true
		}
	}
	return false
}

// lineDecoder converts each physical line to UTF-8 on its own: valid UTF-8
// passes through, anything else is read as Windows-1252. It keeps the decoded
// text of not yet consumed records so malformed rows can be reported verbatim.
type lineDecoder struct {
	src     *bufio.Reader
	pending []byte
	kept    []byte
	base    int64
	err     error
}

func newLineDecoder(r io.Reader) *lineDecoder {
	return &lineDecoder{src: bufio.NewReader(r)}
}

func (d *lineDecoder) Read(p []byte) (int, error) {
	for len(d.pending) == 0 {
		if d.err != nil {
			return 0, d.err
		}
		line, err := d.src.ReadBytes('\n')
		if len(line) > 0 {
			d.pending = decodeLine(line)
			d.kept = append(d.kept, d.pending...)
		}
		if err != nil {
			d.err = err
		}
	}

	n := copy(p, d.pending)
	d.pending = d.pending[n:]
	return n, nil
}

// take returns decoded text in [from, to) and forgets everything before to.
func (d *lineDecoder) take(from, to int64) string {
	start := from - d.base
	end := to - d.base
	if start < 0 {
		start = 0
	}
	if end > int64(len(d.kept)) {
		end = int64(len(d.kept))
	}
	if start >= end {
		return ""
	}

	text := string(d.kept[start:end])
	d.kept = append(d.kept[:0], d.kept[end:]...)
	d.base = to
	return text
}

// replay puts text in front of everything not yet consumed and restarts
// offsets at zero. The text kept after the last take is exactly what the
// previous csv.Reader buffered or never read.
func (d *lineDecoder) replay(text []byte) {
	stream := make([]byte, 0, len(text)+len(d.kept))
	stream = append(stream, text...)
	stream = append(stream, d.kept...)
	d.pending = stream
	d.kept = append([]byte(nil), stream...)
	d.base = 0
}

func decodeLine(line []byte) []byte {
	if utf8.Valid(line) {
		out := make([]byte, len(line))
		copy(out, line)
		return out
	}

	decoded, err := charmap.Windows1252.NewDecoder().Bytes(line)
	if err != nil {
		return []byte(strings.ToValidUTF8(string(line), "\ufffd"))
	}
	return decoded
}
