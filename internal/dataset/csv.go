package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// ParseError reports input that is not a well-formed listings table.
type ParseError struct {
	Line   int
	Column string
	Err    error
}

func (e *ParseError) Error() string {
	switch {
	case e.Line > 0 && e.Column != "":
		return fmt.Sprintf("line %d, column %s: %v", e.Line, e.Column, e.Err)
	case e.Line > 0:
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	default:
		return e.Err.Error()
	}
}

func (e *ParseError) Unwrap() error { return e.Err }

var ErrEmptyInput = errors.New("no header row")

func errMissingColumns(cols []string) error {
	return fmt.Errorf("missing required columns: %s", strings.Join(cols, ", "))
}

// ReadFile loads a CSV file with a header row.
func ReadFile(path string) (*Dataset, error) {
	f, err := os.Open(path) //#nosec G304
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV parses comma-separated UTF-8 text with a header row. Every record
// must have as many fields as the header. Empty numeric cells read as NaN;
// any other text in a numeric column that does not parse is an error.
// last_review is kept as text until the review stage parses it.
func ReadCSV(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(bufio.NewReader(r))
	cr.ReuseRecord = false

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &ParseError{Err: ErrEmptyInput}
	}
	if err != nil {
		return nil, wrapCSV(err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	ds, err := New(header, nil)
	if err != nil {
		return nil, err
	}

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, wrapCSV(err)
		}
		line, _ := cr.FieldPos(0)
		row := Row{Cells: rec}
		if row.Price, err = parseNum(rec[ds.cols.price]); err != nil {
			return nil, &ParseError{Line: line, Column: ColPrice, Err: err}
		}
		if row.Longitude, err = parseNum(rec[ds.cols.longitude]); err != nil {
			return nil, &ParseError{Line: line, Column: ColLongitude, Err: err}
		}
		if row.Latitude, err = parseNum(rec[ds.cols.latitude]); err != nil {
			return nil, &ParseError{Line: line, Column: ColLatitude, Err: err}
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds, nil
}

func wrapCSV(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &ParseError{Line: pe.Line, Err: pe.Err}
	}
	return &ParseError{Err: err}
}

func parseNum(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}

// WriteFile writes d to path as CSV, replacing any existing file.
func WriteFile(path string, d *Dataset) error {
	f, err := os.Create(path) //#nosec G304
	if err != nil {
		return err
	}
	if err := WriteCSV(f, d); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// WriteCSV writes the header and every row. There is no index column. Once
// reviews are normalized, last_review is written from the parsed value and
// null becomes an empty cell.
func WriteCSV(w io.Writer, d *Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(d.Header); err != nil {
		return err
	}
	layout := ""
	if d.ReviewsNormalized {
		layout = reviewLayout(d.Rows)
	}
	out := make([]string, len(d.Header))
	for _, r := range d.Rows {
		copy(out, r.Cells)
		if d.ReviewsNormalized {
			out[d.cols.lastReview] = ""
			if r.LastReview.Valid {
				out[d.cols.lastReview] = r.LastReview.Time.Format(layout)
			}
		}
		if err := cw.Write(out); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
