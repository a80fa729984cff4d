// Package dataset holds the in-memory listings table the cleaner works on:
// a header, typed views of the columns the cleaning rules read, and the raw
// cells of every column so unknown columns pass through untouched.
package dataset

import (
	"math"
	"strconv"
	"strings"
)

const (
	ColPrice      = "price"
	ColLongitude  = "longitude"
	ColLatitude   = "latitude"
	ColLastReview = "last_review"
)

// RequiredColumns must all be present in the header of an input file.
var RequiredColumns = []string{ColPrice, ColLongitude, ColLatitude, ColLastReview}

// Row is one record. Numeric fields are NaN when the cell was empty.
type Row struct {
	Price      float64
	Longitude  float64
	Latitude   float64
	LastReview NullTime

	Cells []string
}

type columns struct {
	price, longitude, latitude, lastReview int
}

// Dataset is an ordered set of rows sharing one header. Operations return
// new datasets; the receiver is never modified.
type Dataset struct {
	Header []string
	Rows   []Row

	// ReviewsNormalized is set once last_review has been parsed into
	// LastReview. From then on the cell text is ignored on write.
	ReviewsNormalized bool

	cols columns
}

// New builds a dataset from a header and rows. The header must contain every
// required column.
func New(header []string, rows []Row) (*Dataset, error) {
	cols, err := locate(header)
	if err != nil {
		return nil, err
	}
	return &Dataset{Header: header, Rows: rows, cols: cols}, nil
}

func locate(header []string) (columns, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	var missing []string
	for _, c := range RequiredColumns {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return columns{}, &ParseError{Line: 1, Err: errMissingColumns(missing)}
	}
	return columns{
		price:      idx[ColPrice],
		longitude:  idx[ColLongitude],
		latitude:   idx[ColLatitude],
		lastReview: idx[ColLastReview],
	}, nil
}

func (d *Dataset) Len() int { return len(d.Rows) }

// Index returns the position of col in the header, or -1.
func (d *Dataset) Index(col string) int {
	for i, h := range d.Header {
		if h == col {
			return i
		}
	}
	return -1
}

// Filter returns a dataset holding the rows for which keep is true, in their
// original relative order. Row cells are shared with the receiver.
func (d *Dataset) Filter(keep func(Row) bool) *Dataset {
	out := d.derive(make([]Row, 0, len(d.Rows)))
	for _, r := range d.Rows {
		if keep(r) {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// Clone returns a deep copy; nothing is shared with the receiver.
func (d *Dataset) Clone() *Dataset {
	out := d.derive(make([]Row, len(d.Rows)))
	out.Header = append([]string(nil), d.Header...)
	for i, r := range d.Rows {
		r.Cells = append([]string(nil), r.Cells...)
		out.Rows[i] = r
	}
	return out
}

func (d *Dataset) derive(rows []Row) *Dataset {
	return &Dataset{
		Header:            d.Header,
		Rows:              rows,
		ReviewsNormalized: d.ReviewsNormalized,
		cols:              d.cols,
	}
}

// Key identifies a row by the values it will be written with: numeric
// columns by their parsed value, last_review by its canonical date (or null
// when it does not parse), everything else by its text. Two rows with equal
// keys are written identically.
func (d *Dataset) Key(r Row) string {
	var b strings.Builder
	for i, cell := range r.Cells {
		if i > 0 {
			b.WriteByte(0x1f)
		}
		switch i {
		case d.cols.price:
			b.WriteString(numKey(r.Price))
		case d.cols.longitude:
			b.WriteString(numKey(r.Longitude))
		case d.cols.latitude:
			b.WriteString(numKey(r.Latitude))
		case d.cols.lastReview:
			nt := r.LastReview
			if !d.ReviewsNormalized {
				nt, _ = ParseReview(cell)
			}
			b.WriteString(nt.key())
		default:
			b.WriteString(cell)
		}
	}
	return b.String()
}

func numKey(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Between reports whether lo <= v <= hi. NaN is never between.
func Between(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}
