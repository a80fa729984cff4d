package dataset

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

const sample = `id,name,price,longitude,latitude,last_review
1,Loft,150,-73.98,40.75,2019-05-21
2,Studio,,-73.95,40.71,
3,Room,89.5,-73.90,40.80,2018-10-19
`

func mustRead(t *testing.T, src string) *Dataset {
	t.Helper()
	ds, err := ReadCSV(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	return ds
}

func TestReadCSV_TypedColumns(t *testing.T) {
	ds := mustRead(t, sample)
	if ds.Len() != 3 {
		t.Fatalf("want 3 rows, got %d", ds.Len())
	}
	if ds.Rows[0].Price != 150 || ds.Rows[2].Latitude != 40.80 {
		t.Fatalf("unexpected typed values: %+v", ds.Rows)
	}
	if !math.IsNaN(ds.Rows[1].Price) {
		t.Fatalf("empty price should be NaN, got %v", ds.Rows[1].Price)
	}
	if got := ds.Index("name"); got != 1 {
		t.Fatalf("Index(name) = %d", got)
	}
	if ds.ReviewsNormalized {
		t.Fatal("reviews must stay raw after load")
	}
}

func TestReadCSV_StripsBOM(t *testing.T) {
	ds := mustRead(t, "\ufeffprice,longitude,latitude,last_review\n1,-74,41,\n")
	if ds.Header[0] != "price" {
		t.Fatalf("BOM not stripped: %q", ds.Header[0])
	}
}

func TestReadCSV_Errors(t *testing.T) {
	cases := []struct {
		name, src, want string
	}{
		{"empty", "", "no header row"},
		{"missing columns", "price,longitude\n1,2\n", "missing required columns: latitude, last_review"},
		{"ragged row", "price,longitude,latitude,last_review\n1,2,3\n", "line 2"},
		{"bad number", "price,longitude,latitude,last_review\n1,2,3,\nabc,2,3,\n", "line 3, column price"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tc.src))
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("want *ParseError, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestKey_ComparesWrittenValues(t *testing.T) {
	ds := mustRead(t, `price,longitude,latitude,last_review,note
100,-73.9,40.7,2019-05-21,a
100.0,-73.90,40.70,05/21/2019,a
100,-73.9,40.7,2019-05-21,b
100,-73.9,40.7,garbage,a
100,-73.9,40.7,,a
`)
	k := make([]string, ds.Len())
	for i, r := range ds.Rows {
		k[i] = ds.Key(r)
	}
	if k[0] != k[1] {
		t.Fatal("numerically equal rows with the same date should share a key")
	}
	if k[0] == k[2] {
		t.Fatal("rows differing in a pass-through column must differ")
	}
	if k[3] != k[4] {
		t.Fatal("unparseable and empty dates are both written as null")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	ds := mustRead(t, sample)
	cp := ds.Clone()
	cp.Rows[0].Cells[1] = "changed"
	cp.Header[1] = "renamed"
	if ds.Rows[0].Cells[1] != "Loft" || ds.Header[1] != "name" {
		t.Fatal("clone aliases the original")
	}
}

func TestFilterKeepsOrder(t *testing.T) {
	ds := mustRead(t, sample)
	out := ds.Filter(func(r Row) bool { return !math.IsNaN(r.Price) })
	if out.Len() != 2 || out.Rows[0].Cells[0] != "1" || out.Rows[1].Cells[0] != "3" {
		t.Fatalf("unexpected rows: %+v", out.Rows)
	}
	if ds.Len() != 3 {
		t.Fatal("filter modified its input")
	}
}

func TestWriteCSV_Layouts(t *testing.T) {
	day := time.Date(2019, 5, 21, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name  string
		times []NullTime
		want  []string
	}{
		{"dates", []NullTime{{Time: day, Valid: true}, {}}, []string{"2019-05-21", ""}},
		{"seconds", []NullTime{{Time: day, Valid: true}, {Time: day.Add(90 * time.Minute), Valid: true}}, []string{"2019-05-21 00:00:00", "2019-05-21 01:30:00"}},
		{"micros", []NullTime{{Time: day.Add(1500 * time.Microsecond), Valid: true}}, []string{"2019-05-21 00:00:00.001500"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rows := make([]Row, len(tc.times))
			for i, nt := range tc.times {
				rows[i] = Row{LastReview: nt, Cells: []string{"1", "-74", "41", "raw"}}
			}
			ds, err := New(RequiredColumns, rows)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			ds.ReviewsNormalized = true

			var buf bytes.Buffer
			if err := WriteCSV(&buf, ds); err != nil {
				t.Fatalf("WriteCSV: %v", err)
			}
			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			if lines[0] != "price,longitude,latitude,last_review" {
				t.Fatalf("unexpected header %q", lines[0])
			}
			for i, want := range tc.want {
				if got := lines[i+1]; got != "1,-74,41,"+want {
					t.Fatalf("row %d = %q, want date %q", i, got, want)
				}
			}
		})
	}
}

func TestWriteCSV_RawReviewsPassThrough(t *testing.T) {
	ds := mustRead(t, sample)
	var buf bytes.Buffer
	if err := WriteCSV(&buf, ds); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if buf.String() != sample {
		t.Fatalf("round trip changed the file:\n%s", buf.String())
	}
}

func TestParseReview(t *testing.T) {
	cases := []struct {
		in    string
		valid bool
		ok    bool
		want  time.Time
	}{
		{"2019-05-21", true, true, time.Date(2019, 5, 21, 0, 0, 0, 0, time.UTC)},
		{"5/21/2019", true, true, time.Date(2019, 5, 21, 0, 0, 0, 0, time.UTC)},
		{"2019-05-21 10:30:00", true, true, time.Date(2019, 5, 21, 10, 30, 0, 0, time.UTC)},
		{"", false, true, time.Time{}},
		{"  ", false, true, time.Time{}},
		{"NaN", false, true, time.Time{}},
		{"not a date", false, false, time.Time{}},
	}
	for _, tc := range cases {
		nt, ok := ParseReview(tc.in)
		if ok != tc.ok || nt.Valid != tc.valid || !nt.Time.Equal(tc.want) {
			t.Fatalf("ParseReview(%q) = %+v, %v", tc.in, nt, ok)
		}
	}
}

func TestBetween(t *testing.T) {
	if !Between(100, 50, 100) || !Between(50, 50, 100) {
		t.Fatal("bounds are inclusive")
	}
	if Between(math.NaN(), 0, 1) {
		t.Fatal("NaN is never in range")
	}
	if Between(75, 100, 50) {
		t.Fatal("inverted bounds contain nothing")
	}
}
