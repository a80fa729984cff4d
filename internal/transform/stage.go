package transform

import (
	"fmt"

	"cleanstage/internal/dataset"
)

// Stats summarizes one stage application.
type Stats struct {
	Stage   string
	In      int
	Out     int
	Coerced int // last_review values that did not parse
}

func (s Stats) Dropped() int { return s.In - s.Out }

type Stage interface {
	Name() string
	Apply(*dataset.Dataset) (*dataset.Dataset, Stats)
}

// Params are the run parameters stages are built from.
type Params struct {
	MinPrice float64
	MaxPrice float64
}

/*──────── registry ───────*/

type Factory func(Params) (Stage, error)

var registry = map[string]Factory{}

func Register(name string, f Factory) { registry[name] = f }

func New(name string, p Params) (Stage, error) {
	if f, ok := registry[name]; ok {
		return f(p)
	}
	return nil, fmt.Errorf("transform: unknown stage %q", name)
}

// Order is the cleaning sequence. It is significant: duplicates are removed
// before the filters and dates are parsed last.
var Order = []string{StageDedupe, StagePriceRange, StageGeoBox, StageLastReview}

func Chain(p Params) ([]Stage, error) {
	out := make([]Stage, 0, len(Order))
	for _, name := range Order {
		s, err := New(name, p)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Run applies stages in order and returns the final dataset with the stats
// of each stage.
func Run(ds *dataset.Dataset, stages []Stage) (*dataset.Dataset, []Stats) {
	all := make([]Stats, 0, len(stages))
	for _, s := range stages {
		var st Stats
		ds, st = s.Apply(ds)
		all = append(all, st)
	}
	return ds, all
}
