package transform

import "cleanstage/internal/dataset"

const StageDedupe = "dedupe"

// dedupe keeps the first occurrence of every row key.
type dedupe struct{}

func (dedupe) Name() string { return StageDedupe }

func (dedupe) Apply(in *dataset.Dataset) (*dataset.Dataset, Stats) {
	seen := make(map[string]struct{}, in.Len())
	out := in.Filter(func(r dataset.Row) bool {
		k := in.Key(r)
		if _, dup := seen[k]; dup {
			return false
		}
		seen[k] = struct{}{}
		return true
	})
	return out, Stats{Stage: StageDedupe, In: in.Len(), Out: out.Len()}
}

func init() {
	Register(StageDedupe, func(Params) (Stage, error) { return dedupe{}, nil })
}
