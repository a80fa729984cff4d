package transform

import (
	"cleanstage/internal/dataset"
	"cleanstage/internal/logging"
)

const StageLastReview = "last_review"

// lastReview parses last_review into a timestamp. Text that does not parse
// becomes null and is counted; the row is kept.
type lastReview struct{}

func (lastReview) Name() string { return StageLastReview }

func (lastReview) Apply(in *dataset.Dataset) (*dataset.Dataset, Stats) {
	out := in.Clone()
	st := Stats{Stage: StageLastReview, In: in.Len(), Out: out.Len()}
	if in.ReviewsNormalized {
		return out, st
	}
	col := out.Index(dataset.ColLastReview)
	for i := range out.Rows {
		raw := out.Rows[i].Cells[col]
		nt, ok := dataset.ParseReview(raw)
		if !ok {
			st.Coerced++
			logging.L().Debug("unparseable last_review set to null", "row", i, "value", raw)
		}
		out.Rows[i].LastReview = nt
	}
	out.ReviewsNormalized = true
	return out, st
}

func init() {
	Register(StageLastReview, func(Params) (Stage, error) { return lastReview{}, nil })
}
