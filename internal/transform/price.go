package transform

import (
	"cleanstage/internal/dataset"
	"cleanstage/internal/logging"
)

const StagePriceRange = "price_range"

// priceRange keeps rows with min <= price <= max. Inverted bounds are not
// an error; they keep nothing.
type priceRange struct {
	min, max float64
}

func (p priceRange) Name() string { return StagePriceRange }

func (p priceRange) Apply(in *dataset.Dataset) (*dataset.Dataset, Stats) {
	out := in.Filter(func(r dataset.Row) bool {
		return dataset.Between(r.Price, p.min, p.max)
	})
	return out, Stats{Stage: StagePriceRange, In: in.Len(), Out: out.Len()}
}

func init() {
	Register(StagePriceRange, func(p Params) (Stage, error) {
		if p.MinPrice > p.MaxPrice {
			logging.L().Warn("price bounds inverted; no row can pass",
				"min_price", p.MinPrice, "max_price", p.MaxPrice)
		}
		return priceRange{min: p.MinPrice, max: p.MaxPrice}, nil
	})
}
