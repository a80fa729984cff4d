package transform

import "cleanstage/internal/dataset"

const StageGeoBox = "geo_box"

// Bounding box of the service area. Listings outside it are data errors.
const (
	MinLongitude = -74.25
	MaxLongitude = -73.50
	MinLatitude  = 40.5
	MaxLatitude  = 41.2
)

type geoBox struct{}

func (geoBox) Name() string { return StageGeoBox }

// Apply returns a deep copy so later stages never alias the frame the
// filter read from.
func (geoBox) Apply(in *dataset.Dataset) (*dataset.Dataset, Stats) {
	out := in.Filter(func(r dataset.Row) bool {
		return dataset.Between(r.Longitude, MinLongitude, MaxLongitude) &&
			dataset.Between(r.Latitude, MinLatitude, MaxLatitude)
	}).Clone()
	return out, Stats{Stage: StageGeoBox, In: in.Len(), Out: out.Len()}
}

func init() {
	Register(StageGeoBox, func(Params) (Stage, error) { return geoBox{}, nil })
}
