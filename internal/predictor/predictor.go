// Package predictor is the boundary to the external brickplot service that
// turns a sequence into a rendered plot and analysis text. The computation
// behind it is opaque to this service.
package predictor

import "context"

// Predictor names for the Options.Predictors set.
const (
	PredictorStandard                 = "standard"
	PredictorStandardSpacer           = "standardSpacer"
	PredictorStandardSpacerCumulative = "standardSpacerCumulative"
	PredictorExtended                 = "extended"
)

// Options is the algorithm configuration attached to a submission. It is
// stored with the job and passed through to the prediction service as-is.
type Options struct {
	Predictors        []string `json:"predictors"`
	Extended          bool     `json:"extended"`
	ReverseComplement bool     `json:"reverseComplement"`
	IsPrefix          bool     `json:"isPrefix"`
	PointsToOne       bool     `json:"pointsToOne"`
	MinValue          float64  `json:"minValue"`
	MaxValue          float64  `json:"maxValue"`
	Threshold         float64  `json:"threshold"`
}

// DefaultOptions mirrors the submission form defaults.
func DefaultOptions() Options {
	return Options{
		Predictors:  []string{PredictorStandard},
		IsPrefix:    true,
		PointsToOne: true,
		MinValue:    -6,
		MaxValue:    -2.5,
		Threshold:   -2.5,
	}
}

// Result is the payload of a successful prediction.
type Result struct {
	Image    string `json:"image"` // base64 PNG
	Analysis string `json:"analysis"`
}

// Predictor runs the external processing step. Implementations must honor
// ctx cancellation; the job processor applies the timeout.
type Predictor interface {
	Predict(ctx context.Context, seq string, opts Options) (*Result, error)
}
