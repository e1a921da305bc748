package models

// Requests for the manifold HTTP endpoints. Defined in domain for consistency
// and reuse across handlers; bound from query params with defaults applied.

type AnalyzeRequest struct {
	Interval  string `query:"interval" json:"interval" default:"1m" validate:"oneof=1m 1h 1d"`
	Limit     int    `query:"limit" json:"limit" default:"100" validate:"gte=2,lte=1000"`
	Timescale string `query:"timescale" json:"timescale" default:"daily" validate:"oneof=monthly weekly daily intraday"`
	Interpret bool   `query:"interpret" json:"interpret" default:"false"`
}

type MultiscaleRequest struct {
	Interval string `query:"interval" json:"interval" default:"1m" validate:"oneof=1m 1h 1d"`
	Limit    int    `query:"limit" json:"limit" default:"500" validate:"gte=2,lte=1000"`
	Scales   string `query:"scales" json:"scales"` // comma separated; empty means all
}

type AttractorsRequest struct {
	Interval string `query:"interval" json:"interval" default:"1m" validate:"oneof=1m 1h 1d"`
	Limit    int    `query:"limit" json:"limit" default:"200" validate:"gte=2,lte=1000"`
	Top      int    `query:"top" json:"top" default:"5" validate:"gte=1,lte=20"`
}

type SingularitiesRequest struct {
	Interval    string  `query:"interval" json:"interval" default:"1m" validate:"oneof=1m 1h 1d"`
	Limit       int     `query:"limit" json:"limit" default:"200" validate:"gte=2,lte=1000"`
	Sensitivity float64 `query:"sensitivity" json:"sensitivity" default:"1.0" validate:"gt=0,lte=10"`
}

type PulseRequest struct {
	Interval string `query:"interval" json:"interval" default:"1m" validate:"oneof=1m 1h 1d"`
	Limit    int    `query:"limit" json:"limit" default:"100" validate:"gte=2,lte=1000"`
}
