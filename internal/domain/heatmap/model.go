package heatmap

// RiskLevel classifies a heat index.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Reading is the heat estimate for one coordinate.
type Reading struct {
	Latitude        float64   `json:"latitude"`
	Longitude       float64   `json:"longitude"`
	Temperature     float64   `json:"temperature"`
	HeatIndex       float64   `json:"heatIndex"`
	ZoneType        string    `json:"zoneType"`
	ZoneDescription string    `json:"zoneDescription"`
	RiskLevel       RiskLevel `json:"riskLevel"`
}

// Cell is one grid sample. Row and Col keep the (i,j) identity of the cell.
type Cell struct {
	Row       int     `json:"-"`
	Col       int     `json:"-"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Intensity float64 `json:"intensity"`
}

// GridOptions controls grid generation.
type GridOptions struct {
	Size    int
	Radius  float64
	Workers int
}

const (
	DefaultGridSize   = 20
	DefaultGridRadius = 0.05
)
