package heatzone

// HeatZone is a named urban climate category.
type HeatZone struct {
	Name            string  `json:"name"`
	BaseTemperature float64 `json:"baseTemperature"`
	HeatIndex       float64 `json:"heatIndex"`
	Description     string  `json:"description"`
}

// SampleLocation pins a zone to a coordinate.
type SampleLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Zone      string  `json:"zone"`
}

// document mirrors the on-disk reference data. JSON and YAML share field names.
type document struct {
	HeatZones       map[string]zoneWire `json:"heatZones" yaml:"heatZones"`
	SampleLocations []locationWire      `json:"sampleLocations" yaml:"sampleLocations"`
}

type zoneWire struct {
	BaseTemperature *float64 `json:"baseTemperature" yaml:"baseTemperature"`
	HeatIndex       *float64 `json:"heatIndex" yaml:"heatIndex"`
	Description     string   `json:"description" yaml:"description"`
}

type locationWire struct {
	Latitude  *float64 `json:"latitude" yaml:"latitude"`
	Longitude *float64 `json:"longitude" yaml:"longitude"`
	Zone      string   `json:"zone" yaml:"zone"`
}
