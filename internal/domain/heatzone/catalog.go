package heatzone

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "github.com/yanqian/urban-heat-advisor/pkg/errors"
)

// Catalog is the immutable reference data shared by every resolver call.
// All accessors are read-only, so a *Catalog may be used from many goroutines.
type Catalog struct {
	zones     map[string]HeatZone
	locations []SampleLocation
}

// LoadFile reads and validates a catalog document from disk.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeConfigData, fmt.Sprintf("read heat catalog %s", path), err)
	}
	return Load(data)
}

// Load parses a JSON or YAML catalog document and validates that every sample
// location references a defined zone.
func Load(data []byte) (*Catalog, error) {
	doc, err := decode(data)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeConfigData, "parse heat catalog", err)
	}
	if len(doc.HeatZones) == 0 {
		return nil, apperrors.Wrap(apperrors.CodeConfigData, "heat catalog defines no heatZones", nil)
	}
	if len(doc.SampleLocations) == 0 {
		return nil, apperrors.Wrap(apperrors.CodeConfigData, "heat catalog defines no sampleLocations", nil)
	}

	zones := make(map[string]HeatZone, len(doc.HeatZones))
	for name, raw := range doc.HeatZones {
		zone, err := buildZone(name, raw)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeConfigData, "invalid heat zone", err)
		}
		zones[name] = zone
	}

	locations := make([]SampleLocation, 0, len(doc.SampleLocations))
	for i, raw := range doc.SampleLocations {
		loc, err := buildLocation(raw)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeConfigData, fmt.Sprintf("invalid sample location #%d", i), err)
		}
		if _, ok := zones[loc.Zone]; !ok {
			return nil, apperrors.Wrap(apperrors.CodeConfigData, fmt.Sprintf("sample location #%d references undefined zone %q", i, loc.Zone), nil)
		}
		locations = append(locations, loc)
	}

	return &Catalog{zones: zones, locations: locations}, nil
}

func decode(data []byte) (document, error) {
	var doc document
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return doc, fmt.Errorf("empty document")
	}
	if trimmed[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return document{}, err
		}
		return doc, nil
	}
	if err := yaml.Unmarshal(trimmed, &doc); err != nil {
		return document{}, err
	}
	return doc, nil
}

func buildZone(name string, raw zoneWire) (HeatZone, error) {
	if strings.TrimSpace(name) == "" {
		return HeatZone{}, fmt.Errorf("zone name cannot be empty")
	}
	if raw.BaseTemperature == nil {
		return HeatZone{}, fmt.Errorf("zone %q: baseTemperature is required", name)
	}
	if raw.HeatIndex == nil {
		return HeatZone{}, fmt.Errorf("zone %q: heatIndex is required", name)
	}
	if !isFinite(*raw.BaseTemperature) {
		return HeatZone{}, fmt.Errorf("zone %q: baseTemperature must be finite", name)
	}
	if !isFinite(*raw.HeatIndex) || *raw.HeatIndex < 0 || *raw.HeatIndex > 1 {
		return HeatZone{}, fmt.Errorf("zone %q: heatIndex must be within [0,1]", name)
	}
	return HeatZone{
		Name:            name,
		BaseTemperature: *raw.BaseTemperature,
		HeatIndex:       *raw.HeatIndex,
		Description:     raw.Description,
	}, nil
}

func buildLocation(raw locationWire) (SampleLocation, error) {
	if raw.Latitude == nil || raw.Longitude == nil {
		return SampleLocation{}, fmt.Errorf("latitude and longitude are required")
	}
	lat, lng := *raw.Latitude, *raw.Longitude
	if !isFinite(lat) || lat < -90 || lat > 90 {
		return SampleLocation{}, fmt.Errorf("latitude %v out of range", lat)
	}
	if !isFinite(lng) || lng < -180 || lng > 180 {
		return SampleLocation{}, fmt.Errorf("longitude %v out of range", lng)
	}
	zone := strings.TrimSpace(raw.Zone)
	if zone == "" {
		return SampleLocation{}, fmt.Errorf("zone is required")
	}
	return SampleLocation{Latitude: lat, Longitude: lng, Zone: zone}, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Zone looks up a zone by name.
func (c *Catalog) Zone(name string) (HeatZone, bool) {
	zone, ok := c.zones[name]
	return zone, ok
}

// Len reports the number of sample locations.
func (c *Catalog) Len() int {
	return len(c.locations)
}

// Location returns the i-th sample location in document order.
func (c *Catalog) Location(i int) SampleLocation {
	return c.locations[i]
}

// ZoneNames lists the defined zones in lexical order.
func (c *Catalog) ZoneNames() []string {
	names := make([]string, 0, len(c.zones))
	for name := range c.zones {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
