package refdata

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/skyroute/flightplanner/internal/geo"
	"github.com/skyroute/flightplanner/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// ErrInvalidFeature is returned for a feature without an id or a Point geometry.
var ErrInvalidFeature = errors.New("invalid reference feature")

func decodeFeatures(data []byte) (geom.GeoJSONFeatureCollection, error) {
	var fc geom.GeoJSONFeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse feature collection: %w", err)
	}
	return fc, nil
}

func featurePosition(f geom.GeoJSONFeature) (core.GeoPoint, error) {
	if f.Geometry.Type() != geom.TypePoint {
		return core.GeoPoint{}, fmt.Errorf("%w: geometry is %s, want Point", ErrInvalidFeature, f.Geometry.Type())
	}
	// the centroid of a Point is the point itself
	p, ok := geo.GeoPointFrom(f.Geometry.Centroid())
	if !ok {
		return core.GeoPoint{}, fmt.Errorf("%w: empty point", ErrInvalidFeature)
	}
	return p, nil
}

// stringProp reads a property that may be encoded as a string or a number.
func stringProp(props map[string]interface{}, key string) string {
	switch v := props[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func floatProp(props map[string]interface{}, key string) float64 {
	switch v := props[key].(type) {
	case float64:
		return v
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f
	default:
		return 0
	}
}

// ParseAirports decodes an airport FeatureCollection. Features carry the
// properties id, name1 and type; the label is "<name1> (<id>)".
func ParseAirports(data []byte) ([]core.Airport, error) {
	fc, err := decodeFeatures(data)
	if err != nil {
		return nil, err
	}

	airports := make([]core.Airport, 0, len(fc))
	for i, f := range fc {
		id := stringProp(f.Properties, "id")
		if id == "" {
			return nil, fmt.Errorf("%w: airport feature %d has no id", ErrInvalidFeature, i)
		}
		pos, err := featurePosition(f)
		if err != nil {
			return nil, fmt.Errorf("airport %s: %w", id, err)
		}
		name := stringProp(f.Properties, "name1")
		airports = append(airports, core.Airport{
			ID:       id,
			Name:     name,
			Label:    fmt.Sprintf("%s (%s)", name, id),
			Type:     stringProp(f.Properties, "type"),
			Position: pos,
		})
	}
	return airports, nil
}

// ParseNavaids decodes a NAVAID FeatureCollection. Features carry the
// properties id, name, type and optionally ch (TACAN channel) and frequency.
func ParseNavaids(data []byte) ([]core.Navaid, error) {
	fc, err := decodeFeatures(data)
	if err != nil {
		return nil, err
	}

	navaids := make([]core.Navaid, 0, len(fc))
	for i, f := range fc {
		id := stringProp(f.Properties, "id")
		if id == "" {
			return nil, fmt.Errorf("%w: navaid feature %d has no id", ErrInvalidFeature, i)
		}
		pos, err := featurePosition(f)
		if err != nil {
			return nil, fmt.Errorf("navaid %s: %w", id, err)
		}
		name := stringProp(f.Properties, "name")
		navaids = append(navaids, core.Navaid{
			ID:        id,
			Name:      name,
			Label:     fmt.Sprintf("%s (%s)", name, id),
			Type:      stringProp(f.Properties, "type"),
			Position:  pos,
			Channel:   stringProp(f.Properties, "ch"),
			Frequency: floatProp(f.Properties, "frequency"),
		})
	}
	return navaids, nil
}
