package api

import (
	"github.com/paglaumhub/reliefmap/internal/mapview"
)

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// toGeoJSON flattens the render layers into one FeatureCollection. Each
// marker's layer name and visual treatment ride along as properties.
func toGeoJSON(layers mapview.Layers) FeatureCollection {
	features := make([]Feature, 0,
		len(layers.Requests)+len(layers.Shelters)+len(layers.Family)+
			len(layers.Quakes)+len(layers.Cyclones)+1)

	appendLayer := func(name string, markers []mapview.Marker) {
		for _, m := range markers {
			features = append(features, toFeature(name, m))
		}
	}

	appendLayer("requests", layers.Requests)
	appendLayer("shelters", layers.Shelters)
	appendLayer("family", layers.Family)
	appendLayer("quakes", layers.Quakes)
	appendLayer("cyclones", layers.Cyclones)

	if layers.TempPin != nil {
		features = append(features, toFeature("temp-pin", *layers.TempPin))
	}

	return FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}

func toFeature(layer string, m mapview.Marker) Feature {
	props := map[string]any{
		"layer": layer,
		"icon":  m.Icon,
		"color": m.Color,
		"popup": m.Popup,
	}
	if m.Pending {
		props["pending"] = true
	}
	if m.RadiusMeters > 0 {
		props["radius_meters"] = m.RadiusMeters
	}

	return Feature{
		Type: "Feature",
		Geometry: Geometry{
			Type:        "Point",
			Coordinates: []float64{m.Coordinates.Lng, m.Coordinates.Lat},
		},
		Properties: props,
	}
}
