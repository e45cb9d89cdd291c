package hazards

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/paglaumhub/reliefmap/internal/models"
)

// Quake is one seismic event from the USGS summary feed.
type Quake struct {
	Coordinates models.Coordinates `json:"coordinates"`
	Magnitude   float64            `json:"magnitude"`
	Place       string             `json:"place"`
}

type usgsResponse struct {
	Features []usgsFeature `json:"features"`
}

type usgsFeature struct {
	Properties usgsProperties `json:"properties"`
	Geometry   usgsGeometry   `json:"geometry"`
}

type usgsProperties struct {
	Mag   float64 `json:"mag"`
	Place string  `json:"place"`
}

type usgsGeometry struct {
	Coordinates []float64 `json:"coordinates"` // [lon, lat, depth]
}

func (p *Poller) fetchQuakes(ctx context.Context, url string) ([]Quake, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error while doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d - status: %s", resp.StatusCode, resp.Status)
	}

	var data usgsResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("error decoding resp.Body: %w", err)
	}

	quakes := make([]Quake, 0, len(data.Features))
	for _, f := range data.Features {
		if len(f.Geometry.Coordinates) < 2 {
			continue
		}
		quakes = append(quakes, Quake{
			Coordinates: models.Coordinates{
				Lat: f.Geometry.Coordinates[1],
				Lng: f.Geometry.Coordinates[0],
			},
			Magnitude: f.Properties.Mag,
			Place:     f.Properties.Place,
		})
	}

	return quakes, nil
}
