package hazards

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/paglaumhub/reliefmap/internal/models"
)

// Cyclone is one tropical-cyclone track from the forecast feed. Records
// carry no stable cross-request identity; consumers key by index.
type Cyclone struct {
	Center    models.Coordinates `json:"center"`
	Name      string             `json:"name"`
	Intensity string             `json:"intensity"`
}

type cycloneResponse struct {
	TropicalCyclones []cycloneRecord `json:"tropicalcyclones"`
}

type cycloneRecord struct {
	Center    *cycloneCenter `json:"center"`
	Name      string         `json:"name"`
	Intensity string         `json:"intensity"`
}

type cycloneCenter struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (p *Poller) fetchCyclones(ctx context.Context, url string) ([]Cyclone, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d - status: %s", resp.StatusCode, resp.Status)
	}

	var data cycloneResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("error decoding resp.Body: %w", err)
	}

	cyclones := make([]Cyclone, 0, len(data.TropicalCyclones))
	for _, rec := range data.TropicalCyclones {
		// Tracks without a center cannot be placed on the map.
		if rec.Center == nil {
			continue
		}
		cyclones = append(cyclones, Cyclone{
			Center: models.Coordinates{
				Lat: rec.Center.Latitude,
				Lng: rec.Center.Longitude,
			},
			Name:      rec.Name,
			Intensity: rec.Intensity,
		})
	}

	return cyclones, nil
}
