package mapview

import (
	"sync"
	"time"

	"github.com/paglaumhub/reliefmap/internal/hazards"
	"github.com/paglaumhub/reliefmap/internal/models"
	"github.com/paglaumhub/reliefmap/internal/store"
)

// Camera is the rendering surface's navigation input.
type Camera interface {
	PanTo(cmd CameraCommand)
	FlyTo(cmd CameraCommand)
}

// SnapshotSource is the hazard poller's read side.
type SnapshotSource interface {
	Snapshot() hazards.Snapshot
}

// Config fixes the default region and the navigation parameters.
type Config struct {
	DefaultCenter models.Coordinates
	DefaultZoom   int
	FocusZoom     int
	FlyDuration   time.Duration
}

// Layers is the full render input: one marker slice per source collection,
// plus the at-most-one temporary pin.
type Layers struct {
	Requests []Marker `json:"requests"`
	Shelters []Marker `json:"shelters"`
	Family   []Marker `json:"family"`
	Quakes   []Marker `json:"quakes"`
	Cyclones []Marker `json:"cyclones"`
	TempPin  *Marker  `json:"temp_pin,omitempty"`
}

// Controller reads the entity stores and hazard snapshot and owns the
// transient pin-placement state. It never mutates the stores.
type Controller struct {
	cfg      Config
	camera   Camera
	requests *store.Store[models.HelpRequest]
	shelters *store.Store[models.Shelter]
	family   *store.Store[models.FamilyPost]
	hazards  SnapshotSource

	mu      sync.Mutex
	pinMode bool
	tempPin *models.Coordinates
}

func NewController(
	cfg Config,
	camera Camera,
	requests *store.Store[models.HelpRequest],
	shelters *store.Store[models.Shelter],
	family *store.Store[models.FamilyPost],
	haz SnapshotSource,
) *Controller {
	return &Controller{
		cfg:      cfg,
		camera:   camera,
		requests: requests,
		shelters: shelters,
		family:   family,
		hazards:  haz,
	}
}

// Layers assembles the current render input from all sources.
func (c *Controller) Layers() Layers {
	var out Layers

	for _, r := range c.requests.List() {
		out.Requests = append(out.Requests, RequestMarker(r, c.cfg.DefaultCenter))
	}
	for _, s := range c.shelters.List() {
		out.Shelters = append(out.Shelters, ShelterMarker(s, c.cfg.DefaultCenter))
	}
	for _, p := range c.family.List() {
		out.Family = append(out.Family, FamilyMarker(p, c.cfg.DefaultCenter))
	}

	if c.hazards != nil {
		snap := c.hazards.Snapshot()
		for _, q := range snap.Quakes {
			out.Quakes = append(out.Quakes, QuakeMarker(q))
		}
		for _, cy := range snap.Cyclones {
			out.Cyclones = append(out.Cyclones, CycloneMarker(cy))
		}
	}

	c.mu.Lock()
	if c.tempPin != nil {
		m := tempPinMarker(*c.tempPin)
		out.TempPin = &m
	}
	c.mu.Unlock()

	return out
}

// FlyTo animates the camera to the target's position, or to the default
// region when the target has no coordinates.
func (c *Controller) FlyTo(target models.Positioned) {
	c.camera.FlyTo(c.focusCommand(target, c.cfg.FlyDuration))
}

// PanTo jumps the camera without animation, same fallback rule.
func (c *Controller) PanTo(target models.Positioned) {
	c.camera.PanTo(c.focusCommand(target, 0))
}

func (c *Controller) focusCommand(target models.Positioned, duration time.Duration) CameraCommand {
	if target != nil {
		if pos, ok := target.Position(); ok {
			return CameraCommand{Center: pos, Zoom: c.cfg.FocusZoom, Duration: duration}
		}
	}
	return CameraCommand{Center: c.cfg.DefaultCenter, Zoom: c.cfg.DefaultZoom, Duration: duration}
}

// EnterPinMode arms pin placement: the next map click yields the temporary
// marker. Re-entering clears any previous pin.
func (c *Controller) EnterPinMode() {
	c.mu.Lock()
	c.pinMode = true
	c.tempPin = nil
	c.mu.Unlock()
}

// HandleMapClick consumes a click while pin mode is active, replacing any
// existing temporary pin. Returns whether the click was consumed.
func (c *Controller) HandleMapClick(pos models.Coordinates) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.pinMode {
		return false
	}
	c.tempPin = &pos
	return true
}

// TempPin returns the pending pin location, if one is placed.
func (c *Controller) TempPin() (models.Coordinates, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tempPin == nil {
		return models.Coordinates{}, false
	}
	return *c.tempPin, true
}

// ExitPinMode clears the mode and the temporary pin. Called on both cancel
// and successful submit.
func (c *Controller) ExitPinMode() {
	c.mu.Lock()
	c.pinMode = false
	c.tempPin = nil
	c.mu.Unlock()
}
