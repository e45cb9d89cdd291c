package mapview

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paglaumhub/reliefmap/internal/hazards"
	"github.com/paglaumhub/reliefmap/internal/models"
	"github.com/paglaumhub/reliefmap/internal/store"
)

var cebu = models.Coordinates{Lat: 10.3157, Lng: 123.8854}

var testConfig = Config{
	DefaultCenter: cebu,
	DefaultZoom:   11,
	FocusZoom:     15,
	FlyDuration:   1500 * time.Millisecond,
}

// recordingCamera captures navigation commands.
type recordingCamera struct {
	pans  []CameraCommand
	flies []CameraCommand
}

func (c *recordingCamera) PanTo(cmd CameraCommand) { c.pans = append(c.pans, cmd) }
func (c *recordingCamera) FlyTo(cmd CameraCommand) { c.flies = append(c.flies, cmd) }

type fixedSnapshot hazards.Snapshot

func (s fixedSnapshot) Snapshot() hazards.Snapshot { return hazards.Snapshot(s) }

func newTestController(camera Camera, haz SnapshotSource) (*Controller, *store.Store[models.HelpRequest], *store.Store[models.Shelter], *store.Store[models.FamilyPost]) {
	requests := store.New[models.HelpRequest]()
	shelters := store.New[models.Shelter]()
	family := store.New[models.FamilyPost]()
	return NewController(testConfig, camera, requests, shelters, family, haz), requests, shelters, family
}

func TestUrgencyColor(t *testing.T) {
	assert.Equal(t, "red", UrgencyColor(models.UrgencyHigh))
	assert.Equal(t, "orange", UrgencyColor(models.UrgencyMedium))
	assert.Equal(t, "green", UrgencyColor(models.UrgencyLow))
}

func TestShelterStatusColor(t *testing.T) {
	assert.Equal(t, "green", ShelterStatusColor(models.ShelterAvailable))
	assert.Equal(t, "orange", ShelterStatusColor(models.ShelterFull))
	assert.Equal(t, "red", ShelterStatusColor(models.ShelterClosed))
}

func TestFamilyStatusColor(t *testing.T) {
	assert.Equal(t, "red", FamilyStatusColor(models.FamilyMissing))
	assert.Equal(t, "green", FamilyStatusColor(models.FamilyFound))
	assert.Equal(t, "yellow", FamilyStatusColor(models.FamilyLookingFor))
}

func TestMagnitudeColor(t *testing.T) {
	cases := []struct {
		mag  float64
		want string
	}{
		{7.1, "#ff0000"},
		{6.0, "#ff0000"},
		{5.2, "#ff6600"},
		{4.0, "#ff6600"},
		{3.0, "#ffcc00"},
		{2.5, "#ffcc00"},
		{1.9, "#00cc44"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, MagnitudeColor(tc.mag), "magnitude %.1f", tc.mag)
	}
}

func TestRequestMarker_FallsBackToDefaultCenter(t *testing.T) {
	r := models.HelpRequest{ID: "r1", Need: "water", Name: "Ana", Urgency: models.UrgencyHigh}
	m := RequestMarker(r, cebu)
	assert.Equal(t, cebu, m.Coordinates)
	assert.Equal(t, "red", m.Color)
	assert.Equal(t, IconRequest, m.Icon)
}

func TestRequestMarker_PendingFlagCarried(t *testing.T) {
	r := models.HelpRequest{ID: "local-1", Urgency: models.UrgencyLow, Pending: true}
	assert.True(t, RequestMarker(r, cebu).Pending)
}

func TestCycloneMarker_Defaults(t *testing.T) {
	m := CycloneMarker(hazards.Cyclone{Center: models.Coordinates{Lat: 12, Lng: 127}})
	assert.Equal(t, "Typhoon: Unnamed - Category: Unknown", m.Popup)
	assert.Equal(t, float64(cycloneRadiusMeters), m.RadiusMeters)
}

func TestController_LayersAssemblesAllSources(t *testing.T) {
	snap := fixedSnapshot{
		Quakes:   []hazards.Quake{{Coordinates: models.Coordinates{Lat: 11, Lng: 124}, Magnitude: 4.4}},
		Cyclones: []hazards.Cyclone{{Center: models.Coordinates{Lat: 12, Lng: 127}, Name: "ODETTE"}},
	}
	c, requests, shelters, family := newTestController(&recordingCamera{}, snap)

	requests.Upsert(models.HelpRequest{ID: "r1", Urgency: models.UrgencyHigh, Coords: &models.Coordinates{Lat: 10.1, Lng: 123.9}})
	shelters.Upsert(models.Shelter{ID: "s1", Status: models.ShelterAvailable})
	family.Upsert(models.FamilyPost{ID: "f1", Status: models.FamilyMissing})

	layers := c.Layers()
	assert.Len(t, layers.Requests, 1)
	assert.Len(t, layers.Shelters, 1)
	assert.Len(t, layers.Family, 1)
	assert.Len(t, layers.Quakes, 1)
	assert.Len(t, layers.Cyclones, 1)
	assert.Nil(t, layers.TempPin)

	// Coordless shelter lands at the default center.
	assert.Equal(t, cebu, layers.Shelters[0].Coordinates)
}

func TestController_LayersWithoutHazardSource(t *testing.T) {
	c, _, _, _ := newTestController(&recordingCamera{}, nil)

	layers := c.Layers()
	assert.Empty(t, layers.Quakes)
	assert.Empty(t, layers.Cyclones)
}

func TestController_FlyToPositionedTarget(t *testing.T) {
	camera := &recordingCamera{}
	c, _, _, _ := newTestController(camera, nil)

	target := models.Shelter{ID: "s1", Coords: &models.Coordinates{Lat: 10.25, Lng: 123.8}}
	c.FlyTo(target)

	require.Len(t, camera.flies, 1)
	cmd := camera.flies[0]
	assert.Equal(t, *target.Coords, cmd.Center)
	assert.Equal(t, 15, cmd.Zoom)
	assert.Equal(t, 1500*time.Millisecond, cmd.Duration)
}

func TestController_FlyToCoordlessTargetUsesDefaultRegion(t *testing.T) {
	camera := &recordingCamera{}
	c, _, _, _ := newTestController(camera, nil)

	c.FlyTo(models.HelpRequest{ID: "r1"})

	require.Len(t, camera.flies, 1)
	assert.Equal(t, cebu, camera.flies[0].Center)
	assert.Equal(t, 11, camera.flies[0].Zoom)
}

func TestController_PanToIsInstant(t *testing.T) {
	camera := &recordingCamera{}
	c, _, _, _ := newTestController(camera, nil)

	c.PanTo(nil)

	require.Len(t, camera.pans, 1)
	assert.Equal(t, time.Duration(0), camera.pans[0].Duration)
	assert.Equal(t, cebu, camera.pans[0].Center)
}

func TestController_PinModeLifecycle(t *testing.T) {
	c, _, _, _ := newTestController(&recordingCamera{}, nil)

	// Clicks outside pin mode are not consumed.
	assert.False(t, c.HandleMapClick(models.Coordinates{Lat: 10, Lng: 123}))
	_, ok := c.TempPin()
	assert.False(t, ok)

	c.EnterPinMode()
	assert.True(t, c.HandleMapClick(models.Coordinates{Lat: 10, Lng: 123}))

	// A second click replaces the pin; there is never more than one.
	assert.True(t, c.HandleMapClick(models.Coordinates{Lat: 10.5, Lng: 123.5}))
	pin, ok := c.TempPin()
	require.True(t, ok)
	assert.Equal(t, models.Coordinates{Lat: 10.5, Lng: 123.5}, pin)

	layers := c.Layers()
	require.NotNil(t, layers.TempPin)
	assert.Equal(t, IconTempPin, layers.TempPin.Icon)

	c.ExitPinMode()
	_, ok = c.TempPin()
	assert.False(t, ok)
	assert.Nil(t, c.Layers().TempPin)
}

func TestController_ReenteringPinModeClearsPreviousPin(t *testing.T) {
	c, _, _, _ := newTestController(&recordingCamera{}, nil)

	c.EnterPinMode()
	c.HandleMapClick(models.Coordinates{Lat: 10, Lng: 123})
	c.EnterPinMode()

	_, ok := c.TempPin()
	assert.False(t, ok)
}
