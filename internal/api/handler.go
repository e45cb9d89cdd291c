package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/paglaumhub/reliefmap/internal/backend"
	"github.com/paglaumhub/reliefmap/internal/gateway"
	"github.com/paglaumhub/reliefmap/internal/geo"
	"github.com/paglaumhub/reliefmap/internal/mapview"
	"github.com/paglaumhub/reliefmap/internal/models"
	"github.com/paglaumhub/reliefmap/internal/store"
	"github.com/paglaumhub/reliefmap/internal/syncer"
)

// settleTimeout bounds how long a mutation endpoint waits for the remote
// confirmation before answering with the still-pending state.
const settleTimeout = 5 * time.Second

type Handler struct {
	requests     *store.Store[models.HelpRequest]
	shelters     *store.Store[models.Shelter]
	family       *store.Store[models.FamilyPost]
	requestsGw   *gateway.Gateway[models.HelpRequest]
	sheltersGw   *gateway.Gateway[models.Shelter]
	familyGw     *gateway.Gateway[models.FamilyPost]
	requestsSync *syncer.Channel[models.HelpRequest]
	sheltersSync *syncer.Channel[models.Shelter]
	familySync   *syncer.Channel[models.FamilyPost]
	controller   *mapview.Controller
	geoGate      *geo.Gate
	geoOpts      geo.Options
}

func NewHandler(
	requests *store.Store[models.HelpRequest],
	shelters *store.Store[models.Shelter],
	family *store.Store[models.FamilyPost],
	requestsGw *gateway.Gateway[models.HelpRequest],
	sheltersGw *gateway.Gateway[models.Shelter],
	familyGw *gateway.Gateway[models.FamilyPost],
	requestsSync *syncer.Channel[models.HelpRequest],
	sheltersSync *syncer.Channel[models.Shelter],
	familySync *syncer.Channel[models.FamilyPost],
	controller *mapview.Controller,
	geoGate *geo.Gate,
	geoOpts geo.Options,
) *Handler {
	return &Handler{
		requests:     requests,
		shelters:     shelters,
		family:       family,
		requestsGw:   requestsGw,
		sheltersGw:   sheltersGw,
		familyGw:     familyGw,
		requestsSync: requestsSync,
		sheltersSync: sheltersSync,
		familySync:   familySync,
		controller:   controller,
		geoGate:      geoGate,
		geoOpts:      geoOpts,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/api/requests", h.listRequests)
	r.POST("/api/requests", h.createRequest)
	r.DELETE("/api/requests/:id", h.deleteRequest)
	r.POST("/api/requests/undo", h.undoRequestDelete)

	r.GET("/api/shelters", h.listShelters)
	r.POST("/api/shelters", h.createShelter)
	r.PATCH("/api/shelters/:id/status", h.updateShelterStatus)

	r.GET("/api/family-posts", h.listFamilyPosts)
	r.POST("/api/family-posts", h.createFamilyPost)
	r.PATCH("/api/family-posts/:id/status", h.updateFamilyPostStatus)

	r.GET("/api/map", h.mapLayers)
	r.POST("/api/map/focus", h.focus)
	r.POST("/api/map/recenter", h.recenter)
	r.POST("/api/map/pin-mode", h.enterPinMode)
	r.DELETE("/api/map/pin-mode", h.exitPinMode)
	r.POST("/api/map/click", h.mapClick)
	r.POST("/api/sync/refresh", h.refresh)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) listRequests(c *gin.Context) {
	list := h.requests.List()
	if u := c.Query("urgency"); u != "" {
		filtered := make([]models.HelpRequest, 0, len(list))
		for _, r := range list {
			if string(r.Urgency) == u {
				filtered = append(filtered, r)
			}
		}
		list = filtered
	}
	c.JSON(http.StatusOK, gin.H{"requests": list})
}

func (h *Handler) listShelters(c *gin.Context) {
	list := h.shelters.List()
	if s := c.Query("status"); s != "" {
		filtered := make([]models.Shelter, 0, len(list))
		for _, sh := range list {
			if string(sh.Status) == s {
				filtered = append(filtered, sh)
			}
		}
		list = filtered
	}
	c.JSON(http.StatusOK, gin.H{"shelters": list})
}

func (h *Handler) listFamilyPosts(c *gin.Context) {
	list := h.family.List()
	status := c.Query("status")
	q := strings.ToLower(c.Query("q"))

	filtered := make([]models.FamilyPost, 0, len(list))
	for _, p := range list {
		if status != "" && string(p.Status) != status {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(p.PersonName), q) &&
			!strings.Contains(strings.ToLower(p.LastSeenLocation), q) {
			continue
		}
		filtered = append(filtered, p)
	}
	c.JSON(http.StatusOK, gin.H{"posts": filtered})
}

// create runs one optimistic creation through gw and waits briefly for the
// confirmation: 201 with the confirmed record, 202 with the pending
// placeholder when the remote insert has not settled yet, 502 on rollback.
func create[T models.Entity[T]](c *gin.Context, gw *gateway.Gateway[T]) {
	var payload T
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	submitCreate(c, gw, payload)
}

func submitCreate[T models.Entity[T]](c *gin.Context, gw *gateway.Gateway[T], payload T) {
	pending, done, err := gw.Create(context.WithoutCancel(c.Request.Context()), payload)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	select {
	case res := <-done:
		if res.Err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": res.Err.Error()})
			return
		}
		c.JSON(http.StatusCreated, res.Confirmed)
	case <-time.After(settleTimeout):
		c.JSON(http.StatusAccepted, pending)
	}
}

// createRequest fills missing coordinates from the placed map pin, if any;
// a successful placement is consumed so the next report starts clean.
func (h *Handler) createRequest(c *gin.Context) {
	var payload models.HelpRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if payload.Coords == nil {
		if pin, ok := h.controller.TempPin(); ok {
			payload.Coords = &pin
			h.controller.ExitPinMode()
		}
	}

	submitCreate(c, h.requestsGw, payload)
}

func (h *Handler) createShelter(c *gin.Context) {
	create(c, h.sheltersGw)
}

func (h *Handler) createFamilyPost(c *gin.Context) {
	create(c, h.familyGw)
}

func updateStatus[T models.Entity[T]](c *gin.Context, gw *gateway.Gateway[T]) {
	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	done, err := gw.UpdateStatus(context.WithoutCancel(c.Request.Context()), c.Param("id"), body.Status)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, backend.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	select {
	case err := <-done:
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": body.Status})
	case <-time.After(settleTimeout):
		c.JSON(http.StatusAccepted, gin.H{"status": body.Status})
	}
}

func (h *Handler) updateShelterStatus(c *gin.Context) {
	updateStatus(c, h.sheltersGw)
}

func (h *Handler) updateFamilyPostStatus(c *gin.Context) {
	updateStatus(c, h.familyGw)
}

func (h *Handler) deleteRequest(c *gin.Context) {
	done, err := h.requestsGw.Delete(context.WithoutCancel(c.Request.Context()), c.Param("id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, backend.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	select {
	case err := <-done:
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": c.Param("id")})
	case <-time.After(settleTimeout):
		c.JSON(http.StatusAccepted, gin.H{"deleted": c.Param("id")})
	}
}

func (h *Handler) undoRequestDelete(c *gin.Context) {
	done, ok := h.requestsGw.Undo(context.WithoutCancel(c.Request.Context()))
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "nothing to undo"})
		return
	}

	select {
	case res := <-done:
		if res.Err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": res.Err.Error()})
			return
		}
		c.JSON(http.StatusOK, res.Confirmed)
	case <-time.After(settleTimeout):
		c.JSON(http.StatusAccepted, gin.H{"status": "restoring"})
	}
}

func (h *Handler) mapLayers(c *gin.Context) {
	fc := toGeoJSON(h.controller.Layers())
	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, fc)
}

// focus flies the camera to the named entity; entities without coordinates
// land the camera on the default region.
func (h *Handler) focus(c *gin.Context) {
	var body struct {
		Kind string `json:"kind" binding:"required"`
		ID   string `json:"id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind and id are required"})
		return
	}

	var target models.Positioned
	var ok bool
	switch models.Kind(body.Kind) {
	case models.KindHelpRequest:
		target, ok = h.requests.Get(body.ID)
	case models.KindShelter:
		target, ok = h.shelters.Get(body.ID)
	case models.KindFamilyPost:
		target, ok = h.family.Get(body.ID)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown kind: " + body.Kind})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": body.Kind + " " + body.ID + " not found"})
		return
	}

	h.controller.FlyTo(target)
	c.JSON(http.StatusOK, gin.H{"focused": body.ID})
}

// recenter acquires the device position and pans the camera to it. An absent
// fix pans to the default region instead of failing.
func (h *Handler) recenter(c *gin.Context) {
	fix := h.geoGate.Acquire(c.Request.Context(), h.geoOpts)
	if !fix.OK {
		h.controller.PanTo(nil)
		c.JSON(http.StatusOK, gin.H{"located": false})
		return
	}

	h.controller.PanTo(fix.Position.Coordinates)
	c.JSON(http.StatusOK, gin.H{"located": true, "center": fix.Position.Coordinates})
}

func (h *Handler) enterPinMode(c *gin.Context) {
	h.controller.EnterPinMode()
	c.JSON(http.StatusOK, gin.H{"pin_mode": true})
}

func (h *Handler) exitPinMode(c *gin.Context) {
	h.controller.ExitPinMode()
	c.JSON(http.StatusOK, gin.H{"pin_mode": false})
}

// mapClick places the temporary pin. Clicks outside pin mode are rejected so
// a stale client cannot set a pin nobody asked for.
func (h *Handler) mapClick(c *gin.Context) {
	var body struct {
		Lat *float64 `json:"lat" binding:"required"`
		Lng *float64 `json:"lng" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng are required"})
		return
	}

	pos := models.Coordinates{Lat: *body.Lat, Lng: *body.Lng}
	if !h.controller.HandleMapClick(pos) {
		c.JSON(http.StatusConflict, gin.H{"error": "pin mode is not active"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pin": pos})
}

// refresh re-fetches every entity collection; the remedy for a dropped
// change stream.
func (h *Handler) refresh(c *gin.Context) {
	ctx := c.Request.Context()
	for _, fn := range []func(context.Context) error{
		h.requestsSync.Refresh,
		h.sheltersSync.Refresh,
		h.familySync.Refresh,
	} {
		if err := fn(ctx); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "refreshed"})
}
