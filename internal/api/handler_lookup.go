package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"equipment-ledger-backend/internal/label"
	"equipment-ledger-backend/internal/resolver"
	"equipment-ledger-backend/internal/store"
)

type locationListResponse struct {
	Items   []string `json:"items"`
	Total   int64    `json:"total"`
	HasNull bool     `json:"hasNull"`
}

// ListLocations handles GET /api/devices/locations.
func (h *Handler) ListLocations(c *gin.Context) {
	q := store.ParseLocationQuery(c.Request.URL.Query())

	page, err := h.store.DistinctLocations(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, locationListResponse{Items: page.Items, Total: page.Total, HasNull: page.HasNull})
}

type resolveResponse struct {
	Outcome  resolver.Outcome `json:"outcome"`
	Stage    resolver.Stage   `json:"stage,omitempty"`
	Query    string           `json:"query"`
	Device   *DeviceDTO       `json:"device,omitempty"`
	Items    []DeviceDTO      `json:"items,omitempty"`
	Total    int64            `json:"total"`
	Redirect string           `json:"redirect"`
}

// ResolveCode handles GET /api/devices/resolve?text=. It maps scanned or
// typed text to a device, a list of candidates or nothing.
func (h *Handler) ResolveCode(c *gin.Context) {
	res, err := h.resolver.Resolve(c.Request.Context(), c.Query("text"))
	if err != nil {
		respondError(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.ObserveResolve(string(res.Outcome), string(res.Stage))
	}

	resp := resolveResponse{
		Outcome:  res.Outcome,
		Stage:    res.Stage,
		Query:    res.Query,
		Total:    res.Total,
		Redirect: res.Redirect(),
	}
	if res.Device != nil {
		dto := toDeviceDTO(*res.Device)
		resp.Device = &dto
	}
	if len(res.Matches) > 0 {
		resp.Items = toDeviceDTOs(res.Matches)
	}
	c.JSON(http.StatusOK, resp)
}

// DeviceLabel handles GET /api/devices/:id/label.png, a printable QR tag
// encoding the device code.
func (h *Handler) DeviceLabel(c *gin.Context) {
	id, err := deviceID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(label.DefaultSize)))
	if err != nil {
		respondError(c, badRequest("invalid size"))
		return
	}

	d, err := h.store.GetDevice(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	png, err := label.PNG(d.Code, size)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// Healthz reports whether the datastore answers.
func (h *Handler) Healthz(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": KindUnavailable, "message": "datastore unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func zapID(id int64) zap.Field {
	return zap.Int64("device_id", id)
}
