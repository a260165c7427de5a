package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"equipment-ledger-backend/internal/store"
)

type deviceListResponse struct {
	Items []DeviceDTO `json:"items"`
	Total int64       `json:"total"`
}

// ListDevices handles GET /api/devices.
func (h *Handler) ListDevices(c *gin.Context) {
	q := store.ParseDeviceQuery(c.Request.URL.Query())

	page, err := h.store.ListDevices(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, deviceListResponse{Items: toDeviceDTOs(page.Items), Total: page.Total})
}

// GetDevice handles GET /api/devices/:id.
func (h *Handler) GetDevice(c *gin.Context) {
	id, err := deviceID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	d, err := h.store.GetDevice(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDeviceDTO(*d))
}

// CreateDevice handles POST /api/devices.
func (h *Handler) CreateDevice(c *gin.Context) {
	var req createDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, badRequest("invalid request body: %v", err))
		return
	}

	d, err := req.toDevice()
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.store.CreateDevice(c.Request.Context(), d); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toDeviceDTO(*d))
}

// PatchDevice handles PATCH /api/devices/:id.
func (h *Handler) PatchDevice(c *gin.Context) {
	id, err := deviceID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req patchDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, badRequest("invalid request body: %v", err))
		return
	}
	changes, err := req.changes()
	if err != nil {
		respondError(c, err)
		return
	}

	d, err := h.store.UpdateDevice(c.Request.Context(), id, changes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDeviceDTO(*d))
}

// DeleteDevice handles DELETE /api/devices/:id. Deleting an id that does
// not exist also succeeds.
func (h *Handler) DeleteDevice(c *gin.Context) {
	id, err := deviceID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	removed, err := h.store.DeleteDevice(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !removed {
		h.logger.Debug("delete of absent device", zapID(id))
	}
	c.Status(http.StatusNoContent)
}

func deviceID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid id")
	}
	return id, nil
}
