package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"equipment-ledger-backend/config"
	"equipment-ledger-backend/internal/api"
	"equipment-ledger-backend/internal/db"
	"equipment-ledger-backend/internal/metrics"
	"equipment-ledger-backend/internal/respcache"
	"equipment-ledger-backend/internal/scan"
	"equipment-ledger-backend/internal/store"
)

type device struct {
	ID        int64   `json:"id"`
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Location  *string `json:"location"`
	Missing   bool    `json:"missing"`
	Status    string  `json:"status"`
	UpdatedAt string  `json:"updatedAt"`
}

type devicePage struct {
	Items []device `json:"items"`
	Total int64    `json:"total"`
}

type resolution struct {
	Outcome  string  `json:"outcome"`
	Stage    string  `json:"stage"`
	Device   *device `json:"device"`
	Redirect string  `json:"redirect"`
}

// TestDeviceLifecycle drives a device through registration, scanning,
// being flagged missing, being restored and finally deletion, using the
// HTTP API the way the mobile client does.
func TestDeviceLifecycle(t *testing.T) {
	// --- Test Setup ---
	gin.SetMode(gin.TestMode)

	// 1. Setup an in-memory SQLite database for testing.
	cfg := config.Default()
	cfg.Database.Driver = "sqlite"
	cfg.Database.DSN = fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	cfg.Database.MaxOpenConns = 1
	cfg.Database.AutoMigrate = true
	cfg.Database.LogLevel = "silent"

	gormDB, err := db.Init(&cfg.Database, zap.NewNop())
	require.NoError(t, err, "Failed to connect to the in-memory database")
	sqlDB, _ := gormDB.DB()
	defer sqlDB.Close()

	// 2. Start the API with the response cache and metrics enabled.
	router := api.NewRouter(api.RouterOptions{
		Store:   store.NewGormStore(gormDB),
		Logger:  zap.NewNop(),
		Cache:   respcache.NewMemory(cfg.Cache.TTL),
		Metrics: metrics.New(),
	})
	server := httptest.NewServer(router)
	defer server.Close()

	call := func(method, path string, body interface{}, out interface{}) int {
		t.Helper()
		var reader io.Reader
		if body != nil {
			raw, err := json.Marshal(body)
			require.NoError(t, err)
			reader = bytes.NewReader(raw)
		}
		req, err := http.NewRequest(method, server.URL+path, reader)
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		if out != nil && resp.StatusCode < 300 {
			require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
		}
		return resp.StatusCode
	}

	// 3. Register a few devices.
	var scope device
	require.Equal(t, http.StatusCreated, call("POST", "/api/devices",
		map[string]interface{}{"code": "ZC-2024-0042", "name": "Oscilloscope", "location": "Lab 3"}, &scope))
	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusCreated, call("POST", "/api/devices",
			map[string]interface{}{"code": fmt.Sprintf("ZC-2024-01%02d", i), "name": "Chair"}, nil))
	}

	var page devicePage
	require.Equal(t, http.StatusOK, call("GET", "/api/devices?limit=2", nil, &page))
	assert.Equal(t, int64(4), page.Total)
	assert.Len(t, page.Items, 2)

	// --- Cycle 1: Scan the printed label ---
	t.Run("Cycle 1: Label Scans Back To The Device", func(t *testing.T) {
		resp, err := http.Get(fmt.Sprintf("%s/api/devices/%d/label.png?size=256", server.URL, scope.ID))
		require.NoError(t, err)
		png, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		path := filepath.Join(t.TempDir(), "label.png")
		require.NoError(t, os.WriteFile(path, png, 0o644))

		session := scan.NewSession(scan.FileSource{Paths: []string{path}}, scan.NewDecoder(), time.Millisecond, zap.NewNop())
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		text, err := session.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, "ZC-2024-0042", text)

		var res resolution
		require.Equal(t, http.StatusOK, call("GET", "/api/devices/resolve?text="+url.QueryEscape(text), nil, &res))
		assert.Equal(t, "resolved", res.Outcome)
		assert.Equal(t, "exact", res.Stage)
		require.NotNil(t, res.Device)
		assert.Equal(t, scope.ID, res.Device.ID)
	})

	// --- Cycle 2: Device goes missing ---
	t.Run("Cycle 2: Device Is Flagged Missing", func(t *testing.T) {
		var updated device
		require.Equal(t, http.StatusOK, call("PATCH", fmt.Sprintf("/api/devices/%d", scope.ID),
			map[string]interface{}{"missing": true}, &updated))
		assert.True(t, updated.Missing)
		require.NotNil(t, updated.Location)
		assert.Equal(t, "Lab 3", *updated.Location)

		var missing devicePage
		require.Equal(t, http.StatusOK, call("GET", "/api/devices?missing=true", nil, &missing))
		require.Len(t, missing.Items, 1)
		assert.Equal(t, scope.ID, missing.Items[0].ID)

		var recent devicePage
		require.Equal(t, http.StatusOK, call("GET", "/api/devices?limit=1", nil, &recent))
		require.Len(t, recent.Items, 1)
		assert.Equal(t, scope.ID, recent.Items[0].ID, "the edited device is the most recent")
	})

	// --- Cycle 3: Device is found in another room ---
	t.Run("Cycle 3: Device Is Restored With A New Location", func(t *testing.T) {
		var restored device
		require.Equal(t, http.StatusOK, call("PATCH", fmt.Sprintf("/api/devices/%d", scope.ID),
			map[string]interface{}{"missing": false, "location": "Lab 7"}, &restored))
		assert.False(t, restored.Missing)
		require.NotNil(t, restored.Location)
		assert.Equal(t, "Lab 7", *restored.Location)

		var locations struct {
			Items   []string `json:"items"`
			HasNull bool     `json:"hasNull"`
		}
		require.Equal(t, http.StatusOK, call("GET", "/api/devices/locations", nil, &locations))
		assert.Equal(t, []string{"Lab 7"}, locations.Items)
		assert.True(t, locations.HasNull)
	})

	// --- Cycle 4: Device is retired ---
	t.Run("Cycle 4: Device Is Deleted", func(t *testing.T) {
		assert.Equal(t, http.StatusNoContent, call("DELETE", fmt.Sprintf("/api/devices/%d", scope.ID), nil, nil))
		assert.Equal(t, http.StatusNotFound, call("GET", fmt.Sprintf("/api/devices/%d", scope.ID), nil, nil))

		var res resolution
		require.Equal(t, http.StatusOK, call("GET", "/api/devices/resolve?text=ZC-2024-0042", nil, &res))
		assert.Equal(t, "not_found", res.Outcome)

		var fuzzy resolution
		require.Equal(t, http.StatusOK, call("GET", "/api/devices/resolve?text=ZC-2024-01", nil, &fuzzy))
		assert.Equal(t, "ambiguous", fuzzy.Outcome)
		assert.Equal(t, "fuzzy", fuzzy.Stage)

		var rest devicePage
		require.Equal(t, http.StatusOK, call("GET", "/api/devices", nil, &rest))
		assert.Equal(t, int64(3), rest.Total)
	})
}
