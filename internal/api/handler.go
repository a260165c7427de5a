package api

import (
	"go.uber.org/zap"

	"equipment-ledger-backend/internal/metrics"
	"equipment-ledger-backend/internal/resolver"
	"equipment-ledger-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store    store.Store
	resolver *resolver.Resolver
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewHandler creates a new API handler. m may be nil when metrics are
// disabled.
func NewHandler(s store.Store, m *metrics.Metrics, logger *zap.Logger) *Handler {
	return &Handler{
		store:    s,
		resolver: resolver.New(s, logger),
		metrics:  m,
		logger:   logger,
	}
}
