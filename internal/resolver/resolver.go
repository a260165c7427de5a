package resolver

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"equipment-ledger-backend/internal/model"
	"equipment-ledger-backend/internal/parse"
	"equipment-ledger-backend/internal/store"
)

// MatchLimit bounds the candidate page fetched at each stage.
const MatchLimit = 20

// Outcome is the result class of a resolution.
type Outcome string

const (
	OutcomeEmpty     Outcome = "empty"
	OutcomeResolved  Outcome = "resolved"
	OutcomeAmbiguous Outcome = "ambiguous"
	OutcomeNotFound  Outcome = "not_found"
)

// Stage is the lookup that produced the outcome.
type Stage string

const (
	StageNone  Stage = ""
	StageExact Stage = "exact"
	StageFuzzy Stage = "fuzzy"
)

// Finder is the read side of the device store used for resolution.
type Finder interface {
	ListDevices(ctx context.Context, q store.DeviceQuery) (store.DevicePage, error)
}

// Result describes where a scanned or typed code leads.
type Result struct {
	Outcome Outcome
	Stage   Stage
	// Query is the normalised text that was looked up.
	Query string
	// Device is set when Outcome is OutcomeResolved.
	Device *model.Device
	// Matches holds the candidate page when Outcome is OutcomeAmbiguous.
	Matches []model.Device
	Total   int64
}

// Redirect is the client route the result points to: the device detail for a
// single match, the search results for several, the search page otherwise.
func (r Result) Redirect() string {
	switch r.Outcome {
	case OutcomeResolved:
		return "/devices/" + strconv.FormatInt(r.Device.ID, 10)
	case OutcomeAmbiguous:
		return "/search/results?q=" + url.QueryEscape(r.Query)
	default:
		return "/search"
	}
}

// Resolver maps decoded text to devices: exact code first, then free-text search.
type Resolver struct {
	finder Finder
	logger *zap.Logger
}

// New creates a Resolver over finder.
func New(finder Finder, logger *zap.Logger) *Resolver {
	return &Resolver{finder: finder, logger: logger}
}

// Resolve normalises raw and looks it up. It never writes.
func (r *Resolver) Resolve(ctx context.Context, raw string) (Result, error) {
	text := parse.ScanText(raw)
	if text == "" {
		return Result{Outcome: OutcomeEmpty, Stage: StageNone}, nil
	}

	res, err := r.lookup(ctx, StageExact, text, store.DeviceQuery{Code: text, Limit: MatchLimit})
	if err != nil {
		return Result{}, err
	}
	if res.Outcome != OutcomeNotFound {
		return res, nil
	}

	res, err = r.lookup(ctx, StageFuzzy, text, store.DeviceQuery{Search: text, Limit: MatchLimit})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

func (r *Resolver) lookup(ctx context.Context, stage Stage, text string, q store.DeviceQuery) (Result, error) {
	page, err := r.finder.ListDevices(ctx, q)
	if err != nil {
		return Result{}, fmt.Errorf("%s lookup of %q: %w", stage, text, err)
	}

	res := Result{Stage: stage, Query: text, Total: page.Total}
	switch {
	case len(page.Items) == 0:
		res.Outcome = OutcomeNotFound
	case page.Total == 1 && len(page.Items) == 1:
		d := page.Items[0]
		res.Outcome = OutcomeResolved
		res.Device = &d
	default:
		res.Outcome = OutcomeAmbiguous
		res.Matches = page.Items
	}
	r.logger.Debug("code lookup",
		zap.String("query", text),
		zap.String("stage", string(stage)),
		zap.String("outcome", string(res.Outcome)),
		zap.Int64("total", res.Total),
	)
	return res, nil
}
