package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/mvandijk/laneplan/internal/packing"
	"github.com/mvandijk/laneplan/internal/storage"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// Limits are the request-side bounds the handler enforces before any solve
// attempt runs.
type Limits struct {
	MinItemLength int
	MaxItemLength int
	MaxItems      int
	SolveTimeout  time.Duration
}

// Handler wires planner and storage dependencies into HTTP handlers.
type Handler struct {
	planner *packing.Planner
	storage storage.Storage
	limits  Limits

	clock func() time.Time

	mu                sync.RWMutex
	carriersUpdatedAt time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(planner *packing.Planner, store storage.Storage, limits Limits, opts ...HandlerOption) *Handler {
	h := &Handler{
		planner: planner,
		storage: store,
		limits:  limits,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.carriersUpdatedAt = h.clock()
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetCarriers(w http.ResponseWriter, r *http.Request) {
	_ = r
	variants, err := h.storage.GetVariants()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	resp := carriersResponse{
		Carriers:  variants,
		UpdatedAt: h.currentCarriersUpdatedAt(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handlePutCarriers(w http.ResponseWriter, r *http.Request) {
	var req carriersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	if len(req.Carriers) == 0 {
		writeError(w, http.StatusBadRequest, "Invalid carriers", "carriers must contain at least one variant")
		return
	}

	if err := h.storage.SetVariants(req.Carriers); err != nil {
		if errors.Is(err, storage.ErrInvalidVariants) {
			writeError(w, http.StatusBadRequest, "Invalid carriers", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}

	h.markCarriersUpdated()

	variants, err := h.storage.GetVariants()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	resp := carriersResponse{
		Carriers:  variants,
		UpdatedAt: h.currentCarriersUpdatedAt(),
		Message:   "Carrier variants updated successfully",
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handlePlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	lengths, err := h.expandPallets(req.Pallets)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid pallets", err.Error())
		return
	}

	variants, err := h.storage.GetVariants()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.limits.SolveTimeout)
	defer cancel()

	start := time.Now()
	plan, planErr := h.planner.Plan(ctx, lengths, variants)
	elapsed := time.Since(start)

	if planErr != nil {
		h.writePlanError(w, planErr)
		return
	}

	resp, err := buildPlanResponse(lengths, plan, variants, elapsed)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// expandPallets validates each group and repeats its length count times,
// preserving group order so item indices stay stable.
func (h *Handler) expandPallets(groups []palletGroup) ([]int, error) {
	if len(groups) == 0 {
		return nil, fmt.Errorf("pallets must contain at least one entry")
	}

	total := 0
	for idx, group := range groups {
		if group.Count <= 0 {
			return nil, fmt.Errorf("pallet %d count must be at least 1", idx+1)
		}
		total += group.Count
	}
	if total > h.limits.MaxItems {
		return nil, fmt.Errorf("total pallet count %d exceeds the limit of %d", total, h.limits.MaxItems)
	}

	lengths := make([]int, 0, total)
	for _, group := range groups {
		for i := 0; i < group.Count; i++ {
			lengths = append(lengths, group.Length)
		}
	}

	if err := packing.ValidateLengths(lengths, h.limits.MinItemLength, h.limits.MaxItemLength); err != nil {
		return nil, err
	}
	return lengths, nil
}

// writePlanError maps planner failures onto HTTP statuses: exhausted variants
// become 422 with per-attempt traces, deadline hits become 503.
func (h *Handler) writePlanError(w http.ResponseWriter, err error) {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		writeError(w, http.StatusServiceUnavailable, "Planning timed out", "the search exceeded the configured deadline", "Reduce the number of distinct pallet lengths or raise the solve timeout")
		return
	}

	var planErr *packing.PlanError
	if errors.As(err, &planErr) {
		attempts := make([]attemptSummary, 0, len(planErr.Attempts))
		for _, attempt := range planErr.Attempts {
			summary := attemptSummary{Variant: attempt.Variant, Reason: attempt.Err.Error()}
			var solveErr *packing.SolveError
			if errors.As(attempt.Err, &solveErr) {
				trace := solveErr.Trace
				summary.Trace = &trace
			}
			attempts = append(attempts, summary)
		}
		resp := planFailureResponse{
			Error:      "No feasible loading plan",
			Details:    err.Error(),
			Suggestion: "Split the order, remove a pallet, or configure a carrier with more lane capacity",
			Attempts:   attempts,
		}
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}

	writeInternalError(w, err)
}

// buildPlanResponse derives the renderer-facing projection of a plan. Loads
// are recomputed through ProjectLoads and cross-checked against the loads the
// search tracked.
func buildPlanResponse(lengths []int, plan *packing.Plan, variants []packing.Variant, elapsed time.Duration) (planResponse, error) {
	var model packing.CapacityModel
	found := false
	for _, variant := range variants {
		if variant.Model.Name == plan.Variant {
			model = variant.Model
			found = true
			break
		}
	}
	if !found {
		return planResponse{}, fmt.Errorf("plan references unknown variant %q", plan.Variant)
	}

	loads, maxLoad, err := packing.ProjectLoads(lengths, plan.Result.Assignment, model)
	if err != nil {
		return planResponse{}, fmt.Errorf("project loads: %w", err)
	}
	for i, load := range loads {
		if load != plan.Result.ColumnLoads[i] {
			return planResponse{}, fmt.Errorf("column %d load mismatch: projection %d, search %d", i, load, plan.Result.ColumnLoads[i])
		}
	}
	if maxLoad != plan.Result.MaxLoad {
		return planResponse{}, fmt.Errorf("max load mismatch: projection %d, search %d", maxLoad, plan.Result.MaxLoad)
	}

	columns := make([]columnSummary, len(model.Columns))
	for i, col := range model.Columns {
		columns[i] = columnSummary{
			Carrier:  col.Carrier,
			Capacity: col.Capacity,
			Load:     loads[i],
			Pallets:  []int{},
		}
	}
	for idx, col := range plan.Result.Assignment {
		columns[col].Pallets = append(columns[col].Pallets, idx)
	}

	pairs := plan.Pairs
	if pairs == nil {
		pairs = []packing.Pair{}
	}

	return planResponse{
		Variant:    plan.Variant,
		Fallback:   plan.Fallback,
		Assignment: plan.Result.Assignment,
		Columns:    columns,
		MaxLoad:    maxLoad,
		Pairs:      pairs,
		ElapsedMs:  elapsed.Milliseconds(),
	}, nil
}

func (h *Handler) currentCarriersUpdatedAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.carriersUpdatedAt
}

func (h *Handler) markCarriersUpdated() {
	h.mu.Lock()
	h.carriersUpdatedAt = h.clock()
	h.mu.Unlock()
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type palletGroup struct {
	Length int `json:"length"`
	Count  int `json:"count"`
}

type planRequest struct {
	Pallets []palletGroup `json:"pallets"`
}

type columnSummary struct {
	Carrier  int   `json:"carrier"`
	Capacity int   `json:"capacity"`
	Load     int   `json:"load"`
	Pallets  []int `json:"pallets"`
}

type planResponse struct {
	Variant    string          `json:"variant"`
	Fallback   bool            `json:"fallback,omitempty"`
	Assignment []int           `json:"assignment"`
	Columns    []columnSummary `json:"columns"`
	MaxLoad    int             `json:"maxLoad"`
	Pairs      []packing.Pair  `json:"pairs"`
	ElapsedMs  int64           `json:"elapsedMs"`
}

type attemptSummary struct {
	Variant string         `json:"variant"`
	Reason  string         `json:"reason"`
	Trace   *packing.Trace `json:"trace,omitempty"`
}

type planFailureResponse struct {
	Error      string           `json:"error"`
	Details    string           `json:"details"`
	Suggestion string           `json:"suggestion,omitempty"`
	Attempts   []attemptSummary `json:"attempts"`
}

type carriersRequest struct {
	Carriers []packing.Variant `json:"carriers"`
}

type carriersResponse struct {
	Carriers  []packing.Variant `json:"carriers"`
	UpdatedAt time.Time         `json:"updatedAt"`
	Message   string            `json:"message,omitempty"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
