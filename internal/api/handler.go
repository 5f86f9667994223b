// Package api exposes the expense ledger engine over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nayanjaiswal1/ai-based-fms-sub001/internal/ledger"
	"github.com/nayanjaiswal1/ai-based-fms-sub001/internal/middleware"
	"github.com/nayanjaiswal1/ai-based-fms-sub001/internal/models"
	"github.com/nayanjaiswal1/ai-based-fms-sub001/internal/storage"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "expense_ledger_http_requests_total",
		Help: "Total HTTP requests processed, labeled by status code",
	}, []string{"method", "endpoint", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "expense_ledger_http_request_duration_seconds",
		Help:    "Latency distribution of HTTP requests",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"method", "endpoint"})
)

// Handler wires the ledger engine to HTTP routes.
type Handler struct {
	store     storage.Store
	processor *ledger.Processor
	ledger    *ledger.Ledger
	planner   *ledger.Planner
}

// NewHandler creates a Handler over the given engine components.
func NewHandler(store storage.Store, processor *ledger.Processor, lgr *ledger.Ledger, planner *ledger.Planner) *Handler {
	return &Handler{store: store, processor: processor, ledger: lgr, planner: planner}
}

// Router builds the route table. All /api/v1 routes sit behind authMW, which
// must populate the caller identity in the request context; request logging
// runs after it so log lines carry the caller. Metrics wrap every route.
func (h *Handler) Router(authMW func(http.Handler) http.Handler) *mux.Router {
	r := mux.NewRouter()
	r.Use(instrument)
	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/health", h.Health).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(authMW)
	api.Use(middleware.Logging)
	api.HandleFunc("/groups", h.CreateGroup).Methods("POST")
	api.HandleFunc("/groups/{id}", h.GetGroup).Methods("GET")
	api.HandleFunc("/groups/{id}", h.DeactivateGroup).Methods("DELETE")
	api.HandleFunc("/groups/{id}/members", h.AddMember).Methods("POST")
	api.HandleFunc("/groups/{id}/members/{userId}", h.RemoveMember).Methods("DELETE")
	api.HandleFunc("/groups/{id}/transactions", h.AddTransaction).Methods("POST")
	api.HandleFunc("/groups/{id}/transactions", h.ListTransactions).Methods("GET")
	api.HandleFunc("/transactions/{id}", h.UpdateTransaction).Methods("PUT")
	api.HandleFunc("/transactions/{id}", h.DeleteTransaction).Methods("DELETE")
	api.HandleFunc("/groups/{id}/settlements", h.RecordSettlement).Methods("POST")
	api.HandleFunc("/groups/{id}/balances", h.GetBalances).Methods("GET")
	api.HandleFunc("/groups/{id}/settlements/suggestions", h.GetSettlementSuggestions).Methods("GET")
	return r
}

// statusWriter captures the status code for the metrics labels.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// instrument records the request counter and latency histogram for every
// route. The endpoint label is the matched route template, not the raw path,
// to keep label cardinality bounded.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		endpoint := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tmpl, err := route.GetPathTemplate(); err == nil {
				endpoint = tmpl
			}
		}
		httpRequestsTotal.WithLabelValues(r.Method, endpoint, strconv.Itoa(sw.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
	})
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createGroupRequest struct {
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

// CreateGroup creates a group; the authenticated caller becomes its first
// member.
func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name required")
		return
	}

	group := &models.Group{Name: req.Name, Currency: req.Currency}
	if err := h.store.CreateGroup(r.Context(), group, middleware.GetUserID(r.Context())); err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, group)
}

// GetGroup returns a group by ID.
func (h *Handler) GetGroup(w http.ResponseWriter, r *http.Request) {
	group, err := h.store.GetGroup(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, group)
}

// DeactivateGroup soft-deactivates a group, preserving its transactions.
func (h *Handler) DeactivateGroup(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeactivateGroup(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

type addMemberRequest struct {
	UserID string `json:"user_id"`
}

// AddMember adds a user to a group.
func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	var req addMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}
	if req.UserID == "" {
		respondError(w, http.StatusBadRequest, "user_id required")
		return
	}

	if err := h.store.AddMember(r.Context(), mux.Vars(r)["id"], req.UserID); err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"user_id": req.UserID})
}

// RemoveMember deactivates a member, preserving their ledger history.
func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.store.DeactivateMember(r.Context(), vars["id"], vars["userId"]); err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

type transactionRequest struct {
	Amount      float64            `json:"amount"`
	PaidBy      string             `json:"paid_by"`
	SplitType   string             `json:"split_type"`
	Splits      map[string]float64 `json:"splits"`
	Description string             `json:"description"`
}

// AddTransaction records a shared expense. Percentage/share allocations are
// resolved to decimal amounts before the ledger sees them.
func (h *Handler) AddTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}
	if req.PaidBy == "" {
		respondError(w, http.StatusBadRequest, "paid_by required")
		return
	}

	splits, err := ledger.ResolveSplits(req.SplitType, req.Amount, req.Splits)
	if err != nil {
		writeError(w, r, err)
		return
	}

	txn, err := h.processor.AddTransaction(r.Context(), ledger.AddTransactionInput{
		GroupID:     mux.Vars(r)["id"],
		PaidBy:      req.PaidBy,
		Amount:      req.Amount,
		SplitType:   req.SplitType,
		Splits:      splits,
		Description: req.Description,
		CreatedBy:   middleware.GetUserID(r.Context()),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, txn)
}

// ListTransactions returns a group's non-deleted transactions, newest first.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txns, err := h.store.ListTransactionsByGroup(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"transactions": txns})
}

// UpdateTransaction replaces a transaction's amount and splits. The old
// effects are reversed and the new ones applied in one atomic unit.
func (h *Handler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}

	splits, err := ledger.ResolveSplits(req.SplitType, req.Amount, req.Splits)
	if err != nil {
		writeError(w, r, err)
		return
	}

	txn, err := h.processor.UpdateTransaction(r.Context(), mux.Vars(r)["id"], ledger.UpdateTransactionInput{
		Amount:      req.Amount,
		SplitType:   req.SplitType,
		Splits:      splits,
		Description: req.Description,
		PaidBy:      req.PaidBy,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, txn)
}

// DeleteTransaction reverses a transaction's effects and soft-deletes it.
func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := h.processor.DeleteTransaction(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type settlementRequest struct {
	FromUserID string  `json:"from_user_id"`
	ToUserID   string  `json:"to_user_id"`
	Amount     float64 `json:"amount"`
}

// RecordSettlement records a payment between members as a bookkeeping entry.
func (h *Handler) RecordSettlement(w http.ResponseWriter, r *http.Request) {
	var req settlementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}
	if req.FromUserID == "" || req.ToUserID == "" {
		respondError(w, http.StatusBadRequest, "from_user_id and to_user_id required")
		return
	}
	if req.FromUserID == req.ToUserID {
		respondError(w, http.StatusUnprocessableEntity, "cannot settle with self")
		return
	}

	txn, err := h.processor.RecordSettlement(r.Context(), mux.Vars(r)["id"],
		req.FromUserID, req.ToUserID, req.Amount, middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, txn)
}

// GetBalances returns the current balance of every active member.
func (h *Handler) GetBalances(w http.ResponseWriter, r *http.Request) {
	groupID := mux.Vars(r)["id"]
	balances, err := h.ledger.Balances(r.Context(), groupID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"group_id": groupID,
		"balances": balances,
	})
}

// GetSettlementSuggestions returns a payment plan computed from current
// balances. The plan is a snapshot and is recomputed on every request.
func (h *Handler) GetSettlementSuggestions(w http.ResponseWriter, r *http.Request) {
	groupID := mux.Vars(r)["id"]
	suggestions, err := h.planner.Suggestions(r.Context(), groupID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"group_id":    groupID,
		"suggestions": suggestions,
	})
}

// writeError maps engine errors to HTTP status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var code int
	switch {
	case errors.Is(err, ledger.ErrSplitMismatch),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrNoOp):
		code = http.StatusUnprocessableEntity
	case errors.Is(err, storage.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, storage.ErrConflict):
		code = http.StatusConflict
	default:
		code = http.StatusInternalServerError
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	respondError(w, code, err.Error())
}

// Helpers
func respondJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

func respondError(w http.ResponseWriter, code int, msg string) {
	respondJSON(w, code, map[string]string{"error": msg})
}
