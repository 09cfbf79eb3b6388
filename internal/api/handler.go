package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/punchamoorthee/settlebank/internal/domain"
	"github.com/punchamoorthee/settlebank/internal/feed"
	"github.com/punchamoorthee/settlebank/internal/service"
	"github.com/punchamoorthee/settlebank/internal/store"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlebank_http_requests_total",
		Help: "Total HTTP requests processed, labeled by status code",
	}, []string{"method", "endpoint", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "settlebank_http_request_duration_seconds",
		Help:    "Latency distribution of HTTP requests",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"method", "endpoint"})
)

// Handler serves read-only reports over a settled bank. The bank must not be
// mutated while the handler is serving.
type Handler struct {
	queries *service.Queries
}

func NewHandler(q *service.Queries) *Handler {
	return &Handler{queries: q}
}

// NewRouter wires the report endpoints, health check and metrics.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/health", h.HealthCheckHandler).Methods("GET")

	apiV1 := r.PathPrefix("/api/v1").Subrouter()
	apiV1.HandleFunc("/transactions", h.ListTransactionsHandler).Methods("GET")
	apiV1.HandleFunc("/revenue", h.RevenueHandler).Methods("GET")
	apiV1.HandleFunc("/accounts/{id}", h.GetAccountHandler).Methods("GET")
	apiV1.HandleFunc("/accounts/{id}/history", h.GetHistoryHandler).Methods("GET")
	apiV1.HandleFunc("/summary/{instant}", h.DaySummaryHandler).Methods("GET")
	return r
}

func (h *Handler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"}, "GET", "/health")
}

func (h *Handler) ListTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/transactions"
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("GET", endpoint))
	defer timer.ObserveDuration()

	start, end, ok := interval(w, r, endpoint)
	if !ok {
		return
	}
	listing, err := h.queries.List(start, end)
	if errors.Is(err, service.ErrEmptyInterval) {
		respondWithError(w, http.StatusUnprocessableEntity, "List Transactions requires a non-empty time interval", "GET", endpoint)
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error", "GET", endpoint)
		return
	}
	respondWithJSON(w, http.StatusOK, listing, "GET", endpoint)
}

func (h *Handler) RevenueHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/revenue"
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("GET", endpoint))
	defer timer.ObserveDuration()

	start, end, ok := interval(w, r, endpoint)
	if !ok {
		return
	}
	basis := service.RevenueBasis(r.URL.Query().Get("basis"))
	switch basis {
	case "", service.ByExecTime, service.ByPlacementTime:
	default:
		respondWithError(w, http.StatusBadRequest, "basis must be exec or placement", "GET", endpoint)
		return
	}

	rev, err := h.queries.Revenue(start, end, basis)
	if errors.Is(err, service.ErrEmptyInterval) {
		respondWithError(w, http.StatusUnprocessableEntity, "Bank Revenue requires a non-empty time interval", "GET", endpoint)
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error", "GET", endpoint)
		return
	}
	respondWithJSON(w, http.StatusOK, rev, "GET", endpoint)
}

func (h *Handler) GetAccountHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/accounts/{id}"
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("GET", endpoint))
	defer timer.ObserveDuration()

	account, err := h.queries.Account(mux.Vars(r)["id"])
	if errors.Is(err, store.ErrAccountNotFound) {
		respondWithError(w, http.StatusNotFound, "Account not found", "GET", endpoint)
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error", "GET", endpoint)
		return
	}
	respondWithJSON(w, http.StatusOK, account, "GET", endpoint)
}

func (h *Handler) GetHistoryHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/accounts/{id}/history"
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("GET", endpoint))
	defer timer.ObserveDuration()

	history, err := h.queries.History(mux.Vars(r)["id"])
	if errors.Is(err, store.ErrAccountNotFound) {
		respondWithError(w, http.StatusNotFound, "Account not found", "GET", endpoint)
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error", "GET", endpoint)
		return
	}
	respondWithJSON(w, http.StatusOK, history, "GET", endpoint)
}

func (h *Handler) DaySummaryHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/summary/{instant}"
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("GET", endpoint))
	defer timer.ObserveDuration()

	instant, err := feed.ParseTimestamp(mux.Vars(r)["instant"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "instant must be a yy:mm:dd:hh:mm:ss timestamp", "GET", endpoint)
		return
	}
	respondWithJSON(w, http.StatusOK, h.queries.DailySummary(instant), "GET", endpoint)
}

// interval reads the start and end query parameters, answering 400 itself
// when either is missing or malformed.
func interval(w http.ResponseWriter, r *http.Request, endpoint string) (start, end domain.Timestamp, ok bool) {
	q := r.URL.Query()
	start, err := feed.ParseTimestamp(q.Get("start"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "start must be a yy:mm:dd:hh:mm:ss timestamp", "GET", endpoint)
		return 0, 0, false
	}
	end, err = feed.ParseTimestamp(q.Get("end"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "end must be a yy:mm:dd:hh:mm:ss timestamp", "GET", endpoint)
		return 0, 0, false
	}
	return start, end, true
}

func respondWithError(w http.ResponseWriter, code int, message, method, endpoint string) {
	respondWithJSON(w, code, map[string]string{"error": message}, method, endpoint)
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}, method, endpoint string) {
	httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(code)).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}
