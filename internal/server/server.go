// Package server exposes the calculation engine over HTTP. It is a thin
// calling layer: requests are converted into engine inputs, results come
// back through the hash-keyed cache, and nothing here touches the
// engine's internals.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/akarpov/loan-schedule/internal/cache"
	"github.com/akarpov/loan-schedule/internal/config"
	"github.com/akarpov/loan-schedule/pkg/constants"
	"github.com/akarpov/loan-schedule/pkg/loan"
	"github.com/akarpov/loan-schedule/pkg/schedule"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type handler struct {
	logger      *zap.Logger
	generator   *schedule.Generator
	results     *cache.Store
	maxBodySize int64
}

// NewHandler constructs the HTTP handler serving the schedule API.
func NewHandler(logger *zap.Logger, results *cache.Store) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if results == nil {
		results = cache.New(constants.DefaultCacheTTLSeconds*time.Second, constants.DefaultCacheMaxEntries)
	}

	h := &handler{
		logger:      logger,
		generator:   schedule.NewGenerator(logger),
		results:     results,
		maxBodySize: constants.DefaultMaxBodyBytes,
	}

	router := mux.NewRouter()
	router.HandleFunc("/api/v1/schedule", h.handleSchedule).Methods(http.MethodPost)
	router.HandleFunc("/healthz", h.handleHealth).Methods(http.MethodGet)
	router.Use(RequestIDMiddleware())
	router.Use(LoggingMiddleware(logger))

	return router
}

type calculateRequest struct {
	Loan   config.LoanConfig    `json:"loan"`
	Events []config.EventConfig `json:"events"`
}

type calculateResponse struct {
	Summary  summaryDTO `json:"summary"`
	Schedule []entryDTO `json:"schedule"`
	Version  int64      `json:"version"`
	Hash     string     `json:"hash"`
	Warnings []string   `json:"warnings,omitempty"`
}

type entryDTO struct {
	Date       string `json:"date"`
	Payment    string `json:"payment"`
	Interest   string `json:"interest"`
	Principal  string `json:"principal"`
	Balance    string `json:"balance"`
	AnnualRate string `json:"annual_rate"`
	Event      string `json:"event,omitempty"`
}

type summaryDTO struct {
	Principal           string    `json:"principal"`
	RemainingBalance    string    `json:"remaining_balance"`
	MonthlyPayment      string    `json:"monthly_payment"`
	TotalPaid           string    `json:"total_paid"`
	TotalInterest       string    `json:"total_interest"`
	TotalPrincipalPaid  string    `json:"total_principal_paid"`
	PaidPrincipalToDate string    `json:"paid_principal_to_date"`
	PaymentsCount       int       `json:"payments_count"`
	PayoffDate          *string   `json:"payoff_date"`
	NextPayment         *entryDTO `json:"next_payment"`
	ScheduleStartDate   string    `json:"schedule_start_date"`
	InsuranceTotal      string    `json:"insurance_total"`
	OneTimeCosts        string    `json:"one_time_costs"`
	TotalFutureCost     string    `json:"total_future_cost"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *handler) handleSchedule(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	body := http.MaxBytesReader(w, r.Body, h.maxBodySize)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	conf := config.Configuration{Loan: req.Loan, Events: req.Events}
	conf.ApplyDefaults()

	l, err := conf.ToLoan()
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	events, err := conf.ToEvents()
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// The hash is cheap relative to the walk, so it is computed up front
	// to key the cache; the generator recomputes it internally.
	_, hash, err := loan.VersionHash(l, events)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	result, err := h.results.GetOrCompute(hash, func() (*schedule.Result, error) {
		return h.generator.Calculate(l, events)
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, loan.ErrValidation) {
			status = http.StatusUnprocessableEntity
		}
		h.writeError(w, status, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, buildResponse(result, conf.ValidateConfiguration()))
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, errorResponse{Error: msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response",
			zap.String("op", "server.writeJSON"),
			zap.Error(err),
		)
	}
}

func buildResponse(result *schedule.Result, warnings []string) calculateResponse {
	entries := make([]entryDTO, len(result.Schedule))
	for i, entry := range result.Schedule {
		entries[i] = toEntryDTO(entry)
	}

	summary := summaryDTO{
		Principal:           result.Summary.Principal.StringFixed(2),
		RemainingBalance:    result.Summary.RemainingBalance.StringFixed(2),
		MonthlyPayment:      result.Summary.MonthlyPayment.StringFixed(2),
		TotalPaid:           result.Summary.TotalPaid.StringFixed(2),
		TotalInterest:       result.Summary.TotalInterest.StringFixed(2),
		TotalPrincipalPaid:  result.Summary.TotalPrincipalPaid.StringFixed(2),
		PaidPrincipalToDate: result.Summary.PaidPrincipalToDate.StringFixed(2),
		PaymentsCount:       result.Summary.PaymentsCount,
		ScheduleStartDate:   result.Summary.ScheduleStartDate.Format(constants.DateLayout),
		InsuranceTotal:      result.Summary.InsuranceTotal.StringFixed(2),
		OneTimeCosts:        result.Summary.OneTimeCosts.StringFixed(2),
		TotalFutureCost:     result.Summary.TotalFutureCost.StringFixed(2),
	}
	if result.Summary.PayoffDate != nil {
		payoff := result.Summary.PayoffDate.Format(constants.DateLayout)
		summary.PayoffDate = &payoff
	}
	if result.Summary.NextPayment != nil {
		next := toEntryDTO(*result.Summary.NextPayment)
		summary.NextPayment = &next
	}

	return calculateResponse{
		Summary:  summary,
		Schedule: entries,
		Version:  result.Version,
		Hash:     result.Hash,
		Warnings: warnings,
	}
}

func toEntryDTO(entry schedule.Entry) entryDTO {
	return entryDTO{
		Date:       entry.Date.Format(constants.DateLayout),
		Payment:    entry.Payment.StringFixed(2),
		Interest:   entry.Interest.StringFixed(2),
		Principal:  entry.Principal.StringFixed(2),
		Balance:    entry.Balance.StringFixed(2),
		AnnualRate: entry.AnnualRate.StringFixed(2),
		Event:      entry.Event,
	}
}
