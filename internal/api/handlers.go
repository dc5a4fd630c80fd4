package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"maintenance-intake/internal/intake"
	"maintenance-intake/internal/messaging"
	"maintenance-intake/internal/metrics"
	"maintenance-intake/internal/notifier"
	"maintenance-intake/internal/storage"
)

func (a *API) Router() http.Handler {
	r := chi.NewRouter()

	// Intake
	r.Post("/requests", a.SubmitRequest)
	r.Post("/api/webhook", a.RelayWebhook)

	// Admin
	r.Get("/admin/requests", a.ListRequests)
	r.Get("/admin/requests/{id}", a.GetRequestDetail)
	r.Put("/admin/requests/{id}/status", a.UpdateRequestStatus)

	r.Handle("/metrics", metrics.Handler())

	return r
}

// @Summary Submit a maintenance request
// @Tags Intake
// @Accept json
// @Produce json
// @Success 200 {object} intake.Outcome
// @Router /requests [post]
func (a *API) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	var sub intake.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}

	sub = intake.Trim(sub)
	if errs := intake.Validate(sub); len(errs) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": errs})
		return
	}

	outcome, err := a.Engine.Submit(r.Context(), sub)
	if err != nil {
		stage, msg := classifySubmitError(err)
		metrics.SubmissionFailures.WithLabelValues(stage).Inc()
		log.Printf("API: submission failed (%s): %v", stage, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": msg})
		return
	}

	metrics.SubmissionsTotal.WithLabelValues(string(outcome.Action)).Inc()
	a.publishIntake(sub, outcome)

	writeJSON(w, http.StatusOK, outcome)
}

// publishIntake hands the committed outcome to the relay pipeline. The
// submission has already succeeded; a publish failure is logged and dropped.
func (a *API) publishIntake(sub intake.Submission, outcome intake.Outcome) {
	if a.Events == nil {
		return
	}
	event := messaging.IntakeEvent{
		EventID:    uuid.New(),
		Action:     string(outcome.Action),
		OccurredAt: time.Now().UTC(),
		Payload: notifier.Payload{
			Name:       sub.Name,
			Phone:      sub.Phone,
			Address:    sub.Address,
			Issue:      sub.Issue,
			RequestID:  outcome.RequestID,
			TenantID:   outcome.TenantID,
			PropertyID: outcome.PropertyID,
		},
	}
	if err := a.Events.PublishIntake(event); err != nil {
		log.Printf("API: failed to publish intake event: %v", err)
	}
}

func classifySubmitError(err error) (stage, msg string) {
	switch {
	case errors.Is(err, intake.ErrTenantResolution):
		return "tenant", "Error resolving tenant record"
	case errors.Is(err, intake.ErrPropertyResolution):
		return "property", "Error resolving property record"
	case errors.Is(err, intake.ErrRequestResolution):
		return "request", "Error resolving maintenance request"
	default:
		return "unknown", "An unexpected error occurred. Please try again."
	}
}

// @Summary Relay a payload to the automation webhook
// @Tags Intake
// @Accept json
// @Produce json
// @Router /api/webhook [post]
func (a *API) RelayWebhook(w http.ResponseWriter, r *http.Request) {
	if !a.Notify.Configured() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Webhook URL not configured"})
		return
	}

	var payload notifier.Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}

	// Always 200 past this point; the caller's submission already committed
	// and a relay failure must not surface as one.
	result := a.Notify.Relay(r.Context(), payload)
	if result.Success {
		metrics.RelaysTotal.WithLabelValues("success").Inc()
	} else {
		metrics.RelaysTotal.WithLabelValues("failure").Inc()
	}
	writeJSON(w, http.StatusOK, result)
}

// @Summary List maintenance requests, one row per tenant/property pair
// @Tags Admin
// @Produce json
// @Router /admin/requests [get]
func (a *API) ListRequests(w http.ResponseWriter, r *http.Request) {
	rows, err := a.Store.ListRequestRows(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": intake.Summarize(rows)})
}

// @Summary Request detail with conversation history
// @Tags Admin
// @Produce json
// @Param id path string true "Request UUID"
// @Router /admin/requests/{id} [get]
func (a *API) GetRequestDetail(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid request id", http.StatusBadRequest)
		return
	}

	request, err := a.Store.GetRequest(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "request not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	conversations, err := a.Store.ListConversations(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"request":       request,
		"conversations": conversations,
	})
}

// @Summary Set a request's status
// @Tags Admin
// @Accept json
// @Param id path string true "Request UUID"
// @Success 204
// @Router /admin/requests/{id}/status [put]
func (a *API) UpdateRequestStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid request id", http.StatusBadRequest)
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Status == "" {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}

	err = a.Store.UpdateRequestStatus(r.Context(), id, body.Status)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "request not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	log.Printf("API: request %s status set to %q", id, body.Status)
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
