// internal/notifier/notifier.go
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"maintenance-intake/internal/config"
)

// Payload is the relay body sent to the automation endpoint.
type Payload struct {
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	Address    string    `json:"address"`
	Issue      string    `json:"issue"`
	RequestID  uuid.UUID `json:"request_id"`
	TenantID   uuid.UUID `json:"tenant_id"`
	PropertyID uuid.UUID `json:"property_id"`
}

// Result describes a relay attempt. Relay never fails from the caller's
// point of view; Success says whether the endpoint actually took the call.
type Result struct {
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
	Details  string `json:"details,omitempty"`
	Response string `json:"response,omitempty"`
}

// Notifier relays intake outcomes to one configured webhook endpoint.
type Notifier struct {
	url    string
	client *http.Client
}

func New(url string, timeout time.Duration) *Notifier {
	return &Notifier{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Configured reports whether a usable endpoint is set. The placeholder value
// from example configs counts as unset.
func (n *Notifier) Configured() bool {
	return n.url != "" && n.url != config.WebhookPlaceholder
}

// Relay posts the payload to the endpoint. Every failure mode (unset URL,
// transport error, timeout, non-2xx status) is folded into the Result; the
// submission that triggered the relay has already been committed and must
// not be disturbed.
func (n *Notifier) Relay(ctx context.Context, p Payload) Result {
	if !n.Configured() {
		return Result{Success: false, Error: "Webhook URL not configured"}
	}

	body, err := json.Marshal(p)
	if err != nil {
		return Result{Success: false, Error: "Webhook failed but form submission was successful", Details: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return Result{Success: false, Error: "Webhook failed but form submission was successful", Details: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		log.Printf("[Notifier] Relay to %s failed: %v", n.url, err)
		return Result{Success: false, Error: "Webhook failed but form submission was successful", Details: err.Error()}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("[Notifier] Relay returned status %d", resp.StatusCode)
		return Result{
			Success: false,
			Error:   "Webhook failed but form submission was successful",
			Details: fmt.Sprintf("Webhook failed: %d - %s", resp.StatusCode, respBody),
		}
	}

	return Result{
		Success:  true,
		Message:  "Webhook triggered successfully",
		Response: string(respBody),
	}
}
