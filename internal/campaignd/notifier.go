package campaignd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/argonlab/campaign-core/pkg/logger"
)

// NotificationPayload represents the JSON payload sent to the callback URL
type NotificationPayload struct {
	CampaignID      string      `json:"campaign_id"`
	Name            string      `json:"name,omitempty"`
	Experiment      string      `json:"experiment,omitempty"`
	Status          Status      `json:"status"`
	Observations    int         `json:"observations"`
	Best            *BestResult `json:"best,omitempty"`
	Error           string      `json:"error,omitempty"`
	CreatedAtUnixMs int64       `json:"created_at_unix_ms"`
	StartedAtUnixMs int64       `json:"started_at_unix_ms,omitempty"`
	EndedAtUnixMs   int64       `json:"ended_at_unix_ms,omitempty"`
	Timestamp       int64       `json:"timestamp"` // When notification was sent
}

// Notifier delivers campaign completion notifications to callback URLs
type Notifier struct {
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
}

// NewNotifier creates a new notification service
func NewNotifier() *Notifier {
	return &Notifier{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		maxRetries: 3,
		baseDelay:  1 * time.Second,
	}
}

// Notify sends a notification to the callback URL asynchronously.
// This method returns immediately and performs the notification in a goroutine.
func (n *Notifier) Notify(callbackURL string, callbackSecret string, entry *CampaignEntry) {
	if callbackURL == "" {
		return
	}
	if entry == nil || entry.Meta == nil {
		logger.Warn("cannot notify: invalid campaign entry", "callback_url", callbackURL)
		return
	}

	finalURL := strings.ReplaceAll(callbackURL, "{campaign_id}", entry.Meta.ID)

	observations := 0
	if entry.Data != nil {
		observations = entry.Data.N()
	}

	payload := NotificationPayload{
		CampaignID:      entry.Meta.ID,
		Name:            entry.Meta.Name,
		Experiment:      entry.Meta.Experiment,
		Status:          entry.Meta.Status,
		Observations:    observations,
		Best:            entry.Best,
		Error:           entry.Meta.Error,
		CreatedAtUnixMs: entry.Meta.CreatedAtUnixMs,
		StartedAtUnixMs: entry.Meta.StartedAtUnixMs,
		EndedAtUnixMs:   entry.Meta.EndedAtUnixMs,
		Timestamp:       time.Now().UTC().UnixMilli(),
	}

	go n.sendNotification(finalURL, callbackSecret, payload)
}

// sendNotification performs the actual HTTP POST with retry logic
func (n *Notifier) sendNotification(callbackURL string, callbackSecret string, payload NotificationPayload) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		logger.Error("failed to marshal notification payload",
			"callback_url", callbackURL,
			"campaign_id", payload.CampaignID,
			"error", err)
		return
	}

	var lastErr error
	for attempt := 0; attempt <= n.maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: delay = baseDelay * 2^(attempt-1)
			delay := n.baseDelay * time.Duration(1<<uint(attempt-1))
			logger.Debug("retrying notification",
				"callback_url", callbackURL,
				"campaign_id", payload.CampaignID,
				"attempt", attempt,
				"delay", delay)
			time.Sleep(delay)
		}

		req, err := http.NewRequest("POST", callbackURL, bytes.NewReader(payloadJSON))
		if err != nil {
			lastErr = fmt.Errorf("failed to create request: %w", err)
			continue
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", "campaign-core/1.0")
		if callbackSecret != "" {
			req.Header.Set("X-Campaign-Callback-Secret", callbackSecret)
		}

		resp, err := n.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("HTTP request failed: %w", err)
			logger.Warn("notification attempt failed",
				"callback_url", callbackURL,
				"campaign_id", payload.CampaignID,
				"attempt", attempt+1,
				"error", err)
			continue
		}

		bodyBytes, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		responseBody := string(bodyBytes)
		if len(responseBody) > 200 {
			responseBody = responseBody[:200] + "..."
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			logger.Info("notification sent successfully",
				"campaign_id", payload.CampaignID,
				"status", payload.Status,
				"status_code", resp.StatusCode)
			return
		}

		lastErr = fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		logger.Warn("notification returned non-2xx status",
			"callback_url", callbackURL,
			"campaign_id", payload.CampaignID,
			"status_code", resp.StatusCode,
			"response_body", responseBody,
			"attempt", attempt+1)
	}

	logger.Error("failed to send notification after retries",
		"callback_url", callbackURL,
		"campaign_id", payload.CampaignID,
		"status", payload.Status,
		"max_retries", n.maxRetries,
		"last_error", lastErr)
}
