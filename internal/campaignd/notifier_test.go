package campaignd

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testEntry(id string) *CampaignEntry {
	return &CampaignEntry{
		Meta: &CampaignMeta{
			ID:              id,
			Name:            "notify-test",
			Experiment:      "quadratic",
			Status:          StatusCompleted,
			CreatedAtUnixMs: 1000,
			StartedAtUnixMs: 2000,
			EndedAtUnixMs:   3000,
		},
		Input: &CampaignInput{ConfigYAML: "x"},
		Best:  &BestResult{X: []float64{0.5}, Value: 0.99},
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within timeout")
}

func TestNotifierDeliversPayload(t *testing.T) {
	var received atomic.Pointer[NotificationPayload]
	var secret atomic.Pointer[string]

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload NotificationPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		s := r.Header.Get("X-Campaign-Callback-Secret")
		secret.Store(&s)
		received.Store(&payload)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewNotifier()
	n.baseDelay = time.Millisecond
	n.Notify(srv.URL+"/hooks/{campaign_id}", "s3cret", testEntry("cmp-9"))

	waitFor(t, 5*time.Second, func() bool { return received.Load() != nil })

	payload := received.Load()
	if payload.CampaignID != "cmp-9" || payload.Status != StatusCompleted {
		t.Errorf("unexpected payload: %+v", payload)
	}
	if payload.Best == nil || payload.Best.Value != 0.99 {
		t.Errorf("expected best result in payload, got %+v", payload.Best)
	}
	if got := secret.Load(); got == nil || *got != "s3cret" {
		t.Error("expected callback secret header")
	}
}

func TestNotifierRetriesOnFailure(t *testing.T) {
	var attempts atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewNotifier()
	n.baseDelay = time.Millisecond
	n.Notify(srv.URL, "", testEntry("cmp-retry"))

	waitFor(t, 5*time.Second, func() bool { return attempts.Load() >= 3 })
}

func TestNotifierSkipsEmptyURL(t *testing.T) {
	n := NewNotifier()
	// Must be a no-op, not a panic.
	n.Notify("", "", testEntry("cmp-x"))
	n.Notify("http://example.invalid", "", nil)
}
