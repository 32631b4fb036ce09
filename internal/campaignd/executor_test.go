package campaignd

import (
	"errors"
	"testing"
	"time"
)

const smallCampaignYAML = `
name: exec-test
experiment:
  name: quadratic
design:
  name: latin_hypercube
  n: 3
  seed: 1
policy:
  n_max: 6
  acquisition: UCB-2
  num_restarts: 4
  raw_samples: 32
  seed: 2
`

const slowCampaignYAML = `
experiment:
  name: quadratic
design:
  name: random
  n: 3
  seed: 1
policy:
  n_max: 5000
  acquisition: EI
  seed: 2
`

func waitForTerminal(t *testing.T, s *CampaignStore, id string, timeout time.Duration) *CampaignEntry {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		entry, ok := s.Get(id)
		if !ok {
			t.Fatalf("campaign %s disappeared", id)
		}
		if entry.Meta.Status.Terminal() {
			return entry
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("campaign %s did not reach a terminal status within %v", id, timeout)
	return nil
}

func TestExecutorRunsCampaignToCompletion(t *testing.T) {
	s := NewCampaignStore()
	e := NewExecutor(s)

	entry, err := s.Create("", &CampaignInput{ConfigYAML: smallCampaignYAML})
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
	id := entry.Meta.ID

	started, err := e.Start(id)
	if err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	if started.Meta.Status != StatusRunning {
		t.Errorf("expected running status, got %s", started.Meta.Status)
	}

	final := waitForTerminal(t, s, id, 30*time.Second)
	if final.Meta.Status != StatusCompleted {
		t.Fatalf("expected completed status, got %s (error: %s)", final.Meta.Status, final.Meta.Error)
	}
	if final.Meta.Name != "exec-test" || final.Meta.Experiment != "quadratic" {
		t.Errorf("expected parsed name recorded, got %+v", final.Meta)
	}
	if final.Data == nil || final.Data.N() != 6 {
		t.Errorf("expected exactly 6 observations, got %+v", final.Data)
	}
	if final.Best == nil {
		t.Error("expected a best result")
	}
	if final.Meta.EndedAtUnixMs == 0 {
		t.Error("expected ended_at to be stamped")
	}
}

func TestExecutorStartErrors(t *testing.T) {
	s := NewCampaignStore()
	e := NewExecutor(s)

	if _, err := e.Start(""); !errors.Is(err, ErrCampaignIDMissing) {
		t.Errorf("expected ErrCampaignIDMissing, got %v", err)
	}
	if _, err := e.Start("missing"); !errors.Is(err, ErrCampaignNotFound) {
		t.Errorf("expected ErrCampaignNotFound, got %v", err)
	}

	// Terminal campaigns cannot be restarted.
	if _, err := s.Create("cmp-done", &CampaignInput{ConfigYAML: smallCampaignYAML}); err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
	if _, err := s.SetStatus("cmp-done", StatusCompleted, ""); err != nil {
		t.Fatalf("unexpected status error: %v", err)
	}
	if _, err := e.Start("cmp-done"); !errors.Is(err, ErrCampaignTerminal) {
		t.Errorf("expected ErrCampaignTerminal, got %v", err)
	}
}

func TestExecutorInvalidConfigFails(t *testing.T) {
	s := NewCampaignStore()
	e := NewExecutor(s)

	entry, err := s.Create("", &CampaignInput{ConfigYAML: "experiment: [not, a, mapping]"})
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}

	if _, err := e.Start(entry.Meta.ID); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	final := waitForTerminal(t, s, entry.Meta.ID, 10*time.Second)
	if final.Meta.Status != StatusFailed {
		t.Errorf("expected failed status, got %s", final.Meta.Status)
	}
	if final.Meta.Error == "" {
		t.Error("expected an error message")
	}
}

func TestExecutorUnknownExperimentFails(t *testing.T) {
	s := NewCampaignStore()
	e := NewExecutor(s)

	yaml := `
experiment:
  name: warp-drive
design:
  name: random
  n: 3
policy:
  n_max: 6
  acquisition: UCB
`
	entry, err := s.Create("", &CampaignInput{ConfigYAML: yaml})
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
	if _, err := e.Start(entry.Meta.ID); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}

	final := waitForTerminal(t, s, entry.Meta.ID, 10*time.Second)
	if final.Meta.Status != StatusFailed {
		t.Errorf("expected failed status, got %s", final.Meta.Status)
	}
}

func TestExecutorStop(t *testing.T) {
	s := NewCampaignStore()
	e := NewExecutor(s)

	entry, err := s.Create("", &CampaignInput{ConfigYAML: slowCampaignYAML})
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
	id := entry.Meta.ID

	if _, err := e.Start(id); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}

	// Let it get a few iterations in, then cancel.
	time.Sleep(200 * time.Millisecond)
	stopped, err := e.Stop(id)
	if err != nil {
		t.Fatalf("unexpected stop error: %v", err)
	}
	if stopped.Meta.Status != StatusCancelled {
		t.Errorf("expected cancelled status, got %s", stopped.Meta.Status)
	}

	final := waitForTerminal(t, s, id, 30*time.Second)
	if final.Meta.Status != StatusCancelled {
		t.Errorf("expected cancelled status to stick, got %s", final.Meta.Status)
	}

	if _, err := e.Stop("missing"); !errors.Is(err, ErrCampaignNotFound) {
		t.Errorf("expected ErrCampaignNotFound, got %v", err)
	}
}

func TestExecutorStopAfterCompletionRejected(t *testing.T) {
	s := NewCampaignStore()
	e := NewExecutor(s)

	if _, err := s.Create("cmp-done", &CampaignInput{ConfigYAML: smallCampaignYAML}); err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
	if _, err := s.SetStatus("cmp-done", StatusCompleted, ""); err != nil {
		t.Fatalf("unexpected status error: %v", err)
	}
	before, _ := s.Get("cmp-done")

	if _, err := e.Stop("cmp-done"); !errors.Is(err, ErrCampaignTerminal) {
		t.Errorf("expected ErrCampaignTerminal, got %v", err)
	}

	after, _ := s.Get("cmp-done")
	if after.Meta.Status != StatusCompleted {
		t.Errorf("expected completed status to stick, got %s", after.Meta.Status)
	}
	if after.Meta.EndedAtUnixMs != before.Meta.EndedAtUnixMs {
		t.Error("expected ended_at to be untouched by the rejected stop")
	}
}
