package campaignd

import (
	"errors"
	"testing"

	"github.com/argonlab/campaign-core/internal/campaign"
)

func TestCampaignStoreCreate(t *testing.T) {
	s := NewCampaignStore()

	entry, err := s.Create("", &CampaignInput{ConfigYAML: "x"})
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
	if entry.Meta.ID == "" {
		t.Error("expected a generated campaign id")
	}
	if entry.Meta.Status != StatusPending {
		t.Errorf("expected pending status, got %s", entry.Meta.Status)
	}
	if entry.Meta.CreatedAtUnixMs == 0 {
		t.Error("expected created_at to be stamped")
	}

	// Explicit IDs are honored, duplicates rejected.
	if _, err := s.Create("cmp-x", &CampaignInput{ConfigYAML: "x"}); err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
	if _, err := s.Create("cmp-x", &CampaignInput{ConfigYAML: "x"}); err == nil {
		t.Error("expected duplicate id to fail")
	}
}

func TestCampaignStoreGet(t *testing.T) {
	s := NewCampaignStore()
	if _, ok := s.Get("missing"); ok {
		t.Error("expected missing campaign to report not found")
	}

	created, err := s.Create("cmp-1", &CampaignInput{ConfigYAML: "x"})
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
	got, ok := s.Get("cmp-1")
	if !ok || got.Meta.ID != created.Meta.ID {
		t.Error("expected to get the created entry back")
	}
}

func TestCampaignStoreGetReturnsSnapshot(t *testing.T) {
	s := NewCampaignStore()
	if _, err := s.Create("cmp-1", &CampaignInput{ConfigYAML: "x"}); err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}

	before, ok := s.Get("cmp-1")
	if !ok {
		t.Fatal("expected campaign to exist")
	}
	if _, err := s.SetStatus("cmp-1", StatusRunning, ""); err != nil {
		t.Fatalf("unexpected status error: %v", err)
	}
	if err := s.SetName("cmp-1", "renamed", "quadratic"); err != nil {
		t.Fatalf("unexpected name error: %v", err)
	}

	// Writes after the read never show through an already returned entry.
	if before.Meta.Status != StatusPending || before.Meta.Name != "" {
		t.Errorf("expected earlier read to be isolated from later writes, got %+v", before.Meta)
	}
	after, _ := s.Get("cmp-1")
	if after.Meta.Status != StatusRunning || after.Meta.Name != "renamed" {
		t.Errorf("expected fresh read to observe the writes, got %+v", after.Meta)
	}
}

func TestCampaignStoreSetStatus(t *testing.T) {
	s := NewCampaignStore()
	if _, err := s.SetStatus("missing", StatusRunning, ""); err == nil {
		t.Error("expected status update on missing campaign to fail")
	}

	if _, err := s.Create("cmp-1", &CampaignInput{ConfigYAML: "x"}); err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}

	entry, err := s.SetStatus("cmp-1", StatusRunning, "")
	if err != nil {
		t.Fatalf("unexpected status error: %v", err)
	}
	if entry.Meta.StartedAtUnixMs == 0 {
		t.Error("expected started_at to be stamped on running")
	}
	started := entry.Meta.StartedAtUnixMs

	// A second running transition does not restamp.
	entry, err = s.SetStatus("cmp-1", StatusRunning, "")
	if err != nil {
		t.Fatalf("unexpected status error: %v", err)
	}
	if entry.Meta.StartedAtUnixMs != started {
		t.Error("expected started_at to be stable")
	}

	entry, err = s.SetStatus("cmp-1", StatusFailed, "fit diverged")
	if err != nil {
		t.Fatalf("unexpected status error: %v", err)
	}
	if entry.Meta.EndedAtUnixMs == 0 {
		t.Error("expected ended_at to be stamped on terminal status")
	}
	if entry.Meta.Error != "fit diverged" {
		t.Errorf("expected error message recorded, got %q", entry.Meta.Error)
	}
	if !entry.Meta.Status.Terminal() {
		t.Error("expected failed to be terminal")
	}

	// Terminal campaigns refuse further transitions.
	if _, err := s.SetStatus("cmp-1", StatusRunning, ""); !errors.Is(err, ErrCampaignTerminal) {
		t.Errorf("expected ErrCampaignTerminal, got %v", err)
	}
	entry, _ = s.Get("cmp-1")
	if entry.Meta.Status != StatusFailed {
		t.Errorf("expected failed status to stick, got %s", entry.Meta.Status)
	}
}

func TestCampaignStoreList(t *testing.T) {
	s := NewCampaignStore()
	for _, id := range []string{"cmp-a", "cmp-b", "cmp-c"} {
		if _, err := s.Create(id, &CampaignInput{ConfigYAML: "x"}); err != nil {
			t.Fatalf("unexpected create error: %v", err)
		}
	}
	if _, err := s.SetStatus("cmp-b", StatusRunning, ""); err != nil {
		t.Fatalf("unexpected status error: %v", err)
	}

	if got := len(s.List(0, "")); got != 3 {
		t.Errorf("expected 3 campaigns, got %d", got)
	}
	if got := len(s.List(2, "")); got != 2 {
		t.Errorf("expected limit to cap at 2, got %d", got)
	}

	running := s.List(0, StatusRunning)
	if len(running) != 1 || running[0].Meta.ID != "cmp-b" {
		t.Errorf("unexpected running filter result: %+v", running)
	}
}

func TestCampaignStoreSetResults(t *testing.T) {
	s := NewCampaignStore()
	if _, err := s.Create("cmp-1", &CampaignInput{ConfigYAML: "x"}); err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}

	data := campaign.NewDataset()
	if err := data.Append([][]float64{{0.5}}, [][]float64{{1.0}}, campaign.IterationRecord{}); err != nil {
		t.Fatalf("unexpected append error: %v", err)
	}
	best := &BestResult{X: []float64{0.5}, Value: 1.0}

	if err := s.SetResults("cmp-1", data, best); err != nil {
		t.Fatalf("unexpected results error: %v", err)
	}
	entry, _ := s.Get("cmp-1")
	if entry.Data == nil || entry.Best == nil || entry.Best.Value != 1.0 {
		t.Errorf("unexpected stored results: %+v", entry)
	}

	if err := s.SetResults("missing", data, best); err == nil {
		t.Error("expected results on missing campaign to fail")
	}
}
