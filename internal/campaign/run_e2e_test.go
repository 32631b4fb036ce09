package campaign_test

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/argonlab/campaign-core/internal/campaign"
	"github.com/argonlab/campaign-core/internal/experiment"
	"github.com/argonlab/campaign-core/internal/policy"
	"github.com/argonlab/campaign-core/internal/surrogate"
)

func runCampaign(t *testing.T, acquisition string, nStart, nMax, q int, seed int64) *campaign.Campaign {
	t.Helper()

	exp, err := experiment.New("quadratic")
	if err != nil {
		t.Fatalf("unexpected experiment error: %v", err)
	}

	pol, err := policy.New(policy.Config{
		NMax:        nMax,
		Acquisition: acquisition,
		Factory:     surrogate.NewGPFactory(),
		BatchSize:   q,
		NumRestarts: 8,
		RawSamples:  64,
		Seed:        seed,
	}, exp.Bounds())
	if err != nil {
		t.Fatalf("unexpected policy error: %v", err)
	}

	c := campaign.New(exp, campaign.NewDataset(), pol,
		campaign.WithPriming(campaign.PrimingConfig{Design: "latin_hypercube", N: nStart, Seed: seed}))
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}
	return c
}

func TestEndToEndFillsBudgetExactly(t *testing.T) {
	const nStart, nMax = 3, 10

	c := runCampaign(t, "UCB-2", nStart, nMax, 1, 42)

	if c.Data().N() != nMax {
		t.Errorf("expected exactly %d observations, got %d", nMax, c.Data().N())
	}
	if got := len(c.Data().Records()); got != 1+(nMax-nStart) {
		t.Errorf("expected %d iteration records, got %d", 1+(nMax-nStart), got)
	}
	if c.State() != campaign.StateDone {
		t.Errorf("expected done state, got %s", c.State())
	}
}

func TestEndToEndBatchTruncation(t *testing.T) {
	const nStart, nMax, q = 3, 10, 3

	c := runCampaign(t, "UCB-2", nStart, nMax, q, 42)

	if c.Data().N() != nMax {
		t.Errorf("expected exactly %d observations, got %d", nMax, c.Data().N())
	}
	records := c.Data().Records()
	wantRows := []int{3, 3, 3, 1}
	if len(records) != len(wantRows) {
		t.Fatalf("expected %d records, got %d", len(wantRows), len(records))
	}
	for i, want := range wantRows {
		if records[i].Rows != want {
			t.Errorf("record %d: expected %d rows, got %d", i, want, records[i].Rows)
		}
	}
}

func TestEndToEndDeterminism(t *testing.T) {
	first := runCampaign(t, "EI", 3, 8, 1, 99)
	second := runCampaign(t, "EI", 3, 8, 1, 99)

	if !reflect.DeepEqual(first.Data().X(), second.Data().X()) {
		t.Error("expected identical seeds to reproduce identical inputs")
	}
	if !reflect.DeepEqual(first.Data().Y(), second.Data().Y()) {
		t.Error("expected identical seeds to reproduce identical responses")
	}
}

func TestEndToEndSavesModelSnapshots(t *testing.T) {
	exp, err := experiment.New("quadratic")
	if err != nil {
		t.Fatalf("unexpected experiment error: %v", err)
	}
	pol, err := policy.New(policy.Config{
		NMax:        6,
		Acquisition: "UCB-2",
		Factory:     surrogate.NewGPFactory(),
		NumRestarts: 4,
		RawSamples:  32,
		SaveModel:   true,
		Seed:        5,
	}, exp.Bounds())
	if err != nil {
		t.Fatalf("unexpected policy error: %v", err)
	}

	c := campaign.New(exp, campaign.NewDataset(), pol,
		campaign.WithPriming(campaign.PrimingConfig{Design: "random", N: 3, Seed: 5}))
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}

	records := c.Data().Records()
	if len(records) < 2 {
		t.Fatalf("expected priming plus policy records, got %d", len(records))
	}
	if records[0].Model != nil {
		t.Error("priming record must not carry a surrogate snapshot")
	}
	for i, r := range records[1:] {
		if r.Model == nil {
			t.Errorf("policy record %d is missing its surrogate snapshot", i+1)
		}
	}
}

func TestEndToEndNoDuplicatePoints(t *testing.T) {
	c := runCampaign(t, "UCB-2", 3, 12, 1, 7)

	seen := make(map[string]bool)
	for _, row := range c.Data().X() {
		key := fmt.Sprint(row)
		if seen[key] {
			t.Errorf("duplicate acquisition at %v", row)
		}
		seen[key] = true
	}
}

func TestEndToEndConcentratesNearOptimum(t *testing.T) {
	// With a generous budget on the smooth bowl the best observation must
	// beat a pure random design of the same size most of the way to 1.0.
	c := runCampaign(t, "EI", 4, 20, 1, 3)

	_, best, ok := c.Data().BestObserved(0)
	if !ok {
		t.Fatal("expected a best observation")
	}
	if best < 0.9 {
		t.Errorf("expected best observation >= 0.9 on the quadratic bowl, got %v", best)
	}
}
