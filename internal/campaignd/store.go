// Package campaignd implements the campaign daemon: an in-memory campaign
// registry, an executor that drives campaign runs asynchronously with
// per-campaign cancellation, and the HTTP surface exposing them.
package campaignd

import (
	"fmt"
	"sync"
	"time"

	"github.com/argonlab/campaign-core/internal/campaign"
	"github.com/argonlab/campaign-core/pkg/utils"
)

// Status is the externally visible lifecycle status of a managed campaign
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status is final
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// CampaignInput is the submitted definition of a campaign
type CampaignInput struct {
	// ConfigYAML is the full campaign configuration payload
	ConfigYAML string `json:"config_yaml"`

	// CallbackURL receives a completion notification when set; the
	// {campaign_id} placeholder is substituted before dispatch
	CallbackURL string `json:"callback_url,omitempty"`
}

// CampaignMeta is the mutable bookkeeping state of a managed campaign
type CampaignMeta struct {
	ID              string
	Name            string
	Experiment      string
	Status          Status
	Error           string
	CreatedAtUnixMs int64
	StartedAtUnixMs int64
	EndedAtUnixMs   int64
}

// BestResult is the best observation found by a finished campaign
type BestResult struct {
	X     []float64 `json:"x"`
	Value float64   `json:"value"`
}

// CampaignEntry pairs a campaign's metadata with its input and results
type CampaignEntry struct {
	Meta  *CampaignMeta
	Input *CampaignInput

	// Data holds the observation log once the run has produced one
	Data *campaign.Dataset

	// Best is set when the campaign finishes with observations
	Best *BestResult
}

// snapshot returns a copy of the entry that is safe to read without the
// store lock. Meta is copied by value; Input, Data, and Best are never
// mutated after they are published, so sharing the pointers is safe.
func (e *CampaignEntry) snapshot() *CampaignEntry {
	meta := *e.Meta
	return &CampaignEntry{
		Meta:  &meta,
		Input: e.Input,
		Data:  e.Data,
		Best:  e.Best,
	}
}

// CampaignStore is an in-memory registry of managed campaigns
type CampaignStore struct {
	mu        sync.RWMutex
	campaigns map[string]*CampaignEntry
}

func NewCampaignStore() *CampaignStore {
	return &CampaignStore{
		campaigns: make(map[string]*CampaignEntry),
	}
}

func nowUnixMs() int64 {
	return time.Now().UTC().UnixMilli()
}

// Create registers a new campaign in pending state. An empty id is assigned
// a generated one.
func (s *CampaignStore) Create(id string, input *CampaignInput) (*CampaignEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" {
		id = utils.GenerateCampaignID()
	}
	if _, exists := s.campaigns[id]; exists {
		return nil, fmt.Errorf("campaign already exists: %s", id)
	}

	entry := &CampaignEntry{
		Meta: &CampaignMeta{
			ID:              id,
			Status:          StatusPending,
			CreatedAtUnixMs: nowUnixMs(),
		},
		Input: input,
	}
	s.campaigns[id] = entry
	return entry.snapshot(), nil
}

// Get returns a snapshot of the campaign entry for the given id
func (s *CampaignStore) Get(id string) (*CampaignEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.campaigns[id]
	if !ok {
		return nil, false
	}
	return entry.snapshot(), true
}

// List returns snapshots of up to limit campaigns, optionally filtered by
// status. An empty status matches everything.
func (s *CampaignStore) List(limit int, status Status) []*CampaignEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	out := make([]*CampaignEntry, 0, utils.Min(limit, len(s.campaigns)))
	for _, entry := range s.campaigns {
		if status != "" && entry.Meta.Status != status {
			continue
		}
		out = append(out, entry.snapshot())
		if len(out) >= limit {
			break
		}
	}
	return out
}

// SetStatus transitions a campaign's status and stamps the start/end times.
// Terminal campaigns refuse further transitions.
func (s *CampaignStore) SetStatus(id string, status Status, errMsg string) (*CampaignEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.campaigns[id]
	if !ok {
		return nil, fmt.Errorf("campaign not found: %s", id)
	}
	if entry.Meta.Status.Terminal() {
		return nil, fmt.Errorf("%w: %s is %s", ErrCampaignTerminal, id, entry.Meta.Status)
	}

	entry.Meta.Status = status
	if errMsg != "" {
		entry.Meta.Error = errMsg
	}

	switch status {
	case StatusRunning:
		if entry.Meta.StartedAtUnixMs == 0 {
			entry.Meta.StartedAtUnixMs = nowUnixMs()
		}
	case StatusCompleted, StatusFailed, StatusCancelled:
		entry.Meta.EndedAtUnixMs = nowUnixMs()
	}

	return entry.snapshot(), nil
}

// SetName records the campaign's display name and experiment once the
// config has been parsed
func (s *CampaignStore) SetName(id, name, experiment string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.campaigns[id]
	if !ok {
		return fmt.Errorf("campaign not found: %s", id)
	}
	entry.Meta.Name = name
	entry.Meta.Experiment = experiment
	return nil
}

// SetResults stores the finished campaign's observation log and best result
func (s *CampaignStore) SetResults(id string, data *campaign.Dataset, best *BestResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.campaigns[id]
	if !ok {
		return fmt.Errorf("campaign not found: %s", id)
	}
	entry.Data = data
	entry.Best = best
	return nil
}
