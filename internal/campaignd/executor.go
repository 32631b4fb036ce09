package campaignd

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/argonlab/campaign-core/internal/campaign"
	"github.com/argonlab/campaign-core/internal/experiment"
	"github.com/argonlab/campaign-core/internal/policy"
	"github.com/argonlab/campaign-core/internal/store"
	"github.com/argonlab/campaign-core/internal/surrogate"
	"github.com/argonlab/campaign-core/pkg/config"
	"github.com/argonlab/campaign-core/pkg/logger"
)

var (
	ErrCampaignNotFound  = errors.New("campaign not found")
	ErrCampaignTerminal  = errors.New("campaign is terminal")
	ErrCampaignIDMissing = errors.New("campaign_id is required")
)

// Executor manages asynchronous campaign execution and per-campaign
// cancellation. Results are mirrored to the persistent store when one is
// configured.
type Executor struct {
	store          *CampaignStore
	results        *store.Store
	notifier       *Notifier
	callbackSecret string

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

// ExecutorOption configures an Executor
type ExecutorOption func(*Executor)

// WithResultStore mirrors finished campaigns to the persistent store
func WithResultStore(s *store.Store) ExecutorOption {
	return func(e *Executor) {
		e.results = s
	}
}

// WithNotifier sets the completion notifier and the shared callback secret
func WithNotifier(n *Notifier, secret string) ExecutorOption {
	return func(e *Executor) {
		e.notifier = n
		e.callbackSecret = secret
	}
}

func NewExecutor(campaigns *CampaignStore, opts ...ExecutorOption) *Executor {
	e := &Executor{
		store:   campaigns,
		cancels: make(map[string]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start begins executing a campaign asynchronously.
// Returns the updated entry (running) or an error.
func (e *Executor) Start(id string) (*CampaignEntry, error) {
	if id == "" {
		return nil, ErrCampaignIDMissing
	}

	entry, ok := e.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCampaignNotFound, id)
	}

	switch {
	case entry.Meta.Status == StatusRunning:
		return entry, nil
	case entry.Meta.Status.Terminal():
		return nil, fmt.Errorf("%w: %s", ErrCampaignTerminal, id)
	}

	updated, err := e.store.SetStatus(id, StatusRunning, "")
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.mu.Lock()
	if old, exists := e.cancels[id]; exists {
		old()
	}
	e.cancels[id] = cancel
	e.mu.Unlock()

	go e.runCampaign(ctx, id)
	return updated, nil
}

// Stop requests cancellation for a pending or running campaign and marks it
// cancelled. A campaign that already reached a terminal status is left as is:
// the store refuses the transition with ErrCampaignTerminal.
func (e *Executor) Stop(id string) (*CampaignEntry, error) {
	if id == "" {
		return nil, ErrCampaignIDMissing
	}

	entry, ok := e.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCampaignNotFound, id)
	}
	if entry.Meta.Status.Terminal() {
		return nil, fmt.Errorf("%w: %s is %s", ErrCampaignTerminal, id, entry.Meta.Status)
	}

	e.mu.Lock()
	cancel, ok := e.cancels[id]
	e.mu.Unlock()
	if ok {
		cancel()
	}

	return e.store.SetStatus(id, StatusCancelled, "")
}

func (e *Executor) cleanup(id string) {
	e.mu.Lock()
	if cancel, ok := e.cancels[id]; ok {
		cancel()
		delete(e.cancels, id)
	}
	e.mu.Unlock()
}

func (e *Executor) fail(id, msg string) {
	if _, err := e.store.SetStatus(id, StatusFailed, msg); err != nil {
		logger.Error("failed to set failed status", "campaign_id", id, "error", err)
	}
}

func (e *Executor) runCampaign(ctx context.Context, id string) {
	defer e.cleanup(id)

	entry, ok := e.store.Get(id)
	if !ok {
		logger.Error("campaign not found", "campaign_id", id)
		return
	}

	cfg, err := config.ParseConfigYAMLString(entry.Input.ConfigYAML)
	if err != nil {
		logger.Error("failed to parse campaign config", "campaign_id", id, "error", err)
		e.fail(id, fmt.Sprintf("invalid config: %v", err))
		return
	}
	if err := e.store.SetName(id, cfg.Name, cfg.Experiment.Name); err != nil {
		logger.Error("failed to record campaign name", "campaign_id", id, "error", err)
	}

	exp, pol, err := assemble(cfg)
	if err != nil {
		logger.Error("failed to assemble campaign", "campaign_id", id, "error", err)
		e.fail(id, fmt.Sprintf("assembly failed: %v", err))
		return
	}

	data := campaign.NewDataset()
	c := campaign.New(exp, data, pol,
		campaign.WithPriming(campaign.PrimingConfig{
			Design: cfg.Design.Name,
			N:      cfg.Design.N,
			Seed:   cfg.Design.Seed,
		}),
	)

	logger.Info("starting campaign", "campaign_id", id,
		"experiment", cfg.Experiment.Name,
		"acquisition", cfg.Policy.Acquisition,
		"n_max", cfg.Policy.NMax)

	runErr := c.Run(ctx)

	// Record whatever was observed, even on failure or cancellation.
	var best *BestResult
	if x, value, ok := data.BestObserved(cfg.Policy.TargetColumn); ok {
		best = &BestResult{X: x, Value: value}
	}
	if err := e.store.SetResults(id, data, best); err != nil {
		logger.Error("failed to store results", "campaign_id", id, "error", err)
	}
	e.persist(id, cfg, data)

	switch {
	case runErr != nil && ctx.Err() != nil:
		// Stop already marked the campaign cancelled.
		logger.Info("campaign cancelled", "campaign_id", id, "observations", data.N())
	case runErr != nil:
		logger.Error("campaign failed", "campaign_id", id, "error", runErr)
		e.fail(id, runErr.Error())
	default:
		if _, err := e.store.SetStatus(id, StatusCompleted, ""); err != nil {
			logger.Error("failed to set completed status", "campaign_id", id, "error", err)
		} else {
			logger.Info("campaign completed", "campaign_id", id,
				"observations", data.N(),
				"iterations", data.Iterations())
		}
	}

	if e.notifier != nil {
		if entry, ok := e.store.Get(id); ok {
			e.notifier.Notify(entry.Input.CallbackURL, e.callbackSecret, entry)
		}
	}
}

// persist mirrors the campaign state to the persistent store, best effort
func (e *Executor) persist(id string, cfg *config.Config, data *campaign.Dataset) {
	if e.results == nil {
		return
	}
	entry, ok := e.store.Get(id)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := e.results.PutCampaign(ctx, store.CampaignRecord{
		ID:         id,
		Name:       cfg.Name,
		Experiment: cfg.Experiment.Name,
		State:      string(entry.Meta.Status),
		ConfigYAML: entry.Input.ConfigYAML,
		CreatedAt:  time.UnixMilli(entry.Meta.CreatedAtUnixMs).UTC(),
	})
	if err != nil {
		logger.Error("failed to persist campaign", "campaign_id", id, "error", err)
		return
	}
	if err := e.results.SaveDataset(ctx, id, data); err != nil {
		logger.Error("failed to persist dataset", "campaign_id", id, "error", err)
	}
}

// assemble builds the experiment and policy described by a campaign config
func assemble(cfg *config.Config) (experiment.Experiment, *policy.Policy, error) {
	exp, err := experiment.New(cfg.Experiment.Name)
	if err != nil {
		return nil, nil, err
	}
	if len(cfg.Experiment.NoiseStd) > 0 {
		exp, err = experiment.NewNoisy(exp, cfg.Experiment.NoiseStd, cfg.Experiment.NoiseSeed)
		if err != nil {
			return nil, nil, err
		}
	}

	pol, err := policy.New(policy.Config{
		NMax:         cfg.Policy.NMax,
		Acquisition:  cfg.Policy.Acquisition,
		Factory:      surrogate.NewGPFactory(),
		BatchSize:    cfg.Policy.BatchSize,
		NumRestarts:  cfg.Policy.NumRestarts,
		RawSamples:   cfg.Policy.RawSamples,
		TargetColumn: cfg.Policy.TargetColumn,
		SaveModel:    cfg.Policy.SaveModel,
		Seed:         cfg.Policy.Seed,
	}, exp.Bounds())
	if err != nil {
		return nil, nil, err
	}

	return exp, pol, nil
}
