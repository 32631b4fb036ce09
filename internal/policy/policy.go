// Package policy implements the acquisition-driven proposal engine: a
// compact criterion spec (UCB, EI, PI, TS), a fresh surrogate fit per
// iteration, and a multi-start derivative-based search for the next batch
// of candidates within the experiment domain.
package policy

import (
	"fmt"
	"log/slog"

	"github.com/argonlab/campaign-core/internal/campaign"
	"github.com/argonlab/campaign-core/internal/surrogate"
	"github.com/argonlab/campaign-core/pkg/logger"
	"github.com/argonlab/campaign-core/pkg/utils"
)

const (
	DefaultNumRestarts = 20
	DefaultRawSamples  = 256
)

// Config parameterizes a Policy. Zero values take documented defaults;
// invalid values fail eagerly at construction.
type Config struct {
	// NMax is the total observation budget, priming included
	NMax int

	// Acquisition is the compact criterion spec, e.g. "UCB-2" or "EI"
	Acquisition string

	// Factory builds the surrogate refitted from scratch each iteration
	Factory surrogate.Factory

	// BatchSize is the number of candidates proposed per iteration
	// (default 1). The final batch is truncated to the remaining budget.
	BatchSize int

	// NumRestarts is the number of local ascent starts per candidate
	NumRestarts int

	// RawSamples is the number of uniform seeds scored to pick the starts
	RawSamples int

	// TargetColumn selects the output column being maximized
	TargetColumn int

	// SaveModel retains the fitted surrogate on each iteration record
	SaveModel bool

	// Seed drives all optimizer randomness
	Seed int64
}

// Policy proposes candidate batches by maximizing an acquisition criterion
// over a surrogate fitted to the full dataset. It implements
// campaign.Policy and never mutates the dataset it is stepped on.
type Policy struct {
	cfg    Config
	spec   AcquisitionSpec
	bounds [][2]float64
	rng    *utils.RandSource
	log    *slog.Logger
}

// New validates the configuration and binds the policy to the search
// domain. All configuration errors surface here, before any iteration.
func New(cfg Config, bounds [][2]float64) (*Policy, error) {
	if cfg.NMax < 1 {
		return nil, &ConfigurationError{Field: "n_max", Reason: fmt.Sprintf("must be >= 1, got %d", cfg.NMax)}
	}
	if cfg.Factory == nil {
		return nil, &ConfigurationError{Field: "surrogate", Reason: "factory is required"}
	}
	if len(bounds) == 0 {
		return nil, &ConfigurationError{Field: "bounds", Reason: "search domain is empty"}
	}
	for i, b := range bounds {
		if b[1] <= b[0] {
			return nil, &ConfigurationError{
				Field:  "bounds",
				Reason: fmt.Sprintf("dimension %d has empty interval [%v, %v]", i, b[0], b[1]),
			}
		}
	}
	if cfg.BatchSize < 0 {
		return nil, &ConfigurationError{Field: "batch_size", Reason: fmt.Sprintf("must be >= 1, got %d", cfg.BatchSize)}
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 1
	}
	if cfg.NumRestarts < 0 {
		return nil, &ConfigurationError{Field: "num_restarts", Reason: fmt.Sprintf("must be >= 1, got %d", cfg.NumRestarts)}
	}
	if cfg.NumRestarts == 0 {
		cfg.NumRestarts = DefaultNumRestarts
	}
	if cfg.RawSamples < 0 {
		return nil, &ConfigurationError{Field: "raw_samples", Reason: fmt.Sprintf("must be >= 1, got %d", cfg.RawSamples)}
	}
	if cfg.RawSamples == 0 {
		cfg.RawSamples = DefaultRawSamples
	}
	if cfg.RawSamples < cfg.NumRestarts {
		return nil, &ConfigurationError{
			Field:  "raw_samples",
			Reason: fmt.Sprintf("must be >= num_restarts (%d), got %d", cfg.NumRestarts, cfg.RawSamples),
		}
	}
	if cfg.TargetColumn < 0 {
		return nil, &ConfigurationError{Field: "target_column", Reason: fmt.Sprintf("must be >= 0, got %d", cfg.TargetColumn)}
	}

	spec, err := ParseAcquisition(cfg.Acquisition)
	if err != nil {
		return nil, err
	}

	return &Policy{
		cfg:    cfg,
		spec:   spec,
		bounds: utils.CopyBounds(bounds),
		rng:    utils.NewRandSource(cfg.Seed),
		log:    logger.Default,
	}, nil
}

// Spec returns the parsed acquisition spec
func (p *Policy) Spec() AcquisitionSpec {
	return p.spec
}

// Step fits a fresh surrogate to the accumulated observations and proposes
// the next candidate batch. The batch is truncated so the total observation
// count never exceeds the budget; an exhausted budget yields an empty
// proposal. Batches larger than one are selected sequentially, each later
// candidate conditioning on the posterior mean of the earlier ones.
func (p *Policy) Step(data *campaign.Dataset) (*campaign.Proposal, error) {
	n := data.N()
	if n == 0 {
		return nil, fmt.Errorf("policy step on empty dataset: prime the campaign first")
	}
	remaining := p.cfg.NMax - n
	if remaining <= 0 {
		return &campaign.Proposal{Continue: false}, nil
	}
	q := utils.Min(p.cfg.BatchSize, remaining)

	x := data.X()
	y, err := data.Column(p.cfg.TargetColumn)
	if err != nil {
		return nil, &ConfigurationError{Field: "target_column", Reason: err.Error()}
	}

	model := p.cfg.Factory(x, y)
	if err := model.Fit(); err != nil {
		return nil, err
	}
	best := y[utils.ArgMax(y)]

	candidates := make([][]float64, 0, q)
	var acqValue float64

	// Sequential batch construction: after each selected candidate the
	// surrogate is refitted with the candidate's posterior mean standing
	// in for the unmeasured response, so later candidates spread out
	// instead of collapsing onto the same maximizer.
	stepModel := model
	stepBest := best
	for len(candidates) < q {
		acq := bindCriterion(p.spec, stepBest, p.rng)
		ascend := p.spec.Criterion != CriterionTS
		point, score, err := optimizeAcquisition(stepModel, acq, p.bounds, p.cfg.RawSamples, p.cfg.NumRestarts, ascend, p.rng)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, point)
		if len(candidates) == 1 {
			acqValue = score
		}
		if len(candidates) == q {
			break
		}

		mean, _, err := stepModel.Predict([][]float64{point})
		if err != nil {
			return nil, &OptimizationError{Reason: fmt.Sprintf("fantasizing batch candidate: %v", err)}
		}
		x = append(x, point)
		y = append(y, mean[0])
		stepModel = p.cfg.Factory(x, y)
		if err := stepModel.Fit(); err != nil {
			return nil, err
		}
		stepBest = utils.Max(stepBest, mean[0])
	}

	p.log.Debug("batch proposed",
		"criterion", p.spec.String(),
		"q", len(candidates),
		"acquisition", acqValue,
		"remaining", remaining-len(candidates),
	)

	record := campaign.IterationRecord{AcquisitionValue: acqValue}
	if p.cfg.SaveModel {
		record.Model = model
	}
	return &campaign.Proposal{
		Candidates: candidates,
		Record:     record,
		Continue:   n+len(candidates) < p.cfg.NMax,
	}, nil
}
