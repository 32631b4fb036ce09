package campaign

import (
	"fmt"
	"time"

	"github.com/argonlab/campaign-core/internal/design"
	"github.com/argonlab/campaign-core/internal/experiment"
	"github.com/argonlab/campaign-core/internal/surrogate"
	"github.com/argonlab/campaign-core/pkg/utils"
)

// IterationRecord is the per-iteration diagnostic entry appended alongside
// each batch of observations. Exactly one record exists per completed
// iteration, priming included; the surrogate snapshot is present only when
// the policy was configured to retain it.
type IterationRecord struct {
	// Iteration is the zero-based iteration index; 0 is the priming step
	Iteration int `json:"iteration"`

	// Priming marks the acquisition-free seeding step
	Priming bool `json:"priming"`

	// Rows is the number of observation rows appended by this iteration
	Rows int `json:"rows"`

	// AcquisitionValue is the best acquisition score at the proposed batch
	AcquisitionValue float64 `json:"acquisition_value"`

	// Duration is the wall-clock time spent in the iteration
	Duration time.Duration `json:"duration_ns"`

	// Model is the fitted surrogate snapshot, nil unless snapshotting is
	// enabled and never set on the priming record
	Model surrogate.Model `json:"-"`
}

// Dataset is the append-only, ordered observation log of a campaign: the
// single source of truth for what has been measured. Rows of X and Y are
// aligned by index in temporal acquisition order; once appended they are
// never mutated, reordered, or deleted.
type Dataset struct {
	x       [][]float64
	y       [][]float64
	records []IterationRecord
}

// NewDataset creates an empty observation log
func NewDataset() *Dataset {
	return &Dataset{}
}

// N returns the number of observations
func (d *Dataset) N() int {
	return len(d.x)
}

// Dim returns the input dimensionality, 0 when empty
func (d *Dataset) Dim() int {
	if len(d.x) == 0 {
		return 0
	}
	return len(d.x[0])
}

// Iterations returns the number of completed iterations, priming included
func (d *Dataset) Iterations() int {
	return len(d.records)
}

// X returns a copy of the observed input points
func (d *Dataset) X() [][]float64 {
	return utils.CopyMatrix(d.x)
}

// Y returns a copy of the observed responses
func (d *Dataset) Y() [][]float64 {
	return utils.CopyMatrix(d.y)
}

// Column returns a copy of one output column of Y
func (d *Dataset) Column(c int) ([]float64, error) {
	if len(d.y) == 0 {
		return nil, nil
	}
	if c < 0 || c >= len(d.y[0]) {
		return nil, fmt.Errorf("output column %d out of range [0, %d)", c, len(d.y[0]))
	}
	col := make([]float64, len(d.y))
	for i, row := range d.y {
		col[i] = row[c]
	}
	return col, nil
}

// Records returns a copy of the iteration records
func (d *Dataset) Records() []IterationRecord {
	out := make([]IterationRecord, len(d.records))
	copy(out, d.records)
	return out
}

// BestObserved returns the input and value of the best (largest) response
// in the given output column. ok is false for an empty dataset.
func (d *Dataset) BestObserved(column int) (x []float64, value float64, ok bool) {
	col, err := d.Column(column)
	if err != nil || len(col) == 0 {
		return nil, 0, false
	}
	idx := utils.ArgMax(col)
	if idx < 0 {
		return nil, 0, false
	}
	return utils.CopyVector(d.x[idx]), col[idx], true
}

// Append extends the log with new observation rows and exactly one
// iteration record, regardless of batch size. Rows keep their given order
// after all existing rows. Fails with *DataConsistencyError on empty or
// mismatched input; the log is untouched on failure.
func (d *Dataset) Append(newX, newY [][]float64, record IterationRecord) error {
	if len(newX) == 0 {
		return &DataConsistencyError{Reason: "append with zero rows"}
	}
	if len(newX) != len(newY) {
		return &DataConsistencyError{
			Reason: fmt.Sprintf("X has %d new rows but Y has %d", len(newX), len(newY)),
		}
	}

	dim := len(newX[0])
	if d.Dim() != 0 {
		dim = d.Dim()
	}
	outDim := len(newY[0])
	if len(d.y) > 0 {
		outDim = len(d.y[0])
	}
	for i := range newX {
		if len(newX[i]) != dim {
			return &DataConsistencyError{
				Reason: fmt.Sprintf("row %d has input dimension %d, want %d", i, len(newX[i]), dim),
			}
		}
		if len(newY[i]) != outDim {
			return &DataConsistencyError{
				Reason: fmt.Sprintf("row %d has output dimension %d, want %d", i, len(newY[i]), outDim),
			}
		}
	}

	record.Rows = len(newX)
	record.Iteration = len(d.records)
	d.x = append(d.x, utils.CopyMatrix(newX)...)
	d.y = append(d.y, utils.CopyMatrix(newY)...)
	d.records = append(d.records, record)
	return nil
}

// Restore rebuilds a dataset from persisted state. Row alignment is
// validated but records are trusted as stored.
func Restore(x, y [][]float64, records []IterationRecord) (*Dataset, error) {
	if len(x) != len(y) {
		return nil, &DataConsistencyError{
			Reason: fmt.Sprintf("restored X has %d rows but Y has %d", len(x), len(y)),
		}
	}
	d := NewDataset()
	d.x = utils.CopyMatrix(x)
	d.y = utils.CopyMatrix(y)
	d.records = make([]IterationRecord, len(records))
	copy(d.records, records)
	return d, nil
}

// Prime seeds an empty dataset with n points from the named initial-design
// generator over the experiment's domain, evaluated against the experiment,
// recorded under a single priming record. Fails for n < 1, an unknown
// design, an unavailable domain, or a non-empty dataset.
func (d *Dataset) Prime(exp experiment.Experiment, designName string, seed int64, n int) error {
	if d.N() > 0 {
		return &DataConsistencyError{Reason: "dataset is already primed"}
	}
	if n < 1 {
		return fmt.Errorf("priming size must be >= 1, got %d", n)
	}
	bounds := exp.Bounds()
	if len(bounds) == 0 {
		return fmt.Errorf("experiment %s has no domain", exp.Name())
	}

	gen, err := design.New(designName)
	if err != nil {
		return err
	}

	start := time.Now()
	points, err := gen.Generate(bounds, n, seed)
	if err != nil {
		return fmt.Errorf("generating initial design: %w", err)
	}
	values, err := exp.Evaluate(points)
	if err != nil {
		return fmt.Errorf("evaluating initial design: %w", err)
	}

	return d.Append(points, values, IterationRecord{
		Priming:  true,
		Duration: time.Since(start),
	})
}
