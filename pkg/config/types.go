package config

// Config represents one campaign run request: the experiment to measure,
// the initial design, and the acquisition policy that drives the loop.
type Config struct {
	Name       string           `yaml:"name,omitempty"`
	LogLevel   string           `yaml:"log_level,omitempty"`
	Experiment ExperimentConfig `yaml:"experiment"`
	Design     DesignConfig     `yaml:"design"`
	Policy     PolicyConfig     `yaml:"policy"`
	Storage    *StorageConfig   `yaml:"storage,omitempty"`
}

// ExperimentConfig selects the ground-truth experiment and its optional
// observation noise
type ExperimentConfig struct {
	Name string `yaml:"name"`

	// NoiseStd is the per-output Gaussian noise standard deviation; a
	// single value broadcasts to all outputs, empty means noiseless
	NoiseStd []float64 `yaml:"noise_std,omitempty"`

	// NoiseSeed drives the noise draws, independent of design and policy
	NoiseSeed int64 `yaml:"noise_seed,omitempty"`
}

// DesignConfig selects the initial design used to prime the campaign
type DesignConfig struct {
	Name string `yaml:"name"`
	N    int    `yaml:"n"`
	Seed int64  `yaml:"seed,omitempty"`
}

// PolicyConfig parameterizes the acquisition policy
type PolicyConfig struct {
	NMax         int    `yaml:"n_max"`
	Acquisition  string `yaml:"acquisition"`
	BatchSize    int    `yaml:"batch_size,omitempty"`
	NumRestarts  int    `yaml:"num_restarts,omitempty"`
	RawSamples   int    `yaml:"raw_samples,omitempty"`
	TargetColumn int    `yaml:"target_column,omitempty"`
	SaveModel    bool   `yaml:"save_model,omitempty"`
	Seed         int64  `yaml:"seed,omitempty"`
}

// StorageConfig selects where campaign results are persisted
type StorageConfig struct {
	Path string `yaml:"path"`
}
