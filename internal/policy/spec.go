package policy

import (
	"fmt"
	"strconv"
	"strings"
)

// Criterion identifies an acquisition criterion
type Criterion string

const (
	// CriterionUCB is the upper confidence bound: mean + beta * stddev
	CriterionUCB Criterion = "UCB"
	// CriterionEI is the expected improvement over the best observation
	CriterionEI Criterion = "EI"
	// CriterionPI is the probability of improvement over the best observation
	CriterionPI Criterion = "PI"
	// CriterionTS is Thompson sampling from the posterior
	CriterionTS Criterion = "TS"
)

// Default exploration parameters per criterion. UCB's parameter is beta,
// the exploration weight on the posterior standard deviation; EI and PI use
// xi, the minimum improvement margin; TS has no parameter.
const (
	DefaultBeta = 2.0
	DefaultXi   = 0.01
)

// AcquisitionSpec is the parsed form of a compact acquisition string such
// as "UCB-50" or "EI". It is parsed once, eagerly, at policy construction.
type AcquisitionSpec struct {
	Criterion Criterion
	Parameter float64
}

// ConfigurationError indicates invalid policy configuration. It always
// surfaces at construction time, before any iteration runs.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid policy configuration: %s: %s", e.Field, e.Reason)
}

// ParseAcquisition parses "<CRITERION>" or "<CRITERION>-<PARAM>" into an
// AcquisitionSpec. An omitted parameter takes the criterion's documented
// default. Unknown criteria and malformed parameters fail with
// *ConfigurationError.
func ParseAcquisition(spec string) (AcquisitionSpec, error) {
	name, paramText, hasParam := strings.Cut(strings.TrimSpace(spec), "-")

	var parsed AcquisitionSpec
	switch Criterion(name) {
	case CriterionUCB:
		parsed = AcquisitionSpec{Criterion: CriterionUCB, Parameter: DefaultBeta}
	case CriterionEI:
		parsed = AcquisitionSpec{Criterion: CriterionEI, Parameter: DefaultXi}
	case CriterionPI:
		parsed = AcquisitionSpec{Criterion: CriterionPI, Parameter: DefaultXi}
	case CriterionTS:
		parsed = AcquisitionSpec{Criterion: CriterionTS}
	default:
		return AcquisitionSpec{}, &ConfigurationError{
			Field:  "acquisition",
			Reason: fmt.Sprintf("unknown criterion %q", name),
		}
	}

	if hasParam {
		value, err := strconv.ParseFloat(paramText, 64)
		if err != nil {
			return AcquisitionSpec{}, &ConfigurationError{
				Field:  "acquisition",
				Reason: fmt.Sprintf("malformed parameter %q", paramText),
			}
		}
		if value < 0 {
			return AcquisitionSpec{}, &ConfigurationError{
				Field:  "acquisition",
				Reason: fmt.Sprintf("parameter must be >= 0, got %v", value),
			}
		}
		parsed.Parameter = value
	}

	return parsed, nil
}

// String renders the spec back to its compact form
func (s AcquisitionSpec) String() string {
	if s.Criterion == CriterionTS {
		return string(s.Criterion)
	}
	return fmt.Sprintf("%s-%g", s.Criterion, s.Parameter)
}
