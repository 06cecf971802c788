package workload

import (
	"fmt"
	"math"
	"math/rand"
)

// SizeSampler generates tensor byte sizes.
type SizeSampler interface {
	// Sample returns a positive size in bytes (>= 1).
	Sample(rng *rand.Rand) int64
}

// UniformSampler draws sizes uniformly from [min, max], both inclusive.
// This is the default when a synthesis config names no distribution.
type UniformSampler struct {
	min, max int64
}

func (s *UniformSampler) Sample(rng *rand.Rand) int64 {
	return s.min + rng.Int63n(s.max-s.min+1)
}

// GaussianSampler produces clamped Gaussian byte sizes.
type GaussianSampler struct {
	mean, stdDev float64
	min, max     int64
}

func (s *GaussianSampler) Sample(rng *rand.Rand) int64 {
	if s.min == s.max {
		return s.min
	}
	val := rng.NormFloat64()*s.stdDev + s.mean
	clamped := math.Min(float64(s.max), math.Max(float64(s.min), val))
	result := int64(math.Round(clamped))
	if result < 1 {
		return 1
	}
	return result
}

// ExponentialSampler produces exponentially-distributed byte sizes.
type ExponentialSampler struct {
	mean float64
}

func (s *ExponentialSampler) Sample(rng *rand.Rand) int64 {
	val := rng.ExpFloat64() * s.mean
	result := int64(math.Round(val))
	if result < 1 {
		return 1
	}
	return result
}

// ParetoLogNormalSampler is a mixture of Pareto and LogNormal distributions.
// With probability mixWeight, draw from Pareto(alpha, xm); otherwise
// LogNormal(mu, sigma). Tensor size populations tend to look like this: a
// lognormal body of activations with a Pareto tail of large weight tensors.
type ParetoLogNormalSampler struct {
	alpha     float64 // Pareto shape
	xm        float64 // Pareto scale (minimum)
	mu        float64 // LogNormal mean of ln(X)
	sigma     float64 // LogNormal std dev of ln(X)
	mixWeight float64 // Probability of drawing from Pareto
}

func (s *ParetoLogNormalSampler) Sample(rng *rand.Rand) int64 {
	var val float64
	if rng.Float64() < s.mixWeight {
		// Pareto: X = xm / U^(1/alpha)
		u := rng.Float64()
		if u == 0 {
			u = math.SmallestNonzeroFloat64 // prevent division by zero → +Inf
		}
		val = s.xm / math.Pow(u, 1.0/s.alpha)
	} else {
		// LogNormal: X = exp(mu + sigma * Z)
		z := rng.NormFloat64()
		val = math.Exp(s.mu + s.sigma*z)
	}
	// Guard against +Inf from extreme u or sigma values
	if math.IsInf(val, 0) || math.IsNaN(val) {
		return 1
	}
	result := int64(math.Round(val))
	if result < 1 {
		return 1
	}
	return result
}

// ConstantSampler always returns the same fixed size.
// Used for layouts where every tensor occupies one fixed-width slot (zero variance).
type ConstantSampler struct {
	value int64
}

func (s *ConstantSampler) Sample(_ *rand.Rand) int64 {
	if s.value < 1 {
		return 1
	}
	return s.value
}

// SizeDistSpec names a tensor-size distribution and its parameters.
type SizeDistSpec struct {
	Type   string             `yaml:"type" json:"type"`
	Params map[string]float64 `yaml:"params,omitempty" json:"params,omitempty"`
}

// requireParam checks that all required keys exist in a params map.
func requireParam(params map[string]float64, keys ...string) error {
	for _, k := range keys {
		if _, ok := params[k]; !ok {
			return fmt.Errorf("distribution requires parameter %q", k)
		}
	}
	return nil
}

// NewSizeSampler creates a SizeSampler from a SizeDistSpec.
func NewSizeSampler(spec SizeDistSpec) (SizeSampler, error) {
	switch spec.Type {
	case "uniform":
		if err := requireParam(spec.Params, "min", "max"); err != nil {
			return nil, err
		}
		min, max := int64(spec.Params["min"]), int64(spec.Params["max"])
		if min < 1 || max < min {
			return nil, fmt.Errorf("uniform distribution needs 1 <= min <= max, got [%d, %d]", min, max)
		}
		return &UniformSampler{min: min, max: max}, nil

	case "gaussian":
		if err := requireParam(spec.Params, "mean", "std_dev", "min", "max"); err != nil {
			return nil, err
		}
		return &GaussianSampler{
			mean:   spec.Params["mean"],
			stdDev: spec.Params["std_dev"],
			min:    int64(spec.Params["min"]),
			max:    int64(spec.Params["max"]),
		}, nil

	case "exponential":
		if err := requireParam(spec.Params, "mean"); err != nil {
			return nil, err
		}
		if spec.Params["mean"] <= 0 {
			return nil, fmt.Errorf("exponential distribution needs mean > 0, got %v", spec.Params["mean"])
		}
		return &ExponentialSampler{
			mean: spec.Params["mean"],
		}, nil

	case "pareto_lognormal":
		if err := requireParam(spec.Params, "alpha", "xm", "mu", "sigma", "mix_weight"); err != nil {
			return nil, err
		}
		return &ParetoLogNormalSampler{
			alpha:     spec.Params["alpha"],
			xm:        spec.Params["xm"],
			mu:        spec.Params["mu"],
			sigma:     spec.Params["sigma"],
			mixWeight: spec.Params["mix_weight"],
		}, nil

	case "constant":
		if err := requireParam(spec.Params, "value"); err != nil {
			return nil, err
		}
		return &ConstantSampler{value: int64(spec.Params["value"])}, nil

	default:
		return nil, fmt.Errorf("unknown size distribution %q", spec.Type)
	}
}
