// Package hyperparams converts the hyperparameter strings recorded on
// historical runs into concrete pipeline configuration. The vocabulary is
// closed: every supported specification maps to an explicit constructor, and
// anything else is rejected. Recorded strings are never evaluated.
package hyperparams

import (
	"strconv"
	"strings"

	"github.com/probloan/loantrain/model"
	"github.com/probloan/loantrain/pkg/errors"
	"github.com/probloan/loantrain/preprocessing"
)

// Recorded hyperparameter names, as logged by the search runs.
const (
	KeyClassWeight  = "class_weight"
	KeyDiscretizer  = "discretizer"
	KeyWarmStart    = "warm_start"
	KeyImputer      = "imputer"
	KeySolver       = "solver"
	KeyScaler       = "scaler"
	KeyMaxIter      = "max_iter"
	KeyFitIntercept = "fit_intercept"
	KeyTol          = "tol"
	KeyMultiClass   = "multi_class"
	KeyC            = "C"
)

// call is a parsed "Name(key=value, ...)" specification.
type call struct {
	name string
	args map[string]string
}

// parseCall splits a constructor-style spec into its name and keyword
// arguments. Nested parentheses are kept inside the argument value.
func parseCall(spec string) (call, bool) {
	spec = strings.TrimSpace(spec)
	open := strings.IndexByte(spec, '(')
	if open <= 0 || !strings.HasSuffix(spec, ")") {
		return call{}, false
	}

	c := call{name: spec[:open], args: map[string]string{}}
	body := spec[open+1 : len(spec)-1]
	if strings.TrimSpace(body) == "" {
		return c, true
	}

	depth := 0
	start := 0
	var parts []string
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, body[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, body[start:])

	for _, part := range parts {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return call{}, false
		}
		c.args[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
	}
	return c, true
}

// unquote strips one level of single or double quotes.
func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// ParseImputer maps a recorded imputer specification to its constructor.
// Supported: MeanMedianImputer(imputation_method='mean'|'median').
func ParseImputer(spec string) (*preprocessing.MeanMedianImputer, error) {
	c, ok := parseCall(spec)
	if !ok || c.name != "MeanMedianImputer" {
		return nil, errors.NewSpecRejectionError(KeyImputer, spec)
	}

	method := preprocessing.ImputeMedian
	for key, value := range c.args {
		switch key {
		case "imputation_method":
			method = unquote(value)
		case "variables":
			// Recorded column lists are ignored: every numeric column is imputed.
		default:
			return nil, errors.NewSpecRejectionError(KeyImputer, spec)
		}
	}
	if method != preprocessing.ImputeMean && method != preprocessing.ImputeMedian {
		return nil, errors.NewSpecRejectionError(KeyImputer, spec)
	}
	return preprocessing.NewMeanMedianImputer(method), nil
}

// ParseDiscretiser maps a recorded discretiser specification to its
// constructor. Supported: EqualFrequencyDiscretiser(q=<int>).
func ParseDiscretiser(spec string) (*preprocessing.EqualFrequencyDiscretiser, error) {
	c, ok := parseCall(spec)
	if !ok || c.name != "EqualFrequencyDiscretiser" {
		return nil, errors.NewSpecRejectionError(KeyDiscretizer, spec)
	}

	q := 10
	for key, value := range c.args {
		switch key {
		case "q":
			parsed, err := strconv.Atoi(value)
			if err != nil {
				return nil, errors.NewSpecRejectionError(KeyDiscretizer, spec)
			}
			q = parsed
		case "variables":
			// Ignored, as for the imputer.
		default:
			return nil, errors.NewSpecRejectionError(KeyDiscretizer, spec)
		}
	}
	if q < 2 {
		return nil, errors.NewSpecRejectionError(KeyDiscretizer, spec)
	}
	return preprocessing.NewEqualFrequencyDiscretiser(q), nil
}

// ParseScaler maps a recorded scaler specification to its constructor.
// Supported: StandardScaler(), MinMaxScaler(), and the recorded wrapper form
// SklearnTransformerWrapper(transformer=StandardScaler()|MinMaxScaler()).
func ParseScaler(spec string) (model.Transformer, error) {
	c, ok := parseCall(spec)
	if !ok {
		return nil, errors.NewSpecRejectionError(KeyScaler, spec)
	}

	switch c.name {
	case "StandardScaler":
		if len(c.args) != 0 {
			return nil, errors.NewSpecRejectionError(KeyScaler, spec)
		}
		return preprocessing.NewStandardScalerDefault(), nil
	case "MinMaxScaler":
		if len(c.args) != 0 {
			return nil, errors.NewSpecRejectionError(KeyScaler, spec)
		}
		return preprocessing.NewMinMaxScalerDefault(), nil
	case "SklearnTransformerWrapper":
		inner, found := c.args["transformer"]
		if !found || len(c.args) != 1 {
			return nil, errors.NewSpecRejectionError(KeyScaler, spec)
		}
		return ParseScaler(inner)
	default:
		return nil, errors.NewSpecRejectionError(KeyScaler, spec)
	}
}

// ParseBool parses a recorded boolean flag ("True"/"False", either casing).
func ParseBool(name, value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, errors.NewSpecRejectionError(name, value)
	}
}

// ParseInt parses a recorded integer value.
func ParseInt(name, value string) (int, error) {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, errors.NewSpecRejectionError(name, value)
	}
	return parsed, nil
}

// ParseFloat parses a recorded float value.
func ParseFloat(name, value string) (float64, error) {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, errors.NewSpecRejectionError(name, value)
	}
	return parsed, nil
}

// ParseClassWeight validates the recorded class-weight strategy.
// "None" (the recorded absent value) normalises to "none".
func ParseClassWeight(value string) (string, error) {
	switch strings.TrimSpace(value) {
	case "balanced":
		return "balanced", nil
	case "None", "none":
		return "none", nil
	default:
		return "", errors.NewSpecRejectionError(KeyClassWeight, value)
	}
}

// ParseSolver validates the recorded solver name.
func ParseSolver(value string) (string, error) {
	switch v := strings.TrimSpace(value); v {
	case "lbfgs", "liblinear", "newton-cg", "sag", "saga":
		return v, nil
	default:
		return "", errors.NewSpecRejectionError(KeySolver, value)
	}
}

// ParseMultiClass validates the recorded multi-class strategy. Only "auto"
// and "ovr" are in the supported vocabulary.
func ParseMultiClass(value string) (string, error) {
	switch v := strings.TrimSpace(value); v {
	case "auto", "ovr":
		return v, nil
	default:
		return "", errors.NewSpecRejectionError(KeyMultiClass, value)
	}
}
