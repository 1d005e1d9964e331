package ebm

import (
	"errors"
	"fmt"
)

// Sentinel errors for the three failure classes. Detection timing differs:
// configuration and data-source failures surface before the first step,
// numerical failures abort a running integration.
var (
	// ErrConfiguration indicates an invalid model setup (unknown function,
	// missing parameter, grid mismatch, wrong category counts).
	ErrConfiguration = errors.New("ebm: invalid configuration")

	// ErrNumerical indicates the evaluator produced NaN/Inf or diverged.
	ErrNumerical = errors.New("ebm: numerical failure")

	// ErrDataSource indicates a forcing data file is missing, malformed
	// or does not cover the requested time range.
	ErrDataSource = errors.New("ebm: forcing data source failure")
)

// ConfigError wraps ErrConfiguration with the offending setting.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("ebm: invalid configuration: %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrConfiguration }

// Configf builds a ConfigError for field with a formatted reason.
func Configf(field, format string, args ...any) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// NumericalError reports a mid-run failure with the step index and the
// flux term responsible.
type NumericalError struct {
	Step int
	Time float64
	Term string
}

func (e *NumericalError) Error() string {
	return fmt.Sprintf("ebm: numerical failure at step %d (t=%.6g s) in term %q", e.Step, e.Time, e.Term)
}

func (e *NumericalError) Unwrap() error { return ErrNumerical }

// DataSourceError wraps ErrDataSource with the file involved.
type DataSourceError struct {
	Path   string
	Reason string
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("ebm: forcing data source failure: %s: %s", e.Path, e.Reason)
}

func (e *DataSourceError) Unwrap() error { return ErrDataSource }
