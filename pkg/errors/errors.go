// Package errors provides the typed error set used across the training
// workflow, built on cockroachdb/errors so every error carries a stack trace
// and can be matched with Is/As. Error types that reach the structured logs
// implement zerolog's object marshaller.
package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ConfigurationError reports a lookup against the project configuration that
// cannot be satisfied, such as an unknown dataset logical name.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("loantrain: configuration: %q: %s", e.Key, e.Reason)
}

// MarshalZerologObject adds the structured configuration failure to a log event.
func (e *ConfigurationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("key", e.Key).
		Str("reason", e.Reason).
		Str("type", "ConfigurationError")
}

// NewConfigurationError creates a ConfigurationError with a stack trace.
func NewConfigurationError(key, reason string) error {
	err := &ConfigurationError{Key: key, Reason: reason}
	return errors.WithStack(err)
}

// DataAccessError reports a failure reading or projecting a source dataset:
// missing file, malformed CSV, or a requested column absent from the file.
type DataAccessError struct {
	Path   string
	Column string
	Err    error
}

func (e *DataAccessError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("loantrain: data access: %s: column %q not present", e.Path, e.Column)
	}
	return fmt.Sprintf("loantrain: data access: %s: %v", e.Path, e.Err)
}

func (e *DataAccessError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject adds the structured data-access failure to a log event.
func (e *DataAccessError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("path", e.Path).
		Str("column", e.Column).
		Str("type", "DataAccessError")
	if e.Err != nil {
		event.AnErr("cause", e.Err)
	}
}

// NewDataAccessError creates a DataAccessError with a stack trace.
func NewDataAccessError(path string, err error) error {
	dataErr := &DataAccessError{Path: path, Err: err}
	return errors.WithStack(dataErr)
}

// NewMissingColumnError creates a DataAccessError for a column that the
// configuration requests but the source file does not carry.
func NewMissingColumnError(path, column string) error {
	dataErr := &DataAccessError{Path: path, Column: column}
	return errors.WithStack(dataErr)
}

// NoEligibleRunError reports that no historical run satisfies the best-run
// metric filter, so there are no hyperparameters to train from.
type NoEligibleRunError struct {
	Filter string
}

func (e *NoEligibleRunError) Error() string {
	return fmt.Sprintf("loantrain: no historical run matches %q", e.Filter)
}

// MarshalZerologObject adds the structured selection failure to a log event.
func (e *NoEligibleRunError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("filter", e.Filter).
		Str("type", "NoEligibleRunError")
}

// NewNoEligibleRunError creates a NoEligibleRunError with a stack trace.
func NewNoEligibleRunError(filter string) error {
	err := &NoEligibleRunError{Filter: filter}
	return errors.WithStack(err)
}

// SpecRejectionError reports a recorded hyperparameter string that is outside
// the closed vocabulary of supported specifications. Stored strings are never
// evaluated; anything unrecognised is rejected with this error.
type SpecRejectionError struct {
	Param string
	Spec  string
}

func (e *SpecRejectionError) Error() string {
	return fmt.Sprintf("loantrain: unsupported %s specification %q", e.Param, e.Spec)
}

// MarshalZerologObject adds the structured rejection to a log event.
func (e *SpecRejectionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param", e.Param).
		Str("spec", e.Spec).
		Str("type", "SpecRejectionError")
}

// NewSpecRejectionError creates a SpecRejectionError with a stack trace.
func NewSpecRejectionError(param, spec string) error {
	err := &SpecRejectionError{Param: param, Spec: spec}
	return errors.WithStack(err)
}

// NotFittedError reports Predict or Transform called on an estimator before Fit.
type NotFittedError struct {
	EstimatorName string
	Method        string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("loantrain: %s: not fitted yet. Call Fit() before %s()", e.EstimatorName, e.Method)
}

// NewNotFittedError creates a NotFittedError with a stack trace.
func NewNotFittedError(estimator, method string) error {
	err := &NotFittedError{EstimatorName: estimator, Method: method}
	return errors.WithStack(err)
}

// DimensionError reports input whose shape disagrees with what an estimator
// learned during Fit.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 rows, 1 columns
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("loantrain: %s: dimension mismatch on axis %d (%s). Expected %d, got %d",
		e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// NewDimensionError creates a DimensionError with a stack trace.
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// ValueError reports an argument whose value is out of range or otherwise
// unusable for the operation.
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("loantrain: %s: %s", e.Op, e.Message)
}

// NewValueError creates a ValueError with a stack trace.
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	cockroachdb/errors wrappers
//
// ===========================================================================

// Is reports whether err matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain matching target's type.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates a new error with a stack trace.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a new formatted error with a stack trace.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack annotates err with a stack trace.
func WithStack(err error) error {
	return errors.WithStack(err)
}

var (
	// ErrEmptyData is returned when an estimator receives no rows or columns.
	ErrEmptyData = New("empty data")
)
