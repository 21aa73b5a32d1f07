/*
Package lmerr holds the error kinds shared by the language model packages.

Configuration and I/O failures, numeric blow-ups and empty evaluation sets
each get their own type so callers can tell them apart with errors.As.
Early stopping is not an error and has no type here.
*/
package lmerr

import (
	stderrors "errors"
	"fmt"
	"math"

	"github.com/getlantern/errors"
)

/*
ConfigurationError reports a missing or unreadable input, or an invalid option.
It is always fatal and is returned before any training iteration runs.
*/
type ConfigurationError struct {
	Op  string
	Err error
}

func (e *ConfigurationError) Error() string {
	if e.Err == nil {
		return "configuration: " + e.Op
	}
	return fmt.Sprintf("configuration: %s: %v", e.Op, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

/*
Configuration wraps err as a ConfigurationError for op.
*/
func Configuration(op string, err error) *ConfigurationError {
	return &ConfigurationError{Op: op, Err: errors.Wrap(err)}
}

/*
Configurationf builds a ConfigurationError from a message.
*/
func Configurationf(op string, format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Op: op, Err: errors.New(format, args...)}
}

/*
NumericInstabilityError reports a NaN or infinite loss or perplexity.
*/
type NumericInstabilityError struct {
	Where string
	Value float64
}

func (e *NumericInstabilityError) Error() string {
	return fmt.Sprintf("numeric instability in %s: value %v", e.Where, e.Value)
}

/*
EmptyBatchError reports an evaluation set with no non-pad tokens.
*/
type EmptyBatchError struct {
	What string
}

func (e *EmptyBatchError) Error() string {
	return "no tokens to score in " + e.What
}

/*
IndexError reports an id outside of [0, Size).
*/
type IndexError struct {
	Index int
	Size  int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("index %d out of range [0, %d)", e.Index, e.Size)
}

/*
CheckFinite returns a NumericInstabilityError when v is NaN or infinite.
*/
func CheckFinite(where string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &NumericInstabilityError{Where: where, Value: v}
	}
	return nil
}

func IsConfiguration(err error) bool {
	var target *ConfigurationError
	return stderrors.As(err, &target)
}

func IsNumericInstability(err error) bool {
	var target *NumericInstabilityError
	return stderrors.As(err, &target)
}

func IsEmptyBatch(err error) bool {
	var target *EmptyBatchError
	return stderrors.As(err, &target)
}

func IsIndex(err error) bool {
	var target *IndexError
	return stderrors.As(err, &target)
}
