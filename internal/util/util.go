// Package util provides helpers for cleaning up and reading planner command arguments.
package util

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrMissingArg is returned when a required argument is absent or blank.
	ErrMissingArg = errors.New("missing argument")
	// ErrInvalidArg is returned when an argument cannot be parsed.
	ErrInvalidArg = errors.New("invalid argument")
)

// TrimQuotes removes leading and trailing double quotes from a string.
func TrimQuotes(s string) string {
	return strings.Trim(s, `"`)
}

// FixEscapeQuotes replaces escaped double quotes ("") with single double quotes (").
func FixEscapeQuotes(s string) string {
	return strings.ReplaceAll(s, `""`, `"`)
}

// CleanArg trims whitespace and surrounding quotes and unescapes doubled quotes.
func CleanArg(s string) string {
	return FixEscapeQuotes(TrimQuotes(strings.TrimSpace(s)))
}

// CleanArgs returns a cleaned copy of args.
func CleanArgs(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = CleanArg(a)
	}
	return out
}

// Arg returns args[i], or "" when i is out of range.
func Arg(args []string, i int) string {
	if i < 0 || i >= len(args) {
		return ""
	}
	return args[i]
}

// StringArg returns the required, non-blank argument i.
func StringArg(args []string, i int, name string) (string, error) {
	s := strings.TrimSpace(Arg(args, i))
	if s == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingArg, name)
	}
	return s, nil
}

// FloatArg parses the required argument i as a finite number.
func FloatArg(args []string, i int, name string) (float64, error) {
	s, err := StringArg(args, i, name)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %s %q is not a number", ErrInvalidArg, name, s)
	}
	return f, nil
}

// OptionalFloatArg parses argument i when present; a missing or blank
// argument yields nil.
func OptionalFloatArg(args []string, i int, name string) (*float64, error) {
	if strings.TrimSpace(Arg(args, i)) == "" {
		return nil, nil
	}
	f, err := FloatArg(args, i, name)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// IntArg parses the required argument i as an integer.
func IntArg(args []string, i int, name string) (int, error) {
	s, err := StringArg(args, i, name)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not an integer", ErrInvalidArg, name, s)
	}
	return n, nil
}
