package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// LoadResult is the outcome of loading one environment variable.
//
// Loaders never fail: a value that does not parse or validate is replaced by
// the default and described in Warning.
type LoadResult[T any] struct {
	Value           T
	Warning         string
	FallbackApplied bool
}

// load reads envKey, parses it and validates it. Unset or empty variables
// yield the default without a warning.
func load[T any](envKey string, def T, parse func(string) (T, error), validate func(T) error) LoadResult[T] {
	raw := os.Getenv(envKey)
	if raw == "" {
		return LoadResult[T]{Value: def}
	}

	v, err := parse(raw)
	if err == nil && validate != nil {
		err = validate(v)
	}
	if err != nil {
		return LoadResult[T]{
			Value:           def,
			Warning:         fmt.Sprintf("Invalid %s='%s': %v, falling back to default '%v'", envKey, raw, err, def),
			FallbackApplied: true,
		}
	}
	return LoadResult[T]{Value: v}
}

// LoadEnvString returns the variable or def when unset. No validation.
func LoadEnvString(envKey, def string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return def
}

// LoadEnvWithFallback loads a string and validates it.
//
//	r := LoadEnvWithFallback("QUOTA_RESET_SCHEDULE", "", ValidateCronSchedule)
func LoadEnvWithFallback(envKey, def string, validator func(string) error) LoadResult[string] {
	return load(envKey, def, func(s string) (string, error) { return s, nil }, validator)
}

// LoadEnvDuration loads a Go duration string such as "30s" or "1h30m".
func LoadEnvDuration(envKey string, def time.Duration, validator func(time.Duration) error) LoadResult[time.Duration] {
	return load(envKey, def, time.ParseDuration, validator)
}

// LoadEnvSeconds loads an integer number of seconds as a duration.
func LoadEnvSeconds(envKey string, def time.Duration, validator func(time.Duration) error) LoadResult[time.Duration] {
	return load(envKey, def, func(s string) (time.Duration, error) {
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("invalid integer format")
		}
		return time.Duration(n) * time.Second, nil
	}, validator)
}

// LoadEnvInt loads a base-10 integer.
func LoadEnvInt(envKey string, def int, validator func(int) error) LoadResult[int] {
	return load(envKey, def, func(s string) (int, error) {
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("invalid integer format")
		}
		return n, nil
	}, validator)
}

// LoadEnvFloat loads a floating point number.
func LoadEnvFloat(envKey string, def float64, validator func(float64) error) LoadResult[float64] {
	return load(envKey, def, func(s string) (float64, error) {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number format")
		}
		return f, nil
	}, validator)
}

// LoadEnvBool accepts the same spellings as strconv.ParseBool.
func LoadEnvBool(envKey string, def bool) LoadResult[bool] {
	return load(envKey, def, func(s string) (bool, error) {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return false, fmt.Errorf("invalid boolean format, expected 'true' or 'false'")
		}
		return b, nil
	}, nil)
}
