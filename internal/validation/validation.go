package validation

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Backends lists the clipboard backends sensclip can run against
var Backends = []string{"system", "memory"}

// ValidateConfigKey rejects keys viper would store under a mangled name
func ValidateConfigKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("config key cannot be empty")
	}
	if strings.ContainsAny(key, " \t\n\r") {
		return fmt.Errorf("config key contains invalid characters")
	}
	return nil
}

// ValidateBackend checks a clipboard backend name
func ValidateBackend(name string) error {
	for _, b := range Backends {
		if name == b {
			return nil
		}
	}
	return fmt.Errorf("unknown backend %q (want one of %s)", name, strings.Join(Backends, ", "))
}

// ParseDuration reads a clear delay in seconds. Plain numbers ("30", "2.9")
// are seconds; anything else must be a Go duration ("1m30s"). Negative values
// are returned as-is, the gateway decides what they mean.
func ParseDuration(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("duration cannot be empty")
	}

	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(secs) || math.IsInf(secs, 0) {
			return 0, fmt.Errorf("duration must be a finite number, got %q", s)
		}
		return secs, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: use seconds (30) or a duration (1m30s)", s)
	}
	return d.Seconds(), nil
}
