package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseAmount coerces a decoded JSON value into an int64. Frontends send
// budgets both as numbers and as strings ("1000"), so accept both; anything
// else is a validation error for the caller to report.
func ParseAmount(v any) (int64, error) {
	switch n := v.(type) {
	case nil:
		return 0, fmt.Errorf("missing value")
	case float64:
		return int64(n), nil
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, fmt.Errorf("missing value")
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", s)
		}
		return int64(f), nil
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

// ParseCount is ParseAmount narrowed to int, for day counts and years.
func ParseCount(v any) (int, error) {
	n, err := ParseAmount(v)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
