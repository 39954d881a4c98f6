package erp

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/erp/catalogsync/internal/domain/integration"
)

// Connection configs arrive as decoded JSON, so numbers may be float64,
// json.Number or strings depending on the client.

func configString(config map[string]any, key string) string {
	v, ok := config[key]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case fmt.Stringer:
		return strings.TrimSpace(s.String())
	default:
		return strings.TrimSpace(fmt.Sprint(s))
	}
}

// configInt returns the integer at key, def when absent, and ErrInvalidConfig when not integral
func configInt(config map[string]any, key string, def int) (int, error) {
	v, ok := config[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, invalidConfig(key, "must be a whole number")
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, invalidConfig(key, "must be a whole number")
		}
		return int(i), nil
	case string:
		if strings.TrimSpace(n) == "" {
			return def, nil
		}
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, invalidConfig(key, "must be a whole number")
		}
		return i, nil
	}
	return 0, invalidConfig(key, "must be a whole number")
}

func invalidConfig(key, reason string) error {
	return fmt.Errorf("%w: %s %s", integration.ErrInvalidConfig, key, reason)
}
