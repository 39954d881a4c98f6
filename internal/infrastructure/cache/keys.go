package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/erp/catalogsync/internal/domain/shared"
)

const (
	// DefaultTTL is used when neither the caller nor the config sets one
	DefaultTTL = 5 * time.Minute
	// DefaultPrefix namespaces every key written by the product caches
	DefaultPrefix = "catalog"
)

// filterKey returns a stable, fixed-length key for a listing filter.
// Search text is normalized the same way the repository compares it.
func filterKey(filter shared.Filter) string {
	raw := fmt.Sprintf("%d|%d|%s|%s|%s",
		filter.Page,
		filter.PageSize,
		strings.ToLower(filter.OrderBy),
		strings.ToLower(filter.OrderDir),
		strings.ToLower(strings.TrimSpace(filter.Search)),
	)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:16])
}

func normalizePrefix(prefix string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		return DefaultPrefix
	}
	return prefix
}
