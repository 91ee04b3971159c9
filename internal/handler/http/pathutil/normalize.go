package pathutil

import (
	"regexp"
	"strings"
)

// PathPattern represents a regex pattern and its corresponding normalized template.
type PathPattern struct {
	Pattern  *regexp.Regexp
	Template string
}

// pathPatterns defines the list of patterns for dynamic routes.
// Patterns are evaluated in order from most specific to least specific.
// Pre-compiled at initialization for optimal performance (<1μs per operation).
var pathPatterns = []*PathPattern{
	// Destination routes with IDs
	{Pattern: regexp.MustCompile(`^/api/v1/webhooks/\d+$`), Template: "/api/v1/webhooks/:id"},

	// Channel routes with IDs
	{Pattern: regexp.MustCompile(`^/api/v1/channels/\d+$`), Template: "/api/v1/channels/:id"},
}

// NormalizePath normalizes dynamic URL paths to prevent metrics label cardinality explosion.
// It converts paths with IDs (e.g., /api/v1/channels/123) to template format
// (e.g., /api/v1/channels/:id). Static paths remain unchanged.
//
// Examples:
//
//	NormalizePath("/api/v1/channels/123")   // "/api/v1/channels/:id"
//	NormalizePath("/api/v1/webhooks/7")     // "/api/v1/webhooks/:id"
//	NormalizePath("/api/v1/channels")       // "/api/v1/channels" (unchanged)
//	NormalizePath("/status")                // "/status" (unchanged)
//	NormalizePath("/unknown/path/123")      // "/unknown/path/123" (no match, return original)
//
// Query parameters and trailing slashes are handled:
//
//	NormalizePath("/api/v1/channels?destination_id=1")  // "/api/v1/channels"
//	NormalizePath("/api/v1/channels/123/")              // "/api/v1/channels/:id"
func NormalizePath(path string) string {
	// Strip query parameters if present
	if idx := strings.IndexByte(path, '?'); idx != -1 {
		path = path[:idx]
	}

	// Strip trailing slash if present (except for root path)
	if len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}

	// Try to match against known patterns
	for _, p := range pathPatterns {
		if p.Pattern.MatchString(path) {
			return p.Template
		}
	}

	// No match found, return original path
	return path
}

// GetExpectedCardinality returns the expected number of unique path labels
// after normalization: one per template plus the static endpoints
// (webhooks, channels, system status, background control, health, metrics).
func GetExpectedCardinality() int {
	templateCount := len(pathPatterns)
	staticCount := 10
	return templateCount + staticCount
}
