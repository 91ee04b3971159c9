package entity

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"channel-notifier/internal/utils/text"
)

// maxURLLength defines the maximum allowed length for URLs to prevent DoS attacks.
const maxURLLength = 2048

// ValidateURL validates the format and safety of an outbound URL stored in field.
// Only http and https are accepted, a host is required and hosts resolving to
// private networks are rejected to prevent SSRF through webhook registration.
func ValidateURL(field, rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return &ValidationError{Field: field, Message: "URL is required"}
	}

	if len(rawURL) > maxURLLength {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("URL must be at most %d characters", maxURLLength),
		}
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return &ValidationError{Field: field, Message: "URL is invalid"}
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return &ValidationError{Field: field, Message: "URL must use http or https scheme"}
	}

	if parsedURL.Host == "" {
		return &ValidationError{Field: field, Message: "URL must have a valid host"}
	}

	// IP literals are checked directly, names are resolved.
	host := parsedURL.Hostname()
	if ip := net.ParseIP(host); ip != nil {
		if isPrivateIP(ip) {
			return &ValidationError{Field: field, Message: "URL cannot be a private network address"}
		}
		return nil
	}
	if strings.EqualFold(host, "localhost") {
		return &ValidationError{Field: field, Message: "URL cannot be a private network address"}
	}
	ips, err := net.LookupIP(host)
	if err == nil {
		for _, ip := range ips {
			if isPrivateIP(ip) {
				return &ValidationError{Field: field, Message: "URL cannot be a private network address"}
			}
		}
	}

	return nil
}

// ValidateLabel checks that a free-text label is present and at most max runes long.
func ValidateLabel(field, value string, max int) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Message: "is required"}
	}
	if text.CountRunes(value) > max {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be at most %d characters", max),
		}
	}
	return nil
}

// isPrivateIP reports whether ip is loopback, link-local (cloud metadata
// included) or inside an RFC 1918 / RFC 4193 range.
func isPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsUnspecified() {
		return true
	}
	return ip.IsPrivate()
}
