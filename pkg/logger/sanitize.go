package logger

import (
	"log/slog"
	"net/url"
	"strings"
)

// SanitizedEmail masks an email address for logging (e.g., "u***@e******.com")
func SanitizedEmail(email string) string {
	username, domain, ok := strings.Cut(email, "@")
	if !ok || strings.Contains(domain, "@") {
		return "[invalid-email]"
	}

	if len(username) > 1 {
		username = username[:1] + strings.Repeat("*", len(username)-1)
	}

	// Keep the TLD only
	labels := strings.Split(domain, ".")
	if len(labels) > 1 {
		for i := 0; i < len(labels)-1; i++ {
			labels[i] = strings.Repeat("*", len(labels[i]))
		}
		domain = strings.Join(labels, ".")
	}

	return username + "@" + domain
}

// RedactedAttr returns "[REDACTED]" in production and the value elsewhere
func RedactedAttr(key, value, env string) slog.Attr {
	if env == "production" {
		return slog.String(key, "[REDACTED]")
	}
	return slog.String(key, value)
}

var sensitiveParams = []string{"password", "token", "secret", "email", "auth", "search"}

// SanitizeQueryString reports whether the query string names a sensitive
// parameter and should be dropped from request logs
func SanitizeQueryString(rawQuery string) bool {
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return rawQuery != ""
	}
	for key := range values {
		key = strings.ToLower(key)
		for _, p := range sensitiveParams {
			if strings.Contains(key, p) {
				return true
			}
		}
	}
	return false
}
