package redact

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

const redactedSecret = "[REDACTED_SECRET]"

// sensitiveKeys name metadata fields whose values are replaced by a
// fingerprint. Matching ignores case.
var sensitiveKeys = map[string]struct{}{
	"keyword":    {},
	"key":        {},
	"secret":     {},
	"jwt_secret": {},
	"token":      {},
	"password":   {},
}

var (
	kvSecretRe = regexp.MustCompile(`(?i)((?:keyword|secret|token|password|key)\s*[:=]\s*)(['"]?)([^\s'"]+)(['"]?)`)
	bearerRe   = regexp.MustCompile(`(?i)\b(bearer)\s+([A-Za-z0-9._\-]{10,})`)
)

// Fingerprint returns a short, stable identifier for a secret so log lines
// can be correlated without revealing it.
func Fingerprint(secret string) string {
	if secret == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(secret))
	return "sha256:" + hex.EncodeToString(sum[:])[:12]
}

// String masks key=value secrets and bearer tokens inside free text.
func String(in string) string {
	if strings.TrimSpace(in) == "" {
		return in
	}
	masked := kvSecretRe.ReplaceAllString(in, `$1$2`+redactedSecret+`$4`)
	masked = bearerRe.ReplaceAllString(masked, `$1 `+redactedSecret)
	return masked
}

// IsSensitive reports whether values stored under key must not be logged.
func IsSensitive(key string) bool {
	_, ok := sensitiveKeys[strings.ToLower(strings.TrimSpace(key))]
	return ok
}

// Map returns a copy of in with sensitive values fingerprinted and strings
// scrubbed. Nested maps are handled recursively.
func Map(in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		if IsSensitive(k) {
			if v == nil {
				out[k] = nil
				continue
			}
			out[k] = Fingerprint(fmt.Sprint(v))
			continue
		}
		out[k] = value(v)
	}
	return out
}

func value(v any) any {
	switch t := v.(type) {
	case string:
		return String(t)
	case map[string]any:
		return Map(t)
	case []string:
		out := make([]string, len(t))
		for i, s := range t {
			out[i] = String(s)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, elem := range t {
			out[i] = value(elem)
		}
		return out
	default:
		return v
	}
}
