package richtext

import (
	"net/url"
	"strings"
)

// SafeURL returns raw if it is a relative path, a fragment, or an absolute
// URL with an http, https, mailto or tel scheme. Anything else yields "".
// The result is not escaped; html.Render escapes attribute values.
func SafeURL(raw string) string {
	val := strings.TrimSpace(raw)
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "//") {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") {
		return val
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto", "tel":
		return val
	default:
		return ""
	}
}
