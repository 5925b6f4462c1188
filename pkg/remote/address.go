package remote

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// hostPortPattern accepts a LAN host or IP with an optional port,
// e.g. "192.168.1.25:7860" or "wan2gp.local"
var hostPortPattern = regexp.MustCompile(`^[a-zA-Z0-9.-]+(:\d{1,5})?$`)

// NormalizeBaseURL canonicalizes a user-supplied host[:port] string
// into an http base URL with a trailing slash. An http:// or https://
// prefix is stripped first; the LAN server does not speak TLS, so the
// scheme is always http. Malformed input fails with an InvalidAddress
// error before any network call is attempted.
func NormalizeBaseURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(trimmed, "http://")
	trimmed = strings.TrimPrefix(trimmed, "https://")
	trimmed = strings.TrimSuffix(trimmed, "/")

	if trimmed == "" {
		return "", invalidAddress("server address is empty")
	}
	if !hostPortPattern.MatchString(trimmed) {
		return "", invalidAddress(fmt.Sprintf("invalid host format %q, expected e.g. 192.168.1.25:7860", raw))
	}

	if _, port, ok := strings.Cut(trimmed, ":"); ok {
		value, err := strconv.Atoi(port)
		if err != nil || value < 1 || value > 65535 {
			return "", invalidAddress(fmt.Sprintf("invalid port %q, expected 1-65535", port))
		}
	}

	return "http://" + trimmed + "/", nil
}

func invalidAddress(reason string) error {
	return &Error{Kind: ErrInvalidAddress, Message: reason}
}
