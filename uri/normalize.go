// Package uri turns hyperlink targets found in markup into absolute URIs.
package uri

import (
	"net/url"
	"strings"
)

// schemes which do not use authority part but are still absolute targets
var opaqueSchemes = map[string]bool{
	"mailto": true,
	"tel":    true,
	"news":   true,
	"urn":    true,
}

// Normalize returns absolute form of raw. Local and UNC paths become file
// URIs, spaces are percent encoded. Relative references and free text are
// reported as not ok.
func Normalize(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if len(s) == 0 {
		return "", false
	}

	switch {
	case strings.HasPrefix(s, `\\`):
		s = "file://" + strings.ReplaceAll(s[2:], `\`, "/")
	case isDrivePath(s):
		s = "file:///" + strings.ReplaceAll(s, `\`, "/")
	case len(s) > 7 && strings.EqualFold(s[:7], "file://"):
		rest := strings.ReplaceAll(s[7:], `\`, "/")
		if isDrivePath(rest) {
			rest = "/" + rest
		}
		s = "file://" + rest
	}

	u, err := url.Parse(s)
	if err != nil || len(u.Scheme) == 0 {
		return "", false
	}
	switch {
	case opaqueSchemes[u.Scheme]:
		if len(u.Opaque) == 0 {
			return "", false
		}
	case u.Scheme == "file":
		if len(u.Host) == 0 && len(u.Path) == 0 {
			return "", false
		}
	case len(u.Host) == 0 || len(u.Opaque) > 0:
		return "", false
	}
	return u.String(), true
}

// IsFragment reports whether raw points inside current document and returns
// the anchor name.
func IsFragment(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if len(s) < 2 || s[0] != '#' {
		return "", false
	}
	return s[1:], true
}

// isDrivePath matches "C:\..." and "C:/...".
func isDrivePath(s string) bool {
	if len(s) < 3 || s[1] != ':' || (s[2] != '\\' && s[2] != '/') {
		return false
	}
	c := s[0] | 0x20
	return 'a' <= c && c <= 'z'
}
