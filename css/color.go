package css

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

var namedColors = map[string]string{
	"black":   "000000",
	"silver":  "C0C0C0",
	"gray":    "808080",
	"grey":    "808080",
	"white":   "FFFFFF",
	"maroon":  "800000",
	"red":     "FF0000",
	"purple":  "800080",
	"fuchsia": "FF00FF",
	"magenta": "FF00FF",
	"green":   "008000",
	"lime":    "00FF00",
	"olive":   "808000",
	"yellow":  "FFFF00",
	"navy":    "000080",
	"blue":    "0000FF",
	"teal":    "008080",
	"aqua":    "00FFFF",
	"cyan":    "00FFFF",
	"orange":  "FFA500",

	"aliceblue":      "F0F8FF",
	"beige":          "F5F5DC",
	"brown":          "A52A2A",
	"coral":          "FF7F50",
	"crimson":        "DC143C",
	"darkblue":       "00008B",
	"darkgray":       "A9A9A9",
	"darkgreen":      "006400",
	"darkred":        "8B0000",
	"gold":           "FFD700",
	"indigo":         "4B0082",
	"ivory":          "FFFFF0",
	"khaki":          "F0E68C",
	"lavender":       "E6E6FA",
	"lightblue":      "ADD8E6",
	"lightgray":      "D3D3D3",
	"lightgreen":     "90EE90",
	"lightyellow":    "FFFFE0",
	"pink":           "FFC0CB",
	"salmon":         "FA8072",
	"skyblue":        "87CEEB",
	"tan":            "D2B48C",
	"tomato":         "FF6347",
	"violet":         "EE82EE",
	"wheat":          "F5DEB3",
	"whitesmoke":     "F5F5F5",
	"yellowgreen":    "9ACD32",
	"lightsteelblue": "B0C4DE",
	"steelblue":      "4682B4",
	"slategray":      "708090",
}

// ParseColor converts css color to RRGGBB hex form. Transparent and
// unrecognized colors are reported as not ok.
func ParseColor(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) == 0 {
		return "", false
	}
	if hex, ok := namedColors[s]; ok {
		return hex, true
	}
	switch {
	case strings.HasPrefix(s, "#"):
		return parseHexColor(s[1:])
	case strings.HasPrefix(s, "rgb(") || strings.HasPrefix(s, "rgba("):
		return parseRGBColor(s)
	}
	return "", false
}

func parseHexColor(h string) (string, bool) {
	switch len(h) {
	case 3:
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	case 6:
	default:
		return "", false
	}
	if _, err := strconv.ParseUint(h, 16, 32); err != nil {
		return "", false
	}
	return strings.ToUpper(h), true
}

func parseRGBColor(s string) (string, bool) {
	open, end := strings.IndexByte(s, '('), strings.LastIndexByte(s, ')')
	if open < 0 || end < open {
		return "", false
	}
	parts := strings.FieldsFunc(s[open+1:end], func(r rune) bool {
		return r == ',' || r == ' ' || r == '/'
	})
	if len(parts) < 3 || len(parts) > 4 {
		return "", false
	}
	if len(parts) == 4 {
		if a, err := parseChannel(parts[3], 1); err != nil || a == 0 {
			return "", false
		}
	}
	var rgb [3]int
	for i := range rgb {
		c, err := parseChannel(parts[i], 255)
		if err != nil {
			return "", false
		}
		rgb[i] = int(math.Round(c))
	}
	return fmt.Sprintf("%02X%02X%02X", rgb[0], rgb[1], rgb[2]), true
}

// parseChannel parses number or percentage and clamps it to [0, limit].
func parseChannel(s string, limit float64) (float64, error) {
	percent := strings.HasSuffix(s, "%")
	f, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 0, err
	}
	if percent {
		f = f * limit / 100
	}
	return min(max(f, 0), limit), nil
}
