package css

import (
	"strconv"
	"strings"
)

// Value is a parsed property value. Single numeric tokens fill Value and
// Unit, single identifiers, strings and hashes fill Keyword, everything else
// is kept lower cased in Keyword as well as in original form in Raw.
type Value struct {
	Raw     string
	Value   float64
	Unit    string
	Keyword string
}

// IsNumeric reports whether value is a number, a dimension or a percentage.
func (v Value) IsNumeric() bool {
	return len(v.Keyword) == 0 && len(v.Raw) > 0
}

// Length interprets value as length. Unitless numbers are pixels, as in
// legacy width attributes.
func (v Value) Length() (Length, bool) {
	if !v.IsNumeric() {
		return Length{}, false
	}
	unit := v.Unit
	if len(unit) == 0 {
		unit = "px"
	}
	l := Length{Value: v.Value, Unit: unit}
	if _, ok := l.Twips(); !ok && !l.IsPercent() {
		return Length{}, false
	}
	return l, true
}

type Declaration struct {
	Property  string
	Value     Value
	Important bool
}

// Declarations keeps declarations in source order.
type Declarations []Declaration

// Get returns effective value of the property: the last important
// declaration or the last declaration.
func (d Declarations) Get(property string) (Value, bool) {
	var (
		found     Value
		ok, strong bool
	)
	for _, decl := range d {
		if decl.Property != property || (strong && !decl.Important) {
			continue
		}
		found, ok, strong = decl.Value, true, decl.Important
	}
	return found, ok
}

// ParseAttributeLength parses legacy dimension attribute such as width="50"
// or width="30%".
func ParseAttributeLength(s string) (Length, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	if len(s) == 0 {
		return Length{}, false
	}
	if strings.HasSuffix(s, "%") {
		f, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(s, "%")), 64)
		if err != nil {
			return Length{}, false
		}
		return Length{Value: f, Unit: "%"}, true
	}
	num, unit := parseDimension(s)
	if num == 0 && !strings.HasPrefix(s, "0") {
		return Length{}, false
	}
	return Value{Raw: s, Value: num, Unit: unit}.Length()
}
