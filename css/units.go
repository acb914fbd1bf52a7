package css

import "math"

// Length is a css length or percentage.
type Length struct {
	Value float64
	Unit  string
}

// twips per unit, em and rem are relative to 12pt base font.
var twipsPerUnit = map[string]float64{
	"px":  15,
	"pt":  20,
	"pc":  240,
	"in":  1440,
	"cm":  1440 / 2.54,
	"mm":  1440 / 25.4,
	"q":   1440 / 101.6,
	"em":  240,
	"rem": 240,
	"ex":  120,
	"ch":  120,
}

func (l Length) IsPercent() bool {
	return l.Unit == "%"
}

// Twips converts length to twentieths of a point, rounding to nearest.
// Percentages have no absolute size.
func (l Length) Twips() (int, bool) {
	return ToTwips(l.Value, l.Unit)
}

// HalfPoints returns length in half points, which is how font sizes are
// expressed in documents.
func (l Length) HalfPoints() (int, bool) {
	tw, ok := l.Twips()
	if !ok {
		return 0, false
	}
	return int(math.Round(float64(tw) / 10)), true
}

// Fiftieths returns percentage in fiftieths of a percent.
func (l Length) Fiftieths() (int, bool) {
	if !l.IsPercent() {
		return 0, false
	}
	return int(math.Round(l.Value * 50)), true
}

// ToTwips converts value given in unit to twips. Empty unit means pixels.
func ToTwips(value float64, unit string) (int, bool) {
	if len(unit) == 0 {
		unit = "px"
	}
	ratio, ok := twipsPerUnit[unit]
	if !ok {
		return 0, false
	}
	return int(math.Round(value * ratio)), true
}
