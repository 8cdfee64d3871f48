package cell

import (
	"strings"

	pkgerrors "github.com/pkg/errors"
)

// Chemistry is the chemistry tag of a simulated cell.
type Chemistry string

const (
	LFP Chemistry = "lfp"
	NMC Chemistry = "nmc"
	LTO Chemistry = "lto"
)

// Preset is the fixed voltage profile of a chemistry, in volts.
type Preset struct {
	Nominal float64 `json:"nominal"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

var presets = map[Chemistry]Preset{
	LFP: {Nominal: 3.2, Min: 2.8, Max: 3.6},
	NMC: {Nominal: 3.6, Min: 3.2, Max: 4.0},
	// LTO shares the NMC profile.
	LTO: {Nominal: 3.6, Min: 3.2, Max: 4.0},
}

// Chemistries returns all known chemistries in display order.
func Chemistries() []Chemistry {
	return []Chemistry{LFP, NMC, LTO}
}

// ParseChemistry parses a chemistry tag, ignoring case and surrounding spaces.
func ParseChemistry(s string) (Chemistry, error) {
	c := Chemistry(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := presets[c]; !ok {
		return "", pkgerrors.Errorf("unknown chemistry %q, must be one of lfp, nmc, lto", s)
	}
	return c, nil
}

// Preset returns the voltage profile of c. Unknown chemistries get a zero Preset.
func (c Chemistry) Preset() Preset {
	return presets[c]
}

func (c Chemistry) String() string {
	return string(c)
}
