package cell

import (
	"fmt"
	"math"
	"strings"
)

// Cell is one simulated battery cell.
type Cell struct {
	Key         string    `json:"key"`
	Chemistry   Chemistry `json:"chemistry"`
	Voltage     float64   `json:"voltage"`
	Current     float64   `json:"current"`
	Temperature float64   `json:"temp"`
	// Capacity is Voltage * Current, shown in Wh.
	Capacity   float64 `json:"capacity"`
	MinVoltage float64 `json:"min_voltage"`
	MaxVoltage float64 `json:"max_voltage"`
	Health     float64 `json:"health"`
	Cycles     int     `json:"cycles"`
}

// Key builds the key of the idx-th (1-based) cell of chemistry c.
func Key(idx int, c Chemistry) string {
	return fmt.Sprintf("cell_%d_%s", idx, c)
}

// DisplayName returns the key in title case, e.g. "Cell 1 Lfp".
func (c Cell) DisplayName() string {
	return TitleKey(c.Key)
}

// VoltageFraction returns where the voltage sits inside [MinVoltage, MaxVoltage], from 0 to 1.
func (c Cell) VoltageFraction() float64 {
	span := c.MaxVoltage - c.MinVoltage
	if span <= 0 {
		return 0
	}
	f := (c.Voltage - c.MinVoltage) / span
	return math.Max(0, math.Min(1, f))
}

// TitleKey turns a snake_case key into space separated, capitalized words.
func TitleKey(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
