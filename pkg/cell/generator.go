package cell

import (
	"math/rand/v2"
	"sync"
	"time"
)

const (
	minCurrent = 0.0
	maxCurrent = 5.0
	minTemp    = 25.0
	maxTemp    = 40.0
	minHealth  = 85.0
	maxHealth  = 100.0
	minCycles  = 50
	maxCycles  = 500

	// voltageJitter bounds the noise added to each point of a voltage trace.
	voltageJitter = 0.1
)

// TraceTimes are the sample times, in seconds, of a voltage trace.
var TraceTimes = []int{0, 5, 10, 15, 20, 25, 30, 35, 40, 45, 50, 55, 60}

// Generator produces randomized cell telemetry. It is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewGenerator returns a Generator seeded with seed. A zero seed picks one from the clock.
func NewGenerator(seed uint64) *Generator {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Generator{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rnd.Float64()*(hi-lo)
}

// NewCell samples a cell of chemistry c at position idx (1-based).
func (g *Generator) NewCell(c Chemistry, idx int) Cell {
	g.mu.Lock()
	defer g.mu.Unlock()

	p := c.Preset()
	current := round(g.uniform(minCurrent, maxCurrent), 2)

	return Cell{
		Key:         Key(idx, c),
		Chemistry:   c,
		Voltage:     p.Nominal,
		Current:     current,
		Temperature: round(g.uniform(minTemp, maxTemp), 1),
		Capacity:    round(p.Nominal*current, 2),
		MinVoltage:  p.Min,
		MaxVoltage:  p.Max,
		Health:      round(g.uniform(minHealth, maxHealth), 1),
		Cycles:      minCycles + g.rnd.IntN(maxCycles-minCycles+1),
	}
}

// NewCells samples one cell per chemistry, numbered from 1.
func (g *Generator) NewCells(chems []Chemistry) []Cell {
	cells := make([]Cell, 0, len(chems))
	for i, c := range chems {
		cells = append(cells, g.NewCell(c, i+1))
	}
	return cells
}

// Trace is a synthetic voltage series of one cell.
type Trace struct {
	Name     string    `json:"name"`
	Times    []int     `json:"times"`
	Voltages []float64 `json:"voltages"`
}

// VoltageTrace jitters the cell voltage at every TraceTimes point.
func (g *Generator) VoltageTrace(c Cell) Trace {
	g.mu.Lock()
	defer g.mu.Unlock()

	t := Trace{
		Name:     c.DisplayName(),
		Times:    TraceTimes,
		Voltages: make([]float64, len(TraceTimes)),
	}
	for i := range TraceTimes {
		t.Voltages[i] = c.Voltage + g.uniform(-voltageJitter, voltageJitter)
	}
	return t
}

// VoltageTraces returns one trace per cell, in the same order.
func (g *Generator) VoltageTraces(cells []Cell) []Trace {
	traces := make([]Trace, 0, len(cells))
	for _, c := range cells {
		traces = append(traces, g.VoltageTrace(c))
	}
	return traces
}

// Deltas is the change indicator shown next to each aggregate metric.
type Deltas struct {
	Voltage     float64 `json:"voltage"`
	Temperature float64 `json:"temp"`
	Current     float64 `json:"current"`
	Health      float64 `json:"health"`
}

// Deltas samples display deltas. They carry no information.
func (g *Generator) Deltas() Deltas {
	g.mu.Lock()
	defer g.mu.Unlock()

	return Deltas{
		Voltage:     round(g.uniform(-0.1, 0.1), 2),
		Temperature: round(g.uniform(-1, 1), 1),
		Current:     round(g.uniform(-0.5, 0.5), 2),
		Health:      round(g.uniform(-1, 1), 1),
	}
}
