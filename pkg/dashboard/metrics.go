package dashboard

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/charlie0129/bmsdash/pkg/session"
	"github.com/charlie0129/bmsdash/pkg/task"
)

type metrics struct {
	cells       prometheus.Gauge
	tasks       *prometheus.GaugeVec
	cellVoltage *prometheus.GaugeVec
	cellTemp    *prometheus.GaugeVec
	events      *prometheus.CounterVec
}

// register adds c to reg, reusing a collector that is already registered.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	var (
		m   metrics
		err error
	)
	if m.cells, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bmsdash_cells",
		Help: "Number of simulated cells in the session",
	})); err != nil {
		return nil, err
	}
	if m.tasks, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "bmsdash_tasks",
		Help: "Number of tasks in the session by type",
	}, []string{"type"})); err != nil {
		return nil, err
	}
	if m.cellVoltage, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "bmsdash_cell_voltage_volts",
		Help: "Voltage of each simulated cell",
	}, []string{"cell", "chemistry"})); err != nil {
		return nil, err
	}
	if m.cellTemp, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "bmsdash_cell_temperature_celsius",
		Help: "Temperature of each simulated cell",
	}, []string{"cell", "chemistry"})); err != nil {
		return nil, err
	}
	if m.events, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bmsdash_events_total",
		Help: "Session change events published",
	}, []string{"name"})); err != nil {
		return nil, err
	}

	return &m, nil
}

// observe copies the session state into the gauges.
func (m *metrics) observe(sess *session.Session) {
	cells := sess.Cells()
	m.cells.Set(float64(len(cells)))

	m.cellVoltage.Reset()
	m.cellTemp.Reset()
	for _, c := range cells {
		m.cellVoltage.WithLabelValues(c.Key, c.Chemistry.String()).Set(c.Voltage)
		m.cellTemp.WithLabelValues(c.Key, c.Chemistry.String()).Set(c.Temperature)
	}

	counts := map[task.Type]int{}
	for _, t := range sess.TaskTypes() {
		counts[t]++
	}
	for _, t := range task.Types() {
		m.tasks.WithLabelValues(string(t)).Set(float64(counts[t]))
	}
}
