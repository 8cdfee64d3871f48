package cell

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresetsBracketNominal(t *testing.T) {
	for _, c := range Chemistries() {
		p := c.Preset()
		assert.Less(t, p.Min, p.Nominal, "chemistry %s", c)
		assert.Less(t, p.Nominal, p.Max, "chemistry %s", c)
	}
}

func TestParseChemistry(t *testing.T) {
	tests := []struct {
		in      string
		want    Chemistry
		wantErr bool
	}{
		{in: "lfp", want: LFP},
		{in: " NMC ", want: NMC},
		{in: "Lto", want: LTO},
		{in: "nimh", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseChemistry(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewCellRanges(t *testing.T) {
	g := NewGenerator(42)
	for i := 0; i < 500; i++ {
		chem := Chemistries()[i%3]
		c := g.NewCell(chem, i+1)
		p := chem.Preset()

		assert.Equal(t, p.Nominal, c.Voltage)
		assert.Equal(t, p.Min, c.MinVoltage)
		assert.Equal(t, p.Max, c.MaxVoltage)
		assert.LessOrEqual(t, c.MinVoltage, c.Voltage)
		assert.LessOrEqual(t, c.Voltage, c.MaxVoltage)

		assert.GreaterOrEqual(t, c.Current, 0.0)
		assert.LessOrEqual(t, c.Current, 5.0)
		assert.GreaterOrEqual(t, c.Temperature, 25.0)
		assert.LessOrEqual(t, c.Temperature, 40.0)
		assert.GreaterOrEqual(t, c.Health, 85.0)
		assert.LessOrEqual(t, c.Health, 100.0)
		assert.GreaterOrEqual(t, c.Cycles, 50)
		assert.LessOrEqual(t, c.Cycles, 500)

		assert.Equal(t, math.Round(c.Voltage*c.Current*100)/100, c.Capacity)
	}
}

func TestNewCellsKeys(t *testing.T) {
	g := NewGenerator(1)
	cells := g.NewCells([]Chemistry{LFP, NMC, LTO})
	require.Len(t, cells, 3)
	assert.Equal(t, "cell_1_lfp", cells[0].Key)
	assert.Equal(t, "cell_2_nmc", cells[1].Key)
	assert.Equal(t, "cell_3_lto", cells[2].Key)
	assert.Equal(t, "Cell 2 Nmc", cells[1].DisplayName())
}

func TestGeneratorIsDeterministic(t *testing.T) {
	a := NewGenerator(7).NewCells([]Chemistry{LFP, NMC})
	b := NewGenerator(7).NewCells([]Chemistry{LFP, NMC})
	assert.Equal(t, a, b)
}

func TestVoltageFraction(t *testing.T) {
	c := Cell{Voltage: 3.2, MinVoltage: 2.8, MaxVoltage: 3.6}
	assert.InDelta(t, 0.5, c.VoltageFraction(), 1e-9)

	c = Cell{Voltage: 3.6, MinVoltage: 3.2, MaxVoltage: 4.0}
	assert.InDelta(t, 0.5, c.VoltageFraction(), 1e-9)

	assert.Equal(t, 0.0, Cell{}.VoltageFraction())
}

func TestVoltageTrace(t *testing.T) {
	g := NewGenerator(3)
	c := g.NewCell(LFP, 1)
	tr := g.VoltageTrace(c)

	assert.Equal(t, "Cell 1 Lfp", tr.Name)
	require.Len(t, tr.Voltages, len(TraceTimes))
	assert.Equal(t, 0, tr.Times[0])
	assert.Equal(t, 60, tr.Times[len(tr.Times)-1])
	for _, v := range tr.Voltages {
		assert.InDelta(t, 3.2, v, 0.1+1e-9)
	}
}

func TestTitleKey(t *testing.T) {
	assert.Equal(t, "Task 12", TitleKey("task_12"))
	assert.Equal(t, "Cell 3 Lto", TitleKey("cell_3_lto"))
	assert.Equal(t, "", TitleKey(""))
}
