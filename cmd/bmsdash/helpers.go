package main

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"

	"github.com/charlie0129/bmsdash/pkg/cell"
)

func parseIntArg(args []string, valueName string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("invalid number of arguments")
	}

	value, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", valueName, err)
	}

	return value, nil
}

func bool2Text(b bool) string {
	if b {
		return color.New(color.Bold, color.FgGreen).Sprint("✔")
	}
	return color.New(color.Bold, color.FgRed).Sprint("✘")
}

func bold(format string, a ...interface{}) string {
	return color.New(color.Bold).Sprintf(format, a...)
}

// tempText colours a temperature the way the dashboard gauge does.
func tempText(t float64) string {
	s := fmt.Sprintf("%.1f °C", t)
	switch cell.TempBandOf(t) {
	case cell.TempHot:
		if t >= cell.TempThreshold {
			return color.New(color.Bold, color.FgRed).Sprint(s)
		}
		return color.RedString(s)
	case cell.TempWarm:
		return color.YellowString(s)
	}
	return s
}

// deltaText shows a signed delta in green or red.
func deltaText(places int, v float64) string {
	s := fmt.Sprintf("%+.*f", places, v)
	if v < 0 {
		return color.RedString(s)
	}
	return color.GreenString(s)
}

// rangeBar draws the position of the voltage within the chemistry range.
func rangeBar(fraction float64, width int) string {
	filled := int(fraction*float64(width) + 0.5)
	if filled > width {
		filled = width
	}
	bar := make([]rune, width)
	for i := range bar {
		if i < filled {
			bar[i] = '█'
		} else {
			bar[i] = '░'
		}
	}
	return string(bar)
}
