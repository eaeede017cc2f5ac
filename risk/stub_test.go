package risk

import (
	"errors"
	"sync/atomic"
)

// windowClassifier returns a fixed risk per time window and counts calls.
type windowClassifier struct {
	risks map[TimeWindow]float64
	calls atomic.Int64
	err   error
}

func (c *windowClassifier) PredictProba(rows []Row) ([][]float64, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	out := make([][]float64, 0, len(rows))
	for _, r := range rows {
		p, ok := c.risks[TimeWindow(r[ColTimeWindow])]
		if !ok {
			return nil, errors.New("no risk for window " + r[ColTimeWindow])
		}
		out = append(out, []float64{1 - p, p})
	}
	return out, nil
}

func sampleScenario() Scenario {
	return Scenario{
		PersonType:  "Conductor",
		VehicleType: "Turismo",
		AgeRange:    "25-34",
		Sex:         "Hombre",
		District:    "CENTRO",
		Weekday:     "Miercoles",
		TimeWindow:  WindowAfternoonPeak,
		Weather:     "Lluvia debil",
	}
}

func strPtr(s string) *string { return &s }
