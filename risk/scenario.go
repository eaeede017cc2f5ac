package risk

// Scenario is a fully populated scoring request. Values are passed through to
// the classifier without enumeration checks.
type Scenario struct {
	PersonType  string     `json:"person_type" toml:"person_type"`
	VehicleType string     `json:"vehicle_type" toml:"vehicle_type"`
	AgeRange    string     `json:"age_range" toml:"age_range"`
	Sex         string     `json:"sex" toml:"sex"`
	District    string     `json:"district" toml:"district"`
	Weekday     string     `json:"weekday" toml:"weekday"`
	TimeWindow  TimeWindow `json:"time_window" toml:"time_window"`
	Weather     string     `json:"weather" toml:"weather"`
}

// WithWindow returns a copy of s scored at w.
func (s Scenario) WithWindow(w TimeWindow) Scenario {
	s.TimeWindow = w
	return s
}

// Row renders s with the trained column names.
func (s Scenario) Row() Row {
	return Row{
		ColPersonType:  s.PersonType,
		ColVehicleType: s.VehicleType,
		ColAgeRange:    s.AgeRange,
		ColSex:         s.Sex,
		ColDistrict:    s.District,
		ColWeekday:     s.Weekday,
		ColTimeWindow:  string(s.TimeWindow),
		ColWeather:     s.Weather,
	}
}

// RawScenario is a scenario as a form submits it. A nil field means the user
// has not chosen a value yet.
type RawScenario struct {
	PersonType  *string `json:"person_type" toml:"person_type"`
	VehicleType *string `json:"vehicle_type" toml:"vehicle_type"`
	AgeRange    *string `json:"age_range" toml:"age_range"`
	Sex         *string `json:"sex" toml:"sex"`
	District    *string `json:"district" toml:"district"`
	Weekday     *string `json:"weekday" toml:"weekday"`
	TimeWindow  *string `json:"time_window" toml:"time_window"`
	Weather     *string `json:"weather" toml:"weather"`
}

// Complete returns the scenario when all eight fields are present.
func (r RawScenario) Complete() (Scenario, bool) {
	fields := []*string{
		r.PersonType, r.VehicleType, r.AgeRange, r.Sex,
		r.District, r.Weekday, r.TimeWindow, r.Weather,
	}
	for _, f := range fields {
		if f == nil {
			return Scenario{}, false
		}
	}
	return Scenario{
		PersonType:  *r.PersonType,
		VehicleType: *r.VehicleType,
		AgeRange:    *r.AgeRange,
		Sex:         *r.Sex,
		District:    *r.District,
		Weekday:     *r.Weekday,
		TimeWindow:  TimeWindow(*r.TimeWindow),
		Weather:     *r.Weather,
	}, true
}

// Raw converts a complete scenario back to its form representation.
func (s Scenario) Raw() RawScenario {
	str := func(v string) *string { return &v }
	return RawScenario{
		PersonType:  str(s.PersonType),
		VehicleType: str(s.VehicleType),
		AgeRange:    str(s.AgeRange),
		Sex:         str(s.Sex),
		District:    str(s.District),
		Weekday:     str(s.Weekday),
		TimeWindow:  str(string(s.TimeWindow)),
		Weather:     str(s.Weather),
	}
}

// Alternative is a time window other than the selected one. Label combines the
// clock range with a tag derived from rank, not from the window itself.
type Alternative struct {
	Label  string     `json:"label"`
	Window TimeWindow `json:"window"`
	Risk   float64    `json:"risk"`
}

// Estimate is the engine's answer for a complete scenario.
type Estimate struct {
	Scenario     Scenario      `json:"scenario"`
	Risk         float64       `json:"risk"`
	Alternatives []Alternative `json:"alternatives"`
	ModelVersion string        `json:"model_version"`
}
