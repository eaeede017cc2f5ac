package risk

// SchemaVersion identifies the vocabulary below. Artifacts are stamped with the
// version they were fitted against and the gateway rejects any other.
const SchemaVersion = "2025.1"

// Trained column names, in fit order. The weather column carries an accented
// character in the fitted schema.
const (
	ColPersonType  = "tipo_persona"
	ColVehicleType = "tipo_vehiculo"
	ColAgeRange    = "rango_edad"
	ColSex         = "sexo"
	ColDistrict    = "distrito"
	ColWeekday     = "dia_semana"
	ColTimeWindow  = "franja_horaria"
	ColWeather     = "estado_meteorológico"
)

// Columns lists the trained columns in fit order.
var Columns = []string{
	ColPersonType,
	ColVehicleType,
	ColAgeRange,
	ColSex,
	ColDistrict,
	ColWeekday,
	ColTimeWindow,
	ColWeather,
}

// TimeWindow is one of six contiguous clock-range partitions of the day.
type TimeWindow string

const (
	WindowNightEarly    TimeWindow = "Noche_madrugada"
	WindowMorningPeak   TimeWindow = "Manana_punta"
	WindowMidMorning    TimeWindow = "Manana_media"
	WindowAfternoon     TimeWindow = "Tarde"
	WindowAfternoonPeak TimeWindow = "Tarde_punta"
	WindowNight         TimeWindow = "Noche"
)

// TimeWindows is the fixed enumeration order, which is also time-of-day order.
var TimeWindows = []TimeWindow{
	WindowNightEarly,
	WindowMorningPeak,
	WindowMidMorning,
	WindowAfternoon,
	WindowAfternoonPeak,
	WindowNight,
}

type windowSpan struct {
	label     string
	firstHour int
	lastHour  int
}

var windowSpans = map[TimeWindow]windowSpan{
	WindowNightEarly:    {"00:00–05:59", 0, 5},
	WindowMorningPeak:   {"06:00–09:59", 6, 9},
	WindowMidMorning:    {"10:00–13:59", 10, 13},
	WindowAfternoon:     {"14:00–17:59", 14, 17},
	WindowAfternoonPeak: {"18:00–21:59", 18, 21},
	WindowNight:         {"22:00–23:59", 22, 23},
}

// Label returns the clock range for w, or the raw code when w is not part of
// the enumeration.
func (w TimeWindow) Label() string {
	if span, ok := windowSpans[w]; ok {
		return span.label
	}
	return string(w)
}

// Valid reports whether w belongs to the enumeration.
func (w TimeWindow) Valid() bool {
	_, ok := windowSpans[w]
	return ok
}

// WindowForHour assigns an hour of day to its window. This is the same rule
// the historical records were labeled with.
func WindowForHour(hour int) (TimeWindow, bool) {
	for _, w := range TimeWindows {
		span := windowSpans[w]
		if hour >= span.firstHour && hour <= span.lastHour {
			return w, true
		}
	}
	return "", false
}

// Option is a value offered to the user together with its display label.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Vocabulary holds the option lists a form offers for every column.
type Vocabulary struct {
	SchemaVersion string              `json:"schema_version"`
	Options       map[string][]Option `json:"options"`
}

// DefaultVocabulary is the set of values the form offers. Some values are
// deliberately unnormalized (see Normalize).
func DefaultVocabulary() Vocabulary {
	windows := make([]Option, 0, len(TimeWindows))
	for _, w := range TimeWindows {
		windows = append(windows, Option{Label: w.Label(), Value: string(w)})
	}

	return Vocabulary{
		SchemaVersion: SchemaVersion,
		Options: map[string][]Option{
			ColPersonType: {
				{"Conductor", "Conductor"},
				{"Pasajero", "Pasajero"},
				{"Peatón", "Peatón"},
			},
			ColVehicleType: {
				{"Turismo", "Turismo"},
				{"Motocicleta", "Motocicleta"},
				{"Furgoneta", "Furgoneta"},
				{"Bicicleta", "Bicicleta"},
				{"VMP / Patinete", "VMP"},
				{"Sin vehículo (peatón)", "Sin_vehiculo"},
			},
			ColAgeRange: {
				{"Menor de 18 años", "<18"},
				{"18–24 años", "18-24"},
				{"25–34 años", "25-34"},
				{"35–44 años", "35-44"},
				{"45–54 años", "45-54"},
				{"55–64 años", "55-64"},
				{"65–74 años", "65-74"},
				{"75+ años", "75+"},
			},
			ColSex: {
				{"Hombre", "Hombre"},
				{"Mujer", "Mujer"},
				{"Desconocido / Otro", "Desconocido"},
			},
			ColDistrict: {
				{"Centro", "CENTRO"},
				{"Arganzuela", "ARGANZUELA"},
				{"Retiro", "RETIRO"},
				{"Salamanca", "SALAMANCA"},
				{"Chamartín", "CHAMARTIN"},
				{"Tetuán", "TETUAN"},
				{"Chamberí", "CHAMBERI"},
			},
			ColWeekday: {
				{"Lunes", "Lunes"},
				{"Martes", "Martes"},
				{"Miércoles", "Miércoles"},
				{"Jueves", "Jueves"},
				{"Viernes", "Viernes"},
				{"Sábado", "Sábado"},
				{"Domingo", "Domingo"},
			},
			ColTimeWindow: windows,
			ColWeather: {
				{"Despejado", "Despejado"},
				{"Nublado", "Nublado"},
				{"Lluvia débil", "Lluvia debil"},
				{"Lluvia intensa", "Lluvia intensa"},
				{"Se desconoce", "Desconocido"},
			},
		},
	}
}

// Values returns the offered values for column, in display order.
func (v Vocabulary) Values(column string) []string {
	opts := v.Options[column]
	out := make([]string, 0, len(opts))
	for _, o := range opts {
		out = append(out, o.Value)
	}
	return out
}

// VocabularyGap is an offered value, after normalization, that the artifact was
// never fitted on.
type VocabularyGap struct {
	Column string
	Value  string
}

// CheckVocabulary compares the offered values against the categories an
// artifact knows. An empty result means the form and the model agree.
func CheckVocabulary(v Vocabulary, known map[string][]string) []VocabularyGap {
	var gaps []VocabularyGap
	for _, col := range Columns {
		seen := make(map[string]struct{}, len(known[col]))
		for _, k := range known[col] {
			seen[k] = struct{}{}
		}
		for _, value := range v.Values(col) {
			norm := normalizeColumn(col, value)
			if _, ok := seen[norm]; !ok {
				gaps = append(gaps, VocabularyGap{Column: col, Value: norm})
			}
		}
	}
	return gaps
}
