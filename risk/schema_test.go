package risk

import "testing"

func TestWindowForHour(t *testing.T) {
	tests := []struct {
		hour int
		want TimeWindow
	}{
		{0, WindowNightEarly},
		{5, WindowNightEarly},
		{6, WindowMorningPeak},
		{9, WindowMorningPeak},
		{10, WindowMidMorning},
		{13, WindowMidMorning},
		{14, WindowAfternoon},
		{17, WindowAfternoon},
		{18, WindowAfternoonPeak},
		{21, WindowAfternoonPeak},
		{22, WindowNight},
		{23, WindowNight},
	}
	for _, tt := range tests {
		got, ok := WindowForHour(tt.hour)
		if !ok || got != tt.want {
			t.Errorf("WindowForHour(%d) = %q, %v; want %q", tt.hour, got, ok, tt.want)
		}
	}

	for _, h := range []int{-1, 24, 99} {
		if w, ok := WindowForHour(h); ok {
			t.Errorf("WindowForHour(%d) = %q, want no window", h, w)
		}
	}
}

func TestWindowsCoverTheDayOnce(t *testing.T) {
	counts := make(map[TimeWindow]int)
	for h := 0; h < 24; h++ {
		w, ok := WindowForHour(h)
		if !ok {
			t.Fatalf("hour %d has no window", h)
		}
		counts[w]++
	}
	if len(counts) != len(TimeWindows) {
		t.Errorf("hours map onto %d windows, want %d", len(counts), len(TimeWindows))
	}
	for _, w := range TimeWindows {
		if counts[w] < 2 || counts[w] > 6 {
			t.Errorf("window %s spans %d hours", w, counts[w])
		}
	}
}

func TestTimeWindowLabel(t *testing.T) {
	if got := WindowAfternoonPeak.Label(); got != "18:00–21:59" {
		t.Errorf("Label() = %q", got)
	}
	if got := TimeWindow("Desconocida").Label(); got != "Desconocida" {
		t.Errorf("unknown window Label() = %q, want raw code", got)
	}
	if TimeWindow("Desconocida").Valid() {
		t.Error("unknown window should not be valid")
	}
}

func TestDefaultVocabularyCoversColumns(t *testing.T) {
	v := DefaultVocabulary()
	for _, col := range Columns {
		if len(v.Values(col)) == 0 {
			t.Errorf("vocabulary has no options for %q", col)
		}
	}
	if got := v.Values(ColTimeWindow); len(got) != len(TimeWindows) {
		t.Errorf("time window options = %v", got)
	}
}

func TestCheckVocabulary(t *testing.T) {
	v := DefaultVocabulary()
	known := make(map[string][]string)
	for _, col := range Columns {
		for _, value := range v.Values(col) {
			known[col] = append(known[col], normalizeColumn(col, value))
		}
	}

	if gaps := CheckVocabulary(v, known); len(gaps) != 0 {
		t.Fatalf("expected no gaps, got %v", gaps)
	}

	known[ColWeather] = []string{"Despejado", "Nublado", "Lluvia débil", "Lluvia intensa", "Se desconoce"}
	gaps := CheckVocabulary(v, known)
	if len(gaps) != 1 {
		t.Fatalf("expected one gap, got %v", gaps)
	}
	if gaps[0].Column != ColWeather || gaps[0].Value != "LLuvia intensa" {
		t.Errorf("gap = %+v", gaps[0])
	}
}
