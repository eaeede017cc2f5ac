package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"road-risk-api/risk"

	"github.com/spf13/cobra"
)

const testModel = "../../risk/testdata/model.json"

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

var fullFlags = []string{
	"--model", testModel,
	"--person-type", "Conductor",
	"--vehicle-type", "Turismo",
	"--age-range", "25-34",
	"--sex", "Hombre",
	"--district", "CENTRO",
	"--weekday", "Miercoles",
	"--window", "Tarde_punta",
	"--weather", "Lluvia debil",
}

func TestEstimateFromFlags(t *testing.T) {
	out, err := execute(t, newEstimateCmd(), fullFlags...)
	if err != nil {
		t.Fatalf("estimate failed: %v\n%s", err, out)
	}
	for _, want := range []string{"Escenario seleccionado", "Opción A", "Opción B", "Opción C", "logreg-balanced-test"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestEstimateJSON(t *testing.T) {
	out, err := execute(t, newEstimateCmd(), append(fullFlags, "--json")...)
	if err != nil {
		t.Fatalf("estimate failed: %v", err)
	}
	var est risk.Estimate
	if err := json.Unmarshal([]byte(out), &est); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if est.Scenario.Weekday != "Miércoles" || est.Scenario.Weather != "Lluvia débil" {
		t.Errorf("scenario not normalized: %+v", est.Scenario)
	}
	if len(est.Alternatives) != risk.MaxAlternatives {
		t.Errorf("len(alternatives) = %d, want %d", len(est.Alternatives), risk.MaxAlternatives)
	}
	if est.Risk <= 0 || est.Risk >= 1 {
		t.Errorf("risk = %v", est.Risk)
	}
}

func TestEstimateFromFileWithOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.toml")
	content := `person_type  = "Conductor"
vehicle_type = "Turismo"
age_range    = "25-34"
sex          = "Hombre"
district     = "CENTRO"
weekday      = "Lunes"
time_window  = "Tarde_punta"
weather      = "Despejado"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, newEstimateCmd(), "--model", testModel, "--file", path, "--district", "RETIRO", "--json")
	if err != nil {
		t.Fatalf("estimate failed: %v\n%s", err, out)
	}
	var est risk.Estimate
	if err := json.Unmarshal([]byte(out), &est); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if est.Scenario.District != "RETIRO" {
		t.Errorf("flag should override file: district = %q", est.Scenario.District)
	}
	if est.Scenario.Weekday != "Lunes" {
		t.Errorf("weekday = %q, want Lunes", est.Scenario.Weekday)
	}
}

func TestEstimateDecomposedAccent(t *testing.T) {
	args := append([]string{}, fullFlags...)
	args[len(args)-5] = "Mie\u0301rcoles" // weekday value, combining acute accent
	out, err := execute(t, newEstimateCmd(), append(args, "--json")...)
	if err != nil {
		t.Fatalf("estimate failed: %v\n%s", err, out)
	}
	var est risk.Estimate
	if err := json.Unmarshal([]byte(out), &est); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if est.Scenario.Weekday != "Miércoles" {
		t.Errorf("weekday = %q, want composed Miércoles", est.Scenario.Weekday)
	}
}

func TestEstimateIncomplete(t *testing.T) {
	_, err := execute(t, newEstimateCmd(), "--model", testModel, "--district", "CENTRO")
	if err == nil || !strings.Contains(err.Error(), "incomplete") {
		t.Errorf("err = %v, want incomplete scenario error", err)
	}
}

func TestEstimateMissingModel(t *testing.T) {
	args := append([]string{}, fullFlags...)
	args[1] = filepath.Join(t.TempDir(), "missing.json")
	_, err := execute(t, newEstimateCmd(), args...)
	if err == nil || !strings.Contains(err.Error(), "missing.json") {
		t.Errorf("err = %v, want path in error", err)
	}
}

func TestWindowsList(t *testing.T) {
	out, err := execute(t, newWindowsCmd())
	if err != nil {
		t.Fatalf("windows failed: %v", err)
	}
	for _, w := range risk.TimeWindows {
		if !strings.Contains(out, string(w)) || !strings.Contains(out, w.Label()) {
			t.Errorf("output missing %s:\n%s", w, out)
		}
	}
}

func TestWindowsHour(t *testing.T) {
	tests := []struct {
		hour    string
		want    risk.TimeWindow
		wantErr bool
	}{
		{"0", risk.WindowNightEarly, false},
		{"7", risk.WindowMorningPeak, false},
		{"17", risk.WindowAfternoon, false},
		{"19", risk.WindowAfternoonPeak, false},
		{"23", risk.WindowNight, false},
		{"24", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.hour, func(t *testing.T) {
			out, err := execute(t, newWindowsCmd(), "--hour", tt.hour)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("windows failed: %v", err)
			}
			if !strings.HasPrefix(out, string(tt.want)+"\t") {
				t.Errorf("output = %q, want %s", out, tt.want)
			}
		})
	}
}

func TestVocabList(t *testing.T) {
	out, err := execute(t, newVocabCmd())
	if err != nil {
		t.Fatalf("vocab failed: %v", err)
	}
	if !strings.Contains(out, risk.ColWeather+":") || !strings.Contains(out, "Lluvia debil") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestVocabCheck(t *testing.T) {
	out, err := execute(t, newVocabCmd(), "--check", testModel)
	if err != nil {
		t.Fatalf("vocab --check failed: %v\n%s", err, out)
	}
	if !strings.HasPrefix(out, "ok") {
		t.Errorf("output = %q", out)
	}
}
