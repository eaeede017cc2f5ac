package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"road-risk-api/config"
	"road-risk-api/risk"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/unicode/norm"
)

// scenarioFlags maps each flag to the scenario field it fills.
var scenarioFlags = []struct {
	name  string
	usage string
	field func(*risk.RawScenario) **string
}{
	{"person-type", "tipo de persona (Conductor, Pasajero, Peatón)", func(r *risk.RawScenario) **string { return &r.PersonType }},
	{"vehicle-type", "tipo de vehículo", func(r *risk.RawScenario) **string { return &r.VehicleType }},
	{"age-range", "rango de edad, p. ej. 25-34", func(r *risk.RawScenario) **string { return &r.AgeRange }},
	{"sex", "sexo", func(r *risk.RawScenario) **string { return &r.Sex }},
	{"district", "distrito, p. ej. CENTRO", func(r *risk.RawScenario) **string { return &r.District }},
	{"weekday", "día de la semana", func(r *risk.RawScenario) **string { return &r.Weekday }},
	{"window", "franja horaria, p. ej. Tarde_punta", func(r *risk.RawScenario) **string { return &r.TimeWindow }},
	{"weather", "estado meteorológico", func(r *risk.RawScenario) **string { return &r.Weather }},
}

func newEstimateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Score a scenario and list safer time windows",
		Long: `Score a scenario read from flags, a TOML file, or both. Flags override
values from the file.

Example scenario.toml:

    person_type  = "Conductor"
    vehicle_type = "Turismo"
    age_range    = "25-34"
    sex          = "Hombre"
    district     = "CENTRO"
    weekday      = "Miércoles"
    time_window  = "Tarde_punta"
    weather      = "Lluvia debil"`,
		RunE: runEstimate,
	}
	cmd.Flags().String("file", "", "TOML scenario file")
	cmd.Flags().String("model", "", "model artifact path (default MODEL_PATH)")
	cmd.Flags().Bool("json", false, "print the estimate as JSON")
	for _, f := range scenarioFlags {
		cmd.Flags().String(f.name, "", f.usage)
	}
	return cmd
}

func runEstimate(cmd *cobra.Command, args []string) error {
	raw, err := readScenario(cmd)
	if err != nil {
		return err
	}

	path, _ := cmd.Flags().GetString("model")
	if path == "" {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		path = cfg.Model.ArtifactPath
	}
	log.Debug().Str("path", path).Msg("using model artifact")

	engine := risk.NewEngine(risk.NewGateway(path, nil))
	est, err := engine.Estimate(raw)
	if err != nil {
		return fmt.Errorf("estimate: %w", err)
	}
	if est == nil {
		return errors.New("scenario incomplete: every field is required (see --help)")
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(est)
	}
	printEstimate(cmd.OutOrStdout(), est)
	return nil
}

// readScenario merges the TOML file with explicit flags. Input is NFC
// normalized so decomposed accents match the fitted categories.
func readScenario(cmd *cobra.Command) (risk.RawScenario, error) {
	var raw risk.RawScenario
	if file, _ := cmd.Flags().GetString("file"); file != "" {
		if _, err := toml.DecodeFile(file, &raw); err != nil {
			return raw, fmt.Errorf("read scenario file: %w", err)
		}
	}
	for _, f := range scenarioFlags {
		if !cmd.Flags().Changed(f.name) {
			continue
		}
		v, _ := cmd.Flags().GetString(f.name)
		*f.field(&raw) = &v
	}
	for _, f := range scenarioFlags {
		if p := *f.field(&raw); p != nil {
			v := norm.NFC.String(*p)
			*f.field(&raw) = &v
		}
	}
	return raw, nil
}

func printEstimate(w io.Writer, est *risk.Estimate) {
	p := message.NewPrinter(language.Spanish)
	p.Fprintf(w, "Escenario seleccionado (%s): %.2f %%\n", est.Scenario.TimeWindow.Label(), est.Risk*100)
	p.Fprintf(w, "Probabilidad estimada de lesión grave o fallecimiento condicionada a que ocurra un accidente.\n")
	if len(est.Alternatives) == 0 {
		return
	}
	p.Fprintf(w, "\nFranjas alternativas:\n")
	for _, a := range est.Alternatives {
		p.Fprintf(w, "  %-28s %6.2f %%\n", a.Label, a.Risk*100)
	}
	if est.ModelVersion != "" {
		p.Fprintf(w, "\nModelo: %s\n", est.ModelVersion)
	}
}
