package main

import (
	"fmt"

	"road-risk-api/risk"

	"github.com/spf13/cobra"
)

func newVocabCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vocab",
		Short: "Print the offered values per column, optionally checked against a model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			vocab := risk.DefaultVocabulary()

			check, _ := cmd.Flags().GetString("check")
			if check == "" {
				fmt.Fprintf(out, "schema %s\n", vocab.SchemaVersion)
				for _, col := range risk.Columns {
					fmt.Fprintf(out, "%s:\n", col)
					for _, o := range vocab.Options[col] {
						fmt.Fprintf(out, "  %-16s %s\n", o.Value, o.Label)
					}
				}
				return nil
			}

			gaps, err := risk.NewEngine(risk.NewGateway(check, nil)).VocabularyGaps(vocab)
			if err != nil {
				return fmt.Errorf("check vocabulary: %w", err)
			}
			if len(gaps) == 0 {
				fmt.Fprintln(out, "ok: every offered value is known to the model")
				return nil
			}
			for _, g := range gaps {
				fmt.Fprintf(out, "unknown %s=%q\n", g.Column, g.Value)
			}
			return fmt.Errorf("%d offered values unknown to the model", len(gaps))
		},
	}
	cmd.Flags().String("check", "", "model artifact to check the vocabulary against")
	return cmd
}
