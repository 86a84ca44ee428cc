package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"meeting-insights-go/internal/app"
	"meeting-insights-go/internal/apperror"
	"meeting-insights-go/internal/pipeline"
	"meeting-insights-go/internal/report"
)

func newProcessCmd(root *rootOptions) *cobra.Command {
	var (
		translate bool
		backend   string
		out       string
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "process <audio-file>",
		Short: "Transcribe a recording and extract its summary and action items",
		Long: `Transcribe a recording and extract its summary and action items.

Without --out the text report is printed to stdout. With --out the report
format follows the file extension (.xlsx or .txt).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.build(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			audio, err := app.OpenFile(args[0])
			if err != nil {
				return err
			}

			req := pipeline.Request{Translate: translate, ForceBackend: backend}
			if root.verbose {
				req.OnState = func(s pipeline.State) {
					fmt.Fprintf(cmd.ErrOrStderr(), "» %s\n", s)
				}
			}

			res, err := a.Orchestrator.Run(cmd.Context(), audio, req)
			if err != nil {
				if hint := apperror.Hint(err); hint != "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "hint: %s\n", hint)
				}
				return err
			}

			switch {
			case asJSON:
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			case out == "":
				return report.WriteText(cmd.OutOrStdout(), res)
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create report: %w", err)
			}
			defer f.Close()
			if err := report.Write(f, formatFor(out), res); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "report written to %s (%d action items)\n", out, len(res.ActionItems))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&translate, "translate", "t", false, "translate non-English speech to English")
	cmd.Flags().StringVarP(&backend, "backend", "b", "", "force a transcription backend (groq, assemblyai)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the report to this file (.txt or .xlsx)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	return cmd
}

func formatFor(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return "xlsx"
	}
	return "txt"
}
