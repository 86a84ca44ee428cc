package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"meeting-insights-go/internal/app"
	"meeting-insights-go/internal/apperror"
)

func newRouteCmd(root *rootOptions) *cobra.Command {
	var backend string
	cmd := &cobra.Command{
		Use:   "route <audio-file>",
		Short: "Show which transcription backend would handle a recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.build(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			audio, err := app.OpenFile(args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, row := range a.Router.Table() {
				fmt.Fprintf(w, "  %-12s max=%6d MB available=%t\n", row.Name, row.MaxSize/(1024*1024), row.Available)
			}

			plan, err := a.Router.Plan(audio.Size, backend)
			if err != nil {
				if hint := apperror.Hint(err); hint != "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "hint: %s\n", hint)
				}
				return err
			}
			fmt.Fprintf(w, "%s (%.1f MB) -> %s, about %d min\n", audio.Name, audio.SizeMB(), plan.Backend, plan.EstimatedMinutes)
			return nil
		},
	}
	cmd.Flags().StringVarP(&backend, "backend", "b", "", "check a specific backend instead of automatic routing")
	return cmd
}
