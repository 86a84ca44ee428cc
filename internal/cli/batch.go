package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"
	"meeting-insights-go/internal/app"
	"meeting-insights-go/internal/manifest"
	"meeting-insights-go/internal/pipeline"
	"meeting-insights-go/internal/report"
	"meeting-insights-go/internal/types"
	"meeting-insights-go/internal/workpool"
)

const batchSummaryFile = "batch_summary.xlsx"

type batchOutcome struct {
	entry  manifest.Entry
	result types.PipelineResult
	report string
	err    error
}

func newBatchCmd(root *rootOptions) *cobra.Command {
	var (
		outDir   string
		format   string
		parallel int
	)
	cmd := &cobra.Command{
		Use:   "batch <manifest.xlsx>",
		Short: "Process every recording listed in an xlsx manifest",
		Long: `Process every recording listed in an xlsx manifest.

The first sheet needs an audio column (local path or URL). Optional columns:
id, translate, backend. One report per row is written to --out-dir together
with batch_summary.xlsx. A failed row does not stop the batch.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "txt" && format != "xlsx" {
				return fmt.Errorf("--format must be txt or xlsx")
			}
			entries, err := manifest.Load(args[0])
			if err != nil {
				return fmt.Errorf("load manifest: %w", err)
			}
			if len(entries) == 0 {
				return fmt.Errorf("manifest %s lists no recordings", args[0])
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("create out dir: %w", err)
			}

			a, err := root.build(cmd.Context(), cmd)
			if err != nil {
				return err
			}

			prog := newProgress(cmd.ErrOrStderr(), root.progress || isTTY(cmd.ErrOrStderr()))
			bar := prog.bar(len(entries), "Processing meetings")

			outcomes := runBatch(cmd.Context(), a, entries, outDir, format, parallel, func() {
				if bar != nil {
					bar.Increment()
				}
			})
			prog.wait()

			summaryPath := filepath.Join(outDir, batchSummaryFile)
			if err := writeBatchSummary(summaryPath, outcomes); err != nil {
				return fmt.Errorf("write batch summary: %w", err)
			}

			failed := 0
			for _, o := range outcomes {
				if o.err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "row %d (%s): %v\n", o.entry.Row, o.entry.ID, o.err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "processed %d recordings, %d failed; summary in %s\n",
				len(outcomes), failed, summaryPath)
			if failed == len(outcomes) {
				return fmt.Errorf("all %d recordings failed", failed)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out-dir", "d", "reports", "directory for reports")
	cmd.Flags().StringVarP(&format, "format", "f", "txt", "report format: txt or xlsx")
	cmd.Flags().IntVarP(&parallel, "parallel", "p", 1, "recordings processed at once")
	return cmd
}

// runBatch processes entries with up to parallel workers. Outcomes are
// returned in manifest order.
func runBatch(ctx context.Context, a *app.App, entries []manifest.Entry, outDir, format string, parallel int, done func()) []batchOutcome {
	outcomes := make([]batchOutcome, len(entries))
	names := reportNames(entries)
	sem := workpool.NewLimiter(parallel)
	var wg sync.WaitGroup

	for i, e := range entries {
		if err := sem.Acquire(ctx); err != nil {
			outcomes[i] = batchOutcome{entry: e, err: err}
			done()
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release()
			outcomes[i] = processEntry(ctx, a, e, filepath.Join(outDir, names[i]), format)
			done()
		}()
	}
	wg.Wait()
	return outcomes
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// reportNames gives each entry a report base name. IDs that collide after
// sanitizing get their manifest row appended so no report overwrites another.
func reportNames(entries []manifest.Entry) []string {
	base := make([]string, len(entries))
	seen := map[string]int{}
	for i, e := range entries {
		base[i] = unsafeName.ReplaceAllString(e.ID, "_")
		seen[strings.ToLower(base[i])]++
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = base[i] + "_report"
		if seen[strings.ToLower(base[i])] > 1 {
			names[i] = fmt.Sprintf("%s_row%d_report", base[i], e.Row)
		}
	}
	return names
}

func processEntry(ctx context.Context, a *app.App, e manifest.Entry, reportBase, format string) batchOutcome {
	out := batchOutcome{entry: e}
	log := a.Log.WithField("row", e.Row).WithField("id", e.ID)

	var (
		audio types.AudioInput
		err   error
	)
	if e.IsURL() {
		audio, err = app.Fetch(ctx, e.Audio, a.Config.Server.UploadMaxBytes())
	} else {
		audio, err = app.OpenFile(e.Audio)
	}
	if err != nil {
		out.err = err
		log.WithError(err).Warn("batch entry skipped")
		return out
	}

	out.result, out.err = a.Orchestrator.Run(ctx, audio, pipeline.Request{Translate: e.Translate, ForceBackend: e.Backend})
	if out.err != nil {
		return out
	}

	_, ext := report.ContentType(format)
	out.report = reportBase + ext
	f, err := os.Create(out.report)
	if err != nil {
		out.err = err
		return out
	}
	defer f.Close()
	if err := report.Write(f, format, out.result); err != nil {
		out.err = err
	}
	return out
}

func writeBatchSummary(path string, outcomes []batchOutcome) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Batch"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	header := []any{"Row", "ID", "Audio", "Status", "Backend", "Action Items", "Failed Chunks", "Duration (s)", "Report", "Error"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, o := range outcomes {
		status, errText := "ok", ""
		if o.err != nil {
			status, errText = "failed", o.err.Error()
		} else if len(o.result.Diagnostics.ChunkFailures) > 0 || o.result.Diagnostics.SummaryError != "" {
			status = "degraded"
		}
		row := []any{
			o.entry.Row, o.entry.ID, o.entry.Audio, status,
			o.result.Transcript.Backend, len(o.result.ActionItems), len(o.result.Diagnostics.ChunkFailures),
			(time.Duration(o.result.DurationMs) * time.Millisecond).Seconds(), o.report, errText,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}
