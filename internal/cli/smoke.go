package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/petfriends-harness/internal/app"
	"github.com/samvad-hq/petfriends-harness/internal/harness"
	"github.com/samvad-hq/petfriends-harness/internal/storage"
)

func newSmokeCmd(rt *runtime) *cobra.Command {
	var scenarios []string
	var list bool
	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Run the smoke scenarios against the configured deployment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if list {
				for _, sc := range harness.Scenarios() {
					fmt.Fprintf(out, "%-34s %s\n", sc.Name, sc.Description)
				}
				return nil
			}

			runner, err := app.NewSmokeRunner(cmd.Context(), rt.cfg, rt.log)
			if err != nil {
				return err
			}
			defer func() {
				if err := runner.Close(); err != nil {
					rt.log.ErrorObj("smoke runner close failed", "error", err)
				}
			}()
			if err := runner.Select(scenarios...); err != nil {
				return err
			}

			report, runErr := runner.Run(cmd.Context())
			for _, o := range report.Outcomes {
				status := "PASS"
				if !o.Passed() {
					status = "FAIL"
				}
				fmt.Fprintf(out, "%s %-34s %s\n", status, o.Scenario, o.Elapsed.Round(time.Millisecond))
			}
			fmt.Fprintf(out, "run %s: %d scenarios, %d failed\n", report.RunID, len(report.Outcomes), report.Failed())
			return runErr
		},
	}
	cmd.Flags().StringSliceVar(&scenarios, "scenario", nil, "Run only the named scenarios (repeatable).")
	cmd.Flags().BoolVar(&list, "list", false, "List the scenarios and exit.")
	return cmd
}

func newHistoryCmd(rt *runtime) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded smoke outcomes, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := storage.NewStore(rt.cfg.StorageType, rt.cfg.BBoltPath, storage.Options{
				RecordTTL:       rt.cfg.StorageTTL,
				CleanupInterval: rt.cfg.StorageCleanupInterval,
			})
			if err != nil {
				return fmt.Errorf("init storage: %w", err)
			}
			defer store.Close()

			recs, err := store.Recent(limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, rec := range recs {
				status := "PASS"
				if !rec.Passed {
					status = "FAIL"
				}
				fmt.Fprintf(out, "%s %s %s %-34s %dms", rec.FinishedAt.Format(time.RFC3339), rec.RunID, status, rec.Scenario, rec.ElapsedMs)
				if rec.Error != "" {
					fmt.Fprintf(out, " %s", rec.Error)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of records to show.")
	return cmd
}
