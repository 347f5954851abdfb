package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/avelts/filecrate/config"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Report drift between the bucket and the metadata store",
	Long: `Compare the bucket listing against the file records and report drift
in both directions:
  - records whose object is missing from the bucket
  - objects in the bucket that carry no record

Nothing is deleted or repaired; the report is for operators. Drift can
appear when a pre-signed PUT lands without a follow-up record, or when a
metadata write fails after the store has committed an upload.`,
	RunE: runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	coordinator, cleanup, err := buildCoordinator(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := coordinator.Reconcile(ctx)
	if err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}

	if report.InSync() {
		slog.Info("bucket and metadata store are in sync")
		return nil
	}

	for _, rec := range report.RecordsMissingObject {
		slog.Warn("record missing object", "id", rec.ID, "filename", rec.Filename, "path", rec.Path)
	}
	for _, entry := range report.ObjectsMissingRecord {
		slog.Warn("object missing record", "key", entry.Key, "size", entry.Size)
	}

	slog.Info("reconcile complete",
		"records_missing_object", len(report.RecordsMissingObject),
		"objects_missing_record", len(report.ObjectsMissingRecord))
	return nil
}
