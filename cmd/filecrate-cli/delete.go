package main

import (
	"context"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <file-id> [file-id...]",
	Short: "Delete files from the server",
	Long: `Delete one or more file records and their stored objects.

Requires a bearer token.

Examples:
  filecrate-cli delete 3b2a6c1e-...
  filecrate-cli delete 3b2a6c1e-... 9f41d07b-...`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDelete,
}

func runDelete(_ *cobra.Command, args []string) error {
	ids := make([]uuid.UUID, 0, len(args))
	for _, arg := range args {
		id, err := uuid.Parse(arg)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	results, err := client.Delete(context.Background(), ids)
	if err != nil {
		formatter := getFormatter()
		_ = formatter.FormatError(os.Stderr, err)
		return err
	}

	formatter := getFormatter()
	if err := formatter.FormatDelete(os.Stdout, results); err != nil {
		return err
	}

	// Return error if any deletes failed
	for i := range results {
		if results[i].Err != nil {
			return &exitError{code: 1}
		}
	}

	return nil
}

// exitError is returned when we want to exit with a specific code
// but don't want cobra to print an error message.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return ""
}
