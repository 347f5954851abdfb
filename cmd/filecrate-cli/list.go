package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List your file records",
	Long: `List the file records owned by the authenticated user.

Requires a bearer token.

Examples:
  filecrate-cli files
  filecrate-cli files --json`,
	Args: cobra.NoArgs,
	RunE: runFiles,
}

var bucketCmd = &cobra.Command{
	Use:   "bucket",
	Short: "List every object in the server's bucket",
	Long: `List every object in the bucket backing the server, including
objects without a file record.

Examples:
  filecrate-cli bucket
  filecrate-cli bucket --json`,
	Args: cobra.NoArgs,
	RunE: runBucket,
}

func runFiles(_ *cobra.Command, _ []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	files, err := client.Files(context.Background())
	if err != nil {
		formatter := getFormatter()
		_ = formatter.FormatError(os.Stderr, err)
		return err
	}

	formatter := getFormatter()
	return formatter.FormatFiles(os.Stdout, files)
}

func runBucket(_ *cobra.Command, _ []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	entries, err := client.ListBucket(context.Background())
	if err != nil {
		formatter := getFormatter()
		_ = formatter.FormatError(os.Stderr, err)
		return err
	}

	formatter := getFormatter()
	return formatter.FormatBucket(os.Stdout, entries)
}
