package main

import (
	"context"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/avelts/filecrate/clientcli"
)

var (
	uploadContentType string
	uploadFolderID    string
	uploadConcurrency int
)

var uploadCmd = &cobra.Command{
	Use:   "upload <local-path> [remote-path]",
	Short: "Upload a file to the server",
	Long: `Upload a file through the multipart protocol.

The file is split into parts and each part is PUT directly to the object
store through a pre-signed URL issued by the server. If any part fails,
the upload is aborted and nothing is committed.

Examples:
  filecrate-cli upload ./video.mp4
  filecrate-cli upload ./video.mp4 media/video.mp4
  filecrate-cli upload --folder 3b2a... ./report.pdf`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVar(&uploadContentType, "content-type", "", "override content-type")
	uploadCmd.Flags().StringVar(&uploadFolderID, "folder", "", "folder id to file the record under")
	uploadCmd.Flags().IntVar(&uploadConcurrency, "concurrency", clientcli.DefaultConcurrency, "parallel part uploads")
}

func runUpload(_ *cobra.Command, args []string) error {
	localPath := args[0]
	remotePath := ""
	if len(args) > 1 {
		remotePath = args[1]
	}

	var folderID *uuid.UUID
	if uploadFolderID != "" {
		id, err := uuid.Parse(uploadFolderID)
		if err != nil {
			return err
		}
		folderID = &id
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	opts := clientcli.UploadOptions{
		LocalPath:   localPath,
		RemotePath:  remotePath,
		ContentType: uploadContentType,
		FolderID:    folderID,
		Concurrency: uploadConcurrency,
	}

	result, err := client.Upload(context.Background(), opts)
	if err != nil {
		formatter := getFormatter()
		_ = formatter.FormatError(os.Stderr, err)
		return err
	}

	formatter := getFormatter()
	return formatter.FormatUpload(os.Stdout, result)
}
