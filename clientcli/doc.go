// Package clientcli provides a client library for interacting with filecrate servers.
//
// It drives the client-side multipart upload protocol (start, per-part signed
// URLs, part registration, complete) and supports list and delete operations
// with bearer token authentication. The package includes profile-based
// configuration for managing connections to multiple servers.
//
// # Basic Usage
//
// Create a client and upload a file:
//
//	cfg := &clientcli.Config{
//		Endpoint: "http://localhost:5000",
//		Token:    "your-bearer-token",
//	}
//
//	client, err := clientcli.New(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := client.Upload(ctx, clientcli.UploadOptions{
//		LocalPath:  "./video.mp4",
//		RemotePath: "media/video.mp4",
//	})
//
// The upload is split into parts; each part is PUT directly to the object
// store through a pre-signed URL and its ETag reported back to the server.
// If any part fails the upload is aborted server-side.
//
// # Profile Configuration
//
// Use profiles to manage multiple server configurations:
//
//	configFile, err := clientcli.LoadConfigFile("~/.filecrate/config.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	profile, err := configFile.GetProfile("production")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	cfg := clientcli.ConfigFromProfile(profile)
//	client, err := clientcli.New(cfg)
//
// # Output Formatting
//
// Use formatters for human-readable or JSON output:
//
//	formatter := clientcli.NewFormatter(jsonOutput, quiet)
//	formatter.FormatUpload(os.Stdout, result)
package clientcli
