// Package clientcli provides a client library for interacting with mediashelf gateways.
//
// Uploads go through presigned URLs minted by the gateway: the client requests
// a presigned PUT and sends the file straight to the object store. Downloads
// stream through the gateway's media endpoint and can resume partial files
// with HTTP range requests. The package includes profile-based configuration
// for managing connections to multiple gateways.
//
// # Basic Usage
//
// Create a client and upload a file:
//
//	cfg := &clientcli.Config{
//		Endpoint: "http://localhost:8080",
//	}
//
//	client, err := clientcli.New(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	results, err := client.Upload(ctx, clientcli.UploadOptions{
//		LocalPath: "./track.flac",
//		Key:       "audio/track.flac",
//	})
//
// # Resumable Downloads
//
// Downloads pick up where a previous transfer stopped:
//
//	result, err := client.Download(ctx, clientcli.DownloadOptions{
//		Key:       "video/8f2c1a/movie.mkv",
//		LocalPath: "./movie.mkv",
//		Resume:    true,
//	})
//
// # Profile Configuration
//
// Use profiles to manage multiple gateway configurations:
//
//	configFile, err := clientcli.LoadConfigFile("~/.mediashelf/config.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	profile, err := configFile.GetProfile("homelab")
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
//	formatter.FormatUpload(os.Stdout, results)
package clientcli
