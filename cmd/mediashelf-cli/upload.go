package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/ptrevino/mediashelf/clientcli"
)

var (
	uploadRecursive   bool
	uploadContentType string
	uploadTTL         int
)

var uploadCmd = &cobra.Command{
	Use:   "upload <local-path> <key>",
	Short: "Upload files to the object store",
	Long: `Upload files to the object store through gateway-minted presigned URLs.

The key must carry a valid namespace prefix (audio/, book/, image/, ...).
For recursive uploads the key is used as a prefix and each file's path
relative to the directory is appended to it.

Examples:
  mediashelf-cli upload ./track.flac audio/album/track.flac
  mediashelf-cli upload -r ./albums audio
  mediashelf-cli upload --content-type image/webp ./cover image-thumb/album.webp`,
	Args: cobra.ExactArgs(2),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().BoolVarP(&uploadRecursive, "recursive", "r", false, "upload directory recursively")
	uploadCmd.Flags().StringVarP(&uploadContentType, "content-type", "t", "", "override content-type")
	uploadCmd.Flags().IntVar(&uploadTTL, "ttl", 0, "presigned URL validity in seconds (0 = gateway default)")
}

func runUpload(_ *cobra.Command, args []string) error {
	localPath := args[0]
	key := args[1]

	client, err := getClient()
	if err != nil {
		return handleError(err)
	}

	opts := clientcli.UploadOptions{
		LocalPath:   localPath,
		Key:         key,
		ContentType: uploadContentType,
		Recursive:   uploadRecursive,
		TTLSeconds:  uploadTTL,
	}

	results, err := client.Upload(context.Background(), opts)
	if err != nil {
		return handleError(err)
	}

	formatter := getFormatter()
	if err := formatter.FormatUpload(os.Stdout, results); err != nil {
		return err
	}

	// Check for any errors in results
	for i := range results {
		if results[i].Err != nil {
			return results[i].Err
		}
	}

	return nil
}
