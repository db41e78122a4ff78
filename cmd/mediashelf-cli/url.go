package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/ptrevino/mediashelf/clientcli"
)

var (
	urlUpload      bool
	urlTTL         int
	urlContentType string
)

var urlCmd = &cobra.Command{
	Use:   "url <key>",
	Short: "Mint a presigned URL for direct store access",
	Long: `Mint a store-signed URL for transferring an object without going
through the gateway. Download URLs are the default; --upload mints a
PUT URL instead.

The bare URL prints on the first line, so the output can be piped:

  curl -o movie.mkv "$(mediashelf-cli url -q video/8f2c1a/movie.mkv)"

Examples:
  mediashelf-cli url audio/album/track.flac
  mediashelf-cli url --ttl 60 video/8f2c1a/movie.mkv
  mediashelf-cli url --upload --content-type audio/flac audio/new.flac`,
	Args: cobra.ExactArgs(1),
	RunE: runURL,
}

func init() {
	urlCmd.Flags().BoolVar(&urlUpload, "upload", false, "mint an upload URL instead of a download URL")
	urlCmd.Flags().IntVar(&urlTTL, "ttl", 0, "URL validity in seconds (0 = gateway default)")
	urlCmd.Flags().StringVarP(&urlContentType, "content-type", "t", "", "content-type the upload must carry")
}

func runURL(_ *cobra.Command, args []string) error {
	key := args[0]

	client, err := getClient()
	if err != nil {
		return handleError(err)
	}

	ctx := context.Background()

	var presigned *clientcli.Presigned
	if urlUpload {
		presigned, err = client.PresignUpload(ctx, key, urlContentType, urlTTL)
	} else {
		presigned, err = client.PresignDownload(ctx, key, urlTTL)
	}
	if err != nil {
		return handleError(err)
	}

	formatter := getFormatter()
	return formatter.FormatURL(os.Stdout, presigned)
}
