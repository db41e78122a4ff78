package main

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ptrevino/mediashelf/clientcli"
)

var (
	downloadOutput string
	downloadStdout bool
	downloadResume bool
)

var downloadCmd = &cobra.Command{
	Use:   "download <key> [local-path]",
	Short: "Download an object through the gateway",
	Long: `Download an object, streamed through the gateway.

Without a local path the file lands in the current directory under the
key's final segment. With --resume an existing partial file continues
from where it stopped instead of starting over.

Examples:
  mediashelf-cli download audio/album/track.flac
  mediashelf-cli download video/8f2c1a/movie.mkv ./movie.mkv
  mediashelf-cli download --resume video/8f2c1a/movie.mkv ./movie.mkv
  mediashelf-cli download --stdout book/notes.epub > notes.epub`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "", "output file path")
	downloadCmd.Flags().BoolVar(&downloadStdout, "stdout", false, "write to stdout")
	downloadCmd.Flags().BoolVar(&downloadResume, "resume", false, "continue a partial download")
}

func runDownload(_ *cobra.Command, args []string) error {
	key := args[0]

	// Determine local path; empty means derive from the key
	localPath := ""
	if len(args) > 1 {
		localPath = args[1]
	}
	if downloadOutput != "" {
		localPath = downloadOutput
	}
	if downloadStdout {
		localPath = "-"
	}

	client, err := getClient()
	if err != nil {
		return handleError(err)
	}

	opts := clientcli.DownloadOptions{
		Key:       key,
		LocalPath: localPath,
		Resume:    downloadResume,
	}

	result, reader, err := client.Download(context.Background(), opts)
	if err != nil {
		return handleError(err)
	}

	// If stdout, write content to stdout
	if reader != nil {
		defer func() { _ = reader.Close() }()
		_, err := io.Copy(os.Stdout, reader)
		if err != nil {
			return err
		}
		// Don't print metadata when writing to stdout (unless JSON mode)
		if jsonOutput {
			formatter := getFormatter()
			return formatter.FormatDownload(os.Stderr, result)
		}
		return nil
	}

	formatter := getFormatter()
	return formatter.FormatDownload(os.Stdout, result)
}
