package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ptrevino/mediashelf/clientcli"
)

var (
	version = "dev"

	cfgFile     string
	profileName string
	endpoint    string
	jsonOutput  bool
	quiet       bool
)

var rootCmd = &cobra.Command{
	Use:     "mediashelf-cli",
	Version: version,
	Short:   "Client for mediashelf gateways",
	Long: `Mediashelf CLI - Client for a mediashelf streaming gateway

Uploads are sent directly to the object store through presigned URLs
minted by the gateway. Downloads stream through the gateway and can
resume partial transfers.

Keys are namespaced storage paths, for example:
  audio/album/track.flac
  book/novel.epub
  video/8f2c1a/movie.mkv`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.mediashelf/config.yaml, env: MEDIASHELF_CONFIG)")
	rootCmd.PersistentFlags().StringVarP(&profileName, "profile", "p", "", "profile to use (env: MEDIASHELF_PROFILE)")
	rootCmd.PersistentFlags().StringVarP(&endpoint, "endpoint", "e", "", "gateway URL (default: http://localhost:8080, env: MEDIASHELF_ENDPOINT)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")

	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(urlCmd)
	rootCmd.AddCommand(configureCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// getConfigPath resolves the config file path: flag, then env, then default.
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if path := clientcli.ConfigPathFromEnv(); path != "" {
		return path
	}
	return clientcli.DefaultConfigPath()
}

// buildConfig merges config from profile, env vars, and flags (flags take precedence).
func buildConfig() (*clientcli.Config, error) {
	var configs []*clientcli.Config

	// 1. Resolve a profile from the config file
	name := profileName
	if name == "" {
		name = clientcli.ProfileFromEnv()
	}

	configPath := getConfigPath()
	if configPath != "" {
		fileCfg, err := clientcli.LoadConfigFile(configPath)
		switch {
		case err != nil && cfgFile != "":
			// Only error if user explicitly specified a config file
			return nil, err
		case err == nil:
			p, profileErr := fileCfg.GetProfile(name)
			if profileErr != nil {
				// A profile the user asked for must resolve; a missing
				// default is fine, flags and env can still configure us.
				if name != "" {
					return nil, profileErr
				}
			} else {
				configs = append(configs, clientcli.ConfigFromProfile(p))
			}
		}
	}

	// 2. Load from environment variables
	configs = append(configs, clientcli.ConfigFromEnv())

	// 3. Load from flags
	configs = append(configs, &clientcli.Config{Endpoint: endpoint})

	return clientcli.MergeConfig(configs...), nil
}

// getFormatter returns the appropriate formatter based on flags.
func getFormatter() clientcli.Formatter {
	return clientcli.NewFormatter(jsonOutput, quiet)
}

// getClient creates and returns a configured client.
func getClient() (*clientcli.Client, error) {
	cfg, err := buildConfig()
	if err != nil {
		return nil, err
	}

	return clientcli.New(cfg)
}

// handleError prints the error through the active formatter and returns it
// so the process exits non-zero. Root has SilenceErrors set, so this is the
// only place errors reach the terminal.
func handleError(err error) error {
	formatter := getFormatter()
	_ = formatter.FormatError(os.Stderr, err)
	return err
}
