// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the ace CLI. ace turns batches of
// academic-paper files into verified bibliographic records: it groups input
// files into cases, runs model extraction over them with bounded
// concurrency, and exports successful cases as Elsevier-style XML.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/apeiro/ace/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// apiKey resolves the model credential: explicit flag value first, then
// the ACE_GEMINI_API_KEY environment, then the key file.
func apiKey(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := viper.GetString("gemini_api_key"); v != "" {
		return v
	}
	return loadedSecrets[secrets.GeminiAPIKey]
}

// rootCmd is the base command for the ace CLI.
var rootCmd = &cobra.Command{
	Use:   "ace",
	Short: "Case-managed metadata extraction for academic papers",
	Long: `ace extracts bibliographic metadata (title, authors, affiliations,
references) from academic-paper PDFs through a generative model, cross-checks
identifiers and titles against HTML, scrape, and API source files, and exports
verified records as Elsevier-style XML.

Each batch of input files becomes a session of cases. Cases process
concurrently under a fixed limit; finished sessions can be archived and
listed later.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		s, err := secrets.Load(secrets.DefaultDir)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./ace.yaml or ~/.config/ace/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("ace")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "ace"))
		}
	}

	viper.SetEnvPrefix("ACE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
