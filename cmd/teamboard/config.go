package main

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tgienger/teamboard/internal/config"
)

// configCmd implements 'teamboard config'.
func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Run: func(_ *cobra.Command, _ []string) {
			data, err := yaml.Marshal(cfg)
			if err != nil {
				printError(err)
			}
			printOutput(string(data))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the default config file location",
		Run: func(_ *cobra.Command, _ []string) {
			printOutput(config.DefaultPath() + "\n")
		},
	})

	return cmd
}
