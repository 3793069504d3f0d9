package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that the environment configuration is complete",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		fmt.Printf("configuration ok: driver=%s llm=%s addr=%s\n", cfg.Driver, cfg.LLMProvider, cfg.Addr)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
