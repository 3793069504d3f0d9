package cmd

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/ovitag/porterbot/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the REST API and web UI",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := newLogger(cfg)

		bot, exec, cache, llmName, err := buildBot(cfg, log)
		if err != nil {
			return err
		}

		srv := server.New(bot, exec, cache, cfg, llmName, log)

		log.Info().
			Str("addr", cfg.Addr).
			Str("driver", cfg.Driver).
			Str("llm", llmName).
			Msg("listening")

		return http.ListenAndServe(cfg.Addr, srv.Router())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
