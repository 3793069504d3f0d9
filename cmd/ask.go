package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ovitag/porterbot/internal/chat"
)

var askLimit int

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a single question from the terminal",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := newLogger(cfg)

		bot, _, _, _, err := buildBot(cfg, log)
		if err != nil {
			return err
		}

		question := strings.Join(args, " ")
		answer, err := bot.Ask(context.Background(), question, chat.Options{Limit: askLimit})
		if err != nil {
			kind, message, hint := chat.Describe(err, question)
			fmt.Fprintf(os.Stderr, "%s: %s\n", kind, message)
			if hint != "" {
				fmt.Fprintln(os.Stderr, hint)
			}
			os.Exit(1)
		}

		fmt.Println(answer.Summary)
		fmt.Println()
		printResult(answer)
		fmt.Println()
		fmt.Println("SQL:", answer.SQL)
		return nil
	},
}

func printResult(answer *chat.Answer) {
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(answer.Result.Columns, "\t"))
	for _, row := range answer.Result.Rows {
		cells := make([]string, len(answer.Result.Columns))
		for i, col := range answer.Result.Columns {
			cells[i] = fmt.Sprint(row[col])
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	w.Flush()
}

func init() {
	askCmd.Flags().IntVar(&askLimit, "limit", 0, "row limit (0 uses the configured default)")
	rootCmd.AddCommand(askCmd)
}
