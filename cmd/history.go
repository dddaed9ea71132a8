package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/polyfold/polychat/pkg/api"
	"github.com/polyfold/polychat/pkg/config"
	"github.com/polyfold/polychat/pkg/conversation"
	"github.com/polyfold/polychat/pkg/history"
)

var historyCmd = &cobra.Command{
	Use:   "history <conversation-id>",
	Short: "Print a persisted conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings := config.Get()
		client := api.NewClientWithTimeout(settings.API.URL, settings.API.Timeout)
		cache := history.NewCache(client)

		turns, err := cache.Load(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		r := newRenderer(os.Stdout)
		for _, t := range turns {
			switch tt := t.(type) {
			case *conversation.UserTurn:
				fmt.Fprintf(os.Stdout, "\n> %s\n", tt.Content)
			case *conversation.ComparisonTurn:
				r.printComparison(tt)
			case *conversation.AssistantTurn:
				fmt.Fprintf(os.Stdout, "\n%s\n%s\n", modelStyle.Render(tt.ModelID), tt.Content)
			}
		}
		return nil
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <conversation-id>",
	Short: "Delete a persisted conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings := config.Get()
		client := api.NewClientWithTimeout(settings.API.URL, settings.API.Timeout)
		cache := history.NewCache(client)

		if err := cache.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, "deleted")
		return nil
	},
}

func init() {
	historyCmd.AddCommand(historyDeleteCmd)
	rootCmd.AddCommand(historyCmd)
}
