package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/polyfold/polychat/pkg/api"
	"github.com/polyfold/polychat/pkg/config"
	"github.com/polyfold/polychat/pkg/models"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the model catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings := config.Get()
		client := api.NewClientWithTimeout(settings.API.URL, settings.API.Timeout)
		provider := models.NewCatalogProvider(client)

		catalog, err := provider.ListModels(cmd.Context())
		if err != nil {
			return err
		}

		for _, m := range catalog {
			line := fmt.Sprintf("%-32s %s", m.ID, modelStyle.Render(m.Name))
			if m.Provider != "" {
				line += dimStyle.Render("  " + m.Provider)
			}
			if m.GeneratesImages {
				line += dimStyle.Render("  [image-gen]")
			}
			fmt.Fprintln(os.Stdout, line)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
