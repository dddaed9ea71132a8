package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/polyfold/polychat/pkg/api"
	"github.com/polyfold/polychat/pkg/config"
	"github.com/polyfold/polychat/pkg/conversation"
	"github.com/polyfold/polychat/pkg/logger"
	"github.com/polyfold/polychat/pkg/models"
	"github.com/polyfold/polychat/pkg/orchestrator"
	"github.com/polyfold/polychat/pkg/scheduler"
	"github.com/polyfold/polychat/pkg/tokens"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "polychat",
	Short: "Compare models side by side",
	Long:  `Send one prompt to several language models at once and watch the responses stream in parallel.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings := config.Get()

		selected := viper.GetStringSlice("chat.models")
		if len(selected) == 0 {
			return fmt.Errorf("no models selected: pass --models or set chat.models")
		}

		client := api.NewClientWithTimeout(settings.API.URL, settings.API.Timeout)
		provider := models.NewCatalogProvider(client)

		ctx := cmd.Context()
		resolved, err := provider.Resolve(ctx, selected)
		if err != nil {
			return err
		}

		selectedModels := make([]conversation.SelectedModel, 0, len(resolved))
		for _, m := range resolved {
			selectedModels = append(selectedModels, conversation.SelectedModel{ID: m.ID, Name: m.Name})
		}

		store := conversation.NewStore()
		sched := scheduler.New(store, scheduler.WithInterval(settings.Chat.ThrottleInterval))

		opts := []orchestrator.Option{
			orchestrator.WithWebSearch(settings.Chat.WebSearch),
			orchestrator.WithRefreshSignal(func() {
				go refreshBalance(client)
			}),
		}
		if settings.Decentralized.Enabled {
			opts = append(opts, orchestrator.WithDecentralized(settings.Decentralized.PreferredNode))
		}
		orch := orchestrator.New(store, sched, client, opts...)

		counter, err := tokens.NewCounter()
		if err != nil {
			logger.Warn("token counter unavailable: %v", err)
		}

		session := &chatSession{
			store:    store,
			orch:     orch,
			models:   selectedModels,
			counter:  counter,
			renderer: newRenderer(os.Stdout),
		}

		if prompt := viper.GetString("prompt"); prompt != "" {
			return session.send(ctx, prompt)
		}
		return session.interact(ctx)
	},
}

type chatSession struct {
	store    *conversation.Store
	orch     *orchestrator.Orchestrator
	models   []conversation.SelectedModel
	counter  *tokens.Counter
	renderer *renderer
}

// send runs one prompt against all selected models and renders the
// comparison once every stream has settled
func (s *chatSession) send(ctx context.Context, prompt string) error {
	if s.counter != nil {
		estimate := s.counter.CountText(prompt)
		s.renderer.printEstimate(estimate)
	}

	before := s.store.Len()
	if err := s.orch.Send(ctx, prompt, s.models, nil); err != nil {
		return err
	}

	for _, t := range s.store.Snapshot()[before:] {
		if ct, ok := t.(*conversation.ComparisonTurn); ok {
			s.renderer.printComparison(ct)
		}
	}
	return nil
}

// interact runs the read-send-render loop until EOF
func (s *chatSession) interact(ctx context.Context) error {
	s.renderer.printBanner(s.models)

	unsubscribe := s.store.Subscribe(s.renderer.tick)
	defer unsubscribe()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		s.renderer.printPrompt()
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			break
		}
		if line == "/new" {
			s.orch.Reset()
			s.store.Reset(nil)
			s.renderer.printInfo("started a new conversation")
			continue
		}

		if err := s.send(ctx, line); err != nil {
			s.renderer.printError(err)
		}
	}
	return scanner.Err()
}

func refreshBalance(client *api.Client) {
	balance, err := client.Balance(context.Background())
	if err != nil {
		logger.Debug("balance refresh failed: %v", err)
		return
	}
	logger.Debug("balance: %.4f USD available", balance.AvailableUSD)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is .polychat/settings.yaml)")

	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level")
	viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.PersistentFlags().StringSliceP("models", "m", nil, "model ids to compare")
	viper.BindPFlag("chat.models", rootCmd.PersistentFlags().Lookup("models"))

	rootCmd.PersistentFlags().Bool("web-search", false, "enable web search")
	viper.BindPFlag("chat.web_search", rootCmd.PersistentFlags().Lookup("web-search"))

	rootCmd.PersistentFlags().Bool("decentralized", false, "route requests through decentralized mode")
	viper.BindPFlag("decentralized.enabled", rootCmd.PersistentFlags().Lookup("decentralized"))

	rootCmd.PersistentFlags().String("node", "", "preferred node address in decentralized mode")
	viper.BindPFlag("decentralized.preferred_node", rootCmd.PersistentFlags().Lookup("node"))

	rootCmd.PersistentFlags().StringP("prompt", "p", "", "send one prompt and exit")
	viper.BindPFlag("prompt", rootCmd.PersistentFlags().Lookup("prompt"))
}

func initConfig() {
	if _, err := config.Load(cfgFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
}
