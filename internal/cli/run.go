package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vesperlabs/vesper/internal/agent"
	"github.com/vesperlabs/vesper/internal/cloud/gcp"
	"github.com/vesperlabs/vesper/internal/config"
	"github.com/vesperlabs/vesper/internal/engine"
	"github.com/vesperlabs/vesper/internal/ledger"
	"github.com/vesperlabs/vesper/internal/prompt"
	"github.com/vesperlabs/vesper/internal/social"
	"github.com/vesperlabs/vesper/internal/store"
	"github.com/vesperlabs/vesper/internal/tools"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the agent loop",
	Long: `Run the agent's survival loop until it dies or is interrupted.

Each cycle checks the wallet balance, debits upkeep, and invokes the
reasoning engine with the agent's tools. Secrets are read from the
environment first, then from GCP Secret Manager when a secret path is
configured.

Example:
  vesperd run --interval 30m`,
	RunE: runAgent,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("interval", "", "Override the cycle interval (e.g. 30m)")
	runCmd.Flags().Bool("once", false, "Run a single cycle and exit")
	runCmd.Flags().Bool("dry-run", false, "Validate config and prompts without contacting any service")

	_ = viper.BindPFlag("agent.interval", runCmd.Flags().Lookup("interval"))
}

func runAgent(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if interval := viper.GetString("agent.interval"); interval != "" {
		cfg.Agent.Interval = interval
	}
	if err := cfg.ValidateForRun(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Persona and templates come from the prompt directory, with env and
	// built-in fallbacks.
	templates, err := prompt.LoadTemplates(cfg.Agent.PromptDir)
	if err != nil {
		return fmt.Errorf("failed to load prompt templates: %w", err)
	}
	persona, err := prompt.LoadPersona(cfg.Agent.PromptDir)
	if err != nil {
		return fmt.Errorf("failed to load persona prompt: %w", err)
	}

	if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
		fmt.Printf("Config OK: %s every %s, threshold %s SOL, upkeep %s SOL to %s\n",
			cfg.Agent.Name, cfg.Interval(), cfg.SurvivalThreshold(),
			cfg.UpkeepAmount(), cfg.Agent.UpkeepRecipient)
		fmt.Printf("Persona prompt: %d bytes\n", len(persona))
		return nil
	}

	secrets, err := resolveSecrets(ctx, cfg)
	if err != nil {
		return err
	}

	wallet, err := ledger.NewWallet(cfg.Solana.RPCURL, secrets.solanaKey)
	if err != nil {
		return fmt.Errorf("failed to open wallet: %w", err)
	}
	market := ledger.NewMarketClient(wallet)

	var storeOpts []store.Option
	if cfg.Backend.BaseURL != "" {
		storeOpts = append(storeOpts, store.WithBaseURL(cfg.Backend.BaseURL))
	}
	backend := store.NewClient(secrets.backendKey, storeOpts...)

	twitter := social.NewClient(social.Credentials{
		APIKey:       secrets.twitterAPIKey,
		APISecret:    secrets.twitterAPISecret,
		AccessToken:  secrets.twitterAccessToken,
		AccessSecret: secrets.twitterAccessSecret,
		UserID:       cfg.Twitter.UserID,
		Username:     cfg.Twitter.Username,
	})

	registry, err := tools.NewDefaultRegistry(tools.Deps{
		ActionLog: backend,
		Wallet:    wallet,
		Bounties:  backend,
		Publisher: twitter,
		Memory:    backend,
		Trader:    market,
		Search:    market,
	})
	if err != nil {
		return fmt.Errorf("failed to build tool registry: %w", err)
	}

	eng := engine.New(secrets.openAIKey, cfg.OpenAI.Model, persona, registry)

	a, err := agent.New(agent.Params{
		Config: agent.Config{
			Name:              cfg.Agent.Name,
			Interval:          cfg.Interval(),
			SurvivalThreshold: cfg.SurvivalThreshold(),
			UpkeepAmount:      cfg.UpkeepAmount(),
			UpkeepRecipient:   cfg.Agent.UpkeepRecipient,
			FeedbackInterval:  cfg.FeedbackInterval(),
			RecentPostWindow:  cfg.Agent.RecentPostWindow,
			DisableFollowUp:   cfg.Agent.DisableFollowUp,
		},
		Ledger:      wallet,
		Social:      twitter,
		Store:       backend,
		Engine:      eng,
		Prompts:     templates,
		CycleLogger: gcp.NewCycleLogger(wallet.Address()),
		Logger:      log.New(os.Stderr, "[vesperd] ", log.LstdFlags),
	})
	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}

	if once, _ := cmd.Flags().GetBool("once"); once {
		if stopped := a.RunOnce(ctx); stopped {
			fmt.Println("Agent has died.")
		}
		return nil
	}
	return a.Run(ctx)
}

// resolvedSecrets holds every credential the agent needs at runtime.
type resolvedSecrets struct {
	solanaKey           string
	backendKey          string
	openAIKey           string
	twitterAPIKey       string
	twitterAPISecret    string
	twitterAccessToken  string
	twitterAccessSecret string
}

// resolveSecrets reads each credential from its environment variable, falling
// back to Secret Manager when a secret path is configured. The Secret Manager
// client is only created if at least one secret actually needs it.
func resolveSecrets(ctx context.Context, cfg *config.Config) (*resolvedSecrets, error) {
	var fetcher gcp.SecretFetcher
	needsFetcher := false
	for _, pair := range [][2]string{
		{"SOLANA_PRIVATE_KEY", cfg.Solana.PrivateKeySecret},
		{"VESPER_BACKEND_API_KEY", cfg.Backend.APIKeySecret},
		{"OPENAI_API_KEY", cfg.OpenAI.APIKeySecret},
		{"TWITTER_API_KEY", cfg.Twitter.APIKeySecret},
		{"TWITTER_API_SECRET", cfg.Twitter.APISecretSecret},
		{"TWITTER_ACCESS_TOKEN", cfg.Twitter.AccessTokenSecret},
		{"TWITTER_ACCESS_SECRET", cfg.Twitter.AccessSecretSecret},
	} {
		if os.Getenv(pair[0]) == "" && pair[1] != "" {
			needsFetcher = true
			break
		}
	}
	if needsFetcher {
		client, err := gcp.NewSecretManagerClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create secret manager client: %w", err)
		}
		defer client.Close()
		fetcher = client
	}

	s := &resolvedSecrets{}
	var err error
	if s.solanaKey, err = gcp.ResolveSecret(ctx, fetcher, "SOLANA_PRIVATE_KEY", cfg.Solana.PrivateKeySecret); err != nil {
		return nil, err
	}
	if s.backendKey, err = gcp.ResolveSecret(ctx, fetcher, "VESPER_BACKEND_API_KEY", cfg.Backend.APIKeySecret); err != nil {
		return nil, err
	}
	if s.openAIKey, err = gcp.ResolveSecret(ctx, fetcher, "OPENAI_API_KEY", cfg.OpenAI.APIKeySecret); err != nil {
		return nil, err
	}
	if s.twitterAPIKey, err = gcp.ResolveSecret(ctx, fetcher, "TWITTER_API_KEY", cfg.Twitter.APIKeySecret); err != nil {
		return nil, err
	}
	if s.twitterAPISecret, err = gcp.ResolveSecret(ctx, fetcher, "TWITTER_API_SECRET", cfg.Twitter.APISecretSecret); err != nil {
		return nil, err
	}
	if s.twitterAccessToken, err = gcp.ResolveSecret(ctx, fetcher, "TWITTER_ACCESS_TOKEN", cfg.Twitter.AccessTokenSecret); err != nil {
		return nil, err
	}
	if s.twitterAccessSecret, err = gcp.ResolveSecret(ctx, fetcher, "TWITTER_ACCESS_SECRET", cfg.Twitter.AccessSecretSecret); err != nil {
		return nil, err
	}
	return s, nil
}
