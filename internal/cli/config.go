package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clawtrends/claw-trends/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management commands",
	}

	cmd.AddCommand(newConfigValidateCmd())
	return cmd
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := config.FindConfigPath(cfgFile)
			if cfgPath == "" {
				return fmt.Errorf("config file not found")
			}

			fmt.Printf("Validating config: %s\n", cfgPath)

			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			errs := config.Validate(cfg)
			if len(errs) > 0 {
				fmt.Println("\nValidation errors:")
				for _, e := range errs {
					fmt.Printf("  - %v\n", e)
				}
				return fmt.Errorf("configuration is invalid")
			}

			fmt.Println("\nConfiguration is valid!")
			fmt.Printf("  - Repository: %s\n", cfg.GitHub.FullRepo())
			fmt.Printf("  - Qdrant URL: %s (collection %s)\n", cfg.Qdrant.URL, cfg.Qdrant.Collection)
			fmt.Printf("  - Primary embedding: %s (%s)\n", cfg.Embedding.Primary.Provider, cfg.Embedding.Primary.Model)
			fmt.Printf("  - Full closure check: every %s\n", cfg.Sync.FullCheckInterval())

			return nil
		},
	}
}
