package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	celfilter "github.com/Sentinel-Gate/awaymail/internal/adapter/outbound/cel"
	"github.com/Sentinel-Gate/awaymail/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or check the effective configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	Long: `Print the configuration after defaults and environment overrides are
applied. The SMTP password is redacted.`,
	RunE: runConfigShow,
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration and the forwarding filter",
	RunE:  runConfigCheck,
}

func init() {
	configShowCmd.Flags().BoolVar(&devMode, "dev", false, "Apply development defaults")
	configCheckCmd.Flags().BoolVar(&devMode, "dev", false, "Apply development defaults")
	configCmd.AddCommand(configShowCmd, configCheckCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigRaw()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if devMode {
		cfg.DevMode = true
	}
	cfg.SetDevDefaults()

	out, err := yaml.Marshal(redacted(cfg))
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}

func runConfigCheck(cmd *cobra.Command, args []string) error {
	evaluator, err := celfilter.NewEvaluator()
	if err != nil {
		return err
	}
	if _, err := loadDaemonConfig(evaluator); err != nil {
		return err
	}

	file := config.ConfigFileUsed()
	if file == "" {
		file = "(environment only)"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "configuration OK: %s\n", file)
	return nil
}

// redacted returns a copy of cfg safe to print.
func redacted(cfg *config.Config) config.Config {
	c := *cfg
	if c.SMTP.Password != "" {
		c.SMTP.Password = "********"
	}
	return c
}
