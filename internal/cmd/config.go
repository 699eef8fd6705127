package cmd

import (
	"fmt"

	"github.com/Digital-Shane/episode-roulette/internal/config"
	"github.com/spf13/cobra"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print every configuration key with its effective value after the config
file and environment overrides. API keys are masked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			for _, setting := range a.cfg.Settings() {
				fmt.Fprintf(out, "%-30s = %-24v # %s\n", setting.Key, setting.Value, setting.Description)
			}
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one key and write the config file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			known := false
			for _, field := range config.Fields {
				known = known || field.Key == args[0]
			}
			if !known {
				return fmt.Errorf("unknown configuration key %q", args[0])
			}

			if err := a.cfg.Set(args[0], args[1]); err != nil {
				return fmt.Errorf("invalid value for %s: %w", args[0], err)
			}
			if err := a.cfg.Validate(false); err != nil {
				return err
			}

			path := a.cfgFile
			if path == "" {
				var err error
				if path, err = config.ConfigPath(); err != nil {
					return err
				}
			}
			if err := a.cfg.Save(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s to %s\n", args[0], path)
			return nil
		},
	})
	return cmd
}
