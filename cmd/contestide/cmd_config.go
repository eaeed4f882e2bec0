package main

import (
	"errors"
	"fmt"

	"github.com/futurecareers/contestide/internal/config"
	"github.com/spf13/cobra"
)

func newConfigCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate configuration",
		Long: `Inspect and validate configuration.

Configuration is read from .contestide.yaml (looked up from the working
directory upwards), then .env and CONTESTIDE_* environment variables.`,
	}
	cmd.AddCommand(newConfigShowCommand(a))
	cmd.AddCommand(newConfigValidateCommand(a))
	return cmd
}

func newConfigShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.cfg.YAML()
			if err != nil {
				return fmt.Errorf("rendering config: %w", err)
			}
			if a.cfg.Path != "" {
				fmt.Fprintf(a.out, "# %s\n", a.cfg.Path) //nolint:errcheck
			}
			_, err = a.out.Write(data)
			return err
		},
	}
}

func newConfigValidateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a configuration file against the schema",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.Path
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				path = config.FileName
			}

			errs, err := config.ValidateFile(path)
			if err != nil {
				return err
			}
			if len(errs) > 0 {
				for _, e := range errs {
					fmt.Fprintf(a.out, "  ✗ %s\n", e) //nolint:errcheck
				}
				return errors.New(path + ": invalid configuration")
			}
			fmt.Fprintf(a.out, "✓ %s is valid\n", path) //nolint:errcheck
			return nil
		},
	}
}
