package main

import (
	"github.com/spf13/cobra"

	fitty "github.com/goliatone/go-fitty"
	"github.com/goliatone/go-fitty/internal/logging"
)

func printCmd() *cobra.Command {
	var (
		flags    configFlags
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "print",
		Short: "Print the fit entries of a parameter file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}
			if cfg.Params == "" {
				return usageError("missing required flag --params")
			}

			opts, err := cfg.Options()
			if err != nil {
				return usageError("%s", err)
			}
			logger := logging.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
			fitter, err := fitty.New(append(opts, fitty.WithLogger(logger))...)
			if err != nil {
				return err
			}
			if err := fitter.InitFromFile(cfg.Params, cfg.AuxPath()); err != nil {
				return err
			}
			fitter.Print(cmd.OutOrStdout(), detailed)
			return nil
		},
	}
	flags.register(cmd.Flags())
	cmd.Flags().BoolVar(&detailed, "detailed", false, "print parameter limits and fit modes")
	return cmd
}
