package main

import (
	"github.com/spf13/cobra"

	"github.com/goliatone/go-fitty/internal/driver"
	"github.com/goliatone/go-fitty/internal/logging"
)

func fitCmd() *cobra.Command {
	var flags configFlags

	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit every histogram in a data store",
		Long: `Fit loads the parameter file selected by the priority mode, fits
every histogram in the data store with its matching entry and exports
the parameters to the auxiliary file (or the reference file with
--update-reference). Failed fits are counted and do not stop the run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return usageError("%s", err)
			}

			logger := logging.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
			ctx := logging.WithLogger(cmd.Context(), logger)

			_, err = driver.Run(ctx, cfg, driver.Deps{Logger: logger}, cmd.OutOrStdout())
			return err
		},
	}
	flags.register(cmd.Flags())
	flags.registerFit(cmd.Flags())
	return cmd
}
