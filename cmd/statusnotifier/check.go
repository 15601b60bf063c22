package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hamed0406/statusnotifier/internal/auditlog"
)

func newCheckCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run one evaluation: probe, record, notify and publish",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := flags.load()
			log, err := openLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			a := wire(cmd.Context(), cfg, log)
			defer a.Close()

			res := a.runner.Run(cmd.Context())
			log.Info("run_finished",
				zap.String("run_id", res.RunID),
				zap.String("state", string(res.State)),
				zap.Int("unhealthy", len(res.Unhealthy)),
				zap.Bool("notified", res.Notified),
			)
			if !res.OK() {
				return res.Err
			}
			fmt.Fprintln(cmd.OutOrStdout(), auditlog.SuccessLine)
			return nil
		},
	}
}
