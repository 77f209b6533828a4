package main

import (
	"errors"

	"github.com/spf13/cobra"

	"course-nlu/internal/config"
	"course-nlu/internal/report"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var (
		manifestPath string
		flags        runFlags
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Enrich every catalog listed in a YAML manifest",
		Long: `Runs each manifest entry in order. With the default abort mode the
first failing catalog stops the run; catalogs already written are kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			manifest, err := config.LoadManifest(manifestPath)
			if err != nil {
				return err
			}

			analyzer, release, err := ctx.analyzer()
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, release()) }()

			opts := flags.options(ctx.cfg)

			var (
				summaries []report.Batch
				failures  []report.Failure
			)
			for _, b := range manifest.Batches {
				summary, failed, err := ctx.runBatch(cmd.Context(), analyzer, b, opts)
				summaries = append(summaries, summary)
				failures = append(failures, failed...)
				if err != nil {
					printReport(cmd.OutOrStdout(), summaries, failures)
					return err
				}
			}
			printReport(cmd.OutOrStdout(), summaries, failures)
			return nil
		},
	}

	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "YAML manifest listing input, output and level per catalog")
	flags.register(cmd)
	_ = cmd.MarkFlagRequired("manifest")
	return cmd
}
