package main

import (
	"errors"

	"github.com/spf13/cobra"

	"course-nlu/internal/config"
	"course-nlu/internal/report"
)

type runFlags struct {
	workers    int
	bestEffort bool
	upload     bool
	uploadDocs bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.workers, "workers", 0, "Rows analyzed at once; 0 uses NLU_WORKERS")
	cmd.Flags().BoolVar(&f.bestEffort, "best-effort", false, "Record failing rows and keep going instead of aborting")
	cmd.Flags().BoolVar(&f.upload, "sftp", false, "Upload each analyzed catalog to the configured SFTP drop")
	cmd.Flags().BoolVar(&f.uploadDocs, "upload-docs", false, "Add the exported documents to the Discovery collection")
}

func (f *runFlags) options(cfg config.Config) runOptions {
	workers := f.workers
	if workers <= 0 {
		workers = cfg.Workers
	}
	return runOptions{Workers: workers, BestEffort: f.bestEffort, Upload: f.upload, UploadDocs: f.uploadDocs}
}

func newEnrichCommand(ctx *commandContext) *cobra.Command {
	var (
		batch config.Batch
		flags runFlags
	)

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Enrich one catalog CSV with Concepts, Subject and Level",
		Example: `  course-nlu enrich --input data/input/HighSchoolClasses.csv \
    --output data/output/HighSchoolClasses_Analyzed.csv --level "High School"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if err := batch.Validate(); err != nil {
				return err
			}

			analyzer, release, err := ctx.analyzer()
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, release()) }()

			summary, failures, err := ctx.runBatch(cmd.Context(), analyzer, batch, flags.options(ctx.cfg))
			printReport(cmd.OutOrStdout(), []report.Batch{summary}, failures)
			return err
		},
	}

	cmd.Flags().StringVarP(&batch.Input, "input", "i", "", "Input catalog CSV (must have a Description column)")
	cmd.Flags().StringVarP(&batch.Output, "output", "o", "", "Analyzed catalog CSV to write")
	cmd.Flags().StringVarP(&batch.Level, "level", "l", "", "Course level written to every row")
	cmd.Flags().StringVar(&batch.DocsDir, "docs-dir", "", "Also write one JSON document per row into this directory")
	cmd.Flags().StringVar(&batch.DocsSuffix, "docs-suffix", "", "Document file suffix, e.g. high for 0_high.json")
	flags.register(cmd)

	for _, name := range []string{"input", "output", "level"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
