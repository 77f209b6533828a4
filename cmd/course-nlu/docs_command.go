package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"course-nlu/internal/catalog"
	"course-nlu/internal/export"
)

func newDocsCommand(ctx *commandContext) *cobra.Command {
	var (
		input   string
		dir     string
		suffix  string
		workers int
		upload  bool
	)

	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Split an analyzed catalog into one JSON document per course",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tbl, err := catalog.ReadFile(input)
			if err != nil {
				return err
			}
			n, err := export.WriteDocuments(cmd.Context(), dir, tbl, suffix, export.Options{Workers: workers})
			if err != nil {
				return err
			}
			ctx.logger.Info("documents written", "input", input, "dir", dir, "count", n)
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d documents to %s\n", n, dir)

			if !upload {
				return nil
			}
			uploaded, err := ctx.uploadDocuments(cmd.Context(), dir, suffix, workers)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %d documents to collection %s\n", len(uploaded), ctx.cfg.DiscoveryCollectionID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Analyzed catalog CSV")
	cmd.Flags().StringVarP(&dir, "dir", "d", "manualdocs", "Output directory")
	cmd.Flags().StringVarP(&suffix, "suffix", "s", "", "File suffix, e.g. high for 0_high.json")
	cmd.Flags().IntVar(&workers, "workers", 4, "Files written or uploaded at once")
	cmd.Flags().BoolVar(&upload, "upload", false, "Add the written documents to the Discovery collection")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("suffix")
	return cmd
}
