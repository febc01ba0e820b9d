package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"soundleaf/internal/catalog"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List soundscapes in the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			loader := catalog.NewLoader(cfg.Paths.CatalogDir)
			grouped, err := loader.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(grouped) == 0 {
				fmt.Fprintf(out, "Catalog at %s is empty\n", loader.Root())
				fmt.Fprintln(out, "Add category directories with audio files to enable matching")
				return nil
			}

			categories := make([]string, 0, len(grouped))
			total := 0
			for category, assets := range grouped {
				categories = append(categories, category)
				total += len(assets)
			}
			sort.Strings(categories)

			var rows [][]string
			for _, category := range categories {
				for _, asset := range grouped[category] {
					rows = append(rows, []string{category, asset.DisplayTitle(), asset.Filename})
				}
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Category", "Title", "File"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))
			fmt.Fprintf(out, "%s soundscapes in %d categories\n", strconv.Itoa(total), len(categories))
			return nil
		},
	}
}
