package cli

import (
	"fmt"
	"strconv"

	"github.com/bartek5186/autoparts-catalog/internal/catalog"
	"github.com/spf13/cobra"
)

func newExportPartsCmd() *cobra.Command {
	var (
		o      catalog.ExportOptions
		filter catalog.PartFilter
	)

	cmd := &cobra.Command{
		Use:   "export-parts",
		Short: "Eksport części do CSV/XLSX",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := appFrom(cmd).Catalog.ExportParts(cmd.Context(), filter, o)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Zapisano:", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&o.Path, "output", "o", "", "plik wynikowy (domyślnie w katalogu storage)")
	cmd.Flags().StringVar(&o.Format, "format", "", "csv | xlsx (domyślnie z rozszerzenia --output, inaczej csv)")
	cmd.Flags().StringVar(&filter.Category, "category", "", "tylko ta kategoria")
	cmd.Flags().StringVar(&filter.Manufacturer, "manufacturer", "", "fragment nazwy producenta")
	return cmd
}

func newExportCarsCmd() *cobra.Command {
	var (
		o       catalog.ExportOptions
		brand   string
		popular bool
	)

	cmd := &cobra.Command{
		Use:   "export-cars",
		Short: "Eksport modeli aut do CSV/XLSX",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := catalog.CarFilter{Popular: popular}
			// --brand przyjmuje id albo nazwę marki
			if id, err := strconv.ParseUint(brand, 10, 64); err == nil {
				filter.BrandID = uint(id)
			} else {
				filter.Brand = brand
			}

			path, err := appFrom(cmd).Catalog.ExportCars(cmd.Context(), filter, o)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Zapisano:", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&o.Path, "output", "o", "", "plik wynikowy (domyślnie w katalogu storage)")
	cmd.Flags().StringVar(&o.Format, "format", "", "csv | xlsx (domyślnie z rozszerzenia --output, inaczej csv)")
	cmd.Flags().StringVar(&brand, "brand", "", "id albo nazwa marki")
	cmd.Flags().BoolVar(&popular, "popular", false, "tylko popularne modele")
	return cmd
}
