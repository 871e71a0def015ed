package command

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

var countryCmd = &cobra.Command{
	Use:   "country <code>",
	Short: "Print the aggregated page of one country as JSON",
	Long: `Print the aggregated page of one country as JSON: the country details,
weather in its capital, exchange rates for its primary currency and its
bordering countries. Fails when the code matches no country.`,
	RunE: printCountry,
	Args: cobra.ExactArgs(1),
}

func init() {
	rootCmd.AddCommand(countryCmd)
}

func printCountry(cmd *cobra.Command, args []string) error {
	comp, err := buildComponents()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*cfg.HTTPTimeout)
	defer cancel()

	page, err := comp.service.CountryPage(ctx, args[0])
	if err != nil {
		return fmt.Errorf("country %q: %w", args[0], err)
	}

	out, err := json.MarshalIndent(struct {
		Page  interface{} `json:"page"`
		Saved bool        `json:"saved"`
	}{page, comp.favorites.IsSaved(page.Country.Code)}, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
