package command

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/i474232898/country-insights/internal/common"
)

var favoritesCmd = &cobra.Command{
	Use:   "favorites",
	Short: "Inspect or edit the saved countries",
}

var favoritesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved countries ordered by name",
	RunE:  listFavorites,
	Args:  cobra.NoArgs,
}

var favoritesRemoveCmd = &cobra.Command{
	Use:   "remove <code>...",
	Short: "Remove one or more saved countries",
	RunE:  removeFavorites,
	Args:  cobra.MinimumNArgs(1),
}

var favoritesClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every saved country",
	RunE:  clearFavorites,
	Args:  cobra.NoArgs,
}

func init() {
	favoritesCmd.AddCommand(favoritesListCmd, favoritesRemoveCmd, favoritesClearCmd)
	rootCmd.AddCommand(favoritesCmd)
}

func listFavorites(cmd *cobra.Command, _ []string) error {
	comp, err := buildComponents()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tNAME\tCAPITAL\tSAVED AT")
	for _, sc := range comp.favorites.ToArray() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", sc.Code, sc.Name, sc.Capital, sc.SavedAt.Local().Format(time.RFC3339))
	}
	return w.Flush()
}

func removeFavorites(cmd *cobra.Command, args []string) error {
	comp, err := buildComponents()
	if err != nil {
		return err
	}
	for _, code := range common.NormalizeCodes(args) {
		if !comp.favorites.IsSaved(code) {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s is not saved\n", code)
			continue
		}
		if err := comp.favorites.Remove(code); err != nil {
			return fmt.Errorf("removing %s: %w", code, err)
		}
	}
	return nil
}

func clearFavorites(_ *cobra.Command, _ []string) error {
	comp, err := buildComponents()
	if err != nil {
		return err
	}
	return comp.favorites.Clear()
}
