package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"ragchat/internal/bootstrap"
)

var recreateConfirmed bool

var collectionCmd = &cobra.Command{
	Use:   "collection",
	Short: "Manage the vector collection",
}

var collectionEnsureCmd = &cobra.Command{
	Use:   "ensure",
	Short: "Create the collection if it does not exist",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		fmt.Fprintf(cmd.OutOrStdout(), "Collection %s ready (dim %d)\n", cfg.Store.Collection, a.Embedder.Dimension())
		return nil
	},
}

var collectionRecreateCmd = &cobra.Command{
	Use:   "recreate",
	Short: "Drop and recreate the collection, deleting every stored point",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !recreateConfirmed {
			return errors.New("refusing to drop the collection without --yes")
		}
		a, err := openAppWith(cmd, bootstrap.Options{SkipEnsure: true})
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Store.Recreate(cmd.Context(), a.Embedder.Dimension()); err != nil {
			return fmt.Errorf("recreate collection failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Collection %s recreated (dim %d)\n", cfg.Store.Collection, a.Embedder.Dimension())
		return nil
	},
}

var collectionCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of stored points",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.Store.Count(cmd.Context())
		if err != nil {
			return fmt.Errorf("count points failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), n)
		return nil
	},
}

func init() {
	collectionRecreateCmd.Flags().BoolVar(&recreateConfirmed, "yes", false, "confirm that all stored points will be deleted")
	collectionCmd.AddCommand(collectionEnsureCmd, collectionRecreateCmd, collectionCountCmd)
	rootCmd.AddCommand(collectionCmd)
}
