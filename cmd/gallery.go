package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/facelock/facelock/internal/config"
	"github.com/facelock/facelock/internal/gallery"
)

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "Inspect the gallery of enrolled identities",
}

var galleryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List enrolled identities",
	RunE:  runGalleryList,
}

var galleryNeighborsCmd = &cobra.Command{
	Use:   "neighbors [name]",
	Short: "Show identities with the most similar texture histograms",
	Long: `Query the PostgreSQL store for identities whose texture histograms
are closest to the named identity by cosine distance. Requires
DATABASE_URL; the filesystem store has no similarity index.`,
	Args: cobra.ExactArgs(1),
	RunE: runGalleryNeighbors,
}

var galleryDeleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Remove an enrolled identity from the gallery",
	Args:  cobra.ExactArgs(1),
	RunE:  runGalleryDelete,
}

func init() {
	rootCmd.AddCommand(galleryCmd)
	galleryCmd.AddCommand(galleryListCmd)
	galleryCmd.AddCommand(galleryNeighborsCmd)
	galleryCmd.AddCommand(galleryDeleteCmd)

	galleryNeighborsCmd.Flags().Int("limit", 5, "Number of neighbors to show")
}

func runGalleryList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx, config.Load())
	if err != nil {
		return err
	}
	defer a.cleanup()

	entries := a.gallery.Entries()
	if len(entries) == 0 {
		fmt.Println("Gallery is empty")
		return nil
	}

	fmt.Printf("%d identities (threshold %.2f):\n", len(entries), a.gallery.Threshold())
	for _, e := range entries {
		fmt.Printf("  %-30s enrolled %s\n", e.Name, e.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func runGalleryDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx, config.Load())
	if err != nil {
		return err
	}
	defer a.cleanup()

	name := gallery.NormalizeName(args[0])
	if name == "" {
		return errors.New("name is required")
	}

	del, ok := a.store.(interface {
		Delete(ctx context.Context, name string) error
	})
	if !ok {
		return errors.New("gallery store does not support deletion")
	}
	if err := del.Delete(ctx, name); err != nil {
		return fmt.Errorf("deleting %q: %w", name, err)
	}
	if err := a.gallery.Reload(ctx); err != nil {
		return err
	}

	fmt.Printf("Deleted %q (%d identities remain)\n", name, a.gallery.Len())
	return nil
}

func runGalleryNeighbors(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx, config.Load())
	if err != nil {
		return err
	}
	defer a.cleanup()

	if a.pgStore == nil {
		return errors.New("neighbors requires the PostgreSQL store (set DATABASE_URL)")
	}

	neighbors, err := a.pgStore.Neighbors(ctx, args[0], mustGetInt(cmd, "limit"))
	if err != nil {
		return fmt.Errorf("querying neighbors: %w", err)
	}
	if len(neighbors) == 0 {
		fmt.Println("No neighbors found")
		return nil
	}

	fmt.Printf("Texture neighbors of %q:\n", args[0])
	for _, n := range neighbors {
		fmt.Printf("  %-30s distance %.4f\n", n.Name, n.Distance)
	}
	return nil
}
