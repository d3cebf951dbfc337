package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/facelock/facelock/internal/config"
	"github.com/facelock/facelock/internal/detect"
	"github.com/facelock/facelock/internal/faceprint"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [image]",
	Short: "Match a face image against the gallery",
	Long: `Extract a signature from the image and compare it against every
enrolled identity. Prints the best match and its score, or exits with
status 1 when nothing clears the threshold.`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().Float64("threshold", 0, "Override the match threshold for this run")
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg := config.Load()
	if t := mustGetFloat64(cmd, "threshold"); t > 0 {
		if t > 1 {
			return fmt.Errorf("threshold %g out of range (0,1]", t)
		}
		cfg.Matcher.Threshold = t
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.cleanup()

	img, err := loadImageFile(args[0])
	if err != nil {
		return err
	}

	face, err := detect.Face(ctx, a.newDetector(), img)
	if err != nil {
		if errors.Is(err, detect.ErrNoFace) {
			return fmt.Errorf("no face detected in %s", args[0])
		}
		return fmt.Errorf("detecting face: %w", err)
	}

	sig := faceprint.Extract(face)
	name, score, ok := a.gallery.BestMatch(sig)
	if !ok {
		fmt.Printf("No match (threshold %.2f, %d identities checked)\n",
			a.gallery.Threshold(), a.gallery.Len())
		os.Exit(1)
	}

	fmt.Printf("Matched %q with score %.4f (threshold %.2f)\n",
		name, score, a.gallery.Threshold())
	return nil
}
