package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/facelock/facelock/internal/config"
	"github.com/facelock/facelock/internal/detect"
	"github.com/facelock/facelock/internal/faceprint"
	"github.com/facelock/facelock/internal/gallery"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll [name] [image]",
	Short: "Enroll a face into the gallery",
	Long: `Enroll a face image under a name. With --dir, every image in the
directory is enrolled instead, using the file name (without extension)
as the identity name. Existing identities are overwritten.`,
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().String("dir", "", "Enroll every image in a directory")
}

func runEnroll(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx, config.Load())
	if err != nil {
		return err
	}
	defer a.cleanup()

	if dir := mustGetString(cmd, "dir"); dir != "" {
		return enrollDirectory(ctx, a, dir)
	}

	if len(args) != 2 {
		return errors.New("usage: facelock enroll <name> <image> (or --dir <directory>)")
	}
	name := gallery.NormalizeName(args[0])
	if name == "" {
		return errors.New("name is required")
	}

	if err := enrollFile(ctx, a, name, args[1]); err != nil {
		return err
	}
	fmt.Printf("Enrolled %q (%d identities in gallery)\n", name, a.gallery.Len())
	return nil
}

func enrollFile(ctx context.Context, a *app, name, path string) error {
	img, err := loadImageFile(path)
	if err != nil {
		return err
	}

	face, err := detect.Face(ctx, a.newDetector(), img)
	if err != nil {
		if errors.Is(err, detect.ErrNoFace) {
			return fmt.Errorf("no face detected in %s", path)
		}
		return fmt.Errorf("detecting face in %s: %w", path, err)
	}

	sig := faceprint.Extract(face)
	if err := a.gallery.Put(ctx, name, sig); err != nil {
		return fmt.Errorf("enrolling %q: %w", name, err)
	}
	return nil
}

func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

func enrollDirectory(ctx context.Context, a *app, dir string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("listing %s: %w", dir, err)
	}

	var images []string
	for _, f := range files {
		if !f.IsDir() && isImageFile(f.Name()) {
			images = append(images, f.Name())
		}
	}
	if len(images) == 0 {
		return fmt.Errorf("no images found in %s", dir)
	}

	bar := progressbar.NewOptions(len(images),
		progressbar.OptionSetDescription("Enrolling faces"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("faces"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	enrolled, failed := 0, 0
	for _, file := range images {
		name := gallery.NormalizeName(strings.TrimSuffix(file, filepath.Ext(file)))
		if name == "" {
			failed++
			bar.Add(1)
			continue
		}
		if err := enrollFile(ctx, a, name, filepath.Join(dir, file)); err != nil {
			fmt.Printf("\nSkipping %s: %v\n", file, err)
			failed++
		} else {
			enrolled++
		}
		bar.Add(1)
	}

	fmt.Printf("\nEnrolled %d faces (%d skipped), %d identities in gallery\n",
		enrolled, failed, a.gallery.Len())
	return nil
}
