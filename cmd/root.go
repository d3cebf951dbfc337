package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "facelock",
	Short: "Face authentication over a gallery of enrolled identities",
	Long: `Facelock extracts pixel, texture and gradient signatures from face
images and authenticates by correlating them against a gallery of
enrolled identities. Run "facelock serve" for the HTTP API or use the
enroll/verify commands directly.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

// newLogger builds the process logger. FACELOCK_DEBUG switches to the
// development encoder with debug level enabled.
func newLogger() *zap.Logger {
	var log *zap.Logger
	var err error
	if os.Getenv("FACELOCK_DEBUG") != "" {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewNop()
	}
	return log
}
