// Command granulator is a granular synthesizer: it renders MIDI against a
// sample to WAV, or plays live from the terminal and an HTTP control API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/justyntemme/granulator/pkg/config"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

var cfg = config.Default()

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "granulator",
	Short: "Granular synthesizer driven by MIDI notes",
	Long: `granulator plays a sample back as clouds of short overlapping grains.
Every held note drives a cluster of grains whose position, rate, length,
window shape and pan are set by parameters.

Parameters are set with --param name=value and take the same text the
HTTP API accepts, for example --param speed=40Hz --param pan=50R.`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(paramsCmd)

	cfg.BindFlags(rootCmd.PersistentFlags())
}
