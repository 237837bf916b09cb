package main

import (
	"context"
	"fmt"
	"time"

	"github.com/justyntemme/granulator/pkg/config"
	"github.com/justyntemme/granulator/pkg/framework/debug"
	"github.com/justyntemme/granulator/pkg/keyboard"
	"github.com/justyntemme/granulator/pkg/output"
	"github.com/justyntemme/granulator/pkg/server"
	"github.com/justyntemme/granulator/pkg/synth"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play live from the terminal keyboard and the HTTP API",
	Long: `Play opens the default audio device and plays a sample through the
synthesizer. Notes come from the computer keyboard and from the HTTP API.

Keys z..m and q..u are two octaves of a piano keyboard. Each key toggles
its note. - and = shift the octave, space releases everything and esc quits.

Examples:
  granulator play -s voice.wav
  granulator play -s pad.mp3 --listen :8080 -p duration=60%
  curl -X POST 'localhost:8080/api/notes/60/on?velocity=90'`,
	RunE: runPlay,
}

var (
	playSample   string
	playKeyboard bool
	playOctave   int
	playLatency  time.Duration
)

var errQuit = errors.New("quit")

func init() {
	playCmd.Flags().StringVarP(&playSample, "sample", "s", "", "Sample file (WAV or MP3)")
	playCmd.Flags().StringVar(&cfg.Listen, "listen", "localhost:8080", "HTTP API address (empty disables)")
	playCmd.Flags().BoolVar(&playKeyboard, "keyboard", true, "Read notes from the terminal keyboard")
	playCmd.Flags().IntVar(&playOctave, "octave", keyboard.DefaultOctave, "Starting keyboard octave")
	playCmd.Flags().DurationVar(&playLatency, "latency", 0, "Audio device buffer (0 lets the driver decide)")
	playCmd.MarkFlagRequired("sample")
}

func runPlay(cmd *cobra.Command, args []string) error {
	logger, closeLog, err := cfg.Logger()
	if err != nil {
		return err
	}
	if closeLog != nil {
		defer closeLog()
	}

	sink := debug.NewAsyncSink(1024)
	s, err := cfg.NewSynth(sink)
	if err != nil {
		return err
	}
	path, err := config.ExpandPath(playSample)
	if err != nil {
		return err
	}
	buf, err := s.LoadFile(path)
	if err != nil {
		return err
	}
	logger.Info("loaded %s: %d frames at %.0f Hz", buf.Name, buf.Len(), buf.Rate)

	player, err := output.NewPlayer(output.NewStream(s, cfg.BlockSize), int(cfg.SampleRate), playLatency)
	if err != nil {
		return err
	}
	defer player.Close()
	player.Start()

	g, ctx := errgroup.WithContext(cmd.Context())

	g.Go(func() error {
		sink.Run(ctx, logger)
		return nil
	})

	g.Go(func() error {
		return watchPlayer(ctx, player)
	})

	if cfg.Listen != "" {
		srv := server.New(s, logger)
		g.Go(func() error {
			return srv.Run(ctx, cfg.Listen)
		})
	}

	if playKeyboard {
		g.Go(func() error {
			return playKeys(ctx, cmd, s, logger)
		})
	}

	err = g.Wait()
	if n := sink.Dropped(); n > 0 {
		logger.Warn("%d engine log records dropped", n)
	}
	if errors.Is(err, errQuit) {
		return nil
	}
	return err
}

// watchPlayer returns the first device error.
func watchPlayer(ctx context.Context, p *output.Player) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := p.Err(); err != nil {
				return errors.Wrap(err, "audio device")
			}
		}
	}
}

func playKeys(ctx context.Context, cmd *cobra.Command, s *synth.Synthesizer, logger *debug.Logger) error {
	layout := keyboard.NewLayout(playOctave)
	fmt.Fprintln(cmd.OutOrStdout(), layout.Describe())

	quit := false
	err := keyboard.Read(ctx, func(b byte) bool {
		action, note := layout.Key(b)
		switch action {
		case keyboard.ActionNoteOn:
			s.NoteOn(note, 100)
		case keyboard.ActionNoteOff:
			s.NoteOff(note, true)
		case keyboard.ActionAllNotesOff:
			s.AllNotesOff()
		case keyboard.ActionOctaveDown, keyboard.ActionOctaveUp:
			logger.Debug("octave %d", layout.Octave())
		case keyboard.ActionQuit:
			quit = true
			return false
		}
		return true
	})
	if errors.Is(err, keyboard.ErrNotTerminal) {
		logger.Info("stdin is not a terminal, keyboard disabled")
		return nil
	}
	if err != nil {
		return err
	}
	if quit {
		return errQuit
	}
	return nil
}
