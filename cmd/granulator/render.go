package main

import (
	"context"
	"fmt"
	"math"

	"github.com/justyntemme/granulator/pkg/config"
	"github.com/justyntemme/granulator/pkg/framework/debug"
	"github.com/justyntemme/granulator/pkg/midi"
	"github.com/justyntemme/granulator/pkg/output"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a MIDI file or a single note to WAV",
	Long: `Render plays a sample through the synthesizer offline and writes the
result to a stereo WAV file.

Examples:
  granulator render -s voice.wav -n 60 -d 8 -o cloud.wav
  granulator render -s pad.mp3 -m chords.mid -o chords.wav --tail 4
  granulator render -s voice.wav -p duration=80% -p speed=12Hz -p shuffle=on`,
	RunE: runRender,
}

var (
	renderSample   string
	renderMIDI     string
	renderOut      string
	renderNote     uint8
	renderVelocity uint8
	renderHold     float64
	renderTail     float64
	renderBits     int
)

func init() {
	renderCmd.Flags().StringVarP(&renderSample, "sample", "s", "", "Sample file (WAV or MP3)")
	renderCmd.Flags().StringVarP(&renderMIDI, "midi", "m", "", "Standard MIDI file to play")
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "out.wav", "Output WAV file")
	renderCmd.Flags().Uint8VarP(&renderNote, "note", "n", 60, "Note to hold when no MIDI file is given")
	renderCmd.Flags().Uint8Var(&renderVelocity, "velocity", 100, "Velocity of the held note")
	renderCmd.Flags().Float64VarP(&renderHold, "hold", "d", 4, "Seconds to hold the note")
	renderCmd.Flags().Float64Var(&renderTail, "tail", 2, "Seconds rendered after the last event")
	renderCmd.Flags().IntVar(&renderBits, "bits", 24, "WAV bit depth (16 or 24)")
	renderCmd.MarkFlagRequired("sample")
}

func runRender(cmd *cobra.Command, args []string) error {
	logger, closeLog, err := cfg.Logger()
	if err != nil {
		return err
	}
	if closeLog != nil {
		defer closeLog()
	}

	if renderNote > 127 || renderVelocity > 127 {
		return errors.New("note and velocity must be 0-127")
	}
	if renderHold < 0 || renderTail < 0 {
		return errors.New("hold and tail must not be negative")
	}

	sink := debug.NewAsyncSink(1024)
	ctx, cancel := context.WithCancel(cmd.Context())
	done := make(chan struct{})
	go func() {
		sink.Run(ctx, logger)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
		if n := sink.Dropped(); n > 0 {
			logger.Warn("%d engine log records dropped", n)
		}
	}()

	s, err := cfg.NewSynth(sink)
	if err != nil {
		return err
	}
	samplePath, err := config.ExpandPath(renderSample)
	if err != nil {
		return err
	}
	buf, err := s.LoadFile(samplePath)
	if err != nil {
		return err
	}
	logger.Info("loaded %s: %d frames at %.0f Hz (%.2fs)", buf.Name, buf.Len(), buf.Rate, buf.Duration())

	seq, err := renderSequence()
	if err != nil {
		return err
	}
	frames := int64(seq.Length()) + int64(math.Round(renderTail*cfg.SampleRate))

	outPath, err := config.ExpandPath(renderOut)
	if err != nil {
		return err
	}
	wav, err := output.CreateWAV(outPath, int(cfg.SampleRate), renderBits)
	if err != nil {
		return err
	}

	var sum levelSummary
	analyzer := debug.NewAudioAnalyzer()
	err = s.Render(seq, frames, func(left, right []float32) error {
		l, r := analyzer.AnalyzeStereo(left, right)
		sum.add(l)
		sum.add(r)
		return wav.Write(left, right)
	})
	if cerr := wav.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %d frames (%.2fs), %d events\n",
		outPath, frames, float64(frames)/cfg.SampleRate, seq.Len())
	fmt.Fprintf(cmd.OutOrStdout(), "levels: %s\n", sum.result())
	if sum.nonFinite > 0 {
		logger.Warn("%d non-finite samples were written as silence", sum.nonFinite)
	}
	return nil
}

func renderSequence() (*midi.Sequence, error) {
	if renderMIDI != "" {
		path, err := config.ExpandPath(renderMIDI)
		if err != nil {
			return nil, err
		}
		return midi.LoadSMF(path, cfg.SampleRate)
	}
	hold := renderHold * cfg.SampleRate
	if hold > math.MaxInt32 {
		return nil, errors.Errorf("hold of %gs is too long", renderHold)
	}
	return midi.NewSequence([]midi.Event{
		midi.NoteOn(0, renderNote, renderVelocity),
		midi.NoteOff(int32(hold), renderNote),
	}), nil
}

// levelSummary folds per-block analysis into whole-file levels.
type levelSummary struct {
	samples    int
	peak       float32
	sumSquares float64
	clipped    int
	nonFinite  int
}

func (s *levelSummary) add(r debug.AnalysisResult) {
	finite := r.Samples - r.NonFinite
	s.samples += finite
	s.peak = max(s.peak, r.Peak)
	s.sumSquares += float64(r.RMS) * float64(r.RMS) * float64(finite)
	s.clipped += r.ClippedSamples
	s.nonFinite += r.NonFinite
}

func (s *levelSummary) result() debug.AnalysisResult {
	r := debug.AnalysisResult{
		Samples:        s.samples + s.nonFinite,
		Peak:           s.peak,
		ClippedSamples: s.clipped,
		NonFinite:      s.nonFinite,
	}
	if s.samples > 0 {
		r.RMS = float32(math.Sqrt(s.sumSquares / float64(s.samples)))
	}
	return r
}
