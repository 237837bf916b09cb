package debug

import (
	"fmt"
	"math"
	"strings"
)

// AudioAnalyzer computes level statistics over rendered buffers.
type AudioAnalyzer struct {
	clippingThreshold float32
	dcThreshold       float32
	silenceThreshold  float32
}

// NewAudioAnalyzer creates a new audio analyzer with default thresholds.
func NewAudioAnalyzer() *AudioAnalyzer {
	return &AudioAnalyzer{
		clippingThreshold: 0.99,
		dcThreshold:       0.01,
		silenceThreshold:  0.0001,
	}
}

// AnalysisResult contains the results of audio buffer analysis.
type AnalysisResult struct {
	Samples        int
	Peak           float32
	RMS            float32
	DC             float32
	ClippedSamples int
	NonFinite      int
	ZeroCrossings  int
	Silent         bool
}

// Clipping reports whether any sample reached the clipping threshold.
func (r AnalysisResult) Clipping() bool { return r.ClippedSamples > 0 }

// Finite reports whether every sample was a finite number.
func (r AnalysisResult) Finite() bool { return r.NonFinite == 0 }

// PeakDB returns the peak level in dBFS.
func (r AnalysisResult) PeakDB() float64 {
	if r.Peak <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(float64(r.Peak))
}

// String formats the result on one line.
func (r AnalysisResult) String() string {
	return fmt.Sprintf("samples=%d peak=%.3f (%.1f dBFS) rms=%.3f dc=%+.4f clipped=%d nonfinite=%d",
		r.Samples, r.Peak, r.PeakDB(), r.RMS, r.DC, r.ClippedSamples, r.NonFinite)
}

// Analyze performs analysis on a buffer. NaN and Inf samples are counted and
// excluded from the level statistics.
func (a *AudioAnalyzer) Analyze(buffer []float32) AnalysisResult {
	result := AnalysisResult{Samples: len(buffer)}
	if len(buffer) == 0 {
		return result
	}

	var sum, sumSquares float64
	var last float32
	counted := 0

	for _, sample := range buffer {
		v := float64(sample)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			result.NonFinite++
			continue
		}

		abs := sample
		if abs < 0 {
			abs = -abs
		}
		if abs > result.Peak {
			result.Peak = abs
		}
		if abs >= a.clippingThreshold {
			result.ClippedSamples++
		}

		sum += v
		sumSquares += v * v
		if counted > 0 && (last < 0) != (sample < 0) {
			result.ZeroCrossings++
		}
		last = sample
		counted++
	}

	if counted > 0 {
		result.RMS = float32(math.Sqrt(sumSquares / float64(counted)))
		result.DC = float32(sum / float64(counted))
	}
	result.Silent = result.RMS < a.silenceThreshold
	return result
}

// AnalyzeStereo analyzes both channels of a stereo pair.
func (a *AudioAnalyzer) AnalyzeStereo(left, right []float32) (AnalysisResult, AnalysisResult) {
	return a.Analyze(left), a.Analyze(right)
}

// Check returns a human-readable list of problems found in buffer.
func (a *AudioAnalyzer) Check(buffer []float32, name string) []string {
	var issues []string
	result := a.Analyze(buffer)

	if result.NonFinite > 0 {
		issues = append(issues, fmt.Sprintf("%s: contains %d non-finite values", name, result.NonFinite))
	}
	if result.Clipping() {
		issues = append(issues, fmt.Sprintf("%s: clipping detected (%d samples)", name, result.ClippedSamples))
	}
	if math.Abs(float64(result.DC)) > float64(a.dcThreshold) {
		issues = append(issues, fmt.Sprintf("%s: DC offset detected (%.3f)", name, result.DC))
	}
	if result.Peak > 1.0 {
		issues = append(issues, fmt.Sprintf("%s: peak exceeds 1.0 (%.3f)", name, result.Peak))
	}
	return issues
}

// CompareBuffers compares two audio buffers and reports differences.
func CompareBuffers(a, b []float32, tolerance float32) string {
	if len(a) != len(b) {
		return fmt.Sprintf("Buffer length mismatch: %d vs %d", len(a), len(b))
	}

	var maxDiff float32
	var maxDiffIndex, diffCount int
	var totalDiff float64

	for i := range a {
		diff := a[i] - b[i]
		if diff < 0 {
			diff = -diff
		}
		if diff > tolerance {
			diffCount++
			totalDiff += float64(diff)
			if diff > maxDiff {
				maxDiff = diff
				maxDiffIndex = i
			}
		}
	}

	if diffCount == 0 {
		return "Buffers are identical within tolerance"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Buffer differences:\n")
	fmt.Fprintf(&sb, "  Samples different: %d / %d (%.1f%%)\n", diffCount, len(a), float64(diffCount)/float64(len(a))*100)
	fmt.Fprintf(&sb, "  Max difference: %.6f at sample %d\n", maxDiff, maxDiffIndex)
	fmt.Fprintf(&sb, "  Average difference: %.6f", totalDiff/float64(diffCount))
	return sb.String()
}

// LogStats writes the analysis of a stereo render to logger.
func LogStats(logger *Logger, name string, left, right []float32) {
	l, r := NewAudioAnalyzer().AnalyzeStereo(left, right)
	logger.Info("%s L: %s", name, l)
	logger.Info("%s R: %s", name, r)
	if !l.Finite() || !r.Finite() {
		logger.Error("%s: non-finite samples in output", name)
	}
}
