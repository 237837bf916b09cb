package debug

import (
	"bytes"
	"math"
	"strings"
	"testing"
)

func TestAudioAnalyzer(t *testing.T) {
	t.Run("BasicAnalysis", func(t *testing.T) {
		analyzer := NewAudioAnalyzer()

		buffer := make([]float32, 1000)
		for i := range buffer {
			buffer[i] = 0.5 * float32(math.Sin(2*math.Pi*440*float64(i)/48000))
		}

		result := analyzer.Analyze(buffer)

		if result.Peak < 0.49 || result.Peak > 0.51 {
			t.Errorf("Peak incorrect: %f", result.Peak)
		}
		expectedRMS := 0.5 / math.Sqrt(2)
		if math.Abs(float64(result.RMS)-expectedRMS) > 0.01 {
			t.Errorf("RMS incorrect: %f, expected ~%f", result.RMS, expectedRMS)
		}
		if result.ZeroCrossings == 0 {
			t.Error("No zero crossings detected")
		}
		if result.Silent {
			t.Error("Should not be silent")
		}
	})

	t.Run("Clipping", func(t *testing.T) {
		result := NewAudioAnalyzer().Analyze([]float32{0.5, 0.99, 1.0, -0.99, -1.0, 0.5})
		if !result.Clipping() {
			t.Error("Should detect clipping")
		}
		if result.ClippedSamples != 4 {
			t.Errorf("Wrong clipped sample count: %d", result.ClippedSamples)
		}
	})

	t.Run("DCOffset", func(t *testing.T) {
		buffer := make([]float32, 100)
		for i := range buffer {
			buffer[i] = 0.3
		}
		result := NewAudioAnalyzer().Analyze(buffer)
		if math.Abs(float64(result.DC)-0.3) > 0.001 {
			t.Errorf("DC offset incorrect: %f", result.DC)
		}
	})

	t.Run("Silence", func(t *testing.T) {
		result := NewAudioAnalyzer().Analyze(make([]float32, 100))
		if !result.Silent {
			t.Error("Should detect silence")
		}
		if result.Peak != 0 {
			t.Error("Peak should be 0")
		}
		if !math.IsInf(result.PeakDB(), -1) {
			t.Errorf("Expected -Inf dBFS, got %f", result.PeakDB())
		}
	})

	t.Run("NonFinite", func(t *testing.T) {
		buffer := []float32{1.0, float32(math.NaN()), 0.5, float32(math.Inf(1))}
		result := NewAudioAnalyzer().Analyze(buffer)
		if result.Finite() {
			t.Error("Should detect non-finite samples")
		}
		if result.NonFinite != 2 {
			t.Errorf("Wrong non-finite count: %d", result.NonFinite)
		}
		if result.Peak != 1.0 {
			t.Errorf("Non-finite samples leaked into peak: %f", result.Peak)
		}
	})
}

func TestCompareBuffers(t *testing.T) {
	t.Run("IdenticalBuffers", func(t *testing.T) {
		result := CompareBuffers([]float32{1, 2, 3}, []float32{1, 2, 3}, 0.001)
		if !strings.Contains(result, "identical") {
			t.Error("Should be identical")
		}
	})

	t.Run("LengthMismatch", func(t *testing.T) {
		result := CompareBuffers([]float32{1, 2}, []float32{1, 2, 3}, 0.001)
		if !strings.Contains(result, "length mismatch") {
			t.Error("Should detect length mismatch")
		}
	})

	t.Run("Differences", func(t *testing.T) {
		result := CompareBuffers([]float32{1.0, 2.0, 3.0}, []float32{1.0, 2.5, 3.0}, 0.05)
		if !strings.Contains(result, "1 / 3") {
			t.Errorf("Should report 1 difference: %s", result)
		}
		if !strings.Contains(result, "0.500000") {
			t.Errorf("Should report difference magnitude: %s", result)
		}
	})
}

func TestCheck(t *testing.T) {
	analyzer := NewAudioAnalyzer()

	if issues := analyzer.Check([]float32{0.1, 0.2, -0.1, -0.2}, "test"); len(issues) != 0 {
		t.Errorf("Should have no issues, got: %v", issues)
	}

	issues := analyzer.Check([]float32{float32(math.NaN()), 1.5, 0.3, 0.3, 0.3}, "test")
	joined := strings.Join(issues, "\n")
	for _, want := range []string{"non-finite", "peak exceeds", "DC offset"} {
		if !strings.Contains(joined, want) {
			t.Errorf("Missing %q in issues: %v", want, issues)
		}
	}
}

func TestLogStats(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "", FlagLevel)

	LogStats(logger, "render", []float32{0.5, -0.5}, []float32{float32(math.NaN()), 0})

	out := buf.String()
	if !strings.Contains(out, "render L: samples=2 peak=0.500") {
		t.Errorf("Missing left summary: %s", out)
	}
	if !strings.Contains(out, "[ERROR] render: non-finite") {
		t.Errorf("Missing non-finite error: %s", out)
	}
}

func BenchmarkAnalyzer(b *testing.B) {
	analyzer := NewAudioAnalyzer()
	buffer := make([]float32, 512)
	for i := range buffer {
		buffer[i] = float32(math.Sin(2 * math.Pi * float64(i) / 100))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = analyzer.Analyze(buffer)
	}
}
