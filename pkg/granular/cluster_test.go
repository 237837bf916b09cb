package granular

import (
	"math"
	"slices"
	"testing"

	"github.com/justyntemme/granulator/pkg/sample"
)

func newTestShared(t testing.TB, data []float32) *Shared {
	t.Helper()
	s := NewShared(48000, nil)
	buf, err := sample.NewBuffer("test", data, 48000)
	if err != nil {
		t.Fatalf("NewBuffer failed: %v", err)
	}
	s.Buffers.Swap(buf)
	return s
}

func TestClusterPlaysAndDrains(t *testing.T) {
	s := newTestShared(t, rampBuffer(48000))
	p := DefaultParams()
	p.Speed = 20
	p.Duration = 0.15
	f := s.Frame(p)

	c := NewCluster(NewVoiceState(0, 42), 4, f.SampleRate)
	c.Prepare(&f)
	c.NoteOn(60, 100)

	maxActive := 0
	for i := 0; i < 48000; i++ {
		l, r := c.Render(&f, false)
		if math.IsNaN(l) || math.IsNaN(r) {
			t.Fatalf("NaN output at sample %d", i)
		}
		if a := c.Active(); a > maxActive {
			maxActive = a
		}
		if c.Active() > 4 {
			t.Fatalf("More grains active than exist: %d", c.Active())
		}
	}
	if maxActive < 2 {
		t.Errorf("Expected overlapping grains, max active was %d", maxActive)
	}
	if c.Corrupt() {
		t.Error("Cluster should not be flagged corrupt")
	}

	c.NoteOff(60)
	drained := -1
	for i := 0; i < 48000; i++ {
		c.Render(&f, false)
		if c.Active() == 0 {
			drained = i
			break
		}
	}
	if drained < 0 {
		t.Fatal("Grains kept playing after the last note-off")
	}
	if limit := int(math.Round(f.MaxGrainSamples*p.Duration)) + 1; drained > limit {
		t.Errorf("Grains took %d samples to drain, longest grain is %d", drained, limit)
	}

	for i := 0; i < 1000; i++ {
		if l, r := c.Render(&f, false); l != 0 || r != 0 || c.Active() != 0 {
			t.Fatalf("Released cluster produced output at sample %d", i)
		}
	}
}

func TestClusterSilentWithoutNotes(t *testing.T) {
	s := newTestShared(t, constBuffer(1000, 0.5))
	f := s.Frame(DefaultParams())
	c := NewCluster(NewVoiceState(0, 1), 8, f.SampleRate)
	c.Prepare(&f)

	for i := 0; i < 10000; i++ {
		if l, r := c.Render(&f, false); l != 0 || r != 0 {
			t.Fatalf("Cluster without notes produced output at sample %d", i)
		}
	}
}

func TestClusterExternalTrigger(t *testing.T) {
	s := newTestShared(t, constBuffer(1000, 0.5))
	f := s.Frame(quietParams())
	c := NewCluster(NewVoiceState(0, 1), 8, f.SampleRate)
	c.Prepare(&f)

	l, r := c.Render(&f, true)
	if c.Active() != 1 {
		t.Fatalf("External trigger should start one grain, got %d", c.Active())
	}
	if l <= 0 || r <= 0 {
		t.Errorf("Expected output from the triggered grain, got %f %f", l, r)
	}

	c.Render(&f, true)
	if c.Active() != 1 {
		t.Errorf("A held trigger should not fire again, got %d active", c.Active())
	}

	c.Render(&f, false)
	c.Render(&f, true)
	if c.Active() != 2 {
		t.Errorf("Second rising edge should pass to the next idle grain, got %d active", c.Active())
	}
}

func TestClusterFirstNoteStartsImmediately(t *testing.T) {
	s := newTestShared(t, constBuffer(1000, 0.5))
	p := quietParams()
	p.Speed = MinSpeed
	f := s.Frame(p)
	c := NewCluster(NewVoiceState(0, 1), 4, f.SampleRate)
	c.Prepare(&f)
	c.NoteOn(60, 127)

	c.Render(&f, false)
	if c.Active() != 1 {
		t.Errorf("Expected a grain on the first tick after note-on, got %d", c.Active())
	}
}

func TestClusterPowerBounded(t *testing.T) {
	power := func(n int) (float64, float64) {
		s := newTestShared(t, constBuffer(48000, 0.5))
		p := quietParams()
		p.Speed = 50
		p.Duration = 0.05
		f := s.Frame(p)
		c := NewCluster(NewVoiceState(0, 1), n, f.SampleRate)
		c.Prepare(&f)
		c.NoteOn(60, 127)

		var sum, peak float64
		for i := 0; i < 48000; i++ {
			l, r := c.Render(&f, false)
			sum += l*l + r*r
			peak = math.Max(peak, math.Max(math.Abs(l), math.Abs(r)))
		}
		return sum / 48000, peak
	}

	p4, peak4 := power(4)
	p64, peak64 := power(64)
	if !(p4 > 0) || math.IsInf(p4, 0) {
		t.Fatalf("Expected finite non-zero power, got %f", p4)
	}
	if p64 >= p4 {
		t.Errorf("Power should fall as grains are added at fixed density: N=4 %f, N=64 %f", p4, p64)
	}
	if peak4 > 0.5*math.Sqrt(4) || peak64 > 0.5*math.Sqrt(64) {
		t.Errorf("Peak exceeds bound: N=4 %f, N=64 %f", peak4, peak64)
	}
}

func TestClusterNonFiniteGuard(t *testing.T) {
	data := constBuffer(100, float32(math.NaN()))
	f := testFrame(data, quietParams(), 100)
	c := NewCluster(NewVoiceState(0, 1), 4, f.SampleRate)
	c.Prepare(&f)

	l, r := c.Render(&f, true)
	if l != 0 || r != 0 {
		t.Errorf("Non-finite sum should output silence, got %f %f", l, r)
	}
	if !c.Corrupt() {
		t.Error("Cluster should be flagged corrupt")
	}

	c.Prepare(&f)
	if c.Corrupt() {
		t.Error("Prepare should clear the corrupt flag")
	}
}

func TestClusterShuffle(t *testing.T) {
	c := NewCluster(NewVoiceState(0, 5), 16, 48000)
	c.Shuffle()

	order := slices.Clone(c.Order())
	slices.Sort(order)
	for i, v := range order {
		if v != i {
			t.Fatalf("Shuffled order is not a permutation: %v", c.Order())
		}
	}
}

func TestClusterShuffleOnNote(t *testing.T) {
	p := quietParams()
	p.Shuffle = true
	f := testFrame(constBuffer(100, 0.5), p, 100)
	c := NewCluster(NewVoiceState(0, 5), 16, 48000)
	c.Prepare(&f)
	c.NoteOn(60, 100)

	identity := true
	for i, v := range c.Order() {
		if v != i {
			identity = false
		}
	}
	if identity {
		t.Error("Expected the chain order to be shuffled on note-on")
	}
}

func TestClusterDeterministic(t *testing.T) {
	s := newTestShared(t, rampBuffer(4800))
	p := DefaultParams()
	p.SpeedRand = 0.5
	p.TransposeRand = 1
	f := s.Frame(p)

	render := func(id int) []float64 {
		c := NewCluster(NewVoiceState(id, 7), 8, f.SampleRate)
		c.Prepare(&f)
		c.NoteOn(60, 100)
		out := make([]float64, 0, 2*10000)
		for i := 0; i < 10000; i++ {
			l, r := c.Render(&f, false)
			out = append(out, l, r)
		}
		return out
	}

	a, b := render(0), render(0)
	if !slices.Equal(a, b) {
		t.Error("Same seed and voice should render identically")
	}
	if slices.Equal(a, render(1)) {
		t.Error("Different voices should draw different streams")
	}
}

func TestClusterDescribe(t *testing.T) {
	f := testFrame(constBuffer(100, 0.5), quietParams(), 100)
	c := NewCluster(NewVoiceState(3, 1), 6, 48000)
	c.Prepare(&f)
	c.Render(&f, true)

	desc := c.Describe(nil, 1)
	if len(desc) != 6 {
		t.Fatalf("Expected 6 descriptions, got %d", len(desc))
	}
	busy := 0
	for i, d := range desc {
		if d.Voice != 3 || d.Grain != i {
			t.Errorf("Unexpected description %+v", d)
		}
		if d.Busy {
			busy++
		}
	}
	if busy != 1 {
		t.Errorf("Expected one busy grain, got %d", busy)
	}

	c.Reset()
	for _, d := range c.Describe(desc[:0], 1) {
		if d.Busy {
			t.Error("Reset should silence every grain")
		}
	}
}

func TestClusterRenderDoesNotAllocate(t *testing.T) {
	s := newTestShared(t, rampBuffer(4800))
	f := s.Frame(DefaultParams())
	c := NewCluster(NewVoiceState(0, 1), 16, f.SampleRate)
	c.Prepare(&f)
	c.NoteOn(60, 100)

	allocs := testing.AllocsPerRun(1000, func() {
		c.Render(&f, false)
	})
	if allocs != 0 {
		t.Errorf("Render allocated %.1f times per call", allocs)
	}
}

func BenchmarkClusterRender(b *testing.B) {
	s := newTestShared(b, rampBuffer(48000))
	f := s.Frame(DefaultParams())
	c := NewCluster(NewVoiceState(0, 1), 16, f.SampleRate)
	c.Prepare(&f)
	c.NoteOn(60, 100)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Render(&f, false)
	}
}
