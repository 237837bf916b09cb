package debug

import (
	"context"
	"sync/atomic"
)

// Code identifies a realtime event reported through an AsyncSink.
type Code uint8

const (
	// CodeNonFinite reports a block discarded because a voice produced NaN or Inf.
	CodeNonFinite Code = iota + 1
	// CodeVoiceStolen reports a voice reassigned to a new note.
	CodeVoiceStolen
	// CodeInboxFull reports a control event dropped because the inbox was full.
	CodeInboxFull
	// CodeBufferSwap reports a new sample buffer observed at a block boundary.
	CodeBufferSwap
	// CodeRateChange reports a sample rate change applied at a block boundary.
	CodeRateChange
)

// String returns the string representation of the code.
func (c Code) String() string {
	switch c {
	case CodeNonFinite:
		return "non-finite"
	case CodeVoiceStolen:
		return "voice-stolen"
	case CodeInboxFull:
		return "inbox-full"
	case CodeBufferSwap:
		return "buffer-swap"
	case CodeRateChange:
		return "rate-change"
	default:
		return "unknown"
	}
}

// Record is a fixed-size log entry. It carries no strings or pointers so
// posting one never allocates.
type Record struct {
	Level LogLevel
	Code  Code
	Voice int32
	Frame int64
	Value float64
}

// Sink accepts records from the audio thread.
type Sink interface {
	Post(Record)
}

// Discard is a Sink that drops everything.
var Discard Sink = discard{}

type discard struct{}

func (discard) Post(Record) {}

// AsyncSink queues records on a buffered channel. Post never blocks: when
// the queue is full the record is counted and dropped.
type AsyncSink struct {
	records chan Record
	dropped atomic.Uint64
}

// NewAsyncSink creates a sink holding up to capacity pending records.
func NewAsyncSink(capacity int) *AsyncSink {
	if capacity < 1 {
		capacity = 1
	}
	return &AsyncSink{records: make(chan Record, capacity)}
}

// Post enqueues r without blocking.
func (s *AsyncSink) Post(r Record) {
	select {
	case s.records <- r:
	default:
		s.dropped.Add(1)
	}
}

// Dropped returns the number of records lost to a full queue.
func (s *AsyncSink) Dropped() uint64 {
	return s.dropped.Load()
}

// Pending returns the number of queued records.
func (s *AsyncSink) Pending() int {
	return len(s.records)
}

// Run formats records into logger until ctx is done, then flushes what is
// still queued.
func (s *AsyncSink) Run(ctx context.Context, logger *Logger) {
	for {
		select {
		case r := <-s.records:
			write(logger, r)
		case <-ctx.Done():
			s.Drain(logger)
			return
		}
	}
}

// Drain writes every queued record and returns how many were written.
func (s *AsyncSink) Drain(logger *Logger) int {
	n := 0
	for {
		select {
		case r := <-s.records:
			write(logger, r)
			n++
		default:
			return n
		}
	}
}

func write(logger *Logger, r Record) {
	logger.log(r.Level, "%s voice=%d frame=%d value=%g", r.Code, r.Voice, r.Frame, r.Value)
}
