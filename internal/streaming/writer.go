package streaming

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"eleanor-server/internal/logging"
)

// Sentinel errors for streaming operations.
var (
	// ErrWriteTimeout indicates the client stopped reading for longer than
	// the write timeout.
	ErrWriteTimeout = errors.New("write timeout exceeded")

	// ErrClientGone indicates the request context ended before the stream did.
	ErrClientGone = errors.New("client disconnected")

	// ErrMaxDuration indicates the stream ran past its absolute time limit.
	ErrMaxDuration = errors.New("stream exceeded maximum duration")
)

// TimeoutWriterConfig configures a TimeoutWriter.
type TimeoutWriterConfig struct {
	// WriteTimeout bounds each chunk write via the connection write deadline.
	WriteTimeout time.Duration
	// MaxDuration is the absolute streaming limit (0 = unlimited).
	MaxDuration time.Duration
	// ChunkSize splits large writes (0 = write as received).
	ChunkSize int
}

// DefaultTimeoutWriterConfig returns the limits used for audio streams.
func DefaultTimeoutWriterConfig() TimeoutWriterConfig {
	return TimeoutWriterConfig{
		WriteTimeout: 30 * time.Second,
		ChunkSize:    64 * 1024,
	}
}

// TimeoutWriter is an http.ResponseWriter that stops a response when the
// client stalls, disconnects or exceeds the maximum duration. The server
// itself runs without a WriteTimeout so long files can stream; this writer
// moves the deadline forward one chunk at a time instead.
type TimeoutWriter struct {
	http.ResponseWriter

	ctx       context.Context
	rc        *http.ResponseController
	config    TimeoutWriterConfig
	startTime time.Time
	written   int64
	deadlines bool
	err       error
}

// NewTimeoutWriter wraps w for the lifetime of ctx, normally the request context.
func NewTimeoutWriter(ctx context.Context, w http.ResponseWriter, config TimeoutWriterConfig) *TimeoutWriter {
	return &TimeoutWriter{
		ResponseWriter: w,
		ctx:            ctx,
		rc:             http.NewResponseController(w),
		config:         config,
		startTime:      time.Now(),
		deadlines:      config.WriteTimeout > 0,
	}
}

// Write sends p in chunks, re-arming the write deadline before each one.
// Once a write fails every later call returns the same error.
func (tw *TimeoutWriter) Write(p []byte) (int, error) {
	if tw.err != nil {
		return 0, tw.err
	}

	total := 0
	for len(p) > 0 {
		if err := tw.check(); err != nil {
			tw.err = err
			return total, err
		}

		chunk := p
		if tw.config.ChunkSize > 0 && len(chunk) > tw.config.ChunkSize {
			chunk = chunk[:tw.config.ChunkSize]
		}

		tw.armDeadline()
		n, err := tw.ResponseWriter.Write(chunk)
		total += n
		tw.written += int64(n)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				err = fmt.Errorf("%w after %d bytes", ErrWriteTimeout, tw.written)
			}
			tw.err = err
			return total, err
		}
		p = p[n:]
	}
	return total, nil
}

func (tw *TimeoutWriter) check() error {
	if tw.ctx.Err() != nil {
		return ErrClientGone
	}
	if tw.config.MaxDuration > 0 && time.Since(tw.startTime) > tw.config.MaxDuration {
		return ErrMaxDuration
	}
	return nil
}

func (tw *TimeoutWriter) armDeadline() {
	if !tw.deadlines {
		return
	}
	if err := tw.rc.SetWriteDeadline(time.Now().Add(tw.config.WriteTimeout)); err != nil {
		logging.Debug("stream write deadlines unavailable: %v", err)
		tw.deadlines = false
	}
}

// Flush forwards to the underlying writer when it supports flushing.
func (tw *TimeoutWriter) Flush() {
	_ = tw.rc.Flush()
}

// Unwrap exposes the wrapped writer to http.ResponseController.
func (tw *TimeoutWriter) Unwrap() http.ResponseWriter {
	return tw.ResponseWriter
}

// Close clears the write deadline so a kept-alive connection does not
// inherit it, and returns the error that ended the stream, if any.
func (tw *TimeoutWriter) Close() error {
	if tw.deadlines {
		_ = tw.rc.SetWriteDeadline(time.Time{})
	}
	return tw.err
}

// Stats returns bytes written and elapsed time.
func (tw *TimeoutWriter) Stats() (int64, time.Duration) {
	return tw.written, time.Since(tw.startTime)
}

// AbortReason maps a stream error to a metric label, or "" for errors that
// are not aborts.
func AbortReason(err error) string {
	switch {
	case errors.Is(err, ErrWriteTimeout):
		return "timeout"
	case errors.Is(err, ErrClientGone):
		return "client_gone"
	case errors.Is(err, ErrMaxDuration):
		return "max_duration"
	default:
		return ""
	}
}
