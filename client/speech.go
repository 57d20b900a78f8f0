package client

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/pkg/errors"
)

// Synthesizer plays text as speech. Implementations are fire-and-forget:
// Speak returns immediately and playback completion is never awaited.
type Synthesizer interface {
	Speak(text string)
}

// Recognizer performs a single speech-capture attempt against the
// underlying engine and returns the recognized transcript.
type Recognizer interface {
	Listen(ctx context.Context) (string, error)
}

var (
	// ErrCaptureUnavailable means no recognition engine exists on this
	// platform. Feature-off, not a failure.
	ErrCaptureUnavailable = errors.New("voice capture unavailable")

	// ErrListening is returned when a capture is already in progress.
	ErrListening = errors.New("voice capture already listening")

	// ErrNoSpeech means the engine returned without a usable transcript.
	ErrNoSpeech = errors.New("no speech recognized")
)

const (
	captureIdle int32 = iota
	captureListening
)

// Capture is the Idle -> Listening -> Idle state machine around a
// Recognizer. Only one capture runs at a time; a request made while
// already listening does not reach the engine.
type Capture struct {
	rec   Recognizer
	state atomic.Int32
}

func NewCapture(rec Recognizer) *Capture {
	return &Capture{rec: rec}
}

func (c *Capture) Available() bool {
	return c != nil && c.rec != nil
}

func (c *Capture) Listening() bool {
	return c.state.Load() == captureListening
}

// RequestTranscript runs one capture attempt. It resolves exactly once:
// with a transcript, with ErrNoSpeech, or with the engine's error.
func (c *Capture) RequestTranscript(ctx context.Context) (string, error) {
	if !c.Available() {
		return "", ErrCaptureUnavailable
	}
	if !c.state.CompareAndSwap(captureIdle, captureListening) {
		return "", ErrListening
	}
	defer c.state.Store(captureIdle)

	text, err := c.rec.Listen(ctx)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrNoSpeech
	}
	return text, nil
}
