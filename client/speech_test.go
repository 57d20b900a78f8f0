package client

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecognizer struct {
	calls   atomic.Int32
	release chan struct{} // when set, Listen blocks until closed
	text    string
	err     error
}

func (f *fakeRecognizer) Listen(ctx context.Context) (string, error) {
	f.calls.Add(1)
	if f.release != nil {
		<-f.release
	}
	return f.text, f.err
}

func TestCaptureReturnsTranscript(t *testing.T) {
	capture := NewCapture(&fakeRecognizer{text: "hello mira"})

	text, err := capture.RequestTranscript(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hello mira", text)
	assert.False(t, capture.Listening())
}

func TestCaptureWhileListeningIsNoOp(t *testing.T) {
	rec := &fakeRecognizer{text: "first", release: make(chan struct{})}
	capture := NewCapture(rec)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := capture.RequestTranscript(context.Background())
		assert.NoError(t, err)
	}()

	require.Eventually(t, capture.Listening, time.Second, time.Millisecond)

	_, err := capture.RequestTranscript(context.Background())
	require.ErrorIs(t, err, ErrListening)
	assert.True(t, capture.Listening(), "state must remain Listening")
	assert.Equal(t, int32(1), rec.calls.Load(), "no second call may reach the engine")

	close(rec.release)
	<-done
	assert.False(t, capture.Listening())
}

func TestCaptureEngineErrorReturnsToIdle(t *testing.T) {
	capture := NewCapture(&fakeRecognizer{err: errors.New("mic broken")})

	_, err := capture.RequestTranscript(context.Background())
	require.Error(t, err)
	assert.False(t, capture.Listening())

	// Recovers: the next request reaches the engine again.
	_, err = capture.RequestTranscript(context.Background())
	require.Error(t, err)
}

func TestCaptureEmptyTranscriptIsNoSpeech(t *testing.T) {
	capture := NewCapture(&fakeRecognizer{text: "   "})

	_, err := capture.RequestTranscript(context.Background())
	require.ErrorIs(t, err, ErrNoSpeech)
	assert.False(t, capture.Listening())
}

func TestCaptureUnavailableWithoutEngine(t *testing.T) {
	var nilCap *Capture
	assert.False(t, nilCap.Available())

	capture := NewCapture(nil)
	assert.False(t, capture.Available())
	_, err := capture.RequestTranscript(context.Background())
	require.ErrorIs(t, err, ErrCaptureUnavailable)
}

func TestControllerCaptureVoiceWithoutCapability(t *testing.T) {
	c := NewController(&fakeAPI{})
	_, err := c.CaptureVoice(context.Background())
	require.ErrorIs(t, err, ErrCaptureUnavailable)
}
