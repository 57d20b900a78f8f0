package client

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/they-call-me-electronerd/Ai-Girlfriend/models"
)

// defaultSpeakDelay decouples playback start from the transcript update
// so speech does not begin mid-render.
const defaultSpeakDelay = 500 * time.Millisecond

// Controller orchestrates user actions against the backend and the two
// stores. It is the single writer for both stores; the only other
// goroutine it spawns is the message fetch of SelectSession, which is
// fenced by a generation counter.
type Controller struct {
	api     API
	synth   Synthesizer
	capture *Capture

	sessions   *SessionStore
	transcript *Transcript

	mu         sync.Mutex
	current    *models.ChatSession
	busy       bool
	speechOn   bool
	fetchGen   uint64
	speakTimer *time.Timer
	speakDelay time.Duration
}

type Option func(*Controller)

// WithSynthesizer enables voice output for assistant replies.
func WithSynthesizer(s Synthesizer) Option {
	return func(c *Controller) { c.synth = s }
}

// WithCapture enables voice input.
func WithCapture(capture *Capture) Option {
	return func(c *Controller) { c.capture = capture }
}

func WithSpeakDelay(d time.Duration) Option {
	return func(c *Controller) { c.speakDelay = d }
}

func NewController(api API, opts ...Option) *Controller {
	c := &Controller{
		api:        api,
		sessions:   NewSessionStore(),
		transcript: NewTranscript(),
		speechOn:   true,
		speakDelay: defaultSpeakDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LoadSessions fetches the session list from the backend.
func (c *Controller) LoadSessions(ctx context.Context) error {
	sessions, err := c.api.ListSessions(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("loading sessions failed")
		return err
	}
	c.sessions.SetAll(sessions)
	return nil
}

// SendMessage performs one chat turn: optimistic append of the user
// message, backend round-trip, reconciliation by provisional id.
// Empty input and overlapping sends are silently ignored.
func (c *Controller) SendMessage(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return nil
	}
	c.busy = true
	cur := c.current
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.busy = false
		c.mu.Unlock()
	}()

	// No active session: create one with the derived title before
	// touching the transcript. Failure aborts the whole send.
	if cur == nil {
		sess, err := c.api.CreateSession(ctx, models.DeriveTitle(text))
		if err != nil {
			log.Warn().Err(err).Msg("implicit session creation failed")
			return err
		}
		c.mu.Lock()
		c.sessions.Prepend(sess)
		c.current = &sess
		c.fetchGen++
		c.transcript.Reset(sess.ID)
		c.mu.Unlock()
		cur = &sess
	}
	sessionID := cur.ID

	provisional := models.Message{
		ID:        provisionalID(),
		SessionID: sessionID,
		Role:      models.RoleUser,
		Content:   text,
		Timestamp: time.Now().UTC(),
	}
	c.transcript.Append(provisional)

	turn, err := c.api.PostChatTurn(ctx, sessionID, text)
	if err != nil {
		// Rollback: the transcript returns to its pre-send state.
		c.transcript.RemoveByID(provisional.ID)
		log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("chat turn failed, rolled back")
		return err
	}

	c.transcript.ReplaceByID(provisional.ID, turn.UserMessage, turn.AssistantMessage)

	c.mu.Lock()
	defer c.mu.Unlock()

	// First successful turn on a still-placeholder session names it
	// after the message. Later turns never overwrite the title.
	if sess, ok := c.sessions.Get(sessionID); ok && sess.Title == models.DefaultTitle {
		title := models.DeriveTitle(text)
		c.sessions.SetTitle(sessionID, title)
		if c.current != nil && c.current.ID == sessionID {
			c.current.Title = title
		}
	}

	if c.speechOn && c.synth != nil {
		c.scheduleSpeakLocked(sessionID, turn.AssistantMessage.Content)
	}
	return nil
}

// NewSession creates a session with the default title and makes it current.
func (c *Controller) NewSession(ctx context.Context) (models.ChatSession, error) {
	sess, err := c.api.CreateSession(ctx, models.DefaultTitle)
	if err != nil {
		log.Warn().Err(err).Msg("session creation failed")
		return models.ChatSession{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopPendingSpeechLocked()
	c.sessions.Prepend(sess)
	c.current = &sess
	c.fetchGen++
	c.transcript.Reset(sess.ID)
	return sess, nil
}

// SelectSession switches the active session immediately and fetches its
// messages in the background. A fetch that loses to a later switch is
// discarded; a failed fetch leaves the transcript empty rather than
// showing another session's messages.
func (c *Controller) SelectSession(ctx context.Context, sess models.ChatSession) {
	c.mu.Lock()
	c.stopPendingSpeechLocked()
	s := sess
	c.current = &s
	c.fetchGen++
	gen := c.fetchGen
	c.transcript.Reset(sess.ID)
	c.mu.Unlock()

	go func() {
		messages, err := c.api.ListMessages(ctx, sess.ID)

		c.mu.Lock()
		defer c.mu.Unlock()
		if gen != c.fetchGen {
			return
		}
		if err != nil {
			log.Warn().Err(err).Str("session_id", sess.ID.String()).Msg("loading messages failed")
			return
		}
		c.transcript.SetAll(sess.ID, messages)
	}()
}

// DeleteSession removes a session, server first: the local list only
// changes once the backend confirms the delete.
func (c *Controller) DeleteSession(ctx context.Context, id uuid.UUID) error {
	if err := c.api.DeleteSession(ctx, id); err != nil {
		log.Warn().Err(err).Str("session_id", id.String()).Msg("session delete failed")
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions.Remove(id)
	if c.current != nil && c.current.ID == id {
		c.stopPendingSpeechLocked()
		c.current = nil
		c.fetchGen++
		c.transcript.Clear()
	}
	return nil
}

// CaptureVoice runs one speech-capture attempt and returns the transcript.
func (c *Controller) CaptureVoice(ctx context.Context) (string, error) {
	if c.capture == nil || !c.capture.Available() {
		return "", ErrCaptureUnavailable
	}
	return c.capture.RequestTranscript(ctx)
}

func (c *Controller) SetSpeechEnabled(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.speechOn = on
	if !on {
		c.stopPendingSpeechLocked()
	}
}

func (c *Controller) SpeechEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speechOn
}

func (c *Controller) VoiceOutputAvailable() bool {
	return c.synth != nil
}

func (c *Controller) VoiceInputAvailable() bool {
	return c.capture != nil && c.capture.Available()
}

func (c *Controller) Sessions() []models.ChatSession {
	return c.sessions.List()
}

func (c *Controller) Messages() []models.Message {
	return c.transcript.Messages()
}

func (c *Controller) Current() (models.ChatSession, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return models.ChatSession{}, false
	}
	return *c.current, true
}

func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// scheduleSpeakLocked queues playback of an assistant reply. The timer
// is cancelled when the user switches away before it fires, so speech
// never plays into the wrong conversation.
func (c *Controller) scheduleSpeakLocked(sessionID uuid.UUID, content string) {
	if c.speakTimer != nil {
		c.speakTimer.Stop()
	}
	synth := c.synth
	c.speakTimer = time.AfterFunc(c.speakDelay, func() {
		c.mu.Lock()
		stale := c.current == nil || c.current.ID != sessionID || !c.speechOn
		c.mu.Unlock()
		if stale {
			return
		}
		synth.Speak(content)
	})
}

func (c *Controller) stopPendingSpeechLocked() {
	if c.speakTimer != nil {
		c.speakTimer.Stop()
		c.speakTimer = nil
	}
}

// provisionalID returns a time-ordered id for a message awaiting
// server confirmation.
func provisionalID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}
