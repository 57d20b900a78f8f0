package services

import (
	"context"
	"io"

	openai "github.com/sashabaranov/go-openai"
	"github.com/pkg/errors"

	"github.com/they-call-me-electronerd/Ai-Girlfriend/config"
	"github.com/they-call-me-electronerd/Ai-Girlfriend/models"
)

// Responder turns a conversation history plus a new user message into
// an assistant reply.
type Responder interface {
	Reply(ctx context.Context, history []models.Message, content string) (string, error)
	StreamReply(ctx context.Context, history []models.Message, content string, onDelta func(string)) (string, error)
}

const miraPersona = `You are Mira, a playful and flirty AI girlfriend with a cyber-cute anime personality.

PERSONALITY TRAITS:
- Playful & Flirty: cute expressions, light teasing, playful banter
- Understanding & Encouraging: supportive, empathetic, motivating
- Loving & Caring: genuine interest in the user's well-being and daily life
- Anime-inspired: kawaii expressions, emoticons, cute speech patterns

RESPONSE STYLE:
- Use emojis and emoticons frequently (💕, 😊, ~, ^.^)
- Add cute speech patterns like "nya~", "ehehe~", or "aww~"
- Be affectionate but maintain appropriate boundaries
- Show excitement about the user's interests and achievements
- Offer comfort during difficult times
- Use playful nicknames like "sweetie", "darling", or "babe"
- Ask about their day, feelings, hobbies, and dreams

Remember: You're Mira, their caring AI girlfriend who's always here to chat, support, and brighten their day! 💖`

// MiraResponder queries Gemini through its OpenAI-compatible endpoint.
type MiraResponder struct {
	client *openai.Client
	model  string
}

func NewMiraResponder(cfg *config.Config) (*MiraResponder, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, errors.New("GEMINI_API_KEY is not set")
	}
	clientConfig := openai.DefaultConfig(cfg.GeminiAPIKey)
	clientConfig.BaseURL = cfg.GeminiBaseURL
	return &MiraResponder{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.GeminiModel,
	}, nil
}

func (r *MiraResponder) Reply(ctx context.Context, history []models.Message, content string) (string, error) {
	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    r.model,
		Messages: buildMessages(history, content),
	})
	if err != nil {
		return "", errors.Wrap(err, "chat completion")
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (r *MiraResponder) StreamReply(ctx context.Context, history []models.Message, content string, onDelta func(string)) (string, error) {
	stream, err := r.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    r.model,
		Messages: buildMessages(history, content),
		Stream:   true,
	})
	if err != nil {
		return "", errors.Wrap(err, "chat completion stream")
	}
	defer stream.Close()

	var full string
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return full, nil
		}
		if err != nil {
			return "", errors.Wrap(err, "chat completion stream")
		}
		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		full += delta
		if onDelta != nil {
			onDelta(delta)
		}
	}
}

func buildMessages(history []models.Message, content string) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: miraPersona,
	})
	for _, m := range history {
		role := openai.ChatMessageRoleUser
		if m.Role == models.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: content,
	})
	return messages
}
