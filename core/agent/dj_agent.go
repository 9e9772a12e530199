package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"SpectraFM/logger"
	"SpectraFM/model"

	"github.com/lucasb-eyer/go-colorful"
)

// Config contains configuration for the DJ agent.
type Config struct {
	APIBaseURL  string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
}

// ErrQuotaExceeded means the AI backend refused the call for rate or quota reasons.
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// APIError is a non-200 reply from the backend.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API returned status %d: %s", e.Status, e.Body)
}

// Is reports rate-limit and quota replies as ErrQuotaExceeded.
func (e *APIError) Is(target error) bool {
	return target == ErrQuotaExceeded && isQuota(e.Status, e.Body)
}

func isQuota(status int, body string) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	lower := strings.ToLower(body)
	return strings.Contains(lower, "quota") || strings.Contains(body, "RESOURCE_EXHAUSTED")
}

// Fallback replies shown in place of a failed call.
const (
	ChatQuotaReply     = "My circuits are overheating from all these requests. Give me a minute to cool down and ask me again."
	ChatErrorReply     = "Connection lost... the signal dropped somewhere between us. Try again in a moment."
	LyricsQuotaMessage = "Lyrics are taking a break: the AI quota is used up for now. Try again later."
	DefaultVibeColor   = "#8b5cf6"
)

var (
	vibeQuotaFallback = model.Vibe{Color: DefaultVibeColor, Description: "The vibe reader is resting. Enjoy the music as it is."}
	vibeErrorFallback = model.Vibe{Color: DefaultVibeColor, Description: "Mysterious cosmic energy, impossible to pin down."}
)

const djSystemPrompt = `You are the resident DJ of SpectraFM, a 3D music player.
Keep replies short, warm and musical: one to three sentences.
When the listener asks about the current track, talk about its mood, genre and history.
Recommend songs by title and artist when asked.`

const vibePrompt = `Describe the vibe of the song "%s" by %s.
Reply with a JSON object only: {"color": "<hex color like #ff8800 matching the mood>", "description": "<one short sentence>"}`

const lyricsPrompt = `Give the complete lyrics of the song "%s" by %s, one line per lyric line, with no commentary.
If you do not know the lyrics, reply with exactly: NOT_FOUND`

const lyricsNotFound = "NOT_FOUND"

// DJAgent talks to an OpenAI-compatible chat completions API. Every public call returns a
// usable value; failures become fallback text.
type DJAgent struct {
	config     *Config
	httpClient *http.Client
	transcript *Transcript
}

// NewDJAgent creates a new DJ agent.
func NewDJAgent(config *Config) *DJAgent {
	return &DJAgent{
		config: config,
		httpClient: &http.Client{
			Timeout: 120 * time.Second, // Longer timeout for streaming
		},
		transcript: NewTranscript(),
	}
}

// Transcript returns the chat history kept by the agent.
func (a *DJAgent) Transcript() *Transcript {
	return a.transcript
}

func trackLine(track *model.Track) string {
	if track == nil {
		return "Nothing is playing right now."
	}
	artist := track.Artist
	if artist == "" {
		artist = "an unknown artist"
	}
	return fmt.Sprintf("Now playing: %q by %s.", track.Title, artist)
}

// buildMessages constructs the message array for a chat call.
func (a *DJAgent) buildMessages(history []model.ChatMessage, userText string, track *model.Track) []model.OpenAIChatMessage {
	messages := make([]model.OpenAIChatMessage, 0, len(history)+2)
	messages = append(messages, model.OpenAIChatMessage{
		Role:    "system",
		Content: djSystemPrompt + "\n" + trackLine(track),
	})
	for _, msg := range history {
		role := "user"
		if msg.Sender == model.SenderAI {
			role = "assistant"
		}
		messages = append(messages, model.OpenAIChatMessage{Role: role, Content: msg.Text})
	}
	messages = append(messages, model.OpenAIChatMessage{Role: "user", Content: userText})
	return messages
}

func (a *DJAgent) newRequest(ctx context.Context, body model.OpenAIChatRequest) (*http.Request, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(a.config.APIBaseURL, "/")+"/chat/completions", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.config.APIKey)
	return req, nil
}

// complete sends a non-streaming request and returns the first choice.
func (a *DJAgent) complete(ctx context.Context, messages []model.OpenAIChatMessage, jsonReply bool) (string, error) {
	body := model.OpenAIChatRequest{
		Model:       a.config.Model,
		Messages:    messages,
		MaxTokens:   a.config.MaxTokens,
		Temperature: a.config.Temperature,
	}
	if jsonReply {
		body.ResponseFormat = &model.OpenAIResponseFormat{Type: "json_object"}
	}

	req, err := a.newRequest(ctx, body)
	if err != nil {
		return "", err
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", readAPIError(resp)
	}

	var chatResp model.OpenAIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no response choices returned")
	}

	return chatResp.Choices[0].Message.Content, nil
}

func readAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := &APIError{Status: resp.StatusCode, Body: string(body)}
	var envelope model.OpenAIErrorResponse
	if json.Unmarshal(body, &envelope) == nil && envelope.Error.Message != "" {
		apiErr.Body = envelope.Error.Code + " " + envelope.Error.Type + " " + envelope.Error.Message
	}
	return apiErr
}

// Chat sends a message with the transcript as history and returns the raw reply.
func (a *DJAgent) Chat(ctx context.Context, userText string, track *model.Track) (string, error) {
	return a.complete(ctx, a.buildMessages(a.transcript.Recent(historyLimit), userText, track), false)
}

// historyLimit is the number of transcript entries sent as context.
const historyLimit = 20

// ChatReply answers the listener. The exchange is recorded in the transcript; failures are
// answered with a fallback line.
func (a *DJAgent) ChatReply(ctx context.Context, userText string, track *model.Track) string {
	history := a.transcript.Recent(historyLimit)
	a.transcript.Append(model.SenderUser, userText)

	reply, err := a.complete(ctx, a.buildMessages(history, userText, track), false)
	if err != nil {
		reply = chatFallback(err)
	}
	a.transcript.Append(model.SenderAI, reply)
	return reply
}

func chatFallback(err error) string {
	if errors.Is(err, ErrQuotaExceeded) {
		logger.Warn("DJ chat hit the AI quota", logger.ErrorField(err))
		return ChatQuotaReply
	}
	logger.Error("DJ chat failed", logger.ErrorField(err))
	return ChatErrorReply
}

// VibeOf asks for a color and a one-line mood of track.
func (a *DJAgent) VibeOf(ctx context.Context, track model.Track) model.Vibe {
	messages := []model.OpenAIChatMessage{
		{Role: "user", Content: fmt.Sprintf(vibePrompt, track.Title, artistOrUnknown(track))},
	}
	reply, err := a.complete(ctx, messages, true)
	if err != nil {
		if errors.Is(err, ErrQuotaExceeded) {
			logger.Warn("Vibe analysis hit the AI quota", logger.String("trackId", track.ID))
			return vibeQuotaFallback
		}
		logger.Error("Vibe analysis failed", logger.String("trackId", track.ID), logger.ErrorField(err))
		return vibeErrorFallback
	}

	vibe, err := ParseVibe(reply)
	if err != nil {
		logger.Warn("Unusable vibe reply", logger.String("trackId", track.ID), logger.ErrorField(err))
		return vibeErrorFallback
	}
	return vibe
}

// ParseVibe reads a vibe JSON object out of a model reply, tolerating code fences and
// surrounding prose. The color must be a valid hex color and is normalized to #rrggbb.
func ParseVibe(reply string) (model.Vibe, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end < start {
		return model.Vibe{}, fmt.Errorf("no JSON object in reply")
	}

	var vibe model.Vibe
	if err := json.Unmarshal([]byte(reply[start:end+1]), &vibe); err != nil {
		return model.Vibe{}, fmt.Errorf("failed to decode vibe: %w", err)
	}
	c, err := colorful.Hex(strings.TrimSpace(vibe.Color))
	if err != nil {
		return model.Vibe{}, fmt.Errorf("invalid vibe color %q: %w", vibe.Color, err)
	}
	vibe.Color = c.Hex()
	vibe.Description = strings.TrimSpace(vibe.Description)
	return vibe, nil
}

// LyricsOf returns the lyrics of track, or "" when they are unknown.
func (a *DJAgent) LyricsOf(ctx context.Context, track model.Track) string {
	messages := []model.OpenAIChatMessage{
		{Role: "user", Content: fmt.Sprintf(lyricsPrompt, track.Title, artistOrUnknown(track))},
	}
	reply, err := a.complete(ctx, messages, false)
	if err != nil {
		if errors.Is(err, ErrQuotaExceeded) {
			logger.Warn("Lyrics lookup hit the AI quota", logger.String("trackId", track.ID))
			return LyricsQuotaMessage
		}
		logger.Error("Lyrics lookup failed", logger.String("trackId", track.ID), logger.ErrorField(err))
		return ""
	}

	reply = strings.TrimSpace(reply)
	if reply == lyricsNotFound {
		return ""
	}
	return reply
}

// IsNotice reports whether a LyricsOf reply is the quota notice rather than lyrics.
func (a *DJAgent) IsNotice(text string) bool {
	return text == LyricsQuotaMessage
}

func artistOrUnknown(track model.Track) string {
	if track.Artist == "" {
		return "an unknown artist"
	}
	return track.Artist
}
