package agent

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"SpectraFM/logger"
	"SpectraFM/model"
)

// StreamCallback is called for each chunk of the streaming response.
type StreamCallback func(chunk string) error

// ChatStream answers the listener chunk by chunk. If streaming fails or yields nothing it
// falls back to a single non-streaming call, and if that fails too the fallback line is
// delivered as one chunk. The exchange is recorded in the transcript.
func (a *DJAgent) ChatStream(ctx context.Context, userText string, track *model.Track, callback StreamCallback) string {
	history := a.transcript.Recent(historyLimit)
	a.transcript.Append(model.SenderUser, userText)
	messages := a.buildMessages(history, userText, track)

	result, err := a.chatStreamInternal(ctx, messages, callback)
	if err != nil || result == "" {
		if err != nil {
			logger.Warn("Streaming chat failed, falling back to non-streaming", logger.ErrorField(err))
		} else {
			logger.Warn("Streaming returned empty response, falling back to non-streaming")
		}
		if result == "" {
			reply, cerr := a.complete(ctx, messages, false)
			if cerr != nil {
				reply = chatFallback(cerr)
			}
			result = reply
			if callback != nil {
				_ = callback(result)
			}
		}
	}

	a.transcript.Append(model.SenderAI, result)
	return result
}

// chatStreamInternal reads an SSE chat completion stream.
func (a *DJAgent) chatStreamInternal(ctx context.Context, messages []model.OpenAIChatMessage, callback StreamCallback) (string, error) {
	req, err := a.newRequest(ctx, model.OpenAIChatRequest{
		Model:       a.config.Model,
		Messages:    messages,
		MaxTokens:   a.config.MaxTokens,
		Temperature: a.config.Temperature,
		Stream:      true,
	})
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/event-stream")

	logger.Info("Sending streaming chat request",
		logger.String("model", a.config.Model),
		logger.Int("messageCount", len(messages)),
		logger.Int("maxTokens", a.config.MaxTokens))

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", readAPIError(resp)
	}

	var fullContent strings.Builder
	reader := bufio.NewReader(resp.Body)
	lineCount := 0

	for {
		select {
		case <-ctx.Done():
			return fullContent.String(), ctx.Err()
		default:
		}

		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return fullContent.String(), fmt.Errorf("failed to read stream: %w", err)
		}
		eof := err == io.EOF

		lineCount++
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "data:") {
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "[DONE]" {
				break
			}
			a.appendChunk(data, &fullContent, callback)
		}
		if eof {
			break
		}
	}

	logger.Info("ChatStream completed",
		logger.Int("totalLinesRead", lineCount),
		logger.Int("finalContentLength", fullContent.Len()))

	return fullContent.String(), nil
}

func (a *DJAgent) appendChunk(data string, full *strings.Builder, callback StreamCallback) {
	var chunk model.OpenAIStreamChunk
	if err := json.Unmarshal([]byte(data), &chunk); err != nil {
		logger.Warn("Failed to parse stream chunk", logger.String("data", data), logger.ErrorField(err))
		return
	}
	if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
		return
	}
	content := chunk.Choices[0].Delta.Content
	full.WriteString(content)
	if callback != nil {
		if err := callback(content); err != nil {
			logger.Warn("Callback error during streaming, continuing",
				logger.ErrorField(err),
				logger.Int("contentLenSoFar", full.Len()))
		}
	}
}
