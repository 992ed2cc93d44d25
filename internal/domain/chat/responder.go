package chat

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/ben-burie/Stryde/internal/infra/llm/chatgpt"
)

// CannedReplies are the stock coach answers.
var CannedReplies = []string{
	"That sounds great! Keep me posted on your progress.",
	"I love your commitment to training. Let's see what we can achieve!",
	"Based on your stats, you're doing really well. Stay consistent!",
	"Make sure to get enough rest between your intense workouts.",
	"Your VDOT is improving! Let's push even further.",
	"Remember to hydrate well during your runs.",
}

// CannedResponder picks a stock reply uniformly at random.
type CannedResponder struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewCannedResponder builds a responder over src; nil seeds from the runtime.
func NewCannedResponder(src rand.Source) *CannedResponder {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &CannedResponder{rnd: rand.New(src)}
}

// Reply ignores the transcript.
func (c *CannedResponder) Reply(context.Context, []Message) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CannedReplies[c.rnd.IntN(len(CannedReplies))], nil
}

// ChatClient is the completion capability used by LLMResponder.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error)
}

// TokenCounter returns the token length of s.
type TokenCounter func(s string) int

// LLMConfig tunes model generated replies.
type LLMConfig struct {
	Model            string
	Temperature      float32
	Prompt           string
	MaxHistoryTokens int
}

// LLMResponder asks a chat completion model for the reply and falls back to
// another responder on any failure.
type LLMResponder struct {
	cfg      LLMConfig
	client   ChatClient
	count    TokenCounter
	fallback Responder
	logger   *slog.Logger
}

// NewLLMResponder wires a model backed responder.
func NewLLMResponder(cfg LLMConfig, client ChatClient, count TokenCounter, fallback Responder, logger *slog.Logger) *LLMResponder {
	if count == nil {
		count = approxTokens
	}
	return &LLMResponder{
		cfg:      cfg,
		client:   client,
		count:    count,
		fallback: fallback,
		logger:   logger.With("component", "chat.llm"),
	}
}

func (r *LLMResponder) Reply(ctx context.Context, history []Message) (string, error) {
	resp, err := r.client.CreateChatCompletion(ctx, chatgpt.ChatCompletionRequest{
		Model:       r.cfg.Model,
		Messages:    r.buildMessages(history),
		Temperature: r.cfg.Temperature,
	})
	if err == nil {
		if content := resp.FirstContent(); content != "" {
			return content, nil
		}
		err = errors.New("chatgpt returned no content")
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	r.logger.Warn("coach model reply failed, using canned reply", "error", err)
	return r.fallback.Reply(ctx, history)
}

// buildMessages keeps the newest transcript entries that fit the token budget.
// The last entry is always sent.
func (r *LLMResponder) buildMessages(history []Message) []chatgpt.Message {
	budget := r.cfg.MaxHistoryTokens
	start := len(history)
	used := 0
	for i := len(history) - 1; i >= 0; i-- {
		cost := r.count(history[i].Text)
		if start < len(history) && budget > 0 && used+cost > budget {
			break
		}
		used += cost
		start = i
	}

	out := make([]chatgpt.Message, 0, len(history)-start+1)
	if prompt := strings.TrimSpace(r.cfg.Prompt); prompt != "" {
		out = append(out, chatgpt.Message{Role: chatgpt.RoleSystem, Content: prompt})
	}
	for _, msg := range history[start:] {
		role := chatgpt.RoleUser
		if msg.Role == RoleCoach {
			role = chatgpt.RoleAssistant
		}
		out = append(out, chatgpt.Message{Role: role, Content: msg.Text})
	}
	return out
}

// NewTiktokenCounter counts tokens with the encoding for model, falling back
// to cl100k_base and finally to a length estimate when no encoding loads.
func NewTiktokenCounter(model string, logger *slog.Logger) TokenCounter {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
	}
	if err != nil {
		logger.Warn("tiktoken encoding unavailable, estimating tokens", "model", model, "error", err)
		return approxTokens
	}
	return func(s string) int {
		return len(enc.Encode(s, nil, nil))
	}
}

func approxTokens(s string) int {
	return (len(s) + 3) / 4
}
