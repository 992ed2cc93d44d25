package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ben-burie/Stryde/internal/infra/llm/chatgpt"
)

func TestLLMResponderSendsPromptAndTrimmedHistory(t *testing.T) {
	client := &stubChatClient{resp: chatgpt.ChatCompletionResponse{
		Choices: []chatgpt.Choice{{Message: chatgpt.Message{Role: chatgpt.RoleAssistant, Content: " Keep easy days easy. "}}},
	}}
	r := NewLLMResponder(LLMConfig{
		Model:            "gpt-test",
		Prompt:           "You are a running coach.",
		MaxHistoryTokens: 2,
	}, client, wordCount, NewCannedResponder(nil), newTestLogger())

	history := []Message{
		{Role: RoleUser, Text: "first old message"},
		{Role: RoleCoach, Text: "coach said"},
		{Role: RoleUser, Text: "latest"},
	}
	reply, err := r.Reply(context.Background(), history)
	require.NoError(t, err)
	require.Equal(t, "Keep easy days easy.", reply)

	require.Len(t, client.requests, 1)
	req := client.requests[0]
	require.Equal(t, "gpt-test", req.Model)
	require.Equal(t, []chatgpt.Message{
		{Role: chatgpt.RoleSystem, Content: "You are a running coach."},
		{Role: chatgpt.RoleUser, Content: "latest"},
	}, req.Messages)
}

func TestLLMResponderAlwaysSendsLatestMessage(t *testing.T) {
	r := NewLLMResponder(LLMConfig{MaxHistoryTokens: 1}, &stubChatClient{}, wordCount, NewCannedResponder(nil), newTestLogger())
	msgs := r.buildMessages([]Message{{Role: RoleUser, Text: "a very long question indeed"}})
	require.Len(t, msgs, 1)
	require.Equal(t, chatgpt.RoleUser, msgs[0].Role)
}

func TestLLMResponderUnlimitedBudget(t *testing.T) {
	r := NewLLMResponder(LLMConfig{Prompt: "p"}, &stubChatClient{}, nil, NewCannedResponder(nil), newTestLogger())
	msgs := r.buildMessages([]Message{
		{Role: RoleUser, Text: "a"},
		{Role: RoleCoach, Text: "b"},
	})
	require.Len(t, msgs, 3)
	require.Equal(t, chatgpt.RoleAssistant, msgs[2].Role)
}

func TestLLMResponderFallsBack(t *testing.T) {
	for name, client := range map[string]*stubChatClient{
		"error": {err: errors.New("timeout")},
		"empty": {},
	} {
		t.Run(name, func(t *testing.T) {
			r := NewLLMResponder(LLMConfig{}, client, wordCount, NewCannedResponder(nil), newTestLogger())
			reply, err := r.Reply(context.Background(), []Message{{Role: RoleUser, Text: "hi"}})
			require.NoError(t, err)
			require.Contains(t, CannedReplies, reply)
		})
	}
}

func TestLLMResponderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewLLMResponder(LLMConfig{}, &stubChatClient{err: context.Canceled}, wordCount, NewCannedResponder(nil), newTestLogger())
	_, err := r.Reply(ctx, []Message{{Role: RoleUser, Text: "hi"}})
	require.ErrorIs(t, err, context.Canceled)
}

type stubChatClient struct {
	resp     chatgpt.ChatCompletionResponse
	err      error
	requests []chatgpt.ChatCompletionRequest
}

func (s *stubChatClient) CreateChatCompletion(_ context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error) {
	s.requests = append(s.requests, req)
	return s.resp, s.err
}

func wordCount(s string) int {
	n := 0
	inWord := false
	for _, r := range s {
		if r == ' ' {
			inWord = false
			continue
		}
		if !inWord {
			n++
			inWord = true
		}
	}
	return n
}
