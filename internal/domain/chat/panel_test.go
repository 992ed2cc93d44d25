package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestPostWhitespaceIsNoop(t *testing.T) {
	mock := clock.NewMock()
	var changes int
	p := NewPanel(Config{ReplyDelay: 500 * time.Millisecond}, nil, mock, nil, newTestLogger(), func() { changes++ })
	defer p.Close()

	for _, text := range []string{"", "   ", "\t\n"} {
		require.False(t, p.Post(text))
	}
	mock.Add(time.Second)

	require.Empty(t, p.Messages())
	require.Zero(t, p.View().Pending)
	require.Zero(t, changes)
}

func TestPostSchedulesReplyAfterDelay(t *testing.T) {
	mock := clock.NewMock()
	responder := &stubResponder{replies: []string{"Nice pace."}}
	p := NewPanel(Config{ReplyDelay: 500 * time.Millisecond}, responder, mock, nil, newTestLogger(), nil)
	defer p.Close()

	p.SetInput("ran 10k")
	require.True(t, p.Post(" ran 10k "))

	view := p.View()
	require.Len(t, view.Messages, 1)
	require.Equal(t, RoleUser, view.Messages[0].Role)
	require.Equal(t, "ran 10k", view.Messages[0].Text)
	require.NotEmpty(t, view.Messages[0].ID)
	require.Empty(t, view.Input)
	require.Equal(t, 1, view.Scroll)
	require.Equal(t, 1, view.Pending)

	mock.Add(499 * time.Millisecond)
	require.Len(t, p.Messages(), 1)

	mock.Add(time.Millisecond)
	require.Eventually(t, func() bool { return len(p.Messages()) == 2 }, time.Second, 5*time.Millisecond)

	view = p.View()
	require.Equal(t, RoleCoach, view.Messages[1].Role)
	require.Equal(t, "Nice pace.", view.Messages[1].Text)
	require.Equal(t, 2, view.Scroll)
	require.Zero(t, view.Pending)
	require.Len(t, responder.seen[0], 1)
}

func TestConcurrentPostsEachGetAReply(t *testing.T) {
	mock := clock.NewMock()
	p := NewPanel(Config{ReplyDelay: 500 * time.Millisecond}, NewCannedResponder(nil), mock, nil, newTestLogger(), nil)
	defer p.Close()

	require.True(t, p.Post("one"))
	require.True(t, p.Post("two"))
	mock.Add(time.Second)

	require.Eventually(t, func() bool { return len(p.Messages()) == 4 }, time.Second, 5*time.Millisecond)
	var coach int
	for _, msg := range p.Messages() {
		if msg.Role == RoleCoach {
			coach++
			require.Contains(t, CannedReplies, msg.Text)
		}
	}
	require.Equal(t, 2, coach)
}

func TestReplyAnswersTheMessageThatScheduledIt(t *testing.T) {
	mock := clock.NewMock()
	responder := &stubResponder{replies: []string{"ok"}}
	p := NewPanel(Config{ReplyDelay: 500 * time.Millisecond}, responder, mock, nil, newTestLogger(), nil)
	defer p.Close()

	require.True(t, p.Post("one"))
	mock.Add(200 * time.Millisecond)
	require.True(t, p.Post("two"))

	mock.Add(300 * time.Millisecond)
	require.Eventually(t, func() bool { return responder.calls() == 1 }, time.Second, 5*time.Millisecond)
	first := responder.history(0)
	require.Len(t, first, 1)
	require.Equal(t, "one", first[0].Text)

	mock.Add(200 * time.Millisecond)
	require.Eventually(t, func() bool { return responder.calls() == 2 }, time.Second, 5*time.Millisecond)
	second := responder.history(1)
	require.Len(t, second, 2)
	require.Equal(t, "two", second[len(second)-1].Text)
}

func TestHandleKeyEnterSends(t *testing.T) {
	p := NewPanel(Config{ReplyDelay: time.Hour}, nil, clock.NewMock(), nil, newTestLogger(), nil)
	defer p.Close()

	require.False(t, p.HandleKey("a", "hello"))
	require.True(t, p.HandleKey(KeyEnter, "hello"))
	require.Len(t, p.Messages(), 1)
}

func TestResponderErrorFallsBackToCanned(t *testing.T) {
	mock := clock.NewMock()
	p := NewPanel(Config{ReplyDelay: time.Millisecond}, &stubResponder{err: errors.New("model down")}, mock, nil, newTestLogger(), nil)
	defer p.Close()

	p.Post("hi")
	mock.Add(time.Millisecond)
	require.Eventually(t, func() bool { return len(p.Messages()) == 2 }, time.Second, 5*time.Millisecond)
	require.Contains(t, CannedReplies, p.Messages()[1].Text)
}

func TestCloseCancelsPendingReplies(t *testing.T) {
	defer goleak.VerifyNone(t)

	responder := &stubResponder{replies: []string{"late"}}
	p := NewPanel(Config{ReplyDelay: time.Hour}, responder, clock.New(), nil, newTestLogger(), nil)
	p.Post("hello")
	p.Post("again")
	require.Equal(t, 2, p.View().Pending)

	p.Close()
	p.Close()

	require.Zero(t, p.View().Pending)
	require.Len(t, p.Messages(), 2)
	require.False(t, p.Post("after close"))
	require.Zero(t, responder.calls())
}

func TestCloseCancelsInFlightResponder(t *testing.T) {
	defer goleak.VerifyNone(t)

	mock := clock.NewMock()
	started := make(chan struct{})
	responder := &blockingResponder{started: started}
	p := NewPanel(Config{ReplyDelay: time.Millisecond}, responder, mock, nil, newTestLogger(), nil)

	p.Post("hello")
	mock.Add(time.Millisecond)
	<-started

	p.Close()
	require.Len(t, p.Messages(), 1)
}

func TestCannedResponderIsDeterministicForSeed(t *testing.T) {
	a := NewCannedResponder(fixedSource(3))
	b := NewCannedResponder(fixedSource(3))
	for i := 0; i < 10; i++ {
		ra, _ := a.Reply(context.Background(), nil)
		rb, _ := b.Reply(context.Background(), nil)
		require.Equal(t, ra, rb)
		require.Contains(t, CannedReplies, ra)
	}
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubResponder struct {
	mu      sync.Mutex
	replies []string
	err     error
	seen    [][]Message
}

func (s *stubResponder) Reply(_ context.Context, history []Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, history)
	if s.err != nil {
		return "", s.err
	}
	return s.replies[(len(s.seen)-1)%len(s.replies)], nil
}

func (s *stubResponder) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

func (s *stubResponder) history(i int) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen[i]
}

type blockingResponder struct {
	started chan struct{}
}

func (b *blockingResponder) Reply(ctx context.Context, _ []Message) (string, error) {
	close(b.started)
	<-ctx.Done()
	return "", ctx.Err()
}

type fixedSource uint64

func (f fixedSource) Uint64() uint64 { return uint64(f) * 0x9E3779B97F4A7C15 }
