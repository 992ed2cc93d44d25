package chat

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/ben-burie/Stryde/pkg/metrics"
)

const KeyEnter = "Enter"

// Panel is the coach conversation. Replies arrive on clock timers that Close cancels.
type Panel struct {
	cfg       Config
	responder Responder
	fallback  Responder
	clock     clock.Clock
	metrics   *metrics.Manager
	logger    *slog.Logger
	onChange  func()

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	view    View
	timers  map[uint64]pendingReply
	nextID  uint64
	closed  bool
	replies sync.WaitGroup
}

// pendingReply answers the transcript prefix that ends with its user message.
type pendingReply struct {
	timer *clock.Timer
	upto  int
}

// NewPanel constructs a Panel. A nil responder uses canned replies and a nil
// clock uses wall time. onChange runs with no lock held; it may be nil.
func NewPanel(cfg Config, responder Responder, clk clock.Clock, m *metrics.Manager, logger *slog.Logger, onChange func()) *Panel {
	fallback := NewCannedResponder(nil)
	if responder == nil {
		responder = fallback
	}
	if clk == nil {
		clk = clock.New()
	}
	if onChange == nil {
		onChange = func() {}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Panel{
		cfg:       cfg,
		responder: responder,
		fallback:  fallback,
		clock:     clk,
		metrics:   m,
		logger:    logger.With("component", "chat.panel"),
		onChange:  onChange,
		ctx:       ctx,
		cancel:    cancel,
		view:      View{Messages: []Message{}},
		timers:    make(map[uint64]pendingReply),
	}
}

// View returns a copy of the current state.
func (p *Panel) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	v := p.view
	v.Messages = append([]Message(nil), p.view.Messages...)
	return v
}

// Messages returns a copy of the transcript.
func (p *Panel) Messages() []Message {
	return p.View().Messages
}

// SetInput mirrors the text box contents without publishing.
func (p *Panel) SetInput(text string) {
	p.mu.Lock()
	p.view.Input = text
	p.mu.Unlock()
}

// HandleKey sends text when key is Enter.
func (p *Panel) HandleKey(key, text string) bool {
	if key != KeyEnter {
		return false
	}
	return p.Post(text)
}

// Post appends a user message and schedules one coach reply. Whitespace-only
// text is ignored and reports false.
func (p *Panel) Post(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return false
	}
	p.view.Messages = append(p.view.Messages, p.newMessage(RoleUser, text))
	p.view.Input = ""
	p.view.Scroll++
	p.view.Pending++
	id := p.nextID
	p.nextID++
	p.timers[id] = pendingReply{
		timer: p.clock.AfterFunc(p.cfg.ReplyDelay, func() { p.reply(id) }),
		upto:  len(p.view.Messages),
	}
	p.mu.Unlock()

	p.metrics.ChatMessage(string(RoleUser))
	p.onChange()
	return true
}

// Close cancels pending replies and waits for any in progress to finish.
func (p *Panel) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	for id, pending := range p.timers {
		pending.timer.Stop()
		delete(p.timers, id)
	}
	p.view.Pending = 0
	p.mu.Unlock()

	p.cancel()
	p.replies.Wait()
}

func (p *Panel) reply(id uint64) {
	p.mu.Lock()
	pending, ok := p.timers[id]
	if !ok || p.closed {
		p.mu.Unlock()
		return
	}
	delete(p.timers, id)
	history := append([]Message(nil), p.view.Messages[:pending.upto]...)
	p.replies.Add(1)
	p.mu.Unlock()
	defer p.replies.Done()

	text, err := p.responder.Reply(p.ctx, history)
	if err != nil {
		if p.ctx.Err() != nil {
			return
		}
		p.logger.Warn("coach responder failed", "error", err)
		text, _ = p.fallback.Reply(p.ctx, history)
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.view.Messages = append(p.view.Messages, p.newMessage(RoleCoach, text))
	p.view.Scroll++
	p.view.Pending--
	p.mu.Unlock()

	p.metrics.ChatMessage(string(RoleCoach))
	p.onChange()
}

func (p *Panel) newMessage(role Role, text string) Message {
	return Message{
		ID:     uuid.NewString(),
		Role:   role,
		Text:   text,
		SentAt: p.clock.Now(),
	}
}
