package page

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ben-burie/Stryde/internal/domain/authform"
	"github.com/ben-burie/Stryde/internal/domain/chat"
	"github.com/ben-burie/Stryde/internal/domain/profilemenu"
	"github.com/ben-burie/Stryde/internal/domain/upload"
	apperrors "github.com/ben-burie/Stryde/pkg/errors"
)

// Kind selects which controllers a page carries.
type Kind string

const (
	KindHome  Kind = "home"
	KindLogon Kind = "logon"
)

// ParseKind validates a page name.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindHome, KindLogon:
		return Kind(s), nil
	}
	return "", apperrors.Wrap(apperrors.CodeInvalidEvent, fmt.Sprintf("unknown page %q", s), nil)
}

const (
	NoticeInfo  = "info"
	NoticeError = "error"

	MsgSettings      = "Open account settings"
	MsgLogoutConfirm = "Are you sure you want to logout?"
	MsgLoggedOut     = "Logged out successfully!"
)

// Notice is a transient message shown to the user.
type Notice struct {
	Text string `json:"text,omitempty"`
	Kind string `json:"kind,omitempty"`
}

// View is the full page snapshot pushed to the browser.
type View struct {
	Page    Kind              `json:"page"`
	Profile *profilemenu.View `json:"profile,omitempty"`
	Upload  *upload.View      `json:"upload,omitempty"`
	Chat    *chat.View        `json:"chat,omitempty"`
	Auth    *authform.View    `json:"auth,omitempty"`
	Notice  Notice            `json:"notice"`
	Confirm string            `json:"confirm,omitempty"`
}

// Page is one browser page's server side state.
type Page struct {
	ID   string
	Kind Kind

	logger *slog.Logger

	menu     *profilemenu.Menu
	pipeline *upload.Pipeline
	chat     *chat.Panel
	auth     *authform.Form

	mu      sync.Mutex
	notice  Notice
	confirm string

	pubMu   sync.Mutex
	updates chan View
	closed  bool
}

// Updates delivers snapshots after every change. Only the latest pending
// snapshot is kept when the reader falls behind. It is closed by Close.
func (p *Page) Updates() <-chan View {
	return p.updates
}

// View assembles a snapshot from every controller.
func (p *Page) View() View {
	v := View{Page: p.Kind}
	if p.menu != nil {
		menu := p.menu.View()
		v.Profile = &menu
	}
	if p.pipeline != nil {
		up := p.pipeline.View()
		v.Upload = &up
	}
	if p.chat != nil {
		c := p.chat.View()
		v.Chat = &c
	}
	if p.auth != nil {
		a := p.auth.View()
		v.Auth = &a
	}
	p.mu.Lock()
	v.Notice = p.notice
	v.Confirm = p.confirm
	p.mu.Unlock()
	return v
}

// Upload feeds a file from the upload endpoint into the pipeline.
func (p *Page) Upload(ctx context.Context, file upload.File, source upload.Source) error {
	if p.pipeline == nil {
		return apperrors.Wrap(apperrors.CodeInvalidEvent, "page has no upload pipeline", nil)
	}
	return p.pipeline.SelectFile(ctx, file, source)
}

// Close stops chat timers and closes the update channel.
func (p *Page) Close() {
	if p.chat != nil {
		p.chat.Close()
	}
	p.pubMu.Lock()
	defer p.pubMu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.updates)
}

// OpenUpload implements profilemenu.Actions.
func (p *Page) OpenUpload(context.Context) {
	p.pipeline.Open()
}

// OpenSettings implements profilemenu.Actions.
func (p *Page) OpenSettings(context.Context) {
	p.setNotice(Notice{Text: MsgSettings, Kind: NoticeInfo})
}

// RequestLogout implements profilemenu.Actions.
func (p *Page) RequestLogout(context.Context) {
	p.mu.Lock()
	p.confirm = MsgLogoutConfirm
	p.mu.Unlock()
	p.publish()
}

func (p *Page) answerLogout(confirmed bool) {
	p.mu.Lock()
	pending := p.confirm != ""
	p.confirm = ""
	if pending && confirmed {
		p.notice = Notice{Text: MsgLoggedOut, Kind: NoticeInfo}
	}
	p.mu.Unlock()
	p.publish()
}

func (p *Page) setNotice(n Notice) {
	p.mu.Lock()
	p.notice = n
	p.mu.Unlock()
	p.publish()
}

// publish pushes the current snapshot, replacing a stale one the reader has
// not taken yet.
func (p *Page) publish() {
	p.pubMu.Lock()
	defer p.pubMu.Unlock()
	if p.closed {
		return
	}
	v := p.View()
	select {
	case p.updates <- v:
		return
	default:
	}
	select {
	case <-p.updates:
	default:
	}
	p.updates <- v
}
