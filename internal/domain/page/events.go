package page

import (
	"context"
	"fmt"

	"github.com/ben-burie/Stryde/internal/domain/authform"
	"github.com/ben-burie/Stryde/internal/domain/chat"
	"github.com/ben-burie/Stryde/internal/domain/profilemenu"
	apperrors "github.com/ben-burie/Stryde/pkg/errors"
)

// Event types forwarded by the browser.
const (
	EventProfileToggle = "profile.toggle"
	EventDocumentClick = "document.click"
	EventDocumentKey   = "document.keydown"
	EventMenuSelect    = "menu.select"
	EventUploadOpen    = "upload.open"
	EventUploadClose   = "upload.close"
	EventChatInput     = "chat.input"
	EventChatSend      = "chat.send"
	EventChatKey       = "chat.keydown"
	EventLogoutAnswer  = "logout.confirm"
	EventNoticeDismiss = "notice.dismiss"
	EventAuthSwitch    = "auth.switch"
	EventAuthLogin     = "auth.login"
	EventAuthSignup    = "auth.signup"
)

// Event is a DOM interaction. Only the fields relevant to Type are set.
type Event struct {
	Type      string   `json:"type"`
	Target    string   `json:"target,omitempty"`
	Path      []string `json:"path,omitempty"`
	Key       string   `json:"key,omitempty"`
	Text      string   `json:"text,omitempty"`
	Action    string   `json:"action,omitempty"`
	Mode      string   `json:"mode,omitempty"`
	Password  string   `json:"password,omitempty"`
	Confirm   string   `json:"confirm,omitempty"`
	Confirmed bool     `json:"confirmed,omitempty"`
}

// Dispatch applies ev to the page's controllers. Validation failures are
// surfaced as an error notice and returned; the page stays usable.
func (p *Page) Dispatch(ctx context.Context, ev Event) error {
	var err error
	switch p.Kind {
	case KindHome:
		err = p.dispatchHome(ctx, ev)
	case KindLogon:
		err = p.dispatchLogon(ev)
	}
	if err != nil && apperrors.IsCode(err, apperrors.CodeInvalidEvent) {
		p.logger.Debug("event rejected", "type", ev.Type, "error", err)
	}
	return err
}

func (p *Page) dispatchHome(ctx context.Context, ev Event) error {
	switch ev.Type {
	case EventProfileToggle:
		p.menu.Toggle()
	case EventDocumentClick:
		p.menu.HandleClick(ev.Target, ev.Path...)
	case EventDocumentKey:
		p.menu.HandleKey(ev.Key)
	case EventMenuSelect:
		action, err := profilemenu.ParseAction(ev.Action)
		if err != nil {
			return err
		}
		return p.menu.Select(ctx, action)
	case EventUploadOpen:
		p.pipeline.Open()
	case EventUploadClose:
		p.pipeline.Close()
	case EventChatInput:
		p.chat.SetInput(ev.Text)
	case EventChatSend:
		p.chat.Post(ev.Text)
	case EventChatKey:
		if ev.Key == "" {
			return apperrors.Wrap(apperrors.CodeInvalidEvent, "chat key event without key", nil)
		}
		if !p.chat.HandleKey(ev.Key, ev.Text) && ev.Key != chat.KeyEnter {
			p.chat.SetInput(ev.Text)
		}
	case EventLogoutAnswer:
		p.answerLogout(ev.Confirmed)
	case EventNoticeDismiss:
		p.setNotice(Notice{})
	default:
		return unknownEvent(ev)
	}
	return nil
}

func (p *Page) dispatchLogon(ev Event) error {
	switch ev.Type {
	case EventAuthSwitch:
		mode, err := authform.ParseMode(ev.Mode)
		if err != nil {
			return err
		}
		return p.auth.SwitchTo(mode)
	case EventAuthLogin:
		p.setNotice(Notice{Text: p.auth.SubmitLogin(), Kind: NoticeInfo})
	case EventAuthSignup:
		msg, err := p.auth.SubmitSignup(ev.Password, ev.Confirm)
		if err != nil {
			p.setNotice(Notice{Text: apperrors.MessageOf(err), Kind: NoticeError})
			return err
		}
		p.setNotice(Notice{Text: msg, Kind: NoticeInfo})
	case EventNoticeDismiss:
		p.setNotice(Notice{})
	default:
		return unknownEvent(ev)
	}
	return nil
}

func unknownEvent(ev Event) error {
	return apperrors.Wrap(apperrors.CodeInvalidEvent, fmt.Sprintf("unsupported event %q", ev.Type), nil)
}

// IsUserFacing reports whether err is an expected validation or upstream
// failure already shown on the page, as opposed to a malformed request.
func IsUserFacing(err error) bool {
	switch apperrors.CodeOf(err) {
	case apperrors.CodeNoFile, apperrors.CodeInvalidFile, apperrors.CodeServerError,
		apperrors.CodeTransportError, apperrors.CodePasswordMismatch:
		return true
	}
	return false
}
