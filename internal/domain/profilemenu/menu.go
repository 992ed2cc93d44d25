package profilemenu

import (
	"context"
	"fmt"
	"sync"

	apperrors "github.com/ben-burie/Stryde/pkg/errors"
)

// Element ids that make up the menu region.
const (
	ButtonID    = "profileButton"
	MenuID      = "profileMenu"
	FirstItemID = "uploadDataBtn"
	SettingsID  = "accountSettingsBtn"
	LogoutID    = "logoutBtn"
	KeyEscape   = "Escape"
	ariaTrue    = "true"
	ariaFalse   = "false"
)

// Action is a menu item.
type Action string

const (
	ActionUpload   Action = "upload"
	ActionSettings Action = "settings"
	ActionLogout   Action = "logout"
)

// ParseAction maps an action name or item element id to an Action.
func ParseAction(s string) (Action, error) {
	switch s {
	case string(ActionUpload), FirstItemID:
		return ActionUpload, nil
	case string(ActionSettings), SettingsID:
		return ActionSettings, nil
	case string(ActionLogout), LogoutID:
		return ActionLogout, nil
	}
	return "", apperrors.Wrap(apperrors.CodeInvalidEvent, fmt.Sprintf("unknown menu action %q", s), nil)
}

// Actions performs the effect of a selected item.
type Actions interface {
	OpenUpload(ctx context.Context)
	OpenSettings(ctx context.Context)
	RequestLogout(ctx context.Context)
}

// View mirrors the menu's DOM attributes.
type View struct {
	Open         bool   `json:"profileMenu"`
	AriaExpanded string `json:"aria-expanded"`
	AriaHidden   string `json:"aria-hidden"`
	Focus        string `json:"focus"`
}

// Menu is the profile dropdown controller.
type Menu struct {
	actions  Actions
	onChange func()

	mu   sync.Mutex
	open bool
}

// New builds a closed menu. onChange runs with no lock held; it may be nil.
func New(actions Actions, onChange func()) *Menu {
	if onChange == nil {
		onChange = func() {}
	}
	return &Menu{actions: actions, onChange: onChange}
}

func (m *Menu) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.open {
		return View{Open: true, AriaExpanded: ariaTrue, AriaHidden: ariaFalse, Focus: FirstItemID}
	}
	return View{AriaExpanded: ariaFalse, AriaHidden: ariaTrue}
}

// IsOpen reports the current state.
func (m *Menu) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

// Toggle flips the menu, as a click on the profile button does.
func (m *Menu) Toggle() {
	m.mu.Lock()
	m.open = !m.open
	m.mu.Unlock()
	m.onChange()
}

// SetOpen forces a state; it is a no-op when already there.
func (m *Menu) SetOpen(open bool) {
	m.mu.Lock()
	if m.open == open {
		m.mu.Unlock()
		return
	}
	m.open = open
	m.mu.Unlock()
	m.onChange()
}

// HandleClick closes the menu when target lies outside the button and menu.
// ancestors lists the ids of target's ancestors as reported by the client.
func (m *Menu) HandleClick(target string, ancestors ...string) {
	for _, id := range append([]string{target}, ancestors...) {
		if InRegion(id) {
			return
		}
	}
	m.SetOpen(false)
}

// HandleKey closes the menu on Escape.
func (m *Menu) HandleKey(key string) {
	if key == KeyEscape {
		m.SetOpen(false)
	}
}

// Select closes the menu, then performs the action.
func (m *Menu) Select(ctx context.Context, action Action) error {
	m.SetOpen(false)
	switch action {
	case ActionUpload:
		m.actions.OpenUpload(ctx)
	case ActionSettings:
		m.actions.OpenSettings(ctx)
	case ActionLogout:
		m.actions.RequestLogout(ctx)
	default:
		return apperrors.Wrap(apperrors.CodeInvalidEvent, fmt.Sprintf("unknown menu action %q", action), nil)
	}
	return nil
}

// InRegion reports whether id belongs to the button or the menu.
func InRegion(id string) bool {
	switch id {
	case ButtonID, MenuID, FirstItemID, SettingsID, LogoutID:
		return true
	}
	return false
}
