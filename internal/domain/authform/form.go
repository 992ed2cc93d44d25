package authform

import (
	"fmt"
	"sync"

	apperrors "github.com/ben-burie/Stryde/pkg/errors"
)

// Mode selects the visible form.
type Mode string

const (
	ModeLogin  Mode = "login"
	ModeSignup Mode = "signup"
)

const (
	classActive   = "active"
	classInactive = "inactive"

	MsgLoginSubmitted = "Login submitted!"
	MsgAccountCreated = "Account created!"
)

// ErrPasswordMismatch blocks signup when the confirmation differs.
var ErrPasswordMismatch = apperrors.Wrap(apperrors.CodePasswordMismatch, "Passwords do not match!", nil)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeLogin, ModeSignup:
		return Mode(s), nil
	}
	return "", apperrors.Wrap(apperrors.CodeInvalidEvent, fmt.Sprintf("unknown auth mode %q", s), nil)
}

// View mirrors the logon page elements.
type View struct {
	Mode          Mode   `json:"mode"`
	LoginVisible  bool   `json:"loginForm"`
	SignupVisible bool   `json:"signupForm"`
	LoginClass    string `json:"loginBtn"`
	SignupClass   string `json:"signupBtn"`
	SliderActive  bool   `json:"sliderBg"`
}

// Form is the login/signup toggle.
type Form struct {
	onChange func()

	mu   sync.Mutex
	mode Mode
}

// New starts in login mode.
func New(onChange func()) *Form {
	if onChange == nil {
		onChange = func() {}
	}
	return &Form{mode: ModeLogin, onChange: onChange}
}

func (f *Form) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mode == ModeSignup {
		return View{Mode: ModeSignup, SignupVisible: true, LoginClass: classInactive, SignupClass: classActive, SliderActive: true}
	}
	return View{Mode: ModeLogin, LoginVisible: true, LoginClass: classActive, SignupClass: classInactive}
}

// SwitchTo shows exactly one form.
func (f *Form) SwitchTo(mode Mode) error {
	if _, err := ParseMode(string(mode)); err != nil {
		return err
	}
	f.mu.Lock()
	f.mode = mode
	f.mu.Unlock()
	f.onChange()
	return nil
}

// SubmitLogin acknowledges without validation.
func (f *Form) SubmitLogin() string {
	return MsgLoginSubmitted
}

// SubmitSignup requires the confirmation to match the password byte for byte.
func (f *Form) SubmitSignup(password, confirm string) (string, error) {
	if password != confirm {
		return "", ErrPasswordMismatch
	}
	return MsgAccountCreated, nil
}
