package tracker

import (
	"fmt"
	"strings"

	"premiere/internal/services"
)

// Action is a button a user can press on a search result.
type Action int

const (
	ActionEnableAlert Action = iota + 1
	ActionDisableAlert
	ActionDismiss
)

var actionNames = map[Action]string{
	ActionEnableAlert:  "enable_alert",
	ActionDisableAlert: "disable_alert",
	ActionDismiss:      "dismiss",
}

var actionLabels = map[Action]string{
	ActionEnableAlert:  "Enable alert",
	ActionDisableAlert: "Disable alert",
	ActionDismiss:      "Dismiss",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// Label is the button text.
func (a Action) Label() string {
	return actionLabels[a]
}

// ParseAction resolves an action tag such as "enable_alert".
func ParseAction(value string) (Action, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	for action, name := range actionNames {
		if name == value {
			return action, nil
		}
	}
	return 0, services.Wrap(services.ErrValidation, "tracker", "parse action", fmt.Sprintf("unknown action %q", value), nil)
}

// MarshalText encodes the action tag.
func (a Action) MarshalText() ([]byte, error) {
	name, ok := actionNames[a]
	if !ok {
		return nil, fmt.Errorf("unknown action %d", int(a))
	}
	return []byte(name), nil
}

// UnmarshalText decodes an action tag.
func (a *Action) UnmarshalText(text []byte) error {
	parsed, err := ParseAction(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ActionRequest is a button press on a result for TitleID.
type ActionRequest struct {
	Action   Action
	UserID   string
	UserName string
	TitleID  string
}

// ActionReply tells the interactive layer how to update the result. When
// LinkURL is set the buttons are replaced by a single link labelled LinkLabel;
// ClearButtons removes them without a replacement.
type ActionReply struct {
	Text         string
	LinkLabel    string
	LinkURL      string
	ClearButtons bool
}
