//go:build darwin

package hotkey

import (
	"context"
	"fmt"
	"strings"

	"golang.design/x/hotkey"
)

var modifierMap = map[string]hotkey.Modifier{
	"OPTION": hotkey.ModOption,
	"ALT":    hotkey.ModOption,
	"CTRL":   hotkey.ModCtrl,
	"SHIFT":  hotkey.ModShift,
	"CMD":    hotkey.ModCmd,
}

// functionKeys may be bound without a modifier.
var functionKeys = map[string]hotkey.Key{
	"F1":  hotkey.KeyF1,
	"F2":  hotkey.KeyF2,
	"F3":  hotkey.KeyF3,
	"F4":  hotkey.KeyF4,
	"F5":  hotkey.KeyF5,
	"F6":  hotkey.KeyF6,
	"F7":  hotkey.KeyF7,
	"F8":  hotkey.KeyF8,
	"F9":  hotkey.KeyF9,
	"F10": hotkey.KeyF10,
	"F11": hotkey.KeyF11,
	"F12": hotkey.KeyF12,
	"F13": hotkey.KeyF13,
	"F14": hotkey.KeyF14,
	"F15": hotkey.KeyF15,
	"F16": hotkey.KeyF16,
	"F17": hotkey.KeyF17,
	"F18": hotkey.KeyF18,
	"F19": hotkey.KeyF19,
	"F20": hotkey.KeyF20,
}

// comboKeys need at least one modifier.
var comboKeys = map[string]hotkey.Key{
	"SPACE":  hotkey.KeySpace,
	"RETURN": hotkey.KeyReturn,
	"ESCAPE": hotkey.KeyEscape,
	"A":      hotkey.KeyA,
	"B":      hotkey.KeyB,
	"M":      hotkey.KeyM,
	"N":      hotkey.KeyN,
	"P":      hotkey.KeyP,
	"S":      hotkey.KeyS,
	"0":      hotkey.Key0,
	"1":      hotkey.Key1,
	"2":      hotkey.Key2,
	"3":      hotkey.Key3,
	"4":      hotkey.Key4,
	"5":      hotkey.Key5,
	"6":      hotkey.Key6,
	"7":      hotkey.Key7,
	"8":      hotkey.Key8,
	"9":      hotkey.Key9,
}

// ParseHotkeyCombo parses "F9", "Option+F9" or "Ctrl+Shift+P" into
// modifiers and a key. Evdev-style names such as "KEY_F9" are accepted for
// function keys so one config file works on both platforms.
func ParseHotkeyCombo(combo string) ([]hotkey.Modifier, hotkey.Key, string, error) {
	combo = strings.TrimSpace(combo)
	if combo == "" {
		return nil, 0, "", fmt.Errorf("empty hotkey combo")
	}

	parts := strings.Split(combo, "+")
	keyStr := strings.ToUpper(strings.TrimSpace(parts[len(parts)-1]))
	keyStr = strings.TrimPrefix(keyStr, "KEY_")

	var mods []hotkey.Modifier
	for _, part := range parts[:len(parts)-1] {
		part = strings.TrimSpace(part)
		mod, ok := modifierMap[strings.ToUpper(part)]
		if !ok {
			return nil, 0, "", fmt.Errorf("unknown modifier: %s (valid: Option, Alt, Ctrl, Shift, Cmd)", part)
		}
		mods = append(mods, mod)
	}

	if key, ok := functionKeys[keyStr]; ok {
		return mods, key, combo, nil
	}
	key, ok := comboKeys[keyStr]
	if !ok {
		return nil, 0, "", fmt.Errorf("unknown key: %s", keyStr)
	}
	if len(mods) == 0 {
		return nil, 0, "", fmt.Errorf("%s needs a modifier (e.g. Option+%s)", combo, keyStr)
	}
	return mods, key, combo, nil
}

type darwinListener struct {
	mods    []hotkey.Modifier
	key     hotkey.Key
	keyName string
	hk      *hotkey.Hotkey
}

// NewListener creates a darwin hotkey Listener for the given modifiers, key, and display name.
func NewListener(mods []hotkey.Modifier, key hotkey.Key, keyName string) Listener {
	return &darwinListener{mods: mods, key: key, keyName: keyName}
}

// Start registers the hotkey and calls onPress on each key-down. It blocks
// until ctx is cancelled.
func (l *darwinListener) Start(ctx context.Context, onPress func()) error {
	l.hk = hotkey.New(l.mods, l.key)
	if err := l.hk.Register(); err != nil {
		return fmt.Errorf("register hotkey %s: %w (grant Accessibility permissions in System Settings > Privacy & Security)", l.keyName, err)
	}

	for {
		select {
		case <-ctx.Done():
			l.hk.Unregister()
			return ctx.Err()
		case <-l.hk.Keydown():
			if onPress != nil {
				onPress()
			}
		case <-l.hk.Keyup():
		}
	}
}

func (l *darwinListener) Stop() {
	if l.hk != nil {
		l.hk.Unregister()
	}
}

func (l *darwinListener) KeyName() string {
	return l.keyName
}
