//go:build linux

package hotkey

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	evdev "github.com/holoplot/go-evdev"
)

// keyNameMap lists the evdev keys that make sense as a global toggle:
// function keys, lock keys and the media keys most keyboards carry.
var keyNameMap = map[string]evdev.EvCode{
	"KEY_F1":           59,
	"KEY_F2":           60,
	"KEY_F3":           61,
	"KEY_F4":           62,
	"KEY_F5":           63,
	"KEY_F6":           64,
	"KEY_F7":           65,
	"KEY_F8":           66,
	"KEY_F9":           67,
	"KEY_F10":          68,
	"KEY_F11":          87,
	"KEY_F12":          88,
	"KEY_F13":          183,
	"KEY_F14":          184,
	"KEY_F15":          185,
	"KEY_F16":          186,
	"KEY_F17":          187,
	"KEY_F18":          188,
	"KEY_F19":          189,
	"KEY_F20":          190,
	"KEY_F21":          191,
	"KEY_F22":          192,
	"KEY_F23":          193,
	"KEY_F24":          194,
	"KEY_SCROLLLOCK":   70,
	"KEY_PAUSE":        119,
	"KEY_INSERT":       110,
	"KEY_RIGHTCTRL":    97,
	"KEY_RIGHTALT":     100,
	"KEY_RIGHTMETA":    126,
	"KEY_MUTE":         113,
	"KEY_NEXTSONG":     163,
	"KEY_PLAYPAUSE":    164,
	"KEY_PREVIOUSSONG": 165,
	"KEY_STOPCD":       166,
	"KEY_PLAY":         207,
	"KEY_PAUSECD":      201,
}

// KeyCodeFromName maps an evdev key name string to its numeric key code.
func KeyCodeFromName(name string) (evdev.EvCode, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	code, ok := keyNameMap[upper]
	if !ok {
		return 0, fmt.Errorf("unknown or unsupported toggle key: %s", name)
	}
	return code, nil
}

// FindKeyboard opens devicePath, or scans /dev/input/event* for the first
// keyboard that can emit keyCode.
func FindKeyboard(devicePath string, keyCode evdev.EvCode) (*evdev.InputDevice, error) {
	if devicePath != "" {
		dev, err := evdev.Open(devicePath)
		if err != nil {
			return nil, fmt.Errorf("open device %s: %w", devicePath, err)
		}
		return dev, nil
	}

	matches, err := filepath.Glob("/dev/input/event*")
	if err != nil {
		return nil, fmt.Errorf("glob /dev/input/event*: %w", err)
	}
	sortEventPaths(matches)

	for _, path := range matches {
		dev, err := evdev.Open(path)
		if err != nil {
			continue
		}
		if canEmit(dev, keyCode) {
			return dev, nil
		}
		_ = dev.Close()
	}

	return nil, fmt.Errorf("no input device with key code %d in /dev/input/event* (is your user in the input group?)", keyCode)
}

// sortEventPaths orders paths numerically so event7 comes before event10.
func sortEventPaths(paths []string) {
	sort.Slice(paths, func(i, j int) bool {
		ni, _ := strconv.Atoi(strings.TrimPrefix(paths[i], "/dev/input/event"))
		nj, _ := strconv.Atoi(strings.TrimPrefix(paths[j], "/dev/input/event"))
		return ni < nj
	})
}

// canEmit reports whether dev is a key device (not a mouse) that has code.
// Media keys often live on a separate "Consumer Control" device, so
// letter keys are not required.
func canEmit(dev *evdev.InputDevice, code evdev.EvCode) bool {
	for _, evType := range dev.CapableTypes() {
		if evType == evdev.EV_REL {
			return false
		}
	}
	for _, c := range dev.CapableEvents(evdev.EV_KEY) {
		if c == code {
			return true
		}
	}
	return false
}

type linuxListener struct {
	dev     *evdev.InputDevice
	keyCode evdev.EvCode
	keyName string
	mu      sync.Mutex
	closed  bool
}

// NewListener creates a Listener for the given evdev device, key code, and key name.
func NewListener(dev *evdev.InputDevice, keyCode evdev.EvCode, keyName string) Listener {
	return &linuxListener{dev: dev, keyCode: keyCode, keyName: keyName}
}

// Start blocks reading evdev events and calls onPress on each key-down of
// the configured key. It returns when ctx is cancelled or the device closes.
func (l *linuxListener) Start(ctx context.Context, onPress func()) error {
	errCh := make(chan error, 1)

	go func() {
		for {
			ev, err := l.dev.ReadOne()
			if err != nil {
				errCh <- l.readErr(err)
				return
			}
			// value 1 = down; 0 = up and 2 = repeat are ignored
			if ev.Type == evdev.EV_KEY && ev.Code == l.keyCode && ev.Value == 1 && onPress != nil {
				onPress()
			}
		}
	}()

	select {
	case <-ctx.Done():
		l.Stop()
		<-errCh
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

func (l *linuxListener) readErr(err error) error {
	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed || os.IsNotExist(err) ||
		strings.Contains(err.Error(), "file already closed") ||
		strings.Contains(err.Error(), "bad file descriptor") {
		return nil
	}
	return fmt.Errorf("read event: %w", err)
}

// Stop closes the evdev device and stops the listener.
func (l *linuxListener) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.closed {
		l.closed = true
		_ = l.dev.Close()
	}
}

func (l *linuxListener) KeyName() string {
	return l.keyName
}
