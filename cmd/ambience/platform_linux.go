//go:build linux

package main

import (
	"log"
	"os"
	"syscall"

	"github.com/gordonklaus/portaudio"

	"github.com/Danondso/ambience/internal/config"
	"github.com/Danondso/ambience/internal/hotkey"
)

func main() {
	run()
}

// createListener resolves the evdev key and finds an input device that can
// send it. Reading /dev/input needs membership in the input group.
func createListener(cfg *config.Config, dbg *log.Logger) (hotkey.Listener, error) {
	keyCode, err := hotkey.KeyCodeFromName(cfg.Hotkey.Key)
	if err != nil {
		return nil, err
	}
	dbg.Printf("hotkey: %s (code=%d)", cfg.Hotkey.Key, keyCode)

	dev, err := hotkey.FindKeyboard(cfg.Hotkey.Device, keyCode)
	if err != nil {
		return nil, err
	}
	dbg.Printf("keyboard device: %s", dev.Path())

	return hotkey.NewListener(dev, keyCode, cfg.Hotkey.Key), nil
}

// initPortAudio initializes PortAudio with stderr pointed at /dev/null so
// ALSA and JACK probe warnings do not land on top of the TUI.
func initPortAudio() error {
	return withStderrSilenced(portaudio.Initialize)
}

// withStderrSilenced runs fn with file descriptor 2 redirected to
// /dev/null. If the redirect cannot be set up fn runs unchanged.
func withStderrSilenced(fn func() error) error {
	stderrFd := int(os.Stderr.Fd()) //nolint:gosec // fd fits in int on all supported platforms
	saved, err := syscall.Dup(stderrFd)
	if err != nil {
		return fn()
	}
	defer func() { _ = syscall.Close(saved) }()

	devNull, err := os.Open(os.DevNull)
	if err != nil {
		return fn()
	}
	_ = syscall.Dup2(int(devNull.Fd()), stderrFd)
	_ = devNull.Close()
	defer func() { _ = syscall.Dup2(saved, stderrFd) }()

	return fn()
}
