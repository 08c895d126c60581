//go:build darwin

package main

import (
	"log"

	"github.com/gordonklaus/portaudio"
	"golang.design/x/mainthread"

	"github.com/Danondso/ambience/internal/config"
	"github.com/Danondso/ambience/internal/hotkey"
)

// The Carbon hotkey API delivers events on the main thread.
func main() {
	mainthread.Init(run)
}

func createListener(cfg *config.Config, dbg *log.Logger) (hotkey.Listener, error) {
	mods, key, keyName, err := hotkey.ParseHotkeyCombo(cfg.Hotkey.Key)
	if err != nil {
		return nil, err
	}
	dbg.Printf("hotkey: %s (%d modifiers)", keyName, len(mods))

	return hotkey.NewListener(mods, key, keyName), nil
}

// CoreAudio does not print probe noise, so no redirect is needed.
func initPortAudio() error {
	return portaudio.Initialize()
}
