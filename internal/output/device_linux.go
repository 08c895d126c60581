//go:build linux

package output

import (
	"os/exec"
	"strings"

	"github.com/gordonklaus/portaudio"
)

// DeviceName returns a human-readable name for the default output device.
// It asks pactl (PulseAudio/PipeWire) for the sink description first, then
// falls back to the PortAudio device name.
func DeviceName() string {
	if name := sinkNameFromPactl(); name != "" {
		return name
	}
	dev, err := portaudio.DefaultOutputDevice()
	if err != nil || dev == nil {
		return ""
	}
	return dev.Name
}

func sinkNameFromPactl() string {
	out, err := exec.Command("pactl", "get-default-sink").Output()
	if err != nil {
		return ""
	}
	sinkName := strings.TrimSpace(string(out))
	if sinkName == "" {
		return ""
	}

	out, err = exec.Command("pactl", "list", "sinks").Output()
	if err != nil {
		return ""
	}
	return sinkDescription(string(out), sinkName)
}

// sinkDescription finds the Description of the named sink in the output of
// `pactl list sinks`.
func sinkDescription(list, name string) string {
	inSink := false
	for _, line := range strings.Split(list, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "Name: ") {
			inSink = strings.TrimPrefix(trimmed, "Name: ") == name
		}
		if inSink && strings.HasPrefix(trimmed, "Description: ") {
			return strings.TrimPrefix(trimmed, "Description: ")
		}
	}
	return ""
}
