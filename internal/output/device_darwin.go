//go:build darwin

package output

import "github.com/gordonklaus/portaudio"

// DeviceName returns a human-readable name for the default output device.
// On macOS, this simply returns the PortAudio device name.
func DeviceName() string {
	dev, err := portaudio.DefaultOutputDevice()
	if err != nil || dev == nil {
		return ""
	}
	return dev.Name
}
