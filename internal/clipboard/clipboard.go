package clipboard

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	atclip "github.com/atotto/clipboard"
)

// isWayland returns true if the session is running under Wayland.
func isWayland() bool {
	return os.Getenv("WAYLAND_DISPLAY") != ""
}

// Copy places text on the system clipboard. Under Wayland it uses wl-copy,
// since X11 clipboard tools do not reach native Wayland applications;
// elsewhere it uses xclip/xsel on Linux and pbcopy on macOS.
func Copy(text string) error {
	if isWayland() {
		if _, err := exec.LookPath("wl-copy"); err == nil {
			return copyWayland(text)
		}
	}
	if err := atclip.WriteAll(text); err != nil {
		return fmt.Errorf("write to clipboard: %w", err)
	}
	return nil
}

func copyWayland(text string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "wl-copy", "--", text)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("wl-copy: %w", err)
	}
	return nil
}
