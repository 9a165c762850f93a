package launcher

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/atotto/clipboard"
	"github.com/gen2brain/beeep"
)

// openURL opens a URL in the user's default browser.
func openURL(url string) error {
	switch runtime.GOOS {
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	case "darwin":
		return exec.Command("open", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}

// copyToClipboard puts text on the system clipboard.
func copyToClipboard(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("failed to copy to clipboard: %w", err)
	}
	return nil
}

// notify sends a desktop notification. Failures are ignored: the plugin
// surface has no terminal and a missed notification is harmless.
func notify(title, message string) {
	_ = beeep.Notify(title, message, "")
}
