package capture

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-client/internal/lifecycle"
)

// captureTimeout bounds one still-frame grab.
const captureTimeout = 10 * time.Second

// CommandDevice grabs still frames by running an external capture command
// (ffmpeg, fswebcam, ...) that writes one encoded image to stdout. The
// device node path substitutes for the {device} placeholder in the command.
type CommandDevice struct {
	command   string
	devPath   string
	lifecycle *lifecycle.Monitor
	log       zerolog.Logger

	mu        sync.Mutex
	asked     bool
	permitted bool
}

// NewCommandDevice creates a capture device backed by an external command.
func NewCommandDevice(command, devPath string, lc *lifecycle.Monitor, log zerolog.Logger) *CommandDevice {
	return &CommandDevice{
		command:   command,
		devPath:   devPath,
		lifecycle: lc,
		log:       log.With().Str("component", "capture").Logger(),
	}
}

// IsReady reports whether the camera device node is present.
func (d *CommandDevice) IsReady() bool {
	if d.command == "" {
		return false
	}
	_, err := os.Stat(d.devPath)
	return err == nil
}

// HasPermission reports whether a previous permission request succeeded.
func (d *CommandDevice) HasPermission() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.asked && d.permitted
}

// RequestPermission probes the device once. The result sticks for the
// process lifetime; a denial is surfaced as a warning but leaves the rest
// of the app usable.
func (d *CommandDevice) RequestPermission(ctx context.Context) bool {
	d.mu.Lock()
	if d.asked {
		granted := d.permitted
		d.mu.Unlock()
		return granted
	}
	d.mu.Unlock()

	granted := d.probe(ctx)

	d.mu.Lock()
	d.asked = true
	d.permitted = granted
	d.mu.Unlock()

	if !granted {
		d.log.Warn().Str("device", d.devPath).Msg("Camera permission denied")
	}
	return granted
}

func (d *CommandDevice) probe(ctx context.Context) bool {
	f, err := os.OpenFile(d.devPath, os.O_RDONLY, 0)
	if err != nil {
		return false
	}
	_ = f.Close()
	return true
}

// Capture produces one encoded still frame, or nil when the app is
// backgrounded, the device is unavailable, permission is absent, or the
// capture command fails. All of those are expected races with the
// scheduler's interval and are logged at debug level only.
func (d *CommandDevice) Capture(ctx context.Context) []byte {
	if !d.lifecycle.Foreground() {
		d.log.Debug().Msg("Skipping capture: app in background")
		return nil
	}
	if !d.IsReady() {
		d.log.Debug().Msg("Skipping capture: device not ready")
		return nil
	}
	if !d.HasPermission() {
		d.log.Debug().Msg("Skipping capture: no camera permission")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, captureTimeout)
	defer cancel()

	parts := strings.Fields(strings.ReplaceAll(d.command, "{device}", d.devPath))
	if len(parts) == 0 {
		return nil
	}

	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	out, err := cmd.Output()
	if err != nil {
		d.log.Debug().Err(err).Msg("Capture command failed")
		return nil
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
