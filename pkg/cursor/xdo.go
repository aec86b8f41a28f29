package cursor

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// XdoDevice implements Device by shelling out to xdotool. It is the default
// device on Linux desktops; the rest of the system only sees the Device
// interface.
type XdoDevice struct {
	// Tool is the xdotool binary path. Empty means "xdotool" on PATH.
	Tool string
}

var _ Device = (*XdoDevice)(nil)

func (d *XdoDevice) tool() string {
	if d.Tool != "" {
		return d.Tool
	}
	return "xdotool"
}

func (d *XdoDevice) run(args ...string) (string, error) {
	out, err := exec.Command(d.tool(), args...).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("xdotool %s: %w: %s", args[0], err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

// Move places the cursor at the given screen coordinates.
func (d *XdoDevice) Move(x, y int) error {
	_, err := d.run("mousemove", strconv.Itoa(x), strconv.Itoa(y))
	return err
}

// Click presses the given button at the current position.
func (d *XdoDevice) Click(button string, double bool) error {
	b := "1"
	if button == "right" {
		b = "3"
	}
	args := []string{"click", b}
	if double {
		args = []string{"click", "--repeat", "2", "--delay", "100", b}
	}
	_, err := d.run(args...)
	return err
}

// Drag presses the left button, moves to the end coordinates, and releases.
func (d *XdoDevice) Drag(x, y int) error {
	if _, err := d.run("mousedown", "1"); err != nil {
		return err
	}
	if err := d.Move(x, y); err != nil {
		// Release so a failed drag does not leave the button held.
		d.run("mouseup", "1")
		return err
	}
	_, err := d.run("mouseup", "1")
	return err
}

// Position reports the current cursor coordinates.
func (d *XdoDevice) Position() (int, int, error) {
	out, err := d.run("getmouselocation", "--shell")
	if err != nil {
		return 0, 0, err
	}

	// Output is shell assignments: X=..., Y=..., SCREEN=..., WINDOW=...
	var x, y int
	for _, line := range strings.Split(out, "\n") {
		if v, ok := strings.CutPrefix(line, "X="); ok {
			x, _ = strconv.Atoi(strings.TrimSpace(v))
		}
		if v, ok := strings.CutPrefix(line, "Y="); ok {
			y, _ = strconv.Atoi(strings.TrimSpace(v))
		}
	}
	return x, y, nil
}
