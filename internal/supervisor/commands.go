package supervisor

import "os/exec"

// CommandFactory builds the upstream (signal acquisition) and downstream
// (protocol decoder) commands for a frequency. The supervisor wires the
// upstream's stdout into the downstream's stdin. Tests substitute stub
// commands through this.
type CommandFactory func(frequency string) (upstream, downstream *exec.Cmd)

// DefaultCommands builds the production rtl_fm | multimon-ng pair.
func DefaultCommands(frequency string) (*exec.Cmd, *exec.Cmd) {
	rtl := exec.Command("rtl_fm",
		"-f", frequency,
		"-M", "fm",
		"-s", "22050",
		"-g", "49",
		"-p", "0",
	)
	multimon := exec.Command("multimon-ng",
		"-t", "raw",
		"-a", "POCSAG512",
		"-a", "POCSAG1200",
		"-f", "alpha",
		"-",
	)
	return rtl, multimon
}
