// Package deps reports the availability of external binaries the daemon
// shells out to: ffmpeg for RTSP frame grabs and arp for MAC resolution
// during discovery sweeps.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"xcam/internal/config"
)

// Requirement defines an external binary xcam relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements derives the binary requirements from the configuration.
// The arp binary is marked optional because it is only exercised when a
// discovery network is configured.
func Requirements(cfg *config.Config) []Requirement {
	ffmpeg := "ffmpeg"
	arp := "arp"
	if cfg != nil {
		ffmpeg = cfg.FFmpegBinary()
		arp = cfg.ARPBinary()
	}
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     ffmpeg,
			Description: "RTSP frame capture and stitching",
		},
		{
			Name:        "arp",
			Command:     arp,
			Description: "MAC resolution during discovery sweeps",
			Optional:    true,
		},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if resolved, err := exec.LookPath(cmd); err == nil {
			status.Available = true
			status.Command = resolved
		} else {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
		}
		results = append(results, status)
	}
	return results
}
