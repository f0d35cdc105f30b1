// Package deps reports the availability of external binaries the conversion
// pipeline shells out to.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"reporeel/internal/config"
)

// Requirement defines an external dependency reporeel relies on.
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

// Requirements returns the binaries the pipeline uses for the given config.
// Only ffmpeg and ffprobe are required; every speech engine is optional
// because synthesis falls back to a silent track.
func Requirements(cfg *config.Config) []Requirement {
	ffmpeg := "ffmpeg"
	ffprobe := "ffprobe"
	if cfg != nil {
		ffmpeg = cfg.FFmpegBinary()
		ffprobe = cfg.FFprobeBinary()
	}
	return []Requirement{
		{Name: "FFmpeg", Command: ffmpeg, Description: "video rendering and audio/video merge"},
		{Name: "FFprobe", Command: ffprobe, Description: "media duration and stream inspection"},
		{Name: "espeak", Command: "espeak", Description: "offline text-to-speech", Optional: true},
		{Name: "say", Command: "say", Description: "macOS text-to-speech", Optional: true},
		{Name: "festival", Command: "festival", Description: "offline text-to-speech", Optional: true},
		{Name: "edge-tts", Command: "edge-tts", Description: "neural text-to-speech", Optional: true},
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
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// MissingRequired returns the names of required binaries that are unavailable.
func MissingRequired(statuses []Status) []string {
	var missing []string
	for _, status := range statuses {
		if !status.Optional && !status.Available {
			missing = append(missing, status.Name)
		}
	}
	return missing
}
