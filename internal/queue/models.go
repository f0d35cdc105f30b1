package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a conversion session.
type Status string

const (
	StatusCreated      Status = "created"
	StatusAnalyzing    Status = "analyzing"
	StatusScripting    Status = "scripting"
	StatusSynthesizing Status = "synthesizing_audio"
	StatusRendering    Status = "rendering_video"
	StatusMerging      Status = "merging"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
)

// DaemonStopReason is the error message set when in-flight sessions are
// failed due to daemon shutdown.
const DaemonStopReason = "Daemon stopped"

var allStatuses = []Status{
	StatusCreated,
	StatusAnalyzing,
	StatusScripting,
	StatusSynthesizing,
	StatusRendering,
	StatusMerging,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusAnalyzing:    {},
	StatusScripting:    {},
	StatusSynthesizing: {},
	StatusRendering:    {},
	StatusMerging:      {},
}

// Progress checkpoints recorded as a session moves through the pipeline.
const (
	ProgressQueued      = 0
	ProgressAnalyzing   = 10
	ProgressScripting   = 30
	ProgressSynthesized = 50
	ProgressRendered    = 70
	ProgressMerging     = 90
	ProgressDone        = 100
)

// Session represents a repository-to-video conversion persisted in SQLite.
type Session struct {
	ID           string
	RepoURL      string
	RepoName     string
	Status       Status
	Progress     int
	Message      string
	ScriptText   string
	AudioPath    string
	VideoPath    string
	OutputPath   string
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessing returns true when the status reflects an in-flight stage.
func (s *Session) IsProcessing() bool {
	_, ok := processingStatuses[s.Status]
	return ok
}

// IsProcessingStatus reports whether a status reflects an in-flight stage.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// IsTerminal reports whether a status is a final state.
func IsTerminal(status Status) bool {
	return status == StatusCompleted || status == StatusFailed
}

// SetProgress updates status, progress, and the user-facing message together.
func (s *Session) SetProgress(status Status, progress int, message string) {
	s.Status = status
	s.Progress = progress
	s.Message = message
}

// SetCompleted marks the session finished with its final output path.
func (s *Session) SetCompleted(outputPath string) {
	s.Status = StatusCompleted
	s.Progress = ProgressDone
	s.Message = "Video ready"
	s.OutputPath = outputPath
	s.ErrorMessage = ""
}

// SetFailed marks the session as failed with the given error message.
// Progress is preserved so the failure point remains visible.
func (s *Session) SetFailed(message string) {
	s.Status = StatusFailed
	s.ErrorMessage = message
	s.Message = message
}
