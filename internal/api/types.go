package api

import (
	"time"

	"reporeel/internal/queue"
)

// JobView is the wire representation of a conversion session.
type JobView struct {
	ID           string    `json:"id"`
	RepoURL      string    `json:"repo_url"`
	RepoName     string    `json:"repo_name,omitempty"`
	Status       string    `json:"status"`
	Progress     int       `json:"progress"`
	Message      string    `json:"message,omitempty"`
	OutputPath   string    `json:"output_path,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FromSession converts a stored session into its wire form.
func FromSession(session *queue.Session) JobView {
	if session == nil {
		return JobView{}
	}
	return JobView{
		ID:           session.ID,
		RepoURL:      session.RepoURL,
		RepoName:     session.RepoName,
		Status:       string(session.Status),
		Progress:     session.Progress,
		Message:      session.Message,
		OutputPath:   session.OutputPath,
		ErrorMessage: session.ErrorMessage,
		CreatedAt:    session.CreatedAt,
		UpdatedAt:    session.UpdatedAt,
	}
}

// SubmitRequest is the POST /api/jobs payload.
type SubmitRequest struct {
	RepoURL string `json:"repo_url"`
}

// SubmitResponse acknowledges an accepted submission.
type SubmitResponse struct {
	ID string `json:"id"`
}

// JobResponse wraps a single job snapshot.
type JobResponse struct {
	Job JobView `json:"job"`
}

// JobListResponse wraps a job listing.
type JobListResponse struct {
	Jobs []JobView `json:"jobs"`
}

// QueueSummary mirrors queue.Summary on the wire.
type QueueSummary struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}

// DependencyStatus reports availability of one external binary.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description,omitempty"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// DaemonStatus is the GET /api/status payload.
type DaemonStatus struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	QueueDBPath  string             `json:"queue_db_path,omitempty"`
	LockFilePath string             `json:"lock_file_path,omitempty"`
	Queue        QueueSummary       `json:"queue"`
	Dependencies []DependencyStatus `json:"dependencies,omitempty"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}
