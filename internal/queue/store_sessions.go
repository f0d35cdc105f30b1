package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const sessionColumns = "id, repo_url, repo_name, status, progress, message, script_text, audio_path, video_path, output_path, error_message, created_at, updated_at"

// Create inserts a new queued session for a repository URL and returns it.
func (s *Store) Create(ctx context.Context, repoURL, repoName string) (*Session, error) {
	id := uuid.NewString()
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO sessions (
            id, repo_url, repo_name, status, progress, message, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		repoURL,
		nullableString(repoName),
		StatusCreated,
		ProgressQueued,
		"Queued",
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches a session by identifier. A missing session returns
// (nil, nil).
func (s *Store) GetByID(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

// Update persists changes to an existing session.
func (s *Store) Update(ctx context.Context, session *Session) error {
	if session == nil {
		return errors.New("session is nil")
	}
	session.UpdatedAt = time.Now().UTC()
	if err := retryOnBusy(ensureContext(ctx), func() error {
		_, err := s.db.ExecContext(
			ctx,
			`UPDATE sessions
             SET repo_url = ?, repo_name = ?, status = ?, progress = ?, message = ?,
                 script_text = ?, audio_path = ?, video_path = ?, output_path = ?,
                 error_message = ?, updated_at = ?
             WHERE id = ?`,
			session.RepoURL,
			nullableString(session.RepoName),
			session.Status,
			session.Progress,
			nullableString(session.Message),
			nullableString(session.ScriptText),
			nullableString(session.AudioPath),
			nullableString(session.VideoPath),
			nullableString(session.OutputPath),
			nullableString(session.ErrorMessage),
			session.UpdatedAt.Format(time.RFC3339Nano),
			session.ID,
		)
		return err
	}); err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// List returns sessions filtered by status set (or all sessions when no
// status is provided), oldest first.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Session, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + sessionColumns + ` FROM sessions`
	orderClause := ` ORDER BY created_at`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// FailInFlight marks every non-terminal session as failed with the given
// reason. Used on daemon shutdown so restarts never resume half-done work.
func (s *Store) FailInFlight(ctx context.Context, reason string) (int64, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE sessions SET status = ?, error_message = ?, message = ?, updated_at = ?
         WHERE status NOT IN (?, ?)`,
		StatusFailed,
		reason,
		reason,
		timestamp,
		StatusCompleted,
		StatusFailed,
	)
	if err != nil {
		return 0, fmt.Errorf("fail in-flight sessions: %w", err)
	}
	return res.RowsAffected()
}

// Remove deletes a session by identifier.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Summary describes aggregated session counts per key lifecycle states.
type Summary struct {
	Total      int
	Pending    int
	Processing int
	Completed  int
	Failed     int
}

// Summarize returns aggregate counts across all sessions.
func (s *Store) Summarize(ctx context.Context) (Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM sessions GROUP BY status`)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize sessions: %w", err)
	}
	defer rows.Close()

	var summary Summary
	for rows.Next() {
		var (
			statusStr string
			count     int
		)
		if err := rows.Scan(&statusStr, &count); err != nil {
			return Summary{}, err
		}
		summary.Total += count
		switch status := Status(statusStr); {
		case status == StatusCreated:
			summary.Pending += count
		case status == StatusCompleted:
			summary.Completed += count
		case status == StatusFailed:
			summary.Failed += count
		case IsProcessingStatus(status):
			summary.Processing += count
		}
	}
	return summary, rows.Err()
}

func scanSession(scanner interface{ Scan(dest ...any) error }) (*Session, error) {
	var (
		id           string
		repoURL      string
		repoName     sql.NullString
		statusStr    string
		progress     sql.NullInt64
		message      sql.NullString
		scriptText   sql.NullString
		audioPath    sql.NullString
		videoPath    sql.NullString
		outputPath   sql.NullString
		errorMessage sql.NullString
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&repoURL,
		&repoName,
		&statusStr,
		&progress,
		&message,
		&scriptText,
		&audioPath,
		&videoPath,
		&outputPath,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	session := &Session{
		ID:           id,
		RepoURL:      repoURL,
		RepoName:     repoName.String,
		Status:       Status(statusStr),
		Progress:     int(progress.Int64),
		Message:      message.String,
		ScriptText:   scriptText.String,
		AudioPath:    audioPath.String,
		VideoPath:    videoPath.String,
		OutputPath:   outputPath.String,
		ErrorMessage: errorMessage.String,
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		session.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		session.UpdatedAt = updated
	}
	return session, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
