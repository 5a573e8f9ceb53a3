package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Session statuses.
const (
	SessionRunning   = "running"
	SessionCompleted = "completed"
	SessionFailed    = "failed"
)

// Session records one pipeline run from document to deck.
type Session struct {
	ID           string `json:"id"`
	DocumentPath string `json:"documentPath"`
	TemplateID   string `json:"templateId"`
	Guidance     string `json:"guidance,omitempty"`
	Status       string `json:"status"`
	Stage        string `json:"stage,omitempty"`
	OutputPath   string `json:"outputPath,omitempty"`
	SlideCount   int    `json:"slideCount"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	CreatedAt    int64  `json:"createdAt"`
	UpdatedAt    int64  `json:"updatedAt"`
}

// StageResult records one completed pipeline stage for a session.
type StageResult struct {
	ID         string `json:"id"`
	SessionID  string `json:"sessionId"`
	Stage      string `json:"stage"`
	DurationMS int64  `json:"durationMs"`
	CharsIn    int    `json:"charsIn"`
	CharsOut   int    `json:"charsOut"`
	Payload    string `json:"payload,omitempty"`
	CreatedAt  int64  `json:"createdAt"`
}

// SessionService provides methods for managing pipeline run sessions
type SessionService struct {
	db *sql.DB
}

// NewSessionService creates a new SessionService instance
func NewSessionService(db *sql.DB) *SessionService {
	return &SessionService{
		db: db,
	}
}

// Create inserts a new running session and returns it.
func (s *SessionService) Create(documentPath, templateID, guidance string) (*Session, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	if documentPath == "" {
		return nil, fmt.Errorf("documentPath is required")
	}
	if templateID == "" {
		return nil, fmt.Errorf("templateID is required")
	}

	now := time.Now().UnixMilli()
	session := &Session{
		ID:           uuid.New().String(),
		DocumentPath: documentPath,
		TemplateID:   templateID,
		Guidance:     guidance,
		Status:       SessionRunning,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	query := `
		INSERT INTO sessions (id, document_path, template_id, guidance, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query, session.ID, session.DocumentPath, session.TemplateID,
		session.Guidance, session.Status, session.CreatedAt, session.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert session: %w", err)
	}

	return session, nil
}

// UpdateStage records which stage the session is currently running.
func (s *SessionService) UpdateStage(sessionID, stage string) error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}

	query := `UPDATE sessions SET stage = ?, updated_at = ? WHERE id = ?`
	res, err := s.db.Exec(query, stage, time.Now().UnixMilli(), sessionID)
	if err != nil {
		return fmt.Errorf("failed to update session stage: %w", err)
	}
	return s.requireRow(res, sessionID)
}

// Complete marks the session finished with its output artifact.
func (s *SessionService) Complete(sessionID, outputPath string, slideCount int) error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}

	query := `
		UPDATE sessions
		SET status = ?, output_path = ?, slide_count = ?, error_message = '', updated_at = ?
		WHERE id = ?
	`
	res, err := s.db.Exec(query, SessionCompleted, outputPath, slideCount, time.Now().UnixMilli(), sessionID)
	if err != nil {
		return fmt.Errorf("failed to complete session: %w", err)
	}
	return s.requireRow(res, sessionID)
}

// Fail marks the session failed with the error message.
func (s *SessionService) Fail(sessionID, stage, message string) error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}

	query := `
		UPDATE sessions
		SET status = ?, stage = ?, error_message = ?, updated_at = ?
		WHERE id = ?
	`
	res, err := s.db.Exec(query, SessionFailed, stage, message, time.Now().UnixMilli(), sessionID)
	if err != nil {
		return fmt.Errorf("failed to mark session failed: %w", err)
	}
	return s.requireRow(res, sessionID)
}

// RecordStageResult stores one stage execution record.
func (s *SessionService) RecordStageResult(sessionID, stage string, durationMS int64, charsIn, charsOut int, payload string) error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	if sessionID == "" {
		return fmt.Errorf("sessionID is required")
	}
	if stage == "" {
		return fmt.Errorf("stage is required")
	}

	query := `
		INSERT INTO stage_results (id, session_id, stage, duration_ms, chars_in, chars_out, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query, uuid.New().String(), sessionID, stage, durationMS, charsIn, charsOut, payload, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert stage result: %w", err)
	}
	return nil
}

// GetSession loads one session by ID.
func (s *SessionService) GetSession(sessionID string) (*Session, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	query := `
		SELECT id, document_path, template_id, guidance, status,
		       COALESCE(stage, ''), COALESCE(output_path, ''), slide_count,
		       COALESCE(error_message, ''), created_at, updated_at
		FROM sessions WHERE id = ?
	`
	var session Session
	err := s.db.QueryRow(query, sessionID).Scan(
		&session.ID, &session.DocumentPath, &session.TemplateID, &session.Guidance,
		&session.Status, &session.Stage, &session.OutputPath, &session.SlideCount,
		&session.ErrorMessage, &session.CreatedAt, &session.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session %s not found", sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &session, nil
}

// ListSessions returns sessions newest first, up to limit (all when
// limit <= 0).
func (s *SessionService) ListSessions(limit int) ([]Session, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	query := `
		SELECT id, document_path, template_id, guidance, status,
		       COALESCE(stage, ''), COALESCE(output_path, ''), slide_count,
		       COALESCE(error_message, ''), created_at, updated_at
		FROM sessions ORDER BY created_at DESC
	`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var session Session
		if err := rows.Scan(
			&session.ID, &session.DocumentPath, &session.TemplateID, &session.Guidance,
			&session.Status, &session.Stage, &session.OutputPath, &session.SlideCount,
			&session.ErrorMessage, &session.CreatedAt, &session.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}

	return sessions, nil
}

// ListStageResults returns the stage records for one session in
// execution order.
func (s *SessionService) ListStageResults(sessionID string) ([]StageResult, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	query := `
		SELECT id, session_id, stage, duration_ms, chars_in, chars_out,
		       COALESCE(payload, ''), created_at
		FROM stage_results WHERE session_id = ? ORDER BY created_at ASC
	`
	rows, err := s.db.Query(query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stage results: %w", err)
	}
	defer rows.Close()

	var results []StageResult
	for rows.Next() {
		var r StageResult
		if err := rows.Scan(&r.ID, &r.SessionID, &r.Stage, &r.DurationMS,
			&r.CharsIn, &r.CharsOut, &r.Payload, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stage result row: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stage results: %w", err)
	}

	return results, nil
}

func (s *SessionService) requireRow(res sql.Result, sessionID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("session %s not found", sessionID)
	}
	return nil
}
