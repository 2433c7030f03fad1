// Package recorder persists station sessions and their events to sqlite.
package recorder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/dcrubro/ftc-driver-hub/internal/station"
)

var ErrUnknownSession = errors.New("recorder: unknown session")

const timeLayout = time.RFC3339Nano

// Session is one connection to a robot.
type Session struct {
	ID        string     `json:"id"`
	Host      string     `json:"host"`
	Port      int        `json:"port"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// Event is a recorded station event.
type Event struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Kind      string    `json:"kind"`
	Name      string    `json:"name,omitempty"`
	Data      string    `json:"data,omitempty"`
	At        time.Time `json:"at"`
}

// Query filters History. Zero fields match everything.
type Query struct {
	SessionID string
	Kind      string
	Limit     int
}

type Recorder struct {
	db  *sql.DB
	log *zap.Logger
	now func() time.Time
}

// Open opens (creating if needed) the database at path and applies
// migrations.
func Open(path string, log *zap.Logger) (*Recorder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("recorder: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("recorder: migrate: %w", err)
	}
	return &Recorder{db: db, log: log.Named("recorder"), now: time.Now}, nil
}

func (r *Recorder) Close() error {
	return r.db.Close()
}

func (r *Recorder) StartSession(ctx context.Context, host string, port int) (Session, error) {
	s := Session{ID: uuid.NewString(), Host: host, Port: port, StartedAt: r.now().UTC()}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO sessions (id, host, port, started_at) VALUES (?, ?, ?, ?)",
		s.ID, s.Host, s.Port, s.StartedAt.Format(timeLayout))
	if err != nil {
		return Session{}, fmt.Errorf("recorder: start session: %w", err)
	}
	r.log.Info("session started", zap.String("session_id", s.ID), zap.String("host", host))
	return s, nil
}

func (r *Recorder) EndSession(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE sessions SET ended_at = ? WHERE id = ? AND ended_at IS NULL",
		r.now().UTC().Format(timeLayout), id)
	if err != nil {
		return fmt.Errorf("recorder: end session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	return nil
}

func (r *Recorder) Record(ctx context.Context, sessionID string, ev station.Event) error {
	at := ev.At
	if at.IsZero() {
		at = r.now()
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO events (session_id, kind, name, data, at) VALUES (?, ?, ?, ?, ?)",
		sessionID, string(ev.Kind), ev.Name, ev.Data, at.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("recorder: record %s: %w", ev.Kind, err)
	}
	return nil
}

// Run records events until the channel closes or ctx is done. Telemetry
// events are skipped; they arrive at tick rate and the live store already
// holds the latest values.
func (r *Recorder) Run(ctx context.Context, sessionID string, events <-chan station.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Kind == station.EventTelemetry {
				continue
			}
			if err := r.Record(ctx, sessionID, ev); err != nil {
				r.log.Warn("record event", zap.Error(err))
			}
		}
	}
}

// Follow runs Run in a new goroutine. The returned channel is closed once
// Run has returned and no Record call is in flight.
func (r *Recorder) Follow(ctx context.Context, sessionID string, events <-chan station.Event) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Run(ctx, sessionID, events)
	}()
	return done
}

// Sessions lists the most recent sessions first.
func (r *Recorder) Sessions(ctx context.Context, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, host, port, started_at, ended_at FROM sessions ORDER BY started_at DESC, rowid DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("recorder: list sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var (
			s       Session
			started string
			ended   sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.Host, &s.Port, &started, &ended); err != nil {
			return nil, fmt.Errorf("recorder: scan session: %w", err)
		}
		if s.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("recorder: session %s start time: %w", s.ID, err)
		}
		if ended.Valid {
			t, err := time.Parse(timeLayout, ended.String)
			if err != nil {
				return nil, fmt.Errorf("recorder: session %s end time: %w", s.ID, err)
			}
			s.EndedAt = &t
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// History returns matching events, most recent first.
func (r *Recorder) History(ctx context.Context, q Query) ([]Event, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	query := "SELECT id, session_id, kind, name, data, at FROM events WHERE 1=1"
	var args []any
	if q.SessionID != "" {
		query += " AND session_id = ?"
		args = append(args, q.SessionID)
	}
	if q.Kind != "" {
		query += " AND kind = ?"
		args = append(args, q.Kind)
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("recorder: history: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			e  Event
			at string
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Kind, &e.Name, &e.Data, &at); err != nil {
			return nil, fmt.Errorf("recorder: scan event: %w", err)
		}
		if e.At, err = time.Parse(timeLayout, at); err != nil {
			return nil, fmt.Errorf("recorder: event %d time: %w", e.ID, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
