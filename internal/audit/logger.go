// Package audit keeps a local SQLite record of safety events. Message text
// is never stored, only its SHA-256 digest.
package audit

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/manmitra-core/server/internal/agent/model"
	logx "github.com/manmitra-core/server/pkg/logger"
)

// Event kinds.
const (
	KindCrisis     = "crisis"
	KindModeration = "moderation"
)

// Entry is one audited safety event.
type Entry struct {
	RequestID string
	Kind      string
	UserID    string
	// Outcome is the crisis severity or the moderation decision.
	Outcome   string
	Method    string
	TextHash  string
	Patterns  []string
	CreatedAt time.Time
}

// Stat is an event count for one kind, outcome and day.
type Stat struct {
	Kind    string
	Outcome string
	Day     string
	Count   int
}

// Logger writes and queries audit entries in a dedicated SQLite database.
type Logger struct {
	db            *sql.DB
	retentionDays int
	done          chan struct{}
	wg            sync.WaitGroup
}

// New opens the audit SQLite database and creates the schema.
func New(cfg model.AuditConfig) (*Logger, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("audit db path is empty")
	}
	db, err := sql.Open("sqlite", cfg.DBPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate audit db: %w", err)
	}

	l := &Logger{
		db:            db,
		retentionDays: cfg.RetentionDays,
		done:          make(chan struct{}),
	}
	if l.retentionDays > 0 {
		l.wg.Add(1)
		go l.retentionLoop()
	}
	return l, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS safety_audit (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		request_id TEXT NOT NULL,
		kind       TEXT NOT NULL,
		user_id    TEXT,
		outcome    TEXT NOT NULL,
		method     TEXT,
		text_hash  TEXT NOT NULL,
		patterns   TEXT,
		created_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_safety_audit_kind ON safety_audit(kind)`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_safety_audit_created ON safety_audit(created_at)`)
	return err
}

// Log inserts an audit entry.
func (l *Logger) Log(ctx context.Context, entry Entry) error {
	if l == nil || l.db == nil {
		return nil
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	patterns, err := json.Marshal(entry.Patterns)
	if err != nil {
		return fmt.Errorf("marshal patterns: %w", err)
	}

	_, err = l.db.ExecContext(ctx,
		`INSERT INTO safety_audit
		(request_id, kind, user_id, outcome, method, text_hash, patterns, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.RequestID, entry.Kind, entry.UserID, entry.Outcome,
		entry.Method, entry.TextHash, string(patterns), entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// Recent returns the newest entries, optionally filtered by kind.
func (l *Logger) Recent(ctx context.Context, kind string, limit int) ([]Entry, error) {
	q := `SELECT request_id, kind, user_id, outcome, method, text_hash, patterns, created_at
		FROM safety_audit WHERE 1=1`
	var args []any
	if kind != "" {
		q += " AND kind = ?"
		args = append(args, kind)
	}
	if limit <= 0 {
		limit = 100
	}
	q += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var userID, method, patterns sql.NullString
		if err := rows.Scan(&e.RequestID, &e.Kind, &userID, &e.Outcome, &method,
			&e.TextHash, &patterns, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit row: %w", err)
		}
		e.UserID = userID.String
		e.Method = method.String
		if patterns.Valid && patterns.String != "" {
			_ = json.Unmarshal([]byte(patterns.String), &e.Patterns)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Stats returns counts grouped by kind, outcome and day.
func (l *Logger) Stats(ctx context.Context) ([]Stat, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT kind, outcome, date(created_at) AS day, count(*) AS cnt
		 FROM safety_audit GROUP BY kind, outcome, day ORDER BY day DESC, kind, outcome`)
	if err != nil {
		return nil, fmt.Errorf("audit stats: %w", err)
	}
	defer rows.Close()

	var stats []Stat
	for rows.Next() {
		var s Stat
		var day sql.NullString
		if err := rows.Scan(&s.Kind, &s.Outcome, &day, &s.Count); err != nil {
			return nil, fmt.Errorf("scan audit stat: %w", err)
		}
		s.Day = day.String
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// Cleanup deletes entries older than the retention period.
func (l *Logger) Cleanup(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -l.retentionDays)
	res, err := l.db.ExecContext(ctx, `DELETE FROM safety_audit WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("audit cleanup: %w", err)
	}
	return res.RowsAffected()
}

// Close stops the retention goroutine and closes the database.
func (l *Logger) Close() error {
	close(l.done)
	l.wg.Wait()
	return l.db.Close()
}

func (l *Logger) retentionLoop() {
	defer l.wg.Done()
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			l.sweep(context.Background())
		}
	}
}

// sweep runs one retention pass. A failed pass is logged and retried on the
// next tick.
func (l *Logger) sweep(ctx context.Context) {
	n, err := l.Cleanup(ctx)
	if err != nil {
		logx.Warn().Err(err).Int("retention_days", l.retentionDays).Msg("Audit retention sweep failed")
		return
	}
	if n > 0 {
		logx.Debug().Int64("deleted", n).Msg("Audit retention sweep")
	}
}

// HashText returns the hex SHA-256 digest stored in place of message text.
func HashText(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}
