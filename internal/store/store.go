// Package store handles SQLite persistence of finished battles.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/venh/typeclash/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ActionRecord is one completed word inside a stored battle.
type ActionRecord struct {
	Seq            int
	WordText       string
	WordType       model.WordType
	Value          int
	DamageReceived int
	Critical       bool
	Success        bool
	Accuracy       float64
	WPM            float64
	TimeMs         int64
	Flags          string // comma-joined anti-cheat flags, empty when clean
}

// Filter narrows battle listings.
type Filter struct {
	Difficulty model.Difficulty
	Since      *time.Time
}

// Store wraps SQLite access for battle data.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS battles (
			session_id TEXT PRIMARY KEY,
			pack_id TEXT NOT NULL,
			difficulty TEXT NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			outcome TEXT NOT NULL,
			rounds INTEGER NOT NULL,
			wpm REAL NOT NULL,
			accuracy REAL NOT NULL,
			total_damage INTEGER NOT NULL,
			total_healing INTEGER NOT NULL,
			attack_count INTEGER NOT NULL,
			heal_count INTEGER NOT NULL,
			guard_count INTEGER NOT NULL,
			max_combo INTEGER NOT NULL,
			words_completed INTEGER NOT NULL,
			risk TEXT NOT NULL,
			duration_ms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS battle_actions (
			session_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			word TEXT NOT NULL,
			word_type TEXT NOT NULL,
			value INTEGER NOT NULL,
			damage_received INTEGER NOT NULL,
			critical INTEGER NOT NULL,
			success INTEGER NOT NULL,
			accuracy REAL NOT NULL,
			wpm REAL NOT NULL,
			time_ms INTEGER NOT NULL,
			flags TEXT NOT NULL,
			PRIMARY KEY (session_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_battles_ended_at ON battles(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_battle_actions_type ON battle_actions(word_type);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertBattle stores a finished battle and its per-word actions.
func (s *Store) InsertBattle(ctx context.Context, res model.SessionResult, actions []ActionRecord) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO battles (session_id, pack_id, difficulty, started_at, ended_at, outcome, rounds,
			wpm, accuracy, total_damage, total_healing, attack_count, heal_count, guard_count,
			max_combo, words_completed, risk, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.SessionID,
		res.PackID,
		string(res.Difficulty),
		res.StartedAt.Format(time.RFC3339Nano),
		res.EndedAt.Format(time.RFC3339Nano),
		string(res.Outcome),
		res.Rounds,
		res.Stats.WPM,
		res.Stats.Accuracy,
		res.Stats.TotalDamage,
		res.Stats.TotalHealing,
		res.Stats.AttackCount,
		res.Stats.HealCount,
		res.Stats.GuardCount,
		res.Stats.MaxCombo,
		res.Stats.WordsCompleted,
		res.Risk,
		res.DurationMs,
	)
	if err != nil {
		return err
	}

	if len(actions) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO battle_actions (session_id, seq, word, word_type, value, damage_received,
				critical, success, accuracy, wpm, time_ms, flags)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for _, a := range actions {
			if _, err := stmt.ExecContext(ctx, res.SessionID, a.Seq, a.WordText, string(a.WordType),
				a.Value, a.DamageReceived, boolInt(a.Critical), boolInt(a.Success),
				a.Accuracy, a.WPM, a.TimeMs, a.Flags); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// ListBattles returns stored battles matching the filter, oldest first.
func (s *Store) ListBattles(ctx context.Context, f Filter) ([]model.SessionResult, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if f.Difficulty != "" {
		clauses = append(clauses, "difficulty = ?")
		args = append(args, string(f.Difficulty))
	}
	if f.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, f.Since.Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT session_id, pack_id, difficulty, started_at, ended_at, outcome, rounds,
			wpm, accuracy, total_damage, total_healing, attack_count, heal_count, guard_count,
			max_combo, words_completed, risk, duration_ms
		FROM battles
		WHERE %s
		ORDER BY ended_at ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var battles []model.SessionResult
	for rows.Next() {
		var res model.SessionResult
		var difficulty, outcome, startedAt, endedAt string
		if err := rows.Scan(&res.SessionID, &res.PackID, &difficulty, &startedAt, &endedAt,
			&outcome, &res.Rounds, &res.Stats.WPM, &res.Stats.Accuracy,
			&res.Stats.TotalDamage, &res.Stats.TotalHealing,
			&res.Stats.AttackCount, &res.Stats.HealCount, &res.Stats.GuardCount,
			&res.Stats.MaxCombo, &res.Stats.WordsCompleted, &res.Risk, &res.DurationMs); err != nil {
			return nil, err
		}
		res.Difficulty = model.Difficulty(difficulty)
		res.Outcome = model.Outcome(outcome)
		if res.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, err
		}
		if res.EndedAt, err = time.Parse(time.RFC3339Nano, endedAt); err != nil {
			return nil, err
		}
		battles = append(battles, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return battles, nil
}

// ListActions returns the per-word actions of one battle in order.
func (s *Store) ListActions(ctx context.Context, sessionID string) ([]ActionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, word, word_type, value, damage_received, critical, success, accuracy, wpm, time_ms, flags
		 FROM battle_actions
		 WHERE session_id = ?
		 ORDER BY seq ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var actions []ActionRecord
	for rows.Next() {
		var a ActionRecord
		var wordType string
		var critical, success int
		if err := rows.Scan(&a.Seq, &a.WordText, &wordType, &a.Value, &a.DamageReceived,
			&critical, &success, &a.Accuracy, &a.WPM, &a.TimeMs, &a.Flags); err != nil {
			return nil, err
		}
		a.WordType = model.WordType(wordType)
		a.Critical = critical != 0
		a.Success = success != 0
		actions = append(actions, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return actions, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
