package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"arena-server/internal/game"
	"arena-server/internal/logger"
)

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
}

// MatchRow represents a completed match
type MatchRow struct {
	ID        int64            `json:"id"`
	GameID    string           `json:"gameId"`
	Reason    string           `json:"reason"`
	Duration  float64          `json:"duration"` // seconds of wall clock
	StartedAt time.Time        `json:"startedAt"`
	EndedAt   time.Time        `json:"endedAt"`
	Players   []MatchPlayerRow `json:"players"`
}

// MatchPlayerRow represents a player's final line in a match
type MatchPlayerRow struct {
	Rank               int    `json:"rank"`
	PlayerID           string `json:"playerId"`
	Nickname           string `json:"nickname"`
	Color              string `json:"color"`
	Score              int    `json:"score"`
	Bots               int    `json:"bots"`
	Captures           int    `json:"captures"`
	CapturedByBlackBot int    `json:"capturedByBlackBot"`
	BonusPoints        int    `json:"bonusPoints"`
}

// Open opens (or creates) the SQLite database
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	// Enable WAL mode for better concurrency
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable wal: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates tables if they don't exist
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS matches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		game_id TEXT NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		duration REAL NOT NULL DEFAULT 0,
		started_at INTEGER NOT NULL,
		ended_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS match_players (
		match_id INTEGER NOT NULL REFERENCES matches(id),
		rank INTEGER NOT NULL,
		player_id TEXT NOT NULL,
		nickname TEXT NOT NULL DEFAULT '',
		color TEXT NOT NULL DEFAULT '',
		score INTEGER NOT NULL DEFAULT 0,
		bots INTEGER NOT NULL DEFAULT 0,
		captures INTEGER NOT NULL DEFAULT 0,
		captured_by_black_bot INTEGER NOT NULL DEFAULT 0,
		bonus_points INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (match_id, player_id)
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_matches_ended ON matches(ended_at);
	`
	_, err := db.conn.Exec(schema)
	if err != nil {
		logger.Log.WithError(err).Error("DB migration failed")
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// RecordMatch stores a finished game with its final standings and returns
// the match id.
func (db *DB) RecordMatch(res game.Result) (int64, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	r, err := tx.Exec(
		"INSERT INTO matches (game_id, reason, duration, started_at, ended_at) VALUES (?, ?, ?, ?, ?)",
		res.GameID, res.Reason, res.EndedAt.Sub(res.StartedAt).Seconds(),
		res.StartedAt.UnixMilli(), res.EndedAt.UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert match: %w", err)
	}
	id, err := r.LastInsertId()
	if err != nil {
		return 0, err
	}

	for i, s := range res.Scores {
		_, err := tx.Exec(
			`INSERT INTO match_players (match_id, rank, player_id, nickname, color, score, bots, captures, captured_by_black_bot, bonus_points)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, i+1, s.ID, s.Nickname, s.Color, s.Score, s.CurrentBots, s.Captures, s.CapturedByBlackBot, s.BonusPoints,
		)
		if err != nil {
			return 0, fmt.Errorf("insert match player %s: %w", s.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// RecentMatches returns the latest matches, newest first, with their players.
func (db *DB) RecentMatches(limit int) ([]MatchRow, error) {
	rows, err := db.conn.Query(`
		SELECT id, game_id, reason, duration, started_at, ended_at
		FROM matches
		ORDER BY ended_at DESC, id DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []MatchRow
	for rows.Next() {
		var m MatchRow
		var started, ended int64
		if err := rows.Scan(&m.ID, &m.GameID, &m.Reason, &m.Duration, &started, &ended); err != nil {
			return nil, err
		}
		m.StartedAt = time.UnixMilli(started).UTC()
		m.EndedAt = time.UnixMilli(ended).UTC()
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for i := range result {
		players, err := db.matchPlayers(result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].Players = players
	}
	return result, nil
}

func (db *DB) matchPlayers(matchID int64) ([]MatchPlayerRow, error) {
	rows, err := db.conn.Query(`
		SELECT rank, player_id, nickname, color, score, bots, captures, captured_by_black_bot, bonus_points
		FROM match_players
		WHERE match_id = ?
		ORDER BY rank`,
		matchID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []MatchPlayerRow
	for rows.Next() {
		var r MatchPlayerRow
		if err := rows.Scan(&r.Rank, &r.PlayerID, &r.Nickname, &r.Color, &r.Score, &r.Bots, &r.Captures, &r.CapturedByBlackBot, &r.BonusPoints); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// GetSetting returns a stored value, or "" when the key is unset.
func (db *DB) GetSetting(key string) string {
	var v string
	err := db.conn.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&v)
	if err != nil {
		return ""
	}
	return v
}

// SetSetting stores a value under key.
func (db *DB) SetSetting(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}
