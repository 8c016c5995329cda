// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wfunc/rmcs/models"

	_ "github.com/lib/pq" // PostgreSQL 驱动
)

const queryTimeout = 5 * time.Second

// PostgreSQL 数据库实现 on database/sql.
type PostgreSQL struct {
	db *sql.DB
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(dsn string) (*PostgreSQL, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	// 设置连接池参数
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := initTables(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

// initTables 初始化数据库表结构
func initTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS round_records (
            id SERIAL PRIMARY KEY,
            room_id VARCHAR(64) NOT NULL,
            room_name TEXT NOT NULL,
            round INTEGER NOT NULL,
            mantri_id VARCHAR(64) NOT NULL,
            chor_id VARCHAR(64) NOT NULL,
            guessed_player_id VARCHAR(64) NOT NULL,
            correct BOOLEAN NOT NULL,
            players JSONB NOT NULL,
            resolved_at TIMESTAMPTZ NOT NULL,
            created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
            deleted_at TIMESTAMPTZ
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
        CREATE INDEX IF NOT EXISTS idx_round_room ON round_records(room_id, round);
    `)
	return err
}

// SaveRoundRecord 保存回合记录
func (p *PostgreSQL) SaveRoundRecord(rec models.RoundRecord) error {
	players, err := json.Marshal(rec.Players)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	query := `
        INSERT INTO round_records
            (room_id, room_name, round, mantri_id, chor_id, guessed_player_id, correct, players, resolved_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `
	_, err = p.db.ExecContext(ctx, query,
		rec.RoomID, rec.RoomName, rec.Round, rec.MantriID, rec.ChorID,
		rec.GuessedPlayerID, rec.Correct, players, rec.ResolvedAt)
	return err
}

// LoadRoundRecords 加载房间的回合记录
func (p *PostgreSQL) LoadRoundRecords(roomID string) ([]models.RoundRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	rows, err := p.db.QueryContext(ctx, `
        SELECT room_id, room_name, round, mantri_id, chor_id, guessed_player_id, correct, players, resolved_at
        FROM round_records
        WHERE room_id = $1 AND deleted_at IS NULL
        ORDER BY round ASC`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []models.RoundRecord
	for rows.Next() {
		var (
			rec     models.RoundRecord
			players []byte
		)
		if err := rows.Scan(&rec.RoomID, &rec.RoomName, &rec.Round, &rec.MantriID, &rec.ChorID,
			&rec.GuessedPlayerID, &rec.Correct, &players, &rec.ResolvedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(players, &rec.Players); err != nil {
			return nil, fmt.Errorf("decode players of round %d: %w", rec.Round, err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, ErrRecordNotFound
	}
	return recs, nil
}

func (p *PostgreSQL) RoomStats(roomID string) (RoomStats, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	var stats RoomStats
	err := p.db.QueryRowContext(ctx, `
        SELECT COUNT(*), COALESCE(SUM(CASE WHEN correct THEN 1 ELSE 0 END), 0)
        FROM round_records
        WHERE room_id = $1 AND deleted_at IS NULL`, roomID,
	).Scan(&stats.TotalRounds, &stats.CorrectGuesses)
	return stats, err
}

// Close 关闭数据库连接
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
