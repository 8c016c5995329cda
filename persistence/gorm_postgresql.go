// persistence/gorm_postgresql.go
package persistence

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/wfunc/rmcs/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(dsn string) (*GormPostgreSQL, error) {
	// 配置GORM日志
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}
	return newGormPostgreSQL(db)
}

func newGormPostgreSQL(db *gorm.DB) (*GormPostgreSQL, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&models.GormRoundRecord{}); err != nil {
		return nil, fmt.Errorf("migrate round records: %w", err)
	}
	return &GormPostgreSQL{db: db}, nil
}

// SaveRoundRecord 保存回合记录
func (p *GormPostgreSQL) SaveRoundRecord(rec models.RoundRecord) error {
	return p.db.Create(models.NewGormRoundRecord(rec)).Error
}

// LoadRoundRecords 加载房间的回合记录, oldest first.
func (p *GormPostgreSQL) LoadRoundRecords(roomID string) ([]models.RoundRecord, error) {
	var rows []models.GormRoundRecord
	err := p.db.Where("room_id = ?", roomID).Order("round ASC").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrRecordNotFound
	}

	recs := make([]models.RoundRecord, 0, len(rows))
	for i := range rows {
		recs = append(recs, rows[i].ToRecord())
	}
	return recs, nil
}

func (p *GormPostgreSQL) RoomStats(roomID string) (RoomStats, error) {
	var stats RoomStats
	err := p.db.Raw(`
        SELECT
            COUNT(*) AS total_rounds,
            COALESCE(SUM(CASE WHEN correct THEN 1 ELSE 0 END), 0) AS correct_guesses
        FROM round_records
        WHERE room_id = ? AND deleted_at IS NULL`,
		roomID,
	).Scan(&stats).Error
	return stats, err
}

// Close 关闭数据库连接
func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// IsNotFound reports whether err means the archive has nothing for a room.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRecordNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}
