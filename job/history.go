package job

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kbukum/voxrelay/database"
)

// Migrations holds the schema for the job history table. Apply it with
// migration.Up(db, Migrations, MigrationsDir).
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations.
const MigrationsDir = "migrations"

// historyRow is one job in the job_records table.
type historyRow struct {
	ID          string `gorm:"primaryKey"`
	AudioKey    string
	Status      string
	Text        []byte
	Consumed    bool
	CreatedAt   time.Time `gorm:"autoCreateTime:false"`
	CompletedAt *time.Time
	UpdatedAt   time.Time `gorm:"autoUpdateTime:false"`
}

func (historyRow) TableName() string { return "job_records" }

// SQLMirror keeps a row per job in a SQL database. Unlike the in-memory
// Store it retains consumed jobs, so it serves as a queryable history.
type SQLMirror struct {
	db     *database.DB
	sealer Sealer
}

// NewSQLMirror creates a history mirror over db. The schema must already be
// migrated. A nil sealer stores text in the clear.
func NewSQLMirror(db *database.DB, sealer Sealer) *SQLMirror {
	return &SQLMirror{db: db, sealer: sealer}
}

func (m *SQLMirror) Write(ctx context.Context, rec Record) error {
	if rec.Consumed {
		return m.db.WithContext(ctx).Model(&historyRow{}).
			Where("id = ?", rec.ID).
			Updates(map[string]any{"consumed": true, "updated_at": rec.UpdatedAt}).Error
	}

	row := historyRow{
		ID:        rec.ID,
		AudioKey:  rec.AudioKey,
		Status:    string(rec.Status),
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
	if !rec.CompletedAt.IsZero() {
		completed := rec.CompletedAt
		row.CompletedAt = &completed
	}
	if rec.Text != "" {
		text := []byte(rec.Text)
		if m.sealer != nil {
			sealed, err := m.sealer.Seal(text)
			if err != nil {
				return fmt.Errorf("history seal: %w", err)
			}
			text = sealed
		}
		row.Text = text
	}
	return m.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "text", "completed_at", "updated_at"}),
	}).Create(&row).Error
}

// Load returns the stored record for id, or nil when absent.
func (m *SQLMirror) Load(ctx context.Context, id string) (*Record, error) {
	var row historyRow
	err := m.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m.toRecord(row)
}

// Recent returns up to limit records, newest first.
func (m *SQLMirror) Recent(ctx context.Context, limit int) ([]Record, error) {
	var rows []historyRow
	if err := m.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec, err := m.toRecord(row)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, nil
}

func (m *SQLMirror) toRecord(row historyRow) (*Record, error) {
	text := row.Text
	if len(text) > 0 && m.sealer != nil {
		opened, err := m.sealer.Open(text)
		if err != nil {
			return nil, fmt.Errorf("history open %s: %w", row.ID, err)
		}
		text = opened
	}
	rec := &Record{
		Job: Job{
			ID:        row.ID,
			AudioKey:  row.AudioKey,
			Status:    Status(row.Status),
			Text:      string(text),
			CreatedAt: row.CreatedAt,
		},
		Consumed:  row.Consumed,
		UpdatedAt: row.UpdatedAt,
	}
	if row.CompletedAt != nil {
		rec.CompletedAt = *row.CompletedAt
	}
	return rec, nil
}
