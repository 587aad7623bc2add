package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/robinklaassen/artistic-intelligence-data/track"
)

// entityLocation is the relational row layout for one sample.
type entityLocation struct {
	EntityID   string    `gorm:"primaryKey;column:entity_id"`
	Timestamp  time.Time `gorm:"primaryKey"`
	EntityType string    `gorm:"column:entity_type"`
	Source     string
	Lon        float64
	Lat        float64
	ProjX      float64 `gorm:"column:proj_x"`
	ProjY      float64 `gorm:"column:proj_y"`
	Speed      float64
	Heading    float64
	Accuracy   float64
}

func (entityLocation) TableName() string { return DefaultMeasurement }

// Postgres stores samples in a relational table keyed by
// (entity_id, timestamp).
type Postgres struct {
	db *gorm.DB
}

// OpenPostgres connects with retry and migrates the sample table.
func OpenPostgres(dsn string, attempts int, delay time.Duration) (*Postgres, error) {
	var lastErr error
	for i := 0; i < attempts; i++ {
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err == nil {
			if err := db.AutoMigrate(&entityLocation{}); err != nil {
				return nil, fmt.Errorf("migrate %s: %w", DefaultMeasurement, err)
			}
			return &Postgres{db: db}, nil
		}
		lastErr = err
		time.Sleep(delay)
	}
	return nil, fmt.Errorf("postgres connect failed after %d attempts: %w", attempts, lastErr)
}

func (p *Postgres) WriteBatch(ctx context.Context, samples []track.Sample) error {
	if len(samples) == 0 {
		return nil
	}
	rows := make([]entityLocation, 0, len(samples))
	for _, s := range samples {
		rows = append(rows, entityLocation{
			EntityID:   s.EntityID,
			Timestamp:  s.Timestamp,
			EntityType: s.EntityType,
			Source:     s.Source,
			Lon:        s.Lon,
			Lat:        s.Lat,
			ProjX:      s.ProjX,
			ProjY:      s.ProjY,
			Speed:      s.Speed,
			Heading:    s.Heading,
			Accuracy:   s.Accuracy,
		})
	}
	// Upsert implements the last-write-wins bucket collision policy.
	err := p.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "entity_id"}, {Name: "timestamp"}},
			UpdateAll: true,
		}).
		Create(&rows).Error
	if err != nil {
		return fmt.Errorf("write batch: %w", err)
	}
	return nil
}

func (p *Postgres) ReadWindow(ctx context.Context, start, end time.Time) ([]track.Sample, error) {
	var rows []entityLocation
	err := p.db.WithContext(ctx).
		Where("timestamp >= ? AND timestamp < ?", start, end).
		Order("timestamp, entity_id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("read window: %w", err)
	}
	out := make([]track.Sample, 0, len(rows))
	for _, r := range rows {
		out = append(out, track.Sample{
			EntityID:   r.EntityID,
			Timestamp:  r.Timestamp,
			EntityType: r.EntityType,
			Source:     r.Source,
			Lon:        r.Lon,
			Lat:        r.Lat,
			ProjX:      r.ProjX,
			ProjY:      r.ProjY,
			Speed:      r.Speed,
			Heading:    r.Heading,
			Accuracy:   r.Accuracy,
		})
	}
	return out, nil
}
