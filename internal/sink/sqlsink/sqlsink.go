// Package sqlsink stores entity changes as rows of a relational table, one row per entity and id.
package sqlsink

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"golang.org/x/xerrors"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/coinbase/chaingov/internal/config"
	"github.com/coinbase/chaingov/internal/governance/entity"
	"github.com/coinbase/chaingov/internal/utils/timesource"
)

type (
	Sink struct {
		db         *gorm.DB
		logger     *zap.Logger
		timeSource timesource.TimeSource
	}

	// EntityRow is the latest state of one entity.
	// Fields holds the JSON object of every field ever set, keyed by field name.
	EntityRow struct {
		Entity      string    `gorm:"primaryKey;size:64"`
		EntityId    string    `gorm:"primaryKey;column:entity_id;size:191"`
		Fields      string    `gorm:"type:text;not null"`
		BlockNumber uint64    `gorm:"not null"`
		BlockHash   string    `gorm:"size:66;not null"`
		UpdatedAt   time.Time `gorm:"autoUpdateTime:false;not null"`
	}

	Option func(s *Sink)
)

const tableName = "entity_rows"

var (
	ErrUnsupportedDriver = xerrors.New("unsupported driver")
	ErrInvalidOperation  = xerrors.New("invalid operation")
)

func (EntityRow) TableName() string {
	return tableName
}

// Open connects to the database described by cfg and migrates the schema when cfg.AutoMigrate is set.
func Open(cfg *config.SQLConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.SQLDriverSqlite:
		dialector = sqlite.Open(cfg.DSN)
	case config.SQLDriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	case config.SQLDriverMysql:
		dialector = mysql.Open(cfg.DSN)
	default:
		return nil, xerrors.Errorf("driver %q: %w", cfg.Driver, ErrUnsupportedDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, xerrors.Errorf("failed to open %v database: %w", cfg.Driver, err)
	}

	if cfg.AutoMigrate {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&EntityRow{}); err != nil {
		return xerrors.Errorf("failed to migrate %v: %w", tableName, err)
	}
	return nil
}

func WithTimeSource(timeSource timesource.TimeSource) Option {
	return func(s *Sink) {
		s.timeSource = timeSource
	}
}

func New(db *gorm.DB, logger *zap.Logger, opts ...Option) *Sink {
	s := &Sink{
		db:         db,
		logger:     logger,
		timeSource: timesource.NewRealTimeSource(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Apply writes the changes of one block in a single transaction.
// CREATE replaces the row; UPDATE merges its fields into the existing row, creating it if needed.
func (s *Sink) Apply(ctx context.Context, changes *entity.EntityChanges) error {
	if changes.Len() == 0 {
		return nil
	}

	now := s.timeSource.Now().UTC()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, change := range changes.Changes {
			if err := s.applyChange(tx, changes, change, now); err != nil {
				return xerrors.Errorf("failed to apply change %v (ordinal=%v): %w", change.Key(), change.Ordinal, err)
			}
		}

		s.logger.Debug(
			"applied entity changes",
			zap.Uint64("height", changes.BlockNumber),
			zap.Int("changes", changes.Len()),
		)
		return nil
	})
}

func (s *Sink) applyChange(tx *gorm.DB, changes *entity.EntityChanges, change *entity.EntityChange, now time.Time) error {
	fields := make(map[string]entity.Value, len(change.Fields))
	switch change.Operation {
	case entity.OperationCreate:
	case entity.OperationUpdate:
		existing, err := s.get(tx, change.Entity, change.Id)
		if err != nil {
			return err
		}

		if existing != nil {
			if err := json.Unmarshal([]byte(existing.Fields), &fields); err != nil {
				return xerrors.Errorf("failed to decode stored fields: %w", err)
			}
		}
	default:
		return xerrors.Errorf("operation %v: %w", change.Operation, ErrInvalidOperation)
	}

	for _, field := range change.Fields {
		fields[field.Name] = field.Value
	}

	encoded, err := json.Marshal(fields)
	if err != nil {
		return xerrors.Errorf("failed to encode fields: %w", err)
	}

	row := &EntityRow{
		Entity:      change.Entity,
		EntityId:    change.Id,
		Fields:      string(encoded),
		BlockNumber: changes.BlockNumber,
		BlockHash:   changes.BlockHash,
		UpdatedAt:   now,
	}

	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entity"}, {Name: "entity_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"fields", "block_number", "block_hash", "updated_at"}),
	}).Create(row).Error
}

func (s *Sink) get(tx *gorm.DB, entityName string, id string) (*EntityRow, error) {
	var row EntityRow
	err := tx.Where("entity = ? AND entity_id = ?", entityName, id).Take(&row).Error
	if xerrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, xerrors.Errorf("failed to load %v/%v: %w", entityName, id, err)
	}
	return &row, nil
}

// Get returns the stored row, or nil if the entity has never been written.
func (s *Sink) Get(ctx context.Context, entityName string, id string) (*EntityRow, error) {
	return s.get(s.db.WithContext(ctx), entityName, id)
}

// DecodeFields returns the fields of the row keyed by name.
func (r *EntityRow) DecodeFields() (map[string]entity.Value, error) {
	fields := make(map[string]entity.Value)
	if err := json.Unmarshal([]byte(r.Fields), &fields); err != nil {
		return nil, xerrors.Errorf("failed to decode fields of %v/%v: %w", r.Entity, r.EntityId, err)
	}
	return fields, nil
}

// Close releases the underlying connection pool.
func (s *Sink) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return xerrors.Errorf("failed to get connection pool: %w", err)
	}
	return sqlDB.Close()
}
