package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"rifa/internal/model"
)

type participationRow struct {
	ID                    string `gorm:"primaryKey"`
	FullName              string `gorm:"not null"`
	Phone                 string `gorm:"not null"`
	Email                 string `gorm:"not null"`
	Country               string `gorm:"not null"`
	Raffle                string `gorm:"not null"`
	TicketsRequested      float64
	Status                string `gorm:"not null;default:pending"`
	AssignedTicketNumbers []int  `gorm:"serializer:json"`
	PaymentProofFilename  string
	SubmittedAt           time.Time `gorm:"index"`
}

func (participationRow) TableName() string {
	return "participations"
}

type postgresStore struct {
	db  *gorm.DB
	log *zerolog.Logger
}

// OpenPostgres connects with dsn and migrates the participations table.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := db.AutoMigrate(&participationRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate participations: %w", err)
	}
	return db, nil
}

func NewPostgresStore(db *gorm.DB, log *zerolog.Logger) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	return &postgresStore{db: db, log: log}, nil
}

func (s *postgresStore) Load(ctx context.Context) ([]model.Participation, error) {
	var rows []participationRow
	if err := s.db.WithContext(ctx).Order("submitted_at, id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load participations: %w", err)
	}

	all := make([]model.Participation, 0, len(rows))
	for _, r := range rows {
		all = append(all, rowToModel(r))
	}
	return all, nil
}

// Save replaces the table contents with all inside one transaction.
func (s *postgresStore) Save(ctx context.Context, all []model.Participation) error {
	rows := make([]participationRow, 0, len(all))
	for _, p := range all {
		rows = append(rows, modelToRow(p))
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&participationRow{}).Error; err != nil {
			return fmt.Errorf("failed to clear participations: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(rows, 100).Error; err != nil {
			return fmt.Errorf("failed to insert participations: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Debug().Int("count", len(rows)).Msg("participations saved")
	return nil
}

func modelToRow(p model.Participation) participationRow {
	numbers := p.AssignedTicketNumbers
	if numbers == nil {
		numbers = []int{}
	}
	return participationRow{
		ID:                    p.ID,
		FullName:              p.FullName,
		Phone:                 p.Phone,
		Email:                 p.Email,
		Country:               p.Country,
		Raffle:                p.Raffle,
		TicketsRequested:      p.TicketsRequested,
		Status:                p.Status,
		AssignedTicketNumbers: numbers,
		PaymentProofFilename:  p.PaymentProofFilename,
		SubmittedAt:           p.SubmittedAt,
	}
}

func rowToModel(r participationRow) model.Participation {
	numbers := r.AssignedTicketNumbers
	if numbers == nil {
		numbers = []int{}
	}
	return model.Participation{
		ID:                    r.ID,
		FullName:              r.FullName,
		Phone:                 r.Phone,
		Email:                 r.Email,
		Country:               r.Country,
		Raffle:                r.Raffle,
		TicketsRequested:      r.TicketsRequested,
		Status:                r.Status,
		AssignedTicketNumbers: numbers,
		PaymentProofFilename:  r.PaymentProofFilename,
		SubmittedAt:           r.SubmittedAt.UTC(),
	}
}
