package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"webhook-service/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// seedBatchSize bounds each INSERT issued by SeedPending.
const seedBatchSize = 100

// PaymentRepository owns the pending, confirmed and cancelled sets.
type PaymentRepository interface {
	FindPending(ctx context.Context, transactionID string) (*models.PendingPayment, error)
	FindSettled(ctx context.Context, transactionID string, dest models.Destination) (*models.SettledPayment, error)
	Status(ctx context.Context, transactionID string) (string, error)

	Move(ctx context.Context, transactionID string, dest models.Destination) error
	MoveToConfirmed(ctx context.Context, transactionID string) error
	MoveToCancelled(ctx context.Context, transactionID string) error

	ResetAll(ctx context.Context) error
	SeedPending(ctx context.Context, records []models.PaymentRecord) (int64, error)
}

// GormPaymentRepository implements PaymentRepository using GORM.
type GormPaymentRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormPaymentRepository creates a new GormPaymentRepository.
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db, now: time.Now}
}

func (r *GormPaymentRepository) FindPending(ctx context.Context, transactionID string) (*models.PendingPayment, error) {
	var p models.PendingPayment
	if err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *GormPaymentRepository) FindSettled(ctx context.Context, transactionID string, dest models.Destination) (*models.SettledPayment, error) {
	if !dest.Valid() {
		return nil, fmt.Errorf("unknown destination %q", dest)
	}
	var s models.SettledPayment
	if err := r.db.WithContext(ctx).
		Table(dest.TableName()).
		Where("transaction_id = ?", transactionID).
		First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Status reports which set currently holds transactionID.
func (r *GormPaymentRepository) Status(ctx context.Context, transactionID string) (string, error) {
	_, err := r.FindPending(ctx, transactionID)
	if err == nil {
		return models.StatusPending, nil
	}
	if !errors.Is(err, ErrPaymentNotFound) {
		return "", err
	}

	for _, dest := range []models.Destination{models.DestinationConfirmed, models.DestinationCancelled} {
		_, err := r.FindSettled(ctx, transactionID, dest)
		if err == nil {
			return string(dest), nil
		}
		if !errors.Is(err, ErrPaymentNotFound) {
			return "", err
		}
	}
	return "", ErrPaymentNotFound
}

// Move relocates one pending payment into dest. The pending row is re-read
// under a row lock, copied with a settled_at stamp and deleted, all in one
// transaction. On any error the transaction is rolled back and a *MoveError
// is returned.
func (r *GormPaymentRepository) Move(ctx context.Context, transactionID string, dest models.Destination) error {
	if !dest.Valid() {
		return moveStorage(transactionID, fmt.Errorf("unknown destination %q", dest))
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []models.PendingPayment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("transaction_id = ?", transactionID).
			Find(&rows).Error; err != nil {
			return moveStorage(transactionID, err)
		}
		if len(rows) != 1 {
			return moveNotFound(transactionID, len(rows))
		}

		settled := models.SettledPayment{
			PaymentRecord: rows[0].PaymentRecord,
			SettledAt:     r.now().UTC(),
		}
		if err := tx.Table(dest.TableName()).Create(&settled).Error; err != nil {
			return moveStorage(transactionID, err)
		}

		res := tx.Where("transaction_id = ?", transactionID).Delete(&models.PendingPayment{})
		if res.Error != nil {
			return moveStorage(transactionID, res.Error)
		}
		if res.RowsAffected != 1 {
			return moveNotFound(transactionID, int(res.RowsAffected))
		}
		return nil
	})
	if err == nil {
		return nil
	}

	var me *MoveError
	if errors.As(err, &me) {
		return me
	}
	// begin or commit failed
	return moveStorage(transactionID, err)
}

func (r *GormPaymentRepository) MoveToConfirmed(ctx context.Context, transactionID string) error {
	return r.Move(ctx, transactionID, models.DestinationConfirmed)
}

func (r *GormPaymentRepository) MoveToCancelled(ctx context.Context, transactionID string) error {
	return r.Move(ctx, transactionID, models.DestinationCancelled)
}

// ResetAll empties every set. Setup-time only.
func (r *GormPaymentRepository) ResetAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tables := []string{
			models.PendingPayment{}.TableName(),
			models.DestinationConfirmed.TableName(),
			models.DestinationCancelled.TableName(),
		}
		for _, table := range tables {
			if err := tx.Exec("DELETE FROM ?", clause.Table{Name: table}).Error; err != nil {
				return fmt.Errorf("reset %s: %w", table, err)
			}
		}
		return nil
	})
}

// SeedPending inserts records into the pending set. Ids that already exist
// are skipped rather than failing the batch. It returns the number of rows
// actually inserted.
func (r *GormPaymentRepository) SeedPending(ctx context.Context, records []models.PaymentRecord) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}
	pending := make([]models.PendingPayment, len(records))
	for i, rec := range records {
		pending[i] = models.PendingPayment{PaymentRecord: rec}
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(&pending, seedBatchSize)
	return res.RowsAffected, res.Error
}
