package repositories

import (
	"context"

	"tpos/internal/models"

	"gorm.io/gorm"
)

type TposRepository interface {
	List(ctx context.Context, walletIDs []string) ([]models.Tpos, error)
	Get(ctx context.Context, id string) (*models.Tpos, error)
	Create(ctx context.Context, t *models.Tpos) error
	Update(ctx context.Context, t *models.Tpos) error
	Delete(ctx context.Context, id string) error
}

type tposRepository struct {
	db *gorm.DB
}

func NewTposRepository(db *gorm.DB) TposRepository {
	return &tposRepository{db: db}
}

func (r *tposRepository) List(ctx context.Context, walletIDs []string) ([]models.Tpos, error) {
	tposs := make([]models.Tpos, 0)
	if len(walletIDs) == 0 {
		return tposs, nil
	}
	err := r.db.WithContext(ctx).
		Where("wallet IN ?", walletIDs).
		Order("created_at").
		Find(&tposs).Error
	return tposs, err
}

func (r *tposRepository) Get(ctx context.Context, id string) (*models.Tpos, error) {
	var t models.Tpos
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (r *tposRepository) Create(ctx context.Context, t *models.Tpos) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *tposRepository) Update(ctx context.Context, t *models.Tpos) error {
	// Save writes zero values too, so atm can be switched off.
	return r.db.WithContext(ctx).Save(t).Error
}

func (r *tposRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Tpos{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
