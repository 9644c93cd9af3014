package repositories

import (
	"context"

	"tpos/internal/models"
	"tpos/internal/repositories/cache"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type WalletRepository interface {
	GetByID(ctx context.Context, id string) (*models.Wallet, error)
	GetByKey(ctx context.Context, key string) (*models.WalletTypeInfo, error)
	ListIDsByUser(ctx context.Context, userID string) ([]string, error)
	Create(ctx context.Context, w *models.Wallet) error
}

type walletRepository struct {
	db    *gorm.DB
	cache *cache.CacheService
	log   *logrus.Entry
}

// NewWalletRepository returns a wallet repository. Lookups go through the
// cache when one is given.
func NewWalletRepository(db *gorm.DB, cacheService *cache.CacheService) WalletRepository {
	return &walletRepository{
		db:    db,
		cache: cacheService,
		log:   logrus.WithField("component", "wallet_repository"),
	}
}

func (r *walletRepository) GetByID(ctx context.Context, id string) (*models.Wallet, error) {
	if w := r.fromCache(ctx, "id", id); w != nil {
		return w, nil
	}

	var w models.Wallet
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&w).Error; err != nil {
		return nil, notFound(err)
	}
	r.toCache(ctx, &w)
	return &w, nil
}

func (r *walletRepository) GetByKey(ctx context.Context, key string) (*models.WalletTypeInfo, error) {
	w := r.fromCache(ctx, "key", key)
	if w == nil {
		var found models.Wallet
		err := r.db.WithContext(ctx).
			Where("admin_key = ? OR invoice_key = ?", key, key).
			First(&found).Error
		if err != nil {
			return nil, notFound(err)
		}
		w = &found
		r.toCache(ctx, w)
	}

	info := &models.WalletTypeInfo{KeyType: models.KeyTypeInvoice, Wallet: w}
	if w.AdminKey == key {
		info.KeyType = models.KeyTypeAdmin
	}
	return info, nil
}

func (r *walletRepository) ListIDsByUser(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("user_id = ?", userID).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *walletRepository) Create(ctx context.Context, w *models.Wallet) error {
	return r.db.WithContext(ctx).Create(w).Error
}

func (r *walletRepository) fromCache(ctx context.Context, keyType, value string) *models.Wallet {
	if r.cache == nil {
		return nil
	}
	w, err := r.cache.GetWallet(ctx, keyType, value)
	if err != nil {
		r.log.WithError(err).Warn("wallet cache read failed")
		return nil
	}
	return w
}

func (r *walletRepository) toCache(ctx context.Context, w *models.Wallet) {
	if r.cache == nil {
		return
	}
	if err := r.cache.CacheWallet(ctx, w); err != nil {
		r.log.WithError(err).Warn("wallet cache write failed")
	}
}
