package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"tpos/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

type CacheService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheService(client *redis.Client, defaultTTL time.Duration) *CacheService {
	return &CacheService{
		client: client,
		ttl:    defaultTTL,
	}
}

// Base operations
func (s *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	return s.SetWithTTL(ctx, key, value, s.ttl)
}

func (s *CacheService) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get cache value: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, nil
}

// Key generation
func (s *CacheService) GenerateKey(entityType, keyType string, value interface{}) string {
	return fmt.Sprintf("%s:%s:%v", entityType, keyType, value)
}

// walletRecord keeps the keys that models.Wallet hides from JSON.
type walletRecord struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Name       string    `json:"name"`
	AdminKey   string    `json:"admin_key"`
	InvoiceKey string    `json:"invoice_key"`
	CreatedAt  time.Time `json:"created_at"`
}

// Wallet caching
func (s *CacheService) CacheWallet(ctx context.Context, w *models.Wallet) error {
	if w == nil {
		return errors.New("cannot cache nil wallet")
	}

	rec := walletRecord{
		ID:         w.ID,
		UserID:     w.UserID,
		Name:       w.Name,
		AdminKey:   w.AdminKey,
		InvoiceKey: w.InvoiceKey,
		CreatedAt:  w.CreatedAt,
	}
	keys := []string{
		s.GenerateKey("wallet", "id", w.ID),
		s.GenerateKey("wallet", "key", w.AdminKey),
		s.GenerateKey("wallet", "key", w.InvoiceKey),
	}
	for _, key := range keys {
		if err := s.Set(ctx, key, rec); err != nil {
			return err
		}
	}
	return nil
}

// GetWallet looks a wallet up by "id" or by API "key". A miss returns nil, nil.
func (s *CacheService) GetWallet(ctx context.Context, keyType, value string) (*models.Wallet, error) {
	var rec walletRecord
	found, err := s.Get(ctx, s.GenerateKey("wallet", keyType, value), &rec)
	if err != nil || !found {
		return nil, err
	}
	return &models.Wallet{
		ID:         rec.ID,
		UserID:     rec.UserID,
		Name:       rec.Name,
		AdminKey:   rec.AdminKey,
		InvoiceKey: rec.InvoiceKey,
		CreatedAt:  rec.CreatedAt,
	}, nil
}

// Rate caching
func (s *CacheService) CacheRate(ctx context.Context, currency string, btcPrice decimal.Decimal, ttl time.Duration) error {
	return s.SetWithTTL(ctx, s.GenerateKey("rate", "btc", strings.ToUpper(currency)), btcPrice, ttl)
}

// GetRate returns the cached BTC price in the given currency.
func (s *CacheService) GetRate(ctx context.Context, currency string) (decimal.Decimal, bool, error) {
	var price decimal.Decimal
	found, err := s.Get(ctx, s.GenerateKey("rate", "btc", strings.ToUpper(currency)), &price)
	return price, found, err
}

// Close closes the Redis client connection
func (s *CacheService) Close() error {
	return s.client.Close()
}
