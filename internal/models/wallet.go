package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// KeyType is the scope of an API key.
type KeyType int

const (
	// KeyTypeInvoice is the read-scoped key: list and create terminals, issue invoices.
	KeyTypeInvoice KeyType = iota
	// KeyTypeAdmin is the admin-scoped key: everything, including spending.
	KeyTypeAdmin
)

func (k KeyType) String() string {
	if k == KeyTypeAdmin {
		return "admin"
	}
	return "invoice"
}

// Wallet mirrors a wallet of the Lightning backend. Its keys double as the
// API keys callers present to this service.
type Wallet struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	UserID     string    `gorm:"index;not null" json:"user"`
	Name       string    `json:"name"`
	AdminKey   string    `gorm:"uniqueIndex;not null" json:"-"`
	InvoiceKey string    `gorm:"uniqueIndex;not null" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

func (w *Wallet) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}

// WalletTypeInfo is a resolved API key: the wallet plus the scope of the key used.
type WalletTypeInfo struct {
	KeyType KeyType
	Wallet  *Wallet
}
