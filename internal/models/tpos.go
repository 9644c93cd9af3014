package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tpos is a point-of-sale terminal bound to one wallet.
type Tpos struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	Wallet     string    `gorm:"index;not null" json:"wallet"`
	Name       string    `gorm:"not null" json:"name"`
	Currency   string    `gorm:"not null" json:"currency"`
	TipOptions IntList   `gorm:"type:jsonb" json:"tip_options"`
	TipWallet  string    `json:"tip_wallet"`
	Atm        bool      `gorm:"default:false" json:"atm"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Tpos) TableName() string {
	return "tposs"
}

func (t *Tpos) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// AtmEnabled reports whether the terminal may dispense withdrawals.
func (t *Tpos) AtmEnabled() bool {
	return t != nil && t.Atm
}

// CreateTposData is the body of create and update requests.
type CreateTposData struct {
	Name       string `json:"name"`
	Currency   string `json:"currency"`
	TipOptions []int  `json:"tip_options"`
	TipWallet  string `json:"tip_wallet"`
	Atm        bool   `json:"atm"`
}

// Apply copies the request fields onto the terminal.
func (d CreateTposData) Apply(t *Tpos) {
	t.Name = d.Name
	t.Currency = d.Currency
	t.TipOptions = IntList(d.TipOptions)
	t.TipWallet = d.TipWallet
	t.Atm = d.Atm
}
