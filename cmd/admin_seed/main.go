package main

import (
	"context"
	"errors"
	"os"

	"tpos/internal/config"
	"tpos/internal/logger"
	"tpos/internal/models"
	"tpos/internal/repositories"
	"tpos/internal/utils"
	"tpos/internal/validation"

	"github.com/sirupsen/logrus"
)

func main() {
	config.LoadEnv()
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.IsProduction())

	adminUsername := os.Getenv("ADMIN_USERNAME")
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	walletName := config.GetEnv("ADMIN_WALLET_NAME", "TPoS")

	if adminUsername == "" || adminPassword == "" {
		log.Fatal("ADMIN_USERNAME and ADMIN_PASSWORD must be set in environment")
	}

	v := validation.New()
	v.Password("ADMIN_PASSWORD", adminPassword)
	if err := v.Err(); err != nil {
		log.WithError(err).Fatal("invalid admin password")
	}

	db, err := repositories.InitDB(cfg)
	if err != nil {
		log.WithError(err).Fatal("database unavailable")
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	ctx := context.Background()
	users := repositories.NewUserRepository(db)
	wallets := repositories.NewWalletRepository(db, nil)

	if _, err := users.GetByUsername(ctx, adminUsername); err == nil {
		log.WithField("username", adminUsername).Info("admin user already exists")
		return
	} else if !errors.Is(err, repositories.ErrNotFound) {
		log.WithError(err).Fatal("failed to look up admin user")
	}

	hashedPassword, err := utils.HashPassword(adminPassword)
	if err != nil {
		log.WithError(err).Fatal("failed to hash password")
	}

	admin := &models.User{
		Username: adminUsername,
		Password: hashedPassword,
		Role:     models.RoleAdmin,
	}
	if err := users.Create(ctx, admin); err != nil {
		log.WithError(err).Fatal("failed to create admin user")
	}

	// Point these at an existing LNbits wallet to mirror it; generated keys
	// only work against a backend that accepts them.
	wallet := &models.Wallet{
		ID:         os.Getenv("WALLET_ID"),
		UserID:     admin.ID,
		Name:       walletName,
		AdminKey:   config.GetEnv("WALLET_ADMIN_KEY", utils.MustGenerateAPIKey()),
		InvoiceKey: config.GetEnv("WALLET_INVOICE_KEY", utils.MustGenerateAPIKey()),
	}
	if err := wallets.Create(ctx, wallet); err != nil {
		log.WithError(err).Fatal("failed to create wallet")
	}

	log.WithFields(logrus.Fields{
		"user_id":     admin.ID,
		"wallet_id":   wallet.ID,
		"admin_key":   wallet.AdminKey,
		"invoice_key": wallet.InvoiceKey,
	}).Info("admin account created")
}
