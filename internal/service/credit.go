package service

import (
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Isba24ha/Barliberty-vultr/internal/models"
)

// CreditService maintains the named credit accounts and their settlement
// ledger.
type CreditService struct {
	db *gorm.DB
}

func NewCreditService(db *gorm.DB) *CreditService {
	return &CreditService{db: db}
}

func (s *CreditService) ListClients() ([]models.CreditClient, error) {
	var clients []models.CreditClient
	if err := s.db.Order("name").Find(&clients).Error; err != nil {
		return nil, err
	}
	return clients, nil
}

// CreateClient opens a credit account with a zero balance.
func (s *CreditService) CreateClient(name string) (*models.CreditClient, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Reason: "client name is required"}
	}
	var existing models.CreditClient
	if err := s.db.Where("name = ?", name).First(&existing).Error; err == nil {
		return nil, &ConflictError{Reason: "a credit client with this name already exists"}
	}
	client := &models.CreditClient{Name: name, TotalCredit: decimal.Zero}
	if err := s.db.Create(client).Error; err != nil {
		return nil, err
	}
	return client, nil
}

// RecordPayment settles part of a client's outstanding credit and writes an
// immutable CreditPayment entry. A payment above the outstanding balance is
// rejected with OverpaymentError: the account never goes below zero.
func (s *CreditService) RecordPayment(actor Actor, clientID uint, amount decimal.Decimal, method models.PaymentMethod) (*models.CreditClient, error) {
	if !amount.IsPositive() {
		return nil, &ValidationError{Reason: "payment amount must be positive"}
	}
	if method != models.PaymentCash && method != models.PaymentMobileMoney {
		return nil, validationf("unknown payment method %q", method)
	}

	var client models.CreditClient
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&client, clientID).Error; err != nil {
			return err
		}
		if amount.GreaterThan(client.TotalCredit) {
			return &OverpaymentError{Outstanding: client.TotalCredit, Amount: amount}
		}
		client.TotalCredit = client.TotalCredit.Sub(amount)
		if err := tx.Model(&models.CreditClient{}).Where("id = ?", client.ID).
			Update("total_credit", client.TotalCredit).Error; err != nil {
			return err
		}
		return tx.Create(&models.CreditPayment{
			CreditClientID: client.ID,
			Amount:         amount,
			Method:         method,
			RecordedByID:   actor.UserID,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &client, nil
}

// chargeCredit posts an order total onto a client's account. It runs inside
// the caller's transaction and is invoked exactly once per order, at
// completion; pending orders are still editable so their totals never touch
// the ledger.
func chargeCredit(tx *gorm.DB, clientID uint, amount decimal.Decimal) error {
	var client models.CreditClient
	if err := lockForUpdate(tx).First(&client, clientID).Error; err != nil {
		return err
	}
	return tx.Model(&models.CreditClient{}).Where("id = ?", client.ID).
		Update("total_credit", client.TotalCredit.Add(amount)).Error
}
