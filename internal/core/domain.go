package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyCategory    = errors.New("empty category")
	ErrExpenseNotFound  = errors.New("expense not found")
)

type (
	// Expense is a single recorded expense. Records are immutable once
	// stored; the only mutation the ledger performs is removal.
	Expense struct {
		ID          int64           `json:"id"`
		Amount      decimal.Decimal `json:"amount"`
		Description string          `json:"description"`
		Category    string          `json:"category"`
		Date        time.Time       `json:"date"`
		Notes       string          `json:"notes,omitempty"`
	}

	// NewExpense carries the caller-supplied fields of an expense before
	// the ledger assigns identity and timestamp. An empty Category means
	// the ledger derives one from the description.
	NewExpense struct {
		Amount      decimal.Decimal
		Description string
		Category    string
		Notes       string
	}

	// Budget is a spending ceiling for a single category. Setting a budget
	// for a category that already has one overwrites it.
	Budget struct {
		Category string          `json:"category"`
		Amount   decimal.Decimal `json:"amount"`
	}
)

func (e NewExpense) Validate() error {
	if e.Amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if b.Amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	return nil
}
