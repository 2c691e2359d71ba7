package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OwnerKind identifies which ledger a transaction belongs to.
type OwnerKind string

const (
	OwnerStudent OwnerKind = "student"
	OwnerTeacher OwnerKind = "teacher"
	OwnerCompany OwnerKind = "company"
)

// Valid reports whether k is a known owner kind.
func (k OwnerKind) Valid() bool {
	switch k {
	case OwnerStudent, OwnerTeacher, OwnerCompany:
		return true
	}
	return false
}

// HasWallet is false for teachers: their earnings are tracked by the ledger alone.
func (k OwnerKind) HasWallet() bool {
	return k == OwnerStudent || k == OwnerCompany
}

// Direction tags money as entering (+) or leaving (-) the owner's wallet.
type Direction string

const (
	DirectionIncoming Direction = "+"
	DirectionOutgoing Direction = "-"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == DirectionIncoming || d == DirectionOutgoing
}

// Apply returns amount signed by the direction.
func (d Direction) Apply(amount decimal.Decimal) decimal.Decimal {
	if d == DirectionOutgoing {
		return amount.Neg()
	}
	return amount
}

// TransactionType labels manual payments.
type TransactionType struct {
	ID          string    `db:"id" json:"id"`
	Title       *string   `db:"title" json:"title,omitempty"`
	Description *string   `db:"description" json:"description,omitempty"`
	Direction   Direction `db:"direction" json:"direction"`
	IsSystem    bool      `db:"is_system" json:"is_system"`
}

// Transaction is an immutable ledger record. A nil LessonID marks a manual
// top-up or adjustment.
type Transaction struct {
	ID                string          `db:"id" json:"id"`
	OwnerKind         OwnerKind       `db:"owner_kind" json:"owner_kind"`
	OwnerID           string          `db:"owner_id" json:"owner_id"`
	LessonID          *string         `db:"lesson_id" json:"lesson_id,omitempty"`
	Price             decimal.Decimal `db:"price" json:"price"`
	Direction         Direction       `db:"direction" json:"direction"`
	TransactionTypeID *string         `db:"transaction_type_id" json:"transaction_type_id,omitempty"`
	Description       string          `db:"description" json:"description"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
}

// WalletDelta is the change this transaction applies to a wallet.
func (t Transaction) WalletDelta() decimal.Decimal {
	return t.Direction.Apply(t.Price)
}

// PaymentRecord is a manual transaction joined with its owner's display name.
type PaymentRecord struct {
	Transaction
	OwnerName string `db:"owner_name" json:"owner_name"`
}
