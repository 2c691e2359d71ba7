package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TeacherEarningPeriod sums a teacher's lesson earnings for one half of a month.
// HalfMonth is 1 for days 1-15 and 2 for the rest.
type TeacherEarningPeriod struct {
	Month      time.Time       `db:"month" json:"month"`
	HalfMonth  int             `db:"half_month" json:"half_month"`
	TotalPrice decimal.Decimal `db:"total_price" json:"total_price"`
}

// CompanySpendPeriod sums what a company paid for lessons in one month.
type CompanySpendPeriod struct {
	Month      time.Time       `db:"month" json:"month"`
	TotalPrice decimal.Decimal `db:"total_price" json:"total_price"`
	Lessons    int             `db:"lessons" json:"lessons"`
}

// WalletSnapshot compares a stored wallet with the balance implied by the ledger.
type WalletSnapshot struct {
	OwnerKind     OwnerKind       `db:"owner_kind" json:"owner_kind"`
	OwnerID       string          `db:"owner_id" json:"owner_id"`
	Wallet        decimal.Decimal `db:"wallet" json:"wallet"`
	LedgerBalance decimal.Decimal `db:"ledger_balance" json:"ledger_balance"`
}

// Drift is the amount the stored wallet deviates from the ledger.
func (w WalletSnapshot) Drift() decimal.Decimal {
	return w.Wallet.Sub(w.LedgerBalance)
}

// ReportFormat selects how a report is rendered.
type ReportFormat string

const (
	ReportFormatJSON ReportFormat = "json"
	ReportFormatCSV  ReportFormat = "csv"
	ReportFormatPDF  ReportFormat = "pdf"
)

// ParseReportFormat defaults to JSON for empty input.
func ParseReportFormat(raw string) (ReportFormat, bool) {
	switch format := ReportFormat(raw); format {
	case "":
		return ReportFormatJSON, true
	case ReportFormatJSON, ReportFormatCSV, ReportFormatPDF:
		return format, true
	default:
		return "", false
	}
}
