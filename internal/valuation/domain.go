package valuation

import (
	"time"

	"github.com/omersalem/SuperMarketUnleashed-sub000/internal/shared"
)

// EntryKind labels manual cash entries.
type EntryKind string

const (
	// EntryIncome is income recorded outside of sales.
	EntryIncome EntryKind = "income"
	// EntryExpense is spend recorded outside of purchases.
	EntryExpense EntryKind = "expense"
)

// CashEntry is a manual dated income or expense, treated as 100% cash.
type CashEntry struct {
	ID          string    `json:"id"`
	Kind        EntryKind `json:"kind"`
	Date        time.Time `json:"date"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CashFlow summarises cash movement in a window. Non-cash instruments are
// counted as if settled immediately; timing is not modelled.
type CashFlow struct {
	CashIn  float64 `json:"cashIn"`
	CashOut float64 `json:"cashOut"`
	Net     float64 `json:"net"`
}

// PeriodReport is the full financial picture for one reporting window,
// recomputed from complete history on every request.
type PeriodReport struct {
	Window         shared.Window `json:"window"`
	SalesRevenue   float64       `json:"salesRevenue"`
	PurchasesValue float64       `json:"purchasesValue"`
	OpeningValue   float64       `json:"openingValue"`
	ClosingValue   float64       `json:"closingValue"`
	COGS           float64       `json:"cogs"`
	GrossProfit    float64       `json:"grossProfit"`
	OtherIncome    float64       `json:"otherIncome"`
	OtherExpenses  float64       `json:"otherExpenses"`
	NetProfit      float64       `json:"netProfit"`
	Cash           CashFlow      `json:"cash"`
	GeneratedAt    time.Time     `json:"generatedAt"`
}
