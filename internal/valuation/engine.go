package valuation

import (
	"math"

	"github.com/omersalem/SuperMarketUnleashed-sub000/internal/ledger"
	"github.com/omersalem/SuperMarketUnleashed-sub000/internal/masterdata"
	"github.com/omersalem/SuperMarketUnleashed-sub000/internal/shared"
)

// costBasis accumulates purchase history for one product.
type costBasis struct {
	qty       float64
	totalCost float64
}

// AverageCosts folds every purchase line item ever recorded into a per
// product moving-average unit cost. The fold always runs over the full
// history, not the reporting window, and is recomputed from scratch on
// each call. A product with no accumulated quantity costs zero.
func AverageCosts(purchases []ledger.Transaction) map[string]float64 {
	basis := make(map[string]costBasis)
	for _, tx := range purchases {
		if tx.IsPaymentOnly {
			continue
		}
		for _, item := range tx.LineItems {
			b := basis[item.ProductID]
			b.qty += item.Quantity
			b.totalCost += item.Total()
			basis[item.ProductID] = b
		}
	}
	costs := make(map[string]float64, len(basis))
	for id, b := range basis {
		if b.qty == 0 {
			costs[id] = 0
			continue
		}
		costs[id] = b.totalCost / b.qty
	}
	return costs
}

// QuantitiesInWindow sums line item quantities per product across
// transactions dated inside the window. Payment-only records carry no
// line items and are skipped.
func QuantitiesInWindow(txs []ledger.Transaction, window shared.Window) map[string]float64 {
	quantities := make(map[string]float64)
	for _, tx := range txs {
		if tx.IsPaymentOnly || !window.Contains(tx.Date) {
			continue
		}
		for _, item := range tx.LineItems {
			quantities[item.ProductID] += item.Quantity
		}
	}
	return quantities
}

// ValueInWindow sums line totals of in-window transactions.
func ValueInWindow(txs []ledger.Transaction, window shared.Window) float64 {
	var total float64
	for _, tx := range txs {
		if tx.IsPaymentOnly || !window.Contains(tx.Date) {
			continue
		}
		for _, item := range tx.LineItems {
			total += item.Total()
		}
	}
	return total
}

// PaidInWindow sums amounts actually paid on in-window transactions,
// including payment-only records.
func PaidInWindow(txs []ledger.Transaction, window shared.Window) float64 {
	var total float64
	for _, tx := range txs {
		if !window.Contains(tx.Date) {
			continue
		}
		total += tx.AmountPaid
	}
	return total
}

// OpeningClosing derives opening and closing inventory values.
//
// Closing quantity is the product's current stock, as of now rather than
// the window end; the identity closing = opening + purchased - sold is
// then run backwards to recover the opening quantity, floored at zero to
// absorb data inconsistencies. Products missing from the registry simply
// contribute nothing. Both approximations mirror the report this engine
// replaces and are deliberate.
func OpeningClosing(products []masterdata.Product, sold, purchased, avgCost map[string]float64) (openingValue, closingValue float64) {
	for _, p := range products {
		cost := avgCost[p.ID]
		closingQty := p.Stock
		openingQty := math.Max(0, closingQty-purchased[p.ID]+sold[p.ID])
		openingValue += openingQty * cost
		closingValue += closingQty * cost
	}
	return openingValue, closingValue
}

// COGS applies the accounting identity opening + purchases - closing,
// floored at zero. A negative raw value signals costing drift; reports
// show zero while the integrity scan surfaces the raw number.
func COGS(openingValue, purchasesValue, closingValue float64) float64 {
	return math.Max(0, RawCOGS(openingValue, purchasesValue, closingValue))
}

// RawCOGS is the unfloored identity, used by the reconciliation scan to
// detect drift that the report-facing COGS hides.
func RawCOGS(openingValue, purchasesValue, closingValue float64) float64 {
	return openingValue + purchasesValue - closingValue
}

// ProfitMetrics derives gross and net profit.
func ProfitMetrics(salesRevenue, cogs, otherIncome, otherExpenses float64) (grossProfit, netProfit float64) {
	grossProfit = salesRevenue - cogs
	netProfit = grossProfit + otherIncome - otherExpenses
	return grossProfit, netProfit
}

// ComputeCashFlow sums cash in and out for the window. Amounts paid on
// sales and purchases count regardless of instrument, and manual entries
// are treated as fully cash.
func ComputeCashFlow(sales, purchases []ledger.Transaction, entries []CashEntry, window shared.Window) CashFlow {
	flow := CashFlow{
		CashIn:  PaidInWindow(sales, window),
		CashOut: PaidInWindow(purchases, window),
	}
	for _, e := range entries {
		if !window.Contains(e.Date) {
			continue
		}
		switch e.Kind {
		case EntryIncome:
			flow.CashIn += e.Amount
		case EntryExpense:
			flow.CashOut += e.Amount
		}
	}
	flow.Net = flow.CashIn - flow.CashOut
	return flow
}

// SumEntries totals in-window manual entries of one kind.
func SumEntries(entries []CashEntry, kind EntryKind, window shared.Window) float64 {
	var total float64
	for _, e := range entries {
		if e.Kind != kind || !window.Contains(e.Date) {
			continue
		}
		total += e.Amount
	}
	return total
}
