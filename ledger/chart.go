// chart.go - The fixed chart of accounts seeded on first run.
package ledger

import "github.com/shopspring/decimal"

// SeedChart returns the fourteen-account chart with its opening balances.
// The order is the display order the dashboard expects.
func SeedChart() []Account {
	entry := func(id AccountID, name string, typ AccountType, opening int64) Account {
		bal := decimal.NewFromInt(opening)
		return Account{ID: id, Name: name, Type: typ, Opening: bal, Balance: bal}
	}
	return []Account{
		entry(TillFloat, "Till Float", TypeAsset, 500),
		entry(BusinessBank, "Business Bank", TypeAsset, 12000),
		entry(OwnerEquity, "Owner Equity", TypeEquity, 5000),
		entry(HikingBarRec, "Hiking Bar Rec.", TypeReceivable, 0),
		entry(CardPayments, "Card Payments", TypeReceivable, 0),
		entry(HikingBarCard, "Hiking Bar Card Payment", TypeReceivable, 0),
		entry(ForeignCurrency, "Foreign Currency Received", TypeAsset, 0),
		entry(PendingBills, "Credit Bills/Payables", TypeReceivable, 0),
		entry(StaffBankCard, "Staff Bank Card", TypeAsset, 100),
		entry(StaffObligations, "Staff Obligations", TypeAsset, 0),
		entry(VarianceShortage, "Variance Shortage", TypeExpense, 0),
		entry(VarianceExcess, "Variance Excess", TypeRevenue, 0),
		entry(OperatingExpenses, "Operating Expenses", TypeExpense, 0),
		entry(HikingBarExpenses, "Hiking Bar Expenses", TypeExpense, 0),
	}
}
