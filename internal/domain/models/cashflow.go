package models

import "time"

// CashSource is the balance an outflow is drawn from.
type CashSource string

const (
	SourceCash      CashSource = "cash"
	SourcePackaging CashSource = "packaging"
)

// Valid reports whether s is a known source.
func (s CashSource) Valid() bool {
	return s == SourceCash || s == SourcePackaging
}

// CashSubSource refines a cash outflow.
type CashSubSource string

const (
	SubReinvestment CashSubSource = "reinvestment"
	SubStoreCash    CashSubSource = "store_cash"
	SubSalary       CashSubSource = "salary"
)

// Index returns the position of the sub-source's share in a CashSplit.
func (s CashSubSource) Index() (int, bool) {
	switch s {
	case SubReinvestment:
		return 0, true
	case SubStoreCash:
		return 1, true
	case SubSalary:
		return 2, true
	}
	return 0, false
}

// Valid reports whether s is a known sub-source.
func (s CashSubSource) Valid() bool {
	_, ok := s.Index()
	return ok
}

// CashFlowEntry is a manual outflow.
type CashFlowEntry struct {
	ID          string        `bson:"_id" json:"id"`
	Date        time.Time     `bson:"date" json:"date"`
	Description string        `bson:"description" json:"description"`
	Amount      float64       `bson:"amount" json:"amount"`
	Source      CashSource    `bson:"source" json:"source"`
	SubSource   CashSubSource `bson:"sub_source,omitempty" json:"sub_source,omitempty"`
	CreatedAt   time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `bson:"updated_at" json:"updated_at"`
}

// CashSplit partitions the cash balance for display.
type CashSplit struct {
	Reinvestment float64 `bson:"reinvestment" json:"reinvestment"`
	StoreCash    float64 `bson:"store_cash" json:"store_cash"`
	Salary       float64 `bson:"salary" json:"salary"`
}

// DefaultCashSplit is used until a split is saved.
var DefaultCashSplit = CashSplit{Reinvestment: 50, StoreCash: 30, Salary: 20}

// CashSplitID is the config document holding the cash split.
const CashSplitID = "cash_split"

// CashSplitConfig is the persisted cash split.
type CashSplitConfig struct {
	ID        string    `bson:"_id" json:"id"`
	Split     CashSplit `bson:"split" json:"split"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Split converts to the generic three-way representation.
func (c CashSplit) Split() Split {
	return Split{c.Reinvestment, c.StoreCash, c.Salary}
}

// CashSplitFrom converts back from the generic representation.
func CashSplitFrom(s Split) CashSplit {
	return CashSplit{Reinvestment: s[0], StoreCash: s[1], Salary: s[2]}
}

// CashPosition is the cash-flow ledger summary.
type CashPosition struct {
	TotalSales       float64   `json:"total_sales"`
	TotalProfit      float64   `json:"total_profit"`
	PackagingValue   float64   `json:"packaging_value"`
	CashOutflows     float64   `json:"cash_outflows"`
	PackagingOutflow float64   `json:"packaging_outflows"`
	CashBalance      float64   `json:"cash_balance"`
	PackagingBalance float64   `json:"packaging_balance"`
	Split            CashSplit `json:"split"`
	SplitAmounts     CashSplit `json:"split_amounts"`
}
