package models

// MonthlyReport aggregates sales for one calendar month.
type MonthlyReport struct {
	Key        string  `bson:"key" json:"key"` // YYYY-MM
	Month      string  `bson:"month" json:"month"`
	Year       int     `bson:"year" json:"year"`
	UnitsSold  int     `bson:"units_sold" json:"units_sold"`
	TotalSales float64 `bson:"total_sales" json:"total_sales"`
	Profit     float64 `bson:"profit" json:"profit"`
}

// StockStats summarizes the inventory.
type StockStats struct {
	TotalItems      int     `json:"total_items"`
	AvailableItems  int     `json:"available_items"`
	SoldItems       int     `json:"sold_items"`
	Invested        float64 `json:"invested"`
	StockValue      float64 `json:"stock_value"`
	PotentialProfit float64 `json:"potential_profit"`
}

// PaymentStats is the sales volume of one payment method.
type PaymentStats struct {
	Count int     `json:"count"`
	Value float64 `json:"value"`
}

// SalesStats summarizes a set of sales.
type SalesStats struct {
	TotalSales    float64                        `json:"total_sales"`
	TotalProfit   float64                        `json:"total_profit"`
	Count         int                            `json:"count"`
	AverageTicket float64                        `json:"average_ticket"`
	ByPayment     map[PaymentMethod]PaymentStats `json:"by_payment"`
}

// GeneralReport combines stock statistics with sales in a period.
type GeneralReport struct {
	Stock           StockStats      `json:"stock"`
	PeriodSales     float64         `json:"period_sales"`
	PeriodProfit    float64         `json:"period_profit"`
	PeriodSaleCount int             `json:"period_sale_count"`
	Monthly         []MonthlyReport `json:"monthly"`
}
