package models

import "time"

// NoDateKey groups items that were registered without a purchase date.
const NoDateKey = "no-date"

// ProfitSplit is how a lot's distributable profit is divided.
type ProfitSplit struct {
	Reinvestment float64 `bson:"reinvestment" json:"reinvestment"`
	Reserve      float64 `bson:"reserve" json:"reserve"`
	Net          float64 `bson:"net" json:"net"`
}

// DefaultProfitSplit is applied to lots without a saved configuration.
var DefaultProfitSplit = ProfitSplit{Reinvestment: 50, Reserve: 30, Net: 20}

// Split converts to the generic three-way representation.
func (p ProfitSplit) Split() Split {
	return Split{p.Reinvestment, p.Reserve, p.Net}
}

// ProfitSplitFrom converts back from the generic representation.
func ProfitSplitFrom(s Split) ProfitSplit {
	return ProfitSplit{Reinvestment: s[0], Reserve: s[1], Net: s[2]}
}

// LotKey identifies a purchase lot.
type LotKey struct {
	Supplier string `bson:"supplier" json:"supplier"`
	Date     string `bson:"lot_date" json:"lot_date"`
}

// LotConfig is the persisted part of a lot: its profit split.
type LotConfig struct {
	ID        string      `bson:"_id" json:"id"`
	Supplier  string      `bson:"supplier" json:"supplier"`
	Date      string      `bson:"lot_date" json:"lot_date"`
	Split     ProfitSplit `bson:"split" json:"split"`
	CreatedAt time.Time   `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time   `bson:"updated_at" json:"updated_at"`
}

// Key returns the lot the configuration belongs to.
func (c LotConfig) Key() LotKey {
	return LotKey{Supplier: c.Supplier, Date: c.Date}
}

// ProfitDistribution is the money amount of each split share.
type ProfitDistribution struct {
	Base         float64 `json:"base"`
	Reinvestment float64 `json:"reinvestment"`
	Reserve      float64 `json:"reserve"`
	Net          float64 `json:"net"`
}

// Lot is the derived view of items bought from one supplier on one day.
type Lot struct {
	Key           LotKey             `json:"key"`
	ConfigID      string             `json:"config_id,omitempty"`
	Items         []Item             `json:"items"`
	Invested      float64            `json:"invested"`
	SoldValue     float64            `json:"sold_value"`
	Profit        float64            `json:"profit"`
	UnitsTotal    int                `json:"units_total"`
	UnitsSold     int                `json:"units_sold"`
	PackagingSold float64            `json:"packaging_sold"`
	PercentSold   float64            `json:"percent_sold"`
	Split         ProfitSplit        `json:"split"`
	Distribution  ProfitDistribution `json:"distribution"`
}
