package models

import "time"

// DailyReport aggregates a day of weighing and dispatch activity.
type DailyReport struct {
	Date            string    `bson:"date" json:"date"`
	CamalNetKg      float64   `bson:"camal_net_kg" json:"camal_net_kg"`
	ProcesoNetKg    float64   `bson:"proceso_net_kg" json:"proceso_net_kg"`
	SalesAmount     float64   `bson:"sales_amount" json:"sales_amount"`
	Records         int       `bson:"records" json:"records"`
	OrdersCompleted int       `bson:"orders_completed" json:"orders_completed"`
	OrdersPending   int       `bson:"orders_pending" json:"orders_pending"`
	OrdersOverdue   int       `bson:"orders_overdue" json:"orders_overdue"`
	StockKg         float64   `bson:"stock_kg" json:"stock_kg"`
	LowStock        bool      `bson:"low_stock" json:"low_stock"`
	CreatedAt       time.Time `bson:"created_at" json:"created_at"`
}
