package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// IntArray stores an id list as a JSON column.
type IntArray []int64

func (a *IntArray) Scan(value interface{}) error {
	if value == nil {
		*a = []int64{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to scan IntArray: %v", value)
	}

	return json.Unmarshal(bytes, a)
}

func (a IntArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	return json.Marshal(a)
}

type PosOrder struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Name         string `gorm:"uniqueIndex;not null"`
	PosReference string `gorm:"type:varchar(64)"`
	SessionID    int64  `gorm:"not null"`
	ConfigID     int64  `gorm:"index;not null"`
	CompanyID    int64  `gorm:"not null"`

	OrderStatus string `gorm:"type:varchar(16);not null;default:'draft'"`
	IsCooking   bool   `gorm:"not null;default:false"`

	AmountTotal  string `gorm:"type:varchar(32);not null"`
	AmountPaid   string `gorm:"type:varchar(32);not null"`
	AmountReturn string `gorm:"type:varchar(32);not null"`
	AmountTax    string `gorm:"type:varchar(32);not null"`

	Hour    int32 `gorm:"not null"`
	Minutes int32 `gorm:"not null"`

	TableID *int64
	Floor   *string `gorm:"type:varchar(64)"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Lines []PosOrderLine `gorm:"foreignKey:OrderID"`
}

type PosOrderLine struct {
	ID        int64 `gorm:"primaryKey;autoIncrement"`
	OrderID   int64 `gorm:"index;not null"`
	ProductID int64 `gorm:"not null"`

	FullProductName   string   `gorm:"type:varchar(128);not null"`
	Qty               float64  `gorm:"not null"`
	PriceUnit         string   `gorm:"type:varchar(32);not null"`
	PriceSubtotal     string   `gorm:"type:varchar(32);not null"`
	PriceSubtotalIncl string   `gorm:"type:varchar(32);not null"`
	Discount          string   `gorm:"type:varchar(32);not null;default:'0.00'"`
	TaxIDs            IntArray `gorm:"type:text"`

	OrderStatus string  `gorm:"type:varchar(16);not null;default:'waiting'"`
	IsCooking   bool    `gorm:"not null;default:false"`
	Note        *string `gorm:"type:text"`

	CreatedAt time.Time
}

// KitchenOrder is the kitchen-screen record materialized per accepted
// pos order, keyed by a generated sequence.
type KitchenOrder struct {
	ID          int64    `gorm:"primaryKey;autoIncrement"`
	Sequence    string   `gorm:"uniqueIndex;not null"`
	PosOrderID  int64    `gorm:"index;not null"`
	PosConfigID int64    `gorm:"index;not null"`
	PosCategIDs IntArray `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func MigrateKitchenDB(db *gorm.DB) error {
	db.AutoMigrate(&PosOrder{})
	db.AutoMigrate(&PosOrderLine{})
	db.AutoMigrate(&KitchenOrder{})
	return nil
}
