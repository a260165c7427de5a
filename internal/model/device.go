package model

import (
	"time"

	"gorm.io/datatypes"
)

// Recognized device statuses. Status is an open string; these are the values
// offered by the client.
const (
	StatusInUse    = "在用"
	StatusIdle     = "闲置"
	StatusScrapped = "报废"
	StatusDisabled = "停用"
)

const (
	DefaultDeviceType = "资产"
	DefaultUnit       = "台"
	DefaultAmount     = "0.00"
	DefaultQuantity   = 1
)

// Device is a single row of the equipment ledger.
type Device struct {
	ID            int64   `gorm:"primaryKey;autoIncrement"`
	Code          string  `gorm:"size:128;not null;index"`
	Name          string  `gorm:"size:255;not null"`
	DeviceType    string  `gorm:"size:32;not null"`
	Model         *string `gorm:"size:255"`
	Unit          *string `gorm:"size:32"`
	UnitPrice     string  `gorm:"type:decimal(14,2)"`
	TotalPrice    string  `gorm:"type:decimal(16,2)"`
	Quantity      *int
	Department    *string `gorm:"size:255"`
	Location      *string `gorm:"size:255;index"`
	Keeper        *string `gorm:"size:255"`
	StorageAt     *datatypes.Date
	Usage         *string   `gorm:"type:text"`
	FactoryNumber *string   `gorm:"size:255"`
	InvoiceNumber *string   `gorm:"size:255"`
	FundingCode   *string   `gorm:"size:255"`
	Funding       *string   `gorm:"size:255"`
	Note          *string   `gorm:"type:text"`
	Status        string    `gorm:"size:64;index"`
	Missing       bool      `gorm:"not null;index"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null;index"`
}

// ApplyDefaults fills the fields the server owns when the client left them empty.
func (d *Device) ApplyDefaults() {
	if d.DeviceType == "" {
		d.DeviceType = DefaultDeviceType
	}
	if d.Unit == nil {
		unit := DefaultUnit
		d.Unit = &unit
	}
	if d.UnitPrice == "" {
		d.UnitPrice = DefaultAmount
	}
	if d.TotalPrice == "" {
		d.TotalPrice = DefaultAmount
	}
	if d.Quantity == nil {
		qty := DefaultQuantity
		d.Quantity = &qty
	}
	if d.Status == "" {
		d.Status = StatusInUse
	}
}
