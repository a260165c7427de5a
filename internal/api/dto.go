package api

import (
	"strings"
	"time"

	"github.com/samber/lo"
	"gorm.io/datatypes"

	"equipment-ledger-backend/internal/model"
	"equipment-ledger-backend/internal/parse"
)

// timestampLayout is RFC3339 with millisecond precision.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// DeviceDTO is the wire representation of a device.
type DeviceDTO struct {
	ID            int64   `json:"id"`
	Code          string  `json:"code"`
	Name          string  `json:"name"`
	DeviceType    string  `json:"deviceType"`
	Model         *string `json:"model"`
	Unit          *string `json:"unit"`
	UnitPrice     string  `json:"unitPrice"`
	TotalPrice    string  `json:"totalPrice"`
	Quantity      *int    `json:"quantity"`
	Department    *string `json:"department"`
	Location      *string `json:"location"`
	Keeper        *string `json:"keeper"`
	StorageAt     *string `json:"storageAt"`
	Usage         *string `json:"usage"`
	FactoryNumber *string `json:"factoryNumber"`
	InvoiceNumber *string `json:"invoiceNumber"`
	FundingCode   *string `json:"fundingCode"`
	Funding       *string `json:"funding"`
	Note          *string `json:"note"`
	Status        string  `json:"status"`
	Missing       bool    `json:"missing"`
	CreatedAt     string  `json:"createdAt"`
	UpdatedAt     string  `json:"updatedAt"`
}

func toDeviceDTO(d model.Device) DeviceDTO {
	dto := DeviceDTO{
		ID:            d.ID,
		Code:          d.Code,
		Name:          d.Name,
		DeviceType:    d.DeviceType,
		Model:         d.Model,
		Unit:          d.Unit,
		UnitPrice:     parse.FormatAmount(d.UnitPrice),
		TotalPrice:    parse.FormatAmount(d.TotalPrice),
		Quantity:      d.Quantity,
		Department:    d.Department,
		Location:      d.Location,
		Keeper:        d.Keeper,
		Usage:         d.Usage,
		FactoryNumber: d.FactoryNumber,
		InvoiceNumber: d.InvoiceNumber,
		FundingCode:   d.FundingCode,
		Funding:       d.Funding,
		Note:          d.Note,
		Status:        d.Status,
		Missing:       d.Missing,
		CreatedAt:     d.CreatedAt.UTC().Format(timestampLayout),
		UpdatedAt:     d.UpdatedAt.UTC().Format(timestampLayout),
	}
	if d.StorageAt != nil {
		dto.StorageAt = lo.ToPtr(time.Time(*d.StorageAt).Format(parse.DateLayout))
	}
	if dto.Status == "" {
		dto.Status = model.StatusInUse
	}
	return dto
}

func toDeviceDTOs(devices []model.Device) []DeviceDTO {
	return lo.Map(devices, func(d model.Device, _ int) DeviceDTO {
		return toDeviceDTO(d)
	})
}

// createDeviceRequest is the body of POST /api/devices. Only code and name
// are required; the server fills the remaining defaults.
type createDeviceRequest struct {
	Code          string  `json:"code"`
	Name          string  `json:"name"`
	DeviceType    *string `json:"deviceType"`
	Model         *string `json:"model"`
	Unit          *string `json:"unit"`
	UnitPrice     *string `json:"unitPrice"`
	TotalPrice    *string `json:"totalPrice"`
	Quantity      *int    `json:"quantity"`
	Department    *string `json:"department"`
	Location      *string `json:"location"`
	Keeper        *string `json:"keeper"`
	StorageAt     *string `json:"storageAt"`
	Usage         *string `json:"usage"`
	FactoryNumber *string `json:"factoryNumber"`
	InvoiceNumber *string `json:"invoiceNumber"`
	FundingCode   *string `json:"fundingCode"`
	Funding       *string `json:"funding"`
	Note          *string `json:"note"`
	Status        *string `json:"status"`
	Missing       *bool   `json:"missing"`
}

func (r createDeviceRequest) toDevice() (*model.Device, error) {
	d := &model.Device{
		Code:          strings.TrimSpace(r.Code),
		Name:          strings.TrimSpace(r.Name),
		DeviceType:    strings.TrimSpace(lo.FromPtr(r.DeviceType)),
		Model:         nullableText(r.Model),
		Unit:          nullableText(r.Unit),
		Quantity:      r.Quantity,
		Department:    nullableText(r.Department),
		Location:      nullableText(r.Location),
		Keeper:        nullableText(r.Keeper),
		Usage:         nullableText(r.Usage),
		FactoryNumber: nullableText(r.FactoryNumber),
		InvoiceNumber: nullableText(r.InvoiceNumber),
		FundingCode:   nullableText(r.FundingCode),
		Funding:       nullableText(r.Funding),
		Note:          nullableText(r.Note),
		Status:        strings.TrimSpace(lo.FromPtr(r.Status)),
		Missing:       lo.FromPtr(r.Missing),
	}
	if d.Code == "" {
		return nil, badRequest("code is required")
	}
	if d.Name == "" {
		return nil, badRequest("name is required")
	}
	if d.Quantity != nil && *d.Quantity < 0 {
		return nil, badRequest("quantity must not be negative")
	}

	var err error
	if r.UnitPrice != nil {
		if d.UnitPrice, err = amount("unitPrice", *r.UnitPrice); err != nil {
			return nil, err
		}
	}
	if r.TotalPrice != nil {
		if d.TotalPrice, err = amount("totalPrice", *r.TotalPrice); err != nil {
			return nil, err
		}
	}
	if r.StorageAt != nil && strings.TrimSpace(*r.StorageAt) != "" {
		if d.StorageAt, err = date(*r.StorageAt); err != nil {
			return nil, err
		}
	}

	d.ApplyDefaults()
	return d, nil
}

// patchDeviceRequest is the body of PATCH /api/devices/:id. Absent keys are
// left untouched and null clears a nullable field. The code is immutable and
// has no field here.
type patchDeviceRequest struct {
	Name          Optional[string] `json:"name"`
	DeviceType    Optional[string] `json:"deviceType"`
	Model         Optional[string] `json:"model"`
	Unit          Optional[string] `json:"unit"`
	UnitPrice     Optional[string] `json:"unitPrice"`
	TotalPrice    Optional[string] `json:"totalPrice"`
	Quantity      Optional[int]    `json:"quantity"`
	Department    Optional[string] `json:"department"`
	Location      Optional[string] `json:"location"`
	Keeper        Optional[string] `json:"keeper"`
	StorageAt     Optional[string] `json:"storageAt"`
	Usage         Optional[string] `json:"usage"`
	FactoryNumber Optional[string] `json:"factoryNumber"`
	InvoiceNumber Optional[string] `json:"invoiceNumber"`
	FundingCode   Optional[string] `json:"fundingCode"`
	Funding       Optional[string] `json:"funding"`
	Note          Optional[string] `json:"note"`
	Status        Optional[string] `json:"status"`
	Missing       Optional[bool]   `json:"missing"`
}

// changes converts the patch into a column→value map for the store.
func (r patchDeviceRequest) changes() (map[string]interface{}, error) {
	out := map[string]interface{}{}

	if err := requiredText(out, "name", "name", r.Name); err != nil {
		return nil, err
	}
	if err := requiredText(out, "device_type", "deviceType", r.DeviceType); err != nil {
		return nil, err
	}
	if err := requiredText(out, "status", "status", r.Status); err != nil {
		return nil, err
	}

	nullable := []struct {
		column string
		value  Optional[string]
	}{
		{"model", r.Model},
		{"unit", r.Unit},
		{"department", r.Department},
		{"location", r.Location},
		{"keeper", r.Keeper},
		{"usage", r.Usage},
		{"factory_number", r.FactoryNumber},
		{"invoice_number", r.InvoiceNumber},
		{"funding_code", r.FundingCode},
		{"funding", r.Funding},
		{"note", r.Note},
	}
	for _, f := range nullable {
		if !f.value.Set {
			continue
		}
		if f.value.Null {
			out[f.column] = nil
			continue
		}
		if v := nullableText(&f.value.Value); v != nil {
			out[f.column] = *v
		} else {
			out[f.column] = nil
		}
	}

	for _, f := range []struct {
		column, field string
		value         Optional[string]
	}{
		{"unit_price", "unitPrice", r.UnitPrice},
		{"total_price", "totalPrice", r.TotalPrice},
	} {
		if !f.value.Set {
			continue
		}
		if f.value.Null {
			out[f.column] = model.DefaultAmount
			continue
		}
		v, err := amount(f.field, f.value.Value)
		if err != nil {
			return nil, err
		}
		out[f.column] = v
	}

	if r.Quantity.Set {
		switch {
		case r.Quantity.Null:
			out["quantity"] = nil
		case r.Quantity.Value < 0:
			return nil, badRequest("quantity must not be negative")
		default:
			out["quantity"] = r.Quantity.Value
		}
	}

	if r.StorageAt.Set {
		if r.StorageAt.Null || strings.TrimSpace(r.StorageAt.Value) == "" {
			out["storage_at"] = nil
		} else {
			d, err := date(r.StorageAt.Value)
			if err != nil {
				return nil, err
			}
			out["storage_at"] = *d
		}
	}

	if r.Missing.Set {
		if r.Missing.Null {
			return nil, badRequest("missing must be true or false")
		}
		out["missing"] = r.Missing.Value
	}

	return out, nil
}

func requiredText(out map[string]interface{}, column, field string, v Optional[string]) error {
	if !v.Set {
		return nil
	}
	s := strings.TrimSpace(v.Value)
	if v.Null || s == "" {
		return badRequest("%s must not be empty", field)
	}
	out[column] = s
	return nil
}

// nullableText trims s and maps blank text to nil.
func nullableText(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

func amount(field, raw string) (string, error) {
	v, err := parse.Amount(raw)
	if err != nil {
		return "", badRequest("%s: %v", field, err)
	}
	return v, nil
}

func date(raw string) (*datatypes.Date, error) {
	t, err := parse.Date(raw)
	if err != nil {
		return nil, badRequest("storageAt: %v", err)
	}
	d := datatypes.Date(t)
	return &d, nil
}
