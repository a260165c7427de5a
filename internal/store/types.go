package store

import (
	"net/url"
	"strconv"
	"strings"

	"equipment-ledger-backend/internal/model"
)

// Page bounds of the device list and of the location enumeration.
const (
	DefaultLimit         = 20
	MaxLimit             = 100
	DefaultLocationLimit = 30
	MaxLocationLimit     = 200
)

// SortField names a sortable device attribute as exposed to clients.
type SortField string

const (
	SortUpdatedAt SortField = "updatedAt"
	SortName      SortField = "name"
	SortStatus    SortField = "status"
	SortMissing   SortField = "missing"
)

var sortColumns = map[SortField]string{
	SortUpdatedAt: "updated_at",
	SortName:      "name",
	SortStatus:    "status",
	SortMissing:   "missing",
}

// SortSpec is a resolved sort key and direction.
type SortSpec struct {
	Field SortField
	Desc  bool
}

// DefaultSort orders the most recently modified devices first.
var DefaultSort = SortSpec{Field: SortUpdatedAt, Desc: true}

// ParseSort reads "field", "field:dir" or "field,dir". Unknown fields fall
// back to updatedAt; the direction is descending unless it reads "asc".
func ParseSort(raw string) SortSpec {
	field, dir, _ := strings.Cut(strings.TrimSpace(raw), ":")
	if f, d, ok := strings.Cut(field, ","); ok {
		field, dir = f, d
	}
	spec := SortSpec{Field: SortField(strings.TrimSpace(field)), Desc: true}
	if _, ok := sortColumns[spec.Field]; !ok {
		spec.Field = SortUpdatedAt
	}
	if strings.EqualFold(strings.TrimSpace(dir), "asc") {
		spec.Desc = false
	}
	return spec
}

func (s SortSpec) column() string {
	if col, ok := sortColumns[s.Field]; ok {
		return col
	}
	return sortColumns[SortUpdatedAt]
}

// DeviceQuery is the full set of list filters. Zero values mean "not set".
type DeviceQuery struct {
	// Search is a case-insensitive substring matched against name, model,
	// location, keeper, department and code. Ignored when Code is set.
	Search   string
	Code     string
	Status   string
	Missing  *bool
	Location string
	Sort     SortSpec
	Offset   int
	Limit    int
}

// Normalize applies defaults and clamps the page bounds.
func (q DeviceQuery) Normalize() DeviceQuery {
	q.Search = strings.TrimSpace(q.Search)
	q.Code = strings.TrimSpace(q.Code)
	if q.Sort.Field == "" {
		q.Sort = DefaultSort
	}
	if _, ok := sortColumns[q.Sort.Field]; !ok {
		q.Sort.Field = SortUpdatedAt
	}
	q.Offset, q.Limit = clampPage(q.Offset, q.Limit, DefaultLimit, MaxLimit)
	return q
}

// LocationQuery filters the distinct location enumeration.
type LocationQuery struct {
	Search string
	Offset int
	Limit  int
}

// Normalize applies defaults and clamps the page bounds.
func (q LocationQuery) Normalize() LocationQuery {
	q.Search = strings.TrimSpace(q.Search)
	q.Offset, q.Limit = clampPage(q.Offset, q.Limit, DefaultLocationLimit, MaxLocationLimit)
	return q
}

// DevicePage is one page of devices plus the count of all matching rows.
type DevicePage struct {
	Items []model.Device
	Total int64
}

// LocationPage is one page of distinct locations.
type LocationPage struct {
	Items   []string
	Total   int64
	HasNull bool
}

// ParseDeviceQuery builds a DeviceQuery from URL query values. Malformed
// numbers fall back to defaults instead of failing; unknown keys are ignored.
func ParseDeviceQuery(v url.Values) DeviceQuery {
	q := DeviceQuery{
		Search:   v.Get("search"),
		Code:     v.Get("code"),
		Status:   strings.TrimSpace(v.Get("status")),
		Missing:  parseTriState(v.Get("missing")),
		Location: strings.TrimSpace(v.Get("location")),
		Sort:     ParseSort(v.Get("sort")),
		Offset:   parseInt(v.Get("offset"), 0),
		Limit:    parseInt(v.Get("limit"), DefaultLimit),
	}
	if q.Search == "" {
		q.Search = v.Get("q")
	}
	if dir := v.Get("order"); dir != "" && !strings.Contains(v.Get("sort"), ":") {
		q.Sort.Desc = !strings.EqualFold(strings.TrimSpace(dir), "asc")
	}
	return q.Normalize()
}

// ParseLocationQuery builds a LocationQuery from URL query values.
func ParseLocationQuery(v url.Values) LocationQuery {
	q := LocationQuery{
		Search: v.Get("search"),
		Offset: parseInt(v.Get("offset"), 0),
		Limit:  parseInt(v.Get("limit"), DefaultLocationLimit),
	}
	return q.Normalize()
}

func clampPage(offset, limit, def, maxLimit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = def
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return offset, limit
}

func parseInt(raw string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return def
	}
	return n
}

func parseTriState(raw string) *bool {
	var b bool
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1":
		b = true
	case "false", "0":
		b = false
	default:
		return nil
	}
	return &b
}
