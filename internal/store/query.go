package store

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"equipment-ledger-backend/internal/parse"
)

// searchColumns are the text columns matched by free-text search.
var searchColumns = []string{"name", "model", "location", "keeper", "department", "code"}

// deviceFilter restricts a devices query to the rows matching q. The same
// scope feeds both the count and the page query so that the total always
// reflects the filters in use.
func deviceFilter(q DeviceQuery) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if q.Code != "" {
			db = db.Where("code = ?", q.Code)
		}
		if q.Status != "" {
			db = db.Where("status = ?", q.Status)
		}
		if q.Missing != nil {
			db = db.Where("missing = ?", *q.Missing)
		}
		if q.Location != "" {
			db = db.Where("location = ?", q.Location)
		}
		// An exact code match takes priority over the free-text search.
		if q.Search != "" && q.Code == "" {
			db = db.Where(substringAny(q.Search, searchColumns...))
		}
		return db
	}
}

// deviceOrder sorts by the requested column and breaks ties on id in the same
// direction, which keeps offset pagination deterministic.
func deviceOrder(s SortSpec) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(clause.OrderBy{Columns: []clause.OrderByColumn{
			{Column: clause.Column{Name: s.column()}, Desc: s.Desc},
			{Column: clause.Column{Name: "id"}, Desc: s.Desc},
		}})
	}
}

// locationFilter keeps rows with a non-empty location, optionally matching
// search as a substring of the location.
func locationFilter(q LocationQuery) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("location IS NOT NULL AND location <> ''")
		if q.Search != "" {
			db = db.Where(substringAny(q.Search, "location"))
		}
		return db
	}
}

// substringAny builds "(LOWER(a) LIKE ? OR LOWER(b) LIKE ? ...)" for a
// case-insensitive substring match of text against any of the columns.
func substringAny(text string, columns ...string) clause.Expr {
	pattern := "%" + parse.EscapeLike(strings.ToLower(text)) + "%"
	parts := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	for i, col := range columns {
		parts[i] = "LOWER(" + col + ") LIKE ? ESCAPE '!'"
		args[i] = pattern
	}
	return gorm.Expr("("+strings.Join(parts, " OR ")+")", args...)
}
