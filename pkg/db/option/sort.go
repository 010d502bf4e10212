package option

import (
	"strings"

	"gorm.io/gorm"
)

// QueryOption mutates a gorm statement.
type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type SortBy struct {
	Column string
	Desc   bool
}

// WithQuerySortBy validates a user-supplied sort column against allowed.
// Unknown columns fall back to id ascending.
func WithQuerySortBy(sortBy, orderBy string, allowed map[string]bool) SortBy {
	column := strings.ToLower(strings.TrimSpace(sortBy))
	if !allowed[column] {
		return SortBy{Column: "id"}
	}
	return SortBy{
		Column: column,
		Desc:   strings.EqualFold(strings.TrimSpace(orderBy), "desc"),
	}
}

type sortOption struct {
	sort SortBy
}

func WithSortBy(sort SortBy) QueryOption {
	return sortOption{sort: sort}
}

// Apply orders by the column with id as a stable tiebreaker.
func (o sortOption) Apply(db *gorm.DB) *gorm.DB {
	direction := "ASC"
	if o.sort.Desc {
		direction = "DESC"
	}
	db = db.Order(o.sort.Column + " " + direction)
	if o.sort.Column != "id" {
		db = db.Order("id ASC")
	}
	return db
}
