package repository

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 200
)

// Page is a normalized 1-based page request
type Page struct {
	Number int
	Size   int
}

// NewPage clamps page and pageSize into valid ranges
func NewPage(page, pageSize int) Page {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return Page{Number: page, Size: pageSize}
}

// Offset returns the row offset of the page
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// TotalPages returns the number of pages needed for total rows
func (p Page) TotalPages(total int64) int {
	if total == 0 {
		return 0
	}
	return int((total + int64(p.Size) - 1) / int64(p.Size))
}

func (p Page) apply(db *gorm.DB) *gorm.DB {
	return db.Offset(p.Offset()).Limit(p.Size)
}

// forUpdate adds a row lock; dialects without FOR UPDATE (sqlite) ignore it
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// likePattern builds a case-insensitive substring pattern for LOWER(col) LIKE ?
func likePattern(q string) string {
	q = strings.ToLower(strings.TrimSpace(q))
	q = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(q)
	return "%" + q + "%"
}
