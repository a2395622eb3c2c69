package persistence

import (
	"strings"

	"gorm.io/gorm"

	"github.com/crm/backend/internal/domain/shared"
)

// applyPagination applies page/page-size limits to a query
func applyPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return query
}

// applyOrdering applies ordering to a query. The order-by column must appear
// in the allowed set; anything else falls back to created_at DESC. This keeps
// caller-supplied sort fields out of the SQL text.
func applyOrdering(query *gorm.DB, filter shared.Filter, allowed map[string]bool) *gorm.DB {
	if filter.OrderBy != "" && allowed[filter.OrderBy] {
		dir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			dir = "DESC"
		}
		return query.Order(filter.OrderBy + " " + dir)
	}
	return query.Order("created_at DESC")
}
