// internal/utils/pagination.go
package utils

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type PaginationParams struct {
	Page     int    `json:"page"`
	Limit    int    `json:"limit"`
	Sort     string `json:"sort"`
	Order    string `json:"order"`
	Search   string `json:"search"`
	Category string `json:"category"`
}

type PaginationResult struct {
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	Total      int64       `json:"total"`
	TotalPages int         `json:"total_pages"`
	Data       interface{} `json:"data"`
}

func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

func GetPaginationParams(c *gin.Context) PaginationParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxPageSize {
		limit = defaultPageSize
	}

	order := c.DefaultQuery("order", "desc")
	if order != "asc" && order != "desc" {
		order = "desc"
	}

	return PaginationParams{
		Page:     page,
		Limit:    limit,
		Sort:     c.DefaultQuery("sort", "created_at"),
		Order:    order,
		Search:   c.Query("search"),
		Category: c.Query("category"),
	}
}

func ApplyPagination(db *gorm.DB, params PaginationParams) *gorm.DB {
	return db.Offset(params.Offset()).Limit(params.Limit)
}

// ApplySort orders by the requested column only when it is in the caller's
// allow list; everything else falls back to created_at.
func ApplySort(db *gorm.DB, params PaginationParams, allowedSortFields []string) *gorm.DB {
	sortField := "created_at"
	for _, field := range allowedSortFields {
		if field == params.Sort {
			sortField = params.Sort
			break
		}
	}

	return db.Order(sortField + " " + params.Order)
}

func CreatePaginationResult(data interface{}, total int64, params PaginationParams) PaginationResult {
	return PaginationResult{
		Page:       params.Page,
		Limit:      params.Limit,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(params.Limit))),
		Data:       data,
	}
}

func SetPaginationHeaders(c *gin.Context, result PaginationResult) {
	c.Header("X-Total-Count", strconv.FormatInt(result.Total, 10))
	c.Header("X-Page", strconv.Itoa(result.Page))
	c.Header("X-Per-Page", strconv.Itoa(result.Limit))
	c.Header("X-Total-Pages", strconv.Itoa(result.TotalPages))
}
