package models

// Pagination contains pagination metadata returned in list responses. The
// field names are part of the public API contract.
type Pagination struct {
	CurrentPage     int  `json:"currentPage"`
	TotalPages      int  `json:"totalPages"`
	TotalItems      int  `json:"totalItems"`
	ItemsPerPage    int  `json:"itemsPerPage"`
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
	StartIndex      int  `json:"startIndex"`
	EndIndex        int  `json:"endIndex"`
}

// NewPagination derives the full pagination block from page, page size and
// total item count. Indexes are 1-based; an empty result yields zero indexes.
func NewPagination(page, pageSize, totalItems int) *Pagination {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	totalPages := 0
	if totalItems > 0 {
		totalPages = (totalItems + pageSize - 1) / pageSize
	}

	startIndex := 0
	endIndex := 0
	if totalItems > 0 && page <= totalPages {
		startIndex = (page-1)*pageSize + 1
		endIndex = page * pageSize
		if endIndex > totalItems {
			endIndex = totalItems
		}
	}

	return &Pagination{
		CurrentPage:     page,
		TotalPages:      totalPages,
		TotalItems:      totalItems,
		ItemsPerPage:    pageSize,
		HasNextPage:     page < totalPages,
		HasPreviousPage: page > 1 && totalItems > 0,
		StartIndex:      startIndex,
		EndIndex:        endIndex,
	}
}
