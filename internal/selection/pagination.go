package selection

const (
	DefaultPage    = 1
	DefaultPerPage = 10
	MaxPerPage     = 200
)

type Meta struct {
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// Paginate slices one page out of items. It never looks at selection state.
func Paginate[T any](items []T, page, perPage int) ([]T, Meta) {
	if page < 1 {
		page = DefaultPage
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	total := len(items)
	totalPages := 0
	if total > 0 {
		totalPages = (total + perPage - 1) / perPage
	}
	meta := Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
	}

	// page is bounded by totalPages before multiplying so huge pages cannot overflow.
	if page > totalPages {
		return []T{}, meta
	}
	offset := (page - 1) * perPage
	end := offset + perPage
	if end > total {
		end = total
	}
	return items[offset:end], meta
}
