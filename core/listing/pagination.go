package listing

// Pagination is the page state of a list. PageIndex is 0-based.
// TotalCount is only authoritative after the latest fetch was applied.
type Pagination struct {
	PageIndex  int `json:"page_index"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// PageCount returns ceil(TotalCount / PageSize).
func (p Pagination) PageCount() int {
	if p.PageSize <= 0 {
		return 0
	}
	return (p.TotalCount + p.PageSize - 1) / p.PageSize
}

func (p Pagination) HasPrev() bool { return p.PageIndex > 0 }
func (p Pagination) HasNext() bool { return p.PageIndex+1 < p.PageCount() }

// InRange reports whether PageIndex*PageSize <= TotalCount+PageSize.
func (p Pagination) InRange() bool {
	return p.PageIndex*p.PageSize <= p.TotalCount+p.PageSize
}
