package dashboard

import "linkedin-analytics/internal/model"

const (
	// RowsPerPage 为表格视图每页条数。
	RowsPerPage = 10
	// CardsPerPage 为卡片视图每页条数。
	CardsPerPage = 6
	// MaxPerPage 限制单页条数上限。
	MaxPerPage = 100
	// pageWindow 为页码导航中连续显示的页码个数。
	pageWindow = 5
)

// Pagination 为分页元数据。
type Pagination struct {
	Total       int   `json:"total"`
	Count       int   `json:"count"`
	PerPage     int   `json:"per_page"`
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	HasNext     bool  `json:"has_next"`
	HasPrev     bool  `json:"has_prev"`
	Pages       []int `json:"pages"` // 页码导航窗口
}

// Page 取视图的第 page 页（从 1 开始）。page 越界时回到第 1 页；perPage 非法时取 RowsPerPage。
func Page(view []model.Record, page, perPage int) ([]model.Record, Pagination) {
	if perPage < 1 {
		perPage = RowsPerPage
	} else if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	total := len(view)
	totalPages := (total + perPage - 1) / perPage
	if page < 1 || page > totalPages {
		page = 1
	}
	start := (page - 1) * perPage
	end := start + perPage
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	items := view[start:end]
	return items, Pagination{
		Total:       total,
		Count:       len(items),
		PerPage:     perPage,
		CurrentPage: page,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrev:     page > 1,
		Pages:       window(page, totalPages),
	}
}

// window 返回以当前页为中心、最多 pageWindow 个的连续页码；不足一页时为空。
func window(current, totalPages int) []int {
	if totalPages <= 1 {
		return []int{}
	}
	start := max(1, current-pageWindow/2)
	end := min(totalPages, start+pageWindow-1)
	if end-start < pageWindow-1 {
		start = max(1, end-pageWindow+1)
	}
	out := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		out = append(out, i)
	}
	return out
}
