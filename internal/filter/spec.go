// 包 filter 实现过滤与排序引擎：
// - Spec：声明式过滤条件（日期/类型/标题/正文/高互动）
// - Sort：排序字段与方向
// - Apply：在完整集合上求出有序子集（纯函数，不修改输入）
package filter

import (
	"fmt"
	"strings"
	"time"
)

// DateMode 为日期过滤模式。
type DateMode string

const (
	DateAll    DateMode = "all"
	DateDay    DateMode = "day"
	DateWeek   DateMode = "week"
	DateMonth  DateMode = "month"
	DateCustom DateMode = "custom"
)

// TypeAll 为类型集合中的"全部"哨兵值。
const TypeAll = "all"

// Spec 为过滤条件。From/To 为零值表示未设置。
type Spec struct {
	Date         DateMode  `json:"date"`
	From         time.Time `json:"dateFrom"`
	To           time.Time `json:"dateTo"`
	Types        []string  `json:"types"`
	Headline     string    `json:"authorHeadline"`
	Text         string    `json:"textSearch"`
	HighComments bool      `json:"highComments"`
	HighLikes    bool      `json:"highLikes"`
}

// DefaultSpec 返回不过滤任何条目的条件。
func DefaultSpec() Spec {
	return Spec{Date: DateAll, Types: []string{TypeAll}}
}

// ParseDateMode 校验日期模式，空串视为 all。
func ParseDateMode(s string) (DateMode, error) {
	switch m := DateMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return DateAll, nil
	case DateAll, DateDay, DateWeek, DateMonth, DateCustom:
		return m, nil
	default:
		return "", fmt.Errorf("unknown date filter %q", s)
	}
}

// ParseTypes 将逗号分隔的类型列表转为小写集合；空串视为 all。
func ParseTypes(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{TypeAll}
	}
	return out
}

// ParseDate 解析日期输入，支持 "2006-01-02" 与 RFC3339；空串返回零值。
// 仅日期的输入按 UTC 零点解释。
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// SortField 为排序字段。
type SortField string

const (
	SortType     SortField = "type"
	SortAuthor   SortField = "author"
	SortHeadline SortField = "headline"
	SortPosted   SortField = "posted"
	SortLikes    SortField = "likes"
	SortComments SortField = "comments"
	SortShares   SortField = "shares"
)

// Direction 为排序方向。
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Sort 为排序条件。
type Sort struct {
	Field     SortField `json:"field"`
	Direction Direction `json:"direction"`
}

// DefaultSort 为按发布时间倒序。
func DefaultSort() Sort { return Sort{Field: SortPosted, Direction: Desc} }

// NewSort 构造排序条件；方向非 asc 时一律按 desc。
func NewSort(field, dir string) Sort {
	d := Desc
	if strings.EqualFold(strings.TrimSpace(dir), string(Asc)) {
		d = Asc
	}
	return Sort{Field: SortField(strings.ToLower(strings.TrimSpace(field))), Direction: d}
}

// Toggle 返回点击同一列标题后的排序：同字段且为 desc 时切换为 asc，否则为 desc。
func (s Sort) Toggle(field SortField) Sort {
	if s.Field == field && s.Direction == Desc {
		return Sort{Field: field, Direction: Asc}
	}
	return Sort{Field: field, Direction: Desc}
}
