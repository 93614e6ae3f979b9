package filter

import (
	"sort"
	"strings"
	"time"

	"linkedin-analytics/internal/model"
)

// Apply 以当前时间为基准过滤并排序，见 ApplyAt。
func Apply(all []model.Record, spec Spec, s Sort) []model.Record {
	return ApplyAt(all, spec, s, time.Now())
}

// ApplyAt 依次应用日期、类型、标题、正文、高评论、高点赞条件（逻辑与），再稳定排序。
// 高互动阈值基于未过滤的完整集合计算，而非中间结果。返回新切片，不修改 all。
func ApplyAt(all []model.Record, spec Spec, s Sort, now time.Time) []model.Record {
	keepDate := dateFilter(spec, now)
	keepType := typeFilter(spec.Types)
	headline := strings.ToLower(spec.Headline)
	text := strings.ToLower(spec.Text)

	var commentsMin, likesMin int64
	if spec.HighComments {
		commentsMin = Threshold(all, func(r model.Record) int64 { return r.NumComments })
	}
	if spec.HighLikes {
		likesMin = Threshold(all, func(r model.Record) int64 { return r.NumLikes })
	}

	out := make([]model.Record, 0, len(all))
	for _, r := range all {
		if !keepDate(r) || !keepType(r) {
			continue
		}
		if !containsFold(r.AuthorHeadline, headline) || !containsFold(r.Text, text) {
			continue
		}
		if spec.HighComments && r.NumComments < commentsMin {
			continue
		}
		if spec.HighLikes && r.NumLikes < likesMin {
			continue
		}
		out = append(out, r)
	}
	SortRecords(out, s)
	return out
}

// dateFilter 返回日期谓词。day/week/month 以 now 回推截止时间；
// custom 取 [From, To] 闭区间（To 缺省为 now），未设置 From 时不过滤。
// 有界模式下缺少发布时间的条目一律排除。
func dateFilter(spec Spec, now time.Time) func(model.Record) bool {
	var from, to time.Time
	switch spec.Date {
	case DateDay:
		from = now.AddDate(0, 0, -1)
	case DateWeek:
		from = now.AddDate(0, 0, -7)
	case DateMonth:
		from = now.AddDate(0, -1, 0)
	case DateCustom:
		if spec.From.IsZero() {
			return func(model.Record) bool { return true }
		}
		from = spec.From
		to = spec.To
		if to.IsZero() {
			to = now
		}
		return func(r model.Record) bool {
			return r.HasPostedAt() && !r.PostedAt.Before(from) && !r.PostedAt.After(to)
		}
	default:
		return func(model.Record) bool { return true }
	}
	return func(r model.Record) bool {
		return r.HasPostedAt() && !r.PostedAt.Before(from)
	}
}

// typeFilter 返回类型谓词。集合含 all 时全部通过；
// 含 repost 时，带转发标记的条目无论类别均可通过（与类别匹配为"或"关系）。
func typeFilter(types []string) func(model.Record) bool {
	set := make(map[string]bool, len(types))
	for _, t := range types {
		set[strings.ToLower(strings.TrimSpace(t))] = true
	}
	if set[TypeAll] {
		return func(model.Record) bool { return true }
	}
	wantRepost := set[model.CategoryRepost.Lower()]
	return func(r model.Record) bool {
		if set[r.Type.Lower()] {
			return true
		}
		return wantRepost && r.IsRepost
	}
}

// containsFold 判断 field 是否包含已小写化的 needle；needle 为空时恒为真。
func containsFold(field, needle string) bool {
	if needle == "" {
		return true
	}
	if field == "" {
		return false
	}
	return strings.Contains(strings.ToLower(field), needle)
}

// Threshold 计算"前 25%"阈值：将计数降序排列后取下标 floor(n*0.25) 的值。
// 集合为空或阈值为 0 时取 1。
func Threshold(all []model.Record, value func(model.Record) int64) int64 {
	if len(all) == 0 {
		return 1
	}
	vals := make([]int64, len(all))
	for i, r := range all {
		vals[i] = value(r)
	}
	sort.Slice(vals, func(i, j int) bool { return vals[i] > vals[j] })
	t := vals[int(float64(len(vals))*0.25)]
	if t == 0 {
		return 1
	}
	return t
}

// SortRecords 按字段稳定排序（原地）。字符串字段忽略大小写；未知字段回退为发布时间倒序。
func SortRecords(rs []model.Record, s Sort) {
	cmp, ok := comparators[s.Field]
	dir := s.Direction
	if !ok {
		cmp = comparators[SortPosted]
		dir = Desc
	}
	sort.SliceStable(rs, func(i, j int) bool {
		if dir == Asc {
			return cmp(rs[i], rs[j]) < 0
		}
		return cmp(rs[i], rs[j]) > 0
	})
}

var comparators = map[SortField]func(a, b model.Record) int{
	SortType:     byString(func(r model.Record) string { return string(r.Type) }),
	SortAuthor:   byString(func(r model.Record) string { return r.AuthorName }),
	SortHeadline: byString(func(r model.Record) string { return r.AuthorHeadline }),
	SortPosted:   byInt(func(r model.Record) int64 { return r.PostedAtTimestamp }),
	SortLikes:    byInt(func(r model.Record) int64 { return r.NumLikes }),
	SortComments: byInt(func(r model.Record) int64 { return r.NumComments }),
	SortShares:   byInt(func(r model.Record) int64 { return r.NumShares }),
}

func byString(key func(model.Record) string) func(a, b model.Record) int {
	return func(a, b model.Record) int {
		return strings.Compare(strings.ToLower(key(a)), strings.ToLower(key(b)))
	}
}

func byInt(key func(model.Record) int64) func(a, b model.Record) int {
	return func(a, b model.Record) int {
		x, y := key(a), key(b)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}
}
