// 包 stats 计算仪表盘汇总：总数、类别分布、月度发布量、平均互动与互动最高的作者。
package stats

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"linkedin-analytics/internal/dataset"
	"linkedin-analytics/internal/model"
)

// TopAuthors 为互动排行榜的长度。
const TopAuthors = 5

// Summarize 对快照求汇总；未加载时返回 (nil, false)。
func Summarize(s *dataset.Snapshot) (*model.Stats, bool) {
	if s == nil || !s.Loaded {
		return nil, false
	}
	return Compute(s.Records, time.Local), true
}

// Compute 对条目集合求汇总，月份标签按 loc 时区计算。
func Compute(records []model.Record, loc *time.Location) *model.Stats {
	st := &model.Stats{
		TotalEntries:         len(records),
		EntryTypes:           map[model.Category]int{},
		PostsPerMonth:        []model.MonthCount{},
		TopEngagementAuthors: []model.AuthorEngagement{},
	}
	monthIdx := map[string]int{}
	authorIdx := map[string]int{}
	var total int64
	for _, r := range records {
		if r.Type != "" {
			st.EntryTypes[r.Type]++
		}
		if r.HasPostedAt() {
			label := r.PostedAt.In(loc).Format("Jan 2006")
			if i, ok := monthIdx[label]; ok {
				st.PostsPerMonth[i].Count++
			} else {
				monthIdx[label] = len(st.PostsPerMonth)
				st.PostsPerMonth = append(st.PostsPerMonth, model.MonthCount{Label: label, Count: 1})
			}
		}
		e := r.TotalEngagement()
		total += e
		i, ok := authorIdx[r.AuthorProfileID]
		if !ok {
			i = len(st.TopEngagementAuthors)
			authorIdx[r.AuthorProfileID] = i
			st.TopEngagementAuthors = append(st.TopEngagementAuthors, model.AuthorEngagement{
				Name:      r.AuthorName,
				ProfileID: r.AuthorProfileID,
				Headline:  r.AuthorHeadline,
				Picture:   r.AuthorProfilePicture,
			})
		}
		st.TopEngagementAuthors[i].Engagement += e
		st.TopEngagementAuthors[i].Posts++
	}
	if len(records) > 0 {
		st.AvgEngagement = float64(total) / float64(len(records))
	}
	// 稳定排序：互动相同的作者保持首次出现顺序
	sort.SliceStable(st.TopEngagementAuthors, func(i, j int) bool {
		return st.TopEngagementAuthors[i].Engagement > st.TopEngagementAuthors[j].Engagement
	})
	if len(st.TopEngagementAuthors) > TopAuthors {
		st.TopEngagementAuthors = st.TopEngagementAuthors[:TopAuthors]
	}
	return st
}

var monthOrder = map[string]int{
	"Jan": 0, "Feb": 1, "Mar": 2, "Apr": 3, "May": 4, "Jun": 5,
	"Jul": 6, "Aug": 7, "Sep": 8, "Oct": 9, "Nov": 10, "Dec": 11,
}

// Chronological 返回按年、月升序重排后的月度序列（不修改输入）。
// 展示月度图表前必须调用。
func Chronological(months []model.MonthCount) []model.MonthCount {
	out := make([]model.MonthCount, len(months))
	copy(out, months)
	sort.SliceStable(out, func(i, j int) bool {
		yi, mi := monthKey(out[i].Label)
		yj, mj := monthKey(out[j].Label)
		if yi != yj {
			return yi < yj
		}
		return mi < mj
	})
	return out
}

func monthKey(label string) (year, month int) {
	mon, yr, _ := strings.Cut(label, " ")
	year, _ = strconv.Atoi(yr)
	return year, monthOrder[mon]
}
