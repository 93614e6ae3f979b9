package model

import "fmt"

// ExportFileName 为导出文件的固定名称。
const ExportFileName = "linkedin_data_export.json"

// ExportRecord 为导出 JSON 中单个元素的规范投影（字段集合与顺序固定）。
type ExportRecord struct {
	Type             Category `json:"type"`
	IsRepost         bool     `json:"isRepost"`
	URN              string   `json:"urn"`
	URL              string   `json:"url"`
	Text             string   `json:"text"`
	NumShares        int64    `json:"numShares"`
	NumLikes         int64    `json:"numLikes"`
	NumComments      int64    `json:"numComments"`
	Author           string   `json:"author"`
	AuthorProfileID  string   `json:"authorProfileId"`
	AuthorHeadline   string   `json:"authorHeadline"`
	AuthorProfileURL string   `json:"authorProfileUrl"`
	PostedAtISO      string   `json:"postedAtISO"`
	EngagementRate   string   `json:"engagementRate"`
}

// Export 生成规范导出投影；author 取作者显示名，互动率保留两位小数并带 %。
func (r Record) Export() ExportRecord {
	return ExportRecord{
		Type:             r.Type,
		IsRepost:         r.IsRepost,
		URN:              r.URN,
		URL:              r.URL,
		Text:             r.Text,
		NumShares:        r.NumShares,
		NumLikes:         r.NumLikes,
		NumComments:      r.NumComments,
		Author:           r.AuthorName,
		AuthorProfileID:  r.AuthorProfileID,
		AuthorHeadline:   r.AuthorHeadline,
		AuthorProfileURL: r.AuthorProfileURL,
		PostedAtISO:      r.PostedAtISO,
		EngagementRate:   fmt.Sprintf("%.2f%%", r.EngagementRate()),
	}
}

// MonthCount 为某月（"Jan 2006"）的条目数。
type MonthCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// AuthorEngagement 为按作者聚合的互动统计。
type AuthorEngagement struct {
	Name       string `json:"name"`
	ProfileID  string `json:"profileId"`
	Headline   string `json:"headline"`
	Picture    string `json:"picture"`
	Engagement int64  `json:"engagement"`
	Posts      int    `json:"posts"`
}

// Stats 为仪表盘汇总数据。PostsPerMonth 保持遇到顺序，展示前需按时间重排。
type Stats struct {
	TotalEntries         int                `json:"totalEntries"`
	EntryTypes           map[Category]int   `json:"entryTypes"`
	PostsPerMonth        []MonthCount       `json:"postsPerMonth"`
	AvgEngagement        float64            `json:"avgEngagement"`
	TopEngagementAuthors []AuthorEngagement `json:"topEngagementAuthors"`
}
