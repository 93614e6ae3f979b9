package model

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Record 为一行 CSV 归一化后的动态条目。
// 只能通过 NewRecord 构造；构造完成后视为只读，Type 不会再变化。
type Record struct {
	// 标识
	InputURL  string
	IsRepost  bool
	URN       string
	URL       string
	ShareURN  string
	RootShare bool

	// 内容
	Text       string
	Attributes []Attribute
	Comments   []Comment
	Reactions  []Reaction

	// 互动计数（非负）
	NumShares   int64
	NumLikes    int64
	NumComments int64

	// 能力开关
	CanReact               bool
	CanPostComments        bool
	CanShare               bool
	CommentingDisabled     bool
	AllowedCommentersScope string
	ShareAudience          string

	// 作者
	Author               string
	AuthorProfileID      string
	AuthorProfilePicture string
	AuthorType           string
	AuthorHeadline       string
	AuthorName           string
	AuthorProfileURL     string
	AuthorURN            string
	AuthorFollowersCount string

	// 时间：PostedAt 为零值表示 ISO 字符串缺失或无效
	TimeSincePosted   string
	PostedAtTimestamp int64
	PostedAtISO       string
	PostedAt          time.Time

	// 附加媒体（原样保留）
	Images        string
	ResharedPost  string
	LinkedinVideo string
	Document      string

	Type Category
}

// NewRecord 在唯一的边界上完成字段归一化与分类。
func NewRecord(row Row) Record {
	r := Record{
		InputURL:  row.String("inputUrl"),
		IsRepost:  row.Bool("isRepost"),
		URN:       row.String("urn"),
		URL:       row.String("url"),
		ShareURN:  row.String("shareUrn"),
		RootShare: row.Bool("rootShare"),

		Text:       row.String("text"),
		Attributes: parseAttributes(row["attributes"]),
		Comments:   parseComments(row["comments"]),
		Reactions:  parseReactions(row["reactions"]),

		NumShares:   row.Int("numShares"),
		NumLikes:    row.Int("numLikes"),
		NumComments: row.Int("numComments"),

		CanReact:               row.Bool("canReact"),
		CanPostComments:        row.Bool("canPostComments"),
		CanShare:               row.Bool("canShare"),
		CommentingDisabled:     row.Bool("commentingDisabled"),
		AllowedCommentersScope: row.String("allowedCommentersScope"),
		ShareAudience:          row.String("shareAudience"),

		Author:               row.String("author"),
		AuthorProfileID:      row.String("authorProfileId"),
		AuthorProfilePicture: row.String("authorProfilePicture"),
		AuthorType:           row.String("authorType"),
		AuthorHeadline:       row.String("authorHeadline"),
		AuthorName:           row.String("authorName"),
		AuthorProfileURL:     row.String("authorProfileUrl"),
		AuthorURN:            row.String("authorUrn"),
		AuthorFollowersCount: row.String("authorFollowersCount"),

		TimeSincePosted:   row.String("timeSincePosted"),
		PostedAtTimestamp: row.Int("postedAtTimestamp"),
		PostedAtISO:       row.String("postedAtISO"),

		Images:        row.String("images"),
		ResharedPost:  row.String("resharedPost"),
		LinkedinVideo: row.String("linkedinVideo"),
		Document:      row.String("document"),
	}
	r.PostedAt = parseISO(r.PostedAtISO)
	r.Type = Classify(&r)
	return r
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseISO(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// HasPostedAt 报告是否有有效的发布时间。
func (r Record) HasPostedAt() bool { return !r.PostedAt.IsZero() }

// TotalEngagement 为点赞+评论+分享之和。
func (r Record) TotalEngagement() int64 { return r.NumLikes + r.NumComments + r.NumShares }

// Summary 返回简短描述，如 "POST by Jane Doe (Repost)"。
func (r Record) Summary() string {
	s := fmt.Sprintf("%s by %s", r.Type, r.AuthorName)
	if r.IsRepost {
		s += " (Repost)"
	}
	return s
}

// FormattedDate 返回 "Jan 2, 2006" 形式的日期；无有效时间时回退到 timeSincePosted。
func (r Record) FormattedDate() string {
	if !r.HasPostedAt() {
		if r.TimeSincePosted != "" {
			return r.TimeSincePosted
		}
		return "Unknown"
	}
	return r.PostedAt.Local().Format("Jan 2, 2006")
}

// ContentPreview 按字符数截断正文，截断时追加 "..."。
func (r Record) ContentPreview(maxLen int) string {
	if r.Text == "" {
		return "No content"
	}
	if maxLen < 0 {
		maxLen = 0
	}
	if utf8.RuneCountInString(r.Text) <= maxLen {
		return r.Text
	}
	runes := []rune(r.Text)
	return string(runes[:maxLen]) + "..."
}

// EngagementRate 返回互动率百分比：总互动 / 粉丝数 * 100。
// 粉丝数先去掉千分位逗号；无法解析或为 0 时按 1 计，避免除零。
func (r Record) EngagementRate() float64 {
	followers := leadingInt(strings.ReplaceAll(r.AuthorFollowersCount, ",", ""))
	if followers <= 0 {
		followers = 1
	}
	return float64(r.TotalEngagement()) / float64(followers) * 100
}
