package model

import "strings"

// Category 为条目的派生类别。
type Category string

const (
	CategoryPost     Category = "POST"
	CategoryComment  Category = "COMMENT"
	CategoryReaction Category = "REACTION"
	CategoryRepost   Category = "REPOST"
	CategoryUnknown  Category = "UNKNOWN"
)

// Categories 按展示顺序列出全部类别。
var Categories = []Category{CategoryPost, CategoryComment, CategoryReaction, CategoryRepost, CategoryUnknown}

// Lower 返回小写标签，供类型过滤比较。
func (c Category) Lower() string { return strings.ToLower(string(c)) }

// Classify 根据抓取来源 URL 判定条目类别，按优先级命中即返回：
// 无法提取主体标识 → UNKNOWN；转发 → REPOST；作者主页即来源 → POST；
// 主体出现在评论者中 → COMMENT；出现在表态者中 → REACTION；否则 UNKNOWN。
func Classify(r *Record) Category {
	subject := SubjectID(r.InputURL)
	if subject == "" {
		return CategoryUnknown
	}
	if r.IsRepost {
		return CategoryRepost
	}
	if stripQuery(r.AuthorProfileURL) == stripQuery(r.InputURL) {
		return CategoryPost
	}
	for _, c := range r.Comments {
		if c.CommentorPublicID == subject {
			return CategoryComment
		}
	}
	for _, x := range r.Reactions {
		if x.ReactorPublicID == subject {
			return CategoryReaction
		}
	}
	return CategoryUnknown
}

// SubjectID 提取来源 URL 中 "in/" 之后的主页标识，截断到路径段结尾与查询串之前。
// 例如 https://www.linkedin.com/in/abc?x=1 → abc。
func SubjectID(inputURL string) string {
	i := strings.Index(inputURL, "in/")
	if i < 0 {
		return ""
	}
	s := inputURL[i+len("in/"):]
	if j := strings.IndexAny(s, "/?#"); j >= 0 {
		s = s[:j]
	}
	return s
}

func stripQuery(u string) string {
	if i := strings.IndexByte(u, '?'); i >= 0 {
		return u[:i]
	}
	return u
}
