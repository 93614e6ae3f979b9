package model

import (
	"encoding/json"
	"strings"
)

// Comment 为条目下的一条评论，仅保留分类与展示所需字段。
type Comment struct {
	CommentorPublicID string `json:"commentorPublicId"`
	CommentorName     string `json:"commentorName,omitempty"`
	Text              string `json:"text,omitempty"`
}

// Reaction 为条目上的一次点赞/表态。
type Reaction struct {
	ReactorPublicID string `json:"reactorPublicId"`
	ReactorName     string `json:"reactorName,omitempty"`
	ReactionType    string `json:"reactionType,omitempty"`
}

// Attribute 为正文中的结构化标注（提及、话题等），字段不固定。
type Attribute map[string]any

// parseObjects 两阶段解析列表字段：
// 1) 已是结构化数据则直接转换；文本先按严格 JSON 解析
// 2) 失败后将单引号替换为双引号重试（上游序列化的常见产物）
// 3) 仍失败则返回空列表，不中断整条记录的构造
//
// 注意：第二阶段会改写正文中的合法撇号，属已知的有损情形。
func parseObjects(v any) []Row {
	var raw []byte
	switch t := v.(type) {
	case nil:
		return []Row{}
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return []Row{}
		}
		if out, ok := decodeObjects([]byte(s)); ok {
			return out
		}
		if out, ok := decodeObjects([]byte(strings.ReplaceAll(s, "'", `"`))); ok {
			return out
		}
		return []Row{}
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return []Row{}
		}
		raw = b
	}
	if out, ok := decodeObjects(raw); ok {
		return out
	}
	return []Row{}
}

func decodeObjects(b []byte) ([]Row, bool) {
	var out []Row
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, false
	}
	if out == nil {
		out = []Row{}
	}
	return out, true
}

func parseComments(v any) []Comment {
	objs := parseObjects(v)
	out := make([]Comment, 0, len(objs))
	for _, o := range objs {
		out = append(out, Comment{
			CommentorPublicID: o.String("commentorPublicId"),
			CommentorName:     o.String("commentorName"),
			Text:              o.String("text"),
		})
	}
	return out
}

func parseReactions(v any) []Reaction {
	objs := parseObjects(v)
	out := make([]Reaction, 0, len(objs))
	for _, o := range objs {
		out = append(out, Reaction{
			ReactorPublicID: o.String("reactorPublicId"),
			ReactorName:     o.String("reactorName"),
			ReactionType:    o.String("reactionType"),
		})
	}
	return out
}

func parseAttributes(v any) []Attribute {
	objs := parseObjects(v)
	out := make([]Attribute, 0, len(objs))
	for _, o := range objs {
		out = append(out, Attribute(o))
	}
	return out
}
