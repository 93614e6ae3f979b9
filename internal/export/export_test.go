package export_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"linkedin-analytics/internal/export"
	"linkedin-analytics/internal/filter"
	"linkedin-analytics/internal/model"
)

func sampleView() []model.Record {
	rows := []model.Row{
		{"inputUrl": "https://www.linkedin.com/in/jane", "authorProfileUrl": "https://www.linkedin.com/in/jane",
			"urn": "urn:1", "text": "a < b & c", "numLikes": 12.0, "numComments": "3", "numShares": "1",
			"authorName": "Jane", "authorFollowersCount": "1,600", "postedAtISO": "2024-03-01T10:00:00Z"},
		{"inputUrl": "https://www.linkedin.com/in/jane", "isRepost": "True", "urn": "urn:2",
			"numLikes": "2", "authorName": "Bob", "authorFollowersCount": "x"},
	}
	var out []model.Record
	for _, r := range rows {
		out = append(out, model.NewRecord(r))
	}
	return out
}

func TestWrite_RoundTrip(t *testing.T) {
	view := filter.Apply(sampleView(), filter.DefaultSpec(), filter.NewSort("likes", "desc"))
	var buf bytes.Buffer
	if err := export.Write(&buf, view); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.Contains(buf.String(), "\n  {\n    \"type\": \"POST\"") {
		t.Fatalf("expect 2-space indentation, got:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "a < b & c") {
		t.Fatalf("html characters must not be escaped")
	}
	var back []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(back) != len(view) {
		t.Fatalf("len=%d want=%d", len(back), len(view))
	}
	for i, r := range view {
		got := back[i]
		if got["type"] != string(r.Type) || got["urn"] != r.URN || got["isRepost"] != r.IsRepost {
			t.Fatalf("identity mismatch at %d: %v", i, got)
		}
		if int64(got["numLikes"].(float64)) != r.NumLikes || int64(got["numComments"].(float64)) != r.NumComments {
			t.Fatalf("counter mismatch at %d: %v", i, got)
		}
		rate := strings.TrimSuffix(got["engagementRate"].(string), "%")
		v, err := strconv.ParseFloat(rate, 64)
		if err != nil {
			t.Fatalf("rate %q: %v", rate, err)
		}
		if strconv.FormatFloat(v, 'f', 2, 64) != strconv.FormatFloat(r.EngagementRate(), 'f', 2, 64) {
			t.Fatalf("rate mismatch: %v vs %v", v, r.EngagementRate())
		}
	}
	if back[0]["engagementRate"] != "1.00%" {
		t.Fatalf("rate=%v want 1.00%%", back[0]["engagementRate"])
	}
}

func TestWrite_EmptyViewIsArray(t *testing.T) {
	var buf bytes.Buffer
	if err := export.Write(&buf, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Fatalf("got %q", buf.String())
	}
}

func TestToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), model.ExportFileName)
	if err := export.ToFile(path, sampleView()); err != nil {
		t.Fatalf("to file: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var back []model.ExportRecord
	if err := json.Unmarshal(b, &back); err != nil || len(back) != 2 {
		t.Fatalf("decode: %v len=%d", err, len(back))
	}
	if err := export.ToFile(filepath.Join(t.TempDir(), "missing", "x.json"), nil); err == nil {
		t.Fatalf("expect error for missing directory")
	}
}
