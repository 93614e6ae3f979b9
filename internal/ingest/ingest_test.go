package ingest_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"testing/iotest"

	"linkedin-analytics/internal/dataset"
	"linkedin-analytics/internal/fetch"
	"linkedin-analytics/internal/ingest"
	"linkedin-analytics/internal/model"
	"linkedin-analytics/internal/rules"
	"linkedin-analytics/internal/store"
)

const header = "inputUrl,isRepost,urn,text,numLikes,numComments,numShares,authorName,authorProfileUrl,postedAtISO,comments\n"

const sample = header +
	`https://www.linkedin.com/in/jane,False,urn:1,Hello world,10,2,1,Jane,https://www.linkedin.com/in/jane,2024-03-01T10:00:00Z,[]` + "\n" +
	`https://www.linkedin.com/in/jane,True,urn:2,Shared,3,0,0,Bob,https://www.linkedin.com/in/bob,2024-03-02T10:00:00Z,[]` + "\n" +
	`,,,,,,,,,,` + "\n" +
	`https://www.linkedin.com/in/jane,False,urn:3,"Nice, post",1,1,0,Amy,https://www.linkedin.com/in/amy,2024-02-01T10:00:00Z,"[{'commentorPublicId': 'jane', 'text': 'hi'}]"` + "\n"

func TestParseCSV_DynamicTyping(t *testing.T) {
	in := "\xEF\xBB\xBFa,b,c,d,e,f\n1.5,TRUE,false,,hello,9007199254740993\n7\n"
	rows, err := ingest.ParseCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows=%d", len(rows))
	}
	want := model.Row{"a": 1.5, "b": true, "c": false, "d": nil, "e": "hello", "f": "9007199254740993"}
	if !reflect.DeepEqual(rows[0], want) {
		t.Fatalf("row0=%#v", rows[0])
	}
	if !reflect.DeepEqual(rows[1], model.Row{"a": 7.0}) {
		t.Fatalf("short row=%#v", rows[1])
	}
}

func TestParseCSV_NonNumericStrings(t *testing.T) {
	rows, err := ingest.ParseCSV(strings.NewReader("a,b,c,d\n0x10,NaN,1e3,12abc\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := model.Row{"a": "0x10", "b": "NaN", "c": 1000.0, "d": "12abc"}
	if !reflect.DeepEqual(rows[0], want) {
		t.Fatalf("row=%#v", rows[0])
	}
}

func TestParseCSV_Errors(t *testing.T) {
	if _, err := ingest.ParseCSV(strings.NewReader("")); err == nil {
		t.Fatalf("expect error for missing header")
	}
	if _, err := ingest.ParseCSV(iotest.ErrReader(errors.New("disk gone"))); err == nil || !strings.Contains(err.Error(), "disk gone") {
		t.Fatalf("expect read error to surface, got %v", err)
	}
}

func TestBuild_DropsShortRowsKeepsOrder(t *testing.T) {
	rows, err := ingest.ParseCSV(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	snap := ingest.Build(rows)
	if !snap.Loaded || snap.Len() != 3 || len(snap.Raw) != 4 {
		t.Fatalf("loaded=%v len=%d raw=%d", snap.Loaded, snap.Len(), len(snap.Raw))
	}
	var got []string
	for _, r := range snap.Records {
		got = append(got, r.URN)
	}
	if !reflect.DeepEqual(got, []string{"urn:1", "urn:2", "urn:3"}) {
		t.Fatalf("order=%v", got)
	}
	types := []model.Category{snap.Records[0].Type, snap.Records[1].Type, snap.Records[2].Type}
	if !reflect.DeepEqual(types, []model.Category{model.CategoryPost, model.CategoryRepost, model.CategoryComment}) {
		t.Fatalf("types=%v", types)
	}

	// 5 个有值字段加 1 个空白字段丢弃，恰好 6 个保留
	edge := ingest.Build([]model.Row{
		{"a": "1", "b": "2", "c": "3", "d": "4", "urn": "urn:five", "f": "  "},
		{"a": "1", "b": "2", "c": "3", "d": "4", "urn": "urn:six", "f": "x"},
	})
	if edge.Len() != 1 || len(edge.Raw) != 2 || edge.Records[0].URN != "urn:six" {
		t.Fatalf("boundary: len=%d raw=%d", edge.Len(), len(edge.Raw))
	}
}

func TestBuild_AllShortRowsNotLoaded(t *testing.T) {
	snap := ingest.Build([]model.Row{{"a": "1", "b": "2"}, {"c": " ", "d": nil}})
	if snap.Loaded || snap.Len() != 0 {
		t.Fatalf("expect not loaded, got %+v", snap)
	}
}

func TestPipeline_IngestPersistReloadClear(t *testing.T) {
	ctx := context.Background()
	cache, err := store.OpenSQLite(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	defer cache.Close()

	p := ingest.NewPipeline(dataset.NewHolder(), ingest.WithCache(cache))
	snap, err := p.IngestReader(ctx, strings.NewReader(sample))
	if err != nil || snap.Len() != 3 {
		t.Fatalf("ingest: %v", err)
	}
	if p.Holder().Current() != snap {
		t.Fatalf("snapshot not installed")
	}

	// 模拟重启：新的数据集从缓存恢复
	p2 := ingest.NewPipeline(dataset.NewHolder(), ingest.WithCache(cache))
	if !p2.Reload(ctx) {
		t.Fatalf("reload should succeed")
	}
	cur := p2.Holder().Current()
	if cur.Len() != 3 || cur.Records[2].Type != model.CategoryComment || cur.Records[0].NumLikes != 10 {
		t.Fatalf("reloaded=%+v", cur.Records)
	}

	p2.Clear(ctx)
	if p2.Holder().Loaded() {
		t.Fatalf("clear must wipe collection")
	}
	if _, err := cache.Get(ctx, store.KeyData); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("clear must delete cache key, got %v", err)
	}
	if p2.Reload(ctx) {
		t.Fatalf("reload after clear must report not loaded")
	}
}

func TestPipeline_ParseErrorInstallsNothing(t *testing.T) {
	ctx := context.Background()
	p := ingest.NewPipeline(dataset.NewHolder())
	before, _ := p.IngestReader(ctx, strings.NewReader(sample))
	if _, err := p.IngestReader(ctx, iotest.ErrReader(errors.New("broken"))); err == nil {
		t.Fatalf("expect error")
	}
	if p.Holder().Current() != before {
		t.Fatalf("failed ingestion must keep previous collection")
	}
}

type failingCache struct{ store.Memory }

func (f *failingCache) Put(context.Context, string, []byte) error {
	return errors.New("quota exceeded")
}
func (f *failingCache) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("unavailable")
}
func (f *failingCache) Delete(context.Context, string) error { return errors.New("unavailable") }

func TestPipeline_CacheFailuresSwallowed(t *testing.T) {
	ctx := context.Background()
	p := ingest.NewPipeline(dataset.NewHolder(), ingest.WithCache(&failingCache{}))
	snap, err := p.IngestReader(ctx, strings.NewReader(sample))
	if err != nil || !snap.Loaded {
		t.Fatalf("cache write failure must not surface: %v", err)
	}
	if p.Reload(ctx) {
		t.Fatalf("reload with unreadable cache must report not loaded")
	}
	p.Clear(ctx)
	if p.Holder().Loaded() {
		t.Fatalf("clear must still wipe collection")
	}
}

func TestPipeline_CorruptCache(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	_ = m.Put(ctx, store.KeyData, []byte("{not json"))
	p := ingest.NewPipeline(dataset.NewHolder(), ingest.WithCache(m))
	if p.Reload(ctx) || p.Holder().Loaded() {
		t.Fatalf("corrupt cache must leave collection not loaded")
	}
}

func TestPipeline_IngestFileAndURL(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte(sample), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	p := ingest.NewPipeline(dataset.NewHolder())
	if snap, err := p.IngestFile(ctx, path); err != nil || snap.Len() != 3 {
		t.Fatalf("file: %v", err)
	}
	if _, err := p.IngestFile(ctx, path+".missing"); err == nil {
		t.Fatalf("expect error for missing file")
	}
	if _, err := p.IngestURL(ctx, "https://example.com/x.csv"); !errors.Is(err, ingest.ErrNoSource) {
		t.Fatalf("want ErrNoSource without client, got %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(sample))
	}))
	defer srv.Close()
	cl, _ := fetch.New(fetch.Options{})
	p = ingest.NewPipeline(dataset.NewHolder(), ingest.WithRemote(cl, rules.Preset{}))
	if _, err := p.IngestURL(ctx, "  "); !errors.Is(err, ingest.ErrNoSource) {
		t.Fatalf("want ErrNoSource for blank url, got %v", err)
	}
	snap, err := p.IngestURL(ctx, srv.URL+"/data.csv")
	if err != nil || snap.Len() != 3 {
		t.Fatalf("url: %v", err)
	}
}
