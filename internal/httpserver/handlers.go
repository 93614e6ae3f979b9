package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"linkedin-analytics/internal/auth"
	"linkedin-analytics/internal/dashboard"
	"linkedin-analytics/internal/dataset"
	"linkedin-analytics/internal/filter"
	"linkedin-analytics/internal/ingest"
	"linkedin-analytics/internal/logx"
	"linkedin-analytics/internal/model"
	"linkedin-analytics/internal/stats"
)

func (srv *Server) health(c *gin.Context) {
	ok(c, gin.H{
		"status":    "healthy",
		"loaded":    srv.svc.Loaded(),
		"timestamp": time.Now().Unix(),
	})
}

type loginReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (srv *Server) login(c *gin.Context) {
	if srv.auth == nil {
		fail(c, http.StatusNotFound, "Authentication is disabled")
		return
	}
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Username and password are required")
		return
	}
	sess, err := srv.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			fail(c, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		logx.Errorf("登录失败：%v", err)
		fail(c, http.StatusInternalServerError, "Login failed")
		return
	}
	ok(c, sess)
}

func (srv *Server) logout(c *gin.Context) {
	if srv.auth != nil {
		srv.auth.Logout(c.Request.Context(), claimsFrom(c))
	}
	ok(c, nil)
}

func (srv *Server) session(c *gin.Context) {
	data := gin.H{"authenticated": srv.auth != nil}
	if cl := claimsFrom(c); cl != nil {
		data["username"] = cl.Username
		if cl.ExpiresAt != nil {
			data["expires_at"] = cl.ExpiresAt.Time
		}
	}
	if srv.auth != nil {
		if mk, found := srv.auth.Current(c.Request.Context()); found {
			data["login_time"] = mk.LoginTime
		}
	}
	ok(c, data)
}

type datasetInfo struct {
	ID       string    `json:"id,omitempty"`
	Loaded   bool      `json:"loaded"`
	Entries  int       `json:"entries"`
	Rows     int       `json:"rows"`
	LoadedAt time.Time `json:"loaded_at,omitzero"`
}

func infoOf(s *dataset.Snapshot) datasetInfo {
	return datasetInfo{ID: s.ID, Loaded: s.Loaded, Entries: len(s.Records), Rows: len(s.Raw), LoadedAt: s.LoadedAt}
}

func (srv *Server) upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, "Missing CSV file")
		return
	}
	f, err := fh.Open()
	if err != nil {
		fail(c, http.StatusBadRequest, dashboard.ProcessingError(err))
		return
	}
	defer f.Close()

	snap, msg, err := srv.svc.Ingest(c.Request.Context(), f)
	if err != nil {
		logx.Warnf("导入 %s 失败：%v", fh.Filename, err)
		fail(c, http.StatusBadRequest, msg)
		return
	}
	logx.Infof("已导入 %s：%d 条", fh.Filename, len(snap.Records))
	okMsg(c, msg, infoOf(snap))
}

type importReq struct {
	URL string `json:"url" binding:"required"`
}

func (srv *Server) importURL(c *gin.Context) {
	var req importReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Missing url")
		return
	}
	snap, msg, err := srv.svc.IngestURL(c.Request.Context(), req.URL)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, ingest.ErrNoSource) {
			status = http.StatusBadRequest
		}
		logx.Warnf("远程导入失败：%v", err)
		fail(c, status, msg)
		return
	}
	okMsg(c, msg, infoOf(snap))
}

func (srv *Server) reload(c *gin.Context) {
	if !srv.svc.Reload(c.Request.Context()) {
		fail(c, http.StatusNotFound, dashboard.MsgNoData)
		return
	}
	ok(c, infoOf(srv.svc.Pipeline().Holder().Current()))
}

func (srv *Server) clear(c *gin.Context) {
	srv.svc.Clear(c.Request.Context())
	ok(c, nil)
}

func (srv *Server) stats(c *gin.Context) {
	st, err := srv.svc.Stats()
	if err != nil {
		fail(c, http.StatusNotFound, dashboard.MsgNoData)
		return
	}
	st.PostsPerMonth = stats.Chronological(st.PostsPerMonth)
	ok(c, st)
}

// entryItem 为列表中的单个条目：导出投影加上展示用的派生字段。
type entryItem struct {
	Index int `json:"index"`
	model.ExportRecord
	Summary         string `json:"summary"`
	FormattedDate   string `json:"formattedDate"`
	Preview         string `json:"preview"`
	TotalEngagement int64  `json:"totalEngagement"`
	AuthorPicture   string `json:"authorProfilePicture,omitempty"`
}

// entryDetail 为单个条目的完整信息。
type entryDetail struct {
	entryItem
	ShareURN           string            `json:"shareUrn,omitempty"`
	TimeSincePosted    string            `json:"timeSincePosted,omitempty"`
	AuthorFollowers    string            `json:"authorFollowersCount,omitempty"`
	CanReact           bool              `json:"canReact"`
	CanPostComments    bool              `json:"canPostComments"`
	CanShare           bool              `json:"canShare"`
	CommentingDisabled bool              `json:"commentingDisabled"`
	Attributes         []model.Attribute `json:"attributes"`
	Comments           []model.Comment   `json:"comments"`
	Reactions          []model.Reaction  `json:"reactions"`
	Images             string            `json:"images,omitempty"`
	ResharedPost       string            `json:"resharedPost,omitempty"`
	LinkedinVideo      string            `json:"linkedinVideo,omitempty"`
	Document           string            `json:"document,omitempty"`
}

func (srv *Server) item(i int, r model.Record) entryItem {
	return entryItem{
		Index:           i,
		ExportRecord:    r.Export(),
		Summary:         r.Summary(),
		FormattedDate:   r.FormattedDate(),
		Preview:         r.ContentPreview(srv.view.PreviewLength),
		TotalEngagement: r.TotalEngagement(),
		AuthorPicture:   r.AuthorProfilePicture,
	}
}

// specFromQuery 由查询参数构造完整的过滤条件；缺省参数取默认值。
func specFromQuery(c *gin.Context) (filter.Spec, error) {
	spec := filter.DefaultSpec()
	mode, err := filter.ParseDateMode(c.Query("date"))
	if err != nil {
		return spec, err
	}
	spec.Date = mode
	if spec.From, err = filter.ParseDate(c.Query("from")); err != nil {
		return spec, err
	}
	if spec.To, err = filter.ParseDate(c.Query("to")); err != nil {
		return spec, err
	}
	spec.Types = filter.ParseTypes(c.Query("types"))
	spec.Headline = c.Query("headline")
	spec.Text = c.Query("text")
	spec.HighComments = queryBool(c, "high_comments")
	spec.HighLikes = queryBool(c, "high_likes")
	return spec, nil
}

func queryBool(c *gin.Context, key string) bool {
	b, _ := strconv.ParseBool(c.Query(key))
	return b
}

func queryInt(c *gin.Context, key string, def int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return n
}

func (srv *Server) entries(c *gin.Context) {
	spec, err := specFromQuery(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	var srtArg *filter.Sort
	if field := c.Query("sort"); field != "" {
		ns := filter.NewSort(field, c.Query("dir"))
		srtArg = &ns
	}

	mode := c.DefaultQuery("view", "table")
	perPage := srv.view.RowsPerPage
	if mode == "cards" {
		perPage = srv.view.CardsPerPage
	}
	perPage = queryInt(c, "limit", perPage)

	view, srt := srv.svc.Apply(spec, srtArg)
	items, pg := dashboard.Page(view, queryInt(c, "page", 1), perPage)
	offset := (pg.CurrentPage - 1) * pg.PerPage
	out := make([]entryItem, 0, len(items))
	for i, r := range items {
		out = append(out, srv.item(offset+i, r))
	}
	okMsg(c, srv.svc.ViewMessage(view), gin.H{
		"entries":    out,
		"pagination": pg,
		"filters":    spec,
		"sort":       srt,
		"view":       mode,
	})
}

func (srv *Server) entry(c *gin.Context) {
	idx, err := strconv.Atoi(c.Param("index"))
	view := srv.svc.CurrentView()
	if err != nil || idx < 0 || idx >= len(view) {
		fail(c, http.StatusNotFound, fmt.Sprintf("Entry %s not found", c.Param("index")))
		return
	}
	r := view[idx]
	ok(c, entryDetail{
		entryItem:          srv.item(idx, r),
		ShareURN:           r.ShareURN,
		TimeSincePosted:    r.TimeSincePosted,
		AuthorFollowers:    r.AuthorFollowersCount,
		CanReact:           r.CanReact,
		CanPostComments:    r.CanPostComments,
		CanShare:           r.CanShare,
		CommentingDisabled: r.CommentingDisabled,
		Attributes:         r.Attributes,
		Comments:           r.Comments,
		Reactions:          r.Reactions,
		Images:             r.Images,
		ResharedPost:       r.ResharedPost,
		LinkedinVideo:      r.LinkedinVideo,
		Document:           r.Document,
	})
}

// exportName 取配置的导出文件名，未配置时使用默认名称。
func (srv *Server) exportName() string {
	if srv.export == "" {
		return model.ExportFileName
	}
	return filepath.Base(srv.export)
}

func (srv *Server) exportJSON(c *gin.Context) {
	c.Header("Content-Type", "application/json; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+srv.exportName()+`"`)
	c.Status(http.StatusOK)
	if err := srv.svc.Export(c.Writer); err != nil {
		logx.Errorf("导出失败：%v", err)
	}
}
