package controller

import (
	"io"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"flitz/config"
	"flitz/downloader"
	"flitz/logging"
	"flitz/middleware"
	"flitz/tracing"
	"flitz/websocket"
	"flitz/websocket/service/fs"
	"flitz/websocket/service/heartbeat"
)

type ExplorerController struct {
	cfg        *config.Config
	fs         *fs.LocalFileSystem
	downloader downloader.Downloader
}

func NewExplorerController(cfg *config.Config) *ExplorerController {
	return &ExplorerController{
		cfg: cfg,
		fs: &fs.LocalFileSystem{
			Root:   cfg.StartDir,
			Logger: logging.Named("fs"),
		},
		downloader: downloader.NewLocalDownloader(),
	}
}

// StartExplorer upgrades the request and serves one explorer session.
func (ec *ExplorerController) StartExplorer(c *gin.Context) {
	wsServer, err := websocket.NewServer(c.Writer, c.Request, ec.cfg.ConnectionTimeout)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	wsServer.Register(fs.NewLocalService(ec.cfg.StartDir, ec.cfg.SearchDebounce))
	wsServer.RegisterPassive(heartbeat.NewService())

	middleware.Logger(c).Info("explorer session opened", logging.String("session", wsServer.ID))
	wsServer.Start()
}

type listQuery struct {
	Path       string `form:"path"`
	ShowHidden *bool  `form:"showHidden"`
	Query      string `form:"query"`
	Fuzzy      bool   `form:"fuzzy"`
}

// List returns one directory, sorted and optionally filtered.
func (ec *ExplorerController) List(c *gin.Context) {
	var req listQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, span := tracing.Start(c.Request.Context(), "ListDirectory", req.Path)
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	if req.Path == "" {
		root, err := ec.fs.GetRoot()
		if err != nil {
			ec.fail(c, span, err)
			return
		}
		req.Path = root.Path
	}
	showHidden := ec.cfg.ShowHidden
	if req.ShowHidden != nil {
		showHidden = *req.ShowHidden
	}

	items, err := ec.fs.List(req.Path, showHidden)
	if err != nil {
		ec.fail(c, span, err)
		return
	}
	fs.SortItems(items)
	items = fs.FilterItems(items, req.Query, req.Fuzzy)

	c.JSON(http.StatusOK, gin.H{
		"path":    req.Path,
		"parent":  fs.ParentOf(req.Path),
		"entries": fs.NewEntries(items),
	})
}

type infoQuery struct {
	Path string `form:"path" binding:"required"`
}

// Info returns the properties of one item.
func (ec *ExplorerController) Info(c *gin.Context) {
	var req infoQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	_, span := tracing.Start(c.Request.Context(), "Info", req.Path)
	defer span.End()

	item, err := ec.fs.Stat(req.Path)
	if err != nil {
		ec.fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, fs.PropertiesOf(item))
}

// Download streams a file, or a directory as a zip archive.
func (ec *ExplorerController) Download(c *gin.Context) {
	var req infoQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	_, span := tracing.Start(c.Request.Context(), "Download", req.Path)
	defer span.End()

	info, err := ec.downloader.Stat(req.Path)
	if err != nil {
		ec.fail(c, span, err)
		return
	}

	var reader io.ReadCloser
	if info.IsDir {
		reader, info, err = ec.downloader.DownloadDir(req.Path)
	} else {
		reader, info, err = ec.downloader.Download(req.Path)
	}
	if err != nil {
		ec.fail(c, span, err)
		return
	}
	defer reader.Close()

	contentType := "application/octet-stream"
	if info.IsDir {
		contentType = "application/zip"
	}
	c.DataFromReader(http.StatusOK, info.Size, contentType, reader, map[string]string{
		"Content-Disposition": mime.FormatMediaType("attachment", map[string]string{"filename": info.Name}),
	})
}

func (ec *ExplorerController) fail(c *gin.Context, span trace.Span, err error) {
	outcome := fs.OutcomeOf(err)
	span.RecordError(err)
	c.Error(err)
	c.JSON(statusFor(outcome), gin.H{
		"error":   err.Error(),
		"outcome": outcome.String(),
	})
}

func statusFor(outcome fs.Outcome) int {
	switch outcome {
	case fs.NotFound:
		return http.StatusNotFound
	case fs.Permission:
		return http.StatusForbidden
	case fs.Exists:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
