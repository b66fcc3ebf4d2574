package controller

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flitz/config"
	"flitz/websocket"
	"flitz/websocket/service/fs"
)

type listResponse struct {
	Path    string                `json:"path"`
	Parent  string                `json:"parent"`
	Entries []*fs.FileSystemEntry `json:"entries"`
}

func setupRouter(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.md"), []byte("# hi"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "report.pdf"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), nil, 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "src"), 0755))

	cfg := &config.Config{
		StartDir:          dir,
		ConnectionTimeout: time.Minute,
	}
	r := gin.New()
	SetupRoutes(r, cfg)
	return r, dir
}

func get(r *gin.Engine, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func entryNames(entries []*fs.FileSystemEntry) []string {
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	return names
}

func TestList(t *testing.T) {
	r, dir := setupRouter(t)

	t.Run("start directory", func(t *testing.T) {
		w := get(r, "/fs/list")
		require.Equal(t, http.StatusOK, w.Code)

		var res listResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Equal(t, dir, res.Path)
		assert.Equal(t, filepath.Dir(dir), res.Parent)
		assert.Equal(t, []string{"src", "readme.md", "report.pdf"}, entryNames(res.Entries))
		assert.Equal(t, "Folder", res.Entries[0].Type)
		assert.Equal(t, "MD File", res.Entries[1].Type)
	})

	t.Run("hidden and query", func(t *testing.T) {
		w := get(r, "/fs/list?showHidden=true&query=E&path="+url.QueryEscape(dir))
		require.Equal(t, http.StatusOK, w.Code)

		var res listResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Equal(t, []string{".env", "readme.md", "report.pdf"}, entryNames(res.Entries))
	})

	t.Run("missing directory", func(t *testing.T) {
		w := get(r, "/fs/list?path="+url.QueryEscape(filepath.Join(dir, "missing")))
		assert.Equal(t, http.StatusNotFound, w.Code)

		var res map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Equal(t, "not_found", res["outcome"])
	})

	t.Run("bad flag", func(t *testing.T) {
		w := get(r, "/fs/list?showHidden=maybe")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestInfo(t *testing.T) {
	r, dir := setupRouter(t)

	w := get(r, "/fs/info?path="+url.QueryEscape(filepath.Join(dir, "readme.md")))
	require.Equal(t, http.StatusOK, w.Code)

	var p fs.Properties
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, "readme.md", p.Name)
	assert.Equal(t, int64(4), p.Size)
	assert.False(t, p.Hidden)

	assert.Equal(t, http.StatusBadRequest, get(r, "/fs/info").Code)
	assert.Equal(t, http.StatusNotFound, get(r, "/fs/info?path="+url.QueryEscape(filepath.Join(dir, "nope"))).Code)
}

func TestHealthAndMetrics(t *testing.T) {
	r, _ := setupRouter(t)

	w := get(r, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	get(r, "/fs/list")
	w = get(r, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "flitz_fs_operations_total")
}

func TestExplorerSession(t *testing.T) {
	r, dir := setupRouter(t)
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn, _, err := ws.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/explorer", nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	require.NoError(t, conn.WriteJSON(&websocket.ServiceMessage{Service: "heartbeat", Id: "1", Action: "ping"}))
	var pong websocket.ServiceMessage
	require.NoError(t, conn.ReadJSON(&pong))
	assert.Equal(t, "heartbeat", pong.Service)
	assert.Equal(t, "ping", pong.Action)

	require.NoError(t, conn.WriteJSON(&websocket.ServiceMessage{
		Service: "fs",
		Id:      dir,
		Action:  "create",
		Data:    json.RawMessage(`{"name":"notes","isDir":true}`),
	}))
	var created websocket.ServiceMessage
	require.NoError(t, conn.ReadJSON(&created))
	assert.Empty(t, created.Error)

	require.NoError(t, conn.WriteJSON(&websocket.ServiceMessage{Service: "fs", Id: dir, Action: "list"}))
	var listed websocket.ServiceMessage
	require.NoError(t, conn.ReadJSON(&listed))
	require.Empty(t, listed.Error)

	var res listResponse
	require.NoError(t, json.Unmarshal(listed.Data, &res))
	assert.Equal(t, []string{"notes", "src", "readme.md", "report.pdf"}, entryNames(res.Entries))
}

func TestDownload(t *testing.T) {
	r, dir := setupRouter(t)

	w := get(r, "/fs/download?path="+url.QueryEscape(filepath.Join(dir, "readme.md")))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "# hi", w.Body.String())
	assert.Equal(t, `attachment; filename=readme.md`, w.Header().Get("Content-Disposition"))

	w = get(r, "/fs/download?path="+url.QueryEscape(dir))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/zip", w.Header().Get("Content-Type"))
	assert.Equal(t, []byte("PK"), w.Body.Bytes()[:2])

	assert.Equal(t, http.StatusNotFound, get(r, "/fs/download?path="+url.QueryEscape(filepath.Join(dir, "gone"))).Code)
}
