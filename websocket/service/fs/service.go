package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"flitz/logging"
	"flitz/tracing"
	ws "flitz/websocket"
)

const (
	actionList     = "list"
	actionRoot     = "get_root"
	actionSearch   = "search"
	actionRename   = "rename"
	actionCreate   = "create"
	actionDelete   = "delete"
	actionCopy     = "copy"
	actionMove     = "move"
	actionClipCopy = "copy_to_clipboard"
	actionClipCut  = "cut_to_clipboard"
	actionPaste    = "paste"
	actionInfo     = "info"
	actionOpen     = "open"
)

var ErrAccessDenied = errors.New("access denied")

type listData struct {
	// req
	ShowHidden bool `json:"showHidden,omitempty"`
	// res
	Path    string             `json:"path"`
	Parent  string             `json:"parent"`
	Entries []*FileSystemEntry `json:"entries"`
}
type searchData struct {
	Query      string `json:"query"`
	ShowHidden bool   `json:"showHidden,omitempty"`
	Fuzzy      bool   `json:"fuzzy,omitempty"`
}
type renameData struct {
	NewName string `json:"newName"`
}
type createData struct {
	Name  string `json:"name"`
	IsDir bool   `json:"isDir"`
}
type deleteData struct {
	Paths []string `json:"paths,omitempty"`
}
type copyData struct {
	Dest string `json:"dest"`
}
type moveData struct {
	Dest string `json:"dest"`
}
type clipboardData struct {
	Paths []string      `json:"paths"`
	Mode  ClipboardMode `json:"mode,omitempty"`
}
type errorData struct {
	Outcome string `json:"outcome"`
}

// FSService exposes a FileSystem to one explorer session. The message id is
// the path the action applies to.
type FSService struct {
	conn ws.Writer

	FS        FileSystem
	clipboard *Clipboard
	open      func(path string) error

	// mu serializes message handling with debounced searches.
	mu          sync.Mutex
	debounce    time.Duration
	searchTimer *time.Timer
	searchSeq   uint64

	// span of the action being handled, guarded by mu
	span   trace.Span
	logger *zap.Logger
}

// Register implements websocket.Service.
func (s *FSService) Register(conn ws.Writer) {
	s.conn = conn
}

func (s *FSService) Name() string {
	return "fs"
}

func (s *FSService) HandleTextMessage(id, action string, data json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, span := tracing.Start(context.Background(), "fs."+action, id)
	s.span = span
	defer func() {
		span.End()
		s.span = nil
	}()

	switch action {
	case actionList:
		s.handleList(id, data)
	case actionRoot:
		s.handleGetRoot(id)
	case actionSearch:
		s.handleSearch(id, data)
	case actionRename:
		s.handleRename(id, data)
	case actionCreate:
		s.handleCreate(id, data)
	case actionDelete:
		s.handleDelete(id, data)
	case actionCopy:
		s.handleCopy(id, data)
	case actionMove:
		s.handleMove(id, data)
	case actionClipCopy, actionClipCut:
		s.handleClipboard(id, action, data)
	case actionPaste:
		s.handlePaste(id)
	case actionInfo:
		s.handleInfo(id)
	case actionOpen:
		s.handleOpen(id)
	default:
		s.logger.Debug("unknown action", zap.String("action", action))
	}
}

func (s *FSService) Cleanup(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.searchTimer != nil {
		s.searchTimer.Stop()
	}
	s.searchSeq++
}

func (s *FSService) handleList(id string, data json.RawMessage) {
	var d listData
	if !s.decode(actionList, data, &d) {
		return
	}

	if !s.FS.CanAccess(id) {
		// a path that cannot be reached reports why; one that exists is unreadable
		if _, err := s.FS.Stat(id); err != nil {
			s.handleError(id, actionList, err)
			return
		}
		s.handleError(id, actionList, &OpError{Op: actionList, Path: id, Outcome: Permission, Err: ErrAccessDenied})
		return
	}

	items, err := s.FS.List(id, d.ShowHidden)
	if err != nil {
		s.handleError(id, actionList, err)
		return
	}
	SortItems(items)

	d.Path = id
	d.Parent = ParentOf(id)
	d.Entries = NewEntries(items)
	s.reply(id, actionList, d)
}

func (s *FSService) handleSearch(id string, data json.RawMessage) {
	var d searchData
	if !s.decode(actionSearch, data, &d) {
		return
	}

	if s.debounce <= 0 {
		s.runSearch(id, d)
		return
	}

	if s.searchTimer != nil {
		s.searchTimer.Stop()
	}
	s.searchSeq++
	seq := s.searchSeq
	s.searchTimer = time.AfterFunc(s.debounce, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if seq != s.searchSeq {
			return
		}
		_, span := tracing.Start(context.Background(), "fs.search.run", id)
		s.span = span
		defer func() {
			span.End()
			s.span = nil
		}()
		s.runSearch(id, d)
	})
}

func (s *FSService) runSearch(id string, d searchData) {
	items, err := s.FS.List(id, d.ShowHidden)
	if err != nil {
		s.handleError(id, actionSearch, err)
		return
	}
	SortItems(items)
	items = FilterItems(items, d.Query, d.Fuzzy)

	s.reply(id, actionSearch, listData{
		ShowHidden: d.ShowHidden,
		Path:       id,
		Parent:     ParentOf(id),
		Entries:    NewEntries(items),
	})
}

func (s *FSService) handleGetRoot(id string) {
	root, err := s.FS.GetRoot()
	if err != nil {
		s.handleError(id, actionRoot, err)
		return
	}
	s.reply(id, actionRoot, NewEntry(root))
}

func (s *FSService) handleCreate(id string, data json.RawMessage) {
	var d createData
	if !s.decode(actionCreate, data, &d) {
		return
	}

	if err := s.FS.Create(id, d.Name, d.IsDir); err != nil {
		s.handleError(id, actionCreate, err)
		return
	}
	s.reply(id, actionCreate, nil)
}

func (s *FSService) handleRename(id string, data json.RawMessage) {
	var d renameData
	if !s.decode(actionRename, data, &d) {
		return
	}

	if err := s.FS.Rename(id, d.NewName); err != nil {
		s.handleError(id, actionRename, err)
		return
	}
	s.reply(id, actionRename, nil)
}

func (s *FSService) handleDelete(id string, data json.RawMessage) {
	var d deleteData
	if !s.decode(actionDelete, data, &d) {
		return
	}

	if len(d.Paths) == 0 {
		if err := s.FS.Delete(id); err != nil {
			s.handleError(id, actionDelete, err)
			return
		}
		s.reply(id, actionDelete, PasteReport{Succeeded: 1, Total: 1})
		return
	}

	report := PasteReport{Succeeded: deleteAll(s.FS, d.Paths), Total: len(d.Paths)}
	s.replyReport(id, actionDelete, report, "Deleted")
}

func (s *FSService) handleCopy(id string, data json.RawMessage) {
	var d copyData
	if !s.decode(actionCopy, data, &d) {
		return
	}

	if err := s.FS.Copy(id, d.Dest); err != nil {
		s.handleError(id, actionCopy, err)
		return
	}
	s.reply(id, actionCopy, nil)
}

func (s *FSService) handleMove(id string, data json.RawMessage) {
	var d moveData
	if !s.decode(actionMove, data, &d) {
		return
	}

	if err := s.FS.Move(id, d.Dest); err != nil {
		s.handleError(id, actionMove, err)
		return
	}
	s.reply(id, actionMove, nil)
}

func (s *FSService) handleClipboard(id, action string, data json.RawMessage) {
	var d clipboardData
	if !s.decode(action, data, &d) {
		return
	}

	if action == actionClipCut {
		s.clipboard.Cut(d.Paths)
	} else {
		s.clipboard.Copy(d.Paths)
	}
	s.reply(id, action, clipboardData{Paths: s.clipboard.Paths(), Mode: s.clipboard.Mode()})
}

func (s *FSService) handlePaste(id string) {
	report := s.clipboard.Paste(id)
	s.replyReport(id, actionPaste, report, "Processed")
}

func (s *FSService) handleInfo(id string) {
	item, err := s.FS.Stat(id)
	if err != nil {
		s.handleError(id, actionInfo, err)
		return
	}
	s.reply(id, actionInfo, PropertiesOf(item))
}

func (s *FSService) handleOpen(id string) {
	if err := s.open(id); err != nil {
		s.handleError(id, actionOpen, err)
		return
	}
	s.reply(id, actionOpen, nil)
}

func (s *FSService) decode(action string, data json.RawMessage, v any) bool {
	if len(data) == 0 {
		return true
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.logger.Warn("error unmarshalling fs payload", zap.String("action", action), zap.Error(err))
		return false
	}
	return true
}

func (s *FSService) reply(id, action string, v any) {
	msg := &ws.ServiceMessage{
		Service: s.Name(),
		Id:      id,
		Action:  action,
	}

	if v != nil {
		r, err := json.Marshal(v)
		if err != nil {
			s.logger.Error("error marshalling response", zap.String("action", action), zap.Error(err))
			return
		}
		msg.Data = r
	}

	s.conn.WriteJSON(msg)
}

func (s *FSService) replyReport(id, action string, report PasteReport, verb string) {
	r, _ := json.Marshal(report)
	msg := &ws.ServiceMessage{
		Service: s.Name(),
		Id:      id,
		Action:  action,
		Data:    r,
	}
	if report.Partial() {
		msg.Error = fmt.Sprintf("%s %d of %d items.", verb, report.Succeeded, report.Total)
	}
	s.conn.WriteJSON(msg)
}

// handleError replies with a generic message naming the path; the failure
// kind travels in the payload.
func (s *FSService) handleError(id, action string, err error) {
	s.logger.Info("action failed", zap.String("action", action), zap.String("id", id), zap.Error(err))
	if s.span != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, OutcomeOf(err).String())
	}

	r, _ := json.Marshal(errorData{Outcome: OutcomeOf(err).String()})
	s.conn.WriteJSON(&ws.ServiceMessage{
		Service: s.Name(),
		Id:      id,
		Action:  action,
		Data:    r,
		Error:   fmt.Sprintf("%s failed: %s", action, id),
	})
}

func newFSService(fs FileSystem, debounce time.Duration, logger *zap.Logger) *FSService {
	return &FSService{
		FS:        fs,
		clipboard: NewClipboard(fs),
		open:      OpenFile,
		debounce:  debounce,
		logger:    logger,
	}
}

// NewLocalService serves the local disk, starting at root.
func NewLocalService(root string, searchDebounce time.Duration) ws.Service {
	logger := logging.Named("fs")
	fs := &LocalFileSystem{
		Root:   root,
		Logger: logger,
	}
	return newFSService(fs, searchDebounce, logger)
}
