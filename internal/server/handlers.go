package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/dshills/diffsense/internal/gitctx"
	"github.com/dshills/diffsense/internal/output"
)

const (
	maxMessageBytes = 64 << 10
	maxFileBytes    = 2 << 20
)

// Host message commands.
const (
	CommandOpenFile = "openFile"
	CommandShowDiff = "showDiff"
	CommandRefresh  = "refresh"
)

// Message is posted by the page script.
type Message struct {
	Command string `json:"command"`
	File    string `json:"file,omitempty"`
}

// Reply tells the page what to do next.
type Reply struct {
	URL    string `json:"url,omitempty"`
	Reload bool   `json:"reload,omitempty"`
	Error  string `json:"error,omitempty"`
}

// StateResponse is the body of GET /api/state.
type StateResponse struct {
	State  Phase  `json:"state"`
	ID     string `json:"id,omitempty"`
	Source string `json:"source"`
	Error  string `json:"error,omitempty"`
	Busy   bool   `json:"busy"`
}

type httpError struct {
	status int
	msg    string
}

func (e *httpError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &httpError{status: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (s *Server) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h(w, r)
		if err == nil {
			return
		}
		var he *httpError
		switch {
		case errors.As(err, &he):
			http.Error(w, he.msg, he.status)
		case errors.Is(err, gitctx.ErrOutsideRepo):
			http.Error(w, "path is outside the repository", http.StatusForbidden)
		case errors.Is(err, fs.ErrNotExist):
			http.Error(w, "not found", http.StatusNotFound)
		default:
			s.log.Warn("request failed", zap.String("path", r.URL.Path), zap.Error(err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

func writeHTML(w http.ResponseWriter, page string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	io.WriteString(w, page)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// GET /
func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	snap := s.opts.State.Snapshot()
	switch snap.Phase {
	case PhaseLoading:
		writeHTML(w, output.LoadingPage(snap.Source, s.page))
	case PhaseResult:
		writeHTML(w, output.ResultPage(snap.Result, s.page))
	case PhaseError:
		writeHTML(w, output.ErrorPage(snap.Err, s.page))
	default:
		writeHTML(w, output.IdlePage(s.page))
	}
}

// GET /api/state
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	snap := s.opts.State.Snapshot()
	resp := StateResponse{
		State:  snap.Phase,
		Source: snap.Source.String(),
		Busy:   s.opts.Analyzer.InProgress(),
	}
	if snap.Phase == PhaseResult && snap.Result != nil {
		resp.ID = snap.Result.ID
	}
	if snap.Phase == PhaseError && snap.Err != nil {
		resp.Error = snap.Err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// rejectCrossSite refuses requests that a browser marks as coming from
// another site, or whose Origin is not a loopback host. CORS headers alone do
// not stop a simple cross-origin POST from reaching the handler.
func rejectCrossSite(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Sec-Fetch-Site") == "cross-site" || !loopbackOrigin(r.Header.Get("Origin")) {
			writeJSON(w, http.StatusForbidden, Reply{Error: "cross-site request rejected"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// loopbackOrigin reports whether origin is absent or names a loopback host.
func loopbackOrigin(origin string) bool {
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

// POST /api/message
// Body: {"command": "openFile|showDiff|refresh", "file": "<repo path>"}
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) error {
	var msg Message
	if err := json.NewDecoder(io.LimitReader(r.Body, maxMessageBytes)).Decode(&msg); err != nil {
		return badRequest("invalid message: %v", err)
	}

	switch msg.Command {
	case CommandOpenFile, CommandShowDiff:
		if msg.File == "" {
			return badRequest("%s requires a file", msg.Command)
		}
		if _, err := gitctx.RepoPath(s.opts.Root, msg.File); err != nil {
			return err
		}
		target := "/file"
		if msg.Command == CommandShowDiff {
			target = "/diff"
		}
		writeJSON(w, http.StatusOK, Reply{URL: target + "?path=" + url.QueryEscape(msg.File)})
	case CommandRefresh:
		if !s.refresh() {
			writeJSON(w, http.StatusConflict, Reply{Error: "analysis already in progress"})
			return nil
		}
		writeJSON(w, http.StatusAccepted, Reply{Reload: true})
	default:
		return badRequest("unknown command %q", msg.Command)
	}
	return nil
}

// GET /file?path=
func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) error {
	rel := r.URL.Query().Get("path")
	full, err := gitctx.RepoPath(s.opts.Root, rel)
	if err != nil {
		return err
	}
	info, err := os.Stat(full)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return badRequest("%s is a directory", rel)
	}
	if info.Size() > maxFileBytes {
		return badRequest("%s is too large to display", rel)
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return err
	}
	if !utf8.Valid(data) {
		return badRequest("%s is not a text file", rel)
	}
	writeHTML(w, output.FilePage(rel, string(data), s.page))
	return nil
}

// GET /diff?path=
func (s *Server) handleDiff(w http.ResponseWriter, r *http.Request) error {
	rel := r.URL.Query().Get("path")
	if _, err := gitctx.RepoPath(s.opts.Root, rel); err != nil {
		return err
	}
	res, err := gitctx.FileDiff(r.Context(), s.opts.Root, rel, s.opts.Diff)
	if err != nil {
		return err
	}
	writeHTML(w, output.DiffPage(rel, res.Diff, s.page))
	return nil
}
