package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	appanalysis "github.com/bryanwahyu/pullup-coach/internal/application/analysis"
	"github.com/bryanwahyu/pullup-coach/internal/domain/analysis"
	"github.com/bryanwahyu/pullup-coach/internal/domain/chat"
	"github.com/bryanwahyu/pullup-coach/internal/middleware"
)

// POST /api/upload (multipart: front_video, side_video)
func (r *Router) handleUpload(w http.ResponseWriter, req *http.Request) error {
	req.Body = http.MaxBytesReader(w, req.Body, r.maxUpload)
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return err
		}
		return badRequest("invalid multipart form: %v", err)
	}
	defer req.MultipartForm.RemoveAll()

	front, closeFront, err := formUpload(req, "front_video")
	if err != nil {
		return err
	}
	defer closeFront()
	side, closeSide, err := formUpload(req, "side_video")
	if err != nil {
		return err
	}
	defer closeSide()

	uid := currentUser(req).ID
	id, err := r.analysis.Submit(req.Context(), appanalysis.SubmitCommand{
		UserID: uid,
		Front:  front,
		Side:   side,
	})
	if err != nil {
		return err
	}
	middleware.IncrementAnalysesSubmitted()
	return ok(w, map[string]any{"task_id": id})
}

// formUpload returns nil without error when the field is absent; Submit reports it.
func formUpload(req *http.Request, field string) (*analysis.Upload, func(), error) {
	f, hdr, err := req.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, badRequest("read %s: %v", field, err)
	}
	return &analysis.Upload{
		Filename: hdr.Filename,
		Size:     hdr.Size,
		Body:     f,
	}, func() { f.Close() }, nil
}

// GET /api/evaluate/result/{task_id}
func (r *Router) handleResult(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "task_id")
	if err := middleware.ValidateTaskID(id); err != nil {
		// id yang tidak valid tidak mungkin ada di store
		return analysis.ErrTaskNotFound
	}
	view, err := r.analysis.Poll(req.Context(), currentUser(req).ID, analysis.TaskID(id))
	if err != nil {
		return err
	}
	return ok(w, view)
}

// POST /api/save
func (r *Router) handleSave(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Message string `json:"message"`
	}
	// body kosong boleh, hasil task yang dipakai
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		return badRequest("invalid JSON body: %v", err)
	}
	hid, err := r.analysis.Commit(req.Context(), currentUser(req).ID, body.Message)
	if err != nil {
		return err
	}
	middleware.IncrementAnalysesCommitted()
	return ok(w, map[string]any{"history_id": hid})
}

// GET|POST /api/clear
func (r *Router) handleClear(w http.ResponseWriter, req *http.Request) error {
	if err := r.analysis.Clear(req.Context(), currentUser(req).ID); err != nil {
		return err
	}
	middleware.IncrementAnalysesCleared()
	return ok(w, nil)
}

// POST /api/chat, replies as server-sent events
func (r *Router) handleChat(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Message string `json:"message"`
	}
	if err := decodeJSON(req, &body); err != nil {
		return err
	}
	if strings.TrimSpace(body.Message) == "" {
		return chat.ErrEmptyMessage
	}
	flusher, canFlush := w.(http.Flusher)
	if !canFlush {
		return fmt.Errorf("response writer does not support streaming")
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	middleware.IncrementChatStreams()

	uid := currentUser(req).ID
	err := r.chat.Relay(req.Context(), uid, body.Message, func(c chat.Chunk) error {
		return writeEvent(w, flusher, c)
	})
	if err != nil {
		middleware.IncrementChatFailures()
		r.log.Warn("chat stream failed", zap.Int64("user_id", uid), zap.Error(err))
		if req.Context().Err() == nil {
			_ = writeEvent(w, flusher, map[string]string{"error": err.Error()})
		}
	}
	return nil
}

func writeEvent(w http.ResponseWriter, f http.Flusher, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", b); err != nil {
		return err
	}
	f.Flush()
	return nil
}
