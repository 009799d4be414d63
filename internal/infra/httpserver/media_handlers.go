package httpserver

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	appmedia "github.com/bryanwahyu/pullup-coach/internal/application/media"
	"github.com/bryanwahyu/pullup-coach/internal/domain/media"
	"github.com/bryanwahyu/pullup-coach/internal/middleware"
)

// GET /api/media/videos
func (r *Router) handleListVideos(w http.ResponseWriter, req *http.Request) error {
	list, err := r.media.List(req.Context())
	if err != nil {
		return err
	}
	if list == nil {
		list = []*media.Video{}
	}
	return ok(w, list)
}

// GET /api/video/{filename}, supports Range
func (r *Router) handleServeVideo(w http.ResponseWriter, req *http.Request) error {
	name := chi.URLParam(req, "filename")
	obj, err := r.media.OpenVideo(req.Context(), name)
	if err != nil {
		return err
	}
	defer obj.Close()
	http.ServeContent(w, req, name, obj.ModTime(), obj)
	return nil
}

// GET /api/thumbnail/{filename}
func (r *Router) handleServeThumbnail(w http.ResponseWriter, req *http.Request) error {
	name := chi.URLParam(req, "filename")
	obj, err := r.media.OpenThumbnail(req.Context(), name)
	if err != nil {
		return err
	}
	defer obj.Close()
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeContent(w, req, name, obj.ModTime(), obj)
	return nil
}

// POST /api/admin/media/upload (multipart: name, annotation, file)
func (r *Router) handleMediaUpload(w http.ResponseWriter, req *http.Request) error {
	req.Body = http.MaxBytesReader(w, req.Body, r.maxUpload)
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return err
		}
		return badRequest("invalid multipart form: %v", err)
	}
	defer req.MultipartForm.RemoveAll()

	f, hdr, err := req.FormFile("file")
	if err != nil {
		return badRequest("file is required")
	}
	defer f.Close()

	v, err := r.media.Upload(req.Context(), appmedia.UploadCommand{
		Name:       middleware.SanitizeString(req.FormValue("name")),
		Annotation: middleware.SanitizeString(req.FormValue("annotation")),
		Filename:   hdr.Filename,
		Body:       f,
	})
	if err != nil {
		return err
	}
	return ok(w, v)
}
