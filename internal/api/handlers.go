package api

import (
	"context"
	stderrors "errors"
	"net/http"
	"path/filepath"
	"time"

	"excelytics/app"
	"excelytics/domain/chart"
	"excelytics/domain/core"
	"excelytics/internal/auth"
	"excelytics/internal/errors"
	"excelytics/models"

	"github.com/go-chi/chi/v5"
)

// multipart parts beyond this stay on disk while parsing
const multipartMemory = 1 << 20

// Pinger reports whether the database is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler holds the HTTP handlers.
type Handler struct {
	auth     *app.AuthService
	files    *app.FileService
	insights *app.InsightService
	db       Pinger
	maxBytes int64
}

func actorFrom(r *http.Request) (models.Actor, error) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		return models.Actor{}, errors.Unauthorized("authentication required")
	}
	return actor, nil
}

func fileID(r *http.Request) (core.ID, error) {
	id, err := core.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		return "", errors.NotFound("file")
	}
	return id, nil
}

// Register handles POST /api/auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req app.Registration
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	sess, err := h.auth.Register(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, sess)
}

// Login handles POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req app.Credentials
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	sess, err := h.auth.Login(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, sess)
}

// Me handles GET /api/auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	user, err := h.auth.Me(r.Context(), actor)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, user)
}

// UploadFile handles POST /api/files
func (h *Handler) UploadFile(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.withUpload(w, r, func(up app.Upload) {
		file, err := h.files.Upload(r.Context(), actor, up)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondData(w, http.StatusCreated, file)
	})
}

// PreviewFile handles POST /api/files/preview
func (h *Handler) PreviewFile(w http.ResponseWriter, r *http.Request) {
	h.withUpload(w, r, func(up app.Upload) {
		t, err := h.files.Preview(r.Context(), up)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondData(w, http.StatusOK, t)
	})
}

// withUpload extracts the multipart "file" field and hands it to fn.
func (h *Handler) withUpload(w http.ResponseWriter, r *http.Request, fn func(app.Upload)) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			respondError(w, r, errors.ValidationError("file too large"))
			return
		}
		respondError(w, r, errors.ValidationError("expected a multipart form with a file field"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	f, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, errors.ValidationError("no file provided"))
		return
	}
	defer f.Close()

	fn(app.Upload{
		Name:     filepath.Base(header.Filename),
		Size:     header.Size,
		MimeType: header.Header.Get("Content-Type"),
		Body:     f,
	})
}

// ListFiles handles GET /api/files
func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	files, err := h.files.List(r.Context(), actor, "")
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, files)
}

// GetFile handles GET /api/files/{id}
func (h *Handler) GetFile(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	id, err := fileID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	file, err := h.files.Get(r.Context(), actor, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, file)
}

// DeleteFile handles DELETE /api/files/{id}
func (h *Handler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	id, err := fileID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.files.Delete(r.Context(), actor, id); err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, map[string]string{"id": id.String()})
}

// FileChart handles GET /api/files/{id}/chart?kind=&x=&y=&z=
func (h *Handler) FileChart(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	id, err := fileID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	q := r.URL.Query()
	kind, err := chart.ParseKind(q.Get("kind"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	req := chart.Request{Kind: kind, X: q.Get("x"), Y: q.Get("y"), Z: q.Get("z")}
	proj, err := h.files.Chart(r.Context(), actor, id, req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, proj)
}

// FileInsights handles POST /api/files/{id}/insights
func (h *Handler) FileInsights(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	id, err := fileID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	insight, err := h.insights.Summarize(r.Context(), actor, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, insight)
}

// Healthz handles GET /healthz
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			respondError(w, r, errors.DatabaseError("database unreachable", err))
			return
		}
	}
	respondData(w, http.StatusOK, map[string]string{"status": "ok"})
}
