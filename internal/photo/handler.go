package photo

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/fotoshare/gallery/internal/response"
)

// maxUploadBytes caps a single photo upload (32 MiB).
const maxUploadBytes = 32 << 20

// Handler holds HTTP handlers for gallery endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new photo Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Upload accepts a multipart upload ("file" + "tag") and returns the created record.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		response.BadRequest(w, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "file field is required")
		return
	}
	defer file.Close()

	tag := Tag(r.FormValue("tag"))
	mimetype := header.Header.Get("Content-Type")
	if mimetype == "" {
		mimetype = "application/octet-stream"
	}

	p, err := h.svc.Upload(r.Context(), file, header.Size, header.Filename, mimetype, tag)
	if err != nil {
		if errors.Is(err, ErrInvalidTag) {
			response.BadRequest(w, err.Error())
			return
		}
		// Generic message for guests; the wrapped cause stays in the logs
		// for operator diagnosis.
		response.Error(w, http.StatusInternalServerError, "failed to upload")
		return
	}
	response.Created(w, p)
}

// List returns visible photos; ?includeDeleted=true includes soft-deleted records.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	includeDeleted := r.URL.Query().Get("includeDeleted") == "true"
	response.OK(w, h.svc.ListVisible(includeDeleted))
}

// Delete soft-deletes by default; ?hard=true destroys the record and its blob.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if r.URL.Query().Get("hard") == "true" {
		if _, err := h.svc.HardDelete(r.Context(), id); err != nil {
			h.writeError(w, err)
			return
		}
		response.OK(w, map[string]string{"id": id, "status": "deleted"})
		return
	}

	p, err := h.svc.SoftDelete(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, p)
}

// UpdateCategory changes a photo's tag.
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Tag Tag `json:"tag"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	p, err := h.svc.UpdateCategory(r.Context(), chi.URLParam(r, "id"), body.Tag)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, p)
}

// UpdatePeople partially updates people and face annotations; omitted fields
// are left unchanged.
func (h *Handler) UpdatePeople(w http.ResponseWriter, r *http.Request) {
	var body struct {
		People *[]string `json:"people"`
		Faces  *[]Face   `json:"faces"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	p, err := h.svc.UpdatePeopleAndFaces(r.Context(), chi.URLParam(r, "id"), body.People, body.Faces)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, p)
}

// Stats returns aggregate gallery statistics.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	response.OK(w, h.svc.Stats())
}

// WipeAll destroys the entire gallery. Requires the exact confirmation
// literal in the body; gated behind the admin token at the routing layer.
func (h *Handler) WipeAll(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Confirm string `json:"confirm"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	res, err := h.svc.WipeAll(r.Context(), body.Confirm)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, res)
}

// writeError maps service errors to HTTP responses.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.NotFound(w, "photo not found")
	case errors.Is(err, ErrInvalidTag):
		response.BadRequest(w, err.Error())
	case errors.Is(err, ErrConfirmation):
		response.Error(w, http.StatusPreconditionFailed, "confirmation text does not match")
	default:
		response.InternalError(w)
	}
}

// cleanKey strips any path components from a requested upload key so the
// file server below cannot be walked out of the uploads directory.
func cleanKey(key string) string {
	key = strings.ReplaceAll(key, "\\", "/")
	if i := strings.LastIndex(key, "/"); i >= 0 {
		key = key[i+1:]
	}
	return key
}

// ServeUploads returns a handler that serves local-backend blobs from root.
// Mounted only when the local backend is active; cloud blobs are reached
// through signed URLs instead.
func ServeUploads(root string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := cleanKey(chi.URLParam(r, "key"))
		if key == "" {
			response.NotFound(w, "not found")
			return
		}
		http.ServeFile(w, r, root+"/"+key)
	}
}
