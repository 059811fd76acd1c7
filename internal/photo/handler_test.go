package photo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*chi.Mux, *Service) {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "photos.json"))
	require.NoError(t, err)
	svc := NewService(store, newFakeBlob())
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Post("/photos", h.Upload)
	r.Get("/photos", h.List)
	r.Delete("/photos", h.WipeAll)
	r.Delete("/photos/{id}", h.Delete)
	r.Patch("/photos/{id}/category", h.UpdateCategory)
	r.Patch("/photos/{id}/people", h.UpdatePeople)
	r.Get("/stats", h.Stats)
	return r, svc
}

func multipartUpload(t *testing.T, tag string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "party.jpg")
	require.NoError(t, err)
	_, err = fw.Write([]byte("jpegbytes"))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("tag", tag))
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHandlerUpload(t *testing.T) {
	r, _ := newTestRouter(t)

	body, contentType := multipartUpload(t, "wedding")
	req := httptest.NewRequest(http.MethodPost, "/photos", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Success bool  `json:"success"`
		Data    Photo `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, TagWedding, resp.Data.Tag)
	assert.Equal(t, "party.jpg", resp.Data.OriginalName)
	assert.NotEmpty(t, resp.Data.ID)
}

func TestHandlerUploadBadTag(t *testing.T) {
	r, _ := newTestRouter(t)

	body, contentType := multipartUpload(t, "birthday")
	req := httptest.NewRequest(http.MethodPost, "/photos", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerDeleteSoftThenHard(t *testing.T) {
	r, svc := newTestRouter(t)
	p := upload(t, svc, "a.jpg", TagOther)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/photos/"+p.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, svc.ListVisible(false))
	assert.Len(t, svc.ListVisible(true), 1)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/photos/"+p.ID+"?hard=true", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, svc.ListVisible(true))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/photos/"+p.ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerUpdateCategory(t *testing.T) {
	r, svc := newTestRouter(t)
	p := upload(t, svc, "a.jpg", TagOther)

	req := httptest.NewRequest(http.MethodPatch, "/photos/"+p.ID+"/category", strings.NewReader(`{"tag":"reception"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, TagReception, svc.ListVisible(false)[0].Tag)

	req = httptest.NewRequest(http.MethodPatch, "/photos/"+p.ID+"/category", strings.NewReader(`{"tag":"bogus"}`))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerUpdatePeoplePartial(t *testing.T) {
	r, svc := newTestRouter(t)
	p := upload(t, svc, "a.jpg", TagOther)

	req := httptest.NewRequest(http.MethodPatch, "/photos/"+p.ID+"/people",
		strings.NewReader(`{"people":["Alice"],"faces":[{"x":0.1,"y":0.2,"width":0.3,"height":0.4,"person":"Alice"}]}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	got := svc.ListVisible(false)[0]
	assert.Equal(t, []string{"Alice"}, got.People)
	require.Len(t, got.Faces, 1)
	assert.Equal(t, "Alice", got.Faces[0].Person)

	// omitting faces leaves them unchanged
	req = httptest.NewRequest(http.MethodPatch, "/photos/"+p.ID+"/people", strings.NewReader(`{"people":["Alice","Bob"]}`))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	got = svc.ListVisible(false)[0]
	assert.Equal(t, []string{"Alice", "Bob"}, got.People)
	assert.Len(t, got.Faces, 1)
}

func TestHandlerStats(t *testing.T) {
	r, svc := newTestRouter(t)
	upload(t, svc, "a.jpg", TagWedding)
	upload(t, svc, "b.jpg", TagWedding)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data GalleryStats `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Data.TotalPhotos)
	assert.Equal(t, 2, resp.Data.ByTag[TagWedding])
}

func TestHandlerWipeAll(t *testing.T) {
	r, svc := newTestRouter(t)
	upload(t, svc, "a.jpg", TagWedding)

	req := httptest.NewRequest(http.MethodDelete, "/photos", strings.NewReader(`{"confirm":"please"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
	assert.Len(t, svc.ListVisible(true), 1)

	body := fmt.Sprintf(`{"confirm":%q}`, WipeConfirmation)
	req = httptest.NewRequest(http.MethodDelete, "/photos", strings.NewReader(body))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, svc.ListVisible(true))
}
