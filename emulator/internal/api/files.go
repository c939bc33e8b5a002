package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pigeonworks-llc/billed/emulator/internal/models"
	"github.com/pigeonworks-llc/billed/emulator/internal/store"
	"github.com/pigeonworks-llc/billed/pkg/bills"
	"github.com/pigeonworks-llc/billed/pkg/pathutil"
	"github.com/pigeonworks-llc/billed/pkg/receipt"
)

// MaxUploadSize caps a receipt upload.
const MaxUploadSize = 10 << 20 // 10 MB

// FilesHandler handles receipt uploads and downloads.
type FilesHandler struct {
	store     *store.Store
	paths     *pathutil.PathResolver
	publicURL string
	metrics   *Metrics
}

// NewFilesHandler creates a new FilesHandler. Files are written below
// uploadDir. publicURL prefixes the returned fileUrl; when empty the request
// host is used.
func NewFilesHandler(s *store.Store, uploadDir, publicURL string, metrics *Metrics) *FilesHandler {
	return &FilesHandler{
		store:     s,
		paths:     pathutil.New(pathutil.Config{DataRoot: uploadDir, ReceiptsDir: uploadDir}),
		publicURL: strings.TrimSuffix(publicURL, "/"),
		metrics:   metrics,
	}
}

// Upload handles POST /api/v1/files
//
//	@Summary	Upload a receipt image
//	@Tags		files
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		file	formData	file	true	"JPEG or PNG receipt"
//	@Param		email	formData	string	false	"Uploader email"
//	@Success	201		{object}	bills.FileRef
//	@Failure	400		{object}	ErrorResponse
//	@Failure	415		{object}	ErrorResponse
//	@Security	BearerAuth
//	@Router		/files [post]
func (h *FilesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		h.metrics.observeUpload("bad_request")
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to parse multipart form")
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		h.metrics.observeUpload("bad_request")
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Missing file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxUploadSize+1))
	if err != nil {
		h.metrics.observeUpload("error")
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to read file")
		return
	}
	if len(data) > MaxUploadSize {
		h.metrics.observeUpload("too_large")
		writeJSONError(w, http.StatusRequestEntityTooLarge, "invalid_request", "File too large")
		return
	}

	upload := bills.UploadedFile{
		Name:        fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Data:        data,
	}
	if err := receipt.Check(upload); err != nil {
		h.metrics.observeUpload("rejected")
		writeJSONError(w, http.StatusUnsupportedMediaType, "invalid_file", err.Error())
		return
	}
	contentType, err := receipt.DetectContentType(data)
	if err != nil {
		h.metrics.observeUpload("rejected")
		writeJSONError(w, http.StatusUnsupportedMediaType, "invalid_file", err.Error())
		return
	}

	key := store.NewFileKey()
	ext := filepath.Ext(upload.Name)
	path, err := h.paths.GetReceiptPath(time.Now().Format("2006-01-02"), key, ext)
	if err != nil {
		h.metrics.observeUpload("error")
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to build file path")
		return
	}
	if err := h.paths.EnsureParentDir(path); err != nil {
		h.metrics.observeUpload("error")
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to create upload directory")
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		h.metrics.observeUpload("error")
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to save file")
		return
	}

	stored, err := h.store.CreateFile(models.StoredFile{
		Key:         key,
		FileName:    upload.Name,
		ContentType: contentType,
		Email:       r.FormValue("email"),
		Path:        path,
		Size:        int64(len(data)),
	})
	if err != nil {
		_ = os.Remove(path)
		h.metrics.observeUpload("error")
		slog.Error("failed to record file", "key", key, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to record file")
		return
	}

	h.metrics.observeUpload("stored")
	slog.Info("receipt stored", "key", stored.Key, "file", stored.FileName, "size", stored.Size)
	writeJSON(w, http.StatusCreated, bills.FileRef{
		FileURL:  h.fileURL(r, stored.Key),
		FileName: stored.FileName,
		Key:      stored.Key,
	})
}

// Download handles GET /api/v1/files/{key}
//
//	@Summary	Download a receipt image
//	@Tags		files
//	@Produce	image/jpeg,image/png
//	@Param		key	path	string	true	"File key"
//	@Success	200
//	@Failure	404	{object}	ErrorResponse
//	@Router		/files/{key} [get]
func (h *FilesHandler) Download(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	f, err := h.store.GetFile(key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrInvalidID) {
			writeJSONError(w, http.StatusNotFound, "not_found", "File not found")
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to get file")
		return
	}

	w.Header().Set("Content-Type", f.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", f.FileName))
	http.ServeFile(w, r, f.Path)
}

func (h *FilesHandler) fileURL(r *http.Request, key string) string {
	base := h.publicURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	return base + "/api/v1/files/" + key
}
