// Package portal serves the APK management page and its form endpoints.
package portal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/imedwei/apk-portal/internal/metrics"
	"github.com/imedwei/apk-portal/internal/storage"
	"github.com/imedwei/apk-portal/internal/utils"
)

// multipartMemory is how much of a multipart body is held in memory before
// the standard library spills file parts to disk.
const multipartMemory = 32 << 20

// Options configures a Handler.
type Options struct {
	Prefix         string           // key prefix, e.g. "apks/"
	MaxUploadBytes int64            // 0 means no cap
	Location       *time.Location   // display time zone; nil uses time.Local
	Now            func() time.Time // clock for key generation; nil uses time.Now
}

// Handler implements the portal routes on top of a Storage.
type Handler struct {
	storage        storage.Storage
	prefix         string
	maxUploadBytes int64
	location       *time.Location
	keys           *utils.KeyGenerator
	logger         *slog.Logger
}

// NewHandler creates a new portal handler.
func NewHandler(store storage.Storage, opts Options, logger *slog.Logger) *Handler {
	return &Handler{
		storage:        store,
		prefix:         opts.Prefix,
		maxUploadBytes: opts.MaxUploadBytes,
		location:       opts.Location,
		keys:           utils.NewKeyGenerator(opts.Now),
		logger:         logger,
	}
}

// RegisterRoutes mounts the portal routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Index)
	r.Group(func(r chi.Router) {
		r.Use(h.limitBody)
		r.Post("/upload", h.Upload)
		r.Post("/delete", h.Delete)
		r.Post("/update", h.Update)
	})
}

// List returns every package under the prefix in backend order.
func (h *Handler) List(ctx context.Context) ([]Package, error) {
	objects, err := h.storage.List(ctx, h.prefix)
	if err != nil {
		return nil, err
	}

	packages := make([]Package, 0, len(objects))
	for _, obj := range objects {
		packages = append(packages, newPackage(h.prefix, obj, h.storage.PublicURL(obj.Key)))
	}
	metrics.ListedPackages.Set(float64(len(packages)))
	return packages, nil
}

// Index renders the package list.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	packages, err := h.List(r.Context())
	if err != nil {
		h.fail(w, "index", "Failed to load APKs", err)
		return
	}

	var page bytes.Buffer
	if err := renderIndex(&page, packages, h.location); err != nil {
		h.fail(w, "index", "Failed to load APKs", err)
		return
	}

	metrics.RecordRequest("index", true)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = page.WriteTo(w)
}

// Upload stores a new package under a freshly minted key.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	data, filename, err := readFilePart(r, ErrNoFile)
	if err != nil {
		h.fail(w, "upload", "Upload failed", err)
		return
	}

	key := h.keys.Next(h.prefix, filename)
	if err := h.put(r.Context(), key, data); err != nil {
		h.fail(w, "upload", "Upload failed", err)
		return
	}

	h.logger.Info("Package uploaded", "key", key, "size", utils.FormatBytes(int64(len(data))))
	h.succeed(w, r, "upload")
}

// Update overwrites the body at an existing key. The key is not checked for
// existence, so updating an unknown key creates it.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		h.fail(w, "update", "Update failed", err)
		return
	}

	key := r.FormValue("key")
	if key == "" {
		h.fail(w, "update", "Update failed", ErrInvalidKey)
		return
	}

	data, _, err := readFilePart(r, ErrNoUpdateFile)
	if err != nil {
		h.fail(w, "update", "Update failed", err)
		return
	}

	if err := h.put(r.Context(), key, data); err != nil {
		h.fail(w, "update", "Update failed", err)
		return
	}

	h.logger.Info("Package replaced", "key", key, "size", utils.FormatBytes(int64(len(data))))
	h.succeed(w, r, "update")
}

// Delete removes a package. Missing keys are not an error.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		h.fail(w, "delete", "Delete failed", err)
		return
	}

	key := r.FormValue("key")
	if key == "" {
		h.fail(w, "delete", "Delete failed", ErrInvalidKey)
		return
	}

	if err := h.storage.Delete(r.Context(), key); err != nil {
		h.fail(w, "delete", "Delete failed", err)
		return
	}

	h.logger.Info("Package deleted", "key", key)
	h.succeed(w, r, "delete")
}

// put uploads the buffered body with the package content type.
func (h *Handler) put(ctx context.Context, key string, data []byte) error {
	return h.storage.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), storage.PackageContentType)
}

// limitBody caps request bodies when a maximum upload size is configured.
func (h *Handler) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.maxUploadBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) succeed(w http.ResponseWriter, r *http.Request, route string) {
	metrics.RecordRequest(route, true)
	http.Redirect(w, r, "/", http.StatusFound)
}

// fail logs err and writes it verbatim behind action as a 500 response.
func (h *Handler) fail(w http.ResponseWriter, route, action string, err error) {
	metrics.RecordRequest(route, false)
	if isValidation(err) {
		h.logger.Warn(action, "route", route, "error", err)
	} else {
		h.logger.Error(action, "route", route, "error", err)
	}
	http.Error(w, fmt.Sprintf("%s: %s", action, err.Error()), http.StatusInternalServerError)
}

// readFilePart buffers the "file" part fully in memory. A missing part, or a
// body that is not multipart at all, is reported as missing.
func readFilePart(r *http.Request, missing error) ([]byte, string, error) {
	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, "", missing
		}
		return nil, "", fmt.Errorf("failed to read form: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read file: %w", err)
	}
	return data, header.Filename, nil
}

// parseForm parses multipart or urlencoded bodies, whichever was sent.
func parseForm(r *http.Request) error {
	err := r.ParseMultipartForm(multipartMemory)
	if err == nil || errors.Is(err, http.ErrNotMultipart) {
		return nil
	}
	return fmt.Errorf("failed to read form: %w", err)
}
