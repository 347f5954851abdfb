package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/avelts/filecrate"
)

// Service is the coordinator surface the HTTP layer depends on.
type Service interface {
	Begin(ctx context.Context, objectKey, contentType string, totalSize int64) (*filecrate.UploadSession, error)
	PresignPart(session *filecrate.UploadSession, partNumber int) (string, error)
	RegisterPart(uploadID string, partNumber int, etag string) error
	Complete(ctx context.Context, session *filecrate.UploadSession, filename string, folderID *uuid.UUID, ownerID string) (filecrate.FileRecord, error)
	Abort(ctx context.Context, session *filecrate.UploadSession) error
	Upload(ctx context.Context, objectKey, contentType string, content io.ReaderAt, totalSize int64, filename string, folderID *uuid.UUID, ownerID string) (filecrate.FileRecord, error)
	PresignPut(objectKey, contentType string) (string, error)
	SaveFile(ctx context.Context, filename, path string, size int64, folderID *uuid.UUID, ownerID string) (filecrate.FileRecord, error)
	DeleteFile(ctx context.Context, id uuid.UUID) error
	FilesForOwner(ctx context.Context, ownerID string) ([]filecrate.FileRecord, error)
	ListBucket(ctx context.Context) ([]filecrate.ObjectEntry, error)
	CreateFolder(ctx context.Context, name, ownerID string) (filecrate.Folder, error)
	FoldersForOwner(ctx context.Context, ownerID string) ([]filecrate.Folder, error)
	Registry() *filecrate.SessionRegistry
}

type CORSConfig struct {
	Enabled          bool
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

type HandlerConfig struct {
	CORS CORSConfig
	// MaxUploadBytes caps the server-buffered upload body. Zero means the
	// default of 1 GiB.
	MaxUploadBytes int64
}

// Handler provides the HTTP handlers for the upload coordinator API.
type Handler struct {
	config  HandlerConfig
	service Service
	auth    Authenticator
}

// NewHandler creates a new Handler. Pass nil for auth to leave every route
// public.
func NewHandler(config *HandlerConfig, service Service, auth Authenticator) *Handler {
	h := &Handler{
		config:  *config,
		service: service,
		auth:    auth,
	}
	if h.config.MaxUploadBytes <= 0 {
		h.config.MaxUploadBytes = 1 << 30
	}
	return h
}

// Router returns an http.Handler with all API routes configured.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.Route("/api", func(r chi.Router) {
		// Public routes: pre-sign issuance, bucket listing, and the
		// client-driven multipart protocol.
		r.Get("/files/upload", h.handlePresignPut)
		r.Get("/files/bucket", h.handleListBucket)

		r.Route("/upload", func(r chi.Router) {
			r.Post("/start", h.handleStart)
			r.Post("/sign-part", h.handleSignPart)
			r.Post("/register-part", h.handleRegisterPart)
			r.Post("/complete", h.handleComplete)
			r.Post("/abort", h.handleAbort)
		})

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(h.auth))
			r.Post("/files", h.handleSaveFile)
			r.Get("/files", h.handleListFiles)
			r.Post("/files/upload", h.handleUpload)
			r.Delete("/files/{id}", h.handleDeleteFile)
			r.Post("/folders", h.handleCreateFolder)
			r.Get("/folders", h.handleListFolders)
		})
	})

	return r
}

func (h *Handler) handlePresignPut(w http.ResponseWriter, r *http.Request) {
	filename := r.URL.Query().Get("filename")
	contentType := r.URL.Query().Get("contentType")

	if filename == "" {
		WriteError(w, http.StatusBadRequest, "invalid_input", "filename query parameter is required")
		return
	}

	signedURL, err := h.service.PresignPut(filename, contentType)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, presignPutResponse{
		URL:  signedURL,
		Path: objectPath(signedURL),
	})
}

type presignPutResponse struct {
	URL  string `json:"url"`
	Path string `json:"path"`
}

// objectPath strips the signing query from a pre-signed URL, leaving the
// stable object location the client should register as the record path.
func objectPath(signedURL string) string {
	u, err := url.Parse(signedURL)
	if err != nil {
		return signedURL
	}
	u.RawQuery = ""
	return u.String()
}

type saveFileRequest struct {
	Filename string     `json:"filename"`
	Path     string     `json:"path"`
	Size     int64      `json:"size"`
	FolderID *uuid.UUID `json:"folder_id"`
}

func (h *Handler) handleSaveFile(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())

	var req saveFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_input", "Malformed JSON body")
		return
	}

	record, err := h.service.SaveFile(r.Context(), req.Filename, req.Path, req.Size, req.FolderID, principal)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusCreated, record)
}

func (h *Handler) handleListFiles(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())

	files, err := h.service.FilesForOwner(r.Context(), principal)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, files)
}

func (h *Handler) handleListBucket(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.ListBucket(r.Context())
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, entries)
}

// handleUpload is the server-buffered path: the file arrives as a multipart
// form body and the server relays it to the object store in concurrent parts.
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_input", "file form field is required")
		return
	}
	defer func() { _ = file.Close() }()

	var folderID *uuid.UUID
	if raw := r.FormValue("folder_id"); raw != "" {
		id, parseErr := uuid.Parse(raw)
		if parseErr != nil {
			WriteError(w, http.StatusBadRequest, "invalid_input", "folder_id must be a UUID")
			return
		}
		folderID = &id
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	record, err := h.service.Upload(r.Context(), header.Filename, contentType, file, header.Size, header.Filename, folderID, principal)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusCreated, record)
}

func (h *Handler) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_input", "file id must be a UUID")
		return
	}

	if err := h.service.DeleteFile(r.Context(), id); err != nil {
		HandleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type startRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

type startResponse struct {
	UploadID  string `json:"upload_id"`
	Key       string `json:"key"`
	PartSize  int64  `json:"part_size"`
	PartCount int    `json:"part_count"`
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_input", "Malformed JSON body")
		return
	}

	session, err := h.service.Begin(r.Context(), req.Filename, req.ContentType, req.Size)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusCreated, startResponse{
		UploadID:  session.UploadID,
		Key:       session.ObjectKey,
		PartSize:  session.PartSize,
		PartCount: session.ExpectedPartCount,
	})
}

type signPartRequest struct {
	UploadID   string `json:"upload_id"`
	PartNumber int    `json:"part_number"`
}

type signPartResponse struct {
	URL        string `json:"url"`
	PartNumber int    `json:"part_number"`
}

func (h *Handler) handleSignPart(w http.ResponseWriter, r *http.Request) {
	var req signPartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_input", "Malformed JSON body")
		return
	}

	session, err := h.service.Registry().Get(req.UploadID)
	if err != nil {
		HandleError(w, err)
		return
	}

	signedURL, err := h.service.PresignPart(session, req.PartNumber)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, signPartResponse{URL: signedURL, PartNumber: req.PartNumber})
}

type registerPartRequest struct {
	UploadID   string `json:"upload_id"`
	PartNumber int    `json:"part_number"`
	ETag       string `json:"etag"`
}

func (h *Handler) handleRegisterPart(w http.ResponseWriter, r *http.Request) {
	var req registerPartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_input", "Malformed JSON body")
		return
	}

	if err := h.service.RegisterPart(req.UploadID, req.PartNumber, req.ETag); err != nil {
		HandleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type completeRequest struct {
	UploadID string     `json:"upload_id"`
	Filename string     `json:"filename"`
	FolderID *uuid.UUID `json:"folder_id"`
	OwnerID  string     `json:"owner_id"`
	// Parts may carry the full manifest inline instead of per-part
	// register-part calls; entries already registered are no-ops.
	Parts []filecrate.CompletedPart `json:"parts"`
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_input", "Malformed JSON body")
		return
	}

	session, err := h.service.Registry().Get(req.UploadID)
	if err != nil {
		HandleError(w, err)
		return
	}

	for _, part := range req.Parts {
		if err := h.service.RegisterPart(req.UploadID, part.PartNumber, part.ETag); err != nil {
			HandleError(w, err)
			return
		}
	}

	record, err := h.service.Complete(r.Context(), session, req.Filename, req.FolderID, req.OwnerID)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusCreated, record)
}

type abortRequest struct {
	UploadID string `json:"upload_id"`
}

func (h *Handler) handleAbort(w http.ResponseWriter, r *http.Request) {
	var req abortRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_input", "Malformed JSON body")
		return
	}

	session, err := h.service.Registry().Get(req.UploadID)
	if err != nil {
		HandleError(w, err)
		return
	}

	if err := h.service.Abort(r.Context(), session); err != nil {
		HandleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type createFolderRequest struct {
	Name string `json:"name"`
}

func (h *Handler) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())

	var req createFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_input", "Malformed JSON body")
		return
	}

	folder, err := h.service.CreateFolder(r.Context(), req.Name, principal)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusCreated, folder)
}

func (h *Handler) handleListFolders(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())

	folders, err := h.service.FoldersForOwner(r.Context(), principal)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, folders)
}

var _ Service = (*filecrate.Coordinator)(nil)
