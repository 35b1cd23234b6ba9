package handler

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"vaultdrive/internal/auth"
	"vaultdrive/internal/domain"
	"vaultdrive/internal/service"
)

type FileHandler struct {
	auth        *auth.Authenticator
	fileService *service.FileService
}

func NewFileHandler(a *auth.Authenticator, fileService *service.FileService) *FileHandler {
	return &FileHandler{auth: a, fileService: fileService}
}

func (h *FileHandler) fileUUID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "uuid"))
}

// UploadFile handles POST /api/files, a multipart form with a "file" part.
func (h *FileHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	userID, err := h.auth.VerifyRequest(r)
	if err != nil {
		respondMessage(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "missing file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		log.Printf("Failed to read upload body: %v", err)
		respondMessage(w, http.StatusBadRequest, "failed to read file")
		return
	}

	meta, err := h.fileService.Upload(r.Context(), userID, header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		log.Printf("Upload failed for user %s: %v", userID, err)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, meta)
}

// DownloadFile handles GET /api/files/{uuid}/download.
func (h *FileHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	h.serveContent(w, r, true)
}

// ViewFile handles GET /api/files/{uuid}/view: same payload, inline
// disposition so text and images render in the browser.
func (h *FileHandler) ViewFile(w http.ResponseWriter, r *http.Request) {
	h.serveContent(w, r, false)
}

func (h *FileHandler) serveContent(w http.ResponseWriter, r *http.Request, attachment bool) {
	userID, err := h.auth.VerifyRequest(r)
	if err != nil {
		respondMessage(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	fileUUID, err := h.fileUUID(r)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid file id")
		return
	}

	var download *domain.FileDownload
	if attachment {
		download, err = h.fileService.Download(r.Context(), userID, fileUUID)
	} else {
		download, err = h.fileService.View(r.Context(), userID, fileUUID)
	}
	if err != nil {
		log.Printf("Download failed for user %s, file %s: %v", userID, fileUUID, err)
		respondError(w, err)
		return
	}

	// filename* keeps non-ASCII names intact, the plain filename is the
	// ASCII fallback.
	disposition := "inline"
	if attachment {
		disposition = "attachment"
	}
	encodedName := url.QueryEscape(download.File.Name)
	asciiName := strings.ReplaceAll(download.File.Name, `"`, `\"`)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`%s; filename="%s"; filename*=UTF-8''%s`, disposition, asciiName, encodedName))
	w.Header().Set("Content-Type", download.File.MIMEType)
	w.Header().Set("Content-Length", strconv.Itoa(len(download.Data)))

	w.Write(download.Data)
}

// SaveFile handles PUT /api/files/{uuid}/content, an in-place replace of a
// file's content from the inline editor.
func (h *FileHandler) SaveFile(w http.ResponseWriter, r *http.Request) {
	userID, err := h.auth.VerifyRequest(r)
	if err != nil {
		respondMessage(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	fileUUID, err := h.fileUUID(r)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid file id")
		return
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "failed to read body")
		return
	}

	if err := h.fileService.SaveContent(r.Context(), userID, fileUUID, data); err != nil {
		log.Printf("Save failed for user %s, file %s: %v", userID, fileUUID, err)
		respondError(w, err)
		return
	}

	respondMessage(w, http.StatusOK, "file saved")
}

// DeleteFile handles DELETE /api/files/{uuid}, a soft delete to the bin.
func (h *FileHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	userID, err := h.auth.VerifyRequest(r)
	if err != nil {
		respondMessage(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	fileUUID, err := h.fileUUID(r)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid file id")
		return
	}

	if err := h.fileService.MoveToBin(r.Context(), userID, fileUUID); err != nil {
		log.Printf("Delete failed for user %s, file %s: %v", userID, fileUUID, err)
		respondError(w, err)
		return
	}

	respondMessage(w, http.StatusOK, "file moved to bin")
}

// RestoreFile handles POST /api/files/{uuid}/restore.
func (h *FileHandler) RestoreFile(w http.ResponseWriter, r *http.Request) {
	userID, err := h.auth.VerifyRequest(r)
	if err != nil {
		respondMessage(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	fileUUID, err := h.fileUUID(r)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid file id")
		return
	}

	if err := h.fileService.Restore(r.Context(), userID, fileUUID); err != nil {
		log.Printf("Restore failed for user %s, file %s: %v", userID, fileUUID, err)
		respondError(w, err)
		return
	}

	respondMessage(w, http.StatusOK, "file restored")
}

// PurgeFile handles DELETE /api/files/{uuid}/permanent.
func (h *FileHandler) PurgeFile(w http.ResponseWriter, r *http.Request) {
	userID, err := h.auth.VerifyRequest(r)
	if err != nil {
		respondMessage(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	fileUUID, err := h.fileUUID(r)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid file id")
		return
	}

	if err := h.fileService.Purge(r.Context(), userID, fileUUID); err != nil {
		log.Printf("Purge failed for user %s, file %s: %v", userID, fileUUID, err)
		respondError(w, err)
		return
	}

	respondMessage(w, http.StatusOK, "file deleted permanently")
}

// ListFiles handles GET /api/files?search=, listing active files, own and
// shared.
func (h *FileHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	userID, err := h.auth.VerifyRequest(r)
	if err != nil {
		respondMessage(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	files, err := h.fileService.ListActive(r.Context(), userID, r.URL.Query().Get("search"))
	if err != nil {
		log.Printf("Failed to list files for user %s: %v", userID, err)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, files)
}

// ListSharedByMe handles GET /api/files/shared-by-me.
func (h *FileHandler) ListSharedByMe(w http.ResponseWriter, r *http.Request) {
	userID, err := h.auth.VerifyRequest(r)
	if err != nil {
		respondMessage(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	files, err := h.fileService.ListSharedByMe(r.Context(), userID)
	if err != nil {
		log.Printf("Failed to list shared-by-me for user %s: %v", userID, err)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, files)
}

// ListSharedToMe handles GET /api/files/shared-with-me.
func (h *FileHandler) ListSharedToMe(w http.ResponseWriter, r *http.Request) {
	userID, err := h.auth.VerifyRequest(r)
	if err != nil {
		respondMessage(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	files, err := h.fileService.ListSharedToMe(r.Context(), userID)
	if err != nil {
		log.Printf("Failed to list shared-with-me for user %s: %v", userID, err)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, files)
}
