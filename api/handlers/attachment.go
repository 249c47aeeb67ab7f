package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/juridibot/legal-chat-api/api"
	"github.com/juridibot/legal-chat-api/config"
	"github.com/juridibot/legal-chat-api/models"
)

const maxAttachmentBytes = 10 << 20

// Attachment handles uploads to the file service; messages reference the
// returned FileRef, the gateway never carries file bytes
type Attachment struct {
	CloudinaryURL string
}

// UploadHandler accepts a multipart "file" field and stores it in cloudinary
func (a Attachment) UploadHandler(w http.ResponseWriter, r *http.Request) {
	if a.CloudinaryURL == "" {
		config.ErrorStatus("file uploads are not configured", http.StatusServiceUnavailable, w, errors.New("missing CLOUDINARY_URL"))
		return
	}

	if err := r.ParseMultipartForm(maxAttachmentBytes); err != nil {
		config.ErrorStatus("failed to parse upload", http.StatusBadRequest, w, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		config.ErrorStatus("missing file field", http.StatusBadRequest, w, err)
		return
	}
	defer file.Close()

	cld, err := cloudinary.NewFromURL(a.CloudinaryURL)
	if err != nil {
		config.ErrorStatus("failed to initialize upload client", http.StatusInternalServerError, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	res, err := cld.Upload.Upload(ctx, file, uploader.UploadParams{Folder: "chat-attachments"})
	if err != nil {
		config.ErrorStatus("failed to upload file", http.StatusBadGateway, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(models.FileRef{
		ID:   res.PublicID,
		Name: header.Filename,
		URL:  res.SecureURL,
	})
}
