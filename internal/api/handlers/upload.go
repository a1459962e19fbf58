package handlers

import (
	"encoding/base64"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type UploadRequest struct {
	// File is a data URL ("data:<mime>;base64,<payload>")
	File string `json:"file" binding:"required"`
	Type string `json:"type" binding:"required"`
	Name string `json:"name"`
}

type UploadData struct {
	OriginalData  string `json:"originalData"`
	MimeType      string `json:"mimeType"`
	FileName      string `json:"fileName"`
	ExtractedText string `json:"extractedText,omitempty"`
}

// Upload normalizes an uploaded attachment: images pass through untouched,
// PDFs and audio get their text extracted server-side so the chat turn only
// carries plain text for them.
func (h *Handler) Upload(c *gin.Context) {
	var req UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	mimeType, payload, ok := splitDataURL(req.File)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File must be a base64 data URL"})
		return
	}

	data := UploadData{
		OriginalData: req.File,
		MimeType:     mimeType,
		FileName:     req.Name,
	}

	switch req.Type {
	case "image":
		// Nothing to extract; the model sees the pixels

	case "pdf":
		raw, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid base64 payload"})
			return
		}
		data.ExtractedText = h.extractPDFText(raw)

	case "audio":
		raw, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid base64 payload"})
			return
		}
		data.ExtractedText = h.transcribeAudio(raw, mimeType)

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported attachment type"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

func (h *Handler) extractPDFText(raw []byte) string {
	if h.extractor == nil {
		return "[Ekstraksi teks PDF tidak tersedia]"
	}
	text, err := h.extractor.ExtractPDF(raw)
	if err != nil {
		log.Printf("⚠️ PDF extraction failed: %v", err)
		return "[Gagal mengekstrak teks dari PDF]"
	}
	if strings.TrimSpace(text) == "" {
		return "[Tidak ada teks yang dapat diekstrak dari PDF]"
	}
	return text
}

func (h *Handler) transcribeAudio(raw []byte, mimeType string) string {
	if h.extractor == nil {
		return "[Transkripsi audio tidak tersedia]"
	}
	text, err := h.extractor.TranscribeAudio(raw, mimeType)
	if err != nil {
		log.Printf("⚠️ Audio transcription failed: %v", err)
		return "[Gagal mentranskripsi audio]"
	}
	if strings.TrimSpace(text) == "" {
		return "[Tidak ada ucapan yang terdeteksi dalam audio]"
	}
	return text
}

// splitDataURL breaks "data:<mime>;base64,<payload>" into its parts.
func splitDataURL(dataURL string) (mimeType, payload string, ok bool) {
	if !strings.HasPrefix(dataURL, "data:") {
		return "", "", false
	}
	head, payload, found := strings.Cut(dataURL[len("data:"):], ",")
	if !found || !strings.HasSuffix(head, ";base64") {
		return "", "", false
	}
	return strings.TrimSuffix(head, ";base64"), payload, true
}
