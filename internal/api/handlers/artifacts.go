package handlers

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vibzlabs/vibz-api/internal/apperr"
)

const (
	wavSuffix  = ".wav"
	jsonSuffix = ".json"
)

// ArtifactsHandler serves generated waveforms and metadata sidecars out of
// the flat outputs directory.
type ArtifactsHandler struct {
	outputsDir string
}

// NewArtifactsHandler creates an artifacts handler rooted at outputsDir.
func NewArtifactsHandler(outputsDir string) *ArtifactsHandler {
	return &ArtifactsHandler{outputsDir: outputsDir}
}

// GetAudio handles GET /audio/:filename for {uuid}.wav artifacts.
func (h *ArtifactsHandler) GetAudio(c *gin.Context) {
	h.serve(c, wavSuffix, "audio/wav")
}

// GetMeta handles GET /meta/:filename for {uuid}.json sidecars.
func (h *ArtifactsHandler) GetMeta(c *gin.Context) {
	h.serve(c, jsonSuffix, "application/json")
}

func (h *ArtifactsHandler) serve(c *gin.Context, suffix, contentType string) {
	filename := c.Param("filename")
	if !strings.HasSuffix(filename, suffix) {
		respondError(c, apperr.New(apperr.Validation, "Only %s files are supported", suffix))
		return
	}

	// Base strips any path separators smuggled into the route param.
	path := filepath.Join(h.outputsDir, filepath.Base(filename))
	if _, err := os.Stat(path); err != nil {
		respondError(c, apperr.New(apperr.NotFound, "File not found"))
		return
	}

	c.Header("Content-Type", contentType)
	c.File(path)
}
