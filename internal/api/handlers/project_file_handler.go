package handlers

import (
	"bytes"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/yoodefence/internal/services"
	"github.com/yoockh/yoodefence/internal/utils"
)

type ProjectFileHandler struct {
	svc services.ProjectFileService
}

func NewProjectFileHandler(svc services.ProjectFileService) *ProjectFileHandler {
	return &ProjectFileHandler{svc: svc}
}

func (h *ProjectFileHandler) Upload(c *gin.Context) {
	const op = "ProjectFileHandler.Upload"

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "missing multipart field 'file'", err))
		return
	}
	if fh.Size <= 0 || fh.Size > services.MaxProjectFileSize {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "file too large (max 20MB)", nil))
		return
	}

	file, err := fh.Open()
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, op, "failed to open upload", err))
		return
	}
	defer file.Close()

	head := make([]byte, 512)
	n, _ := io.ReadFull(file, head)
	head = head[:n]

	row, err := h.svc.Upload(c.Request.Context(), userID, fh.Filename, detectType(fh.Filename, head), fh.Size,
		&readJoin{a: bytes.NewReader(head), b: file})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"file": row, "projectFile": row.Descriptor()})
}

func (h *ProjectFileHandler) ListMine(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	rows, err := h.svc.ListByUser(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": rows})
}

// detectType sniffs the content and falls back to the extension for
// containers (docx, pptx) that sniff as zip and for markdown.
func detectType(name string, head []byte) string {
	ct := http.DetectContentType(head)
	ext := strings.ToLower(filepath.Ext(name))
	switch {
	case ext == ".md" && strings.HasPrefix(ct, "text/plain"):
		return "text/markdown"
	case ct == "application/zip" || ct == "application/octet-stream":
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			return byExt
		}
		switch ext {
		case ".docx":
			return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
		case ".pptx":
			return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
		case ".doc":
			return "application/msword"
		}
	}
	return ct
}

type readJoin struct {
	a *bytes.Reader
	b io.Reader
}

func (r *readJoin) Read(p []byte) (int, error) {
	if r.a != nil && r.a.Len() > 0 {
		return r.a.Read(p)
	}
	return r.b.Read(p)
}
