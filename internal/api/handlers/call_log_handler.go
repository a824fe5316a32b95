package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/yoodefence/internal/services"
)

type CallLogHandler struct {
	svc services.CallLogService
}

func NewCallLogHandler(svc services.CallLogService) *CallLogHandler {
	return &CallLogHandler{svc: svc}
}

// List returns recent calls, or one interview's calls with ?interview_id=.
func (h *CallLogHandler) List(c *gin.Context) {
	if id := c.Query("interview_id"); id != "" {
		rows, err := h.svc.ListByInterview(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"call_logs": rows})
		return
	}
	rows, err := h.svc.ListRecent(c.Request.Context(), queryInt(c, "limit", 50))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"call_logs": rows})
}
