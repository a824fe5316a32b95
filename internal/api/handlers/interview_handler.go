package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/yoodefence/internal/models"
	"github.com/yoockh/yoodefence/internal/services"
	"github.com/yoockh/yoodefence/internal/utils"
)

type InterviewHandler struct {
	interviews services.InterviewService
	feedback   services.FeedbackService
}

func NewInterviewHandler(interviews services.InterviewService, feedback services.FeedbackService) *InterviewHandler {
	return &InterviewHandler{interviews: interviews, feedback: feedback}
}

type InterviewDetail struct {
	models.Interview
	// FeedbackID is the caller's existing feedback, empty if none.
	FeedbackID string `json:"feedbackId,omitempty"`
}

func (h *InterviewHandler) ListMine(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	out, err := h.interviews.ListByUser(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"interviews": out})
}

func (h *InterviewHandler) ListLatest(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	out, err := h.interviews.ListLatest(c.Request.Context(), userID, queryInt(c, "limit", 20))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"interviews": out})
}

func (h *InterviewHandler) Get(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	iv, err := h.interviews.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	out := InterviewDetail{Interview: *iv}
	fb, err := h.feedback.GetByInterview(c.Request.Context(), iv.ID, userID)
	switch {
	case err == nil:
		out.FeedbackID = fb.ID
	case !utils.IsCode(err, utils.CodeNotFound):
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *InterviewHandler) Delete(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	if err := h.interviews.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
