package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/yoodefence/internal/call"
	"github.com/yoockh/yoodefence/internal/models"
	"github.com/yoockh/yoodefence/internal/services"
	"github.com/yoockh/yoodefence/internal/utils"
)

type FeedbackHandler struct {
	feedback   services.FeedbackService
	interviews services.InterviewService
	requester  call.FeedbackRequester
}

// NewFeedbackHandler uses requester for generation so posted transcripts go
// through the same inline or queued path as finished calls.
func NewFeedbackHandler(feedback services.FeedbackService, interviews services.InterviewService, requester call.FeedbackRequester) *FeedbackHandler {
	if requester == nil {
		requester = call.InlineFeedback(feedback)
	}
	return &FeedbackHandler{feedback: feedback, interviews: interviews, requester: requester}
}

type FeedbackReport struct {
	Interview *models.Interview `json:"interview"`
	Feedback  *models.Feedback  `json:"feedback"`
}

func (h *FeedbackHandler) GetByInterview(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	iv, err := h.interviews.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	fb, err := h.feedback.GetByInterview(c.Request.Context(), iv.ID, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, FeedbackReport{Interview: iv, Feedback: fb})
}

type CreateFeedbackRequest struct {
	Transcript []models.TranscriptMessage `json:"transcript" binding:"required"`
	FeedbackID string                     `json:"feedbackId"`
}

type CreateFeedbackResponse struct {
	Success    bool   `json:"success"`
	FeedbackID string `json:"feedbackId,omitempty"`
}

func (h *FeedbackHandler) Create(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	var req CreateFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "FeedbackHandler.Create", "invalid request body", err))
		return
	}

	iv, err := h.interviews.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	id, err := h.requester.RequestFeedback(c.Request.Context(), services.CreateFeedbackParams{
		InterviewID: iv.ID,
		UserID:      userID,
		Transcript:  req.Transcript,
		FeedbackID:  req.FeedbackID,
		Project:     services.ProjectDetailsOf(iv),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, CreateFeedbackResponse{Success: true, FeedbackID: id})
}

func (h *FeedbackHandler) Delete(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	if err := h.feedback.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
