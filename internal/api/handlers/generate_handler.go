package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/yoodefence/internal/api/middleware"
	"github.com/yoockh/yoodefence/internal/models"
	"github.com/yoockh/yoodefence/internal/services"
	"github.com/yoockh/yoodefence/internal/utils"
)

// GenerateHandler serves the question generation endpoint used by the
// defence and interview forms.
type GenerateHandler struct {
	svc services.InterviewService
}

func NewGenerateHandler(svc services.InterviewService) *GenerateHandler {
	return &GenerateHandler{svc: svc}
}

// listField accepts either "a, b" or ["a", "b"].
type listField string

func (l *listField) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*l = listField(s)
		return nil
	}
	var arr []string
	if err := json.Unmarshal(b, &arr); err != nil {
		return err
	}
	*l = listField(strings.Join(arr, ","))
	return nil
}

type GenerateRequest struct {
	Type   string `json:"type"` // defence|job-interview, inferred when empty
	UserID string `json:"userId"`

	ProjectTitle     string              `json:"projectTitle"`
	AcademicLevel    string              `json:"academicLevel"`
	TechnologiesUsed listField           `json:"technologiesUsed"`
	FocusRatio       string              `json:"focusRatio"`
	QuestionCount    int                 `json:"questionCount"`
	ProjectFile      *models.ProjectFile `json:"projectFile"`

	Role      string    `json:"role"`
	Level     string    `json:"level"`
	TechStack listField `json:"techstack"`
	Amount    int       `json:"amount"`
	JobType   string    `json:"interviewType"`
}

type GenerateResponse struct {
	Success     bool   `json:"success"`
	InterviewID string `json:"interviewId,omitempty"`
	Error       string `json:"error,omitempty"`
}

func (r *GenerateRequest) kind() models.InterviewKind {
	switch strings.ToLower(strings.TrimSpace(r.Type)) {
	case "defence", "defense":
		return models.KindDefence
	case "job-interview", "interview", "job":
		return models.KindJobInterview
	}
	// type doubles as the job interview style (technical, behavioural, mixed)
	if r.Role != "" && r.ProjectTitle == "" {
		return models.KindJobInterview
	}
	if r.Type == "" {
		return models.KindDefence
	}
	return models.InterviewKind(r.Type)
}

func (r *GenerateRequest) jobType() string {
	if r.JobType != "" {
		return r.JobType
	}
	switch strings.ToLower(strings.TrimSpace(r.Type)) {
	case "", "job-interview", "interview", "job":
		return ""
	}
	return r.Type
}

func (r *GenerateRequest) toService(userID string) services.GenerateRequest {
	out := services.GenerateRequest{Kind: r.kind(), UserID: userID}
	if out.Kind == models.KindJobInterview {
		amount := r.Amount
		if amount == 0 {
			amount = r.QuestionCount
		}
		out.Job = &services.JobParams{
			Role:      r.Role,
			Level:     r.Level,
			TechStack: string(r.TechStack),
			Type:      r.jobType(),
			Amount:    amount,
		}
		return out
	}
	out.Defence = &services.DefenceParams{
		ProjectTitle:     r.ProjectTitle,
		AcademicLevel:    r.AcademicLevel,
		TechnologiesUsed: string(r.TechnologiesUsed),
		FocusRatio:       r.FocusRatio,
		QuestionCount:    r.QuestionCount,
		ProjectFile:      r.ProjectFile,
	}
	return out
}

func (h *GenerateHandler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadRequest, GenerateResponse{Error: "Invalid request body"})
		return
	}

	// a verified token wins over the body
	userID := c.GetString(middleware.CtxUserID)
	if userID == "" {
		userID = strings.TrimSpace(req.UserID)
	}

	iv, err := h.svc.Generate(c.Request.Context(), req.toService(userID))
	if err != nil {
		_ = c.Error(err)
		if utils.IsCode(err, utils.CodeInvalidArgument) {
			c.JSON(http.StatusBadRequest, GenerateResponse{Error: utils.PublicMessage(err)})
			return
		}
		c.JSON(http.StatusInternalServerError, GenerateResponse{Error: "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, GenerateResponse{Success: true, InterviewID: iv.ID})
}

func (h *GenerateHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, GenerateResponse{Success: true})
}
