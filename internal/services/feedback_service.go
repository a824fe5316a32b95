package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/yoodefence/internal/models"
	"github.com/yoockh/yoodefence/internal/providers/llm"
	"github.com/yoockh/yoodefence/internal/repositories"
	"github.com/yoockh/yoodefence/internal/utils"
)

// ProjectDetails selects the defence rubric and feeds the examiner prompt.
type ProjectDetails struct {
	ProjectTitle     string              `json:"projectTitle"`
	AcademicLevel    string              `json:"academicLevel"`
	TechnologiesUsed string              `json:"technologiesUsed"`
	ProjectFile      *models.ProjectFile `json:"projectFile,omitempty"`
}

func ProjectDetailsOf(iv *models.Interview) *ProjectDetails {
	if iv == nil || iv.Defence == nil {
		return nil
	}
	return &ProjectDetails{
		ProjectTitle:     iv.Defence.ProjectTitle,
		AcademicLevel:    iv.Defence.AcademicLevel,
		TechnologiesUsed: strings.Join(iv.Defence.TechnologiesUsed, ", "),
		ProjectFile:      iv.Defence.ProjectFile,
	}
}

type CreateFeedbackParams struct {
	InterviewID string                     `json:"interviewId"`
	UserID      string                     `json:"userId"`
	Transcript  []models.TranscriptMessage `json:"transcript"`
	// FeedbackID merges the transcript into an existing record.
	FeedbackID string          `json:"feedbackId,omitempty"`
	Project    *ProjectDetails `json:"projectDetails,omitempty"`
}

type FeedbackService interface {
	Create(ctx context.Context, p CreateFeedbackParams) (*models.Feedback, error)
	GetByInterview(ctx context.Context, interviewID, userID string) (*models.Feedback, error)
	Get(ctx context.Context, id, userID string) (*models.Feedback, error)
	Delete(ctx context.Context, id, userID string) error
}

type feedbackService struct {
	feedback   repositories.FeedbackRepository
	interviews repositories.InterviewRepository
	llm        llm.Provider
	log        logrus.FieldLogger
}

func NewFeedbackService(
	feedback repositories.FeedbackRepository,
	interviews repositories.InterviewRepository,
	provider llm.Provider,
	log logrus.FieldLogger,
) FeedbackService {
	return &feedbackService{feedback: feedback, interviews: interviews, llm: provider, log: log}
}

func (s *feedbackService) Create(ctx context.Context, p CreateFeedbackParams) (*models.Feedback, error) {
	const op = "FeedbackService.Create"

	if p.InterviewID == "" || p.UserID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "interviewId and userId are required", nil)
	}
	if len(p.Transcript) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "transcript is empty", nil)
	}

	if p.FeedbackID == "" {
		// at most one record per interview and user
		existing, err := s.feedback.FindByInterview(ctx, p.InterviewID, p.UserID)
		switch {
		case err == nil:
			p.FeedbackID = existing.ID
		case !errors.Is(err, utils.ErrNotFound):
			return nil, utils.E(utils.CodeInternal, op, "failed to look up feedback", err)
		}
	}
	if p.FeedbackID != "" {
		return s.merge(ctx, op, p)
	}

	iv, err := s.interviews.GetByID(ctx, p.InterviewID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "interview not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get interview", err)
	}
	if p.Project == nil {
		p.Project = ProjectDetailsOf(iv)
	}

	rubric := models.InterviewRubric
	if p.Project != nil {
		rubric = models.DefenceRubric
	}
	if s.llm == nil {
		return nil, utils.E(utils.CodeUnavailable, op, "language model is not configured", nil)
	}

	system, prompt := feedbackPrompts(rubric, p)
	raw, err := s.llm.GenerateJSON(ctx, system, prompt, FeedbackSchema(rubric))
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to generate feedback", err)
	}

	parsed, err := models.ParseAssessment([]byte(raw))
	if err != nil {
		return nil, utils.E(utils.CodeUpstream, op, "model returned malformed feedback", err)
	}
	a := *parsed
	if err := models.ValidateAssessment(rubric, &a); err != nil {
		return nil, utils.E(utils.CodeUpstream, op, "model returned invalid feedback", err)
	}
	rubric.Normalize(&a)
	if rubric.Kind != models.KindDefence {
		a.DocumentationInsights = ""
	}

	fb := &models.Feedback{
		InterviewID: p.InterviewID,
		UserID:      p.UserID,
		Kind:        rubric.Kind,
		Assessment:  a,
		Transcript:  p.Transcript,
	}
	if err := s.feedback.Save(ctx, fb); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to save feedback", err)
	}

	s.log.WithFields(logrus.Fields{
		"feedback_id":  fb.ID,
		"interview_id": fb.InterviewID,
		"user_id":      fb.UserID,
		"kind":         fb.Kind,
		"total_score":  fb.TotalScore,
	}).Info("feedback created")
	return fb, nil
}

// merge appends the transcript to an existing record without rescoring.
func (s *feedbackService) merge(ctx context.Context, op string, p CreateFeedbackParams) (*models.Feedback, error) {
	fb, err := s.owned(ctx, op, p.FeedbackID, p.UserID)
	if err != nil {
		return nil, err
	}
	if fb.InterviewID != p.InterviewID {
		return nil, utils.E(utils.CodeInvalidArgument, op, "feedback belongs to another interview", nil)
	}
	fb.Transcript = append(fb.Transcript, p.Transcript...)
	if err := s.feedback.Save(ctx, fb); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to update feedback", err)
	}
	s.log.WithFields(logrus.Fields{"feedback_id": fb.ID, "appended": len(p.Transcript)}).Info("feedback transcript merged")
	return fb, nil
}

func (s *feedbackService) owned(ctx context.Context, op, id, userID string) (*models.Feedback, error) {
	fb, err := s.feedback.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "feedback not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get feedback", err)
	}
	if fb.UserID != userID {
		return nil, utils.E(utils.CodeForbidden, op, "unauthorized", utils.ErrForbidden)
	}
	return fb, nil
}

func (s *feedbackService) GetByInterview(ctx context.Context, interviewID, userID string) (*models.Feedback, error) {
	const op = "FeedbackService.GetByInterview"

	if interviewID == "" || userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "interviewId and userId are required", nil)
	}
	fb, err := s.feedback.FindByInterview(ctx, interviewID, userID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "feedback not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get feedback", err)
	}
	return fb, nil
}

func (s *feedbackService) Get(ctx context.Context, id, userID string) (*models.Feedback, error) {
	const op = "FeedbackService.Get"

	if id == "" || userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "id and userId are required", nil)
	}
	return s.owned(ctx, op, id, userID)
}

func (s *feedbackService) Delete(ctx context.Context, id, userID string) error {
	const op = "FeedbackService.Delete"

	if id == "" || userID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "id and userId are required", nil)
	}
	if _, err := s.owned(ctx, op, id, userID); err != nil {
		return err
	}
	if err := s.feedback.Delete(ctx, id); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "feedback not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to delete feedback", err)
	}
	return nil
}

// FeedbackSchema describes the JSON the model must return for rubric r.
func FeedbackSchema(r models.Rubric) *llm.Schema {
	score := &llm.Schema{Type: llm.TypeInteger, Minimum: llm.Float(0), Maximum: llm.Float(100)}
	texts := &llm.Schema{Type: llm.TypeArray, Items: &llm.Schema{Type: llm.TypeString}, MinItems: llm.Int(1)}

	props := map[string]*llm.Schema{
		"totalScore": score,
		"categoryScores": {
			Type:        llm.TypeArray,
			Description: "Exactly these categories in this order: " + strings.Join(r.Categories, ", "),
			MinItems:    llm.Int(len(r.Categories)),
			MaxItems:    llm.Int(len(r.Categories)),
			Items: &llm.Schema{
				Type:  llm.TypeObject,
				Order: []string{"name", "score", "comment"},
				Properties: map[string]*llm.Schema{
					"name":    {Type: llm.TypeString, Enum: r.Categories},
					"score":   score,
					"comment": {Type: llm.TypeString},
				},
				Required: []string{"name", "score", "comment"},
			},
		},
		"strengths":           texts,
		"areasForImprovement": texts,
		"finalAssessment":     {Type: llm.TypeString},
	}
	order := []string{"totalScore", "categoryScores", "strengths", "areasForImprovement", "finalAssessment"}
	if r.RequireInsights {
		props["documentationInsights"] = &llm.Schema{Type: llm.TypeString}
		order = append(order, "documentationInsights")
	}
	return &llm.Schema{
		Type:       llm.TypeObject,
		Properties: props,
		Order:      order,
		Required:   order,
	}
}

func feedbackPrompts(r models.Rubric, p CreateFeedbackParams) (system, prompt string) {
	transcript := models.FormatTranscript(p.Transcript)

	if r.Kind == models.KindDefence {
		pd := p.Project
		level := orDefault(pd.AcademicLevel, "undergraduate")
		system = fmt.Sprintf(`ROLE: Senior Academic Examiner
MANDATE: Maintain PhD-level defence standards
BEHAVIOR:
- Identify weaknesses in technical explanations
- Compare responses against the project documentation
- Apply %s grading rubrics strictly
- Never assume unstated knowledge
- Flag undocumented claims as negative marks
OUTPUT: JSON scores with justification paragraphs`, level)

		var b strings.Builder
		b.WriteString("ANALYZE PROJECT DEFENCE PERFORMANCE\n")
		b.WriteString("As an academic defence evaluator, critically assess the student's performance using:\n")
		if pd.ProjectFile != nil {
			fmt.Fprintf(&b, "Project documentation: %s (%s)\n", pd.ProjectFile.Name, pd.ProjectFile.Type)
		}
		fmt.Fprintf(&b, "Defence transcript:\n%s\n", transcript)
		b.WriteString("Evaluation criteria (0-100):\n")
		fmt.Fprintf(&b, "- Technical Depth: understanding of %s and implementation challenges\n", orDefault(pd.TechnologiesUsed, "the technologies used"))
		fmt.Fprintf(&b, "- Methodology Rigor: validity of the research approach of %s\n", orDefault(pd.ProjectTitle, "the project"))
		b.WriteString("- Presentation Skills: clarity in explaining complex concepts\n")
		b.WriteString("- Critical Analysis: quality of responses to examiner challenges\n")
		b.WriteString("- Documentation Alignment: consistency between defence answers and project files\n")
		b.WriteString("Special instructions:\n")
		if pd.ProjectFile != nil {
			fmt.Fprintf(&b, "- Cross-reference answers with diagrams and code from %s\n", pd.ProjectFile.Name)
		} else {
			b.WriteString("- Analyze the depth of technical explanations\n")
		}
		b.WriteString("- Highlight any discrepancies between documentation and verbal explanations\n")
		fmt.Fprintf(&b, "- Identify 3 key areas for improvement based on %s standards\n", level)
		b.WriteString("- Be strict on validation methods and result interpretation\n")
		b.WriteString("- Summarize documentation findings in documentationInsights\n")
		return system, b.String()
	}

	system = "You are a professional interviewer analyzing a mock interview. Your task is to evaluate the candidate based on structured categories."
	prompt = fmt.Sprintf(`You are an AI interviewer analyzing a mock interview. Evaluate the candidate based on structured categories. Be thorough and detailed. Don't be lenient with the candidate. If there are mistakes or areas for improvement, point them out.
Transcript:
%s
Score the candidate from 0 to 100 in the following areas. Do not add categories other than the ones provided:
- Communication Skills: clarity, articulation, structured responses.
- Technical Knowledge: understanding of key concepts for the role.
- Problem Solving: ability to analyze problems and propose solutions.
- Cultural Fit: alignment with company values and job role.
- Confidence and Clarity: confidence in responses, engagement, and clarity.
`, transcript)
	return system, prompt
}
