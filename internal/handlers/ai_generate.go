package handlers

import (
	"net/http"

	"github.com/mathewgeejo/would-you-rather/internal/models"
	"github.com/mathewgeejo/would-you-rather/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type AIGenerateHandler struct {
	questionService *services.QuestionService
	aiService       *services.AIGenerateService
}

func NewAIGenerateHandler(questionService *services.QuestionService, aiService *services.AIGenerateService) *AIGenerateHandler {
	return &AIGenerateHandler{questionService: questionService, aiService: aiService}
}

type GenerateRequest struct {
	Prompt string `json:"prompt" binding:"required,min=3,max=500"`
	Count  int    `json:"count" binding:"omitempty,min=1,max=10"`
}

// CheckAI godoc
// @Summary      Check whether AI generation is configured
// @Tags         ai
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} map[string]bool
// @Router       /api/v1/questions/ai-status [get]
func (h *AIGenerateHandler) CheckAI(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"available": h.aiService.IsAvailable()})
}

// Generate godoc
// @Summary      Generate question drafts with AI
// @Description  Drafts are stored as pending questions and earn the reduced reward on approval
// @Tags         ai
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body GenerateRequest true "Theme"
// @Success      201 {array} models.Question
// @Failure      503 {object} ErrorResponse
// @Router       /api/v1/questions/generate [post]
func (h *AIGenerateHandler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if !h.aiService.IsAvailable() {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "AI generation is not configured"})
		return
	}

	drafts, err := h.aiService.Generate(req.Prompt, req.Count)
	if err != nil {
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error()})
		return
	}

	userID := c.GetUint("user_id")
	questions := make([]*models.Question, 0, len(drafts))
	for _, d := range drafts {
		question, err := h.questionService.Create(userID, d.OptionA, d.OptionB, d.Category, true)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id":  userID,
				"category": d.Category,
			}).WithError(err).Error("failed to save generated question")
			continue
		}
		questions = append(questions, question)
	}

	c.JSON(http.StatusCreated, questions)
}
