package handlers

import (
	"net/http"
	"strconv"

	"github.com/mathewgeejo/would-you-rather/internal/services"
	"github.com/mathewgeejo/would-you-rather/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type QuestionHandler struct {
	questionService *services.QuestionService
	progression     *services.ProgressionService
	badges          *services.BadgeService
	chat            *services.ChatService
	leaderboard     *services.LeaderboardService
	userService     *services.UserService
	hub             *ws.Hub
}

func NewQuestionHandler(
	questionService *services.QuestionService,
	progression *services.ProgressionService,
	badges *services.BadgeService,
	chat *services.ChatService,
	leaderboard *services.LeaderboardService,
	userService *services.UserService,
	hub *ws.Hub,
) *QuestionHandler {
	return &QuestionHandler{
		questionService: questionService,
		progression:     progression,
		badges:          badges,
		chat:            chat,
		leaderboard:     leaderboard,
		userService:     userService,
		hub:             hub,
	}
}

type CreateQuestionRequest struct {
	OptionA  string `json:"option_a" binding:"required,min=3,max=500"`
	OptionB  string `json:"option_b" binding:"required,min=3,max=500"`
	Category string `json:"category" binding:"omitempty,max=50"`
}

type FlagQuestionRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=255"`
}

type ModerateQuestionRequest struct {
	Approve bool `json:"approve"`
}

// Create godoc
// @Summary      Create a question
// @Description  User submissions are approved immediately and earn points
// @Tags         questions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateQuestionRequest true "Question data"
// @Success      201 {object} models.Question
// @Router       /api/v1/questions [post]
func (h *QuestionHandler) Create(c *gin.Context) {
	var req CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	userID := c.GetUint("user_id")
	question, err := h.questionService.Create(userID, req.OptionA, req.OptionB, req.Category, false)
	if err != nil {
		respondError(c, err)
		return
	}

	if _, _, err := h.progression.AwardQuestionPoints(userID, false); err != nil {
		logrus.WithField("user_id", userID).WithError(err).Error("failed to award question points")
	}
	if earned, err := h.badges.EvaluateAndAward(userID, services.TriggerQuestion); err == nil && len(earned) > 0 {
		h.hub.SendToUser(userID, ws.Event{Type: ws.EvtBadgesEarned, Data: earned})
	}
	if user, err := h.userService.Get(userID); err == nil {
		h.leaderboard.UpdateScore(c.Request.Context(), userID, user.Points)
	}

	c.JSON(http.StatusCreated, question)
}

// Get godoc
// @Summary      Get a question
// @Tags         questions
// @Produce      json
// @Param        id path int true "Question ID"
// @Success      200 {object} models.Question
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/questions/{id} [get]
func (h *QuestionHandler) Get(c *gin.Context) {
	questionID, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid question id"})
		return
	}

	question, err := h.questionService.Get(questionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, question)
}

// List godoc
// @Summary      List approved questions
// @Tags         questions
// @Produce      json
// @Param        category query string false "Category filter"
// @Param        limit query int false "Page size"
// @Param        offset query int false "Offset"
// @Success      200 {array} models.Question
// @Router       /api/v1/questions [get]
func (h *QuestionHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	questions, err := h.questionService.List(c.Query("category"), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, questions)
}

// Flag godoc
// @Summary      Flag a question
// @Description  Three distinct flags send an approved question back to review
// @Tags         questions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Question ID"
// @Param        request body FlagQuestionRequest false "Flag reason"
// @Success      200 {object} MessageResponse
// @Failure      409 {object} ErrorResponse
// @Router       /api/v1/questions/{id}/flag [post]
func (h *QuestionHandler) Flag(c *gin.Context) {
	questionID, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid question id"})
		return
	}

	var req FlagQuestionRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.questionService.Flag(questionID, c.GetUint("user_id"), req.Reason); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "question flagged"})
}

// Share godoc
// @Summary      Count a share
// @Tags         questions
// @Produce      json
// @Param        id path int true "Question ID"
// @Success      200 {object} MessageResponse
// @Router       /api/v1/questions/{id}/share [post]
func (h *QuestionHandler) Share(c *gin.Context) {
	questionID, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid question id"})
		return
	}

	if err := h.questionService.IncrementShares(questionID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "share counted"})
}

// History godoc
// @Summary      Get chat history for a question
// @Tags         questions
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Question ID"
// @Param        limit query int false "Max messages"
// @Success      200 {array} models.ChatMessage
// @Router       /api/v1/questions/{id}/messages [get]
func (h *QuestionHandler) History(c *gin.Context) {
	questionID, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid question id"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	messages, err := h.chat.History(questionID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

// ListPending godoc
// @Summary      List questions awaiting moderation
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} models.Question
// @Router       /api/v1/admin/questions/pending [get]
func (h *QuestionHandler) ListPending(c *gin.Context) {
	questions, err := h.questionService.ListPending()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, questions)
}

// Moderate godoc
// @Summary      Approve or reject a question
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Question ID"
// @Param        request body ModerateQuestionRequest true "Decision"
// @Success      200 {object} models.Question
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/admin/questions/{id}/moderate [post]
func (h *QuestionHandler) Moderate(c *gin.Context) {
	questionID, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid question id"})
		return
	}

	var req ModerateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	question, err := h.questionService.Moderate(questionID, req.Approve)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, question)
}

// Delete godoc
// @Summary      Delete a question
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Question ID"
// @Success      200 {object} MessageResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/admin/questions/{id} [delete]
func (h *QuestionHandler) Delete(c *gin.Context) {
	questionID, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid question id"})
		return
	}

	if err := h.questionService.Delete(questionID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "question deleted"})
}
