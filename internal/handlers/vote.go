package handlers

import (
	"net/http"
	"strconv"

	"github.com/mathewgeejo/would-you-rather/internal/services"
	"github.com/mathewgeejo/would-you-rather/internal/ws"

	"github.com/gin-gonic/gin"
)

type VoteHandler struct {
	voteService *services.VoteService
	leaderboard *services.LeaderboardService
	userService *services.UserService
	hub         *ws.Hub
}

func NewVoteHandler(voteService *services.VoteService, leaderboard *services.LeaderboardService, userService *services.UserService, hub *ws.Hub) *VoteHandler {
	return &VoteHandler{voteService: voteService, leaderboard: leaderboard, userService: userService, hub: hub}
}

type SubmitVoteRequest struct {
	Choice         string `json:"choice" binding:"required,oneof=A B"`
	DecisionTimeMs int    `json:"decision_time_ms" binding:"omitempty,min=0"`
	Confidence     int    `json:"confidence" binding:"omitempty,min=1,max=5"`
}

type ChangeVoteRequest struct {
	Choice string `json:"choice" binding:"required,oneof=A B"`
}

// Submit godoc
// @Summary      Submit a vote
// @Description  Record the authenticated user's vote on a question
// @Tags         votes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        questionId path int true "Question ID"
// @Param        request body SubmitVoteRequest true "Vote data"
// @Success      201 {object} services.VoteResult
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /api/v1/votes/{questionId} [post]
func (h *VoteHandler) Submit(c *gin.Context) {
	questionID, err := parseIDParam(c, "questionId")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid question id"})
		return
	}

	var req SubmitVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	userID := c.GetUint("user_id")
	result, err := h.voteService.Submit(userID, questionID, req.Choice, req.DecisionTimeMs, req.Confidence)
	if err != nil {
		respondError(c, err)
		return
	}

	h.afterVoteMutation(c, userID, questionID, result)
	c.JSON(http.StatusCreated, result)
}

// Change godoc
// @Summary      Change a vote
// @Description  Change the choice of an existing vote within the 5-minute edit window
// @Tags         votes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        questionId path int true "Question ID"
// @Param        request body ChangeVoteRequest true "New choice"
// @Success      200 {object} services.VoteResult
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /api/v1/votes/{questionId} [patch]
func (h *VoteHandler) Change(c *gin.Context) {
	questionID, err := parseIDParam(c, "questionId")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid question id"})
		return
	}

	var req ChangeVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	userID := c.GetUint("user_id")
	result, err := h.voteService.Change(userID, questionID, req.Choice)
	if err != nil {
		respondError(c, err)
		return
	}

	h.broadcastTally(userID, questionID, result)
	c.JSON(http.StatusOK, result)
}

// Delete godoc
// @Summary      Delete a vote
// @Description  Moderation: remove a vote and claw back its rewards
// @Tags         votes
// @Produce      json
// @Security     BearerAuth
// @Param        voteId path int true "Vote ID"
// @Success      200 {object} MessageResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/votes/{voteId} [delete]
func (h *VoteHandler) Delete(c *gin.Context) {
	voteID, err := parseIDParam(c, "voteId")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid vote id"})
		return
	}

	if err := h.voteService.Delete(voteID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "vote deleted"})
}

// QuestionVotes godoc
// @Summary      Get question vote analytics
// @Description  Tally, percentages, decision time and engagement for a question
// @Tags         votes
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Question ID"
// @Success      200 {object} services.QuestionAnalytics
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/votes/question/{id} [get]
func (h *VoteHandler) QuestionVotes(c *gin.Context) {
	questionID, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid question id"})
		return
	}

	analytics, err := h.voteService.QuestionVotes(questionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analytics)
}

// MyVote godoc
// @Summary      Get own vote on a question
// @Tags         votes
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Question ID"
// @Success      200 {object} models.Vote
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/questions/{id}/vote [get]
func (h *VoteHandler) MyVote(c *gin.Context) {
	questionID, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid question id"})
		return
	}

	vote, err := h.voteService.UserVote(c.GetUint("user_id"), questionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, vote)
}

// afterVoteMutation pushes the committed tally, badge notifications and
// the leaderboard mirror. All of it is advisory: a broadcast failure
// never rolls back the vote.
func (h *VoteHandler) afterVoteMutation(c *gin.Context, userID, questionID uint, result *services.VoteResult) {
	h.broadcastTally(userID, questionID, result)

	if len(result.EarnedBadges) > 0 {
		h.hub.SendToUser(userID, ws.Event{Type: ws.EvtBadgesEarned, Data: result.EarnedBadges})
	}
	if result.LeveledUp {
		h.hub.SendToUser(userID, ws.Event{Type: ws.EvtNotification, Data: ws.Notification{
			Type:    "level_up",
			Title:   "Level up!",
			Message: "You reached level " + strconv.Itoa(result.NewLevel),
		}})
	}

	if user, err := h.userService.Get(userID); err == nil {
		h.leaderboard.UpdateScore(c.Request.Context(), userID, user.Points)
	}
}

func (h *VoteHandler) broadcastTally(userID, questionID uint, result *services.VoteResult) {
	voter := ""
	if user, err := h.userService.Get(userID); err == nil {
		voter = user.Username
	}
	h.hub.BroadcastToRoom(questionID, ws.Event{Type: ws.EvtVoteUpdate, Data: ws.VoteUpdate{
		QuestionID: questionID,
		Choice:     result.Vote.Choice,
		TotalVotes: result.Stats.TotalVotes,
		PercentA:   result.Stats.PercentA,
		PercentB:   result.Stats.PercentB,
		Voter:      voter,
	}}, nil)
}

func parseIDParam(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, strconv.ErrSyntax
	}
	return uint(id), nil
}
