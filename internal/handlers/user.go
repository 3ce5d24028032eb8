package handlers

import (
	"net/http"
	"strconv"

	"github.com/mathewgeejo/would-you-rather/internal/services"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService  *services.UserService
	badgeService *services.BadgeService
	leaderboard  *services.LeaderboardService
}

func NewUserHandler(userService *services.UserService, badgeService *services.BadgeService, leaderboard *services.LeaderboardService) *UserHandler {
	return &UserHandler{userService: userService, badgeService: badgeService, leaderboard: leaderboard}
}

// Me godoc
// @Summary      Get own profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} models.User
// @Router       /api/v1/users/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.userService.Get(c.GetUint("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Profile godoc
// @Summary      Get a public profile
// @Tags         users
// @Produce      json
// @Param        id path int true "User ID"
// @Success      200 {object} services.PublicProfile
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/users/{id} [get]
func (h *UserHandler) Profile(c *gin.Context) {
	userID, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user id"})
		return
	}

	profile, err := h.userService.PublicProfile(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// Badges godoc
// @Summary      List a user's earned badges
// @Tags         users
// @Produce      json
// @Param        id path int true "User ID"
// @Success      200 {array} models.UserBadge
// @Router       /api/v1/users/{id}/badges [get]
func (h *UserHandler) Badges(c *gin.Context) {
	userID, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user id"})
		return
	}

	earned, err := h.badgeService.UserBadges(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, earned)
}

// DeactivateMe godoc
// @Summary      Deactivate own account
// @Description  Soft-disables the account; stats and badges are kept
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} MessageResponse
// @Router       /api/v1/users/me [delete]
func (h *UserHandler) DeactivateMe(c *gin.Context) {
	if err := h.userService.Deactivate(c.GetUint("user_id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "account deactivated"})
}

// Leaderboard godoc
// @Summary      Get the points leaderboard
// @Tags         users
// @Produce      json
// @Param        limit query int false "Number of entries"
// @Success      200 {array} services.LeaderboardEntry
// @Router       /api/v1/leaderboard [get]
func (h *UserHandler) Leaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	entries, err := h.leaderboard.Top(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
