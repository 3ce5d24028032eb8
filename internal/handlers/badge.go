package handlers

import (
	"net/http"
	"time"

	"github.com/mathewgeejo/would-you-rather/internal/models"
	"github.com/mathewgeejo/would-you-rather/internal/services"

	"github.com/gin-gonic/gin"
)

type BadgeHandler struct {
	badgeService *services.BadgeService
}

func NewBadgeHandler(badgeService *services.BadgeService) *BadgeHandler {
	return &BadgeHandler{badgeService: badgeService}
}

type CreateBadgeRequest struct {
	Name                 string     `json:"name" binding:"required,min=1,max=100"`
	Description          string     `json:"description" binding:"omitempty,max=500"`
	Icon                 string     `json:"icon" binding:"omitempty,max=50"`
	Category             string     `json:"category" binding:"omitempty,max=50"`
	Rarity               string     `json:"rarity" binding:"omitempty,oneof=common uncommon rare epic legendary"`
	RequirementType      string     `json:"requirement_type" binding:"required"`
	RequirementThreshold int        `json:"requirement_threshold" binding:"required,min=1"`
	RequirementTimeframe string     `json:"requirement_timeframe" binding:"omitempty,oneof=daily weekly monthly all_time"`
	RewardPoints         int        `json:"reward_points" binding:"omitempty,min=0"`
	IsSecret             bool       `json:"is_secret"`
	UnlockAfter          *time.Time `json:"unlock_after"`
	UnlockUntil          *time.Time `json:"unlock_until"`
	RequiredBadges       string     `json:"required_badges" binding:"omitempty,max=255"`
	ExcludedBadges       string     `json:"excluded_badges" binding:"omitempty,max=255"`
}

// List godoc
// @Summary      List badge definitions
// @Description  Secret badges are hidden from non-admin callers
// @Tags         badges
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} models.Badge
// @Router       /api/v1/badges [get]
func (h *BadgeHandler) List(c *gin.Context) {
	badges, err := h.badgeService.ListBadges(c.GetBool("is_admin"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, badges)
}

// Create godoc
// @Summary      Define a badge
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateBadgeRequest true "Badge definition"
// @Success      201 {object} models.Badge
// @Failure      409 {object} ErrorResponse
// @Router       /api/v1/admin/badges [post]
func (h *BadgeHandler) Create(c *gin.Context) {
	var req CreateBadgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	badge := models.Badge{
		Name:                 req.Name,
		Description:          req.Description,
		Icon:                 req.Icon,
		Category:             req.Category,
		Rarity:               req.Rarity,
		RequirementType:      req.RequirementType,
		RequirementThreshold: req.RequirementThreshold,
		RequirementTimeframe: req.RequirementTimeframe,
		RewardPoints:         req.RewardPoints,
		IsActive:             true,
		IsSecret:             req.IsSecret,
		UnlockAfter:          req.UnlockAfter,
		UnlockUntil:          req.UnlockUntil,
		RequiredBadges:       req.RequiredBadges,
		ExcludedBadges:       req.ExcludedBadges,
	}
	if err := h.badgeService.CreateBadge(&badge); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, badge)
}
