package handlers

import (
	"net/http"

	"github.com/mathewgeejo/would-you-rather/internal/services"
	"github.com/mathewgeejo/would-you-rather/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

type WSHandler struct {
	hub         *ws.Hub
	authService *services.AuthService
	userService *services.UserService
}

func NewWSHandler(hub *ws.Hub, authService *services.AuthService, userService *services.UserService) *WSHandler {
	return &WSHandler{hub: hub, authService: authService, userService: userService}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleWebSocket godoc
// @Summary      Open the real-time event connection
// @Description  Authenticates via the token query parameter, then upgrades
// @Tags         websocket
// @Param        token query string true "JWT"
// @Router       /ws [get]
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "token required"})
		return
	}

	userID, _, err := h.authService.ValidateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid or expired token"})
		return
	}

	user, err := h.userService.Get(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := ws.NewClient(h.hub, conn, user.ID, user.Username, user.Avatar)
	h.hub.Register(client)
	client.Run()
}

// RoomMembers godoc
// @Summary      List connections currently in a question room
// @Tags         websocket
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Question ID"
// @Success      200 {array} ws.MemberInfo
// @Router       /api/v1/questions/{id}/room [get]
func (h *WSHandler) RoomMembers(c *gin.Context) {
	questionID, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid question id"})
		return
	}
	c.JSON(http.StatusOK, h.hub.RoomMembers(questionID))
}
