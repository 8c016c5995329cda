package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
	"github.com/wfunc/rmcs/game"
	"github.com/wfunc/rmcs/logger"
	"github.com/wfunc/rmcs/room"
)

const qrSize = 256

type createRoomRequest struct {
	RoomName   string `json:"roomName" binding:"required"`
	PlayerName string `json:"playerName" binding:"required"`
}

type joinMultipleRequest struct {
	RoomID      string   `json:"roomId" binding:"required"`
	PlayerNames []string `json:"playerNames" binding:"required"`
}

type guessRequest struct {
	PlayerID        string `json:"playerId" binding:"required"`
	GuessedPlayerID string `json:"guessedPlayerId" binding:"required"`
}

type leaveRequest struct {
	PlayerID string `json:"playerId" binding:"required"`
}

type roleResponse struct {
	PlayerID string    `json:"playerId"`
	Role     game.Role `json:"role"`
}

// statusFor maps a room error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, room.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, room.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, room.ErrInvalidState), errors.Is(err, room.ErrInvalidArgument):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Log.Errorw("request failed", "path", c.FullPath(), "error", err)
		msg = "internal error"
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func badRequest(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
}

// lookupRoom resolves the :roomId path parameter or aborts with 404.
func (s *GameServer) lookupRoom(c *gin.Context) (*room.Room, bool) {
	r, err := s.roomManager.Lookup(c.Param("roomId"))
	if err != nil {
		abortWithError(c, err)
		return nil, false
	}
	return r, true
}

func (s *GameServer) handleCreateRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	r, host, err := s.roomManager.CreateRoom(req.RoomName, req.PlayerName)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"roomId":   r.ID,
		"playerId": host.ID,
		"message":  "Room created successfully",
	})
}

func (s *GameServer) handleJoinMultiple(c *gin.Context) {
	var req joinMultipleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	r, err := s.roomManager.Lookup(req.RoomID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	res, err := r.Join(req.PlayerNames)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"roomId":     r.ID,
		"added":      res.Added,
		"waitlisted": res.Waitlisted,
		"message":    "Players processed successfully",
	})
}

func (s *GameServer) handleGetPlayers(c *gin.Context) {
	r, ok := s.lookupRoom(c)
	if !ok {
		return
	}
	view := r.Players()
	c.JSON(http.StatusOK, gin.H{
		"roomId":        r.ID,
		"players":       view.Players,
		"waitlistCount": view.WaitlistCount,
	})
}

func (s *GameServer) handleAssignRoles(c *gin.Context) {
	r, ok := s.lookupRoom(c)
	if !ok {
		return
	}
	round, err := r.AssignRoles()
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Roles assigned for round %d", round)})
}

func (s *GameServer) handleViewRole(c *gin.Context) {
	r, ok := s.lookupRoom(c)
	if !ok {
		return
	}
	playerID := c.Param("playerId")
	role, err := r.ViewRole(playerID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, roleResponse{PlayerID: playerID, Role: role})
}

func (s *GameServer) handleSubmitGuess(c *gin.Context) {
	r, ok := s.lookupRoom(c)
	if !ok {
		return
	}
	var req guessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	res, err := r.SubmitGuess(req.PlayerID, req.GuessedPlayerID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *GameServer) handleResult(c *gin.Context) {
	r, ok := s.lookupRoom(c)
	if !ok {
		return
	}
	res, err := r.Result()
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *GameServer) handleLeaderboard(c *gin.Context) {
	r, ok := s.lookupRoom(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": r.Leaderboard()})
}

func (s *GameServer) handleLeave(c *gin.Context) {
	r, ok := s.lookupRoom(c)
	if !ok {
		return
	}
	var req leaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	res, err := r.Leave(req.PlayerID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// handleHistory serves archived rounds. Rooms that expired keep their
// archive, so only the archive is consulted.
func (s *GameServer) handleHistory(c *gin.Context) {
	h, err := s.archive.History(c.Param("roomId"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, h)
}

// handleQRCode renders a PNG that points phones at the room's player list.
func (s *GameServer) handleQRCode(c *gin.Context) {
	r, ok := s.lookupRoom(c)
	if !ok {
		return
	}

	url := strings.TrimRight(s.opts.PublicBaseURL, "/") + "/room/players/" + r.ID
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		abortWithError(c, fmt.Errorf("qr generation failed: %w", err))
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
