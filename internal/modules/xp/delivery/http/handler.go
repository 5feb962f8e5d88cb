package http

import (
	"context"
	"log"
	"net/http"
	"strconv"

	xpDto "anoa.com/aiiforsaxp/internal/modules/xp/dto"
	xpService "anoa.com/aiiforsaxp/internal/modules/xp/service"
	"anoa.com/aiiforsaxp/pkg/response"
	"anoa.com/aiiforsaxp/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 50
)

// Notifier is told about awards after they are committed.
type Notifier interface {
	NotifyAchievementUnlocked(ctx context.Context, userID uuid.UUID, achievementTitle string, xpReward int) error
	NotifyLevelUp(ctx context.Context, userID uuid.UUID, newLevel int, badgeName string) error
}

type XPHandler struct {
	service  xpService.XPService
	notifier Notifier
}

func NewXPHandler(service xpService.XPService, notifier Notifier) *XPHandler {
	return &XPHandler{service: service, notifier: notifier}
}

func (h *XPHandler) GetStatus(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	status, err := h.service.GetXPStatus(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": status})
}

func (h *XPHandler) TriggerEvent(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req xpDto.TriggerEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}
	// counts always come from the source tables for client requests
	delete(req.Meta, "count")

	result, err := h.service.TriggerEvent(c.Request.Context(), userID, req.Key, req.Meta)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	h.notify(c.Request.Context(), userID, result)
	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (h *XPHandler) CompleteDailyChallenge(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req xpDto.CompleteDailyChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	result, err := h.service.CompleteDailyChallenge(c.Request.Context(), userID, req.ChallengeKey)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	h.notify(c.Request.Context(), userID, result)
	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (h *XPHandler) CheckMilestones(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	result, err := h.service.CheckMilestones(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	h.notify(c.Request.Context(), userID, result)
	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (h *XPHandler) RedeemAchievement(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req xpDto.RedeemAchievementRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	redeemed, err := h.service.RedeemAchievement(c.Request.Context(), userID, uuid.MustParse(req.ID))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": redeemed})
}

func (h *XPHandler) GetAchievements(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	achievements, err := h.service.AchievementsWithProgress(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": achievements})
}

func (h *XPHandler) GetBadges(c *gin.Context) {
	badges, err := h.service.BadgeDefinitions(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": badges})
}

func (h *XPHandler) GetLeaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLeaderboardLimit)))
	if limit < 1 {
		limit = defaultLeaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}

	leaderboard, err := h.service.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": leaderboard})
}

func (h *XPHandler) GetEventKeys(c *gin.Context) {
	keys, err := h.service.EventKeys(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": keys})
}

// notify never fails the request; the award is already committed.
func (h *XPHandler) notify(ctx context.Context, userID uuid.UUID, result *xpDto.TriggerResult) {
	if h.notifier == nil || result == nil {
		return
	}

	for _, a := range result.AwardedAchievements {
		if err := h.notifier.NotifyAchievementUnlocked(ctx, userID, a.Title, a.XPReward); err != nil {
			log.Printf("⚠️ Failed to notify achievement %s for user %s: %v", a.Key, userID, err)
		}
	}

	if result.LeveledUp && result.NewLevel != nil {
		badgeName := ""
		if len(result.NewBadges) > 0 {
			badgeName = result.NewBadges[0].Name
		}
		if err := h.notifier.NotifyLevelUp(ctx, userID, *result.NewLevel, badgeName); err != nil {
			log.Printf("⚠️ Failed to notify level up for user %s: %v", userID, err)
		}
	}
}
