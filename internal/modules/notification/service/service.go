package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"anoa.com/aiiforsaxp/internal/entity"
	notifRepo "anoa.com/aiiforsaxp/internal/modules/notification/repository"
	"anoa.com/aiiforsaxp/pkg/dto"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

// Channel is the redis pub/sub channel a user's live notifications go to.
func Channel(userID uuid.UUID) string {
	return fmt.Sprintf("user_notifications:%s", userID.String())
}

type NotificationService interface {
	CreateNotification(ctx context.Context, notification *entity.Notification) error
	GetNotifications(ctx context.Context, userID uuid.UUID, query dto.PaginationQuery) ([]entity.Notification, *dto.PaginationMeta, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkAsRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error
	Archive(ctx context.Context, userID, id uuid.UUID) error
	Delete(ctx context.Context, userID, id uuid.UUID) error

	NotifyAchievementUnlocked(ctx context.Context, userID uuid.UUID, achievementTitle string, xpReward int) error
	NotifyLevelUp(ctx context.Context, userID uuid.UUID, newLevel int, badgeName string) error
}

type notificationService struct {
	repo        notifRepo.NotificationRepository
	redisClient *redis.Client
}

func NewNotificationService(repo notifRepo.NotificationRepository, redisClient *redis.Client) NotificationService {
	return &notificationService{
		repo:        repo,
		redisClient: redisClient,
	}
}

func (s *notificationService) CreateNotification(ctx context.Context, notification *entity.Notification) error {
	if notification.Priority == "" {
		notification.Priority = entity.PriorityNormal
	}

	// 1. Save to DB
	if err := s.repo.Create(ctx, notification); err != nil {
		return err
	}

	// 2. Publish to Redis if Redis is available
	if s.redisClient != nil {
		payload, err := json.Marshal(notification)
		if err != nil {
			log.Printf("⚠️ Failed to encode notification %s: %v", notification.ID, err)
			return nil
		}
		if err := s.redisClient.Publish(ctx, Channel(notification.UserID), payload).Err(); err != nil {
			log.Printf("⚠️ Failed to publish notification %s: %v", notification.ID, err)
		}
	}

	return nil
}

func (s *notificationService) GetNotifications(ctx context.Context, userID uuid.UUID, query dto.PaginationQuery) ([]entity.Notification, *dto.PaginationMeta, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := query.Offset
	if offset < 0 {
		offset = 0
	}

	notifications, total, err := s.repo.GetByUserID(ctx, userID, limit, offset, query.IncludeArchived)
	if err != nil {
		return nil, nil, err
	}
	if notifications == nil {
		notifications = []entity.Notification{}
	}
	return notifications, &dto.PaginationMeta{Limit: limit, Offset: offset, Total: total}, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *notificationService) MarkAsRead(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.MarkAsRead(ctx, userID, id)
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *notificationService) Archive(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.Archive(ctx, userID, id)
}

func (s *notificationService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.Delete(ctx, userID, id)
}

func (s *notificationService) NotifyAchievementUnlocked(ctx context.Context, userID uuid.UUID, achievementTitle string, xpReward int) error {
	return s.CreateNotification(ctx, &entity.Notification{
		UserID:    userID,
		Type:      entity.NotificationAchievement,
		Priority:  entity.PriorityHigh,
		Title:     "🏆 Achievement Unlocked!",
		Message:   fmt.Sprintf("You earned %q and gained %d XP!", achievementTitle, xpReward),
		ActionURL: "/profile#achievements",
	})
}

func (s *notificationService) NotifyLevelUp(ctx context.Context, userID uuid.UUID, newLevel int, badgeName string) error {
	message := fmt.Sprintf("Congratulations! You reached Level %d!", newLevel)
	if badgeName != "" {
		message = fmt.Sprintf("Congratulations! You reached Level %d and earned the %q badge!", newLevel, badgeName)
	}

	return s.CreateNotification(ctx, &entity.Notification{
		UserID:    userID,
		Type:      entity.NotificationSystem,
		Priority:  entity.PriorityHigh,
		Title:     "🎉 Level Up!",
		Message:   message,
		ActionURL: "/profile",
	})
}
