package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/Payphone-Digital/locatory/internal/dto"
	apperrors "github.com/Payphone-Digital/locatory/internal/errors"
	"github.com/Payphone-Digital/locatory/internal/model"
	"github.com/Payphone-Digital/locatory/internal/repository"
	ctxutil "github.com/Payphone-Digital/locatory/pkg/context"
	"github.com/Payphone-Digital/locatory/pkg/logger"
	"github.com/Payphone-Digital/locatory/pkg/notify"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationStore interface {
	GetByID(ctx context.Context, id uint) (*model.User, error)
	AddNotification(ctx context.Context, userID uint, n model.Notification) error
	MarkNotificationRead(ctx context.Context, userID uint, notificationID string) (*model.User, error)
	TrimNotifications(ctx context.Context, userID uint, max int) error
}

// NotificationService keeps the notification list embedded on each user.
type NotificationService struct {
	users     NotificationStore
	reviews   ReviewStore
	places    PlaceStore
	renderer  *notify.Renderer
	cache     *CacheService
	maxStored int
	now       func() time.Time
}

func NewNotificationService(users NotificationStore, reviews ReviewStore, places PlaceStore, renderer *notify.Renderer, cache *CacheService, maxStored int) *NotificationService {
	return &NotificationService{
		users:     users,
		reviews:   reviews,
		places:    places,
		renderer:  renderer,
		cache:     cache,
		maxStored: maxStored,
		now:       time.Now,
	}
}

// Create notifies the author of a review about the actor's activity on it.
func (s *NotificationService) Create(ctx context.Context, actor Actor, reviewID string, req *dto.CreateNotificationRequest) (*model.Notification, error) {
	ctx = ctxutil.WithOperation(ctx, "service", "CreateNotification")

	rid, err := repository.ParseObjectID(reviewID)
	if err != nil {
		return nil, apperrors.NotFound("No review with the id of %s", reviewID)
	}
	review, err := s.reviews.GetByID(ctx, rid)
	if err != nil {
		return nil, documentError(err, apperrors.NotFound("No review with the id of %s", reviewID))
	}

	sender, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	placeName := ""
	if place, err := s.places.GetByID(ctx, review.Place); err == nil {
		placeName = place.Name
	}

	message := strings.TrimSpace(req.Message)
	if message == "" && s.renderer != nil {
		message, err = s.renderer.Render(notify.Message{
			Username:    sender.Name,
			PlaceName:   placeName,
			ReviewTitle: review.Title,
		})
		if err != nil {
			return nil, apperrors.WrapError(apperrors.ErrInternal, err)
		}
	}

	n := model.Notification{
		ID:        uuid.NewString(),
		Username:  sender.Name,
		UserPhoto: sender.Photo,
		Place:     review.Place.Hex(),
		PlaceName: placeName,
		ReviewID:  review.ID.Hex(),
		Message:   message,
		CreatedAt: s.now().UTC(),
	}
	if err := s.users.AddNotification(ctx, review.User, n); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if err := s.users.TrimNotifications(ctx, review.User, s.maxStored); err != nil {
		logger.WarnWithContext(ctx, "Failed to trim notifications").Err(err).Log()
	}
	s.cache.Invalidate(ctx, AlertCacheKey(review.User))

	logger.InfoWithContext(ctx, "Notification created").
		Uint("recipient_id", review.User).
		String("review_id", reviewID).
		Log()
	return &n, nil
}

// List returns the user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID uint) ([]model.Notification, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return newestFirst(user.Notifications), nil
}

// MarkRead flags one notification as read and returns the updated list.
func (s *NotificationService) MarkRead(ctx context.Context, userID uint, notificationID string) ([]model.Notification, error) {
	ctx = ctxutil.WithOperation(ctx, "service", "MarkNotificationRead")

	user, err := s.users.MarkNotificationRead(ctx, userID, notificationID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotificationNotFound):
			return nil, apperrors.NotFound("No notification with the id of %s", notificationID)
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, apperrors.ErrUserNotFound
		default:
			return nil, apperrors.WrapError(apperrors.ErrInternal, err)
		}
	}
	s.cache.Invalidate(ctx, AlertCacheKey(userID))
	return newestFirst(user.Notifications), nil
}

// UnreadCount returns how many notifications the user has not read.
func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int, error) {
	var cached dto.NotificationAlertResponse
	if s.cache.GetJSON(ctx, AlertCacheKey(userID), &cached) {
		return cached.Unread, nil
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperrors.ErrUserNotFound
		}
		return 0, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	unread := user.UnreadCount()
	s.cache.SetJSON(ctx, AlertCacheKey(userID), dto.NotificationAlertResponse{Unread: unread}, 0)
	return unread, nil
}

func newestFirst(list []model.Notification) []model.Notification {
	out := make([]model.Notification, len(list))
	copy(out, list)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
