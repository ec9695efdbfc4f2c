package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/Payphone-Digital/locatory/internal/dto"
	apperrors "github.com/Payphone-Digital/locatory/internal/errors"
	"github.com/Payphone-Digital/locatory/internal/model"
	"github.com/Payphone-Digital/locatory/internal/repository"
	ctxutil "github.com/Payphone-Digital/locatory/pkg/context"
	"github.com/Payphone-Digital/locatory/pkg/logger"
	"go.mongodb.org/mongo-driver/v2/bson"
	"gorm.io/gorm"
)

type ReviewStore interface {
	Create(ctx context.Context, review *model.Review) error
	GetByID(ctx context.Context, id bson.ObjectID) (*model.Review, error)
	Update(ctx context.Context, id bson.ObjectID, fields bson.D) (*model.Review, error)
	Delete(ctx context.Context, id bson.ObjectID) error
	DeleteByPlace(ctx context.Context, placeID bson.ObjectID) ([]bson.ObjectID, error)
	ListByUser(ctx context.Context, userID uint) ([]model.Review, error)
	Aggregates(ctx context.Context, placeID bson.ObjectID) (model.PlaceAggregates, error)
	IncrementCounter(ctx context.Context, id bson.ObjectID, field string, delta int) error
}

// UserLookup loads the author shown on reviews and notifications.
type UserLookup interface {
	GetByID(ctx context.Context, id uint) (*model.User, error)
}

// ReactionCleaner removes reactions of deleted reviews.
type ReactionCleaner interface {
	DeleteByReviews(ctx context.Context, reviewIDs ...bson.ObjectID) error
}

type ReviewService struct {
	reviews   ReviewStore
	places    PlaceStore
	users     UserLookup
	reactions ReactionCleaner
	cache     *CacheService
}

func NewReviewService(reviews ReviewStore, places PlaceStore, users UserLookup, reactions ReactionCleaner, cache *CacheService) *ReviewService {
	return &ReviewService{
		reviews:   reviews,
		places:    places,
		users:     users,
		reactions: reactions,
		cache:     cache,
	}
}

func reviewNotFound(id string) *apperrors.DomainError {
	return apperrors.NotFound("No review found with the id of %s", id)
}

// ReviewRating is the mean of the four scored aspects, rounded to one
// decimal.
func ReviewRating(accessibility, decoration, service, familyFriendly int) float64 {
	mean := float64(accessibility+decoration+service+familyFriendly) / 4
	return math.Round(mean*10) / 10
}

func (s *ReviewService) Create(ctx context.Context, actor Actor, placeID string, req *dto.CreateReviewRequest) (*model.Review, error) {
	ctx = ctxutil.WithOperation(ctx, "service", "CreateReview")

	pid, err := repository.ParseObjectID(placeID)
	if err != nil {
		return nil, apperrors.NotFound("No place with the id of %s", placeID)
	}
	if _, err := s.places.GetByID(ctx, pid); err != nil {
		return nil, documentError(err, apperrors.NotFound("No place with the id of %s", placeID))
	}

	review := &model.Review{
		Title:          strings.TrimSpace(req.Title),
		Description:    req.Description,
		AverageBudget:  req.AverageBudget,
		Accessibility:  req.Accessibility,
		Decoration:     req.Decoration,
		Service:        req.Service,
		FamilyFriendly: req.FamilyFriendly,
		Transportation: req.Transportation,
		Setting:        req.Setting,
		Photo:          req.Photo,
		Rating:         ReviewRating(req.Accessibility, req.Decoration, req.Service, req.FamilyFriendly),
		Place:          pid,
		User:           actor.UserID,
	}
	if author, err := s.users.GetByID(ctx, actor.UserID); err == nil {
		review.Username = author.Name
		review.UserPhoto = author.Photo
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, documentError(err, apperrors.ErrReviewNotFound)
	}
	s.recomputePlaceAggregates(ctx, pid)
	return review, nil
}

func (s *ReviewService) Get(ctx context.Context, id string) (*model.Review, error) {
	oid, err := repository.ParseObjectID(id)
	if err != nil {
		return nil, reviewNotFound(id)
	}
	review, err := s.reviews.GetByID(ctx, oid)
	if err != nil {
		return nil, documentError(err, reviewNotFound(id))
	}
	return review, nil
}

func (s *ReviewService) Update(ctx context.Context, actor Actor, id string, req *dto.UpdateReviewRequest) (*model.Review, error) {
	ctx = ctxutil.WithOperation(ctx, "service", "UpdateReview")

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanModify(existing.User) {
		return nil, apperrors.Forbidden("User %d is not authorized to update review %s", actor.UserID, id)
	}

	fields := bson.D{}
	set := func(key string, value any) { fields = append(fields, bson.E{Key: key, Value: value}) }
	scores := [4]int{existing.Accessibility, existing.Decoration, existing.Service, existing.FamilyFriendly}
	scoresChanged := false

	if req.Title != nil {
		set("title", strings.TrimSpace(*req.Title))
	}
	if req.Description != nil {
		set("description", *req.Description)
	}
	if req.AverageBudget != nil {
		set("averagebudget", *req.AverageBudget)
	}
	if req.Transportation != nil {
		set("transportation", *req.Transportation)
	}
	if req.Setting != nil {
		set("setting", *req.Setting)
	}
	if req.Photo != nil {
		set("photo", *req.Photo)
	}
	for i, score := range []struct {
		key   string
		value *int
	}{
		{"accessibility", req.Accessibility},
		{"decoration", req.Decoration},
		{"service", req.Service},
		{"familyfriendly", req.FamilyFriendly},
	} {
		if score.value != nil {
			set(score.key, *score.value)
			scores[i] = *score.value
			scoresChanged = true
		}
	}
	if scoresChanged {
		set("rating", ReviewRating(scores[0], scores[1], scores[2], scores[3]))
	}
	if len(fields) == 0 {
		return existing, nil
	}

	review, err := s.reviews.Update(ctx, existing.ID, fields)
	if err != nil {
		return nil, documentError(err, reviewNotFound(id))
	}
	if scoresChanged {
		s.recomputePlaceAggregates(ctx, review.Place)
	}
	return review, nil
}

func (s *ReviewService) Delete(ctx context.Context, actor Actor, id string) error {
	ctx = ctxutil.WithOperation(ctx, "service", "DeleteReview")

	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !actor.CanModify(existing.User) {
		return apperrors.Forbidden("User %d is not authorized to delete review %s", actor.UserID, id)
	}

	if err := s.reviews.Delete(ctx, existing.ID); err != nil {
		return documentError(err, reviewNotFound(id))
	}
	if err := s.reactions.DeleteByReviews(ctx, existing.ID); err != nil {
		logger.WarnWithContext(ctx, "Failed to delete reactions of review").
			String("review_id", id).
			Err(err).
			Log()
	}
	s.recomputePlaceAggregates(ctx, existing.Place)
	return nil
}

func (s *ReviewService) ListByUser(ctx context.Context, userID uint) ([]model.Review, error) {
	reviews, err := s.reviews.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return reviews, nil
}

// DeleteForPlace removes every review of a place and their reactions.
func (s *ReviewService) DeleteForPlace(ctx context.Context, placeID bson.ObjectID) error {
	ids, err := s.reviews.DeleteByPlace(ctx, placeID)
	if err != nil {
		return err
	}
	return s.reactions.DeleteByReviews(ctx, ids...)
}

// recomputePlaceAggregates refreshes totalreviews and averageRating of a
// place from its reviews. Failures are logged; the review write stands.
func (s *ReviewService) recomputePlaceAggregates(ctx context.Context, placeID bson.ObjectID) {
	agg, err := s.reviews.Aggregates(ctx, placeID)
	if err == nil {
		err = s.places.UpdateAggregates(ctx, placeID, agg)
	}
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to recompute place aggregates").
			String("place_id", placeID.Hex()).
			Err(err).
			Log()
		return
	}
	s.cache.Invalidate(ctx, PlaceCacheKey(placeID.Hex()))
}
