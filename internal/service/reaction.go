package service

import (
	"context"
	"errors"

	apperrors "github.com/Payphone-Digital/locatory/internal/errors"
	"github.com/Payphone-Digital/locatory/internal/model"
	"github.com/Payphone-Digital/locatory/internal/repository"
	ctxutil "github.com/Payphone-Digital/locatory/pkg/context"
	"github.com/Payphone-Digital/locatory/pkg/logger"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type ReactionStore interface {
	Create(ctx context.Context, kind model.ReactionKind, reaction *model.Reaction) error
	ListByReview(ctx context.Context, kind model.ReactionKind, reviewID bson.ObjectID) ([]model.Reaction, error)
	ListByUser(ctx context.Context, kind model.ReactionKind, userID uint) ([]model.Reaction, error)
}

// ReactionService manages likes and dislikes and keeps the review
// counters in step.
type ReactionService struct {
	reactions ReactionStore
	reviews   ReviewStore
}

func NewReactionService(reactions ReactionStore, reviews ReviewStore) *ReactionService {
	return &ReactionService{reactions: reactions, reviews: reviews}
}

func (s *ReactionService) parseReview(ctx context.Context, reviewID string) (bson.ObjectID, error) {
	notFound := apperrors.NotFound("No review with the id of %s", reviewID)
	rid, err := repository.ParseObjectID(reviewID)
	if err != nil {
		return rid, notFound
	}
	if _, err := s.reviews.GetByID(ctx, rid); err != nil {
		return rid, documentError(err, notFound)
	}
	return rid, nil
}

// Add records one reaction of the user to a review.
func (s *ReactionService) Add(ctx context.Context, actor Actor, kind model.ReactionKind, reviewID string) (*model.Reaction, error) {
	ctx = ctxutil.WithOperation(ctx, "service", "AddReaction")

	rid, err := s.parseReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	reaction := &model.Reaction{Review: rid, User: actor.UserID}
	if err := s.reactions.Create(ctx, kind, reaction); err != nil {
		if errors.Is(err, repository.ErrDuplicateReaction) {
			return nil, apperrors.ErrAlreadyReacted
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if err := s.reviews.IncrementCounter(ctx, rid, kind.CounterField(), 1); err != nil {
		logger.ErrorWithContext(ctx, "Failed to increment review counter").
			String("review_id", reviewID).
			String("kind", string(kind)).
			Err(err).
			Log()
	}
	return reaction, nil
}

func (s *ReactionService) ListByReview(ctx context.Context, kind model.ReactionKind, reviewID string) ([]model.Reaction, error) {
	rid, err := repository.ParseObjectID(reviewID)
	if err != nil {
		return nil, apperrors.NotFound("No review with the id of %s", reviewID)
	}
	reactions, err := s.reactions.ListByReview(ctx, kind, rid)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return reactions, nil
}

func (s *ReactionService) ListByUser(ctx context.Context, kind model.ReactionKind, userID uint) ([]model.Reaction, error) {
	reactions, err := s.reactions.ListByUser(ctx, kind, userID)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return reactions, nil
}
