package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Payphone-Digital/locatory/internal/constants"
	"github.com/Payphone-Digital/locatory/internal/model"
	ctxutil "github.com/Payphone-Digital/locatory/pkg/context"
	"github.com/Payphone-Digital/locatory/pkg/logger"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ErrDuplicateReaction is returned when a user reacts twice to a review.
var ErrDuplicateReaction = errors.New("reaction already exists")

// ReactionRepository stores likes and dislikes in separate collections.
type ReactionRepository struct {
	likes    *mongo.Collection
	dislikes *mongo.Collection
}

func NewReactionRepository(db *mongo.Database) *ReactionRepository {
	return &ReactionRepository{
		likes:    db.Collection(constants.CollectionLikes),
		dislikes: db.Collection(constants.CollectionDislikes),
	}
}

func (r *ReactionRepository) collection(kind model.ReactionKind) *mongo.Collection {
	if kind == model.ReactionDislike {
		return r.dislikes
	}
	return r.likes
}

func (r *ReactionRepository) Finder(kind model.ReactionKind) *MongoFinder {
	return NewMongoFinder(r.collection(kind))
}

func (r *ReactionRepository) Create(ctx context.Context, kind model.ReactionKind, reaction *model.Reaction) error {
	ctx = ctxutil.WithOperation(ctx, "repository", "ReactionRepository.Create")

	if reaction.ID.IsZero() {
		reaction.ID = bson.NewObjectID()
	}
	if reaction.CreatedAt.IsZero() {
		reaction.CreatedAt = time.Now().UTC()
	}

	if _, err := r.collection(kind).InsertOne(ctx, reaction); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateReaction
		}
		logger.ErrorWithContext(ctx, "Failed to create reaction").
			String("kind", string(kind)).
			String("review_id", reaction.Review.Hex()).
			Err(err).
			Log()
		return err
	}
	return nil
}

func (r *ReactionRepository) ListByReview(ctx context.Context, kind model.ReactionKind, reviewID bson.ObjectID) ([]model.Reaction, error) {
	return r.find(ctx, kind, bson.D{{Key: "review", Value: reviewID}})
}

func (r *ReactionRepository) ListByUser(ctx context.Context, kind model.ReactionKind, userID uint) ([]model.Reaction, error) {
	return r.find(ctx, kind, bson.D{{Key: "user", Value: userID}})
}

// DeleteByReviews removes reactions of both kinds for the given reviews.
func (r *ReactionRepository) DeleteByReviews(ctx context.Context, reviewIDs ...bson.ObjectID) error {
	if len(reviewIDs) == 0 {
		return nil
	}
	filter := bson.D{{Key: "review", Value: bson.D{{Key: "$in", Value: reviewIDs}}}}
	for _, coll := range []*mongo.Collection{r.likes, r.dislikes} {
		if _, err := coll.DeleteMany(ctx, filter); err != nil {
			return err
		}
	}
	return nil
}

func (r *ReactionRepository) find(ctx context.Context, kind model.ReactionKind, filter bson.D) ([]model.Reaction, error) {
	cursor, err := r.collection(kind).Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	reactions := []model.Reaction{}
	if err := cursor.All(ctx, &reactions); err != nil {
		return nil, err
	}
	return reactions, nil
}
