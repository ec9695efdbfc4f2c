package repository

import (
	"context"
	"math"
	"time"

	"github.com/Payphone-Digital/locatory/internal/constants"
	"github.com/Payphone-Digital/locatory/internal/model"
	ctxutil "github.com/Payphone-Digital/locatory/pkg/context"
	"github.com/Payphone-Digital/locatory/pkg/logger"
	"github.com/Payphone-Digital/locatory/pkg/query"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type ReviewRepository struct {
	coll *mongo.Collection
}

func NewReviewRepository(db *mongo.Database) *ReviewRepository {
	return &ReviewRepository{coll: db.Collection(constants.CollectionReviews)}
}

func (r *ReviewRepository) Finder() *MongoFinder {
	return NewMongoFinder(r.coll)
}

func (r *ReviewRepository) Create(ctx context.Context, review *model.Review) error {
	ctx = ctxutil.WithOperation(ctx, "repository", "ReviewRepository.Create")

	if review.ID.IsZero() {
		review.ID = bson.NewObjectID()
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now().UTC()
	}
	if _, err := r.coll.InsertOne(ctx, review); err != nil {
		logger.ErrorWithContext(ctx, "Failed to create review").
			String("place_id", review.Place.Hex()).
			Err(err).
			Log()
		return err
	}

	logger.InfoWithContext(ctx, "Review created successfully").
		String("review_id", review.ID.Hex()).
		String("place_id", review.Place.Hex()).
		Log()
	return nil
}

func (r *ReviewRepository) GetByID(ctx context.Context, id bson.ObjectID) (*model.Review, error) {
	var review model.Review
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&review); err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *ReviewRepository) Update(ctx context.Context, id bson.ObjectID, fields bson.D) (*model.Review, error) {
	var review model.Review
	err := r.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: fields}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&review)
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *ReviewRepository) Delete(ctx context.Context, id bson.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// DeleteByPlace removes every review of a place and returns their ids.
func (r *ReviewRepository) DeleteByPlace(ctx context.Context, placeID bson.ObjectID) ([]bson.ObjectID, error) {
	filter := bson.D{{Key: "place", Value: placeID}}

	cursor, err := r.coll.Find(ctx, filter, options.Find().SetProjection(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var rows []struct {
		ID bson.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	if _, err := r.coll.DeleteMany(ctx, filter); err != nil {
		return nil, err
	}

	ids := make([]bson.ObjectID, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	return ids, nil
}

func (r *ReviewRepository) ListByUser(ctx context.Context, userID uint) ([]model.Review, error) {
	return r.find(ctx, bson.D{{Key: "user", Value: userID}})
}

// PlaceFinder lists the reviews of one place. Client filters narrow the
// result but never widen it past the place.
func (r *ReviewRepository) PlaceFinder(placeID bson.ObjectID) query.Finder[bson.M] {
	return r.Finder().Scoped(bson.D{{Key: "place", Value: placeID}})
}

// Aggregates computes review count and mean rating of a place. The mean is
// rounded to one decimal; a place without reviews has zero for both.
func (r *ReviewRepository) Aggregates(ctx context.Context, placeID bson.ObjectID) (model.PlaceAggregates, error) {
	ctx = ctxutil.WithOperation(ctx, "repository", "ReviewRepository.Aggregates")

	cursor, err := r.coll.Aggregate(ctx, bson.A{
		bson.D{{Key: "$match", Value: bson.D{{Key: "place", Value: placeID}}}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$place"},
			{Key: "averageRating", Value: bson.D{{Key: "$avg", Value: "$rating"}}},
			{Key: "totalreviews", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	})
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to aggregate reviews").
			String("place_id", placeID.Hex()).
			Err(err).
			Log()
		return model.PlaceAggregates{}, err
	}

	var rows []struct {
		AverageRating float64 `bson:"averageRating"`
		TotalReviews  int     `bson:"totalreviews"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return model.PlaceAggregates{}, err
	}
	if len(rows) == 0 {
		return model.PlaceAggregates{}, nil
	}
	return model.PlaceAggregates{
		TotalReviews:  rows[0].TotalReviews,
		AverageRating: math.Round(rows[0].AverageRating*10) / 10,
	}, nil
}

// IncrementCounter adds delta to a numeric review field.
func (r *ReviewRepository) IncrementCounter(ctx context.Context, id bson.ObjectID, field string, delta int) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$inc", Value: bson.D{{Key: field, Value: delta}}}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *ReviewRepository) find(ctx context.Context, filter bson.D) ([]model.Review, error) {
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	reviews := []model.Review{}
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}
