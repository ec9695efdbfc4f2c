package repository

import (
	"context"
	"time"

	"github.com/Payphone-Digital/locatory/internal/constants"
	"github.com/Payphone-Digital/locatory/internal/model"
	ctxutil "github.com/Payphone-Digital/locatory/pkg/context"
	"github.com/Payphone-Digital/locatory/pkg/logger"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type PlaceRepository struct {
	coll *mongo.Collection
}

func NewPlaceRepository(db *mongo.Database) *PlaceRepository {
	return &PlaceRepository{coll: db.Collection(constants.CollectionPlaces)}
}

// Finder exposes the collection to list queries.
func (r *PlaceRepository) Finder() *MongoFinder {
	return NewMongoFinder(r.coll)
}

func (r *PlaceRepository) Create(ctx context.Context, place *model.Place) error {
	ctx = ctxutil.WithOperation(ctx, "repository", "PlaceRepository.Create")

	if place.ID.IsZero() {
		place.ID = bson.NewObjectID()
	}
	if place.CreatedAt.IsZero() {
		place.CreatedAt = time.Now().UTC()
	}

	start := time.Now()
	if _, err := r.coll.InsertOne(ctx, place); err != nil {
		logger.ErrorWithContext(ctx, "Failed to create place").
			String("name", place.Name).
			Duration(time.Since(start)).
			Err(err).
			Log()
		return err
	}

	logger.InfoWithContext(ctx, "Place created successfully").
		String("place_id", place.ID.Hex()).
		Duration(time.Since(start)).
		Log()
	return nil
}

// GetByID returns mongo.ErrNoDocuments when the place does not exist.
func (r *PlaceRepository) GetByID(ctx context.Context, id bson.ObjectID) (*model.Place, error) {
	var place model.Place
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&place); err != nil {
		return nil, err
	}
	return &place, nil
}

// Update sets fields and returns the updated place.
func (r *PlaceRepository) Update(ctx context.Context, id bson.ObjectID, fields bson.D) (*model.Place, error) {
	ctx = ctxutil.WithOperation(ctx, "repository", "PlaceRepository.Update")

	var place model.Place
	err := r.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: fields}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&place)
	if err != nil {
		logger.DebugWithContext(ctx, "Failed to update place").
			String("place_id", id.Hex()).
			Err(err).
			Log()
		return nil, err
	}
	return &place, nil
}

func (r *PlaceRepository) Delete(ctx context.Context, id bson.ObjectID) error {
	ctx = ctxutil.WithOperation(ctx, "repository", "PlaceRepository.Delete")

	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	logger.InfoWithContext(ctx, "Place deleted successfully").
		String("place_id", id.Hex()).
		Log()
	return nil
}

// ListByUser returns the user's places, newest first.
func (r *PlaceRepository) ListByUser(ctx context.Context, userID uint) ([]model.Place, error) {
	return r.find(ctx, bson.D{{Key: "user", Value: userID}},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

// FindWithin returns places matching a spatial filter.
func (r *PlaceRepository) FindWithin(ctx context.Context, within bson.D) ([]model.Place, error) {
	ctx = ctxutil.WithOperation(ctx, "repository", "PlaceRepository.FindWithin")

	start := time.Now()
	places, err := r.find(ctx, within)
	if err != nil {
		logger.ErrorWithContext(ctx, "Radius query failed").Err(err).Log()
		return nil, err
	}
	logger.DebugWithContext(ctx, "Radius query completed").
		Int("count", len(places)).
		Duration(time.Since(start)).
		Log()
	return places, nil
}

// UpdateAggregates stores the denormalised review statistics.
func (r *PlaceRepository) UpdateAggregates(ctx context.Context, id bson.ObjectID, agg model.PlaceAggregates) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "totalreviews", Value: agg.TotalReviews},
			{Key: "averageRating", Value: agg.AverageRating},
		}}},
	)
	return err
}

func (r *PlaceRepository) find(ctx context.Context, filter bson.D, opts ...options.Lister[options.FindOptions]) ([]model.Place, error) {
	cursor, err := r.coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	places := []model.Place{}
	if err := cursor.All(ctx, &places); err != nil {
		return nil, err
	}
	return places, nil
}
