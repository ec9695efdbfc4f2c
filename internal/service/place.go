package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/Payphone-Digital/locatory/internal/dto"
	apperrors "github.com/Payphone-Digital/locatory/internal/errors"
	"github.com/Payphone-Digital/locatory/internal/model"
	"github.com/Payphone-Digital/locatory/internal/repository"
	ctxutil "github.com/Payphone-Digital/locatory/pkg/context"
	"github.com/Payphone-Digital/locatory/pkg/geo"
	"github.com/Payphone-Digital/locatory/pkg/logger"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// LocationField is the GeoJSON field radius queries run against.
const LocationField = "location"

type PlaceStore interface {
	Create(ctx context.Context, place *model.Place) error
	GetByID(ctx context.Context, id bson.ObjectID) (*model.Place, error)
	Update(ctx context.Context, id bson.ObjectID, fields bson.D) (*model.Place, error)
	Delete(ctx context.Context, id bson.ObjectID) error
	ListByUser(ctx context.Context, userID uint) ([]model.Place, error)
	FindWithin(ctx context.Context, within bson.D) ([]model.Place, error)
	UpdateAggregates(ctx context.Context, id bson.ObjectID, agg model.PlaceAggregates) error
}

// PlaceChildren removes the reviews and reactions of a deleted place.
type PlaceChildren interface {
	DeleteForPlace(ctx context.Context, placeID bson.ObjectID) error
}

type PlaceService struct {
	places   PlaceStore
	children PlaceChildren
	locator  Locator
	cache    *CacheService
	cacheTTL time.Duration
}

func NewPlaceService(places PlaceStore, children PlaceChildren, locator Locator, cache *CacheService, cacheTTL time.Duration) *PlaceService {
	return &PlaceService{
		places:   places,
		children: children,
		locator:  locator,
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

func placeNotFound(id string) *apperrors.DomainError {
	return apperrors.NotFound("Place not found with id of %s", id)
}

func (s *PlaceService) parseID(id string) (bson.ObjectID, error) {
	oid, err := repository.ParseObjectID(id)
	if err != nil {
		return oid, placeNotFound(id)
	}
	return oid, nil
}

// geocode turns an address into a stored point. A missing or failing
// geocoder leaves the place without a location.
func (s *PlaceService) geocode(ctx context.Context, address string) *geo.Point {
	if s.locator == nil || strings.TrimSpace(address) == "" {
		return nil
	}
	loc, err := s.locator.Resolve(ctx, address)
	if err != nil {
		logger.WarnWithContext(ctx, "Place address geocoding failed").
			String("address", address).
			Err(err).
			Log()
		return nil
	}
	point := geo.NewPoint(*loc)
	return &point
}

func (s *PlaceService) Create(ctx context.Context, actor Actor, req *dto.CreatePlaceRequest) (*model.Place, error) {
	ctx = ctxutil.WithOperation(ctx, "service", "CreatePlace")

	place := &model.Place{
		Name:     strings.TrimSpace(req.Name),
		Category: strings.TrimSpace(req.Category),
		Address:  req.Address,
		Photo:    req.Photo,
		User:     actor.UserID,
		Location: s.geocode(ctx, req.Address),
	}
	if err := s.places.Create(ctx, place); err != nil {
		return nil, documentError(err, apperrors.ErrPlaceNotFound)
	}
	return place, nil
}

// Get returns one place, served from cache when possible.
func (s *PlaceService) Get(ctx context.Context, id string) (*model.Place, error) {
	ctx = ctxutil.WithOperation(ctx, "service", "GetPlace")

	oid, err := s.parseID(id)
	if err != nil {
		return nil, err
	}

	var cached model.Place
	if s.cache.GetJSON(ctx, PlaceCacheKey(oid.Hex()), &cached) {
		return &cached, nil
	}

	place, err := s.places.GetByID(ctx, oid)
	if err != nil {
		return nil, documentError(err, placeNotFound(id))
	}
	s.cache.SetJSON(ctx, PlaceCacheKey(oid.Hex()), place, s.cacheTTL)
	return place, nil
}

func (s *PlaceService) Update(ctx context.Context, actor Actor, id string, req *dto.UpdatePlaceRequest) (*model.Place, error) {
	ctx = ctxutil.WithOperation(ctx, "service", "UpdatePlace")

	oid, err := s.parseID(id)
	if err != nil {
		return nil, err
	}
	existing, err := s.places.GetByID(ctx, oid)
	if err != nil {
		return nil, documentError(err, placeNotFound(id))
	}
	if !actor.CanModify(existing.User) {
		return nil, apperrors.Forbidden("User %d is not authorized to update this place", actor.UserID)
	}

	fields := bson.D{}
	if req.Name != nil {
		fields = append(fields, bson.E{Key: "name", Value: strings.TrimSpace(*req.Name)})
	}
	if req.Category != nil {
		fields = append(fields, bson.E{Key: "category", Value: strings.TrimSpace(*req.Category)})
	}
	if req.Photo != nil {
		fields = append(fields, bson.E{Key: "photo", Value: *req.Photo})
	}
	if req.Address != nil && *req.Address != existing.Address {
		fields = append(fields, bson.E{Key: "address", Value: *req.Address})
		if point := s.geocode(ctx, *req.Address); point != nil {
			fields = append(fields, bson.E{Key: "location", Value: point})
		}
	}
	if len(fields) == 0 {
		return existing, nil
	}

	place, err := s.places.Update(ctx, oid, fields)
	if err != nil {
		return nil, documentError(err, placeNotFound(id))
	}
	s.cache.Invalidate(ctx, PlaceCacheKey(oid.Hex()))
	return place, nil
}

// Delete removes a place together with its reviews and their reactions.
func (s *PlaceService) Delete(ctx context.Context, actor Actor, id string) error {
	ctx = ctxutil.WithOperation(ctx, "service", "DeletePlace")

	oid, err := s.parseID(id)
	if err != nil {
		return err
	}
	existing, err := s.places.GetByID(ctx, oid)
	if err != nil {
		return documentError(err, placeNotFound(id))
	}
	if !actor.CanModify(existing.User) {
		return apperrors.Forbidden("User %d is not authorized to delete this place", actor.UserID)
	}

	if err := s.places.Delete(ctx, oid); err != nil {
		return documentError(err, placeNotFound(id))
	}
	s.cache.Invalidate(ctx, PlaceCacheKey(oid.Hex()))

	if s.children != nil {
		if err := s.children.DeleteForPlace(ctx, oid); err != nil {
			logger.ErrorWithContext(ctx, "Failed to delete reviews of place").
				String("place_id", oid.Hex()).
				Err(err).
				Log()
			return apperrors.WrapError(apperrors.ErrInternal, err)
		}
	}
	return nil
}

func (s *PlaceService) ListByUser(ctx context.Context, userID uint) ([]model.Place, error) {
	places, err := s.places.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return places, nil
}

// GetPlacesInRadius geocodes zipcode once and returns the places within
// distanceKM of the first match.
func (s *PlaceService) GetPlacesInRadius(ctx context.Context, zipcode string, distanceKM float64) ([]model.Place, error) {
	ctx = ctxutil.WithOperation(ctx, "service", "GetPlacesInRadius")

	if math.IsNaN(distanceKM) || math.IsInf(distanceKM, 0) || distanceKM < 0 {
		return nil, apperrors.InvalidInput(geo.ErrInvalidDistance)
	}
	if s.locator == nil {
		return nil, apperrors.ErrServiceUnavailable
	}

	start := time.Now()
	loc, err := s.locator.Resolve(ctx, zipcode)
	if err != nil {
		switch {
		case errors.Is(err, geo.ErrNotFound):
			return nil, apperrors.WithMessage(apperrors.ErrLocationNotFound, "No location found for zipcode %s", zipcode)
		default:
			logger.ErrorWithContext(ctx, "Geocoding failed").
				String("zipcode", zipcode).
				Err(err).
				Log()
			return nil, apperrors.WrapError(apperrors.ErrUpstream, err)
		}
	}

	radians := geo.RadiusInRadians(distanceKM)
	places, err := s.places.FindWithin(ctx, geo.WithinSphere(LocationField, *loc, radians))
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "Radius query resolved").
		String("zipcode", zipcode).
		Float64("distance_km", distanceKM).
		Float64("radius_rad", radians).
		Int("count", len(places)).
		Duration(time.Since(start)).
		Log()
	return places, nil
}
