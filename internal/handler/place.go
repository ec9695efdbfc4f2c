package handler

import (
	"context"
	"net/http"

	"github.com/Payphone-Digital/locatory/internal/constants"
	"github.com/Payphone-Digital/locatory/internal/dto"
	apperrors "github.com/Payphone-Digital/locatory/internal/errors"
	"github.com/Payphone-Digital/locatory/internal/model"
	"github.com/Payphone-Digital/locatory/internal/service"
	"github.com/Payphone-Digital/locatory/pkg/geo"
	"github.com/Payphone-Digital/locatory/pkg/logger"
	"github.com/gin-gonic/gin"
)

type PlaceService interface {
	Create(ctx context.Context, actor service.Actor, req *dto.CreatePlaceRequest) (*model.Place, error)
	Get(ctx context.Context, id string) (*model.Place, error)
	Update(ctx context.Context, actor service.Actor, id string, req *dto.UpdatePlaceRequest) (*model.Place, error)
	Delete(ctx context.Context, actor service.Actor, id string) error
	ListByUser(ctx context.Context, userID uint) ([]model.Place, error)
	GetPlacesInRadius(ctx context.Context, zipcode string, distanceKM float64) ([]model.Place, error)
}

type PlaceHandler struct {
	places PlaceService
}

func NewPlaceHandler(places PlaceService) *PlaceHandler {
	return &PlaceHandler{places: places}
}

func (h *PlaceHandler) Create(c *gin.Context) {
	ctx := requestContext(c, "CreatePlace")

	var req dto.CreatePlaceRequest
	if !bindJSON(ctx, c, &req) {
		return
	}

	place, err := h.places.Create(ctx, currentActor(c), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, constants.BuildDataResponse(place))
}

func (h *PlaceHandler) Get(c *gin.Context) {
	ctx := requestContext(c, "GetPlace")

	place, err := h.places.Get(ctx, c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, constants.BuildDataResponse(place))
}

func (h *PlaceHandler) Update(c *gin.Context) {
	ctx := requestContext(c, "UpdatePlace")

	var req dto.UpdatePlaceRequest
	if !bindJSON(ctx, c, &req) {
		return
	}

	place, err := h.places.Update(ctx, currentActor(c), c.Param("id"), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, constants.BuildDataResponse(place))
}

func (h *PlaceHandler) Delete(c *gin.Context) {
	ctx := requestContext(c, "DeletePlace")

	if err := h.places.Delete(ctx, currentActor(c), c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, constants.BuildDeletedResponse())
}

func (h *PlaceHandler) ListMine(c *gin.Context) {
	ctx := requestContext(c, "ListMyPlaces")

	places, err := h.places.ListByUser(ctx, currentUserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	sendList(c, places)
}

// InRadius serves GET /places/radius/:zipcode/:distance, distance in km.
func (h *PlaceHandler) InRadius(c *gin.Context) {
	ctx := requestContext(c, "GetPlacesInRadius")
	zipcode := c.Param("zipcode")

	distance, err := geo.ParseDistance(c.Param("distance"))
	if err != nil {
		_ = c.Error(apperrors.InvalidInput(err))
		return
	}

	places, err := h.places.GetPlacesInRadius(ctx, zipcode, distance)
	if err != nil {
		_ = c.Error(err)
		return
	}

	logger.DebugWithContext(ctx, "Radius search").
		String("zipcode", zipcode).
		Float64("distance_km", distance).
		Int("count", len(places)).
		Log()
	sendList(c, places)
}
