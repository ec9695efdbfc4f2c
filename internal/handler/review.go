package handler

import (
	"context"
	"net/http"

	"github.com/Payphone-Digital/locatory/internal/constants"
	"github.com/Payphone-Digital/locatory/internal/dto"
	"github.com/Payphone-Digital/locatory/internal/model"
	"github.com/Payphone-Digital/locatory/internal/service"
	"github.com/gin-gonic/gin"
)

type ReviewService interface {
	Create(ctx context.Context, actor service.Actor, placeID string, req *dto.CreateReviewRequest) (*model.Review, error)
	Get(ctx context.Context, id string) (*model.Review, error)
	Update(ctx context.Context, actor service.Actor, id string, req *dto.UpdateReviewRequest) (*model.Review, error)
	Delete(ctx context.Context, actor service.Actor, id string) error
	ListByUser(ctx context.Context, userID uint) ([]model.Review, error)
}

// NotificationSender announces activity on a review to its author.
type NotificationSender interface {
	Create(ctx context.Context, actor service.Actor, reviewID string, req *dto.CreateNotificationRequest) (*model.Notification, error)
}

type ReviewHandler struct {
	reviews       ReviewService
	notifications NotificationSender
}

func NewReviewHandler(reviews ReviewService, notifications NotificationSender) *ReviewHandler {
	return &ReviewHandler{
		reviews:       reviews,
		notifications: notifications,
	}
}

// Create serves POST /places/:id/reviews.
func (h *ReviewHandler) Create(c *gin.Context) {
	ctx := requestContext(c, "CreateReview")

	var req dto.CreateReviewRequest
	if !bindJSON(ctx, c, &req) {
		return
	}

	review, err := h.reviews.Create(ctx, currentActor(c), c.Param("id"), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, constants.BuildDataResponse(review))
}

func (h *ReviewHandler) Get(c *gin.Context) {
	ctx := requestContext(c, "GetReview")

	review, err := h.reviews.Get(ctx, c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, constants.BuildDataResponse(review))
}

func (h *ReviewHandler) Update(c *gin.Context) {
	ctx := requestContext(c, "UpdateReview")

	var req dto.UpdateReviewRequest
	if !bindJSON(ctx, c, &req) {
		return
	}

	review, err := h.reviews.Update(ctx, currentActor(c), c.Param("id"), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, constants.BuildDataResponse(review))
}

func (h *ReviewHandler) Delete(c *gin.Context) {
	ctx := requestContext(c, "DeleteReview")

	if err := h.reviews.Delete(ctx, currentActor(c), c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, constants.BuildDeletedResponse())
}

func (h *ReviewHandler) ListMine(c *gin.Context) {
	ctx := requestContext(c, "ListMyReviews")

	reviews, err := h.reviews.ListByUser(ctx, currentUserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	sendList(c, reviews)
}

// Notify serves POST /reviews/:id/notifications. The body is optional.
func (h *ReviewHandler) Notify(c *gin.Context) {
	ctx := requestContext(c, "NotifyReviewAuthor")

	var req dto.CreateNotificationRequest
	if c.Request.ContentLength > 0 && !bindJSON(ctx, c, &req) {
		return
	}

	n, err := h.notifications.Create(ctx, currentActor(c), c.Param("id"), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, constants.BuildDataResponse(n))
}
