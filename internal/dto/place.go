package dto

type CreatePlaceRequest struct {
	Name     string `json:"name" binding:"required,max=50"`
	Category string `json:"category" binding:"required,max=50"`
	Address  string `json:"address" binding:"required,max=255"`
	Photo    string `json:"photo" binding:"omitempty,url"`
}

// UpdatePlaceRequest fields are optional; a new address is geocoded again.
type UpdatePlaceRequest struct {
	Name     *string `json:"name" binding:"omitempty,max=50"`
	Category *string `json:"category" binding:"omitempty,max=50"`
	Address  *string `json:"address" binding:"omitempty,max=255"`
	Photo    *string `json:"photo" binding:"omitempty,url"`
}

type CreateReviewRequest struct {
	Title          string  `json:"title" binding:"required,max=100"`
	Description    string  `json:"description" binding:"required,max=500"`
	AverageBudget  float64 `json:"averagebudget" binding:"gte=0"`
	Accessibility  int     `json:"accessibility" binding:"required,min=1,max=10"`
	Decoration     int     `json:"decoration" binding:"required,min=1,max=10"`
	Service        int     `json:"service" binding:"required,min=1,max=10"`
	FamilyFriendly int     `json:"familyfriendly" binding:"required,min=1,max=10"`
	Transportation string  `json:"transportation" binding:"omitempty,max=100"`
	Setting        string  `json:"setting" binding:"omitempty,max=100"`
	Photo          string  `json:"photo" binding:"omitempty,url"`
}

type UpdateReviewRequest struct {
	Title          *string  `json:"title" binding:"omitempty,max=100"`
	Description    *string  `json:"description" binding:"omitempty,max=500"`
	AverageBudget  *float64 `json:"averagebudget" binding:"omitempty,gte=0"`
	Accessibility  *int     `json:"accessibility" binding:"omitempty,min=1,max=10"`
	Decoration     *int     `json:"decoration" binding:"omitempty,min=1,max=10"`
	Service        *int     `json:"service" binding:"omitempty,min=1,max=10"`
	FamilyFriendly *int     `json:"familyfriendly" binding:"omitempty,min=1,max=10"`
	Transportation *string  `json:"transportation" binding:"omitempty,max=100"`
	Setting        *string  `json:"setting" binding:"omitempty,max=100"`
	Photo          *string  `json:"photo" binding:"omitempty,url"`
}

// CreateNotificationRequest lets a reviewer's activity be announced to
// the review's author. Message overrides the rendered default.
type CreateNotificationRequest struct {
	Message string `json:"message" binding:"omitempty,max=500"`
}
