package service

import (
	"context"
	"sync"
	"time"

	"github.com/Payphone-Digital/locatory/internal/model"
	"github.com/Payphone-Digital/locatory/internal/repository"
	"github.com/Payphone-Digital/locatory/pkg/cache"
	"github.com/Payphone-Digital/locatory/pkg/geo"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type fakeLocator struct {
	loc   *geo.Location
	err   error
	calls []string
}

func (f *fakeLocator) Resolve(_ context.Context, query string) (*geo.Location, error) {
	f.calls = append(f.calls, query)
	if f.err != nil {
		return nil, f.err
	}
	loc := *f.loc
	return &loc, nil
}

// userStore keeps users in memory.
type userStore struct {
	mu     sync.Mutex
	users  map[uint]*model.User
	nextID uint
}

func newUserStore() *userStore {
	return &userStore{users: map[uint]*model.User{}, nextID: 1}
}

func (s *userStore) clone(u *model.User) *model.User {
	c := *u
	c.Notifications = append(datatypes.JSONSlice[model.Notification]{}, u.Notifications...)
	return &c
}

func (s *userStore) GetByID(_ context.Context, id uint) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s.clone(u), nil
}

func (s *userStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return s.clone(u), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *userStore) GetByResetToken(_ context.Context, hash string, now time.Time) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ResetPasswordToken == hash && u.ResetPasswordExpire != nil && u.ResetPasswordExpire.After(now) {
			return s.clone(u), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *userStore) Create(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.ID = s.nextID
	s.nextID++
	u.TokenVersion = 1
	u.CreatedAt = time.Now()
	s.users[u.ID] = s.clone(u)
	return nil
}

func (s *userStore) Update(_ context.Context, id uint, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for k, v := range fields {
		switch k {
		case "name":
			u.Name = v.(string)
		case "email":
			u.Email = v.(string)
		case "address":
			u.Address = v.(string)
		case "photo":
			u.Photo = v.(string)
		case "location":
			u.Location = v.(datatypes.JSONType[geo.Point])
		case "preferred_category":
			u.PreferredCategory = v.(datatypes.JSONSlice[string])
		case "password":
			u.Password = v.(string)
		case "last_login":
			t := v.(time.Time)
			u.LastLogin = &t
		case "refresh_token_hash":
			u.RefreshTokenHash, _ = v.(string)
		case "refresh_token_expires_at":
			u.RefreshTokenExpires, _ = v.(*time.Time)
		case "reset_password_token":
			u.ResetPasswordToken, _ = v.(string)
		case "reset_password_expire":
			switch t := v.(type) {
			case time.Time:
				u.ResetPasswordExpire = &t
			default:
				u.ResetPasswordExpire = nil
			}
		}
	}
	return nil
}

func (s *userStore) UpdatePassword(ctx context.Context, id uint, hashed string) error {
	return s.Update(ctx, id, map[string]any{"password": hashed, "reset_password_token": nil, "reset_password_expire": nil})
}

func (s *userStore) UpdateLastLogin(ctx context.Context, id uint) error {
	return s.Update(ctx, id, map[string]any{"last_login": time.Now()})
}

func (s *userStore) UpdateRefreshToken(ctx context.Context, id uint, hash string, expires *time.Time) error {
	return s.Update(ctx, id, map[string]any{"refresh_token_hash": hash, "refresh_token_expires_at": expires})
}

func (s *userStore) SetResetToken(ctx context.Context, id uint, hash string, expire time.Time) error {
	return s.Update(ctx, id, map[string]any{"reset_password_token": hash, "reset_password_expire": expire})
}

func (s *userStore) IncrementTokenVersion(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.TokenVersion++
	u.RefreshTokenHash = ""
	u.RefreshTokenExpires = nil
	return nil
}

func (s *userStore) AddNotification(_ context.Context, userID uint, n model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Notifications = append(u.Notifications, n)
	return nil
}

func (s *userStore) MarkNotificationRead(_ context.Context, userID uint, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	for i := range u.Notifications {
		if u.Notifications[i].ID == id {
			u.Notifications[i].Read = true
			return s.clone(u), nil
		}
	}
	return nil, repository.ErrNotificationNotFound
}

func (s *userStore) TrimNotifications(_ context.Context, userID uint, max int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[userID]
	if max > 0 && len(u.Notifications) > max {
		u.Notifications = u.Notifications[len(u.Notifications)-max:]
	}
	return nil
}

// placeStore keeps places in memory and records spatial filters.
type placeStore struct {
	places       map[bson.ObjectID]*model.Place
	withinCalls  []bson.D
	withinResult []model.Place
}

func newPlaceStore() *placeStore {
	return &placeStore{places: map[bson.ObjectID]*model.Place{}}
}

func (s *placeStore) Create(_ context.Context, p *model.Place) error {
	if p.ID.IsZero() {
		p.ID = bson.NewObjectID()
	}
	c := *p
	s.places[p.ID] = &c
	return nil
}

func (s *placeStore) GetByID(_ context.Context, id bson.ObjectID) (*model.Place, error) {
	p, ok := s.places[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	c := *p
	return &c, nil
}

func (s *placeStore) Update(_ context.Context, id bson.ObjectID, fields bson.D) (*model.Place, error) {
	p, ok := s.places[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	for _, f := range fields {
		switch f.Key {
		case "name":
			p.Name = f.Value.(string)
		case "category":
			p.Category = f.Value.(string)
		case "address":
			p.Address = f.Value.(string)
		case "photo":
			p.Photo = f.Value.(string)
		case "location":
			p.Location = f.Value.(*geo.Point)
		}
	}
	c := *p
	return &c, nil
}

func (s *placeStore) Delete(_ context.Context, id bson.ObjectID) error {
	if _, ok := s.places[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(s.places, id)
	return nil
}

func (s *placeStore) ListByUser(_ context.Context, userID uint) ([]model.Place, error) {
	out := []model.Place{}
	for _, p := range s.places {
		if p.User == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *placeStore) FindWithin(_ context.Context, within bson.D) ([]model.Place, error) {
	s.withinCalls = append(s.withinCalls, within)
	return s.withinResult, nil
}

func (s *placeStore) UpdateAggregates(_ context.Context, id bson.ObjectID, agg model.PlaceAggregates) error {
	p, ok := s.places[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	p.TotalReviews = agg.TotalReviews
	p.AverageRating = agg.AverageRating
	return nil
}

// reviewStore keeps reviews in memory.
type reviewStore struct {
	reviews map[bson.ObjectID]*model.Review
}

func newReviewStore() *reviewStore {
	return &reviewStore{reviews: map[bson.ObjectID]*model.Review{}}
}

func (s *reviewStore) Create(_ context.Context, r *model.Review) error {
	if r.ID.IsZero() {
		r.ID = bson.NewObjectID()
	}
	c := *r
	s.reviews[r.ID] = &c
	return nil
}

func (s *reviewStore) GetByID(_ context.Context, id bson.ObjectID) (*model.Review, error) {
	r, ok := s.reviews[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	c := *r
	return &c, nil
}

func (s *reviewStore) Update(_ context.Context, id bson.ObjectID, fields bson.D) (*model.Review, error) {
	r, ok := s.reviews[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	for _, f := range fields {
		switch f.Key {
		case "title":
			r.Title = f.Value.(string)
		case "accessibility":
			r.Accessibility = f.Value.(int)
		case "decoration":
			r.Decoration = f.Value.(int)
		case "service":
			r.Service = f.Value.(int)
		case "familyfriendly":
			r.FamilyFriendly = f.Value.(int)
		case "rating":
			r.Rating = f.Value.(float64)
		}
	}
	c := *r
	return &c, nil
}

func (s *reviewStore) Delete(_ context.Context, id bson.ObjectID) error {
	if _, ok := s.reviews[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(s.reviews, id)
	return nil
}

func (s *reviewStore) DeleteByPlace(_ context.Context, placeID bson.ObjectID) ([]bson.ObjectID, error) {
	var ids []bson.ObjectID
	for id, r := range s.reviews {
		if r.Place == placeID {
			ids = append(ids, id)
			delete(s.reviews, id)
		}
	}
	return ids, nil
}

func (s *reviewStore) ListByUser(_ context.Context, userID uint) ([]model.Review, error) {
	out := []model.Review{}
	for _, r := range s.reviews {
		if r.User == userID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *reviewStore) Aggregates(_ context.Context, placeID bson.ObjectID) (model.PlaceAggregates, error) {
	var agg model.PlaceAggregates
	sum := 0.0
	for _, r := range s.reviews {
		if r.Place == placeID {
			agg.TotalReviews++
			sum += r.Rating
		}
	}
	if agg.TotalReviews > 0 {
		agg.AverageRating = float64(int(sum/float64(agg.TotalReviews)*10+0.5)) / 10
	}
	return agg, nil
}

func (s *reviewStore) IncrementCounter(_ context.Context, id bson.ObjectID, field string, delta int) error {
	r, ok := s.reviews[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	switch field {
	case "totallikes":
		r.TotalLikes += delta
	case "totaldislikes":
		r.TotalDislikes += delta
	}
	return nil
}

// reactionStore enforces one reaction per user, review and kind.
type reactionStore struct {
	items   map[model.ReactionKind][]model.Reaction
	deleted []bson.ObjectID
}

func newReactionStore() *reactionStore {
	return &reactionStore{items: map[model.ReactionKind][]model.Reaction{}}
}

func (s *reactionStore) Create(_ context.Context, kind model.ReactionKind, r *model.Reaction) error {
	for _, existing := range s.items[kind] {
		if existing.Review == r.Review && existing.User == r.User {
			return repository.ErrDuplicateReaction
		}
	}
	r.ID = bson.NewObjectID()
	s.items[kind] = append(s.items[kind], *r)
	return nil
}

func (s *reactionStore) ListByReview(_ context.Context, kind model.ReactionKind, reviewID bson.ObjectID) ([]model.Reaction, error) {
	out := []model.Reaction{}
	for _, r := range s.items[kind] {
		if r.Review == reviewID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *reactionStore) ListByUser(_ context.Context, kind model.ReactionKind, userID uint) ([]model.Reaction, error) {
	out := []model.Reaction{}
	for _, r := range s.items[kind] {
		if r.User == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *reactionStore) DeleteByReviews(_ context.Context, ids ...bson.ObjectID) error {
	s.deleted = append(s.deleted, ids...)
	return nil
}

func newTestCache() *CacheService {
	return NewCacheService(cache.NewCache(0), time.Minute)
}
