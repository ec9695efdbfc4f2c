package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Payphone-Digital/locatory/internal/constants"
	apperrors "github.com/Payphone-Digital/locatory/internal/errors"
	"github.com/Payphone-Digital/locatory/internal/service"
	ctxutil "github.com/Payphone-Digital/locatory/pkg/context"
	"github.com/Payphone-Digital/locatory/pkg/query"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Success    bool             `json:"success"`
	Count      int              `json:"count"`
	Error      string           `json:"error"`
	Pagination query.Pagination `json:"pagination"`
	Data       []map[string]any `json:"data"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var body envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON %q: %v", rec.Body.String(), err)
	}
	return body
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"not found keeps message", apperrors.NotFound("Place not found with id of %s", "abc"), http.StatusNotFound, "Place not found with id of abc"},
		{"invalid query", query.ErrInvalidQuery, http.StatusBadRequest, "invalid query"},
		{"location not found", apperrors.WithMessage(apperrors.ErrLocationNotFound, "No location found for zipcode 0000"), http.StatusNotFound, "No location found for zipcode 0000"},
		{"upstream hidden", apperrors.WrapError(apperrors.ErrUpstream, errors.New("mapquest: 403 bad key")), http.StatusInternalServerError, apperrors.ServerErrorMessage},
		{"plain error hidden", errors.New("connection reset"), http.StatusInternalServerError, apperrors.ServerErrorMessage},
		{"forbidden", apperrors.Forbidden("User 3 is not authorized to update this place"), http.StatusForbidden, "User 3 is not authorized to update this place"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(ErrorHandler())
			r.GET("/", func(c *gin.Context) { _ = c.Error(tt.err) })

			rec := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			body := decode(t, rec)
			if body.Success || body.Error != tt.wantError {
				t.Errorf("body = %+v, want error %q", body, tt.wantError)
			}
		})
	}
}

func TestErrorHandler_NoErrorPassesThrough(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/", func(c *gin.Context) { c.JSON(http.StatusOK, constants.BuildDataResponse("ok")) })

	if rec := serve(r, httptest.NewRequest(http.MethodGet, "/", nil)); rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

type fakeFinder struct {
	total    int64
	docs     []map[string]any
	err      error
	spec     *query.Spec
	populate []query.Populate
	counted  query.Filter
}

func (f *fakeFinder) Count(_ context.Context, filter query.Filter) (int64, error) {
	f.counted = filter
	return f.total, f.err
}

func (f *fakeFinder) Find(_ context.Context, spec *query.Spec, populate ...query.Populate) ([]map[string]any, error) {
	f.spec = spec
	f.populate = populate
	return f.docs, f.err
}

func advancedRouter(finder *fakeFinder, populate ...query.Populate) *gin.Engine {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/reviews", AdvancedResults(query.NewTranslator(), finder, populate...), SendAdvancedResults)
	return r
}

func TestAdvancedResults(t *testing.T) {
	finder := &fakeFinder{
		total: 12,
		docs:  []map[string]any{{"title": "a"}, {"title": "b"}, {"title": "c"}, {"title": "d"}, {"title": "e"}},
	}
	populate := query.Populate{Path: "place", From: constants.CollectionPlaces, Select: []string{"name"}}
	r := advancedRouter(finder, populate)

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/reviews?rating[gte]=7&select=title,rating&sort=rating&page=2&limit=5", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}

	body := decode(t, rec)
	if !body.Success || body.Count != 5 || len(body.Data) != 5 {
		t.Errorf("envelope = %+v", body)
	}
	p := body.Pagination
	if p.Next == nil || p.Next.Page != 3 || p.Prev == nil || p.Prev.Page != 1 {
		t.Errorf("pagination = %+v", p)
	}

	if len(finder.counted) != 1 || finder.counted[0].Field != "rating" || finder.counted[0].Operator != query.OpGte {
		t.Errorf("count filter = %+v", finder.counted)
	}
	if finder.spec.Skip() != 5 || finder.spec.Limit != 5 {
		t.Errorf("skip/limit = %d/%d", finder.spec.Skip(), finder.spec.Limit)
	}
	if len(finder.populate) != 1 || finder.populate[0].Path != "place" {
		t.Errorf("populate = %+v", finder.populate)
	}
}

func TestAdvancedResults_EmptyAndDefaults(t *testing.T) {
	finder := &fakeFinder{}
	rec := serve(advancedRouter(finder), httptest.NewRequest(http.MethodGet, "/reviews?page=abc&limit=-4", nil))

	body := decode(t, rec)
	if rec.Code != http.StatusOK || body.Count != 0 || body.Data == nil {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if finder.spec.Page != 1 || finder.spec.Limit != 25 {
		t.Errorf("page/limit = %d/%d, want defaults", finder.spec.Page, finder.spec.Limit)
	}
	if body.Pagination.Next != nil || body.Pagination.Prev != nil {
		t.Errorf("pagination = %+v", body.Pagination)
	}
}

func TestAdvancedResults_Errors(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		finderErr  error
		wantStatus int
	}{
		{"unknown operator", "/reviews?rating[regex]=1", nil, http.StatusBadRequest},
		{"operator injection", "/reviews?$where=1", nil, http.StatusBadRequest},
		{"store failure", "/reviews", errors.New("server selection timeout"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(advancedRouter(&fakeFinder{err: tt.finderErr}), httptest.NewRequest(http.MethodGet, tt.target, nil))
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestScopedAdvancedResults(t *testing.T) {
	scoped := map[string]*fakeFinder{"p1": {total: 1, docs: []map[string]any{{"title": "only"}}}}
	scope := func(c *gin.Context) (query.Finder[map[string]any], error) {
		finder, ok := scoped[c.Param("id")]
		if !ok {
			return nil, apperrors.NotFound("No place with the id of %s", c.Param("id"))
		}
		return finder, nil
	}

	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/places/:id/reviews", ScopedAdvancedResults(query.NewTranslator(), scope), SendAdvancedResults)

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/places/p1/reviews?limit=1", nil))
	body := decode(t, rec)
	if rec.Code != http.StatusOK || body.Count != 1 || body.Pagination.Total != 1 {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if scoped["p1"].spec == nil || scoped["p1"].spec.Limit != 1 {
		t.Errorf("scoped finder not queried: %+v", scoped["p1"].spec)
	}

	if rec := serve(r, httptest.NewRequest(http.MethodGet, "/places/p2/reviews", nil)); rec.Code != http.StatusNotFound {
		t.Errorf("unknown scope status = %d, want 404", rec.Code)
	}
}

type fakeAuthenticator struct {
	tokens map[string]*service.Claims
}

func (f *fakeAuthenticator) Authenticate(_ context.Context, token string) (*service.Claims, error) {
	if claims, ok := f.tokens[token]; ok {
		return claims, nil
	}
	return nil, apperrors.ErrUnauthorized
}

func authRouter(roles ...string) *gin.Engine {
	auth := &fakeAuthenticator{tokens: map[string]*service.Claims{
		"user-token":  {UserID: 7, Email: "u@example.com", Role: constants.RoleUser},
		"admin-token": {UserID: 1, Email: "a@example.com", Role: constants.RoleAdmin},
	}}
	m := NewJWTMiddleware(auth, "token")

	r := gin.New()
	r.Use(ErrorHandler())
	handlers := []gin.HandlerFunc{m.RequireAuth()}
	if len(roles) > 0 {
		handlers = append(handlers, m.RequireRole(roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		id, _ := ctxutil.GetUserID(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"user": c.GetUint(constants.GinKeyUserID), "ctx_user": id})
	})
	r.GET("/me", handlers...)
	return r
}

func TestJWTMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		cookie     string
		roles      []string
		wantStatus int
	}{
		{"bearer", "Bearer user-token", "", nil, http.StatusOK},
		{"cookie", "", "user-token", nil, http.StatusOK},
		{"missing", "", "", nil, http.StatusUnauthorized},
		{"wrong scheme", "Basic user-token", "", nil, http.StatusUnauthorized},
		{"invalid", "Bearer forged", "", nil, http.StatusUnauthorized},
		{"role denied", "Bearer user-token", "", []string{constants.RoleAdmin}, http.StatusForbidden},
		{"role allowed", "Bearer admin-token", "", []string{constants.RoleAdmin}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set(constants.HeaderAuthorization, tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "token", Value: tt.cookie})
			}
			rec := serve(authRouter(tt.roles...), req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestJWTMiddleware_SetsUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(constants.HeaderAuthorization, "Bearer user-token")
	rec := serve(authRouter(), req)

	var body struct {
		User    uint `json:"user"`
		CtxUser uint `json:"ctx_user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.User != 7 || body.CtxUser != 7 {
		t.Errorf("user = %+v, want 7", body)
	}
}

func TestRateLimiter(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return clock }

	if _, ok := rl.Allow("1.1.1.1"); !ok {
		t.Fatal("first request denied")
	}
	if remaining, ok := rl.Allow("1.1.1.1"); !ok || remaining != 0 {
		t.Fatalf("second request: remaining=%d ok=%v", remaining, ok)
	}
	if _, ok := rl.Allow("1.1.1.1"); ok {
		t.Fatal("third request allowed")
	}
	if _, ok := rl.Allow("2.2.2.2"); !ok {
		t.Fatal("other client denied")
	}

	clock = clock.Add(61 * time.Second)
	if _, ok := rl.Allow("1.1.1.1"); !ok {
		t.Error("request after window denied")
	}
}

func TestRateLimiter_Middleware(t *testing.T) {
	r := gin.New()
	r.Use(NewRateLimiter(1, time.Hour).Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	if rec := serve(r, httptest.NewRequest(http.MethodGet, "/", nil)); rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	rec := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decode(t, rec); body.Error != constants.MsgRateLimit {
		t.Errorf("error = %q", body.Error)
	}
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		allowed    string
		origin     string
		method     string
		wantStatus int
		wantOrigin string
	}{
		{"wildcard echoes origin", "*", "https://app.example.com", http.MethodGet, http.StatusOK, "https://app.example.com"},
		{"listed origin", "https://a.com, https://b.com", "https://b.com", http.MethodGet, http.StatusOK, "https://b.com"},
		{"unlisted origin", "https://a.com", "https://evil.com", http.MethodGet, http.StatusOK, ""},
		{"preflight", "https://a.com", "https://a.com", http.MethodOptions, http.StatusNoContent, "https://a.com"},
		{"preflight rejected", "https://a.com", "https://evil.com", http.MethodOptions, http.StatusForbidden, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(CORS(tt.allowed))
			r.Any("/", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(tt.method, "/", nil)
			req.Header.Set("Origin", tt.origin)
			rec := serve(r, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("allow origin = %q, want %q", got, tt.wantOrigin)
			}
		})
	}
}

func TestRequestContext(t *testing.T) {
	r := gin.New()
	r.Use(RequestContext())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, ctxutil.GetRequestID(c.Request.Context()))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(constants.HeaderXRequestID, "req-123")
	rec := serve(r, req)
	if rec.Body.String() != "req-123" || rec.Header().Get(constants.HeaderXRequestID) != "req-123" {
		t.Errorf("incoming request id not kept: body=%q header=%q", rec.Body.String(), rec.Header().Get(constants.HeaderXRequestID))
	}

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	if len(rec.Body.String()) != 36 {
		t.Errorf("generated request id = %q", rec.Body.String())
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RecoveryMiddleware())
	r.GET("/", func(c *gin.Context) { panic("boom") })

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decode(t, rec); body.Error != apperrors.ServerErrorMessage {
		t.Errorf("error = %q", body.Error)
	}
}
