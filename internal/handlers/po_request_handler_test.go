package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"opsdesk/internal/middleware"
	"opsdesk/internal/models"
	"opsdesk/internal/services"
)

// ---- in-memory stores ----

type stubUsers struct {
	users map[string]*models.User
}

func (s *stubUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	clone := *u
	return &clone, nil
}

func (s *stubUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, nil
}

func (s *stubUsers) ListActive(_ context.Context) ([]models.User, error) {
	var out []models.User
	for _, u := range s.users {
		if u.Active {
			out = append(out, *u)
		}
	}
	return out, nil
}

type stubRoles struct {
	roles map[string]*models.Role
}

func (s *stubRoles) FindByKey(_ context.Context, key string) (*models.Role, error) {
	r, ok := s.roles[key]
	if !ok {
		return nil, nil
	}
	clone := *r
	return &clone, nil
}

func (s *stubRoles) FindByID(_ context.Context, id string) (*models.Role, error) {
	return s.FindByKey(nil, id)
}

type stubProjects struct {
	projects map[string]*models.Project
}

func (s *stubProjects) FindByID(_ context.Context, id string) (*models.Project, error) {
	p, ok := s.projects[id]
	if !ok {
		return nil, nil
	}
	clone := *p
	return &clone, nil
}

func (s *stubProjects) AppendActivity(_ context.Context, _ *models.ProjectActivity) error { return nil }

type stubPOStore struct {
	stored []models.PurchaseOrderRequest
}

func (s *stubPOStore) CreateBatch(_ context.Context, po *models.PurchaseOrderRequest,
	_ *models.ProjectActivity, _ *models.NotificationEvent) error {
	s.stored = append(s.stored, *po)
	return nil
}

func (s *stubPOStore) FindByID(_ context.Context, id string) (*models.PurchaseOrderRequest, error) {
	for i := range s.stored {
		if s.stored[i].ID == id {
			clone := s.stored[i]
			return &clone, nil
		}
	}
	return nil, nil
}

func (s *stubPOStore) List(_ context.Context) ([]models.PurchaseOrderRequest, error) {
	return append([]models.PurchaseOrderRequest{}, s.stored...), nil
}

func (s *stubPOStore) UpdateApproval(_ context.Context, _ *models.PurchaseOrderRequest) error {
	return nil
}

// ---- harness ----

type poTestEnv struct {
	router  *gin.Engine
	poStore *stubPOStore
}

func newPOTestEnv(t *testing.T) *poTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logrus.New()
	log.SetOutput(io.Discard)

	users := &stubUsers{users: map[string]*models.User{
		"owner-1":  {ID: "owner-1", FullName: "Olya", RoleKey: "buyer", Active: true},
		"other-1":  {ID: "other-1", FullName: "Oleg", RoleKey: "buyer", Active: true},
		"locked-1": {ID: "locked-1", RoleKey: "buyer", Active: false},
	}}
	roles := &stubRoles{roles: map[string]*models.Role{
		"buyer": {ID: "r1", Key: "buyer", Permissions: []string{"po_request_create"}},
	}}
	projects := &stubProjects{projects: map[string]*models.Project{
		"proj-1": {ID: "proj-1", OwnerID: "owner-1"},
	}}
	poStore := &stubPOStore{}

	svc := services.NewPORequestService(poStore, projects, users, log)
	handler := NewPORequestHandler(svc, nil, nil, users, roles, log)

	router := gin.New()
	router.Use(middleware.AuthMiddleware())
	router.POST("/po-requests", handler.Create)

	return &poTestEnv{router: router, poStore: poStore}
}

func signToken(t *testing.T, userID string) string {
	t.Helper()
	claims := &middleware.Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(middleware.JWTKey)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func (e *poTestEnv) post(t *testing.T, token string, body map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/po-requests", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return body["error"]
}

func validPOBody() map[string]interface{} {
	return map[string]interface{}{
		"project_id":  "proj-1",
		"vendor_name": "Vendor Co",
		"line_items": []map[string]interface{}{
			{"description": "Pump", "qty": 2, "unit_price": 100, "tax_rate": 5},
		},
	}
}

func TestCreatePORequestHappyPath(t *testing.T) {
	env := newPOTestEnv(t)

	w := env.post(t, signToken(t, "owner-1"), validPOBody())
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var po models.PurchaseOrderRequest
	if err := json.Unmarshal(w.Body.Bytes(), &po); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if po.Total != 210 || po.Status != models.ApprovalPending {
		t.Fatalf("response po = total %.2f status %s", po.Total, po.Status)
	}
	if po.RequestedBy != "owner-1" {
		t.Fatalf("requested_by = %s, want owner-1", po.RequestedBy)
	}
	if len(env.poStore.stored) != 1 {
		t.Fatalf("stored requests = %d, want 1", len(env.poStore.stored))
	}
}

func TestCreatePORequestEmptyLineItems(t *testing.T) {
	env := newPOTestEnv(t)

	body := validPOBody()
	body["line_items"] = []map[string]interface{}{}

	w := env.post(t, signToken(t, "owner-1"), body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if got := errorMessage(t, w); got != "At least one line item is required." {
		t.Fatalf("error = %q", got)
	}
	if len(env.poStore.stored) != 0 {
		t.Fatal("invalid request was stored")
	}
}

func TestCreatePORequestForeignProjectForbidden(t *testing.T) {
	env := newPOTestEnv(t)

	// other-1 can create PO requests but does not own proj-1 and has no
	// project_view_all.
	w := env.post(t, signToken(t, "other-1"), validPOBody())
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403; body = %s", w.Code, w.Body.String())
	}
	if len(env.poStore.stored) != 0 {
		t.Fatal("forbidden request was stored")
	}
}

func TestCreatePORequestAuthFailures(t *testing.T) {
	env := newPOTestEnv(t)

	if w := env.post(t, "", validPOBody()); w.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: status = %d, want 401", w.Code)
	}
	if w := env.post(t, "not-a-jwt", validPOBody()); w.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: status = %d, want 401", w.Code)
	}
	// Valid token for an account that no longer exists.
	if w := env.post(t, signToken(t, "ghost"), validPOBody()); w.Code != http.StatusUnauthorized {
		t.Fatalf("unknown account: status = %d, want 401", w.Code)
	}
	if w := env.post(t, signToken(t, "locked-1"), validPOBody()); w.Code != http.StatusForbidden {
		t.Fatalf("inactive account: status = %d, want 403", w.Code)
	}
}

func TestCreatePORequestMalformedBody(t *testing.T) {
	env := newPOTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/po-requests", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signToken(t, "owner-1"))
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}
