package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"opsdesk/internal/authz"
	"opsdesk/internal/models"
)

type poFixture struct {
	svc      *PORequestService
	poRepo   *fakePORepo
	roles    *fakeRoleRepo
	resolver *authz.Resolver
}

func newPOFixture(users ...*models.User) *poFixture {
	f := &poFixture{
		poRepo: newFakePORepo(),
		roles: &fakeRoleRepo{roles: map[string]*models.Role{
			"finance": {ID: "r1", Key: "finance", Permissions: []string{"po_request_approve"}},
			"sales":   {ID: "r2", Key: "sales", Permissions: []string{"lead_view"}},
		}},
	}
	projects := newFakeProjectRepo(&models.Project{ID: "proj-1", OwnerID: "owner-1"})
	f.svc = NewPORequestService(f.poRepo, projects, newFakeUserRepo(users...), testLogger())
	f.resolver = authz.NewResolver(f.roles)
	return f
}

func creatorPerms() authz.PermissionSet {
	return authz.PermissionSet{authz.PermPORequestCreate: {}}
}

func validInput() *CreatePORequestInput {
	return &CreatePORequestInput{
		ProjectID:  "proj-1",
		VendorName: "Vendor Co",
		LineItems: []POLineItemInput{
			{Description: "Pump", Qty: 2, UnitPrice: 100, TaxRate: 5},
		},
	}
}

func TestPORequestPricing(t *testing.T) {
	owner := &models.User{ID: "owner-1", FullName: "Olya"}
	f := newPOFixture()
	f.svc.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }

	in := validInput()
	in.LineItems = append(in.LineItems, POLineItemInput{Description: "Hose", Qty: 4, UnitPrice: 50, TaxRate: 5})

	po, err := f.svc.Create(context.Background(), in, owner, creatorPerms(), f.resolver)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// 2×100 @5% → tax 10.00, line 210.00; 4×50 @5% → tax 10.00, line 210.00.
	if po.LineItems[0].TaxAmount != 10 || po.LineItems[0].LineTotal != 210 {
		t.Fatalf("line 1 = tax %.2f total %.2f, want 10.00 / 210.00",
			po.LineItems[0].TaxAmount, po.LineItems[0].LineTotal)
	}
	if po.Subtotal != 400 || po.TaxAmount != 20 || po.Total != 420 {
		t.Fatalf("totals = %.2f / %.2f / %.2f, want 400 / 20 / 420", po.Subtotal, po.TaxAmount, po.Total)
	}
	if po.Status != models.ApprovalPending {
		t.Fatalf("status = %s, want pending_approval", po.Status)
	}
	if po.Currency != "USD" {
		t.Fatalf("currency default = %s, want USD", po.Currency)
	}
	if !strings.HasPrefix(po.RequestNumber, "POR-20260310-") || len(po.RequestNumber) != len("POR-20260310-")+6 {
		t.Fatalf("request number = %q", po.RequestNumber)
	}
	if suffix := strings.TrimPrefix(po.RequestNumber, "POR-20260310-"); suffix != strings.ToUpper(suffix) {
		t.Fatalf("request number suffix not uppercased: %q", suffix)
	}
}

func TestPORequestRoundingHalfAwayFromZero(t *testing.T) {
	owner := &models.User{ID: "owner-1"}
	f := newPOFixture()

	in := validInput()
	// 3 × 1.11 @ 7.5% → net 3.33, raw tax 0.24975 → 0.25.
	in.LineItems = []POLineItemInput{{Description: "Widget", Qty: 3, UnitPrice: 1.11, TaxRate: 7.5}}

	po, err := f.svc.Create(context.Background(), in, owner, creatorPerms(), f.resolver)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if po.LineItems[0].TaxAmount != 0.25 {
		t.Fatalf("tax = %v, want 0.25", po.LineItems[0].TaxAmount)
	}
	if po.LineItems[0].LineTotal != 3.58 {
		t.Fatalf("line total = %v, want 3.58", po.LineItems[0].LineTotal)
	}
}

func TestPORequestValidationOrder(t *testing.T) {
	owner := &models.User{ID: "owner-1"}
	f := newPOFixture()

	tests := []struct {
		name    string
		mutate  func(*CreatePORequestInput)
		message string
	}{
		{"missing project", func(in *CreatePORequestInput) { in.ProjectID = " " }, "Project is required."},
		{"missing vendor", func(in *CreatePORequestInput) { in.VendorName = "" }, "Vendor name is required."},
		{"no line items", func(in *CreatePORequestInput) { in.LineItems = nil }, "At least one line item is required."},
		{"blank description", func(in *CreatePORequestInput) {
			in.LineItems[0].Description = "  "
		}, "Line item 1: description is required."},
		{"zero quantity", func(in *CreatePORequestInput) {
			in.LineItems[0].Qty = 0
		}, "Line item 1: quantity must be greater than zero."},
		{"negative price", func(in *CreatePORequestInput) {
			in.LineItems[0].UnitPrice = -1
		}, "Line item 1: unit price cannot be negative."},
		{"negative tax", func(in *CreatePORequestInput) {
			in.LineItems[0].TaxRate = -1
		}, "Line item 1: tax rate cannot be negative."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(in)
			_, err := f.svc.Create(context.Background(), in, owner, creatorPerms(), f.resolver)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if verr.Message != tt.message {
				t.Fatalf("message = %q, want %q", verr.Message, tt.message)
			}
		})
	}
	if len(f.poRepo.batches) != 0 {
		t.Fatal("invalid input reached the batch write")
	}
}

func TestPORequestAuthorization(t *testing.T) {
	f := newPOFixture()

	if _, err := f.svc.Create(context.Background(), validInput(),
		&models.User{ID: "owner-1"}, authz.PermissionSet{}, f.resolver); err != ErrForbidden {
		t.Fatalf("no create permission: err = %v, want ErrForbidden", err)
	}

	// Not the project owner and no project_view_all.
	if _, err := f.svc.Create(context.Background(), validInput(),
		&models.User{ID: "outsider"}, creatorPerms(), f.resolver); err != ErrForbidden {
		t.Fatalf("non-owner: err = %v, want ErrForbidden", err)
	}

	// project_view_all opens other people's projects.
	wide := authz.PermissionSet{authz.PermPORequestCreate: {}, authz.PermProjectViewAll: {}}
	if _, err := f.svc.Create(context.Background(), validInput(),
		&models.User{ID: "outsider"}, wide, f.resolver); err != nil {
		t.Fatalf("project_view_all holder rejected: %v", err)
	}

	in := validInput()
	in.ProjectID = "ghost"
	if _, err := f.svc.Create(context.Background(), in,
		&models.User{ID: "owner-1"}, creatorPerms(), f.resolver); err != ErrNotFound {
		t.Fatalf("missing project: err = %v, want ErrNotFound", err)
	}
}

func TestPORequestApproverScan(t *testing.T) {
	f := newPOFixture(
		&models.User{ID: "owner-1", RoleKey: "finance", Active: true},   // requester, excluded
		&models.User{ID: "fin-2", RoleKey: "finance", Active: true},     // approver
		&models.User{ID: "fin-3", RoleKey: "finance", Active: true},     // approver, same role
		&models.User{ID: "sales-1", RoleKey: "sales", Active: true},     // no approval rights
		&models.User{ID: "boss", RoleKey: "admin", Active: true},        // wildcard
	)

	po, err := f.svc.Create(context.Background(), validInput(),
		&models.User{ID: "owner-1"}, creatorPerms(), f.resolver)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if len(f.poRepo.batches) != 1 {
		t.Fatalf("batches = %d, want 1", len(f.poRepo.batches))
	}
	event := f.poRepo.batches[0].event
	if event == nil {
		t.Fatal("no approver event in the batch")
	}
	want := []string{"boss", "fin-2", "fin-3"}
	if !SameRecipients(event.Recipients, want) {
		t.Fatalf("approvers = %v, want %v", event.Recipients, want)
	}
	if event.EntityID != po.ID || event.Type != models.NotifyPORequested {
		t.Fatalf("event wiring wrong: %+v", event)
	}

	// finance + sales resolved once each; admin never touches storage.
	if f.roles.calls != 2 {
		t.Fatalf("role lookups = %d, want 2 (request-scoped cache)", f.roles.calls)
	}
}

func TestPORequestNoApproversSkipsEvent(t *testing.T) {
	f := newPOFixture(&models.User{ID: "sales-1", RoleKey: "sales", Active: true})

	_, err := f.svc.Create(context.Background(), validInput(),
		&models.User{ID: "owner-1"}, creatorPerms(), f.resolver)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if f.poRepo.batches[0].event != nil {
		t.Fatalf("event written with no approvers: %+v", f.poRepo.batches[0].event)
	}
	if f.poRepo.batches[0].activity.Type != "po_request" {
		t.Fatalf("project note missing from batch: %+v", f.poRepo.batches[0].activity)
	}
}

func TestPORequestBatchFailureSurfaces(t *testing.T) {
	f := newPOFixture()
	f.poRepo.batchErr = errBatchFailed

	_, err := f.svc.Create(context.Background(), validInput(),
		&models.User{ID: "owner-1"}, creatorPerms(), f.resolver)
	if !errors.Is(err, errBatchFailed) {
		t.Fatalf("err = %v, want the batch error", err)
	}
	if len(f.poRepo.requests) != 0 {
		t.Fatal("failed batch left a stored request behind")
	}
}
