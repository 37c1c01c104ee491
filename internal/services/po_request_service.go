package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"opsdesk/internal/authz"
	"opsdesk/internal/models"
	"opsdesk/internal/repositories"
)

// CreatePORequestInput is the parsed body of POST /po-requests.
type CreatePORequestInput struct {
	ProjectID  string
	VendorID   string
	VendorName string
	Currency   string
	LineItems  []POLineItemInput
	Notes      string
	DueDate    *time.Time
}

type POLineItemInput struct {
	Description string
	Qty         float64
	UnitPrice   float64
	TaxRate     float64
	Notes       string
}

// PORequestService creates purchase-order requests. The PO document, its
// project activity note and the approver notification are written in one
// atomic batch — the only all-or-nothing multi-document write in the system.
type PORequestService struct {
	poRepo   repositories.PORequestRepository
	projects repositories.ProjectRepository
	users    repositories.UserRepository
	log      *logrus.Logger
	now      func() time.Time
}

func NewPORequestService(poRepo repositories.PORequestRepository, projects repositories.ProjectRepository,
	users repositories.UserRepository, log *logrus.Logger) *PORequestService {
	return &PORequestService{poRepo: poRepo, projects: projects, users: users, log: log, now: time.Now}
}

// roundCents rounds to 2 decimal places, half away from zero.
func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func validatePORequest(in *CreatePORequestInput) error {
	if strings.TrimSpace(in.ProjectID) == "" {
		return validationErr("Project is required.")
	}
	if strings.TrimSpace(in.VendorName) == "" {
		return validationErr("Vendor name is required.")
	}
	if len(in.LineItems) == 0 {
		return validationErr("At least one line item is required.")
	}
	for i, item := range in.LineItems {
		if strings.TrimSpace(item.Description) == "" {
			return validationErr(fmt.Sprintf("Line item %d: description is required.", i+1))
		}
		if item.Qty <= 0 {
			return validationErr(fmt.Sprintf("Line item %d: quantity must be greater than zero.", i+1))
		}
		if item.UnitPrice < 0 {
			return validationErr(fmt.Sprintf("Line item %d: unit price cannot be negative.", i+1))
		}
		if item.TaxRate < 0 {
			return validationErr(fmt.Sprintf("Line item %d: tax rate cannot be negative.", i+1))
		}
	}
	return nil
}

// Create validates, prices and stores a new PO request. The resolver must be
// the request-scoped one: the approver scan resolves every active user's
// role, and the cache keeps that at one lookup per distinct role.
func (s *PORequestService) Create(ctx context.Context, in *CreatePORequestInput,
	actor *models.User, perms authz.PermissionSet, resolver *authz.Resolver) (*models.PurchaseOrderRequest, error) {

	if !perms.HasAny(authz.PermPORequestCreate) {
		return nil, ErrForbidden
	}
	if err := validatePORequest(in); err != nil {
		return nil, err
	}

	project, err := s.projects.FindByID(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, ErrNotFound
	}
	if !perms.HasAny(authz.PermProjectViewAll) && project.OwnerID != actor.ID {
		return nil, ErrForbidden
	}

	now := s.now()
	var (
		lines    []models.POLineItem
		subtotal float64
		tax      float64
	)
	for _, item := range in.LineItems {
		lineNet := item.Qty * item.UnitPrice
		lineTax := roundCents(lineNet * item.TaxRate / 100)
		lines = append(lines, models.POLineItem{
			Description: item.Description,
			Qty:         item.Qty,
			UnitPrice:   item.UnitPrice,
			TaxRate:     item.TaxRate,
			TaxAmount:   lineTax,
			LineTotal:   roundCents(lineNet + lineTax),
			Notes:       item.Notes,
		})
		subtotal += lineNet
		tax += lineTax
	}
	subtotal = roundCents(subtotal)
	tax = roundCents(tax)

	currency := strings.TrimSpace(in.Currency)
	if currency == "" {
		currency = "USD"
	}

	id := uuid.NewString()
	po := &models.PurchaseOrderRequest{
		ID:              id,
		RequestNumber:   fmt.Sprintf("POR-%s-%s", now.Format("20060102"), strings.ToUpper(id[:6])),
		ProjectID:       in.ProjectID,
		VendorID:        in.VendorID,
		VendorName:      in.VendorName,
		Currency:        currency,
		LineItems:       lines,
		Notes:           in.Notes,
		DueDate:         in.DueDate,
		Subtotal:        subtotal,
		TaxAmount:       tax,
		Total:           roundCents(subtotal + tax),
		Status:          models.ApprovalPending,
		RequestedBy:     actor.ID,
		RequestedByName: actor.FullName,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	approvers, err := s.findApprovers(ctx, actor.ID, resolver)
	if err != nil {
		return nil, err
	}

	activity := &models.ProjectActivity{
		ProjectID: po.ProjectID,
		Type:      "po_request",
		Note: fmt.Sprintf("PO request %s created for vendor %s (total %.2f %s).",
			po.RequestNumber, po.VendorName, po.Total, po.Currency),
		Date:      now,
		CreatedBy: actor.ID,
	}

	// нет одобряющих — уведомление пропускаем, а не валим запрос
	var event *models.NotificationEvent
	if len(approvers) > 0 {
		event = &models.NotificationEvent{
			ID:      uuid.NewString(),
			Type:    models.NotifyPORequested,
			Title:   "PO request awaiting approval",
			Body: fmt.Sprintf("%s submitted PO request %s for %s (total %.2f %s).",
				actor.FullName, po.RequestNumber, po.VendorName, po.Total, po.Currency),
			ActorID:    actor.ID,
			Recipients: approvers,
			EntityType: "po_request",
			EntityID:   po.ID,
			CreatedAt:  now,
		}
	}

	if err := s.poRepo.CreateBatch(ctx, po, activity, event); err != nil {
		s.log.Errorf("[po][create][err] batch write: %v", err)
		return nil, err
	}
	s.log.Infof("[po][create][ok] id=%s number=%s approvers=%d", po.ID, po.RequestNumber, len(approvers))
	return po, nil
}

// findApprovers scans active users and collects everyone (except the
// requester) holding PO approval rights.
func (s *PORequestService) findApprovers(ctx context.Context, requesterID string, resolver *authz.Resolver) ([]string, error) {
	users, err := s.users.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, u := range users {
		if u.ID == requesterID {
			continue
		}
		set, err := resolver.Resolve(ctx, u.RoleKey)
		if err != nil {
			return nil, err
		}
		if set.HasAny(authz.PermPORequestApprove) {
			out = append(out, u.ID)
		}
	}
	return out, nil
}

func (s *PORequestService) GetByID(ctx context.Context, id string) (*models.PurchaseOrderRequest, error) {
	return s.poRepo.FindByID(ctx, id)
}

func (s *PORequestService) List(ctx context.Context) ([]models.PurchaseOrderRequest, error) {
	return s.poRepo.List(ctx)
}
