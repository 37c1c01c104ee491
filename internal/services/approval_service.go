package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"opsdesk/internal/authz"
	"opsdesk/internal/models"
	"opsdesk/internal/repositories"
)

// ApprovalService moves approvable entities through
// pending_approval → approved | rejected. Both outcomes are terminal here; a
// rejected request needs an explicit resubmit flow (not part of this layer).
type ApprovalService struct {
	poRepo   repositories.PORequestRepository
	qrRepo   repositories.QuotationRequestRepository
	users    repositories.UserRepository
	notifier *Notifier
	activity *ActivityService
	email    EmailService // optional
	log      *logrus.Logger
	now      func() time.Time
}

func NewApprovalService(poRepo repositories.PORequestRepository, qrRepo repositories.QuotationRequestRepository,
	users repositories.UserRepository, notifier *Notifier, activity *ActivityService,
	email EmailService, log *logrus.Logger) *ApprovalService {
	return &ApprovalService{
		poRepo:   poRepo,
		qrRepo:   qrRepo,
		users:    users,
		notifier: notifier,
		activity: activity,
		email:    email,
		log:      log,
		now:      time.Now,
	}
}

// applyApprove populates the approve side and clears the reject side; the
// two must never be set at the same time.
func applyApprove(a *models.Approval, actor *models.User, now time.Time) {
	a.ApprovedBy = actor.ID
	a.ApprovedByName = actor.FullName
	a.ApprovedAt = &now
	a.RejectedBy = ""
	a.RejectedByName = ""
	a.RejectedAt = nil
	a.RejectionReason = ""
}

// applyReject populates the reject side. Prior approve fields are left
// untouched — long-standing behaviour, kept on purpose (see DESIGN.md). A
// request can only reach here from pending_approval, so in practice the
// approve side is empty anyway.
func applyReject(a *models.Approval, actor *models.User, reason string, now time.Time) {
	a.RejectedBy = actor.ID
	a.RejectedByName = actor.FullName
	a.RejectedAt = &now
	a.RejectionReason = reason
}

func (s *ApprovalService) ApprovePORequest(ctx context.Context, id string, actor *models.User, perms authz.PermissionSet) (*models.PurchaseOrderRequest, error) {
	if !perms.HasAny(authz.PermPORequestApprove) {
		return nil, ErrForbidden
	}
	po, err := s.poRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if po == nil {
		return nil, ErrNotFound
	}
	if po.Status != models.ApprovalPending {
		return nil, validationErr("Request is not pending approval.")
	}

	now := s.now()
	po.Status = models.ApprovalApproved
	applyApprove(&po.Approval, actor, now)
	po.UpdatedAt = now

	if err := s.poRepo.UpdateApproval(ctx, po); err != nil {
		return nil, err
	}
	s.log.Infof("[approval][po][approve][ok] id=%s by=%s", po.ID, actor.ID)

	s.notifyRequester(ctx, po, actor, models.NotifyPOApproved, "approved")
	s.activity.AppendProjectActivity(ctx, po.ProjectID, "po_request",
		fmt.Sprintf("PO request %s approved by %s.", po.RequestNumber, actor.FullName), actor.ID)

	return po, nil
}

func (s *ApprovalService) RejectPORequest(ctx context.Context, id, reason string, actor *models.User, perms authz.PermissionSet) (*models.PurchaseOrderRequest, error) {
	if !perms.HasAny(authz.PermPORequestApprove) {
		return nil, ErrForbidden
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, validationErr("A rejection reason is required.")
	}
	po, err := s.poRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if po == nil {
		return nil, ErrNotFound
	}
	if po.Status != models.ApprovalPending {
		return nil, validationErr("Request is not pending approval.")
	}

	now := s.now()
	po.Status = models.ApprovalRejected
	applyReject(&po.Approval, actor, reason, now)
	po.UpdatedAt = now

	if err := s.poRepo.UpdateApproval(ctx, po); err != nil {
		return nil, err
	}
	s.log.Infof("[approval][po][reject][ok] id=%s by=%s", po.ID, actor.ID)

	s.notifyRequester(ctx, po, actor, models.NotifyPORejected, "rejected: "+reason)
	s.activity.AppendProjectActivity(ctx, po.ProjectID, "po_request",
		fmt.Sprintf("PO request %s rejected by %s: %s", po.RequestNumber, actor.FullName, reason), actor.ID)

	return po, nil
}

// notifyRequester emits the outcome notification (skipped when the requester
// acted on their own request) and a best-effort email.
func (s *ApprovalService) notifyRequester(ctx context.Context, po *models.PurchaseOrderRequest,
	actor *models.User, eventType, outcome string) {

	if po.RequestedBy != "" && po.RequestedBy != actor.ID {
		s.notifier.Emit(ctx, &models.NotificationEvent{
			Type:       eventType,
			Title:      fmt.Sprintf("PO request %s", po.Status),
			Body:       fmt.Sprintf("Your PO request %s was %s.", po.RequestNumber, outcome),
			ActorID:    actor.ID,
			Recipients: []string{po.RequestedBy},
			EntityType: "po_request",
			EntityID:   po.ID,
		})
	}

	if s.email == nil || po.RequestedBy == "" {
		return
	}
	requester, err := s.users.FindByID(ctx, po.RequestedBy)
	if err != nil || requester == nil || requester.Email == "" {
		return
	}
	if err := s.email.SendApprovalOutcome(requester.Email, requester.FullName, po); err != nil {
		s.log.Warnf("[approval][email][err] po=%s: %v", po.ID, err)
	}
}

func (s *ApprovalService) ApproveQuotationRequest(ctx context.Context, id string, actor *models.User, perms authz.PermissionSet) (*models.QuotationRequest, error) {
	if !perms.HasAny(authz.PermQuotationApprove) {
		return nil, ErrForbidden
	}
	qr, err := s.qrRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if qr == nil {
		return nil, ErrNotFound
	}
	if qr.Status != string(models.ApprovalPending) {
		return nil, validationErr("Request is not pending approval.")
	}

	now := s.now()
	qr.Status = string(models.ApprovalApproved)
	applyApprove(&qr.Approval, actor, now)
	qr.UpdatedAt = now

	if err := s.qrRepo.UpdateApproval(ctx, qr); err != nil {
		return nil, err
	}
	s.log.Infof("[approval][qr][approve][ok] id=%s by=%s", qr.ID, actor.ID)

	if qr.CreatedBy != "" && qr.CreatedBy != actor.ID {
		s.notifier.Emit(ctx, &models.NotificationEvent{
			Type:       models.NotifyQRApproved,
			Title:      "Quotation request approved",
			Body:       fmt.Sprintf("Your quotation request %q was approved.", qr.Title),
			ActorID:    actor.ID,
			Recipients: []string{qr.CreatedBy},
			EntityType: "quotation_request",
			EntityID:   qr.ID,
		})
	}
	s.activity.AppendProjectActivity(ctx, qr.ProjectID, "quotation_request",
		fmt.Sprintf("Quotation request %q approved by %s.", qr.Title, actor.FullName), actor.ID)

	return qr, nil
}

func (s *ApprovalService) RejectQuotationRequest(ctx context.Context, id, reason string, actor *models.User, perms authz.PermissionSet) (*models.QuotationRequest, error) {
	if !perms.HasAny(authz.PermQuotationApprove) {
		return nil, ErrForbidden
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, validationErr("A rejection reason is required.")
	}
	qr, err := s.qrRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if qr == nil {
		return nil, ErrNotFound
	}
	if qr.Status != string(models.ApprovalPending) {
		return nil, validationErr("Request is not pending approval.")
	}

	now := s.now()
	qr.Status = string(models.ApprovalRejected)
	applyReject(&qr.Approval, actor, reason, now)
	qr.UpdatedAt = now

	if err := s.qrRepo.UpdateApproval(ctx, qr); err != nil {
		return nil, err
	}
	s.log.Infof("[approval][qr][reject][ok] id=%s by=%s", qr.ID, actor.ID)

	if qr.CreatedBy != "" && qr.CreatedBy != actor.ID {
		s.notifier.Emit(ctx, &models.NotificationEvent{
			Type:       models.NotifyQRRejected,
			Title:      "Quotation request rejected",
			Body:       fmt.Sprintf("Your quotation request %q was rejected: %s", qr.Title, reason),
			ActorID:    actor.ID,
			Recipients: []string{qr.CreatedBy},
			EntityType: "quotation_request",
			EntityID:   qr.ID,
		})
	}
	s.activity.AppendProjectActivity(ctx, qr.ProjectID, "quotation_request",
		fmt.Sprintf("Quotation request %q rejected by %s: %s", qr.Title, actor.FullName, reason), actor.ID)

	return qr, nil
}
