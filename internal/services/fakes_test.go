package services

import (
	"context"
	"errors"
	"io"

	"github.com/sirupsen/logrus"

	"opsdesk/internal/models"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// ---- tasks ----

type fakeTaskRepo struct {
	tasks     map[string]*models.Task
	updateErr error
	updates   int
}

func newFakeTaskRepo(tasks ...*models.Task) *fakeTaskRepo {
	f := &fakeTaskRepo{tasks: map[string]*models.Task{}}
	for _, t := range tasks {
		f.put(t)
	}
	return f
}

func (f *fakeTaskRepo) put(t *models.Task) {
	clone := *t
	f.tasks[t.ID] = &clone
}

func (f *fakeTaskRepo) Store(_ context.Context, t *models.Task) error {
	f.put(t)
	return nil
}

func (f *fakeTaskRepo) FindByID(_ context.Context, id string) (*models.Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return nil, nil
	}
	clone := *t
	return &clone, nil
}

func (f *fakeTaskRepo) FindAll(_ context.Context, _ models.TaskFilter) ([]models.Task, error) {
	var out []models.Task
	for _, t := range f.tasks {
		out = append(out, *t)
	}
	return out, nil
}

func (f *fakeTaskRepo) Update(_ context.Context, t *models.Task) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates++
	f.put(t)
	return nil
}

// ---- quotation requests ----

type fakeQuotationRepo struct {
	requests   map[string]*models.QuotationRequest
	qrTasks    map[string]*models.QuotationRequestTask
	doneMarks  []string
	findErr    error
	updateErr  error
	approvals  int
}

func newFakeQuotationRepo() *fakeQuotationRepo {
	return &fakeQuotationRepo{
		requests: map[string]*models.QuotationRequest{},
		qrTasks:  map[string]*models.QuotationRequestTask{},
	}
}

func (f *fakeQuotationRepo) FindByID(_ context.Context, id string) (*models.QuotationRequest, error) {
	qr, ok := f.requests[id]
	if !ok {
		return nil, nil
	}
	clone := *qr
	return &clone, nil
}

func (f *fakeQuotationRepo) FindTask(_ context.Context, qrID, taskID string) (*models.QuotationRequestTask, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	t, ok := f.qrTasks[taskID]
	if !ok || t.QuotationRequestID != qrID {
		return nil, nil
	}
	clone := *t
	return &clone, nil
}

func (f *fakeQuotationRepo) UpdateTaskStatus(_ context.Context, taskID string, to models.QuotationRequestTaskStatus) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if t, ok := f.qrTasks[taskID]; ok {
		t.Status = to
	}
	f.doneMarks = append(f.doneMarks, taskID)
	return nil
}

func (f *fakeQuotationRepo) UpdateApproval(_ context.Context, qr *models.QuotationRequest) error {
	clone := *qr
	f.requests[qr.ID] = &clone
	f.approvals++
	return nil
}

// ---- leads / projects ----

type fakeLeadRepo struct {
	leads      map[string]*models.Lead
	activities []models.LeadActivity
	appendErr  error
}

func newFakeLeadRepo(leads ...*models.Lead) *fakeLeadRepo {
	f := &fakeLeadRepo{leads: map[string]*models.Lead{}}
	for _, l := range leads {
		clone := *l
		f.leads[l.ID] = &clone
	}
	return f
}

func (f *fakeLeadRepo) FindByID(_ context.Context, id string) (*models.Lead, error) {
	l, ok := f.leads[id]
	if !ok {
		return nil, nil
	}
	clone := *l
	return &clone, nil
}

func (f *fakeLeadRepo) AppendActivity(_ context.Context, a *models.LeadActivity) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	a.ID = int64(len(f.activities) + 1)
	f.activities = append(f.activities, *a)
	return nil
}

func (f *fakeLeadRepo) ListActivities(_ context.Context, leadID string) ([]models.LeadActivity, error) {
	var out []models.LeadActivity
	for _, a := range f.activities {
		if a.LeadID == leadID {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeProjectRepo struct {
	projects   map[string]*models.Project
	activities []models.ProjectActivity
}

func newFakeProjectRepo(projects ...*models.Project) *fakeProjectRepo {
	f := &fakeProjectRepo{projects: map[string]*models.Project{}}
	for _, p := range projects {
		clone := *p
		f.projects[p.ID] = &clone
	}
	return f
}

func (f *fakeProjectRepo) FindByID(_ context.Context, id string) (*models.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, nil
	}
	clone := *p
	return &clone, nil
}

func (f *fakeProjectRepo) AppendActivity(_ context.Context, a *models.ProjectActivity) error {
	a.ID = int64(len(f.activities) + 1)
	f.activities = append(f.activities, *a)
	return nil
}

// ---- notifications ----

type fakeNotificationRepo struct {
	events   []models.NotificationEvent
	storeErr error
}

func (f *fakeNotificationRepo) Store(_ context.Context, e *models.NotificationEvent) error {
	if f.storeErr != nil {
		return f.storeErr
	}
	f.events = append(f.events, *e)
	return nil
}

func (f *fakeNotificationRepo) ListForRecipient(_ context.Context, userID string, _ int) ([]models.NotificationEvent, error) {
	var out []models.NotificationEvent
	for _, e := range f.events {
		for _, id := range e.Recipients {
			if id == userID {
				out = append(out, e)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeNotificationRepo) byType(typ string) []models.NotificationEvent {
	var out []models.NotificationEvent
	for _, e := range f.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// ---- users ----

type fakeUserRepo struct {
	users map[string]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	f := &fakeUserRepo{users: map[string]*models.User{}}
	for _, u := range users {
		clone := *u
		f.users[u.ID] = &clone
	}
	return f
}

func (f *fakeUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	clone := *u
	return &clone, nil
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) ListActive(_ context.Context) ([]models.User, error) {
	var out []models.User
	for _, u := range f.users {
		if u.Active {
			out = append(out, *u)
		}
	}
	return out, nil
}

// ---- PO requests ----

var errBatchFailed = errors.New("batch write failed")

type fakePORepo struct {
	requests  map[string]*models.PurchaseOrderRequest
	batches   []batchWrite
	batchErr  error
	approvals int
}

type batchWrite struct {
	po       models.PurchaseOrderRequest
	activity models.ProjectActivity
	event    *models.NotificationEvent
}

func newFakePORepo(requests ...*models.PurchaseOrderRequest) *fakePORepo {
	f := &fakePORepo{requests: map[string]*models.PurchaseOrderRequest{}}
	for _, po := range requests {
		clone := *po
		f.requests[po.ID] = &clone
	}
	return f
}

func (f *fakePORepo) CreateBatch(_ context.Context, po *models.PurchaseOrderRequest,
	activity *models.ProjectActivity, event *models.NotificationEvent) error {
	if f.batchErr != nil {
		return f.batchErr
	}
	clone := *po
	f.requests[po.ID] = &clone
	var eventCopy *models.NotificationEvent
	if event != nil {
		e := *event
		eventCopy = &e
	}
	f.batches = append(f.batches, batchWrite{po: *po, activity: *activity, event: eventCopy})
	return nil
}

func (f *fakePORepo) FindByID(_ context.Context, id string) (*models.PurchaseOrderRequest, error) {
	po, ok := f.requests[id]
	if !ok {
		return nil, nil
	}
	clone := *po
	return &clone, nil
}

func (f *fakePORepo) List(_ context.Context) ([]models.PurchaseOrderRequest, error) {
	var out []models.PurchaseOrderRequest
	for _, po := range f.requests {
		out = append(out, *po)
	}
	return out, nil
}

func (f *fakePORepo) UpdateApproval(_ context.Context, po *models.PurchaseOrderRequest) error {
	clone := *po
	f.requests[po.ID] = &clone
	f.approvals++
	return nil
}

// ---- roles (for the resolver used by the approver scan) ----

type fakeRoleRepo struct {
	roles map[string]*models.Role
	calls int
}

func (f *fakeRoleRepo) FindByKey(_ context.Context, key string) (*models.Role, error) {
	f.calls++
	r, ok := f.roles[key]
	if !ok {
		return nil, nil
	}
	clone := *r
	return &clone, nil
}

func (f *fakeRoleRepo) FindByID(_ context.Context, id string) (*models.Role, error) {
	f.calls++
	r, ok := f.roles[id]
	if !ok {
		return nil, nil
	}
	clone := *r
	return &clone, nil
}
