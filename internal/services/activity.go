package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"opsdesk/internal/models"
	"opsdesk/internal/repositories"
)

// ActivityService appends timestamped notes to lead/project activity logs.
// Activity logging is observability, not business state: a dangling entity
// reference skips the append, and storage errors are logged, never returned.
type ActivityService struct {
	leads    repositories.LeadRepository
	projects repositories.ProjectRepository
	log      *logrus.Logger
	now      func() time.Time
}

func NewActivityService(leads repositories.LeadRepository, projects repositories.ProjectRepository,
	log *logrus.Logger) *ActivityService {
	return &ActivityService{leads: leads, projects: projects, log: log, now: time.Now}
}

func (s *ActivityService) AppendLeadActivity(ctx context.Context, leadID, typ, note, actorID string) {
	if leadID == "" {
		return
	}
	lead, err := s.leads.FindByID(ctx, leadID)
	if err != nil {
		s.log.Warnf("[activity][lead][err] lookup id=%s: %v", leadID, err)
		return
	}
	if lead == nil {
		s.log.Debugf("[activity][lead][skip] dangling reference id=%s", leadID)
		return
	}
	a := &models.LeadActivity{
		LeadID:    leadID,
		Type:      typ,
		Note:      note,
		Date:      s.now(),
		CreatedBy: actorID,
	}
	if err := s.leads.AppendActivity(ctx, a); err != nil {
		s.log.Warnf("[activity][lead][err] append id=%s: %v", leadID, err)
	}
}

func (s *ActivityService) AppendProjectActivity(ctx context.Context, projectID, typ, note, actorID string) {
	if projectID == "" {
		return
	}
	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		s.log.Warnf("[activity][project][err] lookup id=%s: %v", projectID, err)
		return
	}
	if project == nil {
		s.log.Debugf("[activity][project][skip] dangling reference id=%s", projectID)
		return
	}
	a := &models.ProjectActivity{
		ProjectID: projectID,
		Type:      typ,
		Note:      note,
		Date:      s.now(),
		CreatedBy: actorID,
	}
	if err := s.projects.AppendActivity(ctx, a); err != nil {
		s.log.Warnf("[activity][project][err] append id=%s: %v", projectID, err)
	}
}
