package models

import "time"

type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ProjectActivity mirrors LeadActivity for projects.
type ProjectActivity struct {
	ID        int64     `json:"id"`
	ProjectID string    `json:"project_id"`
	Type      string    `json:"type"`
	Note      string    `json:"note"`
	Date      time.Time `json:"date"`
	CreatedBy string    `json:"created_by"`
}
