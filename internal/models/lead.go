package models

import "time"

type Lead struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	OwnerID   string    `json:"owner_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// LeadActivity is one append-only entry of a lead's activity log.
type LeadActivity struct {
	ID        int64     `json:"id"`
	LeadID    string    `json:"lead_id"`
	Type      string    `json:"type"`
	Note      string    `json:"note"`
	Date      time.Time `json:"date"`
	CreatedBy string    `json:"created_by"`
}
