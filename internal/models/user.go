package models

// User represents a staff account. Permissions are not stored here — they are
// resolved from RoleKey on every request (see internal/authz).
type User struct {
	ID           string `json:"id"`
	FullName     string `json:"full_name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"` // не отдаём наружу
	RoleKey      string `json:"role_key"`
	Active       bool   `json:"active"`

	// Telegram push, опционально
	TelegramChatID int64 `json:"-"`
}

// Role maps a role key to a stored permission list. The permission list may
// contain stale strings; the resolver filters them against the known universe.
type Role struct {
	ID          string   `json:"id"`
	Key         string   `json:"key"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
