package repositories

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"opsdesk/internal/models"
)

// RoleRepository looks up stored roles. Both finders return (nil, nil) when
// the role does not exist.
type RoleRepository interface {
	FindByKey(ctx context.Context, key string) (*models.Role, error)
	FindByID(ctx context.Context, id string) (*models.Role, error)
}

type roleRepository struct {
	db *sql.DB
}

func NewRoleRepository(db *sql.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) FindByKey(ctx context.Context, key string) (*models.Role, error) {
	const query = `SELECT id, key, name, permissions FROM roles WHERE key = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, key))
}

func (r *roleRepository) FindByID(ctx context.Context, id string) (*models.Role, error) {
	const query = `SELECT id, key, name, permissions FROM roles WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *roleRepository) scanOne(row *sql.Row) (*models.Role, error) {
	role := &models.Role{}
	err := row.Scan(&role.ID, &role.Key, &role.Name, pq.Array(&role.Permissions))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return role, nil
}
