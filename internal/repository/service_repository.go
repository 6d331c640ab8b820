package repository

import (
	"context"
	"database/sql"

	"github.com/shaadibazaarhub/marketplace/internal/model"
)

// ServiceRepo provides CRUD operations for wedding-service listings.
// Reads are public; writes are scoped to the owning provider and
// ownership violations surface as ErrForbidden.
type ServiceRepo struct {
	db *sql.DB
}

// NewServiceRepo returns a new ServiceRepo bound to the given database.
func NewServiceRepo(db *sql.DB) *ServiceRepo { return &ServiceRepo{db: db} }

// DB exposes the underlying pool so handlers can open transactions that
// span multiple repositories.
func (r *ServiceRepo) DB() *sql.DB { return r.db }

const serviceCols = "id, provider_id, name, description, price, photo_url, location, created_at, updated_at"

func scanService(row interface{ Scan(...any) error }) (model.Service, error) {
	var s model.Service
	err := row.Scan(&s.ID, &s.ProviderID, &s.Name, &s.Description, &s.Price, &s.PhotoURL, &s.Location, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// Create inserts a new listing for the provider and populates the
// generated ID and timestamps on the returned value.
func (r *ServiceRepo) Create(ctx context.Context, s *model.Service) error {
	const q = `INSERT INTO services (provider_id, name, description, price, photo_url, location) VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, s.ProviderID, s.Name, s.Description, s.Price, s.PhotoURL, s.Location)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	// Query back the full row to populate timestamps and defaults
	got, err := r.GetByID(ctx, s.ID)
	if err != nil {
		return err
	}
	*s = got
	return nil
}

// GetByID returns a single listing or ErrServiceNotFound.
func (r *ServiceRepo) GetByID(ctx context.Context, id uint64) (model.Service, error) {
	s, err := scanService(r.db.QueryRowContext(ctx, "SELECT "+serviceCols+" FROM services WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return model.Service{}, ErrServiceNotFound
	}
	return s, err
}

// Search lists services, optionally filtering by a free-text query
// (matched against name and description) and by location.  Results are
// newest first.
func (r *ServiceRepo) Search(ctx context.Context, query, location string) ([]model.Service, error) {
	q := "SELECT " + serviceCols + " FROM services"
	var (
		where []string
		args  []any
	)
	if query != "" {
		where = append(where, "(name LIKE ? OR description LIKE ?)")
		like := "%" + query + "%"
		args = append(args, like, like)
	}
	if location != "" {
		where = append(where, "location LIKE ?")
		args = append(args, "%"+location+"%")
	}
	for i, w := range where {
		if i == 0 {
			q += " WHERE " + w
		} else {
			q += " AND " + w
		}
	}
	q += " ORDER BY id DESC"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Service, 0)
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListByProvider returns all listings owned by the given provider,
// newest first.
func (r *ServiceRepo) ListByProvider(ctx context.Context, providerID uint64) ([]model.Service, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+serviceCols+" FROM services WHERE provider_id = ? ORDER BY id DESC", providerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Service, 0)
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Update rewrites all mutable columns of a listing after checking that
// the provider owns it.  Returns ErrServiceNotFound or ErrForbidden on
// the corresponding violations.
func (r *ServiceRepo) Update(ctx context.Context, providerID uint64, s *model.Service) error {
	if err := r.checkOwner(ctx, s.ID, providerID); err != nil {
		return err
	}
	const q = `UPDATE services SET name=?, description=?, price=?, photo_url=?, location=? WHERE id=?`
	if _, err := r.db.ExecContext(ctx, q, s.Name, s.Description, s.Price, s.PhotoURL, s.Location, s.ID); err != nil {
		return err
	}
	got, err := r.GetByID(ctx, s.ID)
	if err != nil {
		return err
	}
	*s = got
	return nil
}

// Delete removes a listing owned by the provider.
func (r *ServiceRepo) Delete(ctx context.Context, providerID, serviceID uint64) error {
	if err := r.checkOwner(ctx, serviceID, providerID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, "DELETE FROM services WHERE id = ?", serviceID)
	return err
}

func (r *ServiceRepo) checkOwner(ctx context.Context, serviceID, providerID uint64) error {
	var owner uint64
	err := r.db.QueryRowContext(ctx, "SELECT provider_id FROM services WHERE id = ?", serviceID).Scan(&owner)
	if err == sql.ErrNoRows {
		return ErrServiceNotFound
	}
	if err != nil {
		return err
	}
	if owner != providerID {
		return ErrForbidden
	}
	return nil
}
