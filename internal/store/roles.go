package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/hrportal/internal/model"
)

// CreateRole inserts a role. ID and timestamps are assigned by the store.
func (s *Store) CreateRole(ctx context.Context, r model.Role) (model.Role, error) {
	r.CreatedAt = s.timestamp()
	r.UpdatedAt = r.CreatedAt
	id, err := s.insertID(ctx, s.db,
		`INSERT INTO "roles" ("name", "description", "created_at", "updated_at") VALUES (?, ?, ?, ?) RETURNING "id"`,
		r.Name, r.Description, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return model.Role{}, s.classify(err, "insert", "roles")
	}
	r.ID = id
	s.logger.Debug("created role", logAttrs("roles", id)...)
	return r, nil
}

// GetRole returns the role with the given id.
func (s *Store) GetRole(ctx context.Context, id int64) (model.Role, error) {
	var r model.Role
	var created, updated nullTime
	err := s.queryRow(ctx, s.db,
		`SELECT "id", "name", "description", "created_at", "updated_at" FROM "roles" WHERE "id" = ?`, id).
		Scan(&r.ID, &r.Name, &r.Description, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Role{}, notFound("roles", id)
	}
	if err != nil {
		return model.Role{}, fmt.Errorf("get role %d: %w", id, err)
	}
	r.CreatedAt, r.UpdatedAt = created.Time, updated.Time
	return r, nil
}

// CreatePermission inserts a permission.
func (s *Store) CreatePermission(ctx context.Context, p model.Permission) (model.Permission, error) {
	p.CreatedAt = s.timestamp()
	p.UpdatedAt = p.CreatedAt
	id, err := s.insertID(ctx, s.db,
		`INSERT INTO "permissions" ("name", "description", "created_at", "updated_at") VALUES (?, ?, ?, ?) RETURNING "id"`,
		p.Name, p.Description, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return model.Permission{}, s.classify(err, "insert", "permissions")
	}
	p.ID = id
	s.logger.Debug("created permission", logAttrs("permissions", id)...)
	return p, nil
}

// Grant gives a permission to a role. Granting the same pair twice fails
// with UNIQUE_VIOLATION.
func (s *Store) Grant(ctx context.Context, roleID, permissionID int64) error {
	_, err := s.exec(ctx, s.db,
		`INSERT INTO "permission_role" ("role_id", "permission_id") VALUES (?, ?)`, roleID, permissionID)
	if err != nil {
		return s.classify(err, "grant", "permission_role")
	}
	return nil
}

// Revoke removes a grant. Revoking a grant that does not exist fails with
// NOT_FOUND.
func (s *Store) Revoke(ctx context.Context, roleID, permissionID int64) error {
	ok, err := s.exec(ctx, s.db,
		`DELETE FROM "permission_role" WHERE "role_id" = ? AND "permission_id" = ?`, roleID, permissionID)
	if err != nil {
		return s.classify(err, "revoke", "permission_role")
	}
	if !ok {
		return &SchemaError{Code: ErrCodeNotFound, Table: "permission_role",
			Message: fmt.Sprintf("role %d does not hold permission %d", roleID, permissionID)}
	}
	return nil
}

// RolePermissions lists the permissions granted to a role, ordered by name.
func (s *Store) RolePermissions(ctx context.Context, roleID int64) ([]model.Permission, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.Rebind(`
		SELECT p."id", p."name", p."description", p."created_at", p."updated_at"
		FROM "permissions" AS p
		JOIN "permission_role" AS pr ON pr."permission_id" = p."id"
		WHERE pr."role_id" = ?
		ORDER BY p."name"`), roleID)
	if err != nil {
		return nil, fmt.Errorf("list permissions of role %d: %w", roleID, err)
	}
	defer rows.Close()

	var out []model.Permission
	for rows.Next() {
		var p model.Permission
		var created, updated nullTime
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan permission: %w", err)
		}
		p.CreatedAt, p.UpdatedAt = created.Time, updated.Time
		out = append(out, p)
	}
	return out, rows.Err()
}

// CreateUser inserts a user, optionally with a role.
func (s *Store) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	u.CreatedAt = s.timestamp()
	u.UpdatedAt = u.CreatedAt
	id, err := s.insertID(ctx, s.db, `
		INSERT INTO "users" ("name", "email", "email_verified_at", "password", "remember_token", "role_id", "created_at", "updated_at")
		VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING "id"`,
		u.Name, u.Email, u.EmailVerifiedAt, u.Password, u.RememberToken, u.RoleID, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return model.User{}, s.classify(err, "insert", "users")
	}
	u.ID = id
	s.logger.Debug("created user", logAttrs("users", id)...)
	return u, nil
}

// GetUser returns the user with the given id.
func (s *Store) GetUser(ctx context.Context, id int64) (model.User, error) {
	var u model.User
	var verified, created, updated nullTime
	var roleID sql.NullInt64
	err := s.queryRow(ctx, s.db, `
		SELECT "id", "name", "email", "email_verified_at", "password", "remember_token", "role_id", "created_at", "updated_at"
		FROM "users" WHERE "id" = ?`, id).
		Scan(&u.ID, &u.Name, &u.Email, &verified, &u.Password, &u.RememberToken, &roleID, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, notFound("users", id)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("get user %d: %w", id, err)
	}
	u.EmailVerifiedAt = verified.Ptr()
	if roleID.Valid {
		u.RoleID = &roleID.Int64
	}
	u.CreatedAt, u.UpdatedAt = created.Time, updated.Time
	return u, nil
}

// AssignRole sets or, with a nil roleID, clears the role of a user.
func (s *Store) AssignRole(ctx context.Context, userID int64, roleID *int64) error {
	ok, err := s.exec(ctx, s.db,
		`UPDATE "users" SET "role_id" = ?, "updated_at" = ? WHERE "id" = ?`, roleID, s.timestamp(), userID)
	if err != nil {
		return s.classify(err, "update", "users")
	}
	if !ok {
		return notFound("users", userID)
	}
	return nil
}

// CreateModule inserts a module.
func (s *Store) CreateModule(ctx context.Context, m model.Module) (model.Module, error) {
	m.CreatedAt = s.timestamp()
	m.UpdatedAt = m.CreatedAt
	id, err := s.insertID(ctx, s.db,
		`INSERT INTO "modules" ("name", "description", "active", "created_at", "updated_at") VALUES (?, ?, ?, ?, ?) RETURNING "id"`,
		m.Name, m.Description, m.Active, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return model.Module{}, s.classify(err, "insert", "modules")
	}
	m.ID = id
	s.logger.Debug("created module", logAttrs("modules", id)...)
	return m, nil
}
