package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/meshboard/meshgate/internal/model"
	"github.com/meshboard/meshgate/internal/pkg/dbutil"
	appErr "github.com/meshboard/meshgate/internal/pkg/errors"
)

type TenantRoleRepo struct {
	db *sql.DB
}

func NewTenantRoleRepo(db *sql.DB) *TenantRoleRepo {
	return &TenantRoleRepo{db: db}
}

func (r *TenantRoleRepo) ListByTenant(ctx context.Context, tenantID string) ([]*model.TenantRole, error) {
	where := map[string]interface{}{"tenant_id": tenantID}
	sqlStr, args, err := builder.BuildSelect("tenant_roles", where, []string{"tenant_id", "user_id", "role", "ctime", "mtime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	defer func() { _ = rows.Close() }()
	items := make([]*model.TenantRole, 0)
	for rows.Next() {
		var item model.TenantRole
		if err := rows.Scan(&item.TenantID, &item.UserID, &item.Role, &item.Ctime, &item.Mtime); err != nil {
			return nil, err
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

func (r *TenantRoleRepo) Get(ctx context.Context, tenantID, userID string) (*model.TenantRole, error) {
	where := map[string]interface{}{"tenant_id": tenantID, "user_id": userID}
	sqlStr, args, err := builder.BuildSelect("tenant_roles", where, []string{"tenant_id", "user_id", "role", "ctime", "mtime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	var item model.TenantRole
	if err := rows.Scan(&item.TenantID, &item.UserID, &item.Role, &item.Ctime, &item.Mtime); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *TenantRoleRepo) Upsert(ctx context.Context, assignment *model.TenantRole) error {
	sqlStr := `INSERT INTO tenant_roles (tenant_id, user_id, role, ctime, mtime)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tenant_id, user_id) DO UPDATE SET role = EXCLUDED.role, mtime = EXCLUDED.mtime`
	_, err := r.db.ExecContext(ctx, sqlStr,
		assignment.TenantID, assignment.UserID, assignment.Role, assignment.Ctime, assignment.Mtime)
	if err != nil {
		return wrapStoreErr(err)
	}
	return nil
}

func (r *TenantRoleRepo) Remove(ctx context.Context, tenantID, userID string) error {
	sqlStr, args, err := builder.BuildDelete("tenant_roles", map[string]interface{}{"tenant_id": tenantID, "user_id": userID})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return wrapStoreErr(err)
	}
	return nil
}
