package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"
	"github.com/lib/pq"

	"github.com/meshboard/meshgate/internal/model"
	"github.com/meshboard/meshgate/internal/pkg/dbutil"
	appErr "github.com/meshboard/meshgate/internal/pkg/errors"
)

var shareTokenFields = []string{
	"id", "tenant_id", "token", "resource_id", "resource_type", "role",
	"created_by", "target_mode", "is_active", "redeemed_by", "ctime", "mtime", "expires_at",
}

type ShareTokenRepo struct {
	db *sql.DB
}

func NewShareTokenRepo(db *sql.DB) *ShareTokenRepo {
	return &ShareTokenRepo{db: db}
}

func (r *ShareTokenRepo) Create(ctx context.Context, token *model.ShareToken) error {
	data := map[string]interface{}{
		"id":            token.ID,
		"tenant_id":     token.TenantID,
		"token":         token.Token,
		"resource_id":   token.ResourceID,
		"resource_type": token.ResourceType,
		"role":          token.Role,
		"created_by":    token.CreatedBy,
		"target_mode":   token.TargetMode,
		"is_active":     token.IsActive,
		"redeemed_by":   pq.Array(token.RedeemedBy),
		"ctime":         token.Ctime,
		"mtime":         token.Mtime,
		"expires_at":    token.ExpiresAt,
	}
	sqlStr, args, err := builder.BuildInsert("share_tokens", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return wrapStoreErr(err)
	}
	return nil
}

func (r *ShareTokenRepo) GetByToken(ctx context.Context, rawToken string) (*model.ShareToken, error) {
	return r.getOne(ctx, map[string]interface{}{"token": rawToken})
}

func (r *ShareTokenRepo) GetByID(ctx context.Context, id string) (*model.ShareToken, error) {
	return r.getOne(ctx, map[string]interface{}{"id": id})
}

func (r *ShareTokenRepo) getOne(ctx context.Context, where map[string]interface{}) (*model.ShareToken, error) {
	sqlStr, args, err := builder.BuildSelect("share_tokens", where, shareTokenFields)
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
	return scanShareToken(rows)
}

// AppendRedeemer records a redemption as a single atomic array append so two
// users redeeming the same token at the same instant both land in
// redeemed_by. Appends are not deduplicated by user id.
func (r *ShareTokenRepo) AppendRedeemer(ctx context.Context, id, userID string, mtime int64) (*model.ShareToken, error) {
	sqlStr := `UPDATE share_tokens SET redeemed_by = array_append(redeemed_by, $1), mtime = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, sqlStr, userID, mtime, id)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, appErr.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *ShareTokenRepo) Deactivate(ctx context.Context, id string, mtime int64) error {
	where := map[string]interface{}{"id": id}
	update := map[string]interface{}{"is_active": false, "mtime": mtime}
	sqlStr, args, err := builder.BuildUpdate("share_tokens", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return wrapStoreErr(err)
	}
	return nil
}

func (r *ShareTokenRepo) Delete(ctx context.Context, id string) error {
	sqlStr, args, err := builder.BuildDelete("share_tokens", map[string]interface{}{"id": id})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return wrapStoreErr(err)
	}
	return nil
}

// List returns tokens newest first, optionally filtered by tenant.
func (r *ShareTokenRepo) List(ctx context.Context, tenantID string) ([]*model.ShareToken, error) {
	where := map[string]interface{}{"_orderby": "ctime desc"}
	if tenantID != "" {
		where["tenant_id"] = tenantID
	}
	sqlStr, args, err := builder.BuildSelect("share_tokens", where, shareTokenFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	defer func() { _ = rows.Close() }()
	items := make([]*model.ShareToken, 0)
	for rows.Next() {
		item, err := scanShareToken(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// DeleteInactiveExpiredBefore removes revoked or expired tokens whose expiry
// passed before the cutoff. Active unexpired tokens are never touched.
func (r *ShareTokenRepo) DeleteInactiveExpiredBefore(ctx context.Context, cutoff int64) (int64, error) {
	sqlStr := `DELETE FROM share_tokens WHERE expires_at < $1 OR (is_active = FALSE AND mtime < $2)`
	res, err := r.db.ExecContext(ctx, sqlStr, cutoff, cutoff)
	if err != nil {
		return 0, wrapStoreErr(err)
	}
	return res.RowsAffected()
}

func scanShareToken(rows *sql.Rows) (*model.ShareToken, error) {
	var token model.ShareToken
	var redeemedBy pq.StringArray
	if err := rows.Scan(
		&token.ID, &token.TenantID, &token.Token, &token.ResourceID, &token.ResourceType,
		&token.Role, &token.CreatedBy, &token.TargetMode, &token.IsActive, &redeemedBy,
		&token.Ctime, &token.Mtime, &token.ExpiresAt,
	); err != nil {
		return nil, err
	}
	token.RedeemedBy = []string(redeemedBy)
	return &token, nil
}

func wrapStoreErr(err error) error {
	if dbutil.IsUnavailable(err) {
		return appErr.ErrStoreUnavailable
	}
	return err
}
