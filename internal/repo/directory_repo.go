package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/meshboard/meshgate/internal/pkg/dbutil"
	appErr "github.com/meshboard/meshgate/internal/pkg/errors"
)

// DirectoryRepo resolves display names for users and shared resources from
// the dashboard's read-side tables. Used only for admin listing enrichment.
type DirectoryRepo struct {
	db *sql.DB
}

func NewDirectoryRepo(db *sql.DB) *DirectoryRepo {
	return &DirectoryRepo{db: db}
}

func (r *DirectoryRepo) UserName(ctx context.Context, userID string) (string, error) {
	where := map[string]interface{}{"id": userID}
	sqlStr, args, err := builder.BuildSelect("users", where, []string{"display_name", "email"})
	if err != nil {
		return "", err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return "", wrapStoreErr(err)
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return "", appErr.ErrNotFound
	}
	var name, email string
	if err := rows.Scan(&name, &email); err != nil {
		return "", err
	}
	if name == "" {
		name = email
	}
	return name, nil
}

func (r *DirectoryRepo) ResourceName(ctx context.Context, resourceType, resourceID string) (string, error) {
	where := map[string]interface{}{"id": resourceID, "resource_type": resourceType}
	sqlStr, args, err := builder.BuildSelect("resources", where, []string{"title"})
	if err != nil {
		return "", err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return "", wrapStoreErr(err)
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return "", appErr.ErrNotFound
	}
	var title string
	if err := rows.Scan(&title); err != nil {
		return "", err
	}
	return title, nil
}
