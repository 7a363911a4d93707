package repo

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"time"

	"github.com/didi/gendry/builder"

	"github.com/meshboard/meshgate/internal/pkg/dbutil"
	appErr "github.com/meshboard/meshgate/internal/pkg/errors"
)

const linkKeyBytes = 8

// How many fresh random keys to try before giving up on a unique insert.
const linkKeyRetries = 4

type LinkRepo struct {
	db *sql.DB
}

func NewLinkRepo(db *sql.DB) *LinkRepo {
	return &LinkRepo{db: db}
}

// Put stores the payload under a fresh random key. Keys carry no information
// about the payload or the resource behind it.
func (r *LinkRepo) Put(ctx context.Context, payload string) (string, error) {
	var lastErr error
	for i := 0; i < linkKeyRetries; i++ {
		key := newLinkKey()
		data := map[string]interface{}{
			"key":     key,
			"payload": payload,
			"ctime":   time.Now().Unix(),
		}
		sqlStr, args, err := builder.BuildInsert("links", []map[string]interface{}{data})
		if err != nil {
			return "", err
		}
		sqlStr, args = dbutil.Finalize(sqlStr, args)
		_, err = r.db.ExecContext(ctx, sqlStr, args...)
		if err == nil {
			return key, nil
		}
		if !dbutil.IsConflict(err) {
			return "", wrapStoreErr(err)
		}
		lastErr = appErr.ErrConflict
	}
	return "", lastErr
}

func (r *LinkRepo) Get(ctx context.Context, key string) (string, error) {
	sqlStr, args, err := builder.BuildSelect("links", map[string]interface{}{"key": key}, []string{"payload"})
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
	var payload string
	if err := rows.Scan(&payload); err != nil {
		return "", err
	}
	return payload, nil
}

func (r *LinkRepo) DeleteCreatedBefore(ctx context.Context, cutoff int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM links WHERE ctime < $1`, cutoff)
	if err != nil {
		return 0, wrapStoreErr(err)
	}
	return res.RowsAffected()
}

func newLinkKey() string {
	buf := make([]byte, linkKeyBytes)
	_, _ = rand.Read(buf)
	return base64.RawURLEncoding.EncodeToString(buf)
}
