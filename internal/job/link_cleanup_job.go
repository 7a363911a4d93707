package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/meshboard/meshgate/internal/repo"
)

// LinkCleanupJob hard-deletes link-map rows past their retention window and
// share tokens that are long expired or revoked. Active, unexpired tokens are
// never touched; expired ones stay queryable for audit until retention runs
// out.
type LinkCleanupJob struct {
	links     *repo.LinkRepo
	tokens    *repo.ShareTokenRepo
	retention time.Duration
}

func NewLinkCleanupJob(links *repo.LinkRepo, tokens *repo.ShareTokenRepo, retention time.Duration) *LinkCleanupJob {
	return &LinkCleanupJob{links: links, tokens: tokens, retention: retention}
}

func (j *LinkCleanupJob) Name() string {
	return "link_cleanup"
}

func (j *LinkCleanupJob) Run(ctx context.Context) error {
	cutoff := time.Now().Add(-j.retention).Unix()
	linksDeleted, err := j.links.DeleteCreatedBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	tokensDeleted, err := j.tokens.DeleteInactiveExpiredBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("cleanup done",
		zap.Int64("links_deleted", linksDeleted),
		zap.Int64("tokens_deleted", tokensDeleted),
	)
	return nil
}
