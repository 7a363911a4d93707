package service

import (
	"context"
	"time"

	"github.com/meshboard/meshgate/internal/model"
	appErr "github.com/meshboard/meshgate/internal/pkg/errors"
)

const lastOwnerMessage = "Cannot remove or demote the last OWNER"

// RoleStore is the tenant-role persistence surface, implemented by
// repo.TenantRoleRepo.
type RoleStore interface {
	ListByTenant(ctx context.Context, tenantID string) ([]*model.TenantRole, error)
	Get(ctx context.Context, tenantID, userID string) (*model.TenantRole, error)
	Upsert(ctx context.Context, assignment *model.TenantRole) error
	Remove(ctx context.Context, tenantID, userID string) error
}

type RoleService struct {
	roles RoleStore
}

func NewRoleService(roles RoleStore) *RoleService {
	return &RoleService{roles: roles}
}

// RoleUpdate with a nil Role removes the assignment.
type RoleUpdate struct {
	UserID string
	Role   *string
}

type RoleResult struct {
	UserID string `json:"user_id"`
	Status string `json:"status"`
	Action string `json:"action,omitempty"`
	Error  string `json:"error,omitempty"`
}

// CanManage reports whether userID holds ADMIN or OWNER in the tenant.
func (s *RoleService) CanManage(ctx context.Context, tenantID, userID string) (bool, error) {
	assignment, err := s.roles.Get(ctx, tenantID, userID)
	if err != nil {
		if appErr.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return assignment.Role == model.TenantRoleAdmin || assignment.Role == model.TenantRoleOwner, nil
}

// ApplyBulk processes each update independently: one failing item never
// aborts the rest, and there is no rollback of already-applied items. The
// role snapshot is taken once up front and kept current as items apply, so
// later items observe earlier ones. Two concurrent bulk calls against the
// same tenant can still race each other; within a single call the last-owner
// invariant holds.
func (s *RoleService) ApplyBulk(ctx context.Context, tenantID string, updates []RoleUpdate) ([]RoleResult, error) {
	if tenantID == "" {
		return nil, appErr.ErrInvalid
	}
	current, err := s.roles.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	snapshot := make(map[string]string, len(current))
	ownerCount := 0
	for _, assignment := range current {
		snapshot[assignment.UserID] = assignment.Role
		if assignment.Role == model.TenantRoleOwner {
			ownerCount++
		}
	}

	results := make([]RoleResult, 0, len(updates))
	for _, update := range updates {
		results = append(results, s.applyOne(ctx, tenantID, update, snapshot, &ownerCount))
	}
	return results, nil
}

func (s *RoleService) applyOne(ctx context.Context, tenantID string, update RoleUpdate, snapshot map[string]string, ownerCount *int) RoleResult {
	if update.UserID == "" {
		return RoleResult{UserID: update.UserID, Status: "error", Error: "user id is required"}
	}
	currentRole, exists := snapshot[update.UserID]

	losesOwner := exists && currentRole == model.TenantRoleOwner &&
		(update.Role == nil || *update.Role != model.TenantRoleOwner)
	if losesOwner && *ownerCount <= 1 {
		return RoleResult{UserID: update.UserID, Status: "error", Error: lastOwnerMessage}
	}

	now := time.Now().Unix()
	switch {
	case update.Role == nil && !exists:
		return RoleResult{UserID: update.UserID, Status: "ok", Action: "noop"}
	case update.Role == nil:
		if err := s.roles.Remove(ctx, tenantID, update.UserID); err != nil {
			return RoleResult{UserID: update.UserID, Status: "error", Error: "remove failed"}
		}
		delete(snapshot, update.UserID)
		if currentRole == model.TenantRoleOwner {
			*ownerCount--
		}
		return RoleResult{UserID: update.UserID, Status: "ok", Action: "removed"}
	case exists && currentRole == *update.Role:
		return RoleResult{UserID: update.UserID, Status: "ok", Action: "noop"}
	default:
		assignment := &model.TenantRole{
			TenantID: tenantID,
			UserID:   update.UserID,
			Role:     *update.Role,
			Ctime:    now,
			Mtime:    now,
		}
		if err := s.roles.Upsert(ctx, assignment); err != nil {
			return RoleResult{UserID: update.UserID, Status: "error", Error: "assign failed"}
		}
		if currentRole == model.TenantRoleOwner {
			*ownerCount--
		}
		if *update.Role == model.TenantRoleOwner {
			*ownerCount++
		}
		snapshot[update.UserID] = *update.Role
		action := "assigned"
		if exists {
			action = "updated"
		}
		return RoleResult{UserID: update.UserID, Status: "ok", Action: action}
	}
}
