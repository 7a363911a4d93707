package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/meshboard/meshgate/internal/model"
	appErr "github.com/meshboard/meshgate/internal/pkg/errors"
)

type memTokenStore struct {
	mu   sync.Mutex
	byID map[string]*model.ShareToken
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{byID: map[string]*model.ShareToken{}}
}

func (s *memTokenStore) Create(ctx context.Context, token *model.ShareToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byID {
		if existing.Token == token.Token {
			return appErr.ErrConflict
		}
	}
	clone := *token
	s.byID[token.ID] = &clone
	return nil
}

func (s *memTokenStore) GetByToken(ctx context.Context, rawToken string) (*model.ShareToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, token := range s.byID {
		if token.Token == rawToken {
			clone := *token
			return &clone, nil
		}
	}
	return nil, appErr.ErrNotFound
}

func (s *memTokenStore) GetByID(ctx context.Context, id string) (*model.ShareToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.byID[id]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	clone := *token
	return &clone, nil
}

func (s *memTokenStore) AppendRedeemer(ctx context.Context, id, userID string, mtime int64) (*model.ShareToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.byID[id]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	token.RedeemedBy = append(token.RedeemedBy, userID)
	token.Mtime = mtime
	clone := *token
	return &clone, nil
}

func (s *memTokenStore) Deactivate(ctx context.Context, id string, mtime int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token, ok := s.byID[id]; ok {
		token.IsActive = false
		token.Mtime = mtime
	}
	return nil
}

func (s *memTokenStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, id)
	return nil
}

func (s *memTokenStore) List(ctx context.Context, tenantID string) ([]*model.ShareToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]*model.ShareToken, 0, len(s.byID))
	for _, token := range s.byID {
		if tenantID != "" && token.TenantID != tenantID {
			continue
		}
		clone := *token
		items = append(items, &clone)
	}
	return items, nil
}

type memLinkStore struct {
	mu      sync.Mutex
	entries map[string]string
	nextKey int
}

func newMemLinkStore() *memLinkStore {
	return &memLinkStore{entries: map[string]string{}}
}

func (s *memLinkStore) Put(ctx context.Context, payload string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextKey++
	key := fmt.Sprintf("k%06d", s.nextKey)
	s.entries[key] = payload
	return key, nil
}

func (s *memLinkStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, ok := s.entries[key]
	if !ok {
		return "", appErr.ErrNotFound
	}
	return payload, nil
}

type memNameDirectory struct {
	users     map[string]string
	resources map[string]string
}

func (d *memNameDirectory) UserName(ctx context.Context, userID string) (string, error) {
	if name, ok := d.users[userID]; ok {
		return name, nil
	}
	return "", appErr.ErrNotFound
}

func (d *memNameDirectory) ResourceName(ctx context.Context, resourceType, resourceID string) (string, error) {
	if name, ok := d.resources[resourceID]; ok {
		return name, nil
	}
	return "", appErr.ErrNotFound
}

type memRoleStore struct {
	mu    sync.Mutex
	roles map[string]map[string]string
	fail  map[string]bool
}

func newMemRoleStore() *memRoleStore {
	return &memRoleStore{roles: map[string]map[string]string{}, fail: map[string]bool{}}
}

func (s *memRoleStore) seed(tenantID, userID, role string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.roles[tenantID] == nil {
		s.roles[tenantID] = map[string]string{}
	}
	s.roles[tenantID][userID] = role
}

func (s *memRoleStore) ListByTenant(ctx context.Context, tenantID string) ([]*model.TenantRole, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]*model.TenantRole, 0)
	for userID, role := range s.roles[tenantID] {
		items = append(items, &model.TenantRole{TenantID: tenantID, UserID: userID, Role: role})
	}
	return items, nil
}

func (s *memRoleStore) Get(ctx context.Context, tenantID, userID string) (*model.TenantRole, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	role, ok := s.roles[tenantID][userID]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	return &model.TenantRole{TenantID: tenantID, UserID: userID, Role: role}, nil
}

func (s *memRoleStore) Upsert(ctx context.Context, assignment *model.TenantRole) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail[assignment.UserID] {
		return appErr.ErrStoreUnavailable
	}
	if s.roles[assignment.TenantID] == nil {
		s.roles[assignment.TenantID] = map[string]string{}
	}
	s.roles[assignment.TenantID][assignment.UserID] = assignment.Role
	return nil
}

func (s *memRoleStore) Remove(ctx context.Context, tenantID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail[userID] {
		return appErr.ErrStoreUnavailable
	}
	delete(s.roles[tenantID], userID)
	return nil
}
