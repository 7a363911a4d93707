package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/meshboard/meshgate/internal/model"
	appErr "github.com/meshboard/meshgate/internal/pkg/errors"
	"github.com/meshboard/meshgate/internal/pkg/tokencrypt"
)

// TokenStore is the persistence surface the share lifecycle needs. Implemented
// by repo.ShareTokenRepo; redeclared here so services stay testable without a
// database.
type TokenStore interface {
	Create(ctx context.Context, token *model.ShareToken) error
	GetByToken(ctx context.Context, rawToken string) (*model.ShareToken, error)
	GetByID(ctx context.Context, id string) (*model.ShareToken, error)
	AppendRedeemer(ctx context.Context, id, userID string, mtime int64) (*model.ShareToken, error)
	Deactivate(ctx context.Context, id string, mtime int64) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, tenantID string) ([]*model.ShareToken, error)
}

// LinkStore maps short random keys to immutable payloads.
type LinkStore interface {
	Put(ctx context.Context, payload string) (string, error)
	Get(ctx context.Context, key string) (string, error)
}

// NameDirectory resolves display names best-effort for admin listings.
type NameDirectory interface {
	UserName(ctx context.Context, userID string) (string, error)
	ResourceName(ctx context.Context, resourceType, resourceID string) (string, error)
}

type ShareService struct {
	tokens     TokenStore
	links      LinkStore
	codec      *tokencrypt.Codec
	names      NameDirectory
	baseURL    string
	defaultTTL time.Duration
}

func NewShareService(tokens TokenStore, links LinkStore, codec *tokencrypt.Codec, names NameDirectory, baseURL string, defaultTTL time.Duration) *ShareService {
	return &ShareService{
		tokens:     tokens,
		links:      links,
		codec:      codec,
		names:      names,
		baseURL:    strings.TrimRight(baseURL, "/"),
		defaultTTL: defaultTTL,
	}
}

type IssueInput struct {
	ResourceID    string
	ResourceType  string
	Role          string
	TTLSeconds    int64
	Mode          string
	AssistantName string
	TenantID      string
	IssuerUserID  string
}

type IssueResult struct {
	ShareURL string
	RawToken string
	TokenID  string
}

// resourcePayload is the link payload for ordinary resource types. The
// resource identity travels in the clear; only the token is encrypted.
type resourcePayload struct {
	Token       string `json:"token"`
	ResourceID  string `json:"resourceId"`
	ContentType string `json:"contentType"`
	Mode        string `json:"mode,omitempty"`
}

// callRoomPayload deliberately has no resource field at all: the room URL is
// the sensitive part and is only recoverable through decrypt plus store
// lookup.
type callRoomPayload struct {
	Token         string `json:"token"`
	Mode          string `json:"mode,omitempty"`
	AssistantName string `json:"assistantName,omitempty"`
}

func (s *ShareService) IssueLink(ctx context.Context, in IssueInput) (*IssueResult, error) {
	if in.ResourceID == "" || in.Role == "" || !model.IsValidResourceType(in.ResourceType) {
		return nil, appErr.ErrInvalid
	}
	ttl := s.defaultTTL
	if in.TTLSeconds > 0 {
		ttl = time.Duration(in.TTLSeconds) * time.Second
	}
	now := time.Now()
	token := &model.ShareToken{
		ID:           newID(),
		TenantID:     in.TenantID,
		Token:        newRawToken(),
		ResourceID:   in.ResourceID,
		ResourceType: in.ResourceType,
		Role:         in.Role,
		CreatedBy:    in.IssuerUserID,
		TargetMode:   in.Mode,
		IsActive:     true,
		RedeemedBy:   []string{},
		Ctime:        now.Unix(),
		Mtime:        now.Unix(),
		ExpiresAt:    now.Add(ttl).Unix(),
	}
	if err := s.tokens.Create(ctx, token); err != nil {
		return nil, err
	}
	encrypted, err := s.codec.Encrypt(token.Token)
	if err != nil {
		return nil, err
	}
	var payload interface{}
	if in.ResourceType == model.ResourceTypeCallRoom {
		payload = callRoomPayload{Token: encrypted, Mode: in.Mode, AssistantName: in.AssistantName}
	} else {
		payload = resourcePayload{Token: encrypted, ResourceID: in.ResourceID, ContentType: in.ResourceType, Mode: in.Mode}
	}
	serialized, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	key, err := s.links.Put(ctx, string(serialized))
	if err != nil {
		return nil, err
	}
	logutil.GetLogger(ctx).Info("share link issued",
		zap.String("token_id", token.ID),
		zap.String("resource_type", in.ResourceType),
		zap.String("created_by", in.IssuerUserID),
	)
	return &IssueResult{
		ShareURL: s.baseURL + "/share/" + key,
		RawToken: token.Token,
		TokenID:  token.ID,
	}, nil
}

// ResolveLink returns the stored payload for a short link key.
func (s *ShareService) ResolveLink(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", appErr.ErrInvalid
	}
	return s.links.Get(ctx, key)
}

type Redemption struct {
	ResourceID   string
	ResourceType string
	Role         string
	TargetMode   string
}

func (s *ShareService) Redeem(ctx context.Context, encryptedToken, redeemerUserID string) (*Redemption, error) {
	if encryptedToken == "" || redeemerUserID == "" {
		return nil, appErr.ErrInvalid
	}
	raw, err := s.codec.Decrypt(encryptedToken)
	if err != nil {
		if errors.Is(err, tokencrypt.ErrDecryptionFailed) {
			return nil, appErr.ErrInvalidToken
		}
		return nil, err
	}
	token, err := s.tokens.GetByToken(ctx, raw)
	if err != nil {
		if appErr.IsNotFound(err) {
			return nil, appErr.ErrInvalidToken
		}
		return nil, err
	}
	now := time.Now()
	if token.ExpiresAt <= now.Unix() {
		return nil, appErr.ErrTokenExpired
	}
	if !token.IsActive {
		return nil, appErr.ErrTokenRevoked
	}
	if _, err := s.tokens.AppendRedeemer(ctx, token.ID, redeemerUserID, now.Unix()); err != nil {
		return nil, err
	}
	logutil.GetLogger(ctx).Info("share token redeemed",
		zap.String("token_id", token.ID),
		zap.String("redeemed_by", redeemerUserID),
	)
	return &Redemption{
		ResourceID:   token.ResourceID,
		ResourceType: token.ResourceType,
		Role:         token.Role,
		TargetMode:   token.TargetMode,
	}, nil
}

// EnrichedShareToken decorates a token with display names for admin views.
type EnrichedShareToken struct {
	model.ShareToken
	CreatedByName   string   `json:"created_by_name"`
	RedeemedByNames []string `json:"redeemed_by_names"`
	ResourceName    string   `json:"resource_name"`
}

// ListEnriched joins best-effort display names onto each token. A failed
// lookup falls back to the raw id; it never fails the listing.
func (s *ShareService) ListEnriched(ctx context.Context, tenantID string) ([]*EnrichedShareToken, error) {
	tokens, err := s.tokens.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	items := make([]*EnrichedShareToken, 0, len(tokens))
	for _, token := range tokens {
		item := &EnrichedShareToken{ShareToken: *token}
		item.Token = "" // raw secret stays server-side
		item.CreatedByName = s.lookupUserName(ctx, token.CreatedBy)
		item.RedeemedByNames = make([]string, 0, len(token.RedeemedBy))
		for _, uid := range token.RedeemedBy {
			item.RedeemedByNames = append(item.RedeemedByNames, s.lookupUserName(ctx, uid))
		}
		item.ResourceName = s.lookupResourceName(ctx, token.ResourceType, token.ResourceID)
		items = append(items, item)
	}
	return items, nil
}

func (s *ShareService) Revoke(ctx context.Context, tokenID string, hard bool) error {
	if tokenID == "" {
		return appErr.ErrInvalid
	}
	if hard {
		return s.tokens.Delete(ctx, tokenID)
	}
	return s.tokens.Deactivate(ctx, tokenID, time.Now().Unix())
}

func (s *ShareService) lookupUserName(ctx context.Context, userID string) string {
	if s.names == nil || userID == "" {
		return userID
	}
	name, err := s.names.UserName(ctx, userID)
	if err != nil || name == "" {
		return userID
	}
	return name
}

func (s *ShareService) lookupResourceName(ctx context.Context, resourceType, resourceID string) string {
	if s.names == nil {
		return resourceID
	}
	name, err := s.names.ResourceName(ctx, resourceType, resourceID)
	if err != nil || name == "" {
		return resourceID
	}
	return name
}
