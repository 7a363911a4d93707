package model

const (
	ResourceTypeDocument = "Document"
	ResourceTypeNote     = "Note"
	ResourceTypeSprite   = "Sprite"
	ResourceTypeCallRoom = "CallRoom"
)

func IsValidResourceType(t string) bool {
	switch t {
	case ResourceTypeDocument, ResourceTypeNote, ResourceTypeSprite, ResourceTypeCallRoom:
		return true
	}
	return false
}

// ShareToken is the persisted record behind a share link. Token holds the raw
// secret; it never appears in a URL, only its encrypted form does.
type ShareToken struct {
	ID           string   `json:"id"`
	TenantID     string   `json:"tenant_id"`
	Token        string   `json:"token"`
	ResourceID   string   `json:"resource_id"`
	ResourceType string   `json:"resource_type"`
	Role         string   `json:"role"`
	CreatedBy    string   `json:"created_by"`
	TargetMode   string   `json:"target_mode,omitempty"`
	IsActive     bool     `json:"is_active"`
	RedeemedBy   []string `json:"redeemed_by"`
	Ctime        int64    `json:"ctime"`
	Mtime        int64    `json:"mtime"`
	ExpiresAt    int64    `json:"expires_at"`
}
