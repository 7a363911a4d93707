package model

const (
	TenantRoleOwner  = "OWNER"
	TenantRoleAdmin  = "ADMIN"
	TenantRoleMember = "MEMBER"
	TenantRoleViewer = "VIEWER"
)

type TenantRole struct {
	TenantID string `json:"tenant_id"`
	UserID   string `json:"user_id"`
	Role     string `json:"role"`
	Ctime    int64  `json:"ctime"`
	Mtime    int64  `json:"mtime"`
}
