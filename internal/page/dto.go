package page

type SetRolePagesRequest struct {
	PagePermissions []PagePermissionInput `json:"pagePermissions"`
}

type PagesResponse struct {
	Pages []*Page `json:"pages"`
}

type RolePagesResponse struct {
	RoleID string           `json:"roleId"`
	Pages  []RolePageAccess `json:"pages"`
}

type AllowedPagesResponse struct {
	Pages []string `json:"pages"`
}
