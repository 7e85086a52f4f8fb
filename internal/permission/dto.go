package permission

type SetOverridesRequest struct {
	Overrides []OverrideInput `json:"overrides"`
}

type PermissionsResponse struct {
	Permissions []*Permission `json:"permissions"`
}

type CategoriesResponse struct {
	Categories []*Category `json:"categories"`
}

type EffectivePermissionsResponse struct {
	UserID      string   `json:"userId"`
	Permissions []string `json:"permissions"`
}
