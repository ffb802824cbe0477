package userservice

const (
	PermissionBlogCreate       Permission = "blog.create"
	PermissionBlogEdit         Permission = "blog.edit"
	PermissionBlogDelete       Permission = "blog.delete"
	PermissionCategoriesManage Permission = "categories.manage"
	PermissionProductsManage   Permission = "products.manage"
	PermissionUsersView        Permission = "users.view"
	PermissionUsersRoles       Permission = "users.roles"
	PermissionAnalyticsView    Permission = "analytics.view"
	PermissionSettingsManage   Permission = "settings.manage"
)

// rolePermissions is the process-wide permission table. A permission missing
// from the table is denied for every role.
var rolePermissions = map[Permission][]Role{
	PermissionBlogCreate:       {RoleAdmin, RoleEditor},
	PermissionBlogEdit:         {RoleAdmin, RoleEditor},
	PermissionBlogDelete:       {RoleAdmin},
	PermissionCategoriesManage: {RoleAdmin, RoleEditor},
	PermissionProductsManage:   {RoleAdmin},
	PermissionUsersView:        {RoleAdmin},
	PermissionUsersRoles:       {RoleAdmin},
	PermissionAnalyticsView:    {RoleAdmin, RoleEditor},
	PermissionSettingsManage:   {RoleAdmin},
}

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleUser:
		return true
	}
	return false
}

// HasPermission reports whether role may exercise permission. Empty or
// unknown arguments deny.
func HasPermission(role Role, permission Permission) bool {
	if role == "" || permission == "" {
		return false
	}

	allowed, ok := rolePermissions[permission]
	if !ok {
		return false
	}

	for _, r := range allowed {
		if r == role {
			return true
		}
	}

	return false
}

type NavItem struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

var (
	adminNavigation = []NavItem{
		{ID: "dashboard", Label: "Dashboard", Icon: "home"},
		{ID: "blog", Label: "Blog Posts", Icon: "file-text"},
		{ID: "categories", Label: "Categories", Icon: "folder"},
		{ID: "products", Label: "Products", Icon: "package"},
		{ID: "users", Label: "Users", Icon: "users"},
		{ID: "analytics", Label: "Analytics", Icon: "bar-chart"},
		{ID: "settings", Label: "Settings", Icon: "settings"},
	}

	editorNavigation = []NavItem{
		{ID: "dashboard", Label: "Dashboard", Icon: "home"},
		{ID: "blog", Label: "Blog Posts", Icon: "file-text"},
		{ID: "categories", Label: "Categories", Icon: "folder"},
		{ID: "analytics", Label: "Analytics", Icon: "bar-chart"},
	}

	userNavigation = []NavItem{
		{ID: "dashboard", Label: "Dashboard", Icon: "home"},
		{ID: "profile", Label: "Profile", Icon: "user"},
	}
)

// NavigationItems returns the menu for a role. Unrecognized roles fall back
// to the user menu.
func NavigationItems(role Role) []NavItem {
	switch role {
	case RoleAdmin:
		return adminNavigation
	case RoleEditor:
		return editorNavigation
	default:
		return userNavigation
	}
}
