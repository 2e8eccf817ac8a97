package config

import "github.com/LovationAdmin/bizpanel/models"

// Menu placements used by the front end.
const (
	PlacementNavigate = "Navigate"
	PlacementSettings = "Settings"
)

var (
	admin     = models.PermAdmin
	project   = models.PermProject
	personal  = models.PermPersonal
	financial = models.PermFinancial
)

func perms(p ...models.Permission) []models.Permission { return p }
func places(p ...string) []string                     { return p }

// PagesConfig is the page table of the application. Order matters: menus
// list pages in this order.
var PagesConfig = []models.PageDescriptor{
	{Title: "Login", Route: "/login", Component: "LoginPage"},
	{Title: "Reset password", Route: "/reset-password/:token", Component: "ResetPasswordPage"},

	{Title: "Home", Route: "/", RequiresLogin: true, Placements: places(PlacementNavigate), Component: "HomePage"},

	// Projects
	{Title: "Projects", Route: "/projects", RequiresLogin: true, RequiredPermissions: perms(project), Placements: places(PlacementNavigate), Component: "ProjectList"},
	{Title: "Project", Route: "/projects/:id", RequiresLogin: true, RequiredPermissions: perms(project), Component: "ProjectForm"},
	{Title: "Budgets", Route: "/budgets", RequiresLogin: true, RequiredPermissions: perms(project, financial), Placements: places(PlacementNavigate), Component: "BudgetList"},
	{Title: "Budget", Route: "/budgets/:id", RequiresLogin: true, RequiredPermissions: perms(project, financial), Component: "ProjectBudgetForm"},
	{Title: "Tasks", Route: "/tasks", RequiresLogin: true, RequiredPermissions: perms(project), Placements: places(PlacementNavigate), Component: "TaskList"},
	{Title: "Task", Route: "/tasks/:id", RequiresLogin: true, RequiredPermissions: perms(project), Component: "TaskForm"},

	// Partners
	{Title: "Clients", Route: "/clients", RequiresLogin: true, RequiredPermissions: perms(project), Placements: places(PlacementNavigate), Component: "ClientList"},
	{Title: "Client", Route: "/clients/:id", RequiresLogin: true, RequiredPermissions: perms(project), Component: "ClientForm"},
	{Title: "Suppliers", Route: "/suppliers", RequiresLogin: true, RequiredPermissions: perms(financial), Placements: places(PlacementNavigate), Component: "SupplierList"},
	{Title: "Supplier", Route: "/suppliers/:id", RequiresLogin: true, RequiredPermissions: perms(financial), Component: "SupplierForm"},

	// Finance
	{Title: "Transactions", Route: "/transactions", RequiresLogin: true, RequiredPermissions: perms(financial), Placements: places(PlacementNavigate), Component: "TransactionList"},
	{Title: "Transaction", Route: "/transactions/:id", RequiresLogin: true, RequiredPermissions: perms(financial), Component: "TransactionForm"},

	// Settings
	{Title: "Profile", Route: "/settings/profile", RequiresLogin: true, RequiredPermissions: perms(personal), Placements: places(PlacementSettings), Component: "ProfileForm"},
	{Title: "Users", Route: "/settings/users", RequiresLogin: true, RequiredPermissions: perms(admin), Placements: places(PlacementSettings, PlacementNavigate), Component: "UserList"},
	{Title: "User", Route: "/settings/users/:id", RequiresLogin: true, RequiredPermissions: perms(admin), Component: "UserForm"},
	{Title: "Company", Route: "/settings/company", RequiresLogin: true, RequiredPermissions: perms(admin, financial), Placements: places(PlacementSettings), Component: "CompanyForm"},
}
