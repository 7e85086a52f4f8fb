package bootstrap

import (
	"github.com/frahmantamala/school-admin/internal/core/rbac"
	"github.com/frahmantamala/school-admin/internal/page"
	"github.com/frahmantamala/school-admin/internal/permission"
)

var DefaultCategories = []permission.CategoryDefinition{
	{Name: "people", DisplayName: "People", Description: "Students, teachers and parents", SortOrder: 1},
	{Name: "academics", DisplayName: "Academics", Description: "Classes, subjects, exams and results", SortOrder: 2},
	{Name: "operations", DisplayName: "Operations", Description: "Attendance, fees and timetable", SortOrder: 3},
	{Name: "administration", DisplayName: "Administration", Description: "Accounts and access control", SortOrder: 4},
}

var DefaultPermissions = []permission.PermissionDefinition{
	{Name: "students:read", DisplayName: "View students", Category: "people"},
	{Name: "students:write", DisplayName: "Manage students", Category: "people"},
	{Name: "teachers:read", DisplayName: "View teachers", Category: "people"},
	{Name: "teachers:write", DisplayName: "Manage teachers", Category: "people"},
	{Name: "parents:read", DisplayName: "View parents", Category: "people"},
	{Name: "parents:write", DisplayName: "Manage parents", Category: "people"},
	{Name: "classes:read", DisplayName: "View classes", Category: "academics"},
	{Name: "classes:write", DisplayName: "Manage classes", Category: "academics"},
	{Name: "subjects:read", DisplayName: "View subjects", Category: "academics"},
	{Name: "subjects:write", DisplayName: "Manage subjects", Category: "academics"},
	{Name: "exams:read", DisplayName: "View exams", Category: "academics"},
	{Name: "exams:write", DisplayName: "Manage exams", Category: "academics"},
	{Name: "results:read", DisplayName: "View results", Category: "academics"},
	{Name: "results:write", DisplayName: "Record results", Category: "academics"},
	{Name: "attendance:read", DisplayName: "View attendance", Category: "operations"},
	{Name: "attendance:write", DisplayName: "Record attendance", Category: "operations"},
	{Name: "fees:read", DisplayName: "View fees", Category: "operations"},
	{Name: "fees:write", DisplayName: "Manage fees", Category: "operations"},
	{Name: "timetable:read", DisplayName: "View timetable", Category: "operations"},
	{Name: "timetable:write", DisplayName: "Manage timetable", Category: "operations"},
	{Name: rbac.UsersRead, DisplayName: "View users", Category: "administration"},
	{Name: rbac.UsersWrite, DisplayName: "Manage users", Category: "administration"},
	{Name: "roles:read", DisplayName: "View roles", Category: "administration"},
	{Name: rbac.PermissionManage, DisplayName: "Manage user permission overrides", Category: "administration"},
}

var DefaultPages = []page.PageDefinition{
	{Name: "dashboard", DisplayName: "Dashboard", SortOrder: 1},
	{Name: "students", DisplayName: "Students", SortOrder: 2},
	{Name: "teachers", DisplayName: "Teachers", SortOrder: 3},
	{Name: "parents", DisplayName: "Parents", SortOrder: 4},
	{Name: "classes", DisplayName: "Classes", SortOrder: 5},
	{Name: "subjects", DisplayName: "Subjects", SortOrder: 6},
	{Name: "exams", DisplayName: "Exams", SortOrder: 7},
	{Name: "results", DisplayName: "Results", SortOrder: 8},
	{Name: "attendance", DisplayName: "Attendance", SortOrder: 9},
	{Name: "fees", DisplayName: "Fees", SortOrder: 10},
	{Name: "timetable", DisplayName: "Timetable", SortOrder: 11},
	{Name: "users", DisplayName: "Users", SortOrder: 12},
	{Name: "roles", DisplayName: "Roles", SortOrder: 13},
	{Name: "settings", DisplayName: "Settings", SortOrder: 14},
}

// DefaultRolePermissions are granted to a system role the first time it is
// seeded. Admin is absent: it receives every permission.
var DefaultRolePermissions = map[string][]string{
	rbac.RoleSecretary: {
		"students:read", "students:write",
		"teachers:read",
		"parents:read", "parents:write",
		"classes:read",
		"fees:read", "fees:write",
		"timetable:read",
		rbac.UsersRead, rbac.UsersWrite,
		"roles:read",
	},
	rbac.RoleTeacher: {
		"students:read",
		"classes:read",
		"subjects:read",
		"exams:read", "exams:write",
		"results:read", "results:write",
		"attendance:read", "attendance:write",
		"timetable:read",
	},
	rbac.RoleStudent: {
		"classes:read",
		"subjects:read",
		"results:read",
		"timetable:read",
	},
}

var DefaultRolePages = map[string][]string{
	rbac.RoleSecretary: {"dashboard", "students", "teachers", "parents", "classes", "fees", "timetable", "users"},
	rbac.RoleTeacher:   {"dashboard", "students", "classes", "subjects", "exams", "results", "attendance", "timetable"},
	rbac.RoleStudent:   {"dashboard", "classes", "results", "timetable"},
}
