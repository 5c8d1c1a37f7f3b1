package rbac

// Default staff policy. A class teacher is a teacher who also owns a
// stream's roster and report output; the headteacher sees every cohort
// and manages grading configuration. Expand per deployment.
var RolePermissions = map[string][]string{
	"teacher": {
		"marks:enter",
		"subjects:view",
		"scales:view",
		"results:view-class",
		"user:change_password",
	},
	"classteacher": {
		"marks:enter",
		"subjects:view",
		"scales:view",
		"results:view-class",
		"results:view-student",
		"students:list",
		"user:change_password",
	},
	"headteacher": {
		"marks:enter",
		"subjects:*",
		"scales:*",
		"results:*",
		"students:*",
		"users:list",
		"audit:view",
		"user:change_password",
	},
	"admin": {
		"*", // everything
	},
}
