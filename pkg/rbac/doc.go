// Package rbac holds the membership role table.
//
// Roles are fixed constants, declared in display order:
//
//	admin   - admin, membership
//	editor  - read, delete_dataset, create_dataset, update_dataset, manage_group
//	member  - read, manage_group
//
// A role holding the "admin" permission satisfies every permission check:
//
//	rbac.Satisfies("admin", "create_dataset")  // true
//	rbac.Satisfies("member", "create_dataset") // false
//	rbac.RolesGranting("create_dataset")       // [admin editor]
//
// RolesGranting follows declaration order, which callers use to build role menus.
package rbac
