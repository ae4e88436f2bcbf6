// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

package models

// Role is a user's position in the hierarchy.
type Role string

// Roles known to the registry.
const (
	RoleEntrepreneur Role = "entrepreneur"
	RoleCoach        Role = "coach"
	RoleDirection    Role = "direction"
	RoleSupport      Role = "support"
	RoleBeta         Role = "beta"
)

// Aggregate reports whether documents of this role are sums of other documents.
func (r Role) Aggregate() bool {
	return r == RoleCoach || r == RoleDirection
}

// User is a registry row.
type User struct {
	Username      string `json:"username"`
	Role          Role   `json:"role"`
	IsActive      bool   `json:"is_active"`
	AssignedCoach string `json:"assigned_coach,omitempty"`
	Grade         string `json:"grade,omitempty"`
}
