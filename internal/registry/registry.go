// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

// Package registry answers who is who in the entrepreneur, coach and
// direction hierarchy.
package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tomtom215/rpoengine/internal/models"
)

// ErrInvalidUser is returned by Upsert for rows that cannot be stored.
var ErrInvalidUser = errors.New("invalid registry user")

// Resolver resolves roles and hierarchy links.
type Resolver interface {
	// RoleOf returns the role of username. Unknown users are entrepreneurs.
	RoleOf(ctx context.Context, username string) (models.Role, error)

	// CoachOf returns the coach of an active entrepreneur.
	CoachOf(ctx context.Context, username string) (string, bool, error)

	// ActiveCoaches returns active coach usernames in ascending order.
	ActiveCoaches(ctx context.Context) ([]string, error)

	// EntrepreneursOf returns the active entrepreneurs assigned to coach,
	// ordered by username.
	EntrepreneursOf(ctx context.Context, coach string) ([]models.User, error)

	// ActiveEntrepreneurs returns all active entrepreneur usernames in
	// ascending order.
	ActiveEntrepreneurs(ctx context.Context) ([]string, error)
}

// normalizeRole maps a stored role string onto a known role. Empty and
// unrecognised values are entrepreneurs.
func normalizeRole(s string) models.Role {
	switch r := models.Role(strings.ToLower(strings.TrimSpace(s))); r {
	case models.RoleCoach, models.RoleDirection, models.RoleSupport, models.RoleBeta, models.RoleEntrepreneur:
		return r
	default:
		return models.RoleEntrepreneur
	}
}

func validateUser(u models.User) error {
	if strings.TrimSpace(u.Username) == "" {
		return fmt.Errorf("%w: empty username", ErrInvalidUser)
	}
	return nil
}
