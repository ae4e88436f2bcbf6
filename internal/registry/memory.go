// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

package registry

import (
	"context"
	"sort"
	"sync"

	"github.com/tomtom215/rpoengine/internal/models"
)

var _ Resolver = (*Memory)(nil)

// Memory is an in-process Resolver.
type Memory struct {
	mu    sync.RWMutex
	users map[string]models.User
}

// NewMemory creates a Memory resolver holding users.
func NewMemory(users ...models.User) *Memory {
	m := &Memory{users: make(map[string]models.User, len(users))}
	_ = m.Upsert(context.Background(), users...)
	return m
}

// Upsert inserts or replaces users.
func (m *Memory) Upsert(_ context.Context, users ...models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range users {
		if err := validateUser(u); err != nil {
			return err
		}
		u.Role = normalizeRole(string(u.Role))
		m.users[u.Username] = u
	}
	return nil
}

// RoleOf implements Resolver.
func (m *Memory) RoleOf(_ context.Context, username string) (models.Role, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.users[username]; ok {
		return u.Role, nil
	}
	return models.RoleEntrepreneur, nil
}

// CoachOf implements Resolver.
func (m *Memory) CoachOf(_ context.Context, username string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[username]
	if !ok || !u.IsActive || u.Role != models.RoleEntrepreneur || u.AssignedCoach == "" {
		return "", false, nil
	}
	return u.AssignedCoach, true, nil
}

// ActiveCoaches implements Resolver.
func (m *Memory) ActiveCoaches(_ context.Context) ([]string, error) {
	return m.names(func(u models.User) bool { return u.Role == models.RoleCoach }), nil
}

// ActiveEntrepreneurs implements Resolver.
func (m *Memory) ActiveEntrepreneurs(_ context.Context) ([]string, error) {
	return m.names(func(u models.User) bool { return u.Role == models.RoleEntrepreneur }), nil
}

// EntrepreneursOf implements Resolver.
func (m *Memory) EntrepreneursOf(_ context.Context, coach string) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.User
	for _, u := range m.users {
		if u.IsActive && u.Role == models.RoleEntrepreneur && u.AssignedCoach == coach {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (m *Memory) names(match func(models.User) bool) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for _, u := range m.users {
		if u.IsActive && match(u) {
			out = append(out, u.Username)
		}
	}
	sort.Strings(out)
	return out
}
