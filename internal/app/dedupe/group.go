// Package dedupe collapses stored records that share an identity key into a
// single survivor, re-homing their supervision links first.
package dedupe

import (
	"github.com/yigit/supervision/internal/app/models"
	"github.com/yigit/supervision/internal/pkg/fingerprint"
	"github.com/yigit/supervision/internal/pkg/textnorm"
)

// Groups partitions items by key, remembering the order keys were first seen
type Groups[K comparable, T any] struct {
	order   []K
	members map[K][]T
}

// GroupBy partitions items by keyFn. Both key order and member order follow the input.
func GroupBy[K comparable, T any](items []T, keyFn func(T) K) *Groups[K, T] {
	g := &Groups[K, T]{members: make(map[K][]T)}
	for _, item := range items {
		k := keyFn(item)
		if _, seen := g.members[k]; !seen {
			g.order = append(g.order, k)
		}
		g.members[k] = append(g.members[k], item)
	}
	return g
}

// Keys returns keys in first-seen order
func (g *Groups[K, T]) Keys() []K {
	return g.order
}

// Members returns the items grouped under k
func (g *Groups[K, T]) Members(k K) []T {
	return g.members[k]
}

// Duplicated returns, in first-seen order, every group with more than one member
func (g *Groups[K, T]) Duplicated() [][]T {
	var out [][]T
	for _, k := range g.order {
		if members := g.members[k]; len(members) > 1 {
			out = append(out, members)
		}
	}
	return out
}

// Len is the number of distinct keys
func (g *Groups[K, T]) Len() int {
	return len(g.order)
}

// SubjectKey is the normalized identity of a subject
func SubjectKey(s *models.Subject) models.SubjectKey {
	return models.SubjectKey{
		Name:             textnorm.Text(s.Name),
		TitleFingerprint: fingerprint.Title(textnorm.Text(s.Title)),
		Degree:           s.Degree,
		Kind:             s.Kind,
	}
}

// SupervisorKey is the normalized identity of a supervisor
func SupervisorKey(s *models.Supervisor) string {
	return textnorm.Text(s.Name)
}

// Departmental is a record that may belong to a department
type Departmental interface {
	HasDepartment() bool
}

// SelectSurvivor returns the first member with a department, or the first
// member when none has one. group must be ordered by ascending id.
func SelectSurvivor[T Departmental](group []T) T {
	for _, member := range group {
		if member.HasDepartment() {
			return member
		}
	}
	return group[0]
}
