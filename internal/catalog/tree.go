package catalog

import (
	"github.com/google/uuid"

	"github.com/ovenbird/bakery-backend/pkg/db/models"
)

// CategoryNode is one node of the materialized category forest.
type CategoryNode struct {
	Category models.Category `json:"category"`
	Children []*CategoryNode `json:"children"`
}

// BuildTree materializes the flat category set into a forest grouped by
// parent id. A category whose parent id references a missing row is treated
// as a root rather than an error.
func BuildTree(categories []models.Category) []*CategoryNode {
	byID := make(map[uuid.UUID]*CategoryNode, len(categories))
	for _, category := range categories {
		byID[category.ID] = &CategoryNode{Category: category}
	}

	roots := make([]*CategoryNode, 0, len(categories))
	for _, category := range categories {
		node := byID[category.ID]
		if category.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		parent, ok := byID[*category.ParentID]
		if !ok || *category.ParentID == category.ID {
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}
	return roots
}

// DescendantIDs collects every descendant of the given category, unbounded in
// depth. A visited set guards the walk so malformed parent chains cannot loop.
func DescendantIDs(categories []models.Category, id uuid.UUID) map[uuid.UUID]struct{} {
	childrenOf := make(map[uuid.UUID][]uuid.UUID, len(categories))
	for _, category := range categories {
		if category.ParentID == nil {
			continue
		}
		childrenOf[*category.ParentID] = append(childrenOf[*category.ParentID], category.ID)
	}

	descendants := make(map[uuid.UUID]struct{})
	visited := map[uuid.UUID]struct{}{id: {}}
	queue := append([]uuid.UUID(nil), childrenOf[id]...)
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if _, seen := visited[next]; seen {
			continue
		}
		visited[next] = struct{}{}
		descendants[next] = struct{}{}
		queue = append(queue, childrenOf[next]...)
	}
	return descendants
}

// AncestorChain returns the path from the given category up to its root,
// starting at the category itself. The walk stops on a missing parent or on
// a repeated id, so bad data cannot loop.
func AncestorChain(categories []models.Category, id uuid.UUID) []models.Category {
	byID := make(map[uuid.UUID]models.Category, len(categories))
	for _, category := range categories {
		byID[category.ID] = category
	}

	chain := make([]models.Category, 0, 4)
	visited := make(map[uuid.UUID]struct{})
	current := id
	for {
		if _, seen := visited[current]; seen {
			break
		}
		category, ok := byID[current]
		if !ok {
			break
		}
		visited[current] = struct{}{}
		chain = append(chain, category)
		if category.ParentID == nil {
			break
		}
		current = *category.ParentID
	}
	return chain
}

// WouldCreateCycle reports whether re-parenting the category under the
// proposed parent would make the category its own ancestor. Fails closed: a
// nil parent never cycles.
func WouldCreateCycle(categories []models.Category, id uuid.UUID, proposedParent *uuid.UUID) bool {
	if proposedParent == nil {
		return false
	}
	if *proposedParent == id {
		return true
	}
	_, isDescendant := DescendantIDs(categories, id)[*proposedParent]
	return isDescendant
}
