package catalog

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovenbird/bakery-backend/pkg/db/models"
)

func category(name string, parent *uuid.UUID) models.Category {
	return models.Category{
		ID:       uuid.New(),
		Name:     name,
		Slug:     name,
		ParentID: parent,
	}
}

func TestBuildTreeGroupsChildrenUnderParents(t *testing.T) {
	t.Parallel()

	root := category("breads", nil)
	child := category("sourdough", &root.ID)
	grandchild := category("rye", &child.ID)
	other := category("cakes", nil)

	forest := BuildTree([]models.Category{grandchild, other, root, child})

	require.Len(t, forest, 2)
	byName := map[string]*CategoryNode{}
	for _, node := range forest {
		byName[node.Category.Name] = node
	}
	require.Contains(t, byName, "breads")
	require.Contains(t, byName, "cakes")

	breads := byName["breads"]
	require.Len(t, breads.Children, 1)
	assert.Equal(t, "sourdough", breads.Children[0].Category.Name)
	require.Len(t, breads.Children[0].Children, 1)
	assert.Equal(t, "rye", breads.Children[0].Children[0].Category.Name)
}

func TestBuildTreeOrphanedParentBecomesRoot(t *testing.T) {
	t.Parallel()

	missing := uuid.New()
	orphan := category("orphan", &missing)

	forest := BuildTree([]models.Category{orphan})

	require.Len(t, forest, 1)
	assert.Equal(t, "orphan", forest[0].Category.Name)
}

func TestDescendantIDsCollectsWholeSubtree(t *testing.T) {
	t.Parallel()

	root := category("root", nil)
	mid := category("mid", &root.ID)
	leaf := category("leaf", &mid.ID)
	sibling := category("sibling", &root.ID)
	unrelated := category("unrelated", nil)
	all := []models.Category{root, mid, leaf, sibling, unrelated}

	descendants := DescendantIDs(all, root.ID)

	assert.Len(t, descendants, 3)
	assert.Contains(t, descendants, mid.ID)
	assert.Contains(t, descendants, leaf.ID)
	assert.Contains(t, descendants, sibling.ID)
	assert.NotContains(t, descendants, root.ID)
	assert.NotContains(t, descendants, unrelated.ID)
}

func TestDescendantIDsTerminatesOnCycle(t *testing.T) {
	t.Parallel()

	a := category("a", nil)
	b := category("b", &a.ID)
	a.ParentID = &b.ID

	descendants := DescendantIDs([]models.Category{a, b}, a.ID)

	assert.Contains(t, descendants, b.ID)
	assert.NotContains(t, descendants, a.ID)
}

func TestAncestorChainWalksToRoot(t *testing.T) {
	t.Parallel()

	root := category("root", nil)
	mid := category("mid", &root.ID)
	leaf := category("leaf", &mid.ID)
	all := []models.Category{root, mid, leaf}

	chain := AncestorChain(all, leaf.ID)

	require.Len(t, chain, 3)
	assert.Equal(t, leaf.ID, chain[0].ID)
	assert.Equal(t, mid.ID, chain[1].ID)
	assert.Equal(t, root.ID, chain[2].ID)
}

func TestAncestorChainTerminatesOnCycle(t *testing.T) {
	t.Parallel()

	a := category("a", nil)
	b := category("b", &a.ID)
	a.ParentID = &b.ID

	chain := AncestorChain([]models.Category{a, b}, b.ID)

	require.Len(t, chain, 2)
	assert.Equal(t, b.ID, chain[0].ID)
	assert.Equal(t, a.ID, chain[1].ID)
}

func TestWouldCreateCycle(t *testing.T) {
	t.Parallel()

	root := category("root", nil)
	mid := category("mid", &root.ID)
	leaf := category("leaf", &mid.ID)
	other := category("other", nil)
	all := []models.Category{root, mid, leaf, other}

	assert.True(t, WouldCreateCycle(all, root.ID, &leaf.ID), "descendant as parent")
	assert.True(t, WouldCreateCycle(all, root.ID, &root.ID), "self as parent")
	assert.False(t, WouldCreateCycle(all, root.ID, &other.ID), "unrelated parent")
	assert.False(t, WouldCreateCycle(all, leaf.ID, nil), "detach to root")
}
