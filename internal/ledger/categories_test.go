package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jortega/stocksync/internal/api"
)

func electronicsLedger(t *testing.T) (*Ledger, *fakeRemote) {
	t.Helper()
	led, remote, _ := newTestLedger(t, Policy{})
	loc := remote.seedLocation("Warehouse A")
	remote.seedItem("SKU-001", "Widget", "Electronics", loc.ID, 5, 2)
	remote.seedItem("SKU-002", "Cable", "Electronics", loc.ID, 3, 1)
	remote.seedItem("SKU-003", "Hammer", "Tools", loc.ID, 2, 1)
	require.NoError(t, led.LoadAll(context.Background()))
	return led, remote
}

func TestCategoriesDerivedFromItems(t *testing.T) {
	led, _ := electronicsLedger(t)
	assert.Equal(t, []string{"Electronics", "Tools"}, led.Categories())
}

func TestAddCategory(t *testing.T) {
	led, _ := electronicsLedger(t)

	require.NoError(t, led.AddCategory("Spares"))
	assert.Contains(t, led.Categories(), "Spares")

	err := led.AddCategory("Electronics")
	require.Error(t, err)
	assert.True(t, api.IsConflict(err))

	err = led.AddCategory("  ")
	require.Error(t, err)
}

func TestRenameCategoryPropagates(t *testing.T) {
	led, remote := electronicsLedger(t)
	ctx := context.Background()

	require.NoError(t, led.RenameCategory(ctx, "Electronics", "Electronics & Gadgets"))

	for _, it := range led.Items() {
		assert.NotEqual(t, "Electronics", it.Category)
	}
	renamed := 0
	for _, it := range led.Items() {
		if it.Category == "Electronics & Gadgets" {
			renamed++
		}
	}
	assert.Equal(t, 2, renamed)

	cats := led.Categories()
	assert.NotContains(t, cats, "Electronics")
	assert.Contains(t, cats, "Electronics & Gadgets")
	assert.Equal(t, 1, remote.renameCalls)
}

func TestRenameCategoryGuards(t *testing.T) {
	led, remote := electronicsLedger(t)
	ctx := context.Background()

	err := led.RenameCategory(ctx, "Nope", "Anything")
	require.Error(t, err)
	assert.True(t, api.IsNotFound(err))

	err = led.RenameCategory(ctx, "Electronics", "Tools")
	require.Error(t, err)
	assert.True(t, api.IsConflict(err))

	assert.Zero(t, remote.renameCalls)
	assert.Equal(t, []string{"Electronics", "Tools"}, led.Categories())
}

func TestDeleteCategoryGuard(t *testing.T) {
	led, remote := electronicsLedger(t)
	ctx := context.Background()

	err := led.DeleteCategory(ctx, "Electronics")
	require.Error(t, err)
	assert.True(t, api.IsConflict(err))
	assert.Zero(t, remote.deleteCatCalls)
	assert.Equal(t, []string{"Electronics", "Tools"}, led.Categories())
}

func TestDeleteEmptyCategory(t *testing.T) {
	led, remote := electronicsLedger(t)
	ctx := context.Background()

	require.NoError(t, led.AddCategory("Spares"))
	require.NoError(t, led.DeleteCategory(ctx, "Spares"))
	assert.NotContains(t, led.Categories(), "Spares")
	assert.Equal(t, 1, remote.deleteCatCalls)

	err := led.DeleteCategory(ctx, "Spares")
	require.Error(t, err)
	assert.True(t, api.IsNotFound(err))
}
