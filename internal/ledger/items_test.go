package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jortega/stocksync/internal/api"
	"github.com/jortega/stocksync/internal/cache"
	"github.com/jortega/stocksync/internal/domain"
)

func loadedLedger(t *testing.T, policy Policy) (*Ledger, *fakeRemote, *cache.Store, domain.Item) {
	t.Helper()
	led, remote, mirror := newTestLedger(t, policy)
	loc := remote.seedLocation("Warehouse A")
	it := remote.seedItem("SKU-001", "Widget", "Electronics", loc.ID, 5, 2)
	require.NoError(t, led.LoadAll(context.Background()))
	return led, remote, mirror, it
}

func TestAdjustStockInbound(t *testing.T) {
	led, remote, mirror, seeded := loadedLedger(t, Policy{})
	ctx := context.Background()

	res, err := led.AdjustStock(ctx, "SKU-001", 3, domain.TransactionInbound, "")
	require.NoError(t, err)
	assert.Equal(t, AdjustApplied, res)

	it, ok := led.ItemBySKU("SKU-001")
	require.True(t, ok)
	assert.Equal(t, 8, it.Quantity)
	assert.Equal(t, 8, remote.itemByID(seeded.ID).Quantity)

	trs := led.TransactionsForItem(seeded.ID)
	require.Len(t, trs, 1)
	assert.Equal(t, domain.TransactionInbound, trs[0].Type)
	assert.Equal(t, 3, trs[0].QuantityChange)

	// The durable mirror matches memory after the mutation settles.
	cachedItems, err := mirror.ReadItems(ctx)
	require.NoError(t, err)
	require.Len(t, cachedItems, 1)
	assert.Equal(t, 8, cachedItems[0].Quantity)

	cachedTxns, err := mirror.ReadTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, cachedTxns, 1)
}

func TestAdjustStockUnknownSKU(t *testing.T) {
	led, remote, _, _ := loadedLedger(t, Policy{})

	res, err := led.AdjustStock(context.Background(), "SKU-404", -2, domain.TransactionOutbound, "")
	require.NoError(t, err)
	assert.Equal(t, AdjustNotFound, res)

	// Zero remote writes on a miss.
	assert.Zero(t, remote.updateItemCalls)
	assert.Zero(t, remote.createTxnCalls)
	assert.Empty(t, led.Transactions())
}

func TestAdjustStockRemoteFailureLeavesStateUnchanged(t *testing.T) {
	led, remote, mirror, seeded := loadedLedger(t, Policy{})
	ctx := context.Background()

	remote.updateItemHook = func(int) error {
		return &api.Error{Kind: api.KindUnavailable, Message: "down"}
	}

	res, err := led.AdjustStock(ctx, "SKU-001", 3, domain.TransactionInbound, "")
	require.Error(t, err)
	assert.Equal(t, AdjustFailed, res)

	it, _ := led.ItemBySKU("SKU-001")
	assert.Equal(t, 5, it.Quantity)
	assert.Empty(t, led.TransactionsForItem(seeded.ID))
	assert.Zero(t, remote.createTxnCalls)

	cached, err := mirror.ReadItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, cached[0].Quantity)
}

func TestAdjustStockTransactionFailureReverts(t *testing.T) {
	led, remote, _, seeded := loadedLedger(t, Policy{})

	remote.createTxnHook = func(int) error {
		return &api.Error{Kind: api.KindUnavailable, Message: "down"}
	}

	res, err := led.AdjustStock(context.Background(), "SKU-001", 3, domain.TransactionInbound, "")
	require.Error(t, err)
	assert.Equal(t, AdjustFailed, res)
	assert.ErrorContains(t, err, "rolled back")

	// The compensating update restored the remote quantity.
	assert.Equal(t, 2, remote.updateItemCalls)
	assert.Equal(t, 5, remote.itemByID(seeded.ID).Quantity)

	it, _ := led.ItemBySKU("SKU-001")
	assert.Equal(t, 5, it.Quantity)
	assert.Empty(t, led.Transactions())
}

func TestAdjustStockRevertFailureSurfacesInconsistency(t *testing.T) {
	led, remote, _, _ := loadedLedger(t, Policy{})

	remote.createTxnHook = func(int) error {
		return &api.Error{Kind: api.KindUnavailable, Message: "down"}
	}
	remote.updateItemHook = func(call int) error {
		if call == 2 { // the compensating revert
			return &api.Error{Kind: api.KindUnavailable, Message: "still down"}
		}
		return nil
	}

	res, err := led.AdjustStock(context.Background(), "SKU-001", 3, domain.TransactionInbound, "")
	require.Error(t, err)
	assert.Equal(t, AdjustFailed, res)
	assert.ErrorContains(t, err, "inconsistent")

	// Local state still shows the pre-mutation snapshot.
	it, _ := led.ItemBySKU("SKU-001")
	assert.Equal(t, 5, it.Quantity)
}

func TestAdjustStockNegativeAllowedByDefault(t *testing.T) {
	led, _, _, _ := loadedLedger(t, Policy{})

	res, err := led.AdjustStock(context.Background(), "SKU-001", -8, domain.TransactionOutbound, "")
	require.NoError(t, err)
	assert.Equal(t, AdjustApplied, res)

	it, _ := led.ItemBySKU("SKU-001")
	assert.Equal(t, -3, it.Quantity)
}

func TestAdjustStockClampPolicy(t *testing.T) {
	led, _, _, seeded := loadedLedger(t, Policy{ClampNegativeStock: true})
	ctx := context.Background()

	res, err := led.AdjustStock(ctx, "SKU-001", -8, domain.TransactionOutbound, "")
	require.NoError(t, err)
	assert.Equal(t, AdjustApplied, res)

	it, _ := led.ItemBySKU("SKU-001")
	assert.Equal(t, 0, it.Quantity)

	// The audit record carries the effective change, keeping the sum
	// invariant intact.
	trs := led.TransactionsForItem(seeded.ID)
	require.Len(t, trs, 1)
	assert.Equal(t, -5, trs[0].QuantityChange)

	// A further outbound from zero is a no-op and is rejected outright.
	res, err = led.AdjustStock(ctx, "SKU-001", -1, domain.TransactionOutbound, "")
	require.NoError(t, err)
	assert.Equal(t, AdjustRejected, res)
	assert.Len(t, led.TransactionsForItem(seeded.ID), 1)
}

func TestAdjustStockQuantityMatchesTransactionSum(t *testing.T) {
	led, _, _, seeded := loadedLedger(t, Policy{})
	ctx := context.Background()

	changes := []struct {
		change int
		typ    domain.TransactionType
	}{
		{3, domain.TransactionInbound},
		{-2, domain.TransactionOutbound},
		{7, domain.TransactionInbound},
		{-4, domain.TransactionAdjustment},
	}
	sum := 0
	for _, c := range changes {
		res, err := led.AdjustStock(ctx, "SKU-001", c.change, c.typ, "")
		require.NoError(t, err)
		require.Equal(t, AdjustApplied, res)
		sum += c.change
	}

	it, _ := led.ItemBySKU("SKU-001")
	assert.Equal(t, seeded.Quantity+sum, it.Quantity)

	gotSum := 0
	for _, tr := range led.TransactionsForItem(seeded.ID) {
		gotSum += tr.QuantityChange
	}
	assert.Equal(t, it.Quantity-seeded.Quantity, gotSum)
}

func TestConcurrentAdjustmentsSerializePerItem(t *testing.T) {
	led, remote, _, seeded := loadedLedger(t, Policy{})
	remote.updateItemDelay = 10 * time.Millisecond

	var wg sync.WaitGroup
	for _, change := range []int{3, 4} {
		wg.Add(1)
		go func(change int) {
			defer wg.Done()
			res, err := led.AdjustStock(context.Background(), "SKU-001", change, domain.TransactionInbound, "")
			assert.NoError(t, err)
			assert.Equal(t, AdjustApplied, res)
		}(change)
	}
	wg.Wait()

	// Without per-item serialization one of the two read-modify-writes would
	// be lost.
	it, _ := led.ItemBySKU("SKU-001")
	assert.Equal(t, 12, it.Quantity)
	assert.Equal(t, 12, remote.itemByID(seeded.ID).Quantity)
	assert.Len(t, led.TransactionsForItem(seeded.ID), 2)
}

func TestCreateItemValidation(t *testing.T) {
	led, remote, _ := newTestLedger(t, Policy{})

	_, err := led.CreateItem(context.Background(), domain.ItemInput{Name: "No SKU", Category: "Tools", LocationID: "loc-1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, remote.items)
}

func TestCreateItemDuplicateSKU(t *testing.T) {
	led, _, _, _ := loadedLedger(t, Policy{})

	_, err := led.CreateItem(context.Background(), domain.ItemInput{
		SKU: "SKU-001", Name: "Clone", Category: "Tools", LocationID: "loc-1",
	})
	require.Error(t, err)
	assert.True(t, api.IsConflict(err))
	assert.Len(t, led.Items(), 1)
}

func TestCreateItemCommitsCanonicalRecord(t *testing.T) {
	led, _, mirror, _ := loadedLedger(t, Policy{})
	ctx := context.Background()

	item, err := led.CreateItem(ctx, domain.ItemInput{
		SKU: "SKU-002", Name: "Cable", Category: "Electronics", LocationID: "loc-1", Quantity: 9, MinStock: 1,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, item.ID)
	assert.False(t, item.CreatedAt.IsZero())

	got, ok := led.ItemBySKU("SKU-002")
	require.True(t, ok)
	assert.Equal(t, item.ID, got.ID)

	cached, err := mirror.ReadItems(ctx)
	require.NoError(t, err)
	assert.Len(t, cached, 2)
}

func TestUpdateItemRejectsDuplicateSKU(t *testing.T) {
	led, remote, _, _ := loadedLedger(t, Policy{})
	ctx := context.Background()
	other := remote.seedItem("SKU-002", "Cable", "Electronics", "loc-1", 1, 0)
	require.NoError(t, led.LoadAll(ctx))

	_, err := led.UpdateItem(ctx, other.ID, domain.ItemInput{
		SKU: "SKU-001", Name: "Cable", Category: "Electronics", LocationID: "loc-1",
	})
	require.Error(t, err)
	assert.True(t, api.IsConflict(err))
}

func TestDeleteItemRemovesTransactions(t *testing.T) {
	led, _, mirror, seeded := loadedLedger(t, Policy{})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := led.AdjustStock(ctx, "SKU-001", 1, domain.TransactionInbound, "")
		require.NoError(t, err)
		require.Equal(t, AdjustApplied, res)
	}
	require.Len(t, led.TransactionsForItem(seeded.ID), 3)

	require.NoError(t, led.DeleteItem(ctx, seeded.ID))

	assert.Empty(t, led.Items())
	assert.Empty(t, led.TransactionsForItem(seeded.ID))
	assert.Empty(t, led.Transactions())

	cachedItems, err := mirror.ReadItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, cachedItems)
	cachedTxns, err := mirror.ReadTransactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, cachedTxns)
}

func TestDeleteItemPurgePolicyReachesRemote(t *testing.T) {
	led, remote, _, seeded := loadedLedger(t, Policy{PurgeTransactionsOnDelete: true})

	require.NoError(t, led.DeleteItem(context.Background(), seeded.ID))
	assert.True(t, remote.lastPurgeFlag)

	led2, remote2, _, seeded2 := loadedLedger(t, Policy{})
	require.NoError(t, led2.DeleteItem(context.Background(), seeded2.ID))
	assert.False(t, remote2.lastPurgeFlag)
}

func TestDeleteItemRemoteFailureLeavesState(t *testing.T) {
	led, remote, _, seeded := loadedLedger(t, Policy{})

	// Make the remote delete fail by removing the record server-side first.
	remote.mu.Lock()
	delete(remote.items, seeded.ID)
	remote.mu.Unlock()

	err := led.DeleteItem(context.Background(), seeded.ID)
	require.Error(t, err)
	assert.True(t, api.IsNotFound(err))
	assert.Len(t, led.Items(), 1)
}
