package core_test

import (
	"context"
	"errors"
	"testing"

	"retail-erp/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrderStore struct {
	headerErr   error
	itemsErr    error
	headers     []core.SalesOrder
	itemBatches [][]core.SalesItem
}

func (f *fakeOrderStore) InsertOrder(_ context.Context, o core.SalesOrder) (core.ID, error) {
	if f.headerErr != nil {
		return "", f.headerErr
	}
	f.headers = append(f.headers, o)
	return "42", nil
}

func (f *fakeOrderStore) InsertItems(_ context.Context, items []core.SalesItem) error {
	f.itemBatches = append(f.itemBatches, items)
	return f.itemsErr
}

func (f *fakeOrderStore) RecentOrders(context.Context, int) ([]core.SalesOrder, error) {
	return nil, nil
}

func (f *fakeOrderStore) GetOrder(context.Context, core.ID) (*core.SalesOrder, error) {
	return nil, core.ErrNotFound
}

func (f *fakeOrderStore) ListItems(context.Context, core.ID) ([]core.SalesItem, error) {
	return nil, nil
}

func (f *fakeOrderStore) UpdateOrder(context.Context, core.ID, core.OrderUpdate) error {
	return nil
}

func samplePayload(t *testing.T) *core.OrderPayload {
	t.Helper()
	p, err := core.CleanOrder(validHeader(), []core.LineItem{
		{CategoryID: "2", ProductName: "Tee", Qty: "2", UnitPrice: "5.50"},
		{CategoryID: "3", ProductName: "Cap", Qty: "1", UnitPrice: "4"},
	})
	require.NoError(t, err)
	return p
}

func TestOrderWriter_Committed(t *testing.T) {
	store := &fakeOrderStore{}

	res, err := core.NewOrderWriter(store).Submit(context.Background(), samplePayload(t))
	require.NoError(t, err)

	assert.Equal(t, core.PhaseCommitted, res.Phase)
	assert.Equal(t, core.ID("42"), res.OrderID)
	assert.Equal(t, 2, res.Items)
	require.Len(t, store.itemBatches, 1)
	for _, it := range store.itemBatches[0] {
		assert.Equal(t, core.ID("42"), it.OrderID)
	}
}

func TestOrderWriter_HeaderFailureSkipsItems(t *testing.T) {
	store := &fakeOrderStore{headerErr: &core.RemoteError{Status: 403, Message: "permission denied for table sales_orders"}}

	res, err := core.NewOrderWriter(store).Submit(context.Background(), samplePayload(t))

	require.Error(t, err)
	assert.Equal(t, core.PhaseNone, res.Phase)
	assert.Empty(t, store.itemBatches, "items must not be attempted")
	assert.ErrorIs(t, err, core.ErrRemote)
	assert.False(t, errors.Is(err, core.ErrPartialCommit))
	assert.Equal(t, "permission denied for table sales_orders", core.Message(err))
}

func TestOrderWriter_ItemsFailureIsPartialCommit(t *testing.T) {
	store := &fakeOrderStore{itemsErr: &core.RemoteError{Status: 400, Message: "null value in column \"qty\""}}

	res, err := core.NewOrderWriter(store).Submit(context.Background(), samplePayload(t))

	assert.Equal(t, core.PhaseHeaderWritten, res.Phase)
	assert.Equal(t, core.ID("42"), res.OrderID)
	assert.ErrorIs(t, err, core.ErrPartialCommit)
	assert.ErrorIs(t, err, core.ErrRemote)

	var pe *core.PartialCommitError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, core.ID("42"), pe.OrderID)
	assert.Equal(t, `Order saved but items failed: null value in column "qty"`, core.Message(err))
}
