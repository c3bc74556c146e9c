package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestLiveTable_AutorizadoToEntregada(t *testing.T) {
	table := NewLiveTable(sampleLedger(t), FilterSpec{}, nil)
	before := table.KPIs()

	changes, err := table.UpdateCell(UpdateCellRequest{RowKey: "A1", Column: "status", Value: "Entregada"})
	require.NoError(t, err)
	assert.Equal(t, []Change{{Field: FieldStatus, Old: "Autorizado", New: "Entregada"}}, changes)

	after := table.KPIs()
	assert.Equal(t, before.FundedAmount+10000, after.FundedAmount)
	assert.Equal(t, before.Count, after.Count)
	assert.Equal(t, before.TotalAmount, after.TotalAmount)

	rec, _ := table.Ledger().Get("A1")
	assert.Equal(t, StatusEntregada, rec.Status)
}

func TestLiveTable_RowCountFixed(t *testing.T) {
	l := sampleLedger(t)
	table := NewLiveTable(l, FilterSpec{}, nil)
	n := l.Len()

	reqs := []UpdateCellRequest{
		{RowKey: "A1", Column: "amount", Value: "12,000"},
		{RowKey: "A2", Column: "client", Value: ""},
		{RowKey: "A3", Column: "status", Value: "cancelada"},
		{RowKey: "A3", Column: "notes", Value: "sin respuesta"},
		{RowKey: "B1", Column: "id", Value: "B9"},
		{RowKey: "B1", Column: "daysOpen", Value: "3"},
		{RowKey: "nope", Column: "notes", Value: ""},
		{RowKey: "A1", Column: "amount", Value: "-10"},
	}
	for _, req := range reqs {
		_, _ = table.UpdateCell(req)
		assert.Equal(t, n, table.Ledger().Len())
	}

	a2, _ := l.Get("A2")
	assert.Equal(t, DefaultClient, a2.Client)
	a3, _ := l.Get("A3")
	assert.Equal(t, StatusCancelado, a3.Status)
	_, ok := l.Get("B9")
	assert.False(t, ok)
}

func TestLiveTable_EditByIDUnderFilter(t *testing.T) {
	l := sampleLedger(t)
	table := NewLiveTable(l, FilterSpec{Lots: []string{"Sur"}}, nil)
	require.Equal(t, []string{"A2", "A3"}, ids(table.View()))

	_, err := table.Commit("A3", Patch{Amount: ptr(4000.0)})
	require.NoError(t, err)

	a3, _ := l.Get("A3")
	assert.Equal(t, 4000.0, a3.Amount)
	a2, _ := l.Get("A2")
	assert.Equal(t, 5000.0, a2.Amount)
	assert.Equal(t, 9000.0, table.KPIs().TotalAmount)
}

func TestLiveTable_HiddenRecordRejected(t *testing.T) {
	table := NewLiveTable(sampleLedger(t), FilterSpec{Lots: []string{"Sur"}}, nil)

	_, err := table.Commit("A1", Patch{Notes: ptr("x")})
	assert.ErrorIs(t, err, ErrRecordHidden)

	_, err = table.Commit("missing", Patch{Notes: ptr("x")})
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestLiveTable_CommitIsAtomic(t *testing.T) {
	l := sampleLedger(t)
	table := NewLiveTable(l, FilterSpec{}, nil)
	before, _ := l.Get("A1")

	_, err := table.Commit("A1", Patch{
		Client: ptr("Otro"),
		Amount: ptr(-1.0),
	})
	assert.ErrorIs(t, err, ErrNegativeAmount)

	after, _ := l.Get("A1")
	assert.Equal(t, before, after)
	assert.Equal(t, 0, table.History().Len())
}

func TestLiveTable_MultiFieldCommit(t *testing.T) {
	table := NewLiveTable(sampleLedger(t), FilterSpec{}, nil)
	table.now = func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }

	changes, err := table.Commit("A3", Patch{
		Client: ptr("Pedro G."),
		Amount: ptr(2500.0),
		Status: ptr(StatusContrato),
	})
	require.NoError(t, err)
	assert.Equal(t, []Change{
		{Field: FieldClient, Old: "Pedro Gomez", New: "Pedro G."},
		{Field: FieldStatus, Old: "Visita", New: "Contrato"},
	}, changes, "unchanged amount is not reported")

	entries := table.History().Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, FieldStatus, entries[0].Field)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), entries[0].At)
	assert.NotEqual(t, entries[0].ID, entries[1].ID)
}

func TestLiveTable_EditedRowLeavesQueryView(t *testing.T) {
	table := NewLiveTable(sampleLedger(t), FilterSpec{Query: "pedro"}, nil)
	require.Len(t, table.View(), 1)

	_, err := table.UpdateCell(UpdateCellRequest{RowKey: "A3", Column: "client", Value: "Rosa Diaz"})
	require.NoError(t, err)

	assert.Empty(t, table.View())
	assert.Equal(t, 0, table.KPIs().Count)
	assert.Equal(t, 4, table.Ledger().Len())
}

func TestLiveTable_Idempotent(t *testing.T) {
	table := NewLiveTable(sampleLedger(t), FilterSpec{Advisors: []string{"Ana"}}, nil)
	v1, k1 := table.View(), table.KPIs()

	table.SetFilter(FilterSpec{Advisors: []string{"Ana"}})
	assert.Equal(t, v1, table.View())
	assert.Equal(t, k1, table.KPIs())
}

func TestLiveTable_StatusAnyToAny(t *testing.T) {
	table := NewLiveTable(sampleLedger(t), FilterSpec{}, nil)

	for _, st := range []string{"Entregada", "Solicitud", "Rechazada", "Capturada"} {
		_, err := table.UpdateCell(UpdateCellRequest{RowKey: "A2", Column: "status", Value: st})
		require.NoError(t, err, st)
	}
	a2, _ := table.Ledger().Get("A2")
	assert.Equal(t, StatusCapturada, a2.Status)
}
