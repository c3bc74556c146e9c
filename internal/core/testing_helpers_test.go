package core

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) pgtype.Date {
	return pgtype.Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Valid: true}
}

func sampleLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := NewLedger([]Record{
		{ID: "A1", Client: "Juan Perez", Amount: 10000, Status: StatusAutorizado, Advisor: "Ana", Lot: "Norte", CreatedAt: day(2024, 1, 1), DaysOpen: 20},
		{ID: "A2", Client: "María López", Amount: 5000, Status: StatusEntregada, Advisor: "Luis", Lot: "Sur", CreatedAt: day(2024, 1, 10), ClosedAt: day(2024, 1, 14), DaysOpen: 4},
		{ID: "A3", Client: "Pedro Gomez", Amount: 2500, Status: StatusVisita, Advisor: "Ana", Lot: "Sur", DaysOpen: 0},
		{ID: "B1", Client: DefaultClient, Amount: 0, Status: StatusSolicitud, Advisor: DefaultAdvisor, Lot: DefaultLot, CreatedAt: day(2024, 2, 1), DaysOpen: 6},
	})
	require.NoError(t, err)
	return l
}
