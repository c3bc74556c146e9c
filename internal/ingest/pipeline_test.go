package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/loanledger/internal/core"
)

var evalTime = time.Date(2024, time.January, 21, 12, 0, 0, 0, time.UTC)

func TestBuild_HeaderAtRowTwo(t *testing.T) {
	grid := RawSheet{
		row("Reporte de solicitudes"),
		row(""),
		row("Folio", "Nombre", "Monto a financiar", "Estado", "Operador coloca"),
		row("A1", "Juan Perez", "$10,000", "Autorizado", "Ana"),
	}

	res, err := NewPipeline(DefaultOptions()).Build(context.Background(), grid, evalTime)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Report.HeaderRow)
	assert.False(t, res.Report.HeaderFallback)
	require.Equal(t, 1, res.Ledger.Len())

	got, ok := res.Ledger.Get("A1")
	require.True(t, ok)
	assert.Equal(t, core.Record{
		ID:       "A1",
		Client:   "Juan Perez",
		Amount:   10000,
		Status:   core.StatusAutorizado,
		Advisor:  "Ana",
		Lot:      core.DefaultLot,
		DaysOpen: 0,
		Notes:    "",
	}, got)
}

func TestBuild_MissingRequiredColumns(t *testing.T) {
	grid := RawSheet{
		row("Reporte de solicitudes"),
		row(""),
		row("Folio", "Nombre", "Operador coloca"),
		row("A1", "Juan", "Ana"),
	}

	res, err := NewPipeline(DefaultOptions()).Build(context.Background(), grid, evalTime)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, ErrMissingRequiredColumns))

	ie, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindMissingRequiredColumns, ie.Kind)
	assert.Equal(t, []core.Field{core.FieldAmount, core.FieldStatus}, ie.Missing)
}

func TestBuild_FallbackRow(t *testing.T) {
	// "Importe" and "Estatus" resolve columns but the header tokens
	// ("monto", "estado"/"estatus") are not both present.
	grid := RawSheet{
		row("Sucursal Norte"),
		row(""),
		row("Folio", "Importe", "Estatus"),
		row("B7", "500", "Visita"),
	}

	t.Run("fallback used", func(t *testing.T) {
		res, err := NewPipeline(DefaultOptions()).Build(context.Background(), grid, evalTime)
		require.NoError(t, err)
		assert.True(t, res.Report.HeaderFallback)
		assert.Equal(t, 2, res.Report.HeaderRow)

		rec, ok := res.Ledger.Get("B7")
		require.True(t, ok)
		assert.Equal(t, 500.0, rec.Amount)
		assert.Equal(t, core.StatusVisita, rec.Status)
	})

	t.Run("fallback disabled", func(t *testing.T) {
		opts := DefaultOptions()
		opts.FallbackHeaderRow = NoFallback
		_, err := NewPipeline(opts).Build(context.Background(), grid, evalTime)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrHeaderNotFound))
	})

	t.Run("fallback beyond grid", func(t *testing.T) {
		opts := DefaultOptions()
		opts.FallbackHeaderRow = 50
		_, err := NewPipeline(opts).Build(context.Background(), grid, evalTime)
		assert.True(t, errors.Is(err, ErrHeaderNotFound))
	})
}

func TestBuild_Normalization(t *testing.T) {
	grid := RawSheet{
		row("ID Solicitud", "Cliente", "Monto", "Estado", "Asesor", "Lote", "Fecha de creación", "Último cambio de estado", "Notas"),
		row("S1", "", "$1,500.50", "entregado", "", "Norte", "01/01/2024", "11/01/2024", "  revisar  "),
		row("S2", "Rosa", "(300)", "En análisis", "Ana", "", "", "", ""),
		row("S1", "Pedro", "abc", "desconocido", "Luis", "Sur", "15/01/2024", "", ""),
		row("", "", "", "", "", "", "", "", ""),
		row("", "Pie de página", "", "", "", "", "", "", ""),
		row("", "Sin folio", "200", "Visita", "Ana", "Sur", "", "", ""),
	}

	res, err := NewPipeline(DefaultOptions()).Build(context.Background(), grid, evalTime)
	require.NoError(t, err)

	records := res.Ledger.Records()
	require.Len(t, records, 4)

	s1 := records[0]
	assert.Equal(t, "S1", s1.ID)
	assert.Equal(t, core.DefaultClient, s1.Client)
	assert.InDelta(t, 1500.50, s1.Amount, 1e-9)
	assert.Equal(t, core.StatusEntregada, s1.Status)
	assert.Equal(t, core.DefaultAdvisor, s1.Advisor)
	assert.Equal(t, "Norte", s1.Lot)
	assert.Equal(t, 10, s1.DaysOpen)
	assert.Equal(t, "revisar", s1.Notes)

	s2 := records[1]
	assert.Equal(t, 0.0, s2.Amount, "negative amounts clamp to zero")
	assert.Equal(t, core.StatusAnalisis, s2.Status)
	assert.Equal(t, core.DefaultLot, s2.Lot)
	assert.Equal(t, pgtype.Date{}, s2.CreatedAt)
	assert.Equal(t, 0, s2.DaysOpen)

	dup := records[2]
	assert.Equal(t, "S1-2", dup.ID)
	assert.Equal(t, 0.0, dup.Amount)
	assert.Equal(t, core.StatusSolicitud, dup.Status)
	assert.Equal(t, 6, dup.DaysOpen)

	gen := records[3]
	assert.Equal(t, "ROW-7", gen.ID)
	assert.Equal(t, 200.0, gen.Amount)

	r := res.Report
	assert.Equal(t, 6, r.RowsRead)
	assert.Equal(t, 2, r.RowsSkipped)
	assert.Equal(t, 1, r.ClampedAmounts)
	assert.Equal(t, 1, r.InvalidAmounts)
	assert.Equal(t, 1, r.GeneratedIDs)
	assert.Equal(t, []string{"S1"}, r.DuplicateIDs)
	assert.Equal(t, map[string]int{"desconocido": 1}, r.UnknownStatuses)
}

func TestBuild_FreeTextKeepsQuotes(t *testing.T) {
	tests := []struct {
		name    string
		cells   []any
		client  string
		advisor string
		notes   string
	}{
		{
			name:    "nickname and quoted name in note",
			cells:   row("A1", "Juan 'El Güero'", "100", "Autorizado", "Ana", `Llamar a "Pedro"`),
			client:  "Juan 'El Güero'",
			advisor: "Ana",
			notes:   `Llamar a "Pedro"`,
		},
		{
			name:    "leading equals sign",
			cells:   row("A1", "Juan", "100", "Autorizado", "Ana", "=10% enganche"),
			client:  "Juan",
			advisor: "Ana",
			notes:   "=10% enganche",
		},
		{
			name:    "balanced formula wrapper",
			cells:   row(`="A1"`, `  "Rosa"  `, "100", "Autorizado", `="Ana"`, `  nota  `),
			client:  `"Rosa"`,
			advisor: "Ana",
			notes:   "nota",
		},
		{
			name:    "unbalanced formula wrapper",
			cells:   row("A1", "Juan", "100", "Autorizado", "Ana", `="x" y "z"`),
			client:  "Juan",
			advisor: "Ana",
			notes:   `="x" y "z"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid := RawSheet{
				row("Folio", "Nombre", "Monto", "Estado", "Asesor", "Notas"),
				tt.cells,
			}

			res, err := NewPipeline(DefaultOptions()).Build(context.Background(), grid, evalTime)
			require.NoError(t, err)

			got, ok := res.Ledger.Get("A1")
			require.True(t, ok)
			assert.Equal(t, tt.client, got.Client)
			assert.Equal(t, tt.advisor, got.Advisor)
			assert.Equal(t, tt.notes, got.Notes)
		})
	}
}

func TestBuild_Reentrant(t *testing.T) {
	grid := RawSheet{
		row("Folio", "Monto", "Estado", "Fecha"),
		row("A", "100", "Visita", "02/01/2024"),
		row("B", "200", "Contrato", "05/01/2024"),
	}
	p := NewPipeline(DefaultOptions())

	first, err := p.Build(context.Background(), grid, evalTime)
	require.NoError(t, err)
	second, err := p.Build(context.Background(), grid, evalTime)
	require.NoError(t, err)

	assert.Equal(t, first.Ledger.Records(), second.Ledger.Records())
	assert.Equal(t, first.Report, second.Report)
}

func TestBuild_Cancelled(t *testing.T) {
	grid := RawSheet{row("Folio", "Monto", "Estado")}
	for i := 0; i < 250; i++ {
		grid = append(grid, row("", "1", "Visita"))
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPipeline(DefaultOptions()).Build(ctx, grid, evalTime)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIngest_CSV(t *testing.T) {
	data := []byte("\xEF\xBB\xBFReporte,,,,\n" +
		",,,,\n" +
		"Folio,Nombre,Monto a financiar,Estado,Operador coloca\n" +
		"A1,Juan Perez,\"$10,000\",Autorizado,Ana\n")

	res, err := NewPipeline(DefaultOptions()).Ingest(context.Background(), Document{Name: "solicitudes.csv", Data: data}, evalTime)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Report.HeaderRow)
	assert.Equal(t, "solicitudes.csv", res.Report.FileName)
	assert.NotEmpty(t, res.Report.Fingerprint)

	rec, ok := res.Ledger.Get("A1")
	require.True(t, ok)
	assert.Equal(t, 10000.0, rec.Amount)
	assert.Equal(t, "Juan Perez", rec.Client)
}

func TestIngest_CSVSemicolonWindows1252(t *testing.T) {
	// "Jesús" and "Análisis" encoded as Windows-1252.
	data := []byte("Folio;Nombre;Monto;Estado\n" +
		"C9;Jes\xfas;1500;An\xe1lisis\n")

	res, err := NewPipeline(DefaultOptions()).Ingest(context.Background(), Document{Name: "latin1.csv", Data: data}, evalTime)
	require.NoError(t, err)

	rec, ok := res.Ledger.Get("C9")
	require.True(t, ok)
	assert.Equal(t, "Jesús", rec.Client)
	assert.Equal(t, core.StatusAnalisis, rec.Status)
	assert.Equal(t, 1500.0, rec.Amount)
}

func TestIngest_XLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	rows := [][]any{
		{"Solicitudes enero"},
		{"Folio", "Nombre", "Monto a financiar", "Estado", "Operador coloca", "Lote", "Fecha de creación"},
		{"X1", "Laura", 25000.5, "Entregada", "Ana", "Centro", time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)},
		{"X2", "Mario", "$3,000", "Capturada", "Luis", "Centro", "05/01/2024"},
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	res, err := NewPipeline(DefaultOptions()).Ingest(context.Background(), Document{Name: "enero.xlsx", Data: buf.Bytes()}, evalTime)
	require.NoError(t, err)
	require.Equal(t, 2, res.Ledger.Len())
	assert.Equal(t, 1, res.Report.HeaderRow)

	x1, _ := res.Ledger.Get("X1")
	assert.Equal(t, 25000.5, x1.Amount)
	assert.Equal(t, core.StatusEntregada, x1.Status)
	require.True(t, x1.CreatedAt.Valid)
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), x1.CreatedAt.Time)
	assert.Equal(t, 20, x1.DaysOpen)

	x2, _ := res.Ledger.Get("X2")
	assert.Equal(t, 3000.0, x2.Amount)
	assert.Equal(t, 16, x2.DaysOpen)
}

func TestIngest_ParseFailures(t *testing.T) {
	tests := []struct {
		name  string
		data  []byte
		cause error
	}{
		{"empty", nil, ErrEmptyFile},
		{"whitespace only", []byte("  \n \n"), ErrEmptyFile},
		{"legacy xls", []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, ErrUnsupportedFormat},
		{"corrupt xlsx", []byte("PK\x03\x04garbage"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPipeline(DefaultOptions()).Ingest(context.Background(), Document{Name: tt.name, Data: tt.data}, evalTime)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrParseFailure)
			if tt.cause != nil {
				assert.ErrorIs(t, err, tt.cause)
			}
		})
	}
}
