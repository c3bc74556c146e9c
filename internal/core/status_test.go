package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		input string
		want  Status
		ok    bool
	}{
		{"Solicitud", StatusSolicitud, true},
		{"MESA DE CONTROL", StatusMesaDeControl, true},
		{"MesaDeControl", StatusMesaDeControl, true},
		{"mesa_de_control", StatusMesaDeControl, true},
		{"Revision analisis", StatusRevisionAnalisis, true},
		{"RevisionAnalisis", StatusRevisionAnalisis, true},
		{"análisis", StatusAnalisis, true},
		{"En Análisis", StatusAnalisis, true},
		{" visita ", StatusVisita, true},
		{"Autorizada", StatusAutorizado, true},
		{"entregado", StatusEntregada, true},
		{"Rechazado", StatusRechazada, true},
		{"cancelada", StatusCancelado, true},
		{"", "", false},
		{"Listo", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseStatus(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatusOrderAndTerminal(t *testing.T) {
	all := Statuses()
	require.Len(t, all, 11)
	assert.Equal(t, StatusSolicitud, all[0])
	assert.Equal(t, StatusCancelado, all[10])

	rank, ok := StatusEntregada.Rank()
	assert.True(t, ok)
	assert.Equal(t, 8, rank)

	terminal := 0
	for _, s := range all {
		assert.True(t, s.Valid())
		if s.Terminal() {
			terminal++
		}
	}
	assert.Equal(t, 3, terminal)
	assert.False(t, Status("Listo").Valid())
}

func TestStatusJSON(t *testing.T) {
	var s Status
	require.NoError(t, json.Unmarshal([]byte(`"entregado"`), &s))
	assert.Equal(t, StatusEntregada, s)

	err := json.Unmarshal([]byte(`"Listo"`), &s)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	b, err := json.Marshal(StatusMesaDeControl)
	require.NoError(t, err)
	assert.Equal(t, `"Mesa de control"`, string(b))
}
