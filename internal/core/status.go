package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Status is the processing stage of a loan application.
// The zero value is not a valid status; use ParseStatus or the constants.
type Status string

const (
	StatusSolicitud        Status = "Solicitud"
	StatusCapturada        Status = "Capturada"
	StatusMesaDeControl    Status = "Mesa de control"
	StatusRevisionAnalisis Status = "Revisión análisis"
	StatusAnalisis         Status = "Análisis"
	StatusVisita           Status = "Visita"
	StatusAutorizado       Status = "Autorizado"
	StatusContrato         Status = "Contrato"
	StatusEntregada        Status = "Entregada"
	StatusRechazada        Status = "Rechazada"
	StatusCancelado        Status = "Cancelado"
)

// statusOrder is the canonical display and progress order.
var statusOrder = []Status{
	StatusSolicitud,
	StatusCapturada,
	StatusMesaDeControl,
	StatusRevisionAnalisis,
	StatusAnalisis,
	StatusVisita,
	StatusAutorizado,
	StatusContrato,
	StatusEntregada,
	StatusRechazada,
	StatusCancelado,
}

// statusAliases maps folded spellings to canonical statuses.
// Populated from statusOrder plus the gendered variants seen in exports.
var statusAliases = func() map[string]Status {
	m := make(map[string]Status, len(statusOrder)+8)
	for _, s := range statusOrder {
		m[foldStatus(string(s))] = s
	}
	m["autorizada"] = StatusAutorizado
	m["entregado"] = StatusEntregada
	m["rechazado"] = StatusRechazada
	m["cancelada"] = StatusCancelado
	m["capturado"] = StatusCapturada
	m["enanalisis"] = StatusAnalisis
	return m
}()

// Statuses returns the canonical status set in order.
func Statuses() []Status {
	out := make([]Status, len(statusOrder))
	copy(out, statusOrder)
	return out
}

// ParseStatus resolves free text to a canonical status.
// Matching ignores case, accents, whitespace and punctuation, so
// "MESA DE CONTROL", "MesaDeControl" and "mesa_de_control" all resolve.
func ParseStatus(s string) (Status, bool) {
	st, ok := statusAliases[foldStatus(s)]
	return st, ok
}

// Valid reports whether s is a member of the canonical set.
func (s Status) Valid() bool {
	_, ok := s.Rank()
	return ok
}

// Rank returns the position of s in the canonical order.
func (s Status) Rank() (int, bool) {
	for i, st := range statusOrder {
		if st == s {
			return i, true
		}
	}
	return -1, false
}

// Terminal reports whether s is a completed outcome for reporting purposes.
// Transitions out of a terminal status are not prevented.
func (s Status) Terminal() bool {
	switch s {
	case StatusEntregada, StatusRechazada, StatusCancelado:
		return true
	}
	return false
}

func (s Status) String() string { return string(s) }

// UnmarshalJSON accepts any spelling ParseStatus understands.
func (s *Status) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	st, ok := ParseStatus(raw)
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	*s = st
	return nil
}

// foldStatus lowercases, strips diacritics and drops everything that is not
// a letter or digit.
func foldStatus(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
