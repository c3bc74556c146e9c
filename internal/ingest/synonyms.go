package ingest

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/loanledger/internal/core"
)

// FieldCandidates lists header synonyms for one field in priority order.
type FieldCandidates struct {
	Field      core.Field `yaml:"field" json:"field"`
	Candidates []string   `yaml:"candidates" json:"candidates"`
}

// Synonyms is the ordered synonym table used by the column mapper.
type Synonyms []FieldCandidates

// DefaultSynonyms returns the built-in synonym table.
func DefaultSynonyms() Synonyms {
	return Synonyms{
		{Field: core.FieldID, Candidates: []string{"ID Solicitud", "Folio", "Solicitud"}},
		{Field: core.FieldClient, Candidates: []string{"Nombre", "Cliente", "Solicitante"}},
		{Field: core.FieldAmount, Candidates: []string{"Monto a financiar", "Monto", "Importe"}},
		{Field: core.FieldStatus, Candidates: []string{"Estado", "Estatus"}},
		{Field: core.FieldAdvisor, Candidates: []string{"Operador coloca", "Asesor", "Vendedor"}},
		{Field: core.FieldLot, Candidates: []string{"Lote", "Agencia"}},
		{Field: core.FieldCreatedAt, Candidates: []string{"Fecha de creación", "Fecha inicio", "Fecha"}},
		{Field: core.FieldClosedAt, Candidates: []string{"Último cambio de estado", "Fecha fin"}},
		{Field: core.FieldNotes, Candidates: []string{"Notas", "Comentarios"}},
	}
}

// requiredFields must resolve for an ingestion to succeed.
var requiredFields = []core.Field{core.FieldAmount, core.FieldStatus}

// Candidates returns the synonyms for f, or nil.
func (s Synonyms) Candidates(f core.Field) []string {
	for _, fc := range s {
		if fc.Field == f {
			return fc.Candidates
		}
	}
	return nil
}

// Validate checks that every entry names a mappable field, fields are not
// repeated, and the required fields have candidates.
func (s Synonyms) Validate() error {
	var errs []error
	seen := make(map[core.Field]bool, len(s))
	for i, fc := range s {
		switch {
		case !fc.Field.Known() || fc.Field == core.FieldDaysOpen:
			errs = append(errs, fmt.Errorf("entry %d: unknown field %q", i, fc.Field))
		case seen[fc.Field]:
			errs = append(errs, fmt.Errorf("entry %d: duplicate field %q", i, fc.Field))
		}
		seen[fc.Field] = true
		if len(fc.Candidates) == 0 {
			errs = append(errs, fmt.Errorf("entry %d: field %q has no candidates", i, fc.Field))
		}
	}
	for _, f := range requiredFields {
		if !seen[f] {
			errs = append(errs, fmt.Errorf("required field %q missing", f))
		}
	}
	return errors.Join(errs...)
}

// LoadSynonyms reads a YAML synonym table:
//
//	- field: amount
//	  candidates: ["Monto a financiar", "Monto", "Importe"]
func LoadSynonyms(path string) (Synonyms, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read synonyms: %w", err)
	}
	return ParseSynonyms(data)
}

// ParseSynonyms decodes and validates a YAML synonym table.
func ParseSynonyms(data []byte) (Synonyms, error) {
	var s Synonyms
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse synonyms: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid synonyms: %w", err)
	}
	return s, nil
}
