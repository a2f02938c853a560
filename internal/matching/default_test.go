package matching

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/emrflow/emrflow/internal/domain/patient"
)

func candidate(attrs ...patient.Attribute) *patient.Patient {
	return &patient.Patient{ID: uuid.New(), Identifier: "PAT-1001", Attributes: attrs}
}

func attr(name, value string) patient.Attribute {
	return patient.Attribute{Name: name, Value: value}
}

func TestMatch_NoCandidates(t *testing.T) {
	s := NewDefaultStrategy()
	_, err := s.Match(nil, nil)
	if !errors.Is(err, ErrCannotMatch) {
		t.Fatalf("expected ErrCannotMatch, got %v", err)
	}
}

func TestMatch_SingleCandidateNoAttributes(t *testing.T) {
	s := NewDefaultStrategy()
	only := candidate()

	got, err := s.Match([]*patient.Patient{only}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != only {
		t.Error("expected the sole candidate to be accepted")
	}
}

func TestMatch_MultipleCandidatesNoAttributesIsAmbiguous(t *testing.T) {
	s := NewDefaultStrategy()
	_, err := s.Match([]*patient.Patient{candidate(), candidate()}, nil)
	if !errors.Is(err, ErrCannotMatch) {
		t.Fatalf("expected ErrCannotMatch, got %v", err)
	}
}

func TestMatch_SingleCandidateRejectedOnContradiction(t *testing.T) {
	// The single-candidate case still runs through scoring: a wrong
	// village name must reject the only candidate, not auto-accept it.
	s := NewDefaultStrategy()
	only := candidate(attr("village", "Ganiyari"))

	_, err := s.Match([]*patient.Patient{only}, []patient.Attribute{attr("village", "Bilaspur")})
	if !errors.Is(err, ErrCannotMatch) {
		t.Fatalf("expected ErrCannotMatch, got %v", err)
	}
}

func TestMatch_AttributesDisambiguate(t *testing.T) {
	s := NewDefaultStrategy()
	ganiyari := candidate(attr("village", "Ganiyari"), attr("caste", "gond"))
	bilaspur := candidate(attr("village", "Bilaspur"), attr("caste", "gond"))

	got, err := s.Match([]*patient.Patient{ganiyari, bilaspur},
		[]patient.Attribute{attr("village", "Ganiyari")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != ganiyari {
		t.Error("expected the Ganiyari candidate")
	}
}

func TestMatch_CaseInsensitiveComparison(t *testing.T) {
	s := NewDefaultStrategy()
	c := candidate(attr("Village", "GANIYARI"))

	got, err := s.Match([]*patient.Patient{c},
		[]patient.Attribute{attr("village", "ganiyari")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != c {
		t.Error("expected case-insensitive attribute match")
	}
}

func TestMatch_TieIsAmbiguous(t *testing.T) {
	s := NewDefaultStrategy()
	a := candidate(attr("village", "Ganiyari"))
	b := candidate(attr("village", "Ganiyari"))

	_, err := s.Match([]*patient.Patient{a, b},
		[]patient.Attribute{attr("village", "Ganiyari")})
	if !errors.Is(err, ErrCannotMatch) {
		t.Fatalf("expected ErrCannotMatch for tied candidates, got %v", err)
	}
}

func TestMatch_MissingAttributeIsNeutral(t *testing.T) {
	s := NewDefaultStrategy()
	withVillage := candidate(attr("village", "Ganiyari"))
	withoutVillage := candidate()

	got, err := s.Match([]*patient.Patient{withVillage, withoutVillage},
		[]patient.Attribute{attr("village", "Ganiyari")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != withVillage {
		t.Error("expected the candidate with the matching attribute to win")
	}
}

func TestMatch_Deterministic(t *testing.T) {
	s := NewDefaultStrategy()
	a := candidate(attr("village", "Ganiyari"), attr("caste", "gond"))
	b := candidate(attr("village", "Ganiyari"))
	attrs := []patient.Attribute{attr("village", "Ganiyari"), attr("caste", "gond")}

	first, err := s.Match([]*patient.Patient{a, b}, attrs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 10; i++ {
		got, err := s.Match([]*patient.Patient{a, b}, attrs)
		if err != nil || got != first {
			t.Fatalf("expected identical outcome on repeat run, got %v (%v)", got, err)
		}
	}
}
