package encounter

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/emrflow/emrflow/internal/domain/patient"
)

// -- Mock concept repository --

type mockConceptRepo struct {
	concepts map[string]*Concept
	calls    int
}

func newMockConceptRepo(names ...string) *mockConceptRepo {
	m := &mockConceptRepo{concepts: make(map[string]*Concept)}
	for _, n := range names {
		m.concepts[strings.ToLower(n)] = &Concept{ID: uuid.New(), Name: n}
	}
	return m
}

func (m *mockConceptRepo) GetByName(_ context.Context, name string) (*Concept, error) {
	m.calls++
	return m.concepts[strings.ToLower(name)], nil
}

func testPatient() *patient.Patient {
	return &patient.Patient{ID: uuid.New(), Identifier: "PAT-1001"}
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestBuild_TranslatesObservationsAndDiagnoses(t *testing.T) {
	repo := newMockConceptRepo("Weight", "Pulmonary TB")
	builder := NewBuilder(NewConceptCache(repo), "OPD")
	p := testPatient()

	transactions, err := builder.Build(context.Background(), []RowEncounter{{
		EncounterDate: day("2024-02-10"),
		VisitType:     "IPD",
		Observations:  []ObservationRow{{Concept: "Weight", Value: "72"}},
		Diagnoses:     []string{"Pulmonary TB"},
	}}, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(transactions) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(transactions))
	}
	tx := transactions[0]
	if tx.PatientID != p.ID {
		t.Error("expected transaction bound to matched patient")
	}
	if tx.VisitType != "IPD" {
		t.Errorf("expected visit type IPD, got %s", tx.VisitType)
	}
	if len(tx.Observations) != 1 || tx.Observations[0].Value != "72" {
		t.Errorf("unexpected observations: %+v", tx.Observations)
	}
	if len(tx.Diagnoses) != 1 || tx.Diagnoses[0].ConceptName != "Pulmonary TB" {
		t.Errorf("unexpected diagnoses: %+v", tx.Diagnoses)
	}
}

func TestBuild_DefaultsVisitType(t *testing.T) {
	repo := newMockConceptRepo("Weight")
	builder := NewBuilder(NewConceptCache(repo), "OPD")

	transactions, err := builder.Build(context.Background(), []RowEncounter{{
		EncounterDate: day("2024-02-10"),
		Observations:  []ObservationRow{{Concept: "Weight", Value: "72"}},
	}}, testPatient())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if transactions[0].VisitType != "OPD" {
		t.Errorf("expected default visit type OPD, got %s", transactions[0].VisitType)
	}
}

func TestBuild_EmptyPayloadYieldsZeroTransactions(t *testing.T) {
	builder := NewBuilder(NewConceptCache(newMockConceptRepo()), "OPD")

	transactions, err := builder.Build(context.Background(), []RowEncounter{
		{EncounterDate: day("2024-02-10")},
	}, testPatient())
	if err != nil {
		t.Fatalf("expected no error for empty payload, got %v", err)
	}
	if len(transactions) != 0 {
		t.Errorf("expected zero transactions, got %d", len(transactions))
	}
}

func TestBuild_MultipleEncountersKeepRowOrder(t *testing.T) {
	repo := newMockConceptRepo("Weight")
	builder := NewBuilder(NewConceptCache(repo), "OPD")

	transactions, err := builder.Build(context.Background(), []RowEncounter{
		{EncounterDate: day("2024-01-01"), Observations: []ObservationRow{{Concept: "Weight", Value: "70"}}},
		{EncounterDate: day("2024-02-01")},
		{EncounterDate: day("2024-03-01"), Observations: []ObservationRow{{Concept: "Weight", Value: "71"}}},
	}, testPatient())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(transactions))
	}
	if !transactions[0].EncounterDate.Equal(day("2024-01-01")) ||
		!transactions[1].EncounterDate.Equal(day("2024-03-01")) {
		t.Error("expected transactions in row order")
	}
}

func TestBuild_UnknownConceptFailsBuild(t *testing.T) {
	repo := newMockConceptRepo("Weight")
	builder := NewBuilder(NewConceptCache(repo), "OPD")

	_, err := builder.Build(context.Background(), []RowEncounter{{
		EncounterDate: day("2024-02-10"),
		Observations:  []ObservationRow{{Concept: "Midichlorian Count", Value: "9000"}},
	}}, testPatient())

	var unknownErr *UnknownConceptError
	if !errors.As(err, &unknownErr) {
		t.Fatalf("expected UnknownConceptError, got %v", err)
	}
	if !strings.Contains(err.Error(), "Midichlorian Count") {
		t.Errorf("expected message to name the concept, got %q", err.Error())
	}
}

func TestConceptCache_MemoizesLookups(t *testing.T) {
	repo := newMockConceptRepo("Weight")
	cache := NewConceptCache(repo)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := cache.Get(ctx, "weight"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if repo.calls != 1 {
		t.Errorf("expected 1 repository call, got %d", repo.calls)
	}
}

func TestConceptCache_DoesNotCacheMisses(t *testing.T) {
	repo := newMockConceptRepo()
	cache := NewConceptCache(repo)
	ctx := context.Background()

	if _, err := cache.Get(ctx, "Weight"); err == nil {
		t.Fatal("expected unknown concept error")
	}

	// The dictionary gets fixed mid-job; the next lookup must see it.
	repo.concepts["weight"] = &Concept{ID: uuid.New(), Name: "Weight"}
	if _, err := cache.Get(ctx, "Weight"); err != nil {
		t.Fatalf("expected fixed concept to resolve, got %v", err)
	}
}
