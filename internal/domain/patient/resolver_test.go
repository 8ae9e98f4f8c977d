package patient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/lis/lis/internal/platform/his"
)

type mockPatientRepo struct {
	patients map[uuid.UUID]*Patient
	creates  int
}

func newMockPatientRepo() *mockPatientRepo {
	return &mockPatientRepo{patients: make(map[uuid.UUID]*Patient)}
}

func (m *mockPatientRepo) Create(_ context.Context, p *Patient) error {
	p.ID = uuid.New()
	m.creates++
	cp := *p
	m.patients[p.ID] = &cp
	return nil
}

func (m *mockPatientRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok || p.DeletedAt != nil {
		return nil, pgx.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (m *mockPatientRepo) GetByCode(_ context.Context, code string) (*Patient, error) {
	for _, p := range m.patients {
		if p.PatientCode == code && p.DeletedAt == nil {
			cp := *p
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockPatientRepo) Update(_ context.Context, p *Patient) error {
	cp := *p
	m.patients[p.ID] = &cp
	return nil
}

func (m *mockPatientRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.patients, id)
	return nil
}

func (m *mockPatientRepo) List(_ context.Context, _, _ int) ([]*Patient, int, error) {
	return nil, 0, nil
}

func validSnapshot() his.PatientSnapshot {
	return his.PatientSnapshot{
		PatientCode: "P-1",
		Name:        "Jane Doe",
		DateOfBirth: "19890104000000",
	}
}

func TestResolve_CreatesNewPatient(t *testing.T) {
	repo := newMockPatientRepo()
	r := NewResolver(repo, zerolog.Nop())

	p, err := r.Resolve(context.Background(), validSnapshot())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if p.PatientCode != "P-1" || p.Name != "Jane Doe" {
		t.Errorf("unexpected patient: %+v", p)
	}
	want := time.Date(1989, 1, 4, 0, 0, 0, 0, time.UTC)
	if !p.DateOfBirth.Equal(want) {
		t.Errorf("dateOfBirth = %v, want %v", p.DateOfBirth, want)
	}
}

func TestResolve_ReusesExistingByCode(t *testing.T) {
	repo := newMockPatientRepo()
	r := NewResolver(repo, zerolog.Nop())

	first, err := r.Resolve(context.Background(), validSnapshot())
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}

	snap := validSnapshot()
	snap.Name = "Jane D. Different"
	second, err := r.Resolve(context.Background(), snap)
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if second.ID != first.ID {
		t.Error("second resolve created a new patient for a known code")
	}
	if repo.creates != 1 {
		t.Errorf("creates = %d, want 1", repo.creates)
	}
}

func TestResolve_ReusesExistingByLocalID(t *testing.T) {
	repo := newMockPatientRepo()
	r := NewResolver(repo, zerolog.Nop())

	first, err := r.Resolve(context.Background(), validSnapshot())
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}

	snap := his.PatientSnapshot{LisPatientID: first.ID.String()}
	second, err := r.Resolve(context.Background(), snap)
	if err != nil {
		t.Fatalf("resolve by id: %v", err)
	}
	if second.ID != first.ID {
		t.Error("resolve by local id returned a different patient")
	}
	if repo.creates != 1 {
		t.Errorf("creates = %d, want 1", repo.creates)
	}
}

func TestResolve_KnownCodeSkipsValidation(t *testing.T) {
	repo := newMockPatientRepo()
	r := NewResolver(repo, zerolog.Nop())

	first, err := r.Resolve(context.Background(), validSnapshot())
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}

	// A later snapshot for the same code may omit everything else.
	second, err := r.Resolve(context.Background(), his.PatientSnapshot{PatientCode: "P-1"})
	if err != nil {
		t.Fatalf("resolve by code alone: %v", err)
	}
	if second.ID != first.ID {
		t.Error("code-only snapshot did not resolve to the existing patient")
	}
	if repo.creates != 1 {
		t.Errorf("creates = %d, want 1", repo.creates)
	}
}

func TestResolve_GenderDefaultsToUnknown(t *testing.T) {
	repo := newMockPatientRepo()
	r := NewResolver(repo, zerolog.Nop())

	p, err := r.Resolve(context.Background(), validSnapshot())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if p.GenderName == nil || *p.GenderName != "Unknown" {
		t.Errorf("genderName = %v, want Unknown", p.GenderName)
	}
}

func TestResolve_MissingRequiredFields(t *testing.T) {
	r := NewResolver(newMockPatientRepo(), zerolog.Nop())

	cases := []struct {
		name   string
		mutate func(*his.PatientSnapshot)
	}{
		{"no patient code", func(s *his.PatientSnapshot) { s.PatientCode = "" }},
		{"no name", func(s *his.PatientSnapshot) { s.Name = "" }},
		{"no dob", func(s *his.PatientSnapshot) { s.DateOfBirth = nil }},
	}
	for _, tc := range cases {
		snap := validSnapshot()
		tc.mutate(&snap)
		if _, err := r.Resolve(context.Background(), snap); !errors.Is(err, ErrInvalidSnapshot) {
			t.Errorf("%s: error = %v, want ErrInvalidSnapshot", tc.name, err)
		}
	}
}

func TestResolve_UndecodableDOBIsFatal(t *testing.T) {
	r := NewResolver(newMockPatientRepo(), zerolog.Nop())

	snap := validSnapshot()
	snap.DateOfBirth = "not-a-date"
	if _, err := r.Resolve(context.Background(), snap); !errors.Is(err, ErrInvalidDateOfBirth) {
		t.Errorf("error = %v, want ErrInvalidDateOfBirth", err)
	}
}

func TestResolve_UndecodableNationalIDDateDropped(t *testing.T) {
	repo := newMockPatientRepo()
	r := NewResolver(repo, zerolog.Nop())

	snap := validSnapshot()
	snap.NationalID = "123456789"
	snap.NationalIDIssueDate = "garbage"
	p, err := r.Resolve(context.Background(), snap)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if p.NationalID == nil || *p.NationalID != "123456789" {
		t.Errorf("nationalID = %v", p.NationalID)
	}
	if p.NationalIDIssueDate != nil {
		t.Error("undecodable national id issue date was stored")
	}
}

func TestResolve_NationalIDDateDecoded(t *testing.T) {
	repo := newMockPatientRepo()
	r := NewResolver(repo, zerolog.Nop())

	snap := validSnapshot()
	snap.NationalIDIssueDate = "2015-06-01"
	p, err := r.Resolve(context.Background(), snap)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := time.Date(2015, 6, 1, 0, 0, 0, 0, time.UTC)
	if p.NationalIDIssueDate == nil || !p.NationalIDIssueDate.Equal(want) {
		t.Errorf("issueDate = %v, want %v", p.NationalIDIssueDate, want)
	}
}
