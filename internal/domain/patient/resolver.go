package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/lis/lis/internal/platform/his"
)

var (
	// ErrInvalidSnapshot means the upstream patient data is missing a
	// field the local record cannot exist without.
	ErrInvalidSnapshot = errors.New("patient: invalid patient snapshot")
	// ErrInvalidDateOfBirth means the date of birth was present but
	// undecodable. Unlike optional dates this aborts resolution.
	ErrInvalidDateOfBirth = errors.New("patient: invalid date of birth")
)

// Resolver maps an upstream patient snapshot onto a local patient row,
// reusing the existing row for a known patient code and creating one
// otherwise.
type Resolver struct {
	repo PatientRepository
	log  zerolog.Logger
}

func NewResolver(repo PatientRepository, log zerolog.Logger) *Resolver {
	return &Resolver{repo: repo, log: log}
}

// Resolve returns the local patient for the snapshot. A snapshot already
// carrying a local patient id, or a known patient code, short-circuits to the
// existing row; otherwise the snapshot must be complete enough to create one.
// The date of birth must decode; the national-ID issue date is dropped with a
// log line when it does not, since identity documents carry free-form dates
// the upstream never validates.
func (r *Resolver) Resolve(ctx context.Context, snap his.PatientSnapshot) (*Patient, error) {
	if snap.LisPatientID != "" {
		if id, err := uuid.Parse(snap.LisPatientID); err == nil {
			existing, err := r.repo.GetByID(ctx, id)
			if err == nil {
				return existing, nil
			}
			if !errors.Is(err, pgx.ErrNoRows) {
				return nil, err
			}
		}
	}

	if snap.PatientCode != "" {
		existing, err := r.repo.GetByCode(ctx, snap.PatientCode)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
	}

	if snap.PatientCode == "" {
		return nil, fmt.Errorf("%w: patientCode is required", ErrInvalidSnapshot)
	}
	if snap.Name == "" {
		return nil, fmt.Errorf("%w: patientName is required", ErrInvalidSnapshot)
	}
	if snap.DateOfBirth == nil {
		return nil, fmt.Errorf("%w: dob is required", ErrInvalidSnapshot)
	}

	dob, err := his.DecodeTimestamp(snap.DateOfBirth)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDateOfBirth, err)
	}

	p := &Patient{
		PatientCode: snap.PatientCode,
		Name:        snap.Name,
		DateOfBirth: dob,
		GenderID:    snap.GenderID,
	}
	if snap.NationalID != "" {
		p.NationalID = &snap.NationalID
	}
	if snap.NationalIDIssueDate != nil {
		if issued, err := his.DecodeTimestamp(snap.NationalIDIssueDate); err == nil {
			p.NationalIDIssueDate = &issued
		} else {
			r.log.Debug().Str("patient_code", snap.PatientCode).Err(err).
				Msg("dropping undecodable national id issue date")
		}
	}
	if snap.NationalIDIssuePlace != "" {
		p.NationalIDIssuePlace = &snap.NationalIDIssuePlace
	}
	if snap.Address != "" {
		p.Address = &snap.Address
	}
	gender := snap.GenderName
	if gender == "" {
		gender = "Unknown"
	}
	p.GenderName = &gender
	if snap.ExternalID != "" {
		p.ExternalID = &snap.ExternalID
	}

	if err := r.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("creating patient %s: %w", snap.PatientCode, err)
	}
	r.log.Info().Str("patient_code", p.PatientCode).Msg("patient created from upstream snapshot")
	return p, nil
}
