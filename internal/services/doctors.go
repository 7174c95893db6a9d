package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/harentsoaR/medconnect-api/internal/models"
)

func doctorKey(id string) string { return "doctor:" + id }

func (s *ClinicService) GetDoctor(ctx context.Context, id string) (*models.Doctor, error) {
	d, err := s.doctors.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr("doctor", id, err)
	}
	return d, nil
}

// ListDoctors returns the doctor directory in signup order.
func (s *ClinicService) ListDoctors(ctx context.Context, approvedOnly bool) ([]*models.Doctor, error) {
	list, err := s.doctors.List(ctx, approvedOnly)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return list, nil
}

// UpdateDoctorProfile replaces the mutable profile fields present in patch.
func (s *ClinicService) UpdateDoctorProfile(ctx context.Context, doctorID string, patch models.DoctorProfilePatch) (*models.Doctor, error) {
	if patch.Empty() {
		return nil, invalid("no profile fields provided")
	}
	if patch.AvatarURL != nil {
		trimmed := strings.TrimSpace(*patch.AvatarURL)
		patch.AvatarURL = &trimmed
	}
	return s.mutateDoctor(ctx, doctorID, func(d *models.Doctor) error {
		profile := patch.Apply(d.DoctorProfile)
		if profile.MinFee < 0 {
			return invalid("minimum fee must not be negative")
		}
		if profile.MaxFee < profile.MinFee {
			return invalid("maximum fee %.2f is below minimum fee %.2f", profile.MaxFee, profile.MinFee)
		}
		d.DoctorProfile = profile
		return nil
	})
}

// ApproveDoctor marks the doctor as approved. Approving twice is a no-op.
func (s *ClinicService) ApproveDoctor(ctx context.Context, doctorID string) (*models.Doctor, error) {
	return s.mutateDoctor(ctx, doctorID, func(d *models.Doctor) error {
		d.IsApproved = true
		return nil
	})
}

func (s *ClinicService) mutateDoctor(ctx context.Context, id string, mutate func(*models.Doctor) error) (*models.Doctor, error) {
	unlock := s.locks.Lock(doctorKey(id))
	defer unlock()

	d, err := s.doctors.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr("doctor", id, err)
	}
	if err := mutate(d); err != nil {
		return nil, err
	}
	if err := s.doctors.Update(ctx, d); err != nil {
		return nil, writeErr("doctor", id, err)
	}
	s.log.Info().Str("doctor_id", id).Int64("version", d.Version).Msg("doctor updated")
	return d, nil
}
