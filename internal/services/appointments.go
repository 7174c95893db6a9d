package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/harentsoaR/medconnect-api/internal/models"
)

func appointmentKey(id string) string { return "appointment:" + id }

// CreateAppointment books a pending appointment between an existing patient and doctor.
func (s *ClinicService) CreateAppointment(ctx context.Context, patientID, doctorID string, date time.Time, proposedFee float64) (*models.Appointment, error) {
	if date.IsZero() {
		return nil, invalid("date is required")
	}
	if proposedFee < 0 {
		return nil, invalid("proposed fee must not be negative")
	}
	if _, err := s.patients.GetByID(ctx, patientID); err != nil {
		return nil, lookupErr("patient", patientID, err)
	}
	if _, err := s.doctors.GetByID(ctx, doctorID); err != nil {
		return nil, lookupErr("doctor", doctorID, err)
	}

	now := s.timestamp()
	apt := &models.Appointment{
		ID:          s.ids.NewID(),
		PatientID:   patientID,
		DoctorID:    doctorID,
		Date:        date.UTC(),
		ProposedFee: proposedFee,
		Status:      models.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.appointments.Create(ctx, apt); err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	s.log.Info().
		Str("appointment_id", apt.ID).
		Str("patient_id", patientID).
		Str("doctor_id", doctorID).
		Msg("appointment requested")
	return apt, nil
}

// RespondToAppointment accepts or rejects a pending appointment and notifies the patient.
func (s *ClinicService) RespondToAppointment(ctx context.Context, appointmentID string, decision models.AppointmentStatus) (*models.Appointment, error) {
	if decision != models.StatusAccepted && decision != models.StatusRejected {
		return nil, fmt.Errorf("%w: %q is not a response", ErrInvalidTransition, decision)
	}
	return s.transition(ctx, appointmentID, decision, func(apt *models.Appointment) error { return nil })
}

// CompleteAppointment closes an accepted appointment, attaches the prescription
// in the same write, and notifies the patient.
func (s *ClinicService) CompleteAppointment(ctx context.Context, appointmentID string, draft models.PrescriptionDraft) (*models.Appointment, error) {
	meds, err := cleanMedications(draft.Medications)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, appointmentID, models.StatusCompleted, func(apt *models.Appointment) error {
		apt.Prescription = &models.Prescription{
			ID:            s.ids.NewID(),
			AppointmentID: apt.ID,
			DoctorID:      apt.DoctorID,
			PatientID:     apt.PatientID,
			Medications:   meds,
			Instructions:  strings.TrimSpace(draft.Instructions),
			CreatedAt:     apt.UpdatedAt,
		}
		return nil
	})
}

func cleanMedications(meds []models.Medication) ([]models.Medication, error) {
	if len(meds) == 0 {
		return nil, invalid("at least one medication is required")
	}
	out := make([]models.Medication, len(meds))
	for i, m := range meds {
		out[i] = models.Medication{
			Name:      strings.TrimSpace(m.Name),
			Dosage:    strings.TrimSpace(m.Dosage),
			Frequency: strings.TrimSpace(m.Frequency),
			Duration:  strings.TrimSpace(m.Duration),
		}
		if out[i].Name == "" {
			return nil, invalid("medication %d has no name", i+1)
		}
	}
	return out, nil
}

// transition moves one appointment to next under its per-id lock. mutate may
// attach extra state before the versioned write.
func (s *ClinicService) transition(ctx context.Context, id string, next models.AppointmentStatus, mutate func(*models.Appointment) error) (*models.Appointment, error) {
	unlock := s.locks.Lock(appointmentKey(id))
	defer unlock()

	apt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr("appointment", id, err)
	}
	if !apt.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, apt.Status, next)
	}
	doctor, err := s.doctors.GetByID(ctx, apt.DoctorID)
	if err != nil {
		return nil, lookupErr("doctor", apt.DoctorID, err)
	}

	before := *apt
	prev := apt.Status
	apt.Status = next
	apt.UpdatedAt = s.timestamp()
	if err := mutate(apt); err != nil {
		return nil, err
	}
	if err := s.appointments.Update(ctx, apt); err != nil {
		return nil, writeErr("appointment", id, err)
	}

	if next == models.StatusCompleted {
		_, err = s.Notifications.SendAppointmentCompleted(ctx, apt, doctor)
	} else {
		_, err = s.Notifications.SendAppointmentDecision(ctx, apt, doctor)
	}
	if err != nil {
		s.rollback(ctx, before, apt.Version)
		return nil, fmt.Errorf("notify patient of appointment %s: %w", id, err)
	}

	s.log.Info().
		Str("appointment_id", id).
		Str("from", string(prev)).
		Str("to", string(next)).
		Msg("appointment transitioned")
	return apt, nil
}

// rollback restores the pre-transition state after the notification could not
// be stored, so the transition can be retried.
func (s *ClinicService) rollback(ctx context.Context, before models.Appointment, current int64) {
	before.Version = current
	if err := s.appointments.Update(context.WithoutCancel(ctx), &before); err != nil {
		s.log.Error().Err(err).Str("appointment_id", before.ID).Msg("rollback of appointment transition failed")
		return
	}
	s.log.Warn().Str("appointment_id", before.ID).Str("status", string(before.Status)).Msg("appointment transition rolled back")
}

func (s *ClinicService) GetAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	apt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr("appointment", id, err)
	}
	return apt, nil
}

// ListAppointments returns matching appointments, newest first.
func (s *ClinicService) ListAppointments(ctx context.Context, f models.AppointmentFilter) ([]*models.Appointment, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, invalid("unknown status %q", f.Status)
	}
	list, err := s.appointments.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return list, nil
}

// ListPrescriptions returns the prescriptions of completed appointments
// matching the doctor and/or patient of f.
func (s *ClinicService) ListPrescriptions(ctx context.Context, f models.AppointmentFilter) ([]models.Prescription, error) {
	f.Status = models.StatusCompleted
	list, err := s.ListAppointments(ctx, f)
	if err != nil {
		return nil, err
	}
	return lo.FilterMap(list, func(a *models.Appointment, _ int) (models.Prescription, bool) {
		if a.Prescription == nil {
			return models.Prescription{}, false
		}
		return *a.Prescription, true
	}), nil
}
