// Package store defines the persistence contracts of the clinic and their
// memory, MongoDB and PostgreSQL implementations.
package store

import (
	"context"
	"errors"

	"github.com/harentsoaR/medconnect-api/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	// ErrConflict is returned by Update when the stored version no longer
	// matches the version the caller read.
	ErrConflict = errors.New("version conflict")
)

// UserRepository stores base identities. Email is unique.
type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// Delete removes a user and frees its email. Only signup uses it, to undo
	// a user whose role record could not be written.
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

type DoctorRepository interface {
	Create(ctx context.Context, d *models.Doctor) error
	GetByID(ctx context.Context, id string) (*models.Doctor, error)
	// Update writes d if the stored version equals d.Version and bumps it.
	Update(ctx context.Context, d *models.Doctor) error
	List(ctx context.Context, approvedOnly bool) ([]*models.Doctor, error)
}

type PatientRepository interface {
	Create(ctx context.Context, p *models.Patient) error
	GetByID(ctx context.Context, id string) (*models.Patient, error)
}

type AppointmentRepository interface {
	Create(ctx context.Context, a *models.Appointment) error
	GetByID(ctx context.Context, id string) (*models.Appointment, error)
	// Update writes a if the stored version equals a.Version and bumps it.
	Update(ctx context.Context, a *models.Appointment) error
	// List returns matching appointments, newest first.
	List(ctx context.Context, f models.AppointmentFilter) ([]*models.Appointment, error)
}

type MessageRepository interface {
	Create(ctx context.Context, m *models.Message) error
	// ListBetween returns the messages exchanged by a and b in append order.
	ListBetween(ctx context.Context, a, b string) ([]*models.Message, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	GetByID(ctx context.Context, id string) (*models.Notification, error)
	MarkRead(ctx context.Context, id string) error
	// ListByUser returns the user's notifications, newest first.
	ListByUser(ctx context.Context, userID string) ([]*models.Notification, error)
}

// Repositories bundles one implementation of every contract.
type Repositories struct {
	Users         UserRepository
	Doctors       DoctorRepository
	Patients      PatientRepository
	Appointments  AppointmentRepository
	Messages      MessageRepository
	Notifications NotificationRepository
}

func cloneAppointment(a *models.Appointment) *models.Appointment {
	cp := *a
	if a.Prescription != nil {
		p := *a.Prescription
		p.Medications = append([]models.Medication(nil), a.Prescription.Medications...)
		cp.Prescription = &p
	}
	return &cp
}

func cloneMessage(m *models.Message) *models.Message {
	cp := *m
	if m.VideoData != nil {
		v := *m.VideoData
		cp.VideoData = &v
	}
	return &cp
}
