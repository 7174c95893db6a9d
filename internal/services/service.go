// Package services holds the clinic domain: signup and login, the
// appointment lifecycle, prescriptions, chat and notification fan-out.
package services

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/harentsoaR/medconnect-api/internal/store"
)

// PasswordHasher produces and verifies salted password hashes.
type PasswordHasher interface {
	HashPassword(password string) (string, error)
	CheckPasswordHash(password, hash string) bool
}

// ClinicService is the single entry point for every state change. Each
// exported method is one atomic intent.
type ClinicService struct {
	users        store.UserRepository
	doctors      store.DoctorRepository
	patients     store.PatientRepository
	appointments store.AppointmentRepository
	messages     store.MessageRepository

	Notifications *NotificationService

	hasher PasswordHasher
	ids    IDGenerator
	now    Clock
	locks  *keyedMutex
	log    zerolog.Logger
}

type Option func(*ClinicService)

// WithIDGenerator replaces the default UUID generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *ClinicService) { s.ids = g }
}

// WithClock replaces time.Now.
func WithClock(c Clock) Option {
	return func(s *ClinicService) { s.now = c }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *ClinicService) { s.log = l }
}

func NewClinicService(repos store.Repositories, hasher PasswordHasher, opts ...Option) *ClinicService {
	s := &ClinicService{
		users:        repos.Users,
		doctors:      repos.Doctors,
		patients:     repos.Patients,
		appointments: repos.Appointments,
		messages:     repos.Messages,
		hasher:       hasher,
		ids:          UUIDGenerator{},
		now:          time.Now,
		locks:        newKeyedMutex(),
		log:          zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Notifications = NewNotificationService(repos.Notifications, s.ids, s.now, s.log)
	return s
}

func (s *ClinicService) timestamp() time.Time {
	return s.now().UTC()
}
