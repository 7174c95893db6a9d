package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/harentsoaR/medconnect-api/internal/models"
	"github.com/harentsoaR/medconnect-api/internal/store"
	"github.com/harentsoaR/medconnect-api/internal/utils"
)

type SignupInput struct {
	Name     string
	Email    string
	Password string
	Role     models.Role
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup creates the User and, for doctors and patients, the paired role record.
func (s *ClinicService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	role := in.Role
	if role == "" {
		role = models.RolePatient
	}
	switch {
	case name == "":
		return nil, invalid("name is required")
	case email == "" || !strings.Contains(email, "@"):
		return nil, invalid("a valid email is required")
	case in.Password == "":
		return nil, invalid("password is required")
	case !role.Valid():
		return nil, invalid("unknown role %q", role)
	}

	hash, err := s.hasher.HashPassword(in.Password)
	if err != nil {
		if errors.Is(err, utils.ErrPasswordTooLong) {
			return nil, invalid("password is too long")
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		ID:           s.ids.NewID(),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         role,
		CreatedAt:    s.timestamp(),
	}
	if err := s.AddUser(ctx, user); err != nil {
		return nil, err
	}

	switch role {
	case models.RoleDoctor:
		err = s.AddDoctor(ctx, &models.Doctor{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
			DoctorProfile: models.DoctorProfile{
				MinFee: models.DefaultMinFee,
				MaxFee: models.DefaultMaxFee,
			},
			CreatedAt: user.CreatedAt,
		})
	case models.RolePatient:
		err = s.AddPatient(ctx, &models.Patient{
			ID:        user.ID,
			Name:      user.Name,
			Email:     user.Email,
			CreatedAt: user.CreatedAt,
		})
	}
	if err != nil {
		s.discardUser(ctx, user)
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID).Str("role", string(role)).Msg("user signed up")
	return user, nil
}

// discardUser deletes a user whose role record could not be written, so the
// email can sign up again.
func (s *ClinicService) discardUser(ctx context.Context, u *models.User) {
	if err := s.users.Delete(context.WithoutCancel(ctx), u.ID); err != nil {
		s.log.Error().Err(err).Str("user_id", u.ID).Msg("could not remove user without role record")
	}
}

// AddUser appends u unless its email is already taken.
func (s *ClinicService) AddUser(ctx context.Context, u *models.User) error {
	if !u.Role.Valid() {
		return invalid("unknown role %q", u.Role)
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return fmt.Errorf("%w: %s", ErrDuplicateEmail, u.Email)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// AddDoctor creates the doctor record of an existing doctor-role user.
func (s *ClinicService) AddDoctor(ctx context.Context, d *models.Doctor) error {
	if err := s.requireRole(ctx, d.ID, models.RoleDoctor); err != nil {
		return err
	}
	if d.MinFee < 0 || d.MaxFee < d.MinFee {
		return invalid("fee range %.2f-%.2f is invalid", d.MinFee, d.MaxFee)
	}
	if err := s.doctors.Create(ctx, d); err != nil {
		return fmt.Errorf("create doctor %s: %w", d.ID, err)
	}
	return nil
}

// AddPatient creates the patient record of an existing patient-role user.
func (s *ClinicService) AddPatient(ctx context.Context, p *models.Patient) error {
	if err := s.requireRole(ctx, p.ID, models.RolePatient); err != nil {
		return err
	}
	if err := s.patients.Create(ctx, p); err != nil {
		return fmt.Errorf("create patient %s: %w", p.ID, err)
	}
	return nil
}

func (s *ClinicService) requireRole(ctx context.Context, userID string, role models.Role) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return lookupErr("user", userID, err)
	}
	if u.Role != role {
		return invalid("user %s has role %s, not %s", userID, u.Role, role)
	}
	return nil
}

// Authenticate returns the user whose email and password both match.
func (s *ClinicService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load user by email: %w", err)
	}
	if !s.hasher.CheckPasswordHash(password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *ClinicService) GetUser(ctx context.Context, id string) (*models.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr("user", id, err)
	}
	return u, nil
}

func (s *ClinicService) GetPatient(ctx context.Context, id string) (*models.Patient, error) {
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr("patient", id, err)
	}
	return p, nil
}

// UserCount reports how many users exist.
func (s *ClinicService) UserCount(ctx context.Context) (int, error) {
	return s.users.Count(ctx)
}
