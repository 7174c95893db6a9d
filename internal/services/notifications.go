package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/harentsoaR/medconnect-api/internal/models"
	"github.com/harentsoaR/medconnect-api/internal/store"
)

// NotificationService fans appointment transitions out to patients. Sending
// is a plain insert: there is no delivery channel and nothing to retry.
type NotificationService struct {
	repo store.NotificationRepository
	ids  IDGenerator
	now  Clock
	log  zerolog.Logger
}

func NewNotificationService(repo store.NotificationRepository, ids IDGenerator, now Clock, log zerolog.Logger) *NotificationService {
	return &NotificationService{repo: repo, ids: ids, now: now, log: log}
}

func decisionText(decision models.AppointmentStatus, doctor *models.Doctor) string {
	return fmt.Sprintf("Your appointment request has been %s by Dr. %s", decision, doctor.Name)
}

func completionText(doctor *models.Doctor) string {
	return fmt.Sprintf("Your appointment with Dr. %s has been completed. A prescription has been issued.", doctor.Name)
}

// SendAppointmentDecision tells the patient their request was accepted or rejected.
func (s *NotificationService) SendAppointmentDecision(ctx context.Context, apt *models.Appointment, doctor *models.Doctor) (*models.Notification, error) {
	return s.send(ctx, apt.PatientID, decisionText(apt.Status, doctor))
}

// SendAppointmentCompleted tells the patient a prescription is available.
func (s *NotificationService) SendAppointmentCompleted(ctx context.Context, apt *models.Appointment, doctor *models.Doctor) (*models.Notification, error) {
	return s.send(ctx, apt.PatientID, completionText(doctor))
}

func (s *NotificationService) send(ctx context.Context, userID, message string) (*models.Notification, error) {
	n := &models.Notification{
		ID:        s.ids.NewID(),
		UserID:    userID,
		Message:   message,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("create notification for %s: %w", userID, err)
	}
	s.log.Debug().Str("user_id", userID).Str("notification_id", n.ID).Msg("notification created")
	return n, nil
}

func (s *NotificationService) Get(ctx context.Context, id string) (*models.Notification, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr("notification", id, err)
	}
	return n, nil
}

// List returns the user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID string) ([]*models.Notification, error) {
	list, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications for %s: %w", userID, err)
	}
	return list, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	list, err := s.List(ctx, userID)
	if err != nil {
		return 0, err
	}
	return lo.CountBy(list, func(n *models.Notification) bool { return !n.Read }), nil
}

// MarkRead flips the read flag. Marking an already-read notification is a no-op.
func (s *NotificationService) MarkRead(ctx context.Context, id string) error {
	if err := s.repo.MarkRead(ctx, id); err != nil {
		return writeErr("notification", id, err)
	}
	return nil
}
