package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/harentsoaR/medconnect-api/internal/models"
)

func TestMemoryUsers_DuplicateEmail(t *testing.T) {
	repos := NewMemory()
	ctx := context.Background()

	if err := repos.Users.Create(ctx, &models.User{ID: "u1", Email: "a@x.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := repos.Users.Create(ctx, &models.User{ID: "u2", Email: "a@x.com"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	n, _ := repos.Users.Count(ctx)
	if n != 1 {
		t.Errorf("expected 1 user, got %d", n)
	}
}

func TestMemoryUsers_GetByEmail(t *testing.T) {
	repos := NewMemory()
	ctx := context.Background()
	repos.Users.Create(ctx, &models.User{ID: "u1", Email: "a@x.com", Name: "Ann"})

	u, err := repos.Users.GetByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if u.ID != "u1" {
		t.Errorf("expected u1, got %s", u.ID)
	}
	if _, err := repos.Users.GetByEmail(ctx, "b@x.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryUsers_DeleteFreesEmail(t *testing.T) {
	repos := NewMemory()
	ctx := context.Background()
	repos.Users.Create(ctx, &models.User{ID: "u1", Email: "a@x.com"})

	if err := repos.Users.Delete(ctx, "u1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repos.Users.GetByEmail(ctx, "a@x.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repos.Users.Create(ctx, &models.User{ID: "u2", Email: "a@x.com"}); err != nil {
		t.Errorf("expected email to be reusable, got %v", err)
	}
	if err := repos.Users.Delete(ctx, "u1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestMemoryAppointments_VersionConflict(t *testing.T) {
	repos := NewMemory()
	ctx := context.Background()
	a := &models.Appointment{ID: "a1", Status: models.StatusPending}
	if err := repos.Appointments.Create(ctx, a); err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.Version != 1 {
		t.Fatalf("expected version 1, got %d", a.Version)
	}

	first, _ := repos.Appointments.GetByID(ctx, "a1")
	second, _ := repos.Appointments.GetByID(ctx, "a1")

	first.Status = models.StatusAccepted
	if err := repos.Appointments.Update(ctx, first); err != nil {
		t.Fatalf("first update: %v", err)
	}
	if first.Version != 2 {
		t.Errorf("expected version 2, got %d", first.Version)
	}

	second.Status = models.StatusRejected
	if err := repos.Appointments.Update(ctx, second); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	got, _ := repos.Appointments.GetByID(ctx, "a1")
	if got.Status != models.StatusAccepted {
		t.Errorf("expected accepted, got %s", got.Status)
	}
}

func TestMemoryAppointments_UpdateMissing(t *testing.T) {
	repos := NewMemory()
	err := repos.Appointments.Update(context.Background(), &models.Appointment{ID: "nope"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryAppointments_ReturnsCopies(t *testing.T) {
	repos := NewMemory()
	ctx := context.Background()
	repos.Appointments.Create(ctx, &models.Appointment{
		ID:     "a1",
		Status: models.StatusCompleted,
		Prescription: &models.Prescription{
			Medications: []models.Medication{{Name: "Ibuprofen"}},
		},
	})

	a, _ := repos.Appointments.GetByID(ctx, "a1")
	a.Status = models.StatusRejected
	a.Prescription.Medications[0].Name = "changed"

	again, _ := repos.Appointments.GetByID(ctx, "a1")
	if again.Status != models.StatusCompleted {
		t.Errorf("status leaked through returned pointer")
	}
	if again.Prescription.Medications[0].Name != "Ibuprofen" {
		t.Errorf("medications leaked through returned pointer")
	}
}

func TestMemoryAppointments_ListFilterNewestFirst(t *testing.T) {
	repos := NewMemory()
	ctx := context.Background()
	repos.Appointments.Create(ctx, &models.Appointment{ID: "a1", DoctorID: "d1", Status: models.StatusPending})
	repos.Appointments.Create(ctx, &models.Appointment{ID: "a2", DoctorID: "d2", Status: models.StatusPending})
	repos.Appointments.Create(ctx, &models.Appointment{ID: "a3", DoctorID: "d1", Status: models.StatusAccepted})
	repos.Appointments.Create(ctx, &models.Appointment{ID: "a4", DoctorID: "d1", Status: models.StatusPending})

	list, err := repos.Appointments.List(ctx, models.AppointmentFilter{DoctorID: "d1", Status: models.StatusPending})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2, got %d", len(list))
	}
	if list[0].ID != "a4" || list[1].ID != "a1" {
		t.Errorf("expected [a4 a1], got [%s %s]", list[0].ID, list[1].ID)
	}
}

func TestMemoryMessages_ListBetweenKeepsAppendOrder(t *testing.T) {
	repos := NewMemory()
	ctx := context.Background()
	now := time.Now()
	repos.Messages.Create(ctx, &models.Message{ID: "m1", SenderID: "a", ReceiverID: "b", CreatedAt: now})
	repos.Messages.Create(ctx, &models.Message{ID: "m2", SenderID: "c", ReceiverID: "b", CreatedAt: now})
	repos.Messages.Create(ctx, &models.Message{ID: "m3", SenderID: "b", ReceiverID: "a", CreatedAt: now})
	repos.Messages.Create(ctx, &models.Message{ID: "m4", SenderID: "a", ReceiverID: "b", CreatedAt: now})

	msgs, err := repos.Messages.ListBetween(ctx, "b", "a")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"m1", "m3", "m4"}
	if len(msgs) != len(want) {
		t.Fatalf("expected %d messages, got %d", len(want), len(msgs))
	}
	for i, id := range want {
		if msgs[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, msgs[i].ID)
		}
	}
}

func TestMemoryNotifications_MarkRead(t *testing.T) {
	repos := NewMemory()
	ctx := context.Background()
	repos.Notifications.Create(ctx, &models.Notification{ID: "n1", UserID: "u1"})
	repos.Notifications.Create(ctx, &models.Notification{ID: "n2", UserID: "u1"})
	repos.Notifications.Create(ctx, &models.Notification{ID: "n3", UserID: "u2"})

	for i := 0; i < 2; i++ {
		if err := repos.Notifications.MarkRead(ctx, "n1"); err != nil {
			t.Fatalf("mark read #%d: %v", i+1, err)
		}
	}
	if err := repos.Notifications.MarkRead(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	list, _ := repos.Notifications.ListByUser(ctx, "u1")
	if len(list) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(list))
	}
	if list[0].ID != "n2" || list[0].Read {
		t.Errorf("expected unread n2 first, got %s read=%v", list[0].ID, list[0].Read)
	}
	if list[1].ID != "n1" || !list[1].Read {
		t.Errorf("expected read n1 second, got %s read=%v", list[1].ID, list[1].Read)
	}
}

func TestMemoryDoctors_ListApprovedOnly(t *testing.T) {
	repos := NewMemory()
	ctx := context.Background()
	repos.Doctors.Create(ctx, &models.Doctor{ID: "d1"})
	repos.Doctors.Create(ctx, &models.Doctor{ID: "d2", IsApproved: true})

	all, _ := repos.Doctors.List(ctx, false)
	if len(all) != 2 {
		t.Errorf("expected 2 doctors, got %d", len(all))
	}
	approved, _ := repos.Doctors.List(ctx, true)
	if len(approved) != 1 || approved[0].ID != "d2" {
		t.Errorf("expected only d2, got %+v", approved)
	}
}
