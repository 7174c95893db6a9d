package store

import (
	"context"
	"sync"

	"github.com/harentsoaR/medconnect-api/internal/models"
)

// memoryDB keeps every collection in process memory. All state is lost when
// the process exits.
type memoryDB struct {
	mu sync.RWMutex

	users   map[string]*models.User
	byEmail map[string]string

	doctors     map[string]*models.Doctor
	doctorOrder []string

	patients map[string]*models.Patient

	appointments     map[string]*models.Appointment
	appointmentOrder []string

	messages []*models.Message
	seq      int64

	notifications     map[string]*models.Notification
	notificationOrder []string
}

// NewMemory returns repositories backed by a fresh in-memory database.
func NewMemory() Repositories {
	db := &memoryDB{
		users:         make(map[string]*models.User),
		byEmail:       make(map[string]string),
		doctors:       make(map[string]*models.Doctor),
		patients:      make(map[string]*models.Patient),
		appointments:  make(map[string]*models.Appointment),
		notifications: make(map[string]*models.Notification),
	}
	return Repositories{
		Users:         memUsers{db},
		Doctors:       memDoctors{db},
		Patients:      memPatients{db},
		Appointments:  memAppointments{db},
		Messages:      memMessages{db},
		Notifications: memNotifications{db},
	}
}

// -- Users --

type memUsers struct{ db *memoryDB }

func (r memUsers) Create(_ context.Context, u *models.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.byEmail[u.Email]; ok {
		return ErrDuplicate
	}
	if _, ok := r.db.users[u.ID]; ok {
		return ErrDuplicate
	}
	cp := *u
	r.db.users[u.ID] = &cp
	r.db.byEmail[u.Email] = u.ID
	return nil
}

func (r memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	u, ok := r.db.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	id, ok := r.db.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r.db.users[id]
	return &cp, nil
}

func (r memUsers) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.db.byEmail, u.Email)
	delete(r.db.users, id)
	return nil
}

func (r memUsers) Count(_ context.Context) (int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return len(r.db.users), nil
}

// -- Doctors --

type memDoctors struct{ db *memoryDB }

func (r memDoctors) Create(_ context.Context, d *models.Doctor) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.doctors[d.ID]; ok {
		return ErrDuplicate
	}
	d.Version = 1
	cp := *d
	r.db.doctors[d.ID] = &cp
	r.db.doctorOrder = append(r.db.doctorOrder, d.ID)
	return nil
}

func (r memDoctors) GetByID(_ context.Context, id string) (*models.Doctor, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	d, ok := r.db.doctors[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (r memDoctors) Update(_ context.Context, d *models.Doctor) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cur, ok := r.db.doctors[d.ID]
	if !ok {
		return ErrNotFound
	}
	if cur.Version != d.Version {
		return ErrConflict
	}
	d.Version++
	cp := *d
	r.db.doctors[d.ID] = &cp
	return nil
}

func (r memDoctors) List(_ context.Context, approvedOnly bool) ([]*models.Doctor, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := make([]*models.Doctor, 0, len(r.db.doctorOrder))
	for _, id := range r.db.doctorOrder {
		d := r.db.doctors[id]
		if approvedOnly && !d.IsApproved {
			continue
		}
		cp := *d
		out = append(out, &cp)
	}
	return out, nil
}

// -- Patients --

type memPatients struct{ db *memoryDB }

func (r memPatients) Create(_ context.Context, p *models.Patient) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.patients[p.ID]; ok {
		return ErrDuplicate
	}
	cp := *p
	r.db.patients[p.ID] = &cp
	return nil
}

func (r memPatients) GetByID(_ context.Context, id string) (*models.Patient, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	p, ok := r.db.patients[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// -- Appointments --

type memAppointments struct{ db *memoryDB }

func (r memAppointments) Create(_ context.Context, a *models.Appointment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.appointments[a.ID]; ok {
		return ErrDuplicate
	}
	r.db.seq++
	a.Seq = r.db.seq
	a.Version = 1
	r.db.appointments[a.ID] = cloneAppointment(a)
	r.db.appointmentOrder = append(r.db.appointmentOrder, a.ID)
	return nil
}

func (r memAppointments) GetByID(_ context.Context, id string) (*models.Appointment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	a, ok := r.db.appointments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneAppointment(a), nil
}

func (r memAppointments) Update(_ context.Context, a *models.Appointment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cur, ok := r.db.appointments[a.ID]
	if !ok {
		return ErrNotFound
	}
	if cur.Version != a.Version {
		return ErrConflict
	}
	a.Version++
	r.db.appointments[a.ID] = cloneAppointment(a)
	return nil
}

func (r memAppointments) List(_ context.Context, f models.AppointmentFilter) ([]*models.Appointment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := make([]*models.Appointment, 0)
	for i := len(r.db.appointmentOrder) - 1; i >= 0; i-- {
		a := r.db.appointments[r.db.appointmentOrder[i]]
		if f.Matches(a) {
			out = append(out, cloneAppointment(a))
		}
	}
	return out, nil
}

// -- Messages --

type memMessages struct{ db *memoryDB }

func (r memMessages) Create(_ context.Context, m *models.Message) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.seq++
	m.Seq = r.db.seq
	r.db.messages = append(r.db.messages, cloneMessage(m))
	return nil
}

func (r memMessages) ListBetween(_ context.Context, a, b string) ([]*models.Message, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := make([]*models.Message, 0)
	for _, m := range r.db.messages {
		if m.Between(a, b) {
			out = append(out, cloneMessage(m))
		}
	}
	return out, nil
}

// -- Notifications --

type memNotifications struct{ db *memoryDB }

func (r memNotifications) Create(_ context.Context, n *models.Notification) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.notifications[n.ID]; ok {
		return ErrDuplicate
	}
	r.db.seq++
	n.Seq = r.db.seq
	cp := *n
	r.db.notifications[n.ID] = &cp
	r.db.notificationOrder = append(r.db.notificationOrder, n.ID)
	return nil
}

func (r memNotifications) GetByID(_ context.Context, id string) (*models.Notification, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	n, ok := r.db.notifications[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (r memNotifications) MarkRead(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	n, ok := r.db.notifications[id]
	if !ok {
		return ErrNotFound
	}
	n.Read = true
	return nil
}

func (r memNotifications) ListByUser(_ context.Context, userID string) ([]*models.Notification, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := make([]*models.Notification, 0)
	for i := len(r.db.notificationOrder) - 1; i >= 0; i-- {
		n := r.db.notifications[r.db.notificationOrder[i]]
		if n.UserID == userID {
			cp := *n
			out = append(out, &cp)
		}
	}
	return out, nil
}
