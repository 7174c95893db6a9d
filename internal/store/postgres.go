package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harentsoaR/medconnect-api/internal/models"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	name          TEXT NOT NULL,
	role          TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS doctors (
	id          TEXT PRIMARY KEY REFERENCES users(id),
	name        TEXT NOT NULL,
	email       TEXT NOT NULL,
	speciality  TEXT NOT NULL DEFAULT '',
	location    TEXT NOT NULL DEFAULT '',
	bio         TEXT NOT NULL DEFAULT '',
	min_fee     DOUBLE PRECISION NOT NULL,
	max_fee     DOUBLE PRECISION NOT NULL,
	avatar_url  TEXT NOT NULL DEFAULT '',
	rating      DOUBLE PRECISION NOT NULL DEFAULT 0,
	is_approved BOOLEAN NOT NULL DEFAULT FALSE,
	version     BIGINT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS patients (
	id              TEXT PRIMARY KEY REFERENCES users(id),
	name            TEXT NOT NULL,
	email           TEXT NOT NULL,
	medical_history TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS appointments (
	id           TEXT PRIMARY KEY,
	patient_id   TEXT NOT NULL REFERENCES patients(id),
	doctor_id    TEXT NOT NULL REFERENCES doctors(id),
	date         TIMESTAMPTZ NOT NULL,
	proposed_fee DOUBLE PRECISION NOT NULL,
	status       TEXT NOT NULL,
	prescription JSONB,
	version      BIGINT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL,
	seq          BIGSERIAL
);
ALTER TABLE appointments ADD COLUMN IF NOT EXISTS seq BIGSERIAL;
CREATE INDEX IF NOT EXISTS appointments_doctor_idx ON appointments (doctor_id, status);
CREATE INDEX IF NOT EXISTS appointments_patient_idx ON appointments (patient_id, status);
CREATE TABLE IF NOT EXISTS messages (
	seq         BIGSERIAL PRIMARY KEY,
	id          TEXT NOT NULL UNIQUE,
	sender_id   TEXT NOT NULL,
	receiver_id TEXT NOT NULL,
	content     TEXT NOT NULL,
	type        TEXT NOT NULL,
	video_data  JSONB,
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS messages_pair_idx ON messages (sender_id, receiver_id);
CREATE TABLE IF NOT EXISTS notifications (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	message    TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	read       BOOLEAN NOT NULL DEFAULT FALSE,
	seq        BIGSERIAL
);
ALTER TABLE notifications ADD COLUMN IF NOT EXISTS seq BIGSERIAL;
DROP INDEX IF EXISTS notifications_user_idx;
CREATE INDEX IF NOT EXISTS notifications_user_seq_idx ON notifications (user_id, created_at DESC, seq DESC);
`

// NewPostgresPool opens and pings a pgx connection pool.
func NewPostgresPool(ctx context.Context, databaseURL string, maxConns, minConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = maxConns
	cfg.MinConns = minConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// EnsurePostgresSchema creates the tables if they do not exist yet.
func EnsurePostgresSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// NewPostgres returns repositories backed by the given pool.
func NewPostgres(pool *pgxpool.Pool) Repositories {
	return Repositories{
		Users:         pgUsers{pool},
		Doctors:       pgDoctors{pool},
		Patients:      pgPatients{pool},
		Appointments:  pgAppointments{pool},
		Messages:      pgMessages{pool},
		Notifications: pgNotifications{pool},
	}
}

func pgErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pe *pgconn.PgError
	if errors.As(err, &pe) && pe.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

// versionMiss tells ErrNotFound from ErrConflict after an update touched no row.
func versionMiss(ctx context.Context, pool *pgxpool.Pool, table, id string) error {
	var exists bool
	err := pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM `+table+` WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrConflict
}

// -- Users --

type pgUsers struct{ pool *pgxpool.Pool }

const userCols = `id, email, password_hash, name, role, created_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.CreatedAt); err != nil {
		return nil, pgErr(err)
	}
	return &u, nil
}

func (r pgUsers) Create(ctx context.Context, u *models.User) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO users (`+userCols+`) VALUES ($1,$2,$3,$4,$5,$6)`,
		u.ID, u.Email, u.PasswordHash, u.Name, u.Role, u.CreatedAt)
	return pgErr(err)
}

func (r pgUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id))
}

func (r pgUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE email = $1`, email))
}

func (r pgUsers) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return pgErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r pgUsers) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

// -- Doctors --

type pgDoctors struct{ pool *pgxpool.Pool }

const doctorCols = `id, name, email, speciality, location, bio, min_fee, max_fee,
	avatar_url, rating, is_approved, version, created_at`

func scanDoctor(row pgx.Row) (*models.Doctor, error) {
	var d models.Doctor
	err := row.Scan(&d.ID, &d.Name, &d.Email, &d.Speciality, &d.Location, &d.Bio,
		&d.MinFee, &d.MaxFee, &d.AvatarURL, &d.Rating, &d.IsApproved, &d.Version, &d.CreatedAt)
	if err != nil {
		return nil, pgErr(err)
	}
	return &d, nil
}

func (r pgDoctors) Create(ctx context.Context, d *models.Doctor) error {
	d.Version = 1
	_, err := r.pool.Exec(ctx, `INSERT INTO doctors (`+doctorCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		d.ID, d.Name, d.Email, d.Speciality, d.Location, d.Bio, d.MinFee, d.MaxFee,
		d.AvatarURL, d.Rating, d.IsApproved, d.Version, d.CreatedAt)
	return pgErr(err)
}

func (r pgDoctors) GetByID(ctx context.Context, id string) (*models.Doctor, error) {
	return scanDoctor(r.pool.QueryRow(ctx, `SELECT `+doctorCols+` FROM doctors WHERE id = $1`, id))
}

func (r pgDoctors) Update(ctx context.Context, d *models.Doctor) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE doctors SET speciality=$3, location=$4, bio=$5, min_fee=$6, max_fee=$7,
			avatar_url=$8, rating=$9, is_approved=$10, version=version+1
		WHERE id = $1 AND version = $2`,
		d.ID, d.Version, d.Speciality, d.Location, d.Bio, d.MinFee, d.MaxFee,
		d.AvatarURL, d.Rating, d.IsApproved)
	if err != nil {
		return pgErr(err)
	}
	if tag.RowsAffected() == 0 {
		return versionMiss(ctx, r.pool, "doctors", d.ID)
	}
	d.Version++
	return nil
}

func (r pgDoctors) List(ctx context.Context, approvedOnly bool) ([]*models.Doctor, error) {
	q := `SELECT ` + doctorCols + ` FROM doctors`
	if approvedOnly {
		q += ` WHERE is_approved`
	}
	rows, err := r.pool.Query(ctx, q+` ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	doctors := make([]*models.Doctor, 0)
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		doctors = append(doctors, d)
	}
	return doctors, rows.Err()
}

// -- Patients --

type pgPatients struct{ pool *pgxpool.Pool }

func (r pgPatients) Create(ctx context.Context, p *models.Patient) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO patients (id, name, email, medical_history, created_at)
		VALUES ($1,$2,$3,$4,$5)`,
		p.ID, p.Name, p.Email, p.MedicalHistory, p.CreatedAt)
	return pgErr(err)
}

func (r pgPatients) GetByID(ctx context.Context, id string) (*models.Patient, error) {
	var p models.Patient
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, email, medical_history, created_at FROM patients WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Email, &p.MedicalHistory, &p.CreatedAt)
	if err != nil {
		return nil, pgErr(err)
	}
	return &p, nil
}

// -- Appointments --

type pgAppointments struct{ pool *pgxpool.Pool }

const appointmentCols = `id, patient_id, doctor_id, date, proposed_fee, status,
	prescription, version, created_at, updated_at`

func scanAppointment(row pgx.Row) (*models.Appointment, error) {
	var (
		a   models.Appointment
		raw []byte
	)
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.Date, &a.ProposedFee, &a.Status,
		&raw, &a.Version, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, pgErr(err)
	}
	if len(raw) > 0 {
		a.Prescription = &models.Prescription{}
		if err := json.Unmarshal(raw, a.Prescription); err != nil {
			return nil, fmt.Errorf("decode prescription: %w", err)
		}
	}
	return &a, nil
}

func encodePrescription(p *models.Prescription) ([]byte, error) {
	if p == nil {
		return nil, nil
	}
	return json.Marshal(p)
}

func (r pgAppointments) Create(ctx context.Context, a *models.Appointment) error {
	raw, err := encodePrescription(a.Prescription)
	if err != nil {
		return err
	}
	a.Version = 1
	err = r.pool.QueryRow(ctx, `INSERT INTO appointments (`+appointmentCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10) RETURNING seq`,
		a.ID, a.PatientID, a.DoctorID, a.Date, a.ProposedFee, a.Status,
		raw, a.Version, a.CreatedAt, a.UpdatedAt).Scan(&a.Seq)
	return pgErr(err)
}

func (r pgAppointments) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	return scanAppointment(r.pool.QueryRow(ctx, `SELECT `+appointmentCols+` FROM appointments WHERE id = $1`, id))
}

func (r pgAppointments) Update(ctx context.Context, a *models.Appointment) error {
	raw, err := encodePrescription(a.Prescription)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments SET date=$3, proposed_fee=$4, status=$5, prescription=$6,
			updated_at=$7, version=version+1
		WHERE id = $1 AND version = $2`,
		a.ID, a.Version, a.Date, a.ProposedFee, a.Status, raw, a.UpdatedAt)
	if err != nil {
		return pgErr(err)
	}
	if tag.RowsAffected() == 0 {
		return versionMiss(ctx, r.pool, "appointments", a.ID)
	}
	a.Version++
	return nil
}

func (r pgAppointments) List(ctx context.Context, f models.AppointmentFilter) ([]*models.Appointment, error) {
	q := `SELECT ` + appointmentCols + ` FROM appointments
		WHERE ($1 = '' OR doctor_id = $1) AND ($2 = '' OR patient_id = $2) AND ($3 = '' OR status = $3)
		ORDER BY created_at DESC, seq DESC`
	rows, err := r.pool.Query(ctx, q, f.DoctorID, f.PatientID, string(f.Status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	appointments := make([]*models.Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appointments = append(appointments, a)
	}
	return appointments, rows.Err()
}

// -- Messages --

type pgMessages struct{ pool *pgxpool.Pool }

func (r pgMessages) Create(ctx context.Context, m *models.Message) error {
	var raw []byte
	if m.VideoData != nil {
		b, err := json.Marshal(m.VideoData)
		if err != nil {
			return err
		}
		raw = b
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO messages (id, sender_id, receiver_id, content, type, video_data, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING seq`,
		m.ID, m.SenderID, m.ReceiverID, m.Content, m.Type, raw, m.CreatedAt).Scan(&m.Seq)
	return pgErr(err)
}

func (r pgMessages) ListBetween(ctx context.Context, a, b string) ([]*models.Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT seq, id, sender_id, receiver_id, content, type, video_data, created_at
		FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY seq`, a, b)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]*models.Message, 0)
	for rows.Next() {
		var (
			m   models.Message
			raw []byte
		)
		if err := rows.Scan(&m.Seq, &m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.Type, &raw, &m.CreatedAt); err != nil {
			return nil, err
		}
		if len(raw) > 0 {
			m.VideoData = &models.VideoOffer{}
			if err := json.Unmarshal(raw, m.VideoData); err != nil {
				return nil, fmt.Errorf("decode video offer: %w", err)
			}
		}
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}

// -- Notifications --

type pgNotifications struct{ pool *pgxpool.Pool }

func (r pgNotifications) Create(ctx context.Context, n *models.Notification) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO notifications (id, user_id, message, created_at, read)
		VALUES ($1,$2,$3,$4,$5) RETURNING seq`,
		n.ID, n.UserID, n.Message, n.CreatedAt, n.Read).Scan(&n.Seq)
	return pgErr(err)
}

func (r pgNotifications) GetByID(ctx context.Context, id string) (*models.Notification, error) {
	var n models.Notification
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, message, created_at, read FROM notifications WHERE id = $1`, id).
		Scan(&n.ID, &n.UserID, &n.Message, &n.CreatedAt, &n.Read)
	if err != nil {
		return nil, pgErr(err)
	}
	return &n, nil
}

func (r pgNotifications) MarkRead(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE notifications SET read = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r pgNotifications) ListByUser(ctx context.Context, userID string) ([]*models.Notification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, message, created_at, read FROM notifications
		WHERE user_id = $1 ORDER BY created_at DESC, seq DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := make([]*models.Notification, 0)
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &n.CreatedAt, &n.Read); err != nil {
			return nil, err
		}
		notifications = append(notifications, &n)
	}
	return notifications, rows.Err()
}
