package models

import "time"

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusAccepted  AppointmentStatus = "accepted"
	StatusRejected  AppointmentStatus = "rejected"
	StatusCompleted AppointmentStatus = "completed"
)

// transitions lists every legal status edge. Anything absent is rejected.
var transitions = map[AppointmentStatus][]AppointmentStatus{
	StatusPending:  {StatusAccepted, StatusRejected},
	StatusAccepted: {StatusCompleted},
}

// Valid reports whether s is a known status.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusCompleted:
		return true
	}
	return false
}

// CanTransitionTo reports whether moving from s to next is a legal edge.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s AppointmentStatus) Terminal() bool {
	return len(transitions[s]) == 0
}

type Appointment struct {
	ID           string            `bson:"_id" json:"id"`
	PatientID    string            `bson:"patientId" json:"patientId"`
	DoctorID     string            `bson:"doctorId" json:"doctorId"`
	Date         time.Time         `bson:"date" json:"date"`
	ProposedFee  float64           `bson:"proposedFee" json:"proposedFee"`
	Status       AppointmentStatus `bson:"status" json:"status"`
	Prescription *Prescription     `bson:"prescription,omitempty" json:"prescription,omitempty"`
	Version      int64             `bson:"version" json:"version"`
	CreatedAt    time.Time         `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time         `bson:"updatedAt" json:"updatedAt"`
	// Seq is the store-assigned insertion order; it breaks createdAt ties.
	Seq int64 `bson:"seq" json:"-"`
}

// GetVersion returns the current version.
func (a *Appointment) GetVersion() int64 { return a.Version }

// AppointmentFilter narrows appointment listings. Empty fields match everything.
type AppointmentFilter struct {
	DoctorID  string
	PatientID string
	Status    AppointmentStatus
}

// Matches reports whether a satisfies the filter.
func (f AppointmentFilter) Matches(a *Appointment) bool {
	if f.DoctorID != "" && a.DoctorID != f.DoctorID {
		return false
	}
	if f.PatientID != "" && a.PatientID != f.PatientID {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	return true
}
