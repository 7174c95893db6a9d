package models

import "time"

type Medication struct {
	Name      string `bson:"name" json:"name"`
	Dosage    string `bson:"dosage" json:"dosage"`
	Frequency string `bson:"frequency" json:"frequency"`
	Duration  string `bson:"duration" json:"duration"`
}

// Prescription is issued when an appointment is completed and lives inside it.
type Prescription struct {
	ID            string       `bson:"id" json:"id"`
	AppointmentID string       `bson:"appointmentId" json:"appointmentId"`
	DoctorID      string       `bson:"doctorId" json:"doctorId"`
	PatientID     string       `bson:"patientId" json:"patientId"`
	Medications   []Medication `bson:"medications" json:"medications"`
	Instructions  string       `bson:"instructions" json:"instructions"`
	CreatedAt     time.Time    `bson:"createdAt" json:"createdAt"`
}

// PrescriptionDraft is what a doctor submits when completing an appointment.
type PrescriptionDraft struct {
	Medications  []Medication `json:"medications"`
	Instructions string       `json:"instructions"`
}
