package models

import "time"

type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           string    `bson:"_id" json:"id"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash string    `bson:"passwordHash" json:"-"` // never serialized to clients
	Name         string    `bson:"name" json:"name"`
	Role         Role      `bson:"role" json:"role"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
}

// Doctor is the role extension of a doctor-role User and shares its ID.
type Doctor struct {
	ID            string `bson:"_id" json:"id"`
	Name          string `bson:"name" json:"name"`
	Email         string `bson:"email" json:"email"`
	DoctorProfile `bson:",inline"`
	Rating        float64   `bson:"rating" json:"rating"`
	IsApproved    bool      `bson:"isApproved" json:"isApproved"`
	Version       int64     `bson:"version" json:"version"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
}

// GetVersion returns the current version.
func (d *Doctor) GetVersion() int64 { return d.Version }

// DoctorProfile holds the fields a doctor may edit.
type DoctorProfile struct {
	Speciality string  `bson:"speciality" json:"speciality"`
	Location   string  `bson:"location" json:"location"`
	Bio        string  `bson:"bio" json:"bio"`
	MinFee     float64 `bson:"minFee" json:"minFee"`
	MaxFee     float64 `bson:"maxFee" json:"maxFee"`
	AvatarURL  string  `bson:"avatarUrl" json:"avatarUrl"`
}

// Defaults assigned to a doctor profile at signup.
const (
	DefaultMinFee = 10
	DefaultMaxFee = 30
)

// DoctorProfilePatch carries a partial profile update. Nil fields are left untouched.
type DoctorProfilePatch struct {
	Speciality *string  `json:"speciality,omitempty"`
	Location   *string  `json:"location,omitempty"`
	Bio        *string  `json:"bio,omitempty"`
	MinFee     *float64 `json:"minFee,omitempty"`
	MaxFee     *float64 `json:"maxFee,omitempty"`
	AvatarURL  *string  `json:"avatarUrl,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p DoctorProfilePatch) Empty() bool {
	return p.Speciality == nil && p.Location == nil && p.Bio == nil &&
		p.MinFee == nil && p.MaxFee == nil && p.AvatarURL == nil
}

// Apply returns a copy of profile with the non-nil patch fields replaced.
func (p DoctorProfilePatch) Apply(profile DoctorProfile) DoctorProfile {
	if p.Speciality != nil {
		profile.Speciality = *p.Speciality
	}
	if p.Location != nil {
		profile.Location = *p.Location
	}
	if p.Bio != nil {
		profile.Bio = *p.Bio
	}
	if p.MinFee != nil {
		profile.MinFee = *p.MinFee
	}
	if p.MaxFee != nil {
		profile.MaxFee = *p.MaxFee
	}
	if p.AvatarURL != nil {
		profile.AvatarURL = *p.AvatarURL
	}
	return profile
}

// Patient is the role extension of a patient-role User and shares its ID.
type Patient struct {
	ID             string    `bson:"_id" json:"id"`
	Name           string    `bson:"name" json:"name"`
	Email          string    `bson:"email" json:"email"`
	MedicalHistory string    `bson:"medicalHistory" json:"medicalHistory"`
	CreatedAt      time.Time `bson:"createdAt" json:"createdAt"`
}
