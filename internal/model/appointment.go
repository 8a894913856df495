package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
)

// Valid reports whether s is a known status value.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusConfirmed,
		AppointmentStatusCancelled, AppointmentStatusCompleted:
		return true
	}
	return false
}

// allowedPredecessors encodes the transition graph:
// pending -> confirmed | cancelled, confirmed -> cancelled | completed.
var allowedPredecessors = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusConfirmed: {AppointmentStatusPending},
	AppointmentStatusCancelled: {AppointmentStatusPending, AppointmentStatusConfirmed},
	AppointmentStatusCompleted: {AppointmentStatusConfirmed},
}

// AllowedPredecessors returns the statuses from which an appointment may
// move into target, or nil if target is not a valid transition target
// (booking creation is a separate operation, not a transition).
func AllowedPredecessors(target AppointmentStatus) []AppointmentStatus {
	return allowedPredecessors[target]
}

type Appointment struct {
	Base
	PatientID   uuid.UUID         `db:"patient_id" json:"patient_id"`
	DoctorID    uuid.UUID         `db:"doctor_id" json:"doctor_id"`
	RequestedAt time.Time         `db:"requested_at" json:"requested_at"`
	ConfirmedAt *time.Time        `db:"confirmed_at" json:"confirmed_at,omitempty"`
	Status      AppointmentStatus `db:"status" json:"status"`
	RiskSnapshot
	Notes string `db:"notes" json:"notes,omitempty"`
}

type BookAppointmentRequest struct {
	PatientID     uuid.UUID `json:"patientId" binding:"required"`
	DoctorID      uuid.UUID `json:"doctorId" binding:"required"`
	RequestedTime time.Time `json:"requestedTime" binding:"required"`
	Notes         string    `json:"notes" binding:"max=1000"`
}

type UpdateAppointmentStatusRequest struct {
	Status AppointmentStatus `json:"status" binding:"required,appointment_status"`
}
