package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NotificationType tags the fixed payload shape carried by a
// notification. Each type has exactly one payload schema so downstream
// consumers can pattern-match exhaustively.
type NotificationType string

const (
	NotificationTypeAppointmentStatus NotificationType = "appointment_status"
)

// AppointmentStatusPayload is the payload carried by every
// appointment_status notification.
type AppointmentStatusPayload struct {
	Status        AppointmentStatus `json:"status"`
	AppointmentID uuid.UUID         `json:"appointmentId"`
}

func (p AppointmentStatusPayload) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *AppointmentStatusPayload) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	case nil:
		return nil
	default:
		return fmt.Errorf("unsupported payload type %T", src)
	}
}

// Notification is one history entry per notable appointment event. It is
// created exactly once and only its read/pinned flags ever change.
type Notification struct {
	ID              uuid.UUID                `db:"id" json:"id"`
	PatientID       uuid.UUID                `db:"patient_id" json:"patientId"`
	AppointmentID   *uuid.UUID               `db:"appointment_id" json:"appointmentId,omitempty"`
	DoctorID        *uuid.UUID               `db:"doctor_id" json:"doctorId,omitempty"`
	DoctorName      string                   `db:"doctor_name" json:"doctorName,omitempty"`
	DoctorSpecialty string                   `db:"doctor_specialty" json:"doctorSpecialty,omitempty"`
	Type            NotificationType         `db:"type" json:"type"`
	Title           string                   `db:"title" json:"title"`
	Body            string                   `db:"body" json:"body"`
	Payload         AppointmentStatusPayload `db:"payload" json:"payload"`
	Read            bool                     `db:"read" json:"read"`
	Pinned          bool                     `db:"pinned" json:"pinned"`
	CreatedAt       time.Time                `db:"created_at" json:"createdAt"`
}

// PatchNotificationRequest carries the whitelisted mutable flags. Both
// fields optional, but at least one recognized field must be present.
type PatchNotificationRequest struct {
	Read   *bool `json:"read"`
	Pinned *bool `json:"pinned"`
}

// Empty reports whether the patch carries no recognized field.
func (r *PatchNotificationRequest) Empty() bool {
	return r.Read == nil && r.Pinned == nil
}
