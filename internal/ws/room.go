package ws

import (
	"fmt"
	"strings"

	"github.com/medbridge/portal-api/pkg/auth"
)

// Room families. Every broadcast room is scoped to one patient or one
// doctor; there are no global rooms.
const (
	RoomFamilyPatient = "patient"
	RoomFamilyDoctor  = "doctor"
)

// PatientRoom returns the room name notifications for a patient are
// delivered to.
func PatientRoom(patientID string) string {
	return RoomFamilyPatient + ":" + patientID
}

// DoctorRoom returns the room name for a doctor's queue updates.
func DoctorRoom(doctorID string) string {
	return RoomFamilyDoctor + ":" + doctorID
}

// parseRoom splits a room string into family and subject id.
func parseRoom(room string) (family, id string, err error) {
	parts := strings.SplitN(room, ":", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "", "", fmt.Errorf("malformed room: %s", room)
	}
	switch parts[0] {
	case RoomFamilyPatient, RoomFamilyDoctor:
		return parts[0], parts[1], nil
	default:
		return "", "", fmt.Errorf("unknown room family: %s", parts[0])
	}
}

// canJoin is the single join-authorization rule for both room families:
// the subject themselves, or a doctor or admin.
func canJoin(p *auth.Principal, subjectID string) bool {
	if p.Role == auth.RoleDoctor || p.Role == auth.RoleAdmin {
		return true
	}
	return p.ID.String() == subjectID
}
