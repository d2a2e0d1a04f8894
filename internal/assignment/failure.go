package assignment

import (
	"fmt"

	"dispatch/pkg/db/mongodb"
)

const (
	MessagePermissionDenied = "You don't have permission to assign technicians."
	MessageUnavailable      = mongodb.UnavailableMessage
	MessageAssignFailed     = "Failed to assign technician. Please try again."
)

// FailureMessage classifies a failed assignment write.
func FailureMessage(err error) string {
	switch {
	case mongodb.IsPermissionDenied(err):
		return MessagePermissionDenied
	case mongodb.IsUnavailable(err):
		return MessageUnavailable
	default:
		return MessageAssignFailed
	}
}

func successMessage(technicianName string) string {
	return fmt.Sprintf("Technician %s assigned successfully.", technicianName)
}
