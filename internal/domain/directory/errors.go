package directory

import "errors"

// Sentinel errors returned by the directory service and its repositories.
// They cross the service boundary unwrapped so handlers can classify them
// with errors.Is.
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrPatientNotFound  = errors.New("patient not found")
	ErrMedicineNotFound = errors.New("medicine not found")

	// ErrPhoneNumberInUse is returned when a user already has a patient
	// registered under the same phone number. It is raised both by the
	// in-memory pre-check and by the storage-level unique index, so
	// concurrent duplicate inserts surface identically.
	ErrPhoneNumberInUse = errors.New("patient with this phone number already exists")

	ErrNoPatient = errors.New("patient is required")
)
