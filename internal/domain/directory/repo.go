package directory

import "context"

// Repository is the persistence contract for the directory. Lookups are
// always scoped through the owning user id: there is intentionally no way to
// fetch a patient by its bare id.
type Repository interface {
	// GetUserWithPatients loads the user together with its full
	// patient -> medicine graph, patients and medicines ordered by id.
	// Returns ErrUserNotFound if no user has that id.
	GetUserWithPatients(ctx context.Context, userID int64) (*User, error)

	// GetPatientForUser re-queries the patient scoped to the owning user id,
	// medicines loaded and ordered by id. Returns ErrPatientNotFound if the
	// patient does not exist under that user.
	GetPatientForUser(ctx context.Context, userID, patientID int64) (*Patient, error)

	// InsertPatient persists a new patient and fills in its assigned id.
	// Returns ErrPhoneNumberInUse if the (user, phone number) uniqueness
	// constraint is violated at the storage level.
	InsertPatient(ctx context.Context, p *Patient) error

	// UpdatePatient writes all mutable patient columns.
	UpdatePatient(ctx context.Context, p *Patient) error

	// DeletePatient removes the patient; its medicines cascade.
	DeletePatient(ctx context.Context, patientID int64) error

	// InsertMedicine persists a new medicine and fills in its assigned id.
	InsertMedicine(ctx context.Context, m *Medicine) error

	// UpdateMedicine writes all mutable medicine columns.
	UpdateMedicine(ctx context.Context, m *Medicine) error

	// DeleteMedicine removes the medicine.
	DeleteMedicine(ctx context.Context, medicineID int64) error
}
