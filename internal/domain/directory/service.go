package directory

import (
	"context"

	"github.com/careband/careband/internal/platform/db"
)

// VitalsPublisher receives the merged telemetry after a band update commits.
type VitalsPublisher interface {
	PublishVitals(patientID int64, summary *PatientSummary)
}

// Service is the patient directory: all reads and writes of the
// user -> patient -> medicine graph go through it. Lookups of child entities
// are always scoped to the authenticated owner, so guessing a foreign
// patient or medicine id can only ever produce a not-found.
type Service struct {
	repo Repository
	uow  db.UnitOfWork
	feed VitalsPublisher
}

// NewService builds the directory service. uow wraps every mutating call;
// feed may be nil when no live vitals feed is attached.
func NewService(repo Repository, uow db.UnitOfWork, feed VitalsPublisher) *Service {
	if uow == nil {
		uow = db.Passthrough
	}
	return &Service{repo: repo, uow: uow, feed: feed}
}

// -- Resolution --

func (s *Service) resolveUser(ctx context.Context, userID int64) (*User, error) {
	return s.repo.GetUserWithPatients(ctx, userID)
}

// resolvePatient re-scopes through the owning user id rather than trusting
// the bare patient id.
func (s *Service) resolvePatient(ctx context.Context, user *User, patientID int64) (*Patient, error) {
	return s.repo.GetPatientForUser(ctx, user.ID, patientID)
}

func resolveMedicine(patient *Patient, medicineID int64) (*Medicine, error) {
	for _, m := range patient.Medicines {
		if m.ID == medicineID {
			return m, nil
		}
	}
	return nil, ErrMedicineNotFound
}

// -- Patients --

// ListPatients returns summaries of all the user's patients, ordered by id.
func (s *Service) ListPatients(ctx context.Context, userID int64) ([]*PatientSummary, error) {
	user, err := s.resolveUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]*PatientSummary, 0, len(user.Patients))
	for _, p := range user.Patients {
		summaries = append(summaries, p.Summary())
	}
	return summaries, nil
}

// GetPatient returns the summary of one patient owned by the user.
func (s *Service) GetPatient(ctx context.Context, userID, patientID int64) (*PatientSummary, error) {
	user, err := s.resolveUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	patient, err := s.resolvePatient(ctx, user, patientID)
	if err != nil {
		return nil, err
	}
	return patient.Summary(), nil
}

// AddPatient registers a new patient under the user. A phone number already
// used by another of the user's patients is rejected with ErrPhoneNumberInUse;
// the same check is enforced by a storage-level unique index, so a concurrent
// duplicate that slips past the scan fails on insert with the same error.
func (s *Service) AddPatient(ctx context.Context, userID int64, model *PatientCreate) error {
	return s.uow(ctx, func(ctx context.Context) error {
		user, err := s.resolveUser(ctx, userID)
		if err != nil {
			return err
		}

		if model.PhoneNumber != nil {
			for _, p := range user.Patients {
				if p.PhoneNumber != nil && *p.PhoneNumber == *model.PhoneNumber {
					return ErrPhoneNumberInUse
				}
			}
		}

		return s.repo.InsertPatient(ctx, model.toPatient(user.ID))
	})
}

// UpdatePatient merges the supplied demographic fields into the patient.
// Nil fields keep their current values.
func (s *Service) UpdatePatient(ctx context.Context, userID, patientID int64, model *PatientUpdate) error {
	return s.uow(ctx, func(ctx context.Context) error {
		user, err := s.resolveUser(ctx, userID)
		if err != nil {
			return err
		}
		patient, err := s.resolvePatient(ctx, user, patientID)
		if err != nil {
			return err
		}

		if model.Name != nil {
			patient.Name = model.Name
		}
		if model.Age != nil {
			patient.Age = model.Age
		}
		if model.Gender != nil {
			patient.Gender = model.Gender
		}
		if model.PhoneNumber != nil {
			patient.PhoneNumber = model.PhoneNumber
		}
		if model.Illness != nil {
			patient.Illness = model.Illness
		}

		return s.repo.UpdatePatient(ctx, patient)
	})
}

// UpdateBand merges a telemetry reading from the wearable into the patient
// and, once committed, publishes the fresh vitals to the live feed.
func (s *Service) UpdateBand(ctx context.Context, userID, patientID int64, model *BandData) error {
	var updated *Patient
	err := s.uow(ctx, func(ctx context.Context) error {
		user, err := s.resolveUser(ctx, userID)
		if err != nil {
			return err
		}
		patient, err := s.resolvePatient(ctx, user, patientID)
		if err != nil {
			return err
		}

		if model.Temperature != nil {
			patient.Temperature = model.Temperature
		}
		if model.O2 != nil {
			patient.O2 = model.O2
		}
		if model.HeartRate != nil {
			patient.HeartRate = model.HeartRate
		}
		if model.Longitude != nil {
			patient.Longitude = model.Longitude
		}
		if model.Latitude != nil {
			patient.Latitude = model.Latitude
		}
		if model.SafeZoneLatitude != nil {
			patient.SafeZoneLatitude = model.SafeZoneLatitude
		}
		if model.SafeZoneLongitude != nil {
			patient.SafeZoneLongitude = model.SafeZoneLongitude
		}
		if model.Radius != nil {
			patient.Radius = model.Radius
		}

		if err := s.repo.UpdatePatient(ctx, patient); err != nil {
			return err
		}
		updated = patient
		return nil
	})
	if err != nil {
		return err
	}

	if s.feed != nil {
		s.feed.PublishVitals(updated.ID, updated.Summary())
	}
	return nil
}

// DeletePatient removes the patient and, by cascade, all its medicines.
func (s *Service) DeletePatient(ctx context.Context, userID, patientID int64) error {
	return s.uow(ctx, func(ctx context.Context) error {
		user, err := s.resolveUser(ctx, userID)
		if err != nil {
			return err
		}
		patient, err := s.resolvePatient(ctx, user, patientID)
		if err != nil {
			return err
		}
		return s.repo.DeletePatient(ctx, patient.ID)
	})
}

// SetPatientPhoto replaces the patient's photo blob.
func (s *Service) SetPatientPhoto(ctx context.Context, userID, patientID int64, photo []byte) error {
	return s.uow(ctx, func(ctx context.Context) error {
		user, err := s.resolveUser(ctx, userID)
		if err != nil {
			return err
		}
		patient, err := s.resolvePatient(ctx, user, patientID)
		if err != nil {
			return err
		}
		patient.Photo = photo
		return s.repo.UpdatePatient(ctx, patient)
	})
}

// GetPatientPhoto returns the patient's photo blob, which may be empty.
func (s *Service) GetPatientPhoto(ctx context.Context, userID, patientID int64) ([]byte, error) {
	user, err := s.resolveUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	patient, err := s.resolvePatient(ctx, user, patientID)
	if err != nil {
		return nil, err
	}
	return patient.Photo, nil
}

// -- Medicines --

// ListMedicines returns summaries of the patient's medicines, ordered by id.
func (s *Service) ListMedicines(ctx context.Context, userID, patientID int64) ([]*MedicineSummary, error) {
	user, err := s.resolveUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	patient, err := s.resolvePatient(ctx, user, patientID)
	if err != nil {
		return nil, err
	}

	summaries := make([]*MedicineSummary, 0, len(patient.Medicines))
	for _, m := range patient.Medicines {
		summaries = append(summaries, m.Summary())
	}
	return summaries, nil
}

// GetMedicine returns the summary of one medicine owned by the patient.
func (s *Service) GetMedicine(ctx context.Context, userID, patientID, medicineID int64) (*MedicineSummary, error) {
	user, err := s.resolveUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	patient, err := s.resolvePatient(ctx, user, patientID)
	if err != nil {
		return nil, err
	}
	medicine, err := resolveMedicine(patient, medicineID)
	if err != nil {
		return nil, err
	}
	return medicine.Summary(), nil
}

// AddMedicine registers a new medicine under the patient.
func (s *Service) AddMedicine(ctx context.Context, userID, patientID int64, model *MedicineCreate) error {
	return s.uow(ctx, func(ctx context.Context) error {
		user, err := s.resolveUser(ctx, userID)
		if err != nil {
			return err
		}
		patient, err := s.resolvePatient(ctx, user, patientID)
		if err != nil {
			return err
		}
		if patient == nil {
			return ErrNoPatient
		}
		return s.repo.InsertMedicine(ctx, model.toMedicine(patient.ID))
	})
}

// UpdateMedicine merges the supplied fields into the medicine. Nil fields
// keep their current values.
func (s *Service) UpdateMedicine(ctx context.Context, userID, patientID, medicineID int64, model *MedicineUpdate) error {
	return s.uow(ctx, func(ctx context.Context) error {
		user, err := s.resolveUser(ctx, userID)
		if err != nil {
			return err
		}
		patient, err := s.resolvePatient(ctx, user, patientID)
		if err != nil {
			return err
		}
		medicine, err := resolveMedicine(patient, medicineID)
		if err != nil {
			return err
		}

		if model.Name != nil {
			medicine.Name = model.Name
		}
		if model.Date != nil {
			medicine.Date = model.Date
		}
		if model.Time != nil {
			medicine.Time = model.Time
		}
		if model.Repeat != nil {
			medicine.Repeat = model.Repeat
		}
		if model.Reminder != nil {
			medicine.Reminder = model.Reminder
		}

		return s.repo.UpdateMedicine(ctx, medicine)
	})
}

// DeleteMedicine removes the medicine from the patient.
func (s *Service) DeleteMedicine(ctx context.Context, userID, patientID, medicineID int64) error {
	return s.uow(ctx, func(ctx context.Context) error {
		user, err := s.resolveUser(ctx, userID)
		if err != nil {
			return err
		}
		patient, err := s.resolvePatient(ctx, user, patientID)
		if err != nil {
			return err
		}
		medicine, err := resolveMedicine(patient, medicineID)
		if err != nil {
			return err
		}
		return s.repo.DeleteMedicine(ctx, medicine.ID)
	})
}
