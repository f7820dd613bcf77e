package directory

import "time"

// User is the directory's view of an account: the owner of a patient
// collection. The full account entity (credentials, tokens) lives in the
// account domain; the directory only ever needs the id and the owned graph.
type User struct {
	ID       int64      `db:"id" json:"id"`
	Patients []*Patient `json:"patients,omitempty"`
}

// Patient maps to the patients table. Every attribute except the ids is
// optional: the band and the mobile app fill fields in independently.
type Patient struct {
	ID                int64      `db:"id" json:"id"`
	UserID            int64      `db:"user_id" json:"user_id"`
	Name              *string    `db:"name" json:"name,omitempty"`
	Age               *int       `db:"age" json:"age,omitempty"`
	Gender            *string    `db:"gender" json:"gender,omitempty"`
	PhoneNumber       *string    `db:"phone_number" json:"phone_number,omitempty"`
	Illness           *string    `db:"illness" json:"illness,omitempty"`
	Temperature       *float64   `db:"temperature" json:"temperature,omitempty"`
	O2                *float64   `db:"o2" json:"o2,omitempty"`
	HeartRate         *float64   `db:"heart_rate" json:"heart_rate,omitempty"`
	Latitude          *float64   `db:"latitude" json:"latitude,omitempty"`
	Longitude         *float64   `db:"longitude" json:"longitude,omitempty"`
	SafeZoneLatitude  *float64   `db:"safe_zone_latitude" json:"safe_zone_latitude,omitempty"`
	SafeZoneLongitude *float64   `db:"safe_zone_longitude" json:"safe_zone_longitude,omitempty"`
	Radius            *float64   `db:"radius" json:"radius,omitempty"`
	Photo             []byte     `db:"photo" json:"-"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
	Medicines         []*Medicine `json:"medicines,omitempty"`
}

// Medicine maps to the medicines table. Date and Time are kept as the plain
// strings the mobile app sends; the backend never interprets them.
type Medicine struct {
	ID        int64     `db:"id" json:"id"`
	PatientID int64     `db:"patient_id" json:"patient_id"`
	Name      *string   `db:"name" json:"name,omitempty"`
	Date      *string   `db:"date" json:"date,omitempty"`
	Time      *string   `db:"time" json:"time,omitempty"`
	Repeat    *int      `db:"repeat" json:"repeat,omitempty"`
	NumOfDays *int      `db:"num_of_days" json:"num_of_days,omitempty"`
	Reminder  *string   `db:"reminder" json:"reminder,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// PatientCreate is the request shape for AddPatient.
type PatientCreate struct {
	Name        *string `json:"name"`
	Age         *int    `json:"age"`
	Gender      *string `json:"gender"`
	PhoneNumber *string `json:"phone_number"`
	Illness     *string `json:"illness"`
}

func (m *PatientCreate) toPatient(userID int64) *Patient {
	return &Patient{
		UserID:      userID,
		Name:        m.Name,
		Age:         m.Age,
		Gender:      m.Gender,
		PhoneNumber: m.PhoneNumber,
		Illness:     m.Illness,
	}
}

// PatientUpdate is the request shape for UpdatePatient. A nil field means
// "leave unchanged"; there is no way to clear a field back to null.
type PatientUpdate struct {
	Name        *string `json:"name"`
	Age         *int    `json:"age"`
	Gender      *string `json:"gender"`
	PhoneNumber *string `json:"phone_number"`
	Illness     *string `json:"illness"`
}

// BandData is the telemetry shape pushed by the wearable. Same nil semantics
// as PatientUpdate.
type BandData struct {
	Temperature       *float64 `json:"temperature"`
	O2                *float64 `json:"o2"`
	HeartRate         *float64 `json:"heart_rate"`
	Longitude         *float64 `json:"longitude"`
	Latitude          *float64 `json:"latitude"`
	SafeZoneLatitude  *float64 `json:"safe_zone_latitude"`
	SafeZoneLongitude *float64 `json:"safe_zone_longitude"`
	Radius            *float64 `json:"radius"`
}

// MedicineCreate is the request shape for AddMedicine.
type MedicineCreate struct {
	Name      *string `json:"name"`
	Date      *string `json:"date"`
	Time      *string `json:"time"`
	Repeat    *int    `json:"repeat"`
	NumOfDays *int    `json:"num_of_days"`
	Reminder  *string `json:"reminder"`
}

func (m *MedicineCreate) toMedicine(patientID int64) *Medicine {
	return &Medicine{
		PatientID: patientID,
		Name:      m.Name,
		Date:      m.Date,
		Time:      m.Time,
		Repeat:    m.Repeat,
		NumOfDays: m.NumOfDays,
		Reminder:  m.Reminder,
	}
}

// MedicineUpdate is the request shape for UpdateMedicine.
type MedicineUpdate struct {
	Name     *string `json:"name"`
	Date     *string `json:"date"`
	Time     *string `json:"time"`
	Repeat   *int    `json:"repeat"`
	Reminder *string `json:"reminder"`
}

// PatientSummary is the response shape for patient reads. It carries every
// patient field except the raw photo bytes; HasPhoto tells the client whether
// the photo endpoint has anything to serve.
type PatientSummary struct {
	ID                int64    `json:"id"`
	Name              *string  `json:"name,omitempty"`
	Age               *int     `json:"age,omitempty"`
	Gender            *string  `json:"gender,omitempty"`
	PhoneNumber       *string  `json:"phone_number,omitempty"`
	Illness           *string  `json:"illness,omitempty"`
	Temperature       *float64 `json:"temperature,omitempty"`
	O2                *float64 `json:"o2,omitempty"`
	HeartRate         *float64 `json:"heart_rate,omitempty"`
	Latitude          *float64 `json:"latitude,omitempty"`
	Longitude         *float64 `json:"longitude,omitempty"`
	SafeZoneLatitude  *float64 `json:"safe_zone_latitude,omitempty"`
	SafeZoneLongitude *float64 `json:"safe_zone_longitude,omitempty"`
	Radius            *float64 `json:"radius,omitempty"`
	HasPhoto          bool     `json:"has_photo"`
}

// Summary converts the entity to its response shape field for field.
func (p *Patient) Summary() *PatientSummary {
	return &PatientSummary{
		ID:                p.ID,
		Name:              p.Name,
		Age:               p.Age,
		Gender:            p.Gender,
		PhoneNumber:       p.PhoneNumber,
		Illness:           p.Illness,
		Temperature:       p.Temperature,
		O2:                p.O2,
		HeartRate:         p.HeartRate,
		Latitude:          p.Latitude,
		Longitude:         p.Longitude,
		SafeZoneLatitude:  p.SafeZoneLatitude,
		SafeZoneLongitude: p.SafeZoneLongitude,
		Radius:            p.Radius,
		HasPhoto:          len(p.Photo) > 0,
	}
}

// MedicineSummary is the response shape for medicine reads.
type MedicineSummary struct {
	ID        int64   `json:"id"`
	Name      *string `json:"name,omitempty"`
	Date      *string `json:"date,omitempty"`
	Time      *string `json:"time,omitempty"`
	Repeat    *int    `json:"repeat,omitempty"`
	NumOfDays *int    `json:"num_of_days,omitempty"`
	Reminder  *string `json:"reminder,omitempty"`
}

// Summary converts the entity to its response shape field for field.
func (m *Medicine) Summary() *MedicineSummary {
	return &MedicineSummary{
		ID:        m.ID,
		Name:      m.Name,
		Date:      m.Date,
		Time:      m.Time,
		Repeat:    m.Repeat,
		NumOfDays: m.NumOfDays,
		Reminder:  m.Reminder,
	}
}
