package directory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/careband/careband/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

// NewRepoPG returns the Postgres-backed directory repository.
func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const patientCols = `id, user_id, name, age, gender, phone_number, illness,
	temperature, o2, heart_rate, latitude, longitude,
	safe_zone_latitude, safe_zone_longitude, radius, photo,
	created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Age, &p.Gender, &p.PhoneNumber, &p.Illness,
		&p.Temperature, &p.O2, &p.HeartRate, &p.Latitude, &p.Longitude,
		&p.SafeZoneLatitude, &p.SafeZoneLongitude, &p.Radius, &p.Photo,
		&p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

const medicineCols = `id, patient_id, name, date, time, repeat, num_of_days, reminder,
	created_at, updated_at`

func scanMedicine(row pgx.Row) (*Medicine, error) {
	var m Medicine
	err := row.Scan(&m.ID, &m.PatientID, &m.Name, &m.Date, &m.Time, &m.Repeat, &m.NumOfDays,
		&m.Reminder, &m.CreatedAt, &m.UpdatedAt)
	return &m, err
}

func (r *repoPG) GetUserWithPatients(ctx context.Context, userID int64) (*User, error) {
	conn := r.conn(ctx)

	var u User
	err := conn.QueryRow(ctx, `SELECT id FROM users WHERE id = $1`, userID).Scan(&u.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := conn.Query(ctx, `SELECT `+patientCols+` FROM patients WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		u.Patients = append(u.Patients, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, p := range u.Patients {
		meds, err := r.medicinesForPatient(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		p.Medicines = meds
	}

	return &u, nil
}

func (r *repoPG) GetPatientForUser(ctx context.Context, userID, patientID int64) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patients WHERE user_id = $1 AND id = $2`, userID, patientID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPatientNotFound
	}
	if err != nil {
		return nil, err
	}

	meds, err := r.medicinesForPatient(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Medicines = meds

	return p, nil
}

func (r *repoPG) medicinesForPatient(ctx context.Context, patientID int64) ([]*Medicine, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+medicineCols+` FROM medicines WHERE patient_id = $1 ORDER BY id`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meds []*Medicine
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, err
		}
		meds = append(meds, m)
	}
	return meds, rows.Err()
}

func (r *repoPG) InsertPatient(ctx context.Context, p *Patient) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patients (user_id, name, age, gender, phone_number, illness,
			temperature, o2, heart_rate, latitude, longitude,
			safe_zone_latitude, safe_zone_longitude, radius, photo)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		RETURNING id, created_at, updated_at`,
		p.UserID, p.Name, p.Age, p.Gender, p.PhoneNumber, p.Illness,
		p.Temperature, p.O2, p.HeartRate, p.Latitude, p.Longitude,
		p.SafeZoneLatitude, p.SafeZoneLongitude, p.Radius, p.Photo).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if isUniqueViolation(err, "patients_user_phone_key") {
		return ErrPhoneNumberInUse
	}
	return err
}

func (r *repoPG) UpdatePatient(ctx context.Context, p *Patient) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE patients SET name=$2, age=$3, gender=$4, phone_number=$5, illness=$6,
			temperature=$7, o2=$8, heart_rate=$9, latitude=$10, longitude=$11,
			safe_zone_latitude=$12, safe_zone_longitude=$13, radius=$14, photo=$15,
			updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.Name, p.Age, p.Gender, p.PhoneNumber, p.Illness,
		p.Temperature, p.O2, p.HeartRate, p.Latitude, p.Longitude,
		p.SafeZoneLatitude, p.SafeZoneLongitude, p.Radius, p.Photo)
	if isUniqueViolation(err, "patients_user_phone_key") {
		return ErrPhoneNumberInUse
	}
	return err
}

func (r *repoPG) DeletePatient(ctx context.Context, patientID int64) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM patients WHERE id = $1`, patientID)
	return err
}

func (r *repoPG) InsertMedicine(ctx context.Context, m *Medicine) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO medicines (patient_id, name, date, time, repeat, num_of_days, reminder)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id, created_at, updated_at`,
		m.PatientID, m.Name, m.Date, m.Time, m.Repeat, m.NumOfDays, m.Reminder).
		Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
}

func (r *repoPG) UpdateMedicine(ctx context.Context, m *Medicine) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE medicines SET name=$2, date=$3, time=$4, repeat=$5, num_of_days=$6, reminder=$7,
			updated_at=NOW()
		WHERE id = $1`,
		m.ID, m.Name, m.Date, m.Time, m.Repeat, m.NumOfDays, m.Reminder)
	return err
}

func (r *repoPG) DeleteMedicine(ctx context.Context, medicineID int64) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM medicines WHERE id = $1`, medicineID)
	return err
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505" && pgErr.ConstraintName == constraint
}
