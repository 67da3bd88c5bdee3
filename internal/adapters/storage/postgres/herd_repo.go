package postgres

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"herd-marketplace/internal/domain/herd"
)

type HerdRepo struct {
	db *sql.DB
}

var _ herd.Repository = (*HerdRepo)(nil)

func NewHerdRepo(db *sql.DB) *HerdRepo {
	return &HerdRepo{db: db}
}

const animalColumns = `
	id, project_id,
	code, breed, sex, is_breeder,
	father_id, mother_id,
	status, entry_weight_kg, batch_id,
	birth_date, archived_at,
	created_at, updated_at`

func (r *HerdRepo) CreateAnimal(ctx context.Context, a herd.Animal) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO animals (`+animalColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`,
		a.ID,
		a.ProjectID,
		a.Code,
		a.Breed,
		string(a.Sex),
		a.IsBreeder,
		toNullString(a.FatherID),
		toNullString(a.MotherID),
		string(a.Status),
		a.EntryWeightKg,
		toNullString(a.BatchID),
		toNullTime(a.BirthDate),
		toNullTime(a.ArchivedAt),
		a.CreatedAt,
		a.UpdatedAt,
	)
	return err
}

func (r *HerdRepo) UpdateAnimal(ctx context.Context, a herd.Animal) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE animals
		SET
			code = $2,
			breed = $3,
			sex = $4,
			is_breeder = $5,
			father_id = $6,
			mother_id = $7,
			status = $8,
			entry_weight_kg = $9,
			batch_id = $10,
			birth_date = $11,
			archived_at = $12,
			updated_at = $13
		WHERE id = $1
	`,
		a.ID,
		a.Code,
		a.Breed,
		string(a.Sex),
		a.IsBreeder,
		toNullString(a.FatherID),
		toNullString(a.MotherID),
		string(a.Status),
		a.EntryWeightKg,
		toNullString(a.BatchID),
		toNullTime(a.BirthDate),
		toNullTime(a.ArchivedAt),
		a.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return herd.ErrNotFound
	}
	return nil
}

func (r *HerdRepo) DeleteAnimal(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM animals WHERE id = $1`, strings.TrimSpace(id))
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return herd.ErrNotFound
	}
	return nil
}

func (r *HerdRepo) GetAnimal(ctx context.Context, id string) (herd.Animal, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return herd.Animal{}, herd.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+animalColumns+` FROM animals WHERE id = $1`, id)
	a, err := scanAnimal(row)
	if err == sql.ErrNoRows {
		return herd.Animal{}, herd.ErrNotFound
	}
	return a, err
}

func (r *HerdRepo) ListAnimals(ctx context.Context, projectID string) ([]herd.Animal, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+animalColumns+`
		FROM animals
		WHERE project_id = $1
		ORDER BY created_at ASC, id ASC
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]herd.Animal, 0)
	for rows.Next() {
		a, err := scanAnimal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnimal(s rowScanner) (herd.Animal, error) {
	var (
		a                       herd.Animal
		sex, status             string
		father, mother, batchID sql.NullString
		bd, archived            sql.NullTime
	)
	if err := s.Scan(
		&a.ID,
		&a.ProjectID,
		&a.Code,
		&a.Breed,
		&sex,
		&a.IsBreeder,
		&father,
		&mother,
		&status,
		&a.EntryWeightKg,
		&batchID,
		&bd,
		&archived,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return herd.Animal{}, err
	}

	a.Sex = herd.Sex(sex)
	a.Status = herd.Status(status)
	a.FatherID = fromNullString(father)
	a.MotherID = fromNullString(mother)
	a.BatchID = fromNullString(batchID)
	// birth_date es DATE: pgx lo mapea a medianoche UTC
	a.BirthDate = fromNullTime(bd)
	a.ArchivedAt = fromNullTime(archived)
	return a, nil
}

// -------------------------
// Weighings
// -------------------------

func (r *HerdRepo) AddWeighing(ctx context.Context, w herd.Weighing) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO weighings (id, animal_id, date, weight_kg, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, w.ID, w.AnimalID, w.Date, w.WeightKg, w.CreatedAt)
	return err
}

func (r *HerdRepo) ListWeighings(ctx context.Context, animalID string) ([]herd.Weighing, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, animal_id, date, weight_kg, created_at
		FROM weighings
		WHERE animal_id = $1
		ORDER BY date ASC, seq ASC
	`, strings.TrimSpace(animalID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]herd.Weighing, 0)
	for rows.Next() {
		var w herd.Weighing
		if err := rows.Scan(&w.ID, &w.AnimalID, &w.Date, &w.WeightKg, &w.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// -------------------------
// Batches
// -------------------------

func (r *HerdRepo) CreateBatch(ctx context.Context, b herd.Batch) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op después de Commit

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO batches (id, project_id, name, average_weight_kg, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, b.ID, b.ProjectID, b.Name, b.AverageWeightKg, b.CreatedAt, b.UpdatedAt); err != nil {
		return err
	}

	for i, id := range b.MemberIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO batch_members (batch_id, animal_id, position) VALUES ($1,$2,$3)
		`, b.ID, id, i); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *HerdRepo) GetBatch(ctx context.Context, id string) (herd.Batch, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return herd.Batch{}, herd.ErrNotFound
	}

	var b herd.Batch
	err := r.db.QueryRowContext(ctx, `
		SELECT id, project_id, name, average_weight_kg, created_at, updated_at
		FROM batches WHERE id = $1
	`, id).Scan(&b.ID, &b.ProjectID, &b.Name, &b.AverageWeightKg, &b.CreatedAt, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return herd.Batch{}, herd.ErrNotFound
	}
	if err != nil {
		return herd.Batch{}, err
	}

	members, err := r.members(ctx, []string{b.ID})
	if err != nil {
		return herd.Batch{}, err
	}
	b.MemberIDs = members[b.ID]
	return b, nil
}

func (r *HerdRepo) ListBatches(ctx context.Context, projectID string) ([]herd.Batch, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, project_id, name, average_weight_kg, created_at, updated_at
		FROM batches
		WHERE project_id = $1
		ORDER BY created_at ASC, id ASC
	`, strings.TrimSpace(projectID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]herd.Batch, 0)
	ids := make([]string, 0)
	for rows.Next() {
		var b herd.Batch
		if err := rows.Scan(&b.ID, &b.ProjectID, &b.Name, &b.AverageWeightKg, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
		ids = append(ids, b.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	members, err := r.members(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].MemberIDs = members[out[i].ID]
	}
	return out, nil
}

// members trae los miembros de varias bandes en una sola query (un placeholder por id).
func (r *HerdRepo) members(ctx context.Context, batchIDs []string) (map[string][]string, error) {
	out := make(map[string][]string, len(batchIDs))
	if len(batchIDs) == 0 {
		return out, nil
	}

	args := make([]any, len(batchIDs))
	marks := make([]string, len(batchIDs))
	for i, id := range batchIDs {
		args[i] = id
		marks[i] = "$" + strconv.Itoa(i+1)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT batch_id, animal_id
		FROM batch_members
		WHERE batch_id IN (`+strings.Join(marks, ",")+`)
		ORDER BY batch_id, position
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var batchID, animalID string
		if err := rows.Scan(&batchID, &animalID); err != nil {
			return nil, err
		}
		out[batchID] = append(out[batchID], animalID)
	}
	return out, rows.Err()
}

func toNullString(s *string) sql.NullString {
	if s == nil || strings.TrimSpace(*s) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func toNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func fromNullTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
