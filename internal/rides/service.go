package rides

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/brianbtrfld/sram-ebike/internal/db"
	"github.com/brianbtrfld/sram-ebike/internal/ride"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrNotFound    = errors.New("ride not found")
	ErrUnavailable = errors.New("ride library unavailable")
)

const schema = `
CREATE TABLE IF NOT EXISTS rides (
	id                      UUID PRIMARY KEY,
	name                    TEXT NOT NULL,
	start_time              TEXT NOT NULL,
	end_time                TEXT NOT NULL,
	number_waypoints        INTEGER NOT NULL,
	waypoints               JSONB NOT NULL,
	total_distance_mi       DOUBLE PRECISION NOT NULL,
	total_elevation_gain_ft DOUBLE PRECISION NOT NULL,
	average_speed_mph       DOUBLE PRECISION NOT NULL,
	max_speed_mph           DOUBLE PRECISION NOT NULL,
	elapsed_time            TEXT NOT NULL,
	created_at              TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at              TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const selectColumns = `
	SELECT id, name, start_time, end_time, number_waypoints, waypoints,
		total_distance_mi, total_elevation_gain_ft, average_speed_mph, max_speed_mph, elapsed_time,
		created_at, updated_at
	FROM rides`

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

func (s *Service) EnsureSchema(ctx context.Context) error {
	if s.db == nil {
		return ErrUnavailable
	}
	_, err := s.db.Exec(ctx, schema)
	return err
}

// Upload validates r, computes its summary and stores it under a new id.
func (s *Service) Upload(ctx context.Context, r ride.Ride) (Record, error) {
	if s.db == nil {
		return Record{}, ErrUnavailable
	}
	if err := Validate(r); err != nil {
		return Record{}, err
	}

	rec := Record{ID: uuid.NewString(), Ride: r.Clone(), Summary: Summarize(r.Waypoints)}
	waypoints, err := json.Marshal(rec.Waypoints)
	if err != nil {
		return Record{}, fmt.Errorf("encode waypoints: %w", err)
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO rides (id, name, start_time, end_time, number_waypoints, waypoints,
			total_distance_mi, total_elevation_gain_ft, average_speed_mph, max_speed_mph, elapsed_time)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING created_at, updated_at
	`, rec.ID, rec.Name, rec.StartTime, rec.EndTime, rec.WaypointCount, waypoints,
		rec.Summary.TotalDistanceMi, rec.Summary.TotalElevationGainFt, rec.Summary.AverageSpeedMph,
		rec.Summary.MaxSpeedMph, rec.Summary.ElapsedTime)
	if err := row.Scan(&rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *Service) Get(ctx context.Context, id string) (Record, error) {
	if s.db == nil {
		return Record{}, ErrUnavailable
	}
	if _, err := uuid.Parse(id); err != nil {
		return Record{}, ErrNotFound
	}

	rec, err := scanRecord(s.db.QueryRow(ctx, selectColumns+` WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

func (s *Service) List(ctx context.Context) ([]Record, error) {
	if s.db == nil {
		return nil, ErrUnavailable
	}
	rows, err := s.db.Query(ctx, selectColumns+` ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Update rewrites the editable fields of a stored ride. Waypoints and the
// summary derived from them stay as uploaded.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (Record, error) {
	if s.db == nil {
		return Record{}, ErrUnavailable
	}
	if req.Name == "" {
		return Record{}, invalid("name", "required")
	}
	if err := validateWindow(req.StartTime, req.EndTime); err != nil {
		return Record{}, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return Record{}, ErrNotFound
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE rides
		SET name=$2, start_time=$3, end_time=$4, updated_at=now()
		WHERE id=$1
	`, id, req.Name, req.StartTime, req.EndTime)
	if err != nil {
		return Record{}, err
	}
	if tag.RowsAffected() == 0 {
		return Record{}, ErrNotFound
	}
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if s.db == nil {
		return ErrUnavailable
	}
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM rides WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	var waypoints []byte
	err := row.Scan(&rec.ID, &rec.Name, &rec.StartTime, &rec.EndTime, &rec.WaypointCount, &waypoints,
		&rec.Summary.TotalDistanceMi, &rec.Summary.TotalElevationGainFt, &rec.Summary.AverageSpeedMph,
		&rec.Summary.MaxSpeedMph, &rec.Summary.ElapsedTime, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return Record{}, err
	}
	if err := json.Unmarshal(waypoints, &rec.Waypoints); err != nil {
		return Record{}, fmt.Errorf("decode waypoints for ride %s: %w", rec.ID, err)
	}
	return rec, nil
}
