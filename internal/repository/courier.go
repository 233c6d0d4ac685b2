package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/domain"
)

const profileColumns = `
	cp.user_id, cp.vehicle_type, cp.phone, cp.display_name, cp.status,
	cp.current_lat, cp.current_lng, cp.last_location_at, cp.rating_avg,
	cp.created_at, cp.updated_at`

// CourierRepo stores courier profiles and answers proximity queries.
type CourierRepo struct{ db *pgxpool.Pool }

// NewCourierRepo creates a new CourierRepo.
func NewCourierRepo(db *pgxpool.Pool) *CourierRepo { return &CourierRepo{db: db} }

// GetProfile returns the profile of userID, or nil if the user is not a courier.
func (r *CourierRepo) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.CourierProfile, error) {
	p, err := scanProfile(r.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM courier_profiles cp WHERE cp.user_id = $1`, userID))
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get courier profile %s: %w", userID, err)
	}
	return p, nil
}

// UpsertProfile creates or refreshes the profile and grants COURIER and BUYER roles.
// Status is left untouched on an existing profile.
func (r *CourierRepo) UpsertProfile(ctx context.Context, p *domain.CourierProfile) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx, `
		UPDATE users
		SET roles = ARRAY(SELECT DISTINCT unnest(roles || ARRAY['COURIER', 'BUYER']))
		WHERE id = $1`, p.UserID)
	if err != nil {
		return fmt.Errorf("grant courier role %s: %w", p.UserID, err)
	}
	if ct.RowsAffected() == 0 {
		return apperr.NotFound("USER_NOT_FOUND", "user does not exist")
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO courier_profiles (user_id, vehicle_type, phone, display_name, status)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET vehicle_type = EXCLUDED.vehicle_type,
		    phone        = EXCLUDED.phone,
		    display_name = EXCLUDED.display_name,
		    updated_at   = now()
		RETURNING status, rating_avg, created_at, updated_at`,
		p.UserID, string(p.VehicleType), p.Phone, p.DisplayName, string(p.Status),
	).Scan(&p.Status, &p.RatingAvg, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert courier profile %s: %w", p.UserID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// UpdateProfile applies a partial update and returns true if a row was affected.
func (r *CourierRepo) UpdateProfile(ctx context.Context, u domain.CourierProfileUpdate) (bool, error) {
	var vehicle *string
	if u.VehicleType != nil {
		v := string(*u.VehicleType)
		vehicle = &v
	}
	ct, err := r.db.Exec(ctx, `
		UPDATE courier_profiles
		SET vehicle_type = COALESCE($2, vehicle_type),
		    phone        = COALESCE($3, phone),
		    display_name = COALESCE($4, display_name),
		    updated_at   = now()
		WHERE user_id = $1`, u.UserID, vehicle, u.Phone, u.DisplayName)
	if err != nil {
		return false, fmt.Errorf("update courier profile %s: %w", u.UserID, err)
	}
	return ct.RowsAffected() > 0, nil
}

// SetStatusFrom changes the status only if the current one is in from.
func (r *CourierRepo) SetStatusFrom(ctx context.Context, userID uuid.UUID, to domain.CourierStatus, from []domain.CourierStatus) (bool, error) {
	allowed := make([]string, len(from))
	for i, s := range from {
		allowed[i] = string(s)
	}
	ct, err := r.db.Exec(ctx, `
		UPDATE courier_profiles SET status = $2, updated_at = now()
		WHERE user_id = $1 AND status = ANY($3)`, userID, string(to), allowed)
	if err != nil {
		return false, fmt.Errorf("set courier %s status: %w", userID, err)
	}
	return ct.RowsAffected() == 1, nil
}

// UpdateLocation stores the latest known position. It never touches status.
func (r *CourierRepo) UpdateLocation(ctx context.Context, userID uuid.UUID, p domain.Point, at time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE courier_profiles
		SET current_lat = $2, current_lng = $3, last_location_at = $4
		WHERE user_id = $1`, userID, p.Lat, p.Lng, at)
	if err != nil {
		return fmt.Errorf("update courier %s location: %w", userID, err)
	}
	return nil
}

// ListRecent returns non-banned couriers by most recent location, then rating.
func (r *CourierRepo) ListRecent(ctx context.Context, f domain.CourierFilter) ([]domain.CourierProfile, error) {
	where, args := filterClause(f)
	args = append(args, f.Limit)
	q := `SELECT ` + profileColumns + `
		FROM courier_profiles cp JOIN users u ON u.id = cp.user_id
		WHERE ` + where + `
		ORDER BY cp.last_location_at DESC NULLS LAST, cp.rating_avg DESC, cp.user_id
		LIMIT $` + fmt.Sprint(len(args))
	return r.queryProfiles(ctx, q, args...)
}

// ListLocated returns every non-banned courier with known coordinates.
func (r *CourierRepo) ListLocated(ctx context.Context, f domain.CourierFilter) ([]domain.CourierProfile, error) {
	where, args := filterClause(f)
	q := `SELECT ` + profileColumns + `
		FROM courier_profiles cp JOIN users u ON u.id = cp.user_id
		WHERE ` + where + ` AND cp.current_lat IS NOT NULL AND cp.current_lng IS NOT NULL`
	return r.queryProfiles(ctx, q, args...)
}

// NearbyIndexed delegates the radius filter, ordering and limit to PostGIS.
// ST_DWithin narrows the candidates through the spatial index; the radius and
// ordering use the same haversine distance as domain.HaversineKm, so the limit
// applies to couriers that are actually in range.
func (r *CourierRepo) NearbyIndexed(ctx context.Context, f domain.CourierFilter, at domain.Point, radiusKm float64) ([]domain.CourierProfile, error) {
	where, args := filterClause(f)
	n := len(args)
	args = append(args, at.Lng, at.Lat, radiusKm, f.Limit)
	lng, lat, radius, limit := n+1, n+2, n+3, n+4
	geog := `ST_SetSRID(ST_MakePoint(cp.current_lng, cp.current_lat), 4326)::geography`
	origin := fmt.Sprintf(`ST_SetSRID(ST_MakePoint($%d, $%d), 4326)::geography`, lng, lat)
	dist := haversineSQL(lat, lng)
	q := `SELECT ` + profileColumns + `
		FROM courier_profiles cp JOIN users u ON u.id = cp.user_id
		WHERE ` + where + ` AND cp.current_lat IS NOT NULL AND cp.current_lng IS NOT NULL
		  AND ST_DWithin(` + geog + `, ` + origin + fmt.Sprintf(`, $%d::float8 * 1001, false)`, radius) + `
		  AND ` + dist + fmt.Sprintf(` <= $%d::float8`, radius) + `
		ORDER BY ` + dist + `, cp.user_id
		LIMIT $` + fmt.Sprint(limit)
	return r.queryProfiles(ctx, q, args...)
}

// haversineSQL is the great-circle distance in km from ($lat, $lng) to the courier.
func haversineSQL(lat, lng int) string {
	return fmt.Sprintf(`(2 * %g * asin(least(1, sqrt(
			power(sin(radians(cp.current_lat - $%[2]d) / 2), 2) +
			cos(radians($%[2]d)) * cos(radians(cp.current_lat)) *
			power(sin(radians(cp.current_lng - $%[3]d) / 2), 2)))))`, domain.EarthRadiusKm, lat, lng)
}

// HasPostGIS reports whether the postgis extension is installed.
func (r *CourierRepo) HasPostGIS(ctx context.Context) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM pg_extension WHERE extname = 'postgis')`).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("probe postgis: %w", err)
	}
	return ok, nil
}

func (r *CourierRepo) queryProfiles(ctx context.Context, q string, args ...any) ([]domain.CourierProfile, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query couriers: %w", err)
	}
	defer rows.Close()

	out := make([]domain.CourierProfile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan courier: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func filterClause(f domain.CourierFilter) (string, []any) {
	conds := []string{"NOT u.is_banned"}
	var args []any
	if f.VehicleType != nil {
		args = append(args, string(*f.VehicleType))
		conds = append(conds, fmt.Sprintf("cp.vehicle_type = $%d", len(args)))
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		args = append(args, statuses)
		conds = append(conds, fmt.Sprintf("cp.status = ANY($%d)", len(args)))
	}
	return strings.Join(conds, " AND "), args
}

func scanProfile(row pgx.Row) (*domain.CourierProfile, error) {
	var p domain.CourierProfile
	err := row.Scan(&p.UserID, &p.VehicleType, &p.Phone, &p.DisplayName, &p.Status,
		&p.CurrentLat, &p.CurrentLng, &p.LastLocationAt, &p.RatingAvg,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
