package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/domain"
	"service-dispatch/internal/ports/deliverytx"
)

const deliveryColumns = `
	d.id, d.order_id, d.store_id, d.buyer_id, d.courier_id, d.status,
	d.pickup, d.dropoff, d.assigned_at, d.picked_up_at, d.delivered_at,
	d.notes, d.created_at, d.updated_at, s.owner_id`

const requestColumns = `
	id, delivery_id, store_id, courier_id, message, status,
	expires_at, responded_at, created_at`

// DeliveryRepo stores deliveries and delivery requests.
type DeliveryRepo struct {
	db *pgxpool.Pool
}

// NewDeliveryRepo creates a new DeliveryRepo.
func NewDeliveryRepo(db *pgxpool.Pool) *DeliveryRepo {
	return &DeliveryRepo{db: db}
}

// WithTx opens a transaction and executes fn within it.
func (r *DeliveryRepo) WithTx(ctx context.Context, fn func(tx deliverytx.Repository) error) (err error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(&TxRepo{tx: tx}); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback tx: %w (original error: %s)", rbErr, err.Error())
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Get returns the delivery with its store owner, or nil if absent.
func (r *DeliveryRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Delivery, error) {
	d, err := scanDelivery(r.db.QueryRow(ctx, `
		SELECT `+deliveryColumns+`
		FROM deliveries d JOIN stores s ON s.id = d.store_id
		WHERE d.id = $1`, id))
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get delivery %s: %w", id, err)
	}
	return d, nil
}

// GetByOrderID returns the delivery for an order, or nil if absent.
func (r *DeliveryRepo) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Delivery, error) {
	d, err := scanDelivery(r.db.QueryRow(ctx, `
		SELECT `+deliveryColumns+`
		FROM deliveries d JOIN stores s ON s.id = d.store_id
		WHERE d.order_id = $1`, orderID))
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get delivery by order %s: %w", orderID, err)
	}
	return d, nil
}

// GetRequest returns a delivery request, or nil if absent.
func (r *DeliveryRepo) GetRequest(ctx context.Context, id uuid.UUID) (*domain.DeliveryRequest, error) {
	req, err := scanRequest(r.db.QueryRow(ctx, `SELECT `+requestColumns+` FROM delivery_requests WHERE id = $1`, id))
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get request %s: %w", id, err)
	}
	return req, nil
}

// ListRequestsByCourier returns requests addressed to courierID, newest first.
// A nil status returns every status.
func (r *DeliveryRepo) ListRequestsByCourier(ctx context.Context, courierID uuid.UUID, status *domain.RequestStatus) ([]domain.DeliveryRequest, error) {
	q := `SELECT ` + requestColumns + ` FROM delivery_requests WHERE courier_id = $1`
	args := []any{courierID}
	if status != nil {
		q += ` AND status = $2`
		args = append(args, string(*status))
	}
	q += ` ORDER BY created_at DESC, id`

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list requests for courier %s: %w", courierID, err)
	}
	defer rows.Close()

	out := make([]domain.DeliveryRequest, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		out = append(out, *req)
	}
	return out, rows.Err()
}

// DeclineRequest moves a PENDING request addressed to courierID to DECLINED.
func (r *DeliveryRepo) DeclineRequest(ctx context.Context, id, courierID uuid.UUID, at time.Time) (bool, error) {
	ct, err := r.db.Exec(ctx, `
		UPDATE delivery_requests
		SET status = 'DECLINED', responded_at = $3
		WHERE id = $1 AND courier_id = $2 AND status = 'PENDING'`, id, courierID, at)
	if err != nil {
		return false, fmt.Errorf("decline request %s: %w", id, err)
	}
	return ct.RowsAffected() == 1, nil
}

// ExpireRequest moves one PENDING request to EXPIRED.
func (r *DeliveryRepo) ExpireRequest(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	ct, err := r.db.Exec(ctx, `
		UPDATE delivery_requests
		SET status = 'EXPIRED', responded_at = $2
		WHERE id = $1 AND status = 'PENDING' AND expires_at <= $2`, id, at)
	if err != nil {
		return false, fmt.Errorf("expire request %s: %w", id, err)
	}
	return ct.RowsAffected() == 1, nil
}

// ExpireStale moves every PENDING request past its expiry to EXPIRED.
func (r *DeliveryRepo) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	ct, err := r.db.Exec(ctx, `
		UPDATE delivery_requests
		SET status = 'EXPIRED', responded_at = $1
		WHERE status = 'PENDING' AND expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("expire stale requests: %w", err)
	}
	return ct.RowsAffected(), nil
}

// TxRepo implements deliverytx.Repository on top of a pgx transaction.
type TxRepo struct {
	tx pgx.Tx
}

// LockDelivery reads the delivery row FOR UPDATE, serialising writers on it.
func (r *TxRepo) LockDelivery(ctx context.Context, id uuid.UUID) (*domain.Delivery, error) {
	d, err := scanDelivery(r.tx.QueryRow(ctx, `
		SELECT `+deliveryColumns+`
		FROM deliveries d JOIN stores s ON s.id = d.store_id
		WHERE d.id = $1
		FOR UPDATE OF d`, id))
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock delivery %s: %w", id, err)
	}
	return d, nil
}

// InsertDelivery inserts a new delivery. A duplicate order surfaces as a unique violation.
func (r *TxRepo) InsertDelivery(ctx context.Context, d *domain.Delivery) error {
	pickup, err := json.Marshal(d.Pickup)
	if err != nil {
		return fmt.Errorf("encode pickup: %w", err)
	}
	dropoff, err := json.Marshal(d.Dropoff)
	if err != nil {
		return fmt.Errorf("encode dropoff: %w", err)
	}
	err = r.tx.QueryRow(ctx, `
		INSERT INTO deliveries (id, order_id, store_id, buyer_id, status, pickup, dropoff, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING created_at`,
		d.ID, d.OrderID, d.StoreID, d.BuyerID, string(d.Status), pickup, dropoff, d.Notes, d.CreatedAt,
	).Scan(&d.CreatedAt)
	if err != nil {
		if IsDuplicate(err) {
			return apperr.Conflict("DELIVERY_EXISTS", "order already has a delivery")
		}
		return fmt.Errorf("insert delivery: %w", err)
	}
	d.UpdatedAt = d.CreatedAt
	return nil
}

// AssignCourier sets the courier on an UNASSIGNED delivery without one.
func (r *TxRepo) AssignCourier(ctx context.Context, deliveryID, courierID uuid.UUID, at time.Time) (bool, error) {
	ct, err := r.tx.Exec(ctx, `
		UPDATE deliveries
		SET courier_id = $2, status = 'ASSIGNED', assigned_at = $3, updated_at = $3
		WHERE id = $1 AND courier_id IS NULL AND status = 'UNASSIGNED'`, deliveryID, courierID, at)
	if err != nil {
		return false, fmt.Errorf("assign courier to delivery %s: %w", deliveryID, err)
	}
	return ct.RowsAffected() == 1, nil
}

// TransitionDelivery moves the delivery to `to` only from a legal source state.
func (r *TxRepo) TransitionDelivery(ctx context.Context, deliveryID uuid.UUID, to domain.DeliveryStatus, at time.Time) (bool, error) {
	from := domain.AllowedFrom(to)
	if len(from) == 0 {
		return false, nil
	}
	allowed := make([]string, len(from))
	for i, s := range from {
		allowed[i] = string(s)
	}

	ct, err := r.tx.Exec(ctx, `
		UPDATE deliveries
		SET status = $2,
		    picked_up_at = CASE WHEN $2 = 'PICKED_UP' THEN $4 ELSE picked_up_at END,
		    delivered_at = CASE WHEN $2 = 'DELIVERED' THEN $4 ELSE delivered_at END,
		    updated_at = $4
		WHERE id = $1 AND status = ANY($3)`, deliveryID, string(to), allowed, at)
	if err != nil {
		return false, fmt.Errorf("transition delivery %s to %s: %w", deliveryID, to, err)
	}
	return ct.RowsAffected() == 1, nil
}

// GetCourierProfile reads a courier profile inside the transaction.
func (r *TxRepo) GetCourierProfile(ctx context.Context, userID uuid.UUID) (*domain.CourierProfile, error) {
	p, err := scanProfile(r.tx.QueryRow(ctx, `SELECT `+profileColumns+` FROM courier_profiles cp WHERE cp.user_id = $1`, userID))
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get courier profile %s: %w", userID, err)
	}
	return p, nil
}

// SetCourierStatus overwrites the courier's status.
func (r *TxRepo) SetCourierStatus(ctx context.Context, userID uuid.UUID, status domain.CourierStatus) error {
	ct, err := r.tx.Exec(ctx, `
		UPDATE courier_profiles SET status = $2, updated_at = now()
		WHERE user_id = $1`, userID, string(status))
	if err != nil {
		return fmt.Errorf("set courier %s status: %w", userID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("courier profile %s not found", userID)
	}
	return nil
}

// SetCourierStatusFrom changes the courier's status only if the current one is
// in from. The row lock it takes serialises concurrent claims on one courier.
func (r *TxRepo) SetCourierStatusFrom(ctx context.Context, userID uuid.UUID, to domain.CourierStatus, from []domain.CourierStatus) (bool, error) {
	allowed := make([]string, len(from))
	for i, st := range from {
		allowed[i] = string(st)
	}
	ct, err := r.tx.Exec(ctx, `
		UPDATE courier_profiles SET status = $2, updated_at = now()
		WHERE user_id = $1 AND status = ANY($3)`, userID, string(to), allowed)
	if err != nil {
		return false, fmt.Errorf("set courier %s status: %w", userID, err)
	}
	return ct.RowsAffected() == 1, nil
}

// HasPendingRequest reports whether courierID already holds a PENDING offer for the delivery.
func (r *TxRepo) HasPendingRequest(ctx context.Context, deliveryID, courierID uuid.UUID) (bool, error) {
	var exists bool
	err := r.tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM delivery_requests
			WHERE delivery_id = $1 AND courier_id = $2 AND status = 'PENDING'
		)`, deliveryID, courierID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check pending request: %w", err)
	}
	return exists, nil
}

// InsertRequest inserts a PENDING request.
func (r *TxRepo) InsertRequest(ctx context.Context, req *domain.DeliveryRequest) error {
	_, err := r.tx.Exec(ctx, `
		INSERT INTO delivery_requests (id, delivery_id, store_id, courier_id, message, status, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		req.ID, req.DeliveryID, req.StoreID, req.CourierID, req.Message, string(req.Status), req.ExpiresAt, req.CreatedAt)
	if err != nil {
		if IsDuplicate(err) {
			return apperr.Conflict("REQUEST_EXISTS", "courier already has a pending offer for this delivery")
		}
		return fmt.Errorf("insert request: %w", err)
	}
	return nil
}

// AcceptRequest flips a live PENDING request addressed to courierID to ACCEPTED.
func (r *TxRepo) AcceptRequest(ctx context.Context, requestID, courierID uuid.UUID, at time.Time) (bool, error) {
	ct, err := r.tx.Exec(ctx, `
		UPDATE delivery_requests
		SET status = 'ACCEPTED', responded_at = $3
		WHERE id = $1 AND courier_id = $2 AND status = 'PENDING' AND expires_at > $3`,
		requestID, courierID, at)
	if err != nil {
		if IsDuplicate(err) {
			return false, apperr.Conflict("DELIVERY_TAKEN", "offer no longer available")
		}
		return false, fmt.Errorf("accept request %s: %w", requestID, err)
	}
	return ct.RowsAffected() == 1, nil
}

// CancelPendingRequests cancels every PENDING request of the delivery.
func (r *TxRepo) CancelPendingRequests(ctx context.Context, deliveryID uuid.UUID, at time.Time) (int64, error) {
	ct, err := r.tx.Exec(ctx, `
		UPDATE delivery_requests
		SET status = 'CANCELLED', responded_at = $2
		WHERE delivery_id = $1 AND status = 'PENDING'`, deliveryID, at)
	if err != nil {
		return 0, fmt.Errorf("cancel pending requests of %s: %w", deliveryID, err)
	}
	return ct.RowsAffected(), nil
}

// SetOrderDeliveryStatus mirrors the delivery status onto the order.
func (r *TxRepo) SetOrderDeliveryStatus(ctx context.Context, orderID uuid.UUID, status domain.DeliveryStatus) error {
	return r.updateOrder(ctx, `UPDATE orders SET delivery_status = $2, updated_at = now() WHERE id = $1`, orderID, string(status))
}

// SetOrderStatus writes the fulfilment status of the order.
func (r *TxRepo) SetOrderStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) error {
	return r.updateOrder(ctx, `UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`, orderID, string(status))
}

func (r *TxRepo) updateOrder(ctx context.Context, q string, orderID uuid.UUID, value string) error {
	ct, err := r.tx.Exec(ctx, q, orderID, value)
	if err != nil {
		return fmt.Errorf("sync order %s: %w", orderID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("order %s not found", orderID)
	}
	return nil
}

func scanDelivery(row pgx.Row) (*domain.Delivery, error) {
	var (
		d               domain.Delivery
		pickup, dropoff []byte
	)
	err := row.Scan(&d.ID, &d.OrderID, &d.StoreID, &d.BuyerID, &d.CourierID, &d.Status,
		&pickup, &dropoff, &d.AssignedAt, &d.PickedUpAt, &d.DeliveredAt,
		&d.Notes, &d.CreatedAt, &d.UpdatedAt, &d.StoreOwnerID)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(pickup, &d.Pickup); err != nil {
		return nil, fmt.Errorf("decode pickup: %w", err)
	}
	if err := json.Unmarshal(dropoff, &d.Dropoff); err != nil {
		return nil, fmt.Errorf("decode dropoff: %w", err)
	}
	return &d, nil
}

func scanRequest(row pgx.Row) (*domain.DeliveryRequest, error) {
	var req domain.DeliveryRequest
	err := row.Scan(&req.ID, &req.DeliveryID, &req.StoreID, &req.CourierID, &req.Message, &req.Status,
		&req.ExpiresAt, &req.RespondedAt, &req.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &req, nil
}
