// Package courier manages courier profiles: opting in, editing and the
// OFFLINE/AVAILABLE toggle. Dispatch-driven BUSY flips live in package delivery.
package courier

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/domain"
	"service-dispatch/internal/logx"
)

const maxDisplayName = 60

// Error codes returned to clients.
const (
	CodeCourierNotFound = "COURIER_NOT_FOUND"
	CodeStatusLocked    = "COURIER_STATUS_LOCKED"
)

// toggleable are the statuses a courier may set on their own.
var toggleable = []domain.CourierStatus{domain.CourierOffline, domain.CourierAvailable}

// Service coordinates courier profile logic and orchestrates repository calls.
type Service struct {
	repo             Repository
	operationTimeout time.Duration
	logger           logx.Logger
}

// NewService creates and configures a courier Service.
func NewService(r Repository, timeout time.Duration, logger logx.Logger) *Service {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Service{repo: r, operationTimeout: timeout, logger: logger}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.operationTimeout)
}

// BecomeInput carries the fields of a new courier profile.
type BecomeInput struct {
	VehicleType string
	Phone       string
	DisplayName string
}

func validateBecome(in *BecomeInput) error {
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	in.Phone = strings.TrimSpace(in.Phone)
	if err := validateVehicle(in.VehicleType); err != nil {
		return err
	}
	if !domain.ValidatePhone(in.Phone) {
		return apperr.Invalid("INVALID_PHONE", "phone must be 6 to 15 digits")
	}
	return validateDisplayName(in.DisplayName)
}

func validateUpdate(u *domain.CourierProfileUpdate) error {
	if u.VehicleType == nil && u.Phone == nil && u.DisplayName == nil {
		return apperr.Invalid("EMPTY_UPDATE", "nothing to update")
	}
	if u.VehicleType != nil {
		if err := validateVehicle(string(*u.VehicleType)); err != nil {
			return err
		}
	}
	if u.Phone != nil {
		p := strings.TrimSpace(*u.Phone)
		if !domain.ValidatePhone(p) {
			return apperr.Invalid("INVALID_PHONE", "phone must be 6 to 15 digits")
		}
		u.Phone = &p
	}
	if u.DisplayName != nil {
		n := strings.TrimSpace(*u.DisplayName)
		if err := validateDisplayName(n); err != nil {
			return err
		}
		u.DisplayName = &n
	}
	return nil
}

func validateVehicle(v string) error {
	if !domain.VehicleType(v).Valid() {
		return apperr.Invalid("INVALID_VEHICLE_TYPE", "vehicleType must be MOTO, CAR or VAN")
	}
	return nil
}

func validateDisplayName(n string) error {
	if l := utf8.RuneCountInString(n); l == 0 || l > maxDisplayName {
		return apperr.Invalid("INVALID_DISPLAY_NAME", "displayName must be 1 to 60 characters")
	}
	return nil
}

// Become creates or refreshes the caller's courier profile. A new profile starts OFFLINE.
func (s *Service) Become(ctx context.Context, userID uuid.UUID, in BecomeInput) (*domain.CourierProfile, error) {
	if err := validateBecome(&in); err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	p := &domain.CourierProfile{
		UserID:      userID,
		VehicleType: domain.VehicleType(in.VehicleType),
		Phone:       in.Phone,
		DisplayName: in.DisplayName,
		Status:      domain.CourierOffline,
	}
	if err := s.repo.UpsertProfile(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("courier profile saved",
		logx.String("event", "courier_profile_saved"),
		logx.String("courier_id", userID.String()),
		logx.String("status", string(p.Status)),
	)
	return p, nil
}

// Get returns the caller's profile.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*domain.CourierProfile, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	p, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound(CodeCourierNotFound, "courier profile does not exist")
	}
	return p, nil
}

// Update applies a partial profile update and returns the stored profile.
func (s *Service) Update(ctx context.Context, u domain.CourierProfileUpdate) (*domain.CourierProfile, error) {
	if err := validateUpdate(&u); err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	ok, err := s.repo.UpdateProfile(ctx, u)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound(CodeCourierNotFound, "courier profile does not exist")
	}
	return s.repo.GetProfile(ctx, u.UserID)
}

// SetStatus toggles the caller between OFFLINE and AVAILABLE.
// BUSY and SUSPENDED couriers are locked.
func (s *Service) SetStatus(ctx context.Context, userID uuid.UUID, status string) (*domain.CourierProfile, error) {
	to := domain.CourierStatus(strings.ToUpper(strings.TrimSpace(status)))
	if to != domain.CourierOffline && to != domain.CourierAvailable {
		return nil, apperr.Invalid("INVALID_STATUS", "status must be OFFLINE or AVAILABLE")
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	ok, err := s.repo.SetStatusFrom(ctx, userID, to, toggleable)
	if err != nil {
		return nil, err
	}
	p, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound(CodeCourierNotFound, "courier profile does not exist")
	}
	if !ok {
		return nil, apperr.Conflict(CodeStatusLocked, "courier is "+strings.ToLower(string(p.Status)))
	}
	s.logger.Info("courier status changed",
		logx.String("event", "courier_status_changed"),
		logx.String("courier_id", userID.String()),
		logx.String("status", string(to)),
	)
	return p, nil
}
