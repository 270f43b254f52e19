package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sudo-mko/Libsys/internal/config"
	domainErrors "github.com/sudo-mko/Libsys/internal/domain/errors"
	"github.com/sudo-mko/Libsys/internal/domain/models"
	"github.com/sudo-mko/Libsys/internal/domain/repository"
)

// ReservationService manages claims on currently unavailable books:
// pending -> confirmed -> (collected elsewhere) with rejected and expired on
// the side. Confirmed reservations expire after the reservation timeout.
type ReservationService struct {
	reservations repository.ReservationRepository
	books        repository.BookRepository
	users        repository.UserRepository
	settings     SettingsReader
	audit        AuditRecorder
	cfg          config.BorrowingConfig
	logger       *zap.Logger
	now          func() time.Time
}

// NewReservationService creates a new reservation service.
func NewReservationService(
	reservations repository.ReservationRepository,
	books repository.BookRepository,
	users repository.UserRepository,
	settings SettingsReader,
	audit AuditRecorder,
	cfg config.BorrowingConfig,
	logger *zap.Logger,
) *ReservationService {
	return &ReservationService{
		reservations: reservations,
		books:        books,
		users:        users,
		settings:     settings,
		audit:        audit,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *ReservationService) reservationTimeout(ctx context.Context) time.Duration {
	hours := s.cfg.ReservationTimeoutHrs
	if s.settings != nil {
		if v, ok := s.settings.IntSetting(ctx, models.SettingReservationTimeoutHrs); ok && v > 0 {
			hours = v
		}
	}
	return time.Duration(hours) * time.Hour
}

// Reserve places a claim on a book. One live reservation per user and book.
func (s *ReservationService) Reserve(ctx context.Context, userID uuid.UUID, bookID int64, resType models.ReservationType) (*models.Reservation, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.Role.HasCapability(models.CapReserveBooks) {
		return nil, domainErrors.ErrForbidden
	}
	if _, err := s.books.FindByID(ctx, bookID); err != nil {
		return nil, err
	}

	if _, err := s.reservations.FindLiveByUserAndBook(ctx, userID, bookID); err == nil {
		return nil, domainErrors.ErrDuplicateReservation
	} else if !errors.Is(err, domainErrors.ErrReservationNotFound) {
		return nil, err
	}

	if resType == "" {
		resType = models.ReservationTypeRegular
	}
	reservation := &models.Reservation{
		ID:        uuid.New(),
		UserID:    userID,
		BookID:    bookID,
		Status:    models.ReservationStatusPending,
		Type:      resType,
		CreatedAt: s.now(),
	}
	if err := s.reservations.Create(ctx, reservation); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &userID, models.AuditReservationCreate, models.AuditStatusSuccess,
		map[string]interface{}{"reservation_id": reservation.ID.String(), "book_id": bookID}, nil)
	return reservation, nil
}

// Approve confirms a pending reservation.
func (s *ReservationService) Approve(ctx context.Context, reservationID, decidedBy uuid.UUID) (*models.Reservation, error) {
	reservation, err := s.reservations.FindByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if reservation.Status != models.ReservationStatusPending {
		return nil, domainErrors.ErrReservationNotPending
	}

	reservation.Status = models.ReservationStatusConfirmed
	if err := s.reservations.Update(ctx, reservation); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &decidedBy, models.AuditReservationAppr, models.AuditStatusSuccess,
		map[string]interface{}{"reservation_id": reservation.ID.String()}, nil)
	return reservation, nil
}

// Reject declines a pending reservation.
func (s *ReservationService) Reject(ctx context.Context, reservationID, decidedBy uuid.UUID) (*models.Reservation, error) {
	reservation, err := s.reservations.FindByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if reservation.Status != models.ReservationStatusPending {
		return nil, domainErrors.ErrReservationNotPending
	}

	reservation.Status = models.ReservationStatusRejected
	if err := s.reservations.Update(ctx, reservation); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &decidedBy, models.AuditReservationReject, models.AuditStatusSuccess,
		map[string]interface{}{"reservation_id": reservation.ID.String()}, nil)
	return reservation, nil
}

// Cancel lets the owner withdraw a pending reservation. The row is deleted,
// matching a claim that never took effect.
func (s *ReservationService) Cancel(ctx context.Context, reservationID, userID uuid.UUID) error {
	reservation, err := s.reservations.FindByID(ctx, reservationID)
	if err != nil {
		return err
	}
	if reservation.UserID != userID {
		return domainErrors.ErrForbidden
	}
	if reservation.Status != models.ReservationStatusPending {
		return domainErrors.ErrReservationNotPending
	}
	return s.reservations.Delete(ctx, reservationID)
}

// ExpireStale expires confirmed reservations older than the timeout.
// Idempotent sweep.
func (s *ReservationService) ExpireStale(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.reservationTimeout(ctx))
	stale, err := s.reservations.FindConfirmedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, reservation := range stale {
		reservation.Status = models.ReservationStatusExpired
		if err := s.reservations.Update(ctx, reservation); err != nil {
			s.logger.Error("Failed to expire reservation",
				zap.Error(err), zap.String("reservation_id", reservation.ID.String()))
			continue
		}
		s.audit.Record(ctx, &reservation.UserID, models.AuditReservationExpire, models.AuditStatusSuccess,
			map[string]interface{}{"reservation_id": reservation.ID.String(), "sweep": true}, nil)
		expired++
	}
	return expired, nil
}

// ListForUser returns a user's reservations.
func (s *ReservationService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Reservation, error) {
	return s.reservations.FindByUserID(ctx, userID)
}
