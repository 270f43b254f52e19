package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sudo-mko/Libsys/internal/config"
	domainErrors "github.com/sudo-mko/Libsys/internal/domain/errors"
	"github.com/sudo-mko/Libsys/internal/domain/models"
	"github.com/sudo-mko/Libsys/internal/domain/repository"
	"github.com/sudo-mko/Libsys/internal/utils/metrics"
	"github.com/sudo-mko/Libsys/internal/utils/random"
)

// pickupCodeAttempts bounds the rejection sampling loop for unique codes.
// With a 36^10 space collisions are vanishingly rare; hitting the bound means
// the randomness source is broken.
const pickupCodeAttempts = 10

// BorrowingService drives the borrowing lifecycle:
// pending -> approved -> borrowed -> returned, with rejected, expired and the
// derived overdue state on the side, plus the one-shot extension sub-workflow.
type BorrowingService struct {
	borrowings repository.BorrowingRepository
	extensions repository.ExtensionRequestRepository
	books      repository.BookRepository
	users      repository.UserRepository
	fines      repository.FineRepository
	tx         repository.TransactionManager
	calculator *FineCalculator
	settings   SettingsReader
	audit      AuditRecorder
	cfg        config.BorrowingConfig
	logger     *zap.Logger
	now        func() time.Time
}

// NewBorrowingService creates a new borrowing service.
func NewBorrowingService(
	borrowings repository.BorrowingRepository,
	extensions repository.ExtensionRequestRepository,
	books repository.BookRepository,
	users repository.UserRepository,
	fines repository.FineRepository,
	tx repository.TransactionManager,
	calculator *FineCalculator,
	settings SettingsReader,
	audit AuditRecorder,
	cfg config.BorrowingConfig,
	logger *zap.Logger,
) *BorrowingService {
	return &BorrowingService{
		borrowings: borrowings,
		extensions: extensions,
		books:      books,
		users:      users,
		fines:      fines,
		tx:         tx,
		calculator: calculator,
		settings:   settings,
		audit:      audit,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *BorrowingService) pickupWindow(ctx context.Context) time.Duration {
	days := s.cfg.PickupWindowDays
	if s.settings != nil {
		if v, ok := s.settings.IntSetting(ctx, models.SettingPickupCodeExpiryDays); ok && v > 0 {
			days = v
		}
	}
	return time.Duration(days) * 24 * time.Hour
}

func (s *BorrowingService) loanPeriodDays(ctx context.Context, user *models.User) int {
	days := s.cfg.DefaultLoanPeriodDays
	if user.Membership != nil && user.Membership.LoanPeriodDays > 0 {
		days = user.Membership.LoanPeriodDays
	}
	// A system-wide ceiling trumps the tier allowance.
	if s.settings != nil {
		if limit, ok := s.settings.IntSetting(ctx, models.SettingMaxBorrowingDays); ok && limit > 0 && limit < days {
			days = limit
		}
	}
	return days
}

// calculatorFor overlays the runtime fine settings, when present, onto the
// configured tier table. Invalid overrides are logged and ignored so a bad
// setting can never break returns.
func (s *BorrowingService) calculatorFor(ctx context.Context) *FineCalculator {
	if s.settings == nil {
		return s.calculator
	}

	cfg := s.calculator.Config()
	changed := false
	tierDayKeys := []string{models.SettingFineTier1Days, models.SettingFineTier2Days}
	tierRateKeys := []string{models.SettingFineTier1Rate, models.SettingFineTier2Rate, models.SettingFineTier3Rate}
	for i, key := range tierDayKeys {
		if i >= len(cfg.Tiers) {
			break
		}
		if v, ok := s.settings.IntSetting(ctx, key); ok && v > 0 {
			cfg.Tiers[i].UpToDay = v
			changed = true
		}
	}
	for i, key := range tierRateKeys {
		if i >= len(cfg.Tiers) {
			break
		}
		if v, ok := s.settings.DecimalSetting(ctx, key); ok {
			cfg.Tiers[i].Rate = v.String()
			changed = true
		}
	}
	if v, ok := s.settings.DecimalSetting(ctx, models.SettingDamagedProcessingFee); ok {
		cfg.ProcessingFee = v.String()
		changed = true
	}
	if !changed {
		return s.calculator
	}

	calc, err := NewFineCalculator(cfg)
	if err != nil {
		s.logger.Warn("Ignoring invalid fine settings", zap.Error(err))
		return s.calculator
	}
	return calc
}

// Request creates a pending borrowing. Only members borrow; a second live
// borrowing of the same book by the same user is rejected, as is a request
// for a book somebody else currently holds.
func (s *BorrowingService) Request(ctx context.Context, userID uuid.UUID, bookID int64) (*models.Borrowing, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.Role.HasCapability(models.CapBorrowBooks) {
		return nil, domainErrors.ErrForbidden
	}
	if _, err := s.books.FindByID(ctx, bookID); err != nil {
		return nil, err
	}

	if _, err := s.borrowings.FindNonTerminalByUserAndBook(ctx, userID, bookID); err == nil {
		return nil, domainErrors.ErrDuplicateBorrowing
	} else if !errors.Is(err, domainErrors.ErrBorrowingNotFound) {
		return nil, err
	}

	active, err := s.borrowings.CountActiveByBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if active > 0 {
		return nil, domainErrors.ErrBookUnavailable
	}

	borrowing := &models.Borrowing{
		ID:          uuid.New(),
		UserID:      userID,
		BookID:      bookID,
		Status:      models.BorrowingStatusPending,
		RequestDate: s.now(),
	}
	if err := s.borrowings.Create(ctx, borrowing); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &userID, models.AuditBorrowingRequest, models.AuditStatusSuccess,
		map[string]interface{}{"borrowing_id": borrowing.ID.String(), "book_id": bookID}, nil)
	metrics.BorrowingTransitionsTotal.WithLabelValues(string(models.BorrowingStatusPending)).Inc()
	return borrowing, nil
}

// Approve moves a pending request to approved and issues the pickup code.
// The availability re-check and the status write run inside one transaction
// so two librarians cannot approve the same copy to different members.
func (s *BorrowingService) Approve(ctx context.Context, borrowingID, approvedBy uuid.UUID) (*models.Borrowing, error) {
	var approved *models.Borrowing
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		borrowing, err := s.borrowings.FindByID(ctx, borrowingID)
		if err != nil {
			return err
		}
		if borrowing.Status != models.BorrowingStatusPending {
			return domainErrors.ErrBorrowingNotPending
		}

		active, err := s.borrowings.CountActiveByBook(ctx, borrowing.BookID)
		if err != nil {
			return err
		}
		outstanding, err := s.borrowings.CountApprovedByBook(ctx, borrowing.BookID)
		if err != nil {
			return err
		}
		if active > 0 || outstanding > 0 {
			return domainErrors.ErrBookUnavailable
		}

		code, err := s.generatePickupCode(ctx)
		if err != nil {
			return err
		}

		now := s.now()
		borrowing.Status = models.BorrowingStatusApproved
		borrowing.ApprovedDate = &now
		borrowing.PickupCode = &code
		if err := s.borrowings.Update(ctx, borrowing); err != nil {
			return err
		}
		approved = borrowing
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &approvedBy, models.AuditBorrowingApprove, models.AuditStatusSuccess,
		map[string]interface{}{"borrowing_id": approved.ID.String(), "book_id": approved.BookID}, nil)
	metrics.BorrowingTransitionsTotal.WithLabelValues(string(models.BorrowingStatusApproved)).Inc()
	return approved, nil
}

// generatePickupCode draws codes until one is unused. Uniqueness is only
// required among outstanding codes, but the check spans all rows, which is
// stricter and simpler.
func (s *BorrowingService) generatePickupCode(ctx context.Context) (string, error) {
	for i := 0; i < pickupCodeAttempts; i++ {
		code, err := random.GeneratePickupCode(models.PickupCodeLength)
		if err != nil {
			return "", err
		}
		exists, err := s.borrowings.PickupCodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique pickup code after %d attempts", pickupCodeAttempts)
}

// Reject moves a pending request to rejected with a reason.
func (s *BorrowingService) Reject(ctx context.Context, borrowingID, rejectedBy uuid.UUID, reason string) (*models.Borrowing, error) {
	borrowing, err := s.borrowings.FindByID(ctx, borrowingID)
	if err != nil {
		return nil, err
	}
	if borrowing.Status != models.BorrowingStatusPending {
		return nil, domainErrors.ErrBorrowingNotPending
	}

	now := s.now()
	borrowing.Status = models.BorrowingStatusRejected
	borrowing.RejectedBy = &rejectedBy
	borrowing.RejectedDate = &now
	borrowing.RejectedReason = reason
	if err := s.borrowings.Update(ctx, borrowing); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &rejectedBy, models.AuditBorrowingReject, models.AuditStatusSuccess,
		map[string]interface{}{"borrowing_id": borrowing.ID.String(), "reason": reason}, nil)
	metrics.BorrowingTransitionsTotal.WithLabelValues(string(models.BorrowingStatusRejected)).Inc()
	return borrowing, nil
}

// Cancel lets the requesting member withdraw a still-pending request.
func (s *BorrowingService) Cancel(ctx context.Context, borrowingID, userID uuid.UUID) error {
	borrowing, err := s.borrowings.FindByID(ctx, borrowingID)
	if err != nil {
		return err
	}
	if borrowing.UserID != userID {
		return domainErrors.ErrForbidden
	}
	if borrowing.Status != models.BorrowingStatusPending {
		return domainErrors.ErrBorrowingNotPending
	}

	now := s.now()
	borrowing.Status = models.BorrowingStatusRejected
	borrowing.RejectedBy = &userID
	borrowing.RejectedDate = &now
	borrowing.RejectedReason = "cancelled by requester"
	return s.borrowings.Update(ctx, borrowing)
}

// RedeemPickupCode converts an approved request into an active loan when the
// member presents the code in person. A code past the pickup window expires
// the borrowing on the spot and reports the expiry, distinct from an unknown
// code.
func (s *BorrowingService) RedeemPickupCode(ctx context.Context, code string, redeemedBy uuid.UUID) (*models.Borrowing, error) {
	borrowing, err := s.borrowings.FindByPickupCode(ctx, code)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if borrowing.ApprovedDate != nil && now.After(borrowing.ApprovedDate.Add(s.pickupWindow(ctx))) {
		borrowing.Status = models.BorrowingStatusExpired
		borrowing.PickupCode = nil
		if err := s.borrowings.Update(ctx, borrowing); err != nil {
			return nil, err
		}
		s.audit.Record(ctx, &borrowing.UserID, models.AuditPickupExpired, models.AuditStatusFailure,
			map[string]interface{}{"borrowing_id": borrowing.ID.String()}, nil)
		metrics.BorrowingTransitionsTotal.WithLabelValues(string(models.BorrowingStatusExpired)).Inc()
		return nil, domainErrors.ErrPickupCodeExpired
	}

	user, err := s.users.FindByID(ctx, borrowing.UserID)
	if err != nil {
		return nil, err
	}

	due := now.AddDate(0, 0, s.loanPeriodDays(ctx, user))
	borrowing.Status = models.BorrowingStatusBorrowed
	borrowing.PickupDate = &now
	borrowing.DueDate = &due
	borrowing.PickupCode = nil
	if err := s.borrowings.Update(ctx, borrowing); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &redeemedBy, models.AuditBookBorrow, models.AuditStatusSuccess,
		map[string]interface{}{"borrowing_id": borrowing.ID.String(), "due_date": due}, nil)
	metrics.BorrowingTransitionsTotal.WithLabelValues(string(models.BorrowingStatusBorrowed)).Inc()
	return borrowing, nil
}

// Return closes an active loan. A late return creates an overdue fine
// computed by the tier table; the fine is attached but never blocks the
// return itself.
func (s *BorrowingService) Return(ctx context.Context, borrowingID, recordedBy uuid.UUID) (*models.Borrowing, *models.Fine, error) {
	borrowing, err := s.borrowings.FindByID(ctx, borrowingID)
	if err != nil {
		return nil, nil, err
	}
	if !borrowing.Active() {
		return nil, nil, domainErrors.ErrBorrowingNotActive
	}

	now := s.now()
	borrowing.Status = models.BorrowingStatusReturned
	borrowing.ReturnDate = &now
	if err := s.borrowings.Update(ctx, borrowing); err != nil {
		return nil, nil, err
	}

	var fine *models.Fine
	if borrowing.DueDate != nil && now.After(*borrowing.DueDate) {
		daysOverdue := daysBetween(*borrowing.DueDate, now)
		fine = &models.Fine{
			ID:          uuid.New(),
			BorrowingID: borrowing.ID,
			Amount:      s.calculatorFor(ctx).Overdue(daysOverdue),
			DaysOverdue: daysOverdue,
			FineType:    models.FineTypeOverdue,
		}
		if err := s.fines.Create(ctx, fine); err != nil {
			return nil, nil, err
		}
		s.audit.Record(ctx, &borrowing.UserID, models.AuditFineCreate, models.AuditStatusSuccess,
			map[string]interface{}{"fine_id": fine.ID.String(), "amount": fine.Amount.String(), "days_overdue": daysOverdue}, nil)
		metrics.FinesCreatedTotal.WithLabelValues(string(models.FineTypeOverdue)).Inc()
	}

	s.audit.Record(ctx, &recordedBy, models.AuditBookReturn, models.AuditStatusSuccess,
		map[string]interface{}{"borrowing_id": borrowing.ID.String()}, nil)
	metrics.BorrowingTransitionsTotal.WithLabelValues(string(models.BorrowingStatusReturned)).Inc()
	return borrowing, fine, nil
}

// ReportDamaged records a damaged/lost book on an active or just-returned
// loan: replacement cost plus the processing fee.
func (s *BorrowingService) ReportDamaged(ctx context.Context, borrowingID, recordedBy uuid.UUID) (*models.Fine, error) {
	borrowing, err := s.borrowings.FindByID(ctx, borrowingID)
	if err != nil {
		return nil, err
	}
	if !borrowing.Active() && borrowing.Status != models.BorrowingStatusReturned {
		return nil, domainErrors.ErrBorrowingNotActive
	}

	book, err := s.books.FindByID(ctx, borrowing.BookID)
	if err != nil {
		return nil, err
	}
	if book.Price.IsNegative() {
		return nil, domainErrors.ErrNegativeAmount
	}

	fine := &models.Fine{
		ID:          uuid.New(),
		BorrowingID: borrowing.ID,
		Amount:      s.calculatorFor(ctx).Damaged(book.Price),
		FineType:    models.FineTypeDamaged,
	}
	if err := s.fines.Create(ctx, fine); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &recordedBy, models.AuditFineCreate, models.AuditStatusSuccess,
		map[string]interface{}{"fine_id": fine.ID.String(), "amount": fine.Amount.String(), "type": "damaged"}, nil)
	metrics.FinesCreatedTotal.WithLabelValues(string(models.FineTypeDamaged)).Inc()
	return fine, nil
}

// ExpireStalePickups expires approved borrowings whose pickup window has
// passed. Idempotent: already-expired rows are simply not selected again.
func (s *BorrowingService) ExpireStalePickups(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.pickupWindow(ctx))
	stale, err := s.borrowings.FindApprovedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, borrowing := range stale {
		borrowing.Status = models.BorrowingStatusExpired
		borrowing.PickupCode = nil
		if err := s.borrowings.Update(ctx, borrowing); err != nil {
			s.logger.Error("Failed to expire stale pickup",
				zap.Error(err), zap.String("borrowing_id", borrowing.ID.String()))
			continue
		}
		s.audit.Record(ctx, &borrowing.UserID, models.AuditPickupExpired, models.AuditStatusSuccess,
			map[string]interface{}{"borrowing_id": borrowing.ID.String(), "sweep": true}, nil)
		metrics.BorrowingTransitionsTotal.WithLabelValues(string(models.BorrowingStatusExpired)).Inc()
		expired++
	}
	return expired, nil
}

// ListForUser returns a user's borrowings with the overdue state derived.
func (s *BorrowingService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Borrowing, error) {
	borrowings, err := s.borrowings.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for _, b := range borrowings {
		b.Status = b.EffectiveStatus(now)
	}
	return borrowings, nil
}

// RequestExtension opens the one-shot extension sub-workflow for an active
// loan. The borrowing must not already be extended, the membership tier must
// allow extensions, and only one request may exist per loan.
func (s *BorrowingService) RequestExtension(ctx context.Context, borrowingID, userID uuid.UUID) (*models.ExtensionRequest, error) {
	borrowing, err := s.borrowings.FindByID(ctx, borrowingID)
	if err != nil {
		return nil, err
	}
	if borrowing.UserID != userID {
		return nil, domainErrors.ErrForbidden
	}
	if !borrowing.Active() {
		return nil, domainErrors.ErrBorrowingNotActive
	}
	if borrowing.IsExtended {
		return nil, domainErrors.ErrAlreadyExtended
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.Membership.AllowsExtensions() && s.cfg.DefaultExtensionDays <= 0 {
		return nil, domainErrors.ErrExtensionNotEligible
	}

	req := &models.ExtensionRequest{
		ID:          uuid.New(),
		BorrowingID: borrowingID,
		RequestDate: s.now(),
		Status:      models.ExtensionStatusPending,
	}
	if err := s.extensions.Create(ctx, req); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &userID, models.AuditExtensionRequest, models.AuditStatusSuccess,
		map[string]interface{}{"borrowing_id": borrowingID.String()}, nil)
	return req, nil
}

// ApproveExtension extends the due date by the member's tier allowance and
// marks the loan extended so no second extension is possible.
func (s *BorrowingService) ApproveExtension(ctx context.Context, requestID, decidedBy uuid.UUID) (*models.ExtensionRequest, error) {
	req, err := s.extensions.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.ExtensionStatusPending {
		return nil, domainErrors.ErrExtensionNotPending
	}

	borrowing, err := s.borrowings.FindByID(ctx, req.BorrowingID)
	if err != nil {
		return nil, err
	}
	if !borrowing.Active() || borrowing.DueDate == nil {
		return nil, domainErrors.ErrBorrowingNotActive
	}

	extensionDays := s.cfg.DefaultExtensionDays
	if user, err := s.users.FindByID(ctx, borrowing.UserID); err == nil && user.Membership.AllowsExtensions() {
		extensionDays = user.Membership.ExtensionDays
	}

	newDue := borrowing.DueDate.AddDate(0, 0, extensionDays)
	borrowing.DueDate = &newDue
	borrowing.IsExtended = true
	if err := s.borrowings.Update(ctx, borrowing); err != nil {
		return nil, err
	}

	now := s.now()
	req.Status = models.ExtensionStatusApproved
	req.DecidedBy = &decidedBy
	req.DecidedAt = &now
	if err := s.extensions.Update(ctx, req); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &decidedBy, models.AuditExtensionApprove, models.AuditStatusSuccess,
		map[string]interface{}{"borrowing_id": borrowing.ID.String(), "new_due_date": newDue}, nil)
	return req, nil
}

// RejectExtension declines a pending extension request.
func (s *BorrowingService) RejectExtension(ctx context.Context, requestID, decidedBy uuid.UUID, reason string) (*models.ExtensionRequest, error) {
	req, err := s.extensions.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.ExtensionStatusPending {
		return nil, domainErrors.ErrExtensionNotPending
	}

	now := s.now()
	req.Status = models.ExtensionStatusRejected
	req.DecidedBy = &decidedBy
	req.DecidedAt = &now
	req.RejectionReason = reason
	if err := s.extensions.Update(ctx, req); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &decidedBy, models.AuditExtensionReject, models.AuditStatusSuccess,
		map[string]interface{}{"borrowing_id": req.BorrowingID.String(), "reason": reason}, nil)
	return req, nil
}

// daysBetween counts whole days from a to b, rounding any partial day up.
// A book one hour late is one day overdue.
func daysBetween(a, b time.Time) int {
	if !b.After(a) {
		return 0
	}
	diff := b.Sub(a)
	days := int(diff / (24 * time.Hour))
	if diff%(24*time.Hour) > 0 {
		days++
	}
	return days
}
