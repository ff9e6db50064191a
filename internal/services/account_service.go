package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"devicereg/internal/authz"
	"devicereg/internal/models"
	"devicereg/internal/repositories"
)

type AccountService interface {
	Register(ctx context.Context, email, password, registrant string) error
	Login(ctx context.Context, email, password string) error

	SetSelfDestruct(ctx context.Context, caller, email, deviceID string, value bool) error
	GetSelfDestruct(ctx context.Context, email, deviceID string) (bool, error)
	TriggerWipe(ctx context.Context, email, deviceID string) error

	SetUTMLink(ctx context.Context, email, link string) error
	GetUTMLink(ctx context.Context, email string) (string, error)

	RegisterDevice(ctx context.Context, info models.DeviceInfo) error
	ListAccounts(ctx context.Context, registrant string) ([]models.AccountSummary, error)
}

// NormalizeEmail is applied to every email before it reaches storage or the
// status hub.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(email)
}

// StatusPublisher pushes flag changes to connected device agents.
type StatusPublisher interface {
	PublishSelfDestruct(email, deviceID string, value bool)
}

type accountService struct {
	repo        repositories.AccountRepository
	registrants *authz.Registrants
	authService AuthService

	// optional, nil when not configured
	emailService EmailService
	alerts       AlertService
	publisher    StatusPublisher
}

func NewAccountService(
	repo repositories.AccountRepository,
	registrants *authz.Registrants,
	authService AuthService,
	emailService EmailService,
	alerts AlertService,
	publisher StatusPublisher,
) AccountService {
	return &accountService{
		repo:         repo,
		registrants:  registrants,
		authService:  authService,
		emailService: emailService,
		alerts:       alerts,
		publisher:    publisher,
	}
}

func (s *accountService) Register(ctx context.Context, email, password, registrant string) error {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return fmt.Errorf("%w: email and password are required", ErrValidation)
	}
	if !s.registrants.Valid(registrant) {
		return fmt.Errorf("%w: %q", ErrInvalidRegistrant, registrant)
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return err
	}

	hash, err := s.authService.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	acc := &models.Account{
		Email:        email,
		PasswordHash: hash,
		RegisteredBy: registrant,
		SelfDestruct: false,
		UTMLink:      "",
	}
	if err := s.repo.Create(ctx, acc); err != nil {
		// lost a race against a concurrent registration
		if errors.Is(err, repositories.ErrDuplicate) {
			return ErrEmailTaken
		}
		return err
	}

	if s.emailService != nil {
		if err := s.emailService.SendWelcomeEmail(email, registrant); err != nil {
			// warn but do not fail registration
			slog.WarnContext(ctx, "[account][register] welcome email failed", "email", email, "err", err)
		}
	}
	return nil
}

func (s *accountService) Login(ctx context.Context, email, password string) error {
	acc, err := s.repo.GetByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrInvalidCredentials
	}
	if err != nil {
		return err
	}
	if !s.authService.CheckPassword(acc.PasswordHash, password) {
		return ErrInvalidCredentials
	}
	return nil
}

func (s *accountService) SetSelfDestruct(ctx context.Context, caller, email, deviceID string, value bool) error {
	email = NormalizeEmail(email)
	if deviceID != "" {
		dev, err := s.repo.GetByEmailAndDevice(ctx, email, deviceID)
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrDeviceNotFound
		}
		if err != nil {
			return err
		}
		if dev.RegisteredBy != caller {
			return fmt.Errorf("%w: device %s", ErrForbidden, deviceID)
		}
		if _, err := s.repo.SetDeviceSelfDestruct(ctx, email, deviceID, value); err != nil {
			return err
		}
	} else {
		acc, err := s.repo.GetByEmail(ctx, email)
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrAccountNotFound
		}
		if err != nil {
			return err
		}
		if acc.RegisteredBy != caller {
			return fmt.Errorf("%w: %s", ErrForbidden, email)
		}
		if _, err := s.repo.SetSelfDestruct(ctx, email, value); err != nil {
			return err
		}
	}

	s.publish(email, deviceID, value)
	if value {
		s.alert(ctx, caller, email, deviceID)
	}
	return nil
}

func (s *accountService) GetSelfDestruct(ctx context.Context, email, deviceID string) (bool, error) {
	email = NormalizeEmail(email)
	var (
		acc *models.Account
		err error
	)
	if deviceID != "" {
		acc, err = s.repo.GetByEmailAndDevice(ctx, email, deviceID)
		if errors.Is(err, repositories.ErrNotFound) {
			return false, ErrDeviceNotFound
		}
	} else {
		acc, err = s.repo.GetByEmail(ctx, email)
		if errors.Is(err, repositories.ErrNotFound) {
			return false, ErrAccountNotFound
		}
	}
	if err != nil {
		return false, err
	}
	return acc.SelfDestruct, nil
}

// TriggerWipe arms the flag for an existing (email, device) pair. Unlike
// SetSelfDestruct it does not check which registrant owns the account.
func (s *accountService) TriggerWipe(ctx context.Context, email, deviceID string) error {
	email = NormalizeEmail(email)
	if strings.TrimSpace(deviceID) == "" {
		return fmt.Errorf("%w: device_id is required", ErrValidation)
	}
	dev, err := s.repo.GetByEmailAndDevice(ctx, email, deviceID)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrDeviceNotFound
	}
	if err != nil {
		return err
	}
	if _, err := s.repo.SetDeviceSelfDestruct(ctx, email, deviceID, true); err != nil {
		return err
	}
	s.publish(email, deviceID, true)
	s.alert(ctx, dev.RegisteredBy, email, deviceID)
	return nil
}

// SetUTMLink updates any account's link; no ownership check is made.
func (s *accountService) SetUTMLink(ctx context.Context, email, link string) error {
	n, err := s.repo.SetUTMLink(ctx, NormalizeEmail(email), link)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (s *accountService) GetUTMLink(ctx context.Context, email string) (string, error) {
	acc, err := s.repo.GetByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, repositories.ErrNotFound) {
		return "", ErrUTMLinkNotFound
	}
	if err != nil {
		return "", err
	}
	if acc.UTMLink == "" {
		return "", ErrUTMLinkNotFound
	}
	return acc.UTMLink, nil
}

func (s *accountService) RegisterDevice(ctx context.Context, info models.DeviceInfo) error {
	info.Email = NormalizeEmail(info.Email)
	if info.Email == "" || info.DeviceID == "" {
		return fmt.Errorf("%w: email and device_id are required", ErrValidation)
	}
	n, err := s.repo.RegisterDevice(ctx, info.Email, info.DeviceID, info.DeviceName)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (s *accountService) ListAccounts(ctx context.Context, registrant string) ([]models.AccountSummary, error) {
	accounts, err := s.repo.ListByRegistrant(ctx, registrant)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, ErrNoAccounts
	}
	out := make([]models.AccountSummary, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, a.Summary())
	}
	return out, nil
}

func (s *accountService) alert(ctx context.Context, registrant, email, deviceID string) {
	if s.alerts == nil {
		return
	}
	if err := s.alerts.SelfDestructArmed(ctx, registrant, email, deviceID); err != nil {
		slog.WarnContext(ctx, "[account][alert] telegram alert failed", "email", email, "device_id", deviceID, "err", err)
	}
}

func (s *accountService) publish(email, deviceID string, value bool) {
	if s.publisher != nil {
		s.publisher.PublishSelfDestruct(email, deviceID, value)
	}
}
