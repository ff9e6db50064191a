package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"devicereg/internal/models"
)

type AccountRepository interface {
	Create(ctx context.Context, acc *models.Account) error
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByEmailAndDevice(ctx context.Context, email, deviceID string) (*models.Account, error)
	ListByRegistrant(ctx context.Context, registrant string) ([]*models.Account, error)

	// mutations return the number of affected rows
	SetSelfDestruct(ctx context.Context, email string, value bool) (int64, error)
	SetDeviceSelfDestruct(ctx context.Context, email, deviceID string, value bool) (int64, error)
	SetUTMLink(ctx context.Context, email, link string) (int64, error)
	RegisterDevice(ctx context.Context, email, deviceID, deviceName string) (int64, error)
}

type accountRepository struct {
	DB *sql.DB
	qs *accountQueries
}

func NewAccountRepository(db *sql.DB, driver string) AccountRepository {
	return &accountRepository{DB: db, qs: queriesFor(driver)}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	a := &models.Account{}
	var (
		utm        sql.NullString
		deviceID   sql.NullString
		deviceName sql.NullString
		total      sql.NullInt64
	)
	if err := row.Scan(
		&a.Email, &a.PasswordHash, &a.RegisteredBy, &a.SelfDestruct,
		&utm, &deviceID, &deviceName, &total,
	); err != nil {
		return nil, err
	}
	if utm.Valid {
		a.UTMLink = utm.String
	}
	if deviceID.Valid {
		a.DeviceID = deviceID.String
	}
	if deviceName.Valid {
		a.DeviceName = deviceName.String
	}
	if total.Valid {
		a.TotalDevices = int(total.Int64)
	}
	return a, nil
}

func (r *accountRepository) Create(ctx context.Context, acc *models.Account) error {
	_, err := r.DB.ExecContext(ctx, r.qs.insert,
		acc.Email,
		acc.PasswordHash,
		acc.RegisteredBy,
		acc.SelfDestruct,
		acc.UTMLink,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert %s: %w", acc.Email, ErrDuplicate)
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	a, err := scanAccount(r.DB.QueryRowContext(ctx, r.qs.getByEmail, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (r *accountRepository) GetByEmailAndDevice(ctx context.Context, email, deviceID string) (*models.Account, error) {
	a, err := scanAccount(r.DB.QueryRowContext(ctx, r.qs.getByEmailAndDevice, email, deviceID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get device: %w", err)
	}
	return a, nil
}

func (r *accountRepository) ListByRegistrant(ctx context.Context, registrant string) ([]*models.Account, error) {
	rows, err := r.DB.QueryContext(ctx, r.qs.listByRegistrant, registrant)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var res []*models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

func (r *accountRepository) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *accountRepository) SetSelfDestruct(ctx context.Context, email string, value bool) (int64, error) {
	n, err := r.exec(ctx, r.qs.setSelfDestruct, value, email)
	if err != nil {
		return 0, fmt.Errorf("set self_destruct: %w", err)
	}
	return n, nil
}

func (r *accountRepository) SetDeviceSelfDestruct(ctx context.Context, email, deviceID string, value bool) (int64, error) {
	n, err := r.exec(ctx, r.qs.setDeviceSelfDest, value, email, deviceID)
	if err != nil {
		return 0, fmt.Errorf("set device self_destruct: %w", err)
	}
	return n, nil
}

func (r *accountRepository) SetUTMLink(ctx context.Context, email, link string) (int64, error) {
	n, err := r.exec(ctx, r.qs.setUTMLink, link, email)
	if err != nil {
		return 0, fmt.Errorf("set utm_link: %w", err)
	}
	return n, nil
}

func (r *accountRepository) RegisterDevice(ctx context.Context, email, deviceID, deviceName string) (int64, error) {
	n, err := r.exec(ctx, r.qs.registerDevice, deviceID, deviceName, email)
	if err != nil {
		return 0, fmt.Errorf("register device: %w", err)
	}
	return n, nil
}
