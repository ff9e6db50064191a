package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"devicereg/internal/authz"
	"devicereg/internal/models"
	"devicereg/internal/repositories"
)

type fakeEmailService struct {
	sent []string
	err  error
}

func (f *fakeEmailService) SendWelcomeEmail(email, registrant string) error {
	f.sent = append(f.sent, email+"/"+registrant)
	return f.err
}

type alertCall struct {
	registrant, email, deviceID string
}

type fakeAlerts struct {
	mu    sync.Mutex
	calls []alertCall
	err   error
}

func (f *fakeAlerts) SelfDestructArmed(_ context.Context, registrant, email, deviceID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, alertCall{registrant, email, deviceID})
	return f.err
}

type publishCall struct {
	email, deviceID string
	value           bool
}

type fakePublisher struct {
	calls []publishCall
}

func (f *fakePublisher) PublishSelfDestruct(email, deviceID string, value bool) {
	f.calls = append(f.calls, publishCall{email, deviceID, value})
}

type fixture struct {
	svc    AccountService
	repo   repositories.AccountRepository
	emails *fakeEmailService
	alerts *fakeAlerts
	pub    *fakePublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := repositories.Open(context.Background(), repositories.DriverSQLite, filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := repositories.NewAccountRepository(db, repositories.DriverSQLite)
	reg := authz.NewRegistrants(map[string]string{"person1": "person1", "person2": "person2", "person3": "person3"})
	f := &fixture{repo: repo, emails: &fakeEmailService{}, alerts: &fakeAlerts{}, pub: &fakePublisher{}}
	f.svc = NewAccountService(repo, reg, NewAuthService(bcrypt.MinCost), f.emails, f.alerts, f.pub)
	return f
}

func (f *fixture) register(t *testing.T, email, owner string) {
	t.Helper()
	require.NoError(t, f.svc.Register(context.Background(), email, "pw-"+email, owner))
}

func (f *fixture) device(t *testing.T, email, id string) {
	t.Helper()
	require.NoError(t, f.svc.RegisterDevice(context.Background(), models.DeviceInfo{Email: email, DeviceID: id, DeviceName: "name-" + id}))
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Register(ctx, "a@example.com", "secret", "person1"))
	err := f.svc.Register(ctx, "a@example.com", "other", "person2")
	require.ErrorIs(t, err, ErrEmailTaken)

	assert.Equal(t, []string{"a@example.com/person1"}, f.emails.sent)
}

func TestRegister_InvalidRegistrant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.svc.Register(ctx, "new@example.com", "secret", "person9")
	require.ErrorIs(t, err, ErrInvalidRegistrant)

	// invalid registrant wins over duplicate email
	f.register(t, "a@example.com", "person1")
	err = f.svc.Register(ctx, "a@example.com", "secret", "nobody")
	require.ErrorIs(t, err, ErrInvalidRegistrant)
}

func TestRegister_Defaults(t *testing.T) {
	f := newFixture(t)
	f.register(t, "a@example.com", "person1")

	acc, err := f.repo.GetByEmail(context.Background(), "a@example.com")
	require.NoError(t, err)
	assert.False(t, acc.SelfDestruct)
	assert.Empty(t, acc.UTMLink)
	assert.Equal(t, "person1", acc.RegisteredBy)
	assert.NotEqual(t, "pw-a@example.com", acc.PasswordHash, "password must not be stored verbatim")
}

func TestRegister_EmailFailureDoesNotFail(t *testing.T) {
	f := newFixture(t)
	f.emails.err = errors.New("smtp down")
	require.NoError(t, f.svc.Register(context.Background(), "a@example.com", "secret", "person1"))
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)
	err := f.svc.Register(context.Background(), "  ", "secret", "person1")
	require.ErrorIs(t, err, ErrValidation)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.Register(ctx, "a@example.com", "secret", "person1"))

	require.NoError(t, f.svc.Login(ctx, "a@example.com", "secret"))
	require.ErrorIs(t, f.svc.Login(ctx, "a@example.com", "wrong"), ErrInvalidCredentials)
	require.ErrorIs(t, f.svc.Login(ctx, "b@example.com", "secret"), ErrInvalidCredentials)
}

func TestSetSelfDestruct_Device(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "a@example.com", "person1")
	f.device(t, "a@example.com", "dev-1")

	t.Run("forbidden for other registrant", func(t *testing.T) {
		err := f.svc.SetSelfDestruct(ctx, "person2", "a@example.com", "dev-1", true)
		require.ErrorIs(t, err, ErrForbidden)
		v, err := f.svc.GetSelfDestruct(ctx, "a@example.com", "dev-1")
		require.NoError(t, err)
		assert.False(t, v)
	})

	t.Run("unknown device", func(t *testing.T) {
		err := f.svc.SetSelfDestruct(ctx, "person1", "a@example.com", "dev-9", true)
		require.ErrorIs(t, err, ErrDeviceNotFound)
	})

	t.Run("owner sets and clears", func(t *testing.T) {
		require.NoError(t, f.svc.SetSelfDestruct(ctx, "person1", "a@example.com", "dev-1", true))
		v, err := f.svc.GetSelfDestruct(ctx, "a@example.com", "dev-1")
		require.NoError(t, err)
		assert.True(t, v)

		require.NoError(t, f.svc.SetSelfDestruct(ctx, "person1", "a@example.com", "dev-1", false))
		v, err = f.svc.GetSelfDestruct(ctx, "a@example.com", "")
		require.NoError(t, err)
		assert.False(t, v)
	})

	assert.Equal(t, []alertCall{{"person1", "a@example.com", "dev-1"}}, f.alerts.calls)
	assert.Equal(t, []publishCall{
		{"a@example.com", "dev-1", true},
		{"a@example.com", "dev-1", false},
	}, f.pub.calls)
}

func TestSetSelfDestruct_Account(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "a@example.com", "person1")

	require.ErrorIs(t, f.svc.SetSelfDestruct(ctx, "person1", "missing@example.com", "", true), ErrAccountNotFound)
	require.ErrorIs(t, f.svc.SetSelfDestruct(ctx, "person3", "a@example.com", "", true), ErrForbidden)

	require.NoError(t, f.svc.SetSelfDestruct(ctx, "person1", "a@example.com", "", true))
	v, err := f.svc.GetSelfDestruct(ctx, "a@example.com", "")
	require.NoError(t, err)
	assert.True(t, v)
}

func TestGetSelfDestruct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.GetSelfDestruct(ctx, "missing@example.com", "")
	require.ErrorIs(t, err, ErrAccountNotFound)

	f.register(t, "a@example.com", "person1")
	v, err := f.svc.GetSelfDestruct(ctx, "a@example.com", "")
	require.NoError(t, err)
	assert.False(t, v)

	_, err = f.svc.GetSelfDestruct(ctx, "a@example.com", "dev-1")
	require.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestTriggerWipe_IgnoresOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "a@example.com", "person1")
	f.device(t, "a@example.com", "dev-1")

	require.ErrorIs(t, f.svc.TriggerWipe(ctx, "a@example.com", "dev-2"), ErrDeviceNotFound)
	require.ErrorIs(t, f.svc.TriggerWipe(ctx, "a@example.com", ""), ErrValidation)

	require.NoError(t, f.svc.TriggerWipe(ctx, "a@example.com", "dev-1"))
	v, err := f.svc.GetSelfDestruct(ctx, "a@example.com", "dev-1")
	require.NoError(t, err)
	assert.True(t, v)
	assert.Equal(t, []alertCall{{"person1", "a@example.com", "dev-1"}}, f.alerts.calls)
	assert.Equal(t, []publishCall{{"a@example.com", "dev-1", true}}, f.pub.calls)
}

func TestAlertFailureIsNotReturned(t *testing.T) {
	f := newFixture(t)
	f.alerts.err = errors.New("telegram down")
	f.register(t, "a@example.com", "person1")
	require.NoError(t, f.svc.SetSelfDestruct(context.Background(), "person1", "a@example.com", "", true))
}

func TestUTMLink_RoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "a@example.com", "person1")

	_, err := f.svc.GetUTMLink(ctx, "a@example.com")
	require.ErrorIs(t, err, ErrUTMLinkNotFound)
	_, err = f.svc.GetUTMLink(ctx, "missing@example.com")
	require.ErrorIs(t, err, ErrUTMLinkNotFound)

	// any registrant may set the link
	require.NoError(t, f.svc.SetUTMLink(ctx, "a@example.com", "X"))
	got, err := f.svc.GetUTMLink(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "X", got)

	require.ErrorIs(t, f.svc.SetUTMLink(ctx, "missing@example.com", "X"), ErrAccountNotFound)
}

func TestRegisterDevice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.svc.RegisterDevice(ctx, models.DeviceInfo{Email: "missing@example.com", DeviceID: "d", DeviceName: "n"})
	require.ErrorIs(t, err, ErrAccountNotFound)

	f.register(t, "a@example.com", "person1")
	f.device(t, "a@example.com", "dev-1")
	before, _ := f.repo.GetByEmail(ctx, "a@example.com")

	f.device(t, "a@example.com", "dev-2")
	after, err := f.repo.GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, before.TotalDevices+1, after.TotalDevices)
	assert.Equal(t, "dev-2", after.DeviceID)
	assert.Equal(t, "name-dev-2", after.DeviceName)

	// same device again still counts
	f.device(t, "a@example.com", "dev-2")
	again, _ := f.repo.GetByEmail(ctx, "a@example.com")
	assert.Equal(t, after.TotalDevices+1, again.TotalDevices)
}

func TestListAccounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ListAccounts(ctx, "person1")
	require.ErrorIs(t, err, ErrNoAccounts)

	f.register(t, "a@example.com", "person1")
	f.register(t, "b@example.com", "person1")
	f.register(t, "c@example.com", "person2")
	f.device(t, "b@example.com", "dev-b")

	list, err := f.svc.ListAccounts(ctx, "person1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a@example.com", list[0].Email)
	assert.Equal(t, []string{}, list[0].DeviceIDs)
	assert.Equal(t, "b@example.com", list[1].Email)
	assert.Equal(t, []string{"dev-b"}, list[1].DeviceIDs)
	assert.Equal(t, 1, list[1].TotalDevices)

	_, err = f.svc.ListAccounts(ctx, "person3")
	require.ErrorIs(t, err, ErrNoAccounts)
}

func TestEmailIsNormalizedEverywhere(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.Register(ctx, " a@example.com ", "secret", "person1"))

	padded := "  a@example.com\t"
	require.NoError(t, f.svc.Login(ctx, padded, "secret"))
	require.NoError(t, f.svc.RegisterDevice(ctx, models.DeviceInfo{Email: padded, DeviceID: "dev-1", DeviceName: "Phone"}))

	require.NoError(t, f.svc.SetUTMLink(ctx, padded, "X"))
	link, err := f.svc.GetUTMLink(ctx, padded)
	require.NoError(t, err)
	assert.Equal(t, "X", link)

	require.NoError(t, f.svc.SetSelfDestruct(ctx, "person1", padded, "dev-1", true))
	v, err := f.svc.GetSelfDestruct(ctx, padded, "dev-1")
	require.NoError(t, err)
	assert.True(t, v)
	require.NoError(t, f.svc.TriggerWipe(ctx, padded, "dev-1"))

	// events carry the stored form so stream subscribers keyed by it receive them
	for _, c := range f.pub.calls {
		assert.Equal(t, "a@example.com", c.email)
	}
	assert.Len(t, f.pub.calls, 2)
}
