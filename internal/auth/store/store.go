package store

import (
	"context"
	"errors"
	"time"

	"github.com/hms-dta/agencyauth/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable.
//
// Getters return records regardless of expiry: the service layer needs to
// tell "expired" apart from "never existed" for its error codes, so expiry is
// enforced there and physically cleaned up by housekeeping.
type Store interface {
	Users() Users
	Clients() Clients
	DeviceCodes() DeviceCodes
	Tokens() Tokens
	Domains() Domains
	Devices() Devices

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, committing when fn returns
	// nil and rolling back otherwise. This is the recommended way to handle
	// multi-step operations that must be atomic (device-code consumption,
	// refresh rotation).
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is used during login.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateDomainAccess replaces the user's entitlement map.
	UpdateDomainAccess(ctx context.Context, userID string, access map[string][]string) error

	DeleteUser(ctx context.Context, userID string) error

	// IsEmpty returns true if there are no users. Used by startup seeding.
	IsEmpty(ctx context.Context) (bool, error)
}

type Clients interface {
	GetClientByID(ctx context.Context, id string) (domain.Client, error)

	ListClients(ctx context.Context) ([]domain.Client, error)

	CreateClient(ctx context.Context, c domain.Client) error

	DeleteClient(ctx context.Context, clientID string) error

	IsEmpty(ctx context.Context) (bool, error)
}

type DeviceCodes interface {
	CreateDeviceCode(ctx context.Context, dc domain.DeviceCode) error

	// GetDeviceCodeByCode looks up by the opaque device code value.
	GetDeviceCodeByCode(ctx context.Context, code string) (domain.DeviceCode, error)

	// GetDeviceCodeByUserCode looks up by the human-typeable user code.
	GetDeviceCodeByUserCode(ctx context.Context, userCode string) (domain.DeviceCode, error)

	// UpdateDeviceCodeDecision records the approval or denial outcome.
	UpdateDeviceCodeDecision(ctx context.Context, dc domain.DeviceCode) error

	// TouchDeviceCodePoll records a token-endpoint poll timestamp.
	TouchDeviceCodePoll(ctx context.Context, id string, at time.Time) error

	// DeleteDeviceCode removes a consumed or rejected record.
	DeleteDeviceCode(ctx context.Context, id string) error

	// DeleteExpiredDeviceCodes is housekeeping.
	DeleteExpiredDeviceCodes(ctx context.Context) (int64, error)
}

type Tokens interface {
	CreateToken(ctx context.Context, t domain.Token) error

	// GetTokenByAccessHash serves revocation and domain authorization.
	GetTokenByAccessHash(ctx context.Context, hash string) (domain.Token, error)

	// GetTokenByRefreshHash serves refresh rotation.
	GetTokenByRefreshHash(ctx context.Context, hash string) (domain.Token, error)

	// UpdateTokenDomainAccess merges a domain grant into the live record.
	UpdateTokenDomainAccess(ctx context.Context, id string, access map[string][]string) error

	DeleteToken(ctx context.Context, id string) error

	// DeleteExpiredTokens is housekeeping.
	DeleteExpiredTokens(ctx context.Context) (int64, error)
}

type Domains interface {
	GetDomainByName(ctx context.Context, name string) (domain.DomainRecord, error)

	// ListDomains returns the full catalog ordered by name.
	ListDomains(ctx context.Context) ([]domain.DomainRecord, error)
}

type Devices interface {
	// AddUserDevice appends a device history entry.
	AddUserDevice(ctx context.Context, d domain.UserDevice) error

	// ListUserDevices returns a user's history, newest first.
	ListUserDevices(ctx context.Context, userID string) ([]domain.UserDevice, error)
}
