package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/denizaksoy/ovenline-backend/pkg/auth"
	"github.com/denizaksoy/ovenline-backend/pkg/config"
	"github.com/denizaksoy/ovenline-backend/pkg/db/models"
	"github.com/denizaksoy/ovenline-backend/pkg/enums"
	pkgerrors "github.com/denizaksoy/ovenline-backend/pkg/errors"
	"github.com/denizaksoy/ovenline-backend/pkg/security"
	"github.com/denizaksoy/ovenline-backend/pkg/types"
)

// RegisterInput creates a new account of the given role. The username is
// generated from the name, never supplied by the caller.
type RegisterInput struct {
	Role      enums.ActorRole
	FirstName string
	LastName  string
	Password  string
	Email     *string
	Phone     *string
}

// LoginInput authenticates against one role table.
type LoginInput struct {
	Role     enums.ActorRole
	Username string
	Password string
}

// Session is a successful authentication result.
type Session struct {
	Token   string
	Profile Profile
}

// UpdateProfileInput carries a self-service profile edit. A non-nil Password
// is re-hashed before storage.
type UpdateProfileInput struct {
	FirstName *string
	LastName  *string
	Email     *string
	Phone     *string
	Password  *string
}

// Service covers registration, login, and profile management for the three
// account roles.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*Session, error)
	Login(ctx context.Context, input LoginInput) (*Session, error)
	GetProfile(ctx context.Context, actor types.Actor) (*Profile, error)
	UpdateProfile(ctx context.Context, actor types.Actor, input UpdateProfileInput) (*Profile, error)
	SetAvailability(ctx context.Context, actor types.Actor, status enums.CourierStatus) (*Profile, error)
	ListCouriers(ctx context.Context) ([]models.Courier, error)
}

type service struct {
	repo        Repository
	jwtCfg      config.JWTConfig
	passCfg     config.PasswordConfig
	maxAttempts int
	nowFunc     func() time.Time
}

// NewService wires the account service.
func NewService(repo Repository, jwtCfg config.JWTConfig, passCfg config.PasswordConfig, accountsCfg config.AccountsConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("accounts repository required")
	}
	if jwtCfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret required")
	}
	return &service{
		repo:        repo,
		jwtCfg:      jwtCfg,
		passCfg:     passCfg,
		maxAttempts: accountsCfg.UsernameMaxAttempts,
		nowFunc:     time.Now,
	}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	if !input.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid account role")
	}
	if strings.TrimSpace(input.FirstName) == "" || strings.TrimSpace(input.LastName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "first and last name required")
	}
	if len(input.Password) < 8 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}

	username, err := allocateUsername(ctx, s.repo, input.Role, usernameBase(input.FirstName, input.LastName), s.maxAttempts)
	if err != nil {
		return nil, err
	}
	hash, err := security.HashPassword(input.Password, s.passCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing password failed")
	}

	account, err := s.createAccount(ctx, input, username, hash)
	if err != nil {
		return nil, err
	}
	return s.newSession(account)
}

func (s *service) createAccount(ctx context.Context, input RegisterInput, username, hash string) (Account, error) {
	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)

	switch input.Role {
	case enums.ActorRoleCustomer:
		customer := &models.Customer{
			Username:     username,
			PasswordHash: hash,
			FirstName:    firstName,
			LastName:     lastName,
			Email:        input.Email,
			Phone:        input.Phone,
		}
		if err := s.repo.CreateCustomer(ctx, customer); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating customer failed")
		}
		return &customerAccount{model: customer}, nil
	case enums.ActorRoleAdmin:
		admin := &models.Admin{
			Username:     username,
			PasswordHash: hash,
			FirstName:    firstName,
			LastName:     lastName,
		}
		if err := s.repo.CreateAdmin(ctx, admin); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating admin failed")
		}
		return &adminAccount{model: admin}, nil
	case enums.ActorRoleCourier:
		courier := &models.Courier{
			Username:     username,
			PasswordHash: hash,
			FirstName:    firstName,
			LastName:     lastName,
			Phone:        input.Phone,
			Status:       enums.CourierStatusAvailable,
		}
		if err := s.repo.CreateCourier(ctx, courier); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating courier failed")
		}
		return &courierAccount{model: courier}, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid account role")
}

func (s *service) Login(ctx context.Context, input LoginInput) (*Session, error) {
	if !input.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid account role")
	}
	if input.Username == "" || input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username and password required")
	}

	account, hash, err := s.findByUsername(ctx, input.Role, input.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading account failed")
	}
	ok, err := security.VerifyPassword(input.Password, hash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verifying password failed")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}
	return s.newSession(account)
}

func (s *service) findByUsername(ctx context.Context, role enums.ActorRole, username string) (Account, string, error) {
	switch role {
	case enums.ActorRoleCustomer:
		customer, err := s.repo.FindCustomerByUsername(ctx, username)
		if err != nil {
			return nil, "", err
		}
		return &customerAccount{model: customer}, customer.PasswordHash, nil
	case enums.ActorRoleAdmin:
		admin, err := s.repo.FindAdminByUsername(ctx, username)
		if err != nil {
			return nil, "", err
		}
		return &adminAccount{model: admin}, admin.PasswordHash, nil
	case enums.ActorRoleCourier:
		courier, err := s.repo.FindCourierByUsername(ctx, username)
		if err != nil {
			return nil, "", err
		}
		return &courierAccount{model: courier}, courier.PasswordHash, nil
	}
	return nil, "", gorm.ErrRecordNotFound
}

func (s *service) newSession(account Account) (*Session, error) {
	actor := account.Actor()
	token, err := auth.MintAccessToken(s.jwtCfg, s.nowFunc(), auth.AccessTokenPayload{
		ActorID:   actor.ID,
		ActorRole: actor.Role,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "minting access token failed")
	}
	return &Session{Token: token, Profile: account.Profile()}, nil
}

func (s *service) GetProfile(ctx context.Context, actor types.Actor) (*Profile, error) {
	account, err := s.load(ctx, actor)
	if err != nil {
		return nil, err
	}
	profile := account.Profile()
	return &profile, nil
}

func (s *service) UpdateProfile(ctx context.Context, actor types.Actor, input UpdateProfileInput) (*Profile, error) {
	account, err := s.load(ctx, actor)
	if err != nil {
		return nil, err
	}

	update := ProfileUpdate{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Phone:     input.Phone,
	}
	if input.FirstName != nil && strings.TrimSpace(*input.FirstName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "first name cannot be empty")
	}
	if input.LastName != nil && strings.TrimSpace(*input.LastName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "last name cannot be empty")
	}
	if input.Password != nil {
		if len(*input.Password) < 8 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
		}
		hash, err := security.HashPassword(*input.Password, s.passCfg)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing password failed")
		}
		update.PasswordHash = &hash
	}

	account.apply(update)
	if err := account.save(ctx, s.repo); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving profile failed")
	}
	profile := account.Profile()
	return &profile, nil
}

// SetAvailability lets a courier flip their own dispatch status.
func (s *service) SetAvailability(ctx context.Context, actor types.Actor, status enums.CourierStatus) (*Profile, error) {
	if actor.Role != enums.ActorRoleCourier {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only couriers have an availability status")
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid courier status")
	}
	courier, err := s.repo.FindCourierByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "courier not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading courier failed")
	}
	if err := s.repo.SetCourierStatus(ctx, courier.ID, status); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating courier status failed")
	}
	courier.Status = status
	account := &courierAccount{model: courier}
	profile := account.Profile()
	return &profile, nil
}

func (s *service) ListCouriers(ctx context.Context) ([]models.Courier, error) {
	couriers, err := s.repo.ListCouriers(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing couriers failed")
	}
	return couriers, nil
}

func (s *service) load(ctx context.Context, actor types.Actor) (Account, error) {
	if !actor.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	var (
		account Account
		err     error
	)
	switch actor.Role {
	case enums.ActorRoleCustomer:
		var customer *models.Customer
		customer, err = s.repo.FindCustomerByID(ctx, actor.ID)
		if err == nil {
			account = &customerAccount{model: customer}
		}
	case enums.ActorRoleAdmin:
		var admin *models.Admin
		admin, err = s.repo.FindAdminByID(ctx, actor.ID)
		if err == nil {
			account = &adminAccount{model: admin}
		}
	case enums.ActorRoleCourier:
		var courier *models.Courier
		courier, err = s.repo.FindCourierByID(ctx, actor.ID)
		if err == nil {
			account = &courierAccount{model: courier}
		}
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid account role")
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading account failed")
	}
	return account, nil
}
