package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"cabshare/internal/directory"
	"cabshare/internal/domain"
	"cabshare/internal/metrics"
)

// DefaultSignUpOTP is the code the sign-up screen has always accepted.
const DefaultSignUpOTP = "0000"

// UserService handles sign-up and login.
type UserService struct {
	directory *directory.Directory
	persister *Persister
	metrics   *metrics.Metrics
	log       *slog.Logger
	validate  *validator.Validate
	otp       string
}

// NewUserService creates a new UserService. An empty otp disables the
// one-time code check.
func NewUserService(
	dir *directory.Directory,
	persister *Persister,
	m *metrics.Metrics,
	log *slog.Logger,
	otp string,
) *UserService {
	return &UserService{
		directory: dir,
		persister: persister,
		metrics:   m,
		log:       log,
		validate:  newValidator(),
		otp:       otp,
	}
}

// SignUpRequest contains the parameters for registering a user.
type SignUpRequest struct {
	Name     string `validate:"required,max=64,storable"`
	Username string `validate:"required,max=32,storable"`
	Password string `validate:"required,max=64,storable"`
	Role     string `validate:"required,max=16"`
	Phone    string `validate:"max=20,storable"`
	OTP      string `validate:"max=16"`
}

// SignUp registers a new user and flushes the user table. When the flush
// fails the user stays registered and the returned error wraps ErrPersistence.
func (s *UserService) SignUp(ctx context.Context, req SignUpRequest) (*domain.User, error) {
	const op = "service.UserService.SignUp"

	if err := s.validate.Struct(req); err != nil {
		s.metrics.SignUps.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidRequest, err)
	}

	if s.otp != "" && req.OTP != s.otp {
		s.metrics.SignUps.WithLabelValues("invalid_otp").Inc()
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidOTP)
	}

	role, err := domain.ParseRole(req.Role)
	if err != nil {
		s.metrics.SignUps.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidRequest, err)
	}

	defer s.persister.hold()()

	user, err := s.directory.Register(&domain.User{
		Name:     req.Name,
		Username: req.Username,
		Password: req.Password,
		Role:     role,
		Phone:    req.Phone,
	})
	if err != nil {
		s.metrics.SignUps.WithLabelValues("username_taken").Inc()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.metrics.SignUps.WithLabelValues("ok").Inc()

	s.log.Info("user registered",
		slog.String("op", op),
		slog.String("username", user.Username),
		slog.String("role", string(user.Role)),
	)

	if err := s.persister.FlushUsers(ctx); err != nil {
		return user, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// Login returns the user whose username and password match exactly.
func (s *UserService) Login(ctx context.Context, username, password string) (*domain.User, error) {
	const op = "service.UserService.Login"

	user, ok := s.directory.Authenticate(username, password)
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	return user, nil
}
