// Package account holds the sign-in and sign-up use cases in front of the credential gateway.
package account

import (
	"context"
	"log/slog"
	"strings"

	"github.com/nikolayk812/partyshop/internal/domain"
	"github.com/nikolayk812/partyshop/internal/port"
)

const (
	msgMissingFields    = "Por favor, preencha todos os campos."
	msgPasswordMismatch = "As senhas não coincidem!"
)

// Session is the part of the session manager sign-out goes through.
type Session interface {
	Logout(ctx context.Context)
}

type Service struct {
	gateway port.CredentialGateway
	session Session
	logger  *slog.Logger
}

func NewService(gateway port.CredentialGateway, session Session, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		gateway: gateway,
		session: session,
		logger:  logger.With(slog.String("component", "account")),
	}
}

func (s *Service) SignIn(ctx context.Context, email, password string) (domain.Identity, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return domain.Identity{}, domain.NewValidationError(msgMissingFields)
	}

	id, err := s.gateway.SignIn(ctx, email, password)
	if err != nil {
		s.logger.Info("sign in rejected", slog.Any("error", err))
		return domain.Identity{}, err
	}

	return id, nil
}

// SignUp validates the form before the gateway sees it: every field filled, matching confirmation,
// and a password that passes every rule.
func (s *Service) SignUp(ctx context.Context, email, password, confirmation string) (domain.Identity, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" || confirmation == "" {
		return domain.Identity{}, domain.NewValidationError(msgMissingFields)
	}
	if password != confirmation {
		return domain.Identity{}, domain.NewValidationError(msgPasswordMismatch)
	}
	if problems := PasswordProblems(password); len(problems) > 0 {
		return domain.Identity{}, domain.NewValidationError(passwordMessage(problems))
	}

	id, err := s.gateway.SignUp(ctx, email, password)
	if err != nil {
		s.logger.Info("sign up rejected", slog.Any("error", err))
		return domain.Identity{}, err
	}

	return id, nil
}

func (s *Service) SignInAnonymously(ctx context.Context) (domain.Identity, error) {
	return s.gateway.SignInAnonymously(ctx)
}

func (s *Service) SignOut(ctx context.Context) {
	s.session.Logout(ctx)
}
