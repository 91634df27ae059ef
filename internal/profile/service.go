// Package profile loads and saves the signed-in user's personal data and address.
package profile

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/nikolayk812/partyshop/internal/domain"
	"github.com/nikolayk812/partyshop/internal/port"
)

const (
	msgLoadSignedOut  = "Você precisa estar logado para acessar seu perfil."
	msgSaveSignedOut  = "Você precisa estar logado para salvar seu perfil"
	msgClearSignedOut = "Você precisa estar logado para limpar seu perfil"
	msgNameRequired   = "Por favor, preencha seu nome"
	msgInvalidCEP     = "Por favor, digite um CEP válido com 8 dígitos"

	msgLoadFailed  = "Não foi possível carregar seus dados. Tente novamente mais tarde."
	msgSaveFailed  = "Não foi possível salvar seus dados. Tente novamente mais tarde."
	msgClearFailed = "Não foi possível limpar suas informações. Tente novamente mais tarde."
)

type Service struct {
	store  port.ProfileStore
	lookup port.AddressLookup
	logger *slog.Logger
	now    func() time.Time
}

func NewService(store port.ProfileStore, lookup port.AddressLookup, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		store:  store,
		lookup: lookup,
		logger: logger.With(slog.String("component", "profile")),
		now:    time.Now,
	}
}

// Load returns the stored profile, or an empty one when the user has none yet.
func (s *Service) Load(ctx context.Context, userID string) (domain.Profile, error) {
	if userID == "" {
		return domain.Profile{}, domain.NewValidationError(msgLoadSignedOut)
	}

	p, _, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		s.logger.Error("profile load failed", slog.String("user_id", userID), slog.Any("error", err))
		return domain.Profile{}, domain.NewUnavailableError(msgLoadFailed, err)
	}

	return p, nil
}

// Save merges p into the stored profile and stamps UpdatedAt. Fields the store keeps beyond the
// profile survive.
func (s *Service) Save(ctx context.Context, userID string, p domain.Profile) (domain.Profile, error) {
	return s.save(ctx, userID, p, true)
}

// Replace overwrites the stored profile with p, dropping anything else kept for the user.
func (s *Service) Replace(ctx context.Context, userID string, p domain.Profile) (domain.Profile, error) {
	return s.save(ctx, userID, p, false)
}

func (s *Service) save(ctx context.Context, userID string, p domain.Profile, merge bool) (domain.Profile, error) {
	if userID == "" {
		return domain.Profile{}, domain.NewValidationError(msgSaveSignedOut)
	}
	if strings.TrimSpace(p.Name) == "" {
		return domain.Profile{}, domain.NewValidationError(msgNameRequired)
	}

	p.UpdatedAt = s.now().UTC()

	if err := s.store.SetProfile(ctx, userID, p, merge); err != nil {
		s.logger.Error("profile save failed",
			slog.String("user_id", userID),
			slog.Bool("merge", merge),
			slog.Any("error", err))
		return domain.Profile{}, domain.NewUnavailableError(msgSaveFailed, err)
	}

	return p, nil
}

// Clear deletes the stored profile and reports whether there was one.
func (s *Service) Clear(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, domain.NewValidationError(msgClearSignedOut)
	}

	existed, err := s.store.DeleteProfile(ctx, userID)
	if err != nil {
		s.logger.Error("profile clear failed", slog.String("user_id", userID), slog.Any("error", err))
		return false, domain.NewUnavailableError(msgClearFailed, err)
	}

	if !existed {
		s.logger.Debug("no profile to clear", slog.String("user_id", userID))
	}

	return existed, nil
}

// FillAddress resolves p's postal code and copies street, neighborhood, city and state into it.
// Number and complement are kept as typed.
func (s *Service) FillAddress(ctx context.Context, p domain.Profile) (domain.Profile, error) {
	if len(digitsOnly(p.Address.PostalCode)) != 8 {
		return p, &domain.UserError{Kind: domain.KindValidation, Message: msgInvalidCEP, Err: domain.ErrInvalidPostalCode}
	}

	found, err := s.lookup.Lookup(ctx, p.Address.PostalCode)
	if err != nil {
		var userErr *domain.UserError
		if !errors.As(err, &userErr) {
			err = domain.NewUnavailableError(domain.DefaultMessage, err)
		}
		return p, err
	}

	p.Address.Street = found.Street
	p.Address.Neighborhood = found.Neighborhood
	p.Address.City = found.City
	p.Address.Region = found.Region

	return p, nil
}
