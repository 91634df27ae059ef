package account_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/nikolayk812/partyshop/internal/account"
	"github.com/nikolayk812/partyshop/internal/devauth"
	"github.com/nikolayk812/partyshop/internal/domain"
	"github.com/nikolayk812/partyshop/internal/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionFunc func(ctx context.Context)

func (f sessionFunc) Logout(ctx context.Context) { f(ctx) }

func newService(t *testing.T) (*account.Service, *devauth.Gateway) {
	t.Helper()

	gateway, err := devauth.New(t.Context(), memory.New(), slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(gateway.Close)

	logout := sessionFunc(func(ctx context.Context) {
		require.NoError(t, gateway.SignOut(ctx))
	})

	return account.NewService(gateway, logout, slog.New(slog.DiscardHandler)), gateway
}

func TestSignUp_Validation(t *testing.T) {
	svc, gateway := newService(t)
	email := gofakeit.Email()

	tests := []struct {
		name         string
		email        string
		password     string
		confirmation string
		message      string
	}{
		{
			name:    "empty form",
			message: "Por favor, preencha todos os campos.",
		},
		{
			name:     "missing confirmation",
			email:    email,
			password: "Abc123!",
			message:  "Por favor, preencha todos os campos.",
		},
		{
			name:         "mismatch",
			email:        email,
			password:     "Abc123!",
			confirmation: "Abc123?",
			message:      "As senhas não coincidem!",
		},
		{
			name:         "single rule broken",
			email:        email,
			password:     "Abc1234",
			confirmation: "Abc1234",
			message:      "A senha deve conter pelo menos um caractere especial.",
		},
		{
			name:         "several rules broken",
			email:        email,
			password:     "abc",
			confirmation: "abc",
			message: "Sua senha não atende aos seguintes 4 requisitos:\n\n" +
				"- A senha deve ter no mínimo 6 caracteres.\n" +
				"- A senha deve conter pelo menos uma letra maiúscula.\n" +
				"- A senha deve conter pelo menos um número.\n" +
				"- A senha deve conter pelo menos um caractere especial.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SignUp(t.Context(), tt.email, tt.password, tt.confirmation)
			require.Error(t, err)
			assert.True(t, domain.IsKind(err, domain.KindValidation))
			assert.Equal(t, tt.message, domain.MessageOf(err))
		})
	}

	assert.Nil(t, gateway.Current())
}

func TestSignUpSignOutSignIn(t *testing.T) {
	ctx := t.Context()
	svc, gateway := newService(t)
	email := gofakeit.Email()

	created, err := svc.SignUp(ctx, email, "Festa#2024", "Festa#2024")
	require.NoError(t, err)
	assert.Equal(t, email, created.Email)

	svc.SignOut(ctx)
	assert.Nil(t, gateway.Current())

	_, err = svc.SignIn(ctx, email, "")
	assert.Equal(t, "Por favor, preencha todos os campos.", domain.MessageOf(err))

	_, err = svc.SignIn(ctx, email, "wrong")
	assert.True(t, domain.IsKind(err, domain.KindRejected))

	signedIn, err := svc.SignIn(ctx, "  "+email+" ", "Festa#2024")
	require.NoError(t, err)
	assert.Equal(t, created.UID, signedIn.UID)
}

func TestSignInAnonymously(t *testing.T) {
	svc, gateway := newService(t)

	id, err := svc.SignInAnonymously(t.Context())
	require.NoError(t, err)
	assert.True(t, id.Anonymous)
	require.NotNil(t, gateway.Current())
}

func TestPasswordProblems(t *testing.T) {
	assert.Empty(t, account.PasswordProblems(`Aa1"xyz`))
	assert.Empty(t, account.PasswordProblems("Ab1|cd"))
	assert.Len(t, account.PasswordProblems(""), 5)
	assert.Equal(t, []string{"A senha deve conter pelo menos uma letra minúscula."}, account.PasswordProblems("ABC123!"))
}
