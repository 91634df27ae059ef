package firebase

import (
	"errors"
	"strings"

	"github.com/nikolayk812/partyshop/internal/domain"
)

var ErrSignedOut = errors.New("no user is signed in")

// messages maps Identity Toolkit error codes to what the user is shown.
var messages = map[string]string{
	"EMAIL_NOT_FOUND":             "Usuário não encontrado.",
	"INVALID_PASSWORD":            "Senha incorreta.",
	"INVALID_LOGIN_CREDENTIALS":   "E-mail ou senha incorretos.",
	"USER_DISABLED":               "Esta conta foi desativada.",
	"EMAIL_EXISTS":                "Este e-mail já está em uso.",
	"INVALID_EMAIL":               "E-mail inválido.",
	"MISSING_EMAIL":               "Informe o e-mail.",
	"MISSING_PASSWORD":            "Informe a senha.",
	"WEAK_PASSWORD":               "A senha deve ter no mínimo 6 caracteres.",
	"OPERATION_NOT_ALLOWED":       "Este método de acesso não está habilitado.",
	"ADMIN_ONLY_OPERATION":        "Este método de acesso não está habilitado.",
	"TOO_MANY_ATTEMPTS_TRY_LATER": "Muitas tentativas. Tente novamente mais tarde.",
	"TOKEN_EXPIRED":               "Sua sessão expirou. Faça login novamente.",
	"USER_NOT_FOUND":              "Sua sessão expirou. Faça login novamente.",
	"INVALID_REFRESH_TOKEN":       "Sua sessão expirou. Faça login novamente.",
}

// errorCode extracts the code from messages like "WEAK_PASSWORD : Password should be at least 6 characters".
func errorCode(message string) string {
	code, _, _ := strings.Cut(message, " ")
	return strings.TrimSpace(code)
}

func rejected(message string, status int) error {
	code := errorCode(message)

	text, ok := messages[code]
	if !ok {
		text = domain.DefaultMessage
	}

	return domain.NewRejectedError(text, &APIError{Status: status, Code: code, Message: message})
}

// APIError is the error body returned by the Google REST endpoints.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return "firebase: " + e.Message
}
