package account

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const specialChars = `!@#$%^&*(),.?":{}|<>`

type rule struct {
	message string
	ok      func(string) bool
}

var passwordRules = []rule{
	{"A senha deve ter no mínimo 6 caracteres.", func(pw string) bool { return utf8.RuneCountInString(pw) >= 6 }},
	{"A senha deve conter pelo menos uma letra maiúscula.", containsRange('A', 'Z')},
	{"A senha deve conter pelo menos uma letra minúscula.", containsRange('a', 'z')},
	{"A senha deve conter pelo menos um número.", containsRange('0', '9')},
	{"A senha deve conter pelo menos um caractere especial.", func(pw string) bool { return strings.ContainsAny(pw, specialChars) }},
}

func containsRange(lo, hi rune) func(string) bool {
	return func(pw string) bool {
		return strings.ContainsFunc(pw, func(r rune) bool { return r >= lo && r <= hi })
	}
}

// PasswordProblems lists the rules pw breaks, in a fixed order.
func PasswordProblems(pw string) []string {
	var problems []string
	for _, r := range passwordRules {
		if !r.ok(pw) {
			problems = append(problems, r.message)
		}
	}
	return problems
}

// passwordMessage renders problems the way the sign-up screen shows them.
func passwordMessage(problems []string) string {
	if len(problems) == 1 {
		return problems[0]
	}
	return fmt.Sprintf("Sua senha não atende aos seguintes %d requisitos:\n\n- %s",
		len(problems), strings.Join(problems, "\n- "))
}

