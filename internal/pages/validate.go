package pages

import (
	"net/mail"
	"sort"
	"strings"
	"unicode/utf8"
)

// Validation messages shown under the offending field.
const (
	MsgRequired        = "Обязательное поле"
	MsgUsernameShort   = "Минимум 3 символа"
	MsgEmailInvalid    = "Некорректный email"
	MsgPasswordShort   = "Минимум 6 символов"
	MsgPasswordsDiffer = "Пароли не совпадают"
	MsgTooLong         = "Слишком длинное значение"
)

// FieldErrors maps a form field name to its validation message.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Err returns fe as an error, or nil when there is nothing to report.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

func (fe FieldErrors) required(field, value string) bool {
	if strings.TrimSpace(value) == "" {
		fe[field] = MsgRequired
		return false
	}
	return true
}

type LoginForm struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (f LoginForm) Validate() FieldErrors {
	fe := FieldErrors{}
	fe.required("username", f.Username)
	fe.required("password", f.Password)
	return fe
}

type RegisterForm struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Confirm  string `json:"confirm"`
}

func (f RegisterForm) Validate() FieldErrors {
	fe := FieldErrors{}
	if fe.required("username", f.Username) && utf8.RuneCountInString(strings.TrimSpace(f.Username)) < 3 {
		fe["username"] = MsgUsernameShort
	}
	if fe.required("email", f.Email) {
		if _, err := mail.ParseAddress(f.Email); err != nil {
			fe["email"] = MsgEmailInvalid
		}
	}
	if fe.required("password", f.Password) && utf8.RuneCountInString(f.Password) < 6 {
		fe["password"] = MsgPasswordShort
	}
	if f.Confirm != f.Password {
		fe["confirm"] = MsgPasswordsDiffer
	}
	return fe
}

type TicketForm struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (f TicketForm) Validate() FieldErrors {
	fe := FieldErrors{}
	if fe.required("subject", f.Subject) && utf8.RuneCountInString(f.Subject) > 200 {
		fe["subject"] = MsgTooLong
	}
	fe.required("message", f.Message)
	return fe
}
