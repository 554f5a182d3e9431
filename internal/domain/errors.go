package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind identifica cada falla que el núcleo puede reportar al exterior.
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindEmptyPassword
	KindExceededMaxPasswordLength
	KindHashingError
	KindInvalidHashFormat
	KindInvalidToken
	KindServerError
	KindWrongCredentials
	KindEmailExists
	KindUserNoLongerExists
	KindTokenNotProvided
	KindPermissionDenied
)

// ErrorKinds lista todos los kinds declarados.
var ErrorKinds = []ErrorKind{
	KindValidation,
	KindEmptyPassword,
	KindExceededMaxPasswordLength,
	KindHashingError,
	KindInvalidHashFormat,
	KindInvalidToken,
	KindServerError,
	KindWrongCredentials,
	KindEmailExists,
	KindUserNoLongerExists,
	KindTokenNotProvided,
	KindPermissionDenied,
}

// StatusClass agrupa los kinds según la respuesta que merece el cliente.
type StatusClass int

const (
	StatusBadRequest StatusClass = iota + 1
	StatusUnauthorized
	StatusForbidden
	StatusConflict
	StatusServerError
)

const serverErrorMessage = "Server Error. Please try again later"

// Describe devuelve la clase y el mensaje fijo de un kind. ok es false para
// valores fuera del conjunto declarado.
func (k ErrorKind) Describe() (class StatusClass, message string, ok bool) {
	switch k {
	case KindValidation:
		return StatusBadRequest, "Invalid input", true
	case KindEmptyPassword:
		return StatusBadRequest, "Password is empty", true
	case KindExceededMaxPasswordLength:
		return StatusBadRequest, "Max password length exceeded", true
	case KindHashingError:
		return StatusServerError, "Error hashing password", true
	case KindInvalidHashFormat:
		return StatusServerError, "Invalid password hash format", true
	case KindInvalidToken:
		return StatusUnauthorized, "Invalid token", true
	case KindServerError:
		return StatusServerError, serverErrorMessage, true
	case KindWrongCredentials:
		return StatusUnauthorized, "Email or password is wrong", true
	case KindEmailExists:
		return StatusConflict, "Email already exists", true
	case KindUserNoLongerExists:
		return StatusUnauthorized, "User does not exist", true
	case KindTokenNotProvided:
		return StatusUnauthorized, "You are not logged in, please provide a token", true
	case KindPermissionDenied:
		return StatusForbidden, "You are not authorized to perform this action", true
	}
	return StatusServerError, serverErrorMessage, false
}

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "Validation"
	case KindEmptyPassword:
		return "EmptyPassword"
	case KindExceededMaxPasswordLength:
		return "ExceededMaxPasswordLength"
	case KindHashingError:
		return "HashingError"
	case KindInvalidHashFormat:
		return "InvalidHashFormat"
	case KindInvalidToken:
		return "InvalidToken"
	case KindServerError:
		return "ServerError"
	case KindWrongCredentials:
		return "WrongCredentials"
	case KindEmailExists:
		return "EmailExists"
	case KindUserNoLongerExists:
		return "UserNoLongerExists"
	case KindTokenNotProvided:
		return "TokenNotProvided"
	case KindPermissionDenied:
		return "PermissionDenied"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// FieldViolation describe un campo de entrada inválido.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error es el error tipado del núcleo. Dos *Error son equivalentes para
// errors.Is cuando comparten Kind.
type Error struct {
	Kind   ErrorKind
	Detail string
	Fields []FieldViolation
	Err    error
}

var (
	ErrEmptyPassword      = &Error{Kind: KindEmptyPassword}
	ErrHashing            = &Error{Kind: KindHashingError}
	ErrInvalidHashFormat  = &Error{Kind: KindInvalidHashFormat}
	ErrInvalidToken       = &Error{Kind: KindInvalidToken}
	ErrServer             = &Error{Kind: KindServerError}
	ErrWrongCredentials   = &Error{Kind: KindWrongCredentials}
	ErrEmailExists        = &Error{Kind: KindEmailExists}
	ErrUserNoLongerExists = &Error{Kind: KindUserNoLongerExists}
	ErrTokenNotProvided   = &Error{Kind: KindTokenNotProvided}
	ErrPermissionDenied   = &Error{Kind: KindPermissionDenied}
)

// Wrap asocia una causa interna a un kind. La causa nunca llega al cliente.
func Wrap(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// ExceededMaxPasswordLength reporta el límite configurado en el mensaje.
func ExceededMaxPasswordLength(max int) *Error {
	return &Error{Kind: KindExceededMaxPasswordLength, Detail: fmt.Sprintf("Max password length is %d", max)}
}

// NewValidationError arma un error de validación; el mensaje es la primera violación.
func NewValidationError(fields []FieldViolation) *Error {
	e := &Error{Kind: KindValidation, Fields: fields}
	if len(fields) > 0 {
		e.Detail = fields[0].Message
	}
	return e
}

// Message es el texto seguro para el cliente.
func (e *Error) Message() string {
	class, msg, _ := e.Kind.Describe()
	if class == StatusServerError {
		return msg
	}
	if e.Detail != "" {
		return e.Detail
	}
	return msg
}

func (e *Error) Class() StatusClass {
	class, _, _ := e.Kind.Describe()
	return class
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf extrae el kind de cualquier error de la cadena.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
