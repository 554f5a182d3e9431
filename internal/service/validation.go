package service

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"auth-api/internal/domain"
)

const (
	minPasswordFloor = 6
	maxPageLimit     = 50
)

// RegisterInput son los datos crudos del formulario de registro.
type RegisterInput struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ValidatorConfig struct {
	MinPasswordLength int
	MaxPasswordBytes  int
	PageDefaultLimit  int
	PageMaxLimit      int
}

// Validator revisa la forma de la entrada antes de cualquier efecto.
// Es determinista: la misma entrada produce siempre el mismo error.
type Validator struct {
	v   *validator.Validate
	cfg ValidatorConfig
}

func NewValidator(cfg ValidatorConfig) *Validator {
	if cfg.MinPasswordLength < minPasswordFloor {
		cfg.MinPasswordLength = minPasswordFloor
	}
	if cfg.MaxPasswordBytes < cfg.MinPasswordLength {
		cfg.MaxPasswordBytes = DefaultHasherParams().MaxBytes
	}
	if cfg.PageMaxLimit <= 0 || cfg.PageMaxLimit > maxPageLimit {
		cfg.PageMaxLimit = maxPageLimit
	}
	if cfg.PageDefaultLimit <= 0 || cfg.PageDefaultLimit > cfg.PageMaxLimit {
		cfg.PageDefaultLimit = 10
		if cfg.PageDefaultLimit > cfg.PageMaxLimit {
			cfg.PageDefaultLimit = cfg.PageMaxLimit
		}
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	// maxbytes mide bytes, no runas: es el límite que protege al hasher.
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return len(fl.Field().String()) <= n
	})
	return &Validator{v: v, cfg: cfg}
}

func (val *Validator) Config() ValidatorConfig {
	return val.cfg
}

// Register devuelve la entrada normalizada o un error de validación con
// las violaciones en orden de campo.
func (val *Validator) Register(in RegisterInput) (RegisterInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)

	var fields []domain.FieldViolation
	fields = val.check(fields, "name", in.Name, "required", map[string]string{
		"required": "Name is required",
	})
	fields = val.check(fields, "email", in.Email, "required,email", map[string]string{
		"required": "Email is required",
		"email":    "Email is invalid",
	})
	fields = val.check(fields, "password", in.Password,
		fmt.Sprintf("required,min=%d,maxbytes=%d", val.cfg.MinPasswordLength, val.cfg.MaxPasswordBytes),
		map[string]string{
			"required": "Password is required",
			"min":      fmt.Sprintf("Password must be at least %d characters", val.cfg.MinPasswordLength),
			"maxbytes": fmt.Sprintf("Max password length is %d", val.cfg.MaxPasswordBytes),
		})

	if err := val.v.Var(in.PasswordConfirm, "required"); err != nil {
		fields = append(fields, domain.FieldViolation{Field: "passwordConfirm", Message: "Confirm Password is required"})
	} else if err := val.v.VarWithValue(in.PasswordConfirm, in.Password, "eqfield"); err != nil {
		fields = append(fields, domain.FieldViolation{Field: "passwordConfirm", Message: "Password and confirm password do not match"})
	}

	if len(fields) > 0 {
		return RegisterInput{}, domain.NewValidationError(fields)
	}
	return in, nil
}

// Login solo exige presencia y formato; el largo mínimo no se revisa para
// que una contraseña corta e incorrecta sea WrongCredentials.
func (val *Validator) Login(in LoginInput) (LoginInput, error) {
	in.Email = normalizeEmail(in.Email)

	var fields []domain.FieldViolation
	fields = val.check(fields, "email", in.Email, "required,email", map[string]string{
		"required": "Email is required",
		"email":    "Email is invalid",
	})
	fields = val.check(fields, "password", in.Password, "required", map[string]string{
		"required": "Password is required",
	})

	if len(fields) > 0 {
		return LoginInput{}, domain.NewValidationError(fields)
	}
	return in, nil
}

// Page interpreta los parámetros de paginación. Vacío usa page=1 y el
// límite por defecto.
func (val *Validator) Page(pageRaw, limitRaw string) (int, int, error) {
	var fields []domain.FieldViolation

	page, ok := parsePageParam(pageRaw, 1)
	if !ok || val.v.Var(page, "min=1") != nil {
		fields = append(fields, domain.FieldViolation{Field: "page", Message: "Page must be a positive integer"})
	}

	limit, ok := parsePageParam(limitRaw, val.cfg.PageDefaultLimit)
	if !ok || val.v.Var(limit, fmt.Sprintf("min=1,max=%d", val.cfg.PageMaxLimit)) != nil {
		fields = append(fields, domain.FieldViolation{
			Field:   "limit",
			Message: fmt.Sprintf("Limit must be between 1 and %d", val.cfg.PageMaxLimit),
		})
	}

	// El offset (page-1)*limit tiene que caber en un int.
	if len(fields) == 0 && page-1 > math.MaxInt/limit {
		fields = append(fields, domain.FieldViolation{Field: "page", Message: "Page is out of range"})
	}

	if len(fields) > 0 {
		return 0, 0, domain.NewValidationError(fields)
	}
	return page, limit, nil
}

func (val *Validator) check(fields []domain.FieldViolation, name, value, tag string, messages map[string]string) []domain.FieldViolation {
	err := val.v.Var(value, tag)
	if err == nil {
		return fields
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		if msg, ok := messages[verrs[0].Tag()]; ok {
			return append(fields, domain.FieldViolation{Field: name, Message: msg})
		}
	}
	return append(fields, domain.FieldViolation{Field: name, Message: "Invalid " + name})
}

func parsePageParam(raw string, fallback int) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
