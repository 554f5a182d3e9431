package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Role es el nivel de autorización de un usuario. El conjunto es cerrado.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleUser      Role = "user"
)

// Roles enumera todos los roles válidos, de mayor a menor privilegio.
var Roles = []Role{RoleAdmin, RoleModerator, RoleUser}

// ParseRole convierte el valor persistido en un Role conocido.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleModerator:
		return RoleModerator, true
	case RoleUser:
		return RoleUser, true
	}
	return "", false
}

func (r Role) String() string {
	return string(r)
}

// In indica si el rol pertenece al conjunto permitido.
func (r Role) In(allowed ...Role) bool {
	for _, a := range allowed {
		if r == a {
			return true
		}
	}
	return false
}

const DefaultPhoto = "default.png"

type User struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	Photo        string     `json:"photo"`
	Verified     bool       `json:"verified"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
}

// NewUser son los datos que el directorio necesita para insertar un usuario.
type NewUser struct {
	Name         string
	Email        string
	PasswordHash string
	Role         Role
}

// UserView es la proyección pública de User; nunca incluye el hash.
type UserView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Photo     string    `json:"photo"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ErrIncompleteUser indica un registro sin timestamps; es un error de programación.
var ErrIncompleteUser = errors.New("user record missing timestamps")

// NewUserView construye la vista pública a partir de un registro completo.
func NewUserView(u User) (UserView, error) {
	if u.CreatedAt == nil || u.UpdatedAt == nil {
		return UserView{}, ErrIncompleteUser
	}
	return UserView{
		ID:        u.ID.String(),
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role.String(),
		Photo:     u.Photo,
		Verified:  u.Verified,
		CreatedAt: u.CreatedAt.UTC(),
		UpdatedAt: u.UpdatedAt.UTC(),
	}, nil
}

// NewUserViews proyecta una lista; falla en el primer registro incompleto.
func NewUserViews(users []User) ([]UserView, error) {
	views := make([]UserView, 0, len(users))
	for _, u := range users {
		v, err := NewUserView(u)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}
