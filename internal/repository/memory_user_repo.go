package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"auth-api/internal/domain"
)

// MemoryUserRepository guarda usuarios en memoria. La unicidad de email se
// resuelve bajo el mismo lock que la inserción.
type MemoryUserRepository struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]domain.User
	byEmail map[string]uuid.UUID
	now     func() time.Time
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:    make(map[uuid.UUID]domain.User),
		byEmail: make(map[string]uuid.UUID),
		now:     time.Now,
	}
}

func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[normalizeEmail(email)]
	if !ok {
		return domain.User{}, ErrNotFound
	}
	return copyUser(r.byID[id]), nil
}

func (r *MemoryUserRepository) FindByID(_ context.Context, id uuid.UUID) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return domain.User{}, ErrNotFound
	}
	return copyUser(u), nil
}

func (r *MemoryUserRepository) Insert(ctx context.Context, user domain.NewUser) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}
	role := user.Role
	if role == "" {
		role = domain.RoleUser
	}
	email := normalizeEmail(user.Email)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[email]; exists {
		return domain.User{}, ErrDuplicateEmail
	}
	now := r.now().UTC()
	created, updated := now, now
	u := domain.User{
		ID:           uuid.New(),
		Name:         user.Name,
		Email:        email,
		PasswordHash: user.PasswordHash,
		Role:         role,
		Photo:        domain.DefaultPhoto,
		CreatedAt:    &created,
		UpdatedAt:    &updated,
	}
	r.byID[u.ID] = u
	r.byEmail[email] = u.ID
	return copyUser(u), nil
}

func (r *MemoryUserRepository) List(_ context.Context, page, limit int) ([]domain.User, int, error) {
	r.mu.RLock()
	all := make([]domain.User, 0, len(r.byID))
	for _, u := range r.byID {
		all = append(all, copyUser(u))
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(*all[j].CreatedAt) {
			return all[i].CreatedAt.After(*all[j].CreatedAt)
		}
		return all[i].ID.String() < all[j].ID.String()
	})

	total := len(all)
	start, ok := pageOffset(page, limit)
	if !ok || start >= total {
		return []domain.User{}, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (r *MemoryUserRepository) UpdatePasswordHash(_ context.Context, id uuid.UUID, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	updated := r.now().UTC()
	u.PasswordHash = hash
	u.UpdatedAt = &updated
	r.byID[id] = u
	return nil
}

func (r *MemoryUserRepository) UpdateRole(_ context.Context, id uuid.UUID, role domain.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	updated := r.now().UTC()
	u.Role = role
	u.UpdatedAt = &updated
	r.byID[id] = u
	return nil
}

// Delete elimina un usuario; lo usan los tests de tokens que sobreviven a su sujeto.
func (r *MemoryUserRepository) Delete(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[id]; ok {
		delete(r.byEmail, u.Email)
		delete(r.byID, id)
	}
}

func copyUser(u domain.User) domain.User {
	if u.CreatedAt != nil {
		t := *u.CreatedAt
		u.CreatedAt = &t
	}
	if u.UpdatedAt != nil {
		t := *u.UpdatedAt
		u.UpdatedAt = &t
	}
	return u
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
