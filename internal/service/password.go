package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"

	"auth-api/internal/domain"
)

const (
	argonSaltLen = 16
	argonKeyLen  = 32
	argonMaxKey  = 64

	// bcrypt ignora o rechaza lo que pase de 72 bytes.
	bcryptMaxBytes = 72

	// Un hash guardado puede pedir a lo sumo este múltiplo de los parámetros
	// configurados (o de los por defecto, si son mayores).
	argonParamSlack = 4
	argonMaxThreads = 8
)

// HasherParams agrupa el costo de Argon2id y los límites de entrada.
type HasherParams struct {
	Time        uint32
	MemoryKiB   uint32
	Threads     uint8
	MaxBytes    int
	Concurrency int
}

// DefaultHasherParams sigue la recomendación OWASP para Argon2id.
func DefaultHasherParams() HasherParams {
	return HasherParams{
		Time:      3,
		MemoryKiB: 64 * 1024,
		Threads:   1,
		MaxBytes:  64,
	}
}

// Hasher produce y verifica hashes Argon2id en formato PHC. Las
// verificaciones bcrypt existen para hashes heredados.
type Hasher struct {
	params HasherParams
	sem    *semaphore.Weighted
	rand   func([]byte) (int, error)
}

func NewHasher(params HasherParams) *Hasher {
	def := DefaultHasherParams()
	if params.Time == 0 {
		params.Time = def.Time
	}
	if params.MemoryKiB == 0 {
		params.MemoryKiB = def.MemoryKiB
	}
	if params.Threads == 0 {
		params.Threads = def.Threads
	}
	if params.MaxBytes <= 0 {
		params.MaxBytes = def.MaxBytes
	}
	if params.Concurrency <= 0 {
		params.Concurrency = runtime.NumCPU()
	}
	return &Hasher{
		params: params,
		sem:    semaphore.NewWeighted(int64(params.Concurrency)),
		rand:   rand.Read,
	}
}

// Hash devuelve $argon2id$v=19$m=<kib>,t=<time>,p=<threads>$<salt>$<hash>.
func (h *Hasher) Hash(ctx context.Context, password string) (string, error) {
	if password == "" {
		return "", domain.ErrEmptyPassword
	}
	if len(password) > h.params.MaxBytes {
		return "", domain.ExceededMaxPasswordLength(h.params.MaxBytes)
	}

	salt := make([]byte, argonSaltLen)
	if _, err := h.rand(salt); err != nil {
		return "", domain.Wrap(domain.KindHashingError, fmt.Errorf("generating salt: %w", err))
	}

	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", domain.Wrap(domain.KindHashingError, err)
	}
	key := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.MemoryKiB, h.params.Threads, argonKeyLen)
	h.sem.Release(1)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.MemoryKiB, h.params.Time, h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify compara en tiempo constante. Un hash mal formado es InvalidHashFormat.
func (h *Hasher) Verify(ctx context.Context, password, encoded string) (bool, error) {
	if isBcryptHash(encoded) {
		if len(password) > h.params.MaxBytes || len(password) > bcryptMaxBytes {
			return false, nil
		}
		err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword), errors.Is(err, bcrypt.ErrPasswordTooLong):
			return false, nil
		default:
			return false, domain.Wrap(domain.KindInvalidHashFormat, err)
		}
	}

	phc, err := decodePHC(encoded)
	if err != nil {
		return false, domain.Wrap(domain.KindInvalidHashFormat, err)
	}
	if err := h.checkCost(phc); err != nil {
		return false, domain.Wrap(domain.KindInvalidHashFormat, err)
	}
	if password == "" || len(password) > h.params.MaxBytes {
		return false, nil
	}

	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, domain.Wrap(domain.KindHashingError, err)
	}
	candidate := argon2.IDKey([]byte(password), phc.salt, phc.time, phc.memory, phc.threads, uint32(len(phc.key)))
	h.sem.Release(1)

	return subtle.ConstantTimeCompare(phc.key, candidate) == 1, nil
}

// NeedsRehash indica si el hash fue producido con otro algoritmo o parámetros.
func (h *Hasher) NeedsRehash(encoded string) bool {
	if isBcryptHash(encoded) {
		return true
	}
	phc, err := decodePHC(encoded)
	if err != nil {
		return false
	}
	return phc.time != h.params.Time || phc.memory != h.params.MemoryKiB || phc.threads != h.params.Threads
}

// checkCost acota lo que un hash guardado puede exigir de IDKey. Una fila
// corrupta con m=4294967295 no debe tumbar el proceso.
func (h *Hasher) checkCost(p phcHash) error {
	def := DefaultHasherParams()
	switch {
	case uint64(p.memory) > costCeiling(h.params.MemoryKiB, def.MemoryKiB):
		return fmt.Errorf("argon2 memory %d KiB above limit", p.memory)
	case uint64(p.time) > costCeiling(h.params.Time, def.Time):
		return fmt.Errorf("argon2 time %d above limit", p.time)
	case uint64(p.threads) > costCeiling(uint32(h.params.Threads), argonMaxThreads):
		return fmt.Errorf("argon2 threads %d above limit", p.threads)
	case len(p.key) > argonMaxKey:
		return fmt.Errorf("argon2 key length %d above limit", len(p.key))
	}
	return nil
}

func costCeiling(configured, floor uint32) uint64 {
	c := uint64(configured) * argonParamSlack
	if c < uint64(floor) {
		c = uint64(floor)
	}
	return c
}

func isBcryptHash(encoded string) bool {
	return strings.HasPrefix(encoded, "$2a$") ||
		strings.HasPrefix(encoded, "$2b$") ||
		strings.HasPrefix(encoded, "$2y$")
}

type phcHash struct {
	time    uint32
	memory  uint32
	threads uint8
	salt    []byte
	key     []byte
}

func decodePHC(encoded string) (phcHash, error) {
	var p phcHash
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return p, errors.New("invalid PHC hash format")
	}
	if parts[1] != "argon2id" {
		return p, fmt.Errorf("unsupported algorithm: %q", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return p, fmt.Errorf("parsing version: %w", err)
	}
	if version != argon2.Version {
		return p, fmt.Errorf("unsupported argon2 version %d", version)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return p, fmt.Errorf("parsing parameters: %w", err)
	}
	if p.memory == 0 || p.time == 0 || p.threads == 0 {
		return p, errors.New("invalid argon2 parameters")
	}

	var err error
	if p.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return p, fmt.Errorf("decoding salt: %w", err)
	}
	if p.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return p, fmt.Errorf("decoding hash: %w", err)
	}
	if len(p.salt) == 0 || len(p.key) == 0 {
		return p, errors.New("empty salt or hash")
	}
	return p, nil
}
