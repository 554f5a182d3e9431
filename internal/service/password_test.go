package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"auth-api/internal/domain"
)

func newTestHasher() *Hasher {
	return NewHasher(HasherParams{Time: 1, MemoryKiB: 64, Threads: 1, MaxBytes: 64, Concurrency: 2})
}

func TestHasher_HashAndVerify(t *testing.T) {
	h := newTestHasher()
	ctx := context.Background()

	hash, err := h.Hash(ctx, "secret1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if strings.Contains(hash, "secret1") {
		t.Fatalf("hash contains plaintext")
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=64,t=1,p=1$") {
		t.Fatalf("unexpected hash format: %s", hash)
	}

	ok, err := h.Verify(ctx, "secret1", hash)
	if err != nil || !ok {
		t.Fatalf("expected match, got %v,%v", ok, err)
	}

	for _, other := range []string{"secret2", "Secret1", "secret1 ", "", "secret"} {
		ok, err := h.Verify(ctx, other, hash)
		if err != nil || ok {
			t.Fatalf("expected %q not to match, got %v,%v", other, ok, err)
		}
	}
}

func TestHasher_SaltsDiffer(t *testing.T) {
	h := newTestHasher()
	ctx := context.Background()

	a, err := h.Hash(ctx, "secret1")
	if err != nil {
		t.Fatalf("hash a: %v", err)
	}
	b, err := h.Hash(ctx, "secret1")
	if err != nil {
		t.Fatalf("hash b: %v", err)
	}
	if a == b {
		t.Fatalf("expected different hashes for the same password")
	}
}

func TestHasher_RejectsEmptyAndOversized(t *testing.T) {
	h := newTestHasher()
	ctx := context.Background()

	if _, err := h.Hash(ctx, ""); !errors.Is(err, domain.ErrEmptyPassword) {
		t.Fatalf("expected ErrEmptyPassword, got %v", err)
	}

	_, err := h.Hash(ctx, strings.Repeat("a", 65))
	kind, _ := domain.KindOf(err)
	if kind != domain.KindExceededMaxPasswordLength {
		t.Fatalf("expected ExceededMaxPasswordLength, got %v", err)
	}

	if _, err := h.Hash(ctx, strings.Repeat("a", 64)); err != nil {
		t.Fatalf("expected max length to be accepted, got %v", err)
	}
}

func TestHasher_SaltFailureIsHashingError(t *testing.T) {
	h := newTestHasher()
	h.rand = func([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

	if _, err := h.Hash(context.Background(), "secret1"); !errors.Is(err, domain.ErrHashing) {
		t.Fatalf("expected ErrHashing, got %v", err)
	}
}

func TestHasher_CancelledContextIsHashingError(t *testing.T) {
	h := NewHasher(HasherParams{Time: 1, MemoryKiB: 64, Threads: 1, Concurrency: 1})
	if err := h.sem.Acquire(context.Background(), 1); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer h.sem.Release(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := h.Hash(ctx, "secret1"); !errors.Is(err, domain.ErrHashing) {
		t.Fatalf("expected ErrHashing on cancelled context, got %v", err)
	}
}

func TestHasher_VerifyInvalidHashFormat(t *testing.T) {
	h := newTestHasher()
	ctx := context.Background()

	bad := []string{
		"",
		"plaintext",
		"$argon2id$v=19$m=64,t=1,p=1$onlysalt",
		"$argon2i$v=19$m=64,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2g",
		"$argon2id$v=16$m=64,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2g",
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2g",
		"$argon2id$v=19$m=64,t=1,p=1$!!!$aGFzaGhhc2g",
		"$argon2id$v=19$m=0,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2g",
		"$2a$10$short",
		"$argon2id$v=19$m=4294967295,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2g",
		"$argon2id$v=19$m=64,t=1000000,p=1$c2FsdHNhbHQ$aGFzaGhhc2g",
		"$argon2id$v=19$m=64,t=1,p=255$c2FsdHNhbHQ$aGFzaGhhc2g",
	}
	for _, enc := range bad {
		ok, err := h.Verify(ctx, "secret1", enc)
		if ok || !errors.Is(err, domain.ErrInvalidHashFormat) {
			t.Fatalf("expected InvalidHashFormat for %q, got %v,%v", enc, ok, err)
		}
	}
}

func TestHasher_VerifyLegacyBcrypt(t *testing.T) {
	h := newTestHasher()
	ctx := context.Background()

	legacy, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}

	ok, err := h.Verify(ctx, "secret1", string(legacy))
	if err != nil || !ok {
		t.Fatalf("expected legacy match, got %v,%v", ok, err)
	}
	ok, err = h.Verify(ctx, "wrong1", string(legacy))
	if err != nil || ok {
		t.Fatalf("expected legacy mismatch, got %v,%v", ok, err)
	}
	if !h.NeedsRehash(string(legacy)) {
		t.Fatalf("expected bcrypt hash to need rehash")
	}
}

func TestHasher_VerifyAcceptsStrongerStoredParams(t *testing.T) {
	ctx := context.Background()
	stronger := NewHasher(HasherParams{Time: 2, MemoryKiB: 256, Threads: 2})
	hash, err := stronger.Hash(ctx, "secret1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	ok, err := newTestHasher().Verify(ctx, "secret1", hash)
	if err != nil || !ok {
		t.Fatalf("expected hash within cost limits to verify, got %v,%v", ok, err)
	}
}

func TestHasher_VerifyLegacyBcryptLongPassword(t *testing.T) {
	h := NewHasher(HasherParams{Time: 1, MemoryKiB: 64, Threads: 1, MaxBytes: 128})
	ctx := context.Background()

	legacy, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}

	ok, err := h.Verify(ctx, strings.Repeat("a", 100), string(legacy))
	if err != nil || ok {
		t.Fatalf("expected plain mismatch for 100-byte password, got %v,%v", ok, err)
	}
	ok, err = h.Verify(ctx, "secret1", string(legacy))
	if err != nil || !ok {
		t.Fatalf("expected legacy match, got %v,%v", ok, err)
	}
}

func TestHasher_NeedsRehash(t *testing.T) {
	h := newTestHasher()
	hash, err := h.Hash(context.Background(), "secret1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if h.NeedsRehash(hash) {
		t.Fatalf("expected current params not to need rehash")
	}

	stronger := NewHasher(HasherParams{Time: 2, MemoryKiB: 64, Threads: 1})
	if !stronger.NeedsRehash(hash) {
		t.Fatalf("expected changed params to need rehash")
	}
	if stronger.NeedsRehash("garbage") {
		t.Fatalf("expected malformed hash not to be flagged for rehash")
	}

	ok, err := stronger.Verify(context.Background(), "secret1", hash)
	if err != nil || !ok {
		t.Fatalf("expected verification with embedded params, got %v,%v", ok, err)
	}
}
