package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"auth-api/internal/domain"
	"auth-api/internal/repository"
	"auth-api/internal/service"
)

func newTestCLI(t *testing.T, input string) (*cli, *repository.MemoryUserRepository, *bytes.Buffer) {
	t.Helper()
	repo := repository.NewMemoryUserRepository()
	tokens, err := service.NewTokenService("secret", time.Hour)
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	hasher := service.NewHasher(service.HasherParams{Time: 1, MemoryKiB: 64, Threads: 1, Concurrency: 1})
	validator := service.NewValidator(service.ValidatorConfig{})
	out := &bytes.Buffer{}
	return &cli{
		auth:  service.NewAuthService(zap.NewNop(), repo, hasher, tokens, validator),
		users: service.NewUserService(zap.NewNop(), repo, validator),
		in:    bufio.NewReader(strings.NewReader(input)),
		out:   out,
	}, repo, out
}

func TestCreateAdmin(t *testing.T) {
	app, repo, out := newTestCLI(t, "Root\nroot@x.com\nsecret1\nsecret1\n")

	if err := app.run(context.Background(), []string{"create-admin"}); err != nil {
		t.Fatalf("create-admin: %v", err)
	}
	user, err := repo.FindByEmail(context.Background(), "root@x.com")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if user.Role != domain.RoleAdmin {
		t.Fatalf("expected admin, got %s", user.Role)
	}
	if !strings.Contains(out.String(), "admin creado: root@x.com") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestCreateAdmin_ValidationMessage(t *testing.T) {
	app, _, _ := newTestCLI(t, "Root\nroot@x.com\nsecret1\nsecret2\n")

	err := app.run(context.Background(), []string{"create-admin"})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if got := describe(err); got != "Password and confirm password do not match" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestSetRoleAndList(t *testing.T) {
	app, repo, out := newTestCLI(t, "")
	ctx := context.Background()
	if _, err := repo.Insert(ctx, domain.NewUser{Name: "A", Email: "a@x.com", PasswordHash: "h"}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := app.run(ctx, []string{"set-role", "a@x.com", "moderator"}); err != nil {
		t.Fatalf("set-role: %v", err)
	}
	if !strings.Contains(out.String(), "a@x.com ahora es moderator") {
		t.Fatalf("unexpected output %q", out.String())
	}

	out.Reset()
	if err := app.run(ctx, []string{"list"}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out.String(), "moderator") || !strings.Contains(out.String(), "1 de 1 usuarios") {
		t.Fatalf("unexpected list output %q", out.String())
	}
}

func TestRun_Usage(t *testing.T) {
	app, _, _ := newTestCLI(t, "")
	for _, args := range [][]string{nil, {"nope"}, {"set-role", "a@x.com"}} {
		if err := app.run(context.Background(), args); !errors.Is(err, errUsage) {
			t.Fatalf("expected usage error for %v, got %v", args, err)
		}
	}
}
