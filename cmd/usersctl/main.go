// usersctl administra cuentas directamente sobre el directorio configurado.
//
//	usersctl create-admin            pide nombre, email y contraseña
//	usersctl set-role <email> <role> cambia el rol (admin, moderator, user)
//	usersctl list [page] [limit]     lista usuarios, más nuevos primero
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"auth-api/internal/config"
	"auth-api/internal/db"
	"auth-api/internal/domain"
	"auth-api/internal/service"
)

func main() {
	ctx := context.Background()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	users, closeStore, err := db.OpenUserDirectory(ctx, cfg, logger)
	if err != nil {
		log.Fatal(err)
	}
	defer closeStore()

	tokens, err := service.NewTokenService(cfg.JWTSecret, cfg.TokenTTL(), service.WithIssuer(cfg.JWTIssuer))
	if err != nil {
		log.Fatal(err)
	}
	hasher := service.NewHasher(service.HasherParams{
		Time:        cfg.Argon2Time,
		MemoryKiB:   cfg.Argon2MemoryKiB,
		Threads:     cfg.Argon2Threads,
		MaxBytes:    cfg.MaxPasswordBytes,
		Concurrency: cfg.HashConcurrency,
	})
	validator := service.NewValidator(service.ValidatorConfig{
		MinPasswordLength: cfg.MinPasswordLength,
		MaxPasswordBytes:  cfg.MaxPasswordBytes,
		PageDefaultLimit:  cfg.PageDefaultLimit,
		PageMaxLimit:      cfg.PageMaxLimit,
	})

	app := &cli{
		auth:  service.NewAuthService(logger, users, hasher, tokens, validator),
		users: service.NewUserService(logger, users, validator),
		in:    bufio.NewReader(os.Stdin),
		out:   os.Stdout,
	}
	if err := app.run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, describe(err))
		os.Exit(1)
	}
}

type cli struct {
	auth  *service.AuthService
	users *service.UserService
	in    *bufio.Reader
	out   io.Writer
}

var errUsage = errors.New("usage: usersctl create-admin | set-role <email> <role> | list [page] [limit]")

func (a *cli) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "create-admin":
		return a.createAdmin(ctx)
	case "set-role":
		if len(args) != 3 {
			return errUsage
		}
		user, err := a.users.SetRole(ctx, args[1], args[2])
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s ahora es %s\n", user.Email, user.Role)
		return nil
	case "list":
		page, limit := "", ""
		if len(args) > 1 {
			page = args[1]
		}
		if len(args) > 2 {
			limit = args[2]
		}
		return a.list(ctx, page, limit)
	}
	return errUsage
}

func (a *cli) createAdmin(ctx context.Context) error {
	name, err := readLine(a.in, a.out, "Nombre")
	if err != nil {
		return err
	}
	email, err := readLine(a.in, a.out, "Email")
	if err != nil {
		return err
	}
	password, err := readSecret(a.in, a.out, "Contraseña")
	if err != nil {
		return err
	}
	confirm, err := readSecret(a.in, a.out, "Confirmar contraseña")
	if err != nil {
		return err
	}

	user, err := a.auth.CreateUser(ctx, service.RegisterInput{
		Name:            name,
		Email:           email,
		Password:        password,
		PasswordConfirm: confirm,
	}, domain.RoleAdmin)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "admin creado: %s (%s)\n", user.Email, user.ID)
	return nil
}

func (a *cli) list(ctx context.Context, page, limit string) error {
	res, err := a.users.List(ctx, page, limit)
	if err != nil {
		return err
	}
	for _, u := range res.Users {
		fmt.Fprintf(a.out, "%s\t%-9s\t%s\t%s\n", u.ID, u.Role, u.Email, u.CreatedAt.Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(a.out, "página %d, %d de %d usuarios\n", res.Page, len(res.Users), res.Total)
	return nil
}

// describe imprime el mensaje seguro de los errores del dominio.
func describe(err error) string {
	var derr *domain.Error
	if errors.As(err, &derr) {
		return derr.Message()
	}
	return err.Error()
}
