package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/nikolayk812/partyshop/internal/bootstrap"
	"github.com/nikolayk812/partyshop/internal/catalog"
	"github.com/nikolayk812/partyshop/internal/domain"
	"github.com/nikolayk812/partyshop/internal/profile"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	App    *bootstrap.App
	Out    io.Writer
}

const readyTimeout = 10 * time.Second

// errSignedOut is printed as a user message; the cart belongs to a signed-in shopper.
var errSignedOut = domain.NewValidationError("Faça login para continuar.")

func main() {
	os.Exit(run(os.Args[1:])) //nolint:forbidigo // CLI exit status
}

func run(args []string) int {
	if len(args) < 1 {
		printUsage(os.Stdout)
		return 2
	}

	cmdName := args[0]
	cmd, ok := commands()[cmdName]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmdName)
		printUsage(os.Stderr)
		return 2
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 1
	}
	logger := bootstrap.InitLogger(cfg, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewApp(ctx, bootstrap.ServicesConfig{Config: cfg, Logger: logger})
	if err != nil {
		logger.ErrorContext(ctx, "build app", slog.Any("error", err))
		return 1
	}
	defer func() {
		if closeErr := app.Close(); closeErr != nil {
			logger.Error("close app", slog.Any("error", closeErr))
		}
	}()

	if err := waitReady(ctx, app); err != nil {
		logger.ErrorContext(ctx, "session not ready", slog.Any("error", err))
		return 1
	}

	cmdCtx := &commandContext{Ctx: ctx, Logger: logger, App: app, Out: os.Stdout}
	if err := cmd.run(cmdCtx, args[1:]); err != nil {
		var userErr *domain.UserError
		if errors.As(err, &userErr) {
			fmt.Fprintln(os.Stderr, userErr.Message)
			logger.DebugContext(ctx, "command failed",
				slog.String("command", cmdName),
				slog.String("kind", userErr.Kind.String()),
				slog.Any("error", err))
			return 1
		}
		logger.ErrorContext(ctx, "command failed", slog.String("command", cmdName), slog.Any("error", err))
		return 1
	}

	if err := app.Session.Flush(ctx); err != nil {
		logger.ErrorContext(ctx, "flush cart", slog.Any("error", err))
		return 1
	}

	return 0
}

func waitReady(ctx context.Context, app *bootstrap.App) error {
	timer := time.NewTimer(readyTimeout)
	defer timer.Stop()

	select {
	case <-app.Session.Ready():
		return nil
	case <-timer.C:
		return errors.New("timed out restoring cart")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func commands() map[string]command {
	return map[string]command{
		"catalog": {
			name:        "catalog",
			description: "List the party packages on sale",
			run:         runCatalog,
		},
		"cart": {
			name:        "cart",
			description: "Show the cart and its total",
			run:         runCart,
		},
		"add": {
			name:        "add",
			description: "Add a package to the cart: add <package-id>",
			run:         runAdd,
		},
		"remove": {
			name:        "remove",
			description: "Remove a package from the cart: remove <package-id>",
			run:         runRemove,
		},
		"clear": {
			name:        "clear",
			description: "Empty the cart",
			run:         runClear,
		},
		"signin": {
			name:        "signin",
			description: "Sign in: signin <email> <password>",
			run:         runSignIn,
		},
		"signup": {
			name:        "signup",
			description: "Create an account: signup <email> <password> <confirmation>",
			run:         runSignUp,
		},
		"anon": {
			name:        "anon",
			description: "Continue without an account",
			run:         runAnonymous,
		},
		"logout": {
			name:        "logout",
			description: "Sign out",
			run:         runLogout,
		},
		"whoami": {
			name:        "whoami",
			description: "Show the signed-in user",
			run:         runWhoAmI,
		},
		"profile": {
			name:        "profile",
			description: "Show the signed-in user's profile",
			run:         runProfile,
		},
		"profile-save": {
			name:        "profile-save",
			description: "Save profile fields, filling the address from -cep; -replace overwrites",
			run:         runProfileSave,
		},
		"profile-clear": {
			name:        "profile-clear",
			description: "Delete the signed-in user's profile",
			run:         runProfileClear,
		},
		"cep": {
			name:        "cep",
			description: "Look up an address: cep <postal-code>",
			run:         runCEP,
		},
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "Usage: partyshop <command> [args]\n\nAvailable commands:\n")

	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Fprintf(w, "  %-16s %s\n", name, cmds[name].description)
	}
}

func expectArgs(args []string, n int, usage string) error {
	if len(args) != n {
		return fmt.Errorf("usage: partyshop %s", usage)
	}
	return nil
}

func signedIn(ctx *commandContext) (*domain.Identity, error) {
	id := ctx.App.Session.Identity()
	if id == nil {
		return nil, errSignedOut
	}
	return id, nil
}

func runCatalog(ctx *commandContext, _ []string) error {
	tw := tabwriter.NewWriter(ctx.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPACOTE\tPREÇO")
	for _, p := range catalog.All() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, p.Title, p.Price)
	}
	return tw.Flush()
}

func runCart(ctx *commandContext, _ []string) error {
	cart := ctx.App.Session.Cart()
	if len(cart) == 0 {
		fmt.Fprintln(ctx.Out, "Seu carrinho está vazio.")
		return nil
	}

	tw := tabwriter.NewWriter(ctx.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPACOTE\tPREÇO")
	for _, item := range cart {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", item.ID, item.Title, item.Price)
	}
	fmt.Fprintf(tw, "\tTotal\t%s\n", cart.Total(catalog.Currency))
	return tw.Flush()
}

func runAdd(ctx *commandContext, args []string) error {
	if err := expectArgs(args, 1, "add <package-id>"); err != nil {
		return err
	}
	if _, err := signedIn(ctx); err != nil {
		return err
	}

	pkg, err := catalog.Get(args[0])
	if err != nil {
		return domain.NewValidationError(fmt.Sprintf("Pacote %q não encontrado.", args[0]))
	}

	added, err := ctx.App.Session.AddToCart(ctx.Ctx, pkg.CartItem(time.Now()))
	if err != nil {
		return err
	}

	if added {
		fmt.Fprintf(ctx.Out, "%s adicionado ao carrinho.\n", pkg.Title)
	} else {
		fmt.Fprintf(ctx.Out, "%s já está no carrinho.\n", pkg.Title)
	}
	return nil
}

func runRemove(ctx *commandContext, args []string) error {
	if err := expectArgs(args, 1, "remove <package-id>"); err != nil {
		return err
	}

	removed, err := ctx.App.Session.RemoveFromCart(ctx.Ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(ctx.Out, "%d item(ns) removido(s).\n", removed)
	return nil
}

func runClear(ctx *commandContext, _ []string) error {
	if err := ctx.App.Session.ClearCart(ctx.Ctx); err != nil {
		return err
	}
	fmt.Fprintln(ctx.Out, "Carrinho esvaziado.")
	return nil
}

func runSignIn(ctx *commandContext, args []string) error {
	if err := expectArgs(args, 2, "signin <email> <password>"); err != nil {
		return err
	}

	id, err := ctx.App.Accounts.SignIn(ctx.Ctx, args[0], args[1])
	if err != nil {
		return err
	}

	fmt.Fprintf(ctx.Out, "Bem-vindo, %s!\n", id.Email)
	return nil
}

func runSignUp(ctx *commandContext, args []string) error {
	if err := expectArgs(args, 3, "signup <email> <password> <confirmation>"); err != nil {
		return err
	}

	id, err := ctx.App.Accounts.SignUp(ctx.Ctx, args[0], args[1], args[2])
	if err != nil {
		return err
	}

	fmt.Fprintf(ctx.Out, "Conta criada para %s.\n", id.Email)
	return nil
}

func runAnonymous(ctx *commandContext, _ []string) error {
	id, err := ctx.App.Accounts.SignInAnonymously(ctx.Ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(ctx.Out, "Sessão anônima %s.\n", id.UID)
	return nil
}

func runLogout(ctx *commandContext, _ []string) error {
	ctx.App.Accounts.SignOut(ctx.Ctx)
	fmt.Fprintln(ctx.Out, "Você saiu da sua conta.")
	return nil
}

func runWhoAmI(ctx *commandContext, _ []string) error {
	id := ctx.App.Session.Identity()
	switch {
	case id == nil:
		fmt.Fprintln(ctx.Out, "Ninguém conectado.")
	case id.Anonymous:
		fmt.Fprintf(ctx.Out, "%s (anônimo)\n", id.UID)
	default:
		fmt.Fprintf(ctx.Out, "%s <%s>\n", id.UID, id.Email)
	}
	return nil
}

func runProfile(ctx *commandContext, _ []string) error {
	id, err := signedIn(ctx)
	if err != nil {
		return err
	}

	p, err := ctx.App.Profiles.Load(ctx.Ctx, id.UID)
	if err != nil {
		return err
	}

	printProfile(ctx.Out, p)
	return nil
}

func runProfileSave(ctx *commandContext, args []string) error {
	id, err := signedIn(ctx)
	if err != nil {
		return err
	}

	current, err := ctx.App.Profiles.Load(ctx.Ctx, id.UID)
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("profile-save", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	name := fs.String("name", current.Name, "full name")
	taxID := fs.String("cpf", current.TaxID, "CPF")
	phone := fs.String("phone", current.Phone, "phone number")
	cep := fs.String("cep", current.Address.PostalCode, "postal code; fills street, neighborhood, city and state")
	number := fs.String("number", current.Address.Number, "address number")
	complement := fs.String("complement", current.Address.Complement, "address complement")
	replace := fs.Bool("replace", false, "overwrite the stored profile instead of merging into it")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	next := current
	next.Name = *name
	next.TaxID = profile.FormatTaxID(*taxID)
	next.Phone = profile.FormatPhone(*phone)
	next.Address.Number = *number
	next.Address.Complement = *complement

	if *cep != current.Address.PostalCode {
		next.Address.PostalCode = *cep
		if next, err = ctx.App.Profiles.FillAddress(ctx.Ctx, next); err != nil {
			return err
		}
	}

	save := ctx.App.Profiles.Save
	if *replace {
		save = ctx.App.Profiles.Replace
	}

	saved, err := save(ctx.Ctx, id.UID, next)
	if err != nil {
		return err
	}

	fmt.Fprintln(ctx.Out, "Perfil salvo.")
	printProfile(ctx.Out, saved)
	return nil
}

func runProfileClear(ctx *commandContext, _ []string) error {
	id, err := signedIn(ctx)
	if err != nil {
		return err
	}

	existed, err := ctx.App.Profiles.Clear(ctx.Ctx, id.UID)
	if err != nil {
		return err
	}

	if existed {
		fmt.Fprintln(ctx.Out, "Perfil apagado.")
	} else {
		fmt.Fprintln(ctx.Out, "Nenhum perfil salvo.")
	}
	return nil
}

func runCEP(ctx *commandContext, args []string) error {
	if err := expectArgs(args, 1, "cep <postal-code>"); err != nil {
		return err
	}

	p, err := ctx.App.Profiles.FillAddress(ctx.Ctx, domain.Profile{Address: domain.Address{PostalCode: args[0]}})
	if err != nil {
		return err
	}

	a := p.Address
	fmt.Fprintf(ctx.Out, "%s, %s, %s - %s\n", a.Street, a.Neighborhood, a.City, a.Region)
	return nil
}

func printProfile(w io.Writer, p domain.Profile) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Nome\t%s\n", p.Name)
	fmt.Fprintf(tw, "CPF\t%s\n", p.TaxID)
	fmt.Fprintf(tw, "Telefone\t%s\n", p.Phone)
	fmt.Fprintf(tw, "CEP\t%s\n", p.Address.PostalCode)
	fmt.Fprintf(tw, "Endereço\t%s, %s %s\n", p.Address.Street, p.Address.Number, p.Address.Complement)
	fmt.Fprintf(tw, "Bairro\t%s\n", p.Address.Neighborhood)
	fmt.Fprintf(tw, "Cidade\t%s - %s\n", p.Address.City, p.Address.Region)
	if !p.UpdatedAt.IsZero() {
		fmt.Fprintf(tw, "Atualizado\t%s\n", p.UpdatedAt.Local().Format(time.DateTime))
	}
	_ = tw.Flush()
}
