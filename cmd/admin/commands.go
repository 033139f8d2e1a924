package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/amirhossein-jamali/clipforge/internal/domain/entity"
	errs "github.com/amirhossein-jamali/clipforge/internal/domain/error"
	coreport "github.com/amirhossein-jamali/clipforge/internal/domain/port/core"
	"github.com/amirhossein-jamali/clipforge/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/clipforge/internal/domain/port/security"
	"github.com/amirhossein-jamali/clipforge/internal/domain/port/usecase"
)

const (
	adminGrantReason   = "Admin credit grant"
	initialGrantReason = "Initial credit grant"

	// reconcileParallelism bounds concurrent per-user checks
	reconcileParallelism = 4
)

// environment is what every subcommand works against
type environment struct {
	uow       persistence.UnitOfWork
	ledger    usecase.LedgerUseCase
	passwords security.PasswordHasher
	clock     coreport.TimeProvider
	// migrate applies pending schema steps and returns the resulting version
	migrate func(ctx context.Context) (string, error)
}

// bootstrap opens an environment and returns a function releasing it
type bootstrap func(ctx context.Context, verbose bool) (*environment, func(), error)

func newRootCmd(boot bootstrap) *cobra.Command {
	var (
		verbose bool
		env     *environment
		release func()
	)

	root := &cobra.Command{
		Use:           "clipforge-admin",
		Short:         "Operator tasks for ClipForge accounts and credits",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			env, release, err = boot(cmd.Context(), verbose)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if release != nil {
				release()
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr")

	current := func() *environment { return env }
	root.AddCommand(newAddCreditsCmd(current))
	root.AddCommand(newListUsersCmd(current))
	root.AddCommand(newResetPasswordCmd(current))
	root.AddCommand(newCreateUserCmd(current))
	root.AddCommand(newReconcileCmd(current))
	root.AddCommand(newMigrateCmd(current))
	return root
}

func newAddCreditsCmd(env func() *environment) *cobra.Command {
	var login string
	var amount int64

	cmd := &cobra.Command{
		Use:   "add-credits",
		Short: "Grant credits to a user through the ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			if amount <= 0 {
				return fmt.Errorf("--amount must be positive")
			}
			e := env()
			ctx := cmd.Context()
			user, err := findUser(ctx, e, login)
			if err != nil {
				return err
			}
			updated, err := e.ledger.Credit(ctx, user.ID, amount, entity.CreditKindPurchase, adminGrantReason, "")
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %d credits to %s; balance is now %d\n", amount, user.Username, updated.Credits())
			return nil
		},
	}
	cmd.Flags().StringVar(&login, "user", "", "username or email")
	cmd.Flags().Int64Var(&amount, "amount", 0, "credits to add")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newListUsersCmd(env func() *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "list-users",
		Short: "List all users with their balances",
		RunE: func(cmd *cobra.Command, args []string) error {
			e := env()
			users, err := e.uow.Users(cmd.Context()).List(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tCREDITS\tAUTH\tCREATED")
			for _, u := range users {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
					u.ID, u.Username, u.Email, u.Credits(), u.AuthType, u.CreatedAt.Format(time.RFC3339))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d users\n", len(users))
			return nil
		},
	}
}

func newResetPasswordCmd(env func() *environment) *cobra.Command {
	var login, password string

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password for a password user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(password) < 6 {
				return fmt.Errorf("--password must be at least 6 characters")
			}
			e := env()
			ctx := cmd.Context()
			user, err := findUser(ctx, e, login)
			if err != nil {
				return err
			}
			if user.IsEmbedded() {
				return fmt.Errorf("%s signs in through its CRM location and has no usable password", user.Username)
			}

			hash, err := e.passwords.Hash(password)
			if err != nil {
				return err
			}
			user.PasswordHash = hash
			user.UpdatedAt = e.clock.Now()
			if err := e.uow.Users(ctx).UpdateProfile(ctx, user); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Password updated for %s\n", user.Username)
			return nil
		},
	}
	cmd.Flags().StringVar(&login, "user", "", "username or email")
	cmd.Flags().StringVar(&password, "password", "", "new password")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newCreateUserCmd(env func() *environment) *cobra.Command {
	var username, email, password string
	var credits int64

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a password user, optionally with starting credits",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(password) < 6 {
				return fmt.Errorf("--password must be at least 6 characters")
			}
			if credits < 0 {
				return fmt.Errorf("--credits cannot be negative")
			}
			e := env()
			ctx := cmd.Context()

			hash, err := e.passwords.Hash(password)
			if err != nil {
				return err
			}
			user, err := entity.NewUser(username, email, hash, 0, entity.AuthTypePassword, e.clock)
			if err != nil {
				return err
			}

			// The starting balance is a ledger entry so reconcile stays at zero
			err = persistence.WithinTx(ctx, e.uow, func(txCtx context.Context) error {
				users := e.uow.Users(txCtx)
				exists, err := users.ExistsByUsernameOrEmail(txCtx, user.Username, user.Email)
				if err != nil {
					return err
				}
				if exists {
					return errs.ErrDuplicateUser
				}
				if err := users.Create(txCtx, user); err != nil {
					return err
				}
				if credits == 0 {
					return nil
				}
				updated, err := e.ledger.Credit(txCtx, user.ID, credits, entity.CreditKindPurchase, initialGrantReason, "")
				if err != nil {
					return err
				}
				user = updated
				return nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%s) with %d credits\n", user.Username, user.ID, user.Credits())
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "unique display name")
	cmd.Flags().StringVar(&email, "email", "", "unique email")
	cmd.Flags().StringVar(&password, "password", "", "initial password")
	cmd.Flags().Int64Var(&credits, "credits", 0, "starting credits")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

type drift struct {
	user   *entity.User
	amount int64
}

func newReconcileCmd(env func() *environment) *cobra.Command {
	var login string

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Compare balances with the sum of each user's credit history",
		RunE: func(cmd *cobra.Command, args []string) error {
			e := env()
			ctx := cmd.Context()

			var users []*entity.User
			if login != "" {
				user, err := findUser(ctx, e, login)
				if err != nil {
					return err
				}
				users = []*entity.User{user}
			} else {
				all, err := e.uow.Users(ctx).List(ctx)
				if err != nil {
					return err
				}
				users = all
			}

			var (
				mu      sync.Mutex
				drifted []drift
			)
			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(reconcileParallelism)
			for _, u := range users {
				g.Go(func() error {
					amount, err := e.ledger.Reconcile(gctx, u.ID)
					if err != nil {
						return fmt.Errorf("reconcile %s: %w", u.Username, err)
					}
					if amount != 0 {
						mu.Lock()
						drifted = append(drifted, drift{user: u, amount: amount})
						mu.Unlock()
					}
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(drifted) == 0 {
				fmt.Fprintf(out, "OK: %d users consistent\n", len(users))
				return nil
			}
			sort.Slice(drifted, func(i, j int) bool { return drifted[i].user.Username < drifted[j].user.Username })
			for _, d := range drifted {
				fmt.Fprintf(out, "DRIFT %s (%s): balance differs from history by %+d\n", d.user.Username, d.user.ID, d.amount)
			}
			return fmt.Errorf("%d of %d users drifted", len(drifted), len(users))
		},
	}
	cmd.Flags().StringVar(&login, "user", "", "check only this username or email")
	return cmd
}

func newMigrateCmd(env func() *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := env().migrate(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Schema is at version %s\n", version)
			return nil
		},
	}
}

// findUser accepts a username, an email or a user id
func findUser(ctx context.Context, e *environment, login string) (*entity.User, error) {
	users := e.uow.Users(ctx)
	if id, err := uuid.Parse(login); err == nil {
		return users.GetByID(ctx, id)
	}
	user, err := users.GetByLogin(ctx, login)
	if errors.Is(err, errs.ErrUserNotFound) {
		return nil, fmt.Errorf("user %q not found", login)
	}
	return user, err
}
