package cli

import (
	"bufio"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/eleven-am/larder/internal/models"
	"github.com/eleven-am/larder/internal/service"
	"github.com/eleven-am/larder/internal/store"
	"github.com/spf13/cobra"
)

func newUserCommand(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}
	cmd.AddCommand(newUserCreateCommand(g))
	return cmd
}

func newUserCreateCommand(g *globals) *cobra.Command {
	var (
		password string
		admin    bool
	)

	cmd := &cobra.Command{
		Use:   "create <username>",
		Short: "Create an account",
		Long: `Create an account directly in the database. This is the only way to
create an administrator. Without --password the password is read from the
first line of standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			if password == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("password required: use --password or pipe it on stdin")
				}
				password = strings.TrimRight(line, "\r\n")
			}

			db, err := g.connect(ctx)
			if err != nil {
				return err
			}
			st := store.NewPostgres(db)
			defer st.Close()

			user, err := createUser(ctx, st, args[0], password, admin)
			if err != nil {
				return err
			}

			role := "user"
			if user.IsAdmin {
				role = "admin"
			}
			cmd.Printf("Created %s %q with id %d\n", role, user.Username, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "password for the new account")
	cmd.Flags().BoolVar(&admin, "admin", false, "grant administrator rights")

	return cmd
}

// createUser goes through the service so the usual validation and hashing
// apply. Registration never issues tokens, so no issuer is needed.
func createUser(ctx context.Context, st store.Store, username, password string, admin bool) (models.User, error) {
	return service.New(st, nil).Users.Register(ctx, service.Registration{
		Username: username,
		Password: password,
		IsAdmin:  admin,
	})
}
