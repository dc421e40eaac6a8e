package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/sitecms/internal/cmsdb"
)

var errRequiredFlag = errors.New("required flag not set")

func requireFlags(fs *flag.FlagSet, names ...string) error {
	for _, n := range names {
		v, _ := fs.GetString(n)
		if v == "" {
			return fmt.Errorf("%w: --%s", errRequiredFlag, n)
		}
	}

	return nil
}

// UsersCmd returns the users command.
func UsersCmd(db *cmsdb.DB) *Command {
	return &Command{
		Flags: flag.NewFlagSet("users", flag.ContinueOnError),
		Usage: "users",
		Short: "List users",
		Exec: func(ctx context.Context, io *IO, _ []string) error {
			users, err := db.GetUsers(ctx)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(users))
			for _, u := range users {
				rows = append(rows, []string{
					u.ID, u.Email, u.Name, string(u.Role), string(u.Status), strconv.FormatBool(u.TwoFAEnabled),
				})
			}

			return printTable(io, []string{"ID", "EMAIL", "NAME", "ROLE", "STATUS", "2FA"}, rows)
		},
	}
}

// UserAddCmd returns the user-add command.
func UserAddCmd(db *cmsdb.DB) *Command {
	fs := flag.NewFlagSet("user-add", flag.ContinueOnError)
	fs.String("name", "", "Display name (required)")
	fs.String("email", "", "Email address (required)")
	fs.String("password", "", "Initial password (required)")
	fs.String("role", string(cmsdb.RoleViewer), "Role (admin|editor|viewer)")

	return &Command{
		Flags: fs,
		Usage: "user-add --name n --email e --password p [--role r]",
		Short: "Create a user",
		Exec: func(ctx context.Context, io *IO, _ []string) error {
			err := requireFlags(fs, "name", "email", "password")
			if err != nil {
				return err
			}

			name, _ := fs.GetString("name")
			email, _ := fs.GetString("email")
			password, _ := fs.GetString("password")
			role, _ := fs.GetString("role")

			switch cmsdb.Role(role) {
			case cmsdb.RoleAdmin, cmsdb.RoleEditor, cmsdb.RoleViewer:
			default:
				return fmt.Errorf("invalid role: %s", role)
			}

			u, err := db.CreateUser(ctx, cmsdb.NewUser{
				Name:     name,
				Email:    email,
				Password: password,
				Role:     cmsdb.Role(role),
			})
			if err != nil {
				return err
			}

			io.Println(u.ID)

			return nil
		},
	}
}

// ResetTokenCmd returns the reset-token command.
func ResetTokenCmd(db *cmsdb.DB) *Command {
	return &Command{
		Flags: flag.NewFlagSet("reset-token", flag.ContinueOnError),
		Usage: "reset-token <email>",
		Short: "Issue a password reset token",
		Long:  "Issue a password reset token for the user and print it. Any earlier token stops working.",
		Exec: func(ctx context.Context, io *IO, args []string) error {
			if len(args) != 1 {
				return usageError("reset-token <email>")
			}

			token, err := db.GenerateResetToken(ctx, args[0])
			if err != nil {
				return err
			}

			io.Println(token)

			return nil
		},
	}
}

// ResetCmd returns the reset command.
func ResetCmd(db *cmsdb.DB) *Command {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	fs.String("password", "", "New password (required)")

	return &Command{
		Flags: fs,
		Usage: "reset <token> --password p",
		Short: "Complete a password reset",
		Exec: func(ctx context.Context, io *IO, args []string) error {
			if len(args) != 1 {
				return usageError("reset <token> --password p")
			}

			err := requireFlags(fs, "password")
			if err != nil {
				return err
			}

			password, _ := fs.GetString("password")

			u, err := db.CompleteReset(ctx, args[0], password)
			if err != nil {
				return err
			}

			io.Println("password updated for", u.Email)

			return nil
		},
	}
}

// TwoFACmd returns the 2fa command.
func TwoFACmd(db *cmsdb.DB) *Command {
	fs := flag.NewFlagSet("2fa", flag.ContinueOnError)
	fs.String("secret", "", "Store this secret before toggling")

	return &Command{
		Flags: fs,
		Usage: "2fa <user-id> on|off [--secret s]",
		Short: "Enable or disable two-factor authentication",
		Long: "Enable or disable two-factor authentication for a user. Enabling requires a " +
			"stored secret; --secret stores one first. Disabling keeps the secret.",
		Exec: func(ctx context.Context, io *IO, args []string) error {
			if len(args) != 2 || (args[1] != "on" && args[1] != "off") {
				return usageError("2fa <user-id> on|off [--secret s]")
			}

			id := args[0]

			if secret, _ := fs.GetString("secret"); secret != "" {
				_, err := db.SetTwoFASecret(ctx, id, secret)
				if err != nil {
					return err
				}
			}

			u, err := db.ToggleTwoFA(ctx, id, args[1] == "on")
			if err != nil {
				return err
			}

			io.Printf("2fa %s for %s\n", args[1], u.Email)

			return nil
		},
	}
}
