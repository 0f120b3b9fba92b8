package command

import (
	"context"
	"fmt"

	"github.com/princeprakhar/yamdb-backend/internal/services"
	"github.com/spf13/cobra"
)

var newUser services.CreateUserRequest

var createUserCmd = &cobra.Command{
	Use:   "createuser",
	Short: "Create an account, e.g. the first admin",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, closeDB, err := openDatabase()
		if err != nil {
			return err
		}
		defer closeDB()

		user, err := services.CreateAccount(context.Background(), db, newUser)
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		fmt.Println("✓ User created successfully!")
		fmt.Printf("Username: %s\n", user.Username)
		fmt.Printf("Email: %s\n", user.Email)
		fmt.Printf("Role: %s\n", user.Role)
		return nil
	},
}

func init() {
	createUserCmd.Flags().StringVar(&newUser.Username, "username", "", "username (required)")
	createUserCmd.Flags().StringVar(&newUser.Email, "email", "", "email address (required)")
	createUserCmd.Flags().StringVar(&newUser.Role, "role", "user", "role: user, moderator or admin")
	_ = createUserCmd.MarkFlagRequired("username")
	_ = createUserCmd.MarkFlagRequired("email")
}
