package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	accountStore "absentee/internal/adapters/storage/account"
	"absentee/internal/application/orchestrators"
	"absentee/internal/domain/account"
)

//nolint:gochecknoglobals // Cobra flags are typically global
var (
	operatorEmail    string
	operatorPassword string
	operatorRole     string
)

//nolint:gochecknoglobals // Cobra commands are typically global
var operatorCmd = &cobra.Command{
	Use:   "operator",
	Short: "Manage operator accounts (accounts auth mode)",
}

//nolint:gochecknoglobals // Cobra commands are typically global
var operatorAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create an operator account",
	Args:  cobra.NoArgs,
	RunE:  runOperatorAdd,
}

//nolint:gochecknoglobals // Cobra commands are typically global
var operatorResetCmd = &cobra.Command{
	Use:   "reset-password",
	Short: "Set a new password for an account and clear any lockout",
	Args:  cobra.NoArgs,
	RunE:  runOperatorReset,
}

func init() {
	operatorAddCmd.Flags().StringVar(&operatorEmail, "email", "", "account email")
	operatorAddCmd.Flags().StringVar(&operatorPassword, "password", "", "password (default $ABSENTEE_OPERATOR_PASSWORD)")
	operatorAddCmd.Flags().StringVar(&operatorRole, "role", account.RoleOperator, "admin or operator")
	_ = operatorAddCmd.MarkFlagRequired("email")

	operatorResetCmd.Flags().StringVar(&operatorEmail, "email", "", "account email")
	operatorResetCmd.Flags().StringVar(&operatorPassword, "password", "", "new password (default $ABSENTEE_OPERATOR_PASSWORD)")
	_ = operatorResetCmd.MarkFlagRequired("email")

	operatorCmd.AddCommand(operatorAddCmd, operatorResetCmd)
}

func runOperatorAdd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := openDatabase(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer db.Close()

	id, err := orchestrators.ExecuteCreateAccount(ctx, orchestrators.CreateAccountInput{
		Email:    operatorEmail,
		Password: operatorPasswordValue(),
		Role:     operatorRole,
	}, orchestrators.CreateAccountDeps{
		AccountStore: accountStore.NewSQLStore(db, db.Dialect()),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created %s account %s (%s)\n", operatorRole, account.NormalizeEmail(operatorEmail), id)
	return nil
}

func runOperatorReset(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := openDatabase(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer db.Close()

	err = orchestrators.ExecuteResetPassword(ctx, orchestrators.ResetPasswordInput{
		Email:       operatorEmail,
		NewPassword: operatorPasswordValue(),
	}, orchestrators.ResetPasswordDeps{
		AccountStore: accountStore.NewSQLStore(db, db.Dialect()),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "password reset for %s\n", account.NormalizeEmail(operatorEmail))
	return nil
}

// operatorPasswordValue returns --password, falling back to ABSENTEE_OPERATOR_PASSWORD.
func operatorPasswordValue() string {
	if operatorPassword != "" {
		return operatorPassword
	}
	return os.Getenv("ABSENTEE_OPERATOR_PASSWORD")
}
