package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thruflo/ttsdash/internal/wizard"
)

var forgotEmail string

var forgotCmd = &cobra.Command{
	Use:   "forgot-password",
	Short: "Reset a forgotten password with an emailed OTP",
	Long: `Walk through the password reset flow:

  1. Enter your email; a 6-digit OTP is sent to it
  2. Enter the OTP
  3. Choose and confirm a new password

A failed step can be retried; the flow never skips ahead.`,
	Args: cobra.NoArgs,
	RunE: runForgot,
}

func init() {
	forgotCmd.Flags().StringVar(&forgotEmail, "email", "", "Account email (prompted when empty)")
	rootCmd.AddCommand(forgotCmd)
}

func runForgot(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	prompter := newPrompter(cmd)
	w := wizard.NewPasswordReset(a.client)

	email := forgotEmail
	err = runWizard(commandContext(cmd), w, a.sink, func(stage wizard.ResetStage) (wizard.Fields, error) {
		fmt.Fprintln(a.out, stage.Heading())
		switch stage {
		case wizard.ResetEmail:
			if email == "" {
				e, err := prompter.PromptLine("Email: ")
				if err != nil {
					return nil, err
				}
				return wizard.Fields{wizard.FieldEmail: e}, nil
			}
			e := email
			email = ""
			return wizard.Fields{wizard.FieldEmail: e}, nil
		case wizard.ResetOTP:
			otp, err := prompter.PromptOTP("OTP: ")
			if err != nil {
				return nil, err
			}
			return wizard.Fields{wizard.FieldOTP: otp}, nil
		case wizard.ResetPassword:
			pw, confirm, err := prompter.PromptAndConfirmPassword()
			if err != nil {
				return nil, err
			}
			return wizard.Fields{wizard.FieldPassword: pw, wizard.FieldConfirm: confirm}, nil
		case wizard.ResetDone:
			return nil, wizard.ErrComplete
		default:
			return nil, fmt.Errorf("unhandled reset stage %v", stage)
		}
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, "You can now log in with your new password.")
	return nil
}
