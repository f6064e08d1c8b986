package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thruflo/ttsdash/internal/wizard"
)

var (
	profileFirstname string
	profileLastname  string
	profileEmail     string
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or edit the signed-in profile",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

var profileEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Change name or email, confirmed with an emailed OTP",
	Long: `Change profile fields. Only the flags you pass are changed. An OTP is
sent to the account's current email and the change is applied once it is
entered.

Example:
  ttsdash profile edit --firstname Augusta`,
	Args: cobra.NoArgs,
	RunE: runProfileEdit,
}

func init() {
	f := profileEditCmd.Flags()
	f.StringVar(&profileFirstname, "firstname", "", "New first name")
	f.StringVar(&profileLastname, "lastname", "", "New last name")
	f.StringVar(&profileEmail, "email", "", "New email")

	profileCmd.AddCommand(profileEditCmd)
	rootCmd.AddCommand(profileCmd)
}

func runProfileEdit(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	_, profile, err := a.requireLogin(ctx)
	if err != nil {
		return err
	}

	changes := wizard.Fields{}
	flags := cmd.Flags()
	if flags.Changed("firstname") {
		changes[wizard.FieldFirstname] = profileFirstname
	}
	if flags.Changed("lastname") {
		changes[wizard.FieldLastname] = profileLastname
	}
	if flags.Changed("email") {
		changes[wizard.FieldEmail] = profileEmail
	}
	if len(changes) == 0 {
		return fmt.Errorf("nothing to change: pass --firstname, --lastname or --email")
	}

	prompter := newPrompter(cmd)
	w := wizard.NewProfileChange(a.client, *profile)
	err = runWizard(ctx, w, a.sink, func(stage wizard.ProfileStage) (wizard.Fields, error) {
		switch stage {
		case wizard.ProfileEdit:
			return changes, nil
		case wizard.ProfileOTP:
			otp, err := prompter.PromptOTP(fmt.Sprintf("OTP sent to %s: ", profile.Email))
			if err != nil {
				return nil, err
			}
			return wizard.Fields{wizard.FieldOTP: otp}, nil
		case wizard.ProfileDone:
			return nil, wizard.ErrComplete
		default:
			return nil, fmt.Errorf("unhandled profile stage %v", stage)
		}
	})
	if err != nil {
		return err
	}

	sess, updated, err := a.requireLogin(ctx)
	if err != nil {
		return err
	}
	printProfile(a, sess, updated)
	return nil
}
