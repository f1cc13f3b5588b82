////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Handles account lifecycle commands: signup, profile edit, and deletion.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/spf13/viper"

	"gitlab.com/sharespace/client/users"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage the ShareSpace account",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

var signupCmd = &cobra.Command{
	Use:    "signup",
	Short:  "Register a new account and profile",
	Args:   cobra.NoArgs,
	PreRun: bindFlags,
	Run: func(cmd *cobra.Command, args []string) {
		defer finish()
		c := initClient()
		defer c.Close()

		role, err := users.ParseRole(viper.GetString(roleFlag))
		if err != nil {
			jww.FATAL.Panicf("%+v", err)
		}

		u, err := c.SignUp(
			viper.GetString(emailFlag),
			viper.GetString(passwordFlag),
			viper.GetString(firstNameFlag),
			viper.GetString(lastNameFlag),
			viper.GetString(usernameFlag),
			role,
			viper.GetString(avatarFlag))
		if err != nil {
			jww.FATAL.Panicf("Failed to sign up: %+v", err)
		}
		fmt.Printf("Registered %s as %s (%s)\n",
			u.DisplayName(), u.ID, u.Role)
	},
}

var editProfileCmd = &cobra.Command{
	Use:    "edit",
	Short:  "Edit the signed-in profile",
	Args:   cobra.NoArgs,
	PreRun: bindFlags,
	Run: func(cmd *cobra.Command, args []string) {
		defer finish()
		c := initClient()
		defer c.Close()
		signIn(c)

		profile, ok := c.Session.Current()
		if !ok {
			jww.FATAL.Panicf("No user is signed in")
		}

		// Start from the stored profile so untouched fields survive the
		// full-replacement edit.
		edit := users.ProfileEdit{
			FirstName: profile.FirstName,
			LastName:  profile.LastName,
			Username:  profile.Username,
			Bio:       profile.Bio,
			Avatar:    profile.Avatar,
		}
		if cmd.Flags().Changed(firstNameFlag) {
			edit.FirstName = viper.GetString(firstNameFlag)
		}
		if cmd.Flags().Changed(lastNameFlag) {
			edit.LastName = viper.GetString(lastNameFlag)
		}
		if cmd.Flags().Changed(usernameFlag) {
			edit.Username = viper.GetString(usernameFlag)
		}
		if cmd.Flags().Changed(bioFlag) {
			edit.Bio = viper.GetString(bioFlag)
		}
		if cmd.Flags().Changed(avatarFlag) {
			edit.Avatar = viper.GetString(avatarFlag)
		}

		if err := c.UpdateProfile(edit); err != nil {
			jww.FATAL.Panicf("Failed to update profile: %+v", err)
		}
		fmt.Println("Profile updated")
	},
}

var whoamiCmd = &cobra.Command{
	Use:    "whoami",
	Short:  "Print the signed-in profile",
	Args:   cobra.NoArgs,
	PreRun: bindFlags,
	Run: func(cmd *cobra.Command, args []string) {
		defer finish()
		c := initClient()
		defer c.Close()
		signIn(c)

		profile, ok := c.Session.Current()
		if !ok {
			jww.FATAL.Panicf("No user is signed in")
		}
		fmt.Printf("%s (%s)\nRole: %s\nBio: %s\n",
			profile.DisplayName(), profile.ID, profile.Role, profile.Bio)
	},
}

var deleteAccountCmd = &cobra.Command{
	Use:    "delete",
	Short:  "Delete the account, its posts, and its notifications",
	Args:   cobra.NoArgs,
	PreRun: bindFlags,
	Run: func(cmd *cobra.Command, args []string) {
		defer finish()
		c := initClient()
		defer c.Close()
		signIn(c)

		if err := c.DeleteAccount(); err != nil {
			jww.FATAL.Panicf("Failed to delete account: %+v", err)
		}
		fmt.Println("Account deleted")
	},
}

func init() {
	signupCmd.Flags().String(firstNameFlag, "", "First name")
	signupCmd.Flags().String(lastNameFlag, "", "Last name")
	signupCmd.Flags().String(usernameFlag, "", "Display handle")
	signupCmd.Flags().String(roleFlag, string(users.Junior),
		"Account role (junior or senior)")
	signupCmd.Flags().String(avatarFlag, "", "Bundled avatar identifier")

	editProfileCmd.Flags().String(firstNameFlag, "", "First name")
	editProfileCmd.Flags().String(lastNameFlag, "", "Last name")
	editProfileCmd.Flags().String(usernameFlag, "", "Display handle")
	editProfileCmd.Flags().String(bioFlag, "", "Profile bio")
	editProfileCmd.Flags().String(avatarFlag, "", "Bundled avatar identifier")

	accountCmd.AddCommand(signupCmd, editProfileCmd, whoamiCmd,
		deleteAccountCmd)
	rootCmd.AddCommand(accountCmd)
}
