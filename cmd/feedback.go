////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Handles feedback commands. The terminal has no platform mail facility, so
// the composer prints a mailto link for the user to open themselves.

package cmd

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/spf13/viper"

	client "gitlab.com/sharespace/client"
	"gitlab.com/sharespace/client/feedback"
)

// mailtoComposer renders drafts as mailto links on stdout.
type mailtoComposer struct{}

func (mailtoComposer) Compose(draft feedback.Draft) error {
	fmt.Printf("mailto:%s?subject=%s&body=%s\n", draft.To,
		url.QueryEscape(draft.Subject), url.QueryEscape(draft.Body))
	return nil
}

var feedbackCmd = &cobra.Command{
	Use:    "feedback",
	Short:  "Draft a feedback mail to the ShareSpace team",
	Args:   cobra.NoArgs,
	PreRun: bindFlags,
	Run: func(cmd *cobra.Command, args []string) {
		defer finish()
		c, err := client.NewClient(client.Params{
			DBFilePath:      viper.GetString(dbFlag),
			StorageDir:      viper.GetString(storageDirFlag),
			StoragePassword: viper.GetString(storagePassFlag),
			MailComposer:    mailtoComposer{},
		})
		if err != nil {
			jww.FATAL.Panicf("Failed to assemble client: %+v", err)
		}
		defer c.Close()

		text := viper.GetString(bodyFlag)
		if viper.GetBool(bugFlag) {
			err = c.Feedback.ReportBug(text)
		} else {
			err = c.Feedback.SendFeedback(text)
		}
		if err != nil {
			jww.FATAL.Panicf("Failed to draft feedback: %+v", err)
		}
	},
}

func init() {
	feedbackCmd.Flags().StringP(bodyFlag, "b", "", "Feedback text")
	feedbackCmd.Flags().Bool(bugFlag, false,
		"Draft a bug report instead of general feedback")

	rootCmd.AddCommand(feedbackCmd)
}
