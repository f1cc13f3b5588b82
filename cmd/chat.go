////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Handles direct-messaging commands: send, inbox, and a live thread watch.

package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/spf13/viper"

	client "gitlab.com/sharespace/client"
	"gitlab.com/sharespace/client/dm"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Direct messaging",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

var chatSendCmd = &cobra.Command{
	Use:    "send",
	Short:  "Send a direct message to a peer",
	Args:   cobra.NoArgs,
	PreRun: bindFlags,
	Run: func(cmd *cobra.Command, args []string) {
		defer finish()
		c := initClient()
		defer c.Close()
		signIn(c)

		conv := openPeerConversation(c)
		err := c.SendDirectMessage(conv.ID, viper.GetString(messageFlag))
		if err != nil {
			jww.FATAL.Panicf("Failed to send message: %+v", err)
		}
		fmt.Printf("Sent to conversation %s\n", conv.ID)
	},
}

var chatInboxCmd = &cobra.Command{
	Use:    "inbox",
	Short:  "List conversations, most recently active first",
	Args:   cobra.NoArgs,
	PreRun: bindFlags,
	Run: func(cmd *cobra.Command, args []string) {
		defer finish()
		c := initClient()
		defer c.Close()
		signIn(c)

		userID, _ := c.Session.UserID()
		convs, err := c.DM.Conversations(userID)
		if err != nil {
			jww.FATAL.Panicf("Failed to list conversations: %+v", err)
		}

		for _, conv := range convs {
			marker := " "
			if conv.UnreadBy(userID) {
				marker = "*"
			}
			peer, _ := conv.Peer(userID)
			fmt.Printf("%s %-24s %s\n", marker, peer.DisplayName,
				conv.LastMessage)
		}
	},
}

var chatWatchCmd = &cobra.Command{
	Use:    "watch",
	Short:  "Follow a thread live until interrupted",
	Args:   cobra.NoArgs,
	PreRun: bindFlags,
	Run: func(cmd *cobra.Command, args []string) {
		defer finish()
		c := initClient()
		defer c.Close()
		signIn(c)

		userID, _ := c.Session.UserID()
		conv := openPeerConversation(c)
		if err := c.DM.MarkRead(conv.ID, userID); err != nil {
			jww.WARN.Printf("Failed to mark thread read: %+v", err)
		}

		stream, err := c.DM.StreamMessages(conv.ID,
			func(msgs []dm.Message) {
				fmt.Print("\033[H\033[2J")
				for _, m := range msgs {
					fmt.Printf("[%s] %s: %s\n",
						m.SentAt.Format("15:04:05"),
						m.SenderName, m.Body)
				}
			})
		if err != nil {
			jww.FATAL.Panicf("Failed to open thread stream: %+v", err)
		}

		done := make(chan os.Signal, 1)
		signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)
		<-done
		if err = stream.Close(); err != nil {
			jww.ERROR.Printf("Failed to close thread stream: %+v", err)
		}
	},
}

// openPeerConversation resolves the peer flag against the signed-in user.
func openPeerConversation(c *client.Client) dm.Conversation {
	userID, ok := c.Session.UserID()
	if !ok {
		jww.FATAL.Panicf("No user is signed in")
	}
	conv, err := c.DM.FindOrCreateConversation(
		userID, viper.GetString(peerFlag))
	if err != nil {
		jww.FATAL.Panicf("Failed to open conversation: %+v", err)
	}
	return conv
}

func init() {
	chatCmd.PersistentFlags().String(peerFlag, "", "Peer user identifier")
	chatSendCmd.Flags().StringP(messageFlag, "m", "", "Message body")

	chatCmd.AddCommand(chatSendCmd, chatInboxCmd, chatWatchCmd)
	rootCmd.AddCommand(chatCmd)
}
