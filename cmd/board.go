////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Handles post board commands: publish, browse, like, and comment.

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/spf13/viper"

	client "gitlab.com/sharespace/client"
	"gitlab.com/sharespace/client/feed"
	"gitlab.com/sharespace/client/users"
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "The role-partitioned post board",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

var boardPostCmd = &cobra.Command{
	Use:    "post",
	Short:  "Publish a post to your role's partition",
	Args:   cobra.NoArgs,
	PreRun: bindFlags,
	Run: func(cmd *cobra.Command, args []string) {
		defer finish()
		c := initClient()
		defer c.Close()
		signIn(c)

		author, ok := c.Session.Current()
		if !ok {
			jww.FATAL.Panicf("No user is signed in")
		}

		var labels []string
		if raw := viper.GetString(labelsFlag); raw != "" {
			labels = strings.Split(raw, ",")
		}
		post, err := c.Feed.CreatePost(author,
			viper.GetString(bodyFlag), labels)
		if err != nil {
			jww.FATAL.Panicf("Failed to publish post: %+v", err)
		}
		fmt.Printf("Published %s with labels %s\n", post.ID,
			strings.Join(post.Labels, ", "))
	},
}

var boardFeedCmd = &cobra.Command{
	Use:    "feed",
	Short:  "Browse the feed (posts authored by the opposite role)",
	Args:   cobra.NoArgs,
	PreRun: bindFlags,
	Run: func(cmd *cobra.Command, args []string) {
		defer finish()
		c := initClient()
		defer c.Close()
		signIn(c)

		viewer, ok := c.Session.Current()
		if !ok {
			jww.FATAL.Panicf("No user is signed in")
		}

		posts, err := c.Feed.Feed(viewer)
		if err != nil {
			jww.FATAL.Panicf("Failed to load feed: %+v", err)
		}
		posts = feed.Search(posts, viper.GetString(queryFlag))

		for _, p := range posts {
			fmt.Printf("%s  %s  [%s]  ♥%d\n  %s\n", p.ID, p.AuthorName,
				strings.Join(p.Labels, ","), p.Likes(), p.Body)
		}
	},
}

var boardLikeCmd = &cobra.Command{
	Use:    "like",
	Short:  "Toggle your like on a post",
	Args:   cobra.NoArgs,
	PreRun: bindFlags,
	Run: func(cmd *cobra.Command, args []string) {
		defer finish()
		c := initClient()
		defer c.Close()
		signIn(c)

		post, err := c.ToggleLike(
			postAuthorRole(c), viper.GetString(postFlag))
		if err != nil {
			jww.FATAL.Panicf("Failed to toggle like: %+v", err)
		}
		fmt.Printf("Post %s now has %d likes\n", post.ID, post.Likes())
	},
}

var boardCommentCmd = &cobra.Command{
	Use:    "comment",
	Short:  "Comment on a post",
	Args:   cobra.NoArgs,
	PreRun: bindFlags,
	Run: func(cmd *cobra.Command, args []string) {
		defer finish()
		c := initClient()
		defer c.Close()
		signIn(c)

		comment, err := c.CommentOnPost(postAuthorRole(c),
			viper.GetString(postFlag), viper.GetString(bodyFlag))
		if err != nil {
			jww.FATAL.Panicf("Failed to comment: %+v", err)
		}
		fmt.Printf("Commented %s on post %s\n", comment.ID, comment.PostID)
	},
}

// postAuthorRole resolves which partition a browsed post lives in: the
// complement of the signed-in viewer's role.
func postAuthorRole(c *client.Client) users.Role {
	viewer, ok := c.Session.Current()
	if !ok {
		jww.FATAL.Panicf("No user is signed in")
	}
	return viewer.Role.Complement()
}

func init() {
	boardCmd.PersistentFlags().String(postFlag, "", "Post identifier")

	boardPostCmd.Flags().StringP(bodyFlag, "b", "", "Post body")
	boardPostCmd.Flags().String(labelsFlag, "",
		"Comma-separated labels from the catalog")
	boardFeedCmd.Flags().StringP(queryFlag, "q", "",
		"Filter the feed by body or author")
	boardCommentCmd.Flags().StringP(bodyFlag, "b", "", "Comment body")

	boardCmd.AddCommand(boardPostCmd, boardFeedCmd, boardLikeCmd,
		boardCommentCmd)
	rootCmd.AddCommand(boardCmd)
}
