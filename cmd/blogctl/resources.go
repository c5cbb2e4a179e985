package main

import (
	"blog_api/pkg/blogclient"

	"github.com/spf13/cobra"
)

func (a *app) postsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "posts", Short: "Read and manage posts"}

	var page, limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List posts, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			posts, total, err := a.client.ListPosts(cmd.Context(), page, limit)
			if err != nil {
				return err
			}
			cmd.Printf("%d posts total\n", total)
			return printJSON(cmd.OutOrStdout(), posts)
		},
	}
	list.Flags().IntVar(&page, "page", 1, "page number")
	list.Flags().IntVar(&limit, "limit", 10, "posts per page")

	get := &cobra.Command{
		Use:   "get ID",
		Short: "Show one post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.client.GetPost(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), p)
		},
	}

	var in blogclient.PostInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Write a post (admin)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireAdmin(); err != nil {
				return err
			}
			p, err := a.client.CreatePost(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), p)
		},
	}
	create.Flags().StringVar(&in.Title, "title", "", "post title")
	create.Flags().StringVar(&in.Content, "content", "", "post body")
	create.Flags().BoolVar(&in.IsPublished, "publish", false, "publish immediately")
	create.Flags().StringVar(&in.ImageURL, "image", "", "cover image URL")

	var title, content string
	var publish bool
	update := &cobra.Command{
		Use:   "update ID",
		Short: "Edit a post you own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			var patch blogclient.PostPatch
			if cmd.Flags().Changed("title") {
				patch.Title = &title
			}
			if cmd.Flags().Changed("content") {
				patch.Content = &content
			}
			if cmd.Flags().Changed("publish") {
				patch.IsPublished = &publish
			}
			p, err := a.client.UpdatePost(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), p)
		},
	}
	update.Flags().StringVar(&title, "title", "", "new title")
	update.Flags().StringVar(&content, "content", "", "new body")
	update.Flags().BoolVar(&publish, "publish", false, "publish or unpublish")

	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a post you own, with its comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			if err := a.client.DeletePost(cmd.Context(), args[0]); err != nil {
				return err
			}
			cmd.Println("deleted")
			return nil
		},
	}

	cmd.AddCommand(list, get, create, update, del)
	return cmd
}

func (a *app) commentsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "comments", Short: "Read and manage comments"}

	list := &cobra.Command{
		Use:   "list POST_ID",
		Short: "List a post's comments, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			comments, err := a.client.ListComments(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), comments)
		},
	}

	add := &cobra.Command{
		Use:   "add POST_ID CONTENT",
		Short: "Comment on a post",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			c, err := a.client.CreateComment(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), c)
		},
	}

	edit := &cobra.Command{
		Use:   "edit ID CONTENT",
		Short: "Edit a comment you own",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			c, err := a.client.UpdateComment(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), c)
		},
	}

	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a comment you own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			if err := a.client.DeleteComment(cmd.Context(), args[0]); err != nil {
				return err
			}
			cmd.Println("deleted")
			return nil
		},
	}

	cmd.AddCommand(list, add, edit, del)
	return cmd
}

func (a *app) usersCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "users", Short: "Inspect and edit accounts"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List every account (admin)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireAdmin(); err != nil {
				return err
			}
			users, err := a.client.ListUsers(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), users)
		},
	}

	get := &cobra.Command{
		Use:   "get EMAIL",
		Short: "Show one account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			u, err := a.client.GetUser(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), u)
		},
	}

	var firstName, lastName, password, role string
	update := &cobra.Command{
		Use:   "update ID",
		Short: "Edit your profile (admins may edit anyone)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			var patch blogclient.UserPatch
			if cmd.Flags().Changed("first-name") {
				patch.FirstName = &firstName
			}
			if cmd.Flags().Changed("last-name") {
				patch.LastName = &lastName
			}
			if cmd.Flags().Changed("password") {
				patch.Password = &password
			}
			if cmd.Flags().Changed("role") {
				patch.Role = &role
			}
			u, err := a.client.UpdateUser(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), u)
		},
	}
	update.Flags().StringVar(&firstName, "first-name", "", "first name")
	update.Flags().StringVar(&lastName, "last-name", "", "last name")
	update.Flags().StringVar(&password, "password", "", "new password")
	update.Flags().StringVar(&role, "role", "", "new role (admin only)")

	cmd.AddCommand(list, get, update)
	return cmd
}
