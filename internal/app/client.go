package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/artconnect/artconnect/internal/apiclient"
	"github.com/artconnect/artconnect/internal/config"
	"github.com/artconnect/artconnect/internal/console"
	"github.com/artconnect/artconnect/internal/interaction"
	"github.com/artconnect/artconnect/internal/logging"
	"github.com/artconnect/artconnect/internal/ui"
)

// errNoToken is returned by actions that need a session when none is configured.
var errNoToken = errors.New("no access token: run `artconnect client login` or set ARTCONNECT_TOKEN")

type clientOptions struct {
	server  string
	token   string
	timeout time.Duration
	verbose bool
}

func clientCmd() *cobra.Command {
	opts := &clientOptions{}

	cmd := &cobra.Command{
		Use:   "client",
		Short: "Act on an ArtConnect server from the terminal",
		Long: `Drive a running ArtConnect server the way the web interface does.

Every action reports its result as a notification banner. Server-provided
error messages are shown verbatim.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("server") {
				opts.server = cfg.Client.ServerURL
			}
			if !cmd.Flags().Changed("token") {
				opts.token = cfg.Client.Token
			}
			if opts.timeout <= 0 {
				opts.timeout = cfg.Client.RequestTimeout
			}

			level := "error"
			if opts.verbose {
				level = "debug"
			}
			cmd.SetContext(logging.WithLogger(cmd.Context(), logging.New(cmd.ErrOrStderr(), level)))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.server, "server", "", "Server base URL (default from ARTCONNECT_SERVER_URL)")
	cmd.PersistentFlags().StringVar(&opts.token, "token", "", "Access token (default from ARTCONNECT_TOKEN)")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 0, "Per-request timeout")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log every action to stderr")

	cmd.AddCommand(
		loginCmd(opts),
		logoutCmd(opts),
		likeCmd(opts),
		commentCmd(opts),
		postCmd(opts),
		followCmd(opts),
		marketplaceCmd(opts),
		cartCmd(opts),
	)

	return cmd
}

// session is one client invocation: the REST client, the controller driving it
// and the terminal adapters it reports through.
type session struct {
	api        *apiclient.Client
	controller *interaction.Controller
	prompter   *console.Prompter
	out        io.Writer
}

func newSession(cmd *cobra.Command, opts *clientOptions, requireToken bool) (*session, error) {
	if requireToken && opts.token == "" {
		return nil, errNoToken
	}

	out := cmd.OutOrStdout()
	api := apiclient.New(opts.server, opts.token, &http.Client{Timeout: opts.timeout})
	prompter := console.NewPrompter(cmd.InOrStdin(), out)

	notifier := interaction.NewNotifier(interaction.NotifierConfig{})
	notifier.OnChange(console.NewBannerPrinter(out).Render)

	controller := interaction.NewController(interaction.Config{
		API:       api,
		Notifier:  notifier,
		Prompter:  prompter,
		Navigator: console.NewNavigator(out, opts.server, api),
	})

	return &session{api: api, controller: controller, prompter: prompter, out: out}, nil
}

// finish waits for scheduled follow-ups, clears the notification area and
// converts a failed outcome into a non-zero exit.
func (s *session) finish(out interaction.Outcome) error {
	s.controller.Wait()
	s.controller.Notifier().Close()

	if out.Status == interaction.StatusFailure {
		return out.Err
	}
	return nil
}

func loginCmd(opts *clientOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login <username>",
		Short: "Sign in and print an access token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, opts, false)
			if err != nil {
				return err
			}
			return s.login(cmd.Context(), args[0])
		},
	}
}

func (s *session) login(ctx context.Context, username string) error {
	password, err := s.prompter.Prompt(ctx, "Password:")
	if err != nil {
		return err
	}

	tokens, err := s.api.Login(ctx, username, password)
	if err != nil {
		return fmt.Errorf("login: %s", interaction.FailureMessage(err))
	}

	fmt.Fprintf(s.out, "export ARTCONNECT_TOKEN=%s\n", tokens.AccessToken)
	return nil
}

func logoutCmd(opts *clientOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session behind the access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, opts, true)
			if err != nil {
				return err
			}
			if err := s.api.Logout(cmd.Context()); err != nil {
				return fmt.Errorf("logout: %s", interaction.FailureMessage(err))
			}
			fmt.Fprintln(s.out, "signed out")
			return nil
		},
	}
}

func likeCmd(opts *clientOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "like <post-id>",
		Short: "Toggle your like on a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, opts, true)
			if err != nil {
				return err
			}
			postID := args[0]

			icon, count := ui.NewNode("", ui.ClassUnlikedIcon, "fa-heart"), ui.NewNode("0")
			s.controller.Bindings().Bind(ui.LikeIcon, postID, icon)
			s.controller.Bindings().Bind(ui.LikeCount, postID, count)

			out := s.controller.ToggleLike(cmd.Context(), postID)
			if out.Status == interaction.StatusSuccess {
				state := "not liked"
				if icon.HasClass(ui.ClassLikedIcon) {
					state = "liked"
				}
				fmt.Fprintf(s.out, "post %s: %s, %s likes\n", postID, state, count.Text())
			}
			return s.finish(out)
		},
	}
}

func commentCmd(opts *clientOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "comment <post-id>",
		Short: "Comment on a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, opts, true)
			if err != nil {
				return err
			}
			return s.finish(s.controller.Comment(cmd.Context(), args[0]))
		},
	}
}

func postCmd(opts *clientOptions) *cobra.Command {
	var draft apiclient.PostDraft

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Publish a post, optionally with an AI generated caption",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, opts, true)
			if err != nil {
				return err
			}
			out := s.controller.CreatePost(cmd.Context(), draft)
			if out.Status == interaction.StatusSuccess && out.PostID != "" {
				fmt.Fprintf(s.out, "post id %s\n", out.PostID)
			}
			return s.finish(out)
		},
	}

	cmd.Flags().StringVar(&draft.ImageURL, "image-url", "", "Image URL for the post")
	cmd.Flags().StringVar(&draft.Caption, "caption", "", "Caption text")
	cmd.Flags().StringVar(&draft.Hashtags, "hashtags", "", "Space separated hashtags")
	cmd.Flags().StringVar(&draft.Story, "story", "", "The story behind the piece")

	return cmd
}

func followCmd(opts *clientOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "follow <user-id>",
		Short: "Toggle following an artisan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, opts, true)
			if err != nil {
				return err
			}
			userID := args[0]

			button, followers := ui.NewNode(ui.LabelFollow, "btn", ui.ClassNotFollowed), ui.NewNode("0")
			s.controller.Bindings().Bind(ui.FollowButton, userID, button)
			s.controller.Bindings().Bind(ui.FollowerCount, userID, followers)

			out := s.controller.ToggleFollow(cmd.Context(), userID)
			if out.Status == interaction.StatusSuccess {
				fmt.Fprintf(s.out, "[%s] %s followers\n", button.Text(), followers.Text())
			}
			return s.finish(out)
		},
	}
}

func marketplaceCmd(opts *clientOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "marketplace",
		Short: "Open the marketplace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, opts, true)
			if err != nil {
				return err
			}
			return s.finish(s.controller.ShowMarketplace(cmd.Context()))
		},
	}
}

func cartCmd(opts *clientOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cart",
		Short: "Open your cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, opts, true)
			if err != nil {
				return err
			}
			return s.finish(s.controller.ShowCart(cmd.Context()))
		},
	}
}
