// Package interaction turns user gestures into API calls, reports the outcome in
// the notification area and patches the elements bound to the acted-upon entity.
package interaction

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/artconnect/artconnect/internal/apiclient"
	"github.com/artconnect/artconnect/internal/logging"
	"github.com/artconnect/artconnect/internal/models"
	"github.com/artconnect/artconnect/internal/ui"
)

// GenericErrorMessage is shown when a failure carries no server message.
const GenericErrorMessage = "An error occurred. Please try again."

// DefaultReloadDelay is the pause between a created post and the page reload.
const DefaultReloadDelay = 1500 * time.Millisecond

// Navigation targets.
const (
	PageMarketplace = "/marketplace"
	PageCart        = "/cart"
)

// ErrPromptCancelled is returned by a Prompter when the user dismisses the dialog.
var ErrPromptCancelled = errors.New("interaction: prompt cancelled")

// API is the subset of the REST client the controller drives.
type API interface {
	ToggleLike(ctx context.Context, postID string) (apiclient.LikeResult, error)
	AddComment(ctx context.Context, postID, content string) (apiclient.Comment, error)
	CreatePost(ctx context.Context, draft apiclient.PostDraft) (apiclient.CreatedPost, error)
	GenerateCaption(ctx context.Context, description string) (models.Caption, error)
	ToggleFollow(ctx context.Context, userID string) (apiclient.FollowResult, error)
}

// Prompter collects free-form text. Prompt blocks only the calling action and
// returns ErrPromptCancelled, or the context error, when the dialog is dismissed.
type Prompter interface {
	Prompt(ctx context.Context, label string) (string, error)
}

// Navigator performs page changes.
type Navigator interface {
	Navigate(ctx context.Context, path string) error
	Reload(ctx context.Context) error
}

// Action names a user-triggered interaction.
type Action string

const (
	ActionLike            Action = "like"
	ActionComment         Action = "comment"
	ActionFollow          Action = "follow"
	ActionCreatePost      Action = "create-post"
	ActionGenerateCaption Action = "generate-caption"
	ActionMarketplace     Action = "marketplace"
	ActionCart            Action = "cart"
)

// Status is the terminal state of one action.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	// StatusAborted means the user dismissed a prompt or the caller cancelled.
	StatusAborted Status = "aborted"
	// StatusSuperseded means an identical, newer action replaced this one before it finished.
	StatusSuperseded Status = "superseded"
)

// Outcome describes how an action finished.
type Outcome struct {
	Action   Action
	EntityID string
	Status   Status
	// Notification is the banner shown for the action; zero for aborted and superseded actions.
	Notification Notification
	Err          error

	Liked         bool
	LikeCount     int
	Following     bool
	FollowerCount int
	PostID        string
	// CaptionGenerated reports whether AI copy was merged into the submitted post.
	CaptionGenerated bool
}

// Config wires a Controller.
type Config struct {
	API         API
	Bindings    *ui.Bindings
	Notifier    *Notifier
	Prompter    Prompter
	Navigator   Navigator
	Scheduler   Scheduler
	ReloadDelay time.Duration
}

// Controller dispatches user actions. All methods are safe for concurrent use.
type Controller struct {
	api         API
	bindings    *ui.Bindings
	notifier    *Notifier
	prompter    Prompter
	navigator   Navigator
	scheduler   Scheduler
	reloadDelay time.Duration

	mu       sync.Mutex
	inflight map[flightKey]*flight
	reloads  sync.WaitGroup
}

type flightKey struct {
	action Action
	id     string
}

type flight struct {
	cancel context.CancelFunc
}

// NewController constructs a Controller. API is required.
func NewController(cfg Config) *Controller {
	if cfg.API == nil {
		panic("interaction: api must not be nil")
	}
	c := &Controller{
		api:         cfg.API,
		bindings:    cfg.Bindings,
		notifier:    cfg.Notifier,
		prompter:    cfg.Prompter,
		navigator:   cfg.Navigator,
		scheduler:   cfg.Scheduler,
		reloadDelay: cfg.ReloadDelay,
		inflight:    make(map[flightKey]*flight),
	}
	if c.scheduler == nil {
		c.scheduler = SystemScheduler
	}
	if c.bindings == nil {
		c.bindings = ui.NewBindings()
	}
	if c.notifier == nil {
		c.notifier = NewNotifier(NotifierConfig{Scheduler: c.scheduler})
	}
	if c.reloadDelay <= 0 {
		c.reloadDelay = DefaultReloadDelay
	}
	return c
}

// Bindings exposes the binding table the controller patches.
func (c *Controller) Bindings() *ui.Bindings { return c.bindings }

// Notifier exposes the notification area.
func (c *Controller) Notifier() *Notifier { return c.notifier }

// ToggleLike flips the like on a post and switches every bound like icon to the
// state the server reports.
func (c *Controller) ToggleLike(ctx context.Context, postID string) (out Outcome) {
	ctx, span := logging.StartSpan(ctx, "interaction.like", slog.String("post_id", postID))
	out = Outcome{Action: ActionLike, EntityID: postID}
	defer func() { span.EndWithOutcome(string(out.Status), out.Err) }()

	key := flightKey{action: ActionLike, id: postID}
	reqCtx, f := c.begin(ctx, key)
	result, err := c.api.ToggleLike(reqCtx, postID)

	applied := c.finish(key, f, func() {
		if err != nil {
			return
		}
		c.bindings.Each(ui.LikeIcon, postID, func(el ui.Element) { ui.ApplyLikeState(el, result.Liked) })
		c.bindings.Each(ui.LikeCount, postID, func(el ui.Element) { ui.SetCount(el, result.LikeCount) })
	})
	if !applied {
		return c.superseded(out)
	}
	if err != nil {
		return c.fail(ctx, out, err)
	}

	out.Liked, out.LikeCount = result.Liked, result.LikeCount
	if result.Liked {
		return c.succeed(out, SeverityInfo, "Post liked!")
	}
	return c.succeed(out, SeverityInfo, "Like removed")
}

// Comment prompts for a comment and posts it. An empty or cancelled prompt aborts silently.
func (c *Controller) Comment(ctx context.Context, postID string) (out Outcome) {
	ctx, span := logging.StartSpan(ctx, "interaction.comment", slog.String("post_id", postID))
	out = Outcome{Action: ActionComment, EntityID: postID}
	defer func() { span.EndWithOutcome(string(out.Status), out.Err) }()

	content, err := c.prompt(ctx, "Enter your comment:")
	if err != nil {
		return c.abort(out, err)
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return c.abort(out, nil)
	}

	if _, err := c.api.AddComment(ctx, postID, content); err != nil {
		return c.fail(ctx, out, err)
	}

	c.bindings.Each(ui.CommentCount, postID, func(el ui.Element) { ui.IncrementCount(el, 1) })
	return c.succeed(out, SeveritySuccess, "Comment added!")
}

// CreatePost submits a post. When the draft has no caption the user is asked for a
// short description; a non-empty answer is sent to the caption generator and the
// result merged into the draft. Generation is best effort: on failure the original
// draft is submitted. A successful post schedules a page reload.
func (c *Controller) CreatePost(ctx context.Context, draft apiclient.PostDraft) (out Outcome) {
	ctx, span := logging.StartSpan(ctx, "interaction.create_post", slog.String("image_url", draft.ImageURL))
	out = Outcome{Action: ActionCreatePost}
	defer func() { span.EndWithOutcome(string(out.Status), out.Err) }()

	if strings.TrimSpace(draft.Caption) == "" {
		description, err := c.prompt(ctx, "Describe your artwork for AI caption generation (leave empty to skip):")
		if err != nil {
			return c.abort(out, err)
		}
		if description = strings.TrimSpace(description); description != "" {
			if merged, ok := c.generateCaption(ctx, draft, description); ok {
				draft = merged
				out.CaptionGenerated = true
			}
		}
	}

	created, err := c.api.CreatePost(ctx, draft)
	if err != nil {
		return c.fail(ctx, out, err)
	}

	out.PostID = created.PostID
	out.EntityID = created.PostID
	c.scheduleReload(ctx)

	message := "Post created successfully!"
	if m := strings.TrimSpace(created.Message); m != "" {
		message = m
	}
	return c.succeed(out, SeveritySuccess, message)
}

func (c *Controller) generateCaption(ctx context.Context, draft apiclient.PostDraft, description string) (apiclient.PostDraft, bool) {
	ctx, span := logging.StartSpan(ctx, "interaction.generate_caption")
	caption, err := c.api.GenerateCaption(ctx, description)
	if err != nil {
		span.EndWithOutcome(string(StatusFailure), err)
		return draft, false
	}
	span.EndWithOutcome(string(StatusSuccess), nil)

	draft.Caption = caption.Caption
	draft.Hashtags = caption.Hashtags
	draft.Story = caption.Story
	return draft, true
}

// ToggleFollow flips the follow of an artisan and patches every follow button and
// follower counter bound to that user.
func (c *Controller) ToggleFollow(ctx context.Context, userID string) (out Outcome) {
	ctx, span := logging.StartSpan(ctx, "interaction.follow", slog.String("user_id", userID))
	out = Outcome{Action: ActionFollow, EntityID: userID}
	defer func() { span.EndWithOutcome(string(out.Status), out.Err) }()

	key := flightKey{action: ActionFollow, id: userID}
	reqCtx, f := c.begin(ctx, key)
	result, err := c.api.ToggleFollow(reqCtx, userID)

	applied := c.finish(key, f, func() {
		if err != nil {
			return
		}
		c.bindings.Each(ui.FollowButton, userID, func(el ui.Element) { ui.ApplyFollowState(el, result.Following) })
		c.bindings.Each(ui.FollowerCount, userID, func(el ui.Element) { ui.SetCount(el, result.FollowerCount) })
	})
	if !applied {
		return c.superseded(out)
	}
	if err != nil {
		return c.fail(ctx, out, err)
	}

	out.Following, out.FollowerCount = result.Following, result.FollowerCount
	if result.Following {
		return c.succeed(out, SeveritySuccess, "You are now following this artisan")
	}
	return c.succeed(out, SeverityInfo, "Unfollowed")
}

// ShowMarketplace navigates to the marketplace page.
func (c *Controller) ShowMarketplace(ctx context.Context) Outcome {
	return c.navigate(ctx, ActionMarketplace, PageMarketplace)
}

// ShowCart navigates to the cart page.
func (c *Controller) ShowCart(ctx context.Context) Outcome {
	return c.navigate(ctx, ActionCart, PageCart)
}

func (c *Controller) navigate(ctx context.Context, action Action, path string) (out Outcome) {
	ctx, span := logging.StartSpan(ctx, "interaction."+string(action), slog.String("path", path))
	out = Outcome{Action: action, Status: StatusSuccess}
	defer func() { span.EndWithOutcome(string(out.Status), out.Err) }()

	if c.navigator == nil {
		return out
	}
	if err := c.navigator.Navigate(ctx, path); err != nil {
		return c.fail(ctx, out, err)
	}
	return out
}

// Wait blocks until every scheduled page reload has run.
func (c *Controller) Wait() {
	c.reloads.Wait()
}

func (c *Controller) scheduleReload(ctx context.Context) {
	if c.navigator == nil {
		return
	}
	logger := logging.FromContext(ctx)
	reloadCtx := context.WithoutCancel(ctx)

	c.reloads.Add(1)
	c.scheduler.AfterFunc(c.reloadDelay, func() {
		defer c.reloads.Done()
		if err := c.navigator.Reload(reloadCtx); err != nil {
			logger.Warn("page reload failed", "error", err)
		}
	})
}

// begin registers an in-flight request for key, cancelling any older identical request.
func (c *Controller) begin(ctx context.Context, key flightKey) (context.Context, *flight) {
	reqCtx, cancel := context.WithCancel(ctx)
	f := &flight{cancel: cancel}

	c.mu.Lock()
	if prev := c.inflight[key]; prev != nil {
		prev.cancel()
	}
	c.inflight[key] = f
	c.mu.Unlock()

	return reqCtx, f
}

// finish retires f. When f is still the newest request for key, patch runs while
// the guard is held and finish reports true; a superseded request never patches.
func (c *Controller) finish(key flightKey, f *flight, patch func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer f.cancel()

	if c.inflight[key] != f {
		return false
	}
	delete(c.inflight, key)
	patch()
	return true
}

func (c *Controller) prompt(ctx context.Context, label string) (string, error) {
	if c.prompter == nil {
		return "", ErrPromptCancelled
	}
	return c.prompter.Prompt(ctx, label)
}

func (c *Controller) succeed(out Outcome, severity Severity, message string) Outcome {
	out.Status = StatusSuccess
	out.Notification = c.notifier.Show(severity, message)
	return out
}

// fail reports err in a danger banner. A failure caused by the caller cancelling
// ctx is reported as aborted instead.
func (c *Controller) fail(ctx context.Context, out Outcome, err error) Outcome {
	if ctx.Err() != nil {
		return c.abort(out, ctx.Err())
	}
	out.Status = StatusFailure
	out.Err = err
	out.Notification = c.notifier.Show(SeverityDanger, FailureMessage(err))
	return out
}

func (c *Controller) abort(out Outcome, err error) Outcome {
	out.Status = StatusAborted
	if err != nil && !errors.Is(err, ErrPromptCancelled) {
		out.Err = err
	}
	return out
}

func (c *Controller) superseded(out Outcome) Outcome {
	out.Status = StatusSuperseded
	return out
}

// FailureMessage returns the server-provided message carried by err, or
// GenericErrorMessage when there is none.
func FailureMessage(err error) string {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		if strings.TrimSpace(apiErr.Message) != "" {
			return apiErr.Message
		}
	}
	return GenericErrorMessage
}
