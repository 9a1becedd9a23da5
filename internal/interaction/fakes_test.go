package interaction

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/artconnect/artconnect/internal/apiclient"
	"github.com/artconnect/artconnect/internal/models"
)

// fakeScheduler fires timers only when the test advances its clock.
type fakeScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	s       *fakeScheduler
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{s: s, at: s.now + d, f: f}
	s.timers = append(s.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves the clock forward and runs every timer that came due, in order.
func (s *fakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.now += d
	var due []*fakeTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired && t.at <= s.now {
			t.fired = true
			due = append(due, t)
		}
	}
	s.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].at < due[j].at })
	for _, t := range due {
		t.f()
	}
}

// Pending counts timers that have neither fired nor been stopped.
func (s *fakeScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type fakeAPI struct {
	mu    sync.Mutex
	calls []string
	posts []apiclient.PostDraft

	like     func(ctx context.Context, postID string) (apiclient.LikeResult, error)
	comment  func(ctx context.Context, postID, content string) (apiclient.Comment, error)
	create   func(ctx context.Context, draft apiclient.PostDraft) (apiclient.CreatedPost, error)
	generate func(ctx context.Context, description string) (models.Caption, error)
	follow   func(ctx context.Context, userID string) (apiclient.FollowResult, error)
}

func (a *fakeAPI) record(call string) {
	a.mu.Lock()
	a.calls = append(a.calls, call)
	a.mu.Unlock()
}

func (a *fakeAPI) Calls() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.calls...)
}

func (a *fakeAPI) ToggleLike(ctx context.Context, postID string) (apiclient.LikeResult, error) {
	a.record("like " + postID)
	if a.like == nil {
		return apiclient.LikeResult{Liked: true, LikeCount: 1}, nil
	}
	return a.like(ctx, postID)
}

func (a *fakeAPI) AddComment(ctx context.Context, postID, content string) (apiclient.Comment, error) {
	a.record("comment " + postID + " " + content)
	if a.comment == nil {
		return apiclient.Comment{ID: "c1", Content: content}, nil
	}
	return a.comment(ctx, postID, content)
}

func (a *fakeAPI) CreatePost(ctx context.Context, draft apiclient.PostDraft) (apiclient.CreatedPost, error) {
	a.record("create-post")
	a.mu.Lock()
	a.posts = append(a.posts, draft)
	a.mu.Unlock()
	if a.create == nil {
		return apiclient.CreatedPost{Message: "Post created successfully", PostID: "post-1"}, nil
	}
	return a.create(ctx, draft)
}

func (a *fakeAPI) GenerateCaption(ctx context.Context, description string) (models.Caption, error) {
	a.record("generate-caption " + description)
	if a.generate == nil {
		return models.Caption{Caption: "Generated caption", Hashtags: "#handmade", Story: "Generated story"}, nil
	}
	return a.generate(ctx, description)
}

func (a *fakeAPI) ToggleFollow(ctx context.Context, userID string) (apiclient.FollowResult, error) {
	a.record("follow " + userID)
	if a.follow == nil {
		return apiclient.FollowResult{Following: true, FollowerCount: 1}, nil
	}
	return a.follow(ctx, userID)
}

type promptAnswer struct {
	text string
	err  error
}

type scriptedPrompter struct {
	mu      sync.Mutex
	answers []promptAnswer
	labels  []string
}

func (p *scriptedPrompter) Prompt(_ context.Context, label string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.labels = append(p.labels, label)
	if len(p.answers) == 0 {
		return "", ErrPromptCancelled
	}
	next := p.answers[0]
	p.answers = p.answers[1:]
	return next.text, next.err
}

func answers(texts ...string) *scriptedPrompter {
	p := &scriptedPrompter{}
	for _, t := range texts {
		p.answers = append(p.answers, promptAnswer{text: t})
	}
	return p
}

type recordingNavigator struct {
	mu      sync.Mutex
	paths   []string
	reloads int
	err     error
}

func (n *recordingNavigator) Navigate(_ context.Context, path string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
	return n.err
}

func (n *recordingNavigator) Reload(context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reloads++
	return nil
}

func (n *recordingNavigator) Reloads() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.reloads
}

type harness struct {
	controller *Controller
	api        *fakeAPI
	scheduler  *fakeScheduler
	navigator  *recordingNavigator
}

func newHarness(api *fakeAPI, prompter Prompter) *harness {
	if api == nil {
		api = &fakeAPI{}
	}
	scheduler := &fakeScheduler{}
	navigator := &recordingNavigator{}
	controller := NewController(Config{
		API:       api,
		Notifier:  NewNotifier(NotifierConfig{Scheduler: scheduler}),
		Prompter:  prompter,
		Navigator: navigator,
		Scheduler: scheduler,
	})
	return &harness{controller: controller, api: api, scheduler: scheduler, navigator: navigator}
}
