// Package controller owns the client-side session and view state and mediates
// all communication with the Habit Breaker backend.
//
// Every state mutation is applied under a single lock, so overlapping async
// operations serialize their writes. Superseded in-flight requests are not
// cancelled: if the user switches habit twice quickly, whichever tips fetch
// resolves last wins. That staleness race matches the upstream behavior and is
// left as-is.
package controller

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"habitbreak/internal/api"
	"habitbreak/internal/cache"
	"habitbreak/internal/constants"
	"habitbreak/internal/logger"
	"habitbreak/internal/models"
	"habitbreak/internal/session"
)

// AuthDraft holds unsubmitted login/register form fields.
type AuthDraft struct {
	Email       string
	Password    string
	DisplayName string
}

// GoalEditDraft holds the in-progress edit of a single goal row.
type GoalEditDraft struct {
	Title         string
	TargetDays    string
	CompletedDate string
}

// State is the controller's view of the world. Server-backed fields hold the
// last successful fetch; draft fields are purely local until submitted.
type State struct {
	Profile *models.Profile
	Tips    []string
	Journal []models.JournalEntry
	Goals   []models.Goal
	Streak  models.StreakSnapshot
	Metrics models.MetricsSnapshot

	Habit  string
	Window int

	AuthDraft    AuthDraft
	JournalDraft models.JournalDraft
	GoalDraft    models.GoalDraft

	// EditingGoalID is the single shared edit target: at most one goal row
	// is in the editing state at a time.
	EditingGoalID string
	GoalEdit      GoalEditDraft

	// ErrMsg is the single shared error slot, overwritten by each strict
	// operation's outcome. Best-effort refreshes never touch it.
	ErrMsg  string
	Loading bool
}

// Controller coordinates the REST client, durable local state, and the
// snapshot cache.
type Controller struct {
	mu    sync.Mutex
	state State

	client *api.Client
	store  *session.Store
	snaps  *cache.Store

	now func() time.Time
}

// New builds a Controller around a backend base URL. The session store
// supplies the bearer token for every request and receives the teardown when
// the backend rejects it. snaps may be nil to disable the snapshot cache.
func New(baseURL string, store *session.Store, snaps *cache.Store, clientOpts ...api.Option) *Controller {
	c := &Controller{
		store: store,
		snaps: snaps,
		now:   time.Now,
	}
	c.state = State{
		Habit:        store.Habit(),
		Window:       store.Window(),
		JournalDraft: models.JournalDraft{Intensity: 5},
		GoalDraft:    models.GoalDraft{TargetDays: "30"},
	}

	opts := append([]api.Option{}, clientOpts...)
	opts = append(opts,
		api.WithToken(store.TokenOrEmpty),
		api.WithSessionExpiredHook(c.handleSessionExpired),
	)
	c.client = api.New(baseURL, opts...)

	c.restoreFromCache()
	return c
}

// Client exposes the underlying API client for operations that bypass the
// shared state, e.g. one-shot CLI reads.
func (c *Controller) Client() *api.Client { return c.client }

// Snapshot returns a copy of the current state for rendering. The contained
// slices are shared; callers must treat them as read-only.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// HasSession reports whether a bearer token is stored.
func (c *Controller) HasSession() bool {
	return c.store.TokenOrEmpty() != ""
}

// apply runs a state mutation under the lock.
func (c *Controller) apply(fn func(*State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.state)
}

// beginOp marks a strict operation as started: loading on, error slot cleared.
func (c *Controller) beginOp() {
	c.apply(func(s *State) {
		s.Loading = true
		s.ErrMsg = ""
	})
}

// endOp marks a strict operation as finished, recording its outcome in the
// shared error slot.
func (c *Controller) endOp(err error) {
	c.apply(func(s *State) {
		s.Loading = false
		if err != nil {
			s.ErrMsg = err.Error()
		}
	})
}

// handleSessionExpired runs whenever any request comes back 401: the token is
// cleared from durable storage and the cached profile is dropped. The failed
// call itself returns api.ErrSessionExpired.
func (c *Controller) handleSessionExpired() {
	if err := c.store.ClearToken(); err != nil {
		logger.Warn("Failed to clear token after session expiry", "error", err)
	}
	c.apply(func(s *State) { s.Profile = nil })
	c.putCache(cache.ViewProfile, (*models.Profile)(nil))
	logger.Info("Session expired, token cleared")
}

func (c *Controller) putCache(view string, v any) {
	if c.snaps == nil {
		return
	}
	if err := c.snaps.Put(view, v); err != nil {
		logger.Warn("Failed to cache snapshot", "view", view, "error", err)
	}
}

// restoreFromCache pre-populates state from the last persisted snapshots so
// the UI has something to show before the first fetch resolves.
func (c *Controller) restoreFromCache() {
	if c.snaps == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	s := &c.state
	if err := c.snaps.Get(cache.ViewTips, &s.Tips); err != nil && err != cache.ErrMiss {
		logger.Warn("Failed to restore tips snapshot", "error", err)
	}
	_ = c.snaps.Get(cache.ViewJournal, &s.Journal)
	_ = c.snaps.Get(cache.ViewGoals, &s.Goals)
	_ = c.snaps.Get(cache.ViewStreak, &s.Streak)
	_ = c.snaps.Get(cache.ViewMetrics, &s.Metrics)
	_ = c.snaps.Get(cache.ViewProfile, &s.Profile)
}

// --- authentication ---

// Login authenticates, stores the bearer token, clears the auth draft, and
// triggers a full reload of the server-backed views.
func (c *Controller) Login(ctx context.Context, email, password string) error {
	c.beginOp()
	tok, err := c.client.Login(ctx, email, password)
	if err != nil {
		c.endOp(err)
		return err
	}
	if err := c.store.SetToken(tok); err != nil {
		c.endOp(err)
		return err
	}
	c.apply(func(s *State) { s.AuthDraft = AuthDraft{} })
	c.endOp(nil)
	return c.TokenChanged(ctx)
}

// Register creates an account and behaves like Login on success.
func (c *Controller) Register(ctx context.Context, email, password, displayName string) error {
	c.beginOp()
	tok, err := c.client.Register(ctx, models.RegisterRequest{
		Email:       email,
		Password:    password,
		DisplayName: displayName,
	})
	if err != nil {
		c.endOp(err)
		return err
	}
	if err := c.store.SetToken(tok); err != nil {
		c.endOp(err)
		return err
	}
	c.apply(func(s *State) { s.AuthDraft = AuthDraft{} })
	c.endOp(nil)
	return c.TokenChanged(ctx)
}

// Logout clears the token and cached profile. Previously loaded lists stay in
// place until the next load.
func (c *Controller) Logout() error {
	if err := c.store.ClearToken(); err != nil {
		return err
	}
	c.apply(func(s *State) { s.Profile = nil })
	c.putCache(cache.ViewProfile, (*models.Profile)(nil))
	return nil
}

// TokenChanged re-runs everything that depends on the session: the profile
// (best-effort) and the full view reload (strict).
func (c *Controller) TokenChanged(ctx context.Context) error {
	c.refreshProfile(ctx)
	return c.LoadAll(ctx)
}

// refreshProfile fetches the current profile, dropping it when no session
// exists or the fetch fails. Errors are swallowed.
func (c *Controller) refreshProfile(ctx context.Context) {
	if !c.HasSession() {
		c.apply(func(s *State) { s.Profile = nil })
		return
	}
	me, err := c.client.Me(ctx)
	if err != nil {
		logger.Debug("Profile refresh failed", "error", err)
		c.apply(func(s *State) { s.Profile = nil })
		return
	}
	c.apply(func(s *State) { s.Profile = &me })
	c.putCache(cache.ViewProfile, &me)
}

// --- loading ---

// LoadAll performs the five server reads concurrently and reports the first
// failure after all have settled. Each read applies its own result as soon as
// it resolves, so reads that succeeded keep their state even when the
// aggregate fails; reads that failed leave previous state untouched.
func (c *Controller) LoadAll(ctx context.Context) error {
	c.beginOp()

	var g errgroup.Group
	g.Go(func() error { return c.LoadTips(ctx) })
	g.Go(func() error { return c.LoadJournal(ctx) })
	g.Go(func() error { return c.LoadGoals(ctx) })
	g.Go(func() error { return c.LoadStreak(ctx) })
	g.Go(func() error { return c.LoadMetrics(ctx) })

	err := g.Wait()
	c.endOp(err)
	return err
}

// LoadTips fetches tips for the current habit and applies them.
func (c *Controller) LoadTips(ctx context.Context) error {
	habit := c.Snapshot().Habit
	tips, err := c.client.Tips(ctx, habit)
	if err != nil {
		return err
	}
	c.apply(func(s *State) { s.Tips = tips })
	c.putCache(cache.ViewTips, tips)
	return nil
}

// LoadJournal fetches the journal list and applies it.
func (c *Controller) LoadJournal(ctx context.Context) error {
	items, err := c.client.Journal(ctx)
	if err != nil {
		return err
	}
	c.apply(func(s *State) { s.Journal = items })
	c.putCache(cache.ViewJournal, items)
	return nil
}

// LoadGoals fetches the goal list and applies it.
func (c *Controller) LoadGoals(ctx context.Context) error {
	items, err := c.client.Goals(ctx)
	if err != nil {
		return err
	}
	c.apply(func(s *State) { s.Goals = items })
	c.putCache(cache.ViewGoals, items)
	return nil
}

// LoadStreak fetches the streak snapshot and applies it.
func (c *Controller) LoadStreak(ctx context.Context) error {
	snap, err := c.client.Streak(ctx)
	if err != nil {
		return err
	}
	c.apply(func(s *State) { s.Streak = snap })
	c.putCache(cache.ViewStreak, snap)
	return nil
}

// LoadMetrics fetches the metrics snapshot for the current window.
func (c *Controller) LoadMetrics(ctx context.Context) error {
	window := c.Snapshot().Window
	snap, err := c.client.Metrics(ctx, window)
	if err != nil {
		return err
	}
	c.apply(func(s *State) { s.Metrics = snap })
	c.putCache(cache.ViewMetrics, snap)
	return nil
}

// bestEffort runs a refresh whose failure must never surface to the user.
func (c *Controller) bestEffort(name string, fn func() error) {
	if err := fn(); err != nil {
		logger.Debug("Best-effort refresh failed", "refresh", name, "error", err)
	}
}

// --- reactive events ---

// HabitChanged persists the new habit, mirrors it to the server profile when a
// session exists, and refreshes tips for the new habit. The profile push and
// the tips fetch are both best-effort.
func (c *Controller) HabitChanged(ctx context.Context, habit string) error {
	if !constants.IsValidHabit(habit) {
		return fmt.Errorf("invalid habit: %q", habit)
	}
	if err := c.store.SetHabit(habit); err != nil {
		return err
	}
	c.apply(func(s *State) { s.Habit = habit })

	if c.HasSession() {
		c.bestEffort("profile-habit", func() error {
			return c.client.UpdateProfile(ctx, habit)
		})
	}
	c.bestEffort("tips", func() error { return c.LoadTips(ctx) })
	return nil
}

// WindowChanged persists the new metrics window and refreshes the metrics
// snapshot alone, best-effort.
func (c *Controller) WindowChanged(ctx context.Context, days int) error {
	if !constants.IsValidWindow(days) {
		return fmt.Errorf("invalid metrics window: %d", days)
	}
	if err := c.store.SetWindow(days); err != nil {
		return err
	}
	c.apply(func(s *State) { s.Window = days })

	c.bestEffort("metrics", func() error { return c.LoadMetrics(ctx) })
	return nil
}

// --- mutations ---

// CheckIn records today's check-in (strict), then refreshes streak, journal,
// and metrics concurrently, best-effort.
func (c *Controller) CheckIn(ctx context.Context) error {
	c.beginOp()
	if err := c.client.CheckIn(ctx); err != nil {
		c.endOp(err)
		return err
	}

	var wg sync.WaitGroup
	for name, fn := range map[string]func() error{
		"streak":  func() error { return c.LoadStreak(ctx) },
		"journal": func() error { return c.LoadJournal(ctx) },
		"metrics": func() error { return c.LoadMetrics(ctx) },
	} {
		wg.Add(1)
		go func(name string, fn func() error) {
			defer wg.Done()
			c.bestEffort(name, fn)
		}(name, fn)
	}
	wg.Wait()

	c.endOp(nil)
	return nil
}

// SetJournalDraft replaces the unsubmitted journal form fields.
func (c *Controller) SetJournalDraft(d models.JournalDraft) {
	c.apply(func(s *State) { s.JournalDraft = d })
}

// SubmitJournal posts the current journal draft. An empty or whitespace-only
// note performs no network call and leaves the draft unchanged. On success the
// draft is cleared and journal and metrics are refreshed best-effort.
func (c *Controller) SubmitJournal(ctx context.Context) error {
	draft := c.Snapshot().JournalDraft
	if draft.Empty() {
		return nil
	}

	c.beginOp()
	err := c.client.CreateJournal(ctx, models.JournalCreate{
		Note:      draft.Note,
		Intensity: draft.Intensity,
		Feeling:   draft.Feeling,
	})
	if err != nil {
		c.endOp(err)
		return err
	}
	c.apply(func(s *State) { s.JournalDraft = models.JournalDraft{Intensity: 5} })

	c.bestEffort("journal", func() error { return c.LoadJournal(ctx) })
	c.bestEffort("metrics", func() error { return c.LoadMetrics(ctx) })
	c.endOp(nil)
	return nil
}

// SetGoalDraft replaces the unsubmitted goal-creation form fields.
func (c *Controller) SetGoalDraft(d models.GoalDraft) {
	c.apply(func(s *State) { s.GoalDraft = d })
}

// SubmitGoal posts the current goal draft. An empty title performs no network
// call. The raw target-day input is coerced to a number, non-numeric input
// becoming zero. On success the draft resets and goals refresh best-effort.
func (c *Controller) SubmitGoal(ctx context.Context) error {
	draft := c.Snapshot().GoalDraft
	if strings.TrimSpace(draft.Title) == "" {
		return nil
	}

	c.beginOp()
	err := c.client.CreateGoal(ctx, models.GoalCreate{
		Title:      draft.Title,
		TargetDays: models.ParseTargetDays(draft.TargetDays),
	})
	if err != nil {
		c.endOp(err)
		return err
	}
	c.apply(func(s *State) { s.GoalDraft = models.GoalDraft{TargetDays: "30"} })

	c.bestEffort("goals", func() error { return c.LoadGoals(ctx) })
	c.endOp(nil)
	return nil
}

// StartEditGoal moves a goal row into the editing state, seeding the edit
// draft from the current row. Starting a new edit replaces any other row's
// editing state, keeping the single shared edit target.
func (c *Controller) StartEditGoal(id string) {
	c.apply(func(s *State) {
		for _, g := range s.Goals {
			if g.ID == id {
				s.EditingGoalID = id
				s.GoalEdit = GoalEditDraft{
					Title:         g.Title,
					TargetDays:    strconv.Itoa(g.TargetDays),
					CompletedDate: g.CompletedDate,
				}
				return
			}
		}
	})
}

// SetGoalEdit replaces the in-progress edit draft.
func (c *Controller) SetGoalEdit(d GoalEditDraft) {
	c.apply(func(s *State) { s.GoalEdit = d })
}

// CancelEditGoal returns the editing row to the viewing state with no server
// call.
func (c *Controller) CancelEditGoal() {
	c.apply(func(s *State) {
		s.EditingGoalID = ""
		s.GoalEdit = GoalEditDraft{}
	})
}

// SaveGoalEdit sends only the changed fields as a partial update. A restored
// completion date is sent as-is; an absent one omits the key entirely so the
// server leaves it unchanged. On success the row returns to viewing state and
// goals refresh best-effort.
func (c *Controller) SaveGoalEdit(ctx context.Context) error {
	st := c.Snapshot()
	id := st.EditingGoalID
	if id == "" {
		return nil
	}

	var orig *models.Goal
	for i := range st.Goals {
		if st.Goals[i].ID == id {
			orig = &st.Goals[i]
			break
		}
	}

	var patch models.GoalPatch
	edit := st.GoalEdit
	if orig == nil || edit.Title != orig.Title {
		title := edit.Title
		patch.Title = &title
	}
	days := models.ParseTargetDays(edit.TargetDays)
	if orig == nil || days != orig.TargetDays {
		patch.TargetDays = &days
	}
	if edit.CompletedDate != "" && (orig == nil || edit.CompletedDate != orig.CompletedDate) {
		date := edit.CompletedDate
		patch.CompletedDate = &date
	}

	c.beginOp()
	if !patch.Empty() {
		if err := c.client.UpdateGoal(ctx, id, patch); err != nil {
			c.endOp(err)
			return err
		}
	}
	c.apply(func(s *State) {
		s.EditingGoalID = ""
		s.GoalEdit = GoalEditDraft{}
	})

	c.bestEffort("goals", func() error { return c.LoadGoals(ctx) })
	c.endOp(nil)
	return nil
}

// MarkGoalDoneToday sets the goal's completion date to today's local calendar
// date in YYYY-MM-DD form.
func (c *Controller) MarkGoalDoneToday(ctx context.Context, id string) error {
	today := c.now().Format(constants.DateFormat)
	patch := models.GoalPatch{CompletedDate: &today}

	c.beginOp()
	if err := c.client.UpdateGoal(ctx, id, patch); err != nil {
		c.endOp(err)
		return err
	}

	c.bestEffort("goals", func() error { return c.LoadGoals(ctx) })
	c.endOp(nil)
	return nil
}

// --- password reset & email verification ---

// RequestReset starts the password-reset flow and returns a user-visible hint.
func (c *Controller) RequestReset(ctx context.Context, email string) (string, error) {
	c.beginOp()
	if err := c.client.RequestReset(ctx, email); err != nil {
		c.endOp(err)
		return "", err
	}
	c.endOp(nil)
	return "If that email is registered, a reset token is on its way.", nil
}

// ConfirmReset finishes the password-reset flow.
func (c *Controller) ConfirmReset(ctx context.Context, token, newPassword string) error {
	c.beginOp()
	err := c.client.ConfirmReset(ctx, token, newPassword)
	c.endOp(err)
	return err
}

// RequestVerify starts the email-verification flow and returns a user-visible
// hint.
func (c *Controller) RequestVerify(ctx context.Context, email string) (string, error) {
	c.beginOp()
	if err := c.client.RequestVerify(ctx, email); err != nil {
		c.endOp(err)
		return "", err
	}
	c.endOp(nil)
	return "If that email is registered, a verification token is on its way.", nil
}

// ConfirmVerify finishes the email-verification flow and re-fetches the
// profile so the verified flag updates.
func (c *Controller) ConfirmVerify(ctx context.Context, token string) error {
	c.beginOp()
	if err := c.client.ConfirmVerify(ctx, token); err != nil {
		c.endOp(err)
		return err
	}
	c.refreshProfile(ctx)
	c.endOp(nil)
	return nil
}
