package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/zalando/go-keyring"

	"habitbreak/internal/api"
	"habitbreak/internal/api/apitest"
	"habitbreak/internal/constants"
	"habitbreak/internal/models"
	"habitbreak/internal/session"
)

func newTestController(t *testing.T, srv *apitest.Server) (*Controller, *session.Store) {
	t.Helper()
	keyring.MockInit()

	store, err := session.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("session store: %v", err)
	}
	// Any token left over from a previous test's mock keyring.
	if err := store.ClearToken(); err != nil {
		t.Fatalf("clear token: %v", err)
	}

	return New(srv.URL, store, nil), store
}

func login(t *testing.T, c *Controller, srv *apitest.Server) {
	t.Helper()
	srv.IssuedToken = "session-token"
	if err := c.Login(context.Background(), "a@b.c", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	srv.ResetRequests()
}

func TestHabitChanged_PersistsAndMirrorsToProfile(t *testing.T) {
	for _, habit := range constants.HabitOptions {
		t.Run(habit, func(t *testing.T) {
			srv := apitest.New()
			defer srv.Close()

			c, store := newTestController(t, srv)
			login(t, c, srv)

			if err := c.HabitChanged(context.Background(), habit); err != nil {
				t.Fatalf("HabitChanged: %v", err)
			}

			if store.Habit() != habit {
				t.Errorf("persisted habit = %q, want %q", store.Habit(), habit)
			}
			if n := srv.Count(http.MethodPut, "/api/profile"); n != 1 {
				t.Errorf("profile updates = %d, want 1", n)
			}
			req, _ := srv.Last(http.MethodPut, "/api/profile")
			var body models.ProfileUpdate
			if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
				t.Fatalf("bad profile body: %v", err)
			}
			if body.SelectedHabit != habit {
				t.Errorf("pushed habit = %q, want %q", body.SelectedHabit, habit)
			}
		})
	}
}

func TestHabitChanged_NoProfilePushWithoutSession(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()

	c, _ := newTestController(t, srv)
	if err := c.HabitChanged(context.Background(), "smoking"); err != nil {
		t.Fatalf("HabitChanged: %v", err)
	}
	if n := srv.Count(http.MethodPut, "/api/profile"); n != 0 {
		t.Errorf("profile updates = %d, want 0", n)
	}
	if n := srv.Count(http.MethodGet, "/api/tips"); n != 1 {
		t.Errorf("tips fetches = %d, want 1", n)
	}
}

func TestHabitChanged_TipFailureIsSwallowed(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	srv.SetFail(http.MethodGet, "/api/tips", http.StatusInternalServerError)

	c, _ := newTestController(t, srv)
	c.apply(func(s *State) { s.Tips = []string{"keep busy"} })

	if err := c.HabitChanged(context.Background(), "alcohol"); err != nil {
		t.Fatalf("HabitChanged surfaced a best-effort failure: %v", err)
	}

	st := c.Snapshot()
	if st.ErrMsg != "" {
		t.Errorf("error slot = %q, want empty", st.ErrMsg)
	}
	if len(st.Tips) != 1 || st.Tips[0] != "keep busy" {
		t.Errorf("tips overwritten on failed refresh: %v", st.Tips)
	}
}

func TestLoadAll_PartialRejection(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	srv.Tips["general"] = []string{"one day at a time"}
	srv.Journal = []models.JournalEntry{{ID: "j1", Note: "late night urge"}}
	srv.Streak = models.StreakSnapshot{DaysLogged: 12, CurrentStreak: 4}
	srv.FailBody = "boom"
	srv.SetFail(http.MethodGet, "/api/goals", http.StatusInternalServerError)

	c, _ := newTestController(t, srv)
	c.apply(func(s *State) { s.Goals = []models.Goal{{ID: "stale", Title: "old goal"}} })

	err := c.LoadAll(context.Background())
	if err == nil {
		t.Fatal("expected the aggregate to fail")
	}

	st := c.Snapshot()
	if st.ErrMsg == "" {
		t.Error("error slot empty after failed aggregate")
	}
	if !strings.Contains(st.ErrMsg, "500") {
		t.Errorf("error slot %q does not carry the status code", st.ErrMsg)
	}

	// The four successful reads applied their results.
	if len(st.Tips) != 1 {
		t.Errorf("tips not applied: %v", st.Tips)
	}
	if len(st.Journal) != 1 {
		t.Errorf("journal not applied: %v", st.Journal)
	}
	if st.Streak.DaysLogged != 12 {
		t.Errorf("streak not applied: %+v", st.Streak)
	}
	// The failed read left previous state untouched.
	if len(st.Goals) != 1 || st.Goals[0].ID != "stale" {
		t.Errorf("goals changed despite failed fetch: %v", st.Goals)
	}
	if st.Loading {
		t.Error("loading flag still set")
	}
}

func TestLoadAll_IssuesFiveReads(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()

	c, _ := newTestController(t, srv)
	if err := c.LoadAll(context.Background()); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}

	for _, path := range []string{"/api/tips", "/api/journal", "/api/goals", "/api/streak", "/api/metrics"} {
		if n := srv.Count(http.MethodGet, path); n != 1 {
			t.Errorf("%s fetched %d times, want 1", path, n)
		}
	}
}

func TestUnauthorized_ClearsSessionWithExactMessage(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()

	c, store := newTestController(t, srv)
	login(t, c, srv)
	srv.ValidToken = "some-other-token"

	err := c.LoadJournal(context.Background())
	if !errors.Is(err, api.ErrSessionExpired) {
		t.Fatalf("err = %v, want ErrSessionExpired", err)
	}

	if _, err := store.Token(); err != session.ErrNoToken {
		t.Errorf("token still stored after 401: %v", err)
	}
	if c.Snapshot().Profile != nil {
		t.Error("profile still cached after 401")
	}

	// Through a strict operation the exact message lands in the error slot.
	srv.ValidToken = "some-other-token"
	_ = store.SetToken("still-stale")
	_ = c.CheckIn(context.Background())
	if got := c.Snapshot().ErrMsg; got != constants.SessionExpiredMessage {
		t.Errorf("error slot = %q, want %q", got, constants.SessionExpiredMessage)
	}
}

func TestSubmitJournal_EmptyNoteSendsNothing(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()

	c, _ := newTestController(t, srv)

	for _, note := range []string{"", "   ", "\n\t"} {
		draft := models.JournalDraft{Note: note, Intensity: 7, Feeling: "bored"}
		c.SetJournalDraft(draft)

		if err := c.SubmitJournal(context.Background()); err != nil {
			t.Fatalf("SubmitJournal(%q): %v", note, err)
		}
		if n := len(srv.RecordedRequests()); n != 0 {
			t.Fatalf("note %q triggered %d requests, want 0", note, n)
		}
		if got := c.Snapshot().JournalDraft; got != draft {
			t.Errorf("draft changed: %+v, want %+v", got, draft)
		}
	}
}

func TestSubmitJournal_ClearsDraftAndRefreshes(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()

	c, _ := newTestController(t, srv)
	c.SetJournalDraft(models.JournalDraft{Note: "drove past the bar", Intensity: 8, Feeling: "anxious"})

	if err := c.SubmitJournal(context.Background()); err != nil {
		t.Fatalf("SubmitJournal: %v", err)
	}

	if got := c.Snapshot().JournalDraft; got.Note != "" || got.Intensity != 5 {
		t.Errorf("draft not reset: %+v", got)
	}
	if n := srv.Count(http.MethodPost, "/api/journal"); n != 1 {
		t.Errorf("journal posts = %d, want 1", n)
	}
	if n := srv.Count(http.MethodGet, "/api/journal"); n != 1 {
		t.Errorf("journal refreshes = %d, want 1", n)
	}
	if n := srv.Count(http.MethodGet, "/api/metrics"); n != 1 {
		t.Errorf("metrics refreshes = %d, want 1", n)
	}
}

func TestSubmitGoal_CoercesTargetDays(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"abc", 0},
		{"", 0},
		{"30", 30},
		{" 90 ", 90},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			srv := apitest.New()
			defer srv.Close()

			c, _ := newTestController(t, srv)
			c.SetGoalDraft(models.GoalDraft{Title: "clean streak", TargetDays: tt.raw})

			if err := c.SubmitGoal(context.Background()); err != nil {
				t.Fatalf("SubmitGoal: %v", err)
			}

			req, ok := srv.Last(http.MethodPost, "/api/goals")
			if !ok {
				t.Fatal("no goal POST recorded")
			}
			var body map[string]any
			if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
				t.Fatalf("bad body: %v", err)
			}
			if body["target_days"] != tt.want {
				t.Errorf("target_days = %v, want %v", body["target_days"], tt.want)
			}
		})
	}
}

func TestSaveGoalEdit_OmitsAbsentCompletedDate(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	srv.Goals = []models.Goal{{ID: "g1", Title: "stay clean", TargetDays: 30}}

	c, _ := newTestController(t, srv)
	if err := c.LoadGoals(context.Background()); err != nil {
		t.Fatalf("LoadGoals: %v", err)
	}

	c.StartEditGoal("g1")
	c.SetGoalEdit(GoalEditDraft{Title: "stay clean longer", TargetDays: "60"})
	if err := c.SaveGoalEdit(context.Background()); err != nil {
		t.Fatalf("SaveGoalEdit: %v", err)
	}

	req, ok := srv.Last(http.MethodPatch, "/api/goals/")
	if !ok {
		t.Fatal("no PATCH recorded")
	}
	var body map[string]any
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if _, present := body["completed_date"]; present {
		t.Errorf("completed_date present in %q, want key omitted", req.Body)
	}
	if body["title"] != "stay clean longer" {
		t.Errorf("title = %v", body["title"])
	}
	if body["target_days"] != float64(60) {
		t.Errorf("target_days = %v, want 60", body["target_days"])
	}

	if got := c.Snapshot().EditingGoalID; got != "" {
		t.Errorf("still editing %q after save", got)
	}
}

func TestSaveGoalEdit_UnchangedFieldsOmitted(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	srv.Goals = []models.Goal{{ID: "g1", Title: "stay clean", TargetDays: 30}}

	c, _ := newTestController(t, srv)
	if err := c.LoadGoals(context.Background()); err != nil {
		t.Fatalf("LoadGoals: %v", err)
	}

	c.StartEditGoal("g1")
	c.SetGoalEdit(GoalEditDraft{Title: "stay clean", TargetDays: "45"})
	if err := c.SaveGoalEdit(context.Background()); err != nil {
		t.Fatalf("SaveGoalEdit: %v", err)
	}

	req, _ := srv.Last(http.MethodPatch, "/api/goals/")
	var body map[string]any
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if _, present := body["title"]; present {
		t.Errorf("unchanged title present in %q", req.Body)
	}
	if body["target_days"] != float64(45) {
		t.Errorf("target_days = %v, want 45", body["target_days"])
	}
}

func TestCancelEditGoal_NoServerCall(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	srv.Goals = []models.Goal{{ID: "g1", Title: "stay clean", TargetDays: 30}}

	c, _ := newTestController(t, srv)
	if err := c.LoadGoals(context.Background()); err != nil {
		t.Fatalf("LoadGoals: %v", err)
	}
	srv.ResetRequests()

	c.StartEditGoal("g1")
	if got := c.Snapshot().EditingGoalID; got != "g1" {
		t.Fatalf("editing id = %q, want g1", got)
	}
	c.CancelEditGoal()

	if got := c.Snapshot().EditingGoalID; got != "" {
		t.Errorf("editing id = %q after cancel", got)
	}
	if n := len(srv.RecordedRequests()); n != 0 {
		t.Errorf("cancel issued %d requests, want 0", n)
	}
}

func TestStartEditGoal_SingleEditTarget(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	srv.Goals = []models.Goal{
		{ID: "g1", Title: "first", TargetDays: 30},
		{ID: "g2", Title: "second", TargetDays: 60},
	}

	c, _ := newTestController(t, srv)
	if err := c.LoadGoals(context.Background()); err != nil {
		t.Fatalf("LoadGoals: %v", err)
	}

	c.StartEditGoal("g1")
	c.StartEditGoal("g2")

	st := c.Snapshot()
	if st.EditingGoalID != "g2" {
		t.Errorf("editing id = %q, want g2", st.EditingGoalID)
	}
	if st.GoalEdit.Title != "second" {
		t.Errorf("edit draft seeded from %q, want second", st.GoalEdit.Title)
	}
}

func TestMarkGoalDoneToday_SendsLocalISODate(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()

	c, _ := newTestController(t, srv)
	fixed := time.Date(2026, 9, 1, 23, 30, 0, 0, time.Local)
	c.now = func() time.Time { return fixed }

	if err := c.MarkGoalDoneToday(context.Background(), "g1"); err != nil {
		t.Fatalf("MarkGoalDoneToday: %v", err)
	}

	req, ok := srv.Last(http.MethodPatch, "/api/goals/")
	if !ok {
		t.Fatal("no PATCH recorded")
	}
	var body map[string]any
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if body["completed_date"] != "2026-09-01" {
		t.Errorf("completed_date = %v, want 2026-09-01", body["completed_date"])
	}
}

func TestWindowChanged_OneFetchPerChangeFailuresSilent(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()

	c, store := newTestController(t, srv)

	for _, window := range []int{30, 90, 14} {
		srv.ResetRequests()
		if err := c.WindowChanged(context.Background(), window); err != nil {
			t.Fatalf("WindowChanged(%d): %v", window, err)
		}
		if n := srv.Count(http.MethodGet, "/api/metrics"); n != 1 {
			t.Errorf("window %d: metrics fetches = %d, want 1", window, n)
		}
		req, _ := srv.Last(http.MethodGet, "/api/metrics")
		if got := req.Query.Get("days"); got != strconv.Itoa(window) {
			t.Errorf("window %d: days query = %q", window, got)
		}
		if store.Window() != window {
			t.Errorf("persisted window = %d, want %d", store.Window(), window)
		}
	}

	srv.SetFail(http.MethodGet, "/api/metrics", http.StatusBadGateway)
	if err := c.WindowChanged(context.Background(), 30); err != nil {
		t.Fatalf("WindowChanged surfaced a best-effort failure: %v", err)
	}
	if got := c.Snapshot().ErrMsg; got != "" {
		t.Errorf("error slot = %q, want empty", got)
	}
}

func TestCheckIn_StrictPostThenThreeRefreshes(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	srv.Streak = models.StreakSnapshot{DaysLogged: 5, CurrentStreak: 5}

	c, _ := newTestController(t, srv)
	if err := c.CheckIn(context.Background()); err != nil {
		t.Fatalf("CheckIn: %v", err)
	}

	if n := srv.Count(http.MethodPost, "/api/checkin"); n != 1 {
		t.Errorf("checkin posts = %d, want 1", n)
	}
	for _, path := range []string{"/api/streak", "/api/journal", "/api/metrics"} {
		if n := srv.Count(http.MethodGet, path); n != 1 {
			t.Errorf("%s refreshed %d times, want 1", path, n)
		}
	}
	if got := c.Snapshot().Streak.CurrentStreak; got != 5 {
		t.Errorf("streak = %d, want 5", got)
	}
}

func TestCheckIn_FailureSurfacedRefreshFailuresNot(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()

	c, _ := newTestController(t, srv)

	srv.SetFail(http.MethodPost, "/api/checkin", http.StatusConflict)
	if err := c.CheckIn(context.Background()); err == nil {
		t.Fatal("expected check-in failure to surface")
	}
	if got := c.Snapshot().ErrMsg; got == "" {
		t.Error("error slot empty after failed check-in")
	}

	srv.ClearFail(http.MethodPost, "/api/checkin")
	srv.SetFail(http.MethodGet, "/api/streak", http.StatusInternalServerError)
	if err := c.CheckIn(context.Background()); err != nil {
		t.Fatalf("CheckIn surfaced a refresh failure: %v", err)
	}
	if got := c.Snapshot().ErrMsg; got != "" {
		t.Errorf("error slot = %q after best-effort refresh failure", got)
	}
}

func TestLogout_ClearsSessionKeepsLists(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	srv.Journal = []models.JournalEntry{{ID: "j1", Note: "entry"}}
	srv.Goals = []models.Goal{{ID: "g1", Title: "goal"}}
	srv.Profile = models.Profile{Email: "a@b.c", DisplayName: "Ana"}

	c, store := newTestController(t, srv)
	login(t, c, srv)
	if err := c.TokenChanged(context.Background()); err != nil {
		t.Fatalf("TokenChanged: %v", err)
	}
	if c.Snapshot().Profile == nil {
		t.Fatal("profile not loaded")
	}

	if err := c.Logout(); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	if _, err := store.Token(); err != session.ErrNoToken {
		t.Errorf("token still stored: %v", err)
	}
	st := c.Snapshot()
	if st.Profile != nil {
		t.Error("profile not cleared")
	}
	if len(st.Journal) != 1 || len(st.Goals) != 1 {
		t.Error("previously loaded lists were cleared on logout")
	}
}

func TestLogin_StoresTokenClearsDraftReloads(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	srv.IssuedToken = "brand-new"

	c, store := newTestController(t, srv)
	c.apply(func(s *State) {
		s.AuthDraft = AuthDraft{Email: "a@b.c", Password: "pw"}
	})

	if err := c.Login(context.Background(), "a@b.c", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	tok, err := store.Token()
	if err != nil || tok != "brand-new" {
		t.Errorf("stored token = %q (%v), want brand-new", tok, err)
	}
	st := c.Snapshot()
	if st.AuthDraft != (AuthDraft{}) {
		t.Errorf("auth draft not cleared: %+v", st.AuthDraft)
	}
	for _, path := range []string{"/api/tips", "/api/journal", "/api/goals", "/api/streak", "/api/metrics", "/api/auth/me"} {
		if n := srv.Count(http.MethodGet, path); n != 1 {
			t.Errorf("%s fetched %d times after login, want 1", path, n)
		}
	}
}

func TestRequestFlows_ReturnHints(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()

	c, _ := newTestController(t, srv)

	hint, err := c.RequestReset(context.Background(), "a@b.c")
	if err != nil {
		t.Fatalf("RequestReset: %v", err)
	}
	if hint == "" {
		t.Error("empty reset hint")
	}

	hint, err = c.RequestVerify(context.Background(), "a@b.c")
	if err != nil {
		t.Fatalf("RequestVerify: %v", err)
	}
	if hint == "" {
		t.Error("empty verify hint")
	}

	if n := srv.Count(http.MethodPost, "/api/auth/request-reset"); n != 1 {
		t.Errorf("reset requests = %d, want 1", n)
	}
	if n := srv.Count(http.MethodPost, "/api/auth/request-verify"); n != 1 {
		t.Errorf("verify requests = %d, want 1", n)
	}
}

func TestConfirmVerify_RefetchesProfile(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	srv.Profile = models.Profile{Email: "a@b.c", IsVerified: true}

	c, _ := newTestController(t, srv)
	login(t, c, srv)

	if err := c.ConfirmVerify(context.Background(), "verify-token"); err != nil {
		t.Fatalf("ConfirmVerify: %v", err)
	}

	st := c.Snapshot()
	if st.Profile == nil || !st.Profile.IsVerified {
		t.Errorf("profile not refreshed: %+v", st.Profile)
	}
}

