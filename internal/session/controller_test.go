package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"practice-service/internal/auth"
	"practice-service/internal/models"
	"practice-service/internal/snapshot"
)

type fakeClock struct {
	t time.Time
}

func (f *fakeClock) Now() time.Time {
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.t = f.t.Add(d)
}

func newTestController(userID string) (*Controller, *fakeClock, *snapshot.MemoryStore) {
	store := snapshot.NewMemoryStore()
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	c := NewController(auth.StaticIdentity{ID: userID}, snapshot.NewCodec(store))
	c.now = clock.Now
	return c, clock, store
}

func makeQuestions(n int) []models.Question {
	questions := make([]models.Question, n)
	for i := range questions {
		questions[i] = models.Question{
			ID:     fmt.Sprintf("q%d", i),
			DeckID: "deck1",
			Prompt: models.LocalizedText{"en": fmt.Sprintf("Question %d", i)},
			Options: []models.Option{
				{Text: models.LocalizedText{"en": "a"}},
				{Text: models.LocalizedText{"en": "b"}},
				{Text: models.LocalizedText{"en": "c"}},
				{Text: models.LocalizedText{"en": "d"}},
			},
			CorrectOption: i % 4,
			OrderIndex:    i,
			XPReward:      10,
		}
	}
	return questions
}

func startSession(t *testing.T, c *Controller, n int) {
	t.Helper()
	c.Start(context.Background(), "deck1", "Deck One", "culture", makeQuestions(n), models.SessionConfig{
		QuestionCount: n,
		Language:      "en",
	})
	if err := c.Err(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if c.Session() == nil {
		t.Fatal("expected a session after Start")
	}
}

func checkCountInvariant(t *testing.T, c *Controller) {
	t.Helper()
	sess := c.Session()
	if sess == nil {
		return
	}
	if sess.Stats.Answered+sess.Stats.Remaining != len(sess.Questions) {
		t.Errorf("answered %d + remaining %d != total %d",
			sess.Stats.Answered, sess.Stats.Remaining, len(sess.Questions))
	}
}

func TestStart_InitializesSession(t *testing.T) {
	c, _, store := newTestController("alice")
	startSession(t, c, 4)

	sess := c.Session()
	if sess.Status != models.StatusActive {
		t.Errorf("expected status active, got %s", sess.Status)
	}
	if sess.Phase != models.PhaseQuestion {
		t.Errorf("expected phase question, got %s", sess.Phase)
	}
	if sess.CurrentIndex != 0 {
		t.Errorf("expected index 0, got %d", sess.CurrentIndex)
	}
	if sess.Questions[0].StartedAt == nil {
		t.Error("expected first question started timestamp to be set")
	}
	if sess.Questions[1].StartedAt != nil {
		t.Error("expected later questions not to be started yet")
	}

	expected := models.SessionStats{Remaining: 4}
	if sess.Stats != expected {
		t.Errorf("expected stats %+v, got %+v", expected, sess.Stats)
	}
	if store.Len() != 1 {
		t.Errorf("expected one snapshot, got %d", store.Len())
	}
	checkCountInvariant(t, c)
}

func TestStart_Unauthenticated(t *testing.T) {
	store := snapshot.NewMemoryStore()
	c := NewController(auth.Anonymous, snapshot.NewCodec(store))

	c.Start(context.Background(), "deck1", "Deck One", "culture", makeQuestions(2), models.SessionConfig{})

	if c.Err() != ErrNotAuthenticated {
		t.Errorf("expected ErrNotAuthenticated, got %v", c.Err())
	}
	if c.Session() != nil {
		t.Error("expected no session to be created")
	}
	if store.Len() != 0 {
		t.Error("expected no snapshot to be written")
	}
}

func TestStart_EmptyQuestions(t *testing.T) {
	c, _, store := newTestController("alice")

	c.Start(context.Background(), "deck1", "Deck One", "culture", nil, models.SessionConfig{})

	if c.Err() != ErrNoQuestions {
		t.Errorf("expected ErrNoQuestions, got %v", c.Err())
	}
	if c.Session() != nil {
		t.Error("expected no session to be created")
	}
	if store.Len() != 0 {
		t.Error("expected no snapshot to be written")
	}
}

func TestRecordAnswer_WritesStateAndStats(t *testing.T) {
	c, clock, _ := newTestController("alice")
	startSession(t, c, 4)

	clock.Advance(3 * time.Second)
	c.RecordAnswer(context.Background(), 2, models.AnswerOutcome{
		IsCorrect:     true,
		XPEarned:      10,
		CorrectOption: 2,
	})

	sess := c.Session()
	q := sess.Questions[0]
	if q.SelectedOption == nil || *q.SelectedOption != 2 {
		t.Errorf("expected selected option 2, got %v", q.SelectedOption)
	}
	if q.IsCorrect == nil || !*q.IsCorrect {
		t.Error("expected question to be marked correct")
	}
	if q.CorrectOption == nil || *q.CorrectOption != 2 {
		t.Errorf("expected stored correct option 2, got %v", q.CorrectOption)
	}
	if q.TimeTakenMs == nil || *q.TimeTakenMs != 3000 {
		t.Errorf("expected 3000ms taken, got %v", q.TimeTakenMs)
	}
	if q.AnsweredAt == nil {
		t.Error("expected answered timestamp to be set")
	}
	if q.XPEarned != 10 {
		t.Errorf("expected 10 xp, got %d", q.XPEarned)
	}

	expected := models.SessionStats{
		Answered:           1,
		Remaining:          3,
		Correct:            1,
		Incorrect:          0,
		Accuracy:           100,
		TotalTimeSeconds:   3,
		AverageTimeSeconds: 3,
		XPEarned:           10,
	}
	if sess.Stats != expected {
		t.Errorf("expected stats %+v, got %+v", expected, sess.Stats)
	}
	if sess.Phase != models.PhaseFeedback {
		t.Errorf("expected phase feedback, got %s", sess.Phase)
	}
	checkCountInvariant(t, c)
}

func TestRecordAnswer_NoSessionIsNoOp(t *testing.T) {
	c, _, store := newTestController("alice")

	c.RecordAnswer(context.Background(), 1, models.AnswerOutcome{IsCorrect: true})

	if c.Session() != nil {
		t.Error("expected no session")
	}
	if store.Len() != 0 {
		t.Error("expected no snapshot")
	}
}

func TestRecordAnswer_SecondAnswerIgnored(t *testing.T) {
	c, clock, _ := newTestController("alice")
	startSession(t, c, 2)

	clock.Advance(time.Second)
	c.RecordAnswer(context.Background(), 0, models.AnswerOutcome{IsCorrect: true, XPEarned: 10, CorrectOption: 0})
	c.RecordAnswer(context.Background(), 2, models.AnswerOutcome{IsCorrect: false, CorrectOption: 0})

	sess := c.Session()
	q := sess.Questions[0]
	if q.SelectedOption == nil || *q.SelectedOption != 0 {
		t.Errorf("expected the first selection to stand, got %v", q.SelectedOption)
	}
	if q.IsCorrect == nil || !*q.IsCorrect {
		t.Error("expected the first outcome to stand")
	}
	expected := models.SessionStats{
		Answered:           1,
		Remaining:          1,
		Correct:            1,
		Accuracy:           100,
		TotalTimeSeconds:   1,
		AverageTimeSeconds: 1,
		XPEarned:           10,
	}
	if sess.Stats != expected {
		t.Errorf("expected the second answer not to fold, got %+v", sess.Stats)
	}
	checkCountInvariant(t, c)
}

func TestRecordAnswer_PausedIsNoOp(t *testing.T) {
	c, _, _ := newTestController("alice")
	startSession(t, c, 2)
	c.Pause(context.Background())

	c.RecordAnswer(context.Background(), 1, models.AnswerOutcome{IsCorrect: true})

	if c.Session().Questions[0].Answered() {
		t.Error("expected answer to be ignored while paused")
	}
}

func TestNextQuestion_Advances(t *testing.T) {
	c, clock, _ := newTestController("alice")
	startSession(t, c, 3)

	clock.Advance(2 * time.Second)
	c.RecordAnswer(context.Background(), 0, models.AnswerOutcome{IsCorrect: true, XPEarned: 10, CorrectOption: 0})
	clock.Advance(time.Second)
	c.NextQuestion(context.Background())

	sess := c.Session()
	if sess.CurrentIndex != 1 {
		t.Errorf("expected index 1, got %d", sess.CurrentIndex)
	}
	if sess.Phase != models.PhaseQuestion {
		t.Errorf("expected phase question, got %s", sess.Phase)
	}
	started := sess.Questions[1].StartedAt
	if started == nil || !started.Equal(clock.Now()) {
		t.Errorf("expected question 1 started at %v, got %v", clock.Now(), started)
	}
	checkCountInvariant(t, c)
}

func TestNextQuestion_OnLastCompletesSession(t *testing.T) {
	c, clock, store := newTestController("alice")
	startSession(t, c, 2)

	for i := 0; i < 2; i++ {
		clock.Advance(time.Second)
		c.RecordAnswer(context.Background(), 0, models.AnswerOutcome{IsCorrect: true, XPEarned: 10, CorrectOption: 0})
		c.NextQuestion(context.Background())
	}

	sess := c.Session()
	if sess.Status != models.StatusCompleted {
		t.Errorf("expected status completed, got %s", sess.Status)
	}
	summary := c.Summary()
	if summary == nil {
		t.Fatal("expected a summary")
	}
	if len(summary.Results) != 2 {
		t.Errorf("expected 2 results, got %d", len(summary.Results))
	}
	if store.Len() != 0 {
		t.Errorf("expected snapshot to be cleared, got %d entries", store.Len())
	}
}

func TestAccuracy_FourOfFive(t *testing.T) {
	c, clock, _ := newTestController("alice")
	startSession(t, c, 5)

	for i := 0; i < 5; i++ {
		clock.Advance(time.Second)
		c.RecordAnswer(context.Background(), 0, models.AnswerOutcome{
			IsCorrect:     i != 2, // one wrong answer
			XPEarned:      10,
			CorrectOption: 0,
		})
		if i < 4 {
			c.NextQuestion(context.Background())
		}
	}

	stats := c.Session().Stats
	if stats.Accuracy != 80 {
		t.Errorf("expected accuracy 80, got %d", stats.Accuracy)
	}
	if stats.Correct != 4 || stats.Incorrect != 1 {
		t.Errorf("expected 4 correct / 1 incorrect, got %d / %d", stats.Correct, stats.Incorrect)
	}
	checkCountInvariant(t, c)
}

func TestPauseResume_ExcludesPausedInterval(t *testing.T) {
	c, clock, _ := newTestController("alice")
	startSession(t, c, 2)

	clock.Advance(5 * time.Second)
	c.Pause(context.Background())
	if c.Session().Status != models.StatusPaused {
		t.Fatalf("expected status paused, got %s", c.Session().Status)
	}
	if c.Session().PausedAt == nil {
		t.Error("expected paused timestamp")
	}

	clock.Advance(time.Minute)
	c.Resume(context.Background())
	if c.Session().Status != models.StatusActive {
		t.Fatalf("expected status active, got %s", c.Session().Status)
	}
	if c.Session().PausedAt != nil {
		t.Error("expected paused timestamp to be cleared")
	}

	clock.Advance(3 * time.Second)
	c.RecordAnswer(context.Background(), 0, models.AnswerOutcome{IsCorrect: true, XPEarned: 10, CorrectOption: 0})

	taken := c.Session().Questions[0].TimeTakenMs
	if taken == nil || *taken != 3000 {
		t.Errorf("expected 3000ms taken after resume, got %v", taken)
	}
}

func TestResume_WithoutPauseIsNoOp(t *testing.T) {
	c, _, _ := newTestController("alice")
	startSession(t, c, 2)

	c.Resume(context.Background())

	if c.Session().Status != models.StatusActive {
		t.Errorf("expected status to stay active, got %s", c.Session().Status)
	}
}

func TestEnd_NoSession(t *testing.T) {
	c, _, _ := newTestController("alice")

	if _, err := c.End(context.Background()); err != ErrNoSession {
		t.Errorf("expected ErrNoSession, got %v", err)
	}
}

func TestEnd_Idempotent(t *testing.T) {
	c, clock, _ := newTestController("alice")
	startSession(t, c, 2)

	clock.Advance(time.Second)
	c.RecordAnswer(context.Background(), 0, models.AnswerOutcome{IsCorrect: true, XPEarned: 10, CorrectOption: 0})

	first, err := c.End(context.Background())
	if err != nil {
		t.Fatalf("End failed: %v", err)
	}

	clock.Advance(time.Hour)
	second, err := c.End(context.Background())
	if err != nil {
		t.Fatalf("second End failed: %v", err)
	}
	if first != second {
		t.Error("expected second End to return the stored summary unchanged")
	}
	if second.DurationSeconds != first.DurationSeconds {
		t.Errorf("expected duration to stay %d, got %d", first.DurationSeconds, second.DurationSeconds)
	}
}

func TestEnd_ResultsOnlyForAnswered(t *testing.T) {
	c, clock, _ := newTestController("alice")
	startSession(t, c, 3)

	clock.Advance(4 * time.Second)
	// The grader is authoritative for the correct option, not the embedded
	// definition.
	c.RecordAnswer(context.Background(), 1, models.AnswerOutcome{
		IsCorrect:     false,
		XPEarned:      0,
		CorrectOption: 3,
	})

	summary, err := c.End(context.Background())
	if err != nil {
		t.Fatalf("End failed: %v", err)
	}
	if len(summary.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(summary.Results))
	}
	result := summary.Results[0]
	if result.Index != 0 {
		t.Errorf("expected result for question 0, got %d", result.Index)
	}
	if result.SelectedOption != 1 {
		t.Errorf("expected selected option 1, got %d", result.SelectedOption)
	}
	if result.CorrectOption != 3 {
		t.Errorf("expected correct option 3 from the graded outcome, got %d", result.CorrectOption)
	}
	if result.IsCorrect {
		t.Error("expected result to be incorrect")
	}
	if result.TimeSeconds != 4 {
		t.Errorf("expected 4s, got %d", result.TimeSeconds)
	}
	if summary.DurationSeconds != 4 {
		t.Errorf("expected session duration 4s, got %d", summary.DurationSeconds)
	}
}

func TestAbandon_TerminatesWithoutSummary(t *testing.T) {
	c, _, store := newTestController("alice")
	startSession(t, c, 2)

	c.Abandon(context.Background())

	if c.Session().Status != models.StatusAbandoned {
		t.Errorf("expected status abandoned, got %s", c.Session().Status)
	}
	if c.Session().EndedAt == nil {
		t.Error("expected ended timestamp")
	}
	if c.Summary() != nil {
		t.Error("expected no summary")
	}
	if store.Len() != 0 {
		t.Error("expected snapshot to be cleared")
	}
}

func TestAbandon_NoSessionStillClearsSnapshot(t *testing.T) {
	c, _, store := newTestController("alice")
	store.Set(context.Background(), snapshot.Key("alice"), []byte("{}"), 0)

	c.Abandon(context.Background())

	if store.Len() != 0 {
		t.Error("expected snapshot to be cleared")
	}
}

func TestReset_ClearsEverything(t *testing.T) {
	c, _, store := newTestController("alice")
	startSession(t, c, 2)

	c.Reset(context.Background())

	if c.Session() != nil || c.Summary() != nil || c.Err() != nil {
		t.Error("expected all controller state to be cleared")
	}
	if store.Len() != 0 {
		t.Error("expected snapshot to be cleared")
	}
}

func TestRecover_RestoresSession(t *testing.T) {
	c, clock, store := newTestController("alice")
	startSession(t, c, 3)
	clock.Advance(2 * time.Second)
	c.RecordAnswer(context.Background(), 0, models.AnswerOutcome{IsCorrect: true, XPEarned: 10, CorrectOption: 0})
	c.NextQuestion(context.Background())
	originalID := c.Session().ID

	// A fresh controller over the same store stands in for a reload.
	restored := NewController(auth.StaticIdentity{ID: "alice"}, snapshot.NewCodec(store))
	restoredClock := &fakeClock{t: clock.Now().Add(10 * time.Minute)}
	restored.now = restoredClock.Now

	if !restored.CheckRecoverable(context.Background()) {
		t.Fatal("expected a recoverable snapshot")
	}
	if !restored.Recover(context.Background()) {
		t.Fatal("expected recovery to succeed")
	}

	sess := restored.Session()
	if sess.ID != originalID {
		t.Errorf("expected session %s, got %s", originalID, sess.ID)
	}
	if sess.Status != models.StatusActive {
		t.Errorf("expected status active, got %s", sess.Status)
	}
	if sess.CurrentIndex != 1 {
		t.Errorf("expected index 1, got %d", sess.CurrentIndex)
	}
	if sess.Stats.Answered != 1 || sess.Stats.XPEarned != 10 {
		t.Errorf("expected answered stats to survive recovery, got %+v", sess.Stats)
	}
	if !sess.Questions[0].Answered() {
		t.Error("expected answered question to survive recovery")
	}
	started := sess.Questions[1].StartedAt
	if started == nil || !started.Equal(restoredClock.Now()) {
		t.Errorf("expected in-progress question timer to restart at %v, got %v", restoredClock.Now(), started)
	}
	if store.Len() != 1 {
		t.Error("expected a fresh snapshot after recovery")
	}
	checkCountInvariant(t, restored)
}

func TestRecover_PausedSessionComesBackActive(t *testing.T) {
	c, _, store := newTestController("alice")
	startSession(t, c, 2)
	c.Pause(context.Background())

	restored, _, _ := newTestController("alice")
	restored.codec = snapshot.NewCodec(store)

	if !restored.Recover(context.Background()) {
		t.Fatal("expected recovery to succeed")
	}
	if restored.Session().Status != models.StatusActive {
		t.Errorf("expected recovered session to be active, got %s", restored.Session().Status)
	}
	if restored.Session().PausedAt != nil {
		t.Error("expected paused timestamp to be cleared")
	}
}

func TestRecover_UserMismatchDiscards(t *testing.T) {
	store := snapshot.NewMemoryStore()

	// A snapshot under alice's key but owned by someone else.
	sess := &models.PracticeSession{
		ID:        "s1",
		UserID:    "bob",
		Status:    models.StatusActive,
		Questions: []models.QuestionState{{Question: makeQuestions(1)[0]}},
	}
	data, err := json.Marshal(snapshot.Snapshot{
		Session: sess,
		SavedAt: time.Now(),
		Version: snapshot.CurrentVersion,
	})
	if err != nil {
		t.Fatal(err)
	}
	store.Set(context.Background(), snapshot.Key("alice"), data, 0)

	c := NewController(auth.StaticIdentity{ID: "alice"}, snapshot.NewCodec(store))
	if c.Recover(context.Background()) {
		t.Error("expected recovery to fail for a mismatched user")
	}
	if c.Session() != nil {
		t.Error("expected controller state to stay untouched")
	}
	if store.Len() != 0 {
		t.Error("expected mismatched snapshot to be discarded")
	}
}

func TestRecover_NothingStored(t *testing.T) {
	c, _, _ := newTestController("alice")

	if c.CheckRecoverable(context.Background()) {
		t.Error("expected nothing to recover")
	}
	if c.Recover(context.Background()) {
		t.Error("expected recovery to fail")
	}
}

func TestDismissRecovery_ClearsSnapshot(t *testing.T) {
	c, _, store := newTestController("alice")
	startSession(t, c, 2)

	fresh := NewController(auth.StaticIdentity{ID: "alice"}, snapshot.NewCodec(store))
	fresh.DismissRecovery(context.Background())

	if store.Len() != 0 {
		t.Error("expected snapshot to be cleared")
	}
	if fresh.CheckRecoverable(context.Background()) {
		t.Error("expected nothing left to recover")
	}
}

func TestStart_ReplacesPriorSession(t *testing.T) {
	c, _, _ := newTestController("alice")
	startSession(t, c, 2)
	firstID := c.Session().ID

	startSession(t, c, 3)

	if c.Session().ID == firstID {
		t.Error("expected a new session id")
	}
	if len(c.Session().Questions) != 3 {
		t.Errorf("expected 3 questions, got %d", len(c.Session().Questions))
	}
}

func TestConcurrentOperationsKeepSessionConsistent(t *testing.T) {
	c, _, _ := newTestController("alice")
	startSession(t, c, 20)

	var wg sync.WaitGroup
	for _, op := range []func(){
		func() {
			c.RecordAnswer(context.Background(), 0, models.AnswerOutcome{IsCorrect: true, XPEarned: 10, CorrectOption: 0})
		},
		func() { c.NextQuestion(context.Background()) },
		func() { c.Session() },
		func() { c.CurrentQuestion() },
	} {
		wg.Add(1)
		go func(op func()) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				op()
			}
		}(op)
	}
	wg.Wait()

	sess := c.Session()
	if sess.Stats.Remaining < 0 {
		t.Errorf("remaining went negative: %+v", sess.Stats)
	}
	checkCountInvariant(t, c)
}

func TestAnsweredInvariant(t *testing.T) {
	c, clock, _ := newTestController("alice")
	startSession(t, c, 3)
	clock.Advance(time.Second)
	c.RecordAnswer(context.Background(), 0, models.AnswerOutcome{IsCorrect: true, XPEarned: 10, CorrectOption: 0})
	c.NextQuestion(context.Background())

	for i, q := range c.Session().Questions {
		answered := q.AnsweredAt != nil
		hasSelection := q.SelectedOption != nil && q.IsCorrect != nil
		if answered != hasSelection {
			t.Errorf("question %d: answeredAt set %v but selection set %v", i, answered, hasSelection)
		}
	}
}
