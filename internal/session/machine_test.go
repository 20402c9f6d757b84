package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/quiznova/tui/internal/client"
)

type emitted struct {
	event   string
	payload any
}

type fakeSender struct {
	mu     sync.Mutex
	events []emitted
	err    error
}

func (s *fakeSender) Emit(event string, payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, emitted{event, payload})
	return nil
}

func (s *fakeSender) calls(event string) []emitted {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []emitted
	for _, e := range s.events {
		if e.event == event {
			out = append(out, e)
		}
	}
	return out
}

type recordSink struct {
	mu      sync.Mutex
	notices []Notice
}

func (s *recordSink) Notify(n Notice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, n)
}

func (s *recordSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notices)
}

func (s *recordSink) last() Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.notices) == 0 {
		return Notice{}
	}
	return s.notices[len(s.notices)-1]
}

// waitFor polls until the predicate holds so tests never hang on timers.
func waitFor(t *testing.T, within time.Duration, pred func() bool) {
	t.Helper()
	deadline := time.Now().Add(within)
	for time.Now().Before(deadline) {
		if pred() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", within)
}

type memStore struct {
	mu     sync.Mutex
	ident  Identity
	ok     bool
	saves  int
	clears int
}

func (s *memStore) Load() (Identity, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ident, s.ok, nil
}

func (s *memStore) Save(ident Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ident = ident
	s.ok = true
	s.saves++
	return nil
}

func (s *memStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ident = Identity{}
	s.ok = false
	s.clears++
	return nil
}

func (s *memStore) cleared() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clears
}

func newTestMachine(t *testing.T, store IdentityStore) (*Machine, *fakeSender, *recordSink) {
	t.Helper()
	sender := &fakeSender{}
	sink := &recordSink{}
	m := New(Config{
		Sender:       sender,
		Sink:         sink,
		Store:        store,
		RejoinWait:   50 * time.Millisecond,
		TickInterval: 20 * time.Millisecond,
	})
	return m, sender, sink
}

func idleMachine(t *testing.T, store IdentityStore) (*Machine, *fakeSender, *recordSink) {
	t.Helper()
	m, sender, sink := newTestMachine(t, store)
	m.Connected()
	if got := m.Snapshot().Phase; got != PhaseIdle {
		t.Fatalf("after connect: phase = %v, want idle", got)
	}
	return m, sender, sink
}

func TestCreateGameFlow(t *testing.T) {
	st := &memStore{}
	m, sender, _ := idleMachine(t, st)

	if err := m.CreateGame("Ann"); err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	if calls := sender.calls(client.EventCreateGame); len(calls) != 1 {
		t.Fatalf("create_game sends = %d, want 1", len(calls))
	}
	if got := m.Snapshot().Phase; got != PhaseIdle {
		t.Fatalf("before ack: phase = %v, want idle", got)
	}

	m.Apply(client.GameCreated{GamePin: "7742"})

	snap := m.Snapshot()
	if snap.Phase != PhaseLobby {
		t.Fatalf("after game_created: phase = %v, want lobby", snap.Phase)
	}
	if snap.Role != RoleHost || snap.GamePin != "7742" || snap.PlayerName != "Ann" {
		t.Fatalf("after game_created: got %+v", snap)
	}

	ident, ok, _ := st.Load()
	if !ok || !ident.IsHost || ident.GamePin != "7742" || ident.PlayerName != "Ann" {
		t.Fatalf("persisted identity = %+v (ok=%v)", ident, ok)
	}
}

func TestCreateGameEmptyNameRejected(t *testing.T) {
	m, sender, sink := idleMachine(t, nil)
	before := sink.count()

	err := m.CreateGame("")
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("err = %v, want ErrRejected", err)
	}
	if len(sender.calls(client.EventCreateGame)) != 0 {
		t.Fatal("empty name must not reach the network")
	}
	if sink.count() != before+1 {
		t.Fatalf("rejected intent notices = %d, want 1", sink.count()-before)
	}
	if sink.last().Err == "" {
		t.Fatal("rejection notice should carry a message")
	}
}

func TestJoinErrorKeepsIdle(t *testing.T) {
	m, sender, sink := idleMachine(t, nil)

	if err := m.JoinGame("Bea", "1234"); err != nil {
		t.Fatalf("JoinGame: %v", err)
	}
	if len(sender.calls(client.EventJoinGame)) != 1 {
		t.Fatal("expected one join_game send")
	}

	m.Apply(client.JoinError{Message: "Name already taken"})

	if got := m.Snapshot().Phase; got != PhaseIdle {
		t.Fatalf("after join_error: phase = %v, want idle (retryable)", got)
	}
	if sink.last().Err != "Name already taken" {
		t.Fatalf("join_error notice = %q", sink.last().Err)
	}

	// The user may retry without any reset.
	if err := m.JoinGame("Bea", "1234"); err != nil {
		t.Fatalf("retry JoinGame: %v", err)
	}
}

func TestRosterIsWholesaleReplacement(t *testing.T) {
	m, _, _ := idleMachine(t, nil)
	m.Apply(client.JoinSuccess{GamePin: "1234"})

	m.Apply(client.PlayerJoined{Players: []client.Player{
		{Name: "Ann", IsHost: true},
		{Name: "Bea"},
	}})
	m.Apply(client.PlayerJoined{Players: []client.Player{
		{Name: "Ann", IsHost: true},
		{Name: "Bea"},
		{Name: "Cal"},
	}})
	m.Apply(client.PlayerLeft{Players: []client.Player{
		{Name: "Ann", IsHost: true},
	}})

	roster := m.Snapshot().Roster
	if len(roster) != 1 || roster[0].Name != "Ann" {
		t.Fatalf("roster = %+v, want exactly the last payload", roster)
	}
}

func playingMachine(t *testing.T, st IdentityStore) (*Machine, *fakeSender, *recordSink) {
	t.Helper()
	m, sender, sink := idleMachine(t, st)
	if err := m.JoinGame("Alice", "AB12"); err != nil {
		t.Fatalf("JoinGame: %v", err)
	}
	m.Apply(client.JoinSuccess{GamePin: "AB12"})
	m.Apply(client.GameStarted{})
	return m, sender, sink
}

func TestDuplicateNewQuestionDoesNotRestartCountdown(t *testing.T) {
	m, _, sink := playingMachine(t, nil)

	q := client.NewQuestion{
		QuestionNumber: 1,
		TotalQuestions: 2,
		Question:       "2+2?",
		Options:        []string{"3", "4", "5", "6"},
		TimeLimit:      2,
	}
	m.Apply(q)

	// Let the countdown run out so no ticks are in flight.
	waitFor(t, time.Second, func() bool { return m.Snapshot().Remaining == 0 })
	time.Sleep(50 * time.Millisecond)
	before := sink.count()

	// Re-delivery of the same question index: no notice, no reset.
	m.Apply(q)
	if sink.count() != before {
		t.Fatal("duplicate new_question must not notify the sink")
	}
	if got := m.Snapshot().Remaining; got != 0 {
		t.Fatalf("countdown restarted: remaining = %d", got)
	}

	// A different index does restart.
	q2 := q
	q2.QuestionNumber = 2
	m.Apply(q2)
	snap := m.Snapshot()
	if snap.Question == nil || snap.Question.Number != 2 {
		t.Fatalf("after question 2: %+v", snap)
	}
	if snap.Phase != PhaseActiveQuestion || snap.Answered {
		t.Fatalf("question 2 should reopen submission: %+v", snap)
	}
}

func TestSubmissionExclusivity(t *testing.T) {
	m, sender, _ := playingMachine(t, nil)
	m.Apply(client.NewQuestion{
		QuestionNumber: 1, TotalQuestions: 1,
		Question: "2+2?", Options: []string{"3", "4", "5", "6"}, TimeLimit: 60,
	})

	if err := m.SubmitAnswer(1); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	for i := 0; i < 5; i++ {
		m.SubmitAnswer(1)
	}

	calls := sender.calls(client.EventSubmitAnswer)
	if len(calls) != 1 {
		t.Fatalf("submit_answer sends = %d, want 1", len(calls))
	}
	if p := calls[0].payload.(client.SubmitAnswerPayload); p.Answer != 1 {
		t.Fatalf("submitted answer = %d, want 1", p.Answer)
	}
	if got := m.Snapshot().Phase; got != PhaseAnswerRevealed {
		t.Fatalf("after submit: phase = %v, want revealed", got)
	}
}

func TestSubmitAfterCountdownRejectedLocally(t *testing.T) {
	m, sender, _ := playingMachine(t, nil)
	m.Apply(client.NewQuestion{
		QuestionNumber: 1, TotalQuestions: 1,
		Question: "2+2?", Options: []string{"3", "4", "5", "6"}, TimeLimit: 1,
	})

	waitFor(t, time.Second, func() bool {
		s := m.Snapshot()
		return s.Remaining == 0 && s.Phase == PhaseAnswerRevealed
	})

	if err := m.SubmitAnswer(1); !errors.Is(err, ErrRejected) {
		t.Fatalf("late submit err = %v, want ErrRejected", err)
	}
	if len(sender.calls(client.EventSubmitAnswer)) != 0 {
		t.Fatal("late answer must not be sent even if the server window is open")
	}
}

func TestOutOfRangeAnswerRejected(t *testing.T) {
	m, sender, _ := playingMachine(t, nil)
	m.Apply(client.NewQuestion{
		QuestionNumber: 1, TotalQuestions: 1,
		Question: "2+2?", Options: []string{"3", "4", "5", "6"}, TimeLimit: 60,
	})

	if err := m.SubmitAnswer(4); !errors.Is(err, ErrRejected) {
		t.Fatalf("err = %v, want ErrRejected", err)
	}
	if err := m.SubmitAnswer(-1); !errors.Is(err, ErrRejected) {
		t.Fatalf("err = %v, want ErrRejected", err)
	}
	if len(sender.calls(client.EventSubmitAnswer)) != 0 {
		t.Fatal("invalid answers must not be sent")
	}
}

func TestStartGameFromNonHostRejected(t *testing.T) {
	m, sender, _ := idleMachine(t, nil)
	m.Apply(client.JoinSuccess{GamePin: "1234"})

	if err := m.StartGame(); !errors.Is(err, ErrRejected) {
		t.Fatalf("err = %v, want ErrRejected", err)
	}
	if len(sender.calls(client.EventStartGame)) != 0 {
		t.Fatal("non-host start_game must not be sent")
	}
}

func TestAddQuestionValidation(t *testing.T) {
	st := &memStore{}
	m, sender, _ := idleMachine(t, st)
	if err := m.CreateGame("Host"); err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	m.Apply(client.GameCreated{GamePin: "9999"})

	bad := []client.AddQuestionPayload{
		{Question: "", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: 0, TimeLimit: 10},
		{Question: "q", Options: []string{"a", "b", "c"}, CorrectAnswer: 0, TimeLimit: 10},
		{Question: "q", Options: []string{"a", "", "c", "d"}, CorrectAnswer: 0, TimeLimit: 10},
		{Question: "q", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: 4, TimeLimit: 10},
		{Question: "q", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: 0, TimeLimit: 0},
	}
	for i, q := range bad {
		if err := m.AddQuestion(q); !errors.Is(err, ErrRejected) {
			t.Errorf("bad question %d: err = %v, want ErrRejected", i, err)
		}
	}
	if len(sender.calls(client.EventAddQuestion)) != 0 {
		t.Fatal("malformed questions must not be sent")
	}

	good := client.AddQuestionPayload{
		Question: "2+2?", Options: []string{"3", "4", "5", "6"},
		CorrectAnswer: 1, TimeLimit: 10,
	}
	if err := m.AddQuestion(good); err != nil {
		t.Fatalf("AddQuestion: %v", err)
	}
	if len(sender.calls(client.EventAddQuestion)) != 1 {
		t.Fatal("expected one add_question send")
	}
}

func TestRejoinSendsStoredIdentity(t *testing.T) {
	st := &memStore{
		ident: Identity{PlayerName: "Alice", IsHost: false, GamePin: "AB12"},
		ok:    true,
	}
	m, sender, _ := newTestMachine(t, st)

	m.Connected()

	calls := sender.calls(client.EventRejoinGame)
	if len(calls) != 1 {
		t.Fatalf("rejoin_game sends = %d, want 1", len(calls))
	}
	p := calls[0].payload.(client.RejoinGamePayload)
	want := client.RejoinGamePayload{GamePin: "AB12", PlayerName: "Alice", IsHost: false}
	if p != want {
		t.Fatalf("rejoin payload = %+v, want %+v", p, want)
	}
	if got := m.Snapshot().Phase; got != PhaseRejoining {
		t.Fatalf("phase = %v, want rejoining", got)
	}
}

func TestRejoinResumesLobbyOnRosterBroadcast(t *testing.T) {
	st := &memStore{
		ident: Identity{PlayerName: "Alice", GamePin: "AB12"},
		ok:    true,
	}
	m, _, _ := newTestMachine(t, st)
	m.Connected()

	m.Apply(client.PlayerJoined{Players: []client.Player{{Name: "Host", IsHost: true}, {Name: "Alice"}}})

	snap := m.Snapshot()
	if snap.Phase != PhaseLobby {
		t.Fatalf("phase = %v, want lobby", snap.Phase)
	}
	if snap.PlayerName != "Alice" || snap.GamePin != "AB12" {
		t.Fatalf("restored identity = %+v", snap)
	}
}

func TestRejoinResumesQuestionMidGame(t *testing.T) {
	st := &memStore{
		ident: Identity{PlayerName: "Alice", GamePin: "AB12"},
		ok:    true,
	}
	m, _, _ := newTestMachine(t, st)
	m.Connected()

	m.Apply(client.NewQuestion{
		QuestionNumber: 3, TotalQuestions: 5,
		Question: "capital of France?", Options: []string{"Paris", "Lyon", "Nice", "Metz"},
		TimeLimit: 30,
	})

	snap := m.Snapshot()
	if snap.Phase != PhaseActiveQuestion {
		t.Fatalf("phase = %v, want question", snap.Phase)
	}
	if snap.Question == nil || snap.Question.Number != 3 {
		t.Fatalf("question = %+v", snap.Question)
	}
}

func TestRejoinTimeoutSurfacesDisconnect(t *testing.T) {
	st := &memStore{
		ident: Identity{PlayerName: "Alice", GamePin: "AB12"},
		ok:    true,
	}
	m, _, sink := newTestMachine(t, st)
	m.Connected()

	waitFor(t, time.Second, func() bool { return m.Snapshot().Phase == PhaseDisconnected })
	if sink.last().Err == "" {
		t.Fatal("rejoin timeout should carry a user-visible message")
	}
	if st.cleared() == 0 {
		t.Fatal("stored identity should be dropped after a failed rejoin")
	}
}

func TestRejoinErrorResetsToIdle(t *testing.T) {
	st := &memStore{
		ident: Identity{PlayerName: "Alice", GamePin: "AB12"},
		ok:    true,
	}
	m, _, sink := newTestMachine(t, st)
	m.Connected()

	m.Apply(client.RejoinError{Message: "Game not found"})

	if got := m.Snapshot().Phase; got != PhaseIdle {
		t.Fatalf("phase = %v, want idle", got)
	}
	if sink.last().Err != "Game not found" {
		t.Fatalf("notice err = %q", sink.last().Err)
	}
	if st.cleared() == 0 {
		t.Fatal("stale identity should be cleared")
	}
}

func TestFinishPreemptsCountdown(t *testing.T) {
	m, _, sink := playingMachine(t, nil)
	m.Apply(client.NewQuestion{
		QuestionNumber: 1, TotalQuestions: 1,
		Question: "2+2?", Options: []string{"3", "4", "5", "6"}, TimeLimit: 60,
	})

	m.Apply(client.GameFinished{FinalScores: map[string]int{"Alice": 100}})

	snap := m.Snapshot()
	if snap.Phase != PhaseFinished {
		t.Fatalf("phase = %v, want finished", snap.Phase)
	}
	if snap.Question != nil {
		t.Fatal("activeQuestion should be cleared on finish")
	}

	// No further tick notifications after the finish notification. The
	// brief pause lets any in-flight tick land before counting.
	time.Sleep(50 * time.Millisecond)
	count := sink.count()
	time.Sleep(100 * time.Millisecond)
	if sink.count() != count {
		t.Fatalf("timer kept ticking after finish: %d extra notices", sink.count()-count)
	}
}

func TestHostDisconnectedTearsDownSession(t *testing.T) {
	st := &memStore{}
	m, _, sink := idleMachine(t, st)
	if err := m.JoinGame("Alice", "AB12"); err != nil {
		t.Fatalf("JoinGame: %v", err)
	}
	m.Apply(client.JoinSuccess{GamePin: "AB12"})

	m.Apply(client.HostDisconnected{})

	snap := m.Snapshot()
	if snap.Phase != PhaseDisconnected {
		t.Fatalf("phase = %v, want disconnected", snap.Phase)
	}
	if snap.GamePin != "" || snap.PlayerName != "" {
		t.Fatalf("session not cleared: %+v", snap)
	}
	if sink.last().Err == "" {
		t.Fatal("host disconnect should carry a message")
	}
	if st.cleared() == 0 {
		t.Fatal("stored identity should be cleared")
	}
}

func TestTransportDropCancelsCountdownKeepsIdentity(t *testing.T) {
	st := &memStore{}
	m, _, sink := playingMachine(t, st)
	m.Apply(client.NewQuestion{
		QuestionNumber: 1, TotalQuestions: 1,
		Question: "2+2?", Options: []string{"3", "4", "5", "6"}, TimeLimit: 60,
	})

	m.Disconnected()

	if got := m.Snapshot().Phase; got != PhaseDisconnected {
		t.Fatalf("phase = %v, want disconnected", got)
	}
	time.Sleep(50 * time.Millisecond)
	count := sink.count()
	time.Sleep(100 * time.Millisecond)
	if sink.count() != count {
		t.Fatal("countdown should stop while disconnected")
	}

	// The in-memory identity survives for the next rejoin.
	snap := m.Snapshot()
	if snap.GamePin != "AB12" || snap.PlayerName != "Alice" {
		t.Fatalf("identity lost on transport drop: %+v", snap)
	}
}

func TestEndToEndHostRound(t *testing.T) {
	st := &memStore{}
	m, sender, _ := idleMachine(t, st)

	if err := m.CreateGame("Alice"); err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	m.Apply(client.GameCreated{GamePin: "7742"})

	snap := m.Snapshot()
	if snap.Phase != PhaseLobby || snap.Role != RoleHost {
		t.Fatalf("after game_created: %+v", snap)
	}

	q := client.AddQuestionPayload{
		Question: "2+2?", Options: []string{"3", "4", "5", "6"},
		CorrectAnswer: 1, TimeLimit: 10,
	}
	if err := m.AddQuestion(q); err != nil {
		t.Fatalf("AddQuestion: %v", err)
	}
	m.Apply(client.QuestionAdded{QuestionCount: 1})
	if got := m.Snapshot().QuestionCount; got != 1 {
		t.Fatalf("question count = %d, want 1", got)
	}

	if err := m.StartGame(); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	if len(sender.calls(client.EventStartGame)) != 1 {
		t.Fatal("expected one start_game send")
	}

	m.Apply(client.GameStarted{})
	if got := m.Snapshot().Phase; got != PhaseActiveQuestion {
		t.Fatalf("after game_started: phase = %v, want question (pending)", got)
	}

	m.Apply(client.NewQuestion{
		QuestionNumber: 1, TotalQuestions: 1,
		Question: "2+2?", Options: []string{"3", "4", "5", "6"}, TimeLimit: 10,
	})
	if err := m.SubmitAnswer(1); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if calls := sender.calls(client.EventSubmitAnswer); len(calls) != 1 {
		t.Fatalf("submit_answer sends = %d, want 1", len(calls))
	}

	m.Apply(client.AnswerReceived{PlayerName: "Alice", IsCorrect: true, Score: 100})
	snap = m.Snapshot()
	if snap.Feedback == nil || !snap.Feedback.IsCorrect || snap.Feedback.Score != 100 {
		t.Fatalf("feedback = %+v", snap.Feedback)
	}

	m.Apply(client.GameFinished{FinalScores: map[string]int{"Alice": 100}})
	snap = m.Snapshot()
	if snap.Phase != PhaseFinished {
		t.Fatalf("phase = %v, want finished", snap.Phase)
	}
	if snap.FinalScores["Alice"] != 100 {
		t.Fatalf("final scores = %+v", snap.FinalScores)
	}
}
