package pipelines

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/prepvoice/prepvoice/internal/models"
)

type fakeTextGen struct {
	out string
	err error

	mu      sync.Mutex
	prompts []string
}

func (f *fakeTextGen) GenerateText(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	return f.out, f.err
}

type fakeInterviewRepo struct {
	mu      sync.Mutex
	created []*models.Interview
	err     error
}

func (f *fakeInterviewRepo) Create(ctx context.Context, iv *models.Interview) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.created = append(f.created, iv)
	return "iv-generated", nil
}

func (f *fakeInterviewRepo) GetByID(ctx context.Context, id string) (*models.Interview, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeInterviewRepo) ListByUser(ctx context.Context, userID string) ([]models.Interview, error) {
	return nil, nil
}

func (f *fakeInterviewRepo) ListLatestFinalized(ctx context.Context, excludeUserID string, limit int) ([]models.Interview, error) {
	return nil, nil
}

type fakeFeedbackRepo struct {
	mu      sync.Mutex
	created []*models.Feedback
	set     map[string]*models.Feedback
	err     error
}

func (f *fakeFeedbackRepo) Create(ctx context.Context, fb *models.Feedback) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.created = append(f.created, fb)
	return "fb-generated", nil
}

func (f *fakeFeedbackRepo) Set(ctx context.Context, id string, fb *models.Feedback) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.set == nil {
		f.set = map[string]*models.Feedback{}
	}
	f.set[id] = fb
	return nil
}

func (f *fakeFeedbackRepo) GetByID(ctx context.Context, id string) (*models.Feedback, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeFeedbackRepo) GetByInterviewAndUser(ctx context.Context, interviewID, userID string) (*models.Feedback, error) {
	return nil, errors.New("not implemented")
}

type fakeTurnRepo struct {
	mu       sync.Mutex
	inserted []models.TranscriptTurn
	err      error
}

func (f *fakeTurnRepo) InsertTurns(ctx context.Context, turns []models.TranscriptTurn) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.inserted = append(f.inserted, turns...)
	return nil
}

func (f *fakeTurnRepo) ListByInterview(ctx context.Context, interviewID string) ([]models.TranscriptTurn, error) {
	return nil, nil
}

type fakeStash struct {
	mu    sync.Mutex
	items map[string]*models.Scorecard
	err   error
}

func (f *fakeStash) Put(ctx context.Context, sessionID string, sc *models.Scorecard) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.items == nil {
		f.items = map[string]*models.Scorecard{}
	}
	f.items[sessionID] = sc
	return nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newScorecardFixture(gen *fakeTextGen) (*ScorecardPipeline, *fakeInterviewRepo, *fakeFeedbackRepo, *fakeTurnRepo, *fakeStash) {
	ivs := &fakeInterviewRepo{}
	fbs := &fakeFeedbackRepo{}
	turns := &fakeTurnRepo{}
	stash := &fakeStash{}
	p := NewScorecardPipeline(gen, ivs, fbs, turns, stash, quietLogger())
	return p, ivs, fbs, turns, stash
}

var sampleTranscript = []models.Utterance{
	{Role: models.RoleInterviewer, Text: "What role are you preparing for?"},
	{Role: models.RoleCandidate, Text: "Senior backend engineer, mostly Go and Postgres."},
	{Role: models.RoleInterviewer, Text: "Got it. Anything else?"},
}

const sampleScorecardJSON = `{
	"summary": "Solid preparation session.",
	"jobRole": "Backend Engineer",
	"experienceLevel": "Senior",
	"techStack": "Go, Postgres; Redis",
	"interviewType": "Technical",
	"completenessScore": 80,
	"recommendations": ["Practice system design questions"]
}`

func TestScorecardRunParsesFencedJSON(t *testing.T) {
	t.Parallel()

	gen := &fakeTextGen{out: "```json\n" + sampleScorecardJSON + "\n```"}
	p, ivs, fbs, turns, stash := newScorecardFixture(gen)

	sc := p.Run(context.Background(), "sess-1", "user-1", "Dana", sampleTranscript)

	if sc == nil || sc.CompletenessScore != 80 || sc.JobRole != "Backend Engineer" {
		t.Fatalf("scorecard = %+v", sc)
	}

	if len(ivs.created) != 1 {
		t.Fatalf("interviews created = %d", len(ivs.created))
	}
	iv := ivs.created[0]
	if iv.Type != models.InterviewTypePreparation || !iv.Finalized {
		t.Fatalf("interview = %+v", iv)
	}
	wantStack := []string{"Go", "Postgres", "Redis"}
	if len(iv.TechStack) != len(wantStack) {
		t.Fatalf("techstack = %v", iv.TechStack)
	}
	for i := range wantStack {
		if iv.TechStack[i] != wantStack[i] {
			t.Fatalf("techstack = %v, want %v", iv.TechStack, wantStack)
		}
	}

	if len(fbs.created) != 1 {
		t.Fatalf("feedback created = %d", len(fbs.created))
	}
	fb := fbs.created[0]
	if fb.InterviewID != "iv-generated" || fb.TotalScore != 80 {
		t.Fatalf("feedback = %+v", fb)
	}
	if len(fb.CategoryScores) != 1 || fb.CategoryScores[0].Name != models.CategoryScoreInformationCompleteness {
		t.Fatalf("category scores = %+v", fb.CategoryScores)
	}

	if len(turns.inserted) != len(sampleTranscript) {
		t.Fatalf("turns = %d, want %d", len(turns.inserted), len(sampleTranscript))
	}
	for i, turn := range turns.inserted {
		if turn.Seq != i || turn.Text != sampleTranscript[i].Text {
			t.Fatalf("turn %d = %+v", i, turn)
		}
	}

	if stash.items["sess-1"] != sc {
		t.Fatal("scorecard must be stashed under the session id")
	}
}

func TestScorecardRunEmptyTranscript(t *testing.T) {
	t.Parallel()

	gen := &fakeTextGen{out: "should never be called"}
	p, ivs, _, _, stash := newScorecardFixture(gen)

	sc := p.Run(context.Background(), "sess-2", "user-1", "Dana", nil)

	if len(gen.prompts) != 0 {
		t.Fatal("generation must be skipped for an empty call")
	}
	if sc.Summary != "Call ended without any conversation recorded." {
		t.Fatalf("summary = %q", sc.Summary)
	}
	if sc.CompletenessScore != 0 || sc.JobRole != "Not collected" {
		t.Fatalf("scorecard = %+v", sc)
	}

	// The degraded scorecard is still persisted and stashed.
	if len(ivs.created) != 1 {
		t.Fatalf("interviews created = %d", len(ivs.created))
	}
	if ivs.created[0].Role != "Not collected" {
		t.Fatalf("interview role = %q", ivs.created[0].Role)
	}
	if stash.items["sess-2"] != sc {
		t.Fatal("scorecard must be stashed")
	}
}

func TestScorecardRunGenerationFailure(t *testing.T) {
	t.Parallel()

	gen := &fakeTextGen{err: errors.New("model unavailable")}
	p, ivs, fbs, _, stash := newScorecardFixture(gen)

	sc := p.Run(context.Background(), "sess-3", "user-1", "Dana", sampleTranscript)

	if sc.Summary != "Interview preparation session completed. AI analysis unavailable." {
		t.Fatalf("summary = %q", sc.Summary)
	}
	if len(ivs.created) != 0 || len(fbs.created) != 0 {
		t.Fatal("nothing may be persisted when generation fails")
	}
	if stash.items["sess-3"] != sc {
		t.Fatal("the fallback scorecard is still stashed")
	}
}

func TestScorecardRunUnparseableOutput(t *testing.T) {
	t.Parallel()

	raw := "The candidate seems well prepared overall."
	gen := &fakeTextGen{out: raw}
	p, ivs, _, _, _ := newScorecardFixture(gen)

	sc := p.Run(context.Background(), "sess-4", "user-1", "Dana", sampleTranscript)

	if sc.Summary != raw {
		t.Fatalf("summary = %q, want raw model output", sc.Summary)
	}
	if sc.CompletenessScore != 0 {
		t.Fatalf("score = %d", sc.CompletenessScore)
	}
	if len(sc.Recommendations) != 1 || sc.Recommendations[0] != "Failed to parse JSON output" {
		t.Fatalf("recommendations = %v", sc.Recommendations)
	}
	// Parse failure is still a success: the session produced a scorecard.
	if len(ivs.created) != 1 {
		t.Fatalf("interviews created = %d", len(ivs.created))
	}
}

func TestScorecardRunSurvivesPersistenceFailures(t *testing.T) {
	t.Parallel()

	gen := &fakeTextGen{out: sampleScorecardJSON}
	ivs := &fakeInterviewRepo{err: errors.New("mongo down")}
	fbs := &fakeFeedbackRepo{}
	turns := &fakeTurnRepo{err: errors.New("postgres down")}
	stash := &fakeStash{err: errors.New("redis down")}
	p := NewScorecardPipeline(gen, ivs, fbs, turns, stash, quietLogger())

	sc := p.Run(context.Background(), "sess-5", "user-1", "Dana", sampleTranscript)
	if sc == nil || sc.CompletenessScore != 80 {
		t.Fatalf("scorecard = %+v", sc)
	}
}

func TestGenerateFromText(t *testing.T) {
	t.Parallel()

	t.Run("empty transcript", func(t *testing.T) {
		t.Parallel()
		p, _, _, _, _ := newScorecardFixture(&fakeTextGen{})
		if _, err := p.GenerateFromText(context.Background(), "   \n"); !errors.Is(err, ErrEmptyTranscript) {
			t.Fatalf("err = %v", err)
		}
	})

	t.Run("generation failure propagates", func(t *testing.T) {
		t.Parallel()
		p, _, _, _, _ := newScorecardFixture(&fakeTextGen{err: errors.New("quota")})
		if _, err := p.GenerateFromText(context.Background(), "interviewer: hi"); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		gen := &fakeTextGen{out: "```json" + sampleScorecardJSON + "```"}
		p, ivs, _, _, _ := newScorecardFixture(gen)

		sc, err := p.GenerateFromText(context.Background(), "interviewer: hi\ncandidate: hello")
		if err != nil {
			t.Fatalf("GenerateFromText: %v", err)
		}
		if sc.CompletenessScore != 80 {
			t.Fatalf("scorecard = %+v", sc)
		}
		if !strings.Contains(gen.prompts[0], "interviewer: hi") {
			t.Fatalf("prompt = %q", gen.prompts[0])
		}
		// The proxy endpoint never persists.
		if len(ivs.created) != 0 {
			t.Fatal("proxy generation must not persist")
		}
	})
}

func TestSplitTechStack(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want []string
	}{
		{"Go, Postgres; Redis", []string{"Go", "Postgres", "Redis"}},
		{"React and Node.js", []string{"React and Node.js"}},
		{"  ", []string{}},
		{",,;", []string{}},
	}
	for _, tc := range cases {
		got := splitTechStack(tc.in)
		if len(got) != len(tc.want) {
			t.Fatalf("splitTechStack(%q) = %v, want %v", tc.in, got, tc.want)
		}
		for i := range tc.want {
			if got[i] != tc.want[i] {
				t.Fatalf("splitTechStack(%q) = %v, want %v", tc.in, got, tc.want)
			}
		}
	}
}
