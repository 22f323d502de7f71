package synthesis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/amityadav/refiner/internal/ai"
	"github.com/amityadav/refiner/internal/errs"
	"github.com/amityadav/refiner/internal/extractor"
	"github.com/amityadav/refiner/internal/retry"
)

type scriptedGenerator struct {
	replies []string
	errs    []error
	prompts []string
	cfgs    []ai.GenerationConfig
}

func (g *scriptedGenerator) Name() string { return "scripted" }

func (g *scriptedGenerator) Generate(ctx context.Context, prompt string, cfg ai.GenerationConfig) (string, error) {
	i := len(g.prompts)
	g.prompts = append(g.prompts, prompt)
	g.cfgs = append(g.cfgs, cfg)
	var err error
	if i < len(g.errs) {
		err = g.errs[i]
	}
	reply := ""
	if i < len(g.replies) {
		reply = g.replies[i]
	}
	return reply, err
}

type instantTimer struct{ c chan time.Time }

func (t *instantTimer) Start(time.Duration) {
	t.c = make(chan time.Time, 1)
	t.c <- time.Now()
}
func (t *instantTimer) Stop()               {}
func (t *instantTimer) C() <-chan time.Time { return t.c }

func testPolicy() retry.Policy {
	return retry.Policy{Name: "synthesis", MaxAttempts: 3, Base: 3 * time.Second, Timer: &instantTimer{}}
}

func TestBuildPrompt(t *testing.T) {
	original := strings.Repeat("o", 3500)
	refs := []extractor.Content{
		{Title: "Ref One", Body: strings.Repeat("a", 4000)},
		{Title: "Ref Two", Body: "short reference body"},
	}
	prompt := BuildPrompt("Chatbots in Retail", original, refs)

	for _, want := range []string{
		"optimize and rewrite",
		"## Original Article: Chatbots in Retail",
		"### Reference Article 1: Ref One",
		"### Reference Article 2: Ref Two",
		"Return ONLY the rewritten article",
		"## Original Article",
		"###",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(prompt, strings.Repeat("o", 3001)) {
		t.Error("original body was not truncated to 3000 characters")
	}
	if !strings.Contains(prompt, strings.Repeat("o", 3000)) {
		t.Error("original body should keep 3000 characters")
	}
	if strings.Contains(prompt, strings.Repeat("a", 3001)) {
		t.Error("reference body was not truncated to 3000 characters")
	}
	if strings.Contains(prompt, "%!") {
		t.Errorf("prompt has formatting errors: %s", prompt)
	}
}

func TestSynthesizeFixedParameters(t *testing.T) {
	gen := &scriptedGenerator{replies: []string{"## Rewritten"}}
	got, err := New(gen, testPolicy()).Synthesize(context.Background(), "X", "body", []extractor.Content{{Title: "R", Body: "ref"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "## Rewritten" {
		t.Errorf("unexpected text %q", got)
	}
	if len(gen.cfgs) != 1 || gen.cfgs[0].Temperature != 0.7 || gen.cfgs[0].MaxOutputTokens != 8192 {
		t.Errorf("unexpected generation config: %+v", gen.cfgs)
	}
}

func TestSynthesizeRetriesEmptyResult(t *testing.T) {
	gen := &scriptedGenerator{replies: []string{"", "  ", "final"}}
	got, err := New(gen, testPolicy()).Synthesize(context.Background(), "X", "body", nil)
	if err != nil || got != "final" {
		t.Fatalf("expected success on third attempt, got %q, %v", got, err)
	}
	if len(gen.prompts) != 3 {
		t.Errorf("expected 3 attempts, got %d", len(gen.prompts))
	}
}

func TestSynthesizeExhaustsRetries(t *testing.T) {
	gen := &scriptedGenerator{}
	_, err := New(gen, testPolicy()).Synthesize(context.Background(), "X", "body", nil)
	if !errors.Is(err, errs.ErrEmptyResult) {
		t.Errorf("expected empty result error, got %v", err)
	}
	if len(gen.prompts) != 3 {
		t.Errorf("expected 3 attempts, got %d", len(gen.prompts))
	}
}

func TestSynthesizeProviderErrorIsFinal(t *testing.T) {
	gen := &scriptedGenerator{errs: []error{errs.FromStatus("scripted", 403, "forbidden")}}
	_, err := New(gen, testPolicy()).Synthesize(context.Background(), "X", "body", nil)
	if !errors.Is(err, errs.ErrProvider) || len(gen.prompts) != 1 {
		t.Errorf("expected one failed attempt, got %d and %v", len(gen.prompts), err)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("héllo", 2); got != "hé" {
		t.Errorf("got %q", got)
	}
	if got := Truncate("abc", 10); got != "abc" {
		t.Errorf("got %q", got)
	}
}
