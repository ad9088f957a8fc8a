package acquisition

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"pymigrate/internal/knowledge"
	"pymigrate/internal/logging"
)

type fakeFetcher struct {
	docs []Document
	err  error
	n    int
}

func (f *fakeFetcher) Fetch(ctx context.Context, library, from, to string) ([]Document, error) {
	f.n++
	return f.docs, f.err
}

type fakeOracle struct {
	byURL map[string][]Candidate
	err   error
}

func (f *fakeOracle) Extract(ctx context.Context, library, from, to string, docs []Document) ([]Candidate, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []Candidate
	for _, d := range docs {
		out = append(out, f.byURL[d.URL]...)
	}
	return out, nil
}

func newTestPipeline(t *testing.T, fetcher SourceFetcher, oracle ExtractionOracle) *Pipeline {
	t.Helper()
	dir := t.TempDir()
	cache, err := OpenCache(filepath.Join(dir, "specs"))
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	negative, err := OpenNegativeCache(filepath.Join(dir, "negative.db"))
	if err != nil {
		t.Fatalf("OpenNegativeCache: %v", err)
	}
	t.Cleanup(func() { negative.Close() })
	docs, err := OpenDocumentCache(filepath.Join(dir, "docs"))
	if err != nil {
		t.Fatalf("OpenDocumentCache: %v", err)
	}
	return New(fetcher, oracle, cache, negative, docs, logging.Nop())
}

func TestAcquireMergesAndPromotesConfidenceAcrossSources(t *testing.T) {
	change := knowledge.BreakingChange{ID: "bc1", Kind: knowledge.KindMethodRename, Match: knowledge.Match{Symbol: "dict"}, Replacement: knowledge.Replacement{Symbol: "model_dump"}}
	fetcher := &fakeFetcher{docs: []Document{
		{URL: "https://a.test", Bytes: []byte("a")},
		{URL: "https://b.test", Bytes: []byte("b")},
	}}
	oracle := &fakeOracle{byURL: map[string][]Candidate{
		"https://a.test": {{Change: change, Confidence: knowledge.ConfidenceMedium}},
		"https://b.test": {{Change: change, Confidence: knowledge.ConfidenceLow}},
	}}
	p := newTestPipeline(t, fetcher, oracle)

	spec, err := p.Acquire(context.Background(), "pydantic", "1.0", "2.0")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if len(spec.BreakingChanges) != 1 {
		t.Fatalf("expected exactly one merged change, got %+v", spec.BreakingChanges)
	}
	if spec.BreakingChanges[0].Confidence != knowledge.ConfidenceHigh {
		t.Fatalf("expected confidence promoted to high when seen in 2 sources, got %s", spec.BreakingChanges[0].Confidence)
	}
}

func TestAcquireCachesResultAndSkipsSecondFetch(t *testing.T) {
	change := knowledge.BreakingChange{ID: "bc1", Kind: knowledge.KindMethodRename, Match: knowledge.Match{Symbol: "dict"}, Replacement: knowledge.Replacement{Symbol: "model_dump"}}
	fetcher := &fakeFetcher{docs: []Document{{URL: "https://a.test", Bytes: []byte("a")}}}
	oracle := &fakeOracle{byURL: map[string][]Candidate{"https://a.test": {{Change: change, Confidence: knowledge.ConfidenceHigh}}}}
	p := newTestPipeline(t, fetcher, oracle)

	if _, err := p.Acquire(context.Background(), "pydantic", "1.0", "2.0"); err != nil {
		t.Fatalf("first Acquire: %v", err)
	}
	if _, err := p.Acquire(context.Background(), "pydantic", "1.0", "2.0"); err != nil {
		t.Fatalf("second Acquire: %v", err)
	}
	if fetcher.n != 1 {
		t.Fatalf("expected the fetcher to run exactly once (second call hits the spec cache), got %d calls", fetcher.n)
	}
}

func TestAcquireReturnsEmptySpecWithNoSourcesFound(t *testing.T) {
	fetcher := &fakeFetcher{docs: nil}
	oracle := &fakeOracle{}
	p := newTestPipeline(t, fetcher, oracle)

	spec, err := p.Acquire(context.Background(), "obscurelib", "1.0", "2.0")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if len(spec.BreakingChanges) != 0 {
		t.Fatalf("expected an empty spec, got %+v", spec.BreakingChanges)
	}
}

func TestAcquireMarksNegativeCacheOnFetchFailureAndShortCircuitsRetry(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("network unreachable")}
	oracle := &fakeOracle{}
	p := newTestPipeline(t, fetcher, oracle)

	if _, err := p.Acquire(context.Background(), "pydantic", "1.0", "2.0"); err == nil {
		t.Fatal("expected the first Acquire to surface the fetch error")
	}
	if fetcher.n != 1 {
		t.Fatalf("expected exactly one fetch attempt, got %d", fetcher.n)
	}

	if _, err := p.Acquire(context.Background(), "pydantic", "1.0", "2.0"); err == nil {
		t.Fatal("expected the second Acquire to fail fast from the negative cache")
	}
	if fetcher.n != 1 {
		t.Fatalf("expected the negative cache to prevent a second fetch attempt, got %d calls", fetcher.n)
	}
}
