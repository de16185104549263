package synthesis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/chatforge/backend/internal/llm"
	"github.com/chatforge/backend/internal/storage/models"
	"github.com/chatforge/backend/pkg/textutil"
)

type fakeCompleter struct {
	replies []string
	errs    []error
	calls   int
	prompts []string
}

func (f *fakeCompleter) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	i := f.calls
	f.calls++
	f.prompts = append(f.prompts, req.UserPrompt)

	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}

	reply := ""
	if len(f.replies) > 0 {
		if i < len(f.replies) {
			reply = f.replies[i]
		} else {
			reply = f.replies[len(f.replies)-1]
		}
	}
	return &llm.CompletionResponse{Content: reply}, nil
}

type fakeStore struct {
	records    map[string]models.KnowledgeRecord
	failInsert bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]models.KnowledgeRecord)}
}

func (f *fakeStore) BulkInsertKnowledge(ctx context.Context, records []models.KnowledgeRecord) (int, error) {
	if f.failInsert {
		return 0, errors.New("store unreachable")
	}

	inserted := 0
	for _, r := range records {
		key := r.BotID + "|" + textutil.NormalizeQuestion(r.Question)
		if _, exists := f.records[key]; exists {
			continue
		}
		f.records[key] = r
		inserted++
	}
	return inserted, nil
}

func pairsReply(t *testing.T, pairs []QAPair) string {
	t.Helper()
	data, err := json.Marshal(map[string][]QAPair{"pairs": pairs})
	if err != nil {
		t.Fatalf("failed to marshal reply: %v", err)
	}
	return string(data)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.BatchDelay = 0
	return cfg
}

func answeredBatch(questions []string) []QAPair {
	pairs := make([]QAPair, 0, len(questions))
	for _, q := range questions {
		pairs = append(pairs, QAPair{
			Question:   q,
			Answer:     "answer to " + q,
			Confidence: 0.9,
			Category:   "general",
		})
	}
	return pairs
}

func TestSynthesizeRequiresBotAndContent(t *testing.T) {
	s := New(newFakeStore(), &fakeCompleter{}, DefaultCatalogs(), testConfig())

	if _, err := s.Synthesize(context.Background(), Request{Content: "text"}); err == nil {
		t.Error("expected error for missing botID")
	}
	if _, err := s.Synthesize(context.Background(), Request{BotID: "b1"}); err == nil {
		t.Error("expected error for missing content")
	}
}

func TestSynthesizeEmptyQuestionList(t *testing.T) {
	completer := &fakeCompleter{}
	s := New(newFakeStore(), completer, CatalogSet{}, testConfig())

	result, err := s.Synthesize(context.Background(), Request{BotID: "b1", Content: "text"})
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if result.Generated != 0 || result.Saved != 0 {
		t.Errorf("expected zero result, got %+v", result)
	}
	if completer.calls != 0 {
		t.Errorf("expected no completion calls, got %d", completer.calls)
	}
}

func TestBatchIndependence(t *testing.T) {
	questions := make([]string, 60)
	for i := range questions {
		questions[i] = fmt.Sprintf("Question number %d?", i)
	}

	// Batch 2 of 3 replies with deliberately malformed JSON; batches 1
	// and 3 must still produce results.
	completer := &fakeCompleter{
		replies: []string{
			pairsReply(t, answeredBatch(questions[0:25])),
			`{"pairs": [{"question": "broken`,
			pairsReply(t, answeredBatch(questions[50:60])),
		},
	}
	store := newFakeStore()
	s := New(store, completer, nil, testConfig())

	result, err := s.Synthesize(context.Background(), Request{
		BotID:     "b1",
		Content:   "some content",
		Questions: questions,
	})
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}

	if completer.calls != 3 {
		t.Errorf("expected 3 completion calls, got %d", completer.calls)
	}
	if result.Generated != 35 {
		t.Errorf("expected 35 generated, got %d", result.Generated)
	}
	if result.Saved != 35 {
		t.Errorf("expected 35 saved, got %d", result.Saved)
	}
	if len(result.FailedBatches) != 1 || result.FailedBatches[0] != 1 {
		t.Errorf("expected failed batch [1], got %v", result.FailedBatches)
	}
}

func TestTransportFailureSkipsBatchOnly(t *testing.T) {
	questions := make([]string, 30)
	for i := range questions {
		questions[i] = fmt.Sprintf("Question %d?", i)
	}

	completer := &fakeCompleter{
		errs:    []error{errors.New("connection reset")},
		replies: []string{"", pairsReply(t, answeredBatch(questions[25:30]))},
	}
	s := New(newFakeStore(), completer, nil, testConfig())

	result, err := s.Synthesize(context.Background(), Request{
		BotID:     "b1",
		Content:   "content",
		Questions: questions,
	})
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if result.Generated != 5 {
		t.Errorf("expected 5 generated, got %d", result.Generated)
	}
	if len(result.FailedBatches) != 1 || result.FailedBatches[0] != 0 {
		t.Errorf("expected failed batch [0], got %v", result.FailedBatches)
	}
}

func TestConfidenceFilter(t *testing.T) {
	pairs := []QAPair{
		{Question: "q1", Answer: "kept", Confidence: 0.31},
		{Question: "q2", Answer: "dropped low", Confidence: 0.3},
		{Question: "q3", Answer: "dropped zero", Confidence: 0},
		{Question: "q4", Answer: NoAnswer, Confidence: 0.9},
		{Question: "q5", Answer: "", Confidence: 0.9},
		{Question: "q6", Answer: "kept high", Confidence: 1.0},
	}
	completer := &fakeCompleter{replies: []string{pairsReply(t, pairs)}}
	store := newFakeStore()
	s := New(store, completer, nil, testConfig())

	result, err := s.Synthesize(context.Background(), Request{
		BotID:     "b1",
		Content:   "content",
		Questions: []string{"q1", "q2", "q3", "q4", "q5", "q6"},
	})
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}

	if result.Generated != 2 {
		t.Fatalf("expected 2 generated, got %d", result.Generated)
	}
	for _, r := range store.records {
		if r.Confidence <= 0.3 {
			t.Errorf("record %q persisted with confidence %v", r.Question, r.Confidence)
		}
		if r.Answer == NoAnswer || r.Answer == "" {
			t.Errorf("record %q persisted with unusable answer %q", r.Question, r.Answer)
		}
	}
}

func TestIdempotentInsertion(t *testing.T) {
	reply := pairsReply(t, answeredBatch([]string{"What are your opening hours?"}))
	store := newFakeStore()

	run := func() *Result {
		completer := &fakeCompleter{replies: []string{reply}}
		s := New(store, completer, nil, testConfig())
		result, err := s.Synthesize(context.Background(), Request{
			BotID:     "b1",
			Content:   "We are open Mon-Fri 9-17.",
			Questions: []string{"What are your opening hours?"},
		})
		if err != nil {
			t.Fatalf("Synthesize returned error: %v", err)
		}
		return result
	}

	first := run()
	if first.Saved != 1 {
		t.Fatalf("first run: expected 1 saved, got %d", first.Saved)
	}

	second := run()
	if second.Generated != 1 {
		t.Errorf("second run: expected 1 generated, got %d", second.Generated)
	}
	if second.Saved != 0 {
		t.Errorf("second run: expected 0 saved, got %d", second.Saved)
	}
	if len(store.records) != 1 {
		t.Errorf("expected 1 stored record, got %d", len(store.records))
	}
}

func TestStoreFailurePropagates(t *testing.T) {
	store := newFakeStore()
	store.failInsert = true
	completer := &fakeCompleter{replies: []string{pairsReply(t, answeredBatch([]string{"q"}))}}
	s := New(store, completer, nil, testConfig())

	_, err := s.Synthesize(context.Background(), Request{
		BotID:     "b1",
		Content:   "content",
		Questions: []string{"q"},
	})
	if err == nil {
		t.Fatal("expected error when store is unreachable")
	}
}

func TestOpeningHoursScenario(t *testing.T) {
	reply := pairsReply(t, []QAPair{
		{
			Question:   "What are your opening hours?",
			Answer:     "We are open Monday to Friday from 9:00 to 17:00.",
			Confidence: 0.95,
			Category:   "hours",
			Keywords:   []string{"hours", "schedule"},
		},
		{
			Question:   "Do you ship internationally?",
			Answer:     NoAnswer,
			Confidence: 0,
		},
	})
	completer := &fakeCompleter{replies: []string{reply}}
	store := newFakeStore()
	s := New(store, completer, nil, testConfig())

	result, err := s.Synthesize(context.Background(), Request{
		BotID:     "b1",
		Content:   "We are open Mon-Fri 9-17.",
		Questions: []string{"What are your opening hours?", "Do you ship internationally?"},
	})
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}

	if result.Generated != 1 || result.Saved != 1 {
		t.Fatalf("expected 1 generated and saved, got %+v", result)
	}
	if len(store.records) != 1 {
		t.Fatalf("expected exactly 1 stored record, got %d", len(store.records))
	}
	for _, r := range store.records {
		if r.Question != "What are your opening hours?" {
			t.Errorf("unexpected persisted question %q", r.Question)
		}
	}
	if len(result.Preview) != 1 {
		t.Errorf("expected 1 preview pair, got %d", len(result.Preview))
	}
}

func TestCatalogFallback(t *testing.T) {
	catalogs := CatalogSet{
		PurposeCustomer: {"customer question?"},
		PurposeEmployee: {"employee question?"},
	}

	completer := &fakeCompleter{replies: []string{pairsReply(t, nil)}}
	s := New(newFakeStore(), completer, catalogs, testConfig())

	_, err := s.Synthesize(context.Background(), Request{
		BotID:   "b1",
		Content: "content",
		Purpose: "something-unknown",
	})
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if len(completer.prompts) != 1 {
		t.Fatalf("expected 1 prompt, got %d", len(completer.prompts))
	}
	if want := "customer question?"; !strings.Contains(completer.prompts[0], want) {
		t.Errorf("prompt should fall back to customer catalog, missing %q", want)
	}
}

func TestContentTruncation(t *testing.T) {
	cfg := testConfig()
	cfg.MaxContentChars = 100

	long := make([]byte, 0, 500)
	for i := 0; i < 500; i++ {
		long = append(long, 'x')
	}

	completer := &fakeCompleter{replies: []string{pairsReply(t, nil)}}
	s := New(newFakeStore(), completer, nil, cfg)

	_, err := s.Synthesize(context.Background(), Request{
		BotID:     "b1",
		Content:   string(long),
		Questions: []string{"q"},
	})
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if len(completer.prompts[0]) > 1000 {
		t.Errorf("prompt suggests content was not truncated: %d chars", len(completer.prompts[0]))
	}
}
