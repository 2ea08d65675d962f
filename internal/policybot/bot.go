// Package policybot answers employee questions from indexed company policy
// text, retrieving the closest passages and asking a model to answer only
// from them.
package policybot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/fraud-analyzer/internal/knowledge"
	"github.com/dvloznov/fraud-analyzer/internal/llm"
	"github.com/dvloznov/fraud-analyzer/internal/logger"
)

const (
	// DefaultTopK is the number of passages handed to the model.
	DefaultTopK = 2
	// Temperature keeps answers close to the passages.
	Temperature = 0.1
	// DefaultTimeout bounds one model call.
	DefaultTimeout = 60 * time.Second

	// Refusal is returned whenever no grounded answer is available.
	Refusal = "Sorry, I could not find an answer to that question in the provided documents."

	contextSeparator = "\n\n---\n\n"
)

// Answer sources.
const (
	SourceModel    = "model"
	SourceFallback = "fallback"
)

var (
	// ErrEmptyQuestion is returned by Ask for a blank question.
	ErrEmptyQuestion = errors.New("policybot: question is empty")
	// ErrNothingToIndex is returned by Index when the text has no chunks.
	ErrNothingToIndex = errors.New("policybot: no text to index")
)

const systemPrompt = `You are a helpful assistant named "Company Bot". Your job is to answer employees' questions using the provided excerpts of the company handbook.
Answer only from the provided context. If the context does not contain the answer, reply: "` + Refusal + `"
Be precise and stick to the facts.`

// Answer is the bot's reply together with the passages it was grounded on.
type Answer struct {
	Question string            `json:"question"`
	Text     string            `json:"text"`
	Source   string            `json:"source"`
	Context  []knowledge.Match `json:"context"`
}

// Chunk splits text into paragraphs on blank lines, dropping empty ones.
func Chunk(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var chunks []string
	for _, part := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		chunks = append(chunks, part)
	}
	return chunks
}

// Index chunks text and upserts the chunks as chunk_0..chunk_N-1 into the
// policies collection. Re-indexing replaces chunks with the same IDs.
func Index(ctx context.Context, store knowledge.Store, text string) (int, error) {
	chunks := Chunk(text)
	if len(chunks) == 0 {
		return 0, ErrNothingToIndex
	}

	docs := make([]knowledge.Document, len(chunks))
	for i, c := range chunks {
		docs[i] = knowledge.Document{
			ID:       fmt.Sprintf("chunk_%d", i),
			Content:  c,
			Metadata: map[string]any{"chunk": i},
		}
	}

	if err := store.Upsert(ctx, knowledge.CollectionPolicies, docs); err != nil {
		return 0, fmt.Errorf("Index: upsert %d chunks: %w", len(docs), err)
	}

	log := logger.FromContext(ctx)
	log.Info().Int("chunks", len(docs)).Str("collection", knowledge.CollectionPolicies).Msg("Indexed policy text")
	return len(docs), nil
}

// Bot answers questions over the policies collection.
type Bot struct {
	store    knowledge.Store
	narrator llm.Narrator
	topK     int
	timeout  time.Duration
}

// Option customizes a Bot.
type Option func(*Bot)

// WithTopK sets the number of passages retrieved per question.
func WithTopK(k int) Option {
	return func(b *Bot) {
		if k > 0 {
			b.topK = k
		}
	}
}

// WithTimeout bounds each model call.
func WithTimeout(d time.Duration) Option {
	return func(b *Bot) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// New creates a Bot. narrator may be nil, in which case every answer is
// the refusal sentence.
func New(store knowledge.Store, narrator llm.Narrator, opts ...Option) *Bot {
	b := &Bot{
		store:    store,
		narrator: narrator,
		topK:     DefaultTopK,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Ask retrieves the closest passages and asks the model to answer from
// them. Model failures degrade to the refusal; retrieval failures are
// returned.
func (b *Bot) Ask(ctx context.Context, question string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	log := logger.FromContext(ctx)

	matches, err := b.store.Query(ctx, knowledge.CollectionPolicies, question, b.topK)
	if err != nil {
		return nil, fmt.Errorf("Ask: retrieve context: %w", err)
	}

	ans := &Answer{Question: question, Context: matches, Text: Refusal, Source: SourceFallback}
	if len(matches) == 0 || b.narrator == nil {
		log.Debug().Int("matches", len(matches)).Bool("narrator", b.narrator != nil).Msg("Answering with refusal")
		return ans, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	text, err := b.narrator.Complete(callCtx, BuildPrompt(question, matches))
	if err != nil {
		log.Warn().Err(err).Msg("Policy model call failed")
		return ans, nil
	}

	ans.Text = strings.TrimSpace(text)
	ans.Source = SourceModel
	return ans, nil
}

// BuildPrompt joins the passages into the grounded user prompt.
func BuildPrompt(question string, matches []knowledge.Match) llm.Prompt {
	passages := make([]string, len(matches))
	for i, m := range matches {
		passages[i] = m.Content
	}

	user := fmt.Sprintf("Context:\n---\n%s\n---\n\nQuestion: %s",
		strings.Join(passages, contextSeparator), question)

	return llm.Prompt{
		System:      systemPrompt,
		User:        user,
		Temperature: Temperature,
	}
}
