package knowledge

import (
	"context"
	"sort"
	"strings"
	"sync"
	"unicode"
)

// MemoryStore is an in-process store ranking documents by word overlap
// with the query. It needs no network and is the default backend.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string][]indexedDoc
}

type indexedDoc struct {
	doc    Document
	tokens map[string]struct{}
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string][]indexedDoc)}
}

// Upsert adds documents, replacing any with the same id in place.
func (s *MemoryStore) Upsert(ctx context.Context, collection string, docs []Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.collections[collection]
	for _, d := range docs {
		entry := indexedDoc{doc: copyDocument(d), tokens: tokenSet(d.Content)}

		replaced := false
		for i := range existing {
			if existing[i].doc.ID == d.ID {
				existing[i] = entry
				replaced = true
				break
			}
		}
		if !replaced {
			existing = append(existing, entry)
		}
	}
	s.collections[collection] = existing
	return nil
}

// Query returns up to n documents ordered by ascending distance, where
// distance is the share of distinct query words missing from the document.
// Ties keep insertion order. An unknown collection yields no matches.
func (s *MemoryStore) Query(ctx context.Context, collection, text string, n int) ([]Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := s.collections[collection]
	if n <= 0 || len(docs) == 0 {
		return []Match{}, nil
	}

	query := tokenSet(text)
	matches := make([]Match, len(docs))
	for i, d := range docs {
		matches[i] = Match{Document: copyDocument(d.doc), Distance: distance(query, d.tokens)}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})

	if n < len(matches) {
		matches = matches[:n]
	}
	return matches, nil
}

// Count returns the number of documents in a collection.
func (s *MemoryStore) Count(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection])
}

func distance(query, doc map[string]struct{}) float64 {
	if len(query) == 0 {
		return 1
	}
	hits := 0
	for tok := range query {
		if _, ok := doc[tok]; ok {
			hits++
		}
	}
	return 1 - float64(hits)/float64(len(query))
}

func tokenSet(text string) map[string]struct{} {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func copyDocument(d Document) Document {
	out := d
	if d.Metadata != nil {
		out.Metadata = make(map[string]any, len(d.Metadata))
		for k, v := range d.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}
