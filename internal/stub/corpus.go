package stub

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"sync"
	"unicode"
)

// Article is one news article in the corpus file.
type Article struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	URL       string `json:"url,omitempty"`
	Published string `json:"published,omitempty"`
	Source    string `json:"source,omitempty"`
}

// Corpus is the set of articles answers are grounded in. It can be reloaded
// from its file while in use.
type Corpus struct {
	path string

	mu       sync.RWMutex
	articles []Article
	terms    []map[string]int
}

// NewCorpus returns a corpus holding articles, with no backing file.
func NewCorpus(articles []Article) *Corpus {
	c := &Corpus{}
	c.set(articles)
	return c
}

// LoadCorpus reads the JSON article list at path. A missing file yields an
// empty corpus that can be filled by a later Reload.
func LoadCorpus(path string) (*Corpus, error) {
	c := &Corpus{path: path}
	if _, err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads the backing file and returns the new article count.
func (c *Corpus) Reload() (int, error) {
	if c.path == "" {
		return c.Count(), nil
	}
	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		c.set(nil)
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("stub: read corpus %s: %w", c.path, err)
	}
	var articles []Article
	if err := json.Unmarshal(data, &articles); err != nil {
		return 0, fmt.Errorf("stub: parse corpus %s: %w", c.path, err)
	}
	c.set(articles)
	return len(articles), nil
}

func (c *Corpus) set(articles []Article) {
	terms := make([]map[string]int, len(articles))
	for i, a := range articles {
		terms[i] = termCounts(a.Title + " " + a.Title + " " + a.Content)
	}
	c.mu.Lock()
	c.articles = articles
	c.terms = terms
	c.mu.Unlock()
}

// Count returns the number of articles.
func (c *Corpus) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.articles)
}

// Search returns up to k articles ranked by how many query terms they
// contain. Articles sharing no term with the query are never returned.
func (c *Corpus) Search(query string, k int) []Article {
	q := termCounts(query)
	if len(q) == 0 || k <= 0 {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	type hit struct {
		idx   int
		score int
	}
	var hits []hit
	for i, t := range c.terms {
		score := 0
		for term := range q {
			score += t[term]
		}
		if score > 0 {
			hits = append(hits, hit{idx: i, score: score})
		}
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].score > hits[b].score })
	if len(hits) > k {
		hits = hits[:k]
	}

	out := make([]Article, len(hits))
	for i, h := range hits {
		out[i] = c.articles[h.idx]
	}
	return out
}

var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "about": true, "as": true, "at": true,
	"be": true, "by": true, "did": true, "do": true, "does": true, "for": true, "from": true,
	"has": true, "have": true, "how": true, "i": true, "in": true, "is": true, "it": true,
	"me": true, "of": true, "on": true, "or": true, "tell": true, "that": true, "the": true,
	"this": true, "to": true, "was": true, "what": true, "when": true, "where": true,
	"which": true, "who": true, "why": true, "with": true, "you": true, "any": true,
	"news": true, "latest": true,
}

func termCounts(text string) map[string]int {
	counts := make(map[string]int)
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, f := range fields {
		if len(f) < 2 || stopwords[f] {
			continue
		}
		counts[f]++
	}
	return counts
}
