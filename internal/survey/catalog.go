// Package survey holds the fixed-question catalog and the survey wizard session.
package survey

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jonathan/cb-discovery/internal/schemas"
	"github.com/jonathan/cb-discovery/internal/types"
)

//go:embed questions.json
var defaultQuestions []byte

//go:embed questions.schema.json
var catalogSchema []byte

// TestModeQuestions is the number of fixed questions asked in test mode.
const TestModeQuestions = 3

// Catalog is an immutable, validated list of fixed questions.
type Catalog struct {
	questions []types.Question
	byID      map[string]int
}

// DefaultCatalog loads the embedded question catalog.
func DefaultCatalog() (*Catalog, error) {
	return LoadCatalog(defaultQuestions)
}

// LoadCatalogFile loads and validates a catalog from disk.
func LoadCatalogFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return LoadCatalog(data)
}

// LoadCatalog validates data against the catalog schema and parses it.
func LoadCatalog(data []byte) (*Catalog, error) {
	validator, err := schemas.Compile("questions", catalogSchema)
	if err != nil {
		return nil, err
	}
	if err := validator.Validate(data); err != nil {
		return nil, fmt.Errorf("invalid question catalog: %w", err)
	}

	var questions []types.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("failed to parse question catalog: %w", err)
	}

	c := &Catalog{questions: questions, byID: make(map[string]int, len(questions))}
	for i, q := range questions {
		if _, dup := c.byID[q.ID]; dup {
			return nil, fmt.Errorf("invalid question catalog: duplicate id %q", q.ID)
		}
		if q.Likert != nil && q.Likert.Min > q.Likert.Max {
			return nil, fmt.Errorf("invalid question catalog: %s likert min %d exceeds max %d", q.ID, q.Likert.Min, q.Likert.Max)
		}
		c.byID[q.ID] = i
	}
	return c, nil
}

// Questions returns every question in catalog order.
func (c *Catalog) Questions() []types.Question {
	return append([]types.Question(nil), c.questions...)
}

// ForMode returns the questions asked in a session; test mode asks only the first few.
func (c *Catalog) ForMode(testMode bool) []types.Question {
	qs := c.Questions()
	if testMode && len(qs) > TestModeQuestions {
		qs = qs[:TestModeQuestions]
	}
	return qs
}

// Question looks up a question by ID.
func (c *Catalog) Question(id string) (types.Question, bool) {
	i, ok := c.byID[id]
	if !ok {
		return types.Question{}, false
	}
	return c.questions[i], true
}

// Len returns the number of questions.
func (c *Catalog) Len() int {
	return len(c.questions)
}
