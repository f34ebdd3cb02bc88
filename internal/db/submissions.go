package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/cb-discovery/internal/types"
)

// List limits
const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

// ErrSubmissionNotFound is returned when an update targets a missing submission.
var ErrSubmissionNotFound = errors.New("submission not found")

// Filter holds optional filters for listing submissions
type Filter struct {
	OrgContains       string
	SubmitterContains string
	Statuses          []types.SubmissionStatus
	Limit             int
}

// Normalize applies the default statuses and clamps Limit to 1..MaxListLimit.
func (f Filter) Normalize() Filter {
	f.OrgContains = strings.TrimSpace(f.OrgContains)
	f.SubmitterContains = strings.TrimSpace(f.SubmitterContains)
	if len(f.Statuses) == 0 {
		f.Statuses = []types.SubmissionStatus{types.StatusSubmitted, types.StatusAnalyzed}
	}
	switch {
	case f.Limit <= 0:
		f.Limit = DefaultListLimit
	case f.Limit > MaxListLimit:
		f.Limit = MaxListLimit
	}
	return f
}

const submissionColumns = `id, org_name, org_contact, answers, scores, status, submitted_by, role, created_at, submitted_at`

// CreateSubmission inserts a new submission. A nil ID is replaced with a random one.
// Inserting an existing ID replaces its organization, answers and submit time
// while the submission is still unscored; an analyzed submission is left as is.
func (db *DB) CreateSubmission(ctx context.Context, sub types.Submission) (uuid.UUID, error) {
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	if sub.Status == "" {
		sub.Status = types.StatusSubmitted
	}

	answers, err := json.Marshal(sub.Answers)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal answers: %w", err)
	}
	var scores []byte
	if sub.Scores != nil {
		if scores, err = json.Marshal(sub.Scores); err != nil {
			return uuid.Nil, fmt.Errorf("failed to marshal scores: %w", err)
		}
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO submissions (`+submissionColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (id) DO UPDATE SET
		     org_name = EXCLUDED.org_name,
		     org_contact = EXCLUDED.org_contact,
		     answers = EXCLUDED.answers,
		     submitted_at = EXCLUDED.submitted_at
		 WHERE submissions.status = $11`,
		sub.ID, sub.Org.Name, sub.Org.Contact, answers, scores, string(sub.Status),
		sub.SubmittedBy, string(sub.Role), sub.CreatedAt, sub.SubmittedAt,
		string(types.StatusSubmitted),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create submission: %w", err)
	}
	return sub.ID, nil
}

// GetSubmission retrieves a submission by ID. It returns nil, nil when none exists.
func (db *DB) GetSubmission(ctx context.Context, id uuid.UUID) (*types.Submission, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE id = $1`, id)
	sub, err := scanSubmission(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return sub, nil
}

// ListSubmissions retrieves submissions newest first. Text filters match
// case-insensitive substrings.
func (db *DB) ListSubmissions(ctx context.Context, filter Filter) ([]types.Submission, error) {
	filter = filter.Normalize()

	statuses := make([]string, len(filter.Statuses))
	for i, s := range filter.Statuses {
		statuses[i] = string(s)
	}

	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE status = ANY($1)`
	args := []any{statuses}
	argNum := 2

	if filter.OrgContains != "" {
		query += fmt.Sprintf(" AND org_name ILIKE $%d", argNum)
		args = append(args, "%"+escapeLike(filter.OrgContains)+"%")
		argNum++
	}
	if filter.SubmitterContains != "" {
		query += fmt.Sprintf(" AND submitted_by ILIKE $%d", argNum)
		args = append(args, "%"+escapeLike(filter.SubmitterContains)+"%")
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argNum)
	args = append(args, filter.Limit)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	subs := []types.Submission{}
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		subs = append(subs, *sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return subs, nil
}

// SaveScores stores a maturity report and marks the submission analyzed.
func (db *DB) SaveScores(ctx context.Context, id uuid.UUID, report types.MaturityReport) error {
	scores, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal scores: %w", err)
	}
	result, err := db.pool.Exec(ctx,
		`UPDATE submissions SET scores = $1, status = $2 WHERE id = $3`,
		scores, string(types.StatusAnalyzed), id,
	)
	if err != nil {
		return fmt.Errorf("failed to save scores: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrSubmissionNotFound, id)
	}
	return nil
}

func scanSubmission(row pgx.Row) (*types.Submission, error) {
	var (
		sub          types.Submission
		answers      []byte
		scores       []byte
		status, role string
	)
	err := row.Scan(&sub.ID, &sub.Org.Name, &sub.Org.Contact, &answers, &scores, &status,
		&sub.SubmittedBy, &role, &sub.CreatedAt, &sub.SubmittedAt)
	if err != nil {
		return nil, err
	}
	sub.Status = types.SubmissionStatus(status)
	sub.Role = types.Role(role)
	if len(answers) > 0 {
		if err := json.Unmarshal(answers, &sub.Answers); err != nil {
			return nil, fmt.Errorf("failed to parse answers: %w", err)
		}
	}
	if len(scores) > 0 {
		var report types.MaturityReport
		if err := json.Unmarshal(scores, &report); err != nil {
			return nil, fmt.Errorf("failed to parse scores: %w", err)
		}
		sub.Scores = &report
	}
	return &sub, nil
}

// escapeLike escapes the ILIKE wildcards in a user-supplied fragment.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
