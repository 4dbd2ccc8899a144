package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/KiritoZik/psb-AI-backend/internal/core/domain"
	"github.com/KiritoZik/psb-AI-backend/internal/core/ports"
)

type LetterRepository struct {
	db *sql.DB
}

func NewLetterRepository(db *sql.DB) *LetterRepository {
	return &LetterRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *LetterRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083101)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS letters (
	id TEXT PRIMARY KEY,
	received_date TIMESTAMPTZ NOT NULL,
	sender_name TEXT NOT NULL DEFAULT '',
	sender_email TEXT NOT NULL DEFAULT '',
	original_text TEXT NOT NULL,
	letter_style TEXT NOT NULL,
	urgency TEXT NOT NULL,
	reply_deadline TIMESTAMPTZ NOT NULL,
	status TEXT NOT NULL,
	generated_answer TEXT NOT NULL,
	edited_answer TEXT NOT NULL DEFAULT '',
	sent_date TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_letters_status ON letters(status);
CREATE INDEX IF NOT EXISTS idx_letters_urgency ON letters(urgency);
CREATE INDEX IF NOT EXISTS idx_letters_received_date ON letters(received_date DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

const letterColumns = `id, received_date, sender_name, sender_email, original_text, letter_style, urgency, reply_deadline, status, generated_answer, edited_answer, sent_date, created_at, updated_at`

func (r *LetterRepository) Create(ctx context.Context, letter *domain.Letter) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO letters (
	`+letterColumns+`
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
`,
		letter.ID, letter.ReceivedDate, letter.SenderName, letter.SenderEmail, letter.OriginalText,
		string(letter.LetterStyle), string(letter.Urgency), letter.ReplyDeadline, string(letter.Status),
		letter.GeneratedAnswer, letter.EditedAnswer, letter.SentDate, letter.CreatedAt, letter.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert letter: %w", err)
	}
	return nil
}

func (r *LetterRepository) GetByID(ctx context.Context, id string) (*domain.Letter, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+letterColumns+`
FROM letters
WHERE id = $1
`, id)

	letter, err := scanLetter(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrLetterNotFound, "fetch letter", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan letter: %w", err)
	}
	return letter, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLetter(row rowScanner) (*domain.Letter, error) {
	var letter domain.Letter
	var style, urgency, status string
	var sentDate sql.NullTime

	err := row.Scan(
		&letter.ID, &letter.ReceivedDate, &letter.SenderName, &letter.SenderEmail, &letter.OriginalText,
		&style, &urgency, &letter.ReplyDeadline, &status,
		&letter.GeneratedAnswer, &letter.EditedAnswer, &sentDate, &letter.CreatedAt, &letter.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	letter.LetterStyle = domain.LetterStyle(style)
	letter.Urgency = domain.LetterUrgency(urgency)
	letter.Status = domain.LetterStatus(status)
	if sentDate.Valid {
		t := sentDate.Time
		letter.SentDate = &t
	}
	return &letter, nil
}

func (r *LetterRepository) List(ctx context.Context, filter ports.ListFilter) ([]domain.Letter, int, error) {
	where, args := buildListWhere(filter)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM letters`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count letters: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := `
SELECT ` + letterColumns + `
FROM letters` + where + orderClause(filter) +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list letters: %w", err)
	}
	defer rows.Close()

	letters := make([]domain.Letter, 0, limit)
	for rows.Next() {
		letter, err := scanLetter(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan letter: %w", err)
		}
		letters = append(letters, *letter)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate letters: %w", err)
	}
	return letters, total, nil
}

func buildListWhere(filter ports.ListFilter) (string, []any) {
	var clauses []string
	var args []any

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Urgency != "" {
		args = append(args, string(filter.Urgency))
		clauses = append(clauses, fmt.Sprintf("urgency = $%d", len(args)))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// orderClause whitelists sortable columns; urgency sorts by severity, not
// alphabetically.
func orderClause(filter ports.ListFilter) string {
	direction := "ASC"
	if strings.EqualFold(filter.SortOrder, "desc") {
		direction = "DESC"
	}

	switch filter.SortBy {
	case "urgency":
		return fmt.Sprintf(" ORDER BY CASE urgency WHEN 'high' THEN 0 WHEN 'medium' THEN 1 WHEN 'low' THEN 2 ELSE 3 END %s, received_date DESC", direction)
	case "deadline":
		return " ORDER BY reply_deadline " + direction
	case "received_date":
		return " ORDER BY received_date " + direction
	default:
		return " ORDER BY received_date DESC"
	}
}

func (r *LetterRepository) SetEditedAnswer(ctx context.Context, id, editedAnswer string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE letters
SET edited_answer = $2, updated_at = $3
WHERE id = $1 AND status <> $4
`, id, editedAnswer, time.Now().UTC(), string(domain.StatusSent))
	if err != nil {
		return fmt.Errorf("update edited answer: %w", err)
	}
	return requireRow(result, "update edited answer")
}

// Approve flips the letter to approved; an empty editedAnswer keeps whatever
// edit was stored before.
func (r *LetterRepository) Approve(ctx context.Context, id, editedAnswer string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE letters
SET status = $2,
	edited_answer = CASE WHEN $3 = '' THEN edited_answer ELSE $3 END,
	updated_at = $4
WHERE id = $1 AND status <> $5
`, id, string(domain.StatusApproved), editedAnswer, time.Now().UTC(), string(domain.StatusSent))
	if err != nil {
		return fmt.Errorf("approve letter: %w", err)
	}
	return requireRow(result, "approve letter")
}

// MarkSent only fires from the approved status, so a concurrent double send
// loses the race and reports a workflow violation.
func (r *LetterRepository) MarkSent(ctx context.Context, id string, sentAt time.Time) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE letters
SET status = $2, sent_date = $3, updated_at = $3
WHERE id = $1 AND status = $4
`, id, string(domain.StatusSent), sentAt, string(domain.StatusApproved))
	if err != nil {
		return fmt.Errorf("mark letter sent: %w", err)
	}
	return requireRow(result, "mark letter sent")
}

func requireRow(result sql.Result, operation string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", operation, err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrWorkflowViolation, operation, errors.New("no matching letter in an allowed status"))
	}
	return nil
}
