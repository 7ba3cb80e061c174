package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"trivia-room-service/internal/domain"
)

// bankRow maps the question_banks table.
type bankRow struct {
	bun.BaseModel `bun:"table:question_banks"`

	ID        string            `bun:"id,pk"`
	Title     string            `bun:"title,notnull"`
	Questions []domain.Question `bun:"data,type:jsonb,notnull"`
	UpdatedAt time.Time         `bun:"updated_at,notnull,default:current_timestamp"`
}

// OpenDB opens a bun handle over the pgdriver connector.
func OpenDB(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

// BankWriter stores question banks.
type BankWriter struct {
	db  *bun.DB
	now func() time.Time
}

func NewBankWriter(db *bun.DB) *BankWriter {
	return &BankWriter{db: db, now: time.Now}
}

// Upsert inserts the bank or replaces its title and questions.
func (w *BankWriter) Upsert(ctx context.Context, bank domain.QuestionBank) error {
	row := &bankRow{
		ID:        bank.ID,
		Title:     bank.Title,
		Questions: bank.Questions,
		UpdatedAt: w.now().UTC(),
	}
	_, err := w.db.NewInsert().
		Model(row).
		On("CONFLICT (id) DO UPDATE").
		Set("title = EXCLUDED.title").
		Set("data = EXCLUDED.data").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert bank: %w", err)
	}
	return nil
}
