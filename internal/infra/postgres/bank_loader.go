package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"trivia-room-service/internal/domain"
)

// BankLoader loads question bank JSONB from Postgres.
type BankLoader struct {
	pool *pgxpool.Pool
}

func NewBankLoader(pool *pgxpool.Pool) *BankLoader {
	return &BankLoader{pool: pool}
}

func (l *BankLoader) LoadBank(ctx context.Context, id string) (domain.QuestionBank, error) {
	var (
		title string
		raw   []byte
	)
	err := l.pool.QueryRow(ctx, `SELECT title, data FROM question_banks WHERE id=$1`, id).Scan(&title, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuestionBank{}, fmt.Errorf("load bank %s: %w", id, domain.ErrBankNotFound)
	}
	if err != nil {
		return domain.QuestionBank{}, fmt.Errorf("load bank: %w", err)
	}
	var questions []domain.Question
	if err := json.Unmarshal(raw, &questions); err != nil {
		return domain.QuestionBank{}, fmt.Errorf("unmarshal bank: %w", err)
	}
	return domain.QuestionBank{
		ID:        id,
		Title:     title,
		Questions: domain.NormalizeQuestions(questions),
	}, nil
}
