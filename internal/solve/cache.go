package solve

import (
	"context"

	"github.com/nao1215/quizsolve/internal/database"
	"github.com/nao1215/quizsolve/internal/model"
)

// DBCache adapts a database.AnswerDB to Cache.
type DBCache struct {
	DB *database.AnswerDB
}

// Get looks q up in the database.
func (c DBCache) Get(ctx context.Context, q model.Question) (string, string, string, bool, error) {
	e, err := c.DB.Get(ctx, q)
	if err != nil || e == nil {
		return "", "", "", false, err
	}
	return e.Answer, e.Confidence, e.Source, true, nil
}

// Put stores the answer.
func (c DBCache) Put(ctx context.Context, q model.Question, answer, confidence, source string) error {
	return c.DB.Put(ctx, q, answer, confidence, source)
}
