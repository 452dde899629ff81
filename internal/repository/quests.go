package repository

import (
	"context"
	"fmt"

	"trailquest/internal/model"

	"github.com/Masterminds/squirrel"
)

func (r *Repository) SaveQuestItems(ctx context.Context, items []model.QuestItem) error {
	if len(items) == 0 {
		return nil
	}

	builder := squirrel.
		Insert("quest_items").
		Columns("id", "hike_id", "position", "name", "category", "hint", "xp", "rarity", "completed", "completed_at")
	for i, item := range items {
		builder = builder.Values(
			item.ID, item.HikeID, i, item.Name, item.Category, item.Hint,
			item.XP, string(item.Rarity), item.Completed, item.CompletedAt,
		)
	}

	query, args, err := builder.PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build quest items insert query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert quest items: %w", err)
	}
	return nil
}

// CompleteQuestItem keeps the first completion time when called twice.
func (r *Repository) CompleteQuestItem(ctx context.Context, itemID string) error {
	query, args, err := squirrel.
		Update("quest_items").
		Set("completed", true).
		Set("completed_at", squirrel.Expr("COALESCE(completed_at, now())")).
		Where(squirrel.Eq{"id": itemID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build quest item update query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}
