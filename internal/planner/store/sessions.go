package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/planforge/craftplan/pkg/plan"
)

// Session is a persisted calculator state: the catalog, the resource pool,
// and the target, keyed by a caller-chosen name.
type Session struct {
	ID        string
	Name      string
	Target    plan.Stack
	Recipes   []plan.Recipe
	Resources []plan.Stack
	UpdatedAt time.Time
}

// SessionInfo is a listing entry for a saved session.
type SessionInfo struct {
	Name        string
	Target      plan.Stack
	RecipeCount int
	UpdatedAt   time.Time
}

// SaveSession upserts the session under its name, replacing any previous
// catalog, resources, and target stored there. Returns the session ID.
func (s *Store) SaveSession(ctx context.Context, name string, target plan.Stack, recipes []*plan.Recipe, resources []plan.Stack) (string, error) {
	id, err := s.sessionID(ctx, name)
	if err != nil {
		return "", err
	}
	created := false
	if id == "" {
		id = uuid.NewString()
		created = true
	}
	now := time.Now().UTC().Format(time.RFC3339)

	err = s.InTransaction(ctx, func(tx *sql.Tx) error {
		if created {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO sessions (id, name, target_item, target_count, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?)
			`, id, name, target.Item, int64(target.Count), now, now)
			if err != nil {
				return fmt.Errorf("inserting session: %w", err)
			}
		} else {
			_, err := tx.ExecContext(ctx, `
				UPDATE sessions SET target_item = ?, target_count = ?, updated_at = ?
				WHERE id = ?
			`, target.Item, int64(target.Count), now, id)
			if err != nil {
				return fmt.Errorf("updating session: %w", err)
			}
			for _, table := range []string{"recipe_ingredients", "recipes", "resources"} {
				if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE session_id = ?`, table), id); err != nil {
					return fmt.Errorf("clearing %s: %w", table, err)
				}
			}
		}

		recipeStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO recipes (session_id, result_item, result_count, method)
			VALUES (?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing recipe statement: %w", err)
		}
		defer func() { _ = recipeStmt.Close() }()

		ingStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO recipe_ingredients (session_id, result_item, position, item, count)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing ingredient statement: %w", err)
		}
		defer func() { _ = ingStmt.Close() }()

		for _, r := range recipes {
			if _, err := recipeStmt.ExecContext(ctx, id, r.Result.Item, int64(r.Result.Count), r.Method); err != nil {
				return fmt.Errorf("inserting recipe %q: %w", r.Result.Item, err)
			}
			for pos, ing := range r.Ingredients {
				if _, err := ingStmt.ExecContext(ctx, id, r.Result.Item, pos, ing.Item, int64(ing.Count)); err != nil {
					return fmt.Errorf("inserting ingredient for %q: %w", r.Result.Item, err)
				}
			}
		}

		for _, res := range resources {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO resources (session_id, item, count) VALUES (?, ?, ?)
			`, id, res.Item, int64(res.Count))
			if err != nil {
				return fmt.Errorf("inserting resource %q: %w", res.Item, err)
			}
		}

		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// LoadSession retrieves a session by name, or nil if no such session exists.
func (s *Store) LoadSession(ctx context.Context, name string) (*Session, error) {
	sess := &Session{Name: name}
	var targetCount int64
	var updated string
	err := s.QueryRowContext(ctx, `
		SELECT id, target_item, target_count, updated_at FROM sessions WHERE name = ?
	`, name).Scan(&sess.ID, &sess.Target.Item, &targetCount, &updated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}
	sess.Target.Count = plan.Count(targetCount)
	if t, err := time.Parse(time.RFC3339, updated); err == nil {
		sess.UpdatedAt = t
	}

	recipes, err := s.loadRecipes(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	sess.Recipes = recipes

	resources, err := s.loadResources(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	sess.Resources = resources

	return sess, nil
}

// ListSessions lists saved sessions, most recently updated first.
func (s *Store) ListSessions(ctx context.Context) ([]SessionInfo, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT s.name, s.target_item, s.target_count, s.updated_at,
		       (SELECT COUNT(*) FROM recipes r WHERE r.session_id = s.id)
		FROM sessions s
		ORDER BY s.updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var infos []SessionInfo
	for rows.Next() {
		var info SessionInfo
		var targetCount int64
		var updated string
		if err := rows.Scan(&info.Name, &info.Target.Item, &targetCount, &updated, &info.RecipeCount); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		info.Target.Count = plan.Count(targetCount)
		if t, err := time.Parse(time.RFC3339, updated); err == nil {
			info.UpdatedAt = t
		}
		infos = append(infos, info)
	}

	return infos, rows.Err()
}

func (s *Store) sessionID(ctx context.Context, name string) (string, error) {
	var id string
	err := s.QueryRowContext(ctx, `SELECT id FROM sessions WHERE name = ?`, name).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("querying session id: %w", err)
	}
	return id, nil
}

func (s *Store) loadRecipes(ctx context.Context, sessionID string) ([]plan.Recipe, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT result_item, result_count, method
		FROM recipes WHERE session_id = ?
		ORDER BY result_item
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying recipes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var recipes []plan.Recipe
	for rows.Next() {
		var r plan.Recipe
		var count int64
		if err := rows.Scan(&r.Result.Item, &count, &r.Method); err != nil {
			return nil, fmt.Errorf("scanning recipe: %w", err)
		}
		r.Result.Count = plan.Count(count)
		recipes = append(recipes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range recipes {
		ingredients, err := s.loadIngredients(ctx, sessionID, recipes[i].Result.Item)
		if err != nil {
			return nil, err
		}
		recipes[i].Ingredients = ingredients
	}

	return recipes, nil
}

func (s *Store) loadIngredients(ctx context.Context, sessionID, resultItem string) ([]plan.Stack, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT item, count FROM recipe_ingredients
		WHERE session_id = ? AND result_item = ?
		ORDER BY position
	`, sessionID, resultItem)
	if err != nil {
		return nil, fmt.Errorf("querying ingredients for %q: %w", resultItem, err)
	}
	defer func() { _ = rows.Close() }()

	var ingredients []plan.Stack
	for rows.Next() {
		var ing plan.Stack
		var count int64
		if err := rows.Scan(&ing.Item, &count); err != nil {
			return nil, fmt.Errorf("scanning ingredient: %w", err)
		}
		ing.Count = plan.Count(count)
		ingredients = append(ingredients, ing)
	}

	return ingredients, rows.Err()
}

func (s *Store) loadResources(ctx context.Context, sessionID string) ([]plan.Stack, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT item, count FROM resources WHERE session_id = ? ORDER BY item
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying resources: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var resources []plan.Stack
	for rows.Next() {
		var res plan.Stack
		var count int64
		if err := rows.Scan(&res.Item, &count); err != nil {
			return nil, fmt.Errorf("scanning resource: %w", err)
		}
		res.Count = plan.Count(count)
		resources = append(resources, res)
	}

	return resources, rows.Err()
}
