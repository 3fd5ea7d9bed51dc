package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/hongminglow/coursenese-be/internal/models"
	"github.com/hongminglow/coursenese-be/internal/storage"
)

// activeCartID returns the user's active cart, creating it on first access.
// The partial unique index on active carts makes concurrent creators converge on one row.
func activeCartID(ctx context.Context, q DBTX, userID int64) (int64, error) {
	const selectActive = `SELECT id FROM course_carts WHERE user_id = $1 AND status = 'active'`
	const insertActive = `
		INSERT INTO course_carts (user_id, status) VALUES ($1, 'active')
		ON CONFLICT (user_id) WHERE status = 'active' DO NOTHING`

	var id int64
	err := q.QueryRowContext(ctx, selectActive, userID).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(mapError(err), storage.ErrNotFound) {
		return 0, fmt.Errorf("find active cart: %w", err)
	}
	if _, err := q.ExecContext(ctx, insertActive, userID); err != nil {
		return 0, fmt.Errorf("create active cart: %w", mapError(err))
	}
	if err := q.QueryRowContext(ctx, selectActive, userID).Scan(&id); err != nil {
		return 0, fmt.Errorf("find active cart: %w", mapError(err))
	}
	return id, nil
}

// ActiveCart returns the active cart with its items and total.
func (s *Store) ActiveCart(ctx context.Context, userID int64) (models.Cart, error) {
	cartID, err := activeCartID(ctx, s.db, userID)
	if err != nil {
		return models.Cart{}, err
	}

	const query = `
		SELECT i.course_id, c.title, c.thumbnail_url, i.price_int, i.created_at
		FROM course_cart_items i
		JOIN courses c ON c.id = i.course_id
		WHERE i.cart_id = $1
		ORDER BY i.created_at, i.id`
	rows, err := s.db.QueryContext(ctx, query, cartID)
	if err != nil {
		return models.Cart{}, fmt.Errorf("list cart items: %w", err)
	}
	defer rows.Close()

	cart := models.Cart{ID: cartID, UserID: userID, Status: models.CartActive, Items: []models.CartItem{}}
	for rows.Next() {
		var it models.CartItem
		if err := rows.Scan(&it.CourseID, &it.Title, &it.ThumbnailURL, &it.PriceInt, &it.CreatedAt); err != nil {
			return models.Cart{}, fmt.Errorf("scan cart item: %w", err)
		}
		cart.Total += it.PriceInt
		cart.Items = append(cart.Items, it)
	}
	return cart, rows.Err()
}

// CountCartItems counts items in the active cart. A missing cart counts as empty.
func (s *Store) CountCartItems(ctx context.Context, userID int64) (int64, error) {
	const query = `
		SELECT COUNT(*)
		FROM course_cart_items i
		JOIN course_carts k ON k.id = i.cart_id
		WHERE k.user_id = $1 AND k.status = 'active'`
	var n int64
	if err := s.db.QueryRowContext(ctx, query, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count cart items: %w", err)
	}
	return n, nil
}

// AddCartItem puts a course into the active cart with its current price.
func (s *Store) AddCartItem(ctx context.Context, userID, courseID, priceInt int64) error {
	cartID, err := activeCartID(ctx, s.db, userID)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO course_cart_items (cart_id, course_id, price_int) VALUES ($1, $2, $3)`, cartID, courseID, priceInt)
	if err != nil {
		return fmt.Errorf("insert cart item: %w", mapError(err))
	}
	return nil
}

// RemoveCartItem deletes one course from the active cart.
func (s *Store) RemoveCartItem(ctx context.Context, userID, courseID int64) error {
	const query = `
		DELETE FROM course_cart_items i
		USING course_carts k
		WHERE i.cart_id = k.id AND k.user_id = $1 AND k.status = 'active' AND i.course_id = $2`
	return execAffected(ctx, s.db, query, userID, courseID)
}

// ClearCart empties the active cart.
func (s *Store) ClearCart(ctx context.Context, userID int64) error {
	const query = `
		DELETE FROM course_cart_items i
		USING course_carts k
		WHERE i.cart_id = k.id AND k.user_id = $1 AND k.status = 'active'`
	if _, err := s.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// Checkout turns every cart item into an ownership, closes the cart and opens a new one.
func (s *Store) Checkout(ctx context.Context, userID int64) ([]int64, error) {
	var courseIDs []int64
	err := s.inTx(ctx, func(ctx context.Context, tx DBTX) error {
		var cartID int64
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM course_carts WHERE user_id = $1 AND status = 'active' FOR UPDATE`, userID).Scan(&cartID)
		if err != nil {
			if errors.Is(mapError(err), storage.ErrNotFound) {
				return storage.ErrCartEmpty
			}
			return fmt.Errorf("lock cart: %w", err)
		}

		rows, err := tx.QueryContext(ctx, `SELECT course_id FROM course_cart_items WHERE cart_id = $1 ORDER BY id`, cartID)
		if err != nil {
			return fmt.Errorf("list cart items: %w", err)
		}
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return fmt.Errorf("scan cart item: %w", err)
			}
			courseIDs = append(courseIDs, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		if len(courseIDs) == 0 {
			return storage.ErrCartEmpty
		}

		const grant = `
			INSERT INTO course_ownerships (user_id, course_id)
			SELECT $1, course_id FROM course_cart_items WHERE cart_id = $2
			ON CONFLICT (user_id, course_id) DO NOTHING`
		if _, err := tx.ExecContext(ctx, grant, userID, cartID); err != nil {
			return fmt.Errorf("grant ownership: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE course_carts SET status = 'checked_out' WHERE id = $1`, cartID); err != nil {
			return fmt.Errorf("close cart: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO course_carts (user_id, status) VALUES ($1, 'active')`, userID); err != nil {
			return fmt.Errorf("open cart: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return courseIDs, nil
}
