package chess

import (
	"context"
	"errors"

	"arcade-chat/internal/repositories"
)

// Gate tracks per-user puzzle completion. Solving the puzzle unlocks the chat
// route; the flag is revoked whenever the user leaves the chat view, which is
// a re-engagement mechanic rather than a security boundary.
type Gate struct {
	users repositories.UserRepository
}

// NewGate constructs a Gate.
func NewGate(users repositories.UserRepository) *Gate {
	return &Gate{users: users}
}

// IsPuzzleSolved reports whether the user currently holds chat access.
func (g *Gate) IsPuzzleSolved(ctx context.Context, userID string) (bool, error) {
	user, err := g.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.ChessCompleted, nil
}

// MarkSolved records puzzle completion.
func (g *Gate) MarkSolved(ctx context.Context, userID string) error {
	return g.users.SetChessCompleted(ctx, userID, true)
}

// RevokeSolved clears completion, forcing a re-solve on the next visit.
func (g *Gate) RevokeSolved(ctx context.Context, userID string) error {
	return g.users.SetChessCompleted(ctx, userID, false)
}
