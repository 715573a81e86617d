package session

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"notes-upload/internal/wizard"
)

// userClaimKeys are checked in order for the user id.
var userClaimKeys = []string{"_id", "id", "userId", "sub"}

// Bearer is the session of an inbound request. The token is forwarded to the
// notes backend unchanged; the backend verifies it. The user id comes from
// UserID when set, otherwise from the token's claims.
type Bearer struct {
	Token  string
	UserID string
}

func (b Bearer) AuthToken() (string, error) {
	tok := strings.TrimSpace(b.Token)
	if tok == "" {
		return "", ErrNoToken
	}
	return tok, nil
}

func (b Bearer) CurrentUserID() (string, error) {
	if id := strings.TrimSpace(b.UserID); id != "" {
		return id, nil
	}
	tok, err := b.AuthToken()
	if err != nil {
		return "", err
	}
	return UserIDFromToken(tok)
}

// UserIDFromToken reads the user id claim of a JWT without verifying it.
func UserIDFromToken(token string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUserInvalid, err)
	}
	for _, key := range userClaimKeys {
		if v, ok := claims[key].(string); ok && strings.TrimSpace(v) != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: token has no user id claim", ErrUserInvalid)
}

var (
	_ wizard.SessionProvider = Bearer{}
	_ wizard.SessionProvider = (*FileStore)(nil)
)
