package auth

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/projecthub/internal/common"
	"github.com/dmitrijs2005/projecthub/internal/cryptox"
	"github.com/dmitrijs2005/projecthub/internal/server/models"
	"github.com/google/uuid"
)

const (
	resetPurpose  = "password-reset"
	resetNonceLen = 16
)

// UserLookup finds a user by id. users.Repository satisfies it.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// ResetTokenService derives password reset tokens. Nothing is stored: a
// token is "<expiry base36>-<nonce hex>-<mac hex>" where the MAC binds user
// id, email, current password hash, expiry and nonce under the server
// secret. Changing the password, or the email, invalidates every
// outstanding token for the user.
type ResetTokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewResetTokenService(secret []byte, ttl time.Duration) *ResetTokenService {
	return &ResetTokenService{secret: secret, ttl: ttl, now: time.Now}
}

// EncodeUID renders a user id for use in a reset link.
func EncodeUID(id string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(id))
}

// DecodeUID reverses EncodeUID. The payload must be a UUID; it is returned
// in canonical form.
func DecodeUID(s string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
	if err != nil {
		return "", err
	}
	if len(b) == 0 {
		return "", errors.New("empty uid")
	}
	u, err := uuid.Parse(string(b))
	if err != nil {
		return "", fmt.Errorf("uid: %w", err)
	}
	return u.String(), nil
}

func (s *ResetTokenService) mac(user *models.User, expiry, nonce string) []byte {
	return cryptox.Sign(s.secret, resetPurpose, user.ID, user.Email, user.PasswordHash, expiry, nonce)
}

// Issue returns the encoded uid and a new token for user.
func (s *ResetTokenService) Issue(user *models.User) (uid, token string, err error) {
	nonce, err := common.MakeRandHexString(resetNonceLen)
	if err != nil {
		return "", "", fmt.Errorf("generate nonce: %w", err)
	}
	expiry := strconv.FormatInt(s.now().Add(s.ttl).Unix(), 36)

	token = expiry + "-" + nonce + "-" + hex.EncodeToString(s.mac(user, expiry, nonce))
	return EncodeUID(user.ID), token, nil
}

// Burn does the same signing work as Issue without producing a token.
func (s *ResetTokenService) Burn() {
	nonce, _ := common.MakeRandHexString(resetNonceLen)
	_ = cryptox.Sign(s.secret, resetPurpose, nonce, nonce, nonce, nonce, nonce)
}

// Check reports whether token is currently valid for user.
func (s *ResetTokenService) Check(user *models.User, token string) bool {
	parts := strings.Split(token, "-")
	if len(parts) != 3 {
		return false
	}
	expiry, nonce, sig := parts[0], parts[1], parts[2]

	exp, err := strconv.ParseInt(expiry, 36, 64)
	if err != nil || !s.now().Before(time.Unix(exp, 0)) {
		return false
	}
	if len(nonce) != resetNonceLen*2 {
		return false
	}
	got, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}

	return cryptox.Equal(got, s.mac(user, expiry, nonce))
}

// Validate resolves the encoded uid and checks the token against that
// user's current state. Bad encoding, unknown user, expiry and mismatch all
// return common.ErrTokenInvalid; lookup failures other than not-found are
// returned as is.
func (s *ResetTokenService) Validate(ctx context.Context, uidEncoded, token string, users UserLookup) (*models.User, error) {
	id, err := DecodeUID(uidEncoded)
	if err != nil {
		return nil, common.ErrTokenInvalid
	}

	user, err := users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrTokenInvalid
		}
		return nil, err
	}

	if !s.Check(user, token) {
		return nil, common.ErrTokenInvalid
	}
	return user, nil
}
