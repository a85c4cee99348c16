package sessions

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// Signer creates and verifies HMAC-signed session tokens. The signing key is
// supplied once at construction and is the sole trust root for every token
// the process issues.
type Signer struct {
	signingKey []byte
	defaultTTL time.Duration
	issuer     string
	audience   jwt.ClaimStrings
	logger     Logger
}

// NewSigner creates a new Signer instance
func NewSigner(signingKey []byte, defaultTTL time.Duration, issuer string, audience []string, logger Logger) *Signer {
	if logger == nil {
		logger = defLogger{}
	}
	return &Signer{
		signingKey: signingKey,
		defaultTTL: defaultTTL,
		issuer:     issuer,
		audience:   audience,
		logger:     logger,
	}
}

// Sign issues a token carrying payload with an expiry of now+ttl. The
// payload keys "uid" and "role" are promoted into dedicated claims so the
// gate can authorize without unpacking the payload, but the payload itself
// round-trips unchanged through Verify.
func (s *Signer) Sign(payload map[string]any, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", errors.New("token TTL must be positive", errors.CategoryBadInput)
	}

	now := time.Now()
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Audience:  s.claimAudience(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		Payload: payload,
	}

	if uid, ok := payload["uid"].(string); ok {
		claims.UID = uid
		claims.RegisteredClaims.Subject = uid
	}

	switch role := payload["role"].(type) {
	case string:
		claims.UserRole = role
	case UserRole:
		claims.UserRole = role.String()
	}

	return s.SignClaims(claims)
}

// SignClaims signs arbitrary session claims using the configured key.
func (s *Signer) SignClaims(claims *SessionClaims) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign session token")
	}

	return signed, nil
}

// Verify parses and validates a token string. It fails closed: any tampering
// with payload, signature, or expiry yields a typed error and no claims.
func (s *Signer) Verify(tokenString string) (*SessionClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if s.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(s.issuer))
	}
	if len(s.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(s.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			s.logger.Error("Signer verify encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, ErrInvalidSignature
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		s.logger.Error("Signer verify could not decode claims")
		return nil, ErrTokenMalformed
	}

	return claims, nil
}

// ScopedTokenOptions controls how MintScoped issues short-lived tokens.
type ScopedTokenOptions struct {
	// TTL overrides the Signer default when positive.
	TTL time.Duration
	// Issuer overrides the default issuer if provided.
	Issuer string
	// Audience overrides the default audience if provided.
	Audience []string
	// Scopes restricts what the minted token may be used for.
	Scopes []string
}

// MintScoped mints a one-off token for out-of-band flows such as emailed
// password reset links. The scopes land in the payload under "scopes" so
// consumers can reject a session token where a scoped one is required.
func (s *Signer) MintScoped(uid string, opts ScopedTokenOptions) (string, time.Time, error) {
	if uid == "" {
		return "", time.Time{}, errors.New("uid is required", errors.CategoryBadInput)
	}

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	issuer := opts.Issuer
	if issuer == "" {
		issuer = s.issuer
	}

	audience := jwt.ClaimStrings(opts.Audience)
	if len(audience) == 0 {
		audience = s.claimAudience()
	}

	now := time.Now()
	expiresAt := now.Add(ttl)

	payload := map[string]any{"uid": uid}
	if len(opts.Scopes) > 0 {
		payload["scopes"] = opts.Scopes
	}

	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   uid,
			Audience:  audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
		UID:     uid,
		Payload: payload,
	}

	signed, err := s.SignClaims(claims)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

func (s *Signer) claimAudience() jwt.ClaimStrings {
	if len(s.audience) == 0 {
		return nil
	}
	aud := make(jwt.ClaimStrings, len(s.audience))
	copy(aud, s.audience)
	return aud
}
