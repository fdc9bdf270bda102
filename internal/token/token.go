// Package token signs and verifies the HS512 JWTs used for access, refresh and
// classroom invitations. Each kind has its own secret, so a token of one kind never
// verifies as another.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/colearn/backend/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Kind int

const (
	Access Kind = iota
	Refresh
	Invitation
)

func (k Kind) String() string {
	switch k {
	case Access:
		return "access"
	case Refresh:
		return "refresh"
	case Invitation:
		return "invitation"
	}
	return "unknown"
}

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

var signingMethod = jwt.SigningMethodHS512

type Claims struct {
	UserID       string `json:"userId,omitempty"`
	InvitationID string `json:"invitationId,omitempty"`
	jwt.RegisteredClaims
}

type Issuer struct {
	secrets map[Kind][]byte
	ttls    map[Kind]time.Duration
	now     func() time.Time
}

func NewIssuer(cfg config.Config) (*Issuer, error) {
	secrets := map[Kind][]byte{
		Access:     []byte(cfg.AccessSecret),
		Refresh:    []byte(cfg.RefreshSecret),
		Invitation: []byte(cfg.InvitationSecret),
	}
	for kind, secret := range secrets {
		if len(secret) == 0 {
			return nil, fmt.Errorf("token: missing %s secret", kind)
		}
	}
	return &Issuer{
		secrets: secrets,
		ttls: map[Kind]time.Duration{
			Access:  cfg.AccessTokenTTL,
			Refresh: cfg.RefreshTokenTTL,
		},
		now: time.Now,
	}, nil
}

// TTL is the default lifetime of tokens of the given kind.
func (i *Issuer) TTL(kind Kind) time.Duration { return i.ttls[kind] }

// Issue mints a user token of the given kind with its default lifetime.
func (i *Issuer) Issue(userID string, kind Kind) (string, time.Time, error) {
	return i.IssueWithTTL(userID, kind, i.ttls[kind])
}

func (i *Issuer) IssueWithTTL(userID string, kind Kind, ttl time.Duration) (string, time.Time, error) {
	if kind == Invitation {
		return "", time.Time{}, fmt.Errorf("token: use IssueInvitation for invitation tokens")
	}
	now := i.now().UTC()
	expiresAt := now.Add(ttl)
	signed, err := i.sign(kind, Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	return signed, expiresAt, err
}

func (i *Issuer) IssueInvitation(invitationID uuid.UUID, expiresAt time.Time) (string, error) {
	return i.sign(Invitation, Claims{
		InvitationID: invitationID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(i.now().UTC()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
}

func (i *Issuer) sign(kind Kind, claims Claims) (string, error) {
	return jwt.NewWithClaims(signingMethod, claims).SignedString(i.secrets[kind])
}

// Verify checks signature and expiry of a user token. It fails with ErrTokenExpired
// only when the signature is good but exp has passed; every other failure,
// including a missing userId claim, is ErrTokenInvalid.
func (i *Issuer) Verify(tokenString string, kind Kind) (*Claims, error) {
	claims, err := i.parse(tokenString, kind)
	if err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func (i *Issuer) VerifyInvitation(tokenString string) (uuid.UUID, error) {
	claims, err := i.parse(tokenString, Invitation)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(claims.InvitationID)
	if err != nil {
		return uuid.Nil, ErrTokenInvalid
	}
	return id, nil
}

func (i *Issuer) parse(tokenString string, kind Kind) (*Claims, error) {
	secret, ok := i.secrets[kind]
	if !ok {
		return nil, ErrTokenInvalid
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// Decode reads claims without checking the signature or expiry. Only use it
// where the result is compared against an already authenticated identity.
func Decode(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
