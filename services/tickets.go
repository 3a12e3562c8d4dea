package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/CrowderSoup/taskquest/database"
)

// TicketIssuer signs short-lived tickets that let a group member open a
// live-update websocket for that group.
type TicketIssuer struct {
	secret []byte
	ttl    time.Duration
	now    Clock
}

func NewTicketIssuer(secret string, ttl time.Duration, now Clock) *TicketIssuer {
	if now == nil {
		now = time.Now
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &TicketIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    now,
	}
}

type ticketClaims struct {
	GroupID database.ID `json:"groupId"`
	UserID  database.ID `json:"userId"`
	jwt.RegisteredClaims
}

// Issue creates a ticket for userID in groupID. Membership must already be
// checked by the caller.
func (t *TicketIssuer) Issue(groupID, userID database.ID) (string, error) {
	now := t.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, ticketClaims{
		GroupID: groupID,
		UserID:  userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	})

	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign ticket: %w", err)
	}
	return signed, nil
}

// Verify checks a ticket and returns the group and user it was issued for.
func (t *TicketIssuer) Verify(ticket string) (database.ID, database.ID, error) {
	claims := &ticketClaims{}
	token, err := jwt.ParseWithClaims(ticket, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to parse ticket: %w", err)
	}
	if !token.Valid {
		return 0, 0, errors.New("invalid ticket")
	}
	if !claims.GroupID.Valid() || !claims.UserID.Valid() {
		return 0, 0, errors.New("ticket claims missing")
	}
	return claims.GroupID, claims.UserID, nil
}
