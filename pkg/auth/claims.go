package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/denizaksoy/ovenline-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	ActorID   uuid.UUID
	ActorRole enums.ActorRole
	JTI       string
}

// AccessTokenClaims represents the typed JWT issued to clients. The actor id
// and role always travel together so downstream code never infers one from
// the other.
type AccessTokenClaims struct {
	ActorID   uuid.UUID       `json:"actor_id"`
	ActorRole enums.ActorRole `json:"actor_role"`
	jwt.RegisteredClaims
}
