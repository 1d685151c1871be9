package utils // package utils provides helper functions for token creation

import (
    "strconv"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/google/uuid"
)

// NewAccessToken builds and signs an HS256 JWT for a user.  The subject
// is the decimal user id, as the API's JWTAuth middleware expects.
// Tokens for customers and reviewers are normally minted by the user
// directory; seatctl uses this for operators and local testing.  A
// negative ttl yields an already expired token.
func NewAccessToken(secret string, userID int64, role string, ttl time.Duration) (string, error) {
    now := time.Now().UTC()
    claims := jwt.MapClaims{
        "sub":  strconv.FormatInt(userID, 10),
        "role": role,
        "exp":  now.Add(ttl).Unix(),
        "iat":  now.Unix(),
        "jti":  uuid.NewString(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    return t.SignedString([]byte(secret))
}
