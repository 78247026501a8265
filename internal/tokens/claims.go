package tokens

import "github.com/golang-jwt/jwt/v5"

// AccessClaims prove authenticated identity and roles on every protected
// request. Roles are trusted from the signature, not re-read from storage.
type AccessClaims struct {
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
	jwt.RegisteredClaims
}

// RefreshClaims carry only the subject; they are good for nothing but
// obtaining a new token pair.
type RefreshClaims struct {
	jwt.RegisteredClaims
}
