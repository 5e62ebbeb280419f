package security

import (
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type WorkerIdentity struct {
	WorkerID string
	Name     string
	Tenant   string
	DeviceID string
}

// WorkerClaims includes the worker identity and standard JWT claims.

type Identity struct {
	WorkerID string `json:"workerId"`
	Name     string `json:"name"`
	Tenant   string `json:"tenant"`
	DeviceID string `json:"deviceId"`
}

type WorkerClaims struct {
	Identity
	jwt.RegisteredClaims
}

// CreateWorkerToken mints the HS256 token a device presents on every
// sync call. The secret is base64 so it can live in SSM as text.
func CreateWorkerToken(identity *WorkerIdentity, base64Secret string, expiresInSeconds int64) (string, error) {
	secretBytes, err := base64.StdEncoding.DecodeString(base64Secret)
	if err != nil {
		return "", err
	}
	claims := WorkerClaims{
		Identity: Identity{
			WorkerID: identity.WorkerID,
			Name:     identity.Name,
			Tenant:   identity.Tenant,
			DeviceID: identity.DeviceID,
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "siteclock",
			Audience:  []string{"*.siteclock.com"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(expiresInSeconds) * time.Second)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(secretBytes)
}
