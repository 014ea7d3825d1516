package xchange

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthType selects how the login frame is credentialed.
type AuthType string

const (
	AuthTypePassword AuthType = "password"
	AuthTypeJWT      AuthType = "jwt"
)

// Authenticator fills the credential fields of a login frame.
type Authenticator interface {
	LoginMessage(username string) (LoginMessage, error)
}

// PasswordAuthenticator sends the shared-secret password directly.
type PasswordAuthenticator struct {
	password string
}

func NewPasswordAuthenticator(password string) *PasswordAuthenticator {
	return &PasswordAuthenticator{password: password}
}

func (p *PasswordAuthenticator) LoginMessage(username string) (LoginMessage, error) {
	return LoginMessage{
		Type:     FrameLogin,
		Username: username,
		Password: p.password,
	}, nil
}

// JWTAuthenticator signs a short-lived ES256 session token instead of
// sending a password over the wire.
type JWTAuthenticator struct {
	keyName    string
	privateKey *ecdsa.PrivateKey
}

func NewJWTAuthenticator(keyName, privateKeyPEM string) (*JWTAuthenticator, error) {
	block, _ := pem.Decode([]byte(privateKeyPEM))
	if block == nil {
		return nil, fmt.Errorf("failed to parse PEM block containing the private key")
	}

	privateKey, err := x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		// Try PKCS8 format
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse EC private key: %w", err)
		}
		var ok bool
		privateKey, ok = key.(*ecdsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("not an EC private key")
		}
	}

	return &JWTAuthenticator{
		keyName:    keyName,
		privateKey: privateKey,
	}, nil
}

func (j *JWTAuthenticator) LoginMessage(username string) (LoginMessage, error) {
	token, err := j.generateToken(username)
	if err != nil {
		return LoginMessage{}, fmt.Errorf("failed to generate session token: %w", err)
	}

	return LoginMessage{
		Type:     FrameLogin,
		Username: username,
		Token:    token,
	}, nil
}

func (j *JWTAuthenticator) generateToken(username string) (string, error) {
	nonce, err := generateNonce()
	if err != nil {
		return "", err
	}

	claims := jwt.MapClaims{
		"sub":   username,
		"iss":   j.keyName,
		"nbf":   time.Now().Unix(),
		"exp":   time.Now().Add(2 * time.Minute).Unix(),
		"nonce": nonce,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = j.keyName

	tokenString, err := token.SignedString(j.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

func generateNonce() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
