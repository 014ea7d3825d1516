package xchange

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func TestPasswordAuthenticator(t *testing.T) {
	auth := NewPasswordAuthenticator("hunter2")

	msg, err := auth.LoginMessage("texastech")
	if err != nil {
		t.Fatalf("LoginMessage: %v", err)
	}
	if msg.Type != FrameLogin || msg.Username != "texastech" || msg.Password != "hunter2" {
		t.Errorf("login message = %+v", msg)
	}
	if msg.Token != "" {
		t.Error("password login must not carry a token")
	}
}

func TestJWTAuthenticator(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der})

	auth, err := NewJWTAuthenticator("team-key-1", string(keyPEM))
	if err != nil {
		t.Fatalf("NewJWTAuthenticator: %v", err)
	}

	msg, err := auth.LoginMessage("texastech")
	if err != nil {
		t.Fatalf("LoginMessage: %v", err)
	}
	if msg.Password != "" {
		t.Error("JWT login must not carry a password")
	}
	if msg.Token == "" {
		t.Fatal("JWT login missing token")
	}

	parsed, err := jwt.Parse(msg.Token, func(token *jwt.Token) (interface{}, error) {
		return &key.PublicKey, nil
	})
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatal("unexpected claims type")
	}
	if claims["sub"] != "texastech" || claims["iss"] != "team-key-1" {
		t.Errorf("claims = %v", claims)
	}
	if claims["nonce"] == "" {
		t.Error("token missing nonce")
	}
}

func TestJWTAuthenticator_BadKey(t *testing.T) {
	if _, err := NewJWTAuthenticator("team-key-1", "not a pem"); err == nil {
		t.Error("expected an error for a malformed key")
	}
}
