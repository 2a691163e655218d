package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/quickcook/quickcook/internal/auth"
	"github.com/quickcook/quickcook/internal/domain/user"
)

func testUser() user.User {
	return user.User{
		ID:       "5f6d3c2f-8e0e-4f79-9c36-9a4c2b1d0e7a",
		Username: "chef1",
		Email:    "chef1@x.com",
	}
}

func TestIssueAndVerify(t *testing.T) {
	m := auth.NewManager("test-secret", 7*24*time.Hour)

	token, err := m.Issue(testUser())

	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	claims, err := m.Verify(token)

	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	// the user id travels in the registered subject claim, nowhere else
	if claims.Subject != testUser().ID {
		t.Errorf("got subject %q, want %q", claims.Subject, testUser().ID)
	}

	if claims.Username != "chef1" {
		t.Errorf("got username %q, want chef1", claims.Username)
	}

	if claims.Email != "chef1@x.com" {
		t.Errorf("got email %q, want chef1@x.com", claims.Email)
	}

	// expiry is seven days out, give or take a minute of test slack
	wantExp := time.Now().Add(7 * 24 * time.Hour)
	gotExp := claims.ExpiresAt.Time

	if gotExp.Before(wantExp.Add(-time.Minute)) || gotExp.After(wantExp.Add(time.Minute)) {
		t.Errorf("expiry %v not within a minute of %v", gotExp, wantExp)
	}
}

func TestVerifyRejectsInvalidTokens(t *testing.T) {
	m := auth.NewManager("test-secret", 7*24*time.Hour)

	expired := auth.NewManager("test-secret", -time.Hour)
	expiredToken, err := expired.Issue(testUser())
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	otherSecret := auth.NewManager("other-secret", time.Hour)
	foreignToken, err := otherSecret.Issue(testUser())
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	// a token signed with "none" must never pass the HS256 keyfunc
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": testUser().ID})
	unsignedToken, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not.a.jwt"},
		{name: "expired", token: expiredToken},
		{name: "wrong_secret", token: foreignToken},
		{name: "alg_none", token: unsignedToken},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			claims, err := m.Verify(tt.token)

			if err == nil {
				t.Fatalf("expected verification to fail, got claims %+v", claims)
			}

			// the error must not leak why the token failed
			if err.Error() != "invalid token" {
				t.Errorf("got error %q, want uniform %q", err.Error(), "invalid token")
			}
		})
	}
}
