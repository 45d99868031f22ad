package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/nickyhof/LineDB/core"
)

// AuthConfig configures server authentication.
type AuthConfig struct {
	// Enabled requires every connection to AUTH before running queries.
	Enabled bool

	// JWTSecret is the shared secret for HS256 JWT validation.
	JWTSecret string

	// Issuer is the expected "iss" claim in JWTs.
	Issuer string

	// Audience is the expected "aud" claim in JWTs (optional).
	Audience string

	// NameClaim is the JWT claim for user's name (default: "name").
	NameClaim string

	// EmailClaim is the JWT claim for user's email (default: "email").
	EmailClaim string

	// Users maps user names to bcrypt password hashes for AUTH PASSWORD.
	Users map[string]string
}

// LoadUsers reads "user:bcrypt-hash" lines. Blank lines and lines starting
// with '#' are skipped.
func LoadUsers(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open users file: %w", err)
	}
	defer f.Close()

	users := make(map[string]string)
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		user, hash, ok := strings.Cut(line, ":")
		if !ok || user == "" || hash == "" {
			return nil, fmt.Errorf("%s:%d: expected user:hash", path, lineNo)
		}
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("%s:%d: invalid bcrypt hash for %s: %w", path, lineNo, user, err)
		}
		users[user] = hash
	}
	return users, scanner.Err()
}

// ConnectionState tracks per-connection authentication state.
type ConnectionState struct {
	id            string
	identity      *core.Identity
	authenticated bool
	tokenExpiry   time.Time
}

// IsAuthenticated reports whether the connection authenticated and its
// token, if any, has not expired.
func (cs *ConnectionState) IsAuthenticated() bool {
	if !cs.authenticated {
		return false
	}
	return cs.tokenExpiry.IsZero() || time.Now().Before(cs.tokenExpiry)
}

// Identity returns the connection's identity, or nil if not authenticated.
func (cs *ConnectionState) Identity() *core.Identity {
	return cs.identity
}

// authResult represents the result of an authentication attempt.
type authResult struct {
	identity  core.Identity
	expiresAt time.Time
	err       error
}

// validateJWT validates a JWT token and extracts identity claims.
func (s *Server) validateJWT(tokenString string) authResult {
	if s.auth == nil || s.auth.JWTSecret == "" {
		return authResult{err: errors.New("JWT authentication not configured")}
	}

	nameClaim := s.auth.NameClaim
	if nameClaim == "" {
		nameClaim = "name"
	}
	emailClaim := s.auth.EmailClaim
	if emailClaim == "" {
		emailClaim = "email"
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.auth.JWTSecret), nil
	}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	if err != nil {
		return authResult{err: fmt.Errorf("invalid token: %w", err)}
	}
	if !token.Valid {
		return authResult{err: errors.New("invalid token")}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return authResult{err: errors.New("invalid token claims")}
	}

	if s.auth.Issuer != "" {
		issuer, _ := claims.GetIssuer()
		if issuer != s.auth.Issuer {
			return authResult{err: fmt.Errorf("invalid issuer: expected %s, got %s", s.auth.Issuer, issuer)}
		}
	}

	if s.auth.Audience != "" {
		audiences, _ := claims.GetAudience()
		found := false
		for _, aud := range audiences {
			if aud == s.auth.Audience {
				found = true
				break
			}
		}
		if !found {
			return authResult{err: fmt.Errorf("invalid audience: expected %s", s.auth.Audience)}
		}
	}

	name, _ := claims[nameClaim].(string)
	email, _ := claims[emailClaim].(string)
	if name == "" && email == "" {
		return authResult{err: fmt.Errorf("token missing identity claims (%s or %s)", nameClaim, emailClaim)}
	}

	var expiresAt time.Time
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expiresAt = exp.Time
	}

	return authResult{
		identity:  core.Identity{Name: name, Email: email},
		expiresAt: expiresAt,
	}
}

// validatePassword checks user and password against the bcrypt hashes.
func (s *Server) validatePassword(user, password string) authResult {
	if s.auth == nil || len(s.auth.Users) == 0 {
		return authResult{err: errors.New("password authentication not configured")}
	}

	hash, ok := s.auth.Users[user]
	if !ok {
		return authResult{err: errors.New("invalid user or password")}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return authResult{err: errors.New("invalid user or password")}
	}

	return authResult{identity: core.Identity{Name: user}}
}

// parseAuthCommand splits an AUTH line into its type and credentials.
// Supported formats:
//   - AUTH JWT <token>
//   - AUTH PASSWORD <user> <password>
func parseAuthCommand(line string) (authType string, credentials []string, err error) {
	parts := strings.Fields(line)
	if len(parts) == 0 || !strings.EqualFold(parts[0], "AUTH") {
		return "", nil, errors.New("not an AUTH command")
	}
	if len(parts) < 3 {
		return "", nil, errors.New("invalid AUTH command: expected AUTH <type> <credentials>")
	}

	authType = strings.ToUpper(parts[1])
	switch authType {
	case "JWT":
		if len(parts) != 3 {
			return "", nil, errors.New("invalid AUTH command: expected AUTH JWT <token>")
		}
	case "PASSWORD":
		if len(parts) != 4 {
			return "", nil, errors.New("invalid AUTH command: expected AUTH PASSWORD <user> <password>")
		}
	default:
		return "", nil, fmt.Errorf("unsupported auth type: %s", authType)
	}
	return authType, parts[2:], nil
}

func isAuthCommand(line string) bool {
	word, _, _ := strings.Cut(strings.TrimSpace(line), " ")
	return strings.EqualFold(word, "AUTH")
}

// handleAuth processes an AUTH command and returns the response.
func (s *Server) handleAuth(line string, state *ConnectionState) Response {
	authType, credentials, err := parseAuthCommand(line)
	if err != nil {
		return failResponse("auth", err.Error())
	}

	var result authResult
	switch authType {
	case "JWT":
		result = s.validateJWT(credentials[0])
	case "PASSWORD":
		result = s.validatePassword(credentials[0], credentials[1])
	}
	if result.err != nil {
		return failResponse("auth", result.err.Error())
	}

	state.identity = &result.identity
	state.authenticated = true
	state.tokenExpiry = result.expiresAt

	report := "Authenticated as " + result.identity.String()
	if !result.expiresAt.IsZero() {
		report += fmt.Sprintf(" (expires in %ds)", int(time.Until(result.expiresAt).Seconds()))
	}
	return Response{
		Success:  true,
		Status:   "OK",
		Type:     "auth",
		Report:   report,
		Identity: result.identity.String(),
	}
}
