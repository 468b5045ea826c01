// Package auth provides JWT-based authentication for the API.
//
// Authentication is optional: with no secret configured the middleware
// passes every request through. When enabled, devices exchange the shared
// API key for a long-lived device token via HandleToken.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fruitsalade/breadbox/internal/logging"
	"github.com/fruitsalade/breadbox/internal/metrics"
	"github.com/fruitsalade/breadbox/pkg/protocol"
)

type contextKey string

const deviceContextKey contextKey = "device"

// Claims holds JWT token claims for an enrolled device.
type Claims struct {
	DeviceID   string `json:"device_id"`
	DeviceName string `json:"device_name"`
	jwt.RegisteredClaims
}

// Auth issues and validates device tokens.
type Auth struct {
	secret     []byte
	apiKeyHash []byte
	tokenTTL   time.Duration
}

// New creates an Auth handler. An empty jwtSecret disables authentication;
// apiKeyHash is the bcrypt hash devices must match to enroll.
func New(jwtSecret, apiKeyHash string, tokenTTL time.Duration) *Auth {
	return &Auth{
		secret:     []byte(jwtSecret),
		apiKeyHash: []byte(apiKeyHash),
		tokenTTL:   tokenTTL,
	}
}

// Enabled reports whether authentication is configured.
func (a *Auth) Enabled() bool { return len(a.secret) > 0 }

// Middleware returns HTTP middleware that validates Bearer tokens. With
// authentication disabled it passes requests through untouched.
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		tokenStr := extractToken(r)
		if tokenStr == "" {
			metrics.RecordAuthAttempt(false)
			sendAuthError(w, http.StatusUnauthorized, "missing authentication token")
			return
		}

		claims, err := a.validateToken(tokenStr)
		if err != nil {
			metrics.RecordAuthAttempt(false)
			sendAuthError(w, http.StatusUnauthorized, "invalid token: "+err.Error())
			return
		}

		ctx := context.WithValue(r.Context(), deviceContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetClaims extracts device claims from the request context.
func GetClaims(ctx context.Context) *Claims {
	claims, _ := ctx.Value(deviceContextKey).(*Claims)
	return claims
}

// WithClaims injects claims into a context.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, deviceContextKey, claims)
}

// HandleToken handles POST /api/v1/auth/token: it verifies the shared API
// key and issues a device-scoped JWT.
func (a *Auth) HandleToken(w http.ResponseWriter, r *http.Request) {
	if !a.Enabled() {
		sendAuthError(w, http.StatusNotFound, "authentication is not configured")
		return
	}

	var req protocol.TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.RecordAuthAttempt(false)
		sendAuthError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.APIKey == "" {
		metrics.RecordAuthAttempt(false)
		sendAuthError(w, http.StatusBadRequest, "api_key required")
		return
	}

	if err := bcrypt.CompareHashAndPassword(a.apiKeyHash, []byte(req.APIKey)); err != nil {
		metrics.RecordAuthAttempt(false)
		logging.Warn("token request with invalid api key",
			zap.String("device", req.DeviceName))
		sendAuthError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	deviceName := req.DeviceName
	if deviceName == "" {
		deviceName = "unknown"
	}

	tokenStr, claims, err := a.issueToken(deviceName)
	if err != nil {
		metrics.RecordAuthAttempt(false)
		logging.Error("failed to sign token", zap.Error(err))
		sendAuthError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	metrics.RecordAuthAttempt(true)
	logging.Info("device token issued",
		zap.String("device", deviceName),
		zap.String("device_id", claims.DeviceID))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(protocol.TokenResponse{
		Token:     tokenStr,
		DeviceID:  claims.DeviceID,
		ExpiresAt: claims.ExpiresAt.Time,
	})
}

func (a *Auth) issueToken(deviceName string) (string, *Claims, error) {
	now := time.Now()
	claims := &Claims{
		DeviceID:   uuid.NewString(),
		DeviceName: deviceName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(a.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "breadbox",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString(a.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return tokenStr, claims, nil
}

func (a *Auth) validateToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})

	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

func extractToken(r *http.Request) string {
	// Bearer token from Authorization header
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	// Query parameter fallback for SSE clients that cannot set headers
	return r.URL.Query().Get("token")
}

func sendAuthError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(protocol.ErrorResponse{
		Error: message,
		Code:  code,
	})
}
