package auth

import (
	"errors"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/tradepeer/tradepeer-api/internal/types"
	"github.com/tradepeer/tradepeer-api/pkg/response"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrTokenGeneration    = errors.New("failed to generate token")
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// SignUpRequest carries the sign-up form fields.
type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

// SignInRequest carries the sign-in form fields.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Claims represents the JWT claims structure
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// Service handles authentication and profile creation
type Service struct {
	jwtSecret []byte
	db        *Database
}

// NewService creates a new authentication service with the given JWT secret
func NewService(jwtSecret string, gormDB *gorm.DB) *Service {
	return &Service{
		jwtSecret: []byte(jwtSecret),
		db:        NewDatabase(gormDB),
	}
}

// SignUp validates the registration input and creates a profile row.
// Validation order and messages follow the sign-up form: required fields,
// username length, username charset, password length.
func (s *Service) SignUp(req SignUpRequest) (*types.Profile, error) {
	if req.Email == "" || req.Password == "" || req.Username == "" {
		return nil, types.NewValidationError("form", "All fields are required")
	}

	if len(req.Username) < 3 || len(req.Username) > 20 {
		return nil, types.NewValidationError("username", "Username must be between 3 and 20 characters")
	}

	if !usernamePattern.MatchString(req.Username) {
		return nil, types.NewValidationError("username", "Username can only contain letters, numbers, and underscores")
	}

	if len(req.Password) < 6 {
		return nil, types.NewValidationError("password", "Password must be at least 6 characters")
	}

	if existing, err := s.db.GetProfileByUsername(req.Username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, types.NewValidationError("username", "Username is already taken")
	}

	if existing, err := s.db.GetProfileByEmail(req.Email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, types.NewValidationError("email", "An account with this email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	profile := &types.Profile{
		ProfileID:    uuid.New().String(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := s.db.CreateProfile(profile); err != nil {
		return nil, err
	}

	return profile, nil
}

// SignIn verifies credentials and issues a JWT with 24-hour expiration.
func (s *Service) SignIn(req SignInRequest) (*types.TokenResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, types.NewValidationError("form", "Email and password are required")
	}

	profile, err := s.db.GetProfileByEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	expiration := time.Now().Add(24 * time.Hour)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiration),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
		UserID:   profile.ProfileID,
		Username: profile.Username,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, ErrTokenGeneration
	}

	return &types.TokenResponse{
		Token:      tokenString,
		Expiration: expiration,
		UserID:     profile.ProfileID,
		Username:   profile.Username,
	}, nil
}

// ValidateToken validates a JWT token and returns the claims
// Verifies token signature and expiration
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// GetProfileByUsername looks up a public profile by its username.
func (s *Service) GetProfileByUsername(username string) (*types.Profile, error) {
	return s.db.GetProfileByUsername(username)
}

// GinHandlers contains HTTP handlers for authentication endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for authentication endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// SignUpHandler handles POST requests to register a new user
func (h *GinHandlers) SignUpHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SignUpRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request body")
			return
		}

		profile, err := h.service.SignUp(req)
		response.Handle(c, profile, err)
	}
}

// SignInHandler handles POST requests to exchange credentials for a JWT
func (h *GinHandlers) SignInHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SignInRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request body")
			return
		}

		token, err := h.service.SignIn(req)
		if errors.Is(err, ErrInvalidCredentials) {
			response.Unauthorized(c, err.Error())
			return
		}
		response.Handle(c, token, err)
	}
}

// CurrentUserID extracts the acting user's id from the gin context set by the
// auth middleware. Returns ErrUnauthenticated when no user is present, which
// is the only unauthenticated signal services act on.
func CurrentUserID(c *gin.Context) (string, error) {
	userID := c.GetString("userID")
	if userID == "" {
		return "", types.ErrUnauthenticated
	}
	return userID, nil
}
