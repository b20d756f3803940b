package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/homemates/homemates-server/internal/api"
	"github.com/homemates/homemates-server/internal/config"
	"github.com/homemates/homemates-server/internal/models"
	"github.com/homemates/homemates-server/internal/repository"
	"github.com/homemates/homemates-server/internal/service"
)

// TestContext holds all dependencies for tests
type TestContext struct {
	Router     *gin.Engine
	Repository repository.Repository
	Service    service.Service
	JWTSecret  []byte
	DB         *sqlx.DB
}

// TestUser is a seeded account plus a valid bearer token for it.
type TestUser struct {
	ID    string
	Email string
	Name  string
	Token string
}

// SetupTestContext creates a new test context with initialized dependencies
func SetupTestContext(t *testing.T) *TestContext {
	// Load configuration from environment
	cfg := config.LoadConfig()

	// Override with test-specific config
	if cfg.Database.DBName == "homemates" && cfg.Database.TestDBName != "" {
		cfg.Database.DBName = cfg.Database.TestDBName
	} else if cfg.Database.TestDBName == "" {
		cfg.Database.DBName = "homemates_test"
	}

	// Use a test JWT secret
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = "test-secret-key"
	}

	// Set up database
	db, err := config.SetupDatabase(cfg)
	require.NoError(t, err, "Failed to set up test database")

	// Create repository
	repo := repository.NewPostgresRepository(db)

	// Create service
	svc := service.NewDefaultService(repo, cfg.Auth.JWTSecret)

	// Create API handler
	handler := api.NewHandler(svc)

	// Set up Gin router
	gin.SetMode(gin.TestMode)
	router := gin.Default()

	// Add middleware for JWT secret
	router.Use(func(c *gin.Context) {
		c.Set("jwtSecret", []byte(cfg.Auth.JWTSecret))
		c.Next()
	})

	// Set up routes
	handler.SetupRoutes(router)

	testCtx := &TestContext{
		Router:     router,
		Repository: repo,
		Service:    svc,
		JWTSecret:  []byte(cfg.Auth.JWTSecret),
		DB:         db,
	}
	cleanupTestDatabase(t, testCtx)
	return testCtx
}

// CleanupTestContext cleans up test resources
func CleanupTestContext(t *testing.T, testCtx *TestContext) {
	if testCtx.DB != nil {
		cleanupTestDatabase(t, testCtx)
		testCtx.DB.Close()
	}
}

// cleanupTestDatabase removes all test data, children first.
func cleanupTestDatabase(t *testing.T, testCtx *TestContext) {
	tables := []string{
		"task_swaps",
		"tasks",
		"expense_shares",
		"expenses",
		"settlements",
		"debts",
		"group_members",
		"groups",
		"users",
	}
	for _, table := range tables {
		if _, err := testCtx.DB.Exec("DELETE FROM " + table); err != nil {
			t.Logf("Warning: Failed to clean %s: %v", table, err)
		}
	}
}

// CreateTestUser seeds a user and returns it with a valid token.
func CreateTestUser(t *testing.T, testCtx *TestContext, name string) TestUser {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("testpassword"), bcrypt.DefaultCost)
	require.NoError(t, err)

	user := &models.User{
		ID:       uuid.New().String(),
		Email:    fmt.Sprintf("%s-%s@example.com", name, uuid.New().String()[:8]),
		Name:     name,
		Password: string(hashedPassword),
	}
	err = testCtx.Repository.CreateUser(context.Background(), user)
	require.NoError(t, err, "Failed to create test user")

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": user.ID,
		"exp": time.Now().Add(24 * time.Hour).Unix(),
		"iat": time.Now().Unix(),
	})
	tokenString, err := token.SignedString(testCtx.JWTSecret)
	require.NoError(t, err, "Failed to generate JWT token")

	return TestUser{ID: user.ID, Email: user.Email, Name: user.Name, Token: tokenString}
}

// CreateTestGroup seeds a group owned by the given user and adds the other
// users as members.
func CreateTestGroup(t *testing.T, testCtx *TestContext, owner TestUser, members ...TestUser) string {
	t.Helper()

	group := &models.Group{Name: "Test Household", CreatedBy: owner.ID}
	err := testCtx.Repository.CreateGroup(context.Background(), group)
	require.NoError(t, err, "Failed to create test group")

	for _, m := range members {
		err := testCtx.Repository.AddGroupMember(context.Background(), &models.GroupMember{
			GroupID: group.ID,
			UserID:  m.ID,
		})
		require.NoError(t, err, "Failed to add group member")
	}
	return group.ID
}

// SeedDebt inserts one raw debt row.
func SeedDebt(t *testing.T, testCtx *TestContext, groupID string, from, to TestUser, amount float64, currency string) {
	t.Helper()

	err := testCtx.Repository.CreateDebt(context.Background(), &models.Debt{
		GroupID:    groupID,
		FromUserID: from.ID,
		ToUserID:   to.ID,
		Amount:     amount,
		Currency:   currency,
	})
	require.NoError(t, err, "Failed to seed debt")
}

// PerformRequest executes an HTTP request against the router
func PerformRequest(r http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer

	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBody)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// DecodeResponse unmarshals a recorded JSON body into out.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), out), "Failed to decode response: %s", w.Body.String())
}

// AuthHeaders returns headers with Authorization token
func AuthHeaders(token string) map[string]string {
	return map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", token),
	}
}
