package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/devlance-app/devlance_be/internal/middleware"
	"github.com/devlance-app/devlance_be/internal/models"
	"github.com/devlance-app/devlance_be/internal/utils"
)

const testJWTSecret = "test-secret"

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// A named in-memory database with a shared cache, so every pooled
	// connection sees the same data but tests stay isolated from each other.
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.ClientProfile{},
		&models.DeveloperProfile{},
		&models.Job{},
		&models.Proposal{},
	))

	return db
}

// newTestApp wires the same route table as cmd/api against a throwaway
// database. The browse cache stays nil; redis is not part of the suite.
func newTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db := newTestDB(t)

	authH := &AuthHandler{DB: db, JWTSecret: testJWTSecret, Expires: 60}
	onboardH := NewOnboardingHandler(db, t.TempDir(), "", testJWTSecret, 60)
	jobH := NewJobHandler(db, nil)
	browseH := NewBrowseHandler(db, nil)
	proposalH := NewProposalHandler(db)
	userH := NewUserHandler(db)

	app := fiber.New()
	api := app.Group("/api")

	api.Post("/auth/register", authH.Register)
	api.Post("/auth/login", authH.Login)
	api.Post("/auth/logout", authH.Logout)
	api.Get("/jobs", browseH.List)
	api.Get("/users/:id", userH.GetProfile)

	protected := api.Group("/",
		middleware.JWTFromCookie(testJWTSecret),
		middleware.AttachJWTLocals(),
	)

	protected.Get("/me", authH.Me)
	protected.Get("/jobs/:jobId", jobH.Get)

	protected.Post("/onboarding/role", onboardH.SetRole)
	protected.Post("/onboarding/client-profile",
		middleware.RequireRoles("client"),
		onboardH.SetupClientProfile,
	)
	protected.Post("/onboarding/developer-profile",
		middleware.RequireRoles("developer"),
		onboardH.SetupDeveloperProfile,
	)
	protected.Post("/onboarding/proof",
		middleware.RequireRoles("developer"),
		onboardH.UploadProof,
	)

	client := protected.Group("/client", middleware.RequireRoles("client"))
	client.Post("/jobs", jobH.Create)
	client.Get("/jobs", jobH.ListMine)
	client.Put("/jobs/:jobId", jobH.Update)
	client.Patch("/jobs/:jobId/status", jobH.ToggleStatus)
	client.Delete("/jobs/:jobId", jobH.Delete)
	client.Patch("/jobs/:jobId/proposals/:proposalId", proposalH.Decide)

	developer := protected.Group("/developer", middleware.RequireRoles("developer"))
	developer.Post("/proposals", proposalH.Submit)
	developer.Get("/proposals", proposalH.ListMine)

	return app, db
}

func seedUser(t *testing.T, db *gorm.DB, name, email string, role models.Role) models.User {
	t.Helper()

	hashed, err := utils.HashPassword("Secret123!")
	require.NoError(t, err)

	u := models.User{
		Name:     name,
		Email:    email,
		Password: hashed,
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func seedJob(t *testing.T, db *gorm.DB, clientID uuid.UUID, title string, budget int64, skills []string, category string) models.Job {
	t.Helper()

	job := models.Job{
		ClientID:    clientID,
		Title:       title,
		Description: "description of " + title,
		Budget:      budget,
		Skills:      toJSONList(skills),
		Category:    category,
		Status:      models.JobStatusOpen,
	}
	require.NoError(t, db.Create(&job).Error)
	return job
}

func seedProposal(t *testing.T, db *gorm.DB, jobID, developerID uuid.UUID, createdAt time.Time) models.Proposal {
	t.Helper()

	p := models.Proposal{
		JobID:          jobID,
		DeveloperID:    developerID,
		ProposalText:   "I can do this",
		ProposedBudget: 900,
		DeliveryTime:   10,
		Status:         models.ProposalStatusPending,
		CreatedAt:      createdAt,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func authCookie(t *testing.T, u models.User) *http.Cookie {
	t.Helper()

	token, err := utils.SignJWT(testJWTSecret, u.ID.String(), string(u.Role), 60)
	require.NoError(t, err)
	return &http.Cookie{Name: "dl_token", Value: token}
}

// doJSON performs a request against the app and decodes the JSON body.
func doJSON(t *testing.T, app *fiber.App, method, target string, body any, cookies ...*http.Cookie) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	// Middleware rejections pass through fiber's default error handler and
	// come back as plain text, everything else is JSON.
	out := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			out["message"] = string(raw)
		}
	}

	return resp.StatusCode, out
}

func dataMap(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	data, ok := body["data"].(map[string]any)
	require.True(t, ok, "expected data object, got: %v", body)
	return data
}
