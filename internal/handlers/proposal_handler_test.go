package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/devlance-app/devlance_be/internal/models"
)

func TestSubmitProposal(t *testing.T) {
	app, db := newTestApp(t)

	client := seedUser(t, db, "Carla Client", "carla@example.com", models.RoleClient)
	dev := seedUser(t, db, "Dave Dev", "dave@example.com", models.RoleDeveloper)
	job := seedJob(t, db, client.ID, "Build an API", 1500, []string{"go", "postgres"}, "backend")

	body := fiber.Map{
		"jobId":          job.ID.String(),
		"proposalText":   "I have shipped three of these",
		"proposedBudget": 1200,
		"deliveryTime":   14,
	}

	status, resp := doJSON(t, app, http.MethodPost, "/api/developer/proposals", body, authCookie(t, dev))
	require.Equal(t, http.StatusCreated, status)

	data := dataMap(t, resp)
	assert.Equal(t, "pending", data["status"])
	assert.Equal(t, job.ID.String(), data["job_id"])
	assert.Equal(t, dev.ID.String(), data["developer_id"])
	assert.EqualValues(t, 1200, data["proposed_budget"])
	assert.EqualValues(t, 14, data["delivery_time"])

	developer, ok := data["developer"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Dave Dev", developer["name"])
}

func TestSubmitProposalDuplicateConflict(t *testing.T) {
	app, db := newTestApp(t)

	client := seedUser(t, db, "Carla", "carla@example.com", models.RoleClient)
	dev := seedUser(t, db, "Dave", "dave@example.com", models.RoleDeveloper)
	job := seedJob(t, db, client.ID, "Build an API", 1500, []string{"go"}, "backend")

	body := fiber.Map{
		"jobId":          job.ID.String(),
		"proposalText":   "first one",
		"proposedBudget": 1000,
		"deliveryTime":   7,
	}

	status, _ := doJSON(t, app, http.MethodPost, "/api/developer/proposals", body, authCookie(t, dev))
	require.Equal(t, http.StatusCreated, status)

	body["proposalText"] = "second try"
	status, resp := doJSON(t, app, http.MethodPost, "/api/developer/proposals", body, authCookie(t, dev))
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, false, resp["success"])

	var count int64
	require.NoError(t, db.Model(&models.Proposal{}).
		Where("job_id = ?", job.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestSubmitProposalUniqueIndexBacksPreCheck(t *testing.T) {
	// Inserting the duplicate directly must fail at the database even when
	// the handler pre-check is bypassed.
	db := newTestDB(t)

	client := seedUser(t, db, "Carla", "carla@example.com", models.RoleClient)
	dev := seedUser(t, db, "Dave", "dave@example.com", models.RoleDeveloper)
	job := seedJob(t, db, client.ID, "Build an API", 1500, []string{"go"}, "backend")

	seedProposal(t, db, job.ID, dev.ID, time.Now())

	dup := models.Proposal{
		JobID:          job.ID,
		DeveloperID:    dev.ID,
		ProposalText:   "again",
		ProposedBudget: 800,
		DeliveryTime:   5,
		Status:         models.ProposalStatusPending,
	}
	err := db.Create(&dup).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestSubmitProposalValidation(t *testing.T) {
	app, db := newTestApp(t)

	client := seedUser(t, db, "Carla", "carla@example.com", models.RoleClient)
	dev := seedUser(t, db, "Dave", "dave@example.com", models.RoleDeveloper)
	job := seedJob(t, db, client.ID, "Build an API", 1500, []string{"go"}, "backend")

	cases := []struct {
		name string
		body fiber.Map
		want int
	}{
		{
			name: "missing text",
			body: fiber.Map{"jobId": job.ID.String(), "proposedBudget": 100, "deliveryTime": 3},
			want: http.StatusBadRequest,
		},
		{
			name: "budget not a number",
			body: fiber.Map{"jobId": job.ID.String(), "proposalText": "hi", "proposedBudget": "abc", "deliveryTime": 3},
			want: http.StatusBadRequest,
		},
		{
			name: "zero delivery time",
			body: fiber.Map{"jobId": job.ID.String(), "proposalText": "hi", "proposedBudget": 100, "deliveryTime": 0},
			want: http.StatusBadRequest,
		},
		{
			name: "unknown job",
			body: fiber.Map{"jobId": "0b2d5bcb-3fdd-4c8c-bf03-433ae4b1c1a0", "proposalText": "hi", "proposedBudget": 100, "deliveryTime": 3},
			want: http.StatusNotFound,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, resp := doJSON(t, app, http.MethodPost, "/api/developer/proposals", tc.body, authCookie(t, dev))
			assert.Equal(t, tc.want, status)
			assert.Equal(t, false, resp["success"])
		})
	}
}

func TestSubmitProposalStringBudgetCoercion(t *testing.T) {
	app, db := newTestApp(t)

	client := seedUser(t, db, "Carla", "carla@example.com", models.RoleClient)
	dev := seedUser(t, db, "Dave", "dave@example.com", models.RoleDeveloper)
	job := seedJob(t, db, client.ID, "Build an API", 1500, []string{"go"}, "backend")

	body := fiber.Map{
		"jobId":          job.ID.String(),
		"proposalText":   "string numbers from the form",
		"proposedBudget": "1000",
		"deliveryTime":   "21",
	}

	status, resp := doJSON(t, app, http.MethodPost, "/api/developer/proposals", body, authCookie(t, dev))
	require.Equal(t, http.StatusCreated, status)

	data := dataMap(t, resp)
	assert.EqualValues(t, 1000, data["proposed_budget"])
	assert.EqualValues(t, 21, data["delivery_time"])
}

func TestDecideAcceptCascadesRejections(t *testing.T) {
	app, db := newTestApp(t)

	client := seedUser(t, db, "Carla", "carla@example.com", models.RoleClient)
	devA := seedUser(t, db, "Alice", "alice@example.com", models.RoleDeveloper)
	devB := seedUser(t, db, "Bob", "bob@example.com", models.RoleDeveloper)
	devC := seedUser(t, db, "Cody", "cody@example.com", models.RoleDeveloper)
	job := seedJob(t, db, client.ID, "Build an API", 1500, []string{"go"}, "backend")

	now := time.Now()
	pA := seedProposal(t, db, job.ID, devA.ID, now.Add(-2*time.Hour))
	pB := seedProposal(t, db, job.ID, devB.ID, now.Add(-time.Hour))
	pC := seedProposal(t, db, job.ID, devC.ID, now)

	status, resp := doJSON(t, app, http.MethodPatch,
		"/api/client/jobs/"+job.ID.String()+"/proposals/"+pB.ID.String(),
		fiber.Map{"decision": "accept"}, authCookie(t, client))
	require.Equal(t, http.StatusOK, status)

	data := dataMap(t, resp)
	assert.Equal(t, "accepted", data["status"])

	var got models.Proposal
	require.NoError(t, db.First(&got, "id = ?", pA.ID).Error)
	assert.Equal(t, models.ProposalStatusRejected, got.Status)
	got = models.Proposal{}
	require.NoError(t, db.First(&got, "id = ?", pB.ID).Error)
	assert.Equal(t, models.ProposalStatusAccepted, got.Status)
	got = models.Proposal{}
	require.NoError(t, db.First(&got, "id = ?", pC.ID).Error)
	assert.Equal(t, models.ProposalStatusRejected, got.Status)
}

func TestDecideRejectDoesNotCascade(t *testing.T) {
	app, db := newTestApp(t)

	client := seedUser(t, db, "Carla", "carla@example.com", models.RoleClient)
	devA := seedUser(t, db, "Alice", "alice@example.com", models.RoleDeveloper)
	devB := seedUser(t, db, "Bob", "bob@example.com", models.RoleDeveloper)
	job := seedJob(t, db, client.ID, "Build an API", 1500, []string{"go"}, "backend")

	pA := seedProposal(t, db, job.ID, devA.ID, time.Now().Add(-time.Hour))
	pB := seedProposal(t, db, job.ID, devB.ID, time.Now())

	status, resp := doJSON(t, app, http.MethodPatch,
		"/api/client/jobs/"+job.ID.String()+"/proposals/"+pA.ID.String(),
		fiber.Map{"decision": "reject"}, authCookie(t, client))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, resp["success"])

	var got models.Proposal
	require.NoError(t, db.First(&got, "id = ?", pA.ID).Error)
	assert.Equal(t, models.ProposalStatusRejected, got.Status)
	got = models.Proposal{}
	require.NoError(t, db.First(&got, "id = ?", pB.ID).Error)
	assert.Equal(t, models.ProposalStatusPending, got.Status)
}

func TestDecideMismatchedProposalLeavesNothingModified(t *testing.T) {
	// A proposal id that belongs to another job must 404 and the atomic
	// accept must roll back the sibling rejections.
	app, db := newTestApp(t)

	client := seedUser(t, db, "Carla", "carla@example.com", models.RoleClient)
	devA := seedUser(t, db, "Alice", "alice@example.com", models.RoleDeveloper)
	devB := seedUser(t, db, "Bob", "bob@example.com", models.RoleDeveloper)
	jobOne := seedJob(t, db, client.ID, "Job one", 1500, []string{"go"}, "backend")
	jobTwo := seedJob(t, db, client.ID, "Job two", 800, []string{"react"}, "frontend")

	pOne := seedProposal(t, db, jobOne.ID, devA.ID, time.Now().Add(-time.Hour))
	pOther := seedProposal(t, db, jobTwo.ID, devB.ID, time.Now())

	status, resp := doJSON(t, app, http.MethodPatch,
		"/api/client/jobs/"+jobOne.ID.String()+"/proposals/"+pOther.ID.String(),
		fiber.Map{"decision": "accept"}, authCookie(t, client))
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, false, resp["success"])

	var got models.Proposal
	require.NoError(t, db.First(&got, "id = ?", pOne.ID).Error)
	assert.Equal(t, models.ProposalStatusPending, got.Status, "rollback must undo the sibling rejection")
	got = models.Proposal{}
	require.NoError(t, db.First(&got, "id = ?", pOther.ID).Error)
	assert.Equal(t, models.ProposalStatusPending, got.Status)
}

func TestDecideReAcceptMovesTheAcceptance(t *testing.T) {
	app, db := newTestApp(t)

	client := seedUser(t, db, "Carla", "carla@example.com", models.RoleClient)
	devA := seedUser(t, db, "Alice", "alice@example.com", models.RoleDeveloper)
	devB := seedUser(t, db, "Bob", "bob@example.com", models.RoleDeveloper)
	job := seedJob(t, db, client.ID, "Build an API", 1500, []string{"go"}, "backend")

	pA := seedProposal(t, db, job.ID, devA.ID, time.Now().Add(-time.Hour))
	pB := seedProposal(t, db, job.ID, devB.ID, time.Now())

	base := "/api/client/jobs/" + job.ID.String() + "/proposals/"

	status, _ := doJSON(t, app, http.MethodPatch, base+pA.ID.String(),
		fiber.Map{"decision": "accept"}, authCookie(t, client))
	require.Equal(t, http.StatusOK, status)

	// Accepting again is a no-op, accepting the other moves the acceptance.
	status, _ = doJSON(t, app, http.MethodPatch, base+pA.ID.String(),
		fiber.Map{"decision": "accept"}, authCookie(t, client))
	require.Equal(t, http.StatusOK, status)

	status, _ = doJSON(t, app, http.MethodPatch, base+pB.ID.String(),
		fiber.Map{"decision": "accept"}, authCookie(t, client))
	require.Equal(t, http.StatusOK, status)

	var accepted int64
	require.NoError(t, db.Model(&models.Proposal{}).
		Where("job_id = ? AND status = ?", job.ID, models.ProposalStatusAccepted).
		Count(&accepted).Error)
	assert.EqualValues(t, 1, accepted, "a job can never hold two accepted proposals")

	var got models.Proposal
	require.NoError(t, db.First(&got, "id = ?", pB.ID).Error)
	assert.Equal(t, models.ProposalStatusAccepted, got.Status)
}

func TestDecideAuthorization(t *testing.T) {
	app, db := newTestApp(t)

	client := seedUser(t, db, "Carla", "carla@example.com", models.RoleClient)
	otherClient := seedUser(t, db, "Olga", "olga@example.com", models.RoleClient)
	dev := seedUser(t, db, "Dave", "dave@example.com", models.RoleDeveloper)
	job := seedJob(t, db, client.ID, "Build an API", 1500, []string{"go"}, "backend")
	p := seedProposal(t, db, job.ID, dev.ID, time.Now())

	target := "/api/client/jobs/" + job.ID.String() + "/proposals/" + p.ID.String()

	status, _ := doJSON(t, app, http.MethodPatch, target,
		fiber.Map{"decision": "accept"}, authCookie(t, otherClient))
	assert.Equal(t, http.StatusForbidden, status)

	// Developers cannot reach the client decision route at all.
	status, _ = doJSON(t, app, http.MethodPatch, target,
		fiber.Map{"decision": "accept"}, authCookie(t, dev))
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = doJSON(t, app, http.MethodPatch, target,
		fiber.Map{"decision": "maybe"}, authCookie(t, client))
	assert.Equal(t, http.StatusBadRequest, status)

	var got models.Proposal
	require.NoError(t, db.First(&got, "id = ?", p.ID).Error)
	assert.Equal(t, models.ProposalStatusPending, got.Status)
}

func TestDecideAcceptsLegacyStatusWords(t *testing.T) {
	app, db := newTestApp(t)

	client := seedUser(t, db, "Carla", "carla@example.com", models.RoleClient)
	dev := seedUser(t, db, "Dave", "dave@example.com", models.RoleDeveloper)
	job := seedJob(t, db, client.ID, "Build an API", 1500, []string{"go"}, "backend")
	p := seedProposal(t, db, job.ID, dev.ID, time.Now())

	status, _ := doJSON(t, app, http.MethodPatch,
		"/api/client/jobs/"+job.ID.String()+"/proposals/"+p.ID.String(),
		fiber.Map{"decision": "ACCEPTED"}, authCookie(t, client))
	require.Equal(t, http.StatusOK, status)

	var got models.Proposal
	require.NoError(t, db.First(&got, "id = ?", p.ID).Error)
	assert.Equal(t, models.ProposalStatusAccepted, got.Status)
}

func TestListMyProposals(t *testing.T) {
	app, db := newTestApp(t)

	client := seedUser(t, db, "Carla", "carla@example.com", models.RoleClient)
	require.NoError(t, db.Create(&models.ClientProfile{
		UserID:  client.ID,
		Company: "Acme Corp",
	}).Error)

	dev := seedUser(t, db, "Dave", "dave@example.com", models.RoleDeveloper)
	otherDev := seedUser(t, db, "Eve", "eve@example.com", models.RoleDeveloper)

	jobOne := seedJob(t, db, client.ID, "Job one", 1500, []string{"go"}, "backend")
	jobTwo := seedJob(t, db, client.ID, "Job two", 900, []string{"react"}, "frontend")

	now := time.Now()
	seedProposal(t, db, jobOne.ID, dev.ID, now.Add(-time.Hour))
	seedProposal(t, db, jobTwo.ID, dev.ID, now)
	seedProposal(t, db, jobOne.ID, otherDev.ID, now)

	status, resp := doJSON(t, app, http.MethodGet, "/api/developer/proposals", nil, authCookie(t, dev))
	require.Equal(t, http.StatusOK, status)

	list, ok := resp["data"].([]any)
	require.True(t, ok)
	require.Len(t, list, 2, "only the caller's proposals")

	first := list[0].(map[string]any)
	jobInfo, ok := first["job"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Job two", jobInfo["title"], "newest first")

	clientInfo, ok := jobInfo["client"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Acme Corp", clientInfo["company"])
}
