package handlers

import (
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/devlance-app/devlance_be/internal/cache"
	"github.com/devlance-app/devlance_be/internal/models"
	"github.com/devlance-app/devlance_be/internal/utils"
)

type JobHandler struct {
	DB    *gorm.DB
	Cache *cache.JobsCache
}

func NewJobHandler(db *gorm.DB, jobsCache *cache.JobsCache) *JobHandler {
	return &JobHandler{DB: db, Cache: jobsCache}
}

// JobReq is the request body for creating and updating jobs. Budget arrives
// as a number or a numeric string depending on the frontend form.
type JobReq struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Budget      any      `json:"budget"`
	Skills      []string `json:"skills"`
	Category    string   `json:"category"`
}

type JobResponse struct {
	ID          string    `json:"id"`
	ClientID    string    `json:"client_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Budget      int64     `json:"budget"`
	Skills      []string  `json:"skills"`
	Category    string    `json:"category"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`

	Client        *UserMini          `json:"client,omitempty"`
	ProposalCount *int64             `json:"proposal_count,omitempty"`
	Proposals     []ProposalResponse `json:"proposals,omitempty"`
}

func toJobResponse(job *models.Job) JobResponse {
	resp := JobResponse{
		ID:          job.ID.String(),
		ClientID:    job.ClientID.String(),
		Title:       job.Title,
		Description: job.Description,
		Budget:      job.Budget,
		Skills:      toStringList(job.Skills),
		Category:    job.Category,
		Status:      string(job.Status),
		CreatedAt:   job.CreatedAt,
	}

	if job.Client != nil {
		resp.Client = &UserMini{
			ID:    job.Client.ID.String(),
			Name:  job.Client.Name,
			Email: job.Client.Email,
		}
	}

	return resp
}

func parseJobReq(c *fiber.Ctx) (*JobReq, int64, error) {
	var req JobReq
	if err := c.BodyParser(&req); err != nil {
		return nil, 0, fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}

	if strings.TrimSpace(req.Title) == "" ||
		strings.TrimSpace(req.Description) == "" ||
		strings.TrimSpace(req.Category) == "" ||
		len(req.Skills) == 0 {
		return nil, 0, fiber.NewError(fiber.StatusBadRequest, "All fields are required")
	}

	budget, err := utils.ParseAmount(req.Budget)
	if err != nil {
		return nil, 0, fiber.NewError(fiber.StatusBadRequest, "Budget must be a number")
	}

	return &req, budget, nil
}

func jobReqFail(c *fiber.Ctx, err error) error {
	fe, ok := err.(*fiber.Error)
	if !ok {
		fe = fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return c.Status(fe.Code).JSON(fiber.Map{
		"success": false,
		"message": fe.Message,
	})
}

// Create posts a new job for the authenticated client. Status starts open.
func (h *JobHandler) Create(c *fiber.Ctx) error {
	uid := c.Locals("userId")
	clientUUID, err := uuid.Parse(uid.(string))
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Invalid user ID",
		})
	}

	req, budget, err := parseJobReq(c)
	if err != nil {
		return jobReqFail(c, err)
	}

	job := models.Job{
		ClientID:    clientUUID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Budget:      budget,
		Skills:      toJSONList(req.Skills),
		Category:    strings.TrimSpace(req.Category),
		Status:      models.JobStatusOpen,
	}

	if err := h.DB.Create(&job).Error; err != nil {
		log.Println("Error creating job:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to create the job",
		})
	}

	h.Cache.Invalidate(c.Context())

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Job posted successfully",
		"data": fiber.Map{
			"id": job.ID,
		},
	})
}

// findOwnedJob resolves a job and verifies the caller owns it. Missing jobs
// and foreign jobs come back as ready-to-return fiber errors.
func (h *JobHandler) findOwnedJob(c *fiber.Ctx) (*models.Job, error) {
	uid := c.Locals("userId")
	userUUID, err := uuid.Parse(uid.(string))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid user ID")
	}

	jobID := c.Params("jobId")
	jobUUID, err := uuid.Parse(jobID)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid job ID")
	}

	var job models.Job
	if err := h.DB.First(&job, "id = ?", jobUUID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fiber.NewError(fiber.StatusNotFound, "Job not found")
		}
		log.Println("Error fetching job:", err)
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Internal server error")
	}

	if job.ClientID != userUUID {
		return nil, fiber.NewError(fiber.StatusForbidden, "You do not own this job")
	}

	return &job, nil
}

// Update replaces the mutable job fields, owner only.
func (h *JobHandler) Update(c *fiber.Ctx) error {
	job, err := h.findOwnedJob(c)
	if err != nil {
		return jobReqFail(c, err)
	}

	req, budget, err := parseJobReq(c)
	if err != nil {
		return jobReqFail(c, err)
	}

	job.Title = strings.TrimSpace(req.Title)
	job.Description = req.Description
	job.Budget = budget
	job.Skills = toJSONList(req.Skills)
	job.Category = strings.TrimSpace(req.Category)

	if err := h.DB.Save(job).Error; err != nil {
		log.Println("Error updating job:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to update the job",
		})
	}

	h.Cache.Invalidate(c.Context())

	return c.JSON(fiber.Map{
		"success": true,
		"data":    toJobResponse(job),
	})
}

// ToggleStatus flips a job between open and closed. Anything not open
// (including legacy values) toggles back to open.
func (h *JobHandler) ToggleStatus(c *fiber.Ctx) error {
	job, err := h.findOwnedJob(c)
	if err != nil {
		return jobReqFail(c, err)
	}

	if job.Status == models.JobStatusOpen {
		job.Status = models.JobStatusClosed
	} else {
		job.Status = models.JobStatusOpen
	}

	if err := h.DB.Save(job).Error; err != nil {
		log.Println("Error toggling job status:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to update status of the job",
		})
	}

	h.Cache.Invalidate(c.Context())

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Job status updated successfully",
		"data": fiber.Map{
			"status": job.Status,
		},
	})
}

// Delete removes a job and its proposals in one transaction.
func (h *JobHandler) Delete(c *fiber.Ctx) error {
	job, err := h.findOwnedJob(c)
	if err != nil {
		return jobReqFail(c, err)
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("job_id = ?", job.ID).Delete(&models.Proposal{}).Error; err != nil {
			return err
		}
		return tx.Delete(job).Error
	})
	if err != nil {
		log.Println("Error deleting job:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to delete the job",
		})
	}

	h.Cache.Invalidate(c.Context())

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Job deleted successfully",
	})
}

// Get returns a job with its client summary and proposals newest-first.
// Clients other than the owner are refused; developers may look at any job.
func (h *JobHandler) Get(c *fiber.Ctx) error {
	uid := c.Locals("userId")
	role, _ := c.Locals("role").(string)

	userUUID, err := uuid.Parse(uid.(string))
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Invalid user ID",
		})
	}

	jobID := c.Params("jobId")
	jobUUID, err := uuid.Parse(jobID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid job ID",
		})
	}

	var job models.Job
	if err := h.DB.
		Preload("Client").
		Preload("Proposals", func(db *gorm.DB) *gorm.DB {
			return db.Order("proposals.created_at DESC")
		}).
		Preload("Proposals.Developer").
		Preload("Proposals.Developer.DeveloperProfile").
		First(&job, "id = ?", jobUUID).Error; err != nil {

		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "Job not found",
			})
		}
		log.Println("Error fetching job:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Internal server error",
		})
	}

	if role == string(models.RoleClient) && job.ClientID != userUUID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "Forbidden",
		})
	}

	resp := toJobResponse(&job)
	resp.Proposals = make([]ProposalResponse, 0, len(job.Proposals))
	for i := range job.Proposals {
		resp.Proposals = append(resp.Proposals, toProposalResponse(&job.Proposals[i]))
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    resp,
	})
}

// ListMine returns the caller's jobs with proposal counts, oldest first.
func (h *JobHandler) ListMine(c *fiber.Ctx) error {
	uid := c.Locals("userId")

	var jobs []models.Job
	if err := h.DB.
		Where("client_id = ?", uid).
		Order("created_at ASC").
		Find(&jobs).Error; err != nil {

		log.Println("Error fetching client jobs:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch jobs",
		})
	}

	out := make([]JobResponse, 0, len(jobs))
	for i := range jobs {
		resp := toJobResponse(&jobs[i])

		var count int64
		if err := h.DB.Model(&models.Proposal{}).
			Where("job_id = ?", jobs[i].ID).
			Count(&count).Error; err == nil {
			resp.ProposalCount = &count
		}

		out = append(out, resp)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    out,
	})
}
