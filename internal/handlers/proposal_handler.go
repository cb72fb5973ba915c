package handlers

import (
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/devlance-app/devlance_be/internal/models"
	"github.com/devlance-app/devlance_be/internal/utils"
)

type ProposalHandler struct {
	DB *gorm.DB
}

func NewProposalHandler(db *gorm.DB) *ProposalHandler {
	return &ProposalHandler{DB: db}
}

type SubmitProposalReq struct {
	JobID          string `json:"jobId"`
	ProposalText   string `json:"proposalText"`
	ProposedBudget any    `json:"proposedBudget"`
	DeliveryTime   any    `json:"deliveryTime"`
}

// DeveloperMini is the developer summary embedded in proposal responses.
type DeveloperMini struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Email  string   `json:"email"`
	Skills []string `json:"skills,omitempty"`
}

// JobMini is the job summary embedded in proposal responses.
type JobMini struct {
	ID       string `json:"id,omitempty"`
	Title    string `json:"title"`
	ClientID string `json:"client_id"`

	Client *UserMini `json:"client,omitempty"`
}

type ProposalResponse struct {
	ID             string    `json:"id"`
	JobID          string    `json:"job_id"`
	DeveloperID    string    `json:"developer_id"`
	ProposalText   string    `json:"proposal_text"`
	ProposedBudget int64     `json:"proposed_budget"`
	DeliveryTime   int       `json:"delivery_time"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`

	Developer *DeveloperMini `json:"developer,omitempty"`
	Job       *JobMini       `json:"job,omitempty"`
}

func toProposalResponse(p *models.Proposal) ProposalResponse {
	resp := ProposalResponse{
		ID:             p.ID.String(),
		JobID:          p.JobID.String(),
		DeveloperID:    p.DeveloperID.String(),
		ProposalText:   p.ProposalText,
		ProposedBudget: p.ProposedBudget,
		DeliveryTime:   p.DeliveryTime,
		Status:         string(p.Status),
		CreatedAt:      p.CreatedAt,
	}

	if p.Developer != nil {
		resp.Developer = &DeveloperMini{
			ID:    p.Developer.ID.String(),
			Name:  p.Developer.Name,
			Email: p.Developer.Email,
		}
		if p.Developer.DeveloperProfile != nil {
			resp.Developer.Skills = toStringList(p.Developer.DeveloperProfile.Skills)
		}
	}

	if p.Job != nil {
		resp.Job = &JobMini{
			Title:    p.Job.Title,
			ClientID: p.Job.ClientID.String(),
		}
	}

	return resp
}

// Submit creates a pending proposal for the authenticated developer. The
// (job, developer) pair is checked up front for a friendly message and backed
// by the unique index, so a concurrent duplicate still comes back as 409.
func (h *ProposalHandler) Submit(c *fiber.Ctx) error {
	uid := c.Locals("userId")
	developerUUID, err := uuid.Parse(uid.(string))
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Invalid user ID",
		})
	}

	var req SubmitProposalReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	if strings.TrimSpace(req.JobID) == "" || strings.TrimSpace(req.ProposalText) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "All fields are required",
		})
	}

	proposedBudget, err := utils.ParseAmount(req.ProposedBudget)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Proposed budget must be a number",
		})
	}

	deliveryTime, err := utils.ParseCount(req.DeliveryTime)
	if err != nil || deliveryTime <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Delivery time must be a positive number of days",
		})
	}

	jobUUID, err := uuid.Parse(req.JobID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid job ID",
		})
	}

	var job models.Job
	if err := h.DB.First(&job, "id = ?", jobUUID).Error; err != nil {
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

	var existing models.Proposal
	err = h.DB.Where("job_id = ? AND developer_id = ?", jobUUID, developerUUID).
		First(&existing).Error
	if err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"message": "You have already submitted a proposal for this job",
		})
	}
	if err != gorm.ErrRecordNotFound {
		log.Println("Error checking existing proposal:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Internal server error",
		})
	}

	proposal := models.Proposal{
		JobID:          jobUUID,
		DeveloperID:    developerUUID,
		ProposalText:   req.ProposalText,
		ProposedBudget: proposedBudget,
		DeliveryTime:   deliveryTime,
		Status:         models.ProposalStatusPending,
	}

	if err := h.DB.Create(&proposal).Error; err != nil {
		// The unique index closes the race the pre-check leaves open.
		if err == gorm.ErrDuplicatedKey {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"success": false,
				"message": "You have already submitted a proposal for this job",
			})
		}
		log.Println("Error creating proposal:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to create proposal",
		})
	}

	h.DB.Preload("Developer").Preload("Job").
		First(&proposal, "id = ?", proposal.ID)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    toProposalResponse(&proposal),
	})
}

type DecideProposalReq struct {
	Decision string `json:"decision"`
}

// Decide applies the owning client's accept/reject decision to one proposal.
//
// Accepting runs as a single transaction: every sibling proposal of the job
// is set to rejected, then the target flips to accepted filtered on the
// compound (job_id, id) key. A zero-row target update aborts the whole
// transaction, so a proposal/job mismatch leaves nothing modified and a job
// never ends up with two accepted proposals. Rejecting touches only the
// target row.
func (h *ProposalHandler) Decide(c *fiber.Ctx) error {
	uid := c.Locals("userId")
	userUUID, err := uuid.Parse(uid.(string))
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Invalid user ID",
		})
	}

	jobUUID, err := uuid.Parse(c.Params("jobId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid job ID",
		})
	}

	proposalUUID, err := uuid.Parse(c.Params("proposalId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid proposal ID",
		})
	}

	var req DecideProposalReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	// Older clients send the stored status ("ACCEPTED") instead of the verb.
	decision := strings.ToLower(strings.TrimSpace(req.Decision))
	switch decision {
	case "accept", "accepted":
		decision = "accept"
	case "reject", "rejected":
		decision = "reject"
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Decision must be accept or reject",
		})
	}

	var job models.Job
	if err := h.DB.First(&job, "id = ?", jobUUID).Error; err != nil {
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

	if job.ClientID != userUUID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "You do not own this job",
		})
	}

	if decision == "reject" {
		res := h.DB.Model(&models.Proposal{}).
			Where("id = ? AND job_id = ?", proposalUUID, jobUUID).
			Update("status", models.ProposalStatusRejected)
		if res.Error != nil {
			log.Println("Error rejecting proposal:", res.Error)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to update proposal",
			})
		}
		if res.RowsAffected == 0 {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "Proposal not found for this job",
			})
		}

		return c.JSON(fiber.Map{
			"success": true,
			"message": "Proposal rejected successfully",
		})
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Proposal{}).
			Where("job_id = ? AND id <> ?", jobUUID, proposalUUID).
			Update("status", models.ProposalStatusRejected).Error; err != nil {
			return err
		}

		res := tx.Model(&models.Proposal{}).
			Where("id = ? AND job_id = ?", proposalUUID, jobUUID).
			Update("status", models.ProposalStatusAccepted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusNotFound, "Proposal not found for this job")
		}

		return nil
	})
	if err != nil {
		if e, ok := err.(*fiber.Error); ok {
			return c.Status(e.Code).JSON(fiber.Map{"success": false, "message": e.Message})
		}
		log.Println("Error accepting proposal:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to update proposal",
		})
	}

	var proposal models.Proposal
	h.DB.Preload("Developer").Preload("Job").
		First(&proposal, "id = ?", proposalUUID)

	return c.JSON(fiber.Map{
		"success": true,
		"data":    toProposalResponse(&proposal),
	})
}

// ListMine returns the caller's proposals with job, client and company
// summaries for the developer dashboard.
func (h *ProposalHandler) ListMine(c *fiber.Ctx) error {
	uid := c.Locals("userId")

	var proposals []models.Proposal
	if err := h.DB.
		Preload("Job").
		Preload("Job.Client").
		Preload("Job.Client.ClientProfile").
		Where("developer_id = ?", uid).
		Order("created_at DESC").
		Find(&proposals).Error; err != nil {

		log.Println("Error fetching proposals:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch proposals",
		})
	}

	out := make([]ProposalResponse, 0, len(proposals))
	for i := range proposals {
		resp := toProposalResponse(&proposals[i])

		job := proposals[i].Job
		if job != nil && job.Client != nil {
			resp.Job.ID = job.ID.String()
			resp.Job.Client = &UserMini{
				ID:    job.Client.ID.String(),
				Name:  job.Client.Name,
				Email: job.Client.Email,
			}
			if job.Client.ClientProfile != nil {
				resp.Job.Client.Company = job.Client.ClientProfile.Company
			}
		}

		out = append(out, resp)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    out,
	})
}
