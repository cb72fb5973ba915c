package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/devlance-app/devlance_be/internal/models"
)

type UserHandler struct {
	DB *gorm.DB
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{DB: db}
}

// GetProfile returns a user's public profile with any developer profile
// embedded, skills and proof links unpacked into plain lists.
func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	id := c.Params("id")
	userUUID, err := uuid.Parse(id)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid user ID",
		})
	}

	var user models.User
	if err := h.DB.
		Preload("DeveloperProfile").
		Preload("ClientProfile").
		First(&user, "id = ?", userUUID).Error; err != nil {

		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "Profile not found",
			})
		}
		log.Println("Error fetching profile:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Internal server error",
		})
	}

	data := fiber.Map{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
		"role":  user.Role,
	}

	if user.DeveloperProfile != nil {
		p := user.DeveloperProfile
		data["developer_profile"] = fiber.Map{
			"description":   p.Description,
			"skills":        toStringList(p.Skills),
			"github_url":    p.GithubURL,
			"portfolio_url": p.PortfolioURL,
			"proof_links":   toStringList(p.ProofLinks),
			"experience":    p.Experience,
			"domain":        p.Domain,
		}
	}

	if user.ClientProfile != nil {
		data["client_profile"] = fiber.Map{
			"company": user.ClientProfile.Company,
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}
