package handlers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/devlance-app/devlance_be/internal/models"
	"github.com/devlance-app/devlance_be/internal/utils"
)

type OnboardingHandler struct {
	DB         *gorm.DB
	UploadDir  string
	AppBaseURL string
	JWTSecret  string
	Expires    int
}

func NewOnboardingHandler(db *gorm.DB, uploadDir, appBaseURL, jwtSecret string, expires int) *OnboardingHandler {
	return &OnboardingHandler{
		DB:         db,
		UploadDir:  uploadDir,
		AppBaseURL: appBaseURL,
		JWTSecret:  jwtSecret,
		Expires:    expires,
	}
}

type SetRoleReq struct {
	Role string `json:"role"`
}

// SetRole picks client or developer for a fresh account. The role can be set
// exactly once; the JWT cookie is re-issued so role-gated routes open up
// without a new login.
func (h *OnboardingHandler) SetRole(c *fiber.Ctx) error {
	uid := c.Locals("userId")

	var req SetRoleReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	role := strings.ToLower(strings.TrimSpace(req.Role))
	if role != string(models.RoleClient) && role != string(models.RoleDeveloper) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid role",
		})
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", uid).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "User not found",
		})
	}

	if user.Role != models.RoleUnset {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"message": "Role has already been set",
		})
	}

	user.Role = models.Role(role)
	if err := h.DB.Save(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to set role",
		})
	}

	token, err := utils.SignJWT(h.JWTSecret, user.ID.String(), string(user.Role), h.Expires)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to create token",
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     "dl_token",
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		Secure:   false,
		SameSite: "Lax",
		MaxAge:   h.Expires * 60,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Role set successfully",
		"data": fiber.Map{
			"role": user.Role,
		},
	})
}

type ClientProfileReq struct {
	CompanyName string `json:"companyName"`
}

func (h *OnboardingHandler) SetupClientProfile(c *fiber.Ctx) error {
	uid := c.Locals("userId")

	var req ClientProfileReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	company := strings.TrimSpace(req.CompanyName)
	if company == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "All fields are required",
		})
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", uid).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "User not found",
		})
	}

	profile := models.ClientProfile{
		UserID:  user.ID,
		Company: company,
	}

	if err := h.DB.Create(&profile).Error; err != nil {
		if err == gorm.ErrDuplicatedKey {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"success": false,
				"message": "Client profile already exists",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to create profile",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Client profile created successfully",
		"data": fiber.Map{
			"id":      profile.ID,
			"company": profile.Company,
		},
	})
}

type DeveloperProfileReq struct {
	Description  string   `json:"description"`
	Skills       []string `json:"skills"`
	GithubURL    string   `json:"githubUrl"`
	PortfolioURL string   `json:"portfolio"`
	Domain       string   `json:"domain"`
	Experience   any      `json:"experience"`
	ProofLinks   []string `json:"proofLinks"`
}

func (h *OnboardingHandler) SetupDeveloperProfile(c *fiber.Ctx) error {
	uid := c.Locals("userId")

	var req DeveloperProfileReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	if strings.TrimSpace(req.Description) == "" ||
		strings.TrimSpace(req.GithubURL) == "" ||
		strings.TrimSpace(req.PortfolioURL) == "" ||
		strings.TrimSpace(req.Domain) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "All fields are required",
		})
	}

	experience, err := utils.ParseCount(req.Experience)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Experience must be a number",
		})
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", uid).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "User not found",
		})
	}

	profile := models.DeveloperProfile{
		UserID:       user.ID,
		Description:  strings.TrimSpace(req.Description),
		Skills:       toJSONList(req.Skills),
		GithubURL:    strings.TrimSpace(req.GithubURL),
		PortfolioURL: strings.TrimSpace(req.PortfolioURL),
		ProofLinks:   toJSONList(req.ProofLinks),
		Experience:   experience,
		Domain:       strings.TrimSpace(req.Domain),
	}

	if err := h.DB.Create(&profile).Error; err != nil {
		if err == gorm.ErrDuplicatedKey {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"success": false,
				"message": "Developer profile already exists",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to create profile",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Developer profile created successfully",
		"data": fiber.Map{
			"id": profile.ID,
		},
	})
}

// UploadProof stores a proof-of-work file and appends its public URL to the
// caller's developer profile.
func (h *OnboardingHandler) UploadProof(c *fiber.Ctx) error {
	uid := c.Locals("userId")

	var profile models.DeveloperProfile
	if err := h.DB.First(&profile, "user_id = ?", uid).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Developer profile not found",
		})
	}

	file, err := c.FormFile("proof")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Proof file not found",
		})
	}

	if file.Size <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid file size",
		})
	}

	uploadDir := filepath.Join(h.UploadDir, "proofs")
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to create upload folder",
		})
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	filename := fmt.Sprintf("proof_%v_%d%s", uid, time.Now().UnixNano(), ext)
	savePath := filepath.Join(uploadDir, filename)

	if err := c.SaveFile(file, savePath); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to save proof file",
		})
	}

	publicURL := "/uploads/proofs/" + filename
	if h.AppBaseURL != "" {
		publicURL = strings.TrimRight(h.AppBaseURL, "/") + publicURL
	}

	links := append(toStringList(profile.ProofLinks), publicURL)
	profile.ProofLinks = toJSONList(links)

	if err := h.DB.Save(&profile).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to update proof links",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"url":     publicURL,
	})
}
