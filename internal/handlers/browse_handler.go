package handlers

import (
	"encoding/json"
	"log"
	"math"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/devlance-app/devlance_be/internal/cache"
)

type BrowseHandler struct {
	DB    *gorm.DB
	Cache *cache.JobsCache
}

func NewBrowseHandler(db *gorm.DB, jobsCache *cache.JobsCache) *BrowseHandler {
	return &BrowseHandler{DB: db, Cache: jobsCache}
}

type browseFilters struct {
	Search   string
	Category string
	Budget   string
}

// apply narrows a jobs query to open postings matching the filters. Search is
// a case-insensitive substring over title and description, with the terms
// also matched one by one against the skills list. Budget is one of five
// fixed buckets.
func (f browseFilters) apply(q *gorm.DB) *gorm.DB {
	q = q.Where("jobs.status = ?", "open")

	if f.Search != "" {
		s := strings.ToLower(strings.TrimSpace(f.Search))
		like := "%" + s + "%"
		cond := q.Session(&gorm.Session{NewDB: true}).
			Where("LOWER(jobs.title) LIKE ?", like).
			Or("LOWER(jobs.description) LIKE ?", like)
		for _, term := range strings.Fields(s) {
			cond = cond.Or("LOWER(CAST(jobs.skills AS TEXT)) LIKE ?", "%"+term+"%")
		}
		q = q.Where(cond)
	}

	if f.Category != "" && !strings.EqualFold(f.Category, "All Categories") {
		q = q.Where("LOWER(jobs.category) LIKE ?", "%"+strings.ToLower(f.Category)+"%")
	}

	switch f.Budget {
	case "", "all":
	case "under-500":
		q = q.Where("jobs.budget < ?", 500)
	case "500-1000":
		q = q.Where("jobs.budget >= ? AND jobs.budget <= ?", 500, 1000)
	case "1000-5000":
		q = q.Where("jobs.budget >= ? AND jobs.budget <= ?", 1000, 5000)
	case "5000-10000":
		q = q.Where("jobs.budget >= ? AND jobs.budget <= ?", 5000, 10000)
	case "over-10000":
		q = q.Where("jobs.budget >= ?", 10000)
	}

	return q
}

// List serves the public job board: open jobs, filtered, sorted and
// paginated. Whole rendered pages are cached in redis for a short window.
func (h *BrowseHandler) List(c *fiber.Ctx) error {
	cacheKey := string(c.Request().URI().QueryString())
	if body := h.Cache.Get(c.Context(), cacheKey); body != "" {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.SendString(body)
	}

	filters := browseFilters{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Budget:   c.Query("budget"),
	}
	sortParam := c.Query("sort", "newest")

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 12)
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 12
	}
	offset := (page - 1) * limit

	type Result struct {
		ID          uuid.UUID
		Title       string
		Description string
		Budget      int64
		Skills      datatypes.JSON
		Category    string
		Status      string
		CreatedAt   time.Time

		ClientID   uuid.UUID
		ClientName string

		ProposalCount int64
	}

	q := h.DB.
		Table("jobs").
		Select(`
			jobs.id,
			jobs.title,
			jobs.description,
			jobs.budget,
			jobs.skills,
			jobs.category,
			jobs.status,
			jobs.created_at,
			jobs.client_id,
			u.name AS client_name,
			(SELECT COUNT(*) FROM proposals p WHERE p.job_id = jobs.id) AS proposal_count
		`).
		Joins("LEFT JOIN users u ON u.id = jobs.client_id")
	q = filters.apply(q)

	switch sortParam {
	case "oldest":
		q = q.Order("jobs.created_at ASC")
	case "budget-high":
		q = q.Order("jobs.budget DESC")
	case "budget-low":
		q = q.Order("jobs.budget ASC")
	case "proposals-high":
		q = q.Order("proposal_count DESC")
	case "proposals-low":
		q = q.Order("proposal_count ASC")
	default:
		// newest
		q = q.Order("jobs.created_at DESC")
	}

	var total int64
	if err := filters.apply(h.DB.Table("jobs")).Count(&total).Error; err != nil {
		log.Println("Error counting jobs:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Internal server error",
		})
	}

	var rows []Result
	if err := q.
		Limit(limit).
		Offset(offset).
		Scan(&rows).Error; err != nil {

		log.Println("Error fetching jobs:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Internal server error",
		})
	}

	jobs := make([]fiber.Map, 0, len(rows))
	for _, r := range rows {
		jobs = append(jobs, fiber.Map{
			"id":          r.ID,
			"title":       r.Title,
			"description": r.Description,
			"budget":      r.Budget,
			"skills":      toStringList(r.Skills),
			"category":    r.Category,
			"status":      r.Status,
			"created_at":  r.CreatedAt,
			"client": fiber.Map{
				"id":   r.ClientID,
				"name": r.ClientName,
			},
			"proposal_count": r.ProposalCount,
		})
	}

	payload := fiber.Map{
		"success": true,
		"data": fiber.Map{
			"jobs": jobs,
			"pagination": fiber.Map{
				"page":  page,
				"limit": limit,
				"total": total,
				"pages": int(math.Ceil(float64(total) / float64(limit))),
			},
		},
	}

	if body, err := json.Marshal(payload); err == nil {
		h.Cache.Set(c.Context(), cacheKey, body)
	}

	return c.JSON(payload)
}
