package handlers

import (
	"log/slog"
	"mime/multipart"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/quantivue/backend/internal/service"
	"github.com/quantivue/backend/internal/transfer"
)

type PostHandler struct {
	s service.PostService
}

func NewPostHandler(service service.PostService) *PostHandler {
	return &PostHandler{s: service}
}

func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var files []*multipart.FileHeader
	form, err := c.MultipartForm()
	if err == nil && form != nil {
		files = form.File["media"]
	}

	pc := &transfer.PostCreation{
		Caption:     c.FormValue("caption"),
		Platforms:   c.FormValue("platforms"),
		PostingMode: c.FormValue("postingMode"),
		ScheduledAt: c.FormValue("scheduledAt"),
	}

	post, err := h.s.Create(c.Context(), userID, pc, files)
	if err != nil {
		slog.Info(err.Error())
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	userID := GetUserID(c)

	status := c.Query("status")
	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	posts, err := h.s.List(c.Context(), userID, status, limit, offset)
	if err != nil {
		return respondError(c, err)
	}

	if posts == nil {
		posts = []*transfer.PostSummary{}
	}
	return c.JSON(fiber.Map{"posts": posts})
}

func (h *PostHandler) GetPost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	postID, ok := postIDParam(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid post id",
		})
	}

	post, err := h.s.Detail(c.Context(), userID, postID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(post)
}

func (h *PostHandler) ApprovePost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	postID, ok := postIDParam(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid post id",
		})
	}

	var body struct {
		Comment string `json:"comment"`
	}
	c.BodyParser(&body)

	post, err := h.s.Approve(c.Context(), userID, postID, body.Comment)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(post)
}

func (h *PostHandler) RejectPost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	postID, ok := postIDParam(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid post id",
		})
	}

	var body struct {
		Comment string `json:"comment"`
	}
	c.BodyParser(&body)

	post, err := h.s.Reject(c.Context(), userID, postID, body.Comment)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(post)
}

// WebhookStatus receives the automation engine's publish report.
func (h *PostHandler) WebhookStatus(c *fiber.Ctx) error {
	postID, ok := postIDParam(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid post id",
		})
	}

	var ws transfer.WebhookStatus
	if err := c.BodyParser(&ws); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Unable to parse request body",
		})
	}

	if err := h.s.HandleWebhook(c.Context(), postID, &ws); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Status updated"})
}

func postIDParam(c *fiber.Ctx) (int64, bool) {
	postID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || postID <= 0 {
		return 0, false
	}
	return postID, true
}
