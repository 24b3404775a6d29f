package handlers

import (
	"errors"
	"feedloader/internal/app"
	"feedloader/internal/services"

	feedsController "feedloader/internal/controllers/feeds"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

type FeedsHandler struct {
	Handler
	feedsController feedsController.FeedsControllerInterface
}

func NewFeedsHandler(app app.App, router fiber.Router) *FeedsHandler {
	log := logger.New("handlers").File("feeds_handler")
	return &FeedsHandler{
		feedsController: app.Controllers.Feeds,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *FeedsHandler) Register() {
	feeds := h.router.Group("/feeds")

	feeds.Post("", h.middleware.RequireContentType(fiber.MIMEApplicationXML), h.createFeedUpload)
	feeds.Get("/:id", h.getFeedUploadStatus)
	feeds.Get("/:id/items", h.getFeedItemIDs)
	feeds.Get("/:id/items/:itemId", h.getFeedItem)
	feeds.Get("/:id/images", h.getFeedImageIDs)
	feeds.Get("/:id/images/:imageId", h.getFeedImage)
}

func (h *FeedsHandler) handlerLog(c *fiber.Ctx, function string) logger.Logger {
	return logger.New("handlers").TraceFromContext(c.UserContext()).File("feeds_handler").Function(function)
}

func feedID(c *fiber.Ctx) (int, bool) {
	id, err := c.ParamsInt("id")
	return id, err == nil && id > 0
}

func invalidFeedID(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "Invalid feed id",
	})
}

func (h *FeedsHandler) createFeedUpload(c *fiber.Ctx) error {
	log := h.handlerLog(c, "createFeedUpload")

	// fasthttp reuses the body buffer after the handler returns.
	document := append([]byte(nil), c.Body()...)

	id, err := h.feedsController.CreateFeedUpload(c.UserContext(), document)
	if err != nil {
		if errors.Is(err, feedsController.ErrEmptyDocument) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Request body is empty",
			})
		}
		if errors.Is(err, feedsController.ErrDispatchFailed) {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to dispatch feed upload",
				"id":    id,
			})
		}
		log.Er("Failed to create feed upload", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create feed upload",
		})
	}

	return c.JSON(fiber.Map{
		"id": id,
	})
}

func (h *FeedsHandler) getFeedUploadStatus(c *fiber.Ctx) error {
	log := h.handlerLog(c, "getFeedUploadStatus")

	id, ok := feedID(c)
	if !ok {
		return invalidFeedID(c)
	}

	status, err := h.feedsController.GetFeedUploadStatus(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, feedsController.ErrFeedUploadNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Feed upload was not found",
			})
		}
		log.Er("Failed to get feed upload status", err, "feedUploadID", id)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get feed upload status",
		})
	}

	return c.JSON(status)
}

func (h *FeedsHandler) getFeedItemIDs(c *fiber.Ctx) error {
	log := h.handlerLog(c, "getFeedItemIDs")

	id, ok := feedID(c)
	if !ok {
		return invalidFeedID(c)
	}

	ids, err := h.feedsController.GetFeedItemIDs(c.UserContext(), id)
	if err != nil {
		log.Er("Failed to list feed items", err, "feedUploadID", id)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list feed items",
		})
	}

	return c.JSON(ids)
}

func (h *FeedsHandler) getFeedItem(c *fiber.Ctx) error {
	log := h.handlerLog(c, "getFeedItem")

	id, ok := feedID(c)
	if !ok {
		return invalidFeedID(c)
	}
	itemID := c.Params("itemId")

	item, err := h.feedsController.GetFeedItem(c.UserContext(), id, itemID)
	if err != nil {
		if errors.Is(err, feedsController.ErrFeedItemNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Feed item was not found",
			})
		}
		log.Er("Failed to get feed item", err, "feedUploadID", id, "itemID", itemID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get feed item",
		})
	}

	return c.JSON(item)
}

func (h *FeedsHandler) getFeedImageIDs(c *fiber.Ctx) error {
	log := h.handlerLog(c, "getFeedImageIDs")

	id, ok := feedID(c)
	if !ok {
		return invalidFeedID(c)
	}

	ids, err := h.feedsController.GetFeedImageIDs(c.UserContext(), id)
	if err != nil {
		log.Er("Failed to list feed images", err, "feedUploadID", id)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list feed images",
		})
	}

	return c.JSON(ids)
}

func (h *FeedsHandler) getFeedImage(c *fiber.Ctx) error {
	log := h.handlerLog(c, "getFeedImage")

	id, ok := feedID(c)
	if !ok {
		return invalidFeedID(c)
	}
	imageID := c.Params("imageId")

	path, err := h.feedsController.GetFeedImagePath(c.UserContext(), id, imageID)
	if err != nil {
		if errors.Is(err, services.ErrImageNotFound) || errors.Is(err, services.ErrInvalidImageID) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Image was not found",
			})
		}
		log.Er("Failed to find image", err, "feedUploadID", id, "imageID", imageID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to find image",
		})
	}

	return c.SendFile(path)
}
