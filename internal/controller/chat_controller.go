package controller

import (
	"errors"

	"eq-coach-be/internal/dto"
	"eq-coach-be/internal/pkg/serverutils"
	"eq-coach-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	GetHistory(ctx *fiber.Ctx) error
	SendMessage(ctx *fiber.Ctx) error
	UpdateMessage(ctx *fiber.Ctx) error
	ClearMessages(ctx *fiber.Ctx) error
	CheckLimits(ctx *fiber.Ctx) error
	GetUsage(ctx *fiber.Ctx) error
	EndSession(ctx *fiber.Ctx) error
}

type chatController struct {
	service service.IChatService
	auth    fiber.Handler
}

func NewChatController(service service.IChatService, auth fiber.Handler) IChatController {
	return &chatController{service: service, auth: auth}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Use(c.auth)
	h.Get("messages", c.GetHistory)
	h.Post("messages", c.SendMessage)
	h.Put("messages/:id", c.UpdateMessage)
	h.Delete("messages", c.ClearMessages)
	h.Get("limits", c.CheckLimits)
	h.Get("usage", c.GetUsage)
	h.Post("session/end", c.EndSession)
}

func (c *chatController) GetHistory(ctx *fiber.Ctx) error {
	userId, _ := uuid.Parse(ctx.Locals("user_id").(string))

	res, err := c.service.LoadHistory(ctx.UserContext(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get chat history", res))
}

func (c *chatController) SendMessage(ctx *fiber.Ctx) error {
	userId, _ := uuid.Parse(ctx.Locals("user_id").(string))

	var req dto.SendMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.SendMessage(ctx.UserContext(), userId, &req)
	if err != nil {
		if errors.Is(err, service.ErrEmptyMessage) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success send message", res))
}

func (c *chatController) UpdateMessage(ctx *fiber.Ctx) error {
	userId, _ := uuid.Parse(ctx.Locals("user_id").(string))

	var req dto.UpdateMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.service.UpdateMessage(ctx.UserContext(), userId, ctx.Params("id"), &req); err != nil {
		if errors.Is(err, service.ErrMessageNotFound) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success update message", nil))
}

func (c *chatController) ClearMessages(ctx *fiber.Ctx) error {
	userId, _ := uuid.Parse(ctx.Locals("user_id").(string))

	if err := c.service.ClearMessages(ctx.UserContext(), userId); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success clear messages", nil))
}

func (c *chatController) CheckLimits(ctx *fiber.Ctx) error {
	userId, _ := uuid.Parse(ctx.Locals("user_id").(string))

	res, err := c.service.CheckMessageLimits(ctx.UserContext(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success check message limits", res))
}

func (c *chatController) GetUsage(ctx *fiber.Ctx) error {
	userId, _ := uuid.Parse(ctx.Locals("user_id").(string))

	res, err := c.service.GetUsageOverview(ctx.UserContext(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get usage overview", res))
}

func (c *chatController) EndSession(ctx *fiber.Ctx) error {
	userId, _ := uuid.Parse(ctx.Locals("user_id").(string))

	if err := c.service.EndSession(ctx.UserContext(), userId); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success end session", nil))
}
