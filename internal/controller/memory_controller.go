package controller

import (
	"context"
	"errors"

	"eq-coach-be/internal/dto"
	"eq-coach-be/internal/mapper"
	"eq-coach-be/internal/pkg/serverutils"
	"eq-coach-be/pkg/memory"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IMemoryController interface {
	RegisterRoutes(r fiber.Router)
	GetSettings(ctx *fiber.Ctx) error
	ToggleMemory(ctx *fiber.Ctx) error
	ToggleSmartInsights(ctx *fiber.Ctx) error
	Archive(ctx *fiber.Ctx) error
	Clear(ctx *fiber.Ctx) error
	GetArchived(ctx *fiber.Ctx) error
	Restore(ctx *fiber.Ctx) error
	DeleteArchived(ctx *fiber.Ctx) error
}

type memoryController struct {
	manager *memory.Manager
	mapper  *mapper.MemoryMapper
	auth    fiber.Handler
}

func NewMemoryController(manager *memory.Manager, auth fiber.Handler) IMemoryController {
	return &memoryController{
		manager: manager,
		mapper:  mapper.NewMemoryMapper(),
		auth:    auth,
	}
}

func (c *memoryController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/memory/v1")
	h.Use(c.auth)
	h.Get("settings", c.GetSettings)
	h.Put("settings/memory", c.ToggleMemory)
	h.Put("settings/smart-insights", c.ToggleSmartInsights)
	h.Post("archive", c.Archive)
	h.Get("archive", c.GetArchived)
	h.Post("archive/:id/restore", c.Restore)
	h.Delete("archive/:id", c.DeleteArchived)
	h.Post("clear", c.Clear)
}

// outcomeError maps a non-ok outcome onto an HTTP error.
func outcomeError(o memory.Outcome) error {
	switch {
	case o.OK():
		return nil
	case o.Status == memory.StatusRejected:
		return fiber.NewError(fiber.StatusForbidden, o.Reason)
	case errors.Is(o.Err, memory.ErrNotFound), errors.Is(o.Err, memory.ErrProfileNotFound):
		return fiber.NewError(fiber.StatusNotFound, o.Reason)
	default:
		return fiber.NewError(fiber.StatusInternalServerError, o.Reason)
	}
}

func outcomeResponse(o memory.Outcome) dto.MemoryOutcomeResponse {
	return dto.MemoryOutcomeResponse{Status: string(o.Status), Reason: o.Reason}
}

func (c *memoryController) GetSettings(ctx *fiber.Ctx) error {
	userId, _ := uuid.Parse(ctx.Locals("user_id").(string))

	state, outcome := c.manager.State(ctx.UserContext(), userId)
	if err := outcomeError(outcome); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get memory settings", state))
}

func (c *memoryController) ToggleMemory(ctx *fiber.Ctx) error {
	return c.toggle(ctx, c.manager.ToggleMemory, "Success update memory setting")
}

func (c *memoryController) ToggleSmartInsights(ctx *fiber.Ctx) error {
	return c.toggle(ctx, c.manager.ToggleSmartInsights, "Success update smart insights setting")
}

type toggleFunc func(ctx context.Context, userId uuid.UUID, enabled bool) memory.Outcome

func (c *memoryController) toggle(ctx *fiber.Ctx, apply toggleFunc, msg string) error {
	userId, _ := uuid.Parse(ctx.Locals("user_id").(string))

	var req dto.ToggleRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	outcome := apply(ctx.UserContext(), userId, *req.Enabled)
	if err := outcomeError(outcome); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse(msg, outcomeResponse(outcome)))
}

func (c *memoryController) Archive(ctx *fiber.Ctx) error {
	userId, _ := uuid.Parse(ctx.Locals("user_id").(string))

	var req dto.ArchiveMemoryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	outcome := c.manager.ArchiveMemory(ctx.UserContext(), userId, memory.ArchiveInput{
		MemoryId:   req.MemoryId,
		Content:    req.Content,
		MemoryType: req.MemoryType,
		Metadata:   req.Metadata,
	})
	if err := outcomeError(outcome); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success archive memory", outcomeResponse(outcome)))
}

func (c *memoryController) Clear(ctx *fiber.Ctx) error {
	userId, _ := uuid.Parse(ctx.Locals("user_id").(string))

	var req dto.ClearMemoriesRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
	}

	report, outcome := c.manager.ClearAllMemories(ctx.UserContext(), userId, req.ArchiveFirst)
	if err := outcomeError(outcome); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success clear memories", report))
}

func (c *memoryController) GetArchived(ctx *fiber.Ctx) error {
	userId, _ := uuid.Parse(ctx.Locals("user_id").(string))

	archived := c.manager.GetArchivedMemories(ctx.UserContext(), userId)
	res := make([]dto.ArchivedMemoryResponse, 0, len(archived))
	for _, a := range archived {
		res = append(res, c.mapper.ArchivedToResponse(a))
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get archived memories", res))
}

func (c *memoryController) Restore(ctx *fiber.Ctx) error {
	userId, _ := uuid.Parse(ctx.Locals("user_id").(string))
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid archived memory id")
	}

	outcome := c.manager.RestoreArchived(ctx.UserContext(), userId, id)
	if err := outcomeError(outcome); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success restore memory", outcomeResponse(outcome)))
}

func (c *memoryController) DeleteArchived(ctx *fiber.Ctx) error {
	userId, _ := uuid.Parse(ctx.Locals("user_id").(string))
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid archived memory id")
	}

	outcome := c.manager.DeleteArchivedMemory(ctx.UserContext(), userId, id)
	if err := outcomeError(outcome); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete archived memory", nil))
}
