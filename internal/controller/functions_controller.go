package controller

import (
	"errors"

	"eq-coach-be/internal/dto"
	"eq-coach-be/internal/pkg/logger"
	"eq-coach-be/internal/pkg/serverutils"
	"eq-coach-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

// IFunctionsController exposes the memory functions to other deployments
// that use the "remote" memory backend.
type IFunctionsController interface {
	RegisterRoutes(r fiber.Router)
	Invoke(ctx *fiber.Ctx) error
}

type functionsController struct {
	service service.IMemoryFunctionService
	auth    fiber.Handler
	logger  logger.ILogger
}

func NewFunctionsController(service service.IMemoryFunctionService, auth fiber.Handler, log logger.ILogger) IFunctionsController {
	return &functionsController{service: service, auth: auth, logger: log}
}

func (c *functionsController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/functions/v1")
	h.Use(c.auth)
	h.Post(":name", c.Invoke)
}

func (c *functionsController) Invoke(ctx *fiber.Ctx) error {
	name := ctx.Params("name")

	var req dto.FunctionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "userId is required"})
	}

	result, err := c.service.Invoke(ctx.UserContext(), name, req)
	if err != nil {
		status := fiber.StatusInternalServerError
		switch {
		case errors.Is(err, service.ErrUnknownFunction):
			status = fiber.StatusNotFound
		case errors.Is(err, service.ErrMissingArchived), errors.Is(err, service.ErrEmptyMemoryInput):
			status = fiber.StatusBadRequest
		}
		c.logger.Warn("FUNCTIONS", "Function call failed", map[string]interface{}{
			"function": name,
			"user_id":  req.UserId.String(),
			"error":    err.Error(),
		})
		return ctx.Status(status).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{"data": result})
}
