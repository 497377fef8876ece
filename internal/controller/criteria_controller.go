package controller

import (
	"cert-evaluator-be/internal/dto"
	"cert-evaluator-be/internal/entity"
	"cert-evaluator-be/internal/pkg/serverutils"
	"cert-evaluator-be/internal/service"
	"cert-evaluator-be/pkg/apperr"
	"cert-evaluator-be/pkg/criteria"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ICriteriaController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	Create(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
	Latest(ctx *fiber.Ctx) error
}

type criteriaController struct {
	criteriaService service.ICriteriaService
	sessionService  service.ISessionService
}

func NewCriteriaController(criteriaService service.ICriteriaService, sessionService service.ISessionService) ICriteriaController {
	return &criteriaController{criteriaService: criteriaService, sessionService: sessionService}
}

func (c *criteriaController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/criteria/v1")
	h.Use(auth)
	h.Post("", c.Create)
	h.Get("session/:sessionId", c.History)
	h.Get("session/:sessionId/latest", c.Latest)
	h.Get(":id", c.Show)
	h.Put(":id", c.Update)
	h.Delete(":id", c.Delete)
}

// owned loads a criteria set and checks the caller owns its session.
func (c *criteriaController) owned(ctx *fiber.Ctx) (*entity.CriteriaSet, error) {
	id, err := paramUUID(ctx, "id")
	if err != nil {
		return nil, err
	}
	set, err := c.criteriaService.GetById(ctx.UserContext(), id)
	if err != nil {
		return nil, err
	}
	if set == nil {
		return nil, apperr.NotFound("criteria", id)
	}
	if err := authorizeSession(ctx, c.sessionService, set.SessionId); err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound("criteria", id)
		}
		return nil, err
	}
	return set, nil
}

func (c *criteriaController) Create(ctx *fiber.Ctx) error {
	var req dto.StoreCriteriaRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}
	if err := authorizeSession(ctx, c.sessionService, req.SessionId); err != nil {
		return err
	}

	m := criteria.Map{}
	if req.Criteria != nil {
		parsed, err := criteria.Parse(req.Criteria)
		if err != nil {
			return err
		}
		m = parsed
	}

	set, warnings, err := c.criteriaService.Store(ctx.UserContext(), req.SessionId, m, req.Description, req.Threshold)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success store criteria", dto.NewCriteriaResponse(set, warnings)))
}

func (c *criteriaController) Show(ctx *fiber.Ctx) error {
	set, err := c.owned(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show criteria", dto.NewCriteriaResponse(set, nil)))
}

func (c *criteriaController) Update(ctx *fiber.Ctx) error {
	set, err := c.owned(ctx)
	if err != nil {
		return err
	}

	var req dto.UpdateCriteriaRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}
	m, err := criteria.Parse(req.Criteria)
	if err != nil {
		return err
	}

	updated, warnings, err := c.criteriaService.Update(ctx.UserContext(), set.Id, m, req.Description, req.Threshold)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success update criteria", dto.NewCriteriaResponse(updated, warnings)))
}

func (c *criteriaController) Delete(ctx *fiber.Ctx) error {
	set, err := c.owned(ctx)
	if err != nil {
		return err
	}

	removed, err := c.criteriaService.Delete(ctx.UserContext(), set.Id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success delete criteria", dto.NewCriteriaResponse(removed, nil)))
}

func (c *criteriaController) sessionParam(ctx *fiber.Ctx) (uuid.UUID, error) {
	sessionId, err := paramUUID(ctx, "sessionId")
	if err != nil {
		return uuid.Nil, err
	}
	return sessionId, authorizeSession(ctx, c.sessionService, sessionId)
}

func (c *criteriaController) History(ctx *fiber.Ctx) error {
	sessionId, err := c.sessionParam(ctx)
	if err != nil {
		return err
	}

	sets, err := c.criteriaService.ListHistory(ctx.UserContext(), sessionId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get criteria history", dto.NewCriteriaResponses(sets)))
}

func (c *criteriaController) Latest(ctx *fiber.Ctx) error {
	sessionId, err := c.sessionParam(ctx)
	if err != nil {
		return err
	}

	set, err := c.criteriaService.GetLatest(ctx.UserContext(), sessionId)
	if err != nil {
		return err
	}
	if set == nil {
		return apperr.NotFound("criteria for session", sessionId)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get latest criteria", dto.NewCriteriaResponse(set, nil)))
}
