package controller

import (
	"cert-evaluator-be/internal/dto"
	"cert-evaluator-be/internal/entity"
	"cert-evaluator-be/internal/pkg/serverutils"
	"cert-evaluator-be/internal/service"
	"cert-evaluator-be/pkg/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IEvaluationController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	Show(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
	Latest(ctx *fiber.Ctx) error
	Compare(ctx *fiber.Ctx) error
	Reevaluate(ctx *fiber.Ctx) error
}

type evaluationController struct {
	evaluationService   service.IEvaluationService
	reevaluationService service.IReevaluationService
	sessionService      service.ISessionService
}

func NewEvaluationController(
	evaluationService service.IEvaluationService,
	reevaluationService service.IReevaluationService,
	sessionService service.ISessionService,
) IEvaluationController {
	return &evaluationController{
		evaluationService:   evaluationService,
		reevaluationService: reevaluationService,
		sessionService:      sessionService,
	}
}

func (c *evaluationController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/evaluation/v1")
	h.Use(auth)
	h.Get("compare", c.Compare)
	h.Get("session/:sessionId", c.History)
	h.Get("session/:sessionId/latest", c.Latest)
	h.Get(":id", c.Show)
	h.Post(":id/reevaluate", c.Reevaluate)
}

func (c *evaluationController) load(ctx *fiber.Ctx, id uuid.UUID) (*entity.Evaluation, error) {
	evaluation, err := c.evaluationService.GetById(ctx.UserContext(), id)
	if err != nil {
		return nil, err
	}
	if evaluation == nil {
		return nil, apperr.NotFound("evaluation", id)
	}
	if err := authorizeSession(ctx, c.sessionService, evaluation.SessionId); err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound("evaluation", id)
		}
		return nil, err
	}
	return evaluation, nil
}

func (c *evaluationController) Show(ctx *fiber.Ctx) error {
	id, err := paramUUID(ctx, "id")
	if err != nil {
		return err
	}
	evaluation, err := c.load(ctx, id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show evaluation", dto.NewEvaluationResponse(evaluation)))
}

func (c *evaluationController) History(ctx *fiber.Ctx) error {
	sessionId, err := paramUUID(ctx, "sessionId")
	if err != nil {
		return err
	}
	documentId, err := queryUUID(ctx, "document_id")
	if err != nil {
		return err
	}
	if err := authorizeSession(ctx, c.sessionService, sessionId); err != nil {
		return err
	}

	evaluations, err := c.evaluationService.GetHistory(ctx.UserContext(), sessionId, documentId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get evaluation history", dto.NewEvaluationResponses(evaluations)))
}

func (c *evaluationController) Latest(ctx *fiber.Ctx) error {
	sessionId, err := paramUUID(ctx, "sessionId")
	if err != nil {
		return err
	}
	documentId, err := queryUUID(ctx, "document_id")
	if err != nil {
		return err
	}
	if err := authorizeSession(ctx, c.sessionService, sessionId); err != nil {
		return err
	}

	evaluation, err := c.evaluationService.GetLatest(ctx.UserContext(), sessionId, documentId)
	if err != nil {
		return err
	}
	if evaluation == nil {
		return apperr.NotFound("evaluation for session", sessionId)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get latest evaluation", dto.NewEvaluationResponse(evaluation)))
}

// Compare takes ?old=<id>&new=<id>.
func (c *evaluationController) Compare(ctx *fiber.Ctx) error {
	oldId, err := queryUUID(ctx, "old")
	if err != nil {
		return err
	}
	newId, err := queryUUID(ctx, "new")
	if err != nil {
		return err
	}
	if oldId == nil || newId == nil {
		return apperr.Validation("old", "old and new evaluation ids are required")
	}
	if _, err := c.load(ctx, *oldId); err != nil {
		return err
	}
	if _, err := c.load(ctx, *newId); err != nil {
		return err
	}

	comparison, err := c.evaluationService.Compare(ctx.UserContext(), *oldId, *newId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success compare evaluations", comparison))
}

func (c *evaluationController) Reevaluate(ctx *fiber.Ctx) error {
	id, err := paramUUID(ctx, "id")
	if err != nil {
		return err
	}
	if _, err := c.load(ctx, id); err != nil {
		return err
	}

	var req dto.ReevaluateRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	out, err := c.reevaluationService.Reevaluate(ctx.UserContext(), id, service.ReevaluateInput{
		CriteriaUpdates: req.CriteriaUpdates,
		Description:     req.Description,
		Threshold:       req.Threshold,
		InPlace:         req.Mode == dto.ReevaluateModeInPlace,
	})
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success reevaluate", &dto.ReevaluateResponse{
		Evaluation: dto.NewEvaluationResponse(out.Evaluation),
		Criteria:   dto.NewCriteriaResponse(out.Criteria, out.Warnings),
		Score:      &out.Score,
		Comparison: out.Comparison,
	}))
}
