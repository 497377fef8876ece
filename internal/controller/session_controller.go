package controller

import (
	"cert-evaluator-be/internal/dto"
	"cert-evaluator-be/internal/entity"
	"cert-evaluator-be/internal/pkg/serverutils"
	"cert-evaluator-be/internal/service"
	"cert-evaluator-be/pkg/apperr"
	"cert-evaluator-be/pkg/conversation"

	"github.com/gofiber/fiber/v2"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	Create(ctx *fiber.Ctx) error
	GetAll(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	SubmitTurn(ctx *fiber.Ctx) error
	UploadDocument(ctx *fiber.Ctx) error
	GetDocuments(ctx *fiber.Ctx) error
	DeleteDocument(ctx *fiber.Ctx) error
}

type sessionController struct {
	sessionService  service.ISessionService
	documentService service.IDocumentService
	engine          TurnHandler
	historyWindow   int
}

func NewSessionController(
	sessionService service.ISessionService,
	documentService service.IDocumentService,
	engine TurnHandler,
	historyWindow int,
) ISessionController {
	return &sessionController{
		sessionService:  sessionService,
		documentService: documentService,
		engine:          engine,
		historyWindow:   historyWindow,
	}
}

func (c *sessionController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/session/v1")
	h.Use(auth)
	h.Post("", c.Create)
	h.Get("", c.GetAll)
	h.Get(":id", c.Show)
	h.Post(":id/turns", c.SubmitTurn)
	h.Post(":id/documents", c.UploadDocument)
	h.Get(":id/documents", c.GetDocuments)
	h.Delete(":id/documents/:documentId", c.DeleteDocument)
}

func (c *sessionController) Create(ctx *fiber.Ctx) error {
	userId, err := userIdFrom(ctx)
	if err != nil {
		return err
	}

	session, err := c.sessionService.Create(ctx.UserContext(), userId)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create session", dto.NewSessionResponse(session, nil)))
}

func (c *sessionController) GetAll(ctx *fiber.Ctx) error {
	userId, err := userIdFrom(ctx)
	if err != nil {
		return err
	}

	sessions, err := c.sessionService.List(ctx.UserContext(), userId)
	if err != nil {
		return err
	}

	res := make([]*dto.SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		res = append(res, dto.NewSessionResponse(s, nil))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get all sessions", res))
}

func (c *sessionController) Show(ctx *fiber.Ctx) error {
	userId, err := userIdFrom(ctx)
	if err != nil {
		return err
	}
	id, err := paramUUID(ctx, "id")
	if err != nil {
		return err
	}

	session, err := c.sessionService.Get(ctx.UserContext(), userId, id)
	if err != nil {
		return err
	}
	turns, err := c.sessionService.RecentTurns(ctx.UserContext(), id, c.historyWindow)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show session", dto.NewSessionResponse(session, turns)))
}

func (c *sessionController) SubmitTurn(ctx *fiber.Ctx) error {
	id, err := paramUUID(ctx, "id")
	if err != nil {
		return err
	}
	if err := authorizeSession(ctx, c.sessionService, id); err != nil {
		return err
	}

	var req dto.TurnRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	reply, err := c.engine.HandleTurn(ctx.UserContext(), conversation.Request{
		SessionId:  id,
		Text:       req.Text,
		DocumentId: req.DocumentId,
	})
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success submit turn", newTurnReplyResponse(reply)))
}

// UploadDocument stores a multipart "file" and runs a turn with the optional
// "message" field as its text.
func (c *sessionController) UploadDocument(ctx *fiber.Ctx) error {
	id, err := paramUUID(ctx, "id")
	if err != nil {
		return err
	}
	if err := authorizeSession(ctx, c.sessionService, id); err != nil {
		return err
	}

	header, err := ctx.FormFile("file")
	if err != nil {
		return apperr.Validation("file", "is required")
	}
	file, err := header.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	reply, err := c.engine.HandleTurn(ctx.UserContext(), conversation.Request{
		SessionId: id,
		Text:      ctx.FormValue("message"),
		Upload: &entity.Upload{
			FileName: header.Filename,
			MimeType: header.Header.Get("Content-Type"),
			Content:  file,
		},
	})
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success upload document", newTurnReplyResponse(reply)))
}

func (c *sessionController) GetDocuments(ctx *fiber.Ctx) error {
	id, err := paramUUID(ctx, "id")
	if err != nil {
		return err
	}
	if err := authorizeSession(ctx, c.sessionService, id); err != nil {
		return err
	}

	documents, err := c.documentService.List(ctx.UserContext(), id)
	if err != nil {
		return err
	}

	res := make([]*dto.DocumentResponse, 0, len(documents))
	for _, d := range documents {
		res = append(res, dto.NewDocumentResponse(d))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get all documents", res))
}

func (c *sessionController) DeleteDocument(ctx *fiber.Ctx) error {
	id, err := paramUUID(ctx, "id")
	if err != nil {
		return err
	}
	documentId, err := paramUUID(ctx, "documentId")
	if err != nil {
		return err
	}
	if err := authorizeSession(ctx, c.sessionService, id); err != nil {
		return err
	}

	if err := c.documentService.Delete(ctx.UserContext(), id, documentId); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete document", nil))
}
