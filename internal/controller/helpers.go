package controller

import (
	"context"

	"cert-evaluator-be/internal/dto"
	"cert-evaluator-be/internal/pkg/serverutils"
	"cert-evaluator-be/internal/service"
	"cert-evaluator-be/pkg/apperr"
	"cert-evaluator-be/pkg/conversation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// TurnHandler runs one conversation turn.
type TurnHandler interface {
	HandleTurn(ctx context.Context, req conversation.Request) (*conversation.Reply, error)
}

func userIdFrom(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := serverutils.UserIdFromContext(ctx)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "invalid token subject")
	}
	return id, nil
}

func paramUUID(ctx *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params(name))
	if err != nil {
		return uuid.Nil, apperr.Validation(name, "must be a valid id")
	}
	return id, nil
}

func queryUUID(ctx *fiber.Ctx, name string) (*uuid.UUID, error) {
	raw := ctx.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperr.Validation(name, "must be a valid id")
	}
	return &id, nil
}

// authorizeSession resolves the caller and checks they own sessionId.
func authorizeSession(ctx *fiber.Ctx, sessions service.ISessionService, sessionId uuid.UUID) error {
	userId, err := userIdFrom(ctx)
	if err != nil {
		return err
	}
	_, err = sessions.Get(ctx.UserContext(), userId, sessionId)
	return err
}

func newTurnReplyResponse(reply *conversation.Reply) *dto.TurnReplyResponse {
	return &dto.TurnReplyResponse{
		SessionId:      reply.SessionId,
		Status:         string(reply.Status),
		ShouldContinue: reply.ShouldContinue,
		Intent:         string(reply.Intent),
		Reply:          reply.Message,
		Document:       dto.NewDocumentResponse(reply.Document),
		Evaluation:     dto.NewEvaluationResponse(reply.Evaluation),
		Score:          reply.Score,
		Comparison:     reply.Comparison,
		Warnings:       reply.Warnings,
	}
}
