package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cert-evaluator-be/internal/constant"
	"cert-evaluator-be/internal/entity"
	"cert-evaluator-be/internal/metrics"
	"cert-evaluator-be/internal/pkg/logger"
	"cert-evaluator-be/pkg/apperr"
	"cert-evaluator-be/pkg/criteria"
	"cert-evaluator-be/pkg/events"
	"cert-evaluator-be/pkg/llm"
	"cert-evaluator-be/pkg/lock"
	"cert-evaluator-be/pkg/retry"
	"cert-evaluator-be/pkg/scoring"
	"cert-evaluator-be/pkg/validation"

	"github.com/google/uuid"
)

const DefaultHistoryWindow = 20

type SessionStore interface {
	Load(ctx context.Context, id uuid.UUID) (*entity.Session, error)
	Save(ctx context.Context, session *entity.Session) error
	AppendTurn(ctx context.Context, sessionId uuid.UUID, role, text string) error
	RecentTurns(ctx context.Context, sessionId uuid.UUID, limit int) ([]*entity.SessionTurn, error)
}

type CriteriaStore interface {
	Store(ctx context.Context, sessionId uuid.UUID, m criteria.Map, description string, threshold *float64) (*entity.CriteriaSet, []string, error)
	GetById(ctx context.Context, id uuid.UUID) (*entity.CriteriaSet, error)
}

type EvaluationStore interface {
	Save(ctx context.Context, sessionId, criteriaId uuid.UUID, documentId *uuid.UUID, checks []scoring.Check, score float64, passed bool) (*entity.Evaluation, error)
	GetById(ctx context.Context, id uuid.UUID) (*entity.Evaluation, error)
	Compare(ctx context.Context, oldId, newId uuid.UUID) (*entity.Comparison, error)
}

type DocumentStore interface {
	Ingest(ctx context.Context, sessionId uuid.UUID, upload entity.Upload) (*entity.Document, error)
	Get(ctx context.Context, sessionId, id uuid.UUID) (*entity.Document, error)
}

type Validator interface {
	Evaluate(ctx context.Context, set *entity.CriteriaSet, documentId *uuid.UUID) (*validation.Result, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, eventType string, data map[string]interface{})
}

type Config struct {
	HistoryWindow int
	Policy        retry.Policy
}

type Dependencies struct {
	Sessions    SessionStore
	Criteria    CriteriaStore
	Evaluations EvaluationStore
	Documents   DocumentStore
	Validator   Validator
	Classifier  *Classifier
	Interpreter *Interpreter
	Provider    llm.LLMProvider
	Locker      lock.Locker
	Publisher   EventPublisher
	Logger      logger.ILogger
}

// Request is one user turn. Upload carries a new file; DocumentId points at
// a document already stored in the session.
type Request struct {
	SessionId  uuid.UUID
	Text       string
	Upload     *entity.Upload
	DocumentId *uuid.UUID
}

type Reply struct {
	SessionId      uuid.UUID
	Status         Status
	ShouldContinue bool
	Intent         Intent
	Message        string
	Document       *entity.Document
	Evaluation     *entity.Evaluation
	Score          *scoring.Result
	Comparison     *entity.Comparison
	Warnings       []string
}

// Engine applies Transition decisions to stored sessions. Turns for one
// session are serialized through the locker.
type Engine struct {
	deps Dependencies
	cfg  Config
}

func NewEngine(deps Dependencies, cfg Config) *Engine {
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = DefaultHistoryWindow
	}
	return &Engine{deps: deps, cfg: cfg}
}

// turn carries the mutable state of one HandleTurn call.
type turn struct {
	req      Request
	session  *entity.Session
	history  []*entity.SessionTurn
	document *entity.Document
	reply    *Reply
	messages []string

	failStatus *Status
	reused     bool
}

func (t *turn) say(msg string) { t.messages = append(t.messages, msg) }

func (t *turn) fail(msg string) bool {
	t.say(msg)
	return false
}

func (t *turn) failTo(status Status, msg string) bool {
	t.failStatus = &status
	return t.fail(msg)
}

func (e *Engine) HandleTurn(ctx context.Context, req Request) (*Reply, error) {
	unlock, err := e.deps.Locker.Lock(ctx, "session:"+req.SessionId.String())
	if err != nil {
		return nil, fmt.Errorf("lock session: %w", err)
	}
	defer unlock()

	session, err := e.deps.Sessions.Load(ctx, req.SessionId)
	if err != nil {
		return nil, err
	}

	t := &turn{req: req, session: session, reply: &Reply{SessionId: session.Id}}

	// A file sent with a goodbye is not ingested; the turn only closes.
	if session.ShouldContinue && !IsStop(req.Text) {
		ok, err := e.receiveDocument(ctx, t)
		if err != nil {
			return nil, err
		}
		if !ok {
			t.reply.Intent = IntentGeneral
			return e.finish(ctx, t, ParseStatus(session.Status), session.ShouldContinue)
		}
	}

	history, err := e.deps.Sessions.RecentTurns(ctx, session.Id, e.cfg.HistoryWindow)
	if err != nil {
		return nil, err
	}
	t.history = history

	state := State{
		Status:         ParseStatus(t.session.Status),
		ShouldContinue: t.session.ShouldContinue,
		HasCriteria:    t.session.ActiveCriteriaId != nil,
	}
	intent := e.deps.Classifier.Classify(ctx, state, history, req.Text)
	if t.document != nil && intent != IntentStop && intent != IntentProvideCriteria && strings.TrimSpace(req.Text) != "" {
		// A message sent with a file is usually the criteria for it.
		if KeywordIntent(AwaitingCriteria, req.Text) == IntentProvideCriteria {
			intent = IntentProvideCriteria
		}
	}
	t.reply.Intent = intent

	decision := Transition(state, Turn{
		Intent:          intent,
		DocumentArrived: t.document != nil,
		HasText:         strings.TrimSpace(req.Text) != "",
	})

	ok := true
	for _, effect := range decision.Effects {
		if !e.apply(ctx, t, effect) {
			ok = false
			break
		}
	}

	next, shouldContinue := decision.Next, decision.ShouldContinue
	if !ok {
		next, shouldContinue = decision.OnFailure, t.session.ShouldContinue
		if t.failStatus != nil {
			next = *t.failStatus
		}
	}
	return e.finish(ctx, t, next, shouldContinue)
}

// receiveDocument stores an upload or resolves a referenced document. It
// returns false when the turn must end with a re-upload request.
func (e *Engine) receiveDocument(ctx context.Context, t *turn) (bool, error) {
	switch {
	case t.req.Upload != nil:
		document, err := e.deps.Documents.Ingest(ctx, t.session.Id, *t.req.Upload)
		if apperr.IsExtraction(err) {
			t.say(constant.MessageReuploadDocument)
			return false, nil
		}
		if err != nil {
			return false, err
		}
		t.document = document
		t.reply.Document = document

		// Ingestion bumped the session's document counter.
		session, err := e.deps.Sessions.Load(ctx, t.session.Id)
		if err != nil {
			return false, err
		}
		t.session = session

	case t.req.DocumentId != nil:
		if t.session.ActiveDocumentId != nil && *t.session.ActiveDocumentId == *t.req.DocumentId {
			return true, nil
		}
		document, err := e.deps.Documents.Get(ctx, t.session.Id, *t.req.DocumentId)
		if err != nil {
			return false, err
		}
		t.document = document
		t.reply.Document = document
	}
	return true, nil
}

func (e *Engine) apply(ctx context.Context, t *turn, effect Effect) bool {
	s := t.session
	switch effect {
	case EffectClose:
		t.say(constant.MessageClosing)
		e.deps.Publisher.Publish(ctx, events.TypeSessionClosed, map[string]interface{}{
			"session_id": s.Id.String(),
			"status":     s.Status,
		})
	case EffectReopen:
		t.say(constant.MessageRestarted)
	case EffectSessionClosed:
		t.say(constant.MessageSessionClosed)
	case EffectAttachDocument:
		s.ActiveDocumentId = &t.document.Id
	case EffectClearResults:
		s.LastEvaluationId = nil
		s.ExtractedFields = nil
	case EffectClearCriteria:
		s.ActiveCriteriaId = nil
	case EffectAskUpload:
		t.say(constant.MessageAskUpload)
	case EffectAskCriteria:
		t.say(constant.MessageAskCriteria)
	case EffectAskRestate:
		t.say(constant.MessageAskRestateCriteria)
	case EffectAskNewCriteria:
		t.say(constant.MessageAskNewCriteria)
	case EffectExtract:
		return e.extract(ctx, t)
	case EffectMerge:
		return e.merge(ctx, t)
	case EffectValidate:
		return e.validate(ctx, t)
	case EffectAnswerResults:
		return e.answerResults(ctx, t)
	case EffectConverse:
		t.say(e.converse(ctx, t, nil))
	}
	return true
}

func (e *Engine) extract(ctx context.Context, t *turn) bool {
	interpretation, err := e.deps.Interpreter.Extract(ctx, t.req.Text)
	if err != nil || interpretation.Empty() {
		return t.fail(constant.MessageClarifyCriteria)
	}

	set, warnings, err := e.deps.Criteria.Store(ctx, t.session.Id, interpretation.Criteria, interpretation.Description, interpretation.Threshold)
	if apperr.IsValidation(err) {
		return t.fail(constant.MessageClarifyCriteria)
	}
	if err != nil {
		return e.internalError(t, "store criteria", err)
	}

	t.session.ActiveCriteriaId = &set.Id
	t.reply.Warnings = warnings
	t.say(fmt.Sprintf(constant.MessageCriteriaStored, SummarizeCriteria(set.Criteria, set.Description)))
	return true
}

// merge folds a partial update into the active criteria. A no-op merge keeps
// the active version; anything else is stored as a new version.
func (e *Engine) merge(ctx context.Context, t *turn) bool {
	current, err := e.activeCriteria(ctx, t)
	if err != nil {
		return e.internalError(t, "load criteria", err)
	}
	if current == nil {
		return t.failTo(AwaitingCriteria, constant.MessageNoCriteria)
	}

	interpretation, err := e.deps.Interpreter.ExtractUpdates(ctx, current.Criteria, t.req.Text)
	if err != nil {
		return e.collaboratorFailure(t, err)
	}

	merged, err := current.Criteria.Merge(interpretation.Updates)
	if err != nil {
		return t.fail(constant.MessageClarifyCriteria)
	}

	description := current.Description
	if interpretation.Description != "" && len(interpretation.Updates) > 0 {
		description = interpretation.Description
	}
	threshold := current.Threshold
	if interpretation.Threshold != nil {
		threshold = criteria.ClampThreshold(interpretation.Threshold)
	}

	if criteria.Equal(current.Criteria, merged) && threshold == current.Threshold {
		t.reused = true
		return true
	}

	set, warnings, err := e.deps.Criteria.Store(ctx, t.session.Id, merged, description, &threshold)
	if apperr.IsValidation(err) {
		return t.fail(constant.MessageClarifyCriteria)
	}
	if err != nil {
		return e.internalError(t, "store merged criteria", err)
	}
	t.session.ActiveCriteriaId = &set.Id
	t.reply.Warnings = warnings
	return true
}

func (e *Engine) validate(ctx context.Context, t *turn) bool {
	s := t.session
	set, err := e.activeCriteria(ctx, t)
	if err != nil {
		return e.internalError(t, "load criteria", err)
	}
	if set == nil {
		s.ActiveCriteriaId = nil
		return t.failTo(AwaitingCriteria, constant.MessageNoCriteria)
	}

	if s.ActiveDocumentId != nil {
		document, err := e.deps.Documents.Get(ctx, s.Id, *s.ActiveDocumentId)
		switch {
		case apperr.IsNotFound(err):
		case err != nil:
			return e.internalError(t, "load document", err)
		case document.Status == entity.DocumentStatusPending:
			return t.fail(constant.MessageStillProcessing)
		case document.Status == entity.DocumentStatusFailed:
			return t.failTo(AwaitingUpload, constant.MessageIndexingFailed)
		}
	}

	result, err := e.deps.Validator.Evaluate(ctx, set, s.ActiveDocumentId)
	if apperr.IsValidation(err) {
		s.ActiveCriteriaId = nil
		return t.failTo(AwaitingCriteria, constant.MessageNoCriteria)
	}
	if err != nil {
		return e.collaboratorFailure(t, err)
	}

	score := scoring.Score(result.Checks, set.Weights(), set.Threshold)
	evaluation, err := e.deps.Evaluations.Save(ctx, s.Id, set.Id, s.ActiveDocumentId, result.Checks, scoring.Round2(score.OverallScore), score.Passed)
	if err != nil {
		return e.internalError(t, "save evaluation", err)
	}

	var comparison *entity.Comparison
	if s.LastEvaluationId != nil {
		comparison, err = e.deps.Evaluations.Compare(ctx, *s.LastEvaluationId, evaluation.Id)
		if err != nil {
			e.deps.Logger.Warn("ConversationEngine", "Comparison failed", map[string]interface{}{
				"session_id": s.Id.String(),
				"error":      err,
			})
			comparison = nil
		}
	}

	s.LastEvaluationId = &evaluation.Id
	s.ExtractedFields = extractedFields(result.Checks)

	t.reply.Evaluation = evaluation
	t.reply.Score = &score
	t.reply.Comparison = comparison
	if t.reused {
		t.say(constant.MessageNothingChanged)
	}
	t.say(RenderResult(score, result.Checks, comparison))
	return true
}

func (e *Engine) answerResults(ctx context.Context, t *turn) bool {
	if t.session.LastEvaluationId == nil {
		t.say(constant.MessageNoResultsYet)
		return true
	}
	evaluation, err := e.deps.Evaluations.GetById(ctx, *t.session.LastEvaluationId)
	if err != nil {
		return e.internalError(t, "load evaluation", err)
	}
	if evaluation == nil {
		t.say(constant.MessageNoResultsYet)
		return true
	}
	t.reply.Evaluation = evaluation
	t.say(e.converse(ctx, t, evaluation))
	return true
}

// converse answers in place from recent history. It never fails the turn.
func (e *Engine) converse(ctx context.Context, t *turn, evaluation *entity.Evaluation) string {
	if evaluation == nil && t.session.LastEvaluationId != nil {
		evaluation, _ = e.deps.Evaluations.GetById(ctx, *t.session.LastEvaluationId)
	}

	system := fmt.Sprintf(constant.ConversationSystemPrompt, t.session.Status, SummarizeEvaluation(evaluation))
	messages := make([]llm.Message, 0, len(t.history)+2)
	messages = append(messages, llm.Message{Role: "system", Content: system})
	for _, h := range t.history {
		messages = append(messages, llm.Message{Role: h.Role, Content: h.Text})
	}
	messages = append(messages, llm.Message{Role: entity.TurnRoleUser, Content: t.req.Text})

	reply, err := retry.Call(ctx, "llm", e.cfg.Policy, func(ctx context.Context) (string, error) {
		return e.deps.Provider.Chat(ctx, messages)
	})
	if err != nil || strings.TrimSpace(reply) == "" {
		e.deps.Logger.Warn("ConversationEngine", "Conversational reply failed", map[string]interface{}{
			"session_id": t.session.Id.String(),
			"error":      err,
		})
		if evaluation != nil {
			return SummarizeEvaluation(evaluation)
		}
		return constant.MessageGeneralFallback
	}
	return strings.TrimSpace(reply)
}

func (e *Engine) activeCriteria(ctx context.Context, t *turn) (*entity.CriteriaSet, error) {
	if t.session.ActiveCriteriaId == nil {
		return nil, nil
	}
	return e.deps.Criteria.GetById(ctx, *t.session.ActiveCriteriaId)
}

func (e *Engine) collaboratorFailure(t *turn, err error) bool {
	e.deps.Logger.Warn("ConversationEngine", "Collaborator failure", map[string]interface{}{
		"session_id": t.session.Id.String(),
		"error":      err,
	})
	switch {
	case apperr.IsParse(err):
		return t.fail(constant.MessageValidationRetry)
	case apperr.IsCollaborator(err):
		return t.fail(constant.MessageCollaboratorDown)
	default:
		return e.internalError(t, "collaborator", err)
	}
}

func (e *Engine) internalError(t *turn, op string, err error) bool {
	e.deps.Logger.Error("ConversationEngine", "Turn step failed", map[string]interface{}{
		"session_id": t.session.Id.String(),
		"step":       op,
		"error":      err,
	})
	return t.fail(constant.MessageInternalError)
}

// finish persists the session and both sides of the exchange.
func (e *Engine) finish(ctx context.Context, t *turn, next Status, shouldContinue bool) (*Reply, error) {
	t.session.Status = string(next)
	t.session.ShouldContinue = shouldContinue
	if err := e.deps.Sessions.Save(ctx, t.session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	message := strings.Join(t.messages, "\n\n")
	if message == "" {
		message = constant.MessageGeneralFallback
	}

	userText := t.req.Text
	if t.document != nil && t.req.Upload != nil {
		userText = strings.TrimSpace(fmt.Sprintf("[uploaded %s] %s", t.document.Name, userText))
	}
	if err := e.appendTurns(ctx, t.session.Id, userText, message); err != nil {
		return nil, err
	}

	metrics.RecordTurn(string(next), string(t.reply.Intent))

	t.reply.Status = next
	t.reply.ShouldContinue = shouldContinue
	t.reply.Message = message
	return t.reply, nil
}

func (e *Engine) appendTurns(ctx context.Context, sessionId uuid.UUID, userText, reply string) error {
	var errs []error
	if strings.TrimSpace(userText) != "" {
		errs = append(errs, e.deps.Sessions.AppendTurn(ctx, sessionId, entity.TurnRoleUser, userText))
	}
	errs = append(errs, e.deps.Sessions.AppendTurn(ctx, sessionId, entity.TurnRoleAssistant, reply))
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("append turns: %w", err)
	}
	return nil
}

func extractedFields(checks []scoring.Check) map[string]interface{} {
	fields := make(map[string]interface{})
	for _, c := range checks {
		if c.Found != nil {
			fields[c.Criterion] = c.Found
		}
	}
	return fields
}
