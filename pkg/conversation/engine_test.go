package conversation_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"cert-evaluator-be/internal/constant"
	"cert-evaluator-be/internal/entity"
	"cert-evaluator-be/internal/pkg/logger"
	"cert-evaluator-be/internal/repository/memory"
	"cert-evaluator-be/internal/repository/unitofwork"
	"cert-evaluator-be/internal/service"
	"cert-evaluator-be/pkg/apperr"
	"cert-evaluator-be/pkg/conversation"
	"cert-evaluator-be/pkg/extraction"
	"cert-evaluator-be/pkg/llm"
	"cert-evaluator-be/pkg/lock"
	"cert-evaluator-be/pkg/retry"
	"cert-evaluator-be/pkg/scoring"
	"cert-evaluator-be/pkg/validation"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedLLM answers by recognising which prompt it was sent.
type scriptedLLM struct {
	mu       sync.Mutex
	intent   string
	criteria string
	update   string
	chat     string
	chatErr  error
}

func (s *scriptedLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prompt := history[0].Content
	switch {
	case strings.HasPrefix(prompt, "You route messages"):
		return fmt.Sprintf(`{"intent":%q,"confidence":0.9}`, s.intent), nil
	case strings.HasPrefix(prompt, "Extract certificate evaluation criteria"):
		return s.criteria, nil
	case strings.HasPrefix(prompt, "The user wants to change"):
		return s.update, nil
	default:
		return s.chat, s.chatErr
	}
}

func (s *scriptedLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return s.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

func (s *scriptedLLM) set(f func(s *scriptedLLM)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f(s)
}

// fakeValidator passes the criteria named in passes.
type fakeValidator struct {
	passes map[string]bool
	err    error
	calls  int
}

func (v *fakeValidator) Evaluate(ctx context.Context, set *entity.CriteriaSet, documentId *uuid.UUID) (*validation.Result, error) {
	v.calls++
	if v.err != nil {
		return nil, v.err
	}
	effective, err := validation.EffectiveCriteria(set)
	if err != nil {
		return nil, err
	}

	checks := make([]scoring.Check, 0, len(effective))
	passed := true
	for _, name := range effective.Names() {
		def := effective[name]
		weight := def.Weight
		ok := v.passes[name]
		if def.Required && !ok {
			passed = false
		}
		checks = append(checks, scoring.Check{
			Criterion: name,
			Expected:  def.Value,
			Found:     fmt.Sprintf("%s-found", name),
			Passed:    ok,
			Weight:    &weight,
			Required:  def.Required,
		})
	}
	return &validation.Result{Passed: passed, Checks: checks}, nil
}

type harness struct {
	ctx         context.Context
	engine      *conversation.Engine
	factory     unitofwork.RepositoryFactory
	sessions    service.ISessionService
	criteria    service.ICriteriaService
	evaluations service.IEvaluationService
	llm         *scriptedLLM
	validator   *fakeValidator
	sessionId   uuid.UUID
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	log := logger.NewNopLogger()

	factory := unitofwork.NewMemoryRepositoryFactory(memory.NewStore(time.Hour))
	publisher := service.NewPublisherService(nil, log)
	sessions := service.NewSessionService(factory)
	criteriaService := service.NewCriteriaService(factory, publisher, log, 70)
	evaluations := service.NewEvaluationService(factory, publisher, log)

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { _ = pubSub.Close() })
	documents := service.NewDocumentService(factory, extraction.NewPlainTextExtractor(), pubSub, t.TempDir(), log)

	model := &scriptedLLM{intent: "general", chat: "Happy to help."}
	validator := &fakeValidator{passes: map[string]bool{}}
	policy := retry.Policy{}

	engine := conversation.NewEngine(conversation.Dependencies{
		Sessions:    sessions,
		Criteria:    criteriaService,
		Evaluations: evaluations,
		Documents:   documents,
		Validator:   validator,
		Classifier:  conversation.NewClassifier(model, policy, log),
		Interpreter: conversation.NewInterpreter(model, policy, log),
		Provider:    model,
		Locker:      lock.NewLocalLocker(),
		Publisher:   publisher,
		Logger:      log,
	}, conversation.Config{Policy: policy})

	session, err := sessions.Create(ctx, uuid.New())
	require.NoError(t, err)

	return &harness{
		ctx:         ctx,
		engine:      engine,
		factory:     factory,
		sessions:    sessions,
		criteria:    criteriaService,
		evaluations: evaluations,
		llm:         model,
		validator:   validator,
		sessionId:   session.Id,
	}
}

func (h *harness) say(t *testing.T, intent, text string) *conversation.Reply {
	t.Helper()
	h.llm.set(func(s *scriptedLLM) { s.intent = intent })
	reply, err := h.engine.HandleTurn(h.ctx, conversation.Request{SessionId: h.sessionId, Text: text})
	require.NoError(t, err)
	return reply
}

func (h *harness) upload(t *testing.T, name, content string) *conversation.Reply {
	t.Helper()
	reply, err := h.engine.HandleTurn(h.ctx, conversation.Request{
		SessionId: h.sessionId,
		Upload:    &entity.Upload{FileName: name, MimeType: "text/plain", Content: strings.NewReader(content)},
	})
	require.NoError(t, err)
	return reply
}

func (h *harness) markIndexed(t *testing.T, documentId uuid.UUID) {
	t.Helper()
	uow := h.factory.NewUnitOfWork(h.ctx)
	require.NoError(t, uow.DocumentRepository().UpdateStatus(h.ctx, documentId, entity.DocumentStatusIndexed))
}

const extractedCriteria = `{"structured":{
	"expiryDate":{"weight":0.6,"required":true,"value":"2027-01-01"},
	"agency":{"weight":0.4,"required":false,"value":"FAA"}
},"description":"Valid until 2027 and issued by the FAA","threshold":null}`

// validated drives a fresh session to VALIDATED and returns the last reply.
func (h *harness) validated(t *testing.T) *conversation.Reply {
	t.Helper()
	doc := h.upload(t, "licence.txt", "Pilot licence. Valid until 2027-06-30. Issued by EASA.")
	require.NotNil(t, doc.Document)
	h.markIndexed(t, doc.Document.Id)

	h.llm.set(func(s *scriptedLLM) { s.criteria = extractedCriteria })
	stored := h.say(t, "provide_criteria", "expiry after 2027 (required) and issued by the FAA")
	require.Equal(t, conversation.ReadyToValidate, stored.Status)

	h.validator.passes = map[string]bool{"expiryDate": true}
	reply := h.say(t, "proceed", "yes, go ahead")
	require.Equal(t, conversation.Validated, reply.Status)
	return reply
}

func TestTurnWithoutDocumentAsksForUpload(t *testing.T) {
	h := newHarness(t)

	reply := h.say(t, "proceed", "validate my certificate")

	assert.Equal(t, conversation.AwaitingUpload, reply.Status)
	assert.True(t, reply.ShouldContinue)
	assert.Equal(t, constant.MessageAskUpload, reply.Message)
	assert.Zero(t, h.validator.calls)
}

func TestUploadAsksForCriteria(t *testing.T) {
	h := newHarness(t)

	first := h.upload(t, "a.txt", "first certificate")
	second := h.upload(t, "b.txt", "second certificate")

	assert.Equal(t, conversation.AwaitingCriteria, first.Status)
	assert.Equal(t, constant.MessageAskCriteria, first.Message)
	assert.Equal(t, 1, first.Document.Index)
	assert.Equal(t, 2, second.Document.Index)

	session, err := h.sessions.Load(h.ctx, h.sessionId)
	require.NoError(t, err)
	assert.Equal(t, second.Document.Id, *session.ActiveDocumentId)
}

func TestUnreadableUploadKeepsWaiting(t *testing.T) {
	h := newHarness(t)

	reply, err := h.engine.HandleTurn(h.ctx, conversation.Request{
		SessionId: h.sessionId,
		Upload:    &entity.Upload{FileName: "scan.png", MimeType: "image/png", Content: strings.NewReader("\x89PNG")},
	})
	require.NoError(t, err)

	assert.Equal(t, conversation.AwaitingUpload, reply.Status)
	assert.Equal(t, constant.MessageReuploadDocument, reply.Message)
	assert.Nil(t, reply.Document)
}

func TestFullEvaluationFlow(t *testing.T) {
	h := newHarness(t)

	doc := h.upload(t, "licence.txt", "Valid until 2027-06-30. Issued by the FAA.")
	h.llm.set(func(s *scriptedLLM) { s.criteria = extractedCriteria })
	stored := h.say(t, "provide_criteria", "expiry after 2027 and FAA")

	assert.Equal(t, conversation.ReadyToValidate, stored.Status)
	assert.Contains(t, stored.Message, "expiryDate (required, 60%")

	pending := h.say(t, "proceed", "go ahead")
	assert.Equal(t, conversation.ReadyToValidate, pending.Status)
	assert.Equal(t, constant.MessageStillProcessing, pending.Message)
	assert.Zero(t, h.validator.calls)

	h.markIndexed(t, doc.Document.Id)
	h.validator.passes = map[string]bool{"expiryDate": true, "agency": true}
	done := h.say(t, "proceed", "go ahead")

	assert.Equal(t, conversation.Validated, done.Status)
	require.NotNil(t, done.Evaluation)
	assert.Equal(t, 100.0, done.Evaluation.Score)
	assert.True(t, done.Evaluation.Passed)
	assert.Equal(t, doc.Document.Id, *done.Evaluation.DocumentId)
	assert.Nil(t, done.Comparison)
	assert.Contains(t, done.Message, "PASSED")

	session, err := h.sessions.Load(h.ctx, h.sessionId)
	require.NoError(t, err)
	assert.Equal(t, done.Evaluation.Id, *session.LastEvaluationId)
	assert.Equal(t, "agency-found", session.ExtractedFields["agency"])

	turns, err := h.sessions.RecentTurns(h.ctx, h.sessionId, 20)
	require.NoError(t, err)
	assert.Equal(t, entity.TurnRoleAssistant, turns[len(turns)-1].Role)
}

func TestUnclearCriteriaAsksAgain(t *testing.T) {
	h := newHarness(t)
	h.upload(t, "a.txt", "certificate text")

	h.llm.set(func(s *scriptedLLM) { s.criteria = `{"structured":{},"description":"","threshold":null}` })
	reply := h.say(t, "provide_criteria", "the expiry date matters")

	assert.Equal(t, conversation.AwaitingCriteria, reply.Status)
	assert.Equal(t, constant.MessageClarifyCriteria, reply.Message)
}

func TestCriteriaFallbackWhenModelFails(t *testing.T) {
	h := newHarness(t)
	h.upload(t, "a.txt", "certificate text")

	h.llm.set(func(s *scriptedLLM) { s.criteria = "sorry, I can't do JSON today" })
	reply := h.say(t, "provide_criteria", "check the expiry date please")

	assert.Equal(t, conversation.ReadyToValidate, reply.Status)
	set, err := h.criteria.GetLatest(h.ctx, h.sessionId)
	require.NoError(t, err)
	require.NotNil(t, set)
	assert.Contains(t, set.Criteria, "expiryDate")

	h.llm.set(func(s *scriptedLLM) { s.criteria = "still no JSON" })
	h.upload(t, "b.txt", "another certificate")
	unclear := h.say(t, "provide_criteria", "it should look nice")
	assert.Equal(t, conversation.AwaitingCriteria, unclear.Status)
	assert.Equal(t, constant.MessageClarifyCriteria, unclear.Message)
}

func TestStopClosesUntilRestart(t *testing.T) {
	h := newHarness(t)
	h.upload(t, "a.txt", "certificate text")

	closing := h.say(t, "general", "stop")
	assert.False(t, closing.ShouldContinue)
	assert.Equal(t, conversation.AwaitingCriteria, closing.Status)
	assert.Equal(t, constant.MessageClosing, closing.Message)

	ignored := h.say(t, "provide_criteria", "the agency must be FAA")
	assert.False(t, ignored.ShouldContinue)
	assert.Equal(t, conversation.AwaitingCriteria, ignored.Status)
	assert.Equal(t, constant.MessageSessionClosed, ignored.Message)

	latest, err := h.criteria.GetLatest(h.ctx, h.sessionId)
	require.NoError(t, err)
	assert.Nil(t, latest, "a closed session stores nothing")

	reopened := h.say(t, "general", "restart")
	assert.True(t, reopened.ShouldContinue)
	assert.Equal(t, conversation.AwaitingCriteria, reopened.Status)
	assert.Equal(t, constant.MessageRestarted, reopened.Message)
}

func TestCriteriaMentioningEndAreInterpreted(t *testing.T) {
	h := newHarness(t)
	h.upload(t, "a.txt", "certificate text. End date 2027-06-30.")

	h.llm.set(func(s *scriptedLLM) {
		s.criteria = `{"structured":{"endDate":{"weight":1,"required":true,"value":"2027"}},"description":"","threshold":null}`
	})
	reply := h.say(t, "provide_criteria", "check the end date")

	assert.True(t, reply.ShouldContinue)
	assert.Equal(t, conversation.ReadyToValidate, reply.Status)
	assert.NotEqual(t, constant.MessageClosing, reply.Message)
}

func TestUploadWithStopIsNotIngested(t *testing.T) {
	h := newHarness(t)

	reply, err := h.engine.HandleTurn(h.ctx, conversation.Request{
		SessionId: h.sessionId,
		Text:      "stop",
		Upload:    &entity.Upload{FileName: "a.txt", MimeType: "text/plain", Content: strings.NewReader("certificate text")},
	})
	require.NoError(t, err)
	assert.False(t, reply.ShouldContinue)
	assert.Equal(t, constant.MessageClosing, reply.Message)
	assert.Nil(t, reply.Document)

	uow := h.factory.NewUnitOfWork(h.ctx)
	docs, err := uow.DocumentRepository().FindAllBySession(h.ctx, h.sessionId)
	require.NoError(t, err)
	assert.Empty(t, docs)

	session, err := h.sessions.Load(h.ctx, h.sessionId)
	require.NoError(t, err)
	assert.Zero(t, session.DocumentCounter)
}

func TestReevaluationMergesAndKeepsHistory(t *testing.T) {
	h := newHarness(t)
	first := h.validated(t)
	require.NotNil(t, first.Evaluation)
	assert.Equal(t, 60.0, first.Evaluation.Score)
	assert.False(t, first.Evaluation.Passed)

	h.llm.set(func(s *scriptedLLM) {
		s.update = `{"structured":{"agency":{"value":"EASA"}},"description":"","threshold":null}`
	})
	h.validator.passes = map[string]bool{"expiryDate": true, "agency": true}
	second := h.say(t, "reevaluate", "re-evaluate with the agency set to EASA")

	assert.Equal(t, conversation.Validated, second.Status)
	require.NotNil(t, second.Evaluation)
	assert.NotEqual(t, first.Evaluation.Id, second.Evaluation.Id)
	assert.NotEqual(t, first.Evaluation.CriteriaId, second.Evaluation.CriteriaId)

	oldSet, err := h.criteria.GetById(h.ctx, first.Evaluation.CriteriaId)
	require.NoError(t, err)
	newSet, err := h.criteria.GetById(h.ctx, second.Evaluation.CriteriaId)
	require.NoError(t, err)
	assert.Equal(t, "FAA", oldSet.Criteria["agency"].Value)
	assert.Equal(t, "EASA", newSet.Criteria["agency"].Value)
	assert.Equal(t, 0.4, newSet.Criteria["agency"].Weight)
	assert.Equal(t, oldSet.Criteria["expiryDate"], newSet.Criteria["expiryDate"])

	old, err := h.evaluations.GetById(h.ctx, first.Evaluation.Id)
	require.NoError(t, err)
	assert.Equal(t, 60.0, old.Score)
	assert.Equal(t, first.Evaluation.CriteriaId, old.CriteriaId)

	require.NotNil(t, second.Comparison)
	assert.Equal(t, []string{"agency"}, second.Comparison.CriteriaModified)
	assert.Equal(t, 40.0, second.Comparison.ScoreDelta)
	assert.True(t, second.Comparison.PassedChanged)
}

func TestReevaluationWithoutChangesReusesCriteria(t *testing.T) {
	h := newHarness(t)
	first := h.validated(t)

	h.llm.set(func(s *scriptedLLM) { s.update = `{"structured":{},"description":"","threshold":null}` })
	again := h.say(t, "reevaluate", "run it again")

	require.NotNil(t, again.Evaluation)
	assert.Equal(t, first.Evaluation.CriteriaId, again.Evaluation.CriteriaId)
	assert.Contains(t, again.Message, constant.MessageNothingChanged)
	assert.Empty(t, again.Comparison.CriteriaModified)
}

func TestResultsQuestionDoesNotRevalidate(t *testing.T) {
	h := newHarness(t)
	h.validated(t)
	calls := h.validator.calls

	h.llm.set(func(s *scriptedLLM) { s.chat = "The agency check failed because the document names EASA." })
	reply := h.say(t, "results_question", "why did it fail?")

	assert.Equal(t, conversation.Validated, reply.Status)
	assert.Equal(t, calls, h.validator.calls)
	assert.Contains(t, reply.Message, "EASA")

	h.llm.set(func(s *scriptedLLM) { s.chatErr = errors.New("model offline") })
	offline := h.say(t, "results_question", "what was the score?")
	assert.Contains(t, offline.Message, "score 60.00")
}

func TestNewCriteriaResets(t *testing.T) {
	h := newHarness(t)
	h.validated(t)

	reply := h.say(t, "new_criteria", "let's use different criteria")

	assert.Equal(t, conversation.AwaitingCriteria, reply.Status)
	assert.Equal(t, constant.MessageAskNewCriteria, reply.Message)

	session, err := h.sessions.Load(h.ctx, h.sessionId)
	require.NoError(t, err)
	assert.Nil(t, session.ActiveCriteriaId)
	assert.Nil(t, session.LastEvaluationId)
	assert.Empty(t, session.ExtractedFields)
}

func TestJudgmentParseErrorPersistsNothing(t *testing.T) {
	h := newHarness(t)
	doc := h.upload(t, "a.txt", "certificate text")
	h.markIndexed(t, doc.Document.Id)
	h.llm.set(func(s *scriptedLLM) { s.criteria = extractedCriteria })
	h.say(t, "provide_criteria", "expiry and agency")

	h.validator.err = &apperr.ParseError{Schema: "validation checks", Raw: "garbage", Err: errors.New("no JSON object")}
	reply := h.say(t, "proceed", "go")

	assert.Equal(t, conversation.ReadyToValidate, reply.Status)
	assert.Equal(t, constant.MessageValidationRetry, reply.Message)
	history, err := h.evaluations.GetHistory(h.ctx, h.sessionId, nil)
	require.NoError(t, err)
	assert.Empty(t, history)

	h.validator.err = &apperr.CollaboratorError{Collaborator: "retrieval", Timeout: true, Err: context.DeadlineExceeded}
	down := h.say(t, "proceed", "go")
	assert.Equal(t, constant.MessageCollaboratorDown, down.Message)
}

func TestReplacementDocumentClearsCriteria(t *testing.T) {
	h := newHarness(t)
	h.validated(t)

	reply := h.upload(t, "new.txt", "a different certificate")

	assert.Equal(t, conversation.AwaitingCriteria, reply.Status)
	assert.Equal(t, constant.MessageAskRestateCriteria, reply.Message)
	session, err := h.sessions.Load(h.ctx, h.sessionId)
	require.NoError(t, err)
	assert.Nil(t, session.ActiveCriteriaId)
	assert.Nil(t, session.LastEvaluationId)
}

func TestUnknownSessionIsNotFound(t *testing.T) {
	h := newHarness(t)

	_, err := h.engine.HandleTurn(h.ctx, conversation.Request{SessionId: uuid.New(), Text: "hi"})
	assert.True(t, apperr.IsNotFound(err))
}

func TestConcurrentTurnsAreSerialized(t *testing.T) {
	h := newHarness(t)
	h.upload(t, "a.txt", "certificate text")

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.engine.HandleTurn(h.ctx, conversation.Request{SessionId: h.sessionId, Text: "hello"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err, "no revision conflicts under the session lock")
	}
}
