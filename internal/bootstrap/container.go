package bootstrap

import (
	"context"
	"fmt"

	"cert-evaluator-be/internal/config"
	"cert-evaluator-be/internal/controller"
	"cert-evaluator-be/internal/pkg/logger"
	"cert-evaluator-be/internal/repository/contract"
	"cert-evaluator-be/internal/repository/implementation"
	"cert-evaluator-be/internal/repository/memory"
	"cert-evaluator-be/internal/repository/unitofwork"
	"cert-evaluator-be/internal/service"
	"cert-evaluator-be/pkg/conversation"
	"cert-evaluator-be/pkg/embedding"
	"cert-evaluator-be/pkg/events"
	"cert-evaluator-be/pkg/extraction"
	"cert-evaluator-be/pkg/llm/factory"
	"cert-evaluator-be/pkg/lock"
	pktNats "cert-evaluator-be/pkg/nats"
	"cert-evaluator-be/pkg/retrieval"
	"cert-evaluator-be/pkg/retry"
	"cert-evaluator-be/pkg/validation"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	SessionController    controller.ISessionController
	CriteriaController   controller.ICriteriaController
	EvaluationController controller.IEvaluationController

	// ConsumerService indexes uploaded documents in the background.
	ConsumerService service.IConsumerService

	closers []func()
}

// NewContainer wires the application. db may be nil when the memory storage
// driver is selected.
func NewContainer(ctx context.Context, db *gorm.DB, cfg *config.Config, log logger.ILogger) (*Container, error) {
	c := &Container{}

	// 1. Storage
	var (
		uowFactory unitofwork.RepositoryFactory
		chunkRepo  contract.DocumentChunkRepository
	)
	switch cfg.App.StorageDriver {
	case config.StorageDriverMemory:
		store := memory.NewStore(cfg.App.SessionTTL)
		uowFactory = unitofwork.NewMemoryRepositoryFactory(store)
		chunkRepo = memory.NewDocumentChunkRepository(store)
	case config.StorageDriverPostgres:
		if db == nil {
			return nil, fmt.Errorf("storage driver %q needs a database connection", cfg.App.StorageDriver)
		}
		uowFactory = unitofwork.NewRepositoryFactory(db)
		chunkRepo = implementation.NewDocumentChunkRepository(db)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.App.StorageDriver)
	}
	log.Info("Container", "Storage ready", map[string]interface{}{"driver": cfg.App.StorageDriver})

	// 2. Infrastructure
	var eventPublisher events.Publisher = events.NopPublisher{}
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(ctx, cfg.App.NatsURL)
		if err != nil {
			log.Warn("Container", "NATS unavailable, events are dropped", map[string]interface{}{"error": err.Error()})
		} else {
			eventPublisher = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	var locker lock.Locker = lock.NewLocalLocker()
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb := redis.NewClient(opt)
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("Container", "Redis unavailable, using in-process turn locks", map[string]interface{}{"error": err.Error()})
			_ = rdb.Close()
		} else {
			locker = lock.NewRedisLocker(rdb, cfg.Evaluation.TurnLockTTL)
			c.closers = append(c.closers, func() { _ = rdb.Close() })
		}
	}

	pubSub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: int64(cfg.Evaluation.IndexingWorkerBacklog),
	}, watermill.NopLogger{})
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 3. Collaborators
	var extractor extraction.Extractor = extraction.NewPlainTextExtractor()
	if cfg.Evaluation.Extractor == "tika" {
		extractor = extraction.NewTikaExtractor(cfg.Evaluation.TikaURL)
	}

	var embeddingProvider embedding.EmbeddingProvider
	switch cfg.Ai.EmbeddingProvider {
	case "gemini":
		embeddingProvider = embedding.NewGeminiProvider(cfg.Ai.GoogleGeminiKey)
	default:
		embeddingProvider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel)
	}

	llmProvider, err := factory.NewLLMProvider(factory.Config{
		Provider:    cfg.Ai.LLMProvider,
		Model:       cfg.Ai.LLMModel,
		BaseURL:     cfg.Ai.LLMBaseURL,
		APIKey:      cfg.Ai.LLMApiKey,
		Temperature: cfg.Ai.LLMTemperature,
	})
	if err != nil {
		return nil, err
	}
	log.Info("Container", "Collaborators ready", map[string]interface{}{
		"llm":       cfg.Ai.LLMProvider,
		"model":     cfg.Ai.LLMModel,
		"embedding": cfg.Ai.EmbeddingProvider,
		"extractor": cfg.Evaluation.Extractor,
	})

	policy := retry.Policy{
		Timeout: cfg.Evaluation.CollaboratorTimeout,
		Retries: uint(max(cfg.Evaluation.CollaboratorRetries, 0)),
	}

	// 4. Services
	publisherService := service.NewPublisherService(eventPublisher, log)
	sessionService := service.NewSessionService(uowFactory)
	criteriaService := service.NewCriteriaService(uowFactory, publisherService, log, cfg.Evaluation.DefaultThreshold)
	evaluationService := service.NewEvaluationService(uowFactory, publisherService, log)
	documentService := service.NewDocumentService(uowFactory, extractor, pubSub, cfg.App.UploadDir, log)

	c.ConsumerService = service.NewConsumerService(
		pubSub,
		uowFactory,
		embeddingProvider,
		service.ChunkingConfig{Size: cfg.Evaluation.ChunkSize, Overlap: cfg.Evaluation.ChunkOverlap},
		policy,
		log,
	)

	executor := validation.NewExecutor(
		retrieval.NewVectorRetriever(embeddingProvider, chunkRepo),
		llmProvider,
		validation.Config{TopK: cfg.Evaluation.RetrievalTopK, Policy: policy},
		log,
	)
	reevaluationService := service.NewReevaluationService(criteriaService, evaluationService, executor, log)

	engine := conversation.NewEngine(conversation.Dependencies{
		Sessions:    sessionService,
		Criteria:    criteriaService,
		Evaluations: evaluationService,
		Documents:   documentService,
		Validator:   executor,
		Classifier:  conversation.NewClassifier(llmProvider, policy, log),
		Interpreter: conversation.NewInterpreter(llmProvider, policy, log),
		Provider:    llmProvider,
		Locker:      locker,
		Publisher:   publisherService,
		Logger:      log,
	}, conversation.Config{HistoryWindow: cfg.Evaluation.HistoryWindow, Policy: policy})

	// 5. Controllers
	c.SessionController = controller.NewSessionController(sessionService, documentService, engine, cfg.Evaluation.HistoryWindow)
	c.CriteriaController = controller.NewCriteriaController(criteriaService, sessionService)
	c.EvaluationController = controller.NewEvaluationController(evaluationService, reevaluationService, sessionService)

	return c, nil
}

// Close releases broker and cache connections in reverse order.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}
