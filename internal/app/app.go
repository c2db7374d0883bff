package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/DRSN-tech/face-matcher/internal/cfg"
	v1Grpc "github.com/DRSN-tech/face-matcher/internal/delivery/v1/grpc"
	v1Http "github.com/DRSN-tech/face-matcher/internal/delivery/v1/http"
	"github.com/DRSN-tech/face-matcher/internal/infrastructure/extractor"
	"github.com/DRSN-tech/face-matcher/internal/infrastructure/kafka"
	minioInfra "github.com/DRSN-tech/face-matcher/internal/infrastructure/minio"
	"github.com/DRSN-tech/face-matcher/internal/matching"
	"github.com/DRSN-tech/face-matcher/internal/repository/memory"
	s3Repo "github.com/DRSN-tech/face-matcher/internal/repository/minio"
	"github.com/DRSN-tech/face-matcher/internal/repository/pgdb"
	pgdbConv "github.com/DRSN-tech/face-matcher/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/face-matcher/internal/repository/redis"
	redisConv "github.com/DRSN-tech/face-matcher/internal/repository/redis/converter"
	"github.com/DRSN-tech/face-matcher/internal/usecase"
	"github.com/DRSN-tech/face-matcher/pkg/clients"
	"github.com/DRSN-tech/face-matcher/pkg/closer"
	"github.com/DRSN-tech/face-matcher/pkg/e"
	"github.com/DRSN-tech/face-matcher/pkg/logger"
	"github.com/DRSN-tech/face-matcher/pkg/postgres"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	startupTimeout  = 10 * time.Second
	shutdownTimeout = 10 * time.Second
)

// App хранит собранные зависимости сервиса и управляет его жизненным циклом.
type App struct {
	cfg     *config.Config
	logger  logger.Logger
	closer  *closer.Closer
	httpSrv *v1Http.Server
	grpcSrv *v1Grpc.GRPCServer
}

// NewApp открывает все соединения и собирает граф зависимостей.
// При ошибке уже открытые ресурсы закрываются.
func NewApp(cfg *config.Config, log logger.Logger) (app *App, err error) {
	cl := closer.NewCloser(0)
	defer func() {
		if err != nil {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if closeErr := cl.Close(ctx); closeErr != nil {
				log.Warnf("cleanup after failed start: %v", closeErr)
			}
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	db, err := initPGDB(ctx, log, cfg)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	cl.AddSimple("postgres", db.Close)

	personRepo := pgdb.NewPersonRepo(db.Pool, pgdbConv.NewPersonConverter())
	photoRepo := pgdb.NewPhotoRepo(db.Pool, pgdbConv.NewPhotoConverter())
	descRepo := pgdb.NewDescriptorRepo(db.Pool, pgdbConv.NewDescriptorConverter())

	minioClient, err := clients.NewMinIOClient(cfg.Minio)
	if err != nil {
		log.Errorf(err, "failed to initialize minio client")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	if err := clients.CheckBucket(ctx, minioClient, cfg.Minio.BucketName); err != nil {
		log.Errorf(err, "failed to access MinIO bucket %s", cfg.Minio.BucketName)
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	imagesInfra := minioInfra.NewMinioInfrastructure(s3Repo.NewImageRepo(minioClient, cfg.Minio), *cfg.Minio, log)

	conn, err := grpc.NewClient(
		cfg.Extractor.Addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()), // сервис детекции доступен только во внутренней сети
	)
	if err != nil {
		log.Errorf(err, "failed to initialize extractor grpc client")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	cl.Add("extractor grpc conn", func(context.Context) error { return conn.Close() })
	faceExtractor := extractor.NewFaceExtractor(conn, cfg.Extractor, cfg.Matching.VectorSize, log)

	cacheRepo := initCacheRepo(ctx, log, cfg, cl)

	var publisher usecase.EventPublisher
	if cfg.Kafka.Enabled() {
		producer, err := kafka.NewProducer(log, cfg.Kafka)
		if err != nil {
			log.Errorf(err, "failed to initialize kafka producer")
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		if err := producer.EnsureTopic(5 * time.Second); err != nil {
			log.Warnf("kafka topic %s not ensured: %v", cfg.Kafka.Topic, err)
		}
		cl.Add("kafka producer", func(context.Context) error { return producer.Close() })
		publisher = producer
	} else {
		log.Infof("KAFKA_BROKERS is empty, match events are disabled")
	}

	store := usecase.NewDescriptorStore(descRepo, personRepo, imagesInfra, faceExtractor, cfg.Matching.VectorSize, log)
	resultCache := usecase.NewResultCache(cacheRepo, cfg.Matching.CacheTTL, time.Now, log)
	matchUC := usecase.NewMatchUC(
		photoRepo,
		personRepo,
		store,
		resultCache,
		publisher,
		matching.Options{Threshold: cfg.Matching.Threshold, DedupBy: cfg.Matching.DedupBy},
		cfg.Matching.CatalogConcurrency,
		log,
	)

	personUC := usecase.NewPersonUC(personRepo, log)

	grpcSrv := v1Grpc.NewGRPCServer(cfg.Grpc, log)
	grpcSrv.RegisterServices(matchUC)

	r := chi.NewRouter()
	v1Http.NewRouter(r, log).Init(matchUC, personUC)
	httpSrv := v1Http.NewServer(r, cfg.Http)

	return &App{
		cfg:     cfg,
		logger:  log,
		closer:  cl,
		httpSrv: httpSrv,
		grpcSrv: grpcSrv,
	}, nil
}

// Run запускает серверы и блокируется до сигнала завершения или фатальной ошибки сервера.
func (a *App) Run() error {
	errCh := make(chan error, 2)

	go func() {
		a.logger.Infof("gRPC server starting on %s:%s", a.cfg.Grpc.NetworkMode, a.cfg.Grpc.Port)
		if err := a.grpcSrv.Start(); err != nil {
			errCh <- e.Wrap("gRPC server", err)
		}
	}()

	go func() {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := a.httpSrv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- e.Wrap("HTTP server", err)
		}
	}()

	// Серверы закрываются первыми
	a.closer.Add("grpc server", a.grpcSrv.Stop)
	a.closer.Add("http server", a.httpSrv.Stop)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	var appErr error
	select {
	case appErr = <-errCh:
		a.logger.Errorf(appErr, "server fatal error")
	case sig := <-shutdown:
		a.logger.Infof("Received %s, stopping gracefully...", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.closer.Close(ctx); err != nil {
		a.logger.Errorf(err, "shutdown finished with errors")
		if appErr == nil {
			appErr = err
		}
	}

	a.logger.Infof("Application shutdown complete")
	return appErr
}

func initPGDB(ctx context.Context, logger logger.Logger, cfg *config.Config) (*postgres.PgDatabase, error) {
	db, err := postgres.Connect(ctx, cfg.Db)
	if err != nil {
		logger.Errorf(err, "failed to connect to database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.RunMigrations(logger); err != nil {
		logger.Errorf(err, "failed to run migrations")
		db.Close()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}

// initCacheRepo возвращает Redis-кэш или, если Redis отключён либо недоступен, процессный кэш.
func initCacheRepo(ctx context.Context, log logger.Logger, cfg *config.Config, cl *closer.Closer) usecase.CacheRepository {
	if cfg.Redis.Enabled {
		redisClient := clients.NewRedisClient(cfg.Redis)
		err := redisClient.Ping(ctx)
		if err == nil {
			cl.Add("redis", func(context.Context) error { return redisClient.Close() })
			return redis.NewCacheRepo(redisClient, redisConv.NewMatchEntryConverter(), log)
		}

		log.Warnf("redis unavailable, falling back to in-memory match cache: %v", err)
		_ = redisClient.Close()
	}

	memCache := memory.NewCacheRepo(time.Now, log)
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go memCache.RunSweeper(sweepCtx, cfg.Matching.CacheSweepInterval)
	cl.AddSimple("memory cache sweeper", stopSweep)

	return memCache
}
