package cfg

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/DRSN-tech/face-matcher/pkg/e"
	"github.com/DRSN-tech/face-matcher/pkg/logger"
	"github.com/jimlawless/whereami"
)

const (
	DedupByID   = "id"
	DedupByName = "name"
)

type Config struct {
	Minio     *MinIOCfg
	Http      *HTTPConfig
	Grpc      *GRPCConfig
	Db        *PGDBCfg
	Redis     *RedisCfg
	Extractor *ExtractorCfg
	Kafka     *KafkaCfg
	Matching  *MatchingCfg
}

// KafkaCfg описывает публикацию событий о вычисленных совпадениях. Пустой Brokers отключает публикацию.
type KafkaCfg struct {
	Topic             string
	Brokers           []string
	NetworkMode       string
	Partitions        int
	ReplicationFactor int
}

func (k *KafkaCfg) Enabled() bool {
	return k != nil && len(k.Brokers) > 0
}

type MinIOCfg struct {
	MinioEndpoint       string // Адрес конечной точки Minio
	BucketName          string // Бакет с фотографиями событий и эталонными фото персон
	MinioRootUser       string
	MinioRootPassword   string
	MinioUseSSL         bool
	DownloadImagesLimit int   // Лимит параллельных загрузок из S3
	MaxImageSize        int64 // Максимальный размер одного изображения в байтах
}

type HTTPConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type GRPCConfig struct {
	Port        string
	NetworkMode string
}

type PGDBCfg struct {
	Host          string
	Port          string
	User          string
	Password      string
	DBName        string
	SSLMode       string
	MigrationsURL string
}

type RedisCfg struct {
	Enabled     bool
	Addr        string
	Password    string
	User        string
	DB          int
	MaxRetries  int
	DialTimeout time.Duration
	Timeout     time.Duration
}

// ExtractorCfg — настройки клиента внешнего сервиса детекции лиц.
type ExtractorCfg struct {
	Addr          string
	Timeout       time.Duration // Таймаут одного вызова Extract, включая повторы
	MaxConcurrent int
	MaxRetries    int
}

// MatchingCfg — параметры сопоставления лиц и кэша результатов.
type MatchingCfg struct {
	Threshold          float64
	DedupBy            string
	CacheTTL           time.Duration
	CacheSweepInterval time.Duration
	CatalogConcurrency int
	VectorSize         int
}

// Load безопасно загружает конфигурацию и возвращает ошибку в случае неудачи.
func Load(log logger.Logger) (*Config, error) {
	db, err := loadPGDBCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	http, err := loadHTTPConfig(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	redis, err := loadRedisCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	minio, err := loadMinIOCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	extractor, err := loadExtractorCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	kafka, err := loadKafkaCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	matching, err := loadMatchingCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &Config{
		Minio:     minio,
		Http:      http,
		Grpc:      loadGRPCConfig(),
		Db:        db,
		Redis:     redis,
		Extractor: extractor,
		Kafka:     kafka,
		Matching:  matching,
	}, nil
}

func loadKafkaCfg() (*KafkaCfg, error) {
	const (
		defaultTopic             = "face-matches"
		defaultPartitions        = 3
		defaultReplicationFactor = 1
		defaultNetworkMode       = "tcp"
	)

	var brokers []string
	for _, b := range strings.Split(getEnv("KAFKA_BROKERS"), ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}

	partitions, err := parseIntEnv("KAFKA_PARTITIONS", defaultPartitions)
	if err != nil {
		return nil, e.Wrap("KAFKA_PARTITIONS", err)
	}

	replicationFactor, err := parseIntEnv("REPLICATION_FACTOR", defaultReplicationFactor)
	if err != nil {
		return nil, e.Wrap("REPLICATION_FACTOR", err)
	}

	return &KafkaCfg{
		Brokers:           brokers,
		Topic:             getEnvOrDefault("KAFKA_TOPIC", defaultTopic),
		Partitions:        partitions,
		ReplicationFactor: replicationFactor,
		NetworkMode:       getEnvOrDefault("KAFKA_NETWORK_MODE", defaultNetworkMode),
	}, nil
}

func loadMinIOCfg(log logger.Logger) (*MinIOCfg, error) {
	const (
		defaultUseSSL         = false
		defaultEndpoint       = "minio:9000"
		defaultBucket         = "photos"
		defaultDownloadLimit  = 8
		defaultMaxImageSizeMB = 15
	)

	useSSL, err := parseBoolEnv("MINIO_USE_SSL", defaultUseSSL)
	if err != nil {
		log.Errorf(err, "invalid MINIO_USE_SSL")
		return nil, err
	}

	limit, err := parseIntEnv("MINIO_DOWNLOAD_LIMIT", defaultDownloadLimit)
	if err != nil || limit <= 0 {
		err = e.Wrap("MINIO_DOWNLOAD_LIMIT", e.ErrIncorrectEnvVariable)
		log.Errorf(err, "invalid MINIO_DOWNLOAD_LIMIT")
		return nil, err
	}

	maxSizeMB, err := parseIntEnv("MAX_IMAGE_SIZE_MB", defaultMaxImageSizeMB)
	if err != nil || maxSizeMB <= 0 {
		err = e.Wrap("MAX_IMAGE_SIZE_MB", e.ErrIncorrectEnvVariable)
		log.Errorf(err, "invalid MAX_IMAGE_SIZE_MB")
		return nil, err
	}

	return &MinIOCfg{
		MinioEndpoint:       getEnvOrDefault("MINIO_ENDPOINT", defaultEndpoint),
		BucketName:          getEnvOrDefault("BUCKET_NAME", defaultBucket),
		MinioRootUser:       getEnv("MINIO_ROOT_USER"),
		MinioRootPassword:   getEnv("MINIO_ROOT_PASSWORD"),
		MinioUseSSL:         useSSL,
		DownloadImagesLimit: limit,
		MaxImageSize:        int64(maxSizeMB) << 20,
	}, nil
}

func loadHTTPConfig(log logger.Logger) (*HTTPConfig, error) {
	const (
		defaultPort         = "8080"
		defaultReadTimeout  = 5 * time.Second
		defaultWriteTimeout = 60 * time.Second
		defaultIdleTimeout  = 60 * time.Second
	)

	readTimeout, err := parseDurationEnv("HTTP_READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("HTTP_WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_WRITE_TIMEOUT")
		return nil, err
	}

	idleTimeout, err := parseDurationEnv("KEEP_ALIVE", defaultIdleTimeout)
	if err != nil {
		log.Errorf(err, "invalid KEEP_ALIVE")
		return nil, err
	}

	return &HTTPConfig{
		Port:         getEnvOrDefault("HTTP_PORT", defaultPort),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}, nil
}

func loadGRPCConfig() *GRPCConfig {
	const (
		defaultPort        = "8091"
		defaultNetworkMode = "tcp"
	)

	return &GRPCConfig{
		Port:        getEnvOrDefault("GRPC_PORT", defaultPort),
		NetworkMode: getEnvOrDefault("GRPC_NETWORK_MODE", defaultNetworkMode),
	}
}

func loadPGDBCfg(log logger.Logger) (*PGDBCfg, error) {
	const (
		defaultHost          = "localhost"
		defaultPort          = "5432"
		defaultSSLMode       = "disable"
		defaultMigrationsURL = "file://db/migrations"
	)

	user := getEnv("POSTGRES_USER")
	if user == "" {
		err := fmt.Errorf("POSTGRES_USER is required")
		log.Errorf(err, "missing POSTGRES_USER")
		return nil, err
	}

	password := getEnv("POSTGRES_PASSWORD")
	if password == "" {
		err := fmt.Errorf("POSTGRES_PASSWORD is required")
		log.Errorf(err, "missing POSTGRES_PASSWORD")
		return nil, err
	}

	dbName := getEnv("POSTGRES_DB")
	if dbName == "" {
		err := fmt.Errorf("POSTGRES_DB is required")
		log.Errorf(err, "missing POSTGRES_DB")
		return nil, err
	}

	return &PGDBCfg{
		Host:          getEnvOrDefault("POSTGRES_HOST", defaultHost),
		Port:          getEnvOrDefault("POSTGRES_PORT", defaultPort),
		User:          user,
		Password:      password,
		DBName:        dbName,
		SSLMode:       getEnvOrDefault("SSL_MODE", defaultSSLMode),
		MigrationsURL: getEnvOrDefault("MIGRATIONS_URL", defaultMigrationsURL),
	}, nil
}

func loadRedisCfg(log logger.Logger) (*RedisCfg, error) {
	const (
		defaultEnabled      = true
		defaultAddr         = "localhost:6379"
		defaultDB           = 0
		defaultMaxRetries   = 3
		defaultDialTimeout  = 5 * time.Second
		defaultReadTimeout  = 3 * time.Second
		defaultWriteTimeout = 3 * time.Second
	)

	enabled, err := parseBoolEnv("REDIS_ENABLED", defaultEnabled)
	if err != nil {
		log.Errorf(err, "invalid REDIS_ENABLED")
		return nil, err
	}

	db, err := parseIntEnv("REDIS_DB_ID", defaultDB)
	if err != nil {
		log.Errorf(err, "invalid REDIS_DB_ID")
		return nil, err
	}

	maxRetries, err := parseIntEnv("MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		log.Errorf(err, "invalid MAX_RETRIES")
		return nil, err
	}

	dialTimeout, err := parseDurationEnv("DIAL_TIMEOUT", defaultDialTimeout)
	if err != nil {
		log.Errorf(err, "invalid DIAL_TIMEOUT")
		return nil, err
	}

	readTimeout, err := parseDurationEnv("READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid WRITE_TIMEOUT")
		return nil, err
	}

	return &RedisCfg{
		Enabled:     enabled,
		Addr:        getEnvOrDefault("REDIS_ADDR", defaultAddr),
		Password:    getEnv("REDIS_PASSWORD"),
		User:        getEnv("REDIS_USER"),
		DB:          db,
		MaxRetries:  maxRetries,
		DialTimeout: dialTimeout,
		Timeout:     max(readTimeout, writeTimeout),
	}, nil
}

func loadExtractorCfg(log logger.Logger) (*ExtractorCfg, error) {
	const (
		defaultHost          = "face-extractor"
		defaultPort          = "50051"
		defaultTimeout       = 5 * time.Second
		defaultMaxConcurrent = 8
		defaultMaxRetries    = 2
	)

	timeout, err := parseDurationEnv("EXTRACTOR_TIMEOUT", defaultTimeout)
	if err != nil || timeout <= 0 {
		err = e.Wrap("EXTRACTOR_TIMEOUT", e.ErrIncorrectEnvVariable)
		log.Errorf(err, "invalid EXTRACTOR_TIMEOUT")
		return nil, err
	}

	maxConcurrent, err := parseIntEnv("EXTRACTOR_MAX_CONCURRENT", defaultMaxConcurrent)
	if err != nil || maxConcurrent <= 0 {
		err = e.Wrap("EXTRACTOR_MAX_CONCURRENT", e.ErrIncorrectEnvVariable)
		log.Errorf(err, "invalid EXTRACTOR_MAX_CONCURRENT")
		return nil, err
	}

	maxRetries, err := parseIntEnv("EXTRACTOR_MAX_RETRIES", defaultMaxRetries)
	if err != nil || maxRetries < 0 {
		err = e.Wrap("EXTRACTOR_MAX_RETRIES", e.ErrIncorrectEnvVariable)
		log.Errorf(err, "invalid EXTRACTOR_MAX_RETRIES")
		return nil, err
	}

	host := getEnvOrDefault("EXTRACTOR_HOST", defaultHost)
	port := getEnvOrDefault("EXTRACTOR_PORT", defaultPort)

	return &ExtractorCfg{
		Addr:          host + ":" + port,
		Timeout:       timeout,
		MaxConcurrent: maxConcurrent,
		MaxRetries:    maxRetries,
	}, nil
}

func loadMatchingCfg(log logger.Logger) (*MatchingCfg, error) {
	const (
		defaultThreshold          = 0.4
		defaultCacheTTL           = 3 * time.Hour
		defaultCacheSweepInterval = 10 * time.Minute
		defaultCatalogConcurrency = 8
		// Размерность столбцов vector(128) в db/migrations
		schemaVectorSize = 128
	)

	threshold, err := parseFloatEnv("MATCH_THRESHOLD", defaultThreshold)
	if err != nil || !(threshold > 0) || math.IsInf(threshold, 0) {
		err = e.Wrap("MATCH_THRESHOLD", e.ErrIncorrectEnvVariable)
		log.Errorf(err, "invalid MATCH_THRESHOLD")
		return nil, err
	}

	dedupBy := strings.ToLower(getEnvOrDefault("MATCH_DEDUP_BY", DedupByID))
	if dedupBy != DedupByID && dedupBy != DedupByName {
		err := e.Wrap("MATCH_DEDUP_BY", e.ErrIncorrectEnvVariable)
		log.Errorf(err, "invalid MATCH_DEDUP_BY: %s", dedupBy)
		return nil, err
	}

	cacheTTL, err := parseDurationEnv("MATCH_CACHE_TTL", defaultCacheTTL)
	if err != nil || cacheTTL <= 0 {
		err = e.Wrap("MATCH_CACHE_TTL", e.ErrIncorrectEnvVariable)
		log.Errorf(err, "invalid MATCH_CACHE_TTL")
		return nil, err
	}

	sweep, err := parseDurationEnv("MATCH_CACHE_SWEEP_INTERVAL", defaultCacheSweepInterval)
	if err != nil || sweep <= 0 {
		err = e.Wrap("MATCH_CACHE_SWEEP_INTERVAL", e.ErrIncorrectEnvVariable)
		log.Errorf(err, "invalid MATCH_CACHE_SWEEP_INTERVAL")
		return nil, err
	}

	concurrency, err := parseIntEnv("CATALOG_CONCURRENCY", defaultCatalogConcurrency)
	if err != nil || concurrency <= 0 {
		err = e.Wrap("CATALOG_CONCURRENCY", e.ErrIncorrectEnvVariable)
		log.Errorf(err, "invalid CATALOG_CONCURRENCY")
		return nil, err
	}

	vectorSize, err := parseIntEnv("VECTOR_SIZE", schemaVectorSize)
	if err != nil || vectorSize != schemaVectorSize {
		err = e.Wrap("VECTOR_SIZE", e.ErrIncorrectEnvVariable)
		log.Errorf(err, "invalid VECTOR_SIZE: descriptor columns are vector(%d)", schemaVectorSize)
		return nil, err
	}

	return &MatchingCfg{
		Threshold:          threshold,
		DedupBy:            dedupBy,
		CacheTTL:           cacheTTL,
		CacheSweepInterval: sweep,
		CatalogConcurrency: concurrency,
		VectorSize:         vectorSize,
	}, nil
}

// getEnv возвращает значение переменной окружения.
// Возвращает пустую строку, если переменная не задана.
func getEnv(key string) string {
	return os.Getenv(key)
}

// getEnvOrDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// parseDurationEnv считывает длительность или возвращает значение по умолчанию.
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	if v := os.Getenv(key); v != "" {
		return time.ParseDuration(v)
	}

	return defaultValue, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}

	intValue, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue, e.ErrIncorrectEnvVariable
	}

	return intValue, nil
}

func parseFloatEnv(key string, defaultValue float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) {
		return defaultValue, e.ErrIncorrectEnvVariable
	}

	return f, nil
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultValue, e.ErrIncorrectEnvVariable
	}

	return b, nil
}
