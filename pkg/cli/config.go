package cli

import (
	"context"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/o2alexanderfedin/ai-assistant-project/pkg/adapter"
	"github.com/o2alexanderfedin/ai-assistant-project/pkg/chunk"
	"github.com/o2alexanderfedin/ai-assistant-project/pkg/repository"
	"github.com/o2alexanderfedin/ai-assistant-project/pkg/service/embedding"
	"github.com/o2alexanderfedin/ai-assistant-project/pkg/service/question"
	"github.com/o2alexanderfedin/ai-assistant-project/pkg/usecase/ingest"
	"github.com/o2alexanderfedin/ai-assistant-project/pkg/usecase/memory"
)

// config holds configuration values
type config struct {
	configPath string

	// Index
	chromaHost string
	chromaPort int64
	chromaSSL  bool
	collection string

	// Storage
	memoryDir string

	// Pipeline
	chunkSize         int64
	chunkOverlap      int64
	questionsPerChunk int64
	contentType       string

	// Adapters
	geminiProject   string
	geminiLocation  string
	generativeModel string
	embeddingModel  string
	embeddingDims   int64

	logLevel string
}

// fileConfig is the YAML shape of --config. Explicit flags and
// environment variables win over file values.
type fileConfig struct {
	ChromaHost        string `yaml:"chroma_host"`
	ChromaPort        int64  `yaml:"chroma_port"`
	ChromaSSL         *bool  `yaml:"chroma_ssl"`
	Collection        string `yaml:"collection"`
	MemoryDir         string `yaml:"memory_dir"`
	ChunkSize         int64  `yaml:"chunk_size"`
	ChunkOverlap      *int64 `yaml:"chunk_overlap"`
	QuestionsPerChunk int64  `yaml:"questions_per_chunk"`
	ContentType       string `yaml:"content_type"`
	GeminiProject     string `yaml:"gemini_project"`
	GeminiLocation    string `yaml:"gemini_location"`
	GenerativeModel   string `yaml:"generative_model"`
	EmbeddingModel    string `yaml:"embedding_model"`
	EmbeddingDims     int64  `yaml:"embedding_dims"`
	LogLevel          string `yaml:"log_level"`
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to YAML configuration file",
			Sources:     cli.EnvVars("MEMORIA_CONFIG"),
			Destination: &cfg.configPath,
		},
		&cli.StringFlag{
			Name:        "chroma-host",
			Usage:       "Chroma server host",
			Value:       "localhost",
			Sources:     cli.EnvVars("MEMORIA_CHROMA_HOST"),
			Destination: &cfg.chromaHost,
		},
		&cli.IntFlag{
			Name:        "chroma-port",
			Usage:       "Chroma server port",
			Value:       8000,
			Sources:     cli.EnvVars("MEMORIA_CHROMA_PORT"),
			Destination: &cfg.chromaPort,
		},
		&cli.BoolFlag{
			Name:        "chroma-ssl",
			Usage:       "Use HTTPS to reach Chroma",
			Sources:     cli.EnvVars("MEMORIA_CHROMA_SSL"),
			Destination: &cfg.chromaSSL,
		},
		&cli.StringFlag{
			Name:        "collection",
			Usage:       "Chroma collection name",
			Value:       "memory_collection",
			Sources:     cli.EnvVars("MEMORIA_COLLECTION"),
			Destination: &cfg.collection,
		},
		&cli.StringFlag{
			Name:        "memory-dir",
			Usage:       "Directory for content-addressed memory files",
			Value:       "./memory",
			Sources:     cli.EnvVars("MEMORIA_DIR"),
			Destination: &cfg.memoryDir,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "warn",
			Sources:     cli.EnvVars("MEMORIA_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
	}
}

// pipelineFlags returns flags for chunking and question generation
func pipelineFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "chunk-size",
			Usage:       "Chunk size in bytes",
			Value:       chunk.DefaultChunkSize,
			Sources:     cli.EnvVars("MEMORIA_CHUNK_SIZE"),
			Destination: &cfg.chunkSize,
		},
		&cli.IntFlag{
			Name:        "chunk-overlap",
			Usage:       "Overlap between consecutive chunks in bytes",
			Value:       chunk.DefaultOverlap,
			Sources:     cli.EnvVars("MEMORIA_CHUNK_OVERLAP"),
			Destination: &cfg.chunkOverlap,
		},
		&cli.IntFlag{
			Name:        "questions-per-chunk",
			Usage:       "Number of questions generated per chunk",
			Value:       question.DefaultQuestionCount,
			Sources:     cli.EnvVars("MEMORIA_QUESTIONS_PER_CHUNK"),
			Destination: &cfg.questionsPerChunk,
		},
		&cli.StringFlag{
			Name:        "content-type",
			Usage:       "Content type hint for question generation (text, code, documentation, architecture)",
			Value:       "text",
			Sources:     cli.EnvVars("MEMORIA_CONTENT_TYPE"),
			Destination: &cfg.contentType,
		},
	}
}

// llmFlags returns flags for model configuration with destination config
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "generative-model",
			Usage:       "Model used for question generation",
			Value:       "gemini-2.5-flash",
			Sources:     cli.EnvVars("MEMORIA_GENERATIVE_MODEL"),
			Destination: &cfg.generativeModel,
		},
		&cli.StringFlag{
			Name:        "embedding-model",
			Usage:       "Model used for embeddings",
			Value:       "gemini-embedding-001",
			Sources:     cli.EnvVars("MEMORIA_EMBEDDING_MODEL"),
			Destination: &cfg.embeddingModel,
		},
		&cli.IntFlag{
			Name:        "embedding-dims",
			Usage:       "Embedding output dimensionality (0 keeps the model default)",
			Sources:     cli.EnvVars("MEMORIA_EMBEDDING_DIMS"),
			Destination: &cfg.embeddingDims,
		},
	}
}

// load applies the YAML config file, if any. A flag set explicitly or
// through its environment variable keeps its value; only defaulted
// flags pick up file values.
func (cfg *config) load(c *cli.Command) error {
	if cfg.configPath == "" {
		return nil
	}

	raw, err := os.ReadFile(cfg.configPath)
	if err != nil {
		return goerr.Wrap(err, "failed to read config file", goerr.V("path", cfg.configPath))
	}

	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return goerr.Wrap(err, "failed to parse config file", goerr.V("path", cfg.configPath))
	}

	setString := func(flag string, dst *string, v string) {
		if v != "" && !c.IsSet(flag) {
			*dst = v
		}
	}
	setInt := func(flag string, dst *int64, v int64) {
		if v != 0 && !c.IsSet(flag) {
			*dst = v
		}
	}

	setString("chroma-host", &cfg.chromaHost, fc.ChromaHost)
	setInt("chroma-port", &cfg.chromaPort, fc.ChromaPort)
	if fc.ChromaSSL != nil && !c.IsSet("chroma-ssl") {
		cfg.chromaSSL = *fc.ChromaSSL
	}
	setString("collection", &cfg.collection, fc.Collection)
	setString("memory-dir", &cfg.memoryDir, fc.MemoryDir)
	setInt("chunk-size", &cfg.chunkSize, fc.ChunkSize)
	if fc.ChunkOverlap != nil && !c.IsSet("chunk-overlap") {
		cfg.chunkOverlap = *fc.ChunkOverlap
	}
	setInt("questions-per-chunk", &cfg.questionsPerChunk, fc.QuestionsPerChunk)
	setString("content-type", &cfg.contentType, fc.ContentType)
	setString("gemini-project", &cfg.geminiProject, fc.GeminiProject)
	setString("gemini-location", &cfg.geminiLocation, fc.GeminiLocation)
	setString("generative-model", &cfg.generativeModel, fc.GenerativeModel)
	setString("embedding-model", &cfg.embeddingModel, fc.EmbeddingModel)
	setInt("embedding-dims", &cfg.embeddingDims, fc.EmbeddingDims)
	setString("log-level", &cfg.logLevel, fc.LogLevel)

	return nil
}

// newIndex creates the vector index adapter
func (cfg *config) newIndex() (repository.Index, error) {
	if cfg.chromaHost == "" {
		return nil, goerr.New("chroma-host is required")
	}
	if cfg.collection == "" {
		return nil, goerr.New("collection is required")
	}

	index, err := repository.NewChroma(cfg.chromaHost, int(cfg.chromaPort), cfg.chromaSSL, cfg.collection)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create index adapter")
	}
	return index, nil
}

// newGemini creates a new Gemini adapter instance
func (cfg *config) newGemini(ctx context.Context) (adapter.Gemini, error) {
	if cfg.geminiProject == "" {
		return nil, goerr.New("gemini-project is required")
	}
	if cfg.geminiLocation == "" {
		return nil, goerr.New("gemini-location is required")
	}

	return adapter.NewGemini(ctx, cfg.geminiProject, cfg.geminiLocation,
		adapter.WithGenerativeModel(cfg.generativeModel),
		adapter.WithEmbeddingModel(cfg.embeddingModel),
		adapter.WithDimensions(int(cfg.embeddingDims)),
	)
}

// newPipeline wires the full ingestion pipeline
func (cfg *config) newPipeline(ctx context.Context) (*ingest.Pipeline, repository.Index, error) {
	index, err := cfg.newIndex()
	if err != nil {
		return nil, nil, err
	}

	gemini, err := cfg.newGemini(ctx)
	if err != nil {
		return nil, nil, err
	}

	splitter, err := chunk.New(int(cfg.chunkSize), int(cfg.chunkOverlap))
	if err != nil {
		return nil, nil, err
	}

	if err := index.EnsureCollection(ctx, nil); err != nil {
		return nil, nil, goerr.Wrap(err, "failed to ensure collection")
	}

	pipeline := ingest.New(
		index,
		question.NewGenerator(gemini),
		question.NewTransformer(gemini),
		embedding.NewGenerator(gemini),
		ingest.WithSplitter(splitter),
		ingest.WithContentType(cfg.contentType),
		ingest.WithQuestionsPerChunk(int(cfg.questionsPerChunk)),
	)

	return pipeline, index, nil
}

// newManager wires the memory manager on top of the pipeline
func (cfg *config) newManager(ctx context.Context) (*memory.Manager, error) {
	pipeline, index, err := cfg.newPipeline(ctx)
	if err != nil {
		return nil, err
	}
	return memory.New(index, pipeline, cfg.memoryDir), nil
}
