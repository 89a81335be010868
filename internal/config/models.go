package config

// TextProcConfig holds the normalization and validation limits.
type TextProcConfig struct {
	MinLength     int
	MaxLength     int
	PreviewLength int
	MaxRawSize    int
}

// BatchConfig controls how the orchestrator pages and parallelizes batches.
type BatchConfig struct {
	PageSize    int
	Concurrency int
}

// ArtifactConfig points at the serialized model files.
type ArtifactConfig struct {
	VectorizerPath string
	ClassifierPath string
}

// OpenAIConfig configures the LLM engine provider.
type OpenAIConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// GetTextProc returns the text processing configuration.
func (c *Config) GetTextProc() TextProcConfig {
	return TextProcConfig{
		MinLength:     c.GetInt("textproc.min_length"),
		MaxLength:     c.GetInt("textproc.max_length"),
		PreviewLength: c.GetInt("textproc.preview_length"),
		MaxRawSize:    c.GetInt("textproc.max_raw_size"),
	}
}

// GetBatch returns the batch configuration.
func (c *Config) GetBatch() BatchConfig {
	return BatchConfig{
		PageSize:    c.GetInt("batch.page_size"),
		Concurrency: c.GetInt("batch.concurrency"),
	}
}

// GetArtifact returns the artifact path configuration.
func (c *Config) GetArtifact() ArtifactConfig {
	return ArtifactConfig{
		VectorizerPath: c.GetString("artifact.vectorizer_path"),
		ClassifierPath: c.GetString("artifact.classifier_path"),
	}
}

// GetOpenAI returns the OpenAI engine configuration.
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
		MaxBodySize: c.GetInt("openai.max_body_size"),
	}
}
