package embeddings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("EMBEDDING_BASE_URL", "")
	t.Setenv("EMBEDDING_MODEL", "")
	t.Setenv("OPENAI_API_KEY", "")

	cfg := ConfigFromEnv()
	assert.Equal(t, "http://localhost:8080/v1", cfg.BaseURL)
	assert.Equal(t, "BAAI/bge-small-en-v1.5", cfg.Model)
	assert.Empty(t, cfg.APIKey)

	t.Setenv("EMBEDDING_BASE_URL", "http://tei:8080/v1")
	t.Setenv("EMBEDDING_MODEL", "BAAI/bge-base-en-v1.5")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg = ConfigFromEnv()
	assert.Equal(t, "http://tei:8080/v1", cfg.BaseURL)
	assert.Equal(t, "BAAI/bge-base-en-v1.5", cfg.Model)
	assert.Equal(t, "sk-test", cfg.APIKey)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:   "valid",
			config: Config{BaseURL: "http://localhost:8080/v1", Model: "BAAI/bge-small-en-v1.5"},
		},
		{
			name:    "missing base URL",
			config:  Config{Model: "BAAI/bge-small-en-v1.5"},
			wantErr: true,
		},
		{
			name:    "missing model",
			config:  Config{BaseURL: "http://localhost:8080/v1"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestNewServiceKeylessEndpoint(t *testing.T) {
	// TEI and Ollama endpoints have no API key; construction must still
	// succeed.
	svc, err := NewService(Config{
		BaseURL: "http://localhost:8080/v1",
		Model:   "BAAI/bge-small-en-v1.5",
	})
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestNewServiceInvalidConfig(t *testing.T) {
	_, err := NewService(Config{})
	require.ErrorIs(t, err, ErrInvalidConfig)
}
