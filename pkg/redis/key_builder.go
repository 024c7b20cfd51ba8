package redis

import "fmt"

// KeyBuilder provides environment-aware Redis key building functionality
type KeyBuilder struct {
	prefix string
}

// NewKeyBuilder creates a new key builder with environment-based prefix
func NewKeyBuilder(environment string) *KeyBuilder {
	prefix := "prod"
	if environment == "development" || environment == "staging" || environment == "test" {
		prefix = "staging"
	}

	return &KeyBuilder{
		prefix: prefix,
	}
}

// BuildKey constructs a Redis key with the environment prefix
func (kb *KeyBuilder) BuildKey(key string) string {
	return fmt.Sprintf("%s:%s", kb.prefix, key)
}

func (kb *KeyBuilder) KeyPollView(publicID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyPollView, publicID))
}

func (kb *KeyBuilder) KeyPollResults(publicID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyPollResults, publicID))
}

func (kb *KeyBuilder) KeyActivePolls() string {
	return kb.BuildKey(KeyActivePolls)
}

func (kb *KeyBuilder) KeyPollLastSeen(publicID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyPollLastSeen, publicID))
}
