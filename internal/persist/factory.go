package persist

import (
	"context"
	"encoding/json"
	"fmt"
)

// NewBackendFromConfig creates a Backend from a backend type string and JSON config.
func NewBackendFromConfig(ctx context.Context, backendType string, config json.RawMessage) (Backend, error) {
	switch backendType {
	case "local":
		return NewLocalFromJSON(config)
	case "sqlite":
		return NewSQLiteFromJSON(config)
	case "postgres":
		return NewPostgresFromJSON(ctx, config)
	case "redis":
		return NewRedisFromJSON(ctx, config)
	case "s3":
		return NewS3FromJSON(ctx, config)
	default:
		return nil, fmt.Errorf("unknown backend type: %s", backendType)
	}
}
