package gcp

import (
	"context"
	"fmt"
	"os"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/option"
)

// SecretFetcher fetches secret values by resource path.
type SecretFetcher interface {
	FetchSecret(ctx context.Context, secretPath string) (string, error)
	Close() error
}

// SecretManagerClient wraps the GCP Secret Manager client.
type SecretManagerClient struct {
	client    *secretmanager.Client
	projectID string
}

// NewSecretManagerClient creates a Secret Manager client. The project id
// comes from GOOGLE_CLOUD_PROJECT and is only needed for bare secret names.
func NewSecretManagerClient(ctx context.Context, opts ...option.ClientOption) (*SecretManagerClient, error) {
	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create secret manager client: %w", err)
	}
	return &SecretManagerClient{
		client:    client,
		projectID: os.Getenv("GOOGLE_CLOUD_PROJECT"),
	}, nil
}

// FetchSecret retrieves a secret value. Accepted path forms:
//   - projects/PROJECT/secrets/NAME/versions/VERSION
//   - projects/PROJECT/secrets/NAME (latest version)
//   - NAME (latest version in the ambient project)
func (s *SecretManagerClient) FetchSecret(ctx context.Context, secretPath string) (string, error) {
	name := secretPath
	switch {
	case strings.Contains(name, "/versions/"):
		// fully qualified
	case strings.HasPrefix(name, "projects/"):
		name += "/versions/latest"
	default:
		if s.projectID == "" {
			return "", fmt.Errorf("bare secret name %q requires GOOGLE_CLOUD_PROJECT", secretPath)
		}
		name = fmt.Sprintf("projects/%s/secrets/%s/versions/latest", s.projectID, name)
	}

	resp, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: name,
	})
	if err != nil {
		return "", fmt.Errorf("failed to access secret %s: %w", name, err)
	}
	return string(resp.GetPayload().GetData()), nil
}

// Close releases the underlying client.
func (s *SecretManagerClient) Close() error {
	return s.client.Close()
}

// ResolveSecret returns the environment variable's value when set, otherwise
// fetches the configured secret path. An empty secretPath with an unset env
// var is an error; a nil fetcher means Secret Manager is unavailable.
func ResolveSecret(ctx context.Context, fetcher SecretFetcher, envVar, secretPath string) (string, error) {
	if v := os.Getenv(envVar); v != "" {
		return v, nil
	}
	if secretPath == "" {
		return "", fmt.Errorf("%s is unset and no secret path is configured", envVar)
	}
	if fetcher == nil {
		return "", fmt.Errorf("%s is unset and Secret Manager is unavailable", envVar)
	}
	value, err := fetcher.FetchSecret(ctx, secretPath)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(value), nil
}
