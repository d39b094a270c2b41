package secrets

import (
	"context"
	"fmt"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

// GCP reads secrets from Google Secret Manager, used when running on Cloud
// Run (detected via K_SERVICE by the caller).
type GCP struct {
	client  *secretmanager.Client
	project string
}

func NewGCP(ctx context.Context, project string) (*GCP, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create secret manager client: %w", err)
	}
	return &GCP{client: client, project: project}, nil
}

func (g *GCP) Get(ctx context.Context, name string) (string, error) {
	resp, err := g.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: fmt.Sprintf("projects/%s/secrets/%s/versions/latest", g.project, name),
	})
	if err != nil {
		return "", fmt.Errorf("failed to access secret %s: %w", name, err)
	}
	return string(resp.Payload.Data), nil
}

func (g *GCP) Close() error {
	return g.client.Close()
}
