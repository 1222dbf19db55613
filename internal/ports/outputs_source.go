package ports

import (
	"context"

	"github.com/bnema/amplify-rest-cli/internal/domain"
)

// OutputsSource reads a deployment output artifact.
type OutputsSource interface {
	Load(ctx context.Context, path string) (domain.Outputs, error)
}
