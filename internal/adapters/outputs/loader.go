package outputs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/bnema/amplify-rest-cli/internal/domain"
	"github.com/bnema/amplify-rest-cli/internal/ports"
)

// FileName is the artifact written by the backend deployment.
const FileName = "amplify_outputs.json"

const supportedMajorVersion = 1

var _ ports.OutputsSource = Loader{}

// Loader reads outputs files from disk.
type Loader struct{}

func (Loader) Load(ctx context.Context, path string) (domain.Outputs, error) {
	if err := ctx.Err(); err != nil {
		return domain.Outputs{}, err
	}
	return LoadFile(path)
}

func LoadFile(path string) (domain.Outputs, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.Outputs{}, fmt.Errorf("%w: %s does not exist", domain.ErrInvalidOutputs, path)
		}
		return domain.Outputs{}, fmt.Errorf("read outputs %s: %w", path, err)
	}

	outputs, err := Parse(data)
	if err != nil {
		return domain.Outputs{}, fmt.Errorf("%s: %w", path, err)
	}
	return outputs, nil
}

func Parse(data []byte) (domain.Outputs, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return domain.Outputs{}, fmt.Errorf("%w: empty document", domain.ErrInvalidOutputs)
	}

	var outputs domain.Outputs
	if err := json.Unmarshal(data, &outputs); err != nil {
		return domain.Outputs{}, fmt.Errorf("%w: decode json: %v", domain.ErrInvalidOutputs, err)
	}

	if err := validateVersion(outputs.Version); err != nil {
		return domain.Outputs{}, err
	}

	if auth := outputs.Auth; auth != nil {
		if strings.TrimSpace(auth.UserPoolClientID) == "" {
			return domain.Outputs{}, fmt.Errorf("%w: auth.user_pool_client_id is required", domain.ErrInvalidOutputs)
		}
		if domain.NormalizeRegion(auth.AWSRegion) == "" {
			return domain.Outputs{}, fmt.Errorf("%w: auth.aws_region is required", domain.ErrInvalidOutputs)
		}
	}

	return outputs, nil
}

func validateVersion(version string) error {
	version = strings.TrimSpace(version)
	if version == "" {
		return nil
	}

	majorPart, _, _ := strings.Cut(version, ".")
	major, err := strconv.Atoi(majorPart)
	if err != nil {
		return fmt.Errorf("%w: invalid version %q", domain.ErrInvalidOutputs, version)
	}
	if major > supportedMajorVersion {
		return fmt.Errorf("%w: unsupported version %q", domain.ErrInvalidOutputs, version)
	}
	return nil
}
