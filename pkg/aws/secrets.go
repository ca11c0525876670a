package aws

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

type SecretsAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsClient reads JSON secrets from Secrets Manager. Config loads once at
// startup, so values are not cached.
type SecretsClient struct {
	api SecretsAPI
}

func NewSecretsClient(cfg sdkaws.Config) *SecretsClient {
	return &SecretsClient{api: secretsmanager.NewFromConfig(cfg)}
}

func NewSecretsClientWithAPI(api SecretsAPI) *SecretsClient {
	return &SecretsClient{api: api}
}

// GetSecretMap flattens a JSON object secret into strings. Numbers and
// booleans keep their JSON spelling, so {"DB_PORT":5432} yields "5432".
func (s *SecretsClient) GetSecretMap(ctx context.Context, name string) (map[string]string, error) {
	out, err := s.api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: sdkaws.String(name)})
	if err != nil {
		return nil, fmt.Errorf("read secret %s: %w", name, err)
	}
	if out.SecretString == nil {
		return nil, fmt.Errorf("secret %s is binary", name)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(*out.SecretString), &raw); err != nil {
		return nil, fmt.Errorf("secret %s is not a JSON object: %w", name, err)
	}

	values := make(map[string]string, len(raw))
	for k, v := range raw {
		var str string
		if err := json.Unmarshal(v, &str); err == nil {
			values[k] = str
			continue
		}
		if string(v) == "null" {
			continue
		}
		if _, err := strconv.ParseFloat(string(v), 64); err == nil || string(v) == "true" || string(v) == "false" {
			values[k] = string(v)
			continue
		}
		return nil, fmt.Errorf("secret %s: key %s must be a string, number or boolean", name, k)
	}
	return values, nil
}
