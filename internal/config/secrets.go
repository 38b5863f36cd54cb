package config

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretsOverlay represents the structure of secrets stored in AWS Secrets
// Manager. Only credentials live here; everything else stays in the YAML
// config.
type SecretsOverlay struct {
	StoreServiceKey string `json:"store_service_key"`
	ProviderAPIKey  string `json:"provider_api_key"`
}

// LoadSecretsFromAWS fetches credentials from AWS Secrets Manager and
// overlays them on the configuration. Non-empty values in the secret win
// over whatever the file or environment supplied.
func LoadSecretsFromAWS(cfg *Config, region, secretName string) error {
	secrets, err := fetchSecretsFromAWS(context.Background(), region, secretName)
	if err != nil {
		return err
	}
	overlaySecretsOnConfig(cfg, secrets)
	return nil
}

func fetchSecretsFromAWS(ctx context.Context, region, secretName string) (*SecretsOverlay, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := secretsmanager.NewFromConfig(awsCfg)
	result, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretName),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get secret from AWS Secrets Manager: %w", err)
	}

	return parseSecretData(result)
}

func parseSecretData(result *secretsmanager.GetSecretValueOutput) (*SecretsOverlay, error) {
	var secrets SecretsOverlay
	if result.SecretString != nil {
		if err := json.Unmarshal([]byte(*result.SecretString), &secrets); err != nil {
			return nil, fmt.Errorf("failed to parse secret JSON: %w", err)
		}
	} else if result.SecretBinary != nil {
		if err := json.Unmarshal(result.SecretBinary, &secrets); err != nil {
			return nil, fmt.Errorf("failed to parse secret binary: %w", err)
		}
	} else {
		return nil, fmt.Errorf("no secret data found in AWS Secrets Manager")
	}
	return &secrets, nil
}

func overlaySecretsOnConfig(cfg *Config, secrets *SecretsOverlay) {
	if secrets.StoreServiceKey != "" {
		cfg.Store.ServiceKey = secrets.StoreServiceKey
	}
	if secrets.ProviderAPIKey != "" {
		cfg.Provider.APIKey = secrets.ProviderAPIKey
	}
}
