package config

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// CredentialsConfig holds an optional Bybit API key pair. Public market
// endpoints work without it; a key raises the per-key rate limit tier.
type CredentialsConfig struct {
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
}

// Resolve fills in credentials from AWS SSM Parameter Store in the prod
// environment. Values already set from yaml or env are kept; SSM lookup
// failures leave the credentials empty, which is valid.
func (c *CredentialsConfig) Resolve(environment string) {
	if environment != "prod" {
		return
	}
	if c.APIKey == "" {
		c.APIKey = getParameterStoreValue("BYBIT_API_KEY", true)
	}
	if c.APISecret == "" {
		c.APISecret = getParameterStoreValue("BYBIT_API_SECRET", true)
	}
}

func getParameterStoreValue(parameterName string, decrypt bool) string {
	baseCtx := context.Background()
	ctxWithTimeout, cancel := context.WithTimeout(baseCtx, 5*time.Second)
	defer cancel()

	cfg, err := config.LoadDefaultConfig(ctxWithTimeout)
	if err != nil {
		return ""
	}

	client := ssm.NewFromConfig(cfg)

	input := &ssm.GetParameterInput{
		Name:           &parameterName,
		WithDecryption: &decrypt,
	}

	result, err := client.GetParameter(ctxWithTimeout, input)
	if err != nil {
		return ""
	}

	if result.Parameter.Value == nil {
		return ""
	}

	return *result.Parameter.Value
}
