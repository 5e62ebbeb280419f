package devops

import (
	"context"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ServerConfig is the deployment config stored as a single yaml SSM
// parameter: pool DSN without schema, the base64 token secret, and the
// payroll export bucket.
type ServerConfig struct {
	DSN          string `yaml:"dsn"`
	JwtSecret    string `yaml:"jwtSecret"`
	ReportBucket string `yaml:"reportBucket"`
	MaxConns     int    `yaml:"maxConns"`
}

var (
	once    sync.Once
	cfg     ServerConfig
	loadErr error
)

func LoadServerConfig(ctx context.Context) (ServerConfig, error) {
	once.Do(func() {
		paramName := "siteclock"

		awsCfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			loadErr = fmt.Errorf("load aws config: %w", err)
			return
		}

		client := ssm.NewFromConfig(awsCfg)

		out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
			Name:           aws.String(paramName),
			WithDecryption: aws.Bool(true),
		})
		if err != nil {
			loadErr = fmt.Errorf("get parameter: %w", err)
			return
		}

		var parsed ServerConfig
		if err := yaml.Unmarshal([]byte(*out.Parameter.Value), &parsed); err != nil {
			loadErr = fmt.Errorf("unmarshal yaml: %w", err)
			return
		}
		if parsed.MaxConns <= 0 {
			parsed.MaxConns = 30
		}

		cfg = parsed
	})

	return cfg, loadErr
}
