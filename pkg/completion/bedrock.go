package completion

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/glossify/pkg/logging"
	"github.com/Nephrolytics-ai/glossify/pkg/model"
	"github.com/Nephrolytics-ai/glossify/pkg/utils"
	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	bedrocktypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/smithy-go"
)

const (
	defaultBedrockModel  = "us.anthropic.claude-3-5-sonnet-20241022-v2:0"
	defaultBedrockRegion = "us-east-1"
	bedrockServiceName   = "Bedrock"
)

// BedrockRequester calls the Converse API. It authenticates with AWS
// credentials from the environment, never the stored completion key.
type BedrockRequester struct {
	cfg       model.Config
	modelName string
}

func NewBedrockRequester(opts ...model.Option) (*BedrockRequester, error) {
	cfg := model.ResolveOptions(opts...)
	if cfg.ReasoningLevel != nil {
		if !cfg.IgnoreInvalidOptions {
			return nil, utils.WrapIfNotNil(errors.New("reasoning effort is not supported by the bedrock backend"))
		}
		cfg.ReasoningLevel = nil
	}
	if cfg.MaxTokens == nil {
		maxTokens := defaultChatMaxTokens
		cfg.MaxTokens = &maxTokens
	}
	return &BedrockRequester{cfg: cfg, modelName: resolveModelName(cfg, defaultBedrockModel)}, nil
}

func (r *BedrockRequester) RequiresAPIKey() bool {
	return false
}

func (r *BedrockRequester) Complete(ctx context.Context, apiKey string, prompt string) (Payload, error) {
	log := logging.NewLogger(ctx)
	start := time.Now()
	log.Infof("completion.BedrockRequester.Complete model=%s prompt_chars=%d max_tokens=%v", r.modelName, len(prompt), r.cfg.MaxTokens)

	client, err := r.newClient(ctx)
	if err != nil {
		log.Errorf("error: %v", err)
		return nil, utils.WrapIfNotNil(err)
	}

	output, err := client.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(r.modelName),
		Messages: []bedrocktypes.Message{
			{
				Role: bedrocktypes.ConversationRoleUser,
				Content: []bedrocktypes.ContentBlock{
					&bedrocktypes.ContentBlockMemberText{Value: prompt},
				},
			},
		},
		InferenceConfig: r.inferenceConfig(),
	})
	if err != nil {
		log.Errorf("error: %v", err)
		return nil, bedrockStatusError(err)
	}

	message, ok := output.Output.(*bedrocktypes.ConverseOutputMemberMessage)
	if !ok || message == nil {
		err = errors.New("bedrock converse returned no message")
		log.Errorf("error: %v", err)
		return nil, utils.WrapIfNotNil(err)
	}

	log.Debugf("completion.BedrockRequester.Complete stop_reason=%s latency_ms=%d", output.StopReason, time.Since(start).Milliseconds())
	return TextPayload(messageText(message.Value)), nil
}

func (r *BedrockRequester) newClient(ctx context.Context) (*bedrockruntime.Client, error) {
	awsCfg, err := loadAWSConfig(ctx)
	if err != nil {
		return nil, err
	}

	return bedrockruntime.NewFromConfig(awsCfg, func(o *bedrockruntime.Options) {
		o.HTTPClient = &http.Client{Timeout: r.cfg.HTTPTimeout}
		o.RetryMaxAttempts = 1
		if baseURL := strings.TrimSpace(r.cfg.URL); baseURL != "" {
			o.BaseEndpoint = aws.String(baseURL)
		}
	}), nil
}

func (r *BedrockRequester) inferenceConfig() *bedrocktypes.InferenceConfiguration {
	inference := &bedrocktypes.InferenceConfiguration{}
	if r.cfg.MaxTokens != nil {
		inference.MaxTokens = aws.Int32(int32(*r.cfg.MaxTokens))
	}
	if r.cfg.Temperature != nil {
		inference.Temperature = aws.Float32(float32(*r.cfg.Temperature))
	}
	return inference
}

func loadAWSConfig(ctx context.Context) (aws.Config, error) {
	region := strings.TrimSpace(os.Getenv("AWS_REGION"))
	if region == "" {
		region = defaultBedrockRegion
	}

	accessKeyID := strings.TrimSpace(os.Getenv("AWS_ACCESS_KEY_ID"))
	secretAccessKey := strings.TrimSpace(os.Getenv("AWS_SECRET_ACCESS_KEY"))
	profile := strings.TrimSpace(os.Getenv("AWS_PROFILE"))

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}

	switch {
	case accessKeyID != "" || secretAccessKey != "":
		if accessKeyID == "" || secretAccessKey == "" {
			return aws.Config{}, utils.WrapIfNotNil(
				errors.New("both AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY are required when using key-based auth"),
			)
		}
		sessionToken := strings.TrimSpace(os.Getenv("AWS_SESSION_TOKEN"))
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, sessionToken),
		))
	case profile != "":
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(profile))
	default:
		return aws.Config{}, utils.WrapIfNotNil(
			errors.New("missing AWS credentials: set AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY or AWS_PROFILE"),
		)
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return aws.Config{}, utils.WrapIfNotNil(err)
	}
	return cfg, nil
}

func messageText(message bedrocktypes.Message) string {
	parts := make([]string, 0, len(message.Content))
	for _, block := range message.Content {
		textBlock, ok := block.(*bedrocktypes.ContentBlockMemberText)
		if !ok || textBlock == nil {
			continue
		}
		parts = append(parts, textBlock.Value)
	}
	return strings.Join(parts, "\n")
}

// bedrockStatusError keeps the HTTP status of a failed Converse call and the
// service's error message.
func bedrockStatusError(err error) error {
	var respErr *awshttp.ResponseError
	if !errors.As(err, &respErr) {
		return utils.WrapIfNotNil(err)
	}
	body := respErr.Error()
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		body = apiErr.ErrorCode() + ": " + apiErr.ErrorMessage()
	}
	return newStatusError(bedrockServiceName, respErr.HTTPStatusCode(), body)
}
