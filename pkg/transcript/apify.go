package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/glossify/pkg/logging"
	"github.com/Nephrolytics-ai/glossify/pkg/model"
	"github.com/Nephrolytics-ai/glossify/pkg/utils"
)

const (
	DefaultBaseURL = "https://api.apify.com"
	DefaultActorID = "scrape-creators~best-youtube-transcripts-scraper"

	serviceName      = "Apify actor"
	maxResponseBytes = 32 << 20
	maxErrorBodySize = 4096
)

var (
	ErrNoTranscriptData  = errors.New("no transcript data returned")
	ErrTranscriptMissing = errors.New("transcript missing in Apify output")
)

// Fetcher turns a video URL into one annotated transcript string.
type Fetcher interface {
	Fetch(ctx context.Context, videoURL string, token string) (string, error)
}

type ApifyClient struct {
	httpClient *http.Client
	baseURL    string
	actorID    string
}

type runInput struct {
	VideoURLs []string `json:"videoUrls"`
}

type datasetItem struct {
	Transcript []model.TranscriptSegment `json:"transcript"`
}

// NewApifyClient honours WithTranscriptURL, WithActorID and WithHTTPTimeout.
func NewApifyClient(opts ...model.Option) *ApifyClient {
	cfg := model.ResolveOptions(opts...)

	baseURL := strings.TrimSpace(cfg.TranscriptURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	actorID := strings.TrimSpace(cfg.ActorID)
	if actorID == "" {
		actorID = DefaultActorID
	}

	return &ApifyClient{
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		actorID:    actorID,
	}
}

func (c *ApifyClient) Fetch(ctx context.Context, videoURL string, token string) (string, error) {
	log := logging.NewLogger(ctx)
	start := time.Now()

	items, err := c.runActor(ctx, videoURL, token)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", err
	}
	log.Debugf("transcript.ApifyClient.Fetch items=%d latency_ms=%d", len(items), time.Since(start).Milliseconds())

	segments, err := firstTranscript(items)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", err
	}

	return JoinSegments(segments), nil
}

func (c *ApifyClient) runActor(ctx context.Context, videoURL string, token string) ([]json.RawMessage, error) {
	requestBits, err := json.Marshal(runInput{VideoURLs: []string{videoURL}})
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	httpRequest, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.endpoint(token),
		bytes.NewReader(requestBits),
	)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	httpRequest.Header.Set("Content-Type", "application/json")

	httpResponse, err := c.httpClient.Do(httpRequest)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	defer httpResponse.Body.Close()

	responseBits, err := io.ReadAll(io.LimitReader(httpResponse.Body, maxResponseBytes))
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	if httpResponse.StatusCode < 200 || httpResponse.StatusCode >= 300 {
		return nil, &model.HTTPStatusError{
			Service:    serviceName,
			StatusCode: httpResponse.StatusCode,
			Status:     httpResponse.Status,
			Body:       utils.Truncate(string(responseBits), maxErrorBodySize),
		}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(responseBits, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoTranscriptData, err)
	}
	if len(items) == 0 {
		return nil, ErrNoTranscriptData
	}
	return items, nil
}

func (c *ApifyClient) endpoint(token string) string {
	query := url.Values{}
	query.Set("token", token)
	return fmt.Sprintf("%s/v2/acts/%s/run-sync-get-dataset-items?%s", c.baseURL, url.PathEscape(c.actorID), query.Encode())
}

func firstTranscript(items []json.RawMessage) ([]model.TranscriptSegment, error) {
	item := datasetItem{}
	if err := json.Unmarshal(items[0], &item); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTranscriptMissing, err)
	}
	if len(item.Transcript) == 0 {
		return nil, ErrTranscriptMissing
	}
	return item.Transcript, nil
}

// JoinSegments renders one "[startTimeText] text" line per segment.
func JoinSegments(segments []model.TranscriptSegment) string {
	lines := make([]string, 0, len(segments))
	for _, segment := range segments {
		lines = append(lines, fmt.Sprintf("[%s] %s", segment.StartTimeText, segment.Text))
	}
	return strings.Join(lines, "\n")
}
