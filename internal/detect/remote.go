package detect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const remoteTimeout = 15 * time.Second

// Remote calls an external face detection service. The service takes
// a JPEG body on POST /detect and answers with a JSON list of boxes.
type Remote struct {
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

// NewRemote creates a detector backed by the service at baseURL.
func NewRemote(baseURL string, log *zap.Logger) *Remote {
	if log == nil {
		log = zap.NewNop()
	}
	return &Remote{
		baseURL: baseURL,
		client:  &http.Client{Timeout: remoteTimeout},
		log:     log,
	}
}

type detectResponse struct {
	Boxes []struct {
		X      int `json:"x"`
		Y      int `json:"y"`
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"boxes"`
}

func (r *Remote) Detect(ctx context.Context, img image.Image) ([]image.Rectangle, error) {
	var body bytes.Buffer
	if err := jpeg.Encode(&body, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/detect", &body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "image/jpeg")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling detector: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("detector returned status %d", resp.StatusCode)
	}

	var parsed detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding detector response: %w", err)
	}

	boxes := make([]image.Rectangle, 0, len(parsed.Boxes))
	for _, b := range parsed.Boxes {
		boxes = append(boxes, image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height))
	}
	r.log.Debug("remote detection finished", zap.Int("boxes", len(boxes)))
	return boxes, nil
}
