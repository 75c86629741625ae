package tiktok

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"autoposter-core/domain/model"
	"autoposter-core/domain/repository"
	"autoposter-core/infrastructure/logger"
)

const (
	defaultBaseURL      = "https://open.tiktokapis.com"
	defaultChunkSize    = 10 * 1024 * 1024
	defaultPollAttempts = 10
	defaultPollInterval = 2 * time.Second

	statusComplete = "PUBLISH_COMPLETE"
	statusFailed   = "FAILED"
)

// Config represents TikTok Content Posting API client configuration
type Config struct {
	BaseURL            string
	ChunkSize          int64
	StatusPollAttempts int
	StatusPollInterval time.Duration
	HTTPTimeout        time.Duration
}

// Client talks to the Content Posting API. It performs network calls only;
// recording outcomes is the post log's job.
type Client struct {
	baseURL      string
	chunkSize    int64
	pollAttempts int
	pollInterval time.Duration
	httpClient   *http.Client
}

// publishSession is the vendor-issued state threaded through the three
// protocol calls. It lives for one upload request and is discarded after
// status resolution.
type publishSession struct {
	PublishID string
	UploadURL string
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type initRequest struct {
	PostInfo   postInfo   `json:"post_info"`
	SourceInfo sourceInfo `json:"source_info"`
}

type postInfo struct {
	Title          string `json:"title"`
	PrivacyLevel   string `json:"privacy_level"`
	DisableDuet    bool   `json:"disable_duet"`
	DisableComment bool   `json:"disable_comment"`
	DisableStitch  bool   `json:"disable_stitch"`
}

type sourceInfo struct {
	Source          string `json:"source"`
	VideoSize       int64  `json:"video_size"`
	ChunkSize       int64  `json:"chunk_size"`
	TotalChunkCount int64  `json:"total_chunk_count"`
}

type initResponse struct {
	Data struct {
		PublishID string `json:"publish_id"`
		UploadURL string `json:"upload_url"`
	} `json:"data"`
	Error apiError `json:"error"`
}

type statusResponse struct {
	Data struct {
		Status     string `json:"status"`
		FailReason string `json:"fail_reason"`
	} `json:"data"`
	Error apiError `json:"error"`
}

// NewTikTokClient creates a new Content Posting API client
func NewTikTokClient(cfg *Config) repository.ITikTok {
	c := &Client{
		baseURL:      defaultBaseURL,
		chunkSize:    defaultChunkSize,
		pollAttempts: defaultPollAttempts,
		pollInterval: defaultPollInterval,
	}
	timeout := 30 * time.Second
	if cfg != nil {
		if cfg.BaseURL != "" {
			c.baseURL = cfg.BaseURL
		}
		if cfg.ChunkSize > 0 {
			c.chunkSize = cfg.ChunkSize
		}
		if cfg.StatusPollAttempts > 0 {
			c.pollAttempts = cfg.StatusPollAttempts
		}
		if cfg.StatusPollInterval > 0 {
			c.pollInterval = cfg.StatusPollInterval
		}
		if cfg.HTTPTimeout > 0 {
			timeout = cfg.HTTPTimeout
		}
	}
	// Every remote call gets a hard timeout so a stalled platform call cannot
	// hang the handling goroutine.
	c.httpClient = &http.Client{Timeout: timeout}
	return c
}

// PostVideo runs the strict three-call sequence: init, chunked upload,
// status poll. Any failure is terminal for the attempt; no retries.
func (c *Client) PostVideo(ctx context.Context, accessToken string, video io.Reader, size int64) (*model.PublishResult, error) {
	if size <= 0 {
		return nil, model.ErrInvalidInput
	}

	session, err := c.initUpload(ctx, accessToken, size)
	if err != nil {
		return nil, err
	}

	if err := c.uploadChunks(ctx, session.UploadURL, video, size); err != nil {
		return nil, err
	}

	status, err := c.pollStatus(ctx, accessToken, session.PublishID)
	if err != nil {
		return nil, err
	}

	return &model.PublishResult{PublishID: session.PublishID, Status: status}, nil
}

func (c *Client) initUpload(ctx context.Context, accessToken string, size int64) (*publishSession, error) {
	payload := initRequest{
		PostInfo: postInfo{
			Title: "Video uploaded via Autoposter",
			// Safe default; the creator can change visibility on TikTok.
			PrivacyLevel: "SELF_ONLY",
		},
		SourceInfo: sourceInfo{
			Source:          "FILE_UPLOAD",
			VideoSize:       size,
			ChunkSize:       c.chunkSize,
			TotalChunkCount: (size + c.chunkSize - 1) / c.chunkSize,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal init payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/post/publish/video/init/", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	c.setAuthHeaders(req, accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("init request failed: %w", err)
	}
	defer resp.Body.Close()

	var out initResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode init response: %w", err)
	}
	if out.Error.Code != "ok" {
		return nil, platformError(out.Error)
	}
	return &publishSession{PublishID: out.Data.PublishID, UploadURL: out.Data.UploadURL}, nil
}

// uploadChunks streams the file to the vendor-issued upload URL in fixed
// byte ranges. Partial uploads are not resumed; any mid-stream failure is
// terminal for the attempt.
func (c *Client) uploadChunks(ctx context.Context, uploadURL string, video io.Reader, size int64) error {
	buf := make([]byte, c.chunkSize)
	var offset int64
	chunkIndex := 0

	for offset < size {
		n, err := io.ReadFull(video, buf)
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			// last (short) chunk
			err = nil
		}
		if err != nil {
			return fmt.Errorf("reading chunk %d failed: %w", chunkIndex, err)
		}
		if n == 0 {
			return fmt.Errorf("video shorter than declared size: got %d of %d bytes", offset, size)
		}
		chunkEnd := offset + int64(n)
		if chunkEnd > size {
			return fmt.Errorf("video longer than declared size %d", size)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(buf[:n]))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "video/mp4")
		req.ContentLength = int64(n)
		// The byte range on the final chunk signals completion.
		req.Header.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", offset, chunkEnd-1, size))

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("chunk %d upload failed: %w", chunkIndex, err)
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusPartialContent {
			return &model.PlatformError{
				Code:    "upload_failed",
				Message: fmt.Sprintf("chunk %d upload failed with status %d", chunkIndex, resp.StatusCode),
			}
		}

		offset = chunkEnd
		chunkIndex++
	}
	return nil
}

// pollStatus queries the status endpoint until a terminal state or the
// attempt bound is exhausted.
func (c *Client) pollStatus(ctx context.Context, accessToken, publishID string) (string, error) {
	for attempt := 1; attempt <= c.pollAttempts; attempt++ {
		status, failReason, err := c.fetchStatus(ctx, accessToken, publishID)
		if err != nil {
			return "", err
		}
		switch status {
		case statusComplete:
			return status, nil
		case statusFailed:
			reason := failReason
			if reason == "" {
				reason = "publish failed"
			}
			return "", &model.PlatformError{Code: "publish_failed", Message: reason}
		}
		if attempt == c.pollAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
	logger.GetLogger().WithField("publish_id", publishID).Warn("status poll exhausted without terminal state")
	return "", model.ErrStatusTimeout
}

func (c *Client) fetchStatus(ctx context.Context, accessToken, publishID string) (string, string, error) {
	body, err := json.Marshal(map[string]string{"publish_id": publishID})
	if err != nil {
		return "", "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/post/publish/status/fetch/", bytes.NewReader(body))
	if err != nil {
		return "", "", err
	}
	c.setAuthHeaders(req, accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("status request failed: %w", err)
	}
	defer resp.Body.Close()

	var out statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", "", fmt.Errorf("failed to decode status response: %w", err)
	}
	if out.Error.Code != "ok" {
		return "", "", platformError(out.Error)
	}
	return out.Data.Status, out.Data.FailReason, nil
}

func (c *Client) setAuthHeaders(req *http.Request, accessToken string) {
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
}

func platformError(e apiError) error {
	code := e.Code
	if code == "" {
		code = "unknown"
	}
	msg := e.Message
	if msg == "" {
		msg = "unknown error occurred"
	}
	return &model.PlatformError{Code: code, Message: msg}
}
