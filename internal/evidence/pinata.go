package evidence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"
)

const pinFilePath = "/pinning/pinFileToIPFS"

type Config struct {
	APIURL     string
	APIKey     string
	SecretKey  string
	GatewayURL string
	Timeout    time.Duration
}

// Upload is the result of pinning one file.
type Upload struct {
	CID         string
	URL         string
	Filename    string
	ContentType string
	Size        int
}

type Client struct {
	cfg  Config
	http *http.Client
	now  func() time.Time
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		now:  time.Now,
	}
}

type pinataMetadata struct {
	Name string `json:"name"`
}

type pinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

// Upload validates data and pins it under filename.
func (c *Client) Upload(ctx context.Context, filename string, data []byte) (*Upload, error) {
	contentType, err := Validate(data)
	if err != nil {
		return nil, err
	}
	filename = filepath.Base(filename)

	body, formType, err := c.buildForm(filename, data)
	if err != nil {
		return nil, err
	}

	endpoint := strings.TrimRight(c.cfg.APIURL, "/") + pinFilePath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", formType)
	req.Header.Set("pinata_api_key", c.cfg.APIKey)
	req.Header.Set("pinata_secret_api_key", c.cfg.SecretKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &UpstreamError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var out pinResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	if out.IpfsHash == "" {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Err: fmt.Errorf("response has no IpfsHash")}
	}

	return &Upload{
		CID:         out.IpfsHash,
		URL:         GatewayURL(c.cfg.GatewayURL, out.IpfsHash, ""),
		Filename:    filename,
		ContentType: contentType,
		Size:        len(data),
	}, nil
}

func (c *Client) buildForm(filename string, data []byte) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", fmt.Errorf("failed to write form file: %w", err)
	}

	meta, err := json.Marshal(pinataMetadata{Name: c.pinName(filename)})
	if err != nil {
		return nil, "", err
	}
	if err := w.WriteField("pinataMetadata", string(meta)); err != nil {
		return nil, "", fmt.Errorf("failed to write metadata: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func (c *Client) pinName(filename string) string {
	return fmt.Sprintf("trustchain-evidence-%d-%s", c.now().UnixMilli(), filename)
}
