// Package vision reduces uploaded images to textual descriptions using an
// Azure Computer Vision compatible REST endpoint. The description feeds the
// image-to-code pipeline, which only ever sees text.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	analyzePath = "/vision/v3.2/analyze?visualFeatures=Description,Objects,Tags,Categories,Color"
	readPath    = "/vision/v3.2/read/analyze"

	readMaxPolls = 30

	maxObjects    = 10
	maxTags       = 15
	maxCategories = 5
	maxTextLines  = 15
)

// Client calls the analyze and read (OCR) operations and assembles their
// output into one plain-text description.
type Client struct {
	endpoint     string
	key          string
	client       *http.Client
	pollInterval time.Duration
}

func NewClient(endpoint, key string) (*Client, error) {
	if endpoint == "" || key == "" {
		return nil, fmt.Errorf("vision endpoint and key are required")
	}
	return &Client{
		endpoint:     strings.TrimRight(endpoint, "/"),
		key:          key,
		client:       &http.Client{Timeout: 60 * time.Second},
		pollInterval: time.Second,
	}, nil
}

type analyzeResult struct {
	Description struct {
		Captions []struct {
			Text string `json:"text"`
		} `json:"captions"`
	} `json:"description"`
	Color struct {
		DominantColors []string `json:"dominantColors"`
		AccentColor    string   `json:"accentColor"`
		IsBWImg        bool     `json:"isBWImg"`
	} `json:"color"`
	Objects []struct {
		ObjectProperty string `json:"object"`
	} `json:"objects"`
	Tags []struct {
		Name string `json:"name"`
	} `json:"tags"`
	Categories []struct {
		Name string `json:"name"`
	} `json:"categories"`
}

type readResult struct {
	Status        string `json:"status"`
	AnalyzeResult struct {
		ReadResults []struct {
			Lines []struct {
				Text string `json:"text"`
			} `json:"lines"`
		} `json:"readResults"`
	} `json:"analyzeResult"`
}

// Describe analyzes the image and returns the assembled description.
// OCR failures degrade to a description without the text section; an
// analyze failure is fatal since the caption is the core of the output.
func (c *Client) Describe(ctx context.Context, imageBase64, mediaType string) (string, error) {
	imageBytes, err := base64.StdEncoding.DecodeString(imageBase64)
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	analysis, err := c.analyze(ctx, imageBytes)
	if err != nil {
		return "", fmt.Errorf("analyze image: %w", err)
	}

	text, err := c.readText(ctx, imageBytes)
	if err != nil {
		log.Warn().Err(err).Msg("OCR failed, continuing without text section")
		text = nil
	}

	description := assembleDescription(analysis, text)
	if description == "" {
		return "", fmt.Errorf("vision service returned no usable description")
	}
	return description, nil
}

func (c *Client) analyze(ctx context.Context, imageBytes []byte) (*analyzeResult, error) {
	body, err := c.post(ctx, c.endpoint+analyzePath, imageBytes)
	if err != nil {
		return nil, err
	}

	var result analyzeResult
	if err := json.Unmarshal(body.payload, &result); err != nil {
		return nil, fmt.Errorf("malformed analyze response: %w", err)
	}
	return &result, nil
}

// readText submits the OCR operation and polls its Operation-Location
// until it leaves the notStarted/running states or the poll budget runs out.
func (c *Client) readText(ctx context.Context, imageBytes []byte) (*readResult, error) {
	submitted, err := c.post(ctx, c.endpoint+readPath, imageBytes)
	if err != nil {
		return nil, err
	}
	opLocation := submitted.operationLocation
	if opLocation == "" {
		return nil, fmt.Errorf("read operation returned no Operation-Location")
	}

	for attempt := 0; attempt < readMaxPolls; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, opLocation, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Ocp-Apim-Subscription-Key", c.key)

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("poll read result: %w", err)
		}
		payload, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("poll read result: status %d: %s", resp.StatusCode, string(payload))
		}

		var result readResult
		if err := json.Unmarshal(payload, &result); err != nil {
			return nil, fmt.Errorf("malformed read response: %w", err)
		}
		if result.Status != "notStarted" && result.Status != "running" {
			return &result, nil
		}

		select {
		case <-time.After(c.pollInterval):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("OCR did not complete within %d polls", readMaxPolls)
}

type postResult struct {
	payload           []byte
	operationLocation string
}

func (c *Client) post(ctx context.Context, url string, imageBytes []byte) (*postResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(imageBytes))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Ocp-Apim-Subscription-Key", c.key)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vision request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return nil, fmt.Errorf("vision request: status %d: %s", resp.StatusCode, string(payload))
	}
	return &postResult{
		payload:           payload,
		operationLocation: resp.Header.Get("Operation-Location"),
	}, nil
}

// assembleDescription renders the analysis sections in a fixed order.
// Every section is optional; missing data simply drops its line.
func assembleDescription(analysis *analyzeResult, text *readResult) string {
	var parts []string

	if len(analysis.Description.Captions) > 0 {
		parts = append(parts, "Main Caption: "+analysis.Description.Captions[0].Text)
	}

	var colorInfo []string
	if len(analysis.Color.DominantColors) > 0 {
		colorInfo = append(colorInfo, "Dominant colors: "+strings.Join(analysis.Color.DominantColors, ", "))
	}
	if analysis.Color.AccentColor != "" {
		colorInfo = append(colorInfo, "Accent color: "+analysis.Color.AccentColor)
	}
	if analysis.Color.IsBWImg {
		colorInfo = append(colorInfo, "Image is black and white")
	}
	if len(colorInfo) > 0 {
		parts = append(parts, "Colors: "+strings.Join(colorInfo, " | "))
	}

	if len(analysis.Objects) > 0 {
		names := make([]string, 0, maxObjects)
		for _, obj := range analysis.Objects {
			names = append(names, obj.ObjectProperty)
			if len(names) == maxObjects {
				break
			}
		}
		parts = append(parts, "Key objects/shapes: "+strings.Join(names, ", "))
	}

	if len(analysis.Tags) > 0 {
		names := make([]string, 0, maxTags)
		for _, tag := range analysis.Tags {
			names = append(names, tag.Name)
			if len(names) == maxTags {
				break
			}
		}
		parts = append(parts, "Tags: "+strings.Join(names, ", "))
	}

	if len(analysis.Categories) > 0 {
		names := make([]string, 0, maxCategories)
		for _, cat := range analysis.Categories {
			names = append(names, cat.Name)
			if len(names) == maxCategories {
				break
			}
		}
		parts = append(parts, "Categories: "+strings.Join(names, ", "))
	}

	if text != nil && text.Status == "succeeded" {
		var lines []string
		for _, page := range text.AnalyzeResult.ReadResults {
			for _, line := range page.Lines {
				lines = append(lines, line.Text)
				if len(lines) == maxTextLines {
					break
				}
			}
			if len(lines) == maxTextLines {
				break
			}
		}
		if len(lines) > 0 {
			parts = append(parts, "Text in image: "+strings.Join(lines, " | "))
		}
	}

	return strings.Join(parts, "\n")
}
