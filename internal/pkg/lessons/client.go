package lessons

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/NicolasMarrai/healthmed/internal/pkg/env"
)

const defaultSanityAPIVersion = "v2024-01-01"

// groqQuery lists published lessons in course order. The CMS schema uses the
// original Portuguese field names (aula/titulo/ordem/materia).
const groqQuery = `*[_type == "aula" && !(_id in path("drafts.**"))] | order(ordem asc, _createdAt asc) {
  _id,
  titulo,
  ordem,
  materia->{ titulo },
  "videoUrl": videoFile.asset->url
}`

// Lesson is one video lesson as served to the dashboard.
type Lesson struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Subject  string `json:"subject"`
	Order    int    `json:"order"`
	VideoURL string `json:"video_url"`
}

// Client fetches lessons from the Sanity content API.
type Client struct {
	ProjectID  string
	Dataset    string
	APIVersion string
	Token      string

	// BaseURL overrides the project API host, used in tests.
	BaseURL string

	HTTPClient *http.Client
}

func NewClientFromEnv() *Client {
	return &Client{
		ProjectID:  strings.TrimSpace(env.GetEnv("SANITY_PROJECT_ID", "")),
		Dataset:    strings.TrimSpace(env.GetEnv("SANITY_DATASET", "production")),
		APIVersion: strings.TrimSpace(env.GetEnv("SANITY_API_VERSION", defaultSanityAPIVersion)),
		Token:      strings.TrimSpace(env.GetEnv("SANITY_API_TOKEN", "")),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (c *Client) queryURL() (string, error) {
	base := strings.TrimRight(c.BaseURL, "/")
	if base == "" {
		if c.ProjectID == "" {
			return "", errors.New("SANITY_PROJECT_ID is not configured")
		}
		base = fmt.Sprintf("https://%s.api.sanity.io", c.ProjectID)
	}

	u, err := url.Parse(fmt.Sprintf("%s/%s/data/query/%s", base, c.APIVersion, c.Dataset))
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("query", groqQuery)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// FetchLessons queries the CMS for the full ordered lesson list.
func (c *Client) FetchLessons(ctx context.Context) ([]Lesson, error) {
	reqURL, err := c.queryURL()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("sanity query failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var raw struct {
		Result []struct {
			ID      string `json:"_id"`
			Titulo  string `json:"titulo"`
			Ordem   int    `json:"ordem"`
			Materia struct {
				Titulo string `json:"titulo"`
			} `json:"materia"`
			VideoURL string `json:"videoUrl"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}

	out := make([]Lesson, 0, len(raw.Result))
	for _, r := range raw.Result {
		if strings.TrimSpace(r.ID) == "" {
			continue
		}
		out = append(out, Lesson{
			ID:       r.ID,
			Title:    r.Titulo,
			Subject:  r.Materia.Titulo,
			Order:    r.Ordem,
			VideoURL: r.VideoURL,
		})
	}
	return out, nil
}
