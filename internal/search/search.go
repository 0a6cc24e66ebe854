// internal/search/search.go
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"scribe-api/internal/common/database"
	apperrors "scribe-api/internal/common/errors"
	"scribe-api/internal/common/logger"
	"scribe-api/internal/models"
)

// TranscriptIndex stores finished transcripts in Elasticsearch so users
// can search across their jobs by content.
type TranscriptIndex struct {
	client *database.ElasticsearchClient
	index  string
	logger logger.Logger
}

// NewTranscriptIndex returns an index handle for the given index name.
func NewTranscriptIndex(client *database.ElasticsearchClient, index string, log logger.Logger) *TranscriptIndex {
	return &TranscriptIndex{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "search"}),
	}
}

// IndexedTranscript is the document stored per completed job.
type IndexedTranscript struct {
	UUID      string    `json:"uuid"`
	Username  string    `json:"username"`
	Filename  string    `json:"filename"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Hit is one search result.
type Hit struct {
	UUID     string  `json:"uuid"`
	Filename string  `json:"filename"`
	Score    float64 `json:"score"`
	Snippet  string  `json:"snippet,omitempty"`
}

// IndexJob stores the transcript text of a completed job.
func (t *TranscriptIndex) IndexJob(ctx context.Context, job *models.Job, text string) error {
	doc := IndexedTranscript{
		UUID:      job.UUID,
		Username:  job.Username,
		Filename:  job.Filename,
		Text:      text,
		CreatedAt: job.CreatedAt,
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return apperrors.NewInternalError("failed to encode transcript document", err)
	}

	req := esapi.IndexRequest{
		Index:      t.index,
		DocumentID: job.UUID,
		Body:       bytes.NewReader(body),
		Refresh:    "false",
	}
	res, err := req.Do(ctx, t.client.Client)
	if err != nil {
		return apperrors.NewUpstreamError("failed to index transcript", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return apperrors.NewUpstreamError(
			fmt.Sprintf("transcript indexing returned %s", res.Status()), nil)
	}
	return nil
}

// DeleteJob removes a job's transcript from the index. Missing documents
// are not an error; the job may have failed before indexing.
func (t *TranscriptIndex) DeleteJob(ctx context.Context, uuid string) error {
	req := esapi.DeleteRequest{
		Index:      t.index,
		DocumentID: uuid,
	}
	res, err := req.Do(ctx, t.client.Client)
	if err != nil {
		return apperrors.NewUpstreamError("failed to delete transcript", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != 404 {
		return apperrors.NewUpstreamError(
			fmt.Sprintf("transcript deletion returned %s", res.Status()), nil)
	}
	return nil
}

// Search finds the user's transcripts matching the query, best first.
func (t *TranscriptIndex) Search(ctx context.Context, username, query string, from, size int) ([]Hit, int64, error) {
	if size <= 0 {
		size = 20
	}

	body, err := json.Marshal(BuildSearchQuery(username, query))
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to encode search query", err)
	}

	req := esapi.SearchRequest{
		Index: []string{t.index},
		Body:  strings.NewReader(string(body)),
		From:  &from,
		Size:  &size,
	}
	res, err := req.Do(ctx, t.client.Client)
	if err != nil {
		return nil, 0, apperrors.NewUpstreamError("search request failed", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, 0, apperrors.NewUpstreamError(
			fmt.Sprintf("search returned %s", res.Status()), nil)
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, 0, apperrors.NewInternalError("failed to decode search response", err)
	}

	hits := make([]Hit, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		hit := Hit{
			UUID:     h.Source.UUID,
			Filename: h.Source.Filename,
			Score:    h.Score,
		}
		if len(h.Highlight.Text) > 0 {
			hit.Snippet = h.Highlight.Text[0]
		}
		hits = append(hits, hit)
	}
	return hits, parsed.Hits.Total.Value, nil
}

// BuildSearchQuery returns the search body: a multi match over filename
// and transcript text, filtered to the requesting user, with highlighted
// snippets.
func BuildSearchQuery(username, query string) map[string]interface{} {
	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": []interface{}{
					map[string]interface{}{
						"multi_match": map[string]interface{}{
							"query":  query,
							"fields": []string{"filename^2", "text"},
							"type":   "best_fields",
						},
					},
				},
				"filter": []interface{}{
					map[string]interface{}{
						"term": map[string]interface{}{"username": username},
					},
				},
			},
		},
		"highlight": map[string]interface{}{
			"fields": map[string]interface{}{
				"text": map[string]interface{}{},
			},
		},
	}
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			Score     float64           `json:"_score"`
			Source    IndexedTranscript `json:"_source"`
			Highlight struct {
				Text []string `json:"text"`
			} `json:"highlight"`
		} `json:"hits"`
	} `json:"hits"`
}
