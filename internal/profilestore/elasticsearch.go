// internal/profilestore/elasticsearch.go
package profilestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"sponsorloop-workers/internal/matching"
	"sponsorloop-workers/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/google/uuid"
)

// maxSearchSize bounds a single snapshot read.
const maxSearchSize = 10000

// ElasticsearchStore keeps one document per profile, keyed by ID.
type ElasticsearchStore struct {
	client *elasticsearch.Client
	index  string
	now    func() time.Time
}

func NewElasticsearchStore(client *elasticsearch.Client, index string) *ElasticsearchStore {
	return &ElasticsearchStore{client: client, index: index, now: time.Now}
}

func (s *ElasticsearchStore) ListByRole(ctx context.Context, role models.Role) ([]models.Profile, error) {
	if err := checkRole(role); err != nil {
		return nil, err
	}
	return s.search(ctx, buildSearchQuery(role, matching.NewSearchQuery("", "")))
}

func (s *ElasticsearchStore) SearchByText(ctx context.Context, role models.Role, text, category string) ([]models.Profile, error) {
	if err := checkRole(role); err != nil {
		return nil, err
	}
	return s.search(ctx, buildSearchQuery(role, matching.NewSearchQuery(text, category)))
}

// buildSearchQuery filters on role and category with exact terms and matches
// text as a case-insensitive substring of the name or any tag.
func buildSearchQuery(role models.Role, q matching.SearchQuery) map[string]interface{} {
	filters := []interface{}{
		map[string]interface{}{"term": map[string]interface{}{"role": string(role)}},
	}
	if q.Category != matching.CategoryAll {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{"categoryTags": q.Category},
		})
	}

	boolQuery := map[string]interface{}{"filter": filters}
	if q.Text != "" {
		pattern := "*" + escapeWildcard(q.Text) + "*"
		boolQuery["should"] = []interface{}{
			wildcard("displayName.raw", pattern),
			wildcard("categoryTags", pattern),
		}
		boolQuery["minimum_should_match"] = 1
	}

	return map[string]interface{}{
		"size":  maxSearchSize,
		"query": map[string]interface{}{"bool": boolQuery},
		"sort": []interface{}{
			map[string]interface{}{"createdAt": "asc"},
			map[string]interface{}{"id": "asc"},
		},
	}
}

func wildcard(field, pattern string) map[string]interface{} {
	return map[string]interface{}{
		"wildcard": map[string]interface{}{
			field: map[string]interface{}{"value": pattern, "case_insensitive": true},
		},
	}
}

func escapeWildcard(s string) string {
	return strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`).Replace(s)
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source models.Profile `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (s *ElasticsearchStore) search(ctx context.Context, query map[string]interface{}) ([]models.Profile, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, fmt.Errorf("encode search query: %w", err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("search profiles: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search profiles: %s", res.Status())
	}

	var body searchResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	out := make([]models.Profile, 0, len(body.Hits.Hits))
	for _, hit := range body.Hits.Hits {
		out = append(out, hit.Source)
	}
	return out, nil
}

func (s *ElasticsearchStore) Get(ctx context.Context, id string) (models.Profile, error) {
	res, err := s.client.Get(s.index, id, s.client.Get.WithContext(ctx))
	if err != nil {
		return models.Profile{}, fmt.Errorf("get profile %s: %w", id, err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return models.Profile{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if res.IsError() {
		return models.Profile{}, fmt.Errorf("get profile %s: %s", id, res.Status())
	}

	var doc struct {
		Source models.Profile `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&doc); err != nil {
		return models.Profile{}, fmt.Errorf("decode profile %s: %w", id, err)
	}
	return doc.Source, nil
}

// Create indexes p and waits for it to become searchable.
func (s *ElasticsearchStore) Create(ctx context.Context, p models.Profile) (models.Profile, error) {
	if err := p.Validate(); err != nil {
		return models.Profile{}, err
	}
	p = p.Clone()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now().UTC()
	}

	body, err := json.Marshal(p)
	if err != nil {
		return models.Profile{}, fmt.Errorf("encode profile: %w", err)
	}
	res, err := s.client.Create(s.index, p.ID, bytes.NewReader(body),
		s.client.Create.WithContext(ctx),
		s.client.Create.WithRefresh("wait_for"),
	)
	if err != nil {
		return models.Profile{}, fmt.Errorf("index profile: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusConflict {
		return models.Profile{}, fmt.Errorf("%w: %s", ErrDuplicate, p.ID)
	}
	if res.IsError() {
		return models.Profile{}, fmt.Errorf("index profile: %s", res.Status())
	}
	return p, nil
}
