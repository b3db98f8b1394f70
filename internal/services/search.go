package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"dryfruit_back_end/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const ProductIndex = "products"

var ErrSearchDisabled = errors.New("search index not configured")

// Search mirrors the catalog into Elasticsearch. Mongo stays the source of
// truth; the index only ranks ids.
type Search struct {
	es *elasticsearch.Client
}

func NewSearch(es *elasticsearch.Client) *Search {
	return &Search{es: es}
}

func (s *Search) Enabled() bool { return s != nil && s.es != nil }

type productDoc struct {
	Name        string   `json:"name"`
	Slug        string   `json:"slug"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Features    []string `json:"features,omitempty"`
	Benefits    []string `json:"benefits,omitempty"`
	Price       float64  `json:"price"`
	IsActive    bool     `json:"isActive"`
}

// Index upserts one product. Failures are logged; search falls back to Mongo.
func (s *Search) Index(ctx context.Context, p *models.Product) {
	if !s.Enabled() {
		return
	}
	data, err := json.Marshal(productDoc{
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Category:    p.Category,
		Features:    p.Features,
		Benefits:    p.Benefits,
		Price:       p.Price,
		IsActive:    p.IsActive,
	})
	if err != nil {
		log.Printf("❌ encode product %s for search: %v", p.Name, err)
		return
	}

	req := esapi.IndexRequest{
		Index:      ProductIndex,
		DocumentID: p.ID.Hex(),
		Body:       bytes.NewReader(data),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, s.es)
	if err != nil {
		log.Printf("❌ Elasticsearch index %s: %v", p.Name, err)
		return
	}
	defer res.Body.Close()
	if res.IsError() {
		log.Printf("⚠️ Elasticsearch rejected %s: %s", p.Name, res.String())
		return
	}
	log.Printf("🔎 Indexed product %s", p.Name)
}

func (s *Search) Remove(ctx context.Context, id string) {
	if !s.Enabled() {
		return
	}
	res, err := esapi.DeleteRequest{Index: ProductIndex, DocumentID: id}.Do(ctx, s.es)
	if err != nil {
		log.Printf("❌ Elasticsearch delete %s: %v", id, err)
		return
	}
	res.Body.Close()
}

func searchBody(query string, limit int) ([]byte, error) {
	if limit <= 0 {
		limit = 100
	}
	return json.Marshal(map[string]interface{}{
		"size":    limit,
		"_source": false,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": map[string]interface{}{
					"multi_match": map[string]interface{}{
						"query":     query,
						"fields":    []string{"name^3", "category^2", "description", "features", "benefits"},
						"fuzziness": "AUTO",
					},
				},
				"filter": map[string]interface{}{
					"term": map[string]interface{}{"isActive": true},
				},
			},
		},
	})
}

// SearchIDs returns matching product ids, best match first.
func (s *Search) SearchIDs(ctx context.Context, query string, limit int) ([]string, error) {
	if !s.Enabled() {
		return nil, ErrSearchDisabled
	}
	body, err := searchBody(query, limit)
	if err != nil {
		return nil, err
	}

	res, err := esapi.SearchRequest{
		Index: []string{ProductIndex},
		Body:  bytes.NewReader(body),
	}.Do(ctx, s.es)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch search: %s", res.Status())
	}

	var out struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	ids := make([]string, 0, len(out.Hits.Hits))
	for _, h := range out.Hits.Hits {
		ids = append(ids, h.ID)
	}
	return ids, nil
}
