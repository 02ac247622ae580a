package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/elastic/go-elasticsearch/v8"

	stockEntity "remanerp/model/entity/stock"
)

// ErrUnavailable is returned when no elasticsearch host is configured or the
// client could not be built. Callers fall back to SQL.
var ErrUnavailable = errors.New("search: elasticsearch not available")

var (
	serviceInstance *Service
	serviceOnce     sync.Once
)

// GetService returns the singleton search service.
func GetService() *Service {
	serviceOnce.Do(func() {
		serviceInstance = NewService()
	})
	return serviceInstance
}

// Service indexes ledger movements into elasticsearch and serves full-text
// lookups over their reason field. Degrades to a nil client when no host is
// configured; indexing then silently no-ops and Search returns ErrUnavailable.
type Service struct {
	client *elasticsearch.Client
	prefix string
}

func NewService() *Service {
	host := os.Getenv("ELASTICSEARCH_HOST")
	prefix := os.Getenv("ELASTICSEARCH_INDEX_PREFIX")
	if prefix == "" {
		prefix = "remanerp"
	}
	if host == "" {
		return &Service{prefix: prefix}
	}

	cfg := elasticsearch.Config{
		Addresses: []string{host},
	}
	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return &Service{prefix: prefix}
	}

	return &Service{
		client: client,
		prefix: prefix,
	}
}

func (s *Service) indexName(orgID uint) string {
	return fmt.Sprintf("%s_movements_%d", s.prefix, orgID)
}

// IndexMovement pushes one ledger row into the index. Fire-and-forget:
// failures are logged, never surfaced to the recording operation.
func (s *Service) IndexMovement(ctx context.Context, m *stockEntity.Movement) {
	if s.client == nil {
		return
	}
	body, err := json.Marshal(m)
	if err != nil {
		log.Printf("search: marshal movement %d: %v", m.MovementID, err)
		return
	}
	res, err := s.client.Index(
		s.indexName(m.OrgID),
		bytes.NewReader(body),
		s.client.Index.WithDocumentID(fmt.Sprintf("%d", m.MovementID)),
		s.client.Index.WithContext(ctx),
	)
	if err != nil {
		log.Printf("search: index movement %d: %v", m.MovementID, err)
		return
	}
	defer res.Body.Close()
	if res.IsError() {
		log.Printf("search: index movement %d: %s", m.MovementID, res.String())
	}
}

// SearchMovements runs a match query against movement reasons and returns
// the matching movement IDs, best first.
func (s *Service) SearchMovements(ctx context.Context, orgID uint, query string, size int) ([]uint, error) {
	if s.client == nil {
		return nil, ErrUnavailable
	}
	if size <= 0 {
		size = 20
	}

	var buf bytes.Buffer
	body := map[string]interface{}{
		"size": size,
		"query": map[string]interface{}{
			"match": map[string]interface{}{
				"reason": query,
			},
		},
	}
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.indexName(orgID)),
		s.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search: %s", res.String())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source struct {
					MovementID uint `json:"movement_id"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		ids = append(ids, h.Source.MovementID)
	}
	return ids, nil
}
