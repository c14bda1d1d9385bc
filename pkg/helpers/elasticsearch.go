package helpers

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
)

// NewESClient builds a client with bounded dial and header timeouts.
func NewESClient(addrs []string, username, password string) (*elasticsearch.Client, error) {
	return elasticsearch.NewClient(elasticsearch.Config{
		Addresses: addrs,
		Username:  username,
		Password:  password,
		Transport: &http.Transport{
			MaxIdleConnsPerHost:   10,
			ResponseHeaderTimeout: 5 * time.Second,
			TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
			DialContext:           (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		},
	})
}

// CommunitiesMapping indexes name and description for full text search.
const CommunitiesMapping = `{
  "mappings": {
    "properties": {
      "id":           {"type": "keyword"},
      "name":         {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "description":  {"type": "text"},
      "admin":        {"type": "keyword"},
      "member_count": {"type": "integer"},
      "created_at":   {"type": "date"},
      "updated_at":   {"type": "date"}
    }
  }
}`

// EnsureIndex creates index with mapping unless it already exists.
func EnsureIndex(ctx context.Context, es *elasticsearch.Client, index, mapping string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := es.Indices.Exists([]string{index}, es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return err
	}
	_ = res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = es.Indices.Create(index, es.Indices.Create.WithContext(ctx), es.Indices.Create.WithBody(strings.NewReader(mapping)))
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && !strings.Contains(res.String(), "resource_already_exists_exception") {
		return fmt.Errorf("create index %s: %s", index, res.Status())
	}
	return nil
}
