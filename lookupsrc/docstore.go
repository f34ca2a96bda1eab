package lookupsrc

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/data/azcosmos"

	"github.com/feathr-ai/feathr-online/value"
)

// DocStoreConfig configures a cloud document store (Cosmos DB) lookup
// source: the key is bound to the SQL-style parameter `@key` of a Cosmos
// query, and each matching document becomes one output row.
type DocStoreConfig struct {
	Name string

	// Endpoint, AccountKey authenticate against the Cosmos account.
	// REQUIRED.
	Endpoint   string
	AccountKey string

	Database  string
	Container string

	// PartitionKeyPath is accepted but not read; Lookup always scopes the
	// query to the partition whose key value is the lookup key's string form.
	PartitionKeyPath string

	// Query selects documents for a key, e.g.
	// "SELECT c.name, c.age FROM c WHERE c.id = @key". REQUIRED.
	Query string
}

// DocStoreSource is the lookup source built from a DocStoreConfig.
type DocStoreSource struct {
	cfg       DocStoreConfig
	container *azcosmos.ContainerClient
}

// NewDocStoreSource authenticates against cfg.Endpoint with an account key
// and resolves the target container.
func NewDocStoreSource(cfg DocStoreConfig) (*DocStoreSource, error) {
	cred, err := azcosmos.NewKeyCredential(cfg.AccountKey)
	if err != nil {
		return nil, fmt.Errorf("lookupsrc.docstore %q: credential: %w", cfg.Name, err)
	}
	client, err := azcosmos.NewClientWithKey(cfg.Endpoint, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("lookupsrc.docstore %q: client: %w", cfg.Name, err)
	}
	container, err := client.NewContainer(cfg.Database, cfg.Container)
	if err != nil {
		return nil, fmt.Errorf("lookupsrc.docstore %q: container: %w", cfg.Name, err)
	}
	return &DocStoreSource{cfg: cfg, container: container}, nil
}

func (s *DocStoreSource) Name() string { return s.cfg.Name }

func (s *DocStoreSource) Lookup(ctx context.Context, key value.Value, fields []string) ([]value.Row, error) {
	opts := &azcosmos.QueryOptions{
		QueryParameters: []azcosmos.QueryParameter{{Name: "@key", Value: sqlParam(key)}},
	}
	pk := azcosmos.NewPartitionKeyString(key.String())
	pager := s.container.NewQueryItemsPager(s.cfg.Query, pk, opts)

	var out []value.Row
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("lookupsrc.docstore %q: %w", s.cfg.Name, err)
		}
		for _, item := range resp.Items {
			row, err := documentToRow(item, fields)
			if err != nil {
				return nil, fmt.Errorf("lookupsrc.docstore %q: %w", s.cfg.Name, err)
			}
			out = append(out, row)
		}
	}
	return out, nil
}

// documentToRow decodes one JSON document and projects it down to fields.
// Absent fields become Null rather than a decode failure.
func documentToRow(doc []byte, fields []string) (value.Row, error) {
	m, err := decodeJSONDocument(doc)
	if err != nil {
		return nil, err
	}
	row := make(value.Row, len(fields))
	for _, f := range fields {
		if v, ok := m[f]; ok {
			row[f] = v
			continue
		}
		row[f] = value.Null()
	}
	return row, nil
}
