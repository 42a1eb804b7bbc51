// Package neo4j records the crawled link structure as a property graph.
package neo4j

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type Graph struct {
	driver neo4j.DriverWithContext
}

func New(ctx context.Context, uri, user, password string) (*Graph, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}
	return &Graph{driver: driver}, nil
}

func (g *Graph) Close(ctx context.Context) error {
	return g.driver.Close(ctx)
}

// RecordLinks upserts the source page and a LINKS_TO edge for each outlink.
// Re-crawling the same page is idempotent.
func (g *Graph) RecordLinks(ctx context.Context, fromURL string, toURLs []string) error {
	if fromURL == "" || len(toURLs) == 0 {
		return nil
	}

	_, err := neo4j.ExecuteQuery(ctx, g.driver, `
MERGE (from:Page {url: $from})
WITH from
UNWIND $to AS target
MERGE (dest:Page {url: target})
MERGE (from)-[:LINKS_TO]->(dest)
`,
		map[string]any{"from": fromURL, "to": toURLs},
		neo4j.EagerResultTransformer,
	)
	if err != nil {
		return fmt.Errorf("record links for %s: %w", fromURL, err)
	}
	return nil
}
