package graph

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/tutoriq/tutoriq-backend/internal/domain"
	"github.com/tutoriq/tutoriq-backend/internal/platform/logger"
	"github.com/tutoriq/tutoriq-backend/internal/platform/neo4jdb"
)

// UpsertPrereqGraph mirrors concepts and prerequisite edges into Neo4j.
// The mirror is advisory: a nil client is a no-op, and callers keep Postgres
// as the source of truth.
func UpsertPrereqGraph(ctx context.Context, client *neo4jdb.Client, log *logger.Logger, concepts []*domain.Concept, edges []*domain.ConceptEdge) error {
	if client == nil || client.Driver == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	nodes := make([]map[string]any, 0, len(concepts))
	for _, c := range concepts {
		if c == nil || c.Code == "" {
			continue
		}
		nodes = append(nodes, map[string]any{
			"code":        c.Code,
			"title":       c.Title,
			"domain":      c.Domain,
			"grade_level": c.GradeLevel,
			"difficulty":  int64(c.Difficulty),
			"synced_at":   now,
		})
	}

	rels := make([]map[string]any, 0, len(edges))
	for _, e := range edges {
		if e == nil || e.FromCode == "" || e.ToCode == "" {
			continue
		}
		rels = append(rels, map[string]any{
			"from_code": e.FromCode,
			"to_code":   e.ToCode,
			"synced_at": now,
		})
	}

	session := client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: client.Database,
	})
	defer session.Close(ctx)

	// Best-effort schema init; may fail for restricted users.
	if res, err := session.Run(ctx, `CREATE CONSTRAINT concept_code_unique IF NOT EXISTS FOR (c:Concept) REQUIRE c.code IS UNIQUE`, nil); err != nil {
		if log != nil {
			log.Warn("neo4j schema init failed (continuing)", "error", err)
		}
	} else {
		_, _ = res.Consume(ctx)
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if len(nodes) > 0 {
			res, err := tx.Run(ctx, `
UNWIND $nodes AS n
MERGE (c:Concept {code: n.code})
SET c += n
`, map[string]any{"nodes": nodes})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}

		if len(rels) > 0 {
			res, err := tx.Run(ctx, `
UNWIND $rels AS r
MERGE (a:Concept {code: r.from_code})
MERGE (b:Concept {code: r.to_code})
MERGE (a)-[e:PREREQ_OF]->(b)
SET e.synced_at = r.synced_at
`, map[string]any{"rels": rels})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

// PrereqEdgesAmong returns the prerequisite edges whose endpoints are both
// within codes. A nil client returns (nil, nil) so callers fall back to the
// relational edge store.
func PrereqEdgesAmong(ctx context.Context, client *neo4jdb.Client, log *logger.Logger, codes []string) ([]*domain.ConceptEdge, error) {
	if client == nil || client.Driver == nil {
		return nil, nil
	}
	if len(codes) == 0 {
		return []*domain.ConceptEdge{}, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	session := client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: client.Database,
	})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (a:Concept)-[:PREREQ_OF]->(b:Concept)
WHERE a.code IN $codes AND b.code IN $codes
RETURN a.code AS from_code, b.code AS to_code
`, map[string]any{"codes": codes})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		edges := make([]*domain.ConceptEdge, 0, len(records))
		for _, rec := range records {
			from, ok := rec.Get("from_code")
			if !ok {
				continue
			}
			to, ok := rec.Get("to_code")
			if !ok {
				continue
			}
			fromCode, _ := from.(string)
			toCode, _ := to.(string)
			if fromCode == "" || toCode == "" {
				continue
			}
			edges = append(edges, &domain.ConceptEdge{FromCode: fromCode, ToCode: toCode})
		}
		return edges, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]*domain.ConceptEdge), nil
}
