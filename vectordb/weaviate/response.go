package weaviate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/viant/vecdemo/schema"
	"github.com/weaviate/weaviate/entities/models"
)

func graphQLError(resp *models.GraphQLResponse) error {
	if resp == nil || len(resp.Errors) == 0 {
		return nil
	}
	messages := make([]string, 0, len(resp.Errors))
	for _, e := range resp.Errors {
		if e != nil {
			messages = append(messages, e.Message)
		}
	}
	return fmt.Errorf("weaviate: graphql: %s", strings.Join(messages, "; "))
}

// items returns Data[root][class] of a GraphQL response.
func items(resp *models.GraphQLResponse, root, class string) ([]interface{}, error) {
	if err := graphQLError(resp); err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("weaviate: empty response")
	}
	data, ok := resp.Data[root].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("weaviate: response has no %s section", root)
	}
	raw, ok := data[class]
	if !ok || raw == nil {
		return nil, nil
	}
	list, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("weaviate: unexpected %s.%s type %T", root, class, raw)
	}
	return list, nil
}

func parseHits(resp *models.GraphQLResponse, class string, distance schema.Distance) ([]schema.Hit, error) {
	list, err := items(resp, "Get", class)
	if err != nil {
		return nil, err
	}
	hits := make([]schema.Hit, 0, len(list))
	for _, item := range list {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		hit := schema.Hit{Payload: schema.Record{}}
		for k, v := range obj {
			if k == "_additional" {
				continue
			}
			hit.Payload[k] = v
		}
		if additional, ok := obj["_additional"].(map[string]interface{}); ok {
			hit.ID, _ = additional["id"].(string)
			if d, ok := toFloat(additional["distance"]); ok {
				hit.Score = scoreOf(distance, float32(d))
			}
		}
		hits = append(hits, hit)
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if distance == schema.DistanceEuclid {
			return hits[i].Score < hits[j].Score
		}
		return hits[i].Score > hits[j].Score
	})
	return hits, nil
}

// scoreOf maps a Weaviate distance onto the score a similarity search reports:
// cosine similarity, raw dot product, or squared l2 distance.
func scoreOf(distance schema.Distance, d float32) float32 {
	switch distance {
	case schema.DistanceEuclid:
		return d
	case schema.DistanceDot:
		return -d
	}
	return 1 - d
}

func parseCount(resp *models.GraphQLResponse, class string) (int, error) {
	list, err := items(resp, "Aggregate", class)
	if err != nil {
		return 0, err
	}
	if len(list) == 0 {
		return 0, nil
	}
	obj, _ := list[0].(map[string]interface{})
	meta, _ := obj["meta"].(map[string]interface{})
	count, ok := toFloat(meta["count"])
	if !ok {
		return 0, fmt.Errorf("weaviate: aggregate response has no meta.count")
	}
	return int(count), nil
}

func toFloat(v interface{}) (float64, bool) {
	switch actual := v.(type) {
	case float64:
		return actual, true
	case float32:
		return float64(actual), true
	case int:
		return float64(actual), true
	case int64:
		return float64(actual), true
	}
	return 0, false
}
