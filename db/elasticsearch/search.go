package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"hermannm.dev/devlog/log"
	"hermannm.dev/leadquery/db"
	"hermannm.dev/wrap"
)

// Elasticsearch's default index.max_result_window, used when a query has no limit.
const maxResultWindow = 10000

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string         `json:"_id"`
			Source map[string]any `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

type countResponse struct {
	Count int64 `json:"count"`
}

func (elastic ElasticsearchDB) Select(ctx context.Context, query db.SelectQuery) ([]db.Row, error) {
	if err := query.Validate(); err != nil {
		return nil, wrap.Error(err, "invalid select query")
	}

	body, err := buildSearchBody(query)
	if err != nil {
		return nil, wrap.Error(err, "failed to build search request")
	}

	log.Debug(
		"generated elasticsearch search",
		slog.String("index", query.Table),
		slog.String("body", string(body)),
	)

	res, err := elastic.client.Search(
		elastic.client.Search.WithContext(ctx),
		elastic.client.Search.WithIndex(query.Table),
		elastic.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, wrap.Error(err, "search request failed")
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, wrap.Errorf(decodeErrorResponse(res), "search on index '%s' failed", query.Table)
	}

	var response searchResponse
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return nil, wrap.Error(err, "failed to parse search response")
	}

	rows := make([]db.Row, 0, len(response.Hits.Hits))
	for _, hit := range response.Hits.Hits {
		row := db.Row(hit.Source)
		if row == nil {
			row = make(db.Row)
		}
		if _, hasID := row["id"]; !hasID && includesColumn(query.Columns, "id") {
			row["id"] = hit.ID
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func (elastic ElasticsearchDB) Count(
	ctx context.Context,
	table string,
	filters []db.Filter,
) (int64, error) {
	boolQuery, err := buildBoolQuery(filters)
	if err != nil {
		return 0, wrap.Error(err, "failed to build count request")
	}

	body, err := json.Marshal(map[string]any{"query": boolQuery})
	if err != nil {
		return 0, wrap.Error(err, "failed to serialize count request")
	}

	res, err := elastic.client.Count(
		elastic.client.Count.WithContext(ctx),
		elastic.client.Count.WithIndex(table),
		elastic.client.Count.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return 0, wrap.Error(err, "count request failed")
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, wrap.Errorf(decodeErrorResponse(res), "count on index '%s' failed", table)
	}

	var response countResponse
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return 0, wrap.Error(err, "failed to parse count response")
	}

	return response.Count, nil
}

func buildSearchBody(query db.SelectQuery) ([]byte, error) {
	boolQuery, err := buildBoolQuery(query.Filters)
	if err != nil {
		return nil, err
	}

	size := maxResultWindow
	if query.Limit > 0 && query.Limit < maxResultWindow {
		size = query.Limit
	}

	body := map[string]any{
		"query": boolQuery,
		"size":  size,
	}

	if len(query.Columns) != 0 {
		body["_source"] = query.Columns
	}

	if query.Order != nil {
		order := "asc"
		if query.Order.SortOrder == db.SortOrderDescending {
			order = "desc"
		}
		body["sort"] = []any{
			map[string]any{query.Order.Column: map[string]any{"order": order}},
		}
	}

	return json.Marshal(body)
}

func buildBoolQuery(filters []db.Filter) (map[string]any, error) {
	must := make([]any, 0, len(filters))
	mustNot := make([]any, 0)

	for _, filter := range filters {
		clause, negated, err := filterClause(filter)
		if err != nil {
			return nil, wrap.Errorf(err, "invalid filter on column '%s'", filter.Column)
		}
		if negated {
			mustNot = append(mustNot, clause)
		} else {
			must = append(must, clause)
		}
	}

	if len(must) == 0 && len(mustNot) == 0 {
		return map[string]any{"match_all": map[string]any{}}, nil
	}

	return map[string]any{
		"bool": map[string]any{"filter": must, "must_not": mustNot},
	}, nil
}

func filterClause(filter db.Filter) (clause map[string]any, negated bool, err error) {
	column := filter.Column

	switch filter.Operator {
	case db.OperatorEqual, db.OperatorNotEqual:
		negated = filter.Operator == db.OperatorNotEqual
		if filter.Value == nil {
			return map[string]any{"exists": map[string]any{"field": column}}, !negated, nil
		}
		return map[string]any{"term": map[string]any{column: filter.Value}}, negated, nil
	case db.OperatorGreaterThan,
		db.OperatorGreaterThanOrEqual,
		db.OperatorLessThan,
		db.OperatorLessThanOrEqual:
		return map[string]any{
			"range": map[string]any{column: map[string]any{filter.Operator.String(): filter.Value}},
		}, false, nil
	case db.OperatorLike, db.OperatorILike:
		pattern, ok := filter.Value.(string)
		if !ok {
			return nil, false, fmt.Errorf("pattern must be a string, got %T", filter.Value)
		}
		return map[string]any{
			"wildcard": map[string]any{column: map[string]any{
				"value":            likeToWildcard(pattern),
				"case_insensitive": filter.Operator == db.OperatorILike,
			}},
		}, false, nil
	case db.OperatorIn:
		values, err := filter.InValues()
		if err != nil {
			return nil, false, err
		}
		return map[string]any{"terms": map[string]any{column: values}}, false, nil
	default:
		return nil, false, fmt.Errorf("unsupported operator %v", filter.Operator)
	}
}

// likeToWildcard translates SQL LIKE wildcards (% and _) to Elasticsearch wildcards (* and ?),
// escaping characters that are special to Elasticsearch but literal in LIKE.
func likeToWildcard(pattern string) string {
	var builder strings.Builder
	for _, char := range pattern {
		switch char {
		case '%':
			builder.WriteRune('*')
		case '_':
			builder.WriteRune('?')
		case '*', '?', '\\':
			builder.WriteRune('\\')
			builder.WriteRune(char)
		default:
			builder.WriteRune(char)
		}
	}
	return builder.String()
}

func includesColumn(columns []string, column string) bool {
	if len(columns) == 0 {
		return true
	}
	for _, candidate := range columns {
		if candidate == column {
			return true
		}
	}
	return false
}
