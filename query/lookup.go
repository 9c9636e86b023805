package query

import (
	"context"
	"log/slog"
	"strings"

	"hermannm.dev/devlog/log"
	"hermannm.dev/leadquery/db"
)

const lookupPrefix = "lookup:"

// LookupToken is a filter value naming an entity to be resolved to its ID before execution,
// written as "lookup:<kind>:<name>" or "lookup:<name>".
type LookupToken struct {
	Kind string
	Name string
}

// Token kinds that resolve against users.name. An empty kind is treated as "user".
var userLookupKinds = map[string]bool{
	"":            true,
	"user":        true,
	db.RoleBooker: true,
	db.RoleAdmin:  true,
	db.RoleCloser: true,
}

// ParseLookupToken returns the token in value, if value is a string with the lookup prefix
// (matched case-insensitively).
func ParseLookupToken(value any) (LookupToken, bool) {
	str, ok := value.(string)
	if !ok || len(str) < len(lookupPrefix) || !strings.EqualFold(str[:len(lookupPrefix)], lookupPrefix) {
		return LookupToken{}, false
	}

	rest := str[len(lookupPrefix):]
	kind, name, hasKind := strings.Cut(rest, ":")
	if !hasKind {
		return LookupToken{Name: strings.TrimSpace(rest)}, true
	}
	return LookupToken{Kind: strings.ToLower(strings.TrimSpace(kind)), Name: strings.TrimSpace(name)}, true
}

func (token LookupToken) String() string {
	if token.Kind == "" {
		return lookupPrefix + token.Name
	}
	return lookupPrefix + token.Kind + ":" + token.Name
}

type LookupResolver struct {
	store db.Store
}

func NewLookupResolver(store db.Store) LookupResolver {
	return LookupResolver{store: store}
}

// Resolve substitutes the ID of the first user whose name partially matches each lookup token.
// Filters whose token matches no user are left out of the returned filters, and the token names
// are returned as unresolved. Filters without tokens are returned unchanged.
func (resolver LookupResolver) Resolve(
	ctx context.Context,
	filters []Filter,
) (resolved []Filter, unresolved []string) {
	resolved = make([]Filter, 0, len(filters))

	for _, filter := range filters {
		token, isToken := ParseLookupToken(filter.Value)
		if !isToken {
			resolved = append(resolved, filter)
			continue
		}

		id, found := resolver.lookup(ctx, token)
		if !found {
			log.Warn(
				"lookup matched nothing, dropping filter",
				slog.String("token", token.String()),
				slog.String("column", filter.Column),
			)
			unresolved = append(unresolved, token.Name)
			continue
		}

		log.Debug(
			"resolved lookup",
			slog.String("token", token.String()),
			slog.String("id", id),
		)
		filter.Value = id
		resolved = append(resolved, filter)
	}

	return resolved, unresolved
}

func (resolver LookupResolver) lookup(ctx context.Context, token LookupToken) (id string, found bool) {
	if token.Name == "" || !userLookupKinds[token.Kind] {
		return "", false
	}

	rows, err := resolver.store.Select(ctx, db.SelectQuery{
		Table:   db.TableUsers,
		Columns: []string{"id"},
		Filters: []db.Filter{{
			Column:   "name",
			Operator: db.OperatorILike,
			Value:    "%" + strings.ReplaceAll(token.Name, "%", "") + "%",
		}},
		Limit: 1,
	})
	if err != nil {
		log.ErrorCause(err, "lookup query failed, treating as no match")
		return "", false
	}
	if len(rows) == 0 {
		return "", false
	}

	id, ok := rows[0]["id"].(string)
	return id, ok
}
