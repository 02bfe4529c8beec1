package graphql

import (
	"context"
	"fmt"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// Request is a GraphQL request body.
type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// Response is a GraphQL response body.
type Response struct {
	Data   map[string]any `json:"data,omitempty"`
	Errors gqlerror.List  `json:"errors,omitempty"`
}

// Execute parses, validates and runs a request against Schema. The second
// return value is false when the document was rejected before execution.
func (r *Resolver) Execute(ctx context.Context, req Request) (Response, bool) {
	doc, errs := gqlparser.LoadQuery(Schema, req.Query)
	if len(errs) > 0 {
		return Response{Errors: errs}, false
	}

	op := doc.Operations.ForName(req.OperationName)
	if op == nil {
		return Response{Errors: gqlerror.List{gqlerror.Errorf("operation %q not found", req.OperationName)}}, false
	}

	data := make(map[string]any)
	var fieldErrs gqlerror.List
	for _, field := range collectFields(op.SelectionSet) {
		value, err := r.resolveRoot(ctx, op.Operation, field.Name)
		if err != nil {
			fieldErrs = append(fieldErrs, &gqlerror.Error{
				Message: err.Error(),
				Path:    ast.Path{ast.PathName(field.Alias)},
			})
			data[field.Alias] = nil
			continue
		}
		data[field.Alias] = complete(value, field)
	}

	return Response{Data: data, Errors: fieldErrs}, true
}

func (r *Resolver) resolveRoot(ctx context.Context, operation ast.Operation, name string) (any, error) {
	if name == "__typename" {
		if operation == ast.Mutation {
			return "Mutation", nil
		}
		return "Query", nil
	}

	switch operation {
	case ast.Query:
		switch name {
		case "health":
			return r.Health(ctx)
		case "lastRun":
			return r.LastRun(ctx)
		}
	case ast.Mutation:
		if name == "syncNow" {
			return r.SyncNow(ctx)
		}
	}
	return nil, fmt.Errorf("no resolver for %s.%s", operation, name)
}

// complete projects a resolved value onto the field's selection set.
func complete(value any, field *ast.Field) any {
	switch v := value.(type) {
	case map[string]any:
		if v == nil {
			return nil
		}
		out := make(map[string]any)
		for _, sub := range collectFields(field.SelectionSet) {
			if sub.Name == "__typename" {
				out[sub.Alias] = sub.ObjectDefinition.Name
				continue
			}
			out[sub.Alias] = complete(v[sub.Name], sub)
		}
		return out
	case []any:
		items := make([]any, len(v))
		for i, item := range v {
			items[i] = complete(item, field)
		}
		return items
	}
	return value
}

// collectFields flattens fragments into the plain field list.
func collectFields(set ast.SelectionSet) []*ast.Field {
	var fields []*ast.Field
	for _, sel := range set {
		switch s := sel.(type) {
		case *ast.Field:
			fields = append(fields, s)
		case *ast.InlineFragment:
			fields = append(fields, collectFields(s.SelectionSet)...)
		case *ast.FragmentSpread:
			if s.Definition != nil {
				fields = append(fields, collectFields(s.Definition.SelectionSet)...)
			}
		}
	}
	return fields
}
