// Package graphql exposes the server's built graphs through a fixed
// GraphQL schema.
package graphql

import (
	"fmt"

	"github.com/graphql-go/graphql"

	"github.com/kestrelworks/bootseq/pkg/depgraph"
	"github.com/kestrelworks/bootseq/pkg/schedule"
)

// Source supplies built graphs to the resolvers.
type Source interface {
	// Lookup returns the graph and plan stored under id.
	Lookup(id string) (*depgraph.Graph, *schedule.Plan, bool)
	// IDs returns the identifiers of all stored graphs.
	IDs() []string
}

type graphModel struct {
	id   string
	g    *depgraph.Graph
	plan *schedule.Plan
}

type componentModel struct {
	view depgraph.ComponentView
	plan *schedule.Plan
}

// NewSchema builds the query schema over src.
func NewSchema(src Source) (graphql.Schema, error) {
	windowType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Window",
		Fields: graphql.Fields{
			"begin": &graphql.Field{
				Type: graphql.Float,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if w, ok := p.Source.(schedule.Window); ok {
						return w.Begin.Seconds(), nil
					}
					return nil, nil
				},
			},
			"end": &graphql.Field{
				Type: graphql.Float,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if w, ok := p.Source.(schedule.Window); ok {
						return w.End.Seconds(), nil
					}
					return nil, nil
				},
			},
		},
	})

	rejectedType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RejectedEdge",
		Fields: graphql.Fields{
			"dependent": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if d, ok := p.Source.(depgraph.Dependency); ok {
						return d.Dependent, nil
					}
					return nil, nil
				},
			},
			"requirement": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if d, ok := p.Source.(depgraph.Dependency); ok {
						return d.Requirement, nil
					}
					return nil, nil
				},
			},
		},
	})

	componentType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Component",
		Fields: graphql.Fields{
			"name": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if c, ok := p.Source.(componentModel); ok {
						return c.view.Name, nil
					}
					return nil, nil
				},
			},
			"startup": &graphql.Field{
				Type: graphql.Float,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if c, ok := p.Source.(componentModel); ok {
						d, err := c.view.Attrs.Duration(depgraph.AttrStartup)
						if err != nil {
							return nil, nil
						}
						return d.Seconds(), nil
					}
					return nil, nil
				},
			},
			"shutdown": &graphql.Field{
				Type: graphql.Float,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if c, ok := p.Source.(componentModel); ok {
						d, err := c.view.Attrs.Duration(depgraph.AttrShutdown)
						if err != nil {
							return nil, nil
						}
						return d.Seconds(), nil
					}
					return nil, nil
				},
			},
			"requires": &graphql.Field{
				Type: graphql.NewList(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if c, ok := p.Source.(componentModel); ok {
						return c.view.Requirements, nil
					}
					return nil, nil
				},
			},
			"dependents": &graphql.Field{
				Type: graphql.NewList(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if c, ok := p.Source.(componentModel); ok {
						return c.view.Dependents, nil
					}
					return nil, nil
				},
			},
			"startupWindow": &graphql.Field{
				Type: windowType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if c, ok := p.Source.(componentModel); ok && c.plan != nil {
						if e, ok := c.plan.Entry(c.view.Name); ok {
							return e.Startup, nil
						}
					}
					return nil, nil
				},
			},
			"shutdownWindow": &graphql.Field{
				Type: windowType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if c, ok := p.Source.(componentModel); ok && c.plan != nil {
						if e, ok := c.plan.Entry(c.view.Name); ok {
							return e.Shutdown, nil
						}
					}
					return nil, nil
				},
			},
		},
	})

	entryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "PlanEntry",
		Fields: graphql.Fields{
			"component": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if e, ok := p.Source.(schedule.Entry); ok {
						return e.Component, nil
					}
					return nil, nil
				},
			},
			"startup": &graphql.Field{
				Type: windowType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if e, ok := p.Source.(schedule.Entry); ok {
						return e.Startup, nil
					}
					return nil, nil
				},
			},
			"shutdown": &graphql.Field{
				Type: windowType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if e, ok := p.Source.(schedule.Entry); ok {
						return e.Shutdown, nil
					}
					return nil, nil
				},
			},
		},
	})

	planType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Plan",
		Fields: graphql.Fields{
			"id": &graphql.Field{
				Type: graphql.NewNonNull(graphql.ID),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if pl, ok := p.Source.(*schedule.Plan); ok {
						return pl.ID, nil
					}
					return nil, nil
				},
			},
			"createdAt": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if pl, ok := p.Source.(*schedule.Plan); ok {
						return pl.CreatedAt.Format("2006-01-02T15:04:05Z07:00"), nil
					}
					return nil, nil
				},
			},
			"totalStartup": &graphql.Field{
				Type: graphql.Float,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if pl, ok := p.Source.(*schedule.Plan); ok {
						return pl.TotalStartup().Seconds(), nil
					}
					return nil, nil
				},
			},
			"totalShutdown": &graphql.Field{
				Type: graphql.Float,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if pl, ok := p.Source.(*schedule.Plan); ok {
						return pl.TotalShutdown().Seconds(), nil
					}
					return nil, nil
				},
			},
			"entries": &graphql.Field{
				Type: graphql.NewList(entryType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if pl, ok := p.Source.(*schedule.Plan); ok {
						return pl.Entries, nil
					}
					return nil, nil
				},
			},
		},
	})

	graphType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Graph",
		Fields: graphql.Fields{
			"id": &graphql.Field{
				Type: graphql.NewNonNull(graphql.ID),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if m, ok := p.Source.(graphModel); ok {
						return m.id, nil
					}
					return nil, nil
				},
			},
			"nodes": &graphql.Field{
				Type: graphql.Int,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if m, ok := p.Source.(graphModel); ok {
						return m.g.NumNodes(), nil
					}
					return nil, nil
				},
			},
			"edges": &graphql.Field{
				Type: graphql.Int,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if m, ok := p.Source.(graphModel); ok {
						return m.g.NumEdges(), nil
					}
					return nil, nil
				},
			},
			"strict": &graphql.Field{
				Type: graphql.Boolean,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if m, ok := p.Source.(graphModel); ok {
						return m.g.Strict(), nil
					}
					return nil, nil
				},
			},
			"roots": &graphql.Field{
				Type: graphql.NewList(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if m, ok := p.Source.(graphModel); ok {
						return m.g.Roots(), nil
					}
					return nil, nil
				},
			},
			"leaves": &graphql.Field{
				Type: graphql.NewList(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if m, ok := p.Source.(graphModel); ok {
						return m.g.Leaves(), nil
					}
					return nil, nil
				},
			},
			"order": &graphql.Field{
				Type: graphql.NewList(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if m, ok := p.Source.(graphModel); ok {
						return m.g.TopologicalOrder(), nil
					}
					return nil, nil
				},
			},
			"rejected": &graphql.Field{
				Type: graphql.NewList(rejectedType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if m, ok := p.Source.(graphModel); ok {
						return m.g.RejectedEdges(), nil
					}
					return nil, nil
				},
			},
			"components": &graphql.Field{
				Type: graphql.NewList(componentType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if m, ok := p.Source.(graphModel); ok {
						views := m.g.Components()
						out := make([]componentModel, len(views))
						for i, v := range views {
							out[i] = componentModel{view: v, plan: m.plan}
						}
						return out, nil
					}
					return nil, nil
				},
			},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"health": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return "ok", nil
				},
			},
			"graph": &graphql.Field{
				Type: graphType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{
						Type: graphql.NewNonNull(graphql.ID),
					},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, ok := p.Args["id"].(string)
					if !ok {
						return nil, fmt.Errorf("id argument is required")
					}
					g, plan, ok := src.Lookup(id)
					if !ok {
						return nil, nil
					}
					return graphModel{id: id, g: g, plan: plan}, nil
				},
			},
			"graphs": &graphql.Field{
				Type: graphql.NewList(graphType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					ids := src.IDs()
					out := make([]graphModel, 0, len(ids))
					for _, id := range ids {
						if g, plan, ok := src.Lookup(id); ok {
							out = append(out, graphModel{id: id, g: g, plan: plan})
						}
					}
					return out, nil
				},
			},
			"component": &graphql.Field{
				Type: componentType,
				Args: graphql.FieldConfigArgument{
					"graphId": &graphql.ArgumentConfig{
						Type: graphql.NewNonNull(graphql.ID),
					},
					"name": &graphql.ArgumentConfig{
						Type: graphql.NewNonNull(graphql.String),
					},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					graphID, ok := p.Args["graphId"].(string)
					if !ok {
						return nil, fmt.Errorf("graphId argument is required")
					}
					name, ok := p.Args["name"].(string)
					if !ok {
						return nil, fmt.Errorf("name argument is required")
					}
					g, plan, ok := src.Lookup(graphID)
					if !ok {
						return nil, nil
					}
					view, err := g.Component(name)
					if err != nil {
						return nil, nil
					}
					return componentModel{view: view, plan: plan}, nil
				},
			},
			"plan": &graphql.Field{
				Type: planType,
				Args: graphql.FieldConfigArgument{
					"graphId": &graphql.ArgumentConfig{
						Type: graphql.NewNonNull(graphql.ID),
					},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					graphID, ok := p.Args["graphId"].(string)
					if !ok {
						return nil, fmt.Errorf("graphId argument is required")
					}
					_, plan, ok := src.Lookup(graphID)
					if !ok || plan == nil {
						return nil, nil
					}
					return plan, nil
				},
			},
		},
	})

	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
	if err != nil {
		return graphql.Schema{}, fmt.Errorf("failed to create schema: %w", err)
	}
	return schema, nil
}
