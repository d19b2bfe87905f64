// Package schema defines the read-only GraphQL view of projects and jobs.
package schema

import (
	"context"
	"maps"
	"slices"

	"github.com/graphql-go/graphql"
	"github.com/simsaas/simsaas/api/rest/service/job"
	"github.com/simsaas/simsaas/api/rest/service/project"
	"github.com/simsaas/simsaas/internal/models"
	"github.com/simsaas/simsaas/pkg/ident"
	"gorm.io/gorm"
)

// New instantiates a GraphQL schema resolving against db.
func New(db *gorm.DB) graphql.SchemaConfig {
	r := &resolver{db: db}

	return graphql.SchemaConfig{
		Query: graphql.NewObject(
			graphql.ObjectConfig{
				Name:   "Query",
				Fields: r.fields(),
			},
		),
	}
}

type resolver struct {
	db *gorm.DB
}

func ctxOf(p graphql.ResolveParams) context.Context {
	if p.Context != nil {
		return p.Context
	}
	return context.Background()
}

func (r *resolver) fields() graphql.Fields {
	return graphql.Fields{
		"projects": &graphql.Field{
			Type: graphql.NewList(projectType),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return project.Service(ctxOf(p), r.db).List()
			},
		},
		"job": &graphql.Field{
			Type: jobType,
			Args: graphql.FieldConfigArgument{
				"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				id, _ := p.Args["id"].(string)
				return job.Service(ctxOf(p), r.db, nil).GetStatus(id)
			},
		},
		"jobs": &graphql.Field{
			Type: graphql.NewList(jobType),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return job.Service(ctxOf(p), r.db, nil).List()
			},
		},
	}
}

func idField(get func(interface{}) int64) *graphql.Field {
	return &graphql.Field{
		Type: graphql.NewNonNull(graphql.String),
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			return ident.Format(get(p.Source)), nil
		},
	}
}

var meshType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Mesh",
	Fields: graphql.Fields{
		"id":         idField(func(s interface{}) int64 { return s.(*models.Mesh).ID }),
		"geometryId": idField(func(s interface{}) int64 { return s.(*models.Mesh).GeometryID }),
		"resolution": &graphql.Field{Type: graphql.Int},
		"createdAt":  &graphql.Field{Type: graphql.DateTime},
	},
})

var geometryType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Geometry",
	Fields: graphql.Fields{
		"id":        idField(func(s interface{}) int64 { return s.(*models.Geometry).ID }),
		"projectId": idField(func(s interface{}) int64 { return s.(*models.Geometry).ProjectID }),
		"fileUrl":   &graphql.Field{Type: graphql.String},
		"createdAt": &graphql.Field{Type: graphql.DateTime},
	},
})

var projectType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Project",
	Fields: graphql.Fields{
		"id":         idField(func(s interface{}) int64 { return s.(*models.Project).ID }),
		"name":       &graphql.Field{Type: graphql.String},
		"createdAt":  &graphql.Field{Type: graphql.DateTime},
		"geometries": &graphql.Field{Type: graphql.NewList(geometryType)},
	},
})

var metricType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Metric",
	Fields: graphql.Fields{
		"name":  &graphql.Field{Type: graphql.String},
		"value": &graphql.Field{Type: graphql.Float},
	},
})

type metric struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

var resultType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Result",
	Fields: graphql.Fields{
		"id":        idField(func(s interface{}) int64 { return s.(*models.Result).ID }),
		"fileUrl":   &graphql.Field{Type: graphql.String},
		"createdAt": &graphql.Field{Type: graphql.DateTime},
		"metrics": &graphql.Field{
			Type: graphql.NewList(metricType),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				m := p.Source.(*models.Result).Metrics.Data()
				out := make([]metric, 0, len(m))
				for _, name := range slices.Sorted(maps.Keys(m)) {
					out = append(out, metric{Name: name, Value: m[name]})
				}
				return out, nil
			},
		},
	},
})

var jobType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Job",
	Fields: graphql.Fields{
		"id":         idField(func(s interface{}) int64 { return s.(*models.Job).ID }),
		"meshId":     idField(func(s interface{}) int64 { return s.(*models.Job).MeshID }),
		"status":     &graphql.Field{Type: graphql.String},
		"createdAt":  &graphql.Field{Type: graphql.DateTime},
		"startedAt":  &graphql.Field{Type: graphql.DateTime},
		"finishedAt": &graphql.Field{Type: graphql.DateTime},
		"mesh":       &graphql.Field{Type: meshType},
		"result":     &graphql.Field{Type: resultType},
	},
})
