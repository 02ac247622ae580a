package graphqlserver

import (
	"context"
	"encoding/json"

	gql "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"
	"gorm.io/gorm"

	"remanerp/graphql"
	gqlmodels "remanerp/graphql/models"
	"remanerp/graphql/registry"
	"remanerp/graphql/resolvers"
	stockRepo "remanerp/model/repository/stock"
)

// RootResolver is the root for graphql-go. Query resolvers are created per
// request with the tenant taken from the request context.
type RootResolver struct {
	DB *gorm.DB
}

// Query returns the query resolver.
func (r *RootResolver) Query() *QueryResolver {
	return &QueryResolver{db: r.DB}
}

// QueryResolver implements Query fields. Delegates to the resolvers package.
type QueryResolver struct {
	db *gorm.DB
}

func (r *QueryResolver) resolver(ctx context.Context) *resolvers.Resolver {
	return resolvers.NewResolver(r.db, graphql.OrgIDFromContext(ctx))
}

type PartArgs struct {
	Code string
}

func (r *QueryResolver) Part(ctx context.Context, args PartArgs) (*gqlmodels.Part, error) {
	return r.resolver(ctx).Part(ctx, args.Code)
}

type PartsArgs struct {
	CodePrefix *string
}

func (r *QueryResolver) Parts(ctx context.Context, args PartsArgs) ([]*gqlmodels.Part, error) {
	prefix := ""
	if args.CodePrefix != nil {
		prefix = *args.CodePrefix
	}
	return r.resolver(ctx).Parts(ctx, prefix)
}

func (r *QueryResolver) LowStockParts(ctx context.Context) ([]*gqlmodels.Part, error) {
	return r.resolver(ctx).LowStockParts(ctx)
}

// MovementsArgs matches the movements query (defaults in schema: pageSize=20, currentPage=1).
type MovementsArgs struct {
	PartID      *int32
	Type        *string
	PageSize    int32
	CurrentPage int32
}

func (r *QueryResolver) Movements(ctx context.Context, args MovementsArgs) (*gqlmodels.MovementList, error) {
	filter := stockRepo.ListFilter{
		Page:     int(args.CurrentPage),
		PageSize: int(args.PageSize),
	}
	if args.PartID != nil {
		filter.PartID = uint(*args.PartID)
	}
	if args.Type != nil {
		filter.Type = *args.Type
	}
	return r.resolver(ctx).Movements(ctx, filter)
}

// MovementSearchArgs matches the movementSearch query (default size=20).
type MovementSearchArgs struct {
	Query string
	Size  int32
}

func (r *QueryResolver) MovementSearch(ctx context.Context, args MovementSearchArgs) ([]*gqlmodels.Movement, error) {
	return r.resolver(ctx).MovementSearch(ctx, args.Query, int(args.Size))
}

type StatusArgs struct {
	Status *string
}

func (r *QueryResolver) Reservations(ctx context.Context, args StatusArgs) ([]*gqlmodels.Reservation, error) {
	status := ""
	if args.Status != nil {
		status = *args.Status
	}
	return r.resolver(ctx).Reservations(ctx, status)
}

func (r *QueryResolver) Needs(ctx context.Context, args StatusArgs) ([]*gqlmodels.Need, error) {
	status := ""
	if args.Status != nil {
		status = *args.Status
	}
	return r.resolver(ctx).Needs(ctx, status)
}

func (r *QueryResolver) AccountingSummary(ctx context.Context) (*gqlmodels.AccountingSummary, error) {
	return r.resolver(ctx).AccountingSummary(ctx)
}

// ExtensionArgs for _extension(name, args).
type ExtensionArgs struct {
	Name string
	Args *string
}

func (r *QueryResolver) Extension(ctx context.Context, args ExtensionArgs) (*string, error) {
	var m map[string]interface{}
	if args.Args != nil && *args.Args != "" {
		_ = json.Unmarshal([]byte(*args.Args), &m)
	}
	if m == nil {
		m = make(map[string]interface{})
	}
	out, err := registry.Resolve(ctx, args.Name, m)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}

// NewSchema parses the schema and returns a graphql-go Schema.
func NewSchema(db *gorm.DB) (*gql.Schema, error) {
	return gql.ParseSchema(graphql.Schema(), &RootResolver{DB: db}, gql.UseFieldResolvers())
}

// Handler returns an http.Handler for GraphQL (relay format).
func Handler(schema *gql.Schema) *relay.Handler {
	return &relay.Handler{Schema: schema}
}
