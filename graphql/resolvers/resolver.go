package resolvers

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"remanerp/config"
	"remanerp/core/alerts"
	"remanerp/core/cache"
	gqlmodels "remanerp/graphql/models"
	partRepo "remanerp/model/repository/part"
	stockRepo "remanerp/model/repository/stock"
	acctSvc "remanerp/service/accounting"
	purchaseSvc "remanerp/service/purchase"
	resvSvc "remanerp/service/reservation"
	stockSvc "remanerp/service/stock"
)

// Resolver answers the read-only query surface for one tenant. Constructed
// per request with the org from the request context.
type Resolver struct {
	db    *gorm.DB
	orgID uint
}

func NewResolver(db *gorm.DB, orgID uint) *Resolver {
	return &Resolver{db: db, orgID: orgID}
}

// Part lookups are cached per org under the parts:<org> tag; the stock
// service invalidates the tag whenever a movement commits.
const partCacheTTL = 300

func (r *Resolver) partsTag() string {
	return fmt.Sprintf("parts:%d", r.orgID)
}

func (r *Resolver) Part(ctx context.Context, code string) (*gqlmodels.Part, error) {
	key := []interface{}{"gql:part", r.orgID, code}
	if v, ok := cache.GetInstance().GetN(key...); ok {
		return v.(*gqlmodels.Part), nil
	}
	repo, err := partRepo.NewPartRepository(r.db)
	if err != nil {
		return nil, err
	}
	p, err := repo.FindByCode(r.orgID, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	out := mapPart(p)
	cache.GetInstance().SetN(key, out, partCacheTTL, []string{r.partsTag()})
	return out, nil
}

func (r *Resolver) Parts(ctx context.Context, codePrefix string) ([]*gqlmodels.Part, error) {
	key := []interface{}{"gql:parts", r.orgID, codePrefix}
	if v, ok := cache.GetInstance().GetN(key...); ok {
		return v.([]*gqlmodels.Part), nil
	}
	repo, err := partRepo.NewPartRepository(r.db)
	if err != nil {
		return nil, err
	}
	rows, err := repo.ListActive(r.orgID, codePrefix)
	if err != nil {
		return nil, err
	}
	out := mapParts(rows)
	cache.GetInstance().SetN(key, out, partCacheTTL, []string{r.partsTag()})
	return out, nil
}

func (r *Resolver) LowStockParts(ctx context.Context) ([]*gqlmodels.Part, error) {
	repo, err := partRepo.NewPartRepository(r.db)
	if err != nil {
		return nil, err
	}
	rows, err := repo.ListBelowThreshold(r.orgID, config.Get().LowStockDefault)
	if err != nil {
		return nil, err
	}
	return mapParts(rows), nil
}

func (r *Resolver) Movements(ctx context.Context, f stockRepo.ListFilter) (*gqlmodels.MovementList, error) {
	svc, err := stockSvc.NewService(r.db, alerts.New())
	if err != nil {
		return nil, err
	}
	rows, total, err := svc.ListMovements(ctx, r.orgID, f)
	if err != nil {
		return nil, err
	}
	return &gqlmodels.MovementList{Items: mapMovements(rows), Total: int32(total)}, nil
}

func (r *Resolver) MovementSearch(ctx context.Context, query string, size int) ([]*gqlmodels.Movement, error) {
	svc, err := stockSvc.NewService(r.db, alerts.New())
	if err != nil {
		return nil, err
	}
	rows, err := svc.SearchMovements(ctx, r.orgID, query, size)
	if err != nil {
		return nil, err
	}
	return mapMovements(rows), nil
}

func (r *Resolver) Reservations(ctx context.Context, status string) ([]*gqlmodels.Reservation, error) {
	stock, err := stockSvc.NewService(r.db, alerts.New())
	if err != nil {
		return nil, err
	}
	svc := resvSvc.NewService(r.db, stock, purchaseSvc.NewService(r.db), alerts.New())
	rows, err := svc.List(ctx, r.orgID, status)
	if err != nil {
		return nil, err
	}
	return mapReservations(rows), nil
}

func (r *Resolver) Needs(ctx context.Context, status string) ([]*gqlmodels.Need, error) {
	rows, err := purchaseSvc.NewService(r.db).ListNeeds(ctx, r.orgID, status)
	if err != nil {
		return nil, err
	}
	return mapNeeds(rows), nil
}

func (r *Resolver) AccountingSummary(ctx context.Context) (*gqlmodels.AccountingSummary, error) {
	summary, err := acctSvc.NewService(r.db).Summary(ctx, r.orgID)
	if err != nil {
		return nil, err
	}
	return &gqlmodels.AccountingSummary{
		Draft:       int32(summary.Draft),
		Posted:      int32(summary.Posted),
		Reversed:    int32(summary.Reversed),
		TotalAmount: summary.TotalAmount.String(),
	}, nil
}
