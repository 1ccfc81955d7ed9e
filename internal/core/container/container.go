package container

import (
	"database/sql"
	"time"

	"go.uber.org/zap"

	auditLogRepo "github.com/ChrisHK/system-monitor-sub001/internal/auditlog"
	"github.com/ChrisHK/system-monitor-sub001/internal/inventory/assets"
	"github.com/ChrisHK/system-monitor-sub001/internal/inventory/moves"
	"github.com/ChrisHK/system-monitor-sub001/internal/inventory/orders"
	"github.com/ChrisHK/system-monitor-sub001/internal/inventory/outbound"
	"github.com/ChrisHK/system-monitor-sub001/internal/inventory/registry"
	"github.com/ChrisHK/system-monitor-sub001/internal/inventory/rma"
	"github.com/ChrisHK/system-monitor-sub001/internal/inventory/sales"
	"github.com/ChrisHK/system-monitor-sub001/internal/inventory/stores"
	"github.com/ChrisHK/system-monitor-sub001/internal/repository"
	"github.com/ChrisHK/system-monitor-sub001/internal/users"
	"github.com/ChrisHK/system-monitor-sub001/pkg/auditlog"
	"github.com/ChrisHK/system-monitor-sub001/pkg/notify"
	"github.com/ChrisHK/system-monitor-sub001/pkg/security"
)

type Container struct {
	Repository      *repository.Repository
	AuditLog        *auditlog.Auditlog
	LocationCache   *registry.LocationCache
	LoginHandler    *security.LoginHandler
	AssetHandler    *assets.AssetHandler
	StoreHandler    *stores.StoreHandler
	MoveHandler     *moves.MoveHandler
	OrderHandler    *orders.OrderHandler
	OutboundHandler *outbound.OutboundHandler
	SalesHandler    *sales.SalesHandler
	RMAHandler      *rma.RMAHandler
	RegistryHandler *registry.RegistryHandler
	UserHandler     *users.UsersHandler
}

func NewAppContainer(db *sql.DB, log *zap.Logger) *Container {
	repo := repository.NewRepository(db)
	auditRepo := auditLogRepo.NewRepository(repo)
	audit := auditlog.NewAuditLog(auditRepo, log)
	emitter := notify.NewLogEmitter(log)
	cache := registry.NewCache(registry.DefaultTTL, registry.DefaultSweepInterval, time.Now, log)

	moveRepo := moves.NewRepository(repo)
	moveService := moves.NewService(repo, moveRepo, emitter, cache, audit, log)

	orderRepo := orders.NewRepository(repo)
	orderService := orders.NewService(repo, orderRepo, moveRepo, emitter, cache, audit, log)

	outboundRepo := outbound.NewRepository(repo)
	outboundService := outbound.NewService(repo, outboundRepo, moveRepo, emitter, cache, log)

	salesRepo := sales.NewRepository(repo)
	salesService := sales.NewService(salesRepo, moveService, log)

	rmaRepo := rma.NewRepository(repo)
	rmaService := rma.NewService(rmaRepo, moveService, log)

	locationRepo := registry.NewRepository(repo)
	registryService := registry.NewService(locationRepo, cache, log)

	assetRepo := assets.NewRepository(repo)
	storeRepo := stores.NewRepository(repo)
	userRepo := users.NewRepository(repo)

	return &Container{
		Repository:      repo,
		AuditLog:        audit,
		LocationCache:   cache,
		LoginHandler:    security.NewLoginHandler(repo),
		AssetHandler:    assets.NewHandler(assetRepo, audit),
		StoreHandler:    stores.NewHandler(storeRepo),
		MoveHandler:     moves.NewHandler(moveService),
		OrderHandler:    orders.NewHandler(orderService),
		OutboundHandler: outbound.NewHandler(outboundService),
		SalesHandler:    sales.NewHandler(salesService),
		RMAHandler:      rma.NewHandler(rmaService),
		RegistryHandler: registry.NewHandler(registryService),
		UserHandler:     users.NewHandler(userRepo),
	}
}
