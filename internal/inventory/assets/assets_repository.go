package assets

import (
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"

	"github.com/ChrisHK/system-monitor-sub001/internal/repository"
	custom_error "github.com/ChrisHK/system-monitor-sub001/pkg/errors"
	"github.com/ChrisHK/system-monitor-sub001/pkg/models"
)

type AssetsRepository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) *AssetsRepository {
	return &AssetsRepository{
		repository: r,
	}
}

const assetColumns = "id, serialnumber, computername, model, systemsku, operatingsystem, cpu, ram_gb, disks, battery_health, is_current, created_at"

func (r *AssetsRepository) getAssetQuery() *goqu.SelectDataset {
	return r.repository.GoquDBWrapper.
		Select(
			goqu.I("a.id"),
			goqu.I("a.serialnumber"),
			goqu.I("a.computername"),
			goqu.I("a.model"),
			goqu.I("a.systemsku"),
			goqu.I("a.operatingsystem"),
			goqu.I("a.cpu"),
			goqu.I("a.ram_gb"),
			goqu.I("a.disks"),
			goqu.I("a.battery_health"),
			goqu.I("a.is_current"),
			goqu.I("a.created_at"),
		).
		From(goqu.T("system_records").As("a"))
}

func (r *AssetsRepository) GetAsset(id int) (*models.Asset, error) {
	return r.fetchAssetByCondition(goqu.Ex{"a.id": id})
}

func (r *AssetsRepository) GetAssetBySerial(serial string) (*models.Asset, error) {
	return r.fetchAssetByCondition(goqu.Ex{"a.serialnumber": serial})
}

func (r *AssetsRepository) fetchAssetByCondition(condition goqu.Ex) (*models.Asset, error) {
	var asset models.Asset

	found, err := r.getAssetQuery().
		Where(condition, goqu.I("a.is_current").IsTrue()).
		Executor().ScanStruct(&asset)
	if err != nil {
		return nil, fmt.Errorf("unable to select asset from database: %w", err)
	}
	if !found {
		return nil, custom_error.NewNotFoundError("asset", condition)
	}

	return &asset, nil
}

func (r *AssetsRepository) GetAssetList() (*[]models.Asset, error) {
	var assets []models.Asset

	err := r.getAssetQuery().
		Where(goqu.I("a.is_current").IsTrue()).
		Order(goqu.I("a.id").Asc()).
		Executor().ScanStructs(&assets)
	if err != nil {
		return nil, fmt.Errorf("unable to select assets from database: %w", err)
	}

	return &assets, nil
}

func (r *AssetsRepository) GetAssetsBy(conditions repository.QueryBuilder) (*[]models.Asset, error) {
	aliases := map[string]string{
		"model":        "a.model",
		"cpu":          "a.cpu",
		"ram_gb":       "a.ram_gb",
		"serialnumber": "a.serialnumber",
	}

	var assets []models.Asset
	err := r.getAssetQuery().
		Where(conditions.BuildConditions(aliases)).
		Order(goqu.I("a.id").Asc()).
		Executor().ScanStructs(&assets)
	if err != nil {
		return nil, fmt.Errorf("unable to select assets from database: %w", err)
	}

	return &assets, nil
}

// RegisterAsset inserts a ledger row. The serial column carries a unique
// constraint, so a duplicate registration comes back as a Conflict.
func (r *AssetsRepository) RegisterAsset(req models.AssetRequest) (*models.Asset, error) {
	var asset models.Asset

	found, err := r.repository.GoquDBWrapper.
		Insert("system_records").
		Rows(goqu.Record{
			"serialnumber":    req.SerialNumber,
			"computername":    req.ComputerName,
			"model":           req.Model,
			"systemsku":       req.SystemSKU,
			"operatingsystem": req.OperatingSystem,
			"cpu":             req.CPU,
			"ram_gb":          req.RamGB,
			"disks":           pq.StringArray(req.Disks),
			"battery_health":  req.BatteryHealth,
			"is_current":      true,
		}).
		Returning(goqu.L(assetColumns)).
		Executor().ScanStruct(&asset)
	if err != nil {
		return nil, custom_error.WrapPQError(err, fmt.Sprintf("failed to register asset %s", req.SerialNumber))
	}
	if !found {
		return nil, fmt.Errorf("asset insert returned no row")
	}

	return &asset, nil
}
