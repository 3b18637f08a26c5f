// In file: internal/tools/hydro.go
package tools

import (
	"context"
	"fmt"

	"github.com/dileep-u-k/waterdata-mcp/internal/nwis"
)

// DataSource is the slice of the NWIS client the tools depend on.
type DataSource interface {
	WhatSites(ctx context.Context, q nwis.SiteQuery) (*nwis.Frame, error)
	GetInfo(ctx context.Context, q nwis.SiteQuery) (*nwis.Frame, error)
	GetSite(ctx context.Context, site string) (*nwis.Frame, error)
	GetDailyValues(ctx context.Context, q nwis.DailyQuery) (*nwis.Frame, error)
	GetInstantaneousValues(ctx context.Context, q nwis.InstantQuery) (*nwis.Frame, error)
	GetStats(ctx context.Context, q nwis.StatsQuery) (*nwis.Frame, error)
	GetDischargePeaks(ctx context.Context, q nwis.RangeQuery) (*nwis.Frame, error)
	GetDischargeMeasurements(ctx context.Context, q nwis.RangeQuery) (*nwis.Frame, error)
	GetGroundwaterLevels(ctx context.Context, q nwis.RangeQuery) (*nwis.Frame, error)
	GetParameterCodes(ctx context.Context, code string) (*nwis.Frame, error)
	GetRatings(ctx context.Context, site, fileType string) (*nwis.Frame, error)
	GetWaterUse(ctx context.Context, q nwis.WaterUseQuery) (*nwis.Frame, error)
	GetRecord(ctx context.Context, service string, q nwis.RecordQuery) (*nwis.Frame, error)
}

var _ DataSource = (*nwis.Client)(nil)

// HydroTools returns one executor per USGS data service.
func HydroTools(src DataSource) []ToolExecutor {
	return []ToolExecutor{
		&SiteDataTool{src: src},
		&DailyValuesTool{src: src},
		&InstantValuesTool{src: src},
		newRangeTool("get_discharge_measurements",
			"Get manual discharge measurements made at one or more USGS streamgages",
			"discharge measurements", src.GetDischargeMeasurements),
		newRangeTool("get_discharge_peaks",
			"Get annual peak streamflow (discharge peaks) for one or more USGS streamgages",
			"discharge peaks", src.GetDischargePeaks),
		newRangeTool("get_gwlevels",
			"Get groundwater level measurements for one or more USGS wells",
			"groundwater level records", src.GetGroundwaterLevels),
		&InfoTool{src: src},
		&ParameterCodesTool{src: src},
		&RatingsTool{src: src},
		&RecordTool{src: src},
		&StatsTool{src: src},
		&WaterUseTool{src: src},
		&WhatSitesTool{src: src},
	}
}

// NewHydroRegistry builds the registry of every USGS tool.
func NewHydroRegistry(src DataSource) (*Registry, error) {
	registry := NewRegistry()
	for _, tool := range HydroTools(src) {
		if err := registry.Register(tool); err != nil {
			return nil, fmt.Errorf("failed to register tool: %w", err)
		}
	}
	return registry, nil
}

// Shared parameter descriptions.
const (
	descSiteCode    = "USGS site code, e.g. '09380000'. Several sites may be given comma-separated."
	descSites       = "USGS site code(s), comma-separated"
	descParameterCd = "USGS parameter code, e.g. '00060' for discharge or '00010' for water temperature"
	descStateCd     = "Two-letter state code, e.g. 'CA'"
	descHUC         = "Hydrologic Unit Code(s), 2 or 8 digits"
	descBBox        = "Bounding box in decimal degrees: west,south,east,north"
	descCountyCd    = "Five-digit FIPS county code(s), comma-separated"
	descSiteType    = "Site type code, e.g. 'ST' for stream, 'GW' for well, 'LK' for lake"
	descStartDate   = "Start date in YYYY-MM-DD format"
	descEndDate     = "End date in YYYY-MM-DD format"
)
