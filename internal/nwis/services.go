// In file: internal/nwis/services.go
package nwis

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Service names accepted by GetRecord.
const (
	ServiceSite         = "site"
	ServiceInfo         = "info"
	ServiceDaily        = "dv"
	ServiceInstant      = "iv"
	ServiceStats        = "stat"
	ServicePeaks        = "peaks"
	ServiceMeasurements = "measurements"
	ServiceGWLevels     = "gwlevels"
	ServicePMCodes      = "pmcodes"
	ServiceRatings      = "ratings"
	ServiceWaterUse     = "water_use"
)

// RecordServices lists every service GetRecord understands, sorted.
func RecordServices() []string {
	services := []string{
		ServiceSite, ServiceInfo, ServiceDaily, ServiceInstant, ServiceStats, ServicePeaks,
		ServiceMeasurements, ServiceGWLevels, ServicePMCodes, ServiceRatings, ServiceWaterUse,
	}
	sort.Strings(services)
	return services
}

// RatingFileTypes are the rating table flavours offered by get_ratings.
var RatingFileTypes = []string{"base", "corr", "exsa"}

// =================================================================================
// Site service
// =================================================================================

// WhatSites searches for sites matching the query.
func (c *Client) WhatSites(ctx context.Context, q SiteQuery) (*Frame, error) {
	if !q.HasMajorFilter() {
		return nil, fmt.Errorf("site query requires one of sites, stateCd, huc, bBox or countyCd")
	}
	return c.fetchRDB(ctx, ServiceSite, c.config.WaterServicesURL+"/site/", q.values())
}

// GetInfo returns site descriptions, optionally with the series catalog.
func (c *Client) GetInfo(ctx context.Context, q SiteQuery) (*Frame, error) {
	return c.WhatSites(ctx, q)
}

// GetSite describes a single site.
func (c *Client) GetSite(ctx context.Context, site string) (*Frame, error) {
	return c.WhatSites(ctx, SiteQuery{Sites: []string{site}})
}

// =================================================================================
// Time series
// =================================================================================

// GetDailyValues returns daily values as a long table, one row per day and series.
func (c *Client) GetDailyValues(ctx context.Context, q DailyQuery) (*Frame, error) {
	return c.fetchWaterML(ctx, ServiceDaily, c.config.WaterServicesURL+"/dv/", q.values(), true)
}

// GetInstantaneousValues returns unit values as a long table.
func (c *Client) GetInstantaneousValues(ctx context.Context, q InstantQuery) (*Frame, error) {
	return c.fetchWaterML(ctx, ServiceInstant, c.config.WaterServicesURL+"/iv/", q.values(), false)
}

// GetStats returns statistics from the stat service.
func (c *Client) GetStats(ctx context.Context, q StatsQuery) (*Frame, error) {
	return c.fetchRDB(ctx, ServiceStats, c.config.WaterServicesURL+"/stat/", q.values())
}

// GetGroundwaterLevels returns field groundwater level measurements.
func (c *Client) GetGroundwaterLevels(ctx context.Context, q RangeQuery) (*Frame, error) {
	return c.fetchRDB(ctx, ServiceGWLevels, c.config.WaterServicesURL+"/gwlevels/", q.waterServicesValues())
}

// GetDischargePeaks returns annual peak streamflow.
func (c *Client) GetDischargePeaks(ctx context.Context, q RangeQuery) (*Frame, error) {
	params := q.waterdataValues()
	params.Set("agency_cd", "USGS")
	return c.fetchRDB(ctx, ServicePeaks, c.config.WaterDataURL+"/nwis/peak", params)
}

// GetDischargeMeasurements returns manual field measurements of discharge.
func (c *Client) GetDischargeMeasurements(ctx context.Context, q RangeQuery) (*Frame, error) {
	return c.fetchRDB(ctx, ServiceMeasurements, c.config.WaterDataURL+"/nwis/measurements", q.waterdataValues())
}

// =================================================================================
// Reference tables
// =================================================================================

// GetParameterCodes looks up parameter codes by code or name fragment.
// "all" returns the full table.
func (c *Client) GetParameterCodes(ctx context.Context, code string) (*Frame, error) {
	code = strings.TrimSpace(code)
	if strings.EqualFold(code, "all") {
		params := url.Values{"fmt": {"rdb"}, "group_cd": {"%"}, "inline": {"true"}}
		return c.fetchRDB(ctx, ServicePMCodes, c.config.HelpURL+"/code/parameter_cd_query", params)
	}
	params := url.Values{"fmt": {"rdb"}, "parm_nm_cd": {"%" + code + "%"}, "inline": {"true"}}
	return c.fetchRDB(ctx, ServicePMCodes, c.config.HelpURL+"/code/parameter_cd_nm_query", params)
}

// GetRatings returns the rating table for a streamgage.
func (c *Client) GetRatings(ctx context.Context, site, fileType string) (*Frame, error) {
	if fileType == "" {
		fileType = "base"
	}
	params := url.Values{"site_no": {site}, "file_type": {fileType}}
	return c.fetchRDB(ctx, ServiceRatings, c.config.WaterDataURL+"/nwisweb/get_ratings", params)
}

// GetWaterUse returns the water use compilation for a state, or the national
// totals when no state is given.
func (c *Client) GetWaterUse(ctx context.Context, q WaterUseQuery) (*Frame, error) {
	endpoint := c.config.WaterDataURL + "/nwis/water_use"
	if state := strings.ToLower(strings.TrimSpace(q.State)); state != "" {
		endpoint = c.config.WaterDataURL + "/" + url.PathEscape(state) + "/nwis/water_use"
	}
	return c.fetchRDB(ctx, ServiceWaterUse, endpoint, q.values())
}

// =================================================================================
// Generic access
// =================================================================================

// GetRecord routes a query to the named service.
func (c *Client) GetRecord(ctx context.Context, service string, q RecordQuery) (*Frame, error) {
	siteQuery := SiteQuery{
		Sites: q.Sites, StateCd: q.StateCd, HUC: q.HUC, BBox: q.BBox, CountyCd: q.CountyCd,
		SiteType: q.SiteType, ParameterCd: q.ParameterCd, StartDt: q.Start, EndDt: q.End,
	}
	rangeQuery := RangeQuery{Sites: q.Sites, Start: q.Start, End: q.End}

	switch service {
	case ServiceSite:
		return c.WhatSites(ctx, siteQuery)
	case ServiceInfo:
		siteQuery.SiteOutput = "expanded"
		return c.GetInfo(ctx, siteQuery)
	case ServiceDaily:
		return c.GetDailyValues(ctx, DailyQuery{Sites: q.Sites, ParameterCd: q.ParameterCd, StatCd: q.StatCd, StartDt: q.Start, EndDt: q.End})
	case ServiceInstant:
		return c.GetInstantaneousValues(ctx, InstantQuery{Sites: q.Sites, ParameterCd: q.ParameterCd, StartDt: q.Start, EndDt: q.End})
	case ServiceStats:
		return c.GetStats(ctx, StatsQuery{Sites: q.Sites, ParameterCd: q.ParameterCd, StatReportType: q.StatReportType, StatTypeCd: q.StatTypeCd})
	case ServicePeaks:
		return c.GetDischargePeaks(ctx, rangeQuery)
	case ServiceMeasurements:
		return c.GetDischargeMeasurements(ctx, rangeQuery)
	case ServiceGWLevels:
		return c.GetGroundwaterLevels(ctx, rangeQuery)
	case ServicePMCodes:
		return c.GetParameterCodes(ctx, q.ParameterCd)
	case ServiceRatings:
		if len(q.Sites) != 1 {
			return nil, fmt.Errorf("ratings service takes exactly one site, got %d", len(q.Sites))
		}
		return c.GetRatings(ctx, q.Sites[0], q.FileType)
	case ServiceWaterUse:
		return c.GetWaterUse(ctx, WaterUseQuery{Years: q.Years, State: q.StateCd, Counties: q.Counties, Categories: q.Categories})
	default:
		return nil, fmt.Errorf("unknown nwis service %q (available: %s)", service, strings.Join(RecordServices(), ", "))
	}
}
