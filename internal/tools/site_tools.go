// In file: internal/tools/site_tools.go
package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/dileep-u-k/waterdata-mcp/internal/nwis"
)

const majorFilterReason = "at least one of sites, stateCd, huc, bBox or countyCd is required"

// =================================================================================
// get_site_data
// =================================================================================

// SiteDataTool describes a single monitoring site.
type SiteDataTool struct {
	src DataSource
}

var _ ToolExecutor = (*SiteDataTool)(nil)

func (t *SiteDataTool) Definition() Tool {
	return NewFunctionTool(
		"get_site_data",
		"Get information about a specific USGS water monitoring site: name, location, site type, altitude and hydrologic unit",
		objectSchema(map[string]*JSONSchema{
			"site_code": stringParam("USGS site code, e.g. '09380000'"),
		}, "site_code"),
	)
}

func (t *SiteDataTool) Execute(ctx context.Context, args map[string]any) (*Result, error) {
	var in struct {
		SiteCode string `mapstructure:"site_code"`
	}
	if err := decodeArgs("get_site_data", args, &in); err != nil {
		return nil, err
	}
	site := strings.TrimSpace(in.SiteCode)
	frame, err := t.src.GetSite(ctx, site)
	if err != nil {
		return nil, err
	}
	return &Result{Message: fmt.Sprintf("Successfully retrieved data for site %s", site), Frame: frame}, nil
}

// =================================================================================
// what_sites
// =================================================================================

// WhatSitesTool searches for sites within a region.
type WhatSitesTool struct {
	src DataSource
}

var _ ToolExecutor = (*WhatSitesTool)(nil)

func (t *WhatSitesTool) Definition() Tool {
	return NewFunctionTool(
		"what_sites",
		"Search NWIS for monitoring sites within a region (state, county, hydrologic unit or bounding box), optionally filtered by site type and measured parameter",
		objectSchema(map[string]*JSONSchema{
			"stateCd":     stringParam(descStateCd),
			"siteType":    stringParam(descSiteType),
			"county":      stringParam(descCountyCd),
			"huc":         stringParam(descHUC),
			"bBox":        stringParam(descBBox),
			"parameterCd": stringParam(descParameterCd),
		}),
	)
}

func (t *WhatSitesTool) Execute(ctx context.Context, args map[string]any) (*Result, error) {
	var in struct {
		StateCd     string `mapstructure:"stateCd"`
		SiteType    string `mapstructure:"siteType"`
		County      string `mapstructure:"county"`
		HUC         string `mapstructure:"huc"`
		BBox        string `mapstructure:"bBox"`
		ParameterCd string `mapstructure:"parameterCd"`
	}
	if err := decodeArgs("what_sites", args, &in); err != nil {
		return nil, err
	}
	q := nwis.SiteQuery{
		StateCd: in.StateCd, SiteType: in.SiteType, CountyCd: in.County,
		HUC: in.HUC, BBox: in.BBox, ParameterCd: in.ParameterCd,
	}
	if !q.HasMajorFilter() {
		return nil, &ValidationError{Tool: "what_sites", Reason: "at least one of stateCd, county, huc or bBox is required"}
	}
	frame, err := t.src.WhatSites(ctx, q)
	if err != nil {
		return nil, err
	}
	return &Result{Message: fmt.Sprintf("Found %d sites matching the criteria", frame.Len()), Frame: frame}, nil
}

// =================================================================================
// get_info
// =================================================================================

// InfoTool returns site descriptions and, on request, the series catalog.
type InfoTool struct {
	src DataSource
}

var _ ToolExecutor = (*InfoTool)(nil)

func (t *InfoTool) Definition() Tool {
	return NewFunctionTool(
		"get_info",
		"Get site description information from NWIS for sites or a region. Set seriesCatalogOutput to 'true' to list which parameters each site measures and over which period",
		objectSchema(map[string]*JSONSchema{
			"sites":               stringParam(descSites),
			"stateCd":             stringParam(descStateCd),
			"huc":                 stringParam(descHUC),
			"bBox":                stringParam(descBBox),
			"countyCd":            stringParam(descCountyCd),
			"startDt":             stringParam("Only sites with data after this date (YYYY-MM-DD)"),
			"endDt":               stringParam("Only sites with data before this date (YYYY-MM-DD)"),
			"period":              stringParam("Only sites with data in this ISO-8601 period, e.g. 'P7D'"),
			"modifiedSince":       stringParam("Only sites modified within this ISO-8601 period, e.g. 'P1W'"),
			"parameterCd":         stringParam(descParameterCd),
			"siteType":            stringParam(descSiteType),
			"siteOutput":          enumParam("Level of detail of the site listing", []string{"basic", "expanded"}, ""),
			"seriesCatalogOutput": enumParam("Include the series catalog", []string{"true", "false"}, ""),
		}),
	)
}

func (t *InfoTool) Execute(ctx context.Context, args map[string]any) (*Result, error) {
	var in struct {
		Sites               []string `mapstructure:"sites"`
		StateCd             string   `mapstructure:"stateCd"`
		HUC                 string   `mapstructure:"huc"`
		BBox                string   `mapstructure:"bBox"`
		CountyCd            string   `mapstructure:"countyCd"`
		StartDt             string   `mapstructure:"startDt"`
		EndDt               string   `mapstructure:"endDt"`
		Period              string   `mapstructure:"period"`
		ModifiedSince       string   `mapstructure:"modifiedSince"`
		ParameterCd         string   `mapstructure:"parameterCd"`
		SiteType            string   `mapstructure:"siteType"`
		SiteOutput          string   `mapstructure:"siteOutput"`
		SeriesCatalogOutput string   `mapstructure:"seriesCatalogOutput"`
	}
	if err := decodeArgs("get_info", args, &in); err != nil {
		return nil, err
	}
	if err := checkDates("get_info", map[string]string{"startDt": in.StartDt, "endDt": in.EndDt}); err != nil {
		return nil, err
	}
	if err := checkRange("get_info", "startDt", in.StartDt, in.EndDt); err != nil {
		return nil, err
	}

	q := nwis.SiteQuery{
		Sites: cleanList(in.Sites), StateCd: in.StateCd, HUC: in.HUC, BBox: in.BBox, CountyCd: in.CountyCd,
		StartDt: in.StartDt, EndDt: in.EndDt, Period: in.Period, ModifiedSince: in.ModifiedSince,
		ParameterCd: in.ParameterCd, SiteType: in.SiteType, SiteOutput: in.SiteOutput,
	}
	if in.SeriesCatalogOutput == "true" {
		q.SeriesCatalogOutput = "true"
	}
	if !q.HasMajorFilter() {
		return nil, &ValidationError{Tool: "get_info", Reason: majorFilterReason}
	}
	frame, err := t.src.GetInfo(ctx, q)
	if err != nil {
		return nil, err
	}
	return &Result{Message: "Retrieved site information", Frame: frame}, nil
}
