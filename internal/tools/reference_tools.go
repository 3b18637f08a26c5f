// In file: internal/tools/reference_tools.go
package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/dileep-u-k/waterdata-mcp/internal/nwis"
)

// =================================================================================
// get_pmcodes
// =================================================================================

// ParameterCodesTool looks up parameter codes.
type ParameterCodesTool struct {
	src DataSource
}

var _ ToolExecutor = (*ParameterCodesTool)(nil)

func (t *ParameterCodesTool) Definition() Tool {
	return NewFunctionTool(
		"get_pmcodes",
		"Look up NWIS parameter codes by code or by a fragment of the parameter name (e.g. 'discharge', 'temperature')",
		objectSchema(map[string]*JSONSchema{
			"parameterCd": stringParam("Parameter code or name fragment to search for, e.g. '00060' or 'nitrate'"),
		}, "parameterCd"),
	)
}

func (t *ParameterCodesTool) Execute(ctx context.Context, args map[string]any) (*Result, error) {
	var in struct {
		ParameterCd string `mapstructure:"parameterCd"`
	}
	if err := decodeArgs("get_pmcodes", args, &in); err != nil {
		return nil, err
	}
	frame, err := t.src.GetParameterCodes(ctx, in.ParameterCd)
	if err != nil {
		return nil, err
	}
	return &Result{Message: fmt.Sprintf("Retrieved %d parameter codes", frame.Len()), Frame: frame}, nil
}

// =================================================================================
// get_ratings
// =================================================================================

// RatingsTool returns the stage-discharge rating table of a streamgage.
type RatingsTool struct {
	src DataSource
}

var _ ToolExecutor = (*RatingsTool)(nil)

func (t *RatingsTool) Definition() Tool {
	return NewFunctionTool(
		"get_ratings",
		"Get the rating table (stage to discharge relation) for an active USGS streamgage",
		objectSchema(map[string]*JSONSchema{
			"site":      stringParam("USGS site code"),
			"file_type": enumParam("Rating file type: base table, shift corrections or expanded shift-adjusted table", nwis.RatingFileTypes, "base"),
		}, "site"),
	)
}

func (t *RatingsTool) Execute(ctx context.Context, args map[string]any) (*Result, error) {
	in := struct {
		Site     string `mapstructure:"site"`
		FileType string `mapstructure:"file_type"`
	}{FileType: "base"}
	if err := decodeArgs("get_ratings", args, &in); err != nil {
		return nil, err
	}
	site := strings.TrimSpace(in.Site)
	frame, err := t.src.GetRatings(ctx, site, in.FileType)
	if err != nil {
		return nil, err
	}
	return &Result{Message: fmt.Sprintf("Retrieved %d rating records for site %s", frame.Len(), site), Frame: frame}, nil
}

// =================================================================================
// get_water_use
// =================================================================================

// WaterUseTool returns the five-yearly water use compilations.
type WaterUseTool struct {
	src DataSource
}

var _ ToolExecutor = (*WaterUseTool)(nil)

func (t *WaterUseTool) Definition() Tool {
	return NewFunctionTool(
		"get_water_use",
		"Get water use data from USGS NWIS: withdrawals and population served by category (public supply, irrigation, thermoelectric...) for a state or its counties. Data exist for every fifth year from 1985 to 2015",
		objectSchema(map[string]*JSONSchema{
			"years":      yearsParam("Year(s) to retrieve, comma-separated, e.g. '2010,2015'"),
			"state":      stringParam(descStateCd),
			"counties":   stringParam("Three-digit county code(s) within the state, comma-separated"),
			"categories": stringParam("Water use category code(s), e.g. 'PS' public supply, 'IR' irrigation, 'TP' thermoelectric"),
		}),
	)
}

func (t *WaterUseTool) Execute(ctx context.Context, args map[string]any) (*Result, error) {
	var in struct {
		Years      []string `mapstructure:"years"`
		State      string   `mapstructure:"state"`
		Counties   []string `mapstructure:"counties"`
		Categories []string `mapstructure:"categories"`
	}
	if err := decodeArgs("get_water_use", args, &in); err != nil {
		return nil, err
	}
	q := nwis.WaterUseQuery{
		Years: cleanList(in.Years), State: strings.TrimSpace(in.State),
		Counties: cleanList(in.Counties), Categories: cleanList(in.Categories),
	}
	if q.IsZero() {
		return nil, &ValidationError{Tool: "get_water_use", Reason: "at least one of years, state, counties or categories is required"}
	}
	if len(q.Counties) > 0 && q.State == "" {
		return nil, &ValidationError{Tool: "get_water_use", Field: "counties", Reason: "counties require a state"}
	}
	if err := checkYears("get_water_use", q.Years); err != nil {
		return nil, err
	}

	frame, err := t.src.GetWaterUse(ctx, q)
	if err != nil {
		return nil, err
	}
	return &Result{Message: "Retrieved water use data", Frame: frame.DropColumns("state_cd", "county_cd")}, nil
}

// =================================================================================
// get_record
// =================================================================================

// RecordTool is the generic entry point that routes to any NWIS service.
type RecordTool struct {
	src DataSource
}

var _ ToolExecutor = (*RecordTool)(nil)

func (t *RecordTool) Definition() Tool {
	return NewFunctionTool(
		"get_record",
		"Get data from any NWIS service by name. Prefer the dedicated tools; use this when a service has no dedicated tool or several filters must be combined",
		objectSchema(map[string]*JSONSchema{
			"service":        enumParam("NWIS service to query", nwis.RecordServices(), ""),
			"sites":          stringParam(descSites),
			"start":          stringParam(descStartDate),
			"end":            stringParam(descEndDate),
			"parameterCd":    stringParam(descParameterCd),
			"statCd":         stringParam("Statistic code for the dv service"),
			"stateCd":        stringParam(descStateCd),
			"huc":            stringParam(descHUC),
			"bBox":           stringParam(descBBox),
			"countyCd":       stringParam(descCountyCd),
			"siteType":       stringParam(descSiteType),
			"statReportType": enumParam("Report type for the stat service", []string{"daily", "monthly", "annual"}, ""),
			"statTypeCd":     stringParam("Statistic type(s) for the stat service"),
			"file_type":      enumParam("Rating file type for the ratings service", nwis.RatingFileTypes, ""),
			"years":          yearsParam("Year(s) for the water_use service"),
			"counties":       stringParam("County code(s) for the water_use service"),
			"categories":     stringParam("Category code(s) for the water_use service"),
		}, "service"),
	)
}

func (t *RecordTool) Execute(ctx context.Context, args map[string]any) (*Result, error) {
	var in struct {
		Service        string   `mapstructure:"service"`
		Sites          []string `mapstructure:"sites"`
		Start          string   `mapstructure:"start"`
		End            string   `mapstructure:"end"`
		ParameterCd    string   `mapstructure:"parameterCd"`
		StatCd         string   `mapstructure:"statCd"`
		StateCd        string   `mapstructure:"stateCd"`
		HUC            string   `mapstructure:"huc"`
		BBox           string   `mapstructure:"bBox"`
		CountyCd       string   `mapstructure:"countyCd"`
		SiteType       string   `mapstructure:"siteType"`
		StatReportType string   `mapstructure:"statReportType"`
		StatTypeCd     string   `mapstructure:"statTypeCd"`
		FileType       string   `mapstructure:"file_type"`
		Years          []string `mapstructure:"years"`
		Counties       []string `mapstructure:"counties"`
		Categories     []string `mapstructure:"categories"`
	}
	if err := decodeArgs("get_record", args, &in); err != nil {
		return nil, err
	}
	if err := checkDates("get_record", map[string]string{"start": in.Start, "end": in.End}); err != nil {
		return nil, err
	}
	if err := checkRange("get_record", "start", in.Start, in.End); err != nil {
		return nil, err
	}

	q := nwis.RecordQuery{
		Sites: cleanList(in.Sites), StateCd: in.StateCd, HUC: in.HUC, BBox: in.BBox, CountyCd: in.CountyCd,
		SiteType: in.SiteType, ParameterCd: in.ParameterCd, StatCd: in.StatCd, Start: in.Start, End: in.End,
		StatReportType: in.StatReportType, StatTypeCd: in.StatTypeCd, FileType: in.FileType,
		Years: cleanList(in.Years), Counties: cleanList(in.Counties), Categories: cleanList(in.Categories),
	}
	if err := checkRecordQuery(in.Service, q); err != nil {
		return nil, err
	}

	frame, err := t.src.GetRecord(ctx, in.Service, q)
	if err != nil {
		return nil, err
	}
	if in.Service == nwis.ServiceWaterUse {
		frame = frame.DropColumns("state_cd", "county_cd")
	}
	return &Result{Message: fmt.Sprintf("Retrieved %d records from the %s service", frame.Len(), in.Service), Frame: frame}, nil
}

// checkRecordQuery applies each service's own required filters.
func checkRecordQuery(service string, q nwis.RecordQuery) error {
	fail := func(field, reason string) error {
		return &ValidationError{Tool: "get_record", Field: field, Reason: reason}
	}
	switch service {
	case nwis.ServiceSite, nwis.ServiceInfo:
		if len(q.Sites) == 0 && q.StateCd == "" && q.HUC == "" && q.BBox == "" && q.CountyCd == "" {
			return fail("", majorFilterReason+" for the "+service+" service")
		}
	case nwis.ServiceRatings:
		if len(q.Sites) != 1 {
			return fail("sites", "the ratings service takes exactly one site")
		}
	case nwis.ServicePMCodes:
		if strings.TrimSpace(q.ParameterCd) == "" {
			return fail("parameterCd", "is required for the pmcodes service")
		}
	case nwis.ServiceWaterUse:
		if len(q.Years) == 0 && q.StateCd == "" && len(q.Counties) == 0 && len(q.Categories) == 0 {
			return fail("", "at least one of years, stateCd, counties or categories is required for the water_use service")
		}
		return checkYears("get_record", q.Years)
	default:
		if len(q.Sites) == 0 {
			return fail("sites", "is required for the "+service+" service")
		}
	}
	return nil
}
