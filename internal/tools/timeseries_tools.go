// In file: internal/tools/timeseries_tools.go
package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/dileep-u-k/waterdata-mcp/internal/nwis"
)

// =================================================================================
// get_daily_values
// =================================================================================

// DailyValuesTool returns daily statistics (mean, min, max) of a time series.
type DailyValuesTool struct {
	src DataSource
}

var _ ToolExecutor = (*DailyValuesTool)(nil)

func (t *DailyValuesTool) Definition() Tool {
	return NewFunctionTool(
		"get_daily_values",
		"Get daily values of water data, such as mean daily discharge, for a USGS site. Without dates only the most recent value is returned",
		objectSchema(map[string]*JSONSchema{
			"site_code":      stringParam(descSiteCode),
			"parameter_code": stringParam(descParameterCd),
			"statCd":         stringParam("USGS statistic code, e.g. '00003' for mean, '00001' for maximum, '00002' for minimum"),
			"start_date":     stringParam(descStartDate),
			"end_date":       stringParam(descEndDate),
		}, "site_code"),
	)
}

func (t *DailyValuesTool) Execute(ctx context.Context, args map[string]any) (*Result, error) {
	var in struct {
		SiteCode      []string `mapstructure:"site_code"`
		ParameterCode string   `mapstructure:"parameter_code"`
		StatCd        string   `mapstructure:"statCd"`
		StartDate     string   `mapstructure:"start_date"`
		EndDate       string   `mapstructure:"end_date"`
	}
	if err := decodeArgs("get_daily_values", args, &in); err != nil {
		return nil, err
	}
	if err := checkDates("get_daily_values", map[string]string{"start_date": in.StartDate, "end_date": in.EndDate}); err != nil {
		return nil, err
	}
	if err := checkRange("get_daily_values", "start_date", in.StartDate, in.EndDate); err != nil {
		return nil, err
	}

	sites := cleanList(in.SiteCode)
	if err := requireList("get_daily_values", "site_code", sites); err != nil {
		return nil, err
	}
	frame, err := t.src.GetDailyValues(ctx, nwis.DailyQuery{
		Sites: sites, ParameterCd: in.ParameterCode, StatCd: in.StatCd,
		StartDt: in.StartDate, EndDt: in.EndDate,
	})
	if err != nil {
		return nil, err
	}
	return &Result{
		Message: fmt.Sprintf("Successfully retrieved daily values for site %s", strings.Join(sites, ",")),
		Frame:   frame,
	}, nil
}

// =================================================================================
// get_instantaneous_values
// =================================================================================

// InstantValuesTool returns the sub-daily readings of a sensor.
type InstantValuesTool struct {
	src DataSource
}

var _ ToolExecutor = (*InstantValuesTool)(nil)

func (t *InstantValuesTool) Definition() Tool {
	return NewFunctionTool(
		"get_instantaneous_values",
		"Get instantaneous (typically 15-minute) values of water data for a USGS site. Without dates only the most recent reading is returned",
		objectSchema(map[string]*JSONSchema{
			"site_code":      stringParam(descSiteCode),
			"parameter_code": stringParam(descParameterCd),
			"start_date":     stringParam(descStartDate),
			"end_date":       stringParam(descEndDate),
		}, "site_code", "parameter_code"),
	)
}

func (t *InstantValuesTool) Execute(ctx context.Context, args map[string]any) (*Result, error) {
	var in struct {
		SiteCode      []string `mapstructure:"site_code"`
		ParameterCode string   `mapstructure:"parameter_code"`
		StartDate     string   `mapstructure:"start_date"`
		EndDate       string   `mapstructure:"end_date"`
	}
	if err := decodeArgs("get_instantaneous_values", args, &in); err != nil {
		return nil, err
	}
	if err := checkDates("get_instantaneous_values", map[string]string{"start_date": in.StartDate, "end_date": in.EndDate}); err != nil {
		return nil, err
	}
	if err := checkRange("get_instantaneous_values", "start_date", in.StartDate, in.EndDate); err != nil {
		return nil, err
	}

	sites := cleanList(in.SiteCode)
	if err := requireList("get_instantaneous_values", "site_code", sites); err != nil {
		return nil, err
	}
	frame, err := t.src.GetInstantaneousValues(ctx, nwis.InstantQuery{
		Sites: sites, ParameterCd: in.ParameterCode, StartDt: in.StartDate, EndDt: in.EndDate,
	})
	if err != nil {
		return nil, err
	}
	return &Result{
		Message: fmt.Sprintf("Successfully retrieved instantaneous values for site %s", strings.Join(sites, ",")),
		Frame:   frame,
	}, nil
}

// =================================================================================
// get_stats
// =================================================================================

// StatsTool returns long-term statistics computed by the stat service.
type StatsTool struct {
	src DataSource
}

var _ ToolExecutor = (*StatsTool)(nil)

func (t *StatsTool) Definition() Tool {
	return NewFunctionTool(
		"get_stats",
		"Get long-term daily, monthly or annual statistics (mean, percentiles) for USGS sites",
		objectSchema(map[string]*JSONSchema{
			"sites":          stringParam(descSites),
			"parameterCd":    stringParam(descParameterCd),
			"statReportType": enumParam("Type of statistical report", []string{"daily", "monthly", "annual"}, "daily"),
			"statTypeCd":     stringParam("Statistic type(s), e.g. 'mean', 'median', 'p10', 'all'"),
		}, "sites"),
	)
}

func (t *StatsTool) Execute(ctx context.Context, args map[string]any) (*Result, error) {
	var in struct {
		Sites          []string `mapstructure:"sites"`
		ParameterCd    string   `mapstructure:"parameterCd"`
		StatReportType string   `mapstructure:"statReportType"`
		StatTypeCd     string   `mapstructure:"statTypeCd"`
	}
	if err := decodeArgs("get_stats", args, &in); err != nil {
		return nil, err
	}
	sites := cleanList(in.Sites)
	if err := requireList("get_stats", "sites", sites); err != nil {
		return nil, err
	}
	frame, err := t.src.GetStats(ctx, nwis.StatsQuery{
		Sites: sites, ParameterCd: in.ParameterCd,
		StatReportType: in.StatReportType, StatTypeCd: in.StatTypeCd,
	})
	if err != nil {
		return nil, err
	}
	return &Result{Message: "Retrieved statistical data", Frame: frame}, nil
}

// =================================================================================
// get_discharge_measurements, get_discharge_peaks, get_gwlevels
// =================================================================================

// RangeTool is a tool over a site list and an optional date window.
type RangeTool struct {
	name  string
	desc  string
	noun  string
	fetch func(context.Context, nwis.RangeQuery) (*nwis.Frame, error)
}

var _ ToolExecutor = (*RangeTool)(nil)

func newRangeTool(name, desc, noun string, fetch func(context.Context, nwis.RangeQuery) (*nwis.Frame, error)) *RangeTool {
	return &RangeTool{name: name, desc: desc, noun: noun, fetch: fetch}
}

func (t *RangeTool) Definition() Tool {
	return NewFunctionTool(t.name, t.desc, objectSchema(map[string]*JSONSchema{
		"sites": stringParam(descSites),
		"start": stringParam(descStartDate),
		"end":   stringParam(descEndDate),
	}, "sites"))
}

func (t *RangeTool) Execute(ctx context.Context, args map[string]any) (*Result, error) {
	var in struct {
		Sites []string `mapstructure:"sites"`
		Start string   `mapstructure:"start"`
		End   string   `mapstructure:"end"`
	}
	if err := decodeArgs(t.name, args, &in); err != nil {
		return nil, err
	}
	if err := checkDates(t.name, map[string]string{"start": in.Start, "end": in.End}); err != nil {
		return nil, err
	}
	if err := checkRange(t.name, "start", in.Start, in.End); err != nil {
		return nil, err
	}
	sites := cleanList(in.Sites)
	if err := requireList(t.name, "sites", sites); err != nil {
		return nil, err
	}
	frame, err := t.fetch(ctx, nwis.RangeQuery{Sites: sites, Start: in.Start, End: in.End})
	if err != nil {
		return nil, err
	}
	return &Result{Message: fmt.Sprintf("Retrieved %d %s", frame.Len(), t.noun), Frame: frame}, nil
}
