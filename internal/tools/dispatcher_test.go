// In file: internal/tools/dispatcher_test.go
package tools_test

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dileep-u-k/waterdata-mcp/internal/nwis/nwistest"
	"github.com/dileep-u-k/waterdata-mcp/internal/tools"
)

type payload struct {
	Status       string     `json:"status"`
	Message      string     `json:"message"`
	ColumnNames  []string   `json:"column_names"`
	Data         [][]string `json:"data"`
	TotalRows    int        `json:"total_rows"`
	ReturnedRows int        `json:"returned_rows"`
	Truncated    bool       `json:"truncated"`
}

func decode(t *testing.T, res tools.ToolResult) payload {
	t.Helper()
	require.True(t, res.Success, res.Error)
	var p payload
	require.NoError(t, json.Unmarshal([]byte(res.Payload), &p))
	return p
}

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) RecordToolCall(_ context.Context, tool string, _ time.Duration, success bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	status := "ok"
	if !success {
		status = "fail"
	}
	r.calls = append(r.calls, tool+":"+status)
}

func newDispatcher(t *testing.T, cfg tools.DispatcherConfig, rec tools.Recorder) *tools.Dispatcher {
	t.Helper()
	srv := nwistest.NewServer()
	t.Cleanup(srv.Close)
	registry, err := tools.NewHydroRegistry(srv.Client())
	require.NoError(t, err)
	return tools.NewDispatcher(registry, cfg, rec)
}

func TestHydroRegistryCatalogue(t *testing.T) {
	d := newDispatcher(t, tools.DispatcherConfig{}, nil)
	require.Equal(t, []string{
		"get_daily_values", "get_discharge_measurements", "get_discharge_peaks", "get_gwlevels",
		"get_info", "get_instantaneous_values", "get_pmcodes", "get_ratings", "get_record",
		"get_site_data", "get_stats", "get_water_use", "what_sites",
	}, d.Registry().Names())

	for _, def := range d.Registry().Definitions() {
		require.Equal(t, "object", def.Function.Parameters.Type, def.Function.Name)
		require.NotEmpty(t, def.Function.Description, def.Function.Name)
		for _, req := range def.Function.Parameters.Required {
			require.Contains(t, def.Function.Parameters.Properties, req, def.Function.Name)
		}
	}
}

func TestDispatchWithoutArgumentsFailsForEveryTool(t *testing.T) {
	d := newDispatcher(t, tools.DispatcherConfig{}, nil)

	for _, name := range d.Registry().Names() {
		t.Run(name, func(t *testing.T) {
			res := d.Dispatch(context.Background(), name, nil)
			require.False(t, res.Success)
			require.Contains(t, res.Error, "invalid argument")
			require.Equal(t, `{"status":"error","message":`, res.Content()[:len(`{"status":"error","message":`)])
		})
	}
}

func TestDispatchDailyValues(t *testing.T) {
	rec := &recorder{}
	d := newDispatcher(t, tools.DispatcherConfig{}, rec)

	res := d.Dispatch(context.Background(), "get_daily_values", map[string]any{
		"site_code":      nwistest.SiteDaily,
		"parameter_code": "00060",
		"start_date":     "2020-01-01",
		"end_date":       "2020-12-31",
	})
	p := decode(t, res)
	require.Equal(t, "success", p.Status)
	require.Equal(t, 3, p.TotalRows)
	require.Equal(t, 3, res.Rows)
	require.False(t, p.Truncated)
	require.Contains(t, p.ColumnNames, "value")
	require.Contains(t, res.Payload, `"236"`)
	require.Equal(t, []string{"get_daily_values:ok"}, rec.calls)
}

func TestDispatchNoMatchesIsExplicitlyEmpty(t *testing.T) {
	d := newDispatcher(t, tools.DispatcherConfig{}, nil)

	res := d.Dispatch(context.Background(), "what_sites", map[string]any{"huc": nwistest.UnknownHUC})
	p := decode(t, res)
	require.Equal(t, 0, p.TotalRows)
	require.NotNil(t, p.Data)
	require.Empty(t, p.Data)
	require.Contains(t, res.Payload, `"data":[]`)
	require.Contains(t, p.Message, "No records found")
}

func TestDispatchWaterUse(t *testing.T) {
	d := newDispatcher(t, tools.DispatcherConfig{}, nil)

	res := d.DispatchJSON(context.Background(), "get_water_use", `{"years":"2015","state":"PA"}`)
	p := decode(t, res)
	require.Equal(t, 1, p.TotalRows)
	require.Contains(t, p.ColumnNames, "Public Supply total self-supplied withdrawals, fresh, in Mgal/d")
	require.NotContains(t, p.ColumnNames, "state_cd")
	require.NotContains(t, p.ColumnNames, "county_nm")
	require.Contains(t, res.Payload, "1433.07")
}

func TestDispatchWaterUseNumericYears(t *testing.T) {
	d := newDispatcher(t, tools.DispatcherConfig{}, nil)

	res := d.DispatchJSON(context.Background(), "get_water_use", `{"years":2015,"state":"PA"}`)
	require.Contains(t, decode(t, res).ColumnNames, "year")
	require.Contains(t, res.Payload, "1433.07")

	res = d.Dispatch(context.Background(), "get_water_use", map[string]any{"years": 2015.0, "state": "PA"})
	require.Contains(t, res.Payload, "1433.07")

	res = d.DispatchJSON(context.Background(), "get_water_use", `{"years":15,"state":"PA"}`)
	require.False(t, res.Success)
	require.Contains(t, res.Error, "four-digit year")

	res = d.DispatchJSON(context.Background(), "get_site_data", `{"site_code":9415000}`)
	require.False(t, res.Success)
	require.Contains(t, res.Error, "expected string")
}

func TestShrinkPayload(t *testing.T) {
	args := map[string]any{"site_code": nwistest.SiteDaily, "start_date": "2020-01-01"}
	full := newDispatcher(t, tools.DispatcherConfig{}, nil).Dispatch(context.Background(), "get_daily_values", args)
	require.True(t, full.Success)

	require.Equal(t, full.Payload, tools.ShrinkPayload(full.Payload, len(full.Payload)))

	limit := len(full.Payload) - 1
	shrunk := tools.ShrinkPayload(full.Payload, limit)
	require.LessOrEqual(t, len(shrunk), limit)
	var p payload
	require.NoError(t, json.Unmarshal([]byte(shrunk), &p))
	require.True(t, p.Truncated)
	require.Equal(t, 3, p.TotalRows)
	require.Less(t, p.ReturnedRows, 3)
	require.Len(t, p.Data, p.ReturnedRows)
	require.Equal(t, decode(t, full).ColumnNames, p.ColumnNames)

	notice := tools.ShrinkPayload(full.Payload, 120)
	require.LessOrEqual(t, len(notice), 120)
	require.Contains(t, notice, `"status":"truncated"`)

	require.Equal(t, `{"status":"truncated"}`, tools.ShrinkPayload(full.Payload, 5))
}

func TestDispatchSiteDropsEmptyColumns(t *testing.T) {
	d := newDispatcher(t, tools.DispatcherConfig{}, nil)

	p := decode(t, d.Dispatch(context.Background(), "get_site_data", map[string]any{"site_code": nwistest.SiteDaily}))
	require.Equal(t, 1, p.TotalRows)
	require.Contains(t, p.ColumnNames, "station_nm")
	require.NotContains(t, p.ColumnNames, "contrib_drain_area_va")

	p = decode(t, d.Dispatch(context.Background(), "what_sites", map[string]any{"stateCd": "AZ"}))
	require.Equal(t, 2, p.TotalRows)
	require.NotContains(t, p.ColumnNames, "alt_acy_va")
}

func TestDispatchFailures(t *testing.T) {
	rec := &recorder{}
	d := newDispatcher(t, tools.DispatcherConfig{}, rec)
	ctx := context.Background()

	tests := []struct {
		name    string
		tool    string
		args    string
		errText string
	}{
		{name: "unknown tool", tool: "get_weather", args: `{}`, errText: "not found"},
		{name: "malformed json", tool: "get_site_data", args: `{"site_code":`, errText: `"arguments"`},
		{name: "bad date", tool: "get_daily_values", args: `{"site_code":"09415000","start_date":"2020/01/01"}`, errText: "YYYY-MM-DD"},
		{name: "reversed window", tool: "get_discharge_peaks", args: `{"sites":"09415000","start":"2021-01-01","end":"2020-01-01"}`, errText: "after end"},
		{name: "enum", tool: "get_ratings", args: `{"site":"09415000","file_type":"full"}`, errText: "must be one of"},
		{name: "bad year", tool: "get_water_use", args: `{"years":"15","state":"PA"}`, errText: "four-digit year"},
		{name: "separator only sites", tool: "get_gwlevels", args: `{"sites":" , "}`, errText: "at least one value"},
		{name: "upstream rejection", tool: "get_site_data", args: `{"site_code":"abc"}`, errText: "status 400"},
		{name: "upstream outage", tool: "get_site_data", args: `{"site_code":"` + nwistest.SiteOutage + `"}`, errText: "status 503"},
		{name: "record without sites", tool: "get_record", args: `{"service":"dv"}`, errText: "required for the dv service"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := d.DispatchJSON(ctx, tt.tool, tt.args)
			require.False(t, res.Success)
			require.Contains(t, res.Error, tt.errText)
			require.Empty(t, res.Payload)
		})
	}
	// The unknown tool is not recorded.
	require.Len(t, rec.calls, len(tests)-1)
	require.NotContains(t, rec.calls, "get_weather:fail")
	for _, call := range rec.calls {
		require.True(t, strings.HasSuffix(call, ":fail"), call)
	}
}

func TestDispatchTruncatesToBudget(t *testing.T) {
	args := map[string]any{"site_code": nwistest.SiteDaily, "start_date": "2020-01-01"}
	full := newDispatcher(t, tools.DispatcherConfig{}, nil).Dispatch(context.Background(), "get_daily_values", args)
	require.True(t, full.Success)

	limit := len(full.Payload) - 1
	d := newDispatcher(t, tools.DispatcherConfig{MaxPayloadChars: limit}, nil)
	res := d.Dispatch(context.Background(), "get_daily_values", args)

	p := decode(t, res)
	require.True(t, res.Truncated)
	require.True(t, p.Truncated)
	require.LessOrEqual(t, len(res.Payload), limit)
	require.Less(t, p.ReturnedRows, 3)
	require.Equal(t, 3, p.TotalRows)
	require.Len(t, p.Data, p.ReturnedRows)
	require.Contains(t, p.Message, "truncated")
}

func TestDispatchMaxRows(t *testing.T) {
	d := newDispatcher(t, tools.DispatcherConfig{MaxRows: 1}, nil)
	p := decode(t, d.Dispatch(context.Background(), "get_ratings", map[string]any{"site": nwistest.SiteDaily}))
	require.Equal(t, 3, p.TotalRows)
	require.Equal(t, 1, p.ReturnedRows)
	require.True(t, p.Truncated)
}

func TestDispatchOverflow(t *testing.T) {
	d := newDispatcher(t, tools.DispatcherConfig{MaxPayloadChars: 50}, nil)
	res := d.Dispatch(context.Background(), "get_site_data", map[string]any{"site_code": nwistest.SiteDaily})
	require.False(t, res.Success)
	require.Contains(t, res.Error, "exceeds the 50 character limit")
}
