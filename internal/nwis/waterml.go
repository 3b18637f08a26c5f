// In file: internal/nwis/waterml.go
package nwis

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// --- WaterML 1.1 JSON (dv / iv services) ---

type watermlDocument struct {
	Value struct {
		TimeSeries []watermlSeries `json:"timeSeries"`
	} `json:"value"`
}

type watermlSeries struct {
	SourceInfo struct {
		SiteName string `json:"siteName"`
		SiteCode []struct {
			Value string `json:"value"`
		} `json:"siteCode"`
	} `json:"sourceInfo"`
	Variable struct {
		VariableCode []struct {
			Value string `json:"value"`
		} `json:"variableCode"`
		Unit struct {
			UnitCode string `json:"unitCode"`
		} `json:"unit"`
		Options struct {
			Option []struct {
				Name       string `json:"name"`
				OptionCode string `json:"optionCode"`
			} `json:"option"`
		} `json:"options"`
		NoDataValue *float64 `json:"noDataValue"`
	} `json:"variable"`
	Values []struct {
		Value []struct {
			Value      string   `json:"value"`
			Qualifiers []string `json:"qualifiers"`
			DateTime   string   `json:"dateTime"`
		} `json:"value"`
	} `json:"values"`
}

// timeSeriesColumns is the long layout produced for dv and iv answers.
var timeSeriesColumns = []string{"site_no", "parameter_cd", "stat_cd", "unit", "datetime", "value", "qualifiers"}

// ParseWaterML flattens a WaterML JSON document into one row per observation.
// When dateOnly is set the timestamp is cut to YYYY-MM-DD, which is all a daily
// value carries.
func ParseWaterML(r io.Reader, dateOnly bool) (*Frame, error) {
	var doc watermlDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode waterml response: %w", err)
	}

	frame := NewFrame(timeSeriesColumns...)
	for _, ts := range doc.Value.TimeSeries {
		site := ""
		if len(ts.SourceInfo.SiteCode) > 0 {
			site = ts.SourceInfo.SiteCode[0].Value
		}
		param := ""
		if len(ts.Variable.VariableCode) > 0 {
			param = ts.Variable.VariableCode[0].Value
		}
		stat := ""
		for _, opt := range ts.Variable.Options.Option {
			if opt.Name == "Statistic" {
				stat = opt.OptionCode
			}
		}
		noData := ""
		if ts.Variable.NoDataValue != nil {
			noData = strconv.FormatFloat(*ts.Variable.NoDataValue, 'f', -1, 64)
		}

		for _, block := range ts.Values {
			for _, obs := range block.Value {
				value := obs.Value
				if noData != "" && normalizeNumber(value) == noData {
					value = ""
				}
				stamp := obs.DateTime
				if dateOnly && len(stamp) >= 10 {
					stamp = stamp[:10]
				}
				frame.Append([]string{
					site, param, stat, ts.Variable.Unit.UnitCode,
					stamp, value, strings.Join(obs.Qualifiers, ","),
				})
			}
		}
	}
	return frame, nil
}

func normalizeNumber(s string) string {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return s
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
