// In file: internal/nwis/queries.go
package nwis

import (
	"net/url"
	"strings"
)

// SiteQuery filters the site service. At least one major filter (Sites,
// StateCd, HUC, BBox, CountyCd) is required by NWIS.
type SiteQuery struct {
	Sites               []string
	StateCd             string
	HUC                 string
	BBox                string
	CountyCd            string
	SiteType            string
	ParameterCd         string
	StartDt             string
	EndDt               string
	Period              string
	ModifiedSince       string
	SiteOutput          string
	SeriesCatalogOutput string
}

// HasMajorFilter reports whether the query names sites or a region.
func (q SiteQuery) HasMajorFilter() bool {
	return len(q.Sites) > 0 || q.StateCd != "" || q.HUC != "" || q.BBox != "" || q.CountyCd != ""
}

func (q SiteQuery) values() url.Values {
	v := url.Values{"format": {"rdb"}}
	setList(v, "sites", q.Sites)
	set(v, "stateCd", q.StateCd)
	set(v, "huc", q.HUC)
	set(v, "bBox", q.BBox)
	set(v, "countyCd", q.CountyCd)
	set(v, "siteType", q.SiteType)
	set(v, "parameterCd", q.ParameterCd)
	set(v, "startDt", q.StartDt)
	set(v, "endDt", q.EndDt)
	set(v, "period", q.Period)
	set(v, "modifiedSince", q.ModifiedSince)
	set(v, "siteOutput", q.SiteOutput)
	if q.SeriesCatalogOutput != "" {
		v.Set("seriesCatalogOutput", q.SeriesCatalogOutput)
		// The series catalog is only offered alongside the expanded listing.
		if v.Get("siteOutput") == "" {
			v.Set("siteOutput", "expanded")
		}
	}
	return v
}

// DailyQuery selects daily values.
type DailyQuery struct {
	Sites       []string
	ParameterCd string
	StatCd      string
	StartDt     string
	EndDt       string
}

func (q DailyQuery) values() url.Values {
	v := url.Values{"format": {"json"}}
	setList(v, "sites", q.Sites)
	set(v, "parameterCd", q.ParameterCd)
	set(v, "statCd", q.StatCd)
	set(v, "startDT", q.StartDt)
	set(v, "endDT", q.EndDt)
	return v
}

// InstantQuery selects instantaneous (unit) values.
type InstantQuery struct {
	Sites       []string
	ParameterCd string
	StartDt     string
	EndDt       string
}

func (q InstantQuery) values() url.Values {
	v := url.Values{"format": {"json"}}
	setList(v, "sites", q.Sites)
	set(v, "parameterCd", q.ParameterCd)
	set(v, "startDT", q.StartDt)
	set(v, "endDT", q.EndDt)
	return v
}

// StatsQuery selects statistics from the stat service.
type StatsQuery struct {
	Sites          []string
	ParameterCd    string
	StatReportType string
	StatTypeCd     string
}

func (q StatsQuery) values() url.Values {
	v := url.Values{"format": {"rdb"}}
	setList(v, "sites", q.Sites)
	set(v, "parameterCd", q.ParameterCd)
	set(v, "statReportType", q.StatReportType)
	set(v, "statTypeCd", q.StatTypeCd)
	return v
}

// RangeQuery is the site list plus date window shared by peaks,
// measurements and groundwater levels.
type RangeQuery struct {
	Sites []string
	Start string
	End   string
}

// waterdataValues builds the legacy nwis.waterdata query, which names a single
// site with site_no and several with multiple_site_no.
func (q RangeQuery) waterdataValues() url.Values {
	v := url.Values{"format": {"rdb"}}
	switch len(q.Sites) {
	case 0:
	case 1:
		v.Set("site_no", q.Sites[0])
	default:
		v.Set("multiple_site_no", strings.Join(q.Sites, ","))
		v.Set("list_of_search_criteria", "multiple_site_no")
	}
	set(v, "begin_date", q.Start)
	set(v, "end_date", q.End)
	return v
}

func (q RangeQuery) waterServicesValues() url.Values {
	v := url.Values{"format": {"rdb"}}
	setList(v, "sites", q.Sites)
	set(v, "startDT", q.Start)
	set(v, "endDT", q.End)
	return v
}

// WaterUseQuery selects the five-year water use compilations.
type WaterUseQuery struct {
	Years      []string
	State      string
	Counties   []string
	Categories []string
}

// IsZero reports whether no filter was given.
func (q WaterUseQuery) IsZero() bool {
	return len(q.Years) == 0 && q.State == "" && len(q.Counties) == 0 && len(q.Categories) == 0
}

func (q WaterUseQuery) values() url.Values {
	v := url.Values{
		"format":          {"rdb"},
		"rdb_compression": {"value"},
		"wu_year":         {listOrAll(q.Years)},
		"wu_category":     {listOrAll(q.Categories)},
	}
	if len(q.Counties) > 0 {
		v.Set("wu_area", "County")
		v.Set("wu_county", strings.Join(q.Counties, ","))
	} else {
		v.Set("wu_area", "State Total")
	}
	return v
}

// RecordQuery is the union of every service's filters, used by GetRecord.
type RecordQuery struct {
	Sites          []string
	StateCd        string
	HUC            string
	BBox           string
	CountyCd       string
	SiteType       string
	ParameterCd    string
	StatCd         string
	Start          string
	End            string
	StatReportType string
	StatTypeCd     string
	FileType       string
	Years          []string
	Counties       []string
	Categories     []string
}

// --- Helpers ---

func set(v url.Values, key, value string) {
	if value = strings.TrimSpace(value); value != "" {
		v.Set(key, value)
	}
}

func setList(v url.Values, key string, values []string) {
	if len(values) > 0 {
		v.Set(key, strings.Join(values, ","))
	}
}

func listOrAll(values []string) string {
	if len(values) == 0 {
		return "ALL"
	}
	return strings.Join(values, ",")
}
