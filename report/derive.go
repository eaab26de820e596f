package report

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"Crediflexi/internal/config"
)

// LinkColumnHeader is the derived hyperlink column inserted beside the
// geolocation column.
const LinkColumnHeader = "Link de Geolocalización"

// ParColumnHeader is the derived risk-bucket column inserted beside the
// delinquency-days column.
const ParColumnHeader = "PAR"

const mapsLinkText = "Ver en mapa"

// ParBucket assigns the categorical risk label for a delinquency-day
// count. Total and deterministic over all integers; negative and zero
// days are current accounts.
func ParBucket(days int, breakpoints []config.ParBreakpoint, overflow string) string {
	for _, bp := range breakpoints {
		if days <= bp.MaxDays {
			return bp.Label
		}
	}
	return overflow
}

var dmsPattern = regexp.MustCompile(`(\d+)°(\d+)'([\d.]+)"([NS])\s+(\d+)°(\d+)'([\d.]+)"([WE])`)

func dmsToDecimal(deg, min, sec string, dir string) float64 {
	d, _ := strconv.ParseFloat(deg, 64)
	m, _ := strconv.ParseFloat(min, 64)
	s, _ := strconv.ParseFloat(sec, 64)
	v := d + m/60 + s/3600
	if dir == "S" || dir == "W" {
		v = -v
	}
	return v
}

// MapsLink translates whatever the geolocation column holds into a maps
// hyperlink. Three shapes appear upstream: an existing URL (passed
// through), DMS GPS coordinates (converted to a decimal query), or a
// free-text address (percent-encoded search). Empty input produces no
// link at all.
func MapsLink(geolocation string) (text, link string) {
	geolocation = strings.TrimSpace(geolocation)
	if geolocation == "" {
		return "", ""
	}
	if strings.Contains(geolocation, "http") || strings.Contains(geolocation, "google.com/maps") {
		return mapsLinkText, geolocation
	}
	if m := dmsPattern.FindStringSubmatch(geolocation); m != nil {
		lat := dmsToDecimal(m[1], m[2], m[3], m[4])
		lon := dmsToDecimal(m[5], m[6], m[7], m[8])
		return mapsLinkText, fmt.Sprintf("https://www.google.com/maps/search/?api=1&query=%.4f,%.4f", lat, lon)
	}
	return mapsLinkText, "https://www.google.com/maps/search/?api=1&query=" + url.QueryEscape(geolocation)
}

// Enrich computes the derived fields over a cleaned, fraud-filtered
// dataset: the PAR bucket column (repositioned next to the delinquency
// column, replacing any PAR column the upload carried), the geolocation
// link column, and the collaborator flag. Records with unparseable
// delinquency days keep an empty PAR cell; they stay in the full dataset
// and are excluded from PAR-dependent sheets by the partitioner.
func Enrich(ds *Dataset, cfg config.ReportConfig) {
	collaborators := make(map[string]bool, len(cfg.CollaboratorCodes))
	for _, c := range cfg.CollaboratorCodes {
		collaborators[NormalizeCode(c, config.CodeWidth)] = true
	}

	for _, r := range ds.Rows {
		if r.MoraKnown {
			r.Par = ParBucket(r.MoraDays, cfg.ParBreakpoints, cfg.ParOverflowLabel)
		}
		r.LinkText, r.LinkURL = MapsLink(r.Geolocation)
		r.Collaborator = collaborators[r.Code]
	}

	// The PAR column is always derived: any source PAR column (already
	// collapsed to one by the cleaner) is replaced in place, otherwise a
	// fresh column lands right after the delinquency days.
	if parCol := ds.Col(config.FieldPar); parCol >= 0 {
		ds.Headers[parCol] = ParColumnHeader
		for _, r := range ds.Rows {
			r.Cells[parCol] = r.Par
		}
	} else {
		ds.insertColumn(ds.Col(config.FieldMora)+1, ParColumnHeader, func(r *Row) string {
			return r.Par
		})
		ds.Fields[config.FieldPar] = ds.Col(config.FieldMora) + 1
	}

	if geoCol := ds.Col(config.FieldGeolocation); geoCol >= 0 {
		ds.insertColumn(geoCol+1, LinkColumnHeader, func(r *Row) string {
			return r.LinkText
		})
	}
}
