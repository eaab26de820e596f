package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	DefaultUploadFolder = "uploads"
	DefaultLogFolder    = "./logs"
	MaxFileSize         = 16 * 1024 * 1024 // 16MB per uploaded spreadsheet

	DefaultRetentionDays     = 30
	DefaultRetentionSchedule = "0 3 * * *"

	CodeWidth  = 6  // account codes are zero-padded to 6 digits
	PhoneWidth = 10 // canonical phone length
)

// ParBreakpoint maps an upper bound of delinquency days (inclusive) to a
// bucket label. Days above every bound fall into ParOverflowLabel.
type ParBreakpoint struct {
	MaxDays int    `yaml:"max_days"`
	Label   string `yaml:"label"`
}

// ExcelStyle carries the presentation parameters consumed by the renderer.
type ExcelStyle struct {
	TableStyle     string  `yaml:"table_style"`
	HeaderHeight   float64 `yaml:"header_height"`
	FreezePanes    string  `yaml:"freeze_panes"`
	MaxColumnWidth float64 `yaml:"max_column_width"`
	CurrencyFormat string  `yaml:"currency_format"`
	DateFormat     string  `yaml:"date_format"`

	LightBlue  string `yaml:"light_blue"`
	Green      string `yaml:"green"`
	Blue       string `yaml:"blue"`
	LightGreen string `yaml:"light_green"`
}

// TrackingBlock is one of the appended manual-entry column groups on the
// delinquency sheet.
type TrackingBlock struct {
	Title   string   `yaml:"title"`
	Fill    string   `yaml:"fill"`
	Headers []string `yaml:"headers"`
}

// ReportConfig is the full configuration consumed by one pipeline run.
// Read-only for the run's duration; callers load it once and pass it by
// value into the entry points.
type ReportConfig struct {
	FraudCodes        []string            `yaml:"fraud_codes"`
	CollaboratorCodes []string            `yaml:"collaborator_codes"`
	ColumnAliases     map[string][]string `yaml:"column_aliases"`
	ParBreakpoints    []ParBreakpoint     `yaml:"par_breakpoints"`
	ParOverflowLabel  string              `yaml:"par_overflow_label"`
	CurrencyKeywords  []string            `yaml:"currency_keywords"`
	DateKeywords      []string            `yaml:"date_keywords"`
	Style             ExcelStyle          `yaml:"style"`
	CallCenterBlock   TrackingBlock       `yaml:"call_center_block"`
	FieldBlock        TrackingBlock       `yaml:"field_block"`
	MoraBlueColumns   []string            `yaml:"mora_blue_columns"`
}

// Canonical field names resolved from spreadsheet headers.
const (
	FieldCode         = "codigo"
	FieldMora         = "mora"
	FieldCoordination = "coordinacion"
	FieldGeolocation  = "geolocalizacion"
	FieldOverdue      = "saldo_vencido"
	FieldCycle        = "ciclo"
	FieldName         = "nombre_acreditado"
	FieldInterest     = "intereses_vencidos"
	FieldCommission   = "comision_vencida"
	FieldSurcharges   = "recargos"
	FieldCapital      = "saldo_capital"
	FieldPar          = "par"
)

// RequiredFields must all resolve or the input is rejected.
var RequiredFields = []string{FieldCode, FieldMora, FieldCoordination}

// DefaultReportConfig mirrors the production column mapping and fraud list.
func DefaultReportConfig() ReportConfig {
	return ReportConfig{
		FraudCodes: []string{
			"001041", "001005", "001023", "001018", "001014", "001024", "001025", "001042",
			"001019", "001026", "001048", "001049", "001050", "001051", "001028", "001002",
			"001008", "001034", "001010", "001045", "001044", "001029", "001007", "001032",
			"001022", "001000", "001040",
		},
		CollaboratorCodes: []string{"000001", "000002"},
		ColumnAliases: map[string][]string{
			FieldCode:         {"Código acreditado", "Codigo acreditado", "Código", "Codigo"},
			FieldMora:         {"Días de mora", "Dias de mora", "Mora"},
			FieldCoordination: {"Coordinación", "Coordinacion"},
			FieldGeolocation:  {"Geolocalización domicilio", "Geolocalizacion domicilio", "Geolocalización"},
			FieldOverdue:      {"Saldo vencido"},
			FieldCycle:        {"Ciclo"},
			FieldName:         {"Nombre acreditado", "Nombre del acreditado"},
			FieldInterest:     {"Saldo interés vencido", "Intereses vencidos"},
			FieldCommission:   {"Saldo comisión vencida", "Comisión vencida"},
			FieldSurcharges:   {"Saldo recargos", "Recargos"},
			FieldCapital:      {"Saldo capital"},
			FieldPar:          {"PAR", "PAR 2", "PAR2", "PAR-2", "PAR_2", "PAR.2"},
		},
		ParBreakpoints: []ParBreakpoint{
			{MaxDays: 0, Label: "0"},
			{MaxDays: 7, Label: "7"},
			{MaxDays: 15, Label: "15"},
			{MaxDays: 30, Label: "30"},
			{MaxDays: 60, Label: "60"},
			{MaxDays: 90, Label: "90"},
		},
		ParOverflowLabel: ">90",
		CurrencyKeywords: []string{"monto", "saldo", "importe", "cantidad", "pago"},
		DateKeywords:     []string{"fecha", "inicio ciclo", "fin ciclo", "último pago", "ultimo pago"},
		Style: ExcelStyle{
			TableStyle:     "TableStyleLight1",
			HeaderHeight:   35,
			FreezePanes:    "A3",
			MaxColumnWidth: 50,
			CurrencyFormat: "$#,##0.00",
			DateFormat:     "DD/MM/YYYY",
			LightBlue:      "DDEBF7",
			Green:          "C6EFCE",
			Blue:           "B3D9FF",
			LightGreen:     "E6FFE6",
		},
		CallCenterBlock: TrackingBlock{
			Title: "Seguimiento Call Center",
			Fill:  "C6EFCE",
			Headers: []string{
				"Estatus de llamada (pago del día ó mora)",
				"Fecha del acuerdo de pago",
				"Horario del acuerdo de pago",
				"Monto del acuerdo",
			},
		},
		FieldBlock: TrackingBlock{
			Title: "Gestión de Cobranza en Campo",
			Fill:  "B3D9FF",
			Headers: []string{
				"Día de visita de cobranza en campo",
				"Fecha del acuerdo de pago",
				"Horario del acuerdo de pago",
				"Monto del acuerdo",
				"Monto del acuerdo",
			},
		},
		MoraBlueColumns: []string{
			"Saldo capital",
			"Saldo capital vencido",
			"Saldo interés vencido",
			"Saldo comisión vencida",
			"Saldo recargos",
		},
	}
}

// LoadReportConfig reads a YAML override file on top of the defaults.
// A missing file is not an error; the defaults are the production values.
func LoadReportConfig(path string) (ReportConfig, error) {
	cfg := DefaultReportConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// EnvInt reads an integer env var with a fallback.
func EnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// EnvStr reads a string env var with a fallback.
func EnvStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
