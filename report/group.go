package report

import (
	"log"
	"strings"

	"Crediflexi/internal/config"
)

// GroupFileType identifies one of the five uploads the grouped report
// consolidates. Detection is content-based: a file is typed by the
// canonical columns its headers resolve, never by its file name.
type GroupFileType string

const (
	TypeCobranza     GroupFileType = "cobranza"
	TypeConformacion GroupFileType = "conformacion_grupo"
	TypeAhorros      GroupFileType = "ahorros"
	TypeAntiguedad   GroupFileType = "antiguedad_grupal"
	TypeSituacion    GroupFileType = "situacion_cartera"
)

// Canonical fields that only exist in grouped-mode inputs.
const (
	fieldGrupo     = "grupo"
	fieldEstatus   = "estatus"
	fieldAhorro    = "ahorro"
	fieldSituacion = "situacion"
)

var groupOnlyAliases = map[string][]string{
	fieldGrupo:     {"Grupo", "Número de grupo", "No. de grupo", "Nombre del grupo"},
	fieldEstatus:   {"Estatus", "Estatus de llamada", "Estatus cobranza"},
	fieldAhorro:    {"Ahorro", "Saldo ahorro", "Ahorro acumulado", "Depósito", "Deposito"},
	fieldSituacion: {"Situación de cartera", "Situacion de cartera", "Situación", "Situacion", "Estado de cartera"},
}

type groupSignature struct {
	Type     GroupFileType
	Required []string
	KeyField string
}

// Signature order doubles as assignment priority: the more specific
// signatures come first so a file carrying several marker columns lands
// on the narrowest type it satisfies.
var groupSignatures = []groupSignature{
	{Type: TypeAntiguedad, Required: []string{fieldGrupo, config.FieldMora}, KeyField: fieldGrupo},
	{Type: TypeConformacion, Required: []string{config.FieldCode, fieldGrupo}, KeyField: config.FieldCode},
	{Type: TypeCobranza, Required: []string{config.FieldCode, fieldEstatus}, KeyField: config.FieldCode},
	{Type: TypeAhorros, Required: []string{config.FieldCode, fieldAhorro}, KeyField: config.FieldCode},
	{Type: TypeSituacion, Required: []string{config.FieldCode, fieldSituacion, config.FieldCoordination}, KeyField: config.FieldCode},
}

// groupAliases is the resolver table for grouped-mode files: the
// individual-report aliases plus the group-only fields.
func groupAliases(cfg config.ReportConfig) map[string][]string {
	merged := make(map[string][]string, len(cfg.ColumnAliases)+len(groupOnlyAliases))
	for k, v := range cfg.ColumnAliases {
		merged[k] = v
	}
	for k, v := range groupOnlyAliases {
		merged[k] = v
	}
	return merged
}

type typedGroupFile struct {
	Type GroupFileType
	Res  *Resolution
	DS   *Dataset
	Key  string
}

// detectGroupTypes resolves and types the five uploads. Every file must
// satisfy exactly one unclaimed signature; a file matching nothing fails
// with UnrecognizedFileError, and a set that does not cover all five
// types fails with AmbiguousFileSetError.
func detectGroupTypes(parsed [][][]string, cfg config.ReportConfig) ([]*typedGroupFile, error) {
	aliases := groupAliases(cfg)
	claimed := make(map[GroupFileType]int)
	var duplicates []string
	typed := make([]*typedGroupFile, 0, len(parsed))

	for i, rows := range parsed {
		headers, data, err := headerAndData(rows)
		if err != nil {
			return nil, err
		}
		res, err := ResolveColumns(headers, aliases, nil)
		if err != nil {
			return nil, err
		}

		var match *groupSignature
		var fallback *groupSignature
		for s := range groupSignatures {
			sig := &groupSignatures[s]
			if !satisfies(res, sig.Required) {
				continue
			}
			if fallback == nil {
				fallback = sig
			}
			if _, taken := claimed[sig.Type]; !taken {
				match = sig
				break
			}
		}
		if match == nil {
			if fallback == nil {
				return nil, &UnrecognizedFileError{FileIndex: i}
			}
			// Matches only signatures another file already claimed.
			duplicates = append(duplicates, string(fallback.Type))
			continue
		}
		claimed[match.Type] = i

		ds, stats, err := Clean(headers, data, res, cfg)
		if err != nil {
			return nil, err
		}
		if stats.DroppedNoCode > 0 {
			log.Printf("[Group] file %d (%s): dropped %d rows without account code", i+1, match.Type, stats.DroppedNoCode)
		}
		typed = append(typed, &typedGroupFile{Type: match.Type, Res: res, DS: ds, Key: match.KeyField})
	}

	var missing []string
	for _, sig := range groupSignatures {
		if _, ok := claimed[sig.Type]; !ok {
			missing = append(missing, string(sig.Type))
		}
	}
	if len(missing) > 0 || len(duplicates) > 0 {
		return nil, &AmbiguousFileSetError{MissingTypes: missing, DuplicateTypes: duplicates}
	}
	return typed, nil
}

func satisfies(res *Resolution, required []string) bool {
	for _, f := range required {
		if res.First(f) < 0 {
			return false
		}
	}
	return true
}

var groupColumnPrefix = map[GroupFileType]string{
	TypeConformacion: "Grupo",
	TypeCobranza:     "Cobranza",
	TypeAhorros:      "Ahorros",
	TypeAntiguedad:   "Grupal",
}

// MergeGroup joins the five typed datasets into one consolidated
// account-level dataset. The portfolio-status file is the base; the
// account-keyed sources append their columns by account code, and the
// group-level antiquity columns reach each account through the
// code → group mapping the composition file provides. The result carries
// every account code present across the account-keyed sources.
func MergeGroup(files []*typedGroupFile, cfg config.ReportConfig) (*Dataset, error) {
	byType := make(map[GroupFileType]*typedGroupFile, len(files))
	for _, tf := range files {
		byType[tf.Type] = tf
	}
	base := byType[TypeSituacion]

	// code -> group identifier, from the composition file.
	conf := byType[TypeConformacion]
	grupoCol := conf.DS.Col(fieldGrupo)
	groupOf := make(map[string]string, len(conf.DS.Rows))
	for _, r := range conf.DS.Rows {
		if grupoCol >= 0 && r.Code != "" {
			groupOf[r.Code] = strings.TrimSpace(r.Cells[grupoCol])
		}
	}

	merged := &Dataset{
		Headers: append([]string(nil), base.DS.Headers...),
		Fields:  make(map[string]int, len(base.DS.Fields)),
	}
	for k, v := range base.DS.Fields {
		merged.Fields[k] = v
	}

	// Appended column layout per joined source, key column omitted.
	type appended struct {
		tf      *typedGroupFile
		cols    []int // source dataset columns carried over
		offset  int   // first merged column
		byKey   map[string]*Row
		keyIsGr bool
	}
	joinOrder := []GroupFileType{TypeConformacion, TypeCobranza, TypeAhorros, TypeAntiguedad}
	var joins []*appended
	offset := len(merged.Headers)
	for _, t := range joinOrder {
		tf := byType[t]
		keyIsGroup := tf.Key == fieldGrupo
		keyCol := tf.DS.Col(tf.Key)
		ap := &appended{tf: tf, offset: offset, byKey: make(map[string]*Row, len(tf.DS.Rows)), keyIsGr: keyIsGroup}
		codeCol := tf.DS.Col(config.FieldCode)
		for c, h := range tf.DS.Headers {
			if c == keyCol || (!keyIsGroup && c == codeCol) {
				continue
			}
			ap.cols = append(ap.cols, c)
			merged.Headers = append(merged.Headers, groupColumnPrefix[t]+": "+h)
		}
		for _, r := range tf.DS.Rows {
			key := r.Code
			if keyIsGroup {
				key = strings.TrimSpace(r.Cells[keyCol])
			}
			if key == "" {
				continue
			}
			if _, ok := ap.byKey[key]; !ok {
				ap.byKey[key] = r
			}
		}
		// Canonical fields the base lacks resolve into the joined columns.
		for field, srcCol := range tf.DS.Fields {
			if _, have := merged.Fields[field]; have {
				continue
			}
			for j, c := range ap.cols {
				if c == srcCol {
					merged.Fields[field] = offset + j
				}
			}
		}
		offset += len(ap.cols)
		joins = append(joins, ap)
	}

	width := len(merged.Headers)
	baseCodeCol := base.DS.Col(config.FieldCode)

	appendRow := func(code string, baseRow *Row) {
		row := &Row{Cells: make([]string, width), Code: code}
		if baseRow != nil {
			copy(row.Cells, baseRow.Cells)
			*row = Row{Cells: row.Cells, Code: code,
				MoraDays: baseRow.MoraDays, MoraKnown: baseRow.MoraKnown,
				Overdue: baseRow.Overdue, Coordination: baseRow.Coordination,
				Geolocation: baseRow.Geolocation, PhoneFlagged: baseRow.PhoneFlagged}
		} else if baseCodeCol >= 0 {
			row.Cells[baseCodeCol] = code
		}
		for _, ap := range joins {
			key := code
			if ap.keyIsGr {
				key = groupOf[code]
			}
			src, ok := ap.byKey[key]
			if !ok {
				continue
			}
			for j, c := range ap.cols {
				row.Cells[ap.offset+j] = src.Cells[c]
			}
			// Group-level delinquency applies to each member account.
			if ap.keyIsGr && !row.MoraKnown && src.MoraKnown {
				row.MoraDays = src.MoraDays
				row.MoraKnown = true
			}
		}
		merged.Rows = append(merged.Rows, row)
	}

	seen := make(map[string]bool)
	for _, r := range base.DS.Rows {
		if r.Code == "" || seen[r.Code] {
			continue
		}
		seen[r.Code] = true
		appendRow(r.Code, r)
	}
	for _, t := range []GroupFileType{TypeConformacion, TypeCobranza, TypeAhorros} {
		for _, r := range byType[t].DS.Rows {
			if r.Code == "" || seen[r.Code] {
				continue
			}
			seen[r.Code] = true
			appendRow(r.Code, nil)
		}
	}

	return merged, nil
}
