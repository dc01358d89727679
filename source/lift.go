package source

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// knownWeightClasses and knownWidthClasses map textual weight/width class tokens to their
// standard numeric codes (§4.1 "Instance class lift"). Unknown tokens are
// a structural error.
var knownWeightClasses = map[string]int{
	"thin":       100,
	"extralight": 200,
	"ultralight": 200,
	"light":      300,
	"regular":    400,
	"normal":     400,
	"medium":     500,
	"semibold":   600,
	"demibold":   600,
	"bold":       700,
	"extrabold":  800,
	"ultrabold":  800,
	"black":      900,
	"heavy":      900,
}

var knownWidthClasses = map[string]int{
	"ultracondensed": 1,
	"extracondensed": 2,
	"condensed":      3,
	"semicondensed":  4,
	"normal":         5,
	"semiexpanded":   6,
	"expanded":       7,
	"extraexpanded":  8,
	"ultraexpanded":  9,
}

// canonicalMetricOrder is the order in which the six canonical metrics are
// assembled during the legacy lift (§4.1 "Metric lift").
var canonicalMetricOrder = []string{"ascender", "baseline", "descender", "cap height", "x-height", "italic angle"}

// StructuralError reports a fatal §7 "structural source error".
type StructuralError struct {
	Detail string
}

func (e *StructuralError) Error() string { return "structural source error: " + e.Detail }

// Warning reports a §7 warning: does not stop the lift.
type Warning struct {
	Detail string
}

// LiftResult is the lifted Font together with any non-fatal warnings
// encountered (§4.1 "Failure semantics").
type LiftResult struct {
	Font     *Font
	Warnings []Warning
}

// Load parses plist text and lifts it into the normalized Font model,
// regardless of source format version (§4.1). The lift is deterministic:
// feeding output already in the newer format back through Load must
// reproduce a byte-identical model (§8 invariant 1 — idempotent lift);
// this holds here because the newer-format branch below performs no
// inference, only direct field reads.
func Load(text string) (*LiftResult, error) {
	root, err := Parse(text)
	if err != nil {
		return nil, err
	}
	if root.Kind != DictKind {
		return nil, &StructuralError{Detail: "top-level source value must be a dictionary"}
	}
	return lift(root.Dict)
}

func lift(root *Dict) (*LiftResult, error) {
	version := root.Int(".formatVersion", 2)
	if version == 0 {
		version = root.Int("formatVersion", 2)
	}
	res := &LiftResult{Font: &Font{FormatVersion: version}}

	upm := root.Int("unitsPerEm", 0)
	if upm == 0 {
		return nil, &StructuralError{Detail: "missing required field unitsPerEm"}
	}
	res.Font.UnitsPerEm = upm

	rawMasters, _ := root.Get("fontMaster")
	if rawMasters.Kind != Array {
		return nil, &StructuralError{Detail: "missing required field fontMaster"}
	}

	var axes []Axis
	explicitAxes, hasExplicitAxes := root.Get("axes")
	if hasExplicitAxes && explicitAxes.Kind == Array {
		for _, av := range explicitAxes.Arr {
			if av.Kind != DictKind {
				continue
			}
			axes = append(axes, Axis{
				Name:    av.Dict.Str("name"),
				Tag:     av.Dict.Str("tag"),
				Min:     av.Dict.Float("min", 0),
				Default: av.Dict.Float("default", 0),
				Max:     av.Dict.Float("max", 0),
				Hidden:  av.Dict.Str("hidden") == "1" || av.Dict.Str("hidden") == "true",
			})
		}
	}

	isLegacy := version < 3
	if isLegacy {
		var err error
		axes, err = liftLegacyAxes(axes, rawMasters.Arr)
		if err != nil {
			return nil, err
		}
	}
	if len(axes) > 3 && isLegacy {
		return nil, &StructuralError{Detail: fmt.Sprintf("legacy source implies %d axes, maximum is 3", len(axes))}
	}
	res.Font.Axes = axes

	masters := make([]Master, 0, len(rawMasters.Arr))
	metricAccum := newMetricAccumulator()
	for _, mv := range rawMasters.Arr {
		if mv.Kind != DictKind {
			continue
		}
		m, warns, err := liftMaster(mv.Dict, axes, isLegacy, metricAccum)
		if err != nil {
			return nil, err
		}
		res.Warnings = append(res.Warnings, warns...)
		masters = append(masters, m)
	}
	res.Font.Masters = masters

	// axis mapping precedence (§4.1): explicit Axis Mappings table, then
	// per-master Axis Location (only if every master has one), then
	// instance-implied mappings, then identity; master coordinates are
	// added as identity pairs afterwards.
	instancesRaw, _ := root.Get("instances")
	liftAxisMappings(root, res.Font, instancesRaw)

	radix := 10
	if isLegacy {
		radix = 16
	}
	rawGlyphs, _ := root.Get("glyphs")
	glyphOrder := map[string]int{}
	var glyphs []Glyph
	for _, gv := range rawGlyphs.Arr {
		if gv.Kind != DictKind {
			continue
		}
		g, warns := liftGlyph(gv.Dict, radix)
		res.Warnings = append(res.Warnings, warns...)
		glyphOrder[g.Name] = len(glyphs)
		glyphs = append(glyphs, g)
	}
	res.Font.Glyphs = glyphs
	res.Font.GlyphOrder = glyphOrder

	res.Font.KerningGroups = deriveKerningGroups(glyphs)
	kerningRaw, _ := root.Get("kerning")
	res.Font.Kerning = liftKerning(kerningRaw)

	if isLegacy {
		instances, warns, err := liftLegacyInstances(instancesRaw, axes)
		if err != nil {
			return nil, err
		}
		res.Warnings = append(res.Warnings, warns...)
		res.Font.Instances = instances
	} else {
		res.Font.Instances = liftInstances(instancesRaw, axes)
	}

	res.Font.Properties = liftProperties(root)
	res.Font.Features = root.Str("features")
	if res.Font.Features == "" {
		if fv, ok := root.Get("features"); ok && fv.Kind == Scalar {
			res.Font.Features = fv.Scal
		}
	}

	idx, err := selectDefaultMaster(root, res.Font.Masters)
	if err != nil {
		return nil, err
	}
	res.Font.DefaultMaster = idx

	if prefer := root.Str("prefersFeatureGDEFClasses"); prefer == "1" || prefer == "true" {
		res.Font.PreferFeatureGDEFClasses = true
	}
	cats, _ := root.Get("glyphCategories")
	if cats.Kind == DictKind {
		gdef := map[string]string{}
		for _, k := range cats.Keys() {
			gdef[k] = cats.Dict.Str(k)
		}
		res.Font.GDEFCategories = gdef
	}

	return res, nil
}

// --- axes lift (legacy) -----------------------------------------------

func liftLegacyAxes(explicit []Axis, rawMasters []Value) ([]Axis, error) {
	if len(explicit) > 0 {
		return explicit, nil
	}
	n := 0
	for _, mv := range rawMasters {
		if mv.Kind != DictKind {
			continue
		}
		count := 0
		for _, k := range []string{"weightValue", "widthValue", "customValue"} {
			if _, ok := mv.Dict.Get(k); ok {
				count++
			}
		}
		if count > n {
			n = count
		}
	}
	if n == 0 {
		n = 1 // at minimum, weight
	}
	defaults := []Axis{
		{Name: "Weight", Tag: "wght", Min: 1, Default: 100, Max: 1000},
		{Name: "Width", Tag: "wdth", Min: 1, Default: 100, Max: 1000},
		{Name: "Custom", Tag: "XXXX", Min: 0, Default: 0, Max: 1000},
	}
	if n > 3 {
		n = 3
	}
	return defaults[:n], nil
}

// --- master lift --------------------------------------------------------

type metricAccumulator struct {
	syntheticOrder []string // zone names in first-seen order
	seen           map[string]bool
}

func newMetricAccumulator() *metricAccumulator {
	return &metricAccumulator{seen: map[string]bool{}}
}

func (a *metricAccumulator) zoneName(n int) string {
	name := fmt.Sprintf("zone %d", n)
	if !a.seen[name] {
		a.seen[name] = true
		a.syntheticOrder = append(a.syntheticOrder, name)
	}
	return name
}

func liftMaster(md *Dict, axes []Axis, isLegacy bool, acc *metricAccumulator) (Master, []Warning, error) {
	var warns []Warning
	m := Master{
		ID:      md.Str("id"),
		Metrics: map[string]float64{},
		Location: DesignLocation{},
	}
	if m.ID == "" {
		return m, nil, &StructuralError{Detail: "master missing required field id"}
	}

	if isLegacy {
		fields := []string{"weightValue", "widthValue", "customValue"}
		for i, ax := range axes {
			if i >= len(fields) {
				break
			}
			v, ok := md.Get(fields[i])
			val := ax.Default
			if ok && v.Kind == Scalar {
				if f, err := strconv.ParseFloat(strings.TrimSpace(v.Scal), 64); err == nil {
					val = f
				}
			}
			m.Location[ax.Tag] = val
		}
		name, err := liftLegacyMasterName(md)
		if err != nil {
			return m, nil, err
		}
		m.Name = name
		zoneWarns := liftLegacyMetrics(md, &m, acc)
		warns = append(warns, zoneWarns...)
	} else {
		m.Name = md.Str("name")
		av, ok := md.Get("axesValues")
		if ok && av.Kind == Array {
			if len(av.Arr) != len(axes) {
				return m, nil, &StructuralError{Detail: fmt.Sprintf("master %s: axesValues has %d entries, expected %d", m.ID, len(av.Arr), len(axes))}
			}
			for i, ax := range axes {
				f, _ := strconv.ParseFloat(strings.TrimSpace(av.Arr[i].Scal), 64)
				m.Location[ax.Tag] = f
			}
		}
		metricsV, _ := md.Get("metricValues")
		if metricsV.Kind == Array {
			for i, mv := range metricsV.Arr {
				if mv.Kind != DictKind {
					continue
				}
				name := fmt.Sprintf("metric-%d", i)
				if i < len(canonicalMetricOrder) {
					name = canonicalMetricOrder[i]
				}
				m.Metrics[name] = mv.Dict.Float("pos", 0)
			}
		}
	}

	if os2, ok := md.Get("customParameters"); ok && os2.Kind == Array {
		m.OS2Overrides = liftOS2Overrides(os2.Arr)
	}

	return m, warns, nil
}

func liftLegacyMasterName(md *Dict) (string, error) {
	parts := []string{}
	italicAngle := md.Float("italicAngle", 0)
	hasItalicToken := false
	for _, key := range []string{"width", "weight", "custom"} {
		tok := strings.TrimSpace(md.Str(key))
		if tok == "" || tok == "Regular" {
			continue
		}
		parts = append(parts, tok)
		low := strings.ToLower(tok)
		if strings.Contains(low, "italic") || strings.Contains(low, "oblique") {
			hasItalicToken = true
		}
	}
	if italicAngle != 0 && !hasItalicToken {
		parts = append(parts, "Italic")
	}
	if len(parts) == 0 {
		return "Regular", nil
	}
	return strings.Join(parts, " "), nil
}

// liftLegacyMetrics assembles the six canonical metrics from the legacy
// six scalar fields plus alignment zones (§4.1 "Metric lift").
func liftLegacyMetrics(md *Dict, m *Master, acc *metricAccumulator) []Warning {
	var warns []Warning
	fieldFor := map[string]string{
		"ascender":     "ascender",
		"baseline":     "baseline", // not a real Glyphs field; always 0
		"descender":    "descender",
		"cap height":   "capHeight",
		"x-height":     "xHeight",
		"italic angle": "italicAngle",
	}
	for _, name := range canonicalMetricOrder {
		if name == "baseline" {
			m.Metrics[name] = 0
			continue
		}
		m.Metrics[name] = md.Float(fieldFor[name], 0)
	}

	zonesV, ok := md.Get("alignmentZones")
	if !ok || zonesV.Kind != Array {
		return warns
	}
	// fold zones onto the matching canonical metric by position; pos==0
	// attaches to baseline; unmatched zones become synthetic "zone N"
	// metrics in first-seen order.
	positional := []string{"baseline", "ascender", "descender", "cap height", "x-height"}
	for i, zv := range zonesV.Arr {
		if zv.Kind != DictKind {
			continue
		}
		pos := zv.Dict.Float("pos", 0)
		over := zv.Dict.Float("over", 0)
		if pos == 0 {
			if over == 0 {
				warns = append(warns, Warning{Detail: "alignment zone with pos==0 and over==0 silently dropped"})
				continue
			}
			m.Metrics["baseline-over"] = over
			continue
		}
		if i < len(positional) {
			m.Metrics[positional[i]+"-over"] = over
			continue
		}
		if over == 0 {
			warns = append(warns, Warning{Detail: "unlabeled alignment zone with over==0 dropped"})
			continue
		}
		zoneName := acc.zoneName(len(acc.syntheticOrder) + 1)
		m.Metrics[zoneName] = pos
		m.Metrics[zoneName+"-over"] = over
	}
	return warns
}

// liftOS2Overrides resolves the panose/openTypeOS2Panose short-name-first
// precedence (§9 open question) along with other per-master OS/2 custom
// parameters.
func liftOS2Overrides(params []Value) map[string]int {
	out := map[string]int{}
	shortSet := map[string]bool{}
	longToShort := map[string]string{
		"openTypeOS2Panose":       "panose",
		"openTypeOS2WeightClass":  "weightClass",
		"openTypeOS2WidthClass":   "widthClass",
	}
	for _, p := range params {
		if p.Kind != DictKind {
			continue
		}
		name := p.Dict.Str("name")
		val := p.Dict.Int("value", 0)
		if short, isLong := longToShort[name]; isLong {
			if shortSet[short] {
				continue // short-name form already recorded, it wins
			}
			out[short] = val
			continue
		}
		out[name] = val
		shortSet[name] = true
	}
	return out
}

// --- axis mapping precedence --------------------------------------------

func liftAxisMappings(root *Dict, f *Font, instancesRaw Value) {
	explicit, hasExplicit := root.Get("axisMappings")
	for ai := range f.Axes {
		ax := &f.Axes[ai]
		if hasExplicit && explicit.Kind == Array {
			if m, ok := findAxisMapping(explicit.Arr, ax.Tag); ok {
				ax.Mapping = m
				addIdentityMasterCoords(ax, f.Masters)
				continue
			}
		}
		if m, ok := perMasterAxisLocations(root, ax.Tag, f.Masters); ok {
			ax.Mapping = m
			addIdentityMasterCoords(ax, f.Masters)
			continue
		}
		if m, ok := instanceImpliedMapping(instancesRaw, ax.Tag); ok {
			ax.Mapping = m
			addIdentityMasterCoords(ax, f.Masters)
			continue
		}
		// identity: no mapping table, but still ensure master coords are
		// present as trivial identity pairs for downstream consumers.
		addIdentityMasterCoords(ax, f.Masters)
	}
}

func findAxisMapping(arr []Value, tag string) ([]AxisMapPoint, bool) {
	for _, v := range arr {
		if v.Kind != DictKind {
			continue
		}
		if v.Dict.Str("tag") != tag {
			continue
		}
		mv, ok := v.Dict.Get("map")
		if !ok || mv.Kind != Array {
			return nil, false
		}
		var pts []AxisMapPoint
		for _, p := range mv.Arr {
			if p.Kind != Array || len(p.Arr) != 2 {
				continue
			}
			u, _ := strconv.ParseFloat(p.Arr[0].Scal, 64)
			d, _ := strconv.ParseFloat(p.Arr[1].Scal, 64)
			pts = append(pts, AxisMapPoint{User: u, Design: d})
		}
		sort.Slice(pts, func(i, j int) bool { return pts[i].User < pts[j].User })
		return pts, true
	}
	return nil, false
}

func perMasterAxisLocations(root *Dict, tag string, masters []Master) ([]AxisMapPoint, bool) {
	rawMasters, _ := root.Get("fontMaster")
	if rawMasters.Kind != Array || len(rawMasters.Arr) == 0 {
		return nil, false
	}
	var pts []AxisMapPoint
	for i, mv := range rawMasters.Arr {
		if mv.Kind != DictKind {
			return nil, false
		}
		locs, ok := mv.Dict.Get("axisLocations")
		if !ok || locs.Kind != Array {
			return nil, false
		}
		found := false
		for _, lv := range locs.Arr {
			if lv.Kind != DictKind {
				continue
			}
			if lv.Dict.Str("axis") != tag {
				continue
			}
			loc := lv.Dict.Float("location", 0)
			if i >= len(masters) {
				continue
			}
			design := masters[i].Location[tag]
			pts = append(pts, AxisMapPoint{User: loc, Design: design})
			found = true
			break
		}
		if !found {
			return nil, false
		}
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i].User < pts[j].User })
	return pts, true
}

func instanceImpliedMapping(instancesRaw Value, tag string) ([]AxisMapPoint, bool) {
	if instancesRaw.Kind != Array {
		return nil, false
	}
	var pts []AxisMapPoint
	for _, iv := range instancesRaw.Arr {
		if iv.Kind != DictKind {
			continue
		}
		av, ok := iv.Dict.Get("axisMapping-" + tag)
		if !ok || av.Kind != Array || len(av.Arr) != 2 {
			continue
		}
		u, _ := strconv.ParseFloat(av.Arr[0].Scal, 64)
		d, _ := strconv.ParseFloat(av.Arr[1].Scal, 64)
		pts = append(pts, AxisMapPoint{User: u, Design: d})
	}
	if len(pts) == 0 {
		return nil, false
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i].User < pts[j].User })
	return pts, true
}

func addIdentityMasterCoords(ax *Axis, masters []Master) {
	present := map[float64]bool{}
	for _, p := range ax.Mapping {
		present[p.Design] = true
	}
	for _, m := range masters {
		v, ok := m.Location[ax.Tag]
		if !ok || present[v] {
			continue
		}
		ax.Mapping = append(ax.Mapping, AxisMapPoint{User: v, Design: v})
		present[v] = true
	}
	sort.Slice(ax.Mapping, func(i, j int) bool { return ax.Mapping[i].User < ax.Mapping[j].User })
}

// --- default master selection -------------------------------------------

func selectDefaultMaster(root *Dict, masters []Master) (int, error) {
	if origin := customParamString(root, "Variable Font Origin"); origin != "" {
		for i, m := range masters {
			if m.ID == origin {
				return i, nil
			}
		}
	}
	type contender struct {
		idx   int
		words []string
	}
	var contenders []contender
	for i, m := range masters {
		if strings.TrimSpace(m.Name) == "" {
			continue
		}
		contenders = append(contenders, contender{idx: i, words: strings.Fields(m.Name)})
	}
	if len(contenders) == 0 {
		return 0, nil
	}
	common := append([]string(nil), contenders[0].words...)
	for _, c := range contenders[1:] {
		common = intersectWords(common, c.words)
	}
	best := 0
	for _, c := range contenders {
		if wordsEqual(common, c.words) {
			best = c.idx
			break
		}
		withoutRegular := removeWord(c.words, "Regular")
		if wordsEqual(common, withoutRegular) {
			best = c.idx
		}
	}
	return best, nil
}

func customParamString(root *Dict, name string) string {
	cps, ok := root.Get("customParameters")
	if !ok || cps.Kind != Array {
		return ""
	}
	for _, p := range cps.Arr {
		if p.Kind != DictKind {
			continue
		}
		if p.Dict.Str("name") == name {
			return p.Dict.Str("value")
		}
	}
	return ""
}

func intersectWords(a, b []string) []string {
	set := map[string]bool{}
	for _, w := range b {
		set[w] = true
	}
	var out []string
	for _, w := range a {
		if set[w] {
			out = append(out, w)
		}
	}
	return out
}

func removeWord(words []string, target string) []string {
	var out []string
	for _, w := range words {
		if w != target {
			out = append(out, w)
		}
	}
	return out
}

func wordsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// --- glyph lift -----------------------------------------------------------

func liftGlyph(gd *Dict, radix int) (Glyph, []Warning) {
	var warns []Warning
	g := Glyph{
		Name:      gd.Str("glyphname"),
		Export:    gd.Str("export") != "0",
		LeftKern:  gd.Str("leftKerningGroup"),
		RightKern: gd.Str("rightKerningGroup"),
	}
	if cp, ok := gd.Get("unicode"); ok && cp.Kind == Scalar {
		g.Unicode = DecodeCodepoints(cp.Scal, radix)
	}
	if cat := gd.Str("category"); cat != "" {
		switch cat {
		case "Letter":
			g.Category = CategoryLetter
		case "Mark":
			g.Category = CategoryMark
		case "Ligature":
			g.Category = CategoryLigature
		default:
			warns = append(warns, Warning{Detail: fmt.Sprintf("glyph %s: unknown category %q", g.Name, cat)})
		}
	}
	if sub := gd.Str("subCategory"); sub != "" {
		switch sub {
		case "Nonspacing":
			g.Subcategory = SubcategoryNonspacing
		case "SpacingCombining":
			g.Subcategory = SubcategorySpacingCombining
		default:
			warns = append(warns, Warning{Detail: fmt.Sprintf("glyph %s: unknown subcategory %q", g.Name, sub)})
		}
	}
	layersV, _ := gd.Get("layers")
	for _, lv := range layersV.Arr {
		if lv.Kind != DictKind {
			continue
		}
		g.Layers = append(g.Layers, liftLayer(lv.Dict))
	}
	return g, warns
}

// DecodeCodepoints decodes a comma-separated codepoint string using the
// given radix (16 for legacy, 10 for the newer format — §4.1 "Codepoint
// decoding").
func DecodeCodepoints(s string, radix int) []uint32 {
	parts := strings.Split(s, ",")
	out := make([]uint32, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseUint(p, radix, 32)
		if err != nil {
			continue
		}
		out = append(out, uint32(v))
	}
	return out
}

func liftLayer(ld *Dict) Layer {
	l := Layer{
		MasterID: ld.Str("associatedMasterId"),
		Width:    ld.Float("width", 0),
	}
	if l.MasterID == "" {
		l.MasterID = ld.Str("layerId")
	}
	if coords, ok := ld.Get("intermediateCoordinates"); ok && coords.Kind == DictKind {
		l.IsIntermediate = true
		l.IntermediateAt = DesignLocation{}
		for _, tag := range coords.Keys() {
			l.IntermediateAt[tag] = coords.Dict.Float(tag, 0)
		}
	}
	anchorsV, _ := ld.Get("anchors")
	originShift := [2]float64{}
	hasOrigin := false
	var anchors []Anchor
	for _, av := range anchorsV.Arr {
		if av.Kind != DictKind {
			continue
		}
		raw := av.Dict.Str("name")
		kind, name, comp := DecodeAnchorName(raw)
		x := av.Dict.Float("x", 0)
		y := av.Dict.Float("y", 0)
		if kind == AnchorOrigin {
			originShift = [2]float64{x, y}
			hasOrigin = true
			continue
		}
		anchors = append(anchors, Anchor{Name: name, Kind: kind, Component: comp, X: x, Y: y})
	}
	if hasOrigin {
		for i := range anchors {
			anchors[i].X -= originShift[0]
			anchors[i].Y -= originShift[1]
		}
	}
	l.Anchors = anchors

	shapesV, _ := ld.Get("shapes")
	for _, sv := range shapesV.Arr {
		if sv.Kind != DictKind {
			continue
		}
		shape := Shape{Transform: [6]float64{1, 0, 0, 1, 0, 0}}
		if ref := sv.Dict.Str("ref"); ref != "" {
			shape.IsComponent = true
			shape.ComponentOf = ref
		}
		l.Shapes = append(l.Shapes, shape)
	}
	return l
}

// --- kerning groups / pairs -----------------------------------------------

func deriveKerningGroups(glyphs []Glyph) KerningGroups {
	groups := KerningGroups{}
	for _, g := range glyphs {
		if g.LeftKern != "" {
			groups[g.LeftKern] = append(groups[g.LeftKern], g.Name)
		}
		if g.RightKern != "" && g.RightKern != g.LeftKern {
			groups[g.RightKern] = append(groups[g.RightKern], g.Name)
		}
	}
	for k := range groups {
		sort.Strings(groups[k])
	}
	return groups
}

func liftKerning(kerningRaw Value) []KernPair {
	if kerningRaw.Kind != DictKind {
		return nil
	}
	type key struct{ l, r KernParticipant }
	order := []key{}
	values := map[key]map[string]float64{}
	for _, masterID := range kerningRaw.Keys() {
		mv, _ := kerningRaw.Get(masterID)
		if mv.Kind != DictKind {
			continue
		}
		for _, lkey := range mv.Keys() {
			rv, _ := mv.Get(lkey)
			if rv.Kind != DictKind {
				continue
			}
			left := parseParticipant(lkey)
			for _, rkey := range rv.Keys() {
				val := rv.Dict.Float(rkey, 0)
				right := parseParticipant(rkey)
				k := key{l: left, r: right}
				if _, ok := values[k]; !ok {
					values[k] = map[string]float64{}
					order = append(order, k)
				}
				values[k][masterID] = val
			}
		}
	}
	out := make([]KernPair, 0, len(order))
	for _, k := range order {
		out = append(out, KernPair{Left: k.l, Right: k.r, ByMaster: values[k]})
	}
	return out
}

func parseParticipant(key string) KernParticipant {
	if strings.HasPrefix(key, "@") {
		return KernParticipant{IsGroup: true, Name: key[1:]}
	}
	return KernParticipant{Name: key}
}

// --- instances -------------------------------------------------------------

func liftInstances(instancesRaw Value, axes []Axis) []Instance {
	var out []Instance
	for _, iv := range instancesRaw.Arr {
		if iv.Kind != DictKind {
			continue
		}
		inst := Instance{Name: iv.Dict.Str("name"), Location: DesignLocation{}}
		av, _ := iv.Dict.Get("axesValues")
		for i, ax := range axes {
			if i < len(av.Arr) {
				f, _ := strconv.ParseFloat(av.Arr[i].Scal, 64)
				inst.Location[ax.Tag] = f
			}
		}
		inst.WeightClass = iv.Dict.Int("weightClass", 400)
		inst.WidthClass = iv.Dict.Int("widthClass", 5)
		inst.Italic = iv.Dict.Str("isItalic") == "1"
		inst.Bold = iv.Dict.Str("isBold") == "1"
		out = append(out, inst)
	}
	return out
}

func liftLegacyInstances(instancesRaw Value, axes []Axis) ([]Instance, []Warning, error) {
	var out []Instance
	var warns []Warning
	for _, iv := range instancesRaw.Arr {
		if iv.Kind != DictKind {
			continue
		}
		inst := Instance{Name: iv.Dict.Str("name"), Location: DesignLocation{}}
		if len(axes) > 0 {
			inst.Location[axes[0].Tag] = iv.Dict.Float("weightValue", axes[0].Default)
		}
		if len(axes) > 1 {
			inst.Location[axes[1].Tag] = iv.Dict.Float("widthValue", axes[1].Default)
		}
		if len(axes) > 2 {
			inst.Location[axes[2].Tag] = iv.Dict.Float("customValue", axes[2].Default)
		}
		weightTok := strings.ToLower(strings.TrimSpace(iv.Dict.Str("weightClass")))
		if weightTok == "" {
			inst.WeightClass = 400
		} else if n, ok := knownWeightClasses[weightTok]; ok {
			inst.WeightClass = n
		} else {
			return nil, nil, &StructuralError{Detail: fmt.Sprintf("instance %s: unknown weight class %q", inst.Name, weightTok)}
		}
		widthTok := strings.ToLower(strings.TrimSpace(iv.Dict.Str("widthClass")))
		if widthTok == "" {
			inst.WidthClass = 5
		} else if n, ok := knownWidthClasses[widthTok]; ok {
			inst.WidthClass = n
		} else {
			return nil, nil, &StructuralError{Detail: fmt.Sprintf("instance %s: unknown width class %q", inst.Name, widthTok)}
		}
		inst.Italic = iv.Dict.Str("isItalic") == "1"
		inst.Bold = iv.Dict.Str("isBold") == "1"
		out = append(out, inst)
	}
	return out, warns, nil
}

// --- name lift ---------------------------------------------------------

var topLevelNameProperties = []string{"copyright", "designer", "designerURL", "manufacturer", "manufacturerURL"}

func liftProperties(root *Dict) Properties {
	props := Properties{}
	for _, name := range topLevelNameProperties {
		if v := root.Str(name); v != "" {
			props[name] = map[string]string{"default": v}
		}
	}
	propsV, ok := root.Get("properties")
	if ok && propsV.Kind == Array {
		for _, pv := range propsV.Arr {
			if pv.Kind != DictKind {
				continue
			}
			key := pv.Dict.Str("key")
			if key == "" {
				continue
			}
			valuesV, _ := pv.Dict.Get("values")
			if valuesV.Kind == Array {
				localized := map[string]string{}
				for _, lv := range valuesV.Arr {
					if lv.Kind != DictKind {
						continue
					}
					localized[lv.Dict.Str("language")] = lv.Dict.Str("value")
				}
				if len(localized) > 0 {
					props[key] = localized
					continue
				}
			}
			if v := pv.Dict.Str("value"); v != "" {
				props[key] = map[string]string{"default": v}
			}
		}
	}
	return props
}
