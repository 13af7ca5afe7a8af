package metrics

import (
	"bytes"
	"math"
	"strconv"
	"strings"
)

// ContentType is the scrape response content type for the text format.
const ContentType = "text/plain; version=0.0.4"

// Render serializes a snapshot into Prometheus text exposition format.
// Rendering never mutates the snapshot and is deterministic: the same
// snapshot always produces byte-identical output.
func Render(snap *Snapshot) []byte {
	var buf bytes.Buffer
	for _, fs := range snap.Families {
		writeFamily(&buf, snap, fs)
	}
	return buf.Bytes()
}

// writeFamily emits the HELP/TYPE header and all series lines for one family.
// Families with no series (or derived families producing no samples) are
// omitted entirely.
func writeFamily(buf *bytes.Buffer, snap *Snapshot, fs *FamilySnapshot) {
	var derived []Sample
	if fs.Kind == KindDerived {
		derived = fs.compute(snap)
		if len(derived) == 0 {
			return
		}
	} else if len(fs.Series) == 0 {
		return
	}

	buf.WriteString("# HELP ")
	buf.WriteString(fs.Name)
	buf.WriteByte(' ')
	buf.WriteString(escapeHelp(fs.Help))
	buf.WriteByte('\n')
	buf.WriteString("# TYPE ")
	buf.WriteString(fs.Name)
	buf.WriteByte(' ')
	buf.WriteString(fs.Kind.expositionType())
	buf.WriteByte('\n')

	switch fs.Kind {
	case KindHistogram:
		for i := range fs.Series {
			writeHistogramSeries(buf, fs, &fs.Series[i])
		}
	case KindDerived:
		for _, sample := range derived {
			writeLine(buf, fs.Name, sample.Labels, nil, formatDerived(sample.Value, fs.Decimals))
		}
	default:
		for i := range fs.Series {
			writeLine(buf, fs.Name, fs.Series[i].Labels, nil, formatValue(fs.Series[i].Value, fs.Decimals))
		}
	}
}

// writeHistogramSeries emits the cumulative bucket lines followed by the
// _sum and _count lines for one histogram series.
func writeHistogramSeries(buf *bytes.Buffer, fs *FamilySnapshot, ss *SeriesSnapshot) {
	for i, bound := range fs.Buckets {
		le := labelPair{Name: "le", Value: formatBound(bound)}
		writeLine(buf, fs.Name+"_bucket", ss.Labels, &le, strconv.FormatUint(ss.BucketCounts[i], 10))
	}
	writeLine(buf, fs.Name+"_sum", ss.Labels, nil, formatValue(ss.Sum, fs.Decimals))
	writeLine(buf, fs.Name+"_count", ss.Labels, nil, strconv.FormatUint(ss.Count, 10))
}

// writeLine emits one series line. An extra pair (the histogram "le" label)
// is appended after the set's own labels, which are already in sorted order.
func writeLine(buf *bytes.Buffer, name string, ls LabelSet, extra *labelPair, value string) {
	buf.WriteString(name)
	if ls.Len() > 0 || extra != nil {
		buf.WriteByte('{')
		for i, p := range ls.pairs {
			if i > 0 {
				buf.WriteByte(',')
			}
			writePair(buf, p)
		}
		if extra != nil {
			if ls.Len() > 0 {
				buf.WriteByte(',')
			}
			writePair(buf, *extra)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(' ')
	buf.WriteString(value)
	buf.WriteByte('\n')
}

func writePair(buf *bytes.Buffer, p labelPair) {
	buf.WriteString(p.Name)
	buf.WriteString(`="`)
	buf.WriteString(escapeLabelValue(p.Value))
	buf.WriteByte('"')
}

// formatValue renders a sample value. Families with fixed decimals render at
// that precision; otherwise integral values render without a decimal point
// and fractional values in their shortest fixed-point form.
func formatValue(v float64, decimals int) string {
	if decimals >= 0 {
		return strconv.FormatFloat(v, 'f', decimals, 64)
	}
	return formatFloat(v)
}

// formatDerived renders a derived-gauge value. A derived value of exactly
// zero (in particular a ratio with a zero denominator) renders as the literal
// token "0".
func formatDerived(v float64, decimals int) string {
	if v == 0 {
		return "0"
	}
	return formatValue(v, decimals)
}

// formatFloat renders a value in its natural decimal representation.
func formatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatBound renders a bucket boundary label. Bounds use plain decimal
// notation, never scientific, with +Inf as the sentinel token.
func formatBound(bound float64) string {
	if math.IsInf(bound, 1) {
		return "+Inf"
	}
	return strconv.FormatFloat(bound, 'f', -1, 64)
}

// escapeHelp escapes help text: backslashes and newlines.
func escapeHelp(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return s
}

// escapeLabelValue escapes a label value: backslashes, double quotes and
// newlines.
func escapeLabelValue(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return s
}
