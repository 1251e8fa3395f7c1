package ot

import "sort"

// normalizeRuns drops empty runs, merges touching runs of the same style and
// sorts the result by (Start, End, Style).
func normalizeRuns(runs []Run) []Run {
	if len(runs) == 0 {
		return nil
	}

	sorted := make([]Run, 0, len(runs))
	for _, r := range runs {
		if r.End > r.Start {
			sorted = append(sorted, r)
		}
	}

	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Style != sorted[j].Style {
			return sorted[i].Style < sorted[j].Style
		}

		return sorted[i].Start < sorted[j].Start
	})

	merged := make([]Run, 0, len(sorted))
	for _, r := range sorted {
		last := len(merged) - 1
		if last >= 0 && merged[last].Style == r.Style && r.Start <= merged[last].End {
			merged[last].End = max(merged[last].End, r.End)

			continue
		}

		merged = append(merged, r)
	}

	sortRuns(merged)

	if len(merged) == 0 {
		return nil
	}

	return merged
}

func sortRuns(runs []Run) {
	sort.Slice(runs, func(i, j int) bool {
		a, b := runs[i], runs[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}

		if a.End != b.End {
			return a.End < b.End
		}

		return a.Style < b.Style
	})
}

func cloneRuns(runs []Run) []Run {
	if len(runs) == 0 {
		return nil
	}

	out := make([]Run, len(runs))
	copy(out, runs)

	return out
}

// insertRuns adjusts runs for n characters inserted at c on the same line.
// Runs strictly containing c grow; runs starting at or after c shift.
func insertRuns(runs []Run, c, n int) []Run {
	out := make([]Run, 0, len(runs))

	for _, r := range runs {
		switch {
		case r.End <= c:
		case r.Start >= c:
			r.Start += n
			r.End += n
		default:
			r.End += n
		}

		out = append(out, r)
	}

	return normalizeRuns(out)
}

// splitRuns cuts runs at c. The right half is rebased so that c becomes 0.
func splitRuns(runs []Run, c int) (left, right []Run) {
	for _, r := range runs {
		if r.Start < c {
			left = append(left, Run{Start: r.Start, End: min(r.End, c), Style: r.Style})
		}

		if r.End > c {
			right = append(right, Run{Start: max(r.Start, c) - c, End: r.End - c, Style: r.Style})
		}
	}

	return normalizeRuns(left), normalizeRuns(right)
}

func shiftRuns(runs []Run, d int) []Run {
	out := make([]Run, 0, len(runs))
	for _, r := range runs {
		out = append(out, Run{Start: r.Start + d, End: r.End + d, Style: r.Style})
	}

	return out
}

// addRun applies style over [start, end).
func addRun(runs []Run, start, end int, style Style) []Run {
	if end <= start {
		return runs
	}

	return normalizeRuns(append(cloneRuns(runs), Run{Start: start, End: end, Style: style}))
}

// removeRun clears style from [start, end), splitting runs that straddle it.
func removeRun(runs []Run, start, end int, style Style) []Run {
	if end <= start {
		return runs
	}

	out := make([]Run, 0, len(runs)+1)

	for _, r := range runs {
		if r.Style != style || r.End <= start || r.Start >= end {
			out = append(out, r)

			continue
		}

		if r.Start < start {
			out = append(out, Run{Start: r.Start, End: start, Style: style})
		}

		if r.End > end {
			out = append(out, Run{Start: end, End: r.End, Style: style})
		}
	}

	return normalizeRuns(out)
}

// covered reports whether style covers every character in [start, end).
func covered(runs []Run, start, end int, style Style) bool {
	pos := start

	for _, r := range normalizeRuns(cloneRuns(runs)) {
		if r.Style != style || r.End <= pos || r.Start > pos {
			continue
		}

		pos = r.End
		if pos >= end {
			return true
		}
	}

	return pos >= end
}
