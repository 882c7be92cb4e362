package plot

import "sort"

// trimOverlaps sorts files sharing a (drive, account) bucket by start
// nonce and trims any later file whose range overlaps an earlier one, so
// no nonce is ever scanned twice. Files trimmed to an empty range are
// dropped from the returned slice. warn is called once per trim/drop
// with a human-readable description.
func trimOverlaps(files []*File, warn func(msg string)) []*File {
	sort.Slice(files, func(i, j int) bool { return files[i].Start < files[j].Start })

	kept := files[:0]
	var prevEnd uint64
	havePrev := false
	for _, f := range files {
		start := f.Start
		if havePrev && prevEnd > start {
			newStart := prevEnd
			if newStart >= f.Start+f.Nonces {
				warn("plot " + f.Filename() + ": fully overlapped, dropping")
				continue
			}
			warn("plot " + f.Filename() + ": trimmed effective range to start at " + itoa(newStart))
			f.EffectiveStart = newStart
			f.EffectiveNonces = f.Start + f.Nonces - newStart
		} else {
			f.EffectiveStart = f.Start
			f.EffectiveNonces = f.Nonces
		}
		kept = append(kept, f)
		end := f.Start + f.Nonces
		if !havePrev || end > prevEnd {
			prevEnd = end
			havePrev = true
		}
	}
	return kept
}

func itoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
