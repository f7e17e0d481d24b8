package flate

// window is the circular history of a DEFLATE stream. It lives across the
// blocks of one stream and is cleared after the final block.
type window struct {
	hist     [windowSize]byte
	wrPos    int   // next write position
	produced int64 // bytes produced since the last reset
}

func (w *window) reset() {
	w.wrPos = 0
	w.produced = 0
}

// write appends p to the history, splitting the copy when it straddles the
// end of the buffer.
func (w *window) write(p []byte) {
	w.produced += int64(len(p))
	if len(p) > windowSize {
		w.wrPos = (w.wrPos + len(p) - windowSize) % windowSize
		p = p[len(p)-windowSize:]
	}
	n := copy(w.hist[w.wrPos:], p)
	copy(w.hist[:], p[n:])
	w.wrPos = (w.wrPos + len(p)) % windowSize
}

// writeCopy fills p with the bytes found dist bytes back, appending each to
// the history as it goes, so a run shorter than dist repeats. dist must not
// exceed produced.
func (w *window) writeCopy(p []byte, dist int) {
	w.produced += int64(len(p))
	for len(p) > 0 {
		src := w.wrPos - dist
		if src < 0 {
			src += windowSize
		}
		n := len(p)
		if n > dist {
			n = dist
		}
		if m := windowSize - src; n > m {
			n = m
		}
		if m := windowSize - w.wrPos; n > m {
			n = m
		}
		copy(w.hist[w.wrPos:w.wrPos+n], w.hist[src:src+n])
		copy(p, w.hist[w.wrPos:w.wrPos+n])
		p = p[n:]
		w.wrPos = (w.wrPos + n) % windowSize
	}
}
