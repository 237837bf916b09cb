package granular

// NoteHolder is the set of notes a cluster currently plays, with their
// velocities. Iteration is always in ascending note order.
type NoteHolder struct {
	velocity [128]uint8
	count    int
}

// Set adds or updates a note. Velocity 0 is stored as 1 so the note still
// counts as held. It reports whether the set of held notes changed.
func (h *NoteHolder) Set(note, velocity uint8) bool {
	if note > 127 {
		return false
	}
	if velocity == 0 {
		velocity = 1
	}
	added := h.velocity[note] == 0
	if added {
		h.count++
	}
	h.velocity[note] = velocity
	return added
}

// Remove drops a note. Unknown notes are ignored.
func (h *NoteHolder) Remove(note uint8) bool {
	if note > 127 || h.velocity[note] == 0 {
		return false
	}
	h.velocity[note] = 0
	h.count--
	return true
}

// Clear drops every note.
func (h *NoteHolder) Clear() {
	h.velocity = [128]uint8{}
	h.count = 0
}

// Len returns the number of held notes.
func (h *NoteHolder) Len() int { return h.count }

// Has reports whether note is held.
func (h *NoteHolder) Has(note uint8) bool {
	return note <= 127 && h.velocity[note] != 0
}

// Velocity returns the velocity of a held note, or 0.
func (h *NoteHolder) Velocity(note uint8) uint8 {
	if note > 127 {
		return 0
	}
	return h.velocity[note]
}

// Notes appends the held notes in ascending order to dst.
func (h *NoteHolder) Notes(dst []uint8) []uint8 {
	for n, v := range h.velocity {
		if v != 0 {
			dst = append(dst, uint8(n))
		}
	}
	return dst
}

// Span returns the half-open range of grains, out of grains total, that the
// k-th of notes held notes plays. Runs are contiguous and cover every grain;
// the remainder is spread Bresenham-style.
func Span(k, notes, grains int) (begin, end int) {
	if notes <= 0 || k < 0 || k >= notes {
		return 0, 0
	}
	return k * grains / notes, (k + 1) * grains / notes
}

// Partition assigns each grain the note of the run it falls in. With no
// notes held the grains keep their previous assignment.
func (h *NoteHolder) Partition(grains []Grain) {
	if h.count == 0 {
		return
	}
	k := 0
	for n, v := range h.velocity {
		if v == 0 {
			continue
		}
		begin, end := Span(k, h.count, len(grains))
		for i := begin; i < end; i++ {
			grains[i].SetNote(uint8(n), v)
		}
		k++
	}
}
