package orchestration

import "strconv"

const markPrefix = "responsePart-"

// markQueue holds the names of playback marks sent to telephony and not yet
// acknowledged, oldest first.
type markQueue struct {
	names []string
}

func (q *markQueue) push(name string) {
	q.names = append(q.names, name)
}

// pop removes the oldest mark. Popping an empty queue is a no-op.
func (q *markQueue) pop() (string, bool) {
	if len(q.names) == 0 {
		return "", false
	}
	name := q.names[0]
	q.names[0] = ""
	q.names = q.names[1:]
	return name, true
}

func (q *markQueue) len() int { return len(q.names) }

func (q *markQueue) clear() { q.names = nil }

// playback tracks the assistant response currently audible to the caller.
type playback struct {
	activeItemID     string
	responseStartMs  int64
	hasResponseStart bool
	// awaitingResponse makes the next audio chunk start a new response even
	// when it reuses the previous item id.
	awaitingResponse bool
	marks            markQueue
	markSeq          uint64
}

// observe registers an audio chunk for itemID and returns the mark name to
// send after it.
func (p *playback) observe(itemID string, latestMediaMs int64) string {
	if itemID != p.activeItemID || p.awaitingResponse || !p.hasResponseStart {
		p.activeItemID = itemID
		p.responseStartMs = latestMediaMs
		p.hasResponseStart = true
		p.awaitingResponse = false
	}

	p.markSeq++
	name := markPrefix + strconv.FormatUint(p.markSeq, 10)
	p.marks.push(name)
	return name
}

func (p *playback) reset() {
	p.marks.clear()
	p.activeItemID = ""
	p.responseStartMs = 0
	p.hasResponseStart = false
}
