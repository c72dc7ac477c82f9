package mailbox

import (
	"sort"
)

// Thread is one reconstructed conversation: a canonical grouping key
// plus its member messages in date order. Threads are immutable once
// BuildThreads returns.
type Thread struct {
	Subject  string // raw subject of the earliest member, used for display
	Key      string // normalized subject the thread was created under
	Messages []*Message

	seq  int // creation order, drives deterministic merges
	dead bool
}

// BuildThreads partitions messages into conversation threads.
//
// Reference chains are the authoritative link: a message joins the
// thread of any message its References/In-Reply-To ids resolve to, and
// when its references span two existing threads those threads are
// merged, the earlier-created one keeping its canonical key. Messages
// without a resolvable reference group by normalized subject; an empty
// subject with no references yields a singleton. Reference cycles are
// harmless: each candidate id is visited once and a message is joined
// to a thread at most once.
//
// No message is ever dropped; member order is date ascending with ties
// broken by archive position, and threads order by their earliest
// member's date.
func BuildThreads(msgs []Message) []*Thread {
	ms := make([]*Message, len(msgs))
	for i := range msgs {
		ms[i] = &msgs[i]
	}

	byID := make(map[string]*Message, len(ms))
	for _, m := range ms {
		if m.MessageID != "" {
			if _, dup := byID[m.MessageID]; !dup {
				byID[m.MessageID] = m
			}
		}
	}

	var threads []*Thread
	threadOf := make(map[*Message]*Thread, len(ms))
	byKey := make(map[string]*Thread)

	newThread := func(key string) *Thread {
		t := &Thread{Key: key, seq: len(threads)}
		threads = append(threads, t)
		if key != "" {
			if _, ok := byKey[key]; !ok {
				byKey[key] = t
			}
		}
		return t
	}

	join := func(t *Thread, m *Message) {
		threadOf[m] = t
		t.Messages = append(t.Messages, m)
	}

	merge := func(a, b *Thread) *Thread {
		if a == b {
			return a
		}
		winner, loser := a, b
		if loser.seq < winner.seq {
			winner, loser = loser, winner
		}
		for _, m := range loser.Messages {
			threadOf[m] = winner
		}
		winner.Messages = append(winner.Messages, loser.Messages...)
		loser.Messages = nil
		loser.dead = true
		for key, t := range byKey {
			if t == loser {
				byKey[key] = winner
			}
		}
		return winner
	}

	// Pass 1: link by references. Processing in archive order makes
	// merge outcomes deterministic.
	for _, m := range ms {
		refs := resolveReferences(m, byID)
		if len(refs) == 0 {
			continue
		}

		var linked []*Thread
		if t, ok := threadOf[m]; ok {
			linked = append(linked, t)
		}
		for _, ref := range refs {
			if t, ok := threadOf[ref]; ok && !containsThread(linked, t) {
				linked = append(linked, t)
			}
		}

		var winner *Thread
		if len(linked) == 0 {
			winner = newThread(NormalizeSubject(m.Subject))
		} else {
			winner = linked[0]
			for _, t := range linked[1:] {
				winner = merge(winner, t)
			}
		}

		if _, ok := threadOf[m]; !ok {
			join(winner, m)
		}
		for _, ref := range refs {
			if _, ok := threadOf[ref]; !ok {
				join(winner, ref)
			}
		}
	}

	// Pass 2: everything still unlinked groups by normalized subject,
	// joining an existing thread when one was created under the same
	// key. Empty subjects become singletons.
	for _, m := range ms {
		if _, ok := threadOf[m]; ok {
			continue
		}
		key := NormalizeSubject(m.Subject)
		if key != "" {
			if t, ok := byKey[key]; ok {
				join(t, m)
				continue
			}
		}
		join(newThread(key), m)
	}

	out := make([]*Thread, 0, len(threads))
	for _, t := range threads {
		if t.dead {
			continue
		}
		sort.SliceStable(t.Messages, func(i, j int) bool {
			a, b := t.Messages[i], t.Messages[j]
			if !a.Date.Equal(b.Date) {
				return a.Date.Before(b.Date)
			}
			return a.Index < b.Index
		})
		t.Subject = t.Messages[0].Subject
		out = append(out, t)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Messages[0].Date, out[j].Messages[0].Date
		if !a.Equal(b) {
			return a.Before(b)
		}
		return out[i].seq < out[j].seq
	})
	return out
}

// resolveReferences returns the distinct messages a message's reference
// ids point at, in header order. Self references and ids absent from
// the archive (dangling, e.g. filtered out) are skipped.
func resolveReferences(m *Message, byID map[string]*Message) []*Message {
	var refs []*Message
	seen := make(map[string]struct{}, len(m.References))
	for _, id := range m.References {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		target, ok := byID[id]
		if !ok || target == m {
			continue
		}
		refs = append(refs, target)
	}
	return refs
}

func containsThread(ts []*Thread, t *Thread) bool {
	for _, x := range ts {
		if x == t {
			return true
		}
	}
	return false
}
