package engine

import "math/rand"

// rotationQueue is the working candidate list for one weekly shift type.
// It is drawn down front-to-back and refilled (minus the just-picked user)
// once exhausted, biasing selection toward users who haven't had a turn.
// When rng is nil the queue keeps stable roster order, so unseeded runs
// are fully deterministic.
type rotationQueue struct {
	queue  []string
	roster []string
	rng    *rand.Rand
}

func newRotationQueue(roster []string, rng *rand.Rand) *rotationQueue {
	q := &rotationQueue{
		queue:  append([]string{}, roster...),
		roster: roster,
		rng:    rng,
	}
	q.shuffle()
	return q
}

func (q *rotationQueue) shuffle() {
	if q.rng == nil {
		return
	}
	q.rng.Shuffle(len(q.queue), func(i, j int) {
		q.queue[i], q.queue[j] = q.queue[j], q.queue[i]
	})
}

// TakeNext scans the queue front-to-back and removes and returns the first
// user satisfying the predicate. If the removal empties the queue it is
// refilled with the full roster minus the just-picked user, then reshuffled.
// If no queued candidate is eligible the queue is left untouched.
func (q *rotationQueue) TakeNext(eligible func(string) bool) (string, bool) {
	for i, user := range q.queue {
		if !eligible(user) {
			continue
		}
		q.queue = append(q.queue[:i], q.queue[i+1:]...)
		if len(q.queue) == 0 {
			q.refill(user)
		}
		return user, true
	}
	return "", false
}

// Remove drops the user from the queue if present, refilling on exhaustion.
// Used when the weekly assigner selects outside the queue so the rotation
// bookkeeping still reflects the turn.
func (q *rotationQueue) Remove(user string) {
	for i, queued := range q.queue {
		if queued == user {
			q.queue = append(q.queue[:i], q.queue[i+1:]...)
			if len(q.queue) == 0 {
				q.refill(user)
			}
			return
		}
	}
}

func (q *rotationQueue) refill(exclude string) {
	q.queue = q.queue[:0]
	for _, user := range q.roster {
		if user != exclude {
			q.queue = append(q.queue, user)
		}
	}
	q.shuffle()
}
