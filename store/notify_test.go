package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"instafacts-api/models"
)

func TestNotifierDeliversToAllSubscribers(t *testing.T) {
	n := newNotifier()

	var a, b []Event
	n.subscribe(func(ev Event) { a = append(a, ev) })
	n.subscribe(func(ev Event) { b = append(b, ev) })

	n.publish(Event{Table: "posts", Action: "insert", PostID: "p1"})

	assert.Len(t, a, 1)
	assert.Len(t, b, 1)
	assert.Equal(t, "p1", a[0].PostID)
}

func TestNotifierUnsubscribeFullyDetaches(t *testing.T) {
	n := newNotifier()

	var got []Event
	unsubscribe := n.subscribe(func(ev Event) { got = append(got, ev) })

	n.publish(Event{Table: "comments", Action: "insert"})
	unsubscribe()
	n.publish(Event{Table: "comments", Action: "delete"})

	assert.Len(t, got, 1, "no events after unsubscribe")

	// Unsubscribing twice is harmless.
	unsubscribe()
}

func TestNotifierUnsubscribeFromWithinCallback(t *testing.T) {
	n := newNotifier()

	count := 0
	var unsubscribe func()
	unsubscribe = n.subscribe(func(Event) {
		count++
		unsubscribe()
	})

	n.publish(Event{Table: "posts"})
	n.publish(Event{Table: "posts"})

	assert.Equal(t, 1, count)
}

func TestGroupPostReactionsSplitsDirections(t *testing.T) {
	up, down := groupPostReactions([]models.PostReaction{
		{PostID: "p1", UserID: "u1", Up: true},
		{PostID: "p1", UserID: "u2", Up: false},
		{PostID: "p2", UserID: "u1", Up: true},
	})

	assert.Equal(t, []string{"u1"}, up["p1"])
	assert.Equal(t, []string{"u2"}, down["p1"])
	assert.Equal(t, []string{"u1"}, up["p2"])
	assert.Empty(t, down["p2"])
}
