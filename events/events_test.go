package events

import (
	"sync"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/vocdoni/confidential-tally/types"
)

func TestSubscribePublish(t *testing.T) {
	c := qt.New(t)

	bus := NewBus()
	defer bus.Stop()

	id, ch := bus.Subscribe(types.EventProposalCreated)
	c.Assert(id, qt.Equals, SubscriberID(1))

	bus.Publish(New(types.EventProposalCreated, &types.ProposalCreated{ProposalID: 7}))

	select {
	case evt := <-ch:
		c.Assert(evt.Type, qt.Equals, types.EventProposalCreated)
		data, ok := evt.Data.(*types.ProposalCreated)
		c.Assert(ok, qt.IsTrue)
		c.Assert(data.ProposalID, qt.Equals, uint64(7))
	case <-time.After(time.Second):
		c.Fatal("timeout waiting for event")
	}
}

func TestTypeFiltering(t *testing.T) {
	c := qt.New(t)

	bus := NewBus()
	defer bus.Stop()

	_, created := bus.Subscribe(types.EventProposalCreated)
	_, revealed := bus.Subscribe(types.EventResultsRevealed)

	bus.Publish(New(types.EventResultsRevealed, &types.ResultsRevealed{ProposalID: 3}))

	select {
	case evt := <-revealed:
		c.Assert(evt.Type, qt.Equals, types.EventResultsRevealed)
	case <-time.After(time.Second):
		c.Fatal("timeout waiting for event")
	}
	select {
	case <-created:
		c.Fatal("event delivered to wrong subscriber")
	default:
	}
}

func TestSubscribeFunc(t *testing.T) {
	c := qt.New(t)

	bus := NewBus()
	defer bus.Stop()

	var wg sync.WaitGroup
	wg.Add(2)
	var mu sync.Mutex
	var got []uint64
	bus.SubscribeFunc(types.EventVoteAccepted, func(evt Event) {
		defer wg.Done()
		mu.Lock()
		got = append(got, evt.Data.(*types.VoteAccepted).ProposalID)
		mu.Unlock()
	})

	bus.Publish(New(types.EventVoteAccepted, &types.VoteAccepted{ProposalID: 1}))
	bus.Publish(New(types.EventVoteAccepted, &types.VoteAccepted{ProposalID: 2}))

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		c.Fatal("timeout waiting for handlers")
	}
	mu.Lock()
	defer mu.Unlock()
	c.Assert(len(got), qt.Equals, 2)
}

func TestUnsubscribe(t *testing.T) {
	c := qt.New(t)

	bus := NewBus()
	defer bus.Stop()

	id, ch := bus.Subscribe(types.EventVoteAccepted)
	bus.Unsubscribe(types.EventVoteAccepted, id)

	// the channel is closed, publishing does not panic
	bus.Publish(New(types.EventVoteAccepted, &types.VoteAccepted{ProposalID: 1}))
	_, open := <-ch
	c.Assert(open, qt.IsFalse)
}
