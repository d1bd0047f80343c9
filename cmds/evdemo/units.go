package main

import (
	"math/rand"
	"time"

	"github.com/goombaio/namegenerator"

	"github.com/mandelsoft/eventcore/pkg/events"
	"github.com/mandelsoft/eventcore/pkg/lifecycle"
)

// Damage is triggered scoped to the unit it hits.
type Damage struct {
	Amount int
	Source string
}

// Died is triggered globally when the health of a unit drops to zero.
type Died struct {
	Unit string
}

type Unit struct {
	Name   string
	Health int

	sub *events.Subscription
}

func (u *Unit) damage(e Damage) {
	u.Health -= e.Amount
	log.Info("{{unit}} takes {{amount}} damage from {{source}} (health {{health}})",
		"unit", u.Name, "amount", e.Amount, "source", e.Source, "health", u.Health)
}

// Arena generates units and hits a random one every interval.
type Arena struct {
	registry *events.Registry
	units    []*Unit
	random   *rand.Rand
	interval float64
	elapsed  float64
}

func NewArena(relay *lifecycle.Relay, n int, interval time.Duration) *Arena {
	seed := time.Now().UnixNano()
	generator := namegenerator.NewNameGenerator(seed)

	a := &Arena{
		registry: relay.Registry(),
		random:   rand.New(rand.NewSource(seed)),
		interval: interval.Seconds(),
	}
	for i := 0; i < n; i++ {
		u := &Unit{Name: generator.Generate(), Health: 10}
		u.sub = events.Listen(a.registry, u.damage, u)
		a.units = append(a.units, u)
	}

	relay.OnAwake(func() {
		log.Info("arena with {{count}} units", "count", len(a.units))
	})
	relay.OnTick(a.tick)
	events.Listen(a.registry, func(e Died) {
		log.Info("{{unit}} died", "unit", e.Unit)
	})
	relay.OnQuitting(func() {
		log.Info("{{count}} units survived", "count", len(a.units))
	})
	return a
}

func (a *Arena) tick(dt float64) {
	a.elapsed += dt
	if a.elapsed < a.interval || len(a.units) == 0 {
		return
	}
	a.elapsed = 0

	u := a.units[a.random.Intn(len(a.units))]
	err := events.Trigger(a.registry, Damage{Amount: 1 + a.random.Intn(4), Source: "arena"}, u)
	if err != nil {
		log.LogError(err, "damage failed")
	}
	if u.Health > 0 {
		return
	}
	u.sub.Unsubscribe()
	for i, c := range a.units {
		if c == u {
			a.units = append(a.units[:i], a.units[i+1:]...)
			break
		}
	}
	err = events.Trigger(a.registry, Died{Unit: u.Name})
	if err != nil {
		log.LogError(err, "death notification failed")
	}
}
