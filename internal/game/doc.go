// Package game implements the Texas Hold'em engine that sits behind a table.
//
// The main type is Game, the single mutable record for a table's sequence of
// hands. It owns the seats, the deck, the pot and the betting state, and it
// starts the next hand in place whenever a hand resolves.
//
// # Basic Usage
//
//	g, err := game.NewGame(game.Config{ID: "g1", TableID: "main", SmallBlind: 10, BigBlind: 20},
//	    []game.Player{{ID: "alice", Chips: 1000}, {ID: "bob", Chips: 1000}})
//	// Apply actions for whoever is to act
//	outcome, err := g.Apply(g.CurrentPlayerID(), game.ActionCall, 0)
//	if outcome == game.OutcomeHandOver {
//	    fmt.Println(g.LastHand.Winner)
//	}
//
// # Deterministic Testing
//
// Each hand shuffles with deck.NewRNG(seed + handNumber), so a game created
// with a fixed Config.Seed replays card for card. Tests can stack the deck
// completely with WithDeckFunc.
//
// # Concurrency
//
// A Game is not safe for concurrent use. Callers serialize access per game
// id; the server package does this with a keyed lock.
package game
