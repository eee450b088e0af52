package main

import (
	"fmt"

	"github.com/lox/dealerd/internal/deck"
	"github.com/lox/dealerd/internal/fairness"
)

// VerifyCmd is the auditor side of commit-reveal: given the commitment
// published in hand_started and the secret revealed at showdown, check the
// binding and optionally replay the shuffle.
type VerifyCmd struct {
	Commitment string `required:"" help:"Commitment from the hand_started event"`
	Secret     string `required:"" help:"Server secret revealed at showdown"`
	HandID     string `required:"" help:"Hand ID the commitment was computed over"`
	Deck       bool   `help:"Print the replayed deck permutation"`
}

func (cmd *VerifyCmd) Run() error {
	if !fairness.VerifyReveal(cmd.Commitment, cmd.Secret, cmd.HandID) {
		return fmt.Errorf("commitment mismatch: reveal does not bind to %s", cmd.Commitment)
	}
	fmt.Println("commitment ok")
	fmt.Printf("seed %s\n", fairness.SeedHex(cmd.Secret, cmd.HandID))

	if cmd.Deck {
		cards := deck.New()
		fairness.Shuffle(fairness.New(cmd.Secret, cmd.HandID), cards)
		for i, c := range cards {
			if i > 0 {
				fmt.Print(" ")
			}
			fmt.Print(c)
		}
		fmt.Println()
	}
	return nil
}
