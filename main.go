// Package main is the entry point for the matchcoach CLI tool, which analyzes
// a player's performance in a Dota 2 match and produces coaching feedback.
package main

import "github.com/pable/go-match-coach/cmd"

func main() {
	cmd.Execute()
}
