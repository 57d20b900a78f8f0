package main

import "github.com/they-call-me-electronerd/Ai-Girlfriend/cmd"

func main() {
	cmd.Execute()
}
