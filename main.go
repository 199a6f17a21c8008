package main

import "github.com/RyanBlaney/tts-eval/cmd"

func main() {
	cmd.Execute()
}
